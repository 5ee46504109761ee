package arrowbridge

import (
	"math"
	"math/big"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/nativedb/chclient/block"
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
	"github.com/nativedb/chclient/errs"
)

// RecordToBlock converts an Arrow record into a row block, mapping
// each field via FieldToServerType and each backing array via
// arrayToColumn. schema and record must describe the same columns (as
// they do for any arrow.Record taken from a RecordBuilder built off
// schema).
func RecordToBlock(schema *arrow.Schema, record arrow.Record, opts *ConversionOptions) (*block.Block, error) {
	if opts == nil {
		opts = &ConversionOptions{}
	}

	b := &block.Block{Columns: make([]block.Column, schema.NumFields())}
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		t, err := FieldToServerType(f, opts)
		if err != nil {
			return nil, err
		}

		col, err := arrayToColumn(record.Column(i), t, f.Name, opts)
		if err != nil {
			return nil, err
		}

		b.Columns[i] = block.Column{Name: f.Name, Type: t, Data: col}
	}

	return b, nil
}

func arrayToColumn(arr arrow.Array, t chtype.ServerType, name string, opts *ConversionOptions) (column.Column, error) {
	if nt, ok := t.(chtype.Nullable); ok {
		null := make([]bool, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			null[i] = arr.IsNull(i)
		}

		inner, err := arrayToColumn(arr, nt.Inner, name, opts)
		if err != nil {
			return nil, err
		}

		return column.NewNullableColumn(nt, null, inner), nil
	}

	switch t := t.(type) {
	case chtype.Decimal:
		return decimalArrayToColumn(arr, t, name)
	case chtype.FixedString:
		return fixedStringArrayToColumn(arr, t, name)
	case chtype.DateTime:
		return dateTimeArrayToColumn(arr, t, name)
	case chtype.DateTime64:
		return dateTime64ArrayToColumn(arr, t, name)
	case chtype.Enum8, chtype.Enum16:
		return enumArrayToColumn(arr, t, name)
	case chtype.Array:
		return listArrayToColumn(arr, t, name, opts)
	case chtype.Tuple:
		return structArrayToColumn(arr, t, name, opts)
	case chtype.Map:
		return mapArrayToColumn(arr, t, name, opts)
	case chtype.LowCardinality:
		return dictArrayToColumn(arr, t, name, opts)
	}

	switch t.Kind() {
	case chtype.KindInt8, chtype.KindInt16, chtype.KindInt32, chtype.KindInt64,
		chtype.KindUInt8, chtype.KindUInt16, chtype.KindUInt32, chtype.KindUInt64,
		chtype.KindFloat32, chtype.KindFloat64, chtype.KindDate, chtype.KindDate32,
		chtype.KindIPv4:
		return fixedWidthArrayToColumn(arr, t, name)
	case chtype.KindUUID, chtype.KindIPv6:
		return fixedSizeBinaryToColumn(arr, t, name)
	case chtype.KindString:
		return stringArrayToColumn(arr, name)
	case chtype.KindDynamic, chtype.KindJSON, chtype.KindVariant:
		return opaqueArrayToColumn(arr, t)
	case chtype.KindNothing:
		return column.Empty(chtype.Nothing)
	default:
		return nil, errs.SchemaIncompatiblef("arrowbridge.arrayToColumn", "column %q: unsupported server type %s", name, t.String())
	}
}

func fixedWidthArrayToColumn(arr arrow.Array, t chtype.ServerType, name string) (column.Column, error) {
	n := arr.Len()
	width := fixedWidthOf(t.Kind())
	data := make([]byte, n*width)

	for i := 0; i < n; i++ {
		var v uint64
		switch a := arr.(type) {
		case *array.Int8:
			v = uint64(uint8(a.Value(i)))
		case *array.Int16:
			v = uint64(uint16(a.Value(i)))
		case *array.Int32:
			v = uint64(uint32(a.Value(i)))
		case *array.Int64:
			v = uint64(a.Value(i))
		case *array.Uint8:
			v = uint64(a.Value(i))
		case *array.Uint16:
			v = uint64(a.Value(i))
		case *array.Uint32:
			v = uint64(a.Value(i))
		case *array.Uint64:
			v = a.Value(i)
		case *array.Float32:
			v = uint64(math.Float32bits(a.Value(i)))
		case *array.Float64:
			v = math.Float64bits(a.Value(i))
		case *array.Date32:
			v = uint64(uint32(a.Value(i)))
		default:
			return nil, errs.SchemaIncompatiblef("arrowbridge.fixedWidthArrayToColumn", "column %q: unexpected Arrow array type %T", name, arr)
		}

		putLE(data[i*width:(i+1)*width], v, width)
	}

	return column.NewFixedWidthColumn(t, data)
}

func fixedSizeBinaryToColumn(arr arrow.Array, t chtype.ServerType, name string) (column.Column, error) {
	fsb, ok := arr.(*array.FixedSizeBinary)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.fixedSizeBinaryToColumn", "column %q: want FixedSizeBinary, got %T", name, arr)
	}

	n := fsb.Len()
	data := make([]byte, n*16)
	for i := 0; i < n; i++ {
		v := fsb.Value(i)
		if len(v) != 16 {
			return nil, errs.SchemaIncompatiblef("arrowbridge.fixedSizeBinaryToColumn", "column %q: expected 16-byte value, got %d", name, len(v))
		}
		copy(data[i*16:(i+1)*16], v)
	}

	return column.NewFixedWidthColumn(t, data)
}

func stringArrayToColumn(arr arrow.Array, name string) (column.Column, error) {
	switch a := arr.(type) {
	case *array.String:
		data := make([][]byte, a.Len())
		for i := range data {
			data[i] = []byte(a.Value(i))
		}
		return &column.StringColumn{Data: data}, nil
	case *array.Binary:
		data := make([][]byte, a.Len())
		for i := range data {
			data[i] = a.Value(i)
		}
		return &column.StringColumn{Data: data}, nil
	default:
		return nil, errs.SchemaIncompatiblef("arrowbridge.stringArrayToColumn", "column %q: want String/Binary, got %T", name, arr)
	}
}

func fixedStringArrayToColumn(arr arrow.Array, t chtype.FixedString, name string) (column.Column, error) {
	fsb, ok := arr.(*array.FixedSizeBinary)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.fixedStringArrayToColumn", "column %q: want FixedSizeBinary, got %T", name, arr)
	}

	data := make([][]byte, fsb.Len())
	for i := range data {
		v := fsb.Value(i)
		if len(v) > t.N {
			return nil, errs.SchemaIncompatiblef("arrowbridge.fixedStringArrayToColumn", "column %q: value length %d exceeds FixedString(%d)", name, len(v), t.N)
		}
		data[i] = v
	}

	return column.NewFixedStringColumn(t, data), nil
}

func dateTimeArrayToColumn(arr arrow.Array, t chtype.DateTime, name string) (column.Column, error) {
	ts, ok := arr.(*array.Timestamp)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.dateTimeArrayToColumn", "column %q: want Timestamp, got %T", name, arr)
	}

	data := make([]uint32, ts.Len())
	for i := range data {
		data[i] = uint32(int64(ts.Value(i)))
	}

	return column.NewDateTimeColumn(t, data), nil
}

func dateTime64ArrayToColumn(arr arrow.Array, t chtype.DateTime64, name string) (column.Column, error) {
	ts, ok := arr.(*array.Timestamp)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.dateTime64ArrayToColumn", "column %q: want Timestamp, got %T", name, arr)
	}

	data := make([]int64, ts.Len())
	for i := range data {
		data[i] = int64(ts.Value(i))
	}

	return column.NewDateTime64Column(t, data), nil
}

func enumArrayToColumn(arr arrow.Array, t chtype.ServerType, name string) (column.Column, error) {
	dict, ok := arr.(*array.Dictionary)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.enumArrayToColumn", "column %q: want Dictionary, got %T", name, arr)
	}

	var pairs []chtype.EnumPair
	var e8 chtype.Enum8
	var e16 chtype.Enum16
	width := 8
	if v, ok := t.(chtype.Enum8); ok {
		e8 = v
		pairs = e8.Pairs
	} else {
		e16 = t.(chtype.Enum16)
		pairs = e16.Pairs
		width = 16
	}

	codeByName := make(map[string]int32, len(pairs))
	for _, p := range pairs {
		codeByName[p.Name] = p.Code
	}

	values, ok := dict.Dictionary().(*array.String)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.enumArrayToColumn", "column %q: enum dictionary values must be strings", name)
	}

	n := dict.Len()
	if width == 8 {
		data := make([]int8, n)
		for i := 0; i < n; i++ {
			name := values.Value(dict.GetValueIndex(i))
			code, ok := codeByName[name]
			if !ok {
				return nil, errs.SchemaIncompatiblef("arrowbridge.enumArrayToColumn", "row %d: name %q has no Enum8 code", i, name)
			}
			data[i] = int8(code)
		}
		return column.NewEnum8Column(e8, data), nil
	}

	data := make([]int16, n)
	for i := 0; i < n; i++ {
		rowName := values.Value(dict.GetValueIndex(i))
		code, ok := codeByName[rowName]
		if !ok {
			return nil, errs.SchemaIncompatiblef("arrowbridge.enumArrayToColumn", "row %d: name %q has no Enum16 code", i, rowName)
		}
		data[i] = int16(code)
	}

	return column.NewEnum16Column(e16, data), nil
}

func decimalArrayToColumn(arr arrow.Array, t chtype.Decimal, name string) (column.Column, error) {
	width := t.BackingBits / 8
	var n int
	bigInts := func(i int) *big.Int { return nil }

	switch a := arr.(type) {
	case *array.Decimal128:
		n = a.Len()
		bigInts = func(i int) *big.Int { return a.Value(i).BigInt() }
	case *array.Decimal256:
		n = a.Len()
		bigInts = func(i int) *big.Int { return a.Value(i).BigInt() }
	default:
		return nil, errs.SchemaIncompatiblef("arrowbridge.decimalArrayToColumn", "column %q: want Decimal128/256, got %T", name, arr)
	}

	data := make([]byte, n*width)
	maxBits := width*8 - 1
	limit := new(big.Int).Lsh(big.NewInt(1), uint(maxBits))

	for i := 0; i < n; i++ {
		v := bigInts(i)
		if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, errs.SchemaIncompatiblef("arrowbridge.decimalArrayToColumn", "column %q row %d: value overflows Decimal(%d,%d)", name, i, t.Precision, t.Scale)
		}

		putBigIntLE(data[i*width:(i+1)*width], v)
	}

	return column.NewDecimalColumn(t, data), nil
}

func listArrayToColumn(arr arrow.Array, t chtype.Array, name string, opts *ConversionOptions) (column.Column, error) {
	list, ok := arr.(*array.List)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.listArrayToColumn", "column %q: want List, got %T", name, arr)
	}

	offsets := list.Offsets()
	cum := make([]uint64, list.Len())
	base := uint64(offsets[0])
	for i := range cum {
		cum[i] = uint64(offsets[i+1]) - base
	}

	inner, err := arrayToColumn(list.ListValues(), t.Inner, name, opts)
	if err != nil {
		return nil, err
	}

	return column.NewArrayColumn(t, cum, inner), nil
}

func structArrayToColumn(arr arrow.Array, t chtype.Tuple, name string, opts *ConversionOptions) (column.Column, error) {
	st, ok := arr.(*array.Struct)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.structArrayToColumn", "column %q: want Struct, got %T", name, arr)
	}

	fields := make([]column.Column, len(t.Fields))
	for i, ft := range t.Fields {
		fc, err := arrayToColumn(st.Field(i), ft, name, opts)
		if err != nil {
			return nil, err
		}
		fields[i] = fc
	}

	return column.NewTupleColumn(t, fields, st.Len()), nil
}

func mapArrayToColumn(arr arrow.Array, t chtype.Map, name string, opts *ConversionOptions) (column.Column, error) {
	m, ok := arr.(*array.Map)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.mapArrayToColumn", "column %q: want Map, got %T", name, arr)
	}

	offsets := m.Offsets()
	cum := make([]uint64, m.Len())
	base := uint64(offsets[0])
	for i := range cum {
		cum[i] = uint64(offsets[i+1]) - base
	}

	keys, err := arrayToColumn(m.Keys(), t.Key, name, opts)
	if err != nil {
		return nil, err
	}
	values, err := arrayToColumn(m.Items(), t.Value, name, opts)
	if err != nil {
		return nil, err
	}

	return column.NewMapColumn(t, cum, keys, values), nil
}

func dictArrayToColumn(arr arrow.Array, t chtype.LowCardinality, name string, opts *ConversionOptions) (column.Column, error) {
	dict, ok := arr.(*array.Dictionary)
	if !ok {
		return nil, errs.SchemaIncompatiblef("arrowbridge.dictArrayToColumn", "column %q: want Dictionary, got %T", name, arr)
	}

	nonNullInner, _ := unwrapNullableType(t.Inner)
	values, err := arrayToColumn(dict.Dictionary(), nonNullInner, name, opts)
	if err != nil {
		return nil, err
	}

	n := dict.Len()
	indices := make([]uint64, n)
	for i := 0; i < n; i++ {
		if dict.IsNull(i) {
			indices[i] = 0
			continue
		}

		idx := uint64(dict.GetValueIndex(i))
		if _, nullable := unwrapNullableType(t.Inner); nullable {
			idx++
		}
		indices[i] = idx
	}

	return column.NewLowCardinalityColumn(t, values, indices), nil
}

func opaqueArrayToColumn(arr arrow.Array, t chtype.ServerType) (column.Column, error) {
	bin, ok := arr.(*array.Binary)
	if !ok {
		return column.NewOpaqueColumn(t, arr.Len(), nil), nil
	}

	var buf []byte
	for i := 0; i < bin.Len(); i++ {
		buf = append(buf, bin.Value(i)...)
	}

	return column.NewOpaqueColumn(t, arr.Len(), buf), nil
}

func fixedWidthOf(k chtype.Kind) int {
	switch k {
	case chtype.KindInt8, chtype.KindUInt8:
		return 1
	case chtype.KindInt16, chtype.KindUInt16, chtype.KindDate:
		return 2
	case chtype.KindInt32, chtype.KindUInt32, chtype.KindFloat32, chtype.KindDate32, chtype.KindIPv4:
		return 4
	default:
		return 8
	}
}

func putLE(buf []byte, v uint64, width int) {
	for i := 0; i < width; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
}

func putBigIntLE(buf []byte, v *big.Int) {
	width := len(buf)
	if v.Sign() >= 0 {
		b := v.Bytes() // big-endian
		for i := 0; i < len(b) && i < width; i++ {
			buf[i] = b[len(b)-1-i]
		}
		return
	}

	// two's complement: (1<<(8*width) + v)
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	twos := new(big.Int).Add(mod, v)
	b := twos.Bytes()
	for i := 0; i < len(b) && i < width; i++ {
		buf[i] = b[len(b)-1-i]
	}
}

// BlockToRecord builds an Arrow record from a row block, the inverse
// of RecordToBlock: schema comes from HeaderToSchema(b, opts), arrays
// are built via a RecordBuilder the way the arrowarc reference builds
// one field at a time.
func BlockToRecord(mem memory.Allocator, b *block.Block, opts *ConversionOptions) (arrow.Record, error) {
	schema, err := HeaderToSchema(b, opts)
	if err != nil {
		return nil, err
	}

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	for i, c := range b.Columns {
		if err := appendColumn(rb.Field(i), c.Type, c.Data); err != nil {
			return nil, errs.SchemaIncompatiblef("arrowbridge.BlockToRecord", "column %q: %v", c.Name, err)
		}
	}

	return rb.NewRecord(), nil
}
