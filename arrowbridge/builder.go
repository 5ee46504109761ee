package arrowbridge

import (
	"math"
	"math/big"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"

	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
	"github.com/nativedb/chclient/errs"
)

// appendColumn appends col's N rows into b, the Arrow builder for
// server type t. It is the inverse of arrayToColumn: every column.Column
// concrete type handled there has a matching case here.
func appendColumn(b array.Builder, t chtype.ServerType, col column.Column) error {
	if nc, ok := col.(*column.NullableColumn); ok {
		nt := t.(chtype.Nullable)
		for i, isNull := range nc.Null {
			if isNull {
				b.AppendNull()
				continue
			}
			if err := appendRow(b, nt.Inner, nc.Inner, i); err != nil {
				return err
			}
		}

		return nil
	}

	for i := 0; i < col.Len(); i++ {
		if err := appendRow(b, t, col, i); err != nil {
			return err
		}
	}

	return nil
}

func appendRow(b array.Builder, t chtype.ServerType, col column.Column, i int) error {
	switch t := t.(type) {
	case chtype.Decimal:
		return appendDecimalRow(b, t, col.(*column.DecimalColumn), i)
	case chtype.FixedString:
		return appendFixedStringRow(b, col.(*column.FixedStringColumn), i)
	case chtype.DateTime:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(col.(*column.DateTimeColumn).Data[i]))
		return nil
	case chtype.DateTime64:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(col.(*column.DateTime64Column).Data[i]))
		return nil
	case chtype.Enum8:
		return appendEnumRow(b, t.Pairs, int32(col.(*column.Enum8Column).Data[i]))
	case chtype.Enum16:
		return appendEnumRow(b, t.Pairs, int32(col.(*column.Enum16Column).Data[i]))
	case chtype.Array:
		return appendArrayRow(b, t, col.(*column.ArrayColumn), i)
	case chtype.Tuple:
		return appendTupleRow(b, t, col.(*column.TupleColumn), i)
	case chtype.Map:
		return appendMapRow(b, t, col.(*column.MapColumn), i)
	case chtype.LowCardinality:
		return appendLowCardinalityRow(b, t, col.(*column.LowCardinalityColumn), i)
	}

	switch t.Kind() {
	case chtype.KindInt8, chtype.KindInt16, chtype.KindInt32, chtype.KindInt64,
		chtype.KindUInt8, chtype.KindUInt16, chtype.KindUInt32, chtype.KindUInt64,
		chtype.KindFloat32, chtype.KindFloat64, chtype.KindDate, chtype.KindDate32,
		chtype.KindIPv4:
		return appendFixedWidthRow(b, t, col.(*column.FixedWidthColumn), i)
	case chtype.KindUUID:
		u := col.(*column.UUIDColumn).Data[i]
		return b.(*array.FixedSizeBinaryBuilder).Append(u[:])
	case chtype.KindIPv6:
		v := col.(*column.FixedWidthColumn).At(i)
		return b.(*array.FixedSizeBinaryBuilder).Append(v)
	case chtype.KindString:
		sc := col.(*column.StringColumn)
		switch bb := b.(type) {
		case *array.StringBuilder:
			bb.Append(string(sc.Data[i]))
		case *array.BinaryBuilder:
			bb.Append(sc.Data[i])
		}
		return nil
	case chtype.KindDynamic, chtype.KindJSON, chtype.KindVariant:
		// The payload has no per-row boundaries: row 0 carries all of it
		// and later rows are empty, so opaqueArrayToColumn's
		// concatenation gives the payload back unchanged.
		oc := col.(*column.OpaqueColumn)
		if i == 0 {
			b.(*array.BinaryBuilder).Append(oc.Data)
		} else {
			b.(*array.BinaryBuilder).Append(nil)
		}
		return nil
	case chtype.KindNothing:
		b.AppendNull()
		return nil
	default:
		return errs.SchemaIncompatiblef("arrowbridge.appendRow", "unsupported server type %s", t.String())
	}
}

func appendFixedWidthRow(b array.Builder, t chtype.ServerType, col *column.FixedWidthColumn, i int) error {
	raw := col.At(i)

	switch bb := b.(type) {
	case *array.Int8Builder:
		bb.Append(int8(raw[0]))
	case *array.Int16Builder:
		bb.Append(int16(leUint(raw)))
	case *array.Int32Builder:
		bb.Append(int32(leUint(raw)))
	case *array.Int64Builder:
		bb.Append(int64(leUint(raw)))
	case *array.Uint8Builder:
		bb.Append(raw[0])
	case *array.Uint16Builder:
		bb.Append(uint16(leUint(raw)))
	case *array.Uint32Builder:
		bb.Append(uint32(leUint(raw)))
	case *array.Uint64Builder:
		bb.Append(leUint(raw))
	case *array.Float32Builder:
		bb.Append(math.Float32frombits(uint32(leUint(raw))))
	case *array.Float64Builder:
		bb.Append(math.Float64frombits(leUint(raw)))
	case *array.Date32Builder:
		bb.Append(arrow.Date32(int32(leUint(raw))))
	default:
		return errs.SchemaIncompatiblef("arrowbridge.appendFixedWidthRow", "no builder case for %T (server type %s)", b, t.String())
	}

	return nil
}

func leUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return v
}

func appendFixedStringRow(b array.Builder, col *column.FixedStringColumn, i int) error {
	fb, ok := b.(*array.FixedSizeBinaryBuilder)
	if !ok {
		return errs.SchemaIncompatiblef("arrowbridge.appendFixedStringRow", "want FixedSizeBinaryBuilder, got %T", b)
	}

	return fb.Append(col.Data[i])
}

func appendDecimalRow(b array.Builder, t chtype.Decimal, col *column.DecimalColumn, i int) error {
	width := t.BackingBits / 8
	raw := col.Data[i*width : (i+1)*width]
	bi := leBytesToBigInt(raw)

	switch bb := b.(type) {
	case *array.Decimal128Builder:
		n, err := decimal128.FromBigInt(bi)
		if err != nil {
			return errs.SchemaIncompatiblef("arrowbridge.appendDecimalRow", "row %d: %v", i, err)
		}
		bb.Append(n)
	case *array.Decimal256Builder:
		n, err := decimal256.FromBigInt(bi)
		if err != nil {
			return errs.SchemaIncompatiblef("arrowbridge.appendDecimalRow", "row %d: %v", i, err)
		}
		bb.Append(n)
	default:
		return errs.SchemaIncompatiblef("arrowbridge.appendDecimalRow", "no builder case for %T", b)
	}

	return nil
}

// leBytesToBigInt interprets raw as a little-endian two's-complement
// signed integer, the layout column.DecimalColumn stores on the wire.
func leBytesToBigInt(raw []byte) *big.Int {
	be := make([]byte, len(raw))
	for i, b := range raw {
		be[len(raw)-1-i] = b
	}

	v := new(big.Int).SetBytes(be)
	if len(be) > 0 && be[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(raw)*8))
		v.Sub(v, mod)
	}

	return v
}

func appendEnumRow(b array.Builder, pairs []chtype.EnumPair, code int32) error {
	var name string
	for _, p := range pairs {
		if p.Code == code {
			name = p.Name
			break
		}
	}

	db, ok := b.(array.DictionaryBuilder)
	if !ok {
		return errs.SchemaIncompatiblef("arrowbridge.appendEnumRow", "want DictionaryBuilder, got %T", b)
	}

	return db.AppendValueFromString(name)
}

func appendArrayRow(b array.Builder, t chtype.Array, col *column.ArrayColumn, i int) error {
	lb, ok := b.(*array.ListBuilder)
	if !ok {
		return errs.SchemaIncompatiblef("arrowbridge.appendArrayRow", "want ListBuilder, got %T", b)
	}

	lb.Append(true)
	start, end := col.Bounds(i)
	vb := lb.ValueBuilder()
	for j := start; j < end; j++ {
		if err := appendRow(vb, t.Inner, col.Inner, int(j)); err != nil {
			return err
		}
	}

	return nil
}

func appendTupleRow(b array.Builder, t chtype.Tuple, col *column.TupleColumn, i int) error {
	sb, ok := b.(*array.StructBuilder)
	if !ok {
		return errs.SchemaIncompatiblef("arrowbridge.appendTupleRow", "want StructBuilder, got %T", b)
	}

	sb.Append(true)
	for fi, ft := range t.Fields {
		if err := appendRow(sb.FieldBuilder(fi), ft, col.Fields[fi], i); err != nil {
			return err
		}
	}

	return nil
}

func appendMapRow(b array.Builder, t chtype.Map, col *column.MapColumn, i int) error {
	mb, ok := b.(*array.MapBuilder)
	if !ok {
		return errs.SchemaIncompatiblef("arrowbridge.appendMapRow", "want MapBuilder, got %T", b)
	}

	mb.Append(true)
	var start, end uint64
	if i == 0 {
		end = col.Offsets[0]
	} else {
		start, end = col.Offsets[i-1], col.Offsets[i]
	}

	kb := mb.KeyBuilder()
	vb := mb.ItemBuilder()
	for j := start; j < end; j++ {
		if err := appendRow(kb, t.Key, col.Keys, int(j)); err != nil {
			return err
		}
		if err := appendRow(vb, t.Value, col.Values, int(j)); err != nil {
			return err
		}
	}

	return nil
}

func appendLowCardinalityRow(b array.Builder, t chtype.LowCardinality, col *column.LowCardinalityColumn, i int) error {
	db, ok := b.(array.DictionaryBuilder)
	if !ok {
		return errs.SchemaIncompatiblef("arrowbridge.appendLowCardinalityRow", "want DictionaryBuilder, got %T", b)
	}

	inner, nullable := unwrapNullableType(t.Inner)
	idx := col.Indices[i]
	if nullable {
		if idx == 0 {
			return db.AppendNull()
		}
		idx--
	}

	name, err := dictValueAsString(inner, col.Dict, int(idx))
	if err != nil {
		return err
	}

	return db.AppendValueFromString(name)
}

// dictValueAsString renders dictionary entry i as a string so it can
// feed DictionaryBuilder.AppendValueFromString, the one append path
// every index/value type combination shares.
func dictValueAsString(t chtype.ServerType, col column.Column, i int) (string, error) {
	switch c := col.(type) {
	case *column.StringColumn:
		return string(c.Data[i]), nil
	case *column.FixedStringColumn:
		return string(c.Data[i]), nil
	case *column.FixedWidthColumn:
		return strconv.FormatUint(leUint(c.At(i)), 10), nil
	default:
		return "", errs.SchemaIncompatiblef("arrowbridge.dictValueAsString", "unsupported dictionary value type %s", t.String())
	}
}
