package arrowbridge

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/nativedb/chclient/block"
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
	"github.com/nativedb/chclient/errs"
)

// FieldToServerType maps a single Arrow field to the server type it
// bridges to, per SPEC_FULL §4.6's normalization table. A nullable
// field wraps the result in chtype.Nullable unless the resulting type
// already carries its own null representation policy (dictionary /
// LowCardinality handles nulls internally via override).
func FieldToServerType(f arrow.Field, opts *ConversionOptions) (chtype.ServerType, error) {
	t, err := dataTypeToServerType(f.Name, f.Type, opts)
	if err != nil {
		return nil, err
	}

	if !f.Nullable {
		return t, nil
	}

	if arr, ok := t.(chtype.Array); ok {
		if opts.arrayNullableError {
			return nil, errs.SchemaIncompatiblef("arrowbridge.FieldToServerType", "column %q: nullable array rejected by policy", f.Name)
		}

		// Nullability moves to the element type. An element type that
		// NewNullable rejects (one already Nullable, for instance) leaves
		// the array type as it is.
		if inner, err := chtype.NewNullable(arr.Inner); err == nil {
			return chtype.Array{Inner: inner}, nil
		}

		return t, nil
	}
	if lc, ok := t.(chtype.LowCardinality); ok {
		if opts.lowCardinalityNullError {
			return nil, errs.SchemaIncompatiblef("arrowbridge.FieldToServerType", "column %q: nullable low-cardinality rejected by policy", f.Name)
		}

		inner, err := chtype.NewNullable(lc.Inner)
		if err != nil {
			return nil, errs.SchemaIncompatiblef("arrowbridge.FieldToServerType", "column %q: %v", f.Name, err)
		}

		return chtype.NewLowCardinality(inner)
	}

	return chtype.NewNullable(t)
}

func dataTypeToServerType(name string, dt arrow.DataType, opts *ConversionOptions) (chtype.ServerType, error) {
	if override, ok := opts.enumOverrides[name]; ok {
		if override.Width == 8 {
			return chtype.NewEnum8(override.Pairs)
		}

		return chtype.NewEnum16(override.Pairs)
	}

	switch dt.ID() {
	case arrow.INT8:
		return chtype.Int8, nil
	case arrow.INT16:
		return chtype.Int16, nil
	case arrow.INT32:
		return chtype.Int32, nil
	case arrow.INT64:
		return chtype.Int64, nil
	case arrow.UINT8:
		return chtype.UInt8, nil
	case arrow.UINT16:
		return chtype.UInt16, nil
	case arrow.UINT32:
		return chtype.UInt32, nil
	case arrow.UINT64:
		return chtype.UInt64, nil
	case arrow.FLOAT32:
		return chtype.Float32, nil
	case arrow.FLOAT64:
		return chtype.Float64, nil
	case arrow.BOOL:
		return chtype.UInt8, nil
	case arrow.STRING, arrow.LARGE_STRING, arrow.STRING_VIEW:
		return chtype.String_, nil
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.BINARY_VIEW:
		return chtype.String_, nil
	case arrow.FIXED_SIZE_BINARY:
		fs := dt.(*arrow.FixedSizeBinaryType)
		return chtype.NewFixedString(fs.ByteWidth)
	case arrow.DATE32:
		if opts.dateAsDate32 {
			return chtype.Date32, nil
		}

		return chtype.Date, nil
	case arrow.DATE64:
		return chtype.DateTime{}, nil
	case arrow.TIMESTAMP:
		ts := dt.(*arrow.TimestampType)
		return chtype.NewDateTime64(timeUnitPrecision(ts.Unit), ts.TimeZone)
	case arrow.DECIMAL128, arrow.DECIMAL256:
		dec := decimalPrecisionScale(dt)
		return chtype.NewDecimal(dec.precision, dec.scale)
	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST:
		elem := listElemField(dt)
		inner, err := FieldToServerType(elem, opts)
		if err != nil {
			return nil, err
		}

		return chtype.Array{Inner: inner}, nil
	case arrow.STRUCT:
		st := dt.(*arrow.StructType)
		fields := make([]chtype.ServerType, st.NumFields())
		for i := 0; i < st.NumFields(); i++ {
			ft, err := FieldToServerType(st.Field(i), opts)
			if err != nil {
				return nil, err
			}
			fields[i] = ft
		}

		return chtype.Tuple{Fields: fields}, nil
	case arrow.MAP:
		mt := dt.(*arrow.MapType)
		keyType, err := FieldToServerType(mt.KeyField(), opts)
		if err != nil {
			return nil, err
		}
		valType, err := FieldToServerType(mt.ItemField(), opts)
		if err != nil {
			return nil, err
		}

		return chtype.Map{Key: keyType, Value: valType}, nil
	case arrow.DICTIONARY:
		if override, ok := opts.enumOverrides[name]; ok {
			if override.Width == 8 {
				return chtype.NewEnum8(override.Pairs)
			}

			return chtype.NewEnum16(override.Pairs)
		}

		dict := dt.(*arrow.DictionaryType)
		valField := arrow.Field{Name: name, Type: dict.ValueType}
		valType, err := dataTypeToServerType(name, valField.Type, opts)
		if err != nil {
			return nil, err
		}

		return chtype.NewLowCardinality(valType)
	case arrow.NULL:
		return chtype.Nothing, nil
	default:
		return nil, errs.SchemaIncompatiblef("arrowbridge.dataTypeToServerType", "column %q: unsupported Arrow type %s", name, dt.Name())
	}
}

func timeUnitPrecision(u arrow.TimeUnit) int {
	switch u {
	case arrow.Second:
		return 0
	case arrow.Millisecond:
		return 3
	case arrow.Microsecond:
		return 6
	default:
		return 9
	}
}

type decimalPS struct{ precision, scale int }

func decimalPrecisionScale(dt arrow.DataType) decimalPS {
	switch d := dt.(type) {
	case *arrow.Decimal128Type:
		return decimalPS{int(d.Precision), int(d.Scale)}
	case *arrow.Decimal256Type:
		return decimalPS{int(d.Precision), int(d.Scale)}
	default:
		return decimalPS{}
	}
}

func listElemField(dt arrow.DataType) arrow.Field {
	switch l := dt.(type) {
	case *arrow.ListType:
		return l.ElemField()
	case *arrow.LargeListType:
		return l.ElemField()
	case *arrow.FixedSizeListType:
		return l.ElemField()
	default:
		return arrow.Field{}
	}
}

// SchemaToHeader builds a schema-only header block (SPEC_FULL §4.5:
// C > 0, N = 0) from an Arrow schema, one column per field in order.
func SchemaToHeader(schema *arrow.Schema, opts *ConversionOptions) (*block.Block, error) {
	b := block.NewHeader()
	b.Columns = make([]block.Column, schema.NumFields())

	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		t, err := FieldToServerType(f, opts)
		if err != nil {
			return nil, err
		}

		data, err := column.Empty(t)
		if err != nil {
			return nil, err
		}

		b.Columns[i] = block.Column{Name: f.Name, Type: t, Data: data}
	}

	return b, nil
}

// ServerTypeToField maps a server type back to an Arrow field,
// the inverse of FieldToServerType. A Nullable server type unwraps to
// its inner Arrow type with Nullable set on the field.
func ServerTypeToField(name string, t chtype.ServerType, opts *ConversionOptions) (arrow.Field, error) {
	if n, ok := t.(chtype.Nullable); ok {
		inner, err := serverTypeToDataType(n.Inner, opts)
		if err != nil {
			return arrow.Field{}, err
		}

		return arrow.Field{Name: name, Type: inner, Nullable: true}, nil
	}

	dt, err := serverTypeToDataType(t, opts)
	if err != nil {
		return arrow.Field{}, err
	}

	// A LowCardinality wrapping a Nullable inner expresses nullability
	// through the dictionary's index-0-means-NULL convention, not a
	// nested Arrow type, so the field itself must carry Nullable: true
	// for FieldToServerType to reconstruct the wrapping on the way back.
	nullable := false
	if lc, ok := t.(chtype.LowCardinality); ok {
		_, nullable = unwrapNullableType(lc.Inner)
	}

	return arrow.Field{Name: name, Type: dt, Nullable: nullable}, nil
}

func serverTypeToDataType(t chtype.ServerType, opts *ConversionOptions) (arrow.DataType, error) {
	switch t := t.(type) {
	case chtype.FixedString:
		return &arrow.FixedSizeBinaryType{ByteWidth: t.N}, nil
	case chtype.Decimal:
		if t.BackingBits <= 128 {
			return &arrow.Decimal128Type{Precision: int32(t.Precision), Scale: int32(t.Scale)}, nil
		}

		return &arrow.Decimal256Type{Precision: int32(t.Precision), Scale: int32(t.Scale)}, nil
	case chtype.DateTime:
		return arrow.FixedWidthTypes.Timestamp_s, nil
	case chtype.DateTime64:
		return &arrow.TimestampType{Unit: precisionTimeUnit(t.Precision), TimeZone: t.TZ}, nil
	case chtype.Enum8:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}, nil
	case chtype.Enum16:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int16, ValueType: arrow.BinaryTypes.String}, nil
	case chtype.Array:
		elemField, err := ServerTypeToField("item", t.Inner, opts)
		if err != nil {
			return nil, err
		}

		return arrow.ListOfField(elemField), nil
	case chtype.Tuple:
		fields := make([]arrow.Field, len(t.Fields))
		for i, ft := range t.Fields {
			f, err := ServerTypeToField(indexedName("f", i), ft, opts)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}

		return arrow.StructOf(fields...), nil
	case chtype.Map:
		keyType, err := serverTypeToDataType(t.Key, opts)
		if err != nil {
			return nil, err
		}
		valType, err := serverTypeToDataType(t.Value, opts)
		if err != nil {
			return nil, err
		}

		return arrow.MapOf(keyType, valType), nil
	case chtype.Nullable:
		return serverTypeToDataType(t.Inner, opts)
	case chtype.LowCardinality:
		inner, nullable := unwrapNullableType(t.Inner)
		valType, err := serverTypeToDataType(inner, opts)
		if err != nil {
			return nil, err
		}
		_ = nullable

		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Uint32, ValueType: valType}, nil
	}

	switch t.Kind() {
	case chtype.KindInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case chtype.KindInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case chtype.KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case chtype.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case chtype.KindUInt8:
		return arrow.PrimitiveTypes.Uint8, nil
	case chtype.KindUInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case chtype.KindUInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case chtype.KindUInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case chtype.KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case chtype.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case chtype.KindString:
		if opts.stringsAsStrings {
			return arrow.BinaryTypes.String, nil
		}

		return arrow.BinaryTypes.Binary, nil
	case chtype.KindDate:
		// Arrow has no 16-bit date type; dateAsDate32 only affects the
		// reverse direction's choice of server type for a 32-bit
		// interchange date field (see FieldToServerType / DATE32).
		return arrow.FixedWidthTypes.Date32, nil
	case chtype.KindDate32:
		return arrow.FixedWidthTypes.Date32, nil
	case chtype.KindUUID:
		return &arrow.FixedSizeBinaryType{ByteWidth: 16}, nil
	case chtype.KindIPv4:
		return arrow.PrimitiveTypes.Uint32, nil
	case chtype.KindIPv6:
		return &arrow.FixedSizeBinaryType{ByteWidth: 16}, nil
	case chtype.KindDynamic, chtype.KindJSON, chtype.KindVariant:
		return arrow.BinaryTypes.Binary, nil
	case chtype.KindNothing:
		return arrow.Null, nil
	default:
		return nil, errs.SchemaIncompatiblef("arrowbridge.serverTypeToDataType", "unsupported server type %s", t.String())
	}
}

func precisionTimeUnit(p int) arrow.TimeUnit {
	switch {
	case p <= 0:
		return arrow.Second
	case p <= 3:
		return arrow.Millisecond
	case p <= 6:
		return arrow.Microsecond
	default:
		return arrow.Nanosecond
	}
}

func unwrapNullableType(t chtype.ServerType) (chtype.ServerType, bool) {
	if n, ok := t.(chtype.Nullable); ok {
		return n.Inner, true
	}

	return t, false
}

func indexedName(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

// HeaderToSchema is the inverse of SchemaToHeader: it builds an Arrow
// schema from a block's column name/type pairs, ignoring row data.
func HeaderToSchema(b *block.Block, opts *ConversionOptions) (*arrow.Schema, error) {
	if opts == nil {
		opts = &ConversionOptions{}
	}

	fields := make([]arrow.Field, len(b.Columns))
	for i, c := range b.Columns {
		f, err := ServerTypeToField(c.Name, c.Type, opts)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}

	return arrow.NewSchema(fields, nil), nil
}
