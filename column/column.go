// Package column implements the per-ServerType codec (SPEC_FULL §4.4):
// for every type in the chtype algebra, Encode writes exactly the
// bytes the server expects for N rows, and Decode reads exactly those
// bytes back. One file per type family, following the teacher's
// blob/numeric_blob.go + blob/text_blob.go split between fixed-width
// and variable-length payloads.
package column

import (
	"fmt"

	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// Column is a decoded, in-memory column of N rows of a single
// ServerType. Concrete implementations live alongside the Encode/Decode
// function that produces and consumes them (numeric.go, text.go,
// array.go, and so on).
type Column interface {
	// Type returns the ServerType this column was encoded/decoded as.
	Type() chtype.ServerType
	// Len returns the row count.
	Len() int
}

// Encode writes col to w in the wire layout SPEC_FULL §4.4 defines
// for t, for exactly n rows. col must have been produced by Decode (or
// constructed as one of this package's column types) for the same t;
// a mismatched concrete type fails with MalformedFrame.
func Encode(w *wire.Writer, t chtype.ServerType, col Column, n int) error {
	switch t := t.(type) {
	case chtype.Decimal:
		return encodeDecimal(w, t, col, n)
	case chtype.FixedString:
		return encodeFixedString(w, t, col, n)
	case chtype.DateTime:
		return encodeDateTime(w, col, n)
	case chtype.DateTime64:
		return encodeDateTime64(w, t, col, n)
	case chtype.Enum8:
		return encodeEnum8(w, col, n)
	case chtype.Enum16:
		return encodeEnum16(w, col, n)
	case chtype.Array:
		return encodeArray(w, t, col, n)
	case chtype.Tuple:
		return encodeTuple(w, t, col, n)
	case chtype.Map:
		return encodeMap(w, t, col, n)
	case chtype.Nullable:
		return encodeNullable(w, t, col, n)
	case chtype.LowCardinality:
		return encodeLowCardinality(w, t, col, n)
	case chtype.Variant:
		return encodeOpaque(w, col)
	}

	switch t.Kind() {
	case chtype.KindInt8, chtype.KindInt16, chtype.KindInt32, chtype.KindInt64,
		chtype.KindInt128, chtype.KindInt256,
		chtype.KindUInt8, chtype.KindUInt16, chtype.KindUInt32, chtype.KindUInt64,
		chtype.KindUInt128, chtype.KindUInt256,
		chtype.KindFloat32, chtype.KindFloat64,
		chtype.KindDate, chtype.KindDate32, chtype.KindIPv4, chtype.KindIPv6:
		return encodeFixedWidth(w, t, col, n)
	case chtype.KindUUID:
		return encodeUUID(w, col, n)
	case chtype.KindString:
		return encodeString(w, col, n)
	case chtype.KindDynamic, chtype.KindJSON:
		return encodeOpaque(w, col)
	case chtype.KindNothing:
		return nil
	default:
		return errs.MalformedFramef("column.Encode", "unsupported type %s", t.String())
	}
}

// Decode reads n rows of type t from r.
func Decode(r *wire.Reader, t chtype.ServerType, n int) (Column, error) {
	switch t := t.(type) {
	case chtype.Decimal:
		return decodeDecimal(r, t, n)
	case chtype.FixedString:
		return decodeFixedString(r, t, n)
	case chtype.DateTime:
		return decodeDateTime(r, t, n)
	case chtype.DateTime64:
		return decodeDateTime64(r, t, n)
	case chtype.Enum8:
		return decodeEnum8(r, t, n)
	case chtype.Enum16:
		return decodeEnum16(r, t, n)
	case chtype.Array:
		return decodeArray(r, t, n)
	case chtype.Tuple:
		return decodeTuple(r, t, n)
	case chtype.Map:
		return decodeMap(r, t, n)
	case chtype.Nullable:
		return decodeNullable(r, t, n)
	case chtype.LowCardinality:
		return decodeLowCardinality(r, t, n)
	case chtype.Variant:
		return decodeOpaque(r, t, n)
	}

	switch t.Kind() {
	case chtype.KindInt8, chtype.KindInt16, chtype.KindInt32, chtype.KindInt64,
		chtype.KindInt128, chtype.KindInt256,
		chtype.KindUInt8, chtype.KindUInt16, chtype.KindUInt32, chtype.KindUInt64,
		chtype.KindUInt128, chtype.KindUInt256,
		chtype.KindFloat32, chtype.KindFloat64,
		chtype.KindDate, chtype.KindDate32, chtype.KindIPv4, chtype.KindIPv6:
		return decodeFixedWidth(r, t, n)
	case chtype.KindUUID:
		return decodeUUID(r, n)
	case chtype.KindString:
		return decodeString(r, n)
	case chtype.KindDynamic, chtype.KindJSON:
		return decodeOpaque(r, t, n)
	case chtype.KindNothing:
		return nothingColumn{n: n}, nil
	default:
		return nil, errs.MalformedFramef("column.Decode", "unsupported type %s", t.String())
	}
}

// widthOf returns the byte width of a fixed-width scalar ServerType.
func widthOf(k chtype.Kind) int {
	switch k {
	case chtype.KindInt8, chtype.KindUInt8:
		return 1
	case chtype.KindInt16, chtype.KindUInt16, chtype.KindDate:
		return 2
	case chtype.KindInt32, chtype.KindUInt32, chtype.KindFloat32,
		chtype.KindDate32, chtype.KindIPv4:
		return 4
	case chtype.KindInt64, chtype.KindUInt64, chtype.KindFloat64:
		return 8
	case chtype.KindInt128, chtype.KindUInt128, chtype.KindIPv6:
		return 16
	case chtype.KindInt256, chtype.KindUInt256:
		return 32
	default:
		panic(fmt.Sprintf("column: widthOf called on non-fixed-width kind %v", k))
	}
}

type nothingColumn struct{ n int }

func (c nothingColumn) Type() chtype.ServerType { return chtype.Nothing }
func (c nothingColumn) Len() int                { return c.n }

// Empty returns a zero-row column of type t, for building schema-only
// header blocks (SPEC_FULL §4.5) where only the name/type pair
// matters and no row data exists yet.
func Empty(t chtype.ServerType) (Column, error) {
	switch t := t.(type) {
	case chtype.Decimal:
		return &DecimalColumn{typ: t}, nil
	case chtype.FixedString:
		return &FixedStringColumn{typ: t}, nil
	case chtype.DateTime:
		return &DateTimeColumn{typ: t}, nil
	case chtype.DateTime64:
		return &DateTime64Column{typ: t}, nil
	case chtype.Enum8:
		return &Enum8Column{typ: t}, nil
	case chtype.Enum16:
		return &Enum16Column{typ: t}, nil
	case chtype.Array:
		inner, err := Empty(t.Inner)
		if err != nil {
			return nil, err
		}
		return &ArrayColumn{typ: t, Inner: inner}, nil
	case chtype.Tuple:
		fields := make([]Column, len(t.Fields))
		for i, ft := range t.Fields {
			fc, err := Empty(ft)
			if err != nil {
				return nil, err
			}
			fields[i] = fc
		}
		return &TupleColumn{typ: t, Fields: fields}, nil
	case chtype.Map:
		keys, err := Empty(t.Key)
		if err != nil {
			return nil, err
		}
		values, err := Empty(t.Value)
		if err != nil {
			return nil, err
		}
		return &MapColumn{typ: t, Keys: keys, Values: values}, nil
	case chtype.Nullable:
		inner, err := Empty(t.Inner)
		if err != nil {
			return nil, err
		}
		return &NullableColumn{typ: t, Inner: inner}, nil
	case chtype.LowCardinality:
		inner, _ := unwrapNullable(t.Inner)
		dict, err := Empty(inner)
		if err != nil {
			return nil, err
		}
		return &LowCardinalityColumn{typ: t, Dict: dict}, nil
	case chtype.Variant:
		return NewOpaqueColumn(t, 0, nil), nil
	}

	switch t.Kind() {
	case chtype.KindInt8, chtype.KindInt16, chtype.KindInt32, chtype.KindInt64,
		chtype.KindInt128, chtype.KindInt256,
		chtype.KindUInt8, chtype.KindUInt16, chtype.KindUInt32, chtype.KindUInt64,
		chtype.KindUInt128, chtype.KindUInt256,
		chtype.KindFloat32, chtype.KindFloat64,
		chtype.KindDate, chtype.KindDate32, chtype.KindIPv4, chtype.KindIPv6:
		return &FixedWidthColumn{typ: t, width: widthOf(t.Kind())}, nil
	case chtype.KindUUID:
		return &UUIDColumn{}, nil
	case chtype.KindString:
		return &StringColumn{}, nil
	case chtype.KindDynamic, chtype.KindJSON:
		return NewOpaqueColumn(t, 0, nil), nil
	case chtype.KindNothing:
		return nothingColumn{}, nil
	default:
		return nil, errs.MalformedFramef("column.Empty", "unsupported type %s", t.String())
	}
}
