package column

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// NullableColumn wraps Inner with a parallel null mask. Per SPEC_FULL
// §4.4, positions marked null in the mask still carry a physically
// present sentinel value in Inner — decoders must not assume the
// underlying bytes at a null position are zeroed or otherwise special.
type NullableColumn struct {
	typ   chtype.Nullable
	Null  []bool
	Inner Column
}

func (c *NullableColumn) Type() chtype.ServerType { return c.typ }
func (c *NullableColumn) Len() int                { return len(c.Null) }

// NewNullableColumn builds a NullableColumn from an already-converted
// null mask and inner column, for callers outside this package (the
// Arrow bridge) that need typ set so Type() satisfies the Column
// interface.
func NewNullableColumn(t chtype.Nullable, null []bool, inner Column) *NullableColumn {
	return &NullableColumn{typ: t, Null: null, Inner: inner}
}

func encodeNullable(w *wire.Writer, t chtype.Nullable, col Column, n int) error {
	nc, ok := col.(*NullableColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeNullable", "column is %T, want *NullableColumn", col)
	}
	if len(nc.Null) != n {
		return errs.MalformedFramef("column.encodeNullable", "null mask holds %d rows, want %d", len(nc.Null), n)
	}

	for _, isNull := range nc.Null {
		w.Bool(isNull)
	}

	return Encode(w, t.Inner, nc.Inner, n)
}

func decodeNullable(r *wire.Reader, t chtype.Nullable, n int) (Column, error) {
	mask := make([]bool, n)
	for i := range mask {
		b, err := r.Bool()
		if err != nil {
			return nil, err
		}
		mask[i] = b
	}

	inner, err := Decode(r, t.Inner, n)
	if err != nil {
		return nil, err
	}

	return &NullableColumn{typ: t, Null: mask, Inner: inner}, nil
}
