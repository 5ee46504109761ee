package column

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// StringColumn holds N variable-length byte strings.
type StringColumn struct {
	Data [][]byte
}

func (c *StringColumn) Type() chtype.ServerType { return chtype.String_ }
func (c *StringColumn) Len() int                { return len(c.Data) }

func encodeString(w *wire.Writer, col Column, n int) error {
	sc, ok := col.(*StringColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeString", "column is %T, want *StringColumn", col)
	}
	if len(sc.Data) != n {
		return errs.MalformedFramef("column.encodeString", "column holds %d rows, want %d", len(sc.Data), n)
	}

	for _, s := range sc.Data {
		w.ByteString(s)
	}

	return nil
}

func decodeString(r *wire.Reader, n int) (Column, error) {
	data := make([][]byte, n)
	for i := range data {
		s, err := r.ByteString()
		if err != nil {
			return nil, err
		}
		data[i] = s
	}

	return &StringColumn{Data: data}, nil
}

// FixedStringColumn holds N fixed-width byte strings of exactly N(t)
// bytes each, zero-padded on the right.
type FixedStringColumn struct {
	typ  chtype.FixedString
	Data [][]byte
}

func (c *FixedStringColumn) Type() chtype.ServerType { return c.typ }
func (c *FixedStringColumn) Len() int                { return len(c.Data) }

// NewFixedStringColumn builds a FixedStringColumn for callers outside
// this package (the Arrow bridge) that need typ set so Type()
// satisfies the Column interface.
func NewFixedStringColumn(t chtype.FixedString, data [][]byte) *FixedStringColumn {
	return &FixedStringColumn{typ: t, Data: data}
}

func encodeFixedString(w *wire.Writer, t chtype.FixedString, col Column, n int) error {
	fc, ok := col.(*FixedStringColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeFixedString", "column is %T, want *FixedStringColumn", col)
	}
	if len(fc.Data) != n {
		return errs.MalformedFramef("column.encodeFixedString", "column holds %d rows, want %d", len(fc.Data), n)
	}

	for _, s := range fc.Data {
		if len(s) > t.N {
			return errs.MalformedFramef("column.encodeFixedString", "value length %d exceeds FixedString(%d)", len(s), t.N)
		}

		padded := make([]byte, t.N)
		copy(padded, s)
		w.Raw(padded)
	}

	return nil
}

func decodeFixedString(r *wire.Reader, t chtype.FixedString, n int) (Column, error) {
	data := make([][]byte, n)
	for i := range data {
		buf, err := r.RawN(t.N)
		if err != nil {
			return nil, err
		}
		data[i] = buf
	}

	return &FixedStringColumn{typ: t, Data: data}, nil
}
