package column

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// Enum8Column holds N rows of an Enum8's 8-bit codes.
type Enum8Column struct {
	typ  chtype.Enum8
	Data []int8
}

func (c *Enum8Column) Type() chtype.ServerType { return c.typ }
func (c *Enum8Column) Len() int                { return len(c.Data) }

// NewEnum8Column builds an Enum8Column for callers outside this
// package (the Arrow bridge) that need typ set so Type() satisfies the
// Column interface.
func NewEnum8Column(t chtype.Enum8, data []int8) *Enum8Column {
	return &Enum8Column{typ: t, Data: data}
}

func encodeEnum8(w *wire.Writer, col Column, n int) error {
	ec, ok := col.(*Enum8Column)
	if !ok {
		return errs.MalformedFramef("column.encodeEnum8", "column is %T, want *Enum8Column", col)
	}
	if len(ec.Data) != n {
		return errs.MalformedFramef("column.encodeEnum8", "column holds %d rows, want %d", len(ec.Data), n)
	}
	for _, code := range ec.Data {
		w.Uint8(uint8(code))
	}

	return nil
}

func decodeEnum8(r *wire.Reader, t chtype.Enum8, n int) (Column, error) {
	data := make([]int8, n)
	for i := range data {
		b, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		data[i] = int8(b)
	}

	return &Enum8Column{typ: t, Data: data}, nil
}

// Enum16Column holds N rows of an Enum16's 16-bit codes.
type Enum16Column struct {
	typ  chtype.Enum16
	Data []int16
}

func (c *Enum16Column) Type() chtype.ServerType { return c.typ }
func (c *Enum16Column) Len() int                { return len(c.Data) }

// NewEnum16Column builds an Enum16Column for callers outside this
// package (the Arrow bridge) that need typ set so Type() satisfies the
// Column interface.
func NewEnum16Column(t chtype.Enum16, data []int16) *Enum16Column {
	return &Enum16Column{typ: t, Data: data}
}

func encodeEnum16(w *wire.Writer, col Column, n int) error {
	ec, ok := col.(*Enum16Column)
	if !ok {
		return errs.MalformedFramef("column.encodeEnum16", "column is %T, want *Enum16Column", col)
	}
	if len(ec.Data) != n {
		return errs.MalformedFramef("column.encodeEnum16", "column holds %d rows, want %d", len(ec.Data), n)
	}
	for _, code := range ec.Data {
		w.Uint16(uint16(code))
	}

	return nil
}

func decodeEnum16(r *wire.Reader, t chtype.Enum16, n int) (Column, error) {
	data := make([]int16, n)
	for i := range data {
		v, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		data[i] = int16(v)
	}

	return &Enum16Column{typ: t, Data: data}, nil
}
