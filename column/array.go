package column

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// ArrayColumn holds N variable-length arrays of Inner elements.
// Offsets are cumulative row-end offsets into Inner: Offsets[i] is
// the total element count after row i, so row i spans
// Inner[Offsets[i-1]:Offsets[i]] (Offsets[-1] == 0).
type ArrayColumn struct {
	typ     chtype.Array
	Offsets []uint64
	Inner   Column
}

func (c *ArrayColumn) Type() chtype.ServerType { return c.typ }
func (c *ArrayColumn) Len() int                { return len(c.Offsets) }

// NewArrayColumn builds an ArrayColumn from already-converted offsets
// and inner column, for callers outside this package (the Arrow
// bridge) that need typ set so Type() satisfies the Column interface.
func NewArrayColumn(t chtype.Array, offsets []uint64, inner Column) *ArrayColumn {
	return &ArrayColumn{typ: t, Offsets: offsets, Inner: inner}
}

// Bounds returns the [start, end) element range for row i.
func (c *ArrayColumn) Bounds(i int) (start, end uint64) {
	if i == 0 {
		return 0, c.Offsets[0]
	}

	return c.Offsets[i-1], c.Offsets[i]
}

func encodeArray(w *wire.Writer, t chtype.Array, col Column, n int) error {
	ac, ok := col.(*ArrayColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeArray", "column is %T, want *ArrayColumn", col)
	}
	if len(ac.Offsets) != n {
		return errs.MalformedFramef("column.encodeArray", "column holds %d rows, want %d", len(ac.Offsets), n)
	}

	for _, off := range ac.Offsets {
		w.Uint64(off)
	}

	total := 0
	if n > 0 {
		total = int(ac.Offsets[n-1])
	}

	return Encode(w, t.Inner, ac.Inner, total)
}

func decodeArray(r *wire.Reader, t chtype.Array, n int) (Column, error) {
	offsets := make([]uint64, n)
	for i := range offsets {
		v, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}

	total := 0
	if n > 0 {
		total = int(offsets[n-1])
	}

	inner, err := Decode(r, t.Inner, total)
	if err != nil {
		return nil, err
	}

	return &ArrayColumn{typ: t, Offsets: offsets, Inner: inner}, nil
}

// TupleColumn holds N rows of a fixed-arity heterogeneous record: one
// Column per field, each of length N, encoded field-major per
// SPEC_FULL §4.4 ("encode(Tᵢ, N) for each i, sequentially").
type TupleColumn struct {
	typ    chtype.Tuple
	Fields []Column
	rows   int
}

func (c *TupleColumn) Type() chtype.ServerType { return c.typ }
func (c *TupleColumn) Len() int                { return c.rows }

// NewTupleColumn builds a TupleColumn from already-converted field
// columns, for callers outside this package (the Arrow bridge) that
// assemble fields independently and need typ/rows set so Type() and
// Len() satisfy the Column interface.
func NewTupleColumn(t chtype.Tuple, fields []Column, rows int) *TupleColumn {
	return &TupleColumn{typ: t, Fields: fields, rows: rows}
}

func encodeTuple(w *wire.Writer, t chtype.Tuple, col Column, n int) error {
	tc, ok := col.(*TupleColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeTuple", "column is %T, want *TupleColumn", col)
	}
	if len(tc.Fields) != len(t.Fields) {
		return errs.MalformedFramef("column.encodeTuple", "column holds %d fields, type has %d", len(tc.Fields), len(t.Fields))
	}

	for i, fieldType := range t.Fields {
		if err := Encode(w, fieldType, tc.Fields[i], n); err != nil {
			return err
		}
	}

	return nil
}

func decodeTuple(r *wire.Reader, t chtype.Tuple, n int) (Column, error) {
	fields := make([]Column, len(t.Fields))
	for i, fieldType := range t.Fields {
		col, err := Decode(r, fieldType, n)
		if err != nil {
			return nil, err
		}
		fields[i] = col
	}

	return &TupleColumn{typ: t, Fields: fields, rows: n}, nil
}

// encodeMap/decodeMap implement Map(K,V) as Array(Tuple(K,V)), per
// SPEC_FULL §4.4 ("identical to Array(Tuple(K,V))"). MapColumn stores
// the same shape as ArrayColumn so callers never see the Tuple
// indirection.
type MapColumn struct {
	typ     chtype.Map
	Offsets []uint64
	Keys    Column
	Values  Column
}

func (c *MapColumn) Type() chtype.ServerType { return c.typ }
func (c *MapColumn) Len() int                { return len(c.Offsets) }

// NewMapColumn builds a MapColumn from already-converted keys/values,
// for callers outside this package (the Arrow bridge) that need typ
// set so Type() satisfies the Column interface.
func NewMapColumn(t chtype.Map, offsets []uint64, keys, values Column) *MapColumn {
	return &MapColumn{typ: t, Offsets: offsets, Keys: keys, Values: values}
}

func encodeMap(w *wire.Writer, t chtype.Map, col Column, n int) error {
	mc, ok := col.(*MapColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeMap", "column is %T, want *MapColumn", col)
	}
	if len(mc.Offsets) != n {
		return errs.MalformedFramef("column.encodeMap", "column holds %d rows, want %d", len(mc.Offsets), n)
	}

	for _, off := range mc.Offsets {
		w.Uint64(off)
	}

	total := 0
	if n > 0 {
		total = int(mc.Offsets[n-1])
	}

	if err := Encode(w, t.Key, mc.Keys, total); err != nil {
		return err
	}

	return Encode(w, t.Value, mc.Values, total)
}

func decodeMap(r *wire.Reader, t chtype.Map, n int) (Column, error) {
	offsets := make([]uint64, n)
	for i := range offsets {
		v, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}

	total := 0
	if n > 0 {
		total = int(offsets[n-1])
	}

	keys, err := Decode(r, t.Key, total)
	if err != nil {
		return nil, err
	}
	values, err := Decode(r, t.Value, total)
	if err != nil {
		return nil, err
	}

	return &MapColumn{typ: t, Offsets: offsets, Keys: keys, Values: values}, nil
}
