package column

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// OpaqueColumn holds the self-describing byte payload of a
// Variant/Dynamic/JSON column: a metadata prefix (variant-type list or
// JSON schema hints) plus per-row discriminators and decomposed
// sub-columns. SPEC_FULL §4.4 requires only that implementations
// treat this payload as opaque bytes whose length is self-describing;
// this column stores exactly those bytes, varuint-length-prefixed on
// the wire so Encode/Decode need no external byte count.
type OpaqueColumn struct {
	typ  chtype.ServerType
	rows int
	Data []byte
}

func (c *OpaqueColumn) Type() chtype.ServerType { return c.typ }

// Len reports the row count this payload was decoded for. An opaque
// payload has no fixed per-row stride, so this is the count supplied
// to Decode, not a value derived from Data.
func (c *OpaqueColumn) Len() int { return c.rows }

func encodeOpaque(w *wire.Writer, col Column) error {
	oc, ok := col.(*OpaqueColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeOpaque", "column is %T, want *OpaqueColumn", col)
	}
	w.ByteString(oc.Data)

	return nil
}

func decodeOpaque(r *wire.Reader, t chtype.ServerType, n int) (Column, error) {
	buf, err := r.ByteString()
	if err != nil {
		return nil, err
	}

	return &OpaqueColumn{typ: t, rows: n, Data: buf}, nil
}

// NewOpaqueColumn constructs an OpaqueColumn holding data verbatim,
// for callers assembling Variant/Dynamic/JSON values directly rather
// than decoding them off the wire.
func NewOpaqueColumn(t chtype.ServerType, rows int, data []byte) *OpaqueColumn {
	return &OpaqueColumn{typ: t, rows: rows, Data: data}
}
