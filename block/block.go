// Package block implements SPEC_FULL §4.5: the block frame, the unit
// a query result or insert payload streams as. Grounded on
// section.NumericHeader/section.NumericIndexEntry's Parse/Bytes
// fixed-layout discipline (one method that reads a structure, one
// that writes it back byte for byte), generalized from the teacher's
// fixed 32-byte header to a frame whose column count and per-column
// shape vary at runtime.
package block

import (
	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/column"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// Info carries a block's non-column metadata: whether it's an
// aggregation overflow bucket, and which bucket number it belongs to.
type Info struct {
	IsOverflow bool
	BucketNum  int32
}

// Parse reads a block info section: is-overflow, bucket number, then
// a varuint terminator that must be 0.
func (i *Info) Parse(r *wire.Reader) error {
	overflow, err := r.Bool()
	if err != nil {
		return err
	}
	bucket, err := r.Int32()
	if err != nil {
		return err
	}
	term, err := r.Varuint()
	if err != nil {
		return err
	}
	if term != 0 {
		return errs.MalformedFramef("block.Info.Parse", "terminator is %d, want 0", term)
	}

	i.IsOverflow = overflow
	i.BucketNum = bucket

	return nil
}

// Bytes writes the block info section to w.
func (i *Info) Bytes(w *wire.Writer) {
	w.Bool(i.IsOverflow)
	w.Int32(i.BucketNum)
	w.Varuint(0)
}

// Column names a single column within a Block alongside its decoded
// type and data.
type Column struct {
	Name string
	Type chtype.ServerType
	Data column.Column
}

// Block is an ordered sequence of named, equal-length columns plus
// the info section SPEC_FULL §3 attaches to every block (bucket
// number, overflow flag). TableName is usually empty; the server only
// populates it for certain system-table results.
type Block struct {
	TableName string
	Info      Info
	Columns   []Column
	rows      int
}

// NewHeader builds an empty header block: zero columns, zero rows.
// Legal per SPEC_FULL §4.5 and used to announce output schema before
// streaming row blocks.
func NewHeader() *Block {
	return &Block{}
}

// Rows returns the block's row count, taken from the first column
// (all columns in a well-formed block share it) or zero for a header
// block.
func (b *Block) Rows() int {
	if len(b.Columns) == 0 {
		return b.rows
	}

	return b.Columns[0].Data.Len()
}

// Encode writes the block frame: table name, block info, column
// count, row count, then per-column name/type/data.
func Encode(w *wire.Writer, b *Block) error {
	w.String(b.TableName)
	b.Info.Bytes(w)

	n := b.Rows()
	w.Varuint(uint64(len(b.Columns)))
	w.Varuint(uint64(n))

	for _, c := range b.Columns {
		w.String(c.Name)
		w.String(chtype.Format(c.Type))
		if err := column.Encode(w, c.Type, c.Data, n); err != nil {
			return errs.MalformedFramef("block.Encode", "column %q: %v", c.Name, err)
		}
	}

	return nil
}

// Decode reads a block frame from r.
func Decode(r *wire.Reader) (*Block, error) {
	b := &Block{}

	name, err := r.String()
	if err != nil {
		return nil, err
	}
	b.TableName = name

	if err := b.Info.Parse(r); err != nil {
		return nil, err
	}

	colCount, err := r.Varuint()
	if err != nil {
		return nil, err
	}
	rowCount, err := r.Varuint()
	if err != nil {
		return nil, err
	}
	b.rows = int(rowCount)

	b.Columns = make([]Column, colCount)
	for i := range b.Columns {
		cname, err := r.String()
		if err != nil {
			return nil, err
		}
		typeStr, err := r.String()
		if err != nil {
			return nil, err
		}
		typ, err := chtype.Parse(typeStr)
		if err != nil {
			return nil, errs.MalformedFramef("block.Decode", "column %q: %v", cname, err)
		}

		data, err := column.Decode(r, typ, int(rowCount))
		if err != nil {
			return nil, errs.MalformedFramef("block.Decode", "column %q: %v", cname, err)
		}

		b.Columns[i] = Column{Name: cname, Type: typ, Data: data}
	}

	return b, nil
}

// IsHeader reports whether b is an empty header block: zero columns
// and zero rows are the schema-only form SPEC_FULL §4.5 describes;
// a block with columns but zero rows is also a legal header that
// carries schema for a result with no data.
func (b *Block) IsHeader() bool {
	return b.Rows() == 0
}
