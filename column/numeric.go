package column

import (
	"github.com/google/uuid"

	"github.com/nativedb/chclient/chtype"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// FixedWidthColumn holds N rows of a fixed-width scalar type (every
// integer width, both floats, Date, Date32, IPv4, IPv6) as N*width
// contiguous little-endian bytes, matching the wire layout exactly.
// Grounded on the teacher's NumericRawEncoder/NumericRawDecoder raw
// contiguous-buffer discipline (encoding/numeric_raw.go), generalized
// from a fixed 8-byte stride to an arbitrary per-type width.
type FixedWidthColumn struct {
	typ   chtype.ServerType
	width int
	Data  []byte
}

func (c *FixedWidthColumn) Type() chtype.ServerType { return c.typ }
func (c *FixedWidthColumn) Len() int                { return len(c.Data) / c.width }

// At returns the raw width-byte slice for row i.
func (c *FixedWidthColumn) At(i int) []byte {
	return c.Data[i*c.width : (i+1)*c.width]
}

// NewFixedWidthColumn wraps data, which must already be n*width(t)
// bytes, as a column of t.
func NewFixedWidthColumn(t chtype.ServerType, data []byte) (*FixedWidthColumn, error) {
	width := widthOf(t.Kind())
	if len(data)%width != 0 {
		return nil, errs.MalformedFramef("column.NewFixedWidthColumn", "data length %d is not a multiple of width %d", len(data), width)
	}

	return &FixedWidthColumn{typ: t, width: width, Data: data}, nil
}

func encodeFixedWidth(w *wire.Writer, t chtype.ServerType, col Column, n int) error {
	fw, ok := col.(*FixedWidthColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeFixedWidth", "column is %T, want *FixedWidthColumn", col)
	}

	width := widthOf(t.Kind())
	if len(fw.Data) != n*width {
		return errs.MalformedFramef("column.encodeFixedWidth", "column holds %d bytes, want %d", len(fw.Data), n*width)
	}

	w.Raw(fw.Data)

	return nil
}

func decodeFixedWidth(r *wire.Reader, t chtype.ServerType, n int) (Column, error) {
	width := widthOf(t.Kind())

	buf, err := r.RawN(n * width)
	if err != nil {
		return nil, err
	}

	return &FixedWidthColumn{typ: t, width: width, Data: buf}, nil
}

// UUIDColumn holds N UUIDs in canonical big-endian byte order
// ([github.com/google/uuid]'s native layout). On the wire a UUID is
// two 64-bit halves with the high half written first (SPEC_FULL
// §4.4); Decode/Encode perform the swap so callers never see wire
// order.
type UUIDColumn struct {
	Data []uuid.UUID
}

func (c *UUIDColumn) Type() chtype.ServerType { return chtype.UUID }
func (c *UUIDColumn) Len() int                { return len(c.Data) }

func encodeUUID(w *wire.Writer, col Column, n int) error {
	uc, ok := col.(*UUIDColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeUUID", "column is %T, want *UUIDColumn", col)
	}
	if len(uc.Data) != n {
		return errs.MalformedFramef("column.encodeUUID", "column holds %d rows, want %d", len(uc.Data), n)
	}

	for _, u := range uc.Data {
		high := uint64(0)
		for i := 0; i < 8; i++ {
			high = high<<8 | uint64(u[i])
		}
		low := uint64(0)
		for i := 8; i < 16; i++ {
			low = low<<8 | uint64(u[i])
		}
		w.Uint64(high)
		w.Uint64(low)
	}

	return nil
}

func decodeUUID(r *wire.Reader, n int) (Column, error) {
	data := make([]uuid.UUID, n)
	for i := range data {
		high, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		low, err := r.Uint64()
		if err != nil {
			return nil, err
		}

		var u uuid.UUID
		for j := 0; j < 8; j++ {
			u[7-j] = byte(high)
			high >>= 8
		}
		for j := 0; j < 8; j++ {
			u[15-j] = byte(low)
			low >>= 8
		}
		data[i] = u
	}

	return &UUIDColumn{Data: data}, nil
}

// DecimalColumn holds N decimal values as their little-endian
// two's-complement backing integer, BackingBits/8 bytes each.
type DecimalColumn struct {
	typ  chtype.Decimal
	Data []byte
}

func (c *DecimalColumn) Type() chtype.ServerType { return c.typ }
func (c *DecimalColumn) Len() int                { return len(c.Data) / (c.typ.BackingBits / 8) }

// NewDecimalColumn builds a DecimalColumn from already-encoded backing
// bytes, for callers outside this package (the Arrow bridge) that need
// typ set so Type() and Len() satisfy the Column interface.
func NewDecimalColumn(t chtype.Decimal, data []byte) *DecimalColumn {
	return &DecimalColumn{typ: t, Data: data}
}

func encodeDecimal(w *wire.Writer, t chtype.Decimal, col Column, n int) error {
	dc, ok := col.(*DecimalColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeDecimal", "column is %T, want *DecimalColumn", col)
	}

	width := t.BackingBits / 8
	if len(dc.Data) != n*width {
		return errs.MalformedFramef("column.encodeDecimal", "column holds %d bytes, want %d", len(dc.Data), n*width)
	}
	w.Raw(dc.Data)

	return nil
}

func decodeDecimal(r *wire.Reader, t chtype.Decimal, n int) (Column, error) {
	width := t.BackingBits / 8

	buf, err := r.RawN(n * width)
	if err != nil {
		return nil, err
	}

	return &DecimalColumn{typ: t, Data: buf}, nil
}

// DateTimeColumn holds N DateTime values as unsigned 32-bit seconds
// since epoch.
type DateTimeColumn struct {
	typ  chtype.DateTime
	Data []uint32
}

func (c *DateTimeColumn) Type() chtype.ServerType { return c.typ }
func (c *DateTimeColumn) Len() int                { return len(c.Data) }

// NewDateTimeColumn builds a DateTimeColumn for callers outside this
// package (the Arrow bridge) that need typ set so Type() satisfies the
// Column interface.
func NewDateTimeColumn(t chtype.DateTime, data []uint32) *DateTimeColumn {
	return &DateTimeColumn{typ: t, Data: data}
}

func encodeDateTime(w *wire.Writer, col Column, n int) error {
	dc, ok := col.(*DateTimeColumn)
	if !ok {
		return errs.MalformedFramef("column.encodeDateTime", "column is %T, want *DateTimeColumn", col)
	}
	if len(dc.Data) != n {
		return errs.MalformedFramef("column.encodeDateTime", "column holds %d rows, want %d", len(dc.Data), n)
	}
	for _, v := range dc.Data {
		w.Uint32(v)
	}

	return nil
}

func decodeDateTime(r *wire.Reader, t chtype.DateTime, n int) (Column, error) {
	data := make([]uint32, n)
	for i := range data {
		v, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		data[i] = v
	}

	return &DateTimeColumn{typ: t, Data: data}, nil
}

// DateTime64Column holds N DateTime64 values as signed 64-bit ticks
// of 10⁻ᵖ seconds since epoch.
type DateTime64Column struct {
	typ  chtype.DateTime64
	Data []int64
}

func (c *DateTime64Column) Type() chtype.ServerType { return c.typ }
func (c *DateTime64Column) Len() int                { return len(c.Data) }

// NewDateTime64Column builds a DateTime64Column for callers outside
// this package (the Arrow bridge) that need typ set so Type()
// satisfies the Column interface.
func NewDateTime64Column(t chtype.DateTime64, data []int64) *DateTime64Column {
	return &DateTime64Column{typ: t, Data: data}
}

func encodeDateTime64(w *wire.Writer, t chtype.DateTime64, col Column, n int) error {
	dc, ok := col.(*DateTime64Column)
	if !ok {
		return errs.MalformedFramef("column.encodeDateTime64", "column is %T, want *DateTime64Column", col)
	}
	if len(dc.Data) != n {
		return errs.MalformedFramef("column.encodeDateTime64", "column holds %d rows, want %d", len(dc.Data), n)
	}
	for _, v := range dc.Data {
		w.Int64(v)
	}

	return nil
}

func decodeDateTime64(r *wire.Reader, t chtype.DateTime64, n int) (Column, error) {
	data := make([]int64, n)
	for i := range data {
		v, err := r.Int64()
		if err != nil {
			return nil, err
		}
		data[i] = v
	}

	return &DateTime64Column{typ: t, Data: data}, nil
}
