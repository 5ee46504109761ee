// Package wire implements the native protocol's primitive codec
// (SPEC_FULL §4.1): variable-length unsigned integers, length-prefixed
// strings, fixed-width little-endian scalars, and single-byte bools.
//
// Every higher layer (compress, chtype, column, block, protocol)
// builds on these primitives instead of touching encoding/binary
// directly, the same way the teacher's encoding package is the sole
// place that knows how a float64 or a varint becomes bytes.
package wire

import (
	"encoding/binary"
	"math"

	"github.com/nativedb/chclient/pool"
)

// MaxVaruintLen is the maximum number of bytes a varuint can occupy
// per SPEC_FULL §4.1 ("maximum 10 bytes").
const MaxVaruintLen = 10

// Writer accumulates encoded primitives into a pooled buffer. It is
// not safe for concurrent use; one Writer belongs to one in-flight
// frame, matching the teacher's per-encoder buffer ownership.
type Writer struct {
	buf *pool.Buffer
}

// NewWriter creates a Writer backed by a freshly pooled buffer.
func NewWriter(p *pool.Pool, sizeHint int) *Writer {
	return &Writer{buf: p.Get(sizeHint)}
}

// NewWriterBuffer wraps an already-obtained buffer, for callers that
// manage the pool checkout/return themselves (e.g. the block codec
// writing directly into a frame buffer).
func NewWriterBuffer(buf *pool.Buffer) *Writer {
	return &Writer{buf: buf}
}

// Bytes returns the bytes written so far. The slice is only valid
// until the next write.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

// Buffer returns the underlying pooled buffer, so the caller can
// return it to its pool once the frame has been flushed.
func (w *Writer) Buffer() *pool.Buffer { return w.buf }

// Bool writes a single byte: 0 or 1.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf.MustWrite([]byte{1})
	} else {
		w.buf.MustWrite([]byte{0})
	}
}

// Uint8 writes one byte.
func (w *Writer) Uint8(v uint8) { w.buf.MustWrite([]byte{v}) }

// Uint16 writes two little-endian bytes.
func (w *Writer) Uint16(v uint16) {
	w.buf.Grow(2)
	w.buf.B = binary.LittleEndian.AppendUint16(w.buf.B, v)
}

// Uint32 writes four little-endian bytes.
func (w *Writer) Uint32(v uint32) {
	w.buf.Grow(4)
	w.buf.B = binary.LittleEndian.AppendUint32(w.buf.B, v)
}

// Uint64 writes eight little-endian bytes.
func (w *Writer) Uint64(v uint64) {
	w.buf.Grow(8)
	w.buf.B = binary.LittleEndian.AppendUint64(w.buf.B, v)
}

// Int32 writes a signed 32-bit little-endian value.
func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }

// Int64 writes a signed 64-bit little-endian value.
func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

// Float64 writes an IEEE-754 little-endian double.
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

// Raw appends data unchanged (used for FixedString padding, Decimal
// backing integers, UUID/IP byte layouts, and any other already-framed
// byte run).
func (w *Writer) Raw(data []byte) { w.buf.MustWrite(data) }

// Varuint writes v as an unsigned LEB128 varint: 7 data bits per byte,
// the high bit set on every byte but the last. At most MaxVaruintLen
// bytes are ever produced (a full uint64 needs at most 10).
func (w *Writer) Varuint(v uint64) {
	w.buf.Grow(MaxVaruintLen)
	for v >= 0x80 {
		w.buf.B = append(w.buf.B, byte(v)|0x80)
		v >>= 7
	}
	w.buf.B = append(w.buf.B, byte(v))
}

// String writes a varuint length prefix followed by the raw bytes of
// s. Never null-terminated, per SPEC_FULL §4.1.
func (w *Writer) String(s string) {
	w.Varuint(uint64(len(s)))
	w.buf.MustWrite([]byte(s))
}

// ByteString writes a varuint length prefix followed by data, for
// binary payloads that are not valid UTF-8 strings.
func (w *Writer) ByteString(data []byte) {
	w.Varuint(uint64(len(data)))
	w.buf.MustWrite(data)
}
