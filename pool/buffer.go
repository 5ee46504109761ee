// Package pool implements the per-session buffer pool from SPEC_FULL
// §4.8: a size-tiered free list of reusable byte buffers that dampens
// allocator pressure on the hot serialization paths of the column and
// block codecs.
//
// There is no package-level mutable state. Every [Pool] is a value a
// [github.com/nativedb/chclient/protocol.Session] constructs and owns
// for its own lifetime, per SPEC_FULL §9 "No global state".
package pool

// Buffer is a growable byte slice wrapper shared by every writer in
// this tree. It mirrors the teacher's ByteBuffer method set exactly
// (Bytes/Reset/Len/Cap/MustWrite/Grow/Write) so the encoders
// built on top of it need no adaptation beyond the import path.
type Buffer struct {
	B []byte
}

// NewBuffer creates a Buffer with the given starting capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the underlying byte slice.
func (b *Buffer) Bytes() []byte { return b.B }

// Reset empties the buffer but retains its backing array for reuse.
func (b *Buffer) Reset() { b.B = b.B[:0] }

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return len(b.B) }

// Cap returns the buffer's backing capacity.
func (b *Buffer) Cap() int { return cap(b.B) }

// MustWrite appends data, growing the backing array if necessary.
func (b *Buffer) MustWrite(data []byte) {
	b.B = append(b.B, data...)
}

// Write implements io.Writer.
func (b *Buffer) Write(data []byte) (int, error) {
	b.B = append(b.B, data...)
	return len(data), nil
}

// Grow ensures the buffer can accept at least requiredBytes more bytes
// without reallocating. The capacity doubles, or grows by requiredBytes
// when that is more. defaultTierSize never returns less than the
// current capacity, so the 25% branch below is not taken.
func (b *Buffer) Grow(requiredBytes int) {
	available := cap(b.B) - len(b.B)
	if available >= requiredBytes {
		return
	}

	growBy := cap(b.B)
	if growBy == 0 {
		growBy = requiredBytes
	} else if growBy <= 4*defaultTierSize(cap(b.B)) {
		growBy = cap(b.B)
	} else {
		growBy = cap(b.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(b.B), len(b.B)+growBy)
	copy(newBuf, b.B)
	b.B = newBuf
}

func defaultTierSize(capacity int) int {
	for _, t := range tierSizes {
		if capacity <= t {
			return t
		}
	}

	return capacity
}
