package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/nativedb/chclient/errs"
)

// Reader decodes primitives from an underlying byte stream. It
// distinguishes a clean end-of-stream at a frame boundary (returned to
// the caller as plain io.EOF, only ever produced by the first byte of
// a new top-level packet) from a stream that ends mid-primitive
// (wrapped as errs.KindUnexpectedEOF) per SPEC_FULL §4.1.
type Reader struct {
	r   io.Reader
	tmp [MaxVaruintLen]byte
}

// NewReader wraps r. r is typically a [github.com/nativedb/chclient/protocol.StreamAdapter]
// but any io.Reader works, including an in-memory *bytes.Reader for
// tests.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// readFull reads exactly len(buf) bytes, classifying failures per
// SPEC_FULL §4.1/§7. allowCleanEOF permits a bare io.EOF on the very
// first byte to propagate unwrapped, for callers polling for the next
// top-level packet.
func (r *Reader) readFull(op string, buf []byte, allowCleanEOF bool) error {
	n, err := io.ReadFull(r.r, buf)
	if err == nil {
		return nil
	}

	if allowCleanEOF && n == 0 && errors.Is(err, io.EOF) {
		return io.EOF
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errs.UnexpectedEOF(op, err)
	}

	return errs.IO(op, err)
}

// Bool reads a single byte and requires it to be exactly 0 or 1,
// failing with MalformedFrame otherwise.
func (r *Reader) Bool() (bool, error) {
	var b [1]byte
	if err := r.readFull("wire.Reader.Bool", b[:], false); err != nil {
		return false, err
	}

	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errs.MalformedFramef("wire.Reader.Bool", "invalid bool byte %#x", b[0])
	}
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	var b [1]byte
	if err := r.readFull("wire.Reader.Uint8", b[:], false); err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint16 reads two little-endian bytes.
func (r *Reader) Uint16() (uint16, error) {
	var b [2]byte
	if err := r.readFull("wire.Reader.Uint16", b[:], false); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b[:]), nil
}

// Uint32 reads four little-endian bytes.
func (r *Reader) Uint32() (uint32, error) {
	var b [4]byte
	if err := r.readFull("wire.Reader.Uint32", b[:], false); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b[:]), nil
}

// Uint64 reads eight little-endian bytes.
func (r *Reader) Uint64() (uint64, error) {
	var b [8]byte
	if err := r.readFull("wire.Reader.Uint64", b[:], false); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

// Int32 reads a signed 32-bit little-endian value.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Int64 reads a signed 64-bit little-endian value.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Float64 reads an IEEE-754 little-endian double.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Raw reads exactly len(buf) bytes into buf.
func (r *Reader) Raw(buf []byte) error {
	return r.readFull("wire.Reader.Raw", buf, false)
}

// RawN reads and returns exactly n bytes.
func (r *Reader) RawN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.readFull("wire.Reader.RawN", buf, false); err != nil {
		return nil, err
	}

	return buf, nil
}

// Varuint reads an unsigned LEB128 varint. A sequence of more than
// MaxVaruintLen bytes with the continuation bit still set fails with
// MalformedFrame per SPEC_FULL §8 law 5. A clean io.EOF on the very
// first byte propagates unwrapped (rather than as UnexpectedEOF) so
// the protocol layer can poll for the next top-level packet tag
// without distinguishing "no more packets" from "malformed stream".
func (r *Reader) Varuint() (uint64, error) {
	var (
		result uint64
		shift  uint
	)

	for i := 0; i < MaxVaruintLen; i++ {
		var b [1]byte
		allowClean := i == 0
		if err := r.readFull("wire.Reader.Varuint", b[:], allowClean); err != nil {
			return 0, err
		}

		if i == MaxVaruintLen-1 && b[0] >= 0x80 {
			return 0, errs.MalformedFramef("wire.Reader.Varuint", "varint exceeds %d bytes", MaxVaruintLen)
		}

		result |= uint64(b[0]&0x7f) << shift
		if b[0] < 0x80 {
			return result, nil
		}
		shift += 7
	}

	return result, nil
}

// String reads a varuint length prefix followed by that many raw
// bytes and returns them as a string.
func (r *Reader) String() (string, error) {
	n, err := r.Varuint()
	if err != nil {
		return "", err
	}

	buf, err := r.RawN(int(n))
	if err != nil {
		return "", err
	}

	return string(buf), nil
}

// ByteString reads a varuint length prefix followed by that many raw
// bytes.
func (r *Reader) ByteString() ([]byte, error) {
	n, err := r.Varuint()
	if err != nil {
		return nil, err
	}

	return r.RawN(int(n))
}
