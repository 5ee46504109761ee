package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/pool"
)

func TestVaruint_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}

	p := pool.New()
	for _, v := range values {
		w := NewWriter(p, 16)
		w.Varuint(v)
		require.LessOrEqual(t, w.Len(), MaxVaruintLen)

		r := NewReader(bytes.NewReader(w.Bytes()))
		got, err := r.Varuint()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestVaruint_RejectsElevenBytes(t *testing.T) {
	// Ten continuation bytes followed by an eleventh with the
	// continuation bit still set must fail, per SPEC_FULL §8 law 5.
	data := bytes.Repeat([]byte{0x80}, 11)
	r := NewReader(bytes.NewReader(data))

	_, err := r.Varuint()
	require.Error(t, err)
	assert.Equal(t, errs.KindMalformedFrame, errs.KindOf(err))
}

func TestBool_RejectsNonCanonicalByte(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{2}))

	_, err := r.Bool()
	require.Error(t, err)
	assert.Equal(t, errs.KindMalformedFrame, errs.KindOf(err))
}

func TestBool_AcceptsZeroAndOne(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0, 1}))

	v, err := r.Bool()
	require.NoError(t, err)
	assert.False(t, v)

	v, err = r.Bool()
	require.NoError(t, err)
	assert.True(t, v)
}

func TestString_RoundTrip(t *testing.T) {
	p := pool.New()
	w := NewWriter(p, 16)
	w.String("hello, native protocol")

	r := NewReader(bytes.NewReader(w.Bytes()))
	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "hello, native protocol", s)
}

func TestReader_UnexpectedEOFMidFrame(t *testing.T) {
	// A varuint that claims more continuation bytes than the stream
	// actually has must fail as UnexpectedEOF, not MalformedFrame.
	r := NewReader(bytes.NewReader([]byte{0x80, 0x80}))

	_, err := r.Varuint()
	require.Error(t, err)
	assert.Equal(t, errs.KindUnexpectedEOF, errs.KindOf(err))
}

func TestReader_CleanEOFOnFirstByte(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))

	_, err := r.Varuint()
	require.ErrorIs(t, err, io.EOF)
}

func TestFixedWidth_RoundTrip(t *testing.T) {
	p := pool.New()
	w := NewWriter(p, 32)
	w.Uint16(0xBEEF)
	w.Uint32(0xDEADBEEF)
	w.Uint64(0x0123456789ABCDEF)
	w.Float64(3.14159)

	r := NewReader(bytes.NewReader(w.Bytes()))

	u16, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	u32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789ABCDEF), u64)

	f64, err := r.Float64()
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, f64, 1e-9)
}
