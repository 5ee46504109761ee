package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativedb/chclient/errs"
)

func TestFrame_RoundTrip_LZ4(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 1000)

	frame, err := WriteFrame(nil, AlgoLZ4, payload)
	require.NoError(t, err)

	got, consumed, err := ReadFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), consumed)
	assert.Equal(t, payload, got)
}

func TestFrame_RoundTrip_Heavy(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF, 0x01}, 4096)

	frame, err := WriteFrame(nil, AlgoHeavy, payload)
	require.NoError(t, err)

	got, _, err := ReadFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrame_EmptyPayload(t *testing.T) {
	frame, err := WriteFrame(nil, AlgoLZ4, nil)
	require.NoError(t, err)

	got, _, err := ReadFrame(frame)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFrame_CorruptedPayloadFailsChecksum(t *testing.T) {
	payload := []byte("a 1 MiB block would go here in a real test, this stands in for it")

	frame, err := WriteFrame(nil, AlgoLZ4, payload)
	require.NoError(t, err)

	// Flip one byte inside the compressed payload.
	corrupted := append([]byte(nil), frame...)
	corrupted[len(corrupted)-1] ^= 0xFF

	_, _, err = ReadFrame(corrupted)
	require.Error(t, err)
	assert.Equal(t, errs.KindChecksumMismatch, errs.KindOf(err))
}

func TestFrame_MultipleFramesConcatenated(t *testing.T) {
	var buf []byte
	var err error

	buf, err = WriteFrame(buf, AlgoLZ4, []byte("first block"))
	require.NoError(t, err)
	buf, err = WriteFrame(buf, AlgoHeavy, []byte("second block, different algorithm"))
	require.NoError(t, err)

	first, n1, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, "first block", string(first))

	second, n2, err := ReadFrame(buf[n1:])
	require.NoError(t, err)
	assert.Equal(t, "second block, different algorithm", string(second))
	assert.Equal(t, len(buf), n1+n2)
}
