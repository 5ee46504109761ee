package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_GrowWritePreservesContent(t *testing.T) {
	b := NewBuffer(4)
	b.MustWrite([]byte("abcd"))
	b.Grow(100)
	b.MustWrite([]byte("efgh"))

	assert.Equal(t, []byte("abcdefgh"), b.Bytes())
}

func TestBuffer_Reset(t *testing.T) {
	b := NewBuffer(16)
	b.MustWrite([]byte("hello"))
	cap0 := b.Cap()

	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, cap0, b.Cap())
}

func TestPool_GetReturnsAtLeastRequestedCapacity(t *testing.T) {
	p := New()

	for _, n := range []int{1, 4096, 5000, 1024 * 1024, 2 * 1024 * 1024} {
		buf := p.Get(n)
		require.NotNil(t, buf)
		assert.GreaterOrEqual(t, buf.Cap(), n)
		assert.Equal(t, 0, buf.Len(), "pooled buffer must start empty")
	}
}

func TestPool_PutResetsBeforeReuse(t *testing.T) {
	p := New()

	buf := p.Get(4096)
	buf.MustWrite([]byte("leftover"))
	p.Put(buf)

	reused := p.Get(4096)
	assert.Equal(t, 0, reused.Len(), "buffer returned to the pool must be cleared on the write side")
}

func TestPool_LargeBypassNotRetained(t *testing.T) {
	p := New()

	huge := p.Get(4 * 1024 * 1024)
	assert.Equal(t, 4*1024*1024, huge.Cap())

	// Putting a bypass buffer back is a no-op; it must not show up later
	// with a mismatched, inflated tier capacity.
	p.Put(huge)

	small := p.Get(4096)
	assert.Less(t, small.Cap(), 4*1024*1024)
}
