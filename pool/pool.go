package pool

import "sync"

// tierSizes is the power-of-two ladder from 4KiB to 1MiB named in
// SPEC_FULL §4.8. A request larger than the top tier is served by
// largeTierBypass, which never retains its buffers.
var tierSizes = []int{
	4 * 1024,
	8 * 1024,
	16 * 1024,
	32 * 1024,
	64 * 1024,
	128 * 1024,
	256 * 1024,
	512 * 1024,
	1024 * 1024,
}

const largeTierBypass = -1

// Pool is the size-tiered free list. Buffers returned on the write
// side are cleared before being pooled; buffers obtained for reads are
// refilled (overwritten) by the caller before reuse, so Get does not
// clear them, per SPEC_FULL §4.8.
type Pool struct {
	tiers []sync.Pool
}

// New constructs an empty Pool. Each Session owns exactly one.
func New() *Pool {
	p := &Pool{tiers: make([]sync.Pool, len(tierSizes))}
	for i := range p.tiers {
		size := tierSizes[i]
		p.tiers[i].New = func() any { return NewBuffer(size) }
	}

	return p
}

func tierFor(n int) int {
	for i, t := range tierSizes {
		if n <= t {
			return i
		}
	}

	return largeTierBypass
}

// Get returns a Buffer with at least n bytes of capacity. Buffers
// requested above the largest tier bypass the pool entirely and are
// never retained by Put.
func (p *Pool) Get(n int) *Buffer {
	idx := tierFor(n)
	if idx == largeTierBypass {
		return NewBuffer(n)
	}

	buf, _ := p.tiers[idx].Get().(*Buffer)
	if cap(buf.B) < n {
		buf.B = make([]byte, 0, n)
	}

	return buf
}

// Put returns buf to its size tier for reuse. Buffers whose capacity
// doesn't land in any tier (the large bypass) are dropped for the
// garbage collector to reclaim; pooling them would let one oversized
// payload inflate every future Get for the life of the session.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}

	idx := tierFor(cap(buf.B))
	if idx == largeTierBypass {
		return
	}

	buf.Reset()
	p.tiers[idx].Put(buf)
}
