package compress

// NoopCodec bypasses compression entirely. It backs the "compression
// disabled at session level" path of SPEC_FULL §4.2, where blocks are
// written as raw bytes with no frame wrapper at all — this type exists
// for callers that still want a uniform Codec value to hold in that
// case (e.g. tests exercising both configurations through one code
// path), not as a third on-wire [Algorithm] tag.
type NoopCodec struct{}

var _ Codec = NoopCodec{}

// Compress returns data unchanged.
func (c NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged.
func (c NoopCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
