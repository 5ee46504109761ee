package compress

// HeavyCodec is the high-ratio alternative transport-frame compressor,
// tag [AlgoHeavy], backed by Zstandard. It trades compression speed
// for a materially better ratio than [LZ4Codec] and is the right
// choice when storage or bandwidth dominates over CPU.
//
// Two build-tagged implementations exist, mirroring the teacher's
// cgo/pure split: heavy_cgo.go (build tag cgo) wraps valyala/gozstd,
// heavy_pure.go (build tag !cgo) wraps klauspost/compress/zstd so the
// client still builds on platforms without a C toolchain.
type HeavyCodec struct{}

var _ Codec = HeavyCodec{}
