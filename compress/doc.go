// Package compress provides the transport-frame compression codecs
// for the native protocol, plus the frame format itself.
//
// # Architecture
//
// Three interfaces, same shape as every compression layer in this
// corpus:
//
//	type Compressor interface { Compress(data []byte) ([]byte, error) }
//	type Decompressor interface { Decompress(data []byte) ([]byte, error) }
//	type Codec interface { Compressor; Decompressor }
//
// Two concrete codecs are wired to the two algorithm tags the native
// protocol actually negotiates (SPEC_FULL §4.2):
//
//   - LZ4Codec (tag 0x82, [AlgoLZ4]): default, optimized for fast
//     decompression on the query-response hot path.
//   - HeavyCodec (tag 0x90, [AlgoHeavy]): Zstandard, for workloads
//     where compression ratio matters more than CPU.
//
// [WriteFrame] and [ReadFrame] wrap a codec's output in the transport
// frame: a 16-byte CityHash128 checksum over everything that follows
// it, the algorithm tag, the compressed and uncompressed sizes, and
// the payload. [ReadFrame] recomputes the checksum before trusting
// anything else in the frame, per SPEC_FULL §8 law 4: corrupting any
// byte of the payload must be rejected as ChecksumMismatch.
//
// When a session negotiates compression off, callers skip this
// package entirely and write blocks as raw bytes with no frame
// wrapper — see SPEC_FULL §4.2.
package compress
