// Package compress implements SPEC_FULL §4.2's transport-frame
// compression: a 16-byte CityHash128 checksum, a 1-byte algorithm tag,
// compressed/uncompressed size words, and the payload itself, wrapped
// around whichever block the protocol layer is about to write or has
// just read.
//
// The two algorithms named by the spec are LZ4 (default, tag 0x82) and
// a heavyweight alternative (tag 0x90), implemented here with Zstd.
// Both keep the teacher's pooled-codec mechanism (see compress/lz4.go
// and compress/heavy_*.go in the original mebo tree); only the framing
// around them (frame.go) is new.
package compress

import "fmt"

// Compressor compresses a byte run.
//
// Memory management: the returned slice is newly allocated and owned
// by the caller; the input slice is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a byte run previously produced by the
// matching Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Algorithm is the 1-byte tag identifying the compression algorithm
// used for a transport frame, per SPEC_FULL §4.2.
type Algorithm byte

const (
	// AlgoLZ4 is the default, fast-decompression codec.
	AlgoLZ4 Algorithm = 0x82
	// AlgoHeavy is the high-ratio alternative, backed by Zstd.
	AlgoHeavy Algorithm = 0x90
)

func (a Algorithm) String() string {
	switch a {
	case AlgoLZ4:
		return "lz4"
	case AlgoHeavy:
		return "heavy(zstd)"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(a))
	}
}

// CodecFor returns the Codec registered for algo, or an error if algo
// is not one of AlgoLZ4 / AlgoHeavy.
func CodecFor(algo Algorithm) (Codec, error) {
	switch algo {
	case AlgoLZ4:
		return LZ4Codec{}, nil
	case AlgoHeavy:
		return HeavyCodec{}, nil
	default:
		return nil, fmt.Errorf("compress: unsupported algorithm %s", algo)
	}
}
