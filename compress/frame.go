package compress

import (
	"encoding/binary"

	"github.com/go-faster/city"

	"github.com/nativedb/chclient/errs"
)

// innerHeaderSize is the 1-byte algorithm tag plus the two 4-byte
// size words that the checksum covers alongside the payload, per
// SPEC_FULL §4.2.
const innerHeaderSize = 1 + 4 + 4

// ChecksumSize is the size in bytes of the frame's leading checksum.
const ChecksumSize = 16

// FrameHeaderSize is the total size of everything preceding the
// compressed payload: the checksum plus the inner header.
const FrameHeaderSize = ChecksumSize + innerHeaderSize

// WriteFrame compresses payload with the codec for algo and appends a
// complete SPEC_FULL §4.2 transport frame to dst, returning the
// extended slice.
func WriteFrame(dst []byte, algo Algorithm, payload []byte) ([]byte, error) {
	codec, err := CodecFor(algo)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, errs.IO("compress.WriteFrame", err)
	}

	inner := make([]byte, innerHeaderSize+len(compressed))
	inner[0] = byte(algo)
	binary.LittleEndian.PutUint32(inner[1:5], uint32(innerHeaderSize+len(compressed)))
	binary.LittleEndian.PutUint32(inner[5:9], uint32(len(payload)))
	copy(inner[innerHeaderSize:], compressed)

	sum := city.CH128(inner)

	out := dst
	var checksum [16]byte
	binary.LittleEndian.PutUint64(checksum[0:8], sum.Low)
	binary.LittleEndian.PutUint64(checksum[8:16], sum.High)
	out = append(out, checksum[:]...)
	out = append(out, inner...)

	return out, nil
}

// ReadFrame parses and decompresses a single transport frame from the
// front of data, returning the decompressed payload and the number of
// bytes of data consumed.
func ReadFrame(data []byte) (payload []byte, consumed int, err error) {
	if len(data) < FrameHeaderSize {
		return nil, 0, errs.UnexpectedEOF("compress.ReadFrame", nil)
	}

	wantLow := binary.LittleEndian.Uint64(data[0:8])
	wantHigh := binary.LittleEndian.Uint64(data[8:16])

	algo := Algorithm(data[16])
	compressedSize := binary.LittleEndian.Uint32(data[17:21])
	uncompressedSize := binary.LittleEndian.Uint32(data[21:25])

	frameEnd := ChecksumSize + int(compressedSize)
	if frameEnd > len(data) || int(compressedSize) < innerHeaderSize {
		return nil, 0, errs.MalformedFramef("compress.ReadFrame", "invalid compressed size %d", compressedSize)
	}

	inner := data[ChecksumSize:frameEnd]
	sum := city.CH128(inner)
	if sum.Low != wantLow || sum.High != wantHigh {
		return nil, 0, errs.ChecksumMismatch("compress.ReadFrame", nil)
	}

	codec, err := CodecFor(algo)
	if err != nil {
		return nil, 0, errs.MalformedFrame("compress.ReadFrame", err)
	}

	compressedPayload := inner[innerHeaderSize:]

	var out []byte
	if sized, ok := codec.(sizedDecompressor); ok {
		out, err = sized.DecompressInto(compressedPayload, int(uncompressedSize))
	} else {
		out, err = codec.Decompress(compressedPayload)
	}
	if err != nil {
		return nil, 0, errs.MalformedFrame("compress.ReadFrame", err)
	}

	return out, frameEnd, nil
}

// sizedDecompressor is implemented by codecs that can decompress
// directly into a known-size buffer instead of guessing, avoiding the
// adaptive-retry path in [LZ4Codec.Decompress].
type sizedDecompressor interface {
	DecompressInto(data []byte, uncompressedSize int) ([]byte, error)
}
