package protocol

import (
	"bytes"

	"github.com/nativedb/chclient/block"
	"github.com/nativedb/chclient/compress"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/pool"
	"github.com/nativedb/chclient/wire"
)

// compressedHeaderFields is the inner header's byte length (1-byte
// algorithm tag + two 4-byte size words), which compress.FrameHeaderSize
// already accounts for alongside the 16-byte checksum.
const compressedHeaderFields = compress.FrameHeaderSize - compress.ChecksumSize

// writeBlock encodes b into a scratch buffer and appends it to w,
// wrapped in a compress.WriteFrame transport frame when compression
// is enabled, per SPEC_FULL §4.2/§4.7.
func writeBlock(w *wire.Writer, p *pool.Pool, compression bool, b *block.Block) error {
	scratch := wire.NewWriter(p, 4096)
	defer p.Put(scratch.Buffer())

	if err := block.Encode(scratch, b); err != nil {
		return err
	}

	if !compression {
		w.Raw(scratch.Bytes())
		return nil
	}

	frame, err := compress.WriteFrame(nil, compress.AlgoLZ4, scratch.Bytes())
	if err != nil {
		return err
	}
	w.Raw(frame)

	return nil
}

// readBlock reads a block frame from r, transparently reversing the
// compress.WriteFrame wrapping writeBlock applies when compression is
// enabled.
func readBlock(r *wire.Reader, compression bool) (*block.Block, error) {
	if !compression {
		return block.Decode(r)
	}

	head, err := r.RawN(compress.FrameHeaderSize)
	if err != nil {
		return nil, err
	}

	compressedSize := leUint32(head[17:21])
	remaining := int(compressedSize) - compressedHeaderFields
	if remaining < 0 {
		return nil, errs.MalformedFramef("protocol.readBlock", "invalid compressed size %d", compressedSize)
	}

	tail, err := r.RawN(remaining)
	if err != nil {
		return nil, err
	}

	full := make([]byte, 0, len(head)+len(tail))
	full = append(full, head...)
	full = append(full, tail...)

	payload, _, err := compress.ReadFrame(full)
	if err != nil {
		return nil, err
	}

	return block.Decode(wire.NewReader(bytes.NewReader(payload)))
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
