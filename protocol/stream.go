package protocol

import "io"

// StreamAdapter is the ordered bidirectional byte pipe a Session reads
// and writes, per SPEC_FULL §6. A net.Conn or *crypto/tls.Conn has no
// Flush method, so it needs a thin wrapper (the root package's
// netConnAdapter is one); TLS is delegated entirely to whichever
// adapter the caller dials, never negotiated inside this package.
type StreamAdapter interface {
	io.Reader
	io.Writer

	// Flush pushes any buffered writes onto the wire. Implementations
	// over an unbuffered net.Conn may make this a no-op.
	Flush() error
	Close() error
}
