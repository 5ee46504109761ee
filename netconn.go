package chclient

import (
	"bufio"
	"context"
	"net"
)

// netConnAdapter adapts a net.Conn to protocol.StreamAdapter. Writes
// are buffered the way wire.Writer expects a caller to batch small
// appends before a single flush per packet.
type netConnAdapter struct {
	conn net.Conn
	w    *bufio.Writer
}

func newNetConnAdapter(conn net.Conn) *netConnAdapter {
	return &netConnAdapter{conn: conn, w: bufio.NewWriterSize(conn, 32*1024)}
}

func (a *netConnAdapter) Read(p []byte) (int, error)  { return a.conn.Read(p) }
func (a *netConnAdapter) Write(p []byte) (int, error) { return a.w.Write(p) }
func (a *netConnAdapter) Flush() error                { return a.w.Flush() }
func (a *netConnAdapter) Close() error                { return a.conn.Close() }

// watchCancel closes conn once ctx is done, unblocking a pending
// Read/Write so protocol.Session.Do returns instead of hanging on a
// transport that will never produce another byte; a closed conn during
// a query surfaces as a drain failure (session goes Terminated),
// consistent with "connection abandoned once the caller's deadline
// expired". The returned stop func must be called once the operation
// finishes, successfully or not, to release the watcher goroutine.
func watchCancel(ctx context.Context, conn net.Conn) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	return func() { close(done) }
}
