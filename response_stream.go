package chclient

import (
	"context"

	"github.com/nativedb/chclient/block"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/protocol"
)

// ResponseStream delivers the blocks one Query call produces,
// decoupling the caller's iteration from the send/receive goroutines
// protocol.Session.Do drives internally.
type ResponseStream struct {
	blocks   chan *block.Block
	progress chan protocol.Progress
	done     chan struct{}
	cur      *block.Block
	err      error
}

// Next blocks until the next result block is available. It returns
// false at end of stream or on error; call Err after Next returns
// false to distinguish the two.
func (s *ResponseStream) Next() bool {
	b, ok := <-s.blocks
	if !ok {
		return false
	}

	s.cur = b

	return true
}

// Block returns the block the last successful Next delivered.
func (s *ResponseStream) Block() *block.Block { return s.cur }

// Progress is a buffered channel of progress deltas. Callers
// uninterested in progress may ignore it; the stream never blocks
// waiting for a reader to drain it.
func (s *ResponseStream) Progress() <-chan protocol.Progress { return s.progress }

// Err returns the error Do finished with. It blocks until Do has
// returned, so it should only be called after Next returns false.
func (s *ResponseStream) Err() error {
	<-s.done

	return s.err
}

// Query runs q as a SELECT and returns a stream of result blocks. Do
// runs on a background goroutine; the caller drains the returned
// stream via Next/Block and checks Err once exhausted.
func (c *Client) Query(ctx context.Context, q Query) (*ResponseStream, error) {
	if c.session.Phase() != protocol.Idle {
		return nil, errs.ProtocolViolationf("chclient.Client.Query", "session phase is %s, not Idle", c.session.Phase())
	}

	stream := &ResponseStream{
		blocks:   make(chan *block.Block),
		progress: make(chan protocol.Progress, 8),
		done:     make(chan struct{}),
	}

	onResult := q.OnResult
	q.OnResult = func(ctx context.Context, b *block.Block) error {
		select {
		case stream.blocks <- b:
		case <-ctx.Done():
			return ctx.Err()
		}

		if onResult != nil {
			return onResult(ctx, b)
		}

		return nil
	}

	onProgress := q.OnProgress
	q.OnProgress = func(ctx context.Context, p protocol.Progress) error {
		select {
		case stream.progress <- p:
		default:
		}

		if onProgress != nil {
			return onProgress(ctx, p)
		}

		return nil
	}

	stop := watchCancel(ctx, c.conn)

	go func() {
		defer stop()
		defer close(stream.blocks)
		defer close(stream.progress)
		defer close(stream.done)

		stream.err = c.session.Do(ctx, q)
	}()

	return stream, nil
}
