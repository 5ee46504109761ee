package protocol

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nativedb/chclient/block"
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/pool"
	"github.com/nativedb/chclient/wire"
)

// Query is the caller-facing request SPEC_FULL §6's session.query/
// session.insert entry points accept. A single Query value drives
// both SELECT and INSERT flows: Input is nil for the former, set for
// the latter.
type Query struct {
	// ID is the query id sent to the server. A random uuid is
	// generated if empty.
	ID       string
	Body     string
	Secret   string
	Stage    QueryStage
	Settings []Setting

	// Parameters are EXPERIMENTAL typed query parameters (§3.4),
	// gated on revisionQueryParameters.
	Parameters []Parameter

	// Input lazily produces the next batch to insert, keyed off the
	// schema the server reported in its empty probe block. Returning
	// io.EOF ends the input stream. Nil means no input is sent (a
	// plain SELECT).
	Input func(ctx context.Context, schema *block.Block) (*block.Block, error)

	// OnResult receives every data/totals/extremes block, including
	// a possible leading zero-row block that only carries schema. When
	// Input is set, the first block goes to Input as the schema instead.
	OnResult func(ctx context.Context, b *block.Block) error
	// OnProgress receives progress deltas (not cumulative values).
	OnProgress func(ctx context.Context, p Progress) error
	// OnProfileInfo receives the end-of-query execution statistics.
	OnProfileInfo func(ctx context.Context, p ProfileInfo) error
	// OnLog receives server log rows as raw blocks.
	OnLog func(ctx context.Context, b *block.Block) error
	// OnProfileEvents receives profiling event rows as raw blocks.
	OnProfileEvents func(ctx context.Context, b *block.Block) error
	// OnTableColumns receives the raw TableColumns string; most
	// callers ignore it.
	OnTableColumns func(ctx context.Context, s string) error
}

// Session owns one bidirectional stream and the state machine over it
// (SPEC_FULL §3.3, §4.7). It is not reusable once Terminated, mirroring
// the teacher's NumericEncoder: construct, drive through its lifecycle,
// Close exactly once.
type Session struct {
	stream StreamAdapter
	pool   *pool.Pool
	reader *wire.Reader
	opts   *Options
	logger *zap.Logger

	phase    Phase
	revision uint64
	server   ServerHello
}

// New constructs a Session over stream in phase Unconnected. Callers
// must call Hello before Query/Insert/Ping.
func New(stream StreamAdapter, opts *Options) *Session {
	return &Session{
		stream: stream,
		pool:   pool.New(),
		reader: wire.NewReader(stream),
		opts:   opts,
		logger: opts.logger,
		phase:  Unconnected,
	}
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase { return s.phase }

// Revision returns the negotiated protocol revision, valid once Hello
// has completed.
func (s *Session) Revision() uint64 { return s.revision }

func (s *Session) fail(op string, err error) error {
	s.phase = Terminated
	return err
}

// Hello performs the handshake SPEC_FULL §4.7 describes: send Hello,
// read Hello or Exception, record min(client, server) as the
// negotiated revision.
func (s *Session) Hello(ctx context.Context) error {
	const op = "protocol.Session.Hello"

	if s.phase != Unconnected {
		return errs.ProtocolViolationf(op, "Hello called in phase %s", s.phase)
	}

	w := wire.NewWriter(s.pool, 256)
	helloPacket(w, s.opts)
	if _, err := s.stream.Write(w.Bytes()); err != nil {
		s.pool.Put(w.Buffer())
		return s.fail(op, errs.IO(op, err))
	}
	err := s.stream.Flush()
	s.pool.Put(w.Buffer())
	if err != nil {
		return s.fail(op, errs.IO(op, err))
	}

	type result struct {
		hello ServerHello
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		code, err := readServerCode(s.reader)
		if err != nil {
			ch <- result{err: err}
			return
		}

		switch code {
		case serverCodeHello:
			h, err := decodeHello(s.reader)
			ch <- result{hello: h, err: err}
		case serverCodeException:
			chain, err := decodeExceptionChain(s.reader)
			if err != nil {
				ch <- result{err: err}
				return
			}
			ch <- result{err: errs.AsServerException(op, chain)}
		default:
			ch <- result{err: errs.ProtocolViolationf(op, "unexpected packet %s in Hello phase", code)}
		}
	}()

	select {
	case <-ctx.Done():
		s.stream.Close()
		return s.fail(op, errs.Timeout(op, ctx.Err()))
	case res := <-ch:
		if res.err != nil {
			return s.fail(op, res.err)
		}

		s.server = res.hello
		s.revision = min(uint64(ProtocolRevision), res.hello.Revision)
		s.phase = Idle

		if ce := s.logger.Check(zap.DebugLevel, "hello"); ce != nil {
			ce.Write(
				zap.String("server", res.hello.Name),
				zap.Uint64("revision", s.revision),
			)
		}

		return nil
	}
}

// Ping sends a keepalive Ping and waits for Pong. Legal only in Idle
// per SPEC_FULL §4.7 "Pings are illegal during InQuery".
func (s *Session) Ping(ctx context.Context) error {
	const op = "protocol.Session.Ping"

	if s.phase != Idle {
		return errs.ProtocolViolationf(op, "Ping called in phase %s", s.phase)
	}

	w := wire.NewWriter(s.pool, 8)
	pingPacket(w)
	if _, err := s.stream.Write(w.Bytes()); err != nil {
		s.pool.Put(w.Buffer())
		return s.fail(op, errs.IO(op, err))
	}
	err := s.stream.Flush()
	s.pool.Put(w.Buffer())
	if err != nil {
		return s.fail(op, errs.IO(op, err))
	}

	type result struct{ err error }
	ch := make(chan result, 1)
	go func() {
		code, err := readServerCode(s.reader)
		if err != nil {
			ch <- result{err: err}
			return
		}
		if code != serverCodePong {
			ch <- result{err: errs.ProtocolViolationf(op, "unexpected packet %s, want Pong", code)}
			return
		}
		ch <- result{}
	}()

	select {
	case <-ctx.Done():
		s.stream.Close()
		return s.fail(op, errs.Timeout(op, ctx.Err()))
	case res := <-ch:
		if res.err != nil {
			return s.fail(op, res.err)
		}
		return nil
	}
}

// Close terminates the session unconditionally. It never drains; a
// caller that needs a clean Cancel should go through Do's own
// cancellation path instead.
func (s *Session) Close() error {
	s.phase = Terminated
	return s.stream.Close()
}

func (s *Session) clientInfo() ClientInfo {
	return ClientInfo{
		Name:           s.opts.clientName,
		Major:          s.opts.clientMajor,
		Minor:          s.opts.clientMinor,
		Revision:       uint64(ProtocolRevision),
		Interface:      InterfaceTCP,
		Query:          QueryInitial,
		InitialUser:    s.opts.user,
		InitialQueryID: "",
		QuotaKey:       s.opts.quotaKey,
	}
}

func (s *Session) sendDataBlock(b *block.Block) error {
	w := wire.NewWriter(s.pool, 4096)
	defer s.pool.Put(w.Buffer())

	dataPacketTag(w)
	if err := writeBlock(w, s.pool, s.opts.compression, b); err != nil {
		return errs.MalformedFrame("protocol.Session.sendDataBlock", err)
	}

	if _, err := s.stream.Write(w.Bytes()); err != nil {
		return errs.IO("protocol.Session.sendDataBlock", err)
	}

	return nil
}

func (s *Session) sendQuery(ctx context.Context, q Query) error {
	w := wire.NewWriter(s.pool, 1024)
	defer s.pool.Put(w.Buffer())

	queryPacket(w, s.opts, s.revision, s.clientInfo(), queryRequest{
		id:         q.ID,
		body:       q.Body,
		secret:     q.Secret,
		stage:      q.Stage,
		compressed: s.opts.compression,
		settings:   q.Settings,
		parameters: q.Parameters,
	})

	if _, err := s.stream.Write(w.Bytes()); err != nil {
		return errs.IO("protocol.Session.sendQuery", err)
	}

	// Empty Data block delimiting the query header, per SPEC_FULL
	// §4.7 "Query (Idle -> InQuery)" step 2.
	return s.sendDataBlock(block.NewHeader())
}

func (s *Session) sendInput(ctx context.Context, q Query, schemaCh <-chan *block.Block) error {
	if q.Input == nil {
		return nil
	}

	var schema *block.Block
	select {
	case <-ctx.Done():
		return ctx.Err()
	case schema = <-schemaCh:
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := q.Input(ctx, schema)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		if err := s.sendDataBlock(batch); err != nil {
			return err
		}
	}

	// Terminating empty Data block, per SPEC_FULL §4.7 step 3.
	return s.sendDataBlock(block.NewHeader())
}

func (s *Session) compressibleFor(code serverCode) bool {
	switch code {
	case serverCodeData, serverCodeTotals, serverCodeExtremes:
		return s.opts.compression
	default:
		// Log and ProfileEvents blocks are never compressed, matching
		// the native protocol this spec models.
		return false
	}
}

func (s *Session) receiveLoop(ctx context.Context, q Query, onResult func(context.Context, *block.Block) error, gotException *atomic.Bool) error {
	const op = "protocol.Session.Do"

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		code, err := readServerCode(s.reader)
		if err != nil {
			return err
		}

		switch code {
		case serverCodeData, serverCodeTotals, serverCodeExtremes:
			b, err := readBlock(s.reader, s.compressibleFor(code))
			if err != nil {
				return err
			}
			if err := onResult(ctx, b); err != nil {
				return err
			}
		case serverCodeEndOfStream:
			return nil
		case serverCodeException:
			chain, err := decodeExceptionChain(s.reader)
			if err != nil {
				return err
			}
			gotException.Store(true)
			return errs.AsServerException(op, chain)
		case serverCodeProgress:
			p, err := decodeProgress(s.reader)
			if err != nil {
				return err
			}
			if ce := s.logger.Check(zap.DebugLevel, "progress"); ce != nil {
				ce.Write(zap.Uint64("rows", p.Rows), zap.Uint64("bytes", p.Bytes))
			}
			if q.OnProgress != nil {
				if err := q.OnProgress(ctx, p); err != nil {
					return err
				}
			}
		case serverCodeProfileInfo:
			p, err := decodeProfileInfo(s.reader)
			if err != nil {
				return err
			}
			if q.OnProfileInfo != nil {
				if err := q.OnProfileInfo(ctx, p); err != nil {
					return err
				}
			}
		case serverCodeLog:
			b, err := readBlock(s.reader, s.compressibleFor(code))
			if err != nil {
				return err
			}
			if q.OnLog != nil {
				if err := q.OnLog(ctx, b); err != nil {
					return err
				}
			}
		case serverCodeProfileEvents:
			b, err := readBlock(s.reader, s.compressibleFor(code))
			if err != nil {
				return err
			}
			if q.OnProfileEvents != nil {
				if err := q.OnProfileEvents(ctx, b); err != nil {
					return err
				}
			}
		case serverCodeTableColumns:
			str, err := decodeTableColumns(s.reader)
			if err != nil {
				return err
			}
			if q.OnTableColumns != nil {
				if err := q.OnTableColumns(ctx, str); err != nil {
					return err
				}
			}
		default:
			return errs.ProtocolViolationf(op, "unexpected packet %s in_query phase", code)
		}
	}
}

// cancelAndDrain writes Cancel and reads until EndOfStream or
// Exception, per SPEC_FULL §4.7 "Cancellation" and §8 law 8. It
// returns a KindCanceled error either way; the caller distinguishes
// drain success (nil cause) from drain failure (wrapped cause) to
// decide Idle vs Terminated.
func (s *Session) cancelAndDrain(drainCtx context.Context) error {
	const op = "protocol.Session.cancelAndDrain"

	w := wire.NewWriter(s.pool, 8)
	cancelPacket(w)
	if _, err := s.stream.Write(w.Bytes()); err != nil {
		s.pool.Put(w.Buffer())
		return errs.CanceledDrainFailed(op, errs.IO(op, err))
	}
	err := s.stream.Flush()
	s.pool.Put(w.Buffer())
	if err != nil {
		return errs.CanceledDrainFailed(op, errs.IO(op, err))
	}

	type result struct{ err error }
	ch := make(chan result, 1)
	go func() {
		for {
			code, err := readServerCode(s.reader)
			if err != nil {
				ch <- result{err: errs.CanceledDrainFailed(op, err)}
				return
			}

			switch code {
			case serverCodeEndOfStream:
				ch <- result{err: errs.Canceled(op)}
				return
			case serverCodeException:
				if _, err := decodeExceptionChain(s.reader); err != nil {
					ch <- result{err: errs.CanceledDrainFailed(op, err)}
					return
				}
				ch <- result{err: errs.Canceled(op)}
				return
			case serverCodeData, serverCodeTotals, serverCodeExtremes:
				if _, err := readBlock(s.reader, s.compressibleFor(code)); err != nil {
					ch <- result{err: errs.CanceledDrainFailed(op, err)}
					return
				}
			case serverCodeProgress:
				if _, err := decodeProgress(s.reader); err != nil {
					ch <- result{err: errs.CanceledDrainFailed(op, err)}
					return
				}
			case serverCodeProfileInfo:
				if _, err := decodeProfileInfo(s.reader); err != nil {
					ch <- result{err: errs.CanceledDrainFailed(op, err)}
					return
				}
			case serverCodeLog, serverCodeProfileEvents:
				if _, err := readBlock(s.reader, s.compressibleFor(code)); err != nil {
					ch <- result{err: errs.CanceledDrainFailed(op, err)}
					return
				}
			case serverCodeTableColumns:
				if _, err := decodeTableColumns(s.reader); err != nil {
					ch <- result{err: errs.CanceledDrainFailed(op, err)}
					return
				}
			default:
				ch <- result{err: errs.CanceledDrainFailed(op, errs.ProtocolViolationf(op, "unexpected packet %s while draining", code))}
				return
			}
		}
	}()

	select {
	case <-drainCtx.Done():
		s.stream.Close()
		return errs.CanceledDrainFailed(op, errs.Timeout(op, drainCtx.Err()))
	case res := <-ch:
		return res.err
	}
}

// isCancelSuccess reports whether err is the KindCanceled sentinel
// produced by a successful drain (a nil cause), as opposed to one
// produced by CanceledDrainFailed (a non-nil cause).
func isCancelSuccess(err error) bool {
	e, ok := err.(*errs.Error)
	return ok && e.Kind == errs.KindCanceled && e.Err == nil
}

// Do runs q to completion: sends the Query packet and header
// delimiter, optionally streams Input for an INSERT, and dispatches
// the response stream to q's callbacks until EndOfStream or a
// terminal error. If ctx is canceled mid-flight (and no exception has
// already been received) it writes Cancel and drains per SPEC_FULL
// §4.7/§8 law 8 before returning.
func (s *Session) Do(ctx context.Context, q Query) error {
	const op = "protocol.Session.Do"

	if s.phase != Idle {
		return errs.ProtocolViolationf(op, "Do called in phase %s", s.phase)
	}
	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	s.phase = InQuery

	var schemaCh chan *block.Block
	if q.Input != nil {
		schemaCh = make(chan *block.Block, 1)
	}

	first := true
	wrappedOnResult := func(ctx context.Context, b *block.Block) error {
		if schemaCh != nil && first {
			first = false
			select {
			case schemaCh <- b:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
		if q.OnResult != nil {
			return q.OnResult(ctx, b)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	var gotException atomic.Bool

	g.Go(func() error {
		if err := s.sendQuery(gctx, q); err != nil {
			return err
		}
		if err := s.sendInput(gctx, q, schemaCh); err != nil {
			return err
		}
		return s.stream.Flush()
	})

	g.Go(func() error {
		defer close(done)
		return s.receiveLoop(gctx, q, wrappedOnResult, &gotException)
	})

	var drainErr error
	g.Go(func() error {
		<-done
		if ctx.Err() != nil && !gotException.Load() {
			drainCtx, cancel := context.WithTimeout(context.Background(), s.opts.dialTimeout)
			defer cancel()
			drainErr = s.cancelAndDrain(drainCtx)
			return drainErr
		}
		return nil
	})

	werr := g.Wait()
	// Once a drain has run, its outcome (not the receive loop's own
	// ctx error, which the group records first) decides Idle vs
	// Terminated.
	if drainErr != nil {
		werr = drainErr
	}

	switch {
	case werr == nil, errs.Is(werr, errs.KindServerException), isCancelSuccess(werr):
		s.phase = Idle
	default:
		s.phase = Terminated
	}

	return werr
}
