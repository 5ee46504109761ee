package protocol

// Phase is one of the four observable states a Session moves through,
// per SPEC_FULL §3.3. A Session owns exactly one in-flight query at a
// time: InQuery can only be entered from Idle, and every exit from
// InQuery lands in either Idle (clean end, drained cancel, drained
// exception) or Terminated (I/O failure, protocol violation, timeout,
// failed drain).
type Phase uint8

const (
	// Unconnected is the phase before Hello has been sent.
	Unconnected Phase = iota
	// Hello is the phase between the client's Hello packet and the
	// server's Hello or Exception reply.
	Hello
	// Idle is the phase between queries: at most one Ping may be
	// in flight, no Query has been sent.
	Idle
	// InQuery is the phase from a Query packet's header block until
	// EndOfStream, a drained Exception, or a drained Cancel.
	InQuery
	// Terminated is a dead session. Every method fails with
	// errs.KindProtocolViolation once reached; the stream is closed.
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Unconnected:
		return "unconnected"
	case Hello:
		return "hello"
	case Idle:
		return "idle"
	case InQuery:
		return "in_query"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
