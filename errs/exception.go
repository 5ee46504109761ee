package errs

import (
	"strconv"
	"strings"
)

// Exception is one link in a server-sent exception chain (§4.7 tag 2,
// §7 KindServerException). The server always sends the full cause
// chain outermost-first; [ServerError.Error] renders it that way too.
type Exception struct {
	Code    int32
	Name    string
	Message string
	Stack   string
}

// ServerError wraps a complete exception chain as received from the
// server. It classifies as KindServerException, which is explicitly
// non-terminal: the owning session returns to Idle once the chain has
// been fully drained.
type ServerError struct {
	Chain []Exception
}

func (e *ServerError) Error() string {
	var b strings.Builder
	for i, ex := range e.Chain {
		if i > 0 {
			b.WriteString("\ncaused by: ")
		}

		b.WriteString(ex.Name)
		b.WriteString(" (code ")
		b.WriteString(strconv.Itoa(int(ex.Code)))
		b.WriteString("): ")
		b.WriteString(ex.Message)
	}

	return b.String()
}

// Outermost returns the first exception in the chain, the one the
// caller sees first per §7 "the outermost is what the caller sees
// first". Ok is false for an empty chain.
func (e *ServerError) Outermost() (Exception, bool) {
	if len(e.Chain) == 0 {
		return Exception{}, false
	}

	return e.Chain[0], true
}

// AsServerException wraps chain as the single *Error the rest of the
// tree branches on via KindOf.
func AsServerException(op string, chain []Exception) *Error {
	return New(KindServerException, op, &ServerError{Chain: chain})
}
