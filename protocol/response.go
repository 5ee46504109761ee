package protocol

import (
	"github.com/nativedb/chclient/errs"
	"github.com/nativedb/chclient/wire"
)

// serverCode is a server-to-client packet tag, per SPEC_FULL §4.7.
// Any value not in this set is a ProtocolViolation per §8 law 7;
// readServerCode never fails to decode the tag itself (it is a single
// varuint), only dispatch on an unrecognized value fails.
type serverCode uint64

const (
	serverCodeHello         serverCode = 0
	serverCodeData          serverCode = 1
	serverCodeException     serverCode = 2
	serverCodeProgress      serverCode = 3
	serverCodePong          serverCode = 4
	serverCodeEndOfStream   serverCode = 5
	serverCodeProfileInfo   serverCode = 6
	serverCodeTotals        serverCode = 7
	serverCodeExtremes      serverCode = 8
	serverCodeLog           serverCode = 10
	serverCodeTableColumns  serverCode = 11
	serverCodeProfileEvents serverCode = 14
)

func (c serverCode) String() string {
	switch c {
	case serverCodeHello:
		return "Hello"
	case serverCodeData:
		return "Data"
	case serverCodeException:
		return "Exception"
	case serverCodeProgress:
		return "Progress"
	case serverCodePong:
		return "Pong"
	case serverCodeEndOfStream:
		return "EndOfStream"
	case serverCodeProfileInfo:
		return "ProfileInfo"
	case serverCodeTotals:
		return "Totals"
	case serverCodeExtremes:
		return "Extremes"
	case serverCodeLog:
		return "Log"
	case serverCodeTableColumns:
		return "TableColumns"
	case serverCodeProfileEvents:
		return "ProfileEvents"
	default:
		return "unknown"
	}
}

// readServerCode reads the next packet tag. A clean io.EOF (no bytes
// read at all) propagates unwrapped so the caller can distinguish
// "connection closed between packets" from a malformed stream; see
// wire.Reader.Varuint.
func readServerCode(r *wire.Reader) (serverCode, error) {
	v, err := r.Varuint()
	if err != nil {
		return 0, err
	}

	return serverCode(v), nil
}

// ServerHello is the server's Hello reply: its own identity and the
// protocol revision it supports, per SPEC_FULL §4.7.
type ServerHello struct {
	Name        string
	Major       uint64
	Minor       uint64
	Revision    uint64
	Timezone    string
	DisplayName string
	Patch       uint64
}

func decodeHello(r *wire.Reader) (ServerHello, error) {
	var h ServerHello

	var err error
	if h.Name, err = r.String(); err != nil {
		return h, err
	}
	if h.Major, err = r.Varuint(); err != nil {
		return h, err
	}
	if h.Minor, err = r.Varuint(); err != nil {
		return h, err
	}
	if h.Revision, err = r.Varuint(); err != nil {
		return h, err
	}
	if h.Timezone, err = r.String(); err != nil {
		return h, err
	}
	if h.DisplayName, err = r.String(); err != nil {
		return h, err
	}
	if h.Patch, err = r.Varuint(); err != nil {
		return h, err
	}

	return h, nil
}

// Progress is a progress update, surfaced to the caller as a
// side-channel event per SPEC_FULL §6 "Emitted events".
type Progress struct {
	Rows         uint64
	Bytes        uint64
	TotalRows    uint64
	WrittenRows  uint64
	WrittenBytes uint64
	ElapsedNs    uint64
}

func decodeProgress(r *wire.Reader) (Progress, error) {
	var p Progress

	var err error
	if p.Rows, err = r.Varuint(); err != nil {
		return p, err
	}
	if p.Bytes, err = r.Varuint(); err != nil {
		return p, err
	}
	if p.TotalRows, err = r.Varuint(); err != nil {
		return p, err
	}
	if p.WrittenRows, err = r.Varuint(); err != nil {
		return p, err
	}
	if p.WrittenBytes, err = r.Varuint(); err != nil {
		return p, err
	}
	if p.ElapsedNs, err = r.Varuint(); err != nil {
		return p, err
	}

	return p, nil
}

// ProfileInfo carries the server's execution statistics for a query,
// tag 6 per SPEC_FULL §4.7.
type ProfileInfo struct {
	Rows   uint64
	Blocks uint64
	Bytes  uint64
}

func decodeProfileInfo(r *wire.Reader) (ProfileInfo, error) {
	var p ProfileInfo

	var err error
	if p.Rows, err = r.Varuint(); err != nil {
		return p, err
	}
	if p.Blocks, err = r.Varuint(); err != nil {
		return p, err
	}
	if p.Bytes, err = r.Varuint(); err != nil {
		return p, err
	}

	return p, nil
}

// decodeExceptionChain reads the repeated exception links SPEC_FULL
// §4.7 tag 2 carries: code, name, message, stack, then a bool for
// "has nested exception". The outermost link is first, matching §7
// "the outermost is what the caller sees first".
func decodeExceptionChain(r *wire.Reader) ([]errs.Exception, error) {
	var chain []errs.Exception

	for {
		code, err := r.Int32()
		if err != nil {
			return nil, err
		}
		name, err := r.String()
		if err != nil {
			return nil, err
		}
		message, err := r.String()
		if err != nil {
			return nil, err
		}
		stack, err := r.String()
		if err != nil {
			return nil, err
		}

		chain = append(chain, errs.Exception{Code: code, Name: name, Message: message, Stack: stack})

		hasNext, err := r.Bool()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
	}

	return chain, nil
}

// decodeTableColumns reads tag 11's lone string payload. SPEC_FULL
// does not surface this to the caller; the session drains and
// discards it.
func decodeTableColumns(r *wire.Reader) (string, error) {
	return r.String()
}
