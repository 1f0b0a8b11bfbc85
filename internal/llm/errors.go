package llm

import "fmt"

type ErrorKind int

const (
	KindCredential ErrorKind = iota
	KindTransport
	KindStatus
	KindEmpty
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindEmpty:
		return "empty"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error covers every way a generation round trip can fail: missing
// credential, transport failure, non-2xx status, empty candidate list, or a
// response no JSON object could be recovered from.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether retrying the same call could plausibly succeed.
// Parse failures are deterministic for a given response and a missing
// credential will not appear on its own, so neither is worth retrying.
func (e *Error) Transient() bool {
	switch e.Kind {
	case KindTransport, KindStatus, KindEmpty:
		return true
	default:
		return false
	}
}
