package auth

import "fmt"

// Status classifies the outcome of a public engine call. Expected failure
// modes are reported through a Status, never a panic or a bare error.
type Status int

const (
	StatusOK Status = iota
	StatusBadRequest
	StatusNotFound
	StatusAuthRequired
	StatusForbidden
	StatusConfigError
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadRequest:
		return "bad_request"
	case StatusNotFound:
		return "not_found"
	case StatusAuthRequired:
		return "auth_required"
	case StatusForbidden:
		return "forbidden"
	case StatusConfigError:
		return "config_error"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the per-call outcome: a status plus human-readable diagnostics.
// Every public call returns a fresh value scoped to that call only.
type Result struct {
	Status   Status
	Messages []string
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Status == StatusOK }

func okResult() Result { return Result{Status: StatusOK} }

func fail(s Status, format string, args ...any) Result {
	return Result{Status: s, Messages: []string{fmt.Sprintf(format, args...)}}
}
