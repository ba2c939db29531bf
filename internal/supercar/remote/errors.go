package remote

import (
	"errors"
	"fmt"
)

// Op is the remote operation that failed.
type Op string

const (
	OpFetch   Op = "fetch"
	OpReplace Op = "replace"
)

var (
	// ErrTransportFailure means the request never produced an HTTP response.
	ErrTransportFailure = errors.New("transport failure")
	// ErrRemoteRejected means the device answered with a non-2xx status.
	ErrRemoteRejected = errors.New("remote rejected")
	// ErrDecodeFailure means the response body is not a JSON object.
	ErrDecodeFailure = errors.New("decode failure")
)

// Error is returned by every failing Client call. Kind is one of the sentinel
// errors above and is matched by errors.Is.
type Error struct {
	Op   Op
	Kind error
	Path string

	// StatusCode is set for ErrRemoteRejected.
	StatusCode int
	// Body is the beginning of a rejected response body, if any.
	Body string

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// outcome is the metrics label of the error kind.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRemoteRejected):
		return "rejected"
	case errors.Is(err, ErrDecodeFailure):
		return "decode"
	default:
		return "transport"
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.StatusCode
	}
	return 0
}
