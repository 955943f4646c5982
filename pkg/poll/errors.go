package poll

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed poll.
type ErrorKind string

const (
	// KindNetwork: the request could not be sent or no response arrived
	KindNetwork ErrorKind = "network"
	// KindHTTP: a non-2xx status, or a 2xx envelope with success=false
	KindHTTP ErrorKind = "http"
	// KindParse: the body could not be decoded as an envelope
	KindParse ErrorKind = "parse"
)

var (
	ErrNetwork = errors.New("polling network error")
	ErrHTTP    = errors.New("polling http error")
	ErrParse   = errors.New("polling parse error")

	ErrDuplicateSession = errors.New("polling session already active")
	ErrInvalidSession   = errors.New("polling session requires an id and an endpoint")
	ErrClientClosed     = errors.New("polling client closed")
)

// Error is the failure reported to ErrorHandler and returned by probes.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	case KindNetwork:
		return fmt.Sprintf("network: %s", e.Message)
	default:
		return fmt.Sprintf("parse: %s", e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an *Error against ErrNetwork, ErrHTTP and ErrParse.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrHTTP:
		return e.Kind == KindHTTP
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// KindOf returns the kind of a polling error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
}

func httpError(status int, message string) *Error {
	return &Error{Kind: KindHTTP, StatusCode: status, Message: message}
}

func parseError(status int, err error) *Error {
	return &Error{Kind: KindParse, StatusCode: status, Message: err.Error(), Err: err}
}
