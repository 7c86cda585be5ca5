package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("request rejected")
	ErrProtocol     = errors.New("unexpected response")
)

// Kind discriminates transport failures.
type Kind int

const (
	// KindUnavailable: network failure, 5xx, or local rate limiting.
	KindUnavailable Kind = iota + 1
	// KindUnauthorized: 401/403.
	KindUnauthorized
	// KindRejected: the server understood the request and refused it
	// (4xx or success:false).
	KindRejected
	// KindProtocol: the response could not be interpreted.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindUnauthorized:
		return "unauthorized"
	case KindRejected:
		return "rejected"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by RESTClient operations.
// Message holds the server-supplied text when there is one.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps kinds to the package sentinels so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrRejected:
		return e.Kind == KindRejected
	case ErrProtocol:
		return e.Kind == KindProtocol
	}
	return false
}

// ServerMessage returns the server-supplied message carried by err, or "".
func ServerMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// MessageOr returns the server-supplied message of err or fallback.
func MessageOr(err error, fallback string) string {
	if msg := ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}
