package usageapi

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnauthorized ErrorKind = iota + 1
	KindForbidden
	KindNetwork
	KindDecoding
	KindUnexpectedStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNetwork:
		return "network"
	case KindDecoding:
		return "decoding"
	case KindUnexpectedStatus:
		return "unexpected_status"
	default:
		return "unknown"
	}
}

// Error is the only error type the client returns.
type Error struct {
	Kind       ErrorKind
	StatusCode int   // set for KindUnexpectedStatus
	Err        error // cause for KindNetwork and KindDecoding
}

// Error returns the user-facing message.
func (e *Error) Error() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Authentication expired. Run `claude login` to reconnect."
	case KindForbidden:
		return "Access denied. Check your Claude subscription."
	case KindNetwork:
		if e.Err != nil {
			return "Network error: " + e.Err.Error()
		}
		return "Network error."
	case KindDecoding:
		return "Unexpected API response format."
	case KindUnexpectedStatus:
		return fmt.Sprintf("API returned status %d.", e.StatusCode)
	default:
		return "Unknown API error."
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, ErrUnauthorized)
// works for any unauthorized failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
)

// KindOf returns the kind of a client error, or 0 for anything else.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}
