package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrBackpressure    = errors.New("backpressure")
	ErrUnavailable     = errors.New("service unavailable")
	ErrRelay           = errors.New("relay failed")
)

// kindError tags an operation error with one of the sentinel kinds so
// handlers and tests can match it with errors.Is.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// WrapKind wraps err as kind for op.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}

// NewKind returns an error of kind for op with no underlying cause.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}
