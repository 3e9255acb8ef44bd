package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("dispatch queue full")
	ErrClosed = errors.New("dispatch queue closed")
)
