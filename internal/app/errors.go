package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrBackpressure = errors.New("service: dispatch queue is full")
	ErrNotStarted   = errors.New("service: not started")
	ErrStopped      = errors.New("service: stopped")
	ErrNoRelay      = errors.New("service: no relay configured")
)
