package service

import "errors"

// Sentinel kinds returned by the service.
var (
	ErrBackpressure = errors.New("assessment queue is full")
	ErrNotStarted   = errors.New("service not started")
)
