package netsync

import "errors"

var (
	ErrInvalidMessage    = errors.New("invalid message")
	ErrClosed            = errors.New("connection is closed")
	ErrServerRunning     = errors.New("server is already running")
	ErrInvalidServerStep = errors.New("server tick step must be positive")
)
