package h1x

import "errors"

var (
	// ErrNotInitialized is returned when an operation needs a bound
	// transport and none exists yet.
	ErrNotInitialized = errors.New("h1x: transport not initialized")
	// ErrNotConnected is returned when a request is attempted before a
	// successful Connect.
	ErrNotConnected = errors.New("h1x: not connected")
	// ErrTruncatedBody is returned when the stream yields fewer bytes
	// than a declared Content-Length or chunk size demanded.
	ErrTruncatedBody = errors.New("h1x: truncated body")
)
