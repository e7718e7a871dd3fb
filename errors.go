package rcon

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation is attempted on a client that has not
	// authenticated yet, has been closed, or has failed. Reconnect with [Dial] to recover.
	ErrNotConnected = errors.New("rcon: client is not connected")

	// ErrAuthFailed is returned when the server rejects the supplied password. The connection is
	// closed before this error surfaces.
	ErrAuthFailed = errors.New("rcon: authentication rejected by server")

	// ErrTimeout is returned when the configured deadline elapses while waiting for socket bytes.
	// The connection is closed before this error surfaces; a partially transferred frame cannot be
	// resynchronized.
	ErrTimeout = errors.New("rcon: i/o deadline exceeded")

	// ErrMalformedPacket is returned when a frame fails structural validation: a declared size
	// outside protocol bounds, a size that does not match the buffer, or missing double null
	// termination.
	ErrMalformedPacket = errors.New("rcon: malformed packet")

	// ErrUnexpectedPacket is returned when the server sends a response whose ID matches neither an
	// outstanding command nor its probe. The server replies strictly in order, so an unknown ID
	// means response attribution has been lost and the connection is closed.
	ErrUnexpectedPacket = errors.New("rcon: response packet has unexpected id")
)

// ConnectionError reports a transport-level failure: a refused or reset connection, the peer
// closing the socket mid-frame, or any other socket error. The underlying cause is available via
// [errors.Unwrap].
type ConnectionError struct {
	// Op is the operation that failed, one of "connect", "write" or "read".
	Op string

	// Err is the underlying socket error.
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rcon: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func connErr(op string, err error) error {
	return &ConnectionError{Op: op, Err: err}
}
