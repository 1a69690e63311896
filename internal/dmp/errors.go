package dmp

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameOversize indicates the receive buffer grew past the frame
	// size bound without a terminator arriving.
	ErrFrameOversize = errors.New("frame oversize: no terminator within bound")

	// ErrNotConnected indicates the session has no live connection.
	ErrNotConnected = errors.New("not connected to panel")

	// ErrAuthFailed indicates the panel rejected the remote key. The
	// session is terminal and a fresh connect is required.
	ErrAuthFailed = errors.New("panel rejected authentication")

	// ErrCommandTimeout indicates no correlated reply arrived within the
	// command's timeout. Only the command fails; the session stays usable.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrPaginationOverrun indicates a paged query exceeded the page
	// bound without the panel signalling completion.
	ErrPaginationOverrun = errors.New("pagination overrun: page bound exceeded")

	// ErrConnectionLost indicates transport-level loss. The session is
	// terminal and a fresh connect is required.
	ErrConnectionLost = errors.New("connection to panel lost")

	// ErrSessionClosed indicates the session was closed while commands
	// were queued or in flight.
	ErrSessionClosed = errors.New("session closed")
)

// ClassificationError reports a malformed mandatory fixed-width field
// inside an otherwise framed message. Unknown categories and type codes
// are not errors; they degrade to Unknown values instead.
type ClassificationError struct {
	Field string
	Value string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("malformed %s field %q", e.Field, e.Value)
}
