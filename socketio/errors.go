package socketio

import (
	"errors"
	"fmt"
)

// Sentinel causes, kept for errors.Is comparisons the way the teacher's
// socket.socket.go exposes ErrConnectionClosed/ErrInvalidMessage/ErrTimeout
// as flat package errors. Faults wrap ErrInvalidMessage (codec faults)
// and ErrTimeout (handshake timeout) as their Cause, since every fault
// also carries a message and, for codec faults, the offending frame.
// ErrConnectionClosed is returned bare by a Socket's send methods once
// the connection is invalid.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrInvalidMessage   = errors.New("invalid message format")
	ErrTimeout          = errors.New("operation timed out")
)

// Fault is the single fault kind produced by this package: a human
// message plus an optional underlying cause. Faults raised by the
// connection itself are delivered to every registered namespace's
// OnError and followed by cleanup of the connection. A fault built from
// a server ERROR frame goes only to that frame's target callback, and
// cleanup follows only when the frame's data ends with "+0".
type Fault struct {
	Message string
	Cause   error
	// Frame carries the offending wire frame for codec faults, or the
	// data of a server ERROR frame; empty otherwise.
	Frame string
}

func (f *Fault) Error() string {
	if f.Frame != "" {
		return fmt.Sprintf("%s: %q", f.Message, f.Frame)
	}
	if f.Cause != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Cause)
	}
	return f.Message
}

func (f *Fault) Unwrap() error { return f.Cause }

func newFault(message string, cause error) *Fault {
	return &Fault{Message: message, Cause: cause}
}
