package core

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is a raw payload as read from or written to the wire.
type Frame []byte

// ConnID is the handle of one live duplex channel.
type ConnID string

func NewConnID() ConnID { return ConnID(uuid.NewString()) }

type ConnState int32

const (
	ConnConnecting ConnState = iota
	ConnOpen
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnConnecting:
		return "connecting"
	case ConnOpen:
		return "open"
	default:
		return "closed"
	}
}

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must close it.
// TrySend and CloseWith never block.
type SignalConnection interface {
	ID() ConnID
	State() ConnState
	TrySend(Frame) error
	TrySendBinary(Frame) error
	// CloseWith starts the close handshake with an application close code.
	// Repeated calls are no-ops.
	CloseWith(code int, reason string)
}
