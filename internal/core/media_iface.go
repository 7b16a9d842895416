package core

// Pipe is an already-established duplex channel to an external relay peer.
// The core forwards opaque frames into it and never interprets them.
type Pipe interface {
	Send(Frame) error
	Close()
}
