package signal

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/dkeye/voicepair/internal/core"
)

type outFrame struct {
	kind int
	data core.Frame
}

// WsSignalConn is the gorilla/websocket side of core.SignalConnection.
// Frames are queued on a bounded channel drained by writePump.
type WsSignalConn struct {
	id    core.ConnID
	conn  *websocket.Conn
	send  chan outFrame
	state atomic.Int32

	closeOnce   sync.Once
	closing     chan struct{}
	closeCode   int
	closeReason string

	doneOnce sync.Once
	done     chan struct{}
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		id:      core.NewConnID(),
		conn:    ws,
		send:    make(chan outFrame, buffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (c *WsSignalConn) ID() core.ConnID { return c.id }

func (c *WsSignalConn) State() core.ConnState { return core.ConnState(c.state.Load()) }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	return c.enqueue(websocket.TextMessage, f)
}

func (c *WsSignalConn) TrySendBinary(f core.Frame) error {
	return c.enqueue(websocket.BinaryMessage, f)
}

func (c *WsSignalConn) enqueue(kind int, f core.Frame) error {
	if c.State() != core.ConnOpen {
		return core.ErrConnClosed
	}
	select {
	case c.send <- outFrame{kind: kind, data: f}:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// CloseWith marks the connection closed and hands the close frame to the
// write pump.
func (c *WsSignalConn) CloseWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.state.Store(int32(core.ConnClosed))
		close(c.closing)
	})
}

// markDone is called once the read side has ended.
func (c *WsSignalConn) markDone() {
	c.doneOnce.Do(func() {
		c.state.Store(int32(core.ConnClosed))
		close(c.done)
	})
}
