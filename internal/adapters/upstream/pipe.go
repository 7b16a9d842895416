package upstream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/core"
)

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Pipe implements core.Pipe over an upstream WebSocket.
// Frames from the upstream go back to the owning client untouched.
type Pipe struct {
	ws        WSConn
	client    core.SignalConnection
	send      chan core.Frame
	closed    chan struct{}
	once      sync.Once
	fail      func(error)
	writeWait time.Duration
}

func newPipe(ws WSConn, client core.SignalConnection, fail func(error), buffer int, writeWait time.Duration) *Pipe {
	if writeWait <= 0 {
		writeWait = 5 * time.Second
	}
	return &Pipe{
		ws:        ws,
		client:    client,
		send:      make(chan core.Frame, buffer),
		closed:    make(chan struct{}),
		fail:      fail,
		writeWait: writeWait,
	}
}

func (p *Pipe) start() {
	go p.writeLoop()
	go p.readLoop()
}

func (p *Pipe) Send(f core.Frame) error {
	select {
	case <-p.closed:
		return core.ErrConnClosed
	default:
	}
	select {
	case p.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (p *Pipe) Close() {
	p.once.Do(func() {
		close(p.closed)
		_ = p.ws.Close()
	})
}

func (p *Pipe) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// broken reports a failure that was not caused by Close.
func (p *Pipe) broken(err error) {
	if p.isClosed() {
		return
	}
	p.Close()
	if p.fail != nil {
		p.fail(err)
	}
}

func (p *Pipe) writeLoop() {
	for {
		select {
		case <-p.closed:
			return
		case data := <-p.send:
			_ = p.ws.SetWriteDeadline(time.Now().Add(p.writeWait))
			if err := p.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
				p.broken(err)
				return
			}
		}
	}
}

func (p *Pipe) readLoop() {
	for {
		kind, data, err := p.ws.ReadMessage()
		if err != nil {
			p.broken(err)
			return
		}
		if kind == websocket.TextMessage {
			err = p.client.TrySend(data)
		} else {
			err = p.client.TrySendBinary(data)
		}
		if err != nil {
			log.Debug().Err(err).Str("module", "upstream").Str("conn", string(p.client.ID())).Msg("upstream frame dropped")
		}
	}
}
