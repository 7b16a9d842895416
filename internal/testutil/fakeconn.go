// Package testutil holds in-memory doubles shared by package tests.
package testutil

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/voicepair/internal/core"
)

// Conn is an in-memory core.SignalConnection that records what it was sent.
type Conn struct {
	id core.ConnID

	mu          sync.Mutex
	state       core.ConnState
	frames      [][]byte
	binary      [][]byte
	full        bool
	closeCode   int
	closeReason string
}

func NewConn() *Conn {
	return &Conn{id: core.NewConnID(), state: core.ConnOpen}
}

func (c *Conn) ID() core.ConnID { return c.id }

func (c *Conn) State() core.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != core.ConnOpen {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, append([]byte(nil), f...))
	return nil
}

func (c *Conn) TrySendBinary(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != core.ConnOpen {
		return core.ErrConnClosed
	}
	c.binary = append(c.binary, append([]byte(nil), f...))
	return nil
}

func (c *Conn) CloseWith(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == core.ConnClosed {
		return
	}
	c.state = core.ConnClosed
	c.closeCode = code
	c.closeReason = reason
}

// SetFull makes TrySend report backpressure.
func (c *Conn) SetFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

// CloseCode returns the code of the first CloseWith call, or 0.
func (c *Conn) CloseCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

func (c *Conn) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func (c *Conn) Binary() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.binary...)
}

// Messages decodes every text frame as a JSON object.
func (c *Conn) Messages() []map[string]any {
	var out []map[string]any
	for _, f := range c.Frames() {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// Types lists the "type" field of every text frame in order.
func (c *Conn) Types() []string {
	var out []string
	for _, m := range c.Messages() {
		t, _ := m["type"].(string)
		out = append(out, t)
	}
	return out
}

// Pipe is an in-memory core.Pipe.
type Pipe struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (p *Pipe) Send(f core.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return core.ErrConnClosed
	}
	p.sent = append(p.sent, append([]byte(nil), f...))
	return nil
}

func (p *Pipe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Pipe) Sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

func (p *Pipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
