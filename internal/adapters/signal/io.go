package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/core"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	for {
		select {
		case <-ctxDone:
			ctxDone = nil
			c.CloseWith(websocket.CloseGoingAway, "server shutting down")
		case <-c.done:
			return
		case <-c.closing:
			ctl.flush(c)
			deadline := time.Now().Add(ctl.opts.WriteWait)
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
			if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump close frame")
				_ = c.conn.Close()
				return
			}
			// readPump finishes the closing handshake or gives up at the deadline.
			_ = c.conn.SetReadDeadline(deadline)
			return
		case f := <-c.send:
			if err := ctl.write(c, f); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(ctl.opts.WriteWait)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ping")
				_ = c.conn.Close()
				return
			}
		}
	}
}

// flush writes whatever is already queued so a notice sent right before a
// close still reaches the client.
func (ctl *SignalWSController) flush(c *WsSignalConn) {
	for {
		select {
		case f := <-c.send:
			if err := ctl.write(c, f); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (ctl *SignalWSController) write(c *WsSignalConn, f outFrame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(f.kind, f.data)
}

// readPump owns teardown: when the socket stops reading, the session is
// closed in the orchestrator and the network connection released.
func (ctl *SignalWSController) readPump(c *WsSignalConn) {
	defer func() {
		c.markDone()
		ctl.Orch.OnClose(c)
		_ = c.conn.Close()
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				log.Debug().Str("module", "signal").Str("conn", string(c.id)).Int("code", ce.Code).Msg("peer closed")
			} else if c.State() == core.ConnOpen {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		switch kind {
		case websocket.TextMessage:
			ctl.Orch.OnText(c, data)
		case websocket.BinaryMessage:
			ctl.Orch.OnBinary(c, data)
		}
	}
}
