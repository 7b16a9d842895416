package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/config"
	"github.com/dkeye/voicepair/internal/core"
)

// Client dials one upstream relay session per accepted client.
type Client struct {
	url       string
	header    http.Header
	dialer    *websocket.Dialer
	buffer    int
	writeWait time.Duration
}

func New(cfg config.UpstreamConfig, writeWait time.Duration, buffer int) *Client {
	h := http.Header{}
	if cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		url:    cfg.URL,
		header: h,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.DialTimeout,
		},
		buffer:    buffer,
		writeWait: writeWait,
	}
}

// Open dials the upstream and starts shuttling its frames back to conn.
func (c *Client) Open(ctx context.Context, conn core.SignalConnection, fail func(error)) (core.Pipe, error) {
	ws, resp, err := c.dialer.DialContext(ctx, c.url, c.header.Clone())
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("upstream dial: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("upstream dial: %w", err)
	}
	log.Info().Str("module", "upstream").Str("conn", string(conn.ID())).Msg("upstream session opened")

	p := newPipe(ws, conn, fail, c.buffer, c.writeWait)
	p.start()
	return p, nil
}
