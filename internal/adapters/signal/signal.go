package signal

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/app/orch"
	"github.com/dkeye/voicepair/internal/core"
)

// Options tune the per-connection pumps.
type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 10 << 20
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 30 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	return o
}

// Upstream opens the optional pass-through pipe for an accepted client.
// fail is called at most once when the pipe breaks on its own.
type Upstream interface {
	Open(ctx context.Context, conn core.SignalConnection, fail func(error)) (core.Pipe, error)
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Upstream Upstream

	opts     Options
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, up Upstream, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Orch:     o,
		Upstream: up,
		opts:     opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type handshakeQuery struct {
	UserID string `form:"userId" binding:"required,max=64"`
	RoomID string `form:"roomId" binding:"required,max=64"`
}

// HandleSignal upgrades the request and runs the handshake. Identity
// failures are reported with a close code on the upgraded socket, not with
// an HTTP status.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	var q handshakeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		log.Warn().Err(err).
			Str("module", "signal").
			Str("user", c.Query("userId")).
			Str("room", c.Query("roomId")).
			Msg("handshake query rejected")
		q = handshakeQuery{}
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	conn.state.Store(int32(core.ConnOpen))
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Str("user", q.UserID).Str("room", q.RoomID).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	st := ctl.Orch.Accept(conn, q.UserID, q.RoomID)
	go ctl.readPump(conn)

	if st == core.StateRejected || ctl.Upstream == nil {
		return
	}
	go ctl.openUpstream(ctx, conn)
}

func (ctl *SignalWSController) openUpstream(ctx context.Context, conn *WsSignalConn) {
	fail := func(err error) { ctl.Orch.OnUpstreamFailure(conn, err) }
	pipe, err := ctl.Upstream.Open(ctx, conn, fail)
	if err != nil {
		fail(err)
		return
	}
	ctl.Orch.AttachUpstream(conn, pipe)
}
