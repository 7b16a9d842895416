package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/voicepair/internal/app/orch"
	"github.com/dkeye/voicepair/internal/core"
)

// StatsSource is satisfied by *orch.Orchestrator.
type StatsSource interface {
	Stats() orch.Stats
}

type Handlers struct {
	src      StatsSource
	upstream bool
	started  time.Time
	now      func() time.Time
}

func NewHandlers(src StatsSource, upstreamEnabled bool) *Handlers {
	return &Handlers{
		src:      src,
		upstream: upstreamEnabled,
		started:  time.Now(),
		now:      time.Now,
	}
}

type StatusResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type SessionsResponse struct {
	Count int             `json:"sessions_count"`
	Rooms []core.RoomInfo `json:"rooms"`
}

type ClientsResponse struct {
	Count int `json:"clients_count"`
}

func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/status", h.Status)
	r.GET("/health", h.Health)
	r.GET("/sessions", h.Sessions)
	r.GET("/clients", h.Clients)
}

func (h *Handlers) Status(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, StatusResponse{
		Status:    "ok",
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Uptime:    now.Sub(h.started).Seconds(),
	})
}

func (h *Handlers) Health(c *gin.Context) {
	upstream := "disabled"
	if h.upstream {
		upstream = "enabled"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Checks: map[string]string{
			"websocket": "ok",
			"upstream":  upstream,
		},
	})
}

func (h *Handlers) Sessions(c *gin.Context) {
	st := h.src.Stats()
	rooms := st.Rooms
	if rooms == nil {
		rooms = []core.RoomInfo{}
	}
	c.JSON(http.StatusOK, SessionsResponse{Count: st.Sessions, Rooms: rooms})
}

func (h *Handlers) Clients(c *gin.Context) {
	c.JSON(http.StatusOK, ClientsResponse{Count: h.src.Stats().Clients})
}
