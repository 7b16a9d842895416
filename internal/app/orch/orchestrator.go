package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/app"
	"github.com/dkeye/voicepair/internal/core"
	"github.com/dkeye/voicepair/internal/domain"
	"github.com/dkeye/voicepair/internal/metrics"
	"github.com/dkeye/voicepair/internal/protocol"
)

// AdmissionLimiter gates handshakes per user.
type AdmissionLimiter interface {
	Allow(uid domain.UserID) bool
}

// Orchestrator drives every connection through handshake, pairing, message
// routing and teardown. It is the single owner of the registry and room table.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Policy   app.Policy
	Limiter  AdmissionLimiter
	Metrics  *metrics.Metrics

	users userLocks
}

func New(reg *app.Registry, rooms *app.RoomManager, policy app.Policy, limiter AdmissionLimiter, m *metrics.Metrics) *Orchestrator {
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	reg.OnSupersede = func(core.SignalConnection) { m.SupersededConn() }
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		Limiter:  limiter,
		Metrics:  m,
	}
}

// Shutdown closes all live connections. Their close handlers still run and
// empty the tables.
func (o *Orchestrator) Shutdown() {
	log.Info().Str("module", "orch").Int("connections", o.Registry.Count()).Int("rooms", o.Rooms.Count()).Msg("shutdown")
	o.Registry.CloseAll(protocol.CloseGoingAway, "server shutting down")
}

// Stats is a point-in-time summary for the HTTP status endpoints.
type Stats struct {
	Clients  int             `json:"clients_count"`
	Sessions int             `json:"sessions_count"`
	Rooms    []core.RoomInfo `json:"rooms"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Clients:  o.Registry.Count(),
		Sessions: o.Registry.Sessions(),
		Rooms:    o.Rooms.List(),
	}
}
