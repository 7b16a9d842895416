package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/core"
	"github.com/dkeye/voicepair/internal/domain"
	"github.com/dkeye/voicepair/internal/protocol"
)

// Registry tracks the single authoritative connection per user and the
// association record of every live connection.
type Registry struct {
	mu       sync.RWMutex
	users    map[domain.UserID]core.SignalConnection
	sessions map[core.ConnID]*core.Session

	// OnSupersede is called for every connection evicted by Register.
	OnSupersede func(old core.SignalConnection)
}

func NewRegistry() *Registry {
	return &Registry{
		users:    make(map[domain.UserID]core.SignalConnection),
		sessions: make(map[core.ConnID]*core.Session),
	}
}

// Register maps uid to conn. A different connection previously mapped to uid
// is closed as superseded.
func (r *Registry) Register(uid domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	old, ok := r.users[uid]
	r.users[uid] = conn
	r.mu.Unlock()

	if ok && old.ID() != conn.ID() {
		log.Info().
			Str("module", "app.registry").
			Str("user", string(uid)).
			Str("old_conn", string(old.ID())).
			Str("conn", string(conn.ID())).
			Msg("superseding connection")
		old.CloseWith(protocol.CloseSuperseded, protocol.ReasonSuperseded)
		if r.OnSupersede != nil {
			r.OnSupersede(old)
		}
	}
}

// Unregister removes the mapping only while it still points at conn, so a late
// close of a superseded connection cannot evict its replacement.
func (r *Registry) Unregister(uid domain.UserID, conn core.SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[uid]
	if !ok || cur.ID() != conn.ID() {
		return false
	}
	delete(r.users, uid)
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(conn.ID())).Msg("unregistered")
	return true
}

func (r *Registry) Lookup(uid domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[uid]
	return c, ok
}

// Bind creates the association record for conn.
func (r *Registry) Bind(conn core.SignalConnection, uid domain.UserID, rid domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conn.ID()] = &core.Session{
		Conn:  conn,
		User:  uid,
		Room:  rid,
		State: core.StatePendingIdentity,
	}
	log.Debug().Str("module", "app.registry").Str("conn", string(conn.ID())).Str("user", string(uid)).Str("room", string(rid)).Msg("bound session")
}

// Session returns a copy of the association record.
func (r *Registry) Session(id core.ConnID) (core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return core.Session{}, false
	}
	return *s, true
}

// SetState moves a session to st. Terminal states are never left.
func (r *Registry) SetState(id core.ConnID, st core.SessionState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.State.Terminal() {
		return false
	}
	s.State = st
	return true
}

func (r *Registry) SetInfo(id core.ConnID, info *domain.UserInfo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.Info = info
	return true
}

// AttachUpstream stores p on the session. It fails if the session is gone.
func (r *Registry) AttachUpstream(id core.ConnID, p core.Pipe) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.State.Terminal() {
		return false
	}
	s.Upstream = p
	return true
}

// Unbind drops the association record and returns its final value.
func (r *Registry) Unbind(id core.ConnID) (core.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return core.Session{}, false
	}
	delete(r.sessions, id)
	return *s, true
}

// Count returns the number of users with a live connection.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Sessions returns the number of association records.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every registered connection with code.
func (r *Registry) CloseAll(code int, reason string) {
	r.mu.RLock()
	conns := make([]core.SignalConnection, 0, len(r.users))
	for _, c := range r.users {
		conns = append(conns, c)
	}
	r.mu.RUnlock()
	for _, c := range conns {
		c.CloseWith(code, reason)
	}
	log.Info().Str("module", "app.registry").Int("count", len(conns)).Msg("closed all connections")
}
