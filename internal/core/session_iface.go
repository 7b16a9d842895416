package core

import "github.com/dkeye/voicepair/internal/domain"

// SessionState is the per-connection lifecycle state.
type SessionState int

const (
	StatePendingIdentity SessionState = iota
	StateWaitingForPeer
	StatePaired
	StateRejected
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StatePendingIdentity:
		return "pending_identity"
	case StateWaitingForPeer:
		return "waiting_for_peer"
	case StatePaired:
		return "paired"
	case StateRejected:
		return "rejected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == StateRejected || s == StateClosed
}

// Session associates a connection handle with its identity.
// The transport object never carries these fields itself.
type Session struct {
	Conn     SignalConnection
	User     domain.UserID
	Room     domain.RoomID
	State    SessionState
	Info     *domain.UserInfo
	Upstream Pipe
}
