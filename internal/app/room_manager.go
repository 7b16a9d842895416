package app

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/core"
	"github.com/dkeye/voicepair/internal/domain"
	"github.com/dkeye/voicepair/internal/protocol"
)

const roomCapacity = 2

type JoinOutcome int

const (
	JoinWaiting JoinOutcome = iota
	JoinPaired
	JoinRejectedFull
	// JoinRejectedDuplicate is reserved; Join never returns it.
	JoinRejectedDuplicate
)

func (o JoinOutcome) String() string {
	switch o {
	case JoinWaiting:
		return "waiting"
	case JoinPaired:
		return "paired"
	case JoinRejectedFull:
		return "rejected_full"
	case JoinRejectedDuplicate:
		return "rejected_duplicate"
	default:
		return "unknown"
	}
}

type JoinResult struct {
	Outcome JoinOutcome
	// Refreshed is set when the user already held a slot and only its
	// connection was swapped. No pairing notification is due.
	Refreshed bool
	PeerUser  domain.UserID
	PeerConn  core.SignalConnection
}

type LeaveOutcome int

const (
	LeaveNotFound LeaveOutcome = iota
	LeaveRoomDeleted
	LeavePeerNotified
)

func (o LeaveOutcome) String() string {
	switch o {
	case LeaveRoomDeleted:
		return "room_deleted"
	case LeavePeerNotified:
		return "peer_notified"
	default:
		return "not_found"
	}
}

type LeaveResult struct {
	Outcome       LeaveOutcome
	RemainingUser domain.UserID
	RemainingConn core.SignalConnection
}

type slot struct {
	user domain.UserID
	conn core.SignalConnection
}

type room struct {
	id        domain.RoomID
	createdAt time.Time

	mu    sync.Mutex
	slots []slot
	// dead is set once the last occupant left and the room was unlinked
	// from the table.
	dead bool
}

func (r *room) indexOf(uid domain.UserID) int {
	for i, s := range r.slots {
		if s.user == uid {
			return i
		}
	}
	return -1
}

func (r *room) state() domain.RoomState {
	switch len(r.slots) {
	case 1:
		return domain.RoomWaiting
	case roomCapacity:
		return domain.RoomPaired
	default:
		return 0
	}
}

func (r *room) info() core.RoomInfo {
	out := core.RoomInfo{
		ID:        r.id,
		State:     r.state(),
		CreatedAt: r.createdAt,
		Occupants: make([]domain.UserID, 0, len(r.slots)),
	}
	for _, s := range r.slots {
		out.Occupants = append(out.Occupants, s.user)
	}
	return out
}

// RoomManager owns the room table. Joins and leaves on one room are
// serialized by that room's mutex; the table mutex only guards the map.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*room
	now   func() time.Time
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms: make(map[domain.RoomID]*room),
		now:   time.Now,
	}
}

func (m *RoomManager) getOrCreate(id domain.RoomID) *room {
	m.mu.RLock()
	r, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return r
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok = m.rooms[id]; ok {
		return r
	}
	r = &room{id: id, createdAt: m.now()}
	m.rooms[id] = r
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return r
}

// Join places conn in room rid under uid. announce, when not nil, runs while
// the room is still locked so notifications cannot interleave with another
// join or leave of the same room.
func (m *RoomManager) Join(rid domain.RoomID, uid domain.UserID, conn core.SignalConnection, announce func(JoinResult)) JoinResult {
	for {
		r := m.getOrCreate(rid)
		r.mu.Lock()
		if r.dead {
			// Lost a race with the last leave; the table no longer holds r.
			r.mu.Unlock()
			continue
		}
		res := r.join(uid, conn)
		if announce != nil {
			announce(res)
		}
		r.mu.Unlock()

		log.Info().
			Str("module", "app.rooms").
			Str("room", string(rid)).
			Str("user", string(uid)).
			Str("outcome", res.Outcome.String()).
			Bool("refreshed", res.Refreshed).
			Msg("join")
		return res
	}
}

func (r *room) join(uid domain.UserID, conn core.SignalConnection) JoinResult {
	if i := r.indexOf(uid); i >= 0 {
		old := r.slots[i].conn
		if old.ID() != conn.ID() {
			r.slots[i].conn = conn
			old.CloseWith(protocol.CloseSuperseded, protocol.ReasonSuperseded)
		}
		res := JoinResult{Outcome: JoinWaiting, Refreshed: true}
		if len(r.slots) == roomCapacity {
			peer := r.slots[1-i]
			res.Outcome = JoinPaired
			res.PeerUser = peer.user
			res.PeerConn = peer.conn
		}
		return res
	}

	if len(r.slots) >= roomCapacity {
		return JoinResult{Outcome: JoinRejectedFull}
	}

	r.slots = append(r.slots, slot{user: uid, conn: conn})
	if len(r.slots) == 1 {
		return JoinResult{Outcome: JoinWaiting}
	}
	peer := r.slots[0]
	return JoinResult{Outcome: JoinPaired, PeerUser: peer.user, PeerConn: peer.conn}
}

// Leave removes uid from room rid. When conn is not nil the slot must still
// hold conn; a superseded connection leaving late gets LeaveNotFound.
// An emptied room is deleted before Leave returns.
func (m *RoomManager) Leave(rid domain.RoomID, uid domain.UserID, conn core.SignalConnection, announce func(LeaveResult)) LeaveResult {
	m.mu.RLock()
	r, ok := m.rooms[rid]
	m.mu.RUnlock()
	if !ok {
		return LeaveResult{Outcome: LeaveNotFound}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead {
		return LeaveResult{Outcome: LeaveNotFound}
	}
	i := r.indexOf(uid)
	if i < 0 || (conn != nil && r.slots[i].conn.ID() != conn.ID()) {
		return LeaveResult{Outcome: LeaveNotFound}
	}
	r.slots = append(r.slots[:i], r.slots[i+1:]...)

	var res LeaveResult
	if len(r.slots) == 0 {
		r.dead = true
		m.mu.Lock()
		if cur, ok := m.rooms[rid]; ok && cur == r {
			delete(m.rooms, rid)
		}
		m.mu.Unlock()
		res = LeaveResult{Outcome: LeaveRoomDeleted}
	} else {
		rest := r.slots[0]
		res = LeaveResult{Outcome: LeavePeerNotified, RemainingUser: rest.user, RemainingConn: rest.conn}
	}
	if announce != nil {
		announce(res)
	}

	log.Info().
		Str("module", "app.rooms").
		Str("room", string(rid)).
		Str("user", string(uid)).
		Str("outcome", res.Outcome.String()).
		Msg("leave")
	return res
}

// PeerOf returns the connection of the other occupant, if any.
func (m *RoomManager) PeerOf(rid domain.RoomID, uid domain.UserID) (core.SignalConnection, bool) {
	m.mu.RLock()
	r, ok := m.rooms[rid]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead || r.indexOf(uid) < 0 {
		return nil, false
	}
	for _, s := range r.slots {
		if s.user != uid {
			return s.conn, true
		}
	}
	return nil, false
}

func (m *RoomManager) Get(rid domain.RoomID) (core.RoomInfo, bool) {
	m.mu.RLock()
	r, ok := m.rooms[rid]
	m.mu.RUnlock()
	if !ok {
		return core.RoomInfo{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead {
		return core.RoomInfo{}, false
	}
	return r.info(), true
}

// List returns a snapshot of all rooms ordered by creation time.
func (m *RoomManager) List() []core.RoomInfo {
	m.mu.RLock()
	rooms := make([]*room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.dead {
			out = append(out, r.info())
		}
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
