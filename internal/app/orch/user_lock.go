package orch

import (
	"sync"

	"github.com/dkeye/voicepair/internal/domain"
)

// userLocks serializes handshake and teardown of one identity so a reconnect
// finishes register+join before the superseded connection's teardown runs.
type userLocks struct {
	mu    sync.Mutex
	locks map[domain.UserID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (u *userLocks) lock(uid domain.UserID) (unlock func()) {
	u.mu.Lock()
	if u.locks == nil {
		u.locks = make(map[domain.UserID]*userLock)
	}
	l, ok := u.locks[uid]
	if !ok {
		l = &userLock{}
		u.locks[uid] = l
	}
	l.refs++
	u.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		u.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(u.locks, uid)
		}
		u.mu.Unlock()
	}
}

func (u *userLocks) len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.locks)
}
