package core

import (
	"time"

	"github.com/dkeye/voicepair/internal/domain"
)

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	ID        domain.RoomID    `json:"room_id"`
	Occupants []domain.UserID  `json:"occupants"`
	State     domain.RoomState `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
}
