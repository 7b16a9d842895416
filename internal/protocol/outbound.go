package protocol

import (
	"encoding/json"

	"github.com/dkeye/voicepair/internal/domain"
)

type Waiting struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	RoomID domain.RoomID `json:"roomId"`
}

// Partner is shared by partner_found and partner_disconnected.
type Partner struct {
	Type      string        `json:"type"`
	UserID    domain.UserID `json:"userId"`
	PartnerID domain.UserID `json:"partnerId"`
	RoomID    domain.RoomID `json:"roomId"`
}

type Pong struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func WaitingForPartner(user domain.UserID, room domain.RoomID) []byte {
	return mustMarshal(Waiting{Type: TypeWaitingForPartner, UserID: user, RoomID: room})
}

func PartnerFound(user, partner domain.UserID, room domain.RoomID) []byte {
	return mustMarshal(Partner{Type: TypePartnerFound, UserID: user, PartnerID: partner, RoomID: room})
}

func PartnerDisconnected(user, partner domain.UserID, room domain.RoomID) []byte {
	return mustMarshal(Partner{Type: TypePartnerDisconnected, UserID: user, PartnerID: partner, RoomID: room})
}

// PongFor echoes the ping timestamp byte-for-byte.
func PongFor(ts json.RawMessage) []byte {
	return mustMarshal(Pong{Type: TypePong, Timestamp: ts})
}

func WarningFor(message string, err error) []byte {
	w := Warning{Type: TypeWarning, Message: message}
	if err != nil {
		w.Error = err.Error()
	}
	return mustMarshal(w)
}

// All outbound types are plain structs of strings, so Marshal cannot fail
// unless a RawMessage is invalid; Decode only hands out valid ones.
func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
