package domain

import (
	"errors"
	"strings"
)

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

type RoomID string

func ParseRoomID(s string) (RoomID, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return "", ErrRoomIDEmpty
	}
	if len(s) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(s), nil
}

// RoomState is derived from the number of occupants.
type RoomState int

const (
	RoomWaiting RoomState = iota + 1
	RoomPaired
)

func (s RoomState) String() string {
	switch s {
	case RoomWaiting:
		return "waiting"
	case RoomPaired:
		return "paired"
	default:
		return "empty"
	}
}

// MarshalText lets RoomState render as a word in JSON.
func (s RoomState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
