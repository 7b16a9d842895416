package app

import (
	"github.com/dkeye/voicepair/internal/core"
	"github.com/dkeye/voicepair/internal/domain"
)

// DeliveryAction decides what happens when a peer's send buffer is full.
type DeliveryAction int

const (
	DropMessage DeliveryAction = iota
	KickPeer
)

type Policy interface {
	OnBackPressure(room domain.RoomID, peer core.SignalConnection) DeliveryAction
}

// SimplePolicy drops the message; relay delivery is best effort.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, core.SignalConnection) DeliveryAction {
	return DropMessage
}

// StrictPolicy disconnects a peer that cannot keep up.
type StrictPolicy struct{}

func (StrictPolicy) OnBackPressure(domain.RoomID, core.SignalConnection) DeliveryAction {
	return KickPeer
}

// PolicyFor maps the config flag to a Policy.
func PolicyFor(kickSlowPeer bool) Policy {
	if kickSlowPeer {
		return StrictPolicy{}
	}
	return SimplePolicy{}
}
