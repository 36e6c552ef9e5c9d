package world

import "github.com/lonng/dicebox/protocol"

// Listener is told about every die as the physics world reports it
type Listener interface {
	OnRollResult(result protocol.DieResult)
	OnRollComplete(settled int)
	OnDieRemoved(removed protocol.DieRemovedPayload)
}

type NopListener struct{}

func (NopListener) OnRollResult(protocol.DieResult)         {}
func (NopListener) OnRollComplete(int)                      {}
func (NopListener) OnDieRemoved(protocol.DieRemovedPayload) {}

// ListenerFuncs adapts plain functions, nil fields are skipped
type ListenerFuncs struct {
	RollResult   func(protocol.DieResult)
	RollComplete func(int)
	DieRemoved   func(protocol.DieRemovedPayload)
}

func (l ListenerFuncs) OnRollResult(r protocol.DieResult) {
	if l.RollResult != nil {
		l.RollResult(r)
	}
}

func (l ListenerFuncs) OnRollComplete(settled int) {
	if l.RollComplete != nil {
		l.RollComplete(settled)
	}
}

func (l ListenerFuncs) OnDieRemoved(p protocol.DieRemovedPayload) {
	if l.DieRemoved != nil {
		l.DieRemoved(p)
	}
}
