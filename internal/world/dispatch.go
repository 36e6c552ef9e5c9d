package world

import (
	"github.com/lonng/dicebox/internal/dice"
	"github.com/lonng/dicebox/protocol"
)

// dispatch routes one inbound message, on the loop goroutine
func (w *World) dispatch(m *protocol.Message) {
	switch m.Action {
	case protocol.ActionInitComplete:
		if w.reply(m) {
			w.state = initialized
			logger.Info("world initialized")
		}
	case protocol.ActionThemeLoaded:
		w.reply(m)
	case protocol.ActionRollResult:
		w.onRollResult(m)
	case protocol.ActionDieRemoved:
		w.onDieRemoved(m)
	case protocol.ActionRollComplete:
		p := protocol.RollCompletePayload{}
		if len(m.Payload) > 0 {
			if err := m.Decode(&p); err != nil {
				logger.Warn(err)
			}
		}
		w.listener.OnRollComplete(p.Settled)
	default:
		logger.Warnf("ignore message with unknown action %q", m.Action)
	}
}

// reply hands m to the caller waiting on its correlation id
func (w *World) reply(m *protocol.Message) bool {
	resp, ok := w.pending[m.ID]
	if !ok {
		logger.Warnf("drop %s with unknown correlation id %q", m.Action, m.ID)
		return false
	}
	delete(w.pending, m.ID)
	resp <- m
	return true
}

func (w *World) onRollResult(m *protocol.Message) {
	r := protocol.DieResult{}
	if err := m.Decode(&r); err != nil {
		logger.Warn(err)
		return
	}
	d, ok := w.dice[r.ID]
	if !ok {
		logger.Warnf("roll-result for unknown die %d", r.ID)
		return
	}
	if d.Terminal() {
		logger.Debugf("die %d already %s, late roll-result ignored", d.ID, d.State())
		return
	}

	if d.State() == dice.Pending {
		d.Settle()
	}
	if r.Error != "" {
		logger.Warnf("die %d resolved without value: %s", d.ID, r.Error)
		r.Value = nil
	}
	if err := d.Resolve(r.Value); err != nil {
		logger.Error(err)
		return
	}

	result := d.Result()
	result.Error = r.Error
	w.listener.OnRollResult(result)
	w.settleBatch(d.RollID)
}

func (w *World) onDieRemoved(m *protocol.Message) {
	p := protocol.DieRemovedPayload{}
	if err := m.Decode(&p); err != nil {
		logger.Warn(err)
		return
	}
	d, ok := w.dice[p.ID]
	if !ok {
		logger.Warnf("die-removed for unknown die %d", p.ID)
		return
	}
	if d.Terminal() {
		logger.Debugf("die %d already %s, late die-removed ignored", d.ID, d.State())
		return
	}
	d.Remove()
	logger.Infof("die %d of roll %s removed: %s", d.ID, d.RollID, p.Reason)
	w.listener.OnDieRemoved(p)
	w.settleBatch(d.RollID)
}

// settleBatch completes the batch of rollID once all its dice are terminal
func (w *World) settleBatch(rollID string) {
	rw, ok := w.batches[rollID]
	if !ok || !rw.batch.Complete() {
		return
	}
	w.finish(rw)
}

func (w *World) finish(rw *rollWait) {
	delete(w.batches, rw.batch.RollID)
	for _, d := range rw.batch.Dice() {
		delete(w.dice, d.ID)
	}
	rw.done <- rw.batch.Outcome()
}
