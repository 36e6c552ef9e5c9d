package dice

import "github.com/lonng/dicebox/protocol"

// Batch is the set of dice submitted together under one roll id
type Batch struct {
	RollID   string
	Notation string
	Modifier int

	dice    []*Die
	cleared map[int64]bool
}

func NewBatch(rollID string, modifier int, dice []*Die) *Batch {
	return &Batch{
		RollID:   rollID,
		Modifier: modifier,
		dice:     dice,
	}
}

// Dice returns the members in submission order
func (b *Batch) Dice() []*Die {
	out := make([]*Die, len(b.dice))
	copy(out, b.dice)
	return out
}

func (b *Batch) Len() int {
	return len(b.dice)
}

// Complete reports whether every member reached a terminal state
func (b *Batch) Complete() bool {
	for _, d := range b.dice {
		if !d.Terminal() {
			return false
		}
	}
	return true
}

// Cleared reports whether the batch was discarded by a table clear
func (b *Batch) Cleared() bool {
	return b.cleared != nil
}

// Clear removes every member still in flight; their slots report a cleared
// outcome
func (b *Batch) Clear() {
	if b.cleared == nil {
		b.cleared = map[int64]bool{}
	}
	for _, d := range b.dice {
		if d.Terminal() {
			continue
		}
		d.Remove()
		b.cleared[d.ID] = true
	}
}

// Outcome summarises the batch, slots keep submission order
func (b *Batch) Outcome() protocol.RollOutcome {
	out := protocol.RollOutcome{
		RollID:   b.RollID,
		Notation: b.Notation,
		Dice:     make([]protocol.DieResult, 0, len(b.dice)),
		Modifier: b.Modifier,
		Total:    b.Modifier,
		Cleared:  b.Cleared(),
	}
	for _, d := range b.dice {
		r := d.Result()
		if b.cleared[d.ID] {
			r.Outcome = protocol.OutcomeCleared
		}
		if r.Value != nil {
			out.Total += *r.Value
		}
		out.Dice = append(out.Dice, r)
	}
	return out
}
