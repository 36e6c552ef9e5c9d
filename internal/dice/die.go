package dice

import (
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
)

// State of a die in its lifecycle. Pending -> Settled -> Resolved, or
// Removed from Pending/Settled. Resolved and Removed are terminal.
type State int

const (
	Pending State = iota
	Settled
	Resolved
	Removed
)

var stateDesc = [...]string{
	Pending:  "pending",
	Settled:  "settled",
	Resolved: "resolved",
	Removed:  "removed",
}

func (s State) String() string {
	if int(s) < len(stateDesc) {
		return stateDesc[s]
	}
	return "unknown"
}

// Options are the per-die attributes shared by every die variant
type Options struct {
	RollID     string
	GroupID    int
	Theme      string
	ThemeColor string
	Value      *int // fixed, non-physical value
}

// Die is one die on the table
type Die struct {
	ID         int64
	Type       protocol.DieType
	RollID     string
	GroupID    int
	Theme      string
	ThemeColor string

	fixed *int
	value *int
	state State
}

func newDie(t protocol.DieType, id int64, opts Options) *Die {
	d := &Die{
		ID:         id,
		Type:       t,
		RollID:     opts.RollID,
		GroupID:    opts.GroupID,
		Theme:      opts.Theme,
		ThemeColor: opts.ThemeColor,
		state:      Pending,
	}
	if opts.Value != nil {
		v := *opts.Value
		d.fixed = &v
	}
	return d
}

func NewD4(id int64, opts Options) *Die   { return newDie(protocol.D4, id, opts) }
func NewD6(id int64, opts Options) *Die   { return newDie(protocol.D6, id, opts) }
func NewD8(id int64, opts Options) *Die   { return newDie(protocol.D8, id, opts) }
func NewD10(id int64, opts Options) *Die  { return newDie(protocol.D10, id, opts) }
func NewD12(id int64, opts Options) *Die  { return newDie(protocol.D12, id, opts) }
func NewD20(id int64, opts Options) *Die  { return newDie(protocol.D20, id, opts) }
func NewD100(id int64, opts Options) *Die { return newDie(protocol.D100, id, opts) }

var constructors = map[protocol.DieType]func(int64, Options) *Die{
	protocol.D4:   NewD4,
	protocol.D6:   NewD6,
	protocol.D8:   NewD8,
	protocol.D10:  NewD10,
	protocol.D12:  NewD12,
	protocol.D20:  NewD20,
	protocol.D100: NewD100,
}

// New creates a die of the given type
func New(t protocol.DieType, id int64, opts Options) (*Die, error) {
	ctor, ok := constructors[t]
	if !ok {
		return nil, errors.Wrapf(errutil.ErrConfig, "unknown die type %q", t)
	}
	return ctor(id, opts), nil
}

// FromOptions rebuilds a die from its addDie payload
func FromOptions(o protocol.DieOptions) (*Die, error) {
	t := o.DieType
	if t == "" {
		var err error
		if t, err = protocol.DieTypeFromSides(o.Sides); err != nil {
			return nil, errors.Wrap(errutil.ErrConfig, err.Error())
		}
	}
	return New(t, o.ID, Options{
		RollID:     o.RollID,
		GroupID:    o.GroupID,
		Theme:      o.Theme,
		ThemeColor: o.ThemeColor,
		Value:      o.Value,
	})
}

func (d *Die) DieType() protocol.DieType {
	return d.Type
}

func (d *Die) State() State {
	return d.state
}

// Terminal reports whether the die is Resolved or Removed
func (d *Die) Terminal() bool {
	return d.state == Resolved || d.state == Removed
}

func (d *Die) Resolved() bool {
	return d.state == Resolved
}

// FixedValue returns the non-physical value the die was created with
func (d *Die) FixedValue() (int, bool) {
	if d.fixed == nil {
		return 0, false
	}
	return *d.fixed, true
}

// Value returns the resolved value, absent until resolved and for dice
// whose resolution failed
func (d *Die) Value() (int, bool) {
	if d.value == nil {
		return 0, false
	}
	return *d.value, true
}

func (d *Die) transition(from []State, to State) error {
	for _, s := range from {
		if d.state == s {
			d.state = to
			return nil
		}
	}
	return errors.Wrapf(errutil.ErrIllegalDieState, "die %d: %s -> %s", d.ID, d.state, to)
}

// Settle marks the die as resting, only valid while Pending
func (d *Die) Settle() error {
	return d.transition([]State{Pending}, Settled)
}

// Resolve records the value of a settled die. A nil value records a failed
// resolution, the die is still terminal.
func (d *Die) Resolve(value *int) error {
	if err := d.transition([]State{Settled}, Resolved); err != nil {
		return err
	}
	if value != nil {
		v := *value
		d.value = &v
	}
	return nil
}

// Remove takes a die that has not reached a terminal state off the table
func (d *Die) Remove() error {
	return d.transition([]State{Pending, Settled}, Removed)
}

// Reroll returns a fresh die of the same kind under a new identity, the
// receiver is left untouched
func (d *Die) Reroll(id int64, rollID string, groupID int) *Die {
	return newDie(d.Type, id, Options{
		RollID:     rollID,
		GroupID:    groupID,
		Theme:      d.Theme,
		ThemeColor: d.ThemeColor,
	})
}

// Options returns the addDie payload describing the die
func (d *Die) Options() protocol.DieOptions {
	o := protocol.DieOptions{
		ID:         d.ID,
		RollID:     d.RollID,
		GroupID:    d.GroupID,
		DieType:    d.Type,
		Sides:      d.Type.Sides(),
		Theme:      d.Theme,
		ThemeColor: d.ThemeColor,
	}
	if d.fixed != nil {
		v := *d.fixed
		o.Value = &v
	}
	return o
}

// Result reports the die as a roll slot
func (d *Die) Result() protocol.DieResult {
	r := protocol.DieResult{
		ID:         d.ID,
		RollID:     d.RollID,
		GroupID:    d.GroupID,
		DieType:    d.Type,
		Sides:      d.Type.Sides(),
		Theme:      d.Theme,
		ThemeColor: d.ThemeColor,
	}
	if d.value != nil {
		v := *d.value
		r.Value = &v
	}
	switch d.state {
	case Resolved:
		r.Outcome = protocol.OutcomeResolved
	case Removed:
		r.Outcome = protocol.OutcomeRemoved
	}
	return r
}
