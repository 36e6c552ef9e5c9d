package world

import (
	"context"
	"time"

	"github.com/lonng/dicebox/internal/async"
	"github.com/lonng/dicebox/internal/dice"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

func newID() string {
	return uuid.New()
}

// Init hands the surface to the physics world and waits for init-complete.
// It may only be called once.
func (w *World) Init(ctx context.Context, surface protocol.Surface, opts protocol.WorldOptions) error {
	var (
		id   string
		resp chan *protocol.Message
	)
	err := w.do(func() error {
		if w.state != uninitialized {
			return errutil.ErrAlreadyInitialized
		}
		var err error
		id, resp, err = w.request(protocol.ActionInit, protocol.InitPayload{Surface: surface, Options: opts})
		if err != nil {
			return err
		}
		w.state = initializing
		return nil
	})
	if err != nil {
		return err
	}

	_, err = w.wait(ctx, id, resp)
	if err == nil || errutil.Is(err, errutil.ErrWorldClosed) {
		return err
	}

	// an abandoned init may be retried, its late ack is dropped
	w.do(func() error {
		if w.state == initialized {
			err = nil
			return nil
		}
		w.state = uninitialized
		return nil
	})
	return err
}

// LoadTheme asks the physics world to load a theme. Loads run one at a time
// in call order.
func (w *World) LoadTheme(ctx context.Context, theme string) error {
	if err := w.do(w.ready); err != nil {
		return err
	}

	errc := make(chan error, 1)
	w.themes.Push(func(context.Context) (interface{}, error) {
		if err := ctx.Err(); err != nil {
			errc <- err
			return theme, err
		}
		err := w.loadTheme(ctx, theme)
		errc <- err
		return theme, err
	})

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *World) loadTheme(ctx context.Context, theme string) error {
	var (
		id   string
		resp chan *protocol.Message
	)
	err := w.do(func() error {
		var err error
		id, resp, err = w.request(protocol.ActionLoadTheme, protocol.ThemePayload{Theme: theme})
		return err
	})
	if err != nil {
		return err
	}

	m, err := w.wait(ctx, id, resp)
	if err != nil {
		return err
	}
	p := protocol.ThemeLoadedPayload{}
	if len(m.Payload) > 0 {
		if err := m.Decode(&p); err != nil {
			return err
		}
	}
	if p.Error != "" {
		return errors.Wrapf(errutil.ErrConfig, "theme %s: %s", theme, p.Error)
	}
	logger.Infof("theme %s loaded", theme)
	return nil
}

// Add puts the dice of spec on the table next to the ones already rolling
// and waits until every one of them is resolved or removed
func (w *World) Add(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error) {
	n, err := dice.Normalize(spec)
	if err != nil {
		return nil, err
	}
	return w.submit(ctx, n, false)
}

// Roll clears the table, then adds spec. Both happen in one step so
// concurrent rolls never share the table.
func (w *World) Roll(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error) {
	n, err := dice.Normalize(spec)
	if err != nil {
		return nil, err
	}
	return w.submit(ctx, n, true)
}

// Reroll removes the given dice and rolls fresh dice of the same kinds as
// one new batch
func (w *World) Reroll(ctx context.Context, results []protocol.DieResult) (*protocol.RollOutcome, error) {
	if len(results) == 0 {
		return nil, errors.Wrap(errutil.ErrIllegalNotation, "nothing to reroll")
	}

	n := &dice.Normalized{}
	for _, r := range results {
		t := r.DieType
		if t == "" {
			var err error
			if t, err = protocol.DieTypeFromSides(r.Sides); err != nil {
				return nil, errors.Wrap(errutil.ErrIllegalNotation, err.Error())
			}
		}
		if !t.Valid() {
			return nil, errors.Wrapf(errutil.ErrIllegalNotation, "die type %q", t)
		}
		n.Dice = append(n.Dice, dice.Spec{
			Type:       t,
			GroupID:    r.GroupID,
			Theme:      r.Theme,
			ThemeColor: r.ThemeColor,
		})
	}
	n.Notation = "reroll"

	err := w.do(func() error {
		if err := w.ready(); err != nil {
			return err
		}
		for _, r := range results {
			if d, ok := w.dice[r.ID]; ok && !d.Terminal() {
				w.removeDie(d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w.submit(ctx, n, false)
}

func (w *World) submit(ctx context.Context, n *dice.Normalized, clearFirst bool) (*protocol.RollOutcome, error) {
	var rw *rollWait
	err := w.do(func() error {
		if err := w.ready(); err != nil {
			return err
		}
		if clearFirst {
			if err := w.clearTable(); err != nil {
				return err
			}
		}

		rollID := newID()
		members := make([]*dice.Die, 0, len(n.Dice))
		for _, s := range n.Dice {
			w.nextDie++
			d, err := dice.New(s.Type, w.nextDie, dice.Options{
				RollID:     rollID,
				GroupID:    s.GroupID,
				Theme:      s.Theme,
				ThemeColor: s.ThemeColor,
				Value:      s.Value,
			})
			if err != nil {
				return err
			}
			members = append(members, d)
		}

		batch := dice.NewBatch(rollID, n.Modifier, members)
		batch.Notation = n.Notation
		rw = &rollWait{batch: batch, done: make(chan protocol.RollOutcome, 1)}
		w.batches[rollID] = rw
		for _, d := range members {
			w.dice[d.ID] = d
		}
		for _, d := range members {
			if err := w.send(protocol.ActionAddDie, "", d.Options()); err != nil {
				w.drop(rw)
				return err
			}
		}
		logger.Debugf("roll %s: %d dice (%s)", rollID, len(members), n.Notation)
		return nil
	})
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(w.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case out := <-rw.done:
		return &out, nil
	case <-timer.C:
		w.do(func() error {
			w.drop(rw)
			return nil
		})
		return nil, errors.Wrapf(errutil.ErrRequestTimeout, "roll %s", rw.batch.RollID)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.stopped:
		return nil, errutil.ErrWorldClosed
	}
}

// drop forgets a batch without reporting it
func (w *World) drop(rw *rollWait) {
	delete(w.batches, rw.batch.RollID)
	for _, d := range rw.batch.Dice() {
		delete(w.dice, d.ID)
	}
}

// Remove takes a die off the table, its slot reports no value
func (w *World) Remove(dieID int64) error {
	return w.do(func() error {
		if err := w.ready(); err != nil {
			return err
		}
		d, ok := w.dice[dieID]
		if !ok {
			return errors.Wrapf(errutil.ErrDieNotFound, "die %d", dieID)
		}
		if d.Terminal() {
			return nil
		}
		return w.removeDie(d)
	})
}

func (w *World) removeDie(d *dice.Die) error {
	d.Remove()
	err := w.send(protocol.ActionRemoveDie, "", protocol.RemoveDiePayload{ID: d.ID, RollID: d.RollID})
	w.settleBatch(d.RollID)
	return err
}

// Clear empties the table. Every roll still waiting completes with a
// cleared outcome.
func (w *World) Clear() error {
	return w.do(func() error {
		if err := w.ready(); err != nil {
			return err
		}
		return w.clearTable()
	})
}

func (w *World) clearTable() error {
	for _, rw := range w.batches {
		rw.batch.Clear()
		w.finish(rw)
	}
	w.dice = map[int64]*dice.Die{}
	return w.send(protocol.ActionClearDice, "", nil)
}

// UpdateConfig forwards new world options, only the latest of a burst of
// updates is sent
func (w *World) UpdateConfig(ctx context.Context, opts protocol.WorldOptions) error {
	return w.dedupe(ctx, w.configs, protocol.ActionUpdateConfig, opts)
}

// Resize forwards the new surface size, only the latest of a burst of
// resizes is sent
func (w *World) Resize(ctx context.Context, width, height int) error {
	return w.dedupe(ctx, w.resizes, protocol.ActionResize, protocol.ResizePayload{Width: width, Height: height})
}

func (w *World) dedupe(ctx context.Context, q *async.Queue, action protocol.Action, payload interface{}) error {
	if err := w.do(w.ready); err != nil {
		return err
	}

	d := q.Push(func(context.Context) (interface{}, error) {
		err := w.do(func() error {
			return w.send(action, "", payload)
		})
		return action, err
	})
	results, err := d.Wait(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// Connect forwards the id of a secondary channel to the physics world
func (w *World) Connect(port string) error {
	return w.do(func() error {
		if err := w.ready(); err != nil {
			return err
		}
		return w.send(protocol.ActionConnect, "", protocol.ConnectPayload{Port: port})
	})
}
