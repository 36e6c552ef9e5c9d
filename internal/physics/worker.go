// Package physics is the execution context of the dice world. It owns the
// scene, lets dice settle and reports their values back over a channel.
package physics

import (
	"context"
	"time"

	"github.com/lonng/dicebox/internal/dice"
	"github.com/lonng/dicebox/internal/facemap"
	"github.com/lonng/dicebox/internal/resolver"
	"github.com/lonng/dicebox/internal/transport"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "physics")

type body struct {
	die     *dice.Die
	throw   Throw
	settle  *time.Timer
	timeout *time.Timer
}

func (b *body) stop() {
	if b.settle != nil {
		b.settle.Stop()
	}
	if b.timeout != nil {
		b.timeout.Stop()
	}
}

type Option func(*Worker)

// WithSimulator replaces the random simulator
func WithSimulator(f SimulatorFactory) Option {
	return func(w *Worker) {
		w.newSim = f
	}
}

// WithFaceCounts sets the collider face counts, defaults to the face counts
// of the registry
func WithFaceCounts(counts map[protocol.DieType]int) Option {
	return func(w *Worker) {
		w.colliders = NewColliderSet(counts)
	}
}

// WithParams sets the params used before init overrides them
func WithParams(p Params) Option {
	return func(w *Worker) {
		w.params = p
	}
}

// Worker serves one orchestrator. All its state belongs to the Run
// goroutine, timers post back into it through events.
type Worker struct {
	ch        transport.Channel
	registry  *facemap.Registry
	resolver  *resolver.Resolver
	colliders *ColliderSet
	newSim    SimulatorFactory
	sim       Simulator
	params    Params
	options   protocol.WorldOptions
	surface   protocol.Surface

	initialized bool
	themes      map[string]bool
	ports       []string
	bodies      map[int64]*body
	settled     int

	events chan func()
	quit   chan struct{}
}

func NewWorker(ch transport.Channel, registry *facemap.Registry, opts ...Option) *Worker {
	w := &Worker{
		ch:       ch,
		registry: registry,
		newSim:   NewRandomSimulator,
		params:   DefaultParams(),
		themes:   map[string]bool{},
		bodies:   map[int64]*body{},
		events:   make(chan func(), 64),
		quit:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.colliders == nil {
		w.colliders = NewColliderSet(registry.FaceCounts())
	}
	w.resolver = resolver.New(registry, w.colliders)
	return w
}

// Colliders exposes the colliders the worker picks against
func (w *Worker) Colliders() *ColliderSet {
	return w.colliders
}

// Run serves messages until ctx is done or the channel closes
func (w *Worker) Run(ctx context.Context) error {
	defer func() {
		close(w.quit)
		w.reset()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.ch.Done():
			return errutil.ErrTransportClosed
		case fn := <-w.events:
			fn()
		case m := <-w.ch.Inbound():
			w.handle(m)
		}
	}
}

// post runs fn on the Run goroutine after d
func (w *Worker) post(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		select {
		case w.events <- fn:
		case <-w.quit:
		}
	})
}

func (w *Worker) send(action protocol.Action, id string, payload interface{}) {
	m, err := protocol.NewMessage(action, id, payload)
	if err != nil {
		logger.Errorf("build %s: %v", action, err)
		return
	}
	if err := w.ch.Send(m); err != nil {
		logger.Warnf("send %s: %v", action, err)
	}
}

func (w *Worker) handle(m *protocol.Message) {
	if !w.initialized && m.Action != protocol.ActionInit {
		logger.Warnf("drop %s received before init", m.Action)
		return
	}

	var err error
	switch m.Action {
	case protocol.ActionInit:
		err = w.onInit(m)
	case protocol.ActionConnect:
		err = w.onConnect(m)
	case protocol.ActionUpdateConfig:
		err = w.onUpdateConfig(m)
	case protocol.ActionResize:
		err = w.onResize(m)
	case protocol.ActionLoadTheme:
		err = w.onLoadTheme(m)
	case protocol.ActionAddDie:
		err = w.onAddDie(m)
	case protocol.ActionRemoveDie:
		err = w.onRemoveDie(m)
	case protocol.ActionClearDice:
		w.reset()
	default:
		logger.Warnf("unknown action %q", m.Action)
	}
	if err != nil {
		logger.Errorf("%s: %v", m.Action, err)
	}
}

func (w *Worker) onInit(m *protocol.Message) error {
	if w.initialized {
		return errors.Wrap(errutil.ErrAlreadyInitialized, "second init")
	}
	p := &protocol.InitPayload{}
	if err := m.Decode(p); err != nil {
		return err
	}
	params, err := w.params.Merge(p.Options.Physics)
	if err != nil {
		return err
	}

	w.params = params
	w.options = p.Options
	w.surface = p.Surface
	w.sim = w.newSim(params, w.colliders, p.Surface)
	w.initialized = true
	logger.Infof("world initialized on surface %s (%dx%d), model %s",
		p.Surface.ID, p.Surface.Width, p.Surface.Height, w.registry.Name())

	w.send(protocol.ActionInitComplete, m.ID, nil)
	return nil
}

func (w *Worker) onConnect(m *protocol.Message) error {
	p := &protocol.ConnectPayload{}
	if err := m.Decode(p); err != nil {
		return err
	}
	w.ports = append(w.ports, p.Port)
	logger.Infof("secondary channel %s connected", p.Port)
	return nil
}

func (w *Worker) onUpdateConfig(m *protocol.Message) error {
	opts := &protocol.WorldOptions{}
	if err := m.Decode(opts); err != nil {
		return err
	}
	params, err := w.params.Merge(opts.Physics)
	if err != nil {
		return err
	}
	if opts.Theme != "" {
		w.options.Theme = opts.Theme
	}
	if opts.ThemeColor != "" {
		w.options.ThemeColor = opts.ThemeColor
	}
	if opts.Scale != 0 {
		w.options.Scale = opts.Scale
	}
	w.params = params
	w.sim = w.newSim(params, w.colliders, w.surface)
	logger.Debugf("config updated: %+v", params)
	return nil
}

func (w *Worker) onResize(m *protocol.Message) error {
	p := &protocol.ResizePayload{}
	if err := m.Decode(p); err != nil {
		return err
	}
	w.surface.Width, w.surface.Height = p.Width, p.Height
	w.sim = w.newSim(w.params, w.colliders, w.surface)
	return nil
}

func (w *Worker) onLoadTheme(m *protocol.Message) error {
	p := &protocol.ThemePayload{}
	if err := m.Decode(p); err != nil {
		return err
	}
	resp := protocol.ThemeLoadedPayload{Theme: p.Theme}
	if p.Theme == "" {
		resp.Error = "empty theme name"
	} else {
		w.themes[p.Theme] = true
	}
	w.send(protocol.ActionThemeLoaded, m.ID, resp)
	return nil
}

func (w *Worker) onAddDie(m *protocol.Message) error {
	opts := protocol.DieOptions{}
	if err := m.Decode(&opts); err != nil {
		return err
	}
	if _, ok := w.bodies[opts.ID]; ok {
		return errors.Errorf("die %d already on the table", opts.ID)
	}

	d, err := dice.FromOptions(opts)
	if err != nil {
		w.send(protocol.ActionDieRemoved, "", protocol.DieRemovedPayload{
			ID:     opts.ID,
			RollID: opts.RollID,
			Reason: protocol.ReasonUnresolved,
		})
		return err
	}

	b := &body{die: d}
	w.bodies[d.ID] = b

	if _, fixed := d.FixedValue(); fixed {
		w.onSettled(b)
		return nil
	}

	b.throw = w.sim.Throw(d.Type, w.resolver.Direction(d.Type))
	if b.throw.Settles {
		b.settle = w.post(b.throw.After, func() { w.onSettled(b) })
	}
	if timeout := w.params.settleTimeout(); timeout > 0 {
		b.timeout = w.post(timeout, func() { w.onTimeout(b) })
	}
	return nil
}

// current reports whether b is still the body registered for its die
func (w *Worker) current(b *body) bool {
	return w.bodies[b.die.ID] == b
}

func (w *Worker) onSettled(b *body) {
	if !w.current(b) || b.die.Terminal() {
		return
	}
	b.stop()
	delete(w.bodies, b.die.ID)

	if err := b.die.Settle(); err != nil {
		logger.Errorf("settle die %d: %v", b.die.ID, err)
		return
	}

	var result protocol.DieResult
	if _, err := w.resolver.Resolve(b.die, b.throw.Pose); err != nil {
		logger.Warnf("resolve die %d: %v", b.die.ID, err)
		b.die.Resolve(nil)
		result = b.die.Result()
		result.Error = err.Error()
	} else {
		result = b.die.Result()
		w.settled++
	}
	w.send(protocol.ActionRollResult, "", result)
	w.checkComplete()
}

func (w *Worker) onTimeout(b *body) {
	if !w.current(b) || b.die.Terminal() {
		return
	}
	b.stop()
	delete(w.bodies, b.die.ID)
	b.die.Remove()

	logger.Warnf("die %d did not settle within %v", b.die.ID, w.params.settleTimeout())
	w.send(protocol.ActionDieRemoved, "", protocol.DieRemovedPayload{
		ID:     b.die.ID,
		RollID: b.die.RollID,
		Reason: protocol.ReasonTimeout,
	})
	w.checkComplete()
}

func (w *Worker) onRemoveDie(m *protocol.Message) error {
	p := &protocol.RemoveDiePayload{}
	if err := m.Decode(p); err != nil {
		return err
	}
	b, ok := w.bodies[p.ID]
	if !ok {
		logger.Debugf("remove unknown die %d", p.ID)
		return nil
	}
	b.stop()
	b.die.Remove()
	delete(w.bodies, p.ID)
	w.checkComplete()
	return nil
}

func (w *Worker) checkComplete() {
	if len(w.bodies) > 0 {
		return
	}
	w.send(protocol.ActionRollComplete, "", protocol.RollCompletePayload{Settled: w.settled})
	w.settled = 0
}

func (w *Worker) reset() {
	for id, b := range w.bodies {
		b.stop()
		delete(w.bodies, id)
	}
	w.settled = 0
}

// Serve runs a worker for every channel a websocket handler accepts
func Serve(ctx context.Context, registry *facemap.Registry, opts ...Option) func(transport.Channel) {
	return func(ch transport.Channel) {
		w := NewWorker(ch, registry, opts...)
		go func() {
			if err := w.Run(ctx); err != nil && errors.Cause(err) != context.Canceled {
				logger.Infof("world channel closed: %v", err)
			}
			ch.Close()
		}()
	}
}
