// Package world drives a physics world over a message channel. A single
// loop goroutine owns all die, batch and correlation state; callers block
// until their correlated response arrives.
package world

import (
	"context"
	"sync"
	"time"

	"github.com/lonng/dicebox/internal/async"
	"github.com/lonng/dicebox/internal/dice"
	"github.com/lonng/dicebox/internal/transport"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultRequestTimeout = 30 * time.Second

var logger = log.WithField("component", "world")

type Config struct {
	// RequestTimeout bounds every wait on the physics world
	RequestTimeout time.Duration
}

type initState int

const (
	uninitialized initState = iota
	initializing
	initialized
)

type rollWait struct {
	batch *dice.Batch
	done  chan protocol.RollOutcome
}

type Option func(*World)

// WithListener receives per-die events. Callbacks run on the loop goroutine
// and must not call back into the world synchronously.
func WithListener(l Listener) Option {
	return func(w *World) {
		w.listener = l
	}
}

type World struct {
	ch       transport.Channel
	cfg      Config
	listener Listener

	calls   chan func()
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// outbound messages, drained by the writer goroutine so the loop
	// never blocks on the channel
	outMu    sync.Mutex
	outbox   []*protocol.Message
	outReady chan struct{}

	themes  *async.Queue
	configs *async.Queue
	resizes *async.Queue

	// owned by the loop goroutine
	state   initState
	pending map[string]chan *protocol.Message
	dice    map[int64]*dice.Die
	batches map[string]*rollWait
	nextDie int64
}

// New starts the dispatch loop over ch, the world takes ownership of ch
func New(ch transport.Channel, cfg Config, opts ...Option) *World {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	w := &World{
		ch:       ch,
		cfg:      cfg,
		listener: NopListener{},
		calls:    make(chan func()),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		outReady: make(chan struct{}, 1),
		themes:   async.NewQueue(),
		configs:  async.NewQueue(async.WithDedupe()),
		resizes:  async.NewQueue(async.WithDedupe()),
		pending:  map[string]chan *protocol.Message{},
		dice:     map[int64]*dice.Die{},
		batches:  map[string]*rollWait{},
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	go w.write()
	return w
}

func (w *World) loop() {
	defer close(w.stopped)
	for {
		select {
		case fn := <-w.calls:
			fn()
		case m := <-w.ch.Inbound():
			w.dispatch(m)
		case <-w.ch.Done():
			logger.Warn("world channel closed")
			return
		case <-w.quit:
			return
		}
	}
}

// Close stops the loop and closes the channel
func (w *World) Close() error {
	var err error
	w.once.Do(func() {
		close(w.quit)
		<-w.stopped
		err = w.ch.Close()
	})
	return err
}

// Done is closed once the loop has stopped
func (w *World) Done() <-chan struct{} {
	return w.stopped
}

// do runs fn on the loop goroutine and returns its error
func (w *World) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case w.calls <- func() { errc <- fn() }:
		return <-errc
	case <-w.stopped:
		return errutil.ErrWorldClosed
	}
}

// Initialized reports whether init-complete was received
func (w *World) Initialized() bool {
	var ok bool
	w.do(func() error {
		ok = w.state == initialized
		return nil
	})
	return ok
}

// send queues a message for the writer, it never blocks on the channel
func (w *World) send(action protocol.Action, id string, payload interface{}) error {
	select {
	case <-w.ch.Done():
		return errutil.ErrTransportClosed
	default:
	}
	m, err := protocol.NewMessage(action, id, payload)
	if err != nil {
		return err
	}

	w.outMu.Lock()
	w.outbox = append(w.outbox, m)
	w.outMu.Unlock()

	select {
	case w.outReady <- struct{}{}:
	default:
	}
	return nil
}

// write sends queued messages in order until the world stops
func (w *World) write() {
	for {
		select {
		case <-w.outReady:
		case <-w.quit:
			return
		case <-w.ch.Done():
			return
		}

		for {
			w.outMu.Lock()
			batch := w.outbox
			w.outbox = nil
			w.outMu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, m := range batch {
				if err := w.ch.Send(m); err != nil {
					logger.Warnf("send %s: %v", m.Action, err)
					return
				}
			}
		}
	}
}

// request registers a correlation id and sends the message, on the loop
// goroutine
func (w *World) request(action protocol.Action, payload interface{}) (string, chan *protocol.Message, error) {
	id := newID()
	resp := make(chan *protocol.Message, 1)
	w.pending[id] = resp
	if err := w.send(action, id, payload); err != nil {
		delete(w.pending, id)
		return "", nil, err
	}
	return id, resp, nil
}

func (w *World) forget(id string) {
	w.do(func() error {
		delete(w.pending, id)
		return nil
	})
}

// wait blocks for the response correlated to id
func (w *World) wait(ctx context.Context, id string, resp chan *protocol.Message) (*protocol.Message, error) {
	timer := time.NewTimer(w.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case m := <-resp:
		return m, nil
	case <-timer.C:
		w.forget(id)
		return nil, errors.Wrapf(errutil.ErrRequestTimeout, "request %s", id)
	case <-ctx.Done():
		w.forget(id)
		return nil, ctx.Err()
	case <-w.stopped:
		return nil, errutil.ErrWorldClosed
	}
}

func (w *World) ready() error {
	if w.state != initialized {
		return errutil.ErrNotInitialized
	}
	return nil
}
