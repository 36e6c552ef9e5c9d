package game

import (
	"context"
	"sync/atomic"

	"github.com/lonng/dicebox/internal/async"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/lonng/nano"
	"github.com/lonng/nano/component"
	"github.com/lonng/nano/session"
)

// Routes pushed to clients
const (
	routeDieResult    = "onDieResult"
	routeDieRemoved   = "onDieRemoved"
	routeRollComplete = "onRollComplete"
	routeClear        = "onClear"
	routeBroadcast    = "onBroadcast"
)

const sourceGame = "game"

// Roller is the part of the world the game server drives
type Roller interface {
	Roll(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error)
	Add(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error)
	Clear() error
}

// RecordFunc stores a finished roll
type RecordFunc func(source string, out *protocol.RollOutcome)

type broadcaster interface {
	Broadcast(route string, v interface{}) error
}

// DiceManager serves dice rolls to connected clients and relays every die
// the world reports to all of them
type DiceManager struct {
	component.Base

	group   broadcaster
	members *nano.Group
	world   Roller
	record  RecordFunc
	nextUID int64
}

var defaultManager = NewDiceManager()

func NewDiceManager() *DiceManager {
	g := nano.NewGroup("dice")
	return &DiceManager{
		group:   g,
		members: g,
		record:  func(string, *protocol.RollOutcome) {},
	}
}

// Listener returns the manager the world reports dice to
func Listener() *DiceManager {
	return defaultManager
}

func (m *DiceManager) setup(roller Roller, record RecordFunc) {
	m.world = roller
	if record != nil {
		m.record = record
	}
}

func (m *DiceManager) Init() {
	session.Lifetime.OnClosed(func(s *session.Session) {
		if m.members == nil {
			return
		}
		if err := m.members.Leave(s); err != nil {
			logger.Debugf("leave group: %v", err)
		}
	})
}

// Join binds a client id and subscribes the session to dice pushes
func (m *DiceManager) Join(s *session.Session, _ *protocol.EmptyRequest) error {
	if s.UID() == 0 {
		if err := s.Bind(atomic.AddInt64(&m.nextUID, 1)); err != nil {
			return err
		}
	}
	if err := m.members.Add(s); err != nil {
		logger.Debugf("session %d already joined", s.UID())
	}
	logger.Debugf("client joined, UID=%d", s.UID())
	return s.Response(&protocol.JoinResponse{UID: s.UID()})
}

func (m *DiceManager) Roll(s *session.Session, req *protocol.RollRequest) error {
	return m.serve(s, req, true)
}

func (m *DiceManager) Add(s *session.Session, req *protocol.RollRequest) error {
	return m.serve(s, req, false)
}

func (m *DiceManager) Clear(s *session.Session, _ *protocol.EmptyRequest) error {
	if err := m.clear(); err != nil {
		return s.Response(errorResponse(err))
	}
	return s.Response(protocol.SuccessMessage)
}

// serve answers the request asynchronously, the handler goroutine never
// waits on the physics world
func (m *DiceManager) serve(s *session.Session, req *protocol.RollRequest, clear bool) error {
	mid := s.LastMid()
	async.Run(func() {
		resp, err := m.roll(context.Background(), req.Notation, clear)
		if err != nil {
			logger.Warnf("roll for UID=%d failed: %v", s.UID(), err)
			s.ResponseMID(mid, errorResponse(err))
			return
		}
		s.ResponseMID(mid, resp)
	})
	return nil
}

func (m *DiceManager) roll(ctx context.Context, spec protocol.RollSpec, clear bool) (*protocol.RollResponse, error) {
	if m.world == nil {
		return nil, errutil.ErrNotInitialized
	}
	var (
		out *protocol.RollOutcome
		err error
	)
	if clear {
		out, err = m.world.Roll(ctx, spec)
	} else {
		out, err = m.world.Add(ctx, spec)
	}
	if err != nil {
		return nil, err
	}
	m.record(sourceGame, out)
	return &protocol.RollResponse{RollOutcome: *out}, nil
}

func (m *DiceManager) clear() error {
	if m.world == nil {
		return errutil.ErrNotInitialized
	}
	if err := m.world.Clear(); err != nil {
		return err
	}
	m.push(routeClear, &protocol.ClearNotify{Source: sourceGame})
	return nil
}

func (m *DiceManager) push(route string, v interface{}) {
	if err := m.group.Broadcast(route, v); err != nil {
		logger.Debugf("broadcast %s: %v", route, err)
	}
}

func (m *DiceManager) OnRollResult(result protocol.DieResult) {
	m.push(routeDieResult, &result)
}

func (m *DiceManager) OnRollComplete(settled int) {
	m.push(routeRollComplete, &protocol.RollCompletePayload{Settled: settled})
}

func (m *DiceManager) OnDieRemoved(removed protocol.DieRemovedPayload) {
	m.push(routeDieRemoved, &removed)
}

func errorResponse(err error) *protocol.ErrorResponse {
	return &protocol.ErrorResponse{
		Code:  errutil.Code(err),
		Error: err.Error(),
	}
}
