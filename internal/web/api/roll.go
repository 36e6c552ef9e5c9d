package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lonng/dicebox/db"
	"github.com/lonng/dicebox/internal/whitelist"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/lonng/nex"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "api")

// World is the part of the dice world served over http
type World interface {
	Roll(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error)
	Add(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error)
	Reroll(ctx context.Context, results []protocol.DieResult) (*protocol.RollOutcome, error)
	Remove(dieID int64) error
	Clear() error
}

// RecordFunc stores a finished roll
type RecordFunc func(source string, out *protocol.RollOutcome)

type rollService struct {
	world  World
	record RecordFunc
	notify func(source string)
}

// MakeRollService serves roll, add, reroll, remove and clear. record and
// notify may be nil.
func MakeRollService(w World, record RecordFunc, notify func(source string)) http.Handler {
	s := &rollService{
		world:  w,
		record: record,
		notify: notify,
	}
	if s.record == nil {
		s.record = func(string, *protocol.RollOutcome) {}
	}
	if s.notify == nil {
		s.notify = func(string) {}
	}

	router := mux.NewRouter()
	router.Handle("/v1/roll", nex.Handler(s.roll)).Methods("POST")     // clear the table, then roll
	router.Handle("/v1/add", nex.Handler(s.add)).Methods("POST")       // roll onto the table
	router.Handle("/v1/reroll", nex.Handler(s.reroll)).Methods("POST") // reroll previous results
	router.Handle("/v1/remove", nex.Handler(s.remove)).Methods("POST")
	router.Handle("/v1/clear", nex.Handler(s.clear).Before(whitelistFilter)).Methods("POST")
	return router
}

func whitelistFilter(ctx context.Context, r *http.Request) (context.Context, error) {
	if !whitelist.VerifyIP(r.RemoteAddr) {
		return ctx, errutil.ErrPermissionDenied
	}
	return ctx, nil
}

func (s *rollService) roll(r *http.Request, req *protocol.RollRequest) (*protocol.RollResponse, error) {
	if len(req.Notation) == 0 {
		return nil, errutil.ErrInvalidParameter
	}
	out, err := s.world.Roll(r.Context(), req.Notation)
	if err != nil {
		return nil, err
	}
	s.notify(db.SourceHTTP)
	return s.done(out), nil
}

func (s *rollService) add(r *http.Request, req *protocol.RollRequest) (*protocol.RollResponse, error) {
	if len(req.Notation) == 0 {
		return nil, errutil.ErrInvalidParameter
	}
	out, err := s.world.Add(r.Context(), req.Notation)
	if err != nil {
		return nil, err
	}
	return s.done(out), nil
}

func (s *rollService) reroll(r *http.Request, req *protocol.RerollRequest) (*protocol.RollResponse, error) {
	if len(req.Dice) == 0 {
		return nil, errutil.ErrInvalidParameter
	}
	out, err := s.world.Reroll(r.Context(), req.Dice)
	if err != nil {
		return nil, err
	}
	return s.done(out), nil
}

func (s *rollService) remove(req *protocol.RemoveDieRequest) (*protocol.StringMessage, error) {
	if req.ID <= 0 {
		return nil, errutil.ErrInvalidParameter
	}
	if err := s.world.Remove(req.ID); err != nil {
		return nil, err
	}
	return protocol.SuccessMessage, nil
}

func (s *rollService) clear() (*protocol.StringMessage, error) {
	if err := s.world.Clear(); err != nil {
		return nil, err
	}
	logger.Info("table cleared over http")
	s.notify(db.SourceHTTP)
	return protocol.SuccessMessage, nil
}

func (s *rollService) done(out *protocol.RollOutcome) *protocol.RollResponse {
	s.record(db.SourceHTTP, out)
	return &protocol.RollResponse{RollOutcome: *out}
}
