package game

import (
	"context"
	"sync"
	"testing"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
)

type pushed struct {
	route string
	v     interface{}
}

type recorder struct {
	mu     sync.Mutex
	pushes []pushed
}

func (r *recorder) Broadcast(route string, v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, pushed{route, v})
	return nil
}

type fakeWorld struct {
	rolls, adds, clears int
	err                 error
}

func (f *fakeWorld) outcome(spec protocol.RollSpec) (*protocol.RollOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := 4
	return &protocol.RollOutcome{RollID: "r1", Dice: []protocol.DieResult{{ID: 1, Value: &v}}, Total: 4}, nil
}

func (f *fakeWorld) Roll(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error) {
	f.rolls++
	return f.outcome(spec)
}

func (f *fakeWorld) Add(ctx context.Context, spec protocol.RollSpec) (*protocol.RollOutcome, error) {
	f.adds++
	return f.outcome(spec)
}

func (f *fakeWorld) Clear() error {
	f.clears++
	return f.err
}

func newTestManager(w Roller) (*DiceManager, *recorder, *[]string) {
	rec := &recorder{}
	var sources []string
	m := &DiceManager{group: rec}
	m.setup(w, func(source string, out *protocol.RollOutcome) {
		sources = append(sources, source+":"+out.RollID)
	})
	return m, rec, &sources
}

func TestManagerRoll(t *testing.T) {
	w := &fakeWorld{}
	m, _, sources := newTestManager(w)

	resp, err := m.roll(context.Background(), protocol.Notation("1d6"), true)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Code != errutil.OK || resp.Total != 4 || resp.RollID != "r1" {
		t.Fatalf("response = %+v", resp)
	}
	if _, err := m.roll(context.Background(), protocol.Notation("1d6"), false); err != nil {
		t.Fatal(err)
	}
	if w.rolls != 1 || w.adds != 1 {
		t.Fatalf("rolls %d adds %d", w.rolls, w.adds)
	}
	if len(*sources) != 2 || (*sources)[0] != "game:r1" {
		t.Fatalf("recorded %v", *sources)
	}
}

func TestManagerRollError(t *testing.T) {
	m, _, sources := newTestManager(&fakeWorld{err: errutil.ErrNotInitialized})
	if _, err := m.roll(context.Background(), protocol.Notation("1d6"), true); err != errutil.ErrNotInitialized {
		t.Fatalf("err = %v", err)
	}
	if len(*sources) != 0 {
		t.Fatal("failed roll recorded")
	}
	if resp := errorResponse(errutil.ErrNotInitialized); resp.Code != errutil.Code(errutil.ErrNotInitialized) {
		t.Fatalf("error response = %+v", resp)
	}

	unbound := &DiceManager{group: &recorder{}}
	if _, err := unbound.roll(context.Background(), nil, true); err != errutil.ErrNotInitialized {
		t.Fatalf("unbound manager: %v", err)
	}
}

func TestManagerRelays(t *testing.T) {
	m, rec, _ := newTestManager(&fakeWorld{})
	m.OnRollResult(protocol.DieResult{ID: 3})
	m.OnDieRemoved(protocol.DieRemovedPayload{ID: 4, Reason: protocol.ReasonTimeout})
	m.OnRollComplete(1)
	if err := m.clear(); err != nil {
		t.Fatal(err)
	}

	routes := []string{routeDieResult, routeDieRemoved, routeRollComplete, routeClear}
	if len(rec.pushes) != len(routes) {
		t.Fatalf("pushes = %+v", rec.pushes)
	}
	for i, r := range routes {
		if rec.pushes[i].route != r {
			t.Fatalf("push %d = %s, want %s", i, rec.pushes[i].route, r)
		}
	}
	if d := rec.pushes[0].v.(*protocol.DieResult); d.ID != 3 {
		t.Fatalf("relayed die %d", d.ID)
	}
}
