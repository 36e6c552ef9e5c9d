package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lonng/dicebox/internal/transport"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
)

type peer struct {
	t  *testing.T
	ch transport.Channel
}

func (p *peer) expect(action protocol.Action) *protocol.Message {
	p.t.Helper()
	select {
	case m := <-p.ch.Inbound():
		if m.Action != action {
			p.t.Fatalf("want %s, got %s", action, m.Action)
		}
		return m
	case <-time.After(5 * time.Second):
		p.t.Fatalf("timeout waiting for %s", action)
	}
	return nil
}

func (p *peer) send(action protocol.Action, id string, payload interface{}) {
	p.t.Helper()
	m, err := protocol.NewMessage(action, id, payload)
	if err != nil {
		p.t.Fatal(err)
	}
	if err := p.ch.Send(m); err != nil {
		p.t.Fatal(err)
	}
}

func (p *peer) addDie() protocol.DieOptions {
	p.t.Helper()
	var o protocol.DieOptions
	if err := p.expect(protocol.ActionAddDie).Decode(&o); err != nil {
		p.t.Fatal(err)
	}
	return o
}

func (p *peer) resolve(o protocol.DieOptions, value int) {
	p.send(protocol.ActionRollResult, "", protocol.DieResult{ID: o.ID, RollID: o.RollID, DieType: o.DieType, Value: &value})
}

func newWorld(t *testing.T, cfg Config, opts ...Option) (*World, *peer) {
	a, b := transport.Pipe()
	w := New(a, cfg, opts...)
	t.Cleanup(func() { w.Close() })
	return w, &peer{t: t, ch: b}
}

func initWorld(t *testing.T, cfg Config, opts ...Option) (*World, *peer) {
	w, p := newWorld(t, cfg, opts...)
	errc := make(chan error, 1)
	go func() {
		errc <- w.Init(context.Background(), protocol.Surface{ID: "canvas", Width: 800, Height: 600}, protocol.WorldOptions{Theme: "default"})
	}()
	m := p.expect(protocol.ActionInit)
	var payload protocol.InitPayload
	m.Decode(&payload)
	if payload.Surface.ID != "canvas" {
		t.Fatalf("init payload = %+v", payload)
	}
	p.send(protocol.ActionInitComplete, m.ID, nil)
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	return w, p
}

type rollReply struct {
	out *protocol.RollOutcome
	err error
}

func goRoll(fn func() (*protocol.RollOutcome, error)) chan rollReply {
	c := make(chan rollReply, 1)
	go func() {
		out, err := fn()
		c <- rollReply{out, err}
	}()
	return c
}

func await(t *testing.T, c chan rollReply) *protocol.RollOutcome {
	t.Helper()
	select {
	case r := <-c:
		if r.err != nil {
			t.Fatal(r.err)
		}
		return r.out
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for roll")
	}
	return nil
}

func TestInitOnce(t *testing.T) {
	w, _ := initWorld(t, Config{})
	if !w.Initialized() {
		t.Fatal("world not initialized")
	}
	err := w.Init(context.Background(), protocol.Surface{}, protocol.WorldOptions{})
	if err != errutil.ErrAlreadyInitialized {
		t.Fatalf("second init: %v", err)
	}
}

func TestInitRetryAfterTimeout(t *testing.T) {
	w, p := newWorld(t, Config{RequestTimeout: 50 * time.Millisecond})
	surface := protocol.Surface{ID: "canvas"}

	err := w.Init(context.Background(), surface, protocol.WorldOptions{})
	if !errutil.Is(err, errutil.ErrRequestTimeout) {
		t.Fatalf("first init: %v", err)
	}
	late := p.expect(protocol.ActionInit)

	// the late ack belongs to the abandoned request
	p.send(protocol.ActionInitComplete, late.ID, nil)
	if _, err := w.Add(context.Background(), protocol.Notation("1d6")); err != errutil.ErrNotInitialized {
		t.Fatalf("add after late ack: %v", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- w.Init(context.Background(), surface, protocol.WorldOptions{}) }()
	retry := p.expect(protocol.ActionInit)
	if retry.ID == late.ID {
		t.Fatal("retry reused the correlation id")
	}
	p.send(protocol.ActionInitComplete, retry.ID, nil)
	if err := <-errc; err != nil {
		t.Fatalf("retry init: %v", err)
	}
	if !w.Initialized() {
		t.Fatal("world not initialized after retry")
	}
}

func TestInitRetryAfterCancel(t *testing.T) {
	w, p := newWorld(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- w.Init(ctx, protocol.Surface{}, protocol.WorldOptions{}) }()
	p.expect(protocol.ActionInit)
	cancel()
	if err := <-errc; err != context.Canceled {
		t.Fatalf("cancelled init: %v", err)
	}

	go func() { errc <- w.Init(context.Background(), protocol.Surface{}, protocol.WorldOptions{}) }()
	m := p.expect(protocol.ActionInit)
	p.send(protocol.ActionInitComplete, m.ID, nil)
	if err := <-errc; err != nil {
		t.Fatalf("retry init: %v", err)
	}
}

func TestRejectBeforeInit(t *testing.T) {
	w, _ := newWorld(t, Config{})
	ctx := context.Background()

	if _, err := w.Roll(ctx, protocol.Notation("1d20")); err != errutil.ErrNotInitialized {
		t.Fatalf("roll: %v", err)
	}
	if err := w.LoadTheme(ctx, "default"); err != errutil.ErrNotInitialized {
		t.Fatalf("load theme: %v", err)
	}
	if err := w.Clear(); err != errutil.ErrNotInitialized {
		t.Fatalf("clear: %v", err)
	}
	if err := w.Resize(ctx, 1, 1); err != errutil.ErrNotInitialized {
		t.Fatalf("resize: %v", err)
	}
}

func TestThemeCorrelation(t *testing.T) {
	w, p := initWorld(t, Config{})

	errs := make(chan error, 2)
	go func() { errs <- w.LoadTheme(context.Background(), "a") }()
	first := p.expect(protocol.ActionLoadTheme)
	go func() { errs <- w.LoadTheme(context.Background(), "b") }()

	// unknown ids are dropped, the waiter keeps waiting
	p.send(protocol.ActionThemeLoaded, "bogus", protocol.ThemeLoadedPayload{Theme: "a"})
	select {
	case err := <-errs:
		t.Fatalf("load returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	p.send(protocol.ActionThemeLoaded, first.ID, protocol.ThemeLoadedPayload{Theme: "a"})
	if err := <-errs; err != nil {
		t.Fatal(err)
	}

	second := p.expect(protocol.ActionLoadTheme)
	var payload protocol.ThemePayload
	second.Decode(&payload)
	if payload.Theme != "b" || second.ID == first.ID {
		t.Fatalf("second load = %+v %s", payload, second.ID)
	}
	p.send(protocol.ActionThemeLoaded, second.ID, protocol.ThemeLoadedPayload{Theme: "b", Error: "missing"})
	if err := <-errs; !errutil.Is(err, errutil.ErrConfig) {
		t.Fatalf("failed load: %v", err)
	}
}

func TestRollOrder(t *testing.T) {
	w, p := initWorld(t, Config{})
	reply := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Roll(context.Background(), protocol.Notation("2d6+1"))
	})

	p.expect(protocol.ActionClearDice)
	d1, d2 := p.addDie(), p.addDie()
	if d1.RollID != d2.RollID || d1.ID == d2.ID {
		t.Fatalf("dice %+v %+v", d1, d2)
	}
	p.resolve(d2, 5)
	p.resolve(d1, 2)

	out := await(t, reply)
	if out.RollID != d1.RollID || len(out.Dice) != 2 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Dice[0].ID != d1.ID || *out.Dice[0].Value != 2 || *out.Dice[1].Value != 5 {
		t.Fatalf("slots out of submission order: %+v", out.Dice)
	}
	if out.Total != 8 || out.Modifier != 1 {
		t.Fatalf("total = %d modifier = %d", out.Total, out.Modifier)
	}
}

func TestRemovedSlot(t *testing.T) {
	w, p := initWorld(t, Config{})
	reply := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Add(context.Background(), protocol.Notation("3d6"))
	})

	d1, d2, d3 := p.addDie(), p.addDie(), p.addDie()
	p.resolve(d1, 1)
	p.send(protocol.ActionDieRemoved, "", protocol.DieRemovedPayload{ID: d2.ID, RollID: d2.RollID, Reason: protocol.ReasonTimeout})
	p.resolve(d2, 6) // late, first terminal transition wins
	p.resolve(d3, 3)

	out := await(t, reply)
	if out.Dice[1].Value != nil || out.Dice[1].Outcome != protocol.OutcomeRemoved {
		t.Fatalf("removed slot = %+v", out.Dice[1])
	}
	if out.Total != 4 {
		t.Fatalf("total = %d", out.Total)
	}
}

func TestResolutionError(t *testing.T) {
	w, p := initWorld(t, Config{})
	reply := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Add(context.Background(), protocol.Notation("1d8"))
	})
	d := p.addDie()
	p.send(protocol.ActionRollResult, "", protocol.DieResult{ID: d.ID, RollID: d.RollID, Error: "face 9 not mapped"})

	out := await(t, reply)
	if out.Dice[0].Value != nil || out.Dice[0].Outcome != protocol.OutcomeResolved {
		t.Fatalf("slot = %+v", out.Dice[0])
	}
}

func TestClearResolvesPending(t *testing.T) {
	w, p := initWorld(t, Config{})
	reply := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Add(context.Background(), protocol.Notation("3d20"))
	})
	for i := 0; i < 3; i++ {
		p.addDie()
	}

	if err := w.Clear(); err != nil {
		t.Fatal(err)
	}
	out := await(t, reply)
	if !out.Cleared {
		t.Fatal("outcome not cleared")
	}
	for _, r := range out.Dice {
		if r.Outcome != protocol.OutcomeCleared || r.Value != nil {
			t.Fatalf("slot = %+v", r)
		}
	}
	p.expect(protocol.ActionClearDice)
}

func TestConcurrentRollsNeverShareTable(t *testing.T) {
	w, p := initWorld(t, Config{})
	first := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Roll(context.Background(), protocol.Notation("2d6"))
	})
	second := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Roll(context.Background(), protocol.Notation("2d6"))
	})

	var last []protocol.DieOptions
	for i := 0; i < 2; i++ {
		p.expect(protocol.ActionClearDice)
		a, b := p.addDie(), p.addDie()
		if a.RollID != b.RollID {
			t.Fatalf("dice of rolls %s and %s interleaved", a.RollID, b.RollID)
		}
		last = []protocol.DieOptions{a, b}
	}
	p.resolve(last[0], 2)
	p.resolve(last[1], 5)

	outs := []*protocol.RollOutcome{await(t, first), await(t, second)}
	var cleared, rolled int
	for _, out := range outs {
		switch {
		case out.Cleared:
			cleared++
		case out.RollID == last[0].RollID && out.Total == 7:
			rolled++
		default:
			t.Fatalf("unexpected outcome %+v", out)
		}
	}
	if cleared != 1 || rolled != 1 {
		t.Fatalf("cleared %d, rolled %d", cleared, rolled)
	}
}

func TestRemove(t *testing.T) {
	w, p := initWorld(t, Config{})
	reply := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Add(context.Background(), protocol.Notation("2d4"))
	})
	d1, d2 := p.addDie(), p.addDie()
	p.resolve(d1, 4)

	if err := w.Remove(d2.ID); err != nil {
		t.Fatal(err)
	}
	var payload protocol.RemoveDiePayload
	p.expect(protocol.ActionRemoveDie).Decode(&payload)
	if payload.ID != d2.ID {
		t.Fatalf("removed %d", payload.ID)
	}

	out := await(t, reply)
	if out.Dice[1].Outcome != protocol.OutcomeRemoved {
		t.Fatalf("slot = %+v", out.Dice[1])
	}
	if err := w.Remove(12345); !errutil.Is(err, errutil.ErrDieNotFound) {
		t.Fatalf("remove unknown: %v", err)
	}
}

func TestUnknownActionIgnored(t *testing.T) {
	w, p := initWorld(t, Config{})
	p.send("explode", "", nil)
	p.send(protocol.ActionRollResult, "", protocol.DieResult{ID: 999})

	if err := w.Connect("port-2"); err != nil {
		t.Fatal(err)
	}
	var payload protocol.ConnectPayload
	p.expect(protocol.ActionConnect).Decode(&payload)
	if payload.Port != "port-2" {
		t.Fatalf("connect = %+v", payload)
	}
}

func TestRequestTimeout(t *testing.T) {
	w, p := initWorld(t, Config{RequestTimeout: 30 * time.Millisecond})
	errc := make(chan error, 1)
	go func() { errc <- w.LoadTheme(context.Background(), "slow") }()
	p.expect(protocol.ActionLoadTheme)

	select {
	case err := <-errc:
		if !errutil.Is(err, errutil.ErrRequestTimeout) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("load never timed out")
	}
}

func TestContextCancel(t *testing.T) {
	w, p := initWorld(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	reply := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Add(ctx, protocol.Notation("1d6"))
	})
	d := p.addDie()
	cancel()

	select {
	case r := <-reply:
		if r.err != context.Canceled {
			t.Fatalf("err = %v", r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancel ignored")
	}

	// the batch keeps running for everyone else
	p.resolve(d, 3)
	if err := w.Remove(d.ID); err != nil && !errutil.Is(err, errutil.ErrDieNotFound) {
		t.Fatal(err)
	}
}

func TestDedupeConfig(t *testing.T) {
	w, p := initWorld(t, Config{})
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.Resize(context.Background(), n*100, n*100)
		}(i)
	}
	wg.Wait()

	p.expect(protocol.ActionResize)
	select {
	case m := <-p.ch.Inbound():
		if m.Action != protocol.ActionResize {
			t.Fatalf("unexpected %s", m.Action)
		}
	default:
	}
}

func TestListener(t *testing.T) {
	var (
		mu       sync.Mutex
		results  int
		removed  int
		complete int
	)
	l := ListenerFuncs{
		RollResult:   func(protocol.DieResult) { mu.Lock(); results++; mu.Unlock() },
		DieRemoved:   func(protocol.DieRemovedPayload) { mu.Lock(); removed++; mu.Unlock() },
		RollComplete: func(int) { mu.Lock(); complete++; mu.Unlock() },
	}
	w, p := initWorld(t, Config{}, WithListener(l))
	reply := goRoll(func() (*protocol.RollOutcome, error) {
		return w.Add(context.Background(), protocol.Notation("2d10"))
	})
	d1, d2 := p.addDie(), p.addDie()
	p.resolve(d1, 0)
	p.send(protocol.ActionRollComplete, "", protocol.RollCompletePayload{Settled: 1})
	p.send(protocol.ActionDieRemoved, "", protocol.DieRemovedPayload{ID: d2.ID, RollID: d2.RollID, Reason: protocol.ReasonTimeout})
	await(t, reply)

	mu.Lock()
	defer mu.Unlock()
	if results != 1 || removed != 1 || complete != 1 {
		t.Fatalf("results %d removed %d complete %d", results, removed, complete)
	}
}
