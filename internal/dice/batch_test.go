package dice

import (
	"testing"

	"github.com/lonng/dicebox/protocol"
)

func TestBatchOutcome(t *testing.T) {
	a, b, c := NewD6(1, Options{}), NewD6(2, Options{}), NewD6(3, Options{})
	batch := NewBatch("roll", 2, []*Die{a, b, c})

	a.Settle()
	a.Resolve(intp(4))
	if batch.Complete() {
		t.Fatal("batch complete with dice in flight")
	}
	b.Remove()
	c.Settle()
	c.Resolve(intp(6))
	if !batch.Complete() {
		t.Fatal("batch should be complete")
	}

	out := batch.Outcome()
	if out.Total != 12 || out.Modifier != 2 || out.Cleared {
		t.Fatalf("outcome = %+v", out)
	}
	want := []protocol.Outcome{protocol.OutcomeResolved, protocol.OutcomeRemoved, protocol.OutcomeResolved}
	for i, r := range out.Dice {
		if r.ID != int64(i+1) {
			t.Fatalf("slot %d holds die %d", i, r.ID)
		}
		if r.Outcome != want[i] {
			t.Fatalf("slot %d outcome %s", i, r.Outcome)
		}
	}
	if out.Dice[1].Value != nil {
		t.Fatal("removed slot has a value")
	}
}

func TestBatchClear(t *testing.T) {
	a, b := NewD20(1, Options{}), NewD20(2, Options{})
	a.Settle()
	a.Resolve(intp(20))
	batch := NewBatch("roll", 0, []*Die{a, b})

	batch.Clear()
	if !batch.Complete() || !batch.Cleared() {
		t.Fatal("cleared batch should be complete")
	}
	out := batch.Outcome()
	if !out.Cleared {
		t.Fatal("outcome not flagged as cleared")
	}
	if out.Dice[0].Outcome != protocol.OutcomeResolved || out.Dice[1].Outcome != protocol.OutcomeCleared {
		t.Fatalf("outcomes = %s, %s", out.Dice[0].Outcome, out.Dice[1].Outcome)
	}
	if out.Total != 20 {
		t.Fatalf("total = %d", out.Total)
	}
}
