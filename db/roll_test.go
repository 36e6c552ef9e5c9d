package db

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
)

func TestMain(m *testing.M) {
	dir, err := ioutil.TempDir("", "dicebox-db")
	if err != nil {
		panic(err)
	}
	closer := MustStartup(filepath.Join(dir, "history.db"), Driver("sqlite3"), ShowSQL(false))

	code := m.Run()
	closer()
	os.RemoveAll(dir)
	os.Exit(code)
}

func outcome(rollID string, values ...int) *protocol.RollOutcome {
	out := &protocol.RollOutcome{RollID: rollID, Notation: "2d6+1", Modifier: 1, Total: 1}
	for i, v := range values {
		v := v
		out.Dice = append(out.Dice, protocol.DieResult{
			ID:      int64(i + 1),
			RollID:  rollID,
			DieType: protocol.D6,
			Sides:   6,
			Value:   &v,
			Outcome: protocol.OutcomeResolved,
		})
		out.Total += v
	}
	return out
}

func TestInsertAndQueryRoll(t *testing.T) {
	out := outcome("roll-a", 3, 5)
	out.Dice = append(out.Dice, protocol.DieResult{ID: 3, RollID: "roll-a", DieType: protocol.D6, Sides: 6, Outcome: protocol.OutcomeRemoved})
	if err := InsertRoll(SourceHTTP, out); err != nil {
		t.Fatal(err)
	}

	r, dice, err := QueryRoll("roll-a")
	if err != nil {
		t.Fatal(err)
	}
	if r.Total != 9 || r.Source != SourceHTTP || r.Notation != "2d6+1" || r.DiceCount != 3 {
		t.Fatalf("roll = %+v", r)
	}
	if len(dice) != 3 || dice[0].Value != 3 || dice[1].Value != 5 {
		t.Fatalf("dice = %+v", dice)
	}
	if dice[2].HasValue || dice[2].Outcome != string(protocol.OutcomeRemoved) {
		t.Fatalf("removed slot = %+v", dice[2])
	}
}

func TestQueryRollMissing(t *testing.T) {
	if _, _, err := QueryRoll("nope"); err != errutil.ErrRollNotFound {
		t.Fatalf("err = %v", err)
	}
	if err := InsertRoll(SourceHTTP, nil); err != errutil.ErrInvalidParameter {
		t.Fatalf("nil roll: %v", err)
	}
}

func TestInsertRollAsync(t *testing.T) {
	InsertRollAsync(SourceGame, outcome("roll-async", 6))

	deadline := time.Now().Add(5 * time.Second)
	for {
		r, _, err := QueryRoll("roll-async")
		if err == nil {
			if r.Source != SourceGame {
				t.Fatalf("roll = %+v", r)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("async roll never written: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRollList(t *testing.T) {
	for _, id := range []string{"list-1", "list-2", "list-3"} {
		if err := InsertRoll(SourceHTTP, outcome(id, 1)); err != nil {
			t.Fatal(err)
		}
	}

	list, total, err := RollList(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total < 3 || len(list) != 2 {
		t.Fatalf("total %d, page %d", total, len(list))
	}
	if list[0].RollId != "list-3" || list[1].RollId != "list-2" {
		t.Fatalf("page = %s, %s", list[0].RollId, list[1].RollId)
	}
}
