package dice

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
)

func TestParseNotation(t *testing.T) {
	tables := map[string]protocol.DieGroup{
		"1d20":    {Sides: 20, Qty: 1},
		"d20":     {Sides: 20, Qty: 1},
		"2d6":     {Sides: 6, Qty: 2},
		"2D6+3":   {Sides: 6, Qty: 2, Modifier: 3},
		"3d8 - 1": {Sides: 8, Qty: 3, Modifier: -1},
		"d%":      {Sides: 100, Qty: 1},
		" 4d10 ":  {Sides: 10, Qty: 4},
	}

	for notation, want := range tables {
		got, err := ParseNotation(notation)
		if err != nil {
			t.Fatalf("%q: %v", notation, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%q: (-want +got)\n%s", notation, diff)
		}
	}

	for _, bad := range []string{"", "d", "2x6", "six", "1d20+", "d20d6",
		"1d6+99999999999999999999", "99999999999999999999d6", "1d99999999999999999999"} {
		if _, err := ParseNotation(bad); !errutil.Is(err, errutil.ErrIllegalNotation) {
			t.Fatalf("%q: want illegal notation, got %v", bad, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	spec := protocol.RollSpec{
		{Notation: "2d6+1"},
		{Group: &protocol.DieGroup{Sides: 20, Theme: "gem", ThemeColor: "#fff"}},
	}
	n, err := Normalize(spec)
	if err != nil {
		t.Fatal(err)
	}

	want := []Spec{
		{Type: protocol.D6, GroupID: 0},
		{Type: protocol.D6, GroupID: 0},
		{Type: protocol.D20, GroupID: 1, Theme: "gem", ThemeColor: "#fff"},
	}
	if diff := cmp.Diff(want, n.Dice); diff != "" {
		t.Fatalf("dice (-want +got)\n%s", diff)
	}
	if n.Modifier != 1 {
		t.Fatalf("modifier = %d", n.Modifier)
	}
	if n.Notation != "2d6+1,1d20" {
		t.Fatalf("notation = %s", n.Notation)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tables := []protocol.RollSpec{
		nil,
		protocol.Notation("0d6"),
		protocol.Notation("1d7"),
		protocol.Notation("101d6"),
		protocol.Groups(protocol.DieGroup{Sides: 3}),
		tooMany(),
	}

	for _, spec := range tables {
		if _, err := Normalize(spec); !errutil.Is(err, errutil.ErrIllegalNotation) {
			t.Fatalf("%v: want illegal notation, got %v", spec, err)
		}
	}
}

// tooMany is one group of dice past the roll cap
func tooMany() protocol.RollSpec {
	spec := protocol.RollSpec{}
	for n := 0; n <= MaxRollDice; n += MaxGroupDice {
		spec = append(spec, protocol.RollItem{Notation: "100d6"})
	}
	return spec
}

func TestNormalizeRollCap(t *testing.T) {
	spec := protocol.RollSpec{}
	for n := 0; n < MaxRollDice; n += MaxGroupDice {
		spec = append(spec, protocol.RollItem{Notation: "100d6"})
	}
	n, err := Normalize(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Dice) != MaxRollDice {
		t.Fatalf("dice = %d", len(n.Dice))
	}
}
