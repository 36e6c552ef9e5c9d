package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
)

const (
	// MaxGroupDice caps the quantity of a single notation group
	MaxGroupDice = 100
	// MaxRollDice caps the dice of a whole roll
	MaxRollDice = 1000
)

var notationRe = regexp.MustCompile(`^(\d*)d(\d+|%)(?:([+-])(\d+))?$`)

// Spec describes one die to be created for a roll
type Spec struct {
	Type       protocol.DieType
	GroupID    int
	Theme      string
	ThemeColor string
	Value      *int
}

// Normalized is a roll request flattened into per-die specs
type Normalized struct {
	Dice     []Spec
	Modifier int
	Notation string
}

// ParseNotation parses "NdS[+M]" notation, "d%" is a d100
func ParseNotation(s string) (protocol.DieGroup, error) {
	src := strings.ToLower(strings.Join(strings.Fields(s), ""))
	m := notationRe.FindStringSubmatch(src)
	if m == nil {
		return protocol.DieGroup{}, errors.Wrapf(errutil.ErrIllegalNotation, "%q", s)
	}

	var err error
	g := protocol.DieGroup{Qty: 1}
	if m[1] != "" {
		if g.Qty, err = strconv.Atoi(m[1]); err != nil {
			return protocol.DieGroup{}, errors.Wrapf(errutil.ErrIllegalNotation, "%q: quantity", s)
		}
	}
	if m[2] == "%" {
		g.Sides = 100
	} else {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return protocol.DieGroup{}, errors.Wrapf(errutil.ErrIllegalNotation, "%q: sides", s)
		}
		g.Sides = protocol.Sides(n)
	}
	if m[4] != "" {
		if g.Modifier, err = strconv.Atoi(m[4]); err != nil {
			return protocol.DieGroup{}, errors.Wrapf(errutil.ErrIllegalNotation, "%q: modifier", s)
		}
		if m[3] == "-" {
			g.Modifier = -g.Modifier
		}
	}
	return g, nil
}

// Normalize flattens a roll spec into dice in submission order. Each item of
// the spec becomes one group.
func Normalize(spec protocol.RollSpec) (*Normalized, error) {
	if len(spec) == 0 {
		return nil, errors.Wrap(errutil.ErrIllegalNotation, "empty roll")
	}

	n := &Normalized{}
	parts := make([]string, 0, len(spec))
	for i, item := range spec {
		var g protocol.DieGroup
		if item.Group != nil {
			g = *item.Group
			if g.Qty == 0 {
				g.Qty = 1
			}
		} else {
			var err error
			if g, err = ParseNotation(item.Notation); err != nil {
				return nil, err
			}
		}

		t, err := protocol.DieTypeFromSides(int(g.Sides))
		if err != nil {
			return nil, errors.Wrap(errutil.ErrIllegalNotation, err.Error())
		}
		if g.Qty < 1 || g.Qty > MaxGroupDice {
			return nil, errors.Wrapf(errutil.ErrIllegalNotation, "quantity %d out of range", g.Qty)
		}
		if len(n.Dice)+g.Qty > MaxRollDice {
			return nil, errors.Wrapf(errutil.ErrIllegalNotation, "more than %d dice in one roll", MaxRollDice)
		}

		for j := 0; j < g.Qty; j++ {
			s := Spec{
				Type:       t,
				GroupID:    i,
				Theme:      g.Theme,
				ThemeColor: g.ThemeColor,
			}
			if g.Value != nil {
				v := *g.Value
				s.Value = &v
			}
			n.Dice = append(n.Dice, s)
		}
		n.Modifier += g.Modifier
		parts = append(parts, groupNotation(g))
	}
	n.Notation = strings.Join(parts, ",")
	return n, nil
}

func groupNotation(g protocol.DieGroup) string {
	s := fmt.Sprintf("%dd%d", g.Qty, g.Sides)
	switch {
	case g.Modifier > 0:
		s += fmt.Sprintf("+%d", g.Modifier)
	case g.Modifier < 0:
		s += strconv.Itoa(g.Modifier)
	}
	return s
}
