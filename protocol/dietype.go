package protocol

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DieType names a die model, e.g. "d20"
type DieType string

const (
	D4   DieType = "d4"
	D6   DieType = "d6"
	D8   DieType = "d8"
	D10  DieType = "d10"
	D12  DieType = "d12"
	D20  DieType = "d20"
	D100 DieType = "d100"
)

// DieTypes lists every supported die type in ascending order
var DieTypes = []DieType{D4, D6, D8, D10, D12, D20, D100}

var sidesToType = map[int]DieType{
	4:   D4,
	6:   D6,
	8:   D8,
	10:  D10,
	12:  D12,
	20:  D20,
	100: D100,
}

// DieTypeFromSides maps a side count onto a die type
func DieTypeFromSides(sides int) (DieType, error) {
	t, ok := sidesToType[sides]
	if !ok {
		return "", errors.Errorf("no die with %d sides", sides)
	}
	return t, nil
}

// Sides returns the number of printed faces, 0 for unknown types
func (t DieType) Sides() int {
	n, err := strconv.Atoi(strings.TrimPrefix(string(t), "d"))
	if err != nil {
		return 0
	}
	if _, ok := sidesToType[n]; !ok {
		return 0
	}
	return n
}

func (t DieType) Valid() bool {
	return t.Sides() > 0
}

func (t DieType) String() string {
	return string(t)
}
