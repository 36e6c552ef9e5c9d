package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Outcome of a single die slot in a finished roll
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeRemoved  Outcome = "removed"
	OutcomeCleared  Outcome = "cleared"
)

// Sides accepts 20, "20" and "d20" on the wire
type Sides int

func (s *Sides) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Sides(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.Errorf("sides: want number or string, got %s", data)
	}
	str = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(str)), "d")
	if str == "%" {
		*s = 100
		return nil
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return errors.Errorf("sides: illegal value %q", str)
	}
	*s = Sides(n)
	return nil
}

// DieGroup is the structured roll notation
type DieGroup struct {
	Sides      Sides  `json:"sides"`
	Qty        int    `json:"qty,omitempty"`
	Modifier   int    `json:"modifier,omitempty"`
	Theme      string `json:"theme,omitempty"`
	ThemeColor string `json:"themeColor,omitempty"`
	Value      *int   `json:"value,omitempty"`
}

// RollItem is either a string notation or a structured group
type RollItem struct {
	Notation string
	Group    *DieGroup
}

// RollSpec is an ordered roll request. On the wire it may be a single
// notation string, a single object, or an array mixing both.
type RollSpec []RollItem

// Notation builds a spec from string notations such as "2d6"
func Notation(notations ...string) RollSpec {
	spec := make(RollSpec, 0, len(notations))
	for _, n := range notations {
		spec = append(spec, RollItem{Notation: n})
	}
	return spec
}

// Groups builds a spec from structured groups
func Groups(groups ...DieGroup) RollSpec {
	spec := make(RollSpec, 0, len(groups))
	for i := range groups {
		g := groups[i]
		spec = append(spec, RollItem{Group: &g})
	}
	return spec
}

func (i *RollItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.Notation)
	}
	g := &DieGroup{}
	if err := json.Unmarshal(data, g); err != nil {
		return err
	}
	i.Group = g
	return nil
}

func (i RollItem) MarshalJSON() ([]byte, error) {
	if i.Group != nil {
		return json.Marshal(i.Group)
	}
	return json.Marshal(i.Notation)
}

func (s *RollSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []RollItem
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*s = items
		return nil
	}
	var item RollItem
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*s = RollSpec{item}
	return nil
}

// DieResult is reported per die, both by roll-result messages and in the
// final roll outcome
type DieResult struct {
	ID         int64   `json:"id"`
	RollID     string  `json:"rollId"`
	GroupID    int     `json:"groupId"`
	DieType    DieType `json:"dieType"`
	Sides      int     `json:"sides"`
	Theme      string  `json:"theme"`
	ThemeColor string  `json:"themeColor,omitempty"`
	Value      *int    `json:"value"`
	Outcome    Outcome `json:"outcome,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// RollOutcome is what a caller gets back once a roll batch is complete
type RollOutcome struct {
	RollID   string      `json:"rollId"`
	Notation string      `json:"notation,omitempty"`
	Dice     []DieResult `json:"dice"`
	Modifier int         `json:"modifier"`
	Total    int         `json:"total"`
	Cleared  bool        `json:"cleared"`
}

type RollRequest struct {
	Notation RollSpec `json:"notation"`
}

type RerollRequest struct {
	Dice []DieResult `json:"dice"`
}

type RemoveDieRequest struct {
	ID int64 `json:"id"`
}

type RollResponse struct {
	Code int `json:"code"`
	RollOutcome
}

type RollHistory struct {
	RollID    string      `json:"rollId"`
	Notation  string      `json:"notation"`
	Source    string      `json:"source"`
	Modifier  int         `json:"modifier"`
	Total     int         `json:"total"`
	Cleared   bool        `json:"cleared"`
	CreatedAt int64       `json:"createdAt"`
	Dice      []DieResult `json:"dice,omitempty"`
}

type RollHistoryResponse struct {
	Code int          `json:"code"`
	Data *RollHistory `json:"data"`
}

type RollHistoryListResponse struct {
	Code  int           `json:"code"`
	Data  []RollHistory `json:"data"`
	Total int64         `json:"total"`
}
