package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Action identifies the kind of a world message
type Action string

// Outbound actions are sent by the orchestrator, inbound ones by the
// physics world.
const (
	ActionInit         Action = "init"
	ActionConnect      Action = "connect"
	ActionUpdateConfig Action = "updateConfig"
	ActionResize       Action = "resize"
	ActionLoadTheme    Action = "loadTheme"
	ActionAddDie       Action = "addDie"
	ActionRemoveDie    Action = "removeDie"
	ActionClearDice    Action = "clearDice"

	ActionInitComplete Action = "init-complete"
	ActionThemeLoaded  Action = "theme-loaded"
	ActionRollResult   Action = "roll-result"
	ActionRollComplete Action = "roll-complete"
	ActionDieRemoved   Action = "die-removed"
)

// Message is the only thing that crosses between the orchestrator and the
// physics world. Payload is kept raw until the receiver knows the action.
type Message struct {
	Action  Action          `json:"action"`
	ID      string          `json:"id,omitempty"` // correlation id
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes payload into a message, a nil payload is omitted
func NewMessage(action Action, id string, payload interface{}) (*Message, error) {
	m := &Message{Action: action, ID: id}
	if payload == nil {
		return m, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s payload", action)
	}
	m.Payload = data
	return m, nil
}

// Decode unmarshals the payload into v
func (m *Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return errors.Errorf("%s: empty payload", m.Action)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return errors.Wrapf(err, "decode %s payload", m.Action)
	}
	return nil
}

// Surface describes the rendering surface handed over on init
type Surface struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type WorldOptions struct {
	Theme      string          `json:"theme"`
	ThemeColor string          `json:"themeColor"`
	Scale      float64         `json:"scale"`
	Physics    json.RawMessage `json:"physics,omitempty"` // forwarded verbatim
}

type InitPayload struct {
	Surface Surface      `json:"surface"`
	Options WorldOptions `json:"options"`
}

type ConnectPayload struct {
	Port string `json:"port"`
}

type ResizePayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type ThemePayload struct {
	Theme string `json:"theme"`
}

type ThemeLoadedPayload struct {
	Theme string `json:"theme"`
	Error string `json:"error,omitempty"`
}

// DieOptions is the addDie payload
type DieOptions struct {
	ID         int64   `json:"id"`
	RollID     string  `json:"rollId"`
	GroupID    int     `json:"groupId"`
	DieType    DieType `json:"dieType"`
	Sides      int     `json:"sides"`
	Theme      string  `json:"theme"`
	ThemeColor string  `json:"themeColor,omitempty"`
	Value      *int    `json:"value,omitempty"` // fixed, non-physical value
}

type RemoveDiePayload struct {
	ID     int64  `json:"id"`
	RollID string `json:"rollId"`
}

// Removal reasons reported with die-removed
const (
	ReasonRemoved    = "removed"
	ReasonTimeout    = "timeout"
	ReasonUnresolved = "unresolved"
)

type DieRemovedPayload struct {
	ID     int64  `json:"id"`
	RollID string `json:"rollId"`
	Reason string `json:"reason"`
}

type RollCompletePayload struct {
	Settled int `json:"settled"`
}
