package physics

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Params are the physics settings carried opaquely by the orchestrator.
// Durations are in milliseconds on the wire.
type Params struct {
	Gravity        float64 `json:"gravity"`
	Mass           float64 `json:"mass"`
	Friction       float64 `json:"friction"`
	Restitution    float64 `json:"restitution"`
	LinearDamping  float64 `json:"linearDamping"`
	AngularDamping float64 `json:"angularDamping"`
	SpinForce      float64 `json:"spinForce"`
	ThrowForce     float64 `json:"throwForce"`
	StartingHeight float64 `json:"startingHeight"`
	SettleTimeout  int     `json:"settleTimeout"`
	SettleDelay    int     `json:"settleDelay"`
	StuckRate      float64 `json:"stuckRate"` // share of throws that never come to rest
	Seed           int64   `json:"seed"`
}

func DefaultParams() Params {
	return Params{
		Gravity:        3,
		Mass:           3,
		Friction:       0.8,
		Restitution:    0,
		LinearDamping:  0.4,
		AngularDamping: 0.4,
		SpinForce:      6,
		ThrowForce:     5,
		StartingHeight: 8,
		SettleTimeout:  5000,
		SettleDelay:    800,
	}
}

// Merge overlays the fields present in raw onto p
func (p Params) Merge(raw json.RawMessage) (Params, error) {
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, errors.Wrap(err, "physics params")
	}
	return p, nil
}

func (p Params) settleTimeout() time.Duration {
	return time.Duration(p.SettleTimeout) * time.Millisecond
}

func (p Params) settleDelay() time.Duration {
	return time.Duration(p.SettleDelay) * time.Millisecond
}
