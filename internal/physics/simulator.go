package physics

import (
	"math"
	"math/rand"
	"time"

	"github.com/lonng/dicebox/pkg/geom"
	"github.com/lonng/dicebox/protocol"
)

// Throw is how a die comes to rest
type Throw struct {
	Pose    geom.Transform
	After   time.Duration
	Settles bool
}

// Simulator drops a die into the enclosure. up is the world direction the
// value face points to once the die rests.
type Simulator interface {
	Throw(t protocol.DieType, up geom.Vector3) Throw
}

// SimulatorFactory builds the simulator of a world once its params are known
type SimulatorFactory func(p Params, colliders *ColliderSet, surface protocol.Surface) Simulator

// RandomSimulator lands every die on a uniformly random collider face
type RandomSimulator struct {
	params    Params
	colliders *ColliderSet
	surface   protocol.Surface
	rng       *rand.Rand
}

func NewRandomSimulator(p Params, colliders *ColliderSet, surface protocol.Surface) Simulator {
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSimulator{
		params:    p,
		colliders: colliders,
		surface:   surface,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (s *RandomSimulator) Throw(t protocol.DieType, up geom.Vector3) Throw {
	th := Throw{Pose: geom.Transform{Rotation: geom.Identity}}

	n := s.colliders.FaceCount(t)
	if n == 0 || s.rng.Float64() < s.params.StuckRate {
		return th
	}

	normal, _ := s.colliders.Normal(t, s.rng.Intn(n))
	spin := geom.AxisAngle(up, s.rng.Float64()*2*math.Pi)
	th.Pose.Rotation = spin.Mul(geom.FromUnitVectors(normal, up)).Normalize()
	th.Pose.Position = geom.Vec(
		(s.rng.Float64()-0.5)*float64(s.surface.Width)/100,
		0,
		(s.rng.Float64()-0.5)*float64(s.surface.Height)/100,
	)

	delay := s.params.settleDelay()
	if delay > 0 {
		delay += time.Duration(s.rng.Int63n(int64(delay)/2 + 1))
	}
	th.After = delay
	th.Settles = true
	return th
}
