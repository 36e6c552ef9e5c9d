// Package resolver turns the resting pose of a die into its printed value.
package resolver

import (
	"github.com/lonng/dicebox/internal/facemap"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/pkg/geom"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RayLength is the pick distance of the face ray, a die is never larger
const RayLength = 1.0

var logger = log.WithField("component", "resolver")

// Die is the part of a die the resolver reads and updates
type Die interface {
	DieType() protocol.DieType
	FixedValue() (int, bool)
	Value() (int, bool)
	Resolved() bool
	Resolve(value *int) error
}

// Collider is a transient pick proxy for one die
type Collider interface {
	// Pick casts the ray, returning the collider face index it hits
	Pick(ray geom.Ray) (face int, ok bool)
	Dispose()
}

// ColliderSource hands out a collider posed at the die's transform
type ColliderSource interface {
	AcquireCollider(t protocol.DieType, pose geom.Transform) (Collider, error)
}

type Resolver struct {
	registry *facemap.Registry
	source   ColliderSource
}

func New(registry *facemap.Registry, source ColliderSource) *Resolver {
	return &Resolver{registry: registry, source: source}
}

// Direction returns the world space ray direction used for a die type
func (r *Resolver) Direction(t protocol.DieType) geom.Vector3 {
	if t == protocol.D4 && r.registry.D4FaceDown() {
		return geom.Down
	}
	return geom.Up
}

// Resolve finds the value of a settled die and marks it resolved. The same
// pose against the same registry always yields the same value.
func (r *Resolver) Resolve(die Die, pose geom.Transform) (int, error) {
	if v, ok := die.FixedValue(); ok {
		if !die.Resolved() {
			if err := die.Resolve(&v); err != nil {
				return 0, err
			}
		}
		return v, nil
	}

	if die.Resolved() {
		if v, ok := die.Value(); ok {
			return v, nil
		}
		return 0, errors.Wrap(errutil.ErrResolution, "die resolved without value")
	}

	v, err := r.cast(die.DieType(), pose)
	if err != nil {
		return 0, err
	}
	if err := die.Resolve(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (r *Resolver) cast(t protocol.DieType, pose geom.Transform) (int, error) {
	faces, err := r.registry.Get(t)
	if err != nil {
		return 0, err
	}

	c, err := r.source.AcquireCollider(t, pose)
	if err != nil {
		return 0, errors.Wrapf(err, "acquire %s collider", t)
	}
	defer c.Dispose()

	ray := geom.NewRay(pose.Position, r.Direction(t), RayLength)
	face, ok := c.Pick(ray)
	if !ok {
		logger.Warnf("%s: ray missed collider at %+v", t, pose.Position)
		return 0, errors.Wrapf(errutil.ErrResolution, "%s: no face hit", t)
	}

	v, ok := faces.Value(face)
	if !ok {
		logger.Warnf("%s: face %d not in colliderFaceMap of %s", t, face, r.registry.Name())
		return 0, errors.Wrapf(errutil.ErrResolution, "%s: face %d not mapped", t, face)
	}
	return v, nil
}
