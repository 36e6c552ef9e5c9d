package physics

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/lonng/dicebox/internal/resolver"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/pkg/geom"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
)

// ColliderSet holds the outward face normals of every die collider. Face i
// of a collider with n faces sits at point i of a Fibonacci sphere.
type ColliderSet struct {
	normals map[protocol.DieType][]geom.Vector3
	active  int64
}

func NewColliderSet(faceCounts map[protocol.DieType]int) *ColliderSet {
	s := &ColliderSet{normals: make(map[protocol.DieType][]geom.Vector3, len(faceCounts))}
	for t, n := range faceCounts {
		s.normals[t] = sphere(n)
	}
	return s
}

func sphere(n int) []geom.Vector3 {
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make([]geom.Vector3, n)
	for i := range out {
		y := 1 - (float64(i)+0.5)*2/float64(n)
		r := math.Sqrt(1 - y*y)
		phi := float64(i) * golden
		out[i] = geom.Vec(math.Cos(phi)*r, y, math.Sin(phi)*r)
	}
	return out
}

// Types lists the die types with a collider
func (s *ColliderSet) Types() []protocol.DieType {
	types := make([]protocol.DieType, 0, len(s.normals))
	for t := range s.normals {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Sides() < types[j].Sides() })
	return types
}

func (s *ColliderSet) FaceCount(t protocol.DieType) int {
	return len(s.normals[t])
}

// Normal returns the local normal of a collider face
func (s *ColliderSet) Normal(t protocol.DieType, face int) (geom.Vector3, bool) {
	n := s.normals[t]
	if face < 0 || face >= len(n) {
		return geom.Zero, false
	}
	return n[face], true
}

// Active reports the number of acquired colliders not yet disposed
func (s *ColliderSet) Active() int {
	return int(atomic.LoadInt64(&s.active))
}

func (s *ColliderSet) AcquireCollider(t protocol.DieType, pose geom.Transform) (resolver.Collider, error) {
	normals, ok := s.normals[t]
	if !ok {
		return nil, errors.Wrapf(errutil.ErrConfig, "no collider for %s", t)
	}
	atomic.AddInt64(&s.active, 1)
	return &collider{set: s, normals: normals, pose: pose}, nil
}

type collider struct {
	set      *ColliderSet
	normals  []geom.Vector3
	pose     geom.Transform
	disposed int32
}

// Pick returns the face whose world normal is closest to the ray direction
func (c *collider) Pick(ray geom.Ray) (int, bool) {
	dir := c.pose.ToLocal(ray.Direction)
	face, best := -1, 0.0
	for i, n := range c.normals {
		if d := n.Dot(dir); d > best {
			face, best = i, d
		}
	}
	return face, face >= 0
}

func (c *collider) Dispose() {
	if atomic.CompareAndSwapInt32(&c.disposed, 0, 1) {
		atomic.AddInt64(&c.set.active, -1)
	}
}
