package facemap

import (
	"sort"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
)

// Registry is the set of face maps for one dice model file. It is never
// mutated after construction and may be shared between goroutines.
type Registry struct {
	name       string
	maps       map[protocol.DieType]FaceMap
	faceCounts map[protocol.DieType]int
	d4FaceDown bool
}

type Option func(*Registry)

// WithName names the model set, used in error messages
func WithName(name string) Option {
	return func(r *Registry) {
		r.name = name
	}
}

// WithD4FaceDown sets whether the d4 value is printed opposite the face it
// rests on, the default is true
func WithD4FaceDown(down bool) Option {
	return func(r *Registry) {
		r.d4FaceDown = down
	}
}

// WithFaceCounts sets the collider face counts of the model geometry. Types
// left out fall back to DefaultFaceCounts.
func WithFaceCounts(counts map[protocol.DieType]int) Option {
	return func(r *Registry) {
		r.faceCounts = make(map[protocol.DieType]int, len(counts))
		for t, n := range counts {
			r.faceCounts[t] = n
		}
	}
}

// NewRegistry copies maps into a registry. A missing d100 table is derived
// from the d10 one when present.
func NewRegistry(maps map[protocol.DieType]FaceMap, opts ...Option) *Registry {
	r := &Registry{
		name:       "default",
		maps:       make(map[protocol.DieType]FaceMap, len(maps)+1),
		d4FaceDown: true,
	}
	for _, opt := range opts {
		opt(r)
	}

	for t, m := range maps {
		r.maps[t] = New(m.values)
	}
	if _, ok := r.maps[protocol.D100]; !ok {
		if d10, ok := r.maps[protocol.D10]; ok {
			r.maps[protocol.D100] = DeriveD100FromD10(d10)
		}
	}
	return r
}

func (r *Registry) Name() string {
	return r.name
}

func (r *Registry) D4FaceDown() bool {
	return r.d4FaceDown
}

// Get returns the face map of a die type, a ConfigError cause when the type
// has no table
func (r *Registry) Get(t protocol.DieType) (FaceMap, error) {
	m, ok := r.maps[t]
	if !ok {
		return FaceMap{}, errors.Wrapf(errutil.ErrConfig, "model %s: no colliderFaceMap for %s", r.name, t)
	}
	return m, nil
}

// FaceCounts returns the collider face count of every mapped die type
func (r *Registry) FaceCounts() map[protocol.DieType]int {
	counts := make(map[protocol.DieType]int, len(r.maps))
	for t := range r.maps {
		if n, ok := DefaultFaceCounts[t]; ok {
			counts[t] = n
		}
	}
	for t, n := range r.faceCounts {
		counts[t] = n
	}
	return counts
}

// Types returns the die types this registry can resolve
func (r *Registry) Types() []protocol.DieType {
	types := make([]protocol.DieType, 0, len(r.maps))
	for t := range r.maps {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Sides() < types[j].Sides() })
	return types
}

// Validate checks that every collider face index reachable by the given
// geometry (0..n-1 per die type) has a value
func (r *Registry) Validate(faceCounts map[protocol.DieType]int) error {
	for t, n := range faceCounts {
		m, err := r.Get(t)
		if err != nil {
			return err
		}
		for face := 0; face < n; face++ {
			if _, ok := m.Value(face); !ok {
				return errors.Wrapf(errutil.ErrConfig, "model %s: %s collider face %d has no value", r.name, t, face)
			}
		}
	}
	return nil
}

// Audit checks an authored table against the faces printed on the die: every
// printed value appears, nothing else does, and each value owns the same
// number of collider faces.
func (r *Registry) Audit(t protocol.DieType) error {
	m, err := r.Get(t)
	if err != nil {
		return err
	}

	counts := map[int]int{}
	for _, v := range m.values {
		if t == protocol.D10 && v == 10 {
			v = 0
		}
		counts[v]++
	}

	printed := PrintedFaces(t)
	if len(counts) != len(printed) {
		return errors.Wrapf(errutil.ErrConfig, "model %s: %s maps onto %d distinct values, die has %d faces", r.name, t, len(counts), len(printed))
	}
	per := -1
	for _, v := range printed {
		c, ok := counts[v]
		if !ok {
			return errors.Wrapf(errutil.ErrConfig, "model %s: %s value %d is never reached", r.name, t, v)
		}
		if per < 0 {
			per = c
		}
		if c != per {
			return errors.Wrapf(errutil.ErrConfig, "model %s: %s value %d owns %d collider faces, want %d", r.name, t, v, c, per)
		}
	}
	return nil
}
