// Package facemap holds the per die type tables that translate a collider
// face index into the value printed on that face.
package facemap

import (
	"sort"

	"github.com/lonng/dicebox/protocol"
)

// FaceMap is an immutable collider-face-index to printed-value table
type FaceMap struct {
	values map[int]int
}

// New copies values into a FaceMap
func New(values map[int]int) FaceMap {
	m := FaceMap{values: make(map[int]int, len(values))}
	for face, v := range values {
		m.values[face] = v
	}
	return m
}

// Value returns the printed value of a collider face
func (m FaceMap) Value(face int) (int, bool) {
	v, ok := m.values[face]
	return v, ok
}

// Len is the number of mapped collider faces
func (m FaceMap) Len() int {
	return len(m.values)
}

// Faces returns the mapped collider face indices in ascending order
func (m FaceMap) Faces() []int {
	faces := make([]int, 0, len(m.values))
	for face := range m.values {
		faces = append(faces, face)
	}
	sort.Ints(faces)
	return faces
}

// Map returns a copy of the underlying table
func (m FaceMap) Map() map[int]int {
	out := make(map[int]int, len(m.values))
	for face, v := range m.values {
		out[face] = v
	}
	return out
}

// DeriveD100FromD10 builds a tens die from a d10 table. The d10 face
// printed "10" stands for the tens digit "0", every other value v becomes
// v*10.
func DeriveD100FromD10(d10 FaceMap) FaceMap {
	out := FaceMap{values: make(map[int]int, d10.Len())}
	for face, v := range d10.values {
		if v == 10 {
			out.values[face] = 0
		} else {
			out.values[face] = v * 10
		}
	}
	return out
}

// PrintedFaces returns the set of values printed on a physical die
func PrintedFaces(t protocol.DieType) []int {
	n := t.Sides()
	switch t {
	case protocol.D10:
		faces := make([]int, 10)
		for i := range faces {
			faces[i] = i
		}
		return faces
	case protocol.D100:
		faces := make([]int, 10)
		for i := range faces {
			faces[i] = i * 10
		}
		return faces
	}
	faces := make([]int, n)
	for i := range faces {
		faces[i] = i + 1
	}
	return faces
}
