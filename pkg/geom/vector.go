// Package geom provides the small amount of 3D math needed to reason about
// settled dice: vectors, rotations, rays and rigid transforms.
package geom

import "math"

const epsilon = 1e-9

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var (
	Zero = Vector3{}
	Up   = Vector3{0, 1, 0}
	Down = Vector3{0, -1, 0}
)

func Vec(x, y, z float64) Vector3 {
	return Vector3{x, y, z}
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector, the zero vector stays zero
func (v Vector3) Normalize() Vector3 {
	l := v.Len()
	if l < epsilon {
		return Zero
	}
	return v.Scale(1 / l)
}

// ApproxEqual compares component-wise within tol
func (v Vector3) ApproxEqual(o Vector3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}
