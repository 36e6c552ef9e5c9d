package geom

import "math"

// Quaternion is a rotation, always kept normalized by the constructors
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

var Identity = Quaternion{0, 0, 0, 1}

// AxisAngle rotates by angle (radians) around axis
func AxisAngle(axis Vector3, angle float64) Quaternion {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quaternion{a.X * s, a.Y * s, a.Z * s, math.Cos(angle / 2)}
}

// FromUnitVectors returns the shortest rotation taking unit vector from onto to
func FromUnitVectors(from, to Vector3) Quaternion {
	d := from.Dot(to)
	if d < -1+1e-7 {
		// opposite vectors: rotate half a turn around any orthogonal axis
		axis := Vec(1, 0, 0).Cross(from)
		if axis.Len() < 1e-6 {
			axis = Vec(0, 1, 0).Cross(from)
		}
		return AxisAngle(axis, math.Pi)
	}
	c := from.Cross(to)
	return Quaternion{c.X, c.Y, c.Z, 1 + d}.Normalize()
}

// Mul composes rotations, q.Mul(r) applies r first
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{-q.X, -q.Y, -q.Z, q.W}
}

func (q Quaternion) Normalize() Quaternion {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l < epsilon {
		return Identity
	}
	return Quaternion{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Rotate applies the rotation to v
func (q Quaternion) Rotate(v Vector3) Vector3 {
	p := Quaternion{v.X, v.Y, v.Z, 0}
	r := q.Mul(p).Mul(q.Conjugate())
	return Vector3{r.X, r.Y, r.Z}
}
