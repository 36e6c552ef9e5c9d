package geom

// Ray is a half line, Length bounds the pick distance
type Ray struct {
	Origin    Vector3 `json:"origin"`
	Direction Vector3 `json:"direction"`
	Length    float64 `json:"length"`
}

func NewRay(origin, direction Vector3, length float64) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize(), Length: length}
}

// Transform is the rigid pose of a body
type Transform struct {
	Position Vector3    `json:"position"`
	Rotation Quaternion `json:"rotation"`
}

// ToLocal expresses a world space direction in the body's local frame
func (t Transform) ToLocal(dir Vector3) Vector3 {
	return t.Rotation.Conjugate().Rotate(dir)
}

// ToWorld expresses a local direction in world space
func (t Transform) ToWorld(dir Vector3) Vector3 {
	return t.Rotation.Rotate(dir)
}
