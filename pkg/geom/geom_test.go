package geom

import (
	"math"
	"testing"
)

func TestFromUnitVectors(t *testing.T) {
	tables := []struct {
		from, to Vector3
	}{
		{Up, Up},
		{Up, Down},
		{Vec(1, 0, 0), Up},
		{Vec(0, 0, -1), Vec(1, 1, 0).Normalize()},
		{Vec(1, 2, 3).Normalize(), Down},
	}

	for _, c := range tables {
		q := FromUnitVectors(c.from, c.to)
		if got := q.Rotate(c.from); !got.ApproxEqual(c.to, 1e-9) {
			t.Fatalf("rotate %v onto %v: got %v", c.from, c.to, got)
		}
	}
}

func TestAxisAngle(t *testing.T) {
	q := AxisAngle(Up, math.Pi/2)
	if got := q.Rotate(Vec(1, 0, 0)); !got.ApproxEqual(Vec(0, 0, -1), 1e-9) {
		t.Fatalf("quarter turn around Y: got %v", got)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{Rotation: AxisAngle(Vec(1, 1, 0), 1.1).Mul(AxisAngle(Up, 0.3))}
	v := Vec(0.2, -0.7, 0.4)
	if got := tr.ToWorld(tr.ToLocal(v)); !got.ApproxEqual(v, 1e-9) {
		t.Fatalf("round trip: got %v want %v", got, v)
	}
}
