package prop

import (
	"math"

	"rig-animator/internal/mathutil"
)

// Transform is a 2D similarity transform with independent axis scales.
// Points map as translate · rotate · scale.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"` // degrees
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
}

// Identity returns the transform at the origin with unit scale.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// At returns a unit-scale transform placed at (x, y).
func At(x, y float64) Transform {
	return Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

// Matrix returns the homogeneous matrix of t.
func (t Transform) Matrix() mathutil.Mat3 {
	return mathutil.Mat3Mul(
		mathutil.Mat3Mul(mathutil.Translate2D(t.X, t.Y), mathutil.Rot2D(t.Rotation)),
		mathutil.Scale2D(t.ScaleX, t.ScaleY),
	)
}

// Apply maps a local point into world space.
func (t Transform) Apply(local mathutil.Vec2) mathutil.Vec2 {
	scaled := mathutil.Vec2{local[0] * t.ScaleX, local[1] * t.ScaleY}
	return scaled.Rotate(t.Rotation).Add(mathutil.Vec2{t.X, t.Y})
}

// Lerp blends every scalar component; t=0 and t=1 reproduce the endpoints.
func (a Transform) Lerp(b Transform, t float64) Transform {
	return Transform{
		X:        mathutil.Lerp(a.X, b.X, t),
		Y:        mathutil.Lerp(a.Y, b.Y, t),
		Rotation: mathutil.Lerp(a.Rotation, b.Rotation, t),
		ScaleX:   mathutil.Lerp(a.ScaleX, b.ScaleX, t),
		ScaleY:   mathutil.Lerp(a.ScaleY, b.ScaleY, t),
	}
}

// PlaceSnap returns t with its translation changed so that local point snap
// lands on world point target. Rotation and scale are kept.
func (t Transform) PlaceSnap(snap, target mathutil.Vec2) Transform {
	scaled := mathutil.Vec2{snap[0] * t.ScaleX, snap[1] * t.ScaleY}
	origin := target.Sub(scaled.Rotate(t.Rotation))
	t.X, t.Y = origin[0], origin[1]
	return t
}

// Near reports whether a and b differ by less than eps in translation and
// rotation. Rotations are compared on the circle.
func (a Transform) Near(b Transform, eps float64) bool {
	return math.Abs(a.X-b.X) < eps &&
		math.Abs(a.Y-b.Y) < eps &&
		mathutil.AngleDist(a.Rotation, b.Rotation) < eps
}
