package mathutil

import "math"

// Vec2 is a 2-component vector (value type, stack-allocated).
type Vec2 [2]float64

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a[0] + b[0], a[1] + b[1]}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a[0] - b[0], a[1] - b[1]}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

func (v Vec2) Len() float64 {
	return math.Hypot(v[0], v[1])
}

// Dist returns the Euclidean distance between two points.
func (a Vec2) Dist(b Vec2) float64 {
	return a.Sub(b).Len()
}

// Rotate rotates v about the origin by deg degrees (x right, y down, positive = clockwise on screen).
func (v Vec2) Rotate(deg float64) Vec2 {
	s, c := math.Sincos(Deg2Rad(deg))
	return Vec2{v[0]*c - v[1]*s, v[0]*s + v[1]*c}
}

// Lerp blends a toward b; t=0 returns a and t=1 returns b exactly.
func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t)}
}
