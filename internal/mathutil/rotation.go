package mathutil

import "math"

// Rot2D returns a homogeneous rotation matrix. Angle in degrees.
func Rot2D(deg float64) Mat3 {
	s, c := math.Sincos(Deg2Rad(deg))
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Translate2D returns a homogeneous translation matrix.
func Translate2D(x, y float64) Mat3 {
	return Mat3{
		1, 0, x,
		0, 1, y,
		0, 0, 1,
	}
}

// Scale2D returns a homogeneous scale matrix. Negative factors mirror the axis.
func Scale2D(x, y float64) Mat3 {
	return Mat3Diag(x, y, 1)
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}
