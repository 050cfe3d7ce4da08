// Package vmath provides the 2D vector helpers the simulation is built on.
// Vectors are mgl64.Vec2 everywhere; these functions only cover the
// operations mathgl does not define for Vec2.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cross returns the scalar 2D cross product a.X*b.Y - a.Y*b.X.
func Cross(a, b mgl64.Vec2) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// CrossSV returns s × v, the 2D cross product of a scalar angular
// velocity with a vector: (-s*v.Y, s*v.X).
func CrossSV(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v.Y(), s * v.X()}
}

// Perp returns v rotated 90° counter-clockwise.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v.Y(), v.X()}
}

// Rotate rotates v by angle radians.
func Rotate(v mgl64.Vec2, angle float64) mgl64.Vec2 {
	return mgl64.Rotate2D(angle).Mul2x1(v)
}

// Lerp linearly interpolates from a to b by t.
func Lerp(a, b mgl64.Vec2, t float64) mgl64.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b mgl64.Vec2) float64 {
	return b.Sub(a).Len()
}

// SafeNormalize returns the unit vector of v, or the zero vector when v
// has (near) zero length. Callers never see NaN.
func SafeNormalize(v mgl64.Vec2) mgl64.Vec2 {
	lenSq := v.Dot(v)
	if lenSq < 1e-24 {
		return mgl64.Vec2{}
	}
	return v.Mul(1 / math.Sqrt(lenSq))
}

// Clamp limits v to the [lo, hi] range.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
