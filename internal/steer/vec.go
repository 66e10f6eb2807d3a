// Package steer turns desire into tile steps: it composes a continuous
// movement vector from momentum, goal attraction, scent gradient, social
// force, exploration bias, and noise, then scores the nine candidate moves
// and picks the best passable one.
package steer

import "math"

// Vec is a continuous 2D vector in tile space.
type Vec struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec {
	return Vec{v.X * s, v.Y * s}
}

// Len returns the vector magnitude.
func (v Vec) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Norm returns the unit vector, or the zero vector for near-zero input.
func (v Vec) Norm() Vec {
	l := v.Len()
	if l < 1e-9 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// Dot returns the dot product.
func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// IsZero reports whether the vector has no appreciable component.
func (v Vec) IsZero() bool {
	return math.Abs(v.X) < 1e-9 && math.Abs(v.Y) < 1e-9
}
