// Package vec provides the three-component vector value used by vector
// symbols and vector expressions.
package vec

import (
	"fmt"
	"math"
)

// Vec3 is a fixed-width, three-component vector of float64.
type Vec3 struct {
	X, Y, Z float64
}

// New returns the vector (x, y, z).
func New(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Splat returns a vector with all components set to v.
func Splat(v float64) Vec3 {
	return Vec3{X: v, Y: v, Z: v}
}

// FromSlice builds a vector from up to three values; missing components are zero.
func FromSlice(vs []float64) Vec3 {
	var out Vec3
	for i, v := range vs {
		if i > 2 {
			break
		}
		out.Set(i, v)
	}
	return out
}

// Component returns the i-th component (0=x, 1=y, 2=z).
func (v Vec3) Component(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("vec: component index %d out of range", i))
}

// Set assigns the i-th component.
func (v *Vec3) Set(i int, val float64) {
	switch i {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	case 2:
		v.Z = val
	default:
		panic(fmt.Sprintf("vec: component index %d out of range", i))
	}
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale multiplies every component by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Abs is the euclidean norm.
func (v Vec3) Abs() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Phi is the azimuthal angle in the xy-plane.
func (v Vec3) Phi() float64 {
	return math.Atan2(v.Y, v.X)
}

// Theta is the polar angle measured from the z-axis. The zero vector has theta 0.
func (v Vec3) Theta() float64 {
	r := v.Abs()
	if r == 0 {
		return 0
	}
	return math.Acos(v.Z / r)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g,%g,%g)", v.X, v.Y, v.Z)
}
