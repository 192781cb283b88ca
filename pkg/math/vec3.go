// Package math provides the fixed-size linear algebra used by the halo
// engine: 3-vectors, 3x3 rotations, a row-major matrix view and the
// sky/crystal frame transforms.
package math

import (
	"errors"
	"math"
)

var (
	ErrZeroLength = errors.New("cannot normalize zero-length vector")
)

// Vec3 is a 3D vector of any magnitude.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// To returns the displacement from v to other (other - v).
func (v Vec3) To(other Vec3) Vec3 {
	return other.Sub(v)
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the right-handed cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize scales v to unit length in place.
// A zero vector is left unchanged and ErrZeroLength is returned.
func (v *Vec3) Normalize() error {
	l := v.Length()
	if l == 0 {
		return ErrZeroLength
	}
	v.X /= l
	v.Y /= l
	v.Z /= l
	return nil
}

// Normalized returns a unit vector with the direction of v.
func (v Vec3) Normalized() (Vec3, error) {
	err := v.Normalize()
	return v, err
}

// Distance returns the distance to another point.
func (v Vec3) Distance(other Vec3) float32 {
	return v.To(other).Length()
}

// Array returns the components as [x, y, z].
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// Vec3FromSlice reads a vector from the first three elements of s.
func Vec3FromSlice(s []float32) Vec3 {
	return Vec3{s[0], s[1], s[2]}
}

// Direction converts spherical coordinates (radians) to a unit vector:
// (cos(lat)cos(lon), cos(lat)sin(lon), sin(lat)).
func Direction(lon, lat float32) Vec3 {
	sLon, cLon := math.Sincos(float64(lon))
	sLat, cLat := math.Sincos(float64(lat))
	return Vec3{
		float32(cLat * cLon),
		float32(cLat * sLon),
		float32(sLat),
	}
}
