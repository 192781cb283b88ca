package sim

import (
	gomath "math"

	"github.com/Faultbox/icehalo/pkg/math"
)

// SunDirection converts the sun position in degrees to the unit vector
// pointing from the observer towards the sun. Azimuth is measured
// counter-clockwise from +X, altitude is the elevation above the XY plane.
func SunDirection(azimuth, altitude float32) math.Vec3 {
	return math.Direction(degToRad(azimuth), degToRad(altitude))
}

// SunRay returns the propagation direction of sunlight, the reverse of
// SunDirection.
func SunRay(azimuth, altitude float32) math.Vec3 {
	return SunDirection(azimuth, altitude).Scale(-1)
}

func degToRad(deg float32) float32 {
	return float32(float64(deg) * gomath.Pi / 180)
}
