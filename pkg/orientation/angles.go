package orientation

import (
	"github.com/Faultbox/icehalo/pkg/math"
)

// Angles is one crystal orientation in radians: the main axis points at
// (Lon, Lat) and the crystal is spun by Roll around that axis.
type Angles struct {
	Lon, Lat, Roll float32
}

// Basis returns the crystal frame basis for a.
func (a Angles) Basis() math.Mat3 {
	return math.FrameBasis(a.Lon, a.Lat, a.Roll)
}

// ToLocal expresses a sky-frame vector in the crystal frame.
func (a Angles) ToLocal(v math.Vec3) math.Vec3 {
	return v.MulMat(a.Basis().Transpose())
}

// ToGlobal maps a crystal-frame vector back into the sky frame.
func (a Angles) ToGlobal(v math.Vec3) math.Vec3 {
	return v.MulMat(a.Basis())
}

// Axis returns the sky-frame direction of the crystal main axis.
func (a Angles) Axis() math.Vec3 {
	return math.Direction(a.Lon, a.Lat)
}
