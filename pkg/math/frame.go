package math

import "math"

// FrameBasis returns the crystal frame for an axis pointing at (lon, lat)
// with an additional spin of roll around that axis. All angles in radians.
//
// Rows before the spin:
//
//	(-sin(lon),           cos(lon),           0)
//	(-cos(lon)*sin(lat), -sin(lon)*sin(lat),  cos(lat))
//	( cos(lat)*cos(lon),  cos(lat)*sin(lon),  sin(lat))
//
// Each row is then rotated by roll around the third row.
func FrameBasis(lon, lat, roll float32) Mat3 {
	sLon, cLon := math.Sincos(float64(lon))
	sLat, cLat := math.Sincos(float64(lat))

	basis := Mat3{
		float32(-sLon), float32(cLon), 0,
		float32(-cLon * sLat), float32(-sLon * sLat), float32(cLat),
		float32(cLat * cLon), float32(cLat * sLon), float32(sLat),
	}
	return basis.Mul(AxisAngle(basis.Row(2), roll))
}

// ToLocal transforms global (sky) vectors into the crystal frame in place.
func ToLocal(lon, lat, roll float32, vs []Vec3) {
	m := FrameBasis(lon, lat, roll).Transpose()
	for i := range vs {
		vs[i] = vs[i].MulMat(m)
	}
}

// ToGlobal transforms crystal-frame vectors back into the sky frame in place.
// It inverts ToLocal for the same angles.
func ToGlobal(lon, lat, roll float32, vs []Vec3) {
	m := FrameBasis(lon, lat, roll)
	for i := range vs {
		vs[i] = vs[i].MulMat(m)
	}
}

// ToLocalFlat is ToLocal over contiguous row vectors, using scratch
// (at least len(buf) elements) for the product.
func ToLocalFlat(lon, lat, roll float32, buf, scratch []float32) error {
	m := FrameBasis(lon, lat, roll)
	if err := m.View().Transpose(); err != nil {
		return err
	}
	return mulRowsFlat(buf, scratch, &m)
}

// ToGlobalFlat is ToGlobal over contiguous row vectors.
func ToGlobalFlat(lon, lat, roll float32, buf, scratch []float32) error {
	m := FrameBasis(lon, lat, roll)
	return mulRowsFlat(buf, scratch, &m)
}
