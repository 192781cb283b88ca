package math

import "math"

// AxisAngle returns the Rodrigues rotation for a unit axis and an angle in
// radians, laid out for row vectors: a vector v is rotated by v.MulMat(R).
// The result is the transpose of the column-vector form
// cos(a)*I + sin(a)*K + (1-cos(a))*axis*axis^T.
func AxisAngle(axis Vec3, angle float32) Mat3 {
	s64, c64 := math.Sincos(float64(angle))
	c := float32(c64)
	s := float32(s64)
	t := 1 - c

	x, y, z := axis.X, axis.Y, axis.Z

	return Mat3{
		t*x*x + c, t*x*y + s*z, t*x*z - s*y,
		t*x*y - s*z, t*y*y + c, t*y*z + s*x,
		t*x*z + s*y, t*y*z - s*x, t*z*z + c,
	}
}

// Rotate returns v rotated by angle around the unit axis.
func (v Vec3) Rotate(axis Vec3, angle float32) Vec3 {
	return v.MulMat(AxisAngle(axis, angle))
}

// RotateVecs rotates every vector in vs in place.
func RotateVecs(axis Vec3, angle float32, vs []Vec3) {
	r := AxisAngle(axis, angle)
	for i := range vs {
		vs[i] = vs[i].MulMat(r)
	}
}

// RotateFlat rotates N row vectors stored contiguously in buf
// (x0 y0 z0 x1 y1 z1 ...). The product is computed into scratch, which must
// hold at least len(buf) elements, and copied back over buf.
func RotateFlat(axis Vec3, angle float32, buf, scratch []float32) error {
	r := AxisAngle(axis, angle)
	return mulRowsFlat(buf, scratch, &r)
}

// mulRowsFlat replaces each row vector of buf with row * m.
func mulRowsFlat(buf, scratch []float32, m *Mat3) error {
	if len(buf)%3 != 0 {
		return ErrDimensionMismatch
	}
	if len(scratch) < len(buf) {
		return ErrBufferTooSmall
	}
	n := len(buf) / 3
	in := Matrix{Rows: n, Cols: 3, Data: buf}
	out := Matrix{Rows: n, Cols: 3, Data: scratch[:len(buf)]}
	if err := Multiply(in, m.View(), out); err != nil {
		return err
	}
	copy(buf, out.Data)
	return nil
}
