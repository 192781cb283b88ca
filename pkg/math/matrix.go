package math

import "errors"

var (
	ErrDimensionMismatch = errors.New("matrix dimension mismatch")
	ErrNotSquare         = errors.New("in-place transpose requires a square matrix")
	ErrBufferTooSmall    = errors.New("buffer too small for matrix dimensions")
)

// Matrix is a row-major view over a caller-owned buffer.
// Element (r, c) is Data[r*Cols+c]. The view never allocates or copies its
// backing storage.
type Matrix struct {
	Rows, Cols int
	Data       []float32
}

// NewMatrix wraps data as a rows x cols matrix.
func NewMatrix(data []float32, rows, cols int) (Matrix, error) {
	m := Matrix{Rows: rows, Cols: cols, Data: data}
	if err := m.check(); err != nil {
		return Matrix{}, err
	}
	return m, nil
}

// check verifies the view's shape against its backing buffer.
func (m Matrix) check() error {
	if m.Rows < 0 || m.Cols < 0 {
		return ErrDimensionMismatch
	}
	if len(m.Data) < m.Rows*m.Cols {
		return ErrBufferTooSmall
	}
	return nil
}

func checkAll(ms ...Matrix) error {
	for _, m := range ms {
		if err := m.check(); err != nil {
			return err
		}
	}
	return nil
}

// At returns element (r, c).
func (m Matrix) At(r, c int) float32 {
	return m.Data[r*m.Cols+c]
}

// Set sets element (r, c).
func (m Matrix) Set(r, c int, v float32) {
	m.Data[r*m.Cols+c] = v
}

// Row returns row r as a subslice of the backing buffer.
func (m Matrix) Row(r int) []float32 {
	return m.Data[r*m.Cols : (r+1)*m.Cols]
}

// Multiply stores a * b in res.
// a.Cols must equal b.Rows and res must be a.Rows x b.Cols; otherwise
// ErrDimensionMismatch is returned and res is not written. A view whose
// buffer is shorter than Rows*Cols gives ErrBufferTooSmall.
// res must not share storage with a or b.
func Multiply(a, b, res Matrix) error {
	if err := checkAll(a, b, res); err != nil {
		return err
	}
	if a.Cols != b.Rows || res.Rows != a.Rows || res.Cols != b.Cols {
		return ErrDimensionMismatch
	}
	for r := 0; r < a.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			var sum float32
			for k := 0; k < a.Cols; k++ {
				sum += a.Data[r*a.Cols+k] * b.Data[k*b.Cols+c]
			}
			res.Data[r*res.Cols+c] = sum
		}
	}
	return nil
}

// Transpose transposes m in place. Only square matrices can be transposed
// in place; use TransposeTo for rectangular shapes.
func (m Matrix) Transpose() error {
	if err := m.check(); err != nil {
		return err
	}
	if m.Rows != m.Cols {
		return ErrNotSquare
	}
	n := m.Cols
	for r := 0; r < n; r++ {
		for c := r + 1; c < n; c++ {
			m.Data[r*n+c], m.Data[c*n+r] = m.Data[c*n+r], m.Data[r*n+c]
		}
	}
	return nil
}

// TransposeTo writes the transpose of m into dst, which must be m.Cols x m.Rows.
func (m Matrix) TransposeTo(dst Matrix) error {
	if err := checkAll(m, dst); err != nil {
		return err
	}
	if dst.Rows != m.Cols || dst.Cols != m.Rows {
		return ErrDimensionMismatch
	}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			dst.Data[c*dst.Cols+r] = m.Data[r*m.Cols+c]
		}
	}
	return nil
}

// Mat3 is a 3x3 matrix in row-major order.
// Layout: [m0 m1 m2]
//
//	[m3 m4 m5]
//	[m6 m7 m8]
type Mat3 [9]float32

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Mat3FromRows builds a matrix whose rows are a, b and c.
func Mat3FromRows(a, b, c Vec3) Mat3 {
	return Mat3{
		a.X, a.Y, a.Z,
		b.X, b.Y, b.Z,
		c.X, c.Y, c.Z,
	}
}

// Row returns row i as a vector.
func (m Mat3) Row(i int) Vec3 {
	return Vec3{m[i*3], m[i*3+1], m[i*3+2]}
}

// Mul returns m * other.
func (m Mat3) Mul(other Mat3) Mat3 {
	var result Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			result[r*3+c] = m[r*3]*other[c] + m[r*3+1]*other[3+c] + m[r*3+2]*other[6+c]
		}
	}
	return result
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Det returns the determinant.
func (m Mat3) Det() float32 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// View returns a Matrix view backed by m's storage.
func (m *Mat3) View() Matrix {
	return Matrix{Rows: 3, Cols: 3, Data: m[:]}
}

// MulMat returns the row vector v multiplied by m (v * m).
func (v Vec3) MulMat(m Mat3) Vec3 {
	return Vec3{
		v.X*m[0] + v.Y*m[3] + v.Z*m[6],
		v.X*m[1] + v.Y*m[4] + v.Z*m[7],
		v.X*m[2] + v.Y*m[5] + v.Z*m[8],
	}
}
