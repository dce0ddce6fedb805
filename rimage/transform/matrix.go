package transform

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Mat33 is a 3x3 matrix indexed [row][column], used for K and R.
type Mat33 [3][3]float64

// Mat34 is a 3x4 matrix indexed [row][column], used for P.
type Mat34 [3][4]float64

// Mat44 is a 4x4 matrix indexed [row][column], used for the stereo reprojection matrix Q.
type Mat44 [4][4]float64

// Identity33 returns the 3x3 identity matrix.
func Identity33() Mat33 {
	return Mat33{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// NewMat33 builds a Mat33 from 9 row-major values.
func NewMat33(data []float64) (Mat33, error) {
	var m Mat33
	if len(data) != 9 {
		return m, errors.Errorf("3x3 matrix needs 9 values, got %d", len(data))
	}
	for r := 0; r < 3; r++ {
		copy(m[r][:], data[r*3:r*3+3])
	}
	return m, nil
}

// NewMat34 builds a Mat34 from 12 row-major values.
func NewMat34(data []float64) (Mat34, error) {
	var m Mat34
	if len(data) != 12 {
		return m, errors.Errorf("3x4 matrix needs 12 values, got %d", len(data))
	}
	for r := 0; r < 3; r++ {
		copy(m[r][:], data[r*4:r*4+4])
	}
	return m, nil
}

// NewMat44 builds a Mat44 from 16 row-major values.
func NewMat44(data []float64) (Mat44, error) {
	var m Mat44
	if len(data) != 16 {
		return m, errors.Errorf("4x4 matrix needs 16 values, got %d", len(data))
	}
	for r := 0; r < 4; r++ {
		copy(m[r][:], data[r*4:r*4+4])
	}
	return m, nil
}

// At returns the element at (row, col).
func (m Mat33) At(row, col int) float64 {
	return m[row][col]
}

// Data returns the matrix as 9 row-major values.
func (m Mat33) Data() []float64 {
	return append(append(append([]float64{}, m[0][:]...), m[1][:]...), m[2][:]...)
}

// Dense returns a gonum copy of the matrix.
func (m Mat33) Dense() *mat.Dense {
	return mat.NewDense(3, 3, m.Data())
}

// Mul returns m * n.
func (m Mat33) Mul(n Mat33) Mat33 {
	var out Mat33
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = m[r][0]*n[0][c] + m[r][1]*n[1][c] + m[r][2]*n[2][c]
		}
	}
	return out
}

// MulVec3 returns m * v.
func (m Mat33) MulVec3(v [3]float64) [3]float64 {
	var out [3]float64
	for r := 0; r < 3; r++ {
		out[r] = m[r][0]*v[0] + m[r][1]*v[1] + m[r][2]*v[2]
	}
	return out
}

// Inverse returns the inverse of m, computed with gonum. Singular matrices are an error.
func (m Mat33) Inverse() (Mat33, error) {
	var inv mat.Dense
	if err := inv.Inverse(m.Dense()); err != nil {
		return Mat33{}, errors.Wrap(err, "cannot invert 3x3 matrix")
	}
	var out Mat33
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = inv.At(r, c)
		}
	}
	return out, nil
}

// At returns the element at (row, col).
func (m Mat34) At(row, col int) float64 {
	return m[row][col]
}

// Data returns the matrix as 12 row-major values.
func (m Mat34) Data() []float64 {
	return append(append(append([]float64{}, m[0][:]...), m[1][:]...), m[2][:]...)
}

// Dense returns a gonum copy of the matrix.
func (m Mat34) Dense() *mat.Dense {
	return mat.NewDense(3, 4, m.Data())
}

// Left33 returns the left 3x3 block of m.
func (m Mat34) Left33() Mat33 {
	var out Mat33
	for r := 0; r < 3; r++ {
		copy(out[r][:], m[r][:3])
	}
	return out
}

// MulVec4 returns m * v.
func (m Mat34) MulVec4(v [4]float64) [3]float64 {
	var out [3]float64
	for r := 0; r < 3; r++ {
		out[r] = m[r][0]*v[0] + m[r][1]*v[1] + m[r][2]*v[2] + m[r][3]*v[3]
	}
	return out
}

// At returns the element at (row, col).
func (m Mat44) At(row, col int) float64 {
	return m[row][col]
}

// Data returns the matrix as 16 row-major values.
func (m Mat44) Data() []float64 {
	out := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		out = append(out, m[r][:]...)
	}
	return out
}

// Dense returns a gonum copy of the matrix.
func (m Mat44) Dense() *mat.Dense {
	return mat.NewDense(4, 4, m.Data())
}

// MulVec4 returns m * v.
func (m Mat44) MulVec4(v [4]float64) [4]float64 {
	var out [4]float64
	for r := 0; r < 4; r++ {
		out[r] = m[r][0]*v[0] + m[r][1]*v[1] + m[r][2]*v[2] + m[r][3]*v[3]
	}
	return out
}
