package cpdtrack

import "gonum.org/v1/gonum/mat"

// matrix is a small convenience wrapper around gonum's mat.Dense giving
// cpd.go and optimizer.go terse (row, col) accessors while keeping the
// actual linear algebra (products, linear solves) on gonum/mat.Dense, the
// same library the teacher uses for its own dense numeric work
// (internal/db/db.go's gonum.org/v1/gonum/stat).
type matrix struct {
	d          *mat.Dense
	rows, cols int
}

func newMatrix(rows, cols int) *matrix {
	return &matrix{d: mat.NewDense(rows, cols, nil), rows: rows, cols: cols}
}

func (m *matrix) at(i, j int) float64     { return m.d.At(i, j) }
func (m *matrix) set(i, j int, v float64) { m.d.Set(i, j, v) }

// mul returns m * other as a new matrix.
func (m *matrix) mul(other *matrix) *matrix {
	out := newMatrix(m.rows, other.cols)
	out.d.Mul(m.d, other.d)
	return out
}

// solve solves m*X = b for X via gonum's Dense.Solve (LU for a square m,
// QR least squares otherwise), returning ok=false whenever gonum reports an
// error, which includes a singular or near-singular square system.
func (m *matrix) solve(b *matrix) (*matrix, bool) {
	out := newMatrix(m.rows, b.cols)
	if err := out.d.Solve(m.d, b.d); err != nil {
		return nil, false
	}
	return out, true
}
