// Package linalg solves the MNA linear systems. The dense routines do
// Gaussian elimination with partial pivoting on gonum storage; the sparse
// backend hands the same stamps to a Markowitz-ordered sparse LU.
package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/edp1096/toy-circuit/internal/consts"
)

var (
	ErrSingular          = errors.New("linalg: singular matrix")
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")
)

// CreateMatrix returns an n x n zero matrix, or nil when n is not positive.
func CreateMatrix(n int) *mat.Dense {
	if n <= 0 {
		return nil
	}
	return mat.NewDense(n, n, nil)
}

// CreateVector returns a zero vector of length n, or nil when n is not positive.
func CreateVector(n int) *mat.VecDense {
	if n <= 0 {
		return nil
	}
	return mat.NewVecDense(n, nil)
}

// GaussianElimination solves a*x = b. At every step the row with the largest
// magnitude in the pivot column is swapped up; a pivot below 1e-12 means the
// system is singular and (nil, ErrSingular) is returned. a and b are not
// modified.
func GaussianElimination(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	if a == nil || b == nil {
		return nil, ErrDimensionMismatch
	}
	rows, cols := a.Dims()
	if rows != cols || b.Len() != rows {
		return nil, ErrDimensionMismatch
	}
	n := rows

	// Augmented working copy [A|b]
	w := make([][]float64, n)
	for i := range n {
		w[i] = make([]float64, n+1)
		for j := range n {
			w[i][j] = a.At(i, j)
		}
		w[i][n] = b.AtVec(i)
	}

	for k := range n {
		pivotRow := k
		maxVal := math.Abs(w[k][k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(w[i][k]); v > maxVal {
				maxVal = v
				pivotRow = i
			}
		}
		if maxVal < consts.PivotEpsilon {
			return nil, ErrSingular
		}
		w[k], w[pivotRow] = w[pivotRow], w[k]

		for i := k + 1; i < n; i++ {
			factor := w[i][k] / w[k][k]
			if factor == 0 {
				continue
			}
			for j := k; j <= n; j++ {
				w[i][j] -= factor * w[k][j]
			}
		}
	}

	// Back substitution
	x := mat.NewVecDense(n, nil)
	for i := n - 1; i >= 0; i-- {
		sum := w[i][n]
		for j := i + 1; j < n; j++ {
			sum -= w[i][j] * x.AtVec(j)
		}
		x.SetVec(i, sum/w[i][i])
	}

	return x, nil
}

// DenseSystem accumulates real MNA stamps into gonum dense storage.
type DenseSystem struct {
	a   *mat.Dense
	rhs *mat.VecDense
	n   int
}

var _ RealSystem = (*DenseSystem)(nil)

func NewDenseSystem(n int) *DenseSystem {
	return &DenseSystem{a: CreateMatrix(n), rhs: CreateVector(n), n: n}
}

func (s *DenseSystem) Size() int { return s.n }

func (s *DenseSystem) AddElement(i, j int, value float64) {
	if i < 0 || j < 0 || i >= s.n || j >= s.n {
		return
	}
	s.a.Set(i, j, s.a.At(i, j)+value)
}

func (s *DenseSystem) AddRHS(i int, value float64) {
	if i < 0 || i >= s.n {
		return
	}
	s.rhs.SetVec(i, s.rhs.AtVec(i)+value)
}

func (s *DenseSystem) Clear() {
	if s.n == 0 {
		return
	}
	s.a.Zero()
	s.rhs.Zero()
}

func (s *DenseSystem) Solve() ([]float64, error) {
	if s.n == 0 {
		return []float64{}, nil
	}
	x, err := GaussianElimination(s.a, s.rhs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, s.n)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// Matrix exposes the assembled coefficients, mainly for diagnostics.
func (s *DenseSystem) Matrix() *mat.Dense { return s.a }

// RHS exposes the assembled right-hand side.
func (s *DenseSystem) RHS() *mat.VecDense { return s.rhs }
