package linalg

import (
	"gonum.org/v1/gonum/mat"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/complexnum"
)

// CreateComplexMatrix returns an n x n complex zero matrix, or nil when n is
// not positive.
func CreateComplexMatrix(n int) *mat.CDense {
	if n <= 0 {
		return nil
	}
	return mat.NewCDense(n, n, nil)
}

func CreateComplexVector(n int) []complex128 {
	if n <= 0 {
		return nil
	}
	return make([]complex128, n)
}

// ComplexGaussianElimination mirrors GaussianElimination for complex
// coefficients, pivoting on the largest modulus.
func ComplexGaussianElimination(a *mat.CDense, b []complex128) ([]complex128, error) {
	if a == nil {
		return nil, ErrDimensionMismatch
	}
	rows, cols := a.Dims()
	if rows != cols || len(b) != rows {
		return nil, ErrDimensionMismatch
	}
	n := rows

	w := make([][]complex128, n)
	for i := range n {
		w[i] = make([]complex128, n+1)
		for j := range n {
			w[i][j] = a.At(i, j)
		}
		w[i][n] = b[i]
	}

	for k := range n {
		pivotRow := k
		maxVal := complexnum.Magnitude(w[k][k])
		for i := k + 1; i < n; i++ {
			if v := complexnum.Magnitude(w[i][k]); v > maxVal {
				maxVal = v
				pivotRow = i
			}
		}
		if maxVal < consts.PivotEpsilon {
			return nil, ErrSingular
		}
		w[k], w[pivotRow] = w[pivotRow], w[k]

		for i := k + 1; i < n; i++ {
			if w[i][k] == 0 {
				continue
			}
			factor, err := complexnum.Div(w[i][k], w[k][k])
			if err != nil {
				return nil, ErrSingular
			}
			for j := k; j <= n; j++ {
				w[i][j] -= factor * w[k][j]
			}
		}
	}

	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		sum := w[i][n]
		for j := i + 1; j < n; j++ {
			sum -= w[i][j] * x[j]
		}
		v, err := complexnum.Div(sum, w[i][i])
		if err != nil {
			return nil, ErrSingular
		}
		x[i] = v
	}

	return x, nil
}

// DenseComplexSystem accumulates complex MNA stamps.
type DenseComplexSystem struct {
	a   *mat.CDense
	rhs []complex128
	n   int
}

var _ ComplexSystem = (*DenseComplexSystem)(nil)

func NewDenseComplexSystem(n int) *DenseComplexSystem {
	return &DenseComplexSystem{a: CreateComplexMatrix(n), rhs: CreateComplexVector(n), n: n}
}

func (s *DenseComplexSystem) Size() int { return s.n }

func (s *DenseComplexSystem) AddComplexElement(i, j int, value complex128) {
	if i < 0 || j < 0 || i >= s.n || j >= s.n {
		return
	}
	s.a.Set(i, j, s.a.At(i, j)+value)
}

func (s *DenseComplexSystem) AddComplexRHS(i int, value complex128) {
	if i < 0 || i >= s.n {
		return
	}
	s.rhs[i] += value
}

func (s *DenseComplexSystem) Clear() {
	for i := range s.n {
		for j := range s.n {
			s.a.Set(i, j, 0)
		}
		s.rhs[i] = 0
	}
}

func (s *DenseComplexSystem) Solve() ([]complex128, error) {
	if s.n == 0 {
		return []complex128{}, nil
	}
	return ComplexGaussianElimination(s.a, s.rhs)
}
