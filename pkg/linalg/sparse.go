package linalg

import (
	"fmt"

	"github.com/edp1096/sparse"
)

type entryKey struct{ row, col int }

// coordinates keeps stamps in insertion order so the sparse matrix is built
// the same way on every solve.
type coordinates[T float64 | complex128] struct {
	index  map[entryKey]int
	keys   []entryKey
	values []T
}

func newCoordinates[T float64 | complex128]() coordinates[T] {
	return coordinates[T]{index: make(map[entryKey]int)}
}

func (c *coordinates[T]) add(i, j int, v T) {
	k := entryKey{i, j}
	if idx, ok := c.index[k]; ok {
		c.values[idx] += v
		return
	}
	c.index[k] = len(c.keys)
	c.keys = append(c.keys, k)
	c.values = append(c.values, v)
}

func (c *coordinates[T]) reset() {
	c.index = make(map[entryKey]int)
	c.keys = c.keys[:0]
	c.values = c.values[:0]
}

func sparseConfig(isComplex bool) *sparse.Configuration {
	return &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: isComplex,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
}

// SparseSystem solves real MNA systems with the sparse LU package. The
// sparse matrix uses 1-based indices, so unknown i lives at row i+1.
type SparseSystem struct {
	n       int
	entries coordinates[float64]
	rhs     []float64
}

var _ RealSystem = (*SparseSystem)(nil)

func NewSparseSystem(n int) *SparseSystem {
	return &SparseSystem{n: n, entries: newCoordinates[float64](), rhs: make([]float64, n+1)}
}

func (s *SparseSystem) Size() int { return s.n }

func (s *SparseSystem) AddElement(i, j int, value float64) {
	if i < 0 || j < 0 || i >= s.n || j >= s.n {
		return
	}
	s.entries.add(i, j, value)
}

func (s *SparseSystem) AddRHS(i int, value float64) {
	if i < 0 || i >= s.n {
		return
	}
	s.rhs[i+1] += value
}

func (s *SparseSystem) Clear() {
	s.entries.reset()
	for i := range s.rhs {
		s.rhs[i] = 0
	}
}

func (s *SparseSystem) Solve() ([]float64, error) {
	if s.n == 0 {
		return []float64{}, nil
	}

	m, err := sparse.Create(int64(s.n), sparseConfig(false))
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}
	defer m.Destroy()

	for idx, k := range s.entries.keys {
		e := m.GetElement(int64(k.row+1), int64(k.col+1))
		if e == nil {
			return nil, fmt.Errorf("sparse element (%d,%d) unavailable", k.row, k.col)
		}
		e.Real += s.entries.values[idx]
	}

	if err := m.Factor(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	rhs := make([]float64, len(s.rhs))
	copy(rhs, s.rhs)
	solution, err := m.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("sparse solve: %w", err)
	}

	out := make([]float64, s.n)
	copy(out, solution[1:s.n+1])
	return out, nil
}

// SparseComplexSystem is the complex counterpart of SparseSystem with
// separated real/imaginary right-hand-side vectors.
type SparseComplexSystem struct {
	n       int
	entries coordinates[complex128]
	rhs     []float64
	rhsImag []float64
}

var _ ComplexSystem = (*SparseComplexSystem)(nil)

func NewSparseComplexSystem(n int) *SparseComplexSystem {
	return &SparseComplexSystem{
		n:       n,
		entries: newCoordinates[complex128](),
		rhs:     make([]float64, n+1),
		rhsImag: make([]float64, n+1),
	}
}

func (s *SparseComplexSystem) Size() int { return s.n }

func (s *SparseComplexSystem) AddComplexElement(i, j int, value complex128) {
	if i < 0 || j < 0 || i >= s.n || j >= s.n {
		return
	}
	s.entries.add(i, j, value)
}

func (s *SparseComplexSystem) AddComplexRHS(i int, value complex128) {
	if i < 0 || i >= s.n {
		return
	}
	s.rhs[i+1] += real(value)
	s.rhsImag[i+1] += imag(value)
}

func (s *SparseComplexSystem) Clear() {
	s.entries.reset()
	for i := range s.rhs {
		s.rhs[i] = 0
		s.rhsImag[i] = 0
	}
}

func (s *SparseComplexSystem) Solve() ([]complex128, error) {
	if s.n == 0 {
		return []complex128{}, nil
	}

	m, err := sparse.Create(int64(s.n), sparseConfig(true))
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}
	defer m.Destroy()

	for idx, k := range s.entries.keys {
		e := m.GetElement(int64(k.row+1), int64(k.col+1))
		if e == nil {
			return nil, fmt.Errorf("sparse element (%d,%d) unavailable", k.row, k.col)
		}
		v := s.entries.values[idx]
		e.Real += real(v)
		e.Imag += imag(v)
	}

	if err := m.Factor(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	rhs := make([]float64, len(s.rhs))
	rhsImag := make([]float64, len(s.rhsImag))
	copy(rhs, s.rhs)
	copy(rhsImag, s.rhsImag)
	re, im, err := m.SolveComplex(rhs, rhsImag)
	if err != nil {
		return nil, fmt.Errorf("sparse complex solve: %w", err)
	}

	out := make([]complex128, s.n)
	for i := range out {
		out[i] = complex(re[i+1], im[i+1])
	}
	return out, nil
}
