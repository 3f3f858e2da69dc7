package linalg

import "fmt"

// RealStamper receives MNA contributions. Indices are 0-based unknown
// indices; a negative index is the ground reference and is dropped.
type RealStamper interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
}

// ComplexStamper is the AC counterpart of RealStamper.
type ComplexStamper interface {
	AddComplexElement(i, j int, value complex128)
	AddComplexRHS(i int, value complex128)
}

type RealSystem interface {
	RealStamper
	Size() int
	Clear()
	Solve() ([]float64, error)
}

type ComplexSystem interface {
	ComplexStamper
	Size() int
	Clear()
	Solve() ([]complex128, error)
}

// Backend selects the solver implementation.
type Backend string

const (
	BackendDense  Backend = "dense"
	BackendSparse Backend = "sparse"
)

// ParseBackend maps a config/flag string to a Backend; empty means dense.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendDense:
		return BackendDense, nil
	case BackendSparse:
		return BackendSparse, nil
	default:
		return "", fmt.Errorf("linalg: unknown solver backend %q", s)
	}
}

// NewRealSystem allocates an n-unknown real system on the given backend.
func NewRealSystem(b Backend, n int) RealSystem {
	if b == BackendSparse {
		return NewSparseSystem(n)
	}
	return NewDenseSystem(n)
}

// NewComplexSystem allocates an n-unknown complex system on the given backend.
func NewComplexSystem(b Backend, n int) ComplexSystem {
	if b == BackendSparse {
		return NewSparseComplexSystem(n)
	}
	return NewDenseComplexSystem(n)
}
