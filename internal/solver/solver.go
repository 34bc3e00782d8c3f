// Package solver defines the discretization contract and its
// mixed-dimensional composition.
//
// A Solver discretizes one grid: NDof reports the number of unknowns and
// MatrixRHS returns a square sparse matrix of that size with a matching
// right-hand side. MixedDim composes a Solver over every grid of a bucket
// and couples neighboring grids through a Coupling.
package solver

import (
	"errors"
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/params"
)

var (
	ErrNotImplemented = errors.New("solver: method not implemented")
	ErrShapeMismatch  = errors.New("solver: shape mismatch")
	ErrNotConverged   = errors.New("solver: linear solver did not converge")
	ErrTooLarge       = errors.New("solver: system too large for the direct solver")
)

// Solver is the per-grid discretization contract.
type Solver interface {
	NDof(g *grid.Grid) (int, error)
	MatrixRHS(g *grid.Grid, d *params.Data) (*sparse.CSR, []float64, error)
}

// Unimplemented is the base discretization. Embed it and override both
// methods; the defaults fail with ErrNotImplemented.
type Unimplemented struct{}

func (Unimplemented) NDof(*grid.Grid) (int, error) {
	return 0, fmt.Errorf("NDof: %w", ErrNotImplemented)
}

func (Unimplemented) MatrixRHS(*grid.Grid, *params.Data) (*sparse.CSR, []float64, error) {
	return nil, nil, fmt.Errorf("MatrixRHS: %w", ErrNotImplemented)
}

// AssemblyError reports a failure while discretizing a given grid.
type AssemblyError struct {
	Grid string
	Dim  int
	Err  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed on grid %q (%dd): %v", e.Grid, e.Dim, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// CheckShape verifies that A is n × n and b has length n.
func CheckShape(n int, A *sparse.CSR, b []float64) error {
	if A == nil {
		return fmt.Errorf("%w: nil matrix", ErrShapeMismatch)
	}
	r, c := A.Dims()
	if r != n || c != n {
		return fmt.Errorf("%w: matrix is %d×%d, want %d×%d", ErrShapeMismatch, r, c, n, n)
	}
	if len(b) != n {
		return fmt.Errorf("%w: rhs has length %d, want %d", ErrShapeMismatch, len(b), n)
	}
	return nil
}

// add accumulates v into (i, j).
func add(m *sparse.DOK, i, j int, v float64) {
	m.Set(i, j, m.At(i, j)+v)
}

// addBlock accumulates src into dst at row and column offsets.
func addBlock(dst *sparse.DOK, src *sparse.CSR, ro, co int) {
	src.DoNonZero(func(i, j int, v float64) {
		add(dst, ro+i, co+j, v)
	})
}

// MulVec returns A·x.
func MulVec(A *sparse.CSR, x []float64) []float64 {
	r, _ := A.Dims()
	y := make([]float64, r)
	A.DoNonZero(func(i, j int, v float64) {
		y[i] += v * x[j]
	})
	return y
}
