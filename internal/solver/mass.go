package solver

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/params"
)

// MassMatrix is the cell-centered mass term φ·V·a/Δt.
type MassMatrix struct{}

func (MassMatrix) NDof(g *grid.Grid) (int, error) { return g.NumCells, nil }

func (MassMatrix) MatrixRHS(g *grid.Grid, d *params.Data) (*sparse.CSR, []float64, error) {
	var p *params.Parameters
	if d != nil {
		p = d.Param
	}
	if err := p.Validate(g.NumFaces, g.NumCells); err != nil {
		return nil, nil, err
	}
	phi := p.Porosities(g.NumCells)
	a := p.Apertures(g.NumCells)
	dt := p.TimeStep()

	A := sparse.NewDOK(g.NumCells, g.NumCells)
	for c := 0; c < g.NumCells; c++ {
		A.Set(c, c, phi[c]*g.CellVolumes[c]*a[c]/dt)
	}
	return A.ToCSR(), make([]float64, g.NumCells), nil
}

// Source integrates the cell sources into the right-hand side.
type Source struct{}

func (Source) NDof(g *grid.Grid) (int, error) { return g.NumCells, nil }

func (Source) MatrixRHS(g *grid.Grid, d *params.Data) (*sparse.CSR, []float64, error) {
	var p *params.Parameters
	if d != nil {
		p = d.Param
	}
	if err := p.Validate(g.NumFaces, g.NumCells); err != nil {
		return nil, nil, err
	}
	rhs := append([]float64(nil), p.Sources(g.NumCells)...)
	return sparse.NewDOK(g.NumCells, g.NumCells).ToCSR(), rhs, nil
}

// Sum adds the systems of several discretizations sharing the same
// unknowns.
type Sum []Solver

func (s Sum) NDof(g *grid.Grid) (int, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("sum: %w: no terms", ErrNotImplemented)
	}
	n, err := s[0].NDof(g)
	if err != nil {
		return 0, err
	}
	for i, term := range s[1:] {
		m, err := term.NDof(g)
		if err != nil {
			return 0, err
		}
		if m != n {
			return 0, fmt.Errorf("%w: term %d has %d dofs, term 0 has %d", ErrShapeMismatch, i+1, m, n)
		}
	}
	return n, nil
}

func (s Sum) MatrixRHS(g *grid.Grid, d *params.Data) (*sparse.CSR, []float64, error) {
	n, err := s.NDof(g)
	if err != nil {
		return nil, nil, err
	}
	A := sparse.NewDOK(n, n)
	rhs := make([]float64, n)
	for _, term := range s {
		m, b, err := term.MatrixRHS(g, d)
		if err != nil {
			return nil, nil, err
		}
		if err := CheckShape(n, m, b); err != nil {
			return nil, nil, err
		}
		addBlock(A, m, 0, 0)
		for i, v := range b {
			rhs[i] += v
		}
	}
	return A.ToCSR(), rhs, nil
}
