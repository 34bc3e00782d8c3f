package solver

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/params"
)

// Tpfa is the two-point flux approximation of -div(K grad p) = q with one
// pressure unknown per cell.
type Tpfa struct{}

func (Tpfa) NDof(g *grid.Grid) (int, error) { return g.NumCells, nil }

// HalfTransmissibility is the one-sided transmissibility of face f seen
// from cell c, where sign is the cell's orientation for the face.
func HalfTransmissibility(g *grid.Grid, k *params.SecondOrderTensor, aperture float64, c, f int, sign float64) float64 {
	d := g.FaceCenter(f).Sub(g.CellCenter(c))
	dist2 := d.Dot(d)
	if dist2 == 0 {
		return 0
	}
	n := g.FaceNormal(f).Scale(sign)
	return aperture * n.Dot(k.Apply(c, d)) / dist2
}

// transmissibilities returns the face transmissibilities: the harmonic
// mean of the two half values on interior faces, the half value on
// boundary faces.
func transmissibilities(g *grid.Grid, p *params.Parameters) []float64 {
	k := p.Tensor(g.NumCells)
	a := p.Apertures(g.NumCells)
	trans := make([]float64, g.NumFaces)
	for f := 0; f < g.NumFaces; f++ {
		cells, signs := g.FaceCellNeighbors(f)
		switch len(cells) {
		case 1:
			trans[f] = HalfTransmissibility(g, k, a[cells[0]], cells[0], f, signs[0])
		case 2:
			t1 := HalfTransmissibility(g, k, a[cells[0]], cells[0], f, signs[0])
			t2 := HalfTransmissibility(g, k, a[cells[1]], cells[1], f, signs[1])
			trans[f] = harmonic(t1, t2)
		}
	}
	return trans
}

func harmonic(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return 1 / (1/a + 1/b)
}

func (Tpfa) MatrixRHS(g *grid.Grid, d *params.Data) (*sparse.CSR, []float64, error) {
	var p *params.Parameters
	if d != nil {
		p = d.Param
	}
	if err := p.Validate(g.NumFaces, g.NumCells); err != nil {
		return nil, nil, err
	}
	if g.CellCenters == nil && g.NumCells > 0 {
		return nil, nil, fmt.Errorf("tpfa: grid %q has no geometry", g.Name)
	}

	bc := p.BoundaryCondition(g.NumFaces)
	bcVal := p.BoundaryValues(g.NumFaces)
	trans := transmissibilities(g, p)

	A := sparse.NewDOK(g.NumCells, g.NumCells)
	rhs := make([]float64, g.NumCells)
	for f := 0; f < g.NumFaces; f++ {
		cells, signs := g.FaceCellNeighbors(f)
		t := trans[f]
		switch len(cells) {
		case 2:
			c1, c2 := cells[0], cells[1]
			add(A, c1, c1, t)
			add(A, c2, c2, t)
			add(A, c1, c2, -t)
			add(A, c2, c1, -t)
		case 1:
			c := cells[0]
			switch bc.Types[f] {
			case params.Dirichlet:
				add(A, c, c, t)
				rhs[c] += t * bcVal[f]
			case params.Neumann:
				rhs[c] -= signs[0] * bcVal[f]
			}
		}
	}
	for c, q := range p.Sources(g.NumCells) {
		rhs[c] += q
	}
	// keep isolated cells nonsingular in the sparsity pattern
	for c := 0; c < g.NumCells; c++ {
		add(A, c, c, 0)
	}
	return A.ToCSR(), rhs, nil
}

// Fluxes recovers the flux through each face along its normal from a cell
// pressure vector.
func (Tpfa) Fluxes(g *grid.Grid, d *params.Data, pressure []float64) ([]float64, error) {
	if len(pressure) != g.NumCells {
		return nil, fmt.Errorf("%w: pressure has length %d, want %d", ErrShapeMismatch, len(pressure), g.NumCells)
	}
	var p *params.Parameters
	if d != nil {
		p = d.Param
	}
	bc := p.BoundaryCondition(g.NumFaces)
	bcVal := p.BoundaryValues(g.NumFaces)
	trans := transmissibilities(g, p)

	flux := make([]float64, g.NumFaces)
	for f := 0; f < g.NumFaces; f++ {
		cells, signs := g.FaceCellNeighbors(f)
		switch len(cells) {
		case 2:
			flux[f] = signs[0] * trans[f] * (pressure[cells[0]] - pressure[cells[1]])
		case 1:
			switch bc.Types[f] {
			case params.Dirichlet:
				flux[f] = signs[0] * trans[f] * (pressure[cells[0]] - bcVal[f])
			case params.Neumann:
				flux[f] = bcVal[f]
			}
		}
	}
	return flux, nil
}
