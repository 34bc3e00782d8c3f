package solver

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/params"
)

// Coupling discretizes the interface between two grids of a bucket edge.
// It returns the four coupling blocks indexed [hi, lo] × [hi, lo], sized by
// the dofs of the two grids.
type Coupling interface {
	Couple(e *bucket.Edge, hi, lo *params.Data) ([2][2]*sparse.CSR, error)
}

// TpfaCoupling joins the cell next to each split higher face with the
// lower cell glued to it by a two-point flux: the higher half
// transmissibility in series with the normal transmissibility 2·kn·|f|/a
// of the lower cell.
type TpfaCoupling struct{}

func (TpfaCoupling) Couple(e *bucket.Edge, dHi, dLo *params.Data) ([2][2]*sparse.CSR, error) {
	var blocks [2][2]*sparse.CSR
	hi, lo := e.Hi, e.Lo

	var pHi, pLo *params.Parameters
	if dHi != nil {
		pHi = dHi.Param
	}
	if dLo != nil {
		pLo = dLo.Param
	}
	k := pHi.Tensor(hi.NumCells)
	aLo := pLo.Apertures(lo.NumCells)

	hh := sparse.NewDOK(hi.NumCells, hi.NumCells)
	hl := sparse.NewDOK(hi.NumCells, lo.NumCells)
	lh := sparse.NewDOK(lo.NumCells, hi.NumCells)
	ll := sparse.NewDOK(lo.NumCells, lo.NumCells)

	for l := 0; l < lo.NumCells; l++ {
		faces, _ := e.FaceCells.Row(l)
		for _, f := range faces {
			cells, signs := hi.FaceCellNeighbors(f)
			if len(cells) != 1 {
				return blocks, fmt.Errorf("%w: face %d of %q is coupled but has %d cells",
					grid.ErrInvalidTopology, f, hi.Name, len(cells))
			}
			c := cells[0]
			tHi := HalfTransmissibility(hi, k, 1, c, f, signs[0])
			tLo := 2 * e.NormalPermeability(l) * hi.FaceAreas[f] / aLo[l]
			t := harmonic(tHi, tLo)

			add(hh, c, c, t)
			add(ll, l, l, t)
			add(hl, c, l, -t)
			add(lh, l, c, -t)
		}
	}
	blocks[0][0], blocks[0][1] = hh.ToCSR(), hl.ToCSR()
	blocks[1][0], blocks[1][1] = lh.ToCSR(), ll.ToCSR()
	return blocks, nil
}
