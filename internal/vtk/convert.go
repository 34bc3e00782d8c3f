package vtk

import (
	"fmt"

	"github.com/san-kum/fracflow/internal/grid"
	"gonum.org/v1/gonum/mat"
)

// ToGrid converts a dataset whose cells all share one dimension to a grid
// with computed geometry. Cell order is preserved.
func ToGrid(ds *Dataset) (*grid.Grid, error) {
	if ds.NumCells() == 0 {
		return nil, fmt.Errorf("%w: dataset has no cells", ErrUnsupportedCell)
	}
	dim := ds.Types[0].Dim()
	for c, t := range ds.Types {
		if t.Dim() != dim || t.Dim() < 0 {
			return nil, fmt.Errorf("%w: cell %d has type %d in a %dd dataset", ErrUnsupportedCell, c, t, dim)
		}
	}

	nodes := mat.NewDense(3, max(ds.NumPoints(), 1), nil)
	for i, p := range ds.Points {
		nodes.Set(0, i, p.X)
		nodes.Set(1, i, p.Y)
		nodes.Set(2, i, p.Z)
	}

	switch dim {
	case 0:
		if ds.NumCells() != 1 || ds.Types[0] != Vertex {
			return nil, fmt.Errorf("%w: only single-vertex point grids are supported", ErrUnsupportedCell)
		}
		p := ds.Points[ds.CellPoints(0)[0]]
		return grid.PointGrid(p.X, p.Y, p.Z)
	case 1:
		segs := make([][]int, 0, ds.NumCells())
		for c := 0; c < ds.NumCells(); c++ {
			pts := ds.CellPoints(c)
			if ds.Types[c] != Line {
				return nil, fmt.Errorf("%w: poly-lines", ErrUnsupportedCell)
			}
			segs = append(segs, pts)
		}
		return grid.FromSegments(nodes, segs)
	case 2:
		polys := make([][]int, 0, ds.NumCells())
		for c := 0; c < ds.NumCells(); c++ {
			pts := ds.CellPoints(c)
			switch ds.Types[c] {
			case Triangle, Quad, Polygon:
				polys = append(polys, pts)
			case Pixel:
				polys = append(polys, []int{pts[0], pts[1], pts[3], pts[2]})
			default:
				return nil, fmt.Errorf("%w: triangle strips", ErrUnsupportedCell)
			}
		}
		return grid.FromPolygons(nodes, polys)
	default:
		cells := make([][][]int, ds.NumCells())
		for c := range cells {
			cells[c] = ds.CellFaces(c)
			if cells[c] == nil {
				return nil, fmt.Errorf("%w: polyhedron %d has no faces", ErrUnsupportedCell, c)
			}
		}
		return grid.FromPolyhedra(nodes, cells)
	}
}
