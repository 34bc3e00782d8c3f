// Package vtk reads and writes VTK XML unstructured grids (.vtu) and
// collections (.pvd), and converts between datasets and grids.
//
// Writing is ASCII. Reading accepts ASCII and inline base64 binary arrays
// with a UInt32 or UInt64 size header; compressed and appended data are
// rejected.
package vtk

import (
	"errors"
	"fmt"

	"github.com/san-kum/fracflow/internal/geom"
)

var (
	ErrUnsupportedFormat = errors.New("vtk: unsupported format")
	ErrUnsupportedCell   = errors.New("vtk: unsupported cell type")
	ErrMissingArray      = errors.New("vtk: missing data array")
)

// CellType is the VTK cell type code.
type CellType uint8

const (
	Vertex        CellType = 1
	PolyVertex    CellType = 2
	Line          CellType = 3
	PolyLine      CellType = 4
	Triangle      CellType = 5
	TriangleStrip CellType = 6
	Polygon       CellType = 7
	Pixel         CellType = 8
	Quad          CellType = 9
	Tetra         CellType = 10
	Voxel         CellType = 11
	Hexahedron    CellType = 12
	Wedge         CellType = 13
	Pyramid       CellType = 14
	Polyhedron    CellType = 42
)

// Dim returns the topological dimension of the cell type, -1 if unknown.
func (t CellType) Dim() int {
	switch t {
	case Vertex, PolyVertex:
		return 0
	case Line, PolyLine:
		return 1
	case Triangle, TriangleStrip, Polygon, Pixel, Quad:
		return 2
	case Tetra, Voxel, Hexahedron, Wedge, Pyramid, Polyhedron:
		return 3
	}
	return -1
}

// local face tables, VTK point numbering
var localFaces = map[CellType][][]int{
	Tetra:      {{0, 1, 3}, {1, 2, 3}, {2, 0, 3}, {0, 2, 1}},
	Voxel:      {{0, 2, 3, 1}, {4, 5, 7, 6}, {0, 1, 5, 4}, {1, 3, 7, 5}, {3, 2, 6, 7}, {2, 0, 4, 6}},
	Hexahedron: {{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7}},
	Wedge:      {{0, 1, 2}, {3, 5, 4}, {0, 3, 4, 1}, {1, 4, 5, 2}, {2, 5, 3, 0}},
	Pyramid:    {{0, 3, 2, 1}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}},
}

// DataArray is a named array with Components values per tuple.
type DataArray struct {
	Name       string
	Components int
	Values     []float64
}

// Tuples returns the number of tuples in the array.
func (a *DataArray) Tuples() int {
	if a.Components <= 1 {
		return len(a.Values)
	}
	return len(a.Values) / a.Components
}

// Component returns component k of tuple i.
func (a *DataArray) Component(i, k int) float64 {
	nc := max(a.Components, 1)
	return a.Values[i*nc+k]
}

type Dataset struct {
	Points       []geom.Vec3
	Connectivity []int
	Offsets      []int // end of each cell in Connectivity
	Types        []CellType
	// Faces holds the faces of polyhedral cells, nil for other cells.
	Faces [][][]int

	PointData []*DataArray
	CellData  []*DataArray
}

func (ds *Dataset) NumPoints() int { return len(ds.Points) }
func (ds *Dataset) NumCells() int  { return len(ds.Types) }

// CellPoints returns the point ids of cell c.
func (ds *Dataset) CellPoints(c int) []int {
	lo := 0
	if c > 0 {
		lo = ds.Offsets[c-1]
	}
	return ds.Connectivity[lo:ds.Offsets[c]]
}

// CellFaces returns the faces of cell c as point id lists, nil for cells
// below dimension 3.
func (ds *Dataset) CellFaces(c int) [][]int {
	t := ds.Types[c]
	if t == Polyhedron {
		if ds.Faces == nil {
			return nil
		}
		return ds.Faces[c]
	}
	table, ok := localFaces[t]
	if !ok {
		return nil
	}
	pts := ds.CellPoints(c)
	out := make([][]int, len(table))
	for i, lf := range table {
		out[i] = make([]int, len(lf))
		for k, l := range lf {
			out[i][k] = pts[l]
		}
	}
	return out
}

func find(arrays []*DataArray, name string) (*DataArray, bool) {
	for _, a := range arrays {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

func (ds *Dataset) CellArray(name string) (*DataArray, bool)  { return find(ds.CellData, name) }
func (ds *Dataset) PointArray(name string) (*DataArray, bool) { return find(ds.PointData, name) }

// CellValues returns the scalar cell array name.
func (ds *Dataset) CellValues(name string) ([]float64, error) {
	a, ok := ds.CellArray(name)
	if !ok {
		return nil, fmt.Errorf("%w: cell data %q", ErrMissingArray, name)
	}
	if a.Components > 1 {
		return nil, fmt.Errorf("vtk: cell data %q has %d components", name, a.Components)
	}
	return a.Values, nil
}

// Validate checks array lengths against the point and cell counts.
func (ds *Dataset) Validate() error {
	if len(ds.Offsets) != len(ds.Types) {
		return fmt.Errorf("vtk: %d offsets for %d cells", len(ds.Offsets), len(ds.Types))
	}
	prev := 0
	for c, off := range ds.Offsets {
		if off < prev || off > len(ds.Connectivity) {
			return fmt.Errorf("vtk: cell %d has invalid offset %d", c, off)
		}
		prev = off
	}
	for _, id := range ds.Connectivity {
		if id < 0 || id >= len(ds.Points) {
			return fmt.Errorf("vtk: point id %d out of range", id)
		}
	}
	for _, a := range ds.PointData {
		if a.Tuples() != ds.NumPoints() {
			return fmt.Errorf("vtk: point data %q has %d tuples for %d points", a.Name, a.Tuples(), ds.NumPoints())
		}
	}
	for _, a := range ds.CellData {
		if a.Tuples() != ds.NumCells() {
			return fmt.Errorf("vtk: cell data %q has %d tuples for %d cells", a.Name, a.Tuples(), ds.NumCells())
		}
	}
	return nil
}
