// Package grid describes computational grids of dimension 0 to 3: node
// coordinates, face-node and cell-face incidences, and the geometric
// quantities (areas, volumes, centers, normals) that discretizations use.
//
// All grids live in 3D physical space. A grid of dimension d < 3 may lie in
// any d-dimensional plane (a fracture plane, for instance); geometry is
// computed intrinsically from the node coordinates.
//
// # Conventions
//
//   - Nodes, FaceCenters, FaceNormals and CellCenters are 3 × N matrices,
//     one column per entity.
//   - FaceNormals have length equal to the face area.
//   - CellFaces stores +1 when the face normal points out of the cell and
//     -1 otherwise.
package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/geom"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidDimension indicates a grid dimension outside [0, 3] or an
	// operation not defined for the grid's dimension.
	ErrInvalidDimension = errors.New("grid: invalid dimension")

	// ErrInvalidTopology indicates inconsistent incidences.
	ErrInvalidTopology = errors.New("grid: invalid topology")

	// ErrDegenerate indicates a zero-measure face or cell.
	ErrDegenerate = errors.New("grid: degenerate geometry")
)

// Face tag names.
const (
	TagFracture       = "fracture"
	TagDomainBoundary = "domain_boundary"
	TagTip            = "tip"
)

type Grid struct {
	Dim  int
	Name string

	NumNodes, NumFaces, NumCells int

	Nodes     *mat.Dense // 3 × NumNodes
	FaceNodes *Incidence // NumFaces × NumNodes, ordered polygon for 3D faces
	CellFaces *Incidence // NumCells × NumFaces, orientation signs

	// Geometry, filled by ComputeGeometry.
	FaceAreas   []float64
	FaceCenters *mat.Dense
	FaceNormals *mat.Dense
	CellVolumes []float64
	CellCenters *mat.Dense

	FaceTags map[string][]bool

	// CartDims is the number of cells per direction for structured grids,
	// nil otherwise.
	CartDims []int

	faceCells *Incidence
}

// New assembles a grid from its topology. Geometry is not computed.
func New(dim int, name string, nodes *mat.Dense, faceNodes, cellFaces *Incidence) (*Grid, error) {
	if dim < 0 || dim > 3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	r, nn := nodes.Dims()
	if r != 3 {
		return nil, fmt.Errorf("%w: node matrix has %d rows, want 3", ErrInvalidTopology, r)
	}
	if faceNodes.Cols != nn {
		return nil, fmt.Errorf("%w: face-node incidence has %d columns for %d nodes", ErrInvalidTopology, faceNodes.Cols, nn)
	}
	if cellFaces.Cols != faceNodes.Rows {
		return nil, fmt.Errorf("%w: cell-face incidence has %d columns for %d faces", ErrInvalidTopology, cellFaces.Cols, faceNodes.Rows)
	}
	g := &Grid{
		Dim:       dim,
		Name:      name,
		NumNodes:  nn,
		NumFaces:  faceNodes.Rows,
		NumCells:  cellFaces.Rows,
		Nodes:     nodes,
		FaceNodes: faceNodes,
		CellFaces: cellFaces,
		FaceTags:  make(map[string][]bool),
	}
	return g, nil
}

func (g *Grid) Node(i int) geom.Vec3       { return col(g.Nodes, i) }
func (g *Grid) FaceCenter(f int) geom.Vec3 { return col(g.FaceCenters, f) }
func (g *Grid) FaceNormal(f int) geom.Vec3 { return col(g.FaceNormals, f) }
func (g *Grid) CellCenter(c int) geom.Vec3 { return col(g.CellCenters, c) }

// NodesOfFace returns the face's node indices in polygon order.
func (g *Grid) NodesOfFace(f int) []int {
	idx, _ := g.FaceNodes.Row(f)
	return idx
}

// FacesOfCell returns the faces of cell c and their orientation signs.
func (g *Grid) FacesOfCell(c int) ([]int, []float64) {
	return g.CellFaces.Row(c)
}

// NodesOfCell returns the distinct nodes of cell c in first-seen order.
func (g *Grid) NodesOfCell(c int) []int {
	faces, _ := g.CellFaces.Row(c)
	seen := make(map[int]bool)
	var nodes []int
	for _, f := range faces {
		for _, n := range g.NodesOfFace(f) {
			if !seen[n] {
				seen[n] = true
				nodes = append(nodes, n)
			}
		}
	}
	if g.Dim == 0 {
		// a point cell has no faces; its node is stored with the same index
		if c < g.NumNodes {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// CellNodes returns the node-cell incidence as a NumNodes × NumCells sparse
// matrix with unit entries.
func (g *Grid) CellNodes() *sparse.CSR {
	dok := sparse.NewDOK(g.NumNodes, g.NumCells)
	for c := 0; c < g.NumCells; c++ {
		for _, n := range g.NodesOfCell(c) {
			dok.Set(n, c, 1)
		}
	}
	return dok.ToCSR()
}

// FaceCellNeighbors returns the cells adjacent to face f with the cell's
// orientation sign for the face.
func (g *Grid) FaceCellNeighbors(f int) ([]int, []float64) {
	if g.faceCells == nil || g.faceCells.Rows != g.NumFaces {
		g.faceCells = g.CellFaces.Transpose()
	}
	return g.faceCells.Row(f)
}

// BoundaryFaces returns faces with exactly one adjacent cell.
func (g *Grid) BoundaryFaces() []int {
	var out []int
	for f := 0; f < g.NumFaces; f++ {
		if cells, _ := g.FaceCellNeighbors(f); len(cells) == 1 {
			out = append(out, f)
		}
	}
	return out
}

// Tag returns the named face tag, allocating an all-false tag when absent.
func (g *Grid) Tag(name string) []bool {
	t, ok := g.FaceTags[name]
	if !ok || len(t) != g.NumFaces {
		t = make([]bool, g.NumFaces)
		g.FaceTags[name] = t
	}
	return t
}

// TaggedFaces lists the faces carrying the named tag.
func (g *Grid) TaggedFaces(name string) []int {
	var out []int
	for f, on := range g.FaceTags[name] {
		if on {
			out = append(out, f)
		}
	}
	return out
}

// BoundingBox returns the componentwise node extrema.
func (g *Grid) BoundingBox() (lo, hi geom.Vec3) {
	if g.NumNodes == 0 {
		return
	}
	lo, hi = g.Node(0), g.Node(0)
	for i := 1; i < g.NumNodes; i++ {
		p := g.Node(i)
		for d := 0; d < 3; d++ {
			if p.At(d) < lo.At(d) {
				lo = lo.With(d, p.At(d))
			}
			if p.At(d) > hi.At(d) {
				hi = hi.With(d, p.At(d))
			}
		}
	}
	return lo, hi
}

// Copy returns a deep copy of the grid, geometry included.
func (g *Grid) Copy() *Grid {
	c := &Grid{
		Dim:       g.Dim,
		Name:      g.Name,
		NumNodes:  g.NumNodes,
		NumFaces:  g.NumFaces,
		NumCells:  g.NumCells,
		Nodes:     mat.DenseCopyOf(g.Nodes),
		FaceNodes: g.FaceNodes.Clone(),
		CellFaces: g.CellFaces.Clone(),
		FaceTags:  make(map[string][]bool, len(g.FaceTags)),
	}
	if g.CartDims != nil {
		c.CartDims = append([]int(nil), g.CartDims...)
	}
	for k, v := range g.FaceTags {
		c.FaceTags[k] = append([]bool(nil), v...)
	}
	if g.FaceCenters != nil {
		c.FaceAreas = append([]float64(nil), g.FaceAreas...)
		c.CellVolumes = append([]float64(nil), g.CellVolumes...)
		c.FaceCenters = copyOrNil(g.FaceCenters)
		c.FaceNormals = copyOrNil(g.FaceNormals)
		c.CellCenters = copyOrNil(g.CellCenters)
	}
	return c
}

func (g *Grid) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("grid %q: dimension %d\n", g.Name, g.Dim))
	sb.WriteString(fmt.Sprintf("  nodes: %d\n", g.NumNodes))
	sb.WriteString(fmt.Sprintf("  faces: %d\n", g.NumFaces))
	sb.WriteString(fmt.Sprintf("  cells: %d\n", g.NumCells))
	if g.CartDims != nil {
		sb.WriteString(fmt.Sprintf("  cartesian: %v\n", g.CartDims))
	}
	if g.CellVolumes != nil {
		total := 0.0
		for _, v := range g.CellVolumes {
			total += v
		}
		sb.WriteString(fmt.Sprintf("  measure: %.6g\n", total))
	}
	return sb.String()
}

func col(m *mat.Dense, i int) geom.Vec3 {
	return geom.Vec3{X: m.At(0, i), Y: m.At(1, i), Z: m.At(2, i)}
}

func setCol(m *mat.Dense, i int, v geom.Vec3) {
	m.Set(0, i, v.X)
	m.Set(1, i, v.Y)
	m.Set(2, i, v.Z)
}

// newCoords allocates a 3 × n coordinate matrix. gonum rejects zero-sized
// dense matrices, so empty sets get nil.
func newCoords(n int) *mat.Dense {
	if n == 0 {
		return nil
	}
	return mat.NewDense(3, n, nil)
}

func copyOrNil(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	return mat.DenseCopyOf(m)
}
