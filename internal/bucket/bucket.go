// Package bucket groups grids of different dimension into a grid bucket.
// Nodes carry a grid and its data dictionary; edges couple a grid to a
// grid one dimension lower through a face-cell map.
package bucket

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/params"
)

var (
	ErrDuplicateGrid = errors.New("bucket: grid already present")
	ErrUnknownGrid   = errors.New("bucket: grid not in bucket")
	ErrCodimension   = errors.New("bucket: edge must join grids one dimension apart")
)

// Node is a grid of the bucket with its data dictionary. Number is the
// position of the node in the bucket ordering.
type Node struct {
	Grid   *grid.Grid
	Data   *params.Data
	Number int
}

// Edge couples a higher-dimensional grid with a lower-dimensional one.
// FaceCells is a Lo.NumCells × Hi.NumFaces incidence: each lower cell maps
// to the higher faces it is glued to (both sides of a split fracture).
type Edge struct {
	Hi, Lo    *grid.Grid
	FaceCells *grid.Incidence
	// Kn is the normal permeability per lower cell; nil means one.
	Kn []float64
}

// NormalPermeability returns Kn for lower cell c.
func (e *Edge) NormalPermeability(c int) float64 {
	if e.Kn == nil {
		return 1
	}
	return e.Kn[c]
}

type Bucket struct {
	nodes  []*Node
	byGrid map[*grid.Grid]*Node
	edges  []*Edge
}

func New() *Bucket {
	return &Bucket{byGrid: make(map[*grid.Grid]*Node)}
}

// AddNodes adds grids with empty data dictionaries and renumbers the
// bucket.
func (b *Bucket) AddNodes(grids ...*grid.Grid) error {
	for _, g := range grids {
		if g == nil {
			return fmt.Errorf("bucket: nil grid")
		}
		if _, ok := b.byGrid[g]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateGrid, g.Name)
		}
		n := &Node{Grid: g, Data: params.NewData(nil)}
		b.nodes = append(b.nodes, n)
		b.byGrid[g] = n
	}
	b.AssignNodeOrdering()
	return nil
}

// AddEdge couples hi and lo. Both grids must already be nodes.
func (b *Bucket) AddEdge(hi, lo *grid.Grid, faceCells *grid.Incidence) (*Edge, error) {
	if _, ok := b.byGrid[hi]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrid, hi.Name)
	}
	if _, ok := b.byGrid[lo]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrid, lo.Name)
	}
	if hi.Dim != lo.Dim+1 {
		return nil, fmt.Errorf("%w: %d and %d", ErrCodimension, hi.Dim, lo.Dim)
	}
	if faceCells.Rows != lo.NumCells || faceCells.Cols != hi.NumFaces {
		return nil, fmt.Errorf("bucket: face-cell map is %d×%d, want %d×%d",
			faceCells.Rows, faceCells.Cols, lo.NumCells, hi.NumFaces)
	}
	for _, e := range b.edges {
		if e.Hi == hi && e.Lo == lo {
			return nil, fmt.Errorf("bucket: edge %q-%q already present", hi.Name, lo.Name)
		}
	}
	e := &Edge{Hi: hi, Lo: lo, FaceCells: faceCells}
	b.edges = append(b.edges, e)
	return e, nil
}

// AssignNodeOrdering numbers nodes by decreasing dimension, keeping
// insertion order within a dimension.
func (b *Bucket) AssignNodeOrdering() {
	sort.SliceStable(b.nodes, func(i, j int) bool {
		return b.nodes[i].Grid.Dim > b.nodes[j].Grid.Dim
	})
	for i, n := range b.nodes {
		n.Number = i
	}
}

// Nodes returns the nodes in bucket order.
func (b *Bucket) Nodes() []*Node { return b.nodes }

func (b *Bucket) Edges() []*Edge { return b.edges }

func (b *Bucket) Size() int { return len(b.nodes) }

// Node returns the node holding g.
func (b *Bucket) Node(g *grid.Grid) (*Node, bool) {
	n, ok := b.byGrid[g]
	return n, ok
}

// Data returns the data dictionary of g, nil when g is not in the bucket.
func (b *Bucket) Data(g *grid.Grid) *params.Data {
	if n, ok := b.byGrid[g]; ok {
		return n.Data
	}
	return nil
}

func (b *Bucket) DimMax() int {
	d := -1
	for _, n := range b.nodes {
		d = max(d, n.Grid.Dim)
	}
	return d
}

func (b *Bucket) DimMin() int {
	d := 4
	for _, n := range b.nodes {
		d = min(d, n.Grid.Dim)
	}
	return d
}

// GridsOfDimension returns the grids of dimension dim in bucket order.
func (b *Bucket) GridsOfDimension(dim int) []*grid.Grid {
	var out []*grid.Grid
	for _, n := range b.nodes {
		if n.Grid.Dim == dim {
			out = append(out, n.Grid)
		}
	}
	return out
}

// NodeNeighbors returns the grids sharing an edge with g.
func (b *Bucket) NodeNeighbors(g *grid.Grid) []*grid.Grid {
	var out []*grid.Grid
	for _, e := range b.edges {
		switch g {
		case e.Hi:
			out = append(out, e.Lo)
		case e.Lo:
			out = append(out, e.Hi)
		}
	}
	return out
}

// Grids returns all grids in bucket order.
func (b *Bucket) Grids() []*grid.Grid {
	out := make([]*grid.Grid, len(b.nodes))
	for i, n := range b.nodes {
		out[i] = n.Grid
	}
	return out
}

// NumCells is the total cell count over all grids.
func (b *Bucket) NumCells() int {
	total := 0
	for _, n := range b.nodes {
		total += n.Grid.NumCells
	}
	return total
}

func (b *Bucket) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("grid bucket: %d grids, %d edges\n", len(b.nodes), len(b.edges)))
	for d := b.DimMax(); d >= b.DimMin(); d-- {
		gs := b.GridsOfDimension(d)
		if len(gs) == 0 {
			continue
		}
		cells := 0
		for _, g := range gs {
			cells += g.NumCells
		}
		sb.WriteString(fmt.Sprintf("  %dd: %d grids, %d cells\n", d, len(gs), cells))
	}
	return sb.String()
}
