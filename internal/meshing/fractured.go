// Package meshing builds grid buckets for fractured domains.
package meshing

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/grid"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrIntersectingFractures = errors.New("meshing: fractures intersect or coincide")
	ErrNotOnGridPlane        = errors.New("meshing: fracture is not on a grid plane")
)

const snapTol = 1e-9

// Fracture is an axis-aligned fracture in a Cartesian domain. Axis is the
// direction of the fracture normal and Position its coordinate along Axis.
// Lo and Hi bound the fracture along the remaining axes, in increasing
// axis order; nil bounds span the whole domain.
type Fracture struct {
	Axis     int
	Position float64
	Lo, Hi   []float64
}

// CartFractured builds a bucket of a 2D or 3D Cartesian grid with the
// given fractures. Each fracture is snapped to grid nodes, the matrix faces
// on it are split and a Cartesian grid of one dimension lower is placed in
// the fracture plane, coupled to both sides of the split faces.
func CartFractured(cells []int, size []float64, fractures []Fracture) (*bucket.Bucket, error) {
	dim := len(cells)
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: fractured grids need dimension 2 or 3, got %d", grid.ErrInvalidDimension, dim)
	}
	hi, err := grid.CartGrid(cells, size)
	if err != nil {
		return nil, err
	}
	hi.Name = fmt.Sprintf("matrix_%dd", dim)

	spacing := make([]float64, dim)
	for d := range spacing {
		spacing[d] = size[d] / float64(cells[d])
	}

	plans := make([]*plan, len(fractures))
	for i, fr := range fractures {
		p, err := snap(fr, cells, size, spacing)
		if err != nil {
			return nil, fmt.Errorf("fracture %d: %w", i, err)
		}
		p.faces, p.lowerCell = selectFaces(hi, p, spacing)
		if len(p.faces) == 0 {
			return nil, fmt.Errorf("fracture %d: %w: no faces selected", i, ErrNotOnGridPlane)
		}
		plans[i] = p
	}
	if err := checkIntersections(hi, plans); err != nil {
		return nil, err
	}

	b := bucket.New()
	lowers := make([]*grid.Grid, len(plans))
	for i, p := range plans {
		lo, err := lowerGrid(p, spacing, size)
		if err != nil {
			return nil, fmt.Errorf("fracture %d: %w", i, err)
		}
		lo.Name = fmt.Sprintf("fracture_%d", i)
		lowers[i] = lo

		p.split, err = grid.SplitFaces(hi, p.faces)
		if err != nil {
			return nil, fmt.Errorf("fracture %d: %w", i, err)
		}
	}

	if err := b.AddNodes(hi); err != nil {
		return nil, err
	}
	if err := b.AddNodes(lowers...); err != nil {
		return nil, err
	}
	for i, p := range plans {
		lists := make([][]int, lowers[i].NumCells)
		for k, f := range p.faces {
			l := p.lowerCell[k]
			lists[l] = append(lists[l], f, p.split[k])
		}
		fc, err := grid.NewIncidence(lowers[i].NumCells, hi.NumFaces, lists, nil)
		if err != nil {
			return nil, err
		}
		if _, err := b.AddEdge(hi, lowers[i], fc); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// plan is a fracture snapped to the grid.
type plan struct {
	axis     int
	index    int   // node plane index along axis
	tangents []int // remaining axes
	lo, hi   []int // node index bounds along tangents

	faces     []int
	lowerCell []int
	split     []int
}

func snap(fr Fracture, cells []int, size, spacing []float64) (*plan, error) {
	dim := len(cells)
	if fr.Axis < 0 || fr.Axis >= dim {
		return nil, fmt.Errorf("%w: axis %d", ErrNotOnGridPlane, fr.Axis)
	}
	idx, ok := nodeIndex(fr.Position, spacing[fr.Axis])
	if !ok || idx <= 0 || idx >= cells[fr.Axis] {
		return nil, fmt.Errorf("%w: position %g is not an interior node plane", ErrNotOnGridPlane, fr.Position)
	}
	p := &plan{axis: fr.Axis, index: idx}
	for d := 0; d < dim; d++ {
		if d != fr.Axis {
			p.tangents = append(p.tangents, d)
		}
	}
	if fr.Lo != nil && len(fr.Lo) != len(p.tangents) || fr.Hi != nil && len(fr.Hi) != len(p.tangents) {
		return nil, fmt.Errorf("%w: bounds need %d values", ErrNotOnGridPlane, len(p.tangents))
	}
	for k, t := range p.tangents {
		lo, hi := 0, cells[t]
		if fr.Lo != nil {
			if lo, ok = nodeIndex(fr.Lo[k], spacing[t]); !ok {
				return nil, fmt.Errorf("%w: bound %g on axis %d", ErrNotOnGridPlane, fr.Lo[k], t)
			}
		}
		if fr.Hi != nil {
			if hi, ok = nodeIndex(fr.Hi[k], spacing[t]); !ok {
				return nil, fmt.Errorf("%w: bound %g on axis %d", ErrNotOnGridPlane, fr.Hi[k], t)
			}
		}
		lo, hi = max(lo, 0), min(hi, cells[t])
		if hi <= lo {
			return nil, fmt.Errorf("%w: empty extent on axis %d", ErrNotOnGridPlane, t)
		}
		p.lo = append(p.lo, lo)
		p.hi = append(p.hi, hi)
	}
	return p, nil
}

func nodeIndex(x, h float64) (int, bool) {
	r := x / h
	i := math.Round(r)
	if math.Abs(r-i) > snapTol*math.Max(1, math.Abs(r)) {
		return 0, false
	}
	return int(i), true
}

// selectFaces finds the faces of g on the fracture plane inside its
// extent, together with the lower-grid cell each one maps to.
func selectFaces(g *grid.Grid, p *plan, spacing []float64) (faces, lower []int) {
	pos := float64(p.index) * spacing[p.axis]
	for f := 0; f < g.NumFaces; f++ {
		n := g.FaceNormal(f)
		if math.Abs(n.At(p.axis)) < 0.5*g.FaceAreas[f] {
			continue
		}
		c := g.FaceCenter(f)
		if math.Abs(c.At(p.axis)-pos) > snapTol*math.Max(1, pos) {
			continue
		}
		cell, stride, inside := 0, 1, true
		for k, t := range p.tangents {
			i := int(math.Floor(c.At(t) / spacing[t]))
			if i < p.lo[k] || i >= p.hi[k] {
				inside = false
				break
			}
			cell += (i - p.lo[k]) * stride
			stride *= p.hi[k] - p.lo[k]
		}
		if inside {
			faces = append(faces, f)
			lower = append(lower, cell)
		}
	}
	return faces, lower
}

func checkIntersections(g *grid.Grid, plans []*plan) error {
	owner := make(map[int]int)
	for i, p := range plans {
		touched := make(map[int]bool)
		for _, f := range p.faces {
			for _, n := range g.NodesOfFace(f) {
				touched[n] = true
			}
		}
		for n := range touched {
			if j, ok := owner[n]; ok {
				return fmt.Errorf("%w: fractures %d and %d", ErrIntersectingFractures, j, i)
			}
			owner[n] = i
		}
	}
	return nil
}

// lowerGrid builds the Cartesian fracture grid and embeds it in the
// fracture plane.
func lowerGrid(p *plan, spacing, size []float64) (*grid.Grid, error) {
	coords := make([][]float64, len(p.tangents))
	for k, t := range p.tangents {
		for i := p.lo[k]; i <= p.hi[k]; i++ {
			coords[k] = append(coords[k], float64(i)*spacing[t])
		}
	}
	g, err := grid.TensorGrid(coords...)
	if err != nil {
		return nil, err
	}

	pos := float64(p.index) * spacing[p.axis]
	embedded := mat.NewDense(3, g.NumNodes, nil)
	for n := 0; n < g.NumNodes; n++ {
		local := g.Node(n)
		embedded.Set(p.axis, n, pos)
		for k, t := range p.tangents {
			embedded.Set(t, n, local.At(k))
		}
	}
	g.Nodes = embedded
	if err := g.ComputeGeometry(); err != nil {
		return nil, err
	}

	// fracture boundary faces off the domain boundary are tips
	tip := g.Tag(grid.TagTip)
	dom := g.Tag(grid.TagDomainBoundary)
	for _, f := range g.BoundaryFaces() {
		c := g.FaceCenter(f)
		onBoundary := false
		for _, t := range p.tangents {
			x := c.At(t)
			if math.Abs(x) < snapTol || math.Abs(x-size[t]) < snapTol*math.Max(1, size[t]) {
				onBoundary = true
			}
		}
		tip[f] = !onBoundary
		dom[f] = onBoundary
	}
	return g, nil
}
