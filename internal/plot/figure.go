// Package plot draws 2D grids: filled cell polygons, optional index
// overlays for cells, nodes and faces, face normal arrows and fracture
// faces. Figures render to SVG or to a braille terminal canvas.
package plot

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/fracflow/internal/geom"
	"github.com/san-kum/fracflow/internal/grid"
)

var ErrUnsupportedDimension = errors.New("plot: only 2D grids can be plotted")

// normalLength is the drawn length of a unit face normal.
const normalLength = 0.1

type Point struct{ X, Y float64 }

type MarkerKind int

const (
	CellMarker MarkerKind = iota
	NodeMarker
	FaceMarker
)

type Marker struct {
	Kind  MarkerKind
	At    Point
	Index int
}

type Polygon struct {
	Cell   int
	Points []Point
	Value  float64
}

type Segment struct{ A, B Point }

type Figure struct {
	Title     string
	Polygons  []Polygon
	Markers   []Marker
	Arrows    []Segment
	Fractures []Segment

	// Min and Max bound the polygon values; equal when the figure is flat.
	Min, Max float64
	Lo, Hi   Point
}

type Options struct {
	// Info selects overlays, case-insensitive: C cell centers, N nodes,
	// F face centers, O face normals.
	Info string
	// Fractures draws faces tagged as fractures.
	Fractures bool
	// Field colors cells; nil draws every cell with the same color.
	Field []float64
	Title string
}

// Grid builds the figure of a 2D grid. Cell nodes are ordered around the
// cell center and projected on the two coordinate axes of largest extent.
func Grid(g *grid.Grid, opts Options) (*Figure, error) {
	if g.Dim != 2 {
		return nil, fmt.Errorf("%w: grid %q has dimension %d", ErrUnsupportedDimension, g.Name, g.Dim)
	}
	if opts.Field != nil && len(opts.Field) != g.NumCells {
		return nil, fmt.Errorf("plot: field has %d values for %d cells", len(opts.Field), g.NumCells)
	}
	ax, ay := planeAxes(g)
	proj := func(v geom.Vec3) Point { return Point{v.At(ax), v.At(ay)} }

	f := &Figure{Title: opts.Title}
	if f.Title == "" {
		f.Title = g.Name
	}

	cellNodes := g.CellNodes()
	members := make([][]int, g.NumCells)
	cellNodes.DoNonZero(func(n, c int, _ float64) {
		members[c] = append(members[c], n)
	})
	for c := 0; c < g.NumCells; c++ {
		nodes := members[c]
		sort.Ints(nodes)
		pts := make([]geom.Vec3, len(nodes))
		for i, n := range nodes {
			pts[i] = g.Node(n)
		}
		poly := Polygon{Cell: c}
		for _, i := range geom.SortPointPlane(pts, g.CellCenter(c)) {
			poly.Points = append(poly.Points, proj(pts[i]))
		}
		if opts.Field != nil {
			poly.Value = opts.Field[c]
		}
		f.Polygons = append(f.Polygons, poly)
	}
	f.Min, f.Max = valueRange(f.Polygons)

	info := strings.ToUpper(opts.Info)
	if strings.Contains(info, "C") {
		for c := 0; c < g.NumCells; c++ {
			f.Markers = append(f.Markers, Marker{Kind: CellMarker, At: proj(g.CellCenter(c)), Index: c})
		}
	}
	if strings.Contains(info, "N") {
		for n := 0; n < g.NumNodes; n++ {
			f.Markers = append(f.Markers, Marker{Kind: NodeMarker, At: proj(g.Node(n)), Index: n})
		}
	}
	if strings.Contains(info, "F") {
		for i := 0; i < g.NumFaces; i++ {
			f.Markers = append(f.Markers, Marker{Kind: FaceMarker, At: proj(g.FaceCenter(i)), Index: i})
		}
	}
	if strings.Contains(info, "O") {
		for i := 0; i < g.NumFaces; i++ {
			fc := g.FaceCenter(i)
			tip := fc.Add(g.FaceNormal(i).Normalize().Scale(normalLength))
			f.Arrows = append(f.Arrows, Segment{proj(fc), proj(tip)})
		}
	}
	if opts.Fractures {
		for _, i := range g.TaggedFaces(grid.TagFracture) {
			nodes := g.NodesOfFace(i)
			f.Fractures = append(f.Fractures, Segment{proj(g.Node(nodes[0])), proj(g.Node(nodes[1]))})
		}
	}

	lo, hi := g.BoundingBox()
	f.Lo, f.Hi = proj(lo), proj(hi)
	return f, nil
}

// planeAxes returns the two coordinate axes along which g extends most.
func planeAxes(g *grid.Grid) (int, int) {
	lo, hi := g.BoundingBox()
	ext := hi.Sub(lo)
	axes := []int{0, 1, 2}
	sort.SliceStable(axes, func(i, j int) bool { return ext.At(axes[i]) > ext.At(axes[j]) })
	a, b := axes[0], axes[1]
	if a > b {
		a, b = b, a
	}
	return a, b
}

func valueRange(polys []Polygon) (float64, float64) {
	if len(polys) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range polys {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	return lo, hi
}

// Color returns the jet color of polygon value v.
func (f *Figure) Color(v float64) (r, g, b uint8) {
	t := 0.0
	if f.Max > f.Min {
		t = (v - f.Min) / (f.Max - f.Min)
	}
	return Jet(t)
}

// Jet maps t in [0, 1] to the jet colormap.
func Jet(t float64) (r, g, b uint8) {
	t = math.Max(0, math.Min(1, t))
	ch := func(x float64) uint8 {
		return uint8(math.Round(255 * math.Max(0, math.Min(1, x))))
	}
	return ch(1.5 - math.Abs(4*t-3)), ch(1.5 - math.Abs(4*t-2)), ch(1.5 - math.Abs(4*t-1))
}
