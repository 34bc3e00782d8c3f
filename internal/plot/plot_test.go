package plot

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/meshing"
)

func TestGridRejectsOtherDimensions(t *testing.T) {
	tests := []struct {
		name  string
		cells []int
		size  []float64
	}{
		{"1d", []int{3}, []float64{1}},
		{"3d", []int{2, 2, 2}, []float64{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := grid.CartGrid(tt.cells, tt.size)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Grid(g, Options{}); !errors.Is(err, ErrUnsupportedDimension) {
				t.Errorf("expected ErrUnsupportedDimension, got %v", err)
			}
		})
	}
}

func TestGridPolygons(t *testing.T) {
	g, err := grid.StructuredTriangleGrid([]int{2, 1}, []float64{2, 1})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Grid(g, Options{Info: "cnfo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Polygons) != g.NumCells {
		t.Fatalf("got %d polygons, want %d", len(f.Polygons), g.NumCells)
	}
	for _, p := range f.Polygons {
		if len(p.Points) != 3 {
			t.Errorf("cell %d has %d points", p.Cell, len(p.Points))
		}
		// counter-clockwise ordering gives a positive signed area
		area := 0.0
		for i := range p.Points {
			a, b := p.Points[i], p.Points[(i+1)%len(p.Points)]
			area += a.X*b.Y - b.X*a.Y
		}
		if area <= 0 {
			t.Errorf("cell %d is not counter-clockwise", p.Cell)
		}
	}

	want := g.NumCells + g.NumNodes + g.NumFaces
	if len(f.Markers) != want {
		t.Errorf("got %d markers, want %d", len(f.Markers), want)
	}
	if len(f.Arrows) != g.NumFaces {
		t.Errorf("got %d arrows, want %d", len(f.Arrows), g.NumFaces)
	}
	for _, a := range f.Arrows {
		dx, dy := a.B.X-a.A.X, a.B.Y-a.A.Y
		if l := dx*dx + dy*dy; l < 0.0099 || l > 0.0101 {
			t.Errorf("normal arrow has squared length %f", l)
		}
	}

	svg := f.SVG(400, 200)
	if strings.Count(svg, "<polygon") != g.NumCells {
		t.Error("SVG should contain one polygon per cell")
	}
}

func TestFractureOverlay(t *testing.T) {
	b, err := meshing.CartFractured([]int{4, 4}, []float64{1, 1}, []meshing.Fracture{{Axis: 1, Position: 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	g := b.GridsOfDimension(2)[0]
	f, err := Grid(g, Options{Fractures: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Fractures) != 8 {
		t.Errorf("got %d fracture segments, want 8", len(f.Fractures))
	}
	for _, s := range f.Fractures {
		if s.A.Y != 0.5 || s.B.Y != 0.5 {
			t.Errorf("fracture segment off the fracture line: %+v", s)
		}
	}
}

func TestFieldColors(t *testing.T) {
	g, err := grid.CartGrid([]int{2, 1}, []float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Grid(g, Options{Field: []float64{0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if r, _, b := f.Color(f.Polygons[0].Value); r != 0 || b != 128 {
		t.Errorf("low value should be dark blue, got r=%d b=%d", r, b)
	}
	if r, _, b := f.Color(f.Polygons[1].Value); r != 128 || b != 0 {
		t.Errorf("high value should be dark red, got r=%d b=%d", r, b)
	}
	if _, err := Grid(g, Options{Field: []float64{1}}); err == nil {
		t.Error("expected field length error")
	}
}

func TestCanvasRender(t *testing.T) {
	g, err := grid.CartGrid([]int{2, 2}, []float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Grid(g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	c := NewCanvas(20, 10)
	f.Render(c, f.FitView())
	if !strings.ContainsFunc(c.String(), func(r rune) bool { return r > 0x2800 && r <= 0x28ff }) {
		t.Error("canvas is empty after rendering")
	}

	c.Clear()
	c.DrawLine(0, 0, 3, 0)
	for x := 0; x <= 3; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("pixel %d not set", x)
		}
	}
}
