package bucket

import (
	"errors"
	"testing"

	"github.com/san-kum/fracflow/internal/grid"
)

func mustCart(t *testing.T, cells []int, size []float64) *grid.Grid {
	t.Helper()
	g, err := grid.CartGrid(cells, size)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestOrdering(t *testing.T) {
	g1 := mustCart(t, []int{2}, []float64{1})
	g2 := mustCart(t, []int{2, 2}, []float64{1, 1})
	g3 := mustCart(t, []int{3}, []float64{1})

	b := New()
	if err := b.AddNodes(g1, g2, g3); err != nil {
		t.Fatal(err)
	}
	want := []*grid.Grid{g2, g1, g3}
	for i, n := range b.Nodes() {
		if n.Grid != want[i] {
			t.Errorf("node %d holds %q", i, n.Grid.Name)
		}
		if n.Number != i {
			t.Errorf("node %d numbered %d", i, n.Number)
		}
	}
	if b.DimMax() != 2 || b.DimMin() != 1 {
		t.Errorf("dims = %d..%d", b.DimMin(), b.DimMax())
	}
	if got := len(b.GridsOfDimension(1)); got != 2 {
		t.Errorf("1d grids = %d, want 2", got)
	}
	if got := b.NumCells(); got != 9 {
		t.Errorf("cells = %d, want 9", got)
	}

	if err := b.AddNodes(g1); !errors.Is(err, ErrDuplicateGrid) {
		t.Errorf("expected ErrDuplicateGrid, got %v", err)
	}
}

func TestAddEdge(t *testing.T) {
	hi := mustCart(t, []int{2, 2}, []float64{1, 1})
	lo := mustCart(t, []int{2}, []float64{1})
	other := mustCart(t, []int{2, 2}, []float64{1, 1})

	b := New()
	if err := b.AddNodes(hi, lo, other); err != nil {
		t.Fatal(err)
	}

	fc, err := grid.NewIncidence(lo.NumCells, hi.NumFaces, [][]int{{6}, {7}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	e, err := b.AddEdge(hi, lo, fc)
	if err != nil {
		t.Fatal(err)
	}
	if e.NormalPermeability(0) != 1 {
		t.Error("default normal permeability should be 1")
	}
	if nb := b.NodeNeighbors(lo); len(nb) != 1 || nb[0] != hi {
		t.Errorf("unexpected neighbors %v", nb)
	}

	if _, err := b.AddEdge(hi, other, fc); !errors.Is(err, ErrCodimension) {
		t.Errorf("expected ErrCodimension, got %v", err)
	}

	bad, _ := grid.NewIncidence(1, hi.NumFaces, [][]int{{6}}, nil)
	if _, err := b.AddEdge(hi, lo, bad); err == nil {
		t.Error("expected shape error")
	}
}
