package viewer

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/meshing"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestNewRequires2DGrids(t *testing.T) {
	g, err := grid.CartGrid([]int{2, 2, 2}, []float64{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	gb := bucket.New()
	if err := gb.AddNodes(g); err != nil {
		t.Fatal(err)
	}
	if _, err := New(gb, "", ThemeCyberpunk); !errors.Is(err, ErrNoGrids) {
		t.Errorf("expected ErrNoGrids, got %v", err)
	}
}

func TestToggleAndZoom(t *testing.T) {
	gb, err := meshing.CartFractured([]int{4, 4}, []float64{1, 1}, []meshing.Fracture{{Axis: 0, Position: 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(gb, "", GetTheme("ocean"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Figure().Fractures) == 0 {
		t.Error("fractures should be shown by default")
	}

	m = press(t, m, "c", "x")
	if got := len(m.Figure().Markers); got != m.Grid().NumCells {
		t.Errorf("got %d markers, want %d", got, m.Grid().NumCells)
	}
	if len(m.Figure().Fractures) != 0 {
		t.Error("fractures should be hidden after toggling")
	}

	m = press(t, m, "+", "left")
	if m.view.Zoom <= 1 {
		t.Errorf("zoom = %f, want > 1", m.view.Zoom)
	}
	if m.view.CenterX >= 0.5 {
		t.Errorf("pan left should move the center, got %f", m.view.CenterX)
	}
	m = press(t, m, "r")
	if m.view.Zoom != 1 || m.view.CenterX != 0.5 {
		t.Errorf("reset view = %+v", m.view)
	}

	if !strings.Contains(m.View(), "MATRIX_2D") {
		t.Error("view should name the grid")
	}
}

func TestCycleGrids(t *testing.T) {
	a, _ := grid.CartGrid([]int{2, 2}, []float64{1, 1})
	b, _ := grid.StructuredTriangleGrid([]int{1, 1}, []float64{1, 1})
	gb := bucket.New()
	if err := gb.AddNodes(a, b); err != nil {
		t.Fatal(err)
	}
	m, err := New(gb, "", ThemeCyberpunk)
	if err != nil {
		t.Fatal(err)
	}
	first := m.Grid()
	m = press(t, m, "tab")
	if m.Grid() == first {
		t.Error("tab should move to the next grid")
	}
	m = press(t, m, "tab")
	if m.Grid() != first {
		t.Error("cycling should wrap around")
	}
}
