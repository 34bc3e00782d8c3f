// Package viewer is an interactive terminal browser for the 2D grids of a
// bucket. Overlays can be toggled and the view zoomed and panned.
package viewer

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/plot"
)

var ErrNoGrids = errors.New("viewer: bucket has no 2D grids")

const (
	minZoom = 0.25
	maxZoom = 32
	panStep = 0.1
)

// Model is the bubbletea model of the viewer.
type Model struct {
	grids  []*grid.Grid
	fields map[*grid.Grid][]float64
	cursor int

	info      map[byte]bool
	fractures bool
	view      plot.View
	figure    *plot.Figure
	err       error

	width, height int
	theme         Theme
	st            styles
}

// New builds a viewer over the 2D grids of gb. field names a cell field
// stored in the grid data used for coloring the legend range; it may be
// empty.
func New(gb *bucket.Bucket, field string, theme Theme) (Model, error) {
	m := Model{
		grids:     gb.GridsOfDimension(2),
		fields:    make(map[*grid.Grid][]float64),
		info:      map[byte]bool{},
		fractures: true,
		width:     80,
		height:    24,
		theme:     theme,
		st:        newStyles(theme),
	}
	if len(m.grids) == 0 {
		return m, ErrNoGrids
	}
	if field != "" {
		for _, g := range m.grids {
			if v, ok := gb.Data(g).Field(field); ok {
				m.fields[g] = v
			}
		}
	}
	m.rebuild(true)
	return m, m.err
}

// Grid returns the grid being shown.
func (m Model) Grid() *grid.Grid { return m.grids[m.cursor] }

func (m Model) Figure() *plot.Figure { return m.figure }

func (m Model) View() string {
	var b strings.Builder
	g := m.Grid()
	b.WriteString("\n  " + m.st.title.Render(strings.ToUpper(g.Name)) + "  " +
		m.st.sub.Render(fmt.Sprintf("%d cells  %d faces  %d nodes  (%d/%d)", g.NumCells, g.NumFaces, g.NumNodes, m.cursor+1, len(m.grids))) + "\n\n")

	if m.err != nil {
		b.WriteString("  " + m.st.value.Render(m.err.Error()) + "\n")
	} else {
		cw, ch := m.canvasSize()
		c := plot.NewCanvas(cw, ch)
		m.figure.Render(c, m.view)
		b.WriteString(m.st.panel.Render(strings.TrimRight(c.String(), "\n")) + "\n")
	}

	b.WriteString("  ")
	for _, k := range []byte("cnfo") {
		b.WriteString(m.toggle(strings.ToUpper(string(k)), m.info[k]) + " ")
	}
	b.WriteString(m.toggle("frac", m.fractures))
	if f := m.figure; f != nil && f.Max > f.Min {
		b.WriteString("  " + m.st.label.Render("range ") + m.st.value.Render(fmt.Sprintf("%.4g..%.4g", f.Min, f.Max)))
	}
	b.WriteString("  " + m.st.label.Render("zoom ") + m.st.value.Render(fmt.Sprintf("%.2gx", m.view.Zoom)) + "\n\n")

	b.WriteString("  " + m.hint("tab", "grid") + m.hint("c/n/f/o", "overlay") + m.hint("x", "fractures") +
		m.hint("+/-", "zoom") + m.hint("arrows", "pan") + m.hint("r", "reset") + m.hint("q", "quit") + "\n")
	return b.String()
}

func (m Model) toggle(name string, on bool) string {
	if on {
		return m.st.on.Render("[" + name + "]")
	}
	return m.st.off.Render(" " + name + " ")
}

func (m Model) hint(key, what string) string {
	return m.st.key.Render(key) + m.st.hint.Render(" "+what+"  ")
}

func (m Model) canvasSize() (int, int) {
	w, h := m.width-4, m.height-10
	return max(w, 10), max(h, 4)
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	f := m.figure
	span := 1.0
	if f != nil {
		span = max(f.Hi.X-f.Lo.X, f.Hi.Y-f.Lo.Y) / m.view.Zoom
	}
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "]":
		m.cursor = (m.cursor + 1) % len(m.grids)
		m.rebuild(true)
	case "shift+tab", "[":
		m.cursor = (m.cursor + len(m.grids) - 1) % len(m.grids)
		m.rebuild(true)
	case "c", "n", "f", "o":
		k := msg.String()[0]
		m.info[k] = !m.info[k]
		m.rebuild(false)
	case "x":
		m.fractures = !m.fractures
		m.rebuild(false)
	case "+", "=":
		m.view.Zoom = min(m.view.Zoom*1.5, maxZoom)
	case "-", "_":
		m.view.Zoom = max(m.view.Zoom/1.5, minZoom)
	case "left", "h":
		m.view.CenterX -= span * panStep
	case "right", "l":
		m.view.CenterX += span * panStep
	case "up", "k":
		m.view.CenterY += span * panStep
	case "down", "j":
		m.view.CenterY -= span * panStep
	case "r":
		if f != nil {
			m.view = f.FitView()
		}
	}
	return m, nil
}

func (m *Model) rebuild(reset bool) {
	var info strings.Builder
	for _, k := range []byte("cnfo") {
		if m.info[k] {
			info.WriteByte(k)
		}
	}
	g := m.Grid()
	f, err := plot.Grid(g, plot.Options{Info: info.String(), Fractures: m.fractures, Field: m.fields[g]})
	m.figure, m.err = f, err
	if err == nil && (reset || m.view.Zoom == 0) {
		m.view = f.FitView()
	}
}

// Run starts the viewer on the alternate screen.
func Run(gb *bucket.Bucket, field string, theme Theme) error {
	m, err := New(gb, field, theme)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
