package probe

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/fracflow/internal/geom"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/vtk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearDataset(t *testing.T, g *grid.Grid) *vtk.Dataset {
	t.Helper()
	cellX := make([]float64, g.NumCells)
	for c := range cellX {
		cellX[c] = g.CellCenter(c).X
	}
	ds, err := vtk.FromGrid(g, map[string][]float64{"pressure": cellX})
	require.NoError(t, err)
	nodeX := make([]float64, g.NumNodes)
	for n := range nodeX {
		nodeX[n] = g.Node(n).X
	}
	ds.PointData = append(ds.PointData, &vtk.DataArray{Name: "head", Components: 1, Values: nodeX})
	return ds
}

func TestPlotOverLine2D(t *testing.T) {
	g, err := grid.StructuredTriangleGrid([]int{4, 4}, []float64{1, 1})
	require.NoError(t, err)
	ds := linearDataset(t, g)

	table, err := PlotOverLine(context.Background(), []*vtk.Dataset{ds},
		geom.V(0, 0.3, 0), geom.V(1, 0.3, 0), Options{Resolution: 40, Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, 41, table.Rows())
	assert.Equal(t, []string{"head", "pressure", ArcLength, ValidMask, "Points:0", "Points:1", "Points:2"}, table.Names())

	head, _ := table.Column("head")
	arc, _ := table.Column(ArcLength)
	mask, _ := table.Column(ValidMask)
	for i := range head {
		assert.Equal(t, 1.0, mask[i])
		assert.InDelta(t, arc[i], head[i], 1e-9)
	}
	pressure, _ := table.Column("pressure")
	assert.InDelta(t, 0.125, pressure[2], 0.13)
}

func TestPlotOverLineOutside(t *testing.T) {
	g, err := grid.CartGrid([]int{2, 2}, []float64{1, 1})
	require.NoError(t, err)
	ds := linearDataset(t, g)

	table, err := PlotOverLine(context.Background(), []*vtk.Dataset{ds},
		geom.V(-1, 0.5, 0), geom.V(1, 0.5, 0), Options{Resolution: 4})
	require.NoError(t, err)
	mask, _ := table.Column(ValidMask)
	head, _ := table.Column("head")
	assert.Equal(t, []float64{0, 0, 1, 1, 1}, mask)
	assert.Equal(t, 0.0, head[0])
	assert.InDelta(t, 0.5, head[3], 1e-12)
}

func TestPlotOverLine3D(t *testing.T) {
	g, err := grid.CartGrid([]int{2, 2, 2}, []float64{1, 1, 1})
	require.NoError(t, err)
	ds := linearDataset(t, g)

	table, err := PlotOverLine(context.Background(), []*vtk.Dataset{ds},
		geom.V(0, 1, 1), geom.V(1, 0, 0), Options{Resolution: 10})
	require.NoError(t, err)
	head, _ := table.Column("head")
	x, _ := table.Column("Points:0")
	mask, _ := table.Column(ValidMask)
	for i := range head {
		assert.Equal(t, 1.0, mask[i])
		assert.InDelta(t, x[i], head[i], 1e-9)
	}
}

func TestPlotOverLineFracture(t *testing.T) {
	// a 1D fracture embedded at y = 0.5
	g, err := grid.CartGrid([]int{4}, []float64{1})
	require.NoError(t, err)
	for n := 0; n < g.NumNodes; n++ {
		g.Nodes.Set(1, n, 0.5)
	}
	require.NoError(t, g.ComputeGeometry())
	ds := linearDataset(t, g)

	table, err := PlotOverLine(context.Background(), []*vtk.Dataset{ds},
		geom.V(0, 0.5, 0), geom.V(1, 0.5, 0), Options{Resolution: 8})
	require.NoError(t, err)
	mask, _ := table.Column(ValidMask)
	for _, m := range mask {
		assert.Equal(t, 1.0, m)
	}

	off, err := PlotOverLine(context.Background(), []*vtk.Dataset{ds},
		geom.V(0, 0.6, 0), geom.V(1, 0.6, 0), Options{Resolution: 8})
	require.NoError(t, err)
	mask, _ = off.Column(ValidMask)
	for _, m := range mask {
		assert.Equal(t, 0.0, m)
	}
}

func TestWriteCSV(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "pressure", Values: []float64{1, 2}},
		{Name: ArcLength, Values: []float64{0, 0.5}},
	}}
	path := filepath.Join(t.TempDir(), "pol.csv")
	require.NoError(t, WriteCSV(path, table, 0))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"pressure", ArcLength},
		{"1", "0"},
		{"2", "0.5"},
	}, rows)
}
