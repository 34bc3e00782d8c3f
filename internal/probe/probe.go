// Package probe samples VTK datasets along a line, the way a "plot over
// line" filter does: every point and cell array is reported at evenly
// spaced points together with the arc length, a validity mask and the
// point coordinates.
package probe

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/fracflow/internal/geom"
	"github.com/san-kum/fracflow/internal/parallel"
	"github.com/san-kum/fracflow/internal/vtk"
)

const (
	DefaultResolution = 50000
	DefaultPrecision  = 15

	ArcLength = "arc_length"
	ValidMask = "vtkValidPointMask"
)

// Column is one named column of a table.
type Column struct {
	Name   string
	Values []float64
}

// Table is a column-oriented result with equal-length columns.
type Table struct {
	Columns []Column
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Names lists the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

type Options struct {
	Resolution int // number of segments, DefaultResolution when zero
	Workers    int
}

// field maps one output column to a dataset array component.
type field struct {
	name      string
	array     string
	component int
	cell      bool
}

// PlotOverLine samples datasets at Resolution+1 points evenly spaced from
// p1 to p2. A point takes its values from the first dataset with a cell
// containing it: cell arrays are piecewise constant and point arrays are
// interpolated. Points outside every cell have mask 0 and zero values.
func PlotOverLine(ctx context.Context, datasets []*vtk.Dataset, p1, p2 geom.Vec3, opts Options) (*Table, error) {
	res := opts.Resolution
	if res <= 0 {
		res = DefaultResolution
	}
	if len(datasets) == 0 {
		return nil, fmt.Errorf("probe: no datasets")
	}

	fields := collectFields(datasets)
	locators := make([]*locator, len(datasets))
	for i, ds := range datasets {
		locators[i] = newLocator(ds)
	}

	n := res + 1
	values := make([][]float64, len(fields))
	for i := range values {
		values[i] = make([]float64, n)
	}
	arc := make([]float64, n)
	mask := make([]float64, n)
	var coords [3][]float64
	for d := range coords {
		coords[d] = make([]float64, n)
	}

	line := p2.Sub(p1)
	length := line.Length()
	err := parallel.For(ctx, n, 1024, opts.Workers, func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if i%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			t := float64(i) / float64(res)
			p := p1.Add(line.Scale(t))
			arc[i] = t * length
			coords[0][i], coords[1][i], coords[2][i] = p.X, p.Y, p.Z

			for k, loc := range locators {
				c, s, w, ok := loc.find(p)
				if !ok {
					continue
				}
				mask[i] = 1
				ds := datasets[k]
				for f, fd := range fields {
					values[f][i] = sample(ds, fd, c, s, w)
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	table := &Table{}
	for f, fd := range fields {
		table.Columns = append(table.Columns, Column{Name: fd.name, Values: values[f]})
	}
	table.Columns = append(table.Columns,
		Column{Name: ArcLength, Values: arc},
		Column{Name: ValidMask, Values: mask},
		Column{Name: "Points:0", Values: coords[0]},
		Column{Name: "Points:1", Values: coords[1]},
		Column{Name: "Points:2", Values: coords[2]},
	)
	return table, nil
}

// collectFields lists the columns of all arrays in first-seen order, point
// arrays before cell arrays.
func collectFields(datasets []*vtk.Dataset) []field {
	var out []field
	seen := make(map[string]bool)
	addAll := func(arrays []*vtk.DataArray, cell bool) {
		for _, a := range arrays {
			nc := max(a.Components, 1)
			for k := 0; k < nc; k++ {
				name := a.Name
				if nc > 1 {
					name = fmt.Sprintf("%s:%d", a.Name, k)
				}
				if seen[name] {
					continue
				}
				seen[name] = true
				out = append(out, field{name: name, array: a.Name, component: k, cell: cell})
			}
		}
	}
	for _, ds := range datasets {
		addAll(ds.PointData, false)
	}
	for _, ds := range datasets {
		addAll(ds.CellData, true)
	}
	return out
}

func sample(ds *vtk.Dataset, fd field, c int, s simplex, w []float64) float64 {
	if fd.cell {
		a, ok := ds.CellArray(fd.array)
		if !ok || fd.component >= max(a.Components, 1) {
			return 0
		}
		return a.Component(c, fd.component)
	}
	a, ok := ds.PointArray(fd.array)
	if !ok || fd.component >= max(a.Components, 1) {
		return 0
	}
	v := 0.0
	for i, vert := range s {
		mean := 0.0
		for _, id := range vert.ids {
			mean += a.Component(id, fd.component)
		}
		v += w[i] * mean / float64(len(vert.ids))
	}
	return v
}

// WriteCSV writes the table with a header row. precision is the number of
// significant digits, DefaultPrecision when zero.
func WriteCSV(path string, t *Table, precision int) error {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Names()); err != nil {
		f.Close()
		return err
	}
	row := make([]string, len(t.Columns))
	for i := 0; i < t.Rows(); i++ {
		for j, c := range t.Columns {
			row[j] = strconv.FormatFloat(c.Values[i], 'g', precision, 64)
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
