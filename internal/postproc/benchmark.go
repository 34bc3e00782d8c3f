package postproc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/fracflow/internal/geom"
	"github.com/san-kum/fracflow/internal/probe"
	"github.com/san-kum/fracflow/internal/vtk"
	"go.uber.org/zap"
)

// BenchmarkOptions configures the benchmark report. Each discretization
// has its results in Root/<solver>_results_<Index>/ with the constant data
// in sol_<dim>.vtu and the tracer series in tracer_<dim>_<step>.vtu.
type BenchmarkOptions struct {
	Root     string
	Solvers  []string
	Index    string
	Steps    int
	TimeStep float64

	MatrixDim, FractureDim int
	MatrixWeights          []string
	FractureWeights        []string
	MatrixLine             [2]geom.Vec3
	FractureLine           [2]geom.Vec3

	Resolution int
	Precision  int
	Workers    int
	Logger     *zap.Logger
}

// DefaultBenchmark returns the options of the single-fracture benchmark:
// 101 steps of 1e7 s, lines through the unit-100 cube.
func DefaultBenchmark() BenchmarkOptions {
	return BenchmarkOptions{
		Root:            ".",
		Solvers:         []string{"tpfa", "vem", "rt0", "mpfa"},
		Index:           "1",
		Steps:           101,
		TimeStep:        1e7,
		MatrixDim:       3,
		FractureDim:     2,
		MatrixWeights:   []string{"phi", "cell_volumes", "aperture", "bottom_domain"},
		FractureWeights: []string{"phi", "cell_volumes", "aperture"},
		MatrixLine:      [2]geom.Vec3{geom.V(0, 100, 100), geom.V(100, 0, 0)},
		FractureLine:    [2]geom.Vec3{geom.V(0, 100, 80), geom.V(100, 0, 20)},
		Resolution:      probe.DefaultResolution,
		Precision:       probe.DefaultPrecision,
	}
}

func (o BenchmarkOptions) precision() int {
	if o.Precision <= 0 {
		return probe.DefaultPrecision
	}
	return o.Precision
}

// Benchmark writes, for every discretization folder:
//
//	dot_<idx>.csv           time, matrix and fracture integrated tracer
//	pol_matrix_<idx>.csv    pressure along the matrix line
//	col_matrix_<idx>.csv    final tracer along the matrix line
//	col_fracture_<idx>.csv  final tracer along the fracture line
//
// Outputs have no header row.
func Benchmark(ctx context.Context, opts BenchmarkOptions) error {
	if opts.Steps <= 0 {
		return fmt.Errorf("%w, got %d", ErrSteps, opts.Steps)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	for _, name := range opts.Solvers {
		folder := filepath.Join(opts.Root, fmt.Sprintf("%s_results_%s", name, opts.Index))
		if _, err := os.Stat(folder); err != nil {
			return fmt.Errorf("benchmark %s: %w", name, err)
		}
		log.Info("processing", zap.String("solver", name), zap.String("folder", folder))
		if err := benchmarkFolder(ctx, folder, opts); err != nil {
			return fmt.Errorf("benchmark %s: %w", name, err)
		}
	}
	return nil
}

func benchmarkFolder(ctx context.Context, folder string, opts BenchmarkOptions) error {
	sol := func(dim int) string { return filepath.Join(folder, fmt.Sprintf("sol_%d.vtu", dim)) }
	tracer := func(dim int) string { return filepath.Join(folder, fmt.Sprintf("tracer_%d_", dim)) }
	out := func(name string) string { return filepath.Join(folder, fmt.Sprintf("%s_%s.csv", name, opts.Index)) }

	cotMatrix, err := CotDomain(ctx, CotSpec{
		Root: tracer(opts.MatrixDim), Reference: sol(opts.MatrixDim), Steps: opts.Steps,
		Field: "tracer", Weights: opts.MatrixWeights, Workers: opts.Workers,
	})
	if err != nil {
		return err
	}
	cotFracture, err := CotDomain(ctx, CotSpec{
		Root: tracer(opts.FractureDim), Reference: sol(opts.FractureDim), Steps: opts.Steps,
		Field: "tracer", Weights: opts.FractureWeights, Workers: opts.Workers,
	})
	if err != nil {
		return err
	}
	times := make([]float64, opts.Steps)
	for i := range times {
		times[i] = float64(i) * opts.TimeStep
	}
	cols := FormatFloats([][]float64{times, cotMatrix, cotFracture}, opts.precision())
	if err := WriteCSV(out("dot"), []string{"time", "cot_m", "cot_f"}, cols, false); err != nil {
		return err
	}

	lines := []struct {
		file, field, name string
		line              [2]geom.Vec3
	}{
		{sol(opts.MatrixDim), "pressure", "pol_matrix", opts.MatrixLine},
		{CotSpec{Root: tracer(opts.MatrixDim)}.StepFile(opts.Steps - 1), "tracer", "col_matrix", opts.MatrixLine},
		{CotSpec{Root: tracer(opts.FractureDim)}.StepFile(opts.Steps - 1), "tracer", "col_fracture", opts.FractureLine},
	}
	for _, l := range lines {
		if err := LineProfile(ctx, l.file, out(l.name), l.field, l.line, opts); err != nil {
			return err
		}
	}
	return nil
}

// LineProfile probes file along line and writes arc length and field
// without a header.
func LineProfile(ctx context.Context, file, outPath, field string, line [2]geom.Vec3, opts BenchmarkOptions) error {
	sets, err := vtk.Open(file)
	if err != nil {
		return err
	}
	table, err := probe.PlotOverLine(ctx, sets, line[0], line[1], probe.Options{
		Resolution: opts.Resolution,
		Workers:    opts.Workers,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	arc, _ := table.Column(probe.ArcLength)
	values, ok := table.Column(field)
	if !ok {
		return fmt.Errorf("%s: %w %q", file, ErrMissingColumn, field)
	}
	cols := FormatFloats([][]float64{arc, values}, opts.precision())
	return WriteCSV(outPath, []string{probe.ArcLength, field}, cols, false)
}
