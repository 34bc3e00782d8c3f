package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/config"
	"github.com/san-kum/fracflow/internal/geom"
	"github.com/san-kum/fracflow/internal/logging"
	"github.com/san-kum/fracflow/internal/plot"
	"github.com/san-kum/fracflow/internal/postproc"
	"github.com/san-kum/fracflow/internal/probe"
	"github.com/san-kum/fracflow/internal/solver"
	"github.com/san-kum/fracflow/internal/storage"
	"github.com/san-kum/fracflow/internal/viewer"
	"github.com/san-kum/fracflow/internal/vtk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

var (
	dataDir string
	verbose bool
	logger  *zap.Logger

	// run
	preset  string
	cells   []int
	physics string
	linear  string
	tol     float64
	maxIter int

	// plot and view
	gridIndex  int
	info       string
	fractures  bool
	field      string
	svgOut     string
	width      int
	height     int
	terminal   bool
	theme      string
	fromPreset string

	// probe
	p1, p2     []float64
	resolution int
	precision  int
	workers    int
	csvOut     string

	// cot
	cotRoot      string
	cotReference string
	cotSteps     int
	cotField     string
	cotWeights   []string
	cotPadding   int
	cotOut       string

	// extract and show
	fields   []string
	header   bool
	column   string
	colIndex int

	// benchmark
	benchRoot    string
	benchSolvers []string
	benchIndex   string
	benchSteps   int
	benchDt      float64
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fracflow",
		Short:         "flow in fractured porous media",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fracflow", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [case.yaml]",
		Short: "mesh, assemble and solve a case",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCase,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset case")
	runCmd.Flags().IntSliceVar(&cells, "cells", nil, "cells per axis")
	runCmd.Flags().StringVar(&physics, "physics", "flow", "discretization: "+strings.Join(solver.Physics(), ", "))
	runCmd.Flags().StringVar(&linear, "linear", solver.LinearDirect, fmt.Sprintf("linear solver: direct (up to %d dofs), cg", solver.MaxDirectDofs))
	runCmd.Flags().Float64Var(&tol, "tol", config.DefaultTol, "relative residual for cg")
	runCmd.Flags().IntVar(&maxIter, "max-iter", 0, "cg iteration limit, 10 × ndof when zero")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id | file.vtu]",
		Short: "plot a 2D grid as SVG or on the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotGrid,
	}
	plotCmd.Flags().IntVar(&gridIndex, "grid", 0, "index among the 2D grids")
	plotCmd.Flags().StringVar(&info, "info", "", "overlays: c cells, n nodes, f faces, o normals")
	plotCmd.Flags().BoolVar(&fractures, "fractures", true, "draw fracture faces")
	plotCmd.Flags().StringVar(&field, "field", "", "cell field used for colors")
	plotCmd.Flags().StringVarP(&svgOut, "out", "o", "grid.svg", "svg output")
	plotCmd.Flags().IntVar(&width, "width", 800, "svg width")
	plotCmd.Flags().IntVar(&height, "height", 800, "svg height")
	plotCmd.Flags().BoolVar(&terminal, "term", false, "draw on the terminal instead")
	plotCmd.Flags().StringVar(&fromPreset, "preset", "", "plot the mesh of a preset case")

	viewCmd := &cobra.Command{
		Use:   "view [run_id | file.vtu]",
		Short: "interactive grid viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  viewGrid,
	}
	viewCmd.Flags().StringVar(&field, "field", "", "cell field used for the value range")
	viewCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "theme: "+strings.Join(viewer.ThemeNames(), ", "))
	viewCmd.Flags().StringVar(&fromPreset, "preset", "", "view the mesh of a preset case")

	probeCmd := &cobra.Command{
		Use:   "probe [file.vtu | file.pvd]",
		Short: "sample data arrays along a line",
		Args:  cobra.ExactArgs(1),
		RunE:  probeLine,
	}
	probeCmd.Flags().Float64SliceVar(&p1, "p1", []float64{0, 0, 0}, "line start x,y,z")
	probeCmd.Flags().Float64SliceVar(&p2, "p2", []float64{1, 1, 0}, "line end x,y,z")
	probeCmd.Flags().IntVar(&resolution, "resolution", probe.DefaultResolution, "number of segments")
	probeCmd.Flags().IntVar(&precision, "precision", probe.DefaultPrecision, "significant digits")
	probeCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers")
	probeCmd.Flags().StringVarP(&csvOut, "out", "o", "line.csv", "csv output")

	cotCmd := &cobra.Command{
		Use:   "cot",
		Short: "integrate a cell field over a time series",
		RunE:  cotSeries,
	}
	cotCmd.Flags().StringVar(&cotRoot, "root", "", "step file prefix")
	cotCmd.Flags().StringVar(&cotReference, "reference", "", "file with the weight arrays")
	cotCmd.Flags().IntVar(&cotSteps, "steps", 1, "number of steps")
	cotCmd.Flags().StringVar(&cotField, "field", "tracer", "integrated cell field")
	cotCmd.Flags().StringSliceVar(&cotWeights, "weights", []string{"cell_volumes"}, "weight arrays")
	cotCmd.Flags().IntVar(&cotPadding, "padding", postproc.DefaultPadding, "step number width")
	cotCmd.Flags().IntVar(&workers, "workers", 0, "parallel readers")
	cotCmd.Flags().IntVar(&precision, "precision", probe.DefaultPrecision, "significant digits")
	cotCmd.Flags().StringVarP(&cotOut, "out", "o", "", "csv output, stdout when empty")
	_ = cotCmd.MarkFlagRequired("root")
	_ = cotCmd.MarkFlagRequired("reference")

	extractCmd := &cobra.Command{
		Use:   "extract [in.csv] [out.csv]",
		Short: "keep named columns of a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fields) == 0 {
				return fmt.Errorf("no fields given")
			}
			return postproc.ExtractColumns(args[0], args[1], fields, header)
		},
	}
	extractCmd.Flags().StringSliceVar(&fields, "fields", nil, "columns to keep")
	extractCmd.Flags().BoolVar(&header, "header", false, "write a header row")

	benchCmd := &cobra.Command{
		Use:   "benchmark",
		Short: "write the benchmark report of every discretization",
		RunE:  runBenchmark,
	}
	defaults := postproc.DefaultBenchmark()
	benchCmd.Flags().StringVar(&benchRoot, "root", defaults.Root, "folder holding <solver>_results_<index>")
	benchCmd.Flags().StringSliceVar(&benchSolvers, "solvers", defaults.Solvers, "discretizations")
	benchCmd.Flags().StringVar(&benchIndex, "index", defaults.Index, "case index")
	benchCmd.Flags().IntVar(&benchSteps, "steps", defaults.Steps, "number of steps")
	benchCmd.Flags().Float64Var(&benchDt, "dt", defaults.TimeStep, "time step")
	benchCmd.Flags().IntVar(&resolution, "resolution", defaults.Resolution, "probe segments")
	benchCmd.Flags().IntVar(&precision, "precision", defaults.Precision, "significant digits")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "parallel readers")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := storage.New(dataDir).Load(args[0])
			if err != nil {
				return err
			}
			return storage.WriteJSON(os.Stdout, meta)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [file.csv]",
		Short: "chart a CSV column",
		Args:  cobra.ExactArgs(1),
		RunE:  showColumn,
	}
	showCmd.Flags().StringVar(&column, "column", "", "column name (files with a header)")
	showCmd.Flags().IntVar(&colIndex, "col", 1, "column position (files without a header)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-10s %s\n", name, labelStyle.Render(fmt.Sprintf("%v cells, %d fractures", cfg.Cells, len(cfg.Fractures))))
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, plotCmd, viewCmd, probeCmd, cotCmd, extractCmd, benchCmd, listCmd, exportCmd, showCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func loadCase(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	// config file overrides preset
	if len(args) == 1 {
		var err error
		cfg, err = config.Load(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cmd.Flags().Changed("cells") {
		cfg.Cells = cells
	}
	if cmd.Flags().Changed("physics") {
		cfg.Solver.Physics = physics
	}
	if cmd.Flags().Changed("linear") {
		cfg.Solver.Linear = linear
	}
	if cmd.Flags().Changed("tol") || cfg.Solver.Tol == 0 {
		cfg.Solver.Tol = tol
	}
	if cmd.Flags().Changed("max-iter") {
		cfg.Solver.MaxIter = maxIter
	}
	return cfg, nil
}

func runCase(cmd *cobra.Command, args []string) error {
	cfg, err := loadCase(cmd, args)
	if err != nil {
		return err
	}

	start := time.Now()
	gb, err := cfg.Build()
	if err != nil {
		return err
	}
	logger.Info("meshed", zap.String("case", cfg.Name), zap.Stringer("bucket", gb))

	md, err := solver.NewMixedDim(cfg.Solver.Physics, solver.WithLogger(logger))
	if err != nil {
		return err
	}
	ndof, err := md.NDof(gb)
	if err != nil {
		return err
	}
	A, b, err := md.MatrixRHS(gb)
	if err != nil {
		return err
	}
	x, err := solver.Solve(cfg.Solver.Linear, A, b, cfg.Solver.Tol, cfg.Solver.MaxIter)
	if err != nil {
		return err
	}
	if err := md.Split(gb, "pressure", x); err != nil {
		return err
	}
	elapsed := time.Since(start)

	r := solver.MulVec(A, x)
	floats.Sub(r, b)
	metrics := map[string]float64{
		"residual":   floats.Norm(r, 2),
		"p_min":      floats.Min(x),
		"p_max":      floats.Max(x),
		"elapsed_ms": float64(elapsed.Milliseconds()),
	}

	st := storage.New(filepath.Join(dataDir, cfg.Output))
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.Run{
		Case: cfg.Name, Physics: cfg.Solver.Physics, Linear: cfg.Solver.Linear,
		NDof: ndof, Metrics: metrics,
	}, gb)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(strings.ToUpper(cfg.Name)))
	row := func(label, value string) {
		fmt.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label)), valueStyle.Render(value))
	}
	row("run id", filepath.Join(cfg.Output, runID))
	row("grids", strconv.Itoa(gb.Size()))
	row("ndof", strconv.Itoa(ndof))
	row("nnz", strconv.Itoa(A.NNZ()))
	row("pressure", fmt.Sprintf("%.6g .. %.6g", metrics["p_min"], metrics["p_max"]))
	row("residual", fmt.Sprintf("%.3g", metrics["residual"]))
	row("elapsed", elapsed.String())
	row("solution", st.Solution(runID))
	return nil
}

// loadBucket resolves the grids to plot: a preset mesh, a stored run or a
// single VTU file.
func loadBucket(args []string) (*bucket.Bucket, error) {
	if fromPreset != "" {
		cfg := config.GetPreset(fromPreset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", fromPreset, config.ListPresets())
		}
		return cfg.Build()
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("give a run id, a .vtu file or --preset")
	}
	if strings.EqualFold(filepath.Ext(args[0]), ".vtu") {
		ds, err := vtk.ReadVTU(args[0])
		if err != nil {
			return nil, err
		}
		g, err := vtk.ToGrid(ds)
		if err != nil {
			return nil, err
		}
		g.Name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		gb := bucket.New()
		if err := gb.AddNodes(g); err != nil {
			return nil, err
		}
		for _, arr := range ds.CellData {
			if arr.Components == 1 {
				gb.Data(g).SetField(arr.Name, arr.Values)
			}
		}
		return gb, nil
	}
	return storage.New(dataDir).LoadBucket(args[0])
}

func plotGrid(cmd *cobra.Command, args []string) error {
	gb, err := loadBucket(args)
	if err != nil {
		return err
	}
	grids := gb.GridsOfDimension(2)
	if len(grids) == 0 {
		return plot.ErrUnsupportedDimension
	}
	if gridIndex < 0 || gridIndex >= len(grids) {
		return fmt.Errorf("grid %d out of range, %d 2D grids", gridIndex, len(grids))
	}
	g := grids[gridIndex]

	opts := plot.Options{Info: info, Fractures: fractures}
	if field != "" {
		v, ok := gb.Data(g).Field(field)
		if !ok {
			return fmt.Errorf("grid %s has no field %q", g.Name, field)
		}
		opts.Field = v
	}
	fig, err := plot.Grid(g, opts)
	if err != nil {
		return err
	}

	if terminal {
		c := plot.NewCanvas(width/10, height/20)
		fig.Render(c, fig.FitView())
		fmt.Println(titleStyle.Render(fig.Title))
		fmt.Print(c.String())
		return nil
	}
	if err := fig.WriteSVG(svgOut, width, height); err != nil {
		return err
	}
	logger.Info("plot written", zap.String("grid", g.Name), zap.String("file", svgOut))
	return nil
}

func viewGrid(cmd *cobra.Command, args []string) error {
	gb, err := loadBucket(args)
	if err != nil {
		return err
	}
	return viewer.Run(gb, field, viewer.GetTheme(theme))
}

func vec(v []float64) (geom.Vec3, error) {
	if len(v) != 3 {
		return geom.Vec3{}, fmt.Errorf("want 3 coordinates, got %d", len(v))
	}
	return geom.V(v[0], v[1], v[2]), nil
}

func probeLine(cmd *cobra.Command, args []string) error {
	a, err := vec(p1)
	if err != nil {
		return fmt.Errorf("--p1: %w", err)
	}
	b, err := vec(p2)
	if err != nil {
		return fmt.Errorf("--p2: %w", err)
	}
	datasets, err := vtk.Open(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	table, err := probe.PlotOverLine(ctx, datasets, a, b, probe.Options{Resolution: resolution, Workers: workers})
	if err != nil {
		return err
	}
	if err := probe.WriteCSV(csvOut, table, precision); err != nil {
		return err
	}
	logger.Info("line probed",
		zap.Int("points", table.Rows()),
		zap.Strings("columns", table.Names()),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("file", csvOut))
	return nil
}

func cotSeries(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	values, err := postproc.CotDomain(ctx, postproc.CotSpec{
		Root: cotRoot, Reference: cotReference, Steps: cotSteps, Field: cotField,
		Weights: cotWeights, Padding: cotPadding, Workers: workers,
	})
	if err != nil {
		return err
	}
	steps := make([]float64, len(values))
	for i := range steps {
		steps[i] = float64(i)
	}
	cols := postproc.FormatFloats([][]float64{steps, values}, precision)
	if cotOut != "" {
		return postproc.WriteCSV(cotOut, []string{"step", cotField}, cols, false)
	}
	for i := range values {
		fmt.Printf("%s,%s\n", cols[0][i], cols[1][i])
	}
	return nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	opts := postproc.DefaultBenchmark()
	opts.Root = benchRoot
	opts.Solvers = benchSolvers
	opts.Index = benchIndex
	opts.Steps = benchSteps
	opts.TimeStep = benchDt
	opts.Resolution = resolution
	opts.Precision = precision
	opts.Workers = workers
	opts.Logger = logger

	start := time.Now()
	if err := postproc.Benchmark(ctx, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("benchmark interrupted")
		}
		return err
	}
	logger.Info("benchmark done", zap.Strings("solvers", opts.Solvers), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no runs found")
			return nil
		}
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCASE\tTIME\tPHYSICS\tLINEAR\tNDOF\tGRIDS")
	found := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		runs, err := storage.New(filepath.Join(dataDir, e.Name())).List()
		if err != nil {
			return err
		}
		for _, run := range runs {
			found++
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				filepath.Join(e.Name(), run.ID),
				run.Case,
				run.Timestamp.Format("2006-01-02 15:04:05"),
				run.Physics,
				run.Linear,
				run.NDof,
				len(run.Grids),
			)
		}
	}
	if found == 0 {
		fmt.Println("no runs found")
		return nil
	}
	return w.Flush()
}

func showColumn(cmd *cobra.Command, args []string) error {
	var (
		cols    [][]string
		err     error
		caption string
	)
	if column != "" {
		cols, err = postproc.ReadCSV(args[0], []string{column})
		caption = column
	} else {
		cols, err = postproc.ReadColumns(args[0], []int{colIndex})
		caption = fmt.Sprintf("column %d", colIndex)
	}
	if err != nil {
		return err
	}
	nums, err := postproc.ParseFloats(cols)
	if err != nil {
		return err
	}
	if len(nums[0]) == 0 {
		return fmt.Errorf("no data to show")
	}
	graph := asciigraph.Plot(nums[0],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s (%s)", caption, filepath.Base(args[0]))),
	)
	fmt.Println(graph)
	return nil
}
