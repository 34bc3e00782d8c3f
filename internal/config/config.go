package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/meshing"
	"github.com/san-kum/fracflow/internal/params"
	"github.com/san-kum/fracflow/internal/solver"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPermeability = 1.0
	DefaultAperture     = 1e-2
	DefaultKn           = 1.0
	DefaultPorosity     = 1.0
	DefaultTol          = 1e-10
	DefaultOutput       = "runs"
)

var sides = map[string]struct {
	axis  int
	upper bool
}{
	"xmin": {0, false}, "xmax": {0, true},
	"ymin": {1, false}, "ymax": {1, true},
	"zmin": {2, false}, "zmax": {2, true},
}

// Config is a flow case: a fractured Cartesian domain, its media and
// boundary conditions and the solver settings.
type Config struct {
	Name      string           `yaml:"name"`
	Cells     []int            `yaml:"cells"`
	Size      []float64        `yaml:"size"`
	Fractures []FractureConfig `yaml:"fractures"`
	Matrix    MediumConfig     `yaml:"matrix"`
	Fracture  MediumConfig     `yaml:"fracture"`
	Boundary  []BoundaryConfig `yaml:"boundary"`
	Solver    SolverConfig     `yaml:"solver"`
	Output    string           `yaml:"output"`
}

type FractureConfig struct {
	Axis     int       `yaml:"axis"`
	Position float64   `yaml:"position"`
	Lo       []float64 `yaml:"lo,omitempty"`
	Hi       []float64 `yaml:"hi,omitempty"`
}

type MediumConfig struct {
	Permeability       float64 `yaml:"permeability"`
	Aperture           float64 `yaml:"aperture,omitempty"`
	NormalPermeability float64 `yaml:"normal_permeability,omitempty"`
	Porosity           float64 `yaml:"porosity"`
	// Source is a rate per unit volume.
	Source float64 `yaml:"source"`
}

type BoundaryConfig struct {
	Side  string  `yaml:"side"`
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value"`
}

type SolverConfig struct {
	Physics string  `yaml:"physics"`
	// Linear is direct or cg. direct holds a dense copy of the system and
	// is limited to solver.MaxDirectDofs unknowns.
	Linear  string  `yaml:"linear"`
	Tol     float64 `yaml:"tol"`
	MaxIter int     `yaml:"max_iter"`
	Dt      float64 `yaml:"dt"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:  "default",
		Cells: []int{20, 20},
		Size:  []float64{1, 1},
		Fractures: []FractureConfig{
			{Axis: 1, Position: 0.5},
		},
		Matrix: MediumConfig{Permeability: DefaultPermeability, Porosity: DefaultPorosity},
		Fracture: MediumConfig{
			Permeability:       1e4,
			Aperture:           DefaultAperture,
			NormalPermeability: DefaultKn,
			Porosity:           DefaultPorosity,
		},
		Boundary: []BoundaryConfig{
			{Side: "xmin", Type: "dir", Value: 1},
			{Side: "xmax", Type: "dir", Value: 0},
		},
		Solver: SolverConfig{Physics: "flow", Linear: solver.LinearDirect, Tol: DefaultTol},
		Output: DefaultOutput,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	// lists are replaced, not merged
	cfg.Fractures, cfg.Boundary = nil, nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the case before meshing.
func (c *Config) Validate() error {
	dim := len(c.Cells)
	if dim != 2 && dim != 3 {
		return fmt.Errorf("config: %d cell counts, want 2 or 3", dim)
	}
	if len(c.Size) != dim {
		return fmt.Errorf("config: %d sizes for a %dD domain", len(c.Size), dim)
	}
	for i := range c.Cells {
		if c.Cells[i] <= 0 || c.Size[i] <= 0 {
			return fmt.Errorf("config: axis %d needs positive cells and size", i)
		}
	}
	for i, f := range c.Fractures {
		if f.Axis < 0 || f.Axis >= dim {
			return fmt.Errorf("config: fracture %d has axis %d in a %dD domain", i, f.Axis, dim)
		}
	}
	if c.Matrix.Permeability <= 0 {
		return fmt.Errorf("config: matrix permeability must be positive")
	}
	if c.Matrix.Porosity <= 0 || c.Matrix.Porosity > 1 {
		return fmt.Errorf("config: matrix porosity %g outside (0, 1]", c.Matrix.Porosity)
	}
	if len(c.Fractures) > 0 {
		if c.Fracture.Permeability <= 0 || c.Fracture.Aperture <= 0 || c.Fracture.NormalPermeability <= 0 {
			return fmt.Errorf("config: fracture permeability, aperture and normal permeability must be positive")
		}
		if c.Fracture.Porosity <= 0 || c.Fracture.Porosity > 1 {
			return fmt.Errorf("config: fracture porosity %g outside (0, 1]", c.Fracture.Porosity)
		}
	}
	for _, b := range c.Boundary {
		s, ok := sides[b.Side]
		if !ok {
			return fmt.Errorf("config: unknown boundary side %q", b.Side)
		}
		if s.axis >= dim {
			return fmt.Errorf("config: side %q in a %dD domain", b.Side, dim)
		}
		if _, err := params.ParseBCType(b.Type); err != nil {
			return fmt.Errorf("config: side %s: %w", b.Side, err)
		}
	}
	switch c.Solver.Linear {
	case "", solver.LinearDirect, solver.LinearCG:
	default:
		return fmt.Errorf("config: unknown linear solver %q", c.Solver.Linear)
	}
	for _, p := range solver.Physics() {
		if p == c.Solver.Physics {
			return nil
		}
	}
	return fmt.Errorf("config: unknown physics %q", c.Solver.Physics)
}

// Build meshes the domain and fills the data dictionary of every grid.
// Boundary conditions apply to the highest-dimensional grid; fracture
// tips are left zero-flux.
func (c *Config) Build() (*bucket.Bucket, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	fracs := make([]meshing.Fracture, len(c.Fractures))
	for i, f := range c.Fractures {
		fracs[i] = meshing.Fracture{Axis: f.Axis, Position: f.Position, Lo: f.Lo, Hi: f.Hi}
	}
	gb, err := meshing.CartFractured(c.Cells, c.Size, fracs)
	if err != nil {
		return nil, err
	}

	dimMax := gb.DimMax()
	for _, n := range gb.Nodes() {
		g := n.Grid
		m := c.Fracture
		if g.Dim == dimMax {
			m = c.Matrix
		}
		p := &params.Parameters{
			Perm:     params.NewIsotropic(fill(g.NumCells, m.Permeability)),
			Porosity: fill(g.NumCells, m.Porosity),
			Dt:       c.Solver.Dt,
		}
		if g.Dim < dimMax {
			p.Aperture = fill(g.NumCells, m.Aperture)
		}
		if m.Source != 0 {
			p.Source = make([]float64, g.NumCells)
			for i := range p.Source {
				p.Source[i] = m.Source * g.CellVolumes[i]
				if p.Aperture != nil {
					p.Source[i] *= p.Aperture[i]
				}
			}
		}
		if g.Dim == dimMax {
			p.BC, p.BCVal, err = c.boundary(g)
			if err != nil {
				return nil, err
			}
		}
		n.Data = params.NewData(p)
	}
	for _, e := range gb.Edges() {
		e.Kn = fill(e.Lo.NumCells, c.Fracture.NormalPermeability)
	}
	return gb, nil
}

func (c *Config) boundary(g *grid.Grid) (*params.BoundaryCondition, []float64, error) {
	bc := params.NewBoundaryCondition(g.NumFaces)
	vals := make([]float64, g.NumFaces)
	lo, hi := g.BoundingBox()
	faces := g.TaggedFaces(grid.TagDomainBoundary)
	for _, b := range c.Boundary {
		typ, err := params.ParseBCType(b.Type)
		if err != nil {
			return nil, nil, err
		}
		s := sides[b.Side]
		target := lo.At(s.axis)
		if s.upper {
			target = hi.At(s.axis)
		}
		tol := 1e-9 * (hi.At(s.axis) - lo.At(s.axis))
		for _, f := range faces {
			if math.Abs(g.FaceCenter(f).At(s.axis)-target) <= tol {
				bc.Set(typ, f)
				vals[f] = b.Value
			}
		}
	}
	return bc, vals, nil
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
