package config

import "sort"

var Presets = map[string]*Config{
	"single": {
		Name: "single", Cells: []int{20, 20}, Size: []float64{1, 1},
		Fractures: []FractureConfig{{Axis: 1, Position: 0.5}},
		Matrix:    MediumConfig{Permeability: 1, Porosity: 0.2},
		Fracture:  MediumConfig{Permeability: 1e4, Aperture: 1e-2, NormalPermeability: 1e2, Porosity: 1},
		Boundary: []BoundaryConfig{
			{Side: "xmin", Type: "dir", Value: 1},
			{Side: "xmax", Type: "dir", Value: 0},
		},
		Solver: SolverConfig{Physics: "flow", Linear: "direct"},
	},
	"barrier": {
		Name: "barrier", Cells: []int{20, 20}, Size: []float64{1, 1},
		Fractures: []FractureConfig{{Axis: 0, Position: 0.5, Lo: []float64{0, 0.2}, Hi: []float64{0, 0.8}}},
		Matrix:    MediumConfig{Permeability: 1, Porosity: 0.2},
		Fracture:  MediumConfig{Permeability: 1e-4, Aperture: 1e-2, NormalPermeability: 1e-4, Porosity: 1},
		Boundary: []BoundaryConfig{
			{Side: "xmin", Type: "dir", Value: 1},
			{Side: "xmax", Type: "dir", Value: 0},
		},
		Solver: SolverConfig{Physics: "flow", Linear: "cg", Tol: 1e-12},
	},
	"parallel": {
		Name: "parallel", Cells: []int{30, 30}, Size: []float64{3, 3},
		Fractures: []FractureConfig{
			{Axis: 1, Position: 1},
			{Axis: 1, Position: 2},
		},
		Matrix:   MediumConfig{Permeability: 1, Porosity: 0.2},
		Fracture: MediumConfig{Permeability: 1e3, Aperture: 1e-3, NormalPermeability: 1, Porosity: 1},
		Boundary: []BoundaryConfig{
			{Side: "ymin", Type: "dir", Value: 0},
			{Side: "ymax", Type: "neu", Value: -1},
		},
		Solver: SolverConfig{Physics: "flow", Linear: "cg", Tol: 1e-12},
	},
	"source": {
		Name: "source", Cells: []int{16, 16}, Size: []float64{1, 1},
		Fractures: []FractureConfig{{Axis: 0, Position: 0.5, Lo: []float64{0, 0.25}, Hi: []float64{0, 0.75}}},
		Matrix:    MediumConfig{Permeability: 1, Porosity: 0.2},
		Fracture:  MediumConfig{Permeability: 1e2, Aperture: 1e-2, NormalPermeability: 1, Porosity: 1, Source: 10},
		Boundary: []BoundaryConfig{
			{Side: "xmin", Type: "dir"}, {Side: "xmax", Type: "dir"},
			{Side: "ymin", Type: "dir"}, {Side: "ymax", Type: "dir"},
		},
		Solver: SolverConfig{Physics: "flow", Linear: "direct"},
	},
	"block3d": {
		Name: "block3d", Cells: []int{6, 6, 6}, Size: []float64{1, 1, 1},
		Fractures: []FractureConfig{{Axis: 2, Position: 0.5}},
		Matrix:    MediumConfig{Permeability: 1, Porosity: 0.2},
		Fracture:  MediumConfig{Permeability: 1e3, Aperture: 1e-2, NormalPermeability: 1e2, Porosity: 1},
		Boundary: []BoundaryConfig{
			{Side: "xmin", Type: "dir", Value: 1},
			{Side: "xmax", Type: "dir", Value: 0},
		},
		Solver: SolverConfig{Physics: "flow", Linear: "cg", Tol: 1e-12},
	},
}

// GetPreset returns a copy of the named preset, nil when unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Cells = append([]int(nil), p.Cells...)
	cfg.Size = append([]float64(nil), p.Size...)
	cfg.Fractures = append([]FractureConfig(nil), p.Fractures...)
	cfg.Boundary = append([]BoundaryConfig(nil), p.Boundary...)
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
