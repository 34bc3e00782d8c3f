// Package params holds the physical parameters and boundary data a
// discretization reads from a grid's data dictionary.
package params

import (
	"fmt"
)

// Parameters are the per-grid physical inputs. Nil fields fall back to the
// defaults documented on each accessor.
type Parameters struct {
	Perm     *SecondOrderTensor
	BC       *BoundaryCondition
	BCVal    []float64 // per face: pressure for Dirichlet, normal flux for Neumann
	Source   []float64 // per cell, integrated over the cell
	Aperture []float64 // per cell
	Porosity []float64 // per cell
	Dt       float64
}

// Data is the data dictionary attached to a grid: its parameters and the
// named fields written back by solvers.
type Data struct {
	Param  *Parameters
	Fields map[string][]float64
}

func NewData(p *Parameters) *Data {
	return &Data{Param: p, Fields: make(map[string][]float64)}
}

// Field returns the named field; ok is false when absent.
func (d *Data) Field(key string) ([]float64, bool) {
	if d == nil || d.Fields == nil {
		return nil, false
	}
	v, ok := d.Fields[key]
	return v, ok
}

// SetField stores values under key.
func (d *Data) SetField(key string, values []float64) {
	if d.Fields == nil {
		d.Fields = make(map[string][]float64)
	}
	d.Fields[key] = values
}

// Tensor returns the permeability, unit isotropic when unset.
func (p *Parameters) Tensor(numCells int) *SecondOrderTensor {
	if p == nil || p.Perm == nil {
		return NewIsotropic(ones(numCells))
	}
	return p.Perm
}

// BoundaryCondition returns the face conditions, all None when unset.
func (p *Parameters) BoundaryCondition(numFaces int) *BoundaryCondition {
	if p == nil || p.BC == nil {
		return NewBoundaryCondition(numFaces)
	}
	return p.BC
}

// BoundaryValues returns the boundary data, zero when unset.
func (p *Parameters) BoundaryValues(numFaces int) []float64 {
	if p == nil || p.BCVal == nil {
		return make([]float64, numFaces)
	}
	return p.BCVal
}

// Sources returns the cell sources, zero when unset.
func (p *Parameters) Sources(numCells int) []float64 {
	if p == nil || p.Source == nil {
		return make([]float64, numCells)
	}
	return p.Source
}

// Apertures returns the cell apertures, one when unset.
func (p *Parameters) Apertures(numCells int) []float64 {
	if p == nil || p.Aperture == nil {
		return ones(numCells)
	}
	return p.Aperture
}

// Porosities returns the cell porosities, one when unset.
func (p *Parameters) Porosities(numCells int) []float64 {
	if p == nil || p.Porosity == nil {
		return ones(numCells)
	}
	return p.Porosity
}

// TimeStep returns Dt, one when unset.
func (p *Parameters) TimeStep() float64 {
	if p == nil || p.Dt <= 0 {
		return 1
	}
	return p.Dt
}

// Validate checks the field lengths against the grid sizes.
func (p *Parameters) Validate(numFaces, numCells int) error {
	if p == nil {
		return nil
	}
	check := func(name string, v []float64, n int) error {
		if v != nil && len(v) != n {
			return fmt.Errorf("params: %s has %d values, want %d", name, len(v), n)
		}
		return nil
	}
	if p.Perm != nil && p.Perm.NumCells() != numCells {
		return fmt.Errorf("params: permeability has %d cells, want %d", p.Perm.NumCells(), numCells)
	}
	if p.BC != nil && len(p.BC.Types) != numFaces {
		return fmt.Errorf("params: boundary condition has %d faces, want %d", len(p.BC.Types), numFaces)
	}
	for _, c := range []struct {
		name string
		v    []float64
		n    int
	}{
		{"bc values", p.BCVal, numFaces},
		{"source", p.Source, numCells},
		{"aperture", p.Aperture, numCells},
		{"porosity", p.Porosity, numCells},
	} {
		if err := check(c.name, c.v, c.n); err != nil {
			return err
		}
	}
	return nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
