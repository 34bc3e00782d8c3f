package postproc

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/fracflow/internal/parallel"
	"github.com/san-kum/fracflow/internal/vtk"
)

const DefaultPadding = 6

var ErrSteps = errors.New("postproc: step count must be positive")

// CotSpec describes an integrated quantity over a time series: for every
// step i the sum over cells of Field times the product of the Weights
// arrays, read once from Reference. Step files are named
// Root + zero-padded(i) + ".vtu".
type CotSpec struct {
	Root      string
	Reference string
	Steps     int
	Field     string
	Weights   []string
	Padding   int
	Workers   int
}

// StepFile returns the file name of step i.
func (s CotSpec) StepFile(i int) string {
	pad := s.Padding
	if pad <= 0 {
		pad = DefaultPadding
	}
	return fmt.Sprintf("%s%0*d.vtu", s.Root, pad, i)
}

// CotDomain computes the integrated quantity for every step. Step files
// are read concurrently; results are in step order.
func CotDomain(ctx context.Context, spec CotSpec) ([]float64, error) {
	if spec.Steps <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrSteps, spec.Steps)
	}
	ref, err := vtk.ReadVTU(spec.Reference)
	if err != nil {
		return nil, err
	}
	weight, err := productOf(ref, spec.Weights)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Reference, err)
	}

	cot := make([]float64, spec.Steps)
	err = parallel.Each(ctx, spec.Steps, spec.Workers, func(ctx context.Context, i int) error {
		path := spec.StepFile(i)
		ds, err := vtk.ReadVTU(path)
		if err != nil {
			return err
		}
		c, err := ds.CellValues(spec.Field)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(c) != len(weight) {
			return fmt.Errorf("%s: %d cells, reference has %d", path, len(c), len(weight))
		}
		sum := 0.0
		for k, v := range c {
			sum += v * weight[k]
		}
		cot[i] = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cot, nil
}

// productOf multiplies cell arrays elementwise; no names gives ones.
func productOf(ds *vtk.Dataset, names []string) ([]float64, error) {
	w := make([]float64, ds.NumCells())
	for i := range w {
		w[i] = 1
	}
	for _, name := range names {
		v, err := ds.CellValues(name)
		if err != nil {
			return nil, err
		}
		for i := range w {
			w[i] *= v[i]
		}
	}
	return w, nil
}
