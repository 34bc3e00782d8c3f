package solver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/bucket"
)

// Factory builds the per-grid discretization and the interface coupling
// for a physics keyword. A nil Coupling is allowed for physics without
// interface terms.
type Factory func() (Solver, Coupling)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"flow":   func() (Solver, Coupling) { return Tpfa{}, TpfaCoupling{} },
		"tpfa":   func() (Solver, Coupling) { return Tpfa{}, TpfaCoupling{} },
		"mass":   func() (Solver, Coupling) { return MassMatrix{}, nil },
		"source": func() (Solver, Coupling) { return Source{}, nil },
	}
)

// Register adds or replaces the factory for a physics keyword.
func Register(physics string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[physics] = f
}

// Physics lists the registered keywords.
func Physics() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MixedDim applies a discretization to every grid of a bucket. Assembly
// and splitting are delegated to its Assembler.
type MixedDim struct {
	discr  Solver
	solver *Assembler
}

// NewMixedDim looks up the discretization registered for physics.
func NewMixedDim(physics string, opts ...Option) (*MixedDim, error) {
	registryMu.RLock()
	f, ok := registry[physics]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mixed-dimensional solver for %q: %w", physics, ErrNotImplemented)
	}
	discr, coupler := f()
	return NewMixedDimFrom(discr, coupler, opts...)
}

// NewMixedDimFrom composes an explicit discretization and coupling.
func NewMixedDimFrom(discr Solver, coupler Coupling, opts ...Option) (*MixedDim, error) {
	if discr == nil {
		return nil, fmt.Errorf("mixed-dimensional solver without discretization: %w", ErrNotImplemented)
	}
	return &MixedDim{discr: discr, solver: NewAssembler(discr, coupler, opts...)}, nil
}

// Discretization returns the per-grid solver.
func (m *MixedDim) Discretization() Solver { return m.discr }

// NDof is the sum of the per-grid dofs over the bucket.
func (m *MixedDim) NDof(gb *bucket.Bucket) (int, error) {
	total := 0
	for _, n := range gb.Nodes() {
		nd, err := m.discr.NDof(n.Grid)
		if err != nil {
			return 0, err
		}
		total += nd
	}
	return total, nil
}

func (m *MixedDim) MatrixRHS(gb *bucket.Bucket) (*sparse.CSR, []float64, error) {
	return m.solver.MatrixRHS(gb)
}

func (m *MixedDim) Split(gb *bucket.Bucket, key string, values []float64) error {
	return m.solver.Split(gb, key, values)
}
