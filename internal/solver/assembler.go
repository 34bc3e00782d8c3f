package solver

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/bucket"
	"go.uber.org/zap"
)

// Assembler builds the global system of a bucket from a per-grid
// discretization and an interface coupling. Grid blocks are placed by
// bucket node order.
type Assembler struct {
	Discr   Solver
	Coupler Coupling
	logger  *zap.Logger
}

type Option func(*Assembler)

// WithLogger routes assembly progress to l.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

func NewAssembler(discr Solver, coupler Coupling, opts ...Option) *Assembler {
	a := &Assembler{Discr: discr, Coupler: coupler, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Offsets returns the first global dof of each bucket node and the total.
func (a *Assembler) Offsets(gb *bucket.Bucket) ([]int, int, error) {
	offsets := make([]int, gb.Size())
	total := 0
	for i, n := range gb.Nodes() {
		nd, err := a.Discr.NDof(n.Grid)
		if err != nil {
			return nil, 0, &AssemblyError{Grid: n.Grid.Name, Dim: n.Grid.Dim, Err: err}
		}
		offsets[i] = total
		total += nd
	}
	return offsets, total, nil
}

// MatrixRHS assembles the global matrix and right-hand side.
func (a *Assembler) MatrixRHS(gb *bucket.Bucket) (*sparse.CSR, []float64, error) {
	offsets, total, err := a.Offsets(gb)
	if err != nil {
		return nil, nil, err
	}
	if total == 0 {
		return nil, nil, fmt.Errorf("%w: bucket has no degrees of freedom", ErrShapeMismatch)
	}

	A := sparse.NewDOK(total, total)
	rhs := make([]float64, total)
	for i, n := range gb.Nodes() {
		nd, _ := a.Discr.NDof(n.Grid)
		m, b, err := a.Discr.MatrixRHS(n.Grid, n.Data)
		if err == nil {
			err = CheckShape(nd, m, b)
		}
		if err != nil {
			return nil, nil, &AssemblyError{Grid: n.Grid.Name, Dim: n.Grid.Dim, Err: err}
		}
		addBlock(A, m, offsets[i], offsets[i])
		copy(rhs[offsets[i]:], b)
		a.logger.Debug("assembled grid",
			zap.String("grid", n.Grid.Name),
			zap.Int("dim", n.Grid.Dim),
			zap.Int("ndof", nd),
			zap.Int("nnz", m.NNZ()))
	}

	if len(gb.Edges()) > 0 && a.Coupler == nil {
		return nil, nil, fmt.Errorf("coupling: %w: bucket has %d edges", ErrNotImplemented, len(gb.Edges()))
	}
	for _, e := range gb.Edges() {
		hi, _ := gb.Node(e.Hi)
		lo, _ := gb.Node(e.Lo)
		blocks, err := a.Coupler.Couple(e, hi.Data, lo.Data)
		if err != nil {
			return nil, nil, &AssemblyError{Grid: e.Lo.Name, Dim: e.Lo.Dim, Err: err}
		}
		off := [2]int{offsets[hi.Number], offsets[lo.Number]}
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				addBlock(A, blocks[r][c], off[r], off[c])
			}
		}
		a.logger.Debug("assembled coupling",
			zap.String("hi", e.Hi.Name),
			zap.String("lo", e.Lo.Name))
	}

	out := A.ToCSR()
	a.logger.Info("assembled system",
		zap.Int("grids", gb.Size()),
		zap.Int("edges", len(gb.Edges())),
		zap.Int("ndof", total),
		zap.Int("nnz", out.NNZ()))
	return out, rhs, nil
}

// Split slices a global vector by dof offsets and stores each block in the
// node data under key.
func (a *Assembler) Split(gb *bucket.Bucket, key string, values []float64) error {
	offsets, total, err := a.Offsets(gb)
	if err != nil {
		return err
	}
	if len(values) != total {
		return fmt.Errorf("%w: vector has length %d, bucket has %d dofs", ErrShapeMismatch, len(values), total)
	}
	for i, n := range gb.Nodes() {
		end := total
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		n.Data.SetField(key, append([]float64(nil), values[offsets[i]:end]...))
	}
	return nil
}
