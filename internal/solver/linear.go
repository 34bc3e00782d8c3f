package solver

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxDirectDofs bounds the systems SolveDirect accepts. The dense copy
// takes 8·n² bytes.
const MaxDirectDofs = 10000

// SolveDirect solves A·x = b by LU factorization of the dense copy of A.
// Systems above MaxDirectDofs unknowns return ErrTooLarge.
func SolveDirect(A *sparse.CSR, b []float64) ([]float64, error) {
	if A == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrShapeMismatch)
	}
	n, _ := A.Dims()
	if err := CheckShape(n, A, b); err != nil {
		return nil, err
	}
	if n > MaxDirectDofs {
		return nil, fmt.Errorf("%w: %d unknowns, limit %d, use cg", ErrTooLarge, n, MaxDirectDofs)
	}
	dense := mat.NewDense(n, n, nil)
	A.DoNonZero(func(i, j int, v float64) {
		dense.Set(i, j, v)
	})

	var lu mat.LU
	lu.Factorize(dense)
	if c := lu.Cond(); math.IsInf(c, 1) || c > 1e15 {
		return nil, fmt.Errorf("solve: matrix is singular (condition %g)", c)
	}
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	return x.RawVector().Data, nil
}

// SolveCG solves a symmetric positive definite system by conjugate
// gradients, starting from zero. It stops when the residual norm drops
// below tol·‖b‖.
func SolveCG(A *sparse.CSR, b []float64, tol float64, maxIter int) ([]float64, int, error) {
	if A == nil {
		return nil, 0, fmt.Errorf("%w: nil matrix", ErrShapeMismatch)
	}
	n, _ := A.Dims()
	if err := CheckShape(n, A, b); err != nil {
		return nil, 0, err
	}
	if maxIter <= 0 {
		maxIter = 10 * n
	}

	x := make([]float64, n)
	r := append([]float64(nil), b...)
	p := append([]float64(nil), r...)
	rr := floats.Dot(r, r)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		return x, 0, nil
	}
	target := tol * bnorm

	for it := 1; it <= maxIter; it++ {
		ap := MulVec(A, p)
		pap := floats.Dot(p, ap)
		if pap <= 0 {
			return x, it, fmt.Errorf("%w: matrix is not positive definite", ErrNotConverged)
		}
		alpha := rr / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		rrNew := floats.Dot(r, r)
		if math.Sqrt(rrNew) <= target {
			return x, it, nil
		}
		floats.AddScaledTo(p, r, rrNew/rr, p)
		rr = rrNew
	}
	return x, maxIter, fmt.Errorf("%w: residual %g after %d iterations", ErrNotConverged, math.Sqrt(rr), maxIter)
}

// Linear solver names accepted by Solve.
const (
	LinearDirect = "direct"
	LinearCG     = "cg"
)

// Solve dispatches to the named linear solver. tol and maxIter only apply
// to iterative methods.
func Solve(method string, A *sparse.CSR, b []float64, tol float64, maxIter int) ([]float64, error) {
	switch method {
	case LinearDirect, "":
		return SolveDirect(A, b)
	case LinearCG:
		x, _, err := SolveCG(A, b, tol, maxIter)
		return x, err
	}
	return nil, fmt.Errorf("linear solver %q: %w", method, ErrNotImplemented)
}
