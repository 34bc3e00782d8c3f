package solver_test

import (
	"errors"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/grid"
	"github.com/san-kum/fracflow/internal/meshing"
	"github.com/san-kum/fracflow/internal/params"
	"github.com/san-kum/fracflow/internal/solver"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type partial struct {
	solver.Unimplemented
}

type fixedDofs struct {
	solver.Unimplemented
	n int
}

func (f fixedDofs) NDof(*grid.Grid) (int, error) { return f.n, nil }

func mustCart(cells []int, size []float64) *grid.Grid {
	g, err := grid.CartGrid(cells, size)
	Expect(err).NotTo(HaveOccurred())
	return g
}

// dirichletX fixes p = left on x = 0 and p = right on x = lx.
func dirichletX(g *grid.Grid, lx, left, right float64) *params.Data {
	bc := params.NewBoundaryCondition(g.NumFaces)
	val := make([]float64, g.NumFaces)
	for _, f := range g.TaggedFaces(grid.TagDomainBoundary) {
		x := g.FaceCenter(f).X
		switch {
		case math.Abs(x) < 1e-12:
			bc.Set(params.Dirichlet, f)
			val[f] = left
		case math.Abs(x-lx) < 1e-12:
			bc.Set(params.Dirichlet, f)
			val[f] = right
		}
	}
	return params.NewData(&params.Parameters{BC: bc, BCVal: val})
}

func isSymmetric(A *sparse.CSR) bool {
	sym := true
	A.DoNonZero(func(i, j int, v float64) {
		if math.Abs(v-A.At(j, i)) > 1e-10 {
			sym = false
		}
	})
	return sym
}

var _ = Describe("Solver contract", func() {
	It("reports unimplemented methods of the base discretization", func() {
		var s solver.Solver = partial{}
		g := mustCart([]int{2}, []float64{1})

		_, err := s.NDof(g)
		Expect(errors.Is(err, solver.ErrNotImplemented)).To(BeTrue())

		_, _, err = s.MatrixRHS(g, nil)
		Expect(errors.Is(err, solver.ErrNotImplemented)).To(BeTrue())
	})

	DescribeTable("returns an ndof × ndof matrix and an ndof rhs",
		func(s solver.Solver) {
			grids := []*grid.Grid{
				mustCart([]int{5}, []float64{1}),
				mustCart([]int{3, 4}, []float64{1, 2}),
				mustCart([]int{2, 2, 2}, []float64{1, 1, 1}),
			}
			tri, err := grid.StructuredTriangleGrid([]int{3, 3}, []float64{1, 1})
			Expect(err).NotTo(HaveOccurred())
			grids = append(grids, tri)

			for _, g := range grids {
				n, err := s.NDof(g)
				Expect(err).NotTo(HaveOccurred())
				A, b, err := s.MatrixRHS(g, params.NewData(nil))
				Expect(err).NotTo(HaveOccurred())
				Expect(solver.CheckShape(n, A, b)).To(Succeed())
			}
		},
		Entry("tpfa", solver.Tpfa{}),
		Entry("mass matrix", solver.MassMatrix{}),
		Entry("source", solver.Source{}),
		Entry("sum", solver.Sum{solver.Tpfa{}, solver.MassMatrix{}, solver.Source{}}),
	)

	It("rejects a sum of solvers with different dofs", func() {
		g := mustCart([]int{3}, []float64{1})
		_, err := solver.Sum{solver.Tpfa{}, fixedDofs{n: 7}}.NDof(g)
		Expect(errors.Is(err, solver.ErrShapeMismatch)).To(BeTrue())
	})

	It("flags mismatched shapes", func() {
		A := sparse.NewDOK(2, 2).ToCSR()
		Expect(errors.Is(solver.CheckShape(3, A, make([]float64, 2)), solver.ErrShapeMismatch)).To(BeTrue())
		Expect(errors.Is(solver.CheckShape(2, A, make([]float64, 3)), solver.ErrShapeMismatch)).To(BeTrue())
	})
})

var _ = Describe("Tpfa", func() {
	It("reproduces a linear pressure in 1D", func() {
		g := mustCart([]int{4}, []float64{1})
		d := dirichletX(g, 1, 1, 0)

		A, b, err := solver.Tpfa{}.MatrixRHS(g, d)
		Expect(err).NotTo(HaveOccurred())
		p, err := solver.SolveDirect(A, b)
		Expect(err).NotTo(HaveOccurred())
		for c := 0; c < g.NumCells; c++ {
			Expect(p[c]).To(BeNumerically("~", 1-g.CellCenter(c).X, 1e-10))
		}

		flux, err := solver.Tpfa{}.Fluxes(g, d, p)
		Expect(err).NotTo(HaveOccurred())
		for _, q := range flux {
			Expect(q).To(BeNumerically("~", 1, 1e-10))
		}
	})

	It("reproduces a linear pressure on a 2D grid with anisotropic spacing", func() {
		g := mustCart([]int{4, 3}, []float64{2, 1})
		d := dirichletX(g, 2, 2, 0)

		A, b, err := solver.Tpfa{}.MatrixRHS(g, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(isSymmetric(A)).To(BeTrue())
		p, err := solver.SolveDirect(A, b)
		Expect(err).NotTo(HaveOccurred())
		for c := 0; c < g.NumCells; c++ {
			Expect(p[c]).To(BeNumerically("~", 2-g.CellCenter(c).X, 1e-10))
		}
	})

	It("conserves mass cell by cell", func() {
		g := mustCart([]int{4, 4}, []float64{1, 1})
		d := dirichletX(g, 1, 0, 0)
		src := make([]float64, g.NumCells)
		src[5] = 1
		d.Param.Source = src

		A, b, err := solver.Tpfa{}.MatrixRHS(g, d)
		Expect(err).NotTo(HaveOccurred())
		p, _, err := solver.SolveCG(A, b, 1e-12, 0)
		Expect(err).NotTo(HaveOccurred())
		flux, err := solver.Tpfa{}.Fluxes(g, d, p)
		Expect(err).NotTo(HaveOccurred())

		for c := 0; c < g.NumCells; c++ {
			faces, signs := g.FacesOfCell(c)
			out := 0.0
			for k, f := range faces {
				out += signs[k] * flux[f]
			}
			Expect(out).To(BeNumerically("~", src[c], 1e-9))
		}
	})

	It("applies Neumann fluxes against the face orientation", func() {
		g := mustCart([]int{2}, []float64{1})
		bc := params.NewBoundaryCondition(g.NumFaces)
		bc.Set(params.Neumann, 0)
		bc.Set(params.Dirichlet, 2)
		val := []float64{1, 0, 0} // unit inflow along +x at x = 0

		A, b, err := solver.Tpfa{}.MatrixRHS(g, params.NewData(&params.Parameters{BC: bc, BCVal: val}))
		Expect(err).NotTo(HaveOccurred())
		p, err := solver.SolveDirect(A, b)
		Expect(err).NotTo(HaveOccurred())
		// p = 1 - x for a unit flux along +x with p(1) = 0
		Expect(p[0]).To(BeNumerically("~", 0.75, 1e-10))
		Expect(p[1]).To(BeNumerically("~", 0.25, 1e-10))
	})
})

var _ = Describe("MixedDim", func() {
	var gb *bucket.Bucket

	BeforeEach(func() {
		var err error
		gb, err = meshing.CartFractured([]int{4, 4}, []float64{1, 1}, []meshing.Fracture{
			{Axis: 0, Position: 0.5},
		})
		Expect(err).NotTo(HaveOccurred())
		for _, n := range gb.Nodes() {
			if n.Grid.Dim == 2 {
				n.Data = dirichletX(n.Grid, 1, 1, 0)
			} else {
				ap := []float64{1e-2, 1e-2, 1e-2, 1e-2}
				n.Data = params.NewData(&params.Parameters{
					Perm:     params.NewIsotropic([]float64{1e3, 1e3, 1e3, 1e3}),
					Aperture: ap,
				})
			}
		}
	})

	It("fails without a concrete discretization", func() {
		_, err := solver.NewMixedDim("unknown")
		Expect(errors.Is(err, solver.ErrNotImplemented)).To(BeTrue())

		_, err = solver.NewMixedDimFrom(nil, nil)
		Expect(errors.Is(err, solver.ErrNotImplemented)).To(BeTrue())
	})

	It("sums the dofs of every grid", func() {
		m, err := solver.NewMixedDim("flow")
		Expect(err).NotTo(HaveOccurred())
		n, err := m.NDof(gb)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(16 + 4))
	})

	It("assembles a symmetric coupled system and splits the solution", func() {
		m, err := solver.NewMixedDim("flow")
		Expect(err).NotTo(HaveOccurred())
		A, b, err := m.MatrixRHS(gb)
		Expect(err).NotTo(HaveOccurred())
		n, _ := m.NDof(gb)
		Expect(solver.CheckShape(n, A, b)).To(Succeed())
		Expect(isSymmetric(A)).To(BeTrue())

		direct, err := solver.SolveDirect(A, b)
		Expect(err).NotTo(HaveOccurred())
		cg, _, err := solver.SolveCG(A, b, 1e-12, 0)
		Expect(err).NotTo(HaveOccurred())
		for i := range direct {
			Expect(cg[i]).To(BeNumerically("~", direct[i], 1e-8))
		}

		Expect(m.Split(gb, "pressure", direct)).To(Succeed())
		for _, node := range gb.Nodes() {
			p, ok := node.Data.Field("pressure")
			Expect(ok).To(BeTrue())
			Expect(p).To(HaveLen(node.Grid.NumCells))
		}
		// the fracture sits on x = 0.5 of a linear drop from 1 to 0
		frac := gb.GridsOfDimension(1)[0]
		p, _ := gb.Data(frac).Field("pressure")
		for _, v := range p {
			Expect(v).To(BeNumerically("~", 0.5, 1e-8))
		}

		err = m.Split(gb, "pressure", direct[:3])
		Expect(errors.Is(err, solver.ErrShapeMismatch)).To(BeTrue())
	})

	It("reports the failing grid", func() {
		frac := gb.GridsOfDimension(1)[0]
		gb.Data(frac).Param.Aperture = []float64{1}

		m, err := solver.NewMixedDim("tpfa")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = m.MatrixRHS(gb)
		var ae *solver.AssemblyError
		Expect(errors.As(err, &ae)).To(BeTrue())
		Expect(ae.Grid).To(Equal(frac.Name))
	})

	It("needs a coupling when the bucket has edges", func() {
		m, err := solver.NewMixedDim("mass")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = m.MatrixRHS(gb)
		Expect(errors.Is(err, solver.ErrNotImplemented)).To(BeTrue())
	})
})

var _ = Describe("Linear solvers", func() {
	It("reports non-convergence", func() {
		g := mustCart([]int{20}, []float64{1})
		A, b, err := solver.Tpfa{}.MatrixRHS(g, dirichletX(g, 1, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		_, _, err = solver.SolveCG(A, b, 1e-14, 2)
		Expect(errors.Is(err, solver.ErrNotConverged)).To(BeTrue())
	})

	It("rejects singular systems", func() {
		g := mustCart([]int{3}, []float64{1})
		A, b, err := solver.Tpfa{}.MatrixRHS(g, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = solver.SolveDirect(A, b)
		Expect(err).To(HaveOccurred())
	})

	It("refuses dense factorization of large systems", func() {
		n := solver.MaxDirectDofs + 1
		dok := sparse.NewDOK(n, n)
		b := make([]float64, n)
		for i := 0; i < n; i++ {
			dok.Set(i, i, 2)
			b[i] = 1
		}
		A := dok.ToCSR()

		_, err := solver.Solve(solver.LinearDirect, A, b, 1e-12, 0)
		Expect(errors.Is(err, solver.ErrTooLarge)).To(BeTrue())

		x, err := solver.Solve(solver.LinearCG, A, b, 1e-12, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(x[n-1]).To(BeNumerically("~", 0.5, 1e-12))
	})
})
