package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-12

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

func TestCartGrid1D(t *testing.T) {
	g, err := CartGrid([]int{4}, []float64{2})
	require.NoError(t, err)

	assert.Equal(t, 1, g.Dim)
	assert.Equal(t, 5, g.NumNodes)
	assert.Equal(t, 5, g.NumFaces)
	assert.Equal(t, 4, g.NumCells)
	assert.InDelta(t, 2.0, sum(g.CellVolumes), tol)
	assert.InDelta(t, 0.25, g.CellCenter(0).X, tol)

	faces, signs := g.FacesOfCell(1)
	assert.Equal(t, []int{1, 2}, faces)
	assert.Equal(t, []float64{-1, 1}, signs)
}

func TestCartGrid2D(t *testing.T) {
	g, err := CartGrid([]int{3, 2}, []float64{3, 1})
	require.NoError(t, err)

	assert.Equal(t, 12, g.NumNodes)
	assert.Equal(t, 4*2+3*3, g.NumFaces)
	assert.Equal(t, 6, g.NumCells)
	assert.Equal(t, []int{3, 2}, g.CartDims)
	assert.InDelta(t, 3.0, sum(g.CellVolumes), tol)

	for c := 0; c < g.NumCells; c++ {
		assert.InDelta(t, 0.5, g.CellVolumes[c], tol)
	}
	xc := g.CellCenter(4)
	assert.InDelta(t, 1.5, xc.X, tol)
	assert.InDelta(t, 0.75, xc.Y, tol)

	// x-faces have +x normals of length dy, y-faces +y normals of length dx
	n := g.FaceNormal(0)
	assert.InDelta(t, 0.5, n.X, tol)
	assert.InDelta(t, 0.0, n.Y, tol)
	n = g.FaceNormal(8)
	assert.InDelta(t, 0.0, n.X, tol)
	assert.InDelta(t, 1.0, n.Y, tol)

	// every cell's signed normals close up
	for c := 0; c < g.NumCells; c++ {
		faces, signs := g.FacesOfCell(c)
		var sx, sy float64
		for k, f := range faces {
			sx += signs[k] * g.FaceNormal(f).X
			sy += signs[k] * g.FaceNormal(f).Y
		}
		assert.InDelta(t, 0, sx, tol)
		assert.InDelta(t, 0, sy, tol)
	}

	assert.Len(t, g.BoundaryFaces(), 10)
	assert.Len(t, g.TaggedFaces(TagDomainBoundary), 10)
}

func TestCartGrid3D(t *testing.T) {
	g, err := CartGrid([]int{2, 2, 2}, []float64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, 27, g.NumNodes)
	assert.Equal(t, 36, g.NumFaces)
	assert.Equal(t, 8, g.NumCells)
	assert.InDelta(t, 6.0, sum(g.CellVolumes), 1e-10)

	xc := g.CellCenter(7)
	assert.InDelta(t, 0.75, xc.X, 1e-10)
	assert.InDelta(t, 1.5, xc.Y, 1e-10)
	assert.InDelta(t, 2.25, xc.Z, 1e-10)

	for c := 0; c < g.NumCells; c++ {
		faces, signs := g.FacesOfCell(c)
		outward := 0
		for k, f := range faces {
			if signs[k] > 0 {
				outward++
			}
			assert.Greater(t, g.FaceAreas[f], 0.0)
		}
		assert.Equal(t, 3, outward, "cell %d", c)
	}
}

func TestStructuredTriangleGrid(t *testing.T) {
	g, err := StructuredTriangleGrid([]int{2, 2}, []float64{1, 1})
	require.NoError(t, err)

	assert.Equal(t, 8, g.NumCells)
	assert.Equal(t, 16, g.NumFaces)
	assert.InDelta(t, 1.0, sum(g.CellVolumes), tol)
	for _, v := range g.CellVolumes {
		assert.InDelta(t, 0.125, v, tol)
	}

	cn := g.CellNodes()
	r, c := cn.Dims()
	assert.Equal(t, 9, r)
	assert.Equal(t, 8, c)
	assert.Equal(t, 24, cn.NNZ())
}

func TestFromTetrahedra(t *testing.T) {
	nodes := mat.NewDense(3, 5, []float64{
		0, 1, 0, 0, 1,
		0, 0, 1, 0, 1,
		0, 0, 0, 1, 1,
	})
	g, err := FromTetrahedra(nodes, [][]int{{0, 1, 2, 3}, {1, 2, 3, 4}})
	require.NoError(t, err)

	assert.Equal(t, 7, g.NumFaces)
	assert.InDelta(t, 1.0/6, g.CellVolumes[0], tol)
	assert.InDelta(t, 1.0/3, g.CellVolumes[1], tol)
	assert.Len(t, g.BoundaryFaces(), 6)
}

func TestPointGrid(t *testing.T) {
	g, err := PointGrid(1, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 0, g.Dim)
	assert.Equal(t, 1, g.NumCells)
	assert.Equal(t, 0, g.NumFaces)
	assert.Equal(t, []int{0}, g.NodesOfCell(0))
	assert.InDelta(t, 2.0, g.CellCenter(0).Y, tol)
}

func TestSplitFaces(t *testing.T) {
	g, err := CartGrid([]int{2, 2}, []float64{2, 2})
	require.NoError(t, err)

	// interior x-faces at x = 1
	frac := []int{1, 4}
	newFaces, err := SplitFaces(g, frac)
	require.NoError(t, err)

	assert.Equal(t, []int{12, 13}, newFaces)
	assert.Equal(t, 14, g.NumFaces)
	assert.ElementsMatch(t, []int{1, 4, 12, 13}, g.TaggedFaces(TagFracture))
	for _, f := range append(frac, newFaces...) {
		cells, _ := g.FaceCellNeighbors(f)
		assert.Len(t, cells, 1, "face %d", f)
	}
	assert.Equal(t, g.FaceCenter(1), g.FaceCenter(12))

	_, err = SplitFaces(g, []int{0})
	assert.True(t, errors.Is(err, ErrInvalidTopology))
}

func TestIncidenceTranspose(t *testing.T) {
	m, err := NewIncidence(2, 3, [][]int{{0, 2}, {1, 2}}, [][]float64{{1, -1}, {1, 1}})
	require.NoError(t, err)

	tr := m.Transpose()
	idx, val := tr.Row(2)
	assert.Equal(t, []int{0, 1}, idx)
	assert.Equal(t, []float64{-1, 1}, val)

	csr := m.CSR()
	assert.Equal(t, -1.0, csr.At(0, 2))

	_, err = NewIncidence(1, 2, [][]int{{5}}, nil)
	assert.Error(t, err)
}

func TestInvalidGrids(t *testing.T) {
	_, err := CartGrid([]int{0, 2}, []float64{1, 1})
	assert.True(t, errors.Is(err, ErrDegenerate))

	_, err = TensorGrid([]float64{0, 1}, []float64{0, 1}, []float64{0, 1}, []float64{0, 1})
	assert.True(t, errors.Is(err, ErrInvalidDimension))
}
