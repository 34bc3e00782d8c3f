package meshing

import (
	"errors"
	"testing"

	"github.com/san-kum/fracflow/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartFractured2D(t *testing.T) {
	b, err := CartFractured([]int{4, 4}, []float64{1, 1}, []Fracture{
		{Axis: 0, Position: 0.5},
	})
	require.NoError(t, err)
	require.Equal(t, 2, b.Size())
	require.Len(t, b.Edges(), 1)

	hi := b.GridsOfDimension(2)[0]
	lo := b.GridsOfDimension(1)[0]
	assert.Equal(t, 4, lo.NumCells)
	// 5*4 + 4*5 faces plus four split copies
	assert.Equal(t, 44, hi.NumFaces)
	assert.Len(t, hi.TaggedFaces(grid.TagFracture), 8)

	e := b.Edges()[0]
	for c := 0; c < lo.NumCells; c++ {
		faces, _ := e.FaceCells.Row(c)
		require.Len(t, faces, 2)
		for _, f := range faces {
			assert.InDelta(t, 0.5, hi.FaceCenter(f).X, 1e-12)
			assert.InDelta(t, lo.CellCenter(c).Y, hi.FaceCenter(f).Y, 1e-12)
		}
	}
	// the fracture reaches the domain boundary at both ends
	assert.Empty(t, lo.TaggedFaces(grid.TagTip))
	assert.Len(t, lo.TaggedFaces(grid.TagDomainBoundary), 2)
}

func TestCartFracturedBounded(t *testing.T) {
	b, err := CartFractured([]int{4, 4}, []float64{1, 1}, []Fracture{
		{Axis: 1, Position: 0.5, Lo: []float64{0.25}, Hi: []float64{0.75}},
	})
	require.NoError(t, err)
	lo := b.GridsOfDimension(1)[0]
	assert.Equal(t, 2, lo.NumCells)
	assert.Len(t, lo.TaggedFaces(grid.TagTip), 2)
	assert.InDelta(t, 0.5, lo.CellCenter(0).Y, 1e-12)
}

func TestCartFractured3D(t *testing.T) {
	b, err := CartFractured([]int{2, 2, 2}, []float64{1, 1, 1}, []Fracture{
		{Axis: 2, Position: 0.5},
	})
	require.NoError(t, err)
	lo := b.GridsOfDimension(2)[0]
	assert.Equal(t, 4, lo.NumCells)
	assert.InDelta(t, 1.0, lo.CellVolumes[0]*4, 1e-12)
	assert.InDelta(t, 0.5, lo.CellCenter(3).Z, 1e-12)
}

func TestCartFracturedErrors(t *testing.T) {
	_, err := CartFractured([]int{4, 4}, []float64{1, 1}, []Fracture{{Axis: 0, Position: 0.3}})
	assert.True(t, errors.Is(err, ErrNotOnGridPlane))

	_, err = CartFractured([]int{4, 4}, []float64{1, 1}, []Fracture{{Axis: 0, Position: 1}})
	assert.True(t, errors.Is(err, ErrNotOnGridPlane))

	_, err = CartFractured([]int{4, 4}, []float64{1, 1}, []Fracture{
		{Axis: 0, Position: 0.5},
		{Axis: 1, Position: 0.5},
	})
	assert.True(t, errors.Is(err, ErrIntersectingFractures))

	_, err = CartFractured([]int{4}, []float64{1}, nil)
	assert.True(t, errors.Is(err, grid.ErrInvalidDimension))
}
