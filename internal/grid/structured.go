package grid

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CartGrid builds a uniform Cartesian grid with cells[i] cells over
// [0, size[i]] in each direction. len(cells) is the dimension (1, 2 or 3).
// Geometry is computed.
func CartGrid(cells []int, size []float64) (*Grid, error) {
	if len(cells) != len(size) {
		return nil, fmt.Errorf("%w: %d cell counts for %d extents", ErrInvalidDimension, len(cells), len(size))
	}
	coords := make([][]float64, len(cells))
	for d, n := range cells {
		if n <= 0 || size[d] <= 0 {
			return nil, fmt.Errorf("%w: direction %d has %d cells over %g", ErrDegenerate, d, n, size[d])
		}
		coords[d] = make([]float64, n+1)
		for i := 0; i <= n; i++ {
			coords[d][i] = size[d] * float64(i) / float64(n)
		}
	}
	return TensorGrid(coords...)
}

// TensorGrid builds a structured grid from strictly increasing node
// coordinates per direction.
func TensorGrid(coords ...[]float64) (*Grid, error) {
	dim := len(coords)
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: tensor grid of dimension %d", ErrInvalidDimension, dim)
	}
	nn := [3]int{1, 1, 1}
	nc := [3]int{1, 1, 1}
	for d, x := range coords {
		if len(x) < 2 {
			return nil, fmt.Errorf("%w: direction %d needs at least two nodes", ErrDegenerate, d)
		}
		for i := 1; i < len(x); i++ {
			if x[i] <= x[i-1] {
				return nil, fmt.Errorf("%w: coordinates in direction %d are not increasing", ErrDegenerate, d)
			}
		}
		nn[d] = len(x)
		nc[d] = len(x) - 1
	}

	numNodes := nn[0] * nn[1] * nn[2]
	nodes := mat.NewDense(3, numNodes, nil)
	for k := 0; k < nn[2]; k++ {
		for j := 0; j < nn[1]; j++ {
			for i := 0; i < nn[0]; i++ {
				n := i + nn[0]*(j+nn[1]*k)
				nodes.Set(0, n, coords[0][i])
				if dim > 1 {
					nodes.Set(1, n, coords[1][j])
				}
				if dim > 2 {
					nodes.Set(2, n, coords[2][k])
				}
			}
		}
	}
	node := func(i, j, k int) int { return i + nn[0]*(j+nn[1]*k) }

	var faceNodes, cellFaces [][]int
	switch dim {
	case 1:
		for i := 0; i < nn[0]; i++ {
			faceNodes = append(faceNodes, []int{i})
		}
		for c := 0; c < nc[0]; c++ {
			cellFaces = append(cellFaces, []int{c, c + 1})
		}
	case 2:
		// x-faces, then y-faces; node order gives normals along +x and +y
		nfx := nn[0] * nc[1]
		for j := 0; j < nc[1]; j++ {
			for i := 0; i < nn[0]; i++ {
				faceNodes = append(faceNodes, []int{node(i, j, 0), node(i, j+1, 0)})
			}
		}
		for j := 0; j < nn[1]; j++ {
			for i := 0; i < nc[0]; i++ {
				faceNodes = append(faceNodes, []int{node(i+1, j, 0), node(i, j, 0)})
			}
		}
		for j := 0; j < nc[1]; j++ {
			for i := 0; i < nc[0]; i++ {
				cellFaces = append(cellFaces, []int{
					i + nn[0]*j,
					i + 1 + nn[0]*j,
					nfx + i + nc[0]*j,
					nfx + i + nc[0]*(j+1),
				})
			}
		}
	case 3:
		nfx := nn[0] * nc[1] * nc[2]
		nfy := nc[0] * nn[1] * nc[2]
		xface := func(i, j, k int) int { return i + nn[0]*(j+nc[1]*k) }
		yface := func(i, j, k int) int { return nfx + i + nc[0]*(j+nn[1]*k) }
		zface := func(i, j, k int) int { return nfx + nfy + i + nc[0]*(j+nc[1]*k) }
		for k := 0; k < nc[2]; k++ {
			for j := 0; j < nc[1]; j++ {
				for i := 0; i < nn[0]; i++ {
					faceNodes = append(faceNodes, []int{node(i, j, k), node(i, j+1, k), node(i, j+1, k+1), node(i, j, k+1)})
				}
			}
		}
		for k := 0; k < nc[2]; k++ {
			for j := 0; j < nn[1]; j++ {
				for i := 0; i < nc[0]; i++ {
					faceNodes = append(faceNodes, []int{node(i, j, k), node(i, j, k+1), node(i+1, j, k+1), node(i+1, j, k)})
				}
			}
		}
		for k := 0; k < nn[2]; k++ {
			for j := 0; j < nc[1]; j++ {
				for i := 0; i < nc[0]; i++ {
					faceNodes = append(faceNodes, []int{node(i, j, k), node(i+1, j, k), node(i+1, j+1, k), node(i, j+1, k)})
				}
			}
		}
		for k := 0; k < nc[2]; k++ {
			for j := 0; j < nc[1]; j++ {
				for i := 0; i < nc[0]; i++ {
					cellFaces = append(cellFaces, []int{
						xface(i, j, k), xface(i+1, j, k),
						yface(i, j, k), yface(i, j+1, k),
						zface(i, j, k), zface(i, j, k+1),
					})
				}
			}
		}
	}

	fn, err := NewIncidence(len(faceNodes), numNodes, faceNodes, nil)
	if err != nil {
		return nil, err
	}
	cf, err := NewIncidence(len(cellFaces), len(faceNodes), cellFaces, nil)
	if err != nil {
		return nil, err
	}
	g, err := New(dim, fmt.Sprintf("cart_%dd", dim), nodes, fn, cf)
	if err != nil {
		return nil, err
	}
	g.CartDims = append([]int(nil), nc[:dim]...)
	if err := g.ComputeGeometry(); err != nil {
		return nil, err
	}
	tagDomainBoundary(g)
	return g, nil
}

// PointGrid is the 0D grid of a single point, used for fracture
// intersections.
func PointGrid(x, y, z float64) (*Grid, error) {
	nodes := mat.NewDense(3, 1, []float64{x, y, z})
	fn, _ := NewIncidence(0, 1, nil, nil)
	cf, _ := NewIncidence(1, 0, [][]int{{}}, nil)
	g, err := New(0, "point", nodes, fn, cf)
	if err != nil {
		return nil, err
	}
	if err := g.ComputeGeometry(); err != nil {
		return nil, err
	}
	return g, nil
}

func tagDomainBoundary(g *Grid) {
	tag := g.Tag(TagDomainBoundary)
	for _, f := range g.BoundaryFaces() {
		tag[f] = true
	}
}
