package grid

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// FromSegments builds a 1D grid from line cells given as node pairs. Faces
// are the nodes used by the segments.
func FromSegments(nodes *mat.Dense, segs [][]int) (*Grid, error) {
	_, nn := nodes.Dims()
	faceOf := make(map[int]int)
	var faceNodes [][]int
	cellFaces := make([][]int, len(segs))
	for c, s := range segs {
		if len(s) != 2 {
			return nil, fmt.Errorf("%w: segment %d has %d nodes", ErrInvalidTopology, c, len(s))
		}
		for _, n := range s {
			f, ok := faceOf[n]
			if !ok {
				f = len(faceNodes)
				faceOf[n] = f
				faceNodes = append(faceNodes, []int{n})
			}
			cellFaces[c] = append(cellFaces[c], f)
		}
	}
	return fromLists(1, "segments", nodes, nn, faceNodes, cellFaces)
}

// FromPolygons builds a 2D grid from polygonal cells given as node lists in
// boundary order. Shared edges become shared faces.
func FromPolygons(nodes *mat.Dense, cells [][]int) (*Grid, error) {
	_, nn := nodes.Dims()
	faceOf := make(map[[2]int]int)
	var faceNodes [][]int
	cellFaces := make([][]int, len(cells))
	for c, poly := range cells {
		if len(poly) < 3 {
			return nil, fmt.Errorf("%w: polygon %d has %d nodes", ErrInvalidTopology, c, len(poly))
		}
		for i := range poly {
			a, b := poly[i], poly[(i+1)%len(poly)]
			key := [2]int{min(a, b), max(a, b)}
			f, ok := faceOf[key]
			if !ok {
				f = len(faceNodes)
				faceOf[key] = f
				faceNodes = append(faceNodes, []int{a, b})
			}
			cellFaces[c] = append(cellFaces[c], f)
		}
	}
	return fromLists(2, "polygons", nodes, nn, faceNodes, cellFaces)
}

// StructuredTriangleGrid splits each cell of a cells[0] × cells[1] Cartesian
// grid over [0,size[0]] × [0,size[1]] into two triangles.
func StructuredTriangleGrid(cells []int, size []float64) (*Grid, error) {
	if len(cells) != 2 || len(size) != 2 {
		return nil, fmt.Errorf("%w: structured triangle grid needs two directions", ErrInvalidDimension)
	}
	nx, ny := cells[0], cells[1]
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: %dx%d cells", ErrDegenerate, nx, ny)
	}
	nodes := mat.NewDense(3, (nx+1)*(ny+1), nil)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			n := i + (nx+1)*j
			nodes.Set(0, n, size[0]*float64(i)/float64(nx))
			nodes.Set(1, n, size[1]*float64(j)/float64(ny))
		}
	}
	var tris [][]int
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := i + (nx+1)*j
			b := a + 1
			c := a + nx + 1
			d := c + 1
			tris = append(tris, []int{a, b, d}, []int{a, d, c})
		}
	}
	g, err := FromPolygons(nodes, tris)
	if err != nil {
		return nil, err
	}
	g.Name = "triangles"
	return g, nil
}

// tetFaces lists the local vertex triples of a tetrahedron's faces.
var tetFaces = [4][3]int{{0, 1, 2}, {0, 1, 3}, {1, 2, 3}, {0, 2, 3}}

// FromTetrahedra builds a 3D simplex grid.
func FromTetrahedra(nodes *mat.Dense, tets [][]int) (*Grid, error) {
	_, nn := nodes.Dims()
	faceOf := make(map[[3]int]int)
	var faceNodes [][]int
	cellFaces := make([][]int, len(tets))
	for c, t := range tets {
		if len(t) != 4 {
			return nil, fmt.Errorf("%w: tetrahedron %d has %d nodes", ErrInvalidTopology, c, len(t))
		}
		for _, lf := range tetFaces {
			tri := []int{t[lf[0]], t[lf[1]], t[lf[2]]}
			key := sortedTriple(tri)
			f, ok := faceOf[key]
			if !ok {
				f = len(faceNodes)
				faceOf[key] = f
				faceNodes = append(faceNodes, tri)
			}
			cellFaces[c] = append(cellFaces[c], f)
		}
	}
	return fromLists(3, "tetrahedra", nodes, nn, faceNodes, cellFaces)
}

// FromPolyhedra builds a 3D grid from cells given as lists of polygonal
// faces. Faces with the same node set are shared.
func FromPolyhedra(nodes *mat.Dense, cells [][][]int) (*Grid, error) {
	_, nn := nodes.Dims()
	faceOf := make(map[string]int)
	var faceNodes [][]int
	cellFaces := make([][]int, len(cells))
	for c, faces := range cells {
		if len(faces) < 4 {
			return nil, fmt.Errorf("%w: polyhedron %d has %d faces", ErrInvalidTopology, c, len(faces))
		}
		for _, poly := range faces {
			key := faceKey(poly)
			f, ok := faceOf[key]
			if !ok {
				f = len(faceNodes)
				faceOf[key] = f
				faceNodes = append(faceNodes, append([]int(nil), poly...))
			}
			cellFaces[c] = append(cellFaces[c], f)
		}
	}
	return fromLists(3, "polyhedra", nodes, nn, faceNodes, cellFaces)
}

func faceKey(poly []int) string {
	s := append([]int(nil), poly...)
	sort.Ints(s)
	return fmt.Sprint(s)
}

func sortedTriple(v []int) [3]int {
	s := []int{v[0], v[1], v[2]}
	sort.Ints(s)
	return [3]int{s[0], s[1], s[2]}
}

func fromLists(dim int, name string, nodes *mat.Dense, nn int, faceNodes, cellFaces [][]int) (*Grid, error) {
	fn, err := NewIncidence(len(faceNodes), nn, faceNodes, nil)
	if err != nil {
		return nil, err
	}
	cf, err := NewIncidence(len(cellFaces), len(faceNodes), cellFaces, nil)
	if err != nil {
		return nil, err
	}
	g, err := New(dim, name, nodes, fn, cf)
	if err != nil {
		return nil, err
	}
	if err := g.ComputeGeometry(); err != nil {
		return nil, err
	}
	tagDomainBoundary(g)
	return g, nil
}
