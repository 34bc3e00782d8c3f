package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/fracflow/internal/geom"
)

// ComputeGeometry fills face areas, centers and normals and cell volumes
// and centers, then re-derives the cell-face orientation signs from the
// geometry. Cells are assumed star-shaped with respect to the mean of their
// face centers, which holds for convex cells.
func (g *Grid) ComputeGeometry() error {
	g.FaceAreas = make([]float64, g.NumFaces)
	g.FaceCenters = newCoords(g.NumFaces)
	g.FaceNormals = newCoords(g.NumFaces)
	g.CellVolumes = make([]float64, g.NumCells)
	g.CellCenters = newCoords(g.NumCells)

	var err error
	switch g.Dim {
	case 0:
		err = g.geometry0D()
	case 1:
		err = g.geometry1D()
	case 2:
		err = g.geometry2D()
	case 3:
		err = g.geometry3D()
	default:
		err = fmt.Errorf("%w: %d", ErrInvalidDimension, g.Dim)
	}
	if err != nil {
		return err
	}
	g.orientCellFaces()
	return nil
}

func (g *Grid) geometry0D() error {
	for c := 0; c < g.NumCells; c++ {
		g.CellVolumes[c] = 1
		setCol(g.CellCenters, c, g.Node(c))
	}
	return nil
}

func (g *Grid) geometry1D() error {
	dir, ok := g.lineDirection()
	if !ok && g.NumCells > 0 {
		return fmt.Errorf("%w: 1D grid %q has coincident nodes", ErrDegenerate, g.Name)
	}
	for f := 0; f < g.NumFaces; f++ {
		nodes := g.NodesOfFace(f)
		if len(nodes) != 1 {
			return fmt.Errorf("%w: 1D face %d has %d nodes", ErrInvalidTopology, f, len(nodes))
		}
		g.FaceAreas[f] = 1
		setCol(g.FaceCenters, f, g.Node(nodes[0]))
		setCol(g.FaceNormals, f, dir)
	}
	for c := 0; c < g.NumCells; c++ {
		faces, _ := g.CellFaces.Row(c)
		if len(faces) != 2 {
			return fmt.Errorf("%w: 1D cell %d has %d faces", ErrInvalidTopology, c, len(faces))
		}
		a, b := g.FaceCenter(faces[0]), g.FaceCenter(faces[1])
		l := b.Sub(a).Length()
		if l == 0 {
			return fmt.Errorf("%w: 1D cell %d has zero length", ErrDegenerate, c)
		}
		g.CellVolumes[c] = l
		setCol(g.CellCenters, c, a.Add(b).Scale(0.5))
	}
	return nil
}

// lineDirection is the unit vector from node 0 to the node farthest from it.
func (g *Grid) lineDirection() (geom.Vec3, bool) {
	if g.NumNodes < 2 {
		return geom.Vec3{}, false
	}
	p0 := g.Node(0)
	var best geom.Vec3
	for i := 1; i < g.NumNodes; i++ {
		d := g.Node(i).Sub(p0)
		if d.Length() > best.Length() {
			best = d
		}
	}
	if best.Length() == 0 {
		return geom.Vec3{}, false
	}
	return best.Normalize(), true
}

func (g *Grid) geometry2D() error {
	pts := make([]geom.Vec3, g.NumNodes)
	for i := range pts {
		pts[i] = g.Node(i)
	}
	plane, ok := geom.PlaneNormal(pts)
	if !ok {
		return fmt.Errorf("%w: 2D grid %q nodes are collinear", ErrDegenerate, g.Name)
	}
	// orient xy grids with +z so normals follow the usual (dy, -dx) rule
	if plane.Z < 0 || (plane.Z == 0 && (plane.Y < 0 || (plane.Y == 0 && plane.X < 0))) {
		plane = plane.Scale(-1)
	}

	for f := 0; f < g.NumFaces; f++ {
		nodes := g.NodesOfFace(f)
		if len(nodes) != 2 {
			return fmt.Errorf("%w: 2D face %d has %d nodes", ErrInvalidTopology, f, len(nodes))
		}
		a, b := g.Node(nodes[0]), g.Node(nodes[1])
		t := b.Sub(a)
		l := t.Length()
		if l == 0 {
			return fmt.Errorf("%w: face %d has zero length", ErrDegenerate, f)
		}
		g.FaceAreas[f] = l
		setCol(g.FaceCenters, f, a.Add(b).Scale(0.5))
		setCol(g.FaceNormals, f, t.Cross(plane))
	}

	for c := 0; c < g.NumCells; c++ {
		faces, _ := g.CellFaces.Row(c)
		if len(faces) < 3 {
			return fmt.Errorf("%w: 2D cell %d has %d faces", ErrInvalidTopology, c, len(faces))
		}
		centers := make([]geom.Vec3, len(faces))
		for i, f := range faces {
			centers[i] = g.FaceCenter(f)
		}
		m := geom.Mean(centers)

		area := 0.0
		var weighted geom.Vec3
		for _, f := range faces {
			nodes := g.NodesOfFace(f)
			a, b := g.Node(nodes[0]), g.Node(nodes[1])
			sub := geom.TriangleNormal(m, a, b).Length()
			area += sub
			weighted = weighted.Add(m.Add(a).Add(b).Scale(sub / 3))
		}
		if area == 0 {
			return fmt.Errorf("%w: cell %d has zero area", ErrDegenerate, c)
		}
		g.CellVolumes[c] = area
		setCol(g.CellCenters, c, weighted.Scale(1/area))
	}
	return nil
}

func (g *Grid) geometry3D() error {
	for f := 0; f < g.NumFaces; f++ {
		nodes := g.NodesOfFace(f)
		if len(nodes) < 3 {
			return fmt.Errorf("%w: 3D face %d has %d nodes", ErrInvalidTopology, f, len(nodes))
		}
		pts := make([]geom.Vec3, len(nodes))
		for i, n := range nodes {
			pts[i] = g.Node(n)
		}
		m := geom.Mean(pts)
		var normal, weighted geom.Vec3
		area := 0.0
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			tri := geom.TriangleNormal(m, a, b)
			normal = normal.Add(tri)
			sub := tri.Length()
			area += sub
			weighted = weighted.Add(m.Add(a).Add(b).Scale(sub / 3))
		}
		if area == 0 {
			return fmt.Errorf("%w: face %d has zero area", ErrDegenerate, f)
		}
		g.FaceAreas[f] = normal.Length()
		setCol(g.FaceCenters, f, weighted.Scale(1/area))
		setCol(g.FaceNormals, f, normal)
	}

	for c := 0; c < g.NumCells; c++ {
		faces, _ := g.CellFaces.Row(c)
		if len(faces) < 4 {
			return fmt.Errorf("%w: 3D cell %d has %d faces", ErrInvalidTopology, c, len(faces))
		}
		centers := make([]geom.Vec3, len(faces))
		for i, f := range faces {
			centers[i] = g.FaceCenter(f)
		}
		m := geom.Mean(centers)

		vol := 0.0
		var weighted geom.Vec3
		for _, f := range faces {
			nodes := g.NodesOfFace(f)
			fc := g.FaceCenter(f)
			for i := range nodes {
				a, b := g.Node(nodes[i]), g.Node(nodes[(i+1)%len(nodes)])
				sub := math.Abs(geom.TetVolume(m, fc, a, b))
				vol += sub
				weighted = weighted.Add(m.Add(fc).Add(a).Add(b).Scale(sub / 4))
			}
		}
		if vol == 0 {
			return fmt.Errorf("%w: cell %d has zero volume", ErrDegenerate, c)
		}
		g.CellVolumes[c] = vol
		setCol(g.CellCenters, c, weighted.Scale(1/vol))
	}
	return nil
}

// orientCellFaces sets each cell-face sign to +1 when the face normal
// points away from the cell center.
func (g *Grid) orientCellFaces() {
	if g.Dim == 0 {
		return
	}
	for c := 0; c < g.NumCells; c++ {
		faces, signs := g.CellFaces.Row(c)
		xc := g.CellCenter(c)
		for k, f := range faces {
			if g.FaceNormal(f).Dot(g.FaceCenter(f).Sub(xc)) >= 0 {
				signs[k] = 1
			} else {
				signs[k] = -1
			}
		}
	}
	g.faceCells = nil
}
