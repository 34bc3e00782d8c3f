package probe

import (
	"math"

	"github.com/san-kum/fracflow/internal/geom"
	"github.com/san-kum/fracflow/internal/vtk"
)

// vertex of a simplex: a position and the dataset points whose mean value
// it carries.
type vertex struct {
	pos geom.Vec3
	ids []int
}

type simplex []vertex

// decompose splits cell c into simplices: lines, triangles or tetrahedra.
// Non-simplicial cells are fanned around their centroid.
func decompose(ds *vtk.Dataset, c int) []simplex {
	pts := ds.CellPoints(c)
	at := func(id int) vertex { return vertex{pos: ds.Points[id], ids: []int{id}} }

	switch t := ds.Types[c]; t {
	case vtk.Vertex, vtk.PolyVertex:
		out := make([]simplex, len(pts))
		for i, id := range pts {
			out[i] = simplex{at(id)}
		}
		return out
	case vtk.Line, vtk.PolyLine:
		var out []simplex
		for i := 0; i+1 < len(pts); i++ {
			out = append(out, simplex{at(pts[i]), at(pts[i+1])})
		}
		return out
	case vtk.Triangle:
		return []simplex{{at(pts[0]), at(pts[1]), at(pts[2])}}
	case vtk.TriangleStrip:
		var out []simplex
		for i := 0; i+2 < len(pts); i++ {
			out = append(out, simplex{at(pts[i]), at(pts[i+1]), at(pts[i+2])})
		}
		return out
	case vtk.Pixel, vtk.Quad, vtk.Polygon:
		ring := pts
		if t == vtk.Pixel {
			ring = []int{pts[0], pts[1], pts[3], pts[2]}
		}
		center := centroid(ds, ring)
		out := make([]simplex, len(ring))
		for i := range ring {
			out[i] = simplex{center, at(ring[i]), at(ring[(i+1)%len(ring)])}
		}
		return out
	case vtk.Tetra:
		return []simplex{{at(pts[0]), at(pts[1]), at(pts[2]), at(pts[3])}}
	default:
		faces := ds.CellFaces(c)
		if faces == nil {
			return nil
		}
		center := centroid(ds, unique(pts))
		var out []simplex
		for _, f := range faces {
			for i := 1; i+1 < len(f); i++ {
				out = append(out, simplex{center, at(f[0]), at(f[i]), at(f[i+1])})
			}
		}
		return out
	}
}

func unique(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	var out []int
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func centroid(ds *vtk.Dataset, ids []int) vertex {
	pts := make([]geom.Vec3, len(ids))
	for i, id := range ids {
		pts[i] = ds.Points[id]
	}
	return vertex{pos: geom.Mean(pts), ids: ids}
}

// barycentric returns the weights of p in s when p lies in s up to the
// distance tolerance tol.
func (s simplex) barycentric(p geom.Vec3, tol float64) ([]float64, bool) {
	const eps = 1e-9
	switch len(s) {
	case 1:
		if p.Sub(s[0].pos).Length() <= tol {
			return []float64{1}, true
		}
	case 2:
		a, b := s[0].pos, s[1].pos
		d := b.Sub(a)
		l2 := d.Dot(d)
		if l2 == 0 {
			return nil, false
		}
		t := p.Sub(a).Dot(d) / l2
		if t < -eps || t > 1+eps {
			return nil, false
		}
		if p.Sub(a.Add(d.Scale(t))).Length() > tol {
			return nil, false
		}
		return []float64{1 - t, t}, true
	case 3:
		a, b, c := s[0].pos, s[1].pos, s[2].pos
		n := b.Sub(a).Cross(c.Sub(a))
		n2 := n.Dot(n)
		if n2 == 0 {
			return nil, false
		}
		if math.Abs(p.Sub(a).Dot(n))/math.Sqrt(n2) > tol {
			return nil, false
		}
		la := b.Sub(p).Cross(c.Sub(p)).Dot(n) / n2
		lb := c.Sub(p).Cross(a.Sub(p)).Dot(n) / n2
		lc := 1 - la - lb
		if la < -eps || lb < -eps || lc < -eps {
			return nil, false
		}
		return []float64{la, lb, lc}, true
	case 4:
		a, b, c, d := s[0].pos, s[1].pos, s[2].pos, s[3].pos
		vol := geom.TetVolume(a, b, c, d)
		if vol == 0 {
			return nil, false
		}
		w := []float64{
			geom.TetVolume(p, b, c, d) / vol,
			geom.TetVolume(a, p, c, d) / vol,
			geom.TetVolume(a, b, p, d) / vol,
			geom.TetVolume(a, b, c, p) / vol,
		}
		for _, x := range w {
			if x < -eps {
				return nil, false
			}
		}
		return w, true
	}
	return nil, false
}

// locator bins the cells of one dataset by bounding box.
type locator struct {
	ds     *vtk.Dataset
	lo, hi geom.Vec3
	n      [3]int
	bins   map[int][]int
	tol    float64
	cells  [][]simplex
}

func newLocator(ds *vtk.Dataset) *locator {
	l := &locator{ds: ds, bins: make(map[int][]int), cells: make([][]simplex, ds.NumCells())}
	if ds.NumPoints() == 0 {
		return l
	}
	l.lo, l.hi = ds.Points[0], ds.Points[0]
	for _, p := range ds.Points {
		l.lo = geom.V(math.Min(l.lo.X, p.X), math.Min(l.lo.Y, p.Y), math.Min(l.lo.Z, p.Z))
		l.hi = geom.V(math.Max(l.hi.X, p.X), math.Max(l.hi.Y, p.Y), math.Max(l.hi.Z, p.Z))
	}
	diag := l.hi.Sub(l.lo).Length()
	l.tol = 1e-8 * math.Max(diag, 1e-300)

	// about one cell per bin along the extended directions
	per := math.Max(1, math.Cbrt(float64(ds.NumCells())))
	for d := 0; d < 3; d++ {
		if l.hi.At(d)-l.lo.At(d) > l.tol {
			l.n[d] = int(math.Ceil(per))
		} else {
			l.n[d] = 1
		}
	}

	for c := 0; c < ds.NumCells(); c++ {
		l.cells[c] = decompose(ds, c)
		pts := ds.CellPoints(c)
		if len(pts) == 0 {
			continue
		}
		clo, chi := ds.Points[pts[0]], ds.Points[pts[0]]
		for _, id := range pts {
			p := ds.Points[id]
			clo = geom.V(math.Min(clo.X, p.X), math.Min(clo.Y, p.Y), math.Min(clo.Z, p.Z))
			chi = geom.V(math.Max(chi.X, p.X), math.Max(chi.Y, p.Y), math.Max(chi.Z, p.Z))
		}
		i0, j0, k0 := l.bin(clo.Sub(geom.V(l.tol, l.tol, l.tol)))
		i1, j1, k1 := l.bin(chi.Add(geom.V(l.tol, l.tol, l.tol)))
		for k := k0; k <= k1; k++ {
			for j := j0; j <= j1; j++ {
				for i := i0; i <= i1; i++ {
					key := i + l.n[0]*(j+l.n[1]*k)
					l.bins[key] = append(l.bins[key], c)
				}
			}
		}
	}
	return l
}

func (l *locator) bin(p geom.Vec3) (int, int, int) {
	var idx [3]int
	for d := 0; d < 3; d++ {
		w := l.hi.At(d) - l.lo.At(d)
		if l.n[d] == 1 || w <= 0 {
			continue
		}
		i := int(math.Floor((p.At(d) - l.lo.At(d)) / w * float64(l.n[d])))
		idx[d] = min(max(i, 0), l.n[d]-1)
	}
	return idx[0], idx[1], idx[2]
}

// find returns the cell containing p, the simplex in it and the weights.
func (l *locator) find(p geom.Vec3) (int, simplex, []float64, bool) {
	if l.ds.NumPoints() == 0 {
		return 0, nil, nil, false
	}
	for d := 0; d < 3; d++ {
		if p.At(d) < l.lo.At(d)-l.tol || p.At(d) > l.hi.At(d)+l.tol {
			return 0, nil, nil, false
		}
	}
	i, j, k := l.bin(p)
	for _, c := range l.bins[i+l.n[0]*(j+l.n[1]*k)] {
		for _, s := range l.cells[c] {
			if w, ok := s.barycentric(p, l.tol); ok {
				return c, s, w, true
			}
		}
	}
	return 0, nil, nil, false
}
