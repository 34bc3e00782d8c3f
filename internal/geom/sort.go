package geom

import (
	"math"
	"sort"
)

// PlaneNormal returns a unit normal of the plane through pts, using the
// triple spanning the largest triangle among the first point, the point
// farthest from it and each remaining point. ok is false when the points
// are collinear (or fewer than three).
func PlaneNormal(pts []Vec3) (n Vec3, ok bool) {
	if len(pts) < 3 {
		return Vec3{}, false
	}
	a := pts[0]
	far, best := -1, 0.0
	for i, p := range pts {
		if d := p.Sub(a).Length(); d > best {
			far, best = i, d
		}
	}
	if far < 0 {
		return Vec3{}, false
	}
	b := pts[far]
	var cross Vec3
	area := 0.0
	for _, p := range pts {
		c := b.Sub(a).Cross(p.Sub(a))
		if l := c.Length(); l > area {
			cross, area = c, l
		}
	}
	if area <= 1e-12*best*best {
		return Vec3{}, false
	}
	return cross.Normalize(), true
}

// SortPointPlane returns the permutation ordering pts counter-clockwise by
// angle around center, as seen from the side the plane normal points to.
// Points of an xy-plane polygon are ordered counter-clockwise in x-y.
func SortPointPlane(pts []Vec3, center Vec3) []int {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	if len(pts) < 3 {
		return idx
	}

	n, ok := PlaneNormal(pts)
	if !ok {
		n = Vec3{0, 0, 1}
	}
	// keep xy polygons counter-clockwise in the usual orientation
	if n.Z < 0 || (n.Z == 0 && (n.Y < 0 || (n.Y == 0 && n.X < 0))) {
		n = n.Scale(-1)
	}
	u := pts[0].Sub(center)
	u = u.Sub(n.Scale(u.Dot(n))).Normalize()
	if u.Length() == 0 {
		u = pickPerpendicular(n)
	}
	w := n.Cross(u)

	angles := make([]float64, len(pts))
	for i, p := range pts {
		d := p.Sub(center)
		angles[i] = math.Atan2(d.Dot(w), d.Dot(u))
	}
	sort.SliceStable(idx, func(i, j int) bool { return angles[idx[i]] < angles[idx[j]] })
	return idx
}

func pickPerpendicular(n Vec3) Vec3 {
	ref := Vec3{1, 0, 0}
	if math.Abs(n.X) > 0.9 {
		ref = Vec3{0, 1, 0}
	}
	return ref.Sub(n.Scale(ref.Dot(n))).Normalize()
}
