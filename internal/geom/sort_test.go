package geom

import (
	"math"
	"testing"
)

func TestPlaneNormal(t *testing.T) {
	pts := []Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	n, ok := PlaneNormal(pts)
	if !ok {
		t.Fatal("expected a plane")
	}
	if math.Abs(math.Abs(n.Z)-1) > 1e-12 {
		t.Errorf("expected z normal, got %v", n)
	}

	if _, ok := PlaneNormal([]Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}); ok {
		t.Error("collinear points should not define a plane")
	}
}

func TestSortPointPlane(t *testing.T) {
	// square corners in scrambled order
	pts := []Vec3{{1, 1, 0}, {0, 0, 0}, {0, 1, 0}, {1, 0, 0}}
	order := SortPointPlane(pts, Vec3{0.5, 0.5, 0})

	// consecutive sorted points must be square neighbours, i.e. one unit apart
	for i := range order {
		a := pts[order[i]]
		b := pts[order[(i+1)%len(order)]]
		if d := b.Sub(a).Length(); math.Abs(d-1) > 1e-12 {
			t.Fatalf("points %v and %v are not adjacent (order %v)", a, b, order)
		}
	}

	// counter-clockwise: positive signed area
	area := 0.0
	for i := range order {
		a := pts[order[i]]
		b := pts[order[(i+1)%len(order)]]
		area += a.X*b.Y - b.X*a.Y
	}
	if area <= 0 {
		t.Errorf("expected counter-clockwise order, signed area %f", area)
	}
}

func TestTriangleAndTet(t *testing.T) {
	n := TriangleNormal(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0})
	if math.Abs(n.Length()-0.5) > 1e-12 || n.Z <= 0 {
		t.Errorf("unexpected triangle normal %v", n)
	}
	v := TetVolume(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0}, Vec3{0, 0, 1})
	if math.Abs(v-1.0/6) > 1e-12 {
		t.Errorf("expected 1/6, got %f", v)
	}
}
