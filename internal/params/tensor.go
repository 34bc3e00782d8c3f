package params

import (
	"fmt"

	"github.com/san-kum/fracflow/internal/geom"
)

// SecondOrderTensor stores one symmetric 3×3 tensor per cell, row-major,
// nine values per cell.
type SecondOrderTensor struct {
	Values []float64
}

// NewIsotropic returns k·I for every cell.
func NewIsotropic(k []float64) *SecondOrderTensor {
	t := &SecondOrderTensor{Values: make([]float64, 9*len(k))}
	for c, v := range k {
		t.Values[9*c] = v
		t.Values[9*c+4] = v
		t.Values[9*c+8] = v
	}
	return t
}

// NewTensor builds a tensor field from per-cell components. kyy and kzz
// default to kxx when nil; off-diagonals default to zero.
func NewTensor(kxx, kyy, kzz, kxy, kxz, kyz []float64) (*SecondOrderTensor, error) {
	nc := len(kxx)
	pick := func(name string, v, def []float64) ([]float64, error) {
		if v == nil {
			return def, nil
		}
		if len(v) != nc {
			return nil, fmt.Errorf("params: %s has %d values for %d cells", name, len(v), nc)
		}
		return v, nil
	}
	zero := make([]float64, nc)
	var err error
	if kyy, err = pick("kyy", kyy, kxx); err != nil {
		return nil, err
	}
	if kzz, err = pick("kzz", kzz, kxx); err != nil {
		return nil, err
	}
	if kxy, err = pick("kxy", kxy, zero); err != nil {
		return nil, err
	}
	if kxz, err = pick("kxz", kxz, zero); err != nil {
		return nil, err
	}
	if kyz, err = pick("kyz", kyz, zero); err != nil {
		return nil, err
	}

	t := &SecondOrderTensor{Values: make([]float64, 9*nc)}
	for c := 0; c < nc; c++ {
		v := t.Values[9*c : 9*c+9]
		v[0], v[1], v[2] = kxx[c], kxy[c], kxz[c]
		v[3], v[4], v[5] = kxy[c], kyy[c], kyz[c]
		v[6], v[7], v[8] = kxz[c], kyz[c], kzz[c]
	}
	return t, nil
}

func (t *SecondOrderTensor) NumCells() int { return len(t.Values) / 9 }

// Apply returns K_c · v.
func (t *SecondOrderTensor) Apply(c int, v geom.Vec3) geom.Vec3 {
	k := t.Values[9*c : 9*c+9]
	return geom.Vec3{
		X: k[0]*v.X + k[1]*v.Y + k[2]*v.Z,
		Y: k[3]*v.X + k[4]*v.Y + k[5]*v.Z,
		Z: k[6]*v.X + k[7]*v.Y + k[8]*v.Z,
	}
}
