package params

import (
	"testing"

	"github.com/san-kum/fracflow/internal/geom"
)

func TestTensorApply(t *testing.T) {
	k, err := NewTensor([]float64{2}, []float64{3}, nil, []float64{1}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := k.Apply(0, geom.V(1, 1, 1))
	want := geom.V(3, 4, 2)
	if got != want {
		t.Errorf("Apply = %v, want %v", got, want)
	}

	if _, err := NewTensor([]float64{1, 1}, []float64{1}, nil, nil, nil, nil); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestDefaults(t *testing.T) {
	var p *Parameters
	if got := p.Apertures(3); len(got) != 3 || got[2] != 1 {
		t.Errorf("unexpected default apertures %v", got)
	}
	if got := p.TimeStep(); got != 1 {
		t.Errorf("default dt = %f", got)
	}
	if bc := p.BoundaryCondition(4); len(bc.Types) != 4 || bc.Types[0] != None {
		t.Errorf("unexpected default bc %v", bc.Types)
	}
}

func TestValidate(t *testing.T) {
	p := &Parameters{Source: []float64{1, 2}}
	if err := p.Validate(4, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.Validate(4, 3); err == nil {
		t.Error("expected source length error")
	}
}

func TestParseBCType(t *testing.T) {
	tests := []struct {
		in   string
		want BCType
	}{
		{"dir", Dirichlet},
		{"dirichlet", Dirichlet},
		{"neu", Neumann},
		{"", None},
	}
	for _, tt := range tests {
		got, err := ParseBCType(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseBCType(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseBCType("robin"); err == nil {
		t.Error("expected error for unknown type")
	}
}
