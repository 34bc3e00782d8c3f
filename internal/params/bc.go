package params

import "fmt"

// BCType is the kind of boundary condition imposed on a face.
type BCType uint8

const (
	// None leaves the face without a condition; discretizations treat it
	// as zero flux.
	None BCType = iota
	Neumann
	Dirichlet
)

func (b BCType) String() string {
	switch b {
	case Neumann:
		return "neumann"
	case Dirichlet:
		return "dirichlet"
	default:
		return "none"
	}
}

// ParseBCType maps the config spelling to a BCType.
func ParseBCType(s string) (BCType, error) {
	switch s {
	case "", "none":
		return None, nil
	case "neu", "neumann":
		return Neumann, nil
	case "dir", "dirichlet":
		return Dirichlet, nil
	}
	return None, fmt.Errorf("params: unknown boundary condition %q", s)
}

// BoundaryCondition assigns a condition type to each face of a grid.
type BoundaryCondition struct {
	Types []BCType
}

func NewBoundaryCondition(numFaces int) *BoundaryCondition {
	return &BoundaryCondition{Types: make([]BCType, numFaces)}
}

// Set assigns typ to the listed faces.
func (bc *BoundaryCondition) Set(typ BCType, faces ...int) {
	for _, f := range faces {
		bc.Types[f] = typ
	}
}

func (bc *BoundaryCondition) IsDirichlet(f int) bool { return bc.Types[f] == Dirichlet }
func (bc *BoundaryCondition) IsNeumann(f int) bool   { return bc.Types[f] == Neumann }
