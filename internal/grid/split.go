package grid

import "fmt"

// SplitFaces duplicates each interior face in faces so that the two cells
// sharing it no longer communicate through it. The cell on the negative
// side of the face normal receives the new face. Both copies are tagged as
// fracture faces. The returned slice holds the new face index for each
// input face, in input order. Geometry is recomputed.
func SplitFaces(g *Grid, faces []int) ([]int, error) {
	faceNodes, _ := g.FaceNodes.Lists()
	cellFaces, signs := g.CellFaces.Lists()

	newFaces := make([]int, len(faces))
	seen := make(map[int]bool, len(faces))
	for i, f := range faces {
		if f < 0 || f >= g.NumFaces {
			return nil, fmt.Errorf("%w: face %d out of range", ErrInvalidTopology, f)
		}
		if seen[f] {
			return nil, fmt.Errorf("%w: face %d listed twice", ErrInvalidTopology, f)
		}
		seen[f] = true

		cells, cs := g.FaceCellNeighbors(f)
		if len(cells) != 2 {
			return nil, fmt.Errorf("%w: face %d is not an interior face", ErrInvalidTopology, f)
		}
		owner := cells[1]
		if cs[0] < 0 {
			owner = cells[0]
		}

		nf := len(faceNodes)
		faceNodes = append(faceNodes, append([]int(nil), faceNodes[f]...))
		for k, cf := range cellFaces[owner] {
			if cf == f {
				cellFaces[owner][k] = nf
			}
		}
		newFaces[i] = nf
	}

	fn, err := NewIncidence(len(faceNodes), g.NumNodes, faceNodes, nil)
	if err != nil {
		return nil, err
	}
	cf, err := NewIncidence(g.NumCells, len(faceNodes), cellFaces, signs)
	if err != nil {
		return nil, err
	}

	oldTags := g.FaceTags
	g.FaceNodes = fn
	g.CellFaces = cf
	g.NumFaces = len(faceNodes)
	g.faceCells = nil
	g.FaceTags = make(map[string][]bool, len(oldTags))
	for name, tag := range oldTags {
		ext := make([]bool, g.NumFaces)
		copy(ext, tag)
		g.FaceTags[name] = ext
	}
	frac := g.Tag(TagFracture)
	for i, f := range faces {
		frac[f] = true
		frac[newFaces[i]] = true
	}

	if err := g.ComputeGeometry(); err != nil {
		return nil, err
	}
	return newFaces, nil
}
