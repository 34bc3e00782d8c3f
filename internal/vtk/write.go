package vtk

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/fracflow/internal/geom"
	"github.com/san-kum/fracflow/internal/grid"
)

// FromGrid converts a grid to a dataset: vertices for 0D, lines for 1D,
// polygons for 2D and polyhedra for 3D grids. cellData arrays are written
// in name order and must have one value per cell.
func FromGrid(g *grid.Grid, cellData map[string][]float64) (*Dataset, error) {
	ds := &Dataset{Points: make([]geom.Vec3, g.NumNodes)}
	for n := range ds.Points {
		ds.Points[n] = g.Node(n)
	}

	for c := 0; c < g.NumCells; c++ {
		var pts []int
		switch g.Dim {
		case 0:
			pts = []int{c}
			ds.Types = append(ds.Types, Vertex)
		case 1:
			pts = g.NodesOfCell(c)
			ds.Types = append(ds.Types, Line)
		case 2:
			nodes := g.NodesOfCell(c)
			coords := make([]geom.Vec3, len(nodes))
			for i, n := range nodes {
				coords[i] = g.Node(n)
			}
			for _, i := range geom.SortPointPlane(coords, g.CellCenter(c)) {
				pts = append(pts, nodes[i])
			}
			ds.Types = append(ds.Types, Polygon)
		case 3:
			pts = g.NodesOfCell(c)
			ds.Types = append(ds.Types, Polyhedron)
			if ds.Faces == nil {
				ds.Faces = make([][][]int, g.NumCells)
			}
			faces, signs := g.FacesOfCell(c)
			for k, f := range faces {
				poly := append([]int(nil), g.NodesOfFace(f)...)
				if signs[k] < 0 {
					for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
						poly[i], poly[j] = poly[j], poly[i]
					}
				}
				ds.Faces[c] = append(ds.Faces[c], poly)
			}
		default:
			return nil, fmt.Errorf("%w: grid dimension %d", ErrUnsupportedCell, g.Dim)
		}
		ds.Connectivity = append(ds.Connectivity, pts...)
		ds.Offsets = append(ds.Offsets, len(ds.Connectivity))
	}

	names := make([]string, 0, len(cellData))
	for name := range cellData {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := cellData[name]
		if len(v) != g.NumCells {
			return nil, fmt.Errorf("vtk: cell data %q has %d values for %d cells", name, len(v), g.NumCells)
		}
		ds.CellData = append(ds.CellData, &DataArray{Name: name, Components: 1, Values: v})
	}
	return ds, nil
}

// WriteVTU writes g and its cell data to path.
func WriteVTU(path string, g *grid.Grid, cellData map[string][]float64) error {
	ds, err := FromGrid(g, cellData)
	if err != nil {
		return err
	}
	return WriteFile(path, ds)
}

// WriteFile writes ds as an ASCII .vtu file.
func WriteFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes ds as an ASCII VTK unstructured grid.
func Write(w io.Writer, ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	piece := xmlPiece{NumberOfPoints: ds.NumPoints(), NumberOfCells: ds.NumCells()}
	for _, a := range ds.PointData {
		piece.PointData.Arrays = append(piece.PointData.Arrays, floatArray(a.Name, a.Components, a.Values))
	}
	for _, a := range ds.CellData {
		piece.CellData.Arrays = append(piece.CellData.Arrays, floatArray(a.Name, a.Components, a.Values))
	}

	coords := make([]float64, 0, 3*len(ds.Points))
	for _, p := range ds.Points {
		coords = append(coords, p.X, p.Y, p.Z)
	}
	piece.Points.Arrays = []xmlArray{floatArray("Points", 3, coords)}

	types := make([]int, len(ds.Types))
	for i, t := range ds.Types {
		types[i] = int(t)
	}
	piece.Cells.Arrays = []xmlArray{
		intArray("Int64", "connectivity", ds.Connectivity),
		intArray("Int64", "offsets", ds.Offsets),
		intArray("UInt8", "types", types),
	}
	if ds.Faces != nil {
		var stream, offsets []int
		for c := range ds.Types {
			if ds.Types[c] != Polyhedron {
				offsets = append(offsets, -1)
				continue
			}
			stream = append(stream, len(ds.Faces[c]))
			for _, poly := range ds.Faces[c] {
				stream = append(stream, len(poly))
				stream = append(stream, poly...)
			}
			offsets = append(offsets, len(stream))
		}
		piece.Cells.Arrays = append(piece.Cells.Arrays,
			intArray("Int64", "faces", stream),
			intArray("Int64", "faceoffsets", offsets))
	}

	file := xmlFile{
		Type:       "UnstructuredGrid",
		Version:    "1.0",
		ByteOrder:  "LittleEndian",
		HeaderType: "UInt64",
		Grid:       &xmlGrid{Pieces: []xmlPiece{piece}},
	}
	return encode(w, file)
}

// Entry is one dataset of a .pvd collection.
type Entry struct {
	Timestep float64
	Part     int
	File     string
}

// WritePVD writes a collection file. Entry files are stored relative to
// the collection's directory when possible.
func WritePVD(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	file := xmlFile{Type: "Collection", Version: "0.1", ByteOrder: "LittleEndian"}
	for _, e := range entries {
		name := e.File
		if rel, err := filepath.Rel(dir, e.File); err == nil && filepath.IsAbs(e.File) == filepath.IsAbs(dir) {
			name = rel
		}
		file.DataSets = append(file.DataSets, xmlPVD{Timestep: e.Timestep, Part: e.Part, File: filepath.ToSlash(name)})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := encode(f, file); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, file xmlFile) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("vtk: encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func floatArray(name string, components int, values []float64) xmlArray {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return xmlArray{Type: "Float64", Name: name, Components: components, Format: "ascii", Text: sb.String()}
}

func intArray(typ, name string, values []int) xmlArray {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return xmlArray{Type: typ, Name: name, Format: "ascii", Text: sb.String()}
}
