package vtk

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/fracflow/internal/geom"
)

// ReadVTU reads a .vtu file. Multiple pieces are merged into one dataset.
func ReadVTU(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read decodes a VTK XML unstructured grid.
func Read(r io.Reader) (*Dataset, error) {
	var file xmlFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("vtk: decode: %w", err)
	}
	if file.Type != "UnstructuredGrid" || file.Grid == nil {
		return nil, fmt.Errorf("%w: file type %q", ErrUnsupportedFormat, file.Type)
	}
	if file.Compressor != "" {
		return nil, fmt.Errorf("%w: compressed data (%s)", ErrUnsupportedFormat, file.Compressor)
	}
	dec := decoder{order: binary.LittleEndian, headerSize: 4}
	if file.ByteOrder == "BigEndian" {
		dec.order = binary.BigEndian
	}
	if file.HeaderType == "UInt64" {
		dec.headerSize = 8
	}

	ds := &Dataset{}
	for i, piece := range file.Grid.Pieces {
		part, err := dec.piece(piece)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		if err := ds.merge(part); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

type decoder struct {
	order      binary.ByteOrder
	headerSize int
}

func (d decoder) piece(p xmlPiece) (*Dataset, error) {
	ds := &Dataset{}

	if len(p.Points.Arrays) != 1 {
		if p.NumberOfPoints > 0 {
			return nil, fmt.Errorf("vtk: expected one points array, found %d", len(p.Points.Arrays))
		}
	} else {
		coords, err := d.values(p.Points.Arrays[0])
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		if len(coords) != 3*p.NumberOfPoints {
			return nil, fmt.Errorf("vtk: %d coordinates for %d points", len(coords), p.NumberOfPoints)
		}
		ds.Points = make([]geom.Vec3, p.NumberOfPoints)
		for i := range ds.Points {
			ds.Points[i] = geom.V(coords[3*i], coords[3*i+1], coords[3*i+2])
		}
	}

	ints := func(name string, required bool) ([]int, error) {
		arr, ok := p.Cells.named(name)
		if !ok {
			if required {
				return nil, fmt.Errorf("%w: cells/%s", ErrMissingArray, name)
			}
			return nil, nil
		}
		v, err := d.values(arr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out := make([]int, len(v))
		for i, x := range v {
			out[i] = int(x)
		}
		return out, nil
	}
	var err error
	if ds.Connectivity, err = ints("connectivity", true); err != nil {
		return nil, err
	}
	if ds.Offsets, err = ints("offsets", true); err != nil {
		return nil, err
	}
	types, err := ints("types", true)
	if err != nil {
		return nil, err
	}
	if len(types) != p.NumberOfCells {
		return nil, fmt.Errorf("vtk: %d cell types for %d cells", len(types), p.NumberOfCells)
	}
	ds.Types = make([]CellType, len(types))
	for i, t := range types {
		ds.Types[i] = CellType(t)
	}

	stream, err := ints("faces", false)
	if err != nil {
		return nil, err
	}
	if stream != nil {
		if ds.Faces, err = parseFaces(ds.Types, stream); err != nil {
			return nil, err
		}
	}

	for _, arr := range p.PointData.Arrays {
		a, err := d.array(arr)
		if err != nil {
			return nil, fmt.Errorf("point data %q: %w", arr.Name, err)
		}
		ds.PointData = append(ds.PointData, a)
	}
	for _, arr := range p.CellData.Arrays {
		a, err := d.array(arr)
		if err != nil {
			return nil, fmt.Errorf("cell data %q: %w", arr.Name, err)
		}
		ds.CellData = append(ds.CellData, a)
	}
	return ds, nil
}

// parseFaces splits the polyhedron face stream. Streams of consecutive
// polyhedra are contiguous, so faceoffsets is not needed.
func parseFaces(types []CellType, stream []int) ([][][]int, error) {
	faces := make([][][]int, len(types))
	pos := 0
	for c, t := range types {
		if t != Polyhedron {
			continue
		}
		if pos >= len(stream) {
			return nil, fmt.Errorf("vtk: face stream ends before cell %d", c)
		}
		nf := stream[pos]
		pos++
		for k := 0; k < nf; k++ {
			if pos >= len(stream) {
				return nil, fmt.Errorf("vtk: face stream ends inside cell %d", c)
			}
			np := stream[pos]
			pos++
			if pos+np > len(stream) {
				return nil, fmt.Errorf("vtk: face stream ends inside cell %d", c)
			}
			faces[c] = append(faces[c], append([]int(nil), stream[pos:pos+np]...))
			pos += np
		}
	}
	return faces, nil
}

func (d decoder) array(arr xmlArray) (*DataArray, error) {
	v, err := d.values(arr)
	if err != nil {
		return nil, err
	}
	nc := max(arr.Components, 1)
	return &DataArray{Name: arr.Name, Components: nc, Values: v}, nil
}

func (d decoder) values(arr xmlArray) ([]float64, error) {
	switch arr.Format {
	case "ascii", "":
		fields := strings.Fields(arr.Text)
		out := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("vtk: bad value %q: %w", s, err)
			}
			out[i] = v
		}
		return out, nil
	case "binary":
		raw, err := d.binaryBlock(strings.Join(strings.Fields(arr.Text), ""))
		if err != nil {
			return nil, err
		}
		return d.convert(arr.Type, raw)
	}
	return nil, fmt.Errorf("%w: %s data arrays", ErrUnsupportedFormat, arr.Format)
}

// binaryBlock decodes an inline base64 block: a size header followed by
// the payload, encoded either as one stream or as two separately padded
// streams.
func (d decoder) binaryBlock(text string) ([]byte, error) {
	if raw, err := base64.StdEncoding.DecodeString(text); err == nil && len(raw) >= d.headerSize {
		n := d.header(raw[:d.headerSize])
		if d.headerSize+n == len(raw) {
			return raw[d.headerSize:], nil
		}
	}

	hc := (d.headerSize + 2) / 3 * 4
	if len(text) < hc {
		return nil, fmt.Errorf("vtk: binary block too short")
	}
	head, err := base64.StdEncoding.DecodeString(text[:hc])
	if err != nil {
		return nil, fmt.Errorf("vtk: binary header: %w", err)
	}
	n := d.header(head)
	body, err := base64.StdEncoding.DecodeString(text[hc:])
	if err != nil {
		return nil, fmt.Errorf("vtk: binary payload: %w", err)
	}
	if len(body) < n {
		return nil, fmt.Errorf("vtk: binary payload has %d bytes, header says %d", len(body), n)
	}
	return body[:n], nil
}

func (d decoder) header(b []byte) int {
	if d.headerSize == 8 {
		return int(d.order.Uint64(b))
	}
	return int(d.order.Uint32(b))
}

func (d decoder) convert(typ string, raw []byte) ([]float64, error) {
	size := map[string]int{
		"Int8": 1, "UInt8": 1, "Int16": 2, "UInt16": 2,
		"Int32": 4, "UInt32": 4, "Float32": 4,
		"Int64": 8, "UInt64": 8, "Float64": 8,
	}[typ]
	if size == 0 {
		return nil, fmt.Errorf("%w: data type %q", ErrUnsupportedFormat, typ)
	}
	if len(raw)%size != 0 {
		return nil, fmt.Errorf("vtk: %d bytes is not a multiple of %s", len(raw), typ)
	}
	out := make([]float64, len(raw)/size)
	for i := range out {
		b := raw[i*size : (i+1)*size]
		switch typ {
		case "Int8":
			out[i] = float64(int8(b[0]))
		case "UInt8":
			out[i] = float64(b[0])
		case "Int16":
			out[i] = float64(int16(d.order.Uint16(b)))
		case "UInt16":
			out[i] = float64(d.order.Uint16(b))
		case "Int32":
			out[i] = float64(int32(d.order.Uint32(b)))
		case "UInt32":
			out[i] = float64(d.order.Uint32(b))
		case "Int64":
			out[i] = float64(int64(d.order.Uint64(b)))
		case "UInt64":
			out[i] = float64(d.order.Uint64(b))
		case "Float32":
			out[i] = float64(math.Float32frombits(d.order.Uint32(b)))
		case "Float64":
			out[i] = math.Float64frombits(d.order.Uint64(b))
		}
	}
	return out, nil
}

// merge appends the points and cells of other, shifting its point ids.
// Both datasets must carry the same arrays.
func (ds *Dataset) merge(other *Dataset) error {
	if ds.NumPoints() == 0 && ds.NumCells() == 0 {
		*ds = *other
		return nil
	}
	shift := ds.NumPoints()
	base := len(ds.Connectivity)
	ds.Points = append(ds.Points, other.Points...)
	for _, id := range other.Connectivity {
		ds.Connectivity = append(ds.Connectivity, id+shift)
	}
	for _, off := range other.Offsets {
		ds.Offsets = append(ds.Offsets, off+base)
	}
	if ds.Faces != nil || other.Faces != nil {
		if ds.Faces == nil {
			ds.Faces = make([][][]int, ds.NumCells())
		}
		for c := 0; c < other.NumCells(); c++ {
			var faces [][]int
			if other.Faces != nil {
				for _, poly := range other.Faces[c] {
					shifted := make([]int, len(poly))
					for i, id := range poly {
						shifted[i] = id + shift
					}
					faces = append(faces, shifted)
				}
			}
			ds.Faces = append(ds.Faces, faces)
		}
	}
	ds.Types = append(ds.Types, other.Types...)

	join := func(dst, src []*DataArray, kind string) error {
		if len(dst) != len(src) {
			return fmt.Errorf("vtk: pieces carry different %s arrays", kind)
		}
		for _, a := range src {
			b, ok := find(dst, a.Name)
			if !ok || b.Components != a.Components {
				return fmt.Errorf("vtk: pieces disagree on %s array %q", kind, a.Name)
			}
			b.Values = append(b.Values, a.Values...)
		}
		return nil
	}
	if err := join(ds.PointData, other.PointData, "point"); err != nil {
		return err
	}
	return join(ds.CellData, other.CellData, "cell")
}

// ReadPVD reads a collection file. Entry paths are resolved against the
// collection's directory and entries are sorted by timestep then part.
func ReadPVD(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var file xmlFile
	if err := xml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("%s: vtk: decode: %w", path, err)
	}
	if file.Type != "Collection" {
		return nil, fmt.Errorf("%s: %w: file type %q", path, ErrUnsupportedFormat, file.Type)
	}
	dir := filepath.Dir(path)
	entries := make([]Entry, len(file.DataSets))
	for i, d := range file.DataSets {
		name := filepath.FromSlash(d.File)
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		entries[i] = Entry{Timestep: d.Timestep, Part: d.Part, File: name}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestep != entries[j].Timestep {
			return entries[i].Timestep < entries[j].Timestep
		}
		return entries[i].Part < entries[j].Part
	})
	return entries, nil
}

// Open reads a .vtu file, or every part of the first timestep of a .pvd
// collection. Other extensions fail with ErrUnsupportedFormat.
func Open(path string) ([]*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtu":
		ds, err := ReadVTU(path)
		if err != nil {
			return nil, err
		}
		return []*Dataset{ds}, nil
	case ".pvd":
		entries, err := ReadPVD(path)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%s: empty collection", path)
		}
		var out []*Dataset
		for _, e := range entries {
			if e.Timestep != entries[0].Timestep {
				break
			}
			ds, err := ReadVTU(e.File)
			if err != nil {
				return nil, err
			}
			out = append(out, ds)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}
