package vtk

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/fracflow/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip2D(t *testing.T) {
	g, err := grid.CartGrid([]int{3, 2}, []float64{3, 1})
	require.NoError(t, err)
	pressure := []float64{1, 2, 3, 4, 5, 6}

	path := filepath.Join(t.TempDir(), "sol_2.vtu")
	require.NoError(t, WriteVTU(path, g, map[string][]float64{"pressure": pressure}))

	ds, err := ReadVTU(path)
	require.NoError(t, err)
	assert.Equal(t, g.NumNodes, ds.NumPoints())
	assert.Equal(t, g.NumCells, ds.NumCells())
	for c := 0; c < ds.NumCells(); c++ {
		assert.Equal(t, Polygon, ds.Types[c])
		assert.Len(t, ds.CellPoints(c), 4)
	}
	got, err := ds.CellValues("pressure")
	require.NoError(t, err)
	assert.Equal(t, pressure, got)

	back, err := ToGrid(ds)
	require.NoError(t, err)
	assert.Equal(t, g.NumFaces, back.NumFaces)
	for c := 0; c < g.NumCells; c++ {
		assert.InDelta(t, g.CellVolumes[c], back.CellVolumes[c], 1e-12)
		assert.InDelta(t, g.CellCenter(c).X, back.CellCenter(c).X, 1e-12)
	}
}

func TestRoundTrip3D(t *testing.T) {
	g, err := grid.CartGrid([]int{2, 1, 1}, []float64{2, 1, 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	ds, err := FromGrid(g, nil)
	require.NoError(t, err)
	require.NoError(t, Write(&buf, ds))
	assert.Contains(t, buf.String(), `Name="faces"`)

	read, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, read.Faces, 2)
	assert.Len(t, read.Faces[0], 6)

	back, err := ToGrid(read)
	require.NoError(t, err)
	assert.Equal(t, 11, back.NumFaces)
	assert.InDelta(t, 1.0, back.CellVolumes[1], 1e-12)
}

func TestReadBinary(t *testing.T) {
	values := []float64{0.5, 1.5}
	block := func(payload []byte) string {
		head := make([]byte, 8)
		binary.LittleEndian.PutUint64(head, uint64(len(payload)))
		return base64.StdEncoding.EncodeToString(append(head, payload...))
	}
	f64 := make([]byte, 16)
	for i, v := range values {
		binary.LittleEndian.PutUint64(f64[8*i:], math.Float64bits(v))
	}
	pts := make([]byte, 8*9)
	for i, v := range []float64{0, 0, 0, 1, 0, 0, 2, 0, 0} {
		binary.LittleEndian.PutUint64(pts[8*i:], math.Float64bits(v))
	}
	conn := make([]byte, 4*4)
	for i, v := range []uint32{0, 1, 1, 2} {
		binary.LittleEndian.PutUint32(conn[4*i:], v)
	}
	offs := make([]byte, 8)
	binary.LittleEndian.PutUint32(offs, 2)
	binary.LittleEndian.PutUint32(offs[4:], 4)

	doc := `<?xml version="1.0"?>
<VTKFile type="UnstructuredGrid" version="1.0" byte_order="LittleEndian" header_type="UInt64">
  <UnstructuredGrid>
    <Piece NumberOfPoints="3" NumberOfCells="2">
      <CellData>
        <DataArray type="Float64" Name="tracer" format="binary">` + block(f64) + `</DataArray>
      </CellData>
      <Points>
        <DataArray type="Float64" NumberOfComponents="3" format="binary">` + block(pts) + `</DataArray>
      </Points>
      <Cells>
        <DataArray type="Int32" Name="connectivity" format="binary">` + block(conn) + `</DataArray>
        <DataArray type="Int32" Name="offsets" format="binary">` + block(offs) + `</DataArray>
        <DataArray type="UInt8" Name="types" format="ascii">3 3</DataArray>
      </Cells>
    </Piece>
  </UnstructuredGrid>
</VTKFile>`

	ds, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	got, err := ds.CellValues("tracer")
	require.NoError(t, err)
	assert.Equal(t, values, got)
	assert.Equal(t, []int{1, 2}, ds.CellPoints(1))

	g, err := ToGrid(ds)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Dim)
	assert.InDelta(t, 2.0, g.CellVolumes[0]+g.CellVolumes[1], 1e-12)
}

func TestSplitBinaryHeader(t *testing.T) {
	d := decoder{order: binary.LittleEndian, headerSize: 4}
	head := make([]byte, 4)
	binary.LittleEndian.PutUint32(head, 3)
	text := base64.StdEncoding.EncodeToString(head) + base64.StdEncoding.EncodeToString([]byte{7, 8, 9})
	raw, err := d.binaryBlock(text)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9}, raw)
}

func TestPVD(t *testing.T) {
	dir := t.TempDir()
	g2, err := grid.CartGrid([]int{2, 2}, []float64{1, 1})
	require.NoError(t, err)
	g1, err := grid.CartGrid([]int{2}, []float64{1})
	require.NoError(t, err)

	f2 := filepath.Join(dir, "sol_2.vtu")
	f1 := filepath.Join(dir, "sol_1.vtu")
	require.NoError(t, WriteVTU(f2, g2, nil))
	require.NoError(t, WriteVTU(f1, g1, nil))
	later := filepath.Join(dir, "later.vtu")
	require.NoError(t, WriteVTU(later, g1, nil))

	pvd := filepath.Join(dir, "sol.pvd")
	require.NoError(t, WritePVD(pvd, []Entry{
		{Timestep: 1, Part: 0, File: later},
		{Timestep: 0, Part: 1, File: f1},
		{Timestep: 0, Part: 0, File: f2},
	}))

	entries, err := ReadPVD(pvd)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, f2, entries[0].File)
	assert.Equal(t, f1, entries[1].File)

	sets, err := Open(pvd)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, 4, sets[0].NumCells())
	assert.Equal(t, 2, sets[1].NumCells())
}

func TestOpenUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.vtk")
	require.NoError(t, os.WriteFile(path, []byte("# vtk DataFile"), 0o644))
	_, err := Open(path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFromGridRejectsBadData(t *testing.T) {
	g, err := grid.CartGrid([]int{2}, []float64{1})
	require.NoError(t, err)
	_, err = FromGrid(g, map[string][]float64{"p": {1}})
	assert.Error(t, err)
}
