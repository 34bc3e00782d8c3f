package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/fracflow/internal/meshing"
	"github.com/san-kum/fracflow/internal/vtk"
)

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	gb, err := meshing.CartFractured([]int{2, 2}, []float64{1, 1}, []meshing.Fracture{{Axis: 0, Position: 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range gb.Nodes() {
		p := make([]float64, n.Grid.NumCells)
		for i := range p {
			p[i] = float64(i)
		}
		n.Data.SetField("pressure", p)
	}

	runID, err := st.Save(Run{Case: "test", Physics: "flow", Linear: "direct", NDof: 6, Metrics: map[string]float64{"residual": 1e-12}}, gb)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Case != "test" || meta.NDof != 6 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if len(meta.Grids) != 2 {
		t.Fatalf("expected 2 grids, got %d", len(meta.Grids))
	}
	if len(meta.Fields) != 1 || meta.Fields[0] != "pressure" {
		t.Errorf("expected pressure field, got %v", meta.Fields)
	}

	datasets, err := vtk.Open(st.Solution(runID))
	if err != nil {
		t.Fatalf("open solution: %v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(datasets))
	}
	if _, ok := datasets[1].CellArray(Aperture); !ok {
		t.Error("fracture dataset should carry apertures")
	}

	back, err := st.LoadBucket(runID)
	if err != nil {
		t.Fatalf("load bucket: %v", err)
	}
	frac := back.GridsOfDimension(1)[0]
	if p, ok := back.Data(frac).Field("pressure"); !ok || len(p) != 2 || p[1] != 1 {
		t.Errorf("fracture pressure not restored: %v", p)
	}
	if frac.Name != "fracture_0" {
		t.Errorf("grid name not restored: %q", frac.Name)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, meta); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"physics": "flow"`) {
		t.Errorf("unexpected json %s", buf.String())
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(filepath.Join(tmpDir, "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	gb, err := meshing.CartFractured([]int{2, 2}, []float64{1, 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := st.Save(Run{Case: "test"}, gb); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	// stray files are ignored
	if err := os.WriteFile(filepath.Join(tmpDir, "runs", "notes.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}
