// Package storage keeps solved runs on disk: one directory per run holding
// metadata.json, a VTU file per grid and a PVD collection over them.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/fracflow/internal/bucket"
	"github.com/san-kum/fracflow/internal/vtk"
)

const (
	metadataFile = "metadata.json"
	Collection   = "solution.pvd"

	CellVolumes = "cell_volumes"
	Aperture    = "aperture"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type GridInfo struct {
	Name  string `json:"name"`
	Dim   int    `json:"dim"`
	Cells int    `json:"cells"`
	Faces int    `json:"faces"`
	File  string `json:"file"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Case      string             `json:"case"`
	Timestamp time.Time          `json:"timestamp"`
	Physics   string             `json:"physics"`
	Linear    string             `json:"linear"`
	NDof      int                `json:"ndof"`
	Grids     []GridInfo         `json:"grids"`
	Fields    []string           `json:"fields"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Run describes what is being saved.
type Run struct {
	Case    string
	Physics string
	Linear  string
	NDof    int
	Metrics map[string]float64
}

// Save writes every grid of gb with its stored fields, cell volumes and
// apertures, and returns the run ID.
func (s *Store) Save(run Run, gb *bucket.Bucket) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", run.Case, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Case:      run.Case,
		Timestamp: now,
		Physics:   run.Physics,
		Linear:    run.Linear,
		NDof:      run.NDof,
		Metrics:   run.Metrics,
	}

	fields := map[string]bool{}
	var entries []vtk.Entry
	for i, n := range gb.Nodes() {
		g := n.Grid
		data := map[string][]float64{CellVolumes: g.CellVolumes}
		if n.Data != nil {
			for k, v := range n.Data.Fields {
				if len(v) == g.NumCells {
					data[k] = v
					fields[k] = true
				}
			}
			if g.Dim < gb.DimMax() {
				data[Aperture] = n.Data.Param.Apertures(g.NumCells)
			}
		}
		name := fmt.Sprintf("sol_%d_%d.vtu", g.Dim, i)
		path := filepath.Join(runDir, name)
		if err := vtk.WriteVTU(path, g, data); err != nil {
			return "", fmt.Errorf("grid %s: %w", g.Name, err)
		}
		entries = append(entries, vtk.Entry{Part: i, File: path})
		meta.Grids = append(meta.Grids, GridInfo{Name: g.Name, Dim: g.Dim, Cells: g.NumCells, Faces: g.NumFaces, File: name})
	}
	for k := range fields {
		meta.Fields = append(meta.Fields, k)
	}
	sort.Strings(meta.Fields)

	if err := vtk.WritePVD(filepath.Join(runDir, Collection), entries); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Solution is the path of the run's PVD collection.
func (s *Store) Solution(runID string) string {
	return filepath.Join(s.baseDir, runID, Collection)
}

// LoadBucket reads the grids of a run back, with their scalar cell arrays
// as fields. Interfaces between grids are not restored.
func (s *Store) LoadBucket(runID string) (*bucket.Bucket, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	gb := bucket.New()
	for _, info := range meta.Grids {
		ds, err := vtk.ReadVTU(filepath.Join(s.baseDir, runID, info.File))
		if err != nil {
			return nil, err
		}
		g, err := vtk.ToGrid(ds)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.File, err)
		}
		g.Name = info.Name
		if err := gb.AddNodes(g); err != nil {
			return nil, err
		}
		d := gb.Data(g)
		for _, arr := range ds.CellData {
			if arr.Components == 1 {
				d.SetField(arr.Name, arr.Values)
			}
		}
	}
	return gb, nil
}
