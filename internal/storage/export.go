package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportJSON writes the run metadata as indented JSON to path.
func ExportJSON(path string, meta *RunMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta)
}

func WriteJSON(w io.Writer, meta *RunMetadata) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(meta)
}
