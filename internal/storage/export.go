package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportData is a self-contained view of a run for external plotting.
type ExportData struct {
	Run      RunMetadata     `json:"run"`
	Segments []SegmentRecord `json:"segments,omitempty"`
}

func ExportJSON(path string, meta RunMetadata, segs []SegmentRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, segs)
}

func WriteJSON(w io.Writer, meta RunMetadata, segs []SegmentRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Segments: segs})
}
