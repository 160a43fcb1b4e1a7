package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/robustidx/internal/robust"
	"github.com/san-kum/robustidx/internal/segments"
)

var ErrInvalidRunID = errors.New("storage: invalid run id")

// Store keeps one directory per run under baseDir, holding metadata.json
// and, for segment reductions, segments.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Interval struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type RunMetadata struct {
	ID          string                `json:"id"`
	Command     string                `json:"command"`
	Expr        string                `json:"expr"`
	Vars        []string              `json:"vars"`
	Interval    *Interval             `json:"interval,omitempty"`
	Rect        *segments.Rect        `json:"rect,omitempty"`
	M           int                   `json:"m,omitempty"`
	Search      robust.SearchSettings `json:"search"`
	Timestamp   time.Time             `json:"timestamp"`
	Index       robust.Index          `json:"index"`
	Quasiconvex *bool                 `json:"quasiconvex,omitempty"`
	Error       string                `json:"error,omitempty"`
	Elapsed     float64               `json:"elapsed_seconds"`
	OracleCalls map[string]int64      `json:"oracle_calls,omitempty"`
	Metrics     map[string]float64    `json:"metrics,omitempty"`
}

// SegmentRecord is one row of segments.csv.
type SegmentRecord struct {
	ID        int              `json:"id"`
	Segment   segments.Segment `json:"segment"`
	Length    float64          `json:"length"`
	Index     robust.Index     `json:"index"`
	Evaluated bool             `json:"evaluated"`
	Elapsed   float64          `json:"elapsed_seconds"`
	Error     string           `json:"error,omitempty"`
}

func RecordsFrom(results []segments.SegmentResult) []SegmentRecord {
	out := make([]SegmentRecord, len(results))
	for i, sr := range results {
		out[i] = SegmentRecord{
			ID:        sr.ID,
			Segment:   sr.Segment,
			Length:    sr.Length,
			Index:     sr.Index,
			Evaluated: sr.Evaluated,
			Elapsed:   sr.Elapsed.Seconds(),
		}
		if sr.Err != nil {
			out[i].Error = sr.Err.Error()
		}
	}
	return out
}

var segmentHeader = []string{"id", "ux", "uy", "vx", "vy", "length", "index", "evaluated", "elapsed_seconds", "error"}

// Save writes a run and returns its id. A fresh UUID and timestamp are
// assigned when meta has none. segs may be nil for 1D runs.
func (s *Store) Save(meta RunMetadata, segs []SegmentRecord) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if segs == nil {
		return meta.ID, nil
	}

	csvFile, err := os.Create(filepath.Join(runDir, "segments.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(segmentHeader); err != nil {
		return "", err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range segs {
		row := []string{
			strconv.Itoa(r.ID),
			f(r.Segment.U.X), f(r.Segment.U.Y), f(r.Segment.V.X), f(r.Segment.V.Y),
			f(r.Length),
			r.Index.String(),
			strconv.FormatBool(r.Evaluated),
			f(r.Elapsed),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return meta.ID, w.Error()
}

// List returns all readable runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSegments reads segments.csv of a run. Runs without segments return
// an empty slice.
func (s *Store) LoadSegments(runID string) ([]SegmentRecord, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, "segments.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return []SegmentRecord{}, nil
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(segmentHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []SegmentRecord{}, nil
	}

	out := make([]SegmentRecord, 0, len(records)-1)
	for _, rec := range records[1:] {
		var (
			sr   SegmentRecord
			errs []error
		)
		num := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			errs = append(errs, err)
			return v
		}
		id, err := strconv.Atoi(rec[0])
		errs = append(errs, err)
		sr.ID = id
		sr.Segment.U = segments.Point{X: num(rec[1]), Y: num(rec[2])}
		sr.Segment.V = segments.Point{X: num(rec[3]), Y: num(rec[4])}
		sr.Length = num(rec[5])
		sr.Index, err = robust.ParseIndex(rec[6])
		errs = append(errs, err)
		sr.Evaluated, err = strconv.ParseBool(rec[7])
		errs = append(errs, err)
		sr.Elapsed = num(rec[8])
		sr.Error = rec[9]
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("segment row %s: %w", rec[0], err)
		}
		out = append(out, sr)
	}
	return out, nil
}
