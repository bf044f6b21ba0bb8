// Package storage persists optimization runs under a data directory: one
// subdirectory per run holding metadata.json, the iteration history as CSV,
// and the final spot diagrams.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/eikonal-bridge/dee/internal/analysis"
	"github.com/eikonal-bridge/dee/internal/optim"
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

// RunMetadata is the summary record of one optimization run.
type RunMetadata struct {
	ID         string             `json:"id"`
	Design     string             `json:"design"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Wavelength float64            `json:"wavelength_um"`
	Backend    string             `json:"backend"`
	Optimizer  string             `json:"optimizer"`
	Variables  int                `json:"variables"`
	InitCost   float64            `json:"initial_cost"`
	FinalCost  float64            `json:"final_cost"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Record is everything Save persists: the metadata plus the optimizer
// history and the final per-field spot diagrams.
type Record struct {
	Meta    RunMetadata
	History *optim.History
	Spots   []*analysis.Spot
}

// Save writes one run directory and returns its ID, <design>_<unix>.
func (s *Store) Save(rec *Record) (string, error) {
	runID := fmt.Sprintf("%s_%d", rec.Meta.Design, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := rec.Meta
	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
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

	if rec.History != nil && rec.History.Len() > 0 {
		if err := writeHistory(filepath.Join(runDir, "history.csv"), rec.History); err != nil {
			return "", err
		}
	}
	if len(rec.Spots) > 0 {
		if err := writeSpots(filepath.Join(runDir, "spots.csv"), rec.Spots); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func writeHistory(path string, h *optim.History) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"iter", "cost", "step"}
	for i := range h.Iterations[0].Params {
		header = append(header, fmt.Sprintf("p%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, it := range h.Iterations {
		row := []string{
			strconv.Itoa(it.N),
			strconv.FormatFloat(it.Cost, 'e', 9, 64),
			strconv.FormatFloat(it.Step, 'e', 9, 64),
		}
		for _, v := range it.Params {
			row = append(row, strconv.FormatFloat(v, 'e', 9, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeSpots(path string, spots []*analysis.Spot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"field_deg", "dx_mm", "dy_mm"}); err != nil {
		return err
	}
	for _, sp := range spots {
		for i := range sp.X {
			row := []string{
				strconv.FormatFloat(sp.AngleDeg, 'f', 4, 64),
				strconv.FormatFloat(sp.X[i], 'e', 9, 64),
				strconv.FormatFloat(sp.Y[i], 'e', 9, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns metadata for every run under the data directory. A missing
// directory is an empty list, not an error.
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadHistory reads the iteration history back: cost per iteration plus
// the parameter snapshots.
func (s *Store) LoadHistory(runID string) (costs []float64, params [][]float64, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "history.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, nil
	}

	for _, rec := range records[1:] {
		if len(rec) < 3 {
			continue
		}
		cost, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		costs = append(costs, cost)

		p := make([]float64, 0, len(rec)-3)
		for _, field := range rec[3:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				break
			}
			p = append(p, v)
		}
		params = append(params, p)
	}
	return costs, params, nil
}

// ExportJSON streams one run as a single JSON document: metadata plus the
// history, for piping into other tools.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	costs, params, err := s.LoadHistory(runID)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	doc := struct {
		RunMetadata
		Costs  []float64   `json:"costs,omitempty"`
		Params [][]float64 `json:"params,omitempty"`
	}{RunMetadata: *meta, Costs: costs, Params: params}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
