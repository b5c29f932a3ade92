package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/dynamo"
)

// Store keeps one directory per run: metadata.json, states.csv and the
// config.yaml the run was made from.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Metrics    map[string]float64 `json:"metrics"`
	// Gain is the LQR gain K the run was flown with, row major.
	Gain   [][]float64 `json:"gain,omitempty"`
	Errors []string    `json:"errors,omitempty"`
}

// Save writes a run and returns its ID. gain may be nil.
func (s *Store) Save(cfg *config.Config, gain mat.Matrix, result *dynamo.Result) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%s", cfg.Model, ts.Format("20060102T150405.000000000"))
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Model:      cfg.Model,
		Timestamp:  ts,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Metrics:    result.Metrics,
		Gain:       rows(gain),
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	cfgData, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, "config.yaml"), cfgData, 0644); err != nil {
		return "", err
	}

	if err := writeStates(filepath.Join(runDir, "states.csv"), result); err != nil {
		return "", err
	}
	return runID, nil
}

func rows(m mat.Matrix) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(result.States) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}

	numControls := 0
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
		for i := 0; i < numControls; i++ {
			header = append(header, fmt.Sprintf("u%d", i))
		}
	}

	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
		}

		// the last state has no control; the held value is repeated
		for j := 0; j < numControls; j++ {
			k := min(i, len(result.Controls)-1)
			row = append(row, strconv.FormatFloat(result.Controls[k][j], 'g', 10, 64))
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// List returns saved runs, oldest first.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the configuration a run was made from.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, "config.yaml"))
}

// Trajectory is a run read back from states.csv.
type Trajectory struct {
	Times    []float64
	States   []dynamo.State
	Controls []dynamo.Control
}

func (s *Store) LoadStates(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	traj := &Trajectory{}
	if len(records) < 2 {
		return traj, nil
	}

	header := records[0]
	nx := 0
	for _, h := range header[1:] {
		if strings.HasPrefix(h, "x") {
			nx++
		}
	}

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states.csv line %d: %w", i+2, err)
			}
			vals[j] = v
		}
		traj.Times = append(traj.Times, vals[0])
		traj.States = append(traj.States, dynamo.State(vals[1:1+nx]))
		traj.Controls = append(traj.Controls, dynamo.Control(vals[1+nx:]))
	}
	return traj, nil
}

// ExportData is the JSON export of a run.
type ExportData struct {
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Gain       [][]float64        `json:"gain,omitempty"`
	Times      []float64          `json:"times"`
	States     []dynamo.State     `json:"states"`
	Controls   []dynamo.Control   `json:"controls"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Export writes a saved run as one JSON document.
func (s *Store) Export(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	return writeJSON(path, ExportData{
		Model:      meta.Model,
		Integrator: meta.Integrator,
		Controller: meta.Controller,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		Steps:      len(traj.Times),
		Gain:       meta.Gain,
		Times:      traj.Times,
		States:     traj.States,
		Controls:   traj.Controls,
		Metrics:    meta.Metrics,
	})
}
