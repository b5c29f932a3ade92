package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightctl/internal/config"
	"github.com/san-kum/flightctl/internal/dynamo"
)

func testResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{1.0, 0.0},
			{0.9, -0.1},
		},
		Controls: []dynamo.Control{
			{-1.0},
		},
		Times: []float64{0.0, 0.01},
		Metrics: map[string]float64{
			"tracking_iae": 1.5,
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Seed = 42
	gain := mat.NewDense(1, 2, []float64{1, 1.7320508})

	runID, err := st.Save(cfg, gain, testResult())
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
	if meta.Model != "double_integrator" {
		t.Errorf("expected model 'double_integrator', got '%s'", meta.Model)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["tracking_iae"] != 1.5 {
		t.Errorf("expected iae 1.5, got %f", meta.Metrics["tracking_iae"])
	}
	if len(meta.Gain) != 1 || meta.Gain[0][1] != 1.7320508 {
		t.Errorf("gain not stored: %v", meta.Gain)
	}

	traj, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(traj.States) != 2 || len(traj.Times) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(traj.States))
	}
	if traj.States[1][1] != -0.1 || traj.Controls[0][0] != -1 {
		t.Errorf("unexpected trajectory %+v", traj)
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Seed != 42 || loaded.Model != cfg.Model {
		t.Errorf("config not stored: %+v", loaded)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	st.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(config.DefaultConfig(), nil, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("runs not ordered by time")
	}
}

func TestStoreRecordsErrors(t *testing.T) {
	st := New(t.TempDir())
	result := testResult()
	result.Errors = []error{&dynamo.SimulationError{Step: 1, Wrapped: dynamo.ErrUnstable}}

	runID, err := st.Save(config.DefaultConfig(), nil, result)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Errors) != 1 {
		t.Errorf("errors not stored: %v", meta.Errors)
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runID, err := st.Save(config.DefaultConfig(), nil, testResult())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"metadata.json", "states.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, runID, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runID, err := st.Save(config.DefaultConfig(), nil, testResult())
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "run.json")
	if err := st.Export(runID, out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var exp ExportData
	if err := json.Unmarshal(data, &exp); err != nil {
		t.Fatal(err)
	}
	if exp.Steps != 2 || len(exp.Controls) != 2 {
		t.Errorf("unexpected export %+v", exp)
	}

	if err := st.Export("missing", out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
