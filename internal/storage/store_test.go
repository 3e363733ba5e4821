package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Frames: []sim.Frame{
			{Tick: 1, Time: 0.02, Robots: []sim.RobotFrame{
				{Name: "k3", Pose: geom.Pose{X: 0.01}, State: "go-to-goal", Command: []float64{1.5, 1.5}},
				{Name: "drifter", Pose: geom.Pose{Y: 0.5}, State: "constant", Command: []float64{0.2, 0.5}},
			}},
			{Tick: 2, Time: 0.04, Robots: []sim.RobotFrame{
				{Name: "k3", Pose: geom.Pose{X: 0.02, Theta: 0.1}, State: "avoid-obstacles", Command: []float64{1, 2}},
				{Name: "drifter", Pose: geom.Pose{Y: 0.51}, State: "constant", Command: []float64{0.2, 0.5}},
			}},
		},
		Metrics:    map[string]float64{"distance": 0.03},
		Collisions: 1,
		Ticks:      2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{World: "wall", Seed: 42, Dt: 0.02, Duration: 0.04, Robots: []string{"k3", "drifter"}}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", runID, err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.World != "wall" || meta.Seed != 42 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Ticks != 2 || meta.Collisions != 1 {
		t.Errorf("expected 2 ticks and 1 collision, got %d and %d", meta.Ticks, meta.Collisions)
	}
	if meta.Metrics["distance"] != 0.03 {
		t.Errorf("expected distance metric 0.03, got %v", meta.Metrics["distance"])
	}
	if meta.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestStoreTrajectory(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{World: "wall"}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	all, err := st.LoadTrajectory(runID, "")
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(all))
	}

	k3, err := st.LoadTrajectory(runID, "k3")
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if len(k3) != 2 {
		t.Fatalf("expected 2 k3 samples, got %d", len(k3))
	}
	last := k3[1]
	if last.Tick != 2 || last.State != "avoid-obstacles" {
		t.Errorf("unexpected sample %+v", last)
	}
	if last.Pose.X != 0.02 || last.Pose.Theta != 0.1 {
		t.Errorf("unexpected pose %+v", last.Pose)
	}
	if last.Command[0] != 1 || last.Command[1] != 2 {
		t.Errorf("unexpected command %v", last.Command)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(RunMetadata{World: "empty"}, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "stray"), 0755); err != nil {
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

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	tests := []string{"nope", uuid.NewString()}
	for _, id := range tests {
		if _, err := st.Load(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Load(%q): expected ErrRunNotFound, got %v", id, err)
		}
		if _, err := st.LoadTrajectory(id, ""); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("LoadTrajectory(%q): expected ErrRunNotFound, got %v", id, err)
		}
	}
}
