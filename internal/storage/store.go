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

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

// ErrRunNotFound indicates a run id with no stored metadata.
var ErrRunNotFound = errors.New("storage: run not found")

var trajectoryHeader = []string{"tick", "time", "robot", "x", "y", "theta", "state", "u0", "u1"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	World      string             `json:"world"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Robots     []string           `json:"robots"`
	Ticks      int                `json:"ticks"`
	Collisions int                `json:"collisions"`
	Errors     int                `json:"errors"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Sample is one robot's row of a stored trajectory.
type Sample struct {
	Tick    int
	Time    float64
	Robot   string
	Pose    geom.Pose
	State   string
	Command []float64
}

// Save writes the run under a fresh id and returns it.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	meta.ID = uuid.NewString()
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Ticks = result.Ticks
	meta.Collisions = result.Collisions
	meta.Errors = len(result.Errors)
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), result.Frames); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeTrajectory(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(trajectoryHeader); err != nil {
		return err
	}

	for _, fr := range frames {
		for _, r := range fr.Robots {
			row := []string{
				strconv.Itoa(fr.Tick),
				formatFloat(fr.Time),
				r.Name,
				formatFloat(r.Pose.X),
				formatFloat(r.Pose.Y),
				formatFloat(r.Pose.Theta),
				r.State,
				"0", "0",
			}
			for i := 0; i < len(r.Command) && i < 2; i++ {
				row[7+i] = formatFloat(r.Command[i])
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads the samples of a run, optionally restricted to one robot.
func (s *Store) LoadTrajectory(runID, robot string) ([]Sample, error) {
	if _, err := s.Load(runID); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(trajectoryHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		if robot != "" && rec[2] != robot {
			continue
		}
		sm, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", runID, i+2, err)
		}
		samples = append(samples, sm)
	}
	return samples, nil
}

func parseSample(rec []string) (Sample, error) {
	tick, err := strconv.Atoi(rec[0])
	if err != nil {
		return Sample{}, err
	}
	floats := make([]float64, 0, 6)
	for _, idx := range []int{1, 3, 4, 5, 7, 8} {
		v, err := strconv.ParseFloat(rec[idx], 64)
		if err != nil {
			return Sample{}, err
		}
		floats = append(floats, v)
	}
	return Sample{
		Tick:    tick,
		Time:    floats[0],
		Robot:   rec[2],
		Pose:    geom.Pose{X: floats[1], Y: floats[2], Theta: floats[3]},
		State:   rec[6],
		Command: floats[4:6],
	}, nil
}
