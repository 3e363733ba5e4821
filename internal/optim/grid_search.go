package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/registry"
	"github.com/san-kum/robosim/internal/sim"
)

// ErrNoCandidates indicates a search in which no parameter combination could be run.
var ErrNoCandidates = errors.New("optim: no runnable parameter combination")

// Axis is one searched parameter: a slash-separated path into the robot's
// parameter tree, e.g. "pid[gotogoal]/kp", and the values to try.
type Axis struct {
	Path   string
	Values []float64
}

// ParseAxis reads "path=v1,v2,..." or "path=start:stop:step".
func ParseAxis(s string) (Axis, error) {
	path, spec, ok := strings.Cut(s, "=")
	if !ok || path == "" || spec == "" {
		return Axis{}, fmt.Errorf("optim: axis %q: want path=values", s)
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		var nums [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return Axis{}, fmt.Errorf("optim: axis %q: %w", s, err)
			}
			nums[i] = v
		}
		start, stop, step := nums[0], nums[1], nums[2]
		if step <= 0 || stop < start {
			return Axis{}, fmt.Errorf("optim: axis %q: empty range", s)
		}
		var values []float64
		for i := 0; ; i++ {
			v := start + float64(i)*step
			if v > stop+step*1e-9 {
				break
			}
			values = append(values, v)
		}
		return Axis{Path: path, Values: values}, nil
	}

	var values []float64
	for _, p := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("optim: axis %q: %w", s, err)
		}
		values = append(values, v)
	}
	return Axis{Path: path, Values: values}, nil
}

type Trial struct {
	Params map[string]float64
	Score  float64
	Result *sim.Result
}

// GridSearch evaluates every combination of axis values for one robot by
// running the whole configured simulation.
type GridSearch struct {
	reg   *registry.Registry
	cfg   *config.Config
	robot string
	axes  []Axis

	// Maximize selects the highest score instead of the lowest.
	Maximize bool
	// Workers bounds the number of concurrent runs.
	Workers int
}

func NewGridSearch(reg *registry.Registry, cfg *config.Config, robot string, axes []Axis) *GridSearch {
	return &GridSearch{reg: reg, cfg: cfg, robot: robot, axes: axes, Workers: runtime.NumCPU()}
}

// Search scores every combination by metricName, computed by the metrics
// from newMetrics. Combinations the supervisor rejects are skipped. All
// runnable trials are returned in enumeration order.
func (g *GridSearch) Search(ctx context.Context, metricName string, newMetrics func() []sim.Metric) (*Trial, []Trial, error) {
	rc, err := g.cfg.Robot(g.robot)
	if err != nil {
		return nil, nil, err
	}
	base, err := g.reg.Describe(*rc)
	if err != nil {
		return nil, nil, err
	}
	for _, ax := range g.axes {
		leaf, err := base.Lookup(ax.Path)
		if err != nil {
			return nil, nil, err
		}
		if leaf.Kind != params.KindFloat && leaf.Kind != params.KindInt {
			return nil, nil, fmt.Errorf("%w: %s is %s", params.ErrParameterKind, ax.Path, leaf.Kind)
		}
		if len(ax.Values) == 0 {
			return nil, nil, fmt.Errorf("optim: axis %s has no values", ax.Path)
		}
	}

	var combos []map[string]float64
	g.searchRecursive(0, make(map[string]float64), &combos)

	var (
		trials   []Trial
		builders []sim.Builder
	)
	for _, combo := range combos {
		build, err := g.builder(base, combo)
		if err != nil {
			logrus.Debugf("optim: skipping %v: %v", combo, err)
			continue
		}
		trials = append(trials, Trial{Params: combo})
		builders = append(builders, build)
	}
	if len(trials) == 0 {
		return nil, nil, ErrNoCandidates
	}

	workers := g.Workers
	if workers < 1 {
		workers = 1
	}
	simCfg := registry.SimConfig(g.cfg)
	for start := 0; start < len(builders); start += workers {
		end := min(start+workers, len(builders))
		results, err := sim.NewBatch(simCfg, builders[start:end], newMetrics).Run(ctx)
		if err != nil {
			return nil, nil, err
		}
		for i, res := range results {
			val, ok := res.Metrics[metricName]
			if !ok {
				return nil, nil, fmt.Errorf("optim: metric %q not computed", metricName)
			}
			trials[start+i].Score = val
			trials[start+i].Result = res
		}
	}

	best := 0
	for i := range trials {
		if g.better(trials[i].Score, trials[best].Score) {
			best = i
		}
	}
	return &trials[best], trials, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if math.IsNaN(b) {
		return !math.IsNaN(a)
	}
	if g.Maximize {
		return a > b
	}
	return a < b
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		*out = append(*out, current)
		return
	}

	ax := g.axes[depth]
	for _, val := range ax.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[ax.Path] = val
		g.searchRecursive(depth+1, next, out)
	}
}

// builder writes combo into a copy of the robot's full parameter tree and
// embeds it inline in a config copy. The parameter file is dropped since
// base already holds its values.
func (g *GridSearch) builder(base *params.Node, combo map[string]float64) (sim.Builder, error) {
	tree := base.Clone()
	for path, v := range combo {
		leaf, err := tree.Lookup(path)
		if err != nil {
			return nil, err
		}
		if leaf.Kind == params.KindInt && v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: %s needs an integer, got %v", params.ErrParameterKind, path, v)
		}
		leaf.Number = v
	}

	cfg := g.cfg.Clone()
	for i := range cfg.Robots {
		if cfg.Robots[i].Name == g.robot {
			cfg.Robots[i].Params = *params.ToYAML(tree)
			cfg.Robots[i].ParamsFile = ""
		}
	}
	return g.reg.Builder(cfg)
}
