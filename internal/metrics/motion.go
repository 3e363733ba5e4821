package metrics

import (
	"math"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/sim"
)

// Distance is the total path length driven by all robots.
type Distance struct {
	last  map[string]geom.Point
	total float64
}

func NewDistance() *Distance {
	return &Distance{last: make(map[string]geom.Point)}
}

func (d *Distance) Name() string { return "distance" }

func (d *Distance) Observe(f sim.Frame) {
	for _, r := range f.Robots {
		p := r.Pose.Position()
		if prev, ok := d.last[r.Name]; ok {
			d.total += prev.Dist(p)
		}
		d.last[r.Name] = p
	}
}

func (d *Distance) Value() float64 { return d.total }

func (d *Distance) Reset() {
	clear(d.last)
	d.total = 0
}

// GoalDistance is the distance between one robot and a goal point in the
// latest frame, or +Inf before the robot has been seen.
type GoalDistance struct {
	robot string
	goal  geom.Point
	dist  float64
}

func NewGoalDistance(robot string, goal geom.Point) *GoalDistance {
	return &GoalDistance{robot: robot, goal: goal, dist: math.Inf(1)}
}

func (g *GoalDistance) Name() string  { return "goal_distance" }
func (g *GoalDistance) Robot() string { return g.robot }

func (g *GoalDistance) Observe(f sim.Frame) {
	for _, r := range f.Robots {
		if r.Name == g.robot {
			g.dist = g.goal.Dist(r.Pose.Position())
		}
	}
}

func (g *GoalDistance) Value() float64 { return g.dist }
func (g *GoalDistance) Reset()         { g.dist = math.Inf(1) }

// Transitions counts supervisor state switches across all robots.
type Transitions struct {
	n int
}

func NewTransitions() *Transitions { return &Transitions{} }

func (t *Transitions) Name() string { return "transitions" }

func (t *Transitions) Observe(f sim.Frame) {
	for _, r := range f.Robots {
		if r.PrevState != "" {
			t.n++
		}
	}
}

func (t *Transitions) Value() float64 { return float64(t.n) }
func (t *Transitions) Reset()         { t.n = 0 }

// Defaults returns the metric set recorded for every run.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewControlEffort(),
		NewCollisionFree(),
		NewDistance(),
		NewTransitions(),
	}
}
