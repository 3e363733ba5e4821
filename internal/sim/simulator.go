package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/world"
)

// Simulator advances a world and its agents in fixed, strictly sequenced ticks.
type Simulator struct {
	cfg   Config
	build Builder
	// mu guards world and agents against readers outside the stepping
	// goroutine; Reset is their only writer.
	mu        sync.RWMutex
	world     *world.World
	agents    []*Agent
	tick      int
	time      float64
	metrics   []Metric
	observers []Observer
	tickErrs  []error

	resetRequested atomic.Bool
}

func New(cfg Config, build Builder) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	s := &Simulator{cfg: cfg, build: build}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %f", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Config() Config { return s.cfg }
func (s *Simulator) World() *world.World {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

func (s *Simulator) Agents() []*Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Agent(nil), s.agents...)
}
func (s *Simulator) Time() float64  { return s.time }
func (s *Simulator) TickCount() int { return s.tick }

// Agent returns the agent with the given name, or nil. Safe from any goroutine.
func (s *Simulator) Agent(name string) *Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agents {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Reset discards the world and every agent and rebuilds them from scratch.
func (s *Simulator) Reset() error {
	w, agents, err := s.build()
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	s.mu.Lock()
	s.world, s.agents = w, agents
	s.mu.Unlock()
	s.tick, s.time = 0, 0
	for _, a := range s.agents {
		s.world.UpdateSensors(a.Pose(), a.p.sensors())
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	logrus.Debugf("world built with %d robots and %d obstacles", len(agents), len(w.Obstacles))
	return nil
}

// TickErrors returns the agent failures of the last Step as *TickError values.
func (s *Simulator) TickErrors() []error { return s.tickErrs }

// RequestReset asks for a Reset before the next tick. Safe from any goroutine.
func (s *Simulator) RequestReset() { s.resetRequested.Store(true) }

// Step runs one tick. Staged parameters are applied first; then every agent
// runs info, execute and set-inputs; then every robot moves, sensors refresh
// and collisions are checked. A failing agent pipeline only aborts that
// agent's command for the tick and is reported in the frame. Step returns an
// error only for collisions when StopOnCollision is set.
func (s *Simulator) Step() (Frame, error) {
	if s.resetRequested.Swap(false) {
		if err := s.Reset(); err != nil {
			return Frame{}, err
		}
	}

	dt := s.cfg.Dt
	s.tickErrs = nil
	frame := Frame{Robots: make([]RobotFrame, len(s.agents))}

	for i, a := range s.agents {
		for _, err := range a.applyStaged() {
			logrus.Warnf("[tick %07d] %s: parameter update rejected: %v", s.tick, a.Name(), err)
		}

		rf := &frame.Robots[i]
		rf.Name = a.Name()
		before := a.p.state()
		if err := a.p.tick(dt); err != nil {
			terr := &TickError{Robot: a.Name(), Tick: s.tick, Time: s.time, Wrapped: err}
			logrus.Warn(terr)
			s.tickErrs = append(s.tickErrs, terr)
			rf.Error = err.Error()
		}
		rf.State = a.p.state()
		if rf.State != before {
			rf.PrevState = before
			logrus.Debugf("[tick %07d] %s: %s -> %s", s.tick, a.Name(), before, rf.State)
		}
		rf.Command = a.p.command()
	}

	for _, a := range s.agents {
		a.p.move(dt)
	}
	s.tick++
	s.time += dt
	frame.Tick, frame.Time = s.tick, s.time

	var collided []string
	for i, a := range s.agents {
		s.world.UpdateSensors(a.Pose(), a.p.sensors())
		frame.Robots[i].Pose = a.Pose()
		if o, hit := s.world.Collision(a.p.envelope(), a.Pose()); hit {
			frame.Robots[i].Collided = true
			collided = append(collided, a.Name())
			logrus.Warnf("[tick %07d] %s collided with %q at (%.3f, %.3f)", s.tick, a.Name(), o.Name, a.Pose().X, a.Pose().Y)
		}
	}

	for _, m := range s.metrics {
		m.Observe(frame)
	}
	for _, o := range s.observers {
		o.OnFrame(frame)
	}

	if len(collided) > 0 && s.cfg.StopOnCollision {
		return frame, fmt.Errorf("%w: %v", ErrCollision, collided)
	}
	return frame, nil
}

// Run steps until the configured duration elapses, ctx is done, or a
// collision stops the run.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	steps := int(math.Round(s.cfg.Duration / s.cfg.Dt))
	result := &Result{
		Frames:  make([]Frame, 0, steps),
		Metrics: make(map[string]float64),
	}

	var runErr error
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		frame, err := s.Step()
		result.Frames = append(result.Frames, frame)
		result.Ticks++
		for _, rf := range frame.Robots {
			if rf.Collided {
				result.Collisions++
			}
		}
		result.Errors = append(result.Errors, s.tickErrs...)
		if err != nil {
			runErr = err
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	logrus.Infof("run finished: %d ticks, t=%.2fs, %d errors, %d collisions", result.Ticks, s.time, len(result.Errors), result.Collisions)
	return result, runErr
}

// Draw renders the world and then every agent.
func (s *Simulator) Draw(r render.Renderer) {
	s.world.Draw(r)
	for _, a := range s.agents {
		a.Draw(r)
	}
}
