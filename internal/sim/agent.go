package sim

import (
	"fmt"
	"sync"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/sensor"
)

type pipeline interface {
	tick(dt float64) error
	move(dt float64)
	pose() geom.Pose
	sensors() []sensor.Sensor
	envelope() geom.Polygon
	state() string
	command() []float64
	parameters() *params.Node
	setParameters(patch *params.Node) error
	draw(r render.Renderer)
}

type binding[I any, C Command] struct {
	robot Robot[I, C]
	sup   Supervisor[I, C]
	last  C
}

func (b *binding[I, C]) tick(dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSupervisorPanic, r)
		}
	}()
	cmd, err := b.sup.Execute(b.robot.Info(), dt)
	if err != nil {
		return err
	}
	if err := b.robot.SetInputs(cmd); err != nil {
		return err
	}
	b.last = cmd
	return nil
}

func (b *binding[I, C]) move(dt float64)                    { b.robot.Move(dt) }
func (b *binding[I, C]) pose() geom.Pose                    { return b.robot.Pose() }
func (b *binding[I, C]) sensors() []sensor.Sensor           { return b.robot.ExternalSensors() }
func (b *binding[I, C]) envelope() geom.Polygon             { return b.robot.Envelope() }
func (b *binding[I, C]) state() string                      { return b.sup.State() }
func (b *binding[I, C]) parameters() *params.Node           { return b.sup.Parameters() }
func (b *binding[I, C]) setParameters(p *params.Node) error { return b.sup.SetParameters(p) }

func (b *binding[I, C]) command() []float64 { return b.last.Vector() }

func (b *binding[I, C]) draw(r render.Renderer) {
	b.robot.Draw(r)
	b.robot.DrawSensors(r)
	b.sup.Draw(r)
	r.ResetPose()
}

type stagedEdit struct {
	patch *params.Node
	done  chan error
}

// Agent is a robot bound to its supervisor. Only the simulation loop drives
// it; Stage and Parameters may be called from any goroutine.
type Agent struct {
	name string
	p    pipeline

	mu       sync.Mutex
	staged   []stagedEdit
	snapshot *params.Node
}

// Bind pairs a robot with a supervisor of the same family.
func Bind[I any, C Command](name string, r Robot[I, C], s Supervisor[I, C]) *Agent {
	return &Agent{
		name:     name,
		p:        &binding[I, C]{robot: r, sup: s},
		snapshot: s.UIDescription(),
	}
}

func (a *Agent) Name() string { return a.name }

func (a *Agent) Pose() geom.Pose { return a.p.pose() }

// Parameters returns a copy of the supervisor's parameter tree as of the last
// tick boundary.
func (a *Agent) Parameters() *params.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.Clone()
}

// Stage queues a full or partial parameter tree for the next tick boundary.
// The returned channel receives the outcome once it has been applied.
func (a *Agent) Stage(patch *params.Node) <-chan error {
	done := make(chan error, 1)
	a.mu.Lock()
	a.staged = append(a.staged, stagedEdit{patch: patch, done: done})
	a.mu.Unlock()
	return done
}

// Unstage drops the edit behind done if it is still queued. It reports false
// once the edit has been taken for application; its outcome then arrives on done.
func (a *Agent) Unstage(done <-chan error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.staged {
		if e.done == done {
			a.staged = append(a.staged[:i], a.staged[i+1:]...)
			return true
		}
	}
	return false
}

// Configure applies patch immediately. It is meant for setting up an agent
// before any simulator steps it.
func (a *Agent) Configure(patch *params.Node) error {
	if err := a.p.setParameters(patch); err != nil {
		return err
	}
	snap := a.p.parameters()
	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()
	return nil
}

// applyStaged applies queued edits in arrival order; a rejected edit leaves
// the parameters as they were and does not block later ones.
func (a *Agent) applyStaged() []error {
	a.mu.Lock()
	edits := a.staged
	a.staged = nil
	a.mu.Unlock()
	if len(edits) == 0 {
		return nil
	}

	var errs []error
	for _, e := range edits {
		err := a.p.setParameters(e.patch)
		if err != nil {
			errs = append(errs, err)
		}
		e.done <- err
	}

	snap := a.p.parameters()
	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()
	return errs
}

func (a *Agent) Draw(r render.Renderer) { a.p.draw(r) }
