// Package registry maps robot and supervisor identifiers to constructors and
// assembles runnable simulations from configuration.
package registry

import (
	"fmt"
	"sort"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/robot"
	"github.com/san-kum/robosim/internal/sensor"
	"github.com/san-kum/robosim/internal/sim"
	"github.com/san-kum/robosim/internal/supervisor"
	"github.com/san-kum/robosim/internal/world"
)

// family holds the constructors of robots and supervisors sharing an info
// type I and command type C; only members of one family can be bound.
type family[I any, C sim.Command] struct {
	name        string
	robots      map[string]func(pose geom.Pose) sim.Robot[I, C]
	supervisors map[string]func(start geom.Pose, info I) sim.Supervisor[I, C]
}

func (f *family[I, C]) kind() string { return f.name }

func (f *family[I, C]) hasRobot(name string) bool {
	_, ok := f.robots[name]
	return ok
}

func (f *family[I, C]) hasSupervisor(name string) bool {
	_, ok := f.supervisors[name]
	return ok
}

func (f *family[I, C]) bind(rc config.RobotConfig) (*sim.Agent, []sensor.Sensor) {
	r := f.robots[rc.Type](rc.Pose)
	s := f.supervisors[rc.Supervisor](rc.Pose, r.Info())
	return sim.Bind[I, C](rc.Name, r, s), r.ExternalSensors()
}

func (f *family[I, C]) names() (robots, supervisors []string) {
	for n := range f.robots {
		robots = append(robots, n)
	}
	for n := range f.supervisors {
		supervisors = append(supervisors, n)
	}
	return robots, supervisors
}

type binder interface {
	kind() string
	hasRobot(name string) bool
	hasSupervisor(name string) bool
	bind(rc config.RobotConfig) (*sim.Agent, []sensor.Sensor)
	names() (robots, supervisors []string)
}

type Registry struct {
	families []binder
}

func NewRegistry() *Registry {
	diff := &family[robot.Info, robot.WheelSpeeds]{
		name: "differential drive",
		robots: map[string]func(geom.Pose) sim.Robot[robot.Info, robot.WheelSpeeds]{
			"khepera3": func(p geom.Pose) sim.Robot[robot.Info, robot.WheelSpeeds] { return robot.NewKhepera3(p) },
		},
		supervisors: map[string]func(geom.Pose, robot.Info) sim.Supervisor[robot.Info, robot.WheelSpeeds]{
			"k3": func(start geom.Pose, info robot.Info) sim.Supervisor[robot.Info, robot.WheelSpeeds] {
				return supervisor.NewK3(start, info.Wheels.Wheels, supervisor.DefaultK3Params())
			},
		},
	}

	uni := &family[robot.UnicycleInfo, control.Unicycle]{
		name: "unicycle",
		robots: map[string]func(geom.Pose) sim.Robot[robot.UnicycleInfo, control.Unicycle]{
			"unicycle": func(p geom.Pose) sim.Robot[robot.UnicycleInfo, control.Unicycle] {
				return robot.NewUnicycle(p, 0.05, 0.5, 3)
			},
		},
		supervisors: map[string]func(geom.Pose, robot.UnicycleInfo) sim.Supervisor[robot.UnicycleInfo, control.Unicycle]{
			"constant": func(geom.Pose, robot.UnicycleInfo) sim.Supervisor[robot.UnicycleInfo, control.Unicycle] {
				return supervisor.NewConstant(control.ConstantParams{V: 0.2, W: 0.5})
			},
		},
	}

	return &Registry{families: []binder{diff, uni}}
}

// NewAgent constructs the robot and supervisor named by rc and binds them.
// Parameters from rc are not applied.
func (r *Registry) NewAgent(rc config.RobotConfig) (*sim.Agent, []sensor.Sensor, error) {
	for _, f := range r.families {
		if !f.hasRobot(rc.Type) {
			continue
		}
		if !f.hasSupervisor(rc.Supervisor) {
			if r.knownSupervisor(rc.Supervisor) {
				return nil, nil, fmt.Errorf("supervisor %s cannot drive %s robot %s", rc.Supervisor, f.kind(), rc.Type)
			}
			return nil, nil, fmt.Errorf("unknown supervisor: %s", rc.Supervisor)
		}
		a, sensors := f.bind(rc)
		return a, sensors, nil
	}
	return nil, nil, fmt.Errorf("unknown robot: %s", rc.Type)
}

func (r *Registry) knownSupervisor(name string) bool {
	for _, f := range r.families {
		if f.hasSupervisor(name) {
			return true
		}
	}
	return false
}

func (r *Registry) ListRobots() []string {
	var names []string
	for _, f := range r.families {
		robots, _ := f.names()
		names = append(names, robots...)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSupervisors() []string {
	var names []string
	for _, f := range r.families {
		_, sups := f.names()
		names = append(names, sups...)
	}
	sort.Strings(names)
	return names
}

// Describe returns the parameter description of the supervisor rc selects,
// with rc's parameters applied.
func (r *Registry) Describe(rc config.RobotConfig) (*params.Node, error) {
	a, _, err := r.NewAgent(rc)
	if err != nil {
		return nil, err
	}
	patches, err := robotParams(rc, a.Parameters())
	if err != nil {
		return nil, err
	}
	for _, p := range patches {
		if err := a.Configure(p); err != nil {
			return nil, err
		}
	}
	return a.Parameters(), nil
}

// robotParams loads the inline and file parameter trees of rc, in that order.
func robotParams(rc config.RobotConfig, desc *params.Node) ([]*params.Node, error) {
	var out []*params.Node
	if rc.Params.Kind != 0 {
		tree, err := params.FromYAML(&rc.Params)
		if err != nil {
			return nil, fmt.Errorf("robot %s params: %w", rc.Name, err)
		}
		out = append(out, tree)
	}
	if rc.ParamsFile != "" {
		tree, err := params.LoadFile(rc.ParamsFile, desc)
		if err != nil {
			return nil, fmt.Errorf("robot %s: %w", rc.Name, err)
		}
		out = append(out, tree)
	}
	return out, nil
}

// Builder validates cfg and returns a builder that constructs its world and
// agents from scratch on every call. Every parameter tree is loaded and
// checked here, so the builder itself only fails on programming errors.
func (r *Registry) Builder(cfg *config.Config) (sim.Builder, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	patches := make([][]*params.Node, len(cfg.Robots))
	for i, rc := range cfg.Robots {
		a, _, err := r.NewAgent(rc)
		if err != nil {
			return nil, fmt.Errorf("robot %s: %w", rc.Name, err)
		}
		ps, err := robotParams(rc, a.Parameters())
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			if err := a.Configure(p); err != nil {
				return nil, fmt.Errorf("robot %s: %w", rc.Name, err)
			}
		}
		patches[i] = ps
	}

	obstacles := make([]world.Obstacle, len(cfg.Obstacles))
	for i, o := range cfg.Obstacles {
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("obstacle%d", i+1)
		}
		obstacles[i] = world.Obstacle{Name: name, Shape: o.Shape()}
	}

	return func() (*world.World, []*sim.Agent, error) {
		agents := make([]*sim.Agent, len(cfg.Robots))
		for i, rc := range cfg.Robots {
			a, sensors, err := r.NewAgent(rc)
			if err != nil {
				return nil, nil, err
			}
			for _, p := range patches[i] {
				if err := a.Configure(p); err != nil {
					return nil, nil, err
				}
			}
			if cfg.SensorNoise > 0 {
				for j, s := range sensors {
					if p, ok := s.(*sensor.Proximity); ok {
						p.WithNoise(cfg.SensorNoise, cfg.Seed+int64(100*i+j))
					}
				}
			}
			agents[i] = a
		}
		return world.New(obstacles...), agents, nil
	}, nil
}

// SimConfig extracts the driver settings from cfg.
func SimConfig(cfg *config.Config) sim.Config {
	return sim.Config{Dt: cfg.Dt, Duration: cfg.Duration, StopOnCollision: cfg.StopOnCollision}
}
