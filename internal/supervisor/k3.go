package supervisor

import (
	"math"

	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/robot"
)

type Goal struct {
	X float64 `param:"x,label=X,min=-10,max=10,step=0.05"`
	Y float64 `param:"y,label=Y,min=-10,max=10,step=0.05"`
}

// K3Params are the editable parameters of the K3 supervisor.
type K3Params struct {
	Goal     Goal    `param:"goal,label=Goal"`
	Velocity float64 `param:"velocity,label=Velocity,min=0,max=0.3,step=0.01"`
	// AvoidDistance triggers obstacle avoidance; SafeDistance ends it.
	AvoidDistance float64       `param:"avoid_distance,label=Avoid below,min=0,max=0.2,step=0.005"`
	SafeDistance  float64       `param:"safe_distance,label=Safe above,min=0,max=0.2,step=0.005"`
	GoalTolerance float64       `param:"tolerance,label=Goal tolerance,min=0.001,max=1,step=0.01"`
	GoToGoal      control.Gains `param:"pid,id=gotogoal,label=Go-to-goal PID"`
	Avoid         control.Gains `param:"pid,id=avoid,label=Avoid-obstacles PID"`
}

func DefaultK3Params() K3Params {
	return K3Params{
		Goal:          Goal{X: 1, Y: 1},
		Velocity:      0.2,
		AvoidDistance: 0.06,
		SafeDistance:  0.1,
		GoalTolerance: 0.05,
		GoToGoal:      control.Gains{Kp: 3, Ki: 0.01, Kd: 0.01},
		Avoid:         control.Gains{Kp: 4, Ki: 0.01, Kd: 0.01},
	}
}

// K3State is what the K3 supervisor derives from the robot each tick.
type K3State struct {
	Pose     geom.Pose
	Readings []control.Reading
	// Nearest is the shortest proximity reading.
	Nearest    float64
	GoalDist   float64
	Odometry   Odometry
	Parameters K3Params
}

type k3Hooks struct{}

func (k3Hooks) ProcessStateInfo(info robot.Info, d *K3State) error {
	d.Pose = d.Odometry.Update(info.Wheels)

	d.Readings = d.Readings[:0]
	d.Nearest = info.IR.MaxRange
	for i, dist := range info.IR.Readings {
		d.Readings = append(d.Readings, control.Reading{
			Mount:    info.IR.Poses[i],
			Distance: dist,
			MaxRange: info.IR.MaxRange,
		})
		d.Nearest = math.Min(d.Nearest, dist)
	}

	g := geom.Point{X: d.Parameters.Goal.X, Y: d.Parameters.Goal.Y}
	d.GoalDist = g.Dist(d.Pose.Position())
	return nil
}

func (k3Hooks) ControllerInput(d *K3State) (control.Input, error) {
	return control.Input{
		Pose:     d.Pose,
		Goal:     geom.Point{X: d.Parameters.Goal.X, Y: d.Parameters.Goal.Y},
		Velocity: d.Parameters.Velocity,
		Readings: d.Readings,
	}, nil
}

// K3 drives a Khepera III robot to a goal, switching to obstacle avoidance
// when a proximity sensor reports something close and stopping at the goal.
// Its pose estimate comes from wheel odometry only.
type K3 struct {
	engine *Engine[robot.Info, K3State, control.Input, control.Unicycle]
	wheels robot.Wheels
	gtg    *control.GoToGoal
	avoid  *control.AvoidObstacles
}

func NewK3(start geom.Pose, wheels robot.Wheels, p K3Params) *K3 {
	initial := K3State{
		Pose:       start,
		Odometry:   Odometry{Pose: start},
		Parameters: p,
	}
	s := &K3{
		engine: NewEngine[robot.Info, K3State, control.Input, control.Unicycle](k3Hooks{}, initial),
		wheels: wheels,
		gtg:    control.NewGoToGoal(p.GoToGoal),
		avoid:  control.NewAvoidObstacles(p.Avoid),
	}

	gtg := s.engine.AddState(s.gtg)
	avoid := s.engine.AddState(s.avoid)
	stop := s.engine.AddState(control.NewStop[control.Input]())

	atGoal := func(d K3State) bool { return d.GoalDist < d.Parameters.GoalTolerance }
	blocked := func(d K3State) bool { return d.Nearest < d.Parameters.AvoidDistance }
	safe := func(d K3State) bool { return d.Nearest > d.Parameters.SafeDistance }
	awayFromGoal := func(d K3State) bool { return !atGoal(d) }

	must(s.engine.AddTransition(gtg, atGoal, stop))
	must(s.engine.AddTransition(gtg, blocked, avoid))
	must(s.engine.AddTransition(avoid, atGoal, stop))
	must(s.engine.AddTransition(avoid, safe, gtg))
	must(s.engine.AddTransition(stop, awayFromGoal, gtg))
	return s
}

// Execute runs one tick and converts the controller's unicycle command into
// wheel speeds.
func (s *K3) Execute(info robot.Info, dt float64) (robot.WheelSpeeds, error) {
	u, err := s.engine.Execute(info, dt)
	if err != nil {
		return robot.WheelSpeeds{}, err
	}
	return s.wheels.FromUnicycle(u), nil
}

func (s *K3) State() string { return s.engine.Current().Name() }

func (s *K3) OnTransition(fn func(from, to string)) { s.engine.OnTransition = fn }

func (s *K3) Estimate() geom.Pose { return s.engine.derived.Pose }

func (s *K3) UIDescription() *params.Node {
	return mustDescribe(&s.engine.derived.Parameters)
}

func (s *K3) Parameters() *params.Node { return s.UIDescription() }

// SetParameters applies a full or partial parameter tree. On error nothing changes.
func (s *K3) SetParameters(patch *params.Node) error {
	p := s.engine.derived.Parameters
	if err := params.Decode(patch, &p); err != nil {
		return err
	}
	if err := p.GoToGoal.Validate(); err != nil {
		return err
	}
	if err := p.Avoid.Validate(); err != nil {
		return err
	}
	s.gtg.SetParameters(p.GoToGoal)
	s.avoid.SetParameters(p.Avoid)
	s.engine.derived.Parameters = p
	return nil
}

// Draw marks the goal and the odometry pose estimate.
func (s *K3) Draw(r render.Renderer) {
	d := s.engine.derived
	r.ResetPose()
	r.SetPen(render.Red)
	r.DrawEllipse(d.Parameters.Goal.X, d.Parameters.Goal.Y, 0.02, 0.02)
	r.SetPose(d.Pose)
	r.SetPen(render.Green)
	r.DrawLine(0, 0, 0.08, 0)
}

// must panics on errors that can only come from wiring a supervisor wrongly.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustDescribe(v any) *params.Node {
	tree, err := params.Describe(v)
	must(err)
	return tree
}
