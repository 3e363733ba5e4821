package supervisor

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/robot"
)

func unicycleInfo(x float64) robot.UnicycleInfo {
	return robot.UnicycleInfo{Pose: geom.Pose{X: x}}
}

func k3Info(readings ...float64) robot.Info {
	ir := robot.IRInfo{
		Poses:    robot.K3SensorPoses,
		Readings: make([]float64, len(robot.K3SensorPoses)),
		MinRange: 0.02,
		MaxRange: 0.2,
	}
	for i := range ir.Readings {
		ir.Readings[i] = ir.MaxRange
	}
	copy(ir.Readings, readings)
	return robot.Info{Wheels: robot.WheelInfo{Wheels: robot.K3Wheels}, IR: ir}
}

func TestK3ReachesGoal(t *testing.T) {
	p := DefaultK3Params()
	p.Goal = Goal{X: 0.3, Y: 0.2}
	bot := robot.NewKhepera3(geom.Pose{})
	sup := NewK3(bot.Pose(), robot.K3Wheels, p)

	const dt = 0.01
	for i := 0; i < 1000 && sup.State() != "stop"; i++ {
		cmd, err := sup.Execute(bot.Info(), dt)
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if err := bot.SetInputs(cmd); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		bot.Move(dt)
	}

	if sup.State() != "stop" {
		t.Fatalf("state = %s after 10s, robot at %+v", sup.State(), bot.Pose())
	}
	goal := geom.Point{X: 0.3, Y: 0.2}
	if d := goal.Dist(bot.Pose().Position()); d > 2*p.GoalTolerance {
		t.Errorf("stopped %.3f m from goal", d)
	}
	if d := sup.Estimate().Position().Dist(bot.Pose().Position()); d > 0.01 {
		t.Errorf("odometry drifted %.4f m", d)
	}
}

func TestK3AvoidsCloseObstacle(t *testing.T) {
	sup := NewK3(geom.Pose{}, robot.K3Wheels, DefaultK3Params())

	var switches []string
	sup.OnTransition(func(from, to string) { switches = append(switches, from+"->"+to) })

	if _, err := sup.Execute(k3Info(), 0.01); err != nil {
		t.Fatal(err)
	}
	if got := sup.State(); got != "go-to-goal" {
		t.Fatalf("state = %s, want go-to-goal", got)
	}

	// front-left sensor sees something 3cm away
	if _, err := sup.Execute(k3Info(0.2, 0.2, 0.03), 0.01); err != nil {
		t.Fatal(err)
	}
	if got := sup.State(); got != "avoid-obstacles" {
		t.Fatalf("state = %s, want avoid-obstacles", got)
	}

	// between the thresholds: keep avoiding
	sup.Execute(k3Info(0.2, 0.2, 0.08), 0.01)
	if got := sup.State(); got != "avoid-obstacles" {
		t.Errorf("state = %s inside hysteresis band", got)
	}

	sup.Execute(k3Info(), 0.01)
	if got := sup.State(); got != "go-to-goal" {
		t.Errorf("state = %s, want go-to-goal once clear", got)
	}
	want := []string{"go-to-goal->avoid-obstacles", "avoid-obstacles->go-to-goal"}
	if len(switches) != len(want) || switches[0] != want[0] || switches[1] != want[1] {
		t.Errorf("transitions = %v, want %v", switches, want)
	}
}

func TestK3PartialParameters(t *testing.T) {
	sup := NewK3(geom.Pose{}, robot.K3Wheels, DefaultK3Params())

	patch := params.Group("", params.Group("pid", params.Float("kp", 7)).WithID("avoid"))
	if err := sup.SetParameters(patch); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	tree := sup.Parameters()
	if n, _ := tree.Lookup("pid[avoid]/kp"); n == nil || n.Number != 7 {
		t.Errorf("pid[avoid]/kp = %+v, want 7", n)
	}
	if n, _ := tree.Lookup("pid[gotogoal]/kp"); n == nil || n.Number != DefaultK3Params().GoToGoal.Kp {
		t.Errorf("pid[gotogoal]/kp changed: %+v", n)
	}

	before := sup.Parameters().Values()
	bad := params.Group("",
		params.Float("velocity", 0.1),
		params.Group("pid", params.Float("kp", 1)).WithID("follow-wall"),
	)
	if err := sup.SetParameters(bad); !errors.Is(err, params.ErrUnknownParameter) {
		t.Fatalf("unknown group: err = %v", err)
	}
	after := sup.Parameters().Values()
	if after["velocity"] != before["velocity"] {
		t.Errorf("rejected update leaked velocity %v", after["velocity"])
	}
}

func TestK3SetOwnParametersKeepsBehavior(t *testing.T) {
	a := NewK3(geom.Pose{}, robot.K3Wheels, DefaultK3Params())
	b := NewK3(geom.Pose{}, robot.K3Wheels, DefaultK3Params())
	if err := b.SetParameters(b.Parameters()); err != nil {
		t.Fatal(err)
	}

	infos := []robot.Info{k3Info(), k3Info(0.2, 0.05), k3Info(), k3Info(0.2, 0.2, 0.2, 0.04)}
	for i, info := range infos {
		ca, errA := a.Execute(info, 0.02)
		cb, errB := b.Execute(info, 0.02)
		if errA != nil || errB != nil {
			t.Fatalf("tick %d: %v / %v", i, errA, errB)
		}
		if ca != cb {
			t.Errorf("tick %d: %+v != %+v", i, ca, cb)
		}
	}
}

func TestOdometryStraightAndTurn(t *testing.T) {
	w := robot.K3Wheels
	odo := Odometry{Pose: geom.Pose{X: 1}}
	odo.Update(robot.WheelInfo{Wheels: w})

	perRev := int64(w.TicksPerRev)
	p := odo.Update(robot.WheelInfo{Wheels: w, LeftTicks: perRev, RightTicks: perRev})
	if want := 1 + 2*math.Pi*w.Radius; math.Abs(p.X-want) > 1e-9 || p.Y != 0 || p.Theta != 0 {
		t.Errorf("straight = %+v, want x=%v", p, want)
	}

	p = odo.Update(robot.WheelInfo{Wheels: w, LeftTicks: 0, RightTicks: 2 * perRev})
	wantTheta := geom.NormalizeAngle(2 * (2 * math.Pi * w.Radius) / w.BaseLength)
	if math.Abs(p.Theta-wantTheta) > 1e-9 {
		t.Errorf("spin theta = %v, want %v", p.Theta, wantTheta)
	}
}

func TestConstantParameters(t *testing.T) {
	s := NewConstant(control.ConstantParams{V: 1})
	if err := s.SetParameters(params.Group("", params.Float("w", 0.5))); err != nil {
		t.Fatal(err)
	}
	u, err := s.Execute(unicycleInfo(0), 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if u != (control.Unicycle{V: 1, W: 0.5}) {
		t.Errorf("command = %+v", u)
	}
	if err := s.SetParameters(params.Group("", params.Float("w", 50))); !errors.Is(err, params.ErrParameterBounds) {
		t.Errorf("out of range: err = %v", err)
	}
}

func TestK3StartsInGoToGoal(t *testing.T) {
	s := NewK3(geom.Pose{}, robot.K3Wheels, DefaultK3Params())
	if got := s.State(); got != "go-to-goal" {
		t.Errorf("initial state = %q, want go-to-goal", got)
	}
	if s.UIDescription() == nil {
		t.Error("UIDescription returned nil")
	}
	c := NewConstant(control.ConstantParams{V: 1})
	if c.UIDescription() == nil {
		t.Error("constant UIDescription returned nil")
	}
}

func TestMustPanicsOnWiringError(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnknownState) {
			t.Errorf("recovered %v, want ErrUnknownState", r)
		}
	}()
	a := NewEngine[robot.UnicycleInfo, control.Input, control.Input, control.Unicycle](unicycleHooks{}, control.Input{})
	b := NewEngine[robot.UnicycleInfo, control.Input, control.Input, control.Unicycle](unicycleHooks{}, control.Input{})
	foreign := b.AddState(control.NewConstant[control.Input](1, 0))
	must(a.AddTransition(foreign, func(control.Input) bool { return true }, foreign))
}
