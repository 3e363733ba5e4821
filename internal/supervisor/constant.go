package supervisor

import (
	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/robot"
)

type unicycleHooks struct{}

func (unicycleHooks) ProcessStateInfo(info robot.UnicycleInfo, d *control.Input) error {
	d.Pose = info.Pose
	d.Readings = info.Readings
	return nil
}

func (unicycleHooks) ControllerInput(d *control.Input) (control.Input, error) {
	return *d, nil
}

// Constant holds a unicycle robot at a fixed, editable velocity command.
type Constant struct {
	engine *Engine[robot.UnicycleInfo, control.Input, control.Input, control.Unicycle]
	ctrl   *control.Constant[control.Input]
}

func NewConstant(p control.ConstantParams) *Constant {
	s := &Constant{
		engine: NewEngine[robot.UnicycleInfo, control.Input, control.Input, control.Unicycle](unicycleHooks{}, control.Input{}),
		ctrl:   control.NewConstant[control.Input](p.V, p.W),
	}
	s.engine.AddState(s.ctrl)
	return s
}

func (s *Constant) Execute(info robot.UnicycleInfo, dt float64) (control.Unicycle, error) {
	return s.engine.Execute(info, dt)
}

func (s *Constant) State() string { return s.engine.Current().Name() }

func (s *Constant) OnTransition(fn func(from, to string)) { s.engine.OnTransition = fn }

func (s *Constant) UIDescription() *params.Node {
	p := s.ctrl.Parameters()
	return mustDescribe(&p)
}

func (s *Constant) Parameters() *params.Node { return s.UIDescription() }

func (s *Constant) SetParameters(patch *params.Node) error {
	p := s.ctrl.Parameters()
	if err := params.Decode(patch, &p); err != nil {
		return err
	}
	return s.ctrl.SetParameters(p)
}

func (s *Constant) Draw(r render.Renderer) {
	d := s.engine.Derived()
	r.SetPose(d.Pose)
	r.SetPen(render.Green)
	r.DrawLine(0, 0, s.ctrl.Parameters().V, 0)
}
