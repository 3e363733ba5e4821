package control

import (
	"math"

	"github.com/san-kum/robosim/internal/geom"
)

// GoToGoal steers toward Input.Goal at Input.Velocity, regulating heading error with a PID.
type GoToGoal struct {
	pid *PID
}

func NewGoToGoal(g Gains) *GoToGoal {
	return &GoToGoal{pid: NewPID(g)}
}

func (c *GoToGoal) Name() string { return "go-to-goal" }

func (c *GoToGoal) Execute(in Input, dt float64) (Unicycle, error) {
	d := in.Goal.Sub(in.Pose.Position())
	heading := math.Atan2(d.Y, d.X)
	err := geom.NormalizeAngle(heading - in.Pose.Theta)

	return Unicycle{V: in.Velocity, W: c.pid.Step(err, dt)}, nil
}

func (c *GoToGoal) Restart() { c.pid.Reset() }

func (c *GoToGoal) Parameters() Gains { return c.pid.Gains }

func (c *GoToGoal) SetParameters(g Gains) error {
	if err := g.Validate(); err != nil {
		return err
	}
	c.pid.Gains = g
	return nil
}
