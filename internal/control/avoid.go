package control

import (
	"math"

	"github.com/san-kum/robosim/internal/geom"
)

// AvoidObstacles steers toward the direction of greatest free space,
// estimated as the sum of the sensed points in the robot frame.
type AvoidObstacles struct {
	pid *PID
}

func NewAvoidObstacles(g Gains) *AvoidObstacles {
	return &AvoidObstacles{pid: NewPID(g)}
}

func (c *AvoidObstacles) Name() string { return "avoid-obstacles" }

func (c *AvoidObstacles) Execute(in Input, dt float64) (Unicycle, error) {
	if len(in.Readings) == 0 {
		return Unicycle{}, ErrShapeMismatch
	}

	var away geom.Point
	for _, r := range in.Readings {
		away = away.Add(r.Point())
	}
	err := 0.0
	if away.Norm() > 0 {
		err = math.Atan2(away.Y, away.X)
	}

	return Unicycle{V: in.Velocity, W: c.pid.Step(err, dt)}, nil
}

func (c *AvoidObstacles) Restart() { c.pid.Reset() }

func (c *AvoidObstacles) Parameters() Gains { return c.pid.Gains }

func (c *AvoidObstacles) SetParameters(g Gains) error {
	if err := g.Validate(); err != nil {
		return err
	}
	c.pid.Gains = g
	return nil
}
