package supervisor

import (
	"math"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/robot"
)

// Odometry estimates a differential-drive pose from cumulative encoder ticks.
type Odometry struct {
	Pose geom.Pose

	left, right int64
	primed      bool
}

// Update integrates the tick deltas since the previous call and returns the
// new estimate. The first call only records the tick baseline.
func (o *Odometry) Update(w robot.WheelInfo) geom.Pose {
	if !o.primed {
		o.left, o.right, o.primed = w.LeftTicks, w.RightTicks, true
		return o.Pose
	}
	dl := w.Distance(w.LeftTicks - o.left)
	dr := w.Distance(w.RightTicks - o.right)
	o.left, o.right = w.LeftTicks, w.RightTicks

	d := (dl + dr) / 2
	dtheta := (dr - dl) / w.BaseLength
	mid := o.Pose.Theta + dtheta/2
	o.Pose = geom.Pose{
		X:     o.Pose.X + d*math.Cos(mid),
		Y:     o.Pose.Y + d*math.Sin(mid),
		Theta: geom.NormalizeAngle(o.Pose.Theta + dtheta),
	}
	return o.Pose
}
