package robot

import (
	"math"

	"github.com/san-kum/robosim/internal/geom"
)

// integrate advances p along a constant-curvature arc for linear velocity v
// and angular velocity w over dt.
func integrate(p geom.Pose, v, w, dt float64) geom.Pose {
	if dt == 0 {
		return p
	}
	if math.Abs(w) < 1e-9 {
		s, c := math.Sincos(p.Theta)
		return geom.Pose{X: p.X + v*dt*c, Y: p.Y + v*dt*s, Theta: p.Theta}
	}
	theta := p.Theta + w*dt
	r := v / w
	return geom.Pose{
		X:     p.X + r*(math.Sin(theta)-math.Sin(p.Theta)),
		Y:     p.Y - r*(math.Cos(theta)-math.Cos(p.Theta)),
		Theta: geom.NormalizeAngle(theta),
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clampAbs(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
