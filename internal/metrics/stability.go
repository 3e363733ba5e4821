package metrics

import (
	"github.com/san-kum/robosim/internal/sim"
)

// CollisionFree is the fraction of frames in which no robot touched an obstacle.
type CollisionFree struct {
	name       string
	violations int
	samples    int
}

func NewCollisionFree() *CollisionFree {
	return &CollisionFree{
		name: "collision_free",
	}
}

func (s *CollisionFree) Name() string {
	return s.name
}

func (s *CollisionFree) Observe(f sim.Frame) {
	s.samples++
	for _, r := range f.Robots {
		if r.Collided {
			s.violations++
			break
		}
	}
}

func (s *CollisionFree) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *CollisionFree) Reset() {
	s.violations = 0
	s.samples = 0
}
