package sensor

import (
	"math"
	"testing"

	"github.com/san-kum/robosim/internal/geom"
)

func TestProximitySaturatesAtMaxRange(t *testing.T) {
	p := NewProximity(geom.Pose{}, 0.02, 1.0, 0)
	p.Sense(geom.Pose{}, nil)
	if p.Reading() != 1.0 {
		t.Errorf("empty world reading = %v, want 1.0", p.Reading())
	}

	far := []geom.Polygon{geom.Rectangle(3, -1, 1, 2)}
	p.Sense(geom.Pose{}, far)
	if p.Reading() != 1.0 {
		t.Errorf("obstacle beyond range reading = %v, want 1.0", p.Reading())
	}
}

func TestProximityMonotoneApproach(t *testing.T) {
	p := NewProximity(geom.Pose{}, 0.02, 1.0, 0)

	prev := math.Inf(1)
	for _, x := range []float64{0.9, 0.7, 0.5, 0.3, 0.1} {
		wall := []geom.Polygon{geom.Rectangle(x, -0.5, 0.2, 1)}
		p.Sense(geom.Pose{}, wall)
		r := p.Reading()
		if r >= 1.0 {
			t.Fatalf("obstacle at %v: reading %v should be below max range", x, r)
		}
		if r >= prev {
			t.Errorf("obstacle at %v: reading %v did not decrease from %v", x, r, prev)
		}
		prev = r
	}
}

func TestProximityMountPose(t *testing.T) {
	// Sensor facing left on a robot facing right sees a wall on the robot's left.
	p := NewProximity(geom.Pose{Theta: math.Pi / 2}, 0.02, 1.0, 0)
	wall := []geom.Polygon{geom.Rectangle(-1, 0.4, 2, 0.1)}

	p.Sense(geom.Pose{}, wall)
	if math.Abs(p.Reading()-0.4) > 1e-9 {
		t.Errorf("reading = %v, want 0.4", p.Reading())
	}
}

func TestProximityClampsMinRange(t *testing.T) {
	p := NewProximity(geom.Pose{}, 0.05, 1.0, 0)
	wall := []geom.Polygon{geom.Rectangle(0.01, -1, 0.1, 2)}
	p.Sense(geom.Pose{}, wall)
	if p.Reading() != 0.05 {
		t.Errorf("reading = %v, want min range 0.05", p.Reading())
	}
}

func TestProximityNoiseIsSeeded(t *testing.T) {
	wall := []geom.Polygon{geom.Rectangle(0.5, -1, 0.1, 2)}
	a := NewProximity(geom.Pose{}, 0.02, 1.0, 0).WithNoise(0.01, 7)
	b := NewProximity(geom.Pose{}, 0.02, 1.0, 0).WithNoise(0.01, 7)
	a.Sense(geom.Pose{}, wall)
	b.Sense(geom.Pose{}, wall)
	if a.Reading() != b.Reading() {
		t.Errorf("same seed gave %v and %v", a.Reading(), b.Reading())
	}
}
