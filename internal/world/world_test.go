package world

import (
	"math"
	"testing"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/sensor"
)

func TestCollision(t *testing.T) {
	w := New(Obstacle{Name: "wall", Shape: geom.Rectangle(1, -1, 0.1, 2)})
	box := geom.Rectangle(-0.05, -0.05, 0.1, 0.1)

	tests := []struct {
		name string
		pose geom.Pose
		hit  bool
	}{
		{"clear", geom.Pose{}, false},
		{"touching edge", geom.Pose{X: 0.97}, true},
		{"inside", geom.Pose{X: 1.05}, true},
		{"past", geom.Pose{X: 1.3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, hit := w.Collision(box, tt.pose)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && o.Name != "wall" {
				t.Errorf("obstacle = %q", o.Name)
			}
		})
	}
}

func TestUpdateSensors(t *testing.T) {
	w := New(Obstacle{Shape: geom.Rectangle(0.5, -1, 0.1, 2)})
	p := sensor.NewProximity(geom.Pose{}, 0.01, 1, 0)
	w.UpdateSensors(geom.Pose{}, []sensor.Sensor{p})
	if math.Abs(p.Reading()-0.5) > 1e-9 {
		t.Errorf("reading = %v, want 0.5", p.Reading())
	}

	w.UpdateSensors(geom.Pose{Theta: math.Pi}, []sensor.Sensor{p})
	if p.Reading() != 1 {
		t.Errorf("facing away: reading = %v, want max range", p.Reading())
	}
}

func TestBounds(t *testing.T) {
	min, max := New().Bounds()
	if min != (geom.Point{X: -1, Y: -1}) || max != (geom.Point{X: 1, Y: 1}) {
		t.Errorf("empty bounds = %v %v", min, max)
	}
	w := New(Obstacle{Shape: geom.Rectangle(0, 0, 2, 1)})
	min, max = w.Bounds(geom.Point{X: -3, Y: 0.5})
	if min != (geom.Point{X: -3, Y: 0}) || max != (geom.Point{X: 2, Y: 1}) {
		t.Errorf("bounds = %v %v", min, max)
	}
}
