// Package world holds the static scene robots move through.
package world

import (
	"math"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/sensor"
)

type Obstacle struct {
	Name  string
	Shape geom.Polygon
	Color render.Color
}

// World is a set of static obstacles in world coordinates.
type World struct {
	Obstacles []Obstacle
	polygons  []geom.Polygon
}

func New(obstacles ...Obstacle) *World {
	w := &World{Obstacles: obstacles}
	w.polygons = make([]geom.Polygon, len(obstacles))
	for i, o := range obstacles {
		w.polygons[i] = o.Shape
	}
	return w
}

func (w *World) Polygons() []geom.Polygon { return w.polygons }

// UpdateSensors refreshes every sensor mounted on a robot at pose.
func (w *World) UpdateSensors(pose geom.Pose, sensors []sensor.Sensor) {
	for _, s := range sensors {
		s.Sense(pose, w.polygons)
	}
}

// Collision returns the first obstacle the envelope overlaps when placed at pose.
func (w *World) Collision(envelope geom.Polygon, pose geom.Pose) (Obstacle, bool) {
	shape := envelope.Transform(pose)
	for i, pg := range w.polygons {
		if shape.Intersects(pg) {
			return w.Obstacles[i], true
		}
	}
	return Obstacle{}, false
}

// Bounds covers every obstacle and the extra points given, e.g. robot poses.
func (w *World) Bounds(extra ...geom.Point) (min, max geom.Point) {
	min = geom.Point{X: math.Inf(1), Y: math.Inf(1)}
	max = geom.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p geom.Point) {
		min.X, min.Y = math.Min(min.X, p.X), math.Min(min.Y, p.Y)
		max.X, max.Y = math.Max(max.X, p.X), math.Max(max.Y, p.Y)
	}
	for _, pg := range w.polygons {
		lo, hi := pg.Bounds()
		grow(lo)
		grow(hi)
	}
	for _, p := range extra {
		grow(p)
	}
	if math.IsInf(min.X, 1) {
		return geom.Point{X: -1, Y: -1}, geom.Point{X: 1, Y: 1}
	}
	return min, max
}

func (w *World) Draw(r render.Renderer) {
	r.ResetPose()
	for _, o := range w.Obstacles {
		color := o.Color
		if color == 0 {
			color = render.Gray
		}
		r.SetPen(color)
		r.SetBrush(color)
		r.DrawPolygon(o.Shape)
	}
}
