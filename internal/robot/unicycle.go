package robot

import (
	"fmt"
	"math"

	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/sensor"
)

// UnicycleInfo exposes ground-truth pose along with the proximity readings.
type UnicycleInfo struct {
	Pose     geom.Pose
	Readings []control.Reading
}

// Unicycle is commanded directly in linear and angular velocity.
type Unicycle struct {
	pose     geom.Pose
	maxV     float64
	maxW     float64
	envelope geom.Polygon
	sensors  []*sensor.Proximity
	cmd      control.Unicycle
}

// NewUnicycle returns a round-ish robot of the given radius with five
// proximity sensors spread from the right side (-90°) to the left (+90°) in
// 45° steps.
func NewUnicycle(pose geom.Pose, radius, maxV, maxW float64) *Unicycle {
	const n = 8
	envelope := make(geom.Polygon, n)
	for i := range envelope {
		a := 2 * math.Pi * float64(i) / n
		envelope[i] = geom.Point{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}

	var sensors []*sensor.Proximity
	for _, a := range []float64{-90, -45, 0, 45, 90} {
		th := deg(a)
		mount := geom.Pose{X: radius * math.Cos(th), Y: radius * math.Sin(th), Theta: th}
		sensors = append(sensors, sensor.NewProximity(mount, 0.01, 10*radius, deg(10)))
	}

	return &Unicycle{
		pose:     pose,
		maxV:     maxV,
		maxW:     maxW,
		envelope: envelope,
		sensors:  sensors,
	}
}

func (u *Unicycle) Pose() geom.Pose { return u.pose }

func (u *Unicycle) Command() control.Unicycle { return u.cmd }

func (u *Unicycle) SetInputs(cmd control.Unicycle) error {
	if !cmd.IsValid() {
		return fmt.Errorf("%w: unicycle (%v, %v)", ErrInvalidCommand, cmd.V, cmd.W)
	}
	u.cmd = control.Unicycle{V: clampAbs(cmd.V, u.maxV), W: clampAbs(cmd.W, u.maxW)}
	return nil
}

func (u *Unicycle) Move(dt float64) {
	if dt <= 0 {
		return
	}
	u.pose = integrate(u.pose, u.cmd.V, u.cmd.W, dt)
}

func (u *Unicycle) Info() UnicycleInfo {
	readings := make([]control.Reading, len(u.sensors))
	for i, s := range u.sensors {
		readings[i] = control.Reading{Mount: s.Mount(), Distance: s.Reading(), MaxRange: s.MaxRange}
	}
	return UnicycleInfo{Pose: u.pose, Readings: readings}
}

func (u *Unicycle) ExternalSensors() []sensor.Sensor {
	out := make([]sensor.Sensor, len(u.sensors))
	for i, s := range u.sensors {
		out[i] = s
	}
	return out
}

func (u *Unicycle) Envelope() geom.Polygon { return u.envelope }

func (u *Unicycle) Draw(rd render.Renderer) {
	rd.SetPose(u.pose)
	rd.SetPen(render.Black)
	rd.SetBrush(render.Yellow)
	rd.DrawPolygon(u.envelope)
	_, max := u.envelope.Bounds()
	rd.DrawLine(0, 0, max.X, 0)
}

func (u *Unicycle) DrawSensors(rd render.Renderer) {
	for _, s := range u.sensors {
		rd.SetPose(u.pose)
		s.Draw(rd)
	}
}
