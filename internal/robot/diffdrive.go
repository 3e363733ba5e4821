package robot

import (
	"fmt"
	"math"

	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/sensor"
)

// WheelSpeeds is the DiffDrive command: wheel angular velocities in rad/s.
type WheelSpeeds struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

func (s WheelSpeeds) Vector() []float64 { return []float64{s.Left, s.Right} }

type Wheels struct {
	Radius      float64
	BaseLength  float64
	TicksPerRev int
	// MaxSpeed is the wheel angular velocity limit in rad/s.
	MaxSpeed float64
}

// WheelInfo carries the wheel geometry and the cumulative encoder counts.
type WheelInfo struct {
	Wheels
	LeftTicks  int64
	RightTicks int64
}

type IRInfo struct {
	Poses    []geom.Pose
	Readings []float64
	MinRange float64
	MaxRange float64
}

// Info is the per-tick snapshot a DiffDrive exposes to its supervisor. It
// carries no ground-truth pose; supervisors estimate it from the encoders.
type Info struct {
	Wheels WheelInfo
	IR     IRInfo
}

// Khepera3 geometry.
var (
	K3Wheels = Wheels{
		Radius:      0.021,
		BaseLength:  0.0885,
		TicksPerRev: 2765,
		MaxSpeed:    2 * math.Pi * 130 / 60,
	}

	K3Envelope = geom.Polygon{
		{X: -0.031, Y: 0.043}, {X: -0.031, Y: -0.043}, {X: 0.033, Y: -0.043},
		{X: 0.052, Y: -0.021}, {X: 0.057, Y: 0}, {X: 0.052, Y: 0.021}, {X: 0.033, Y: 0.043},
	}

	K3SensorPoses = []geom.Pose{
		{X: -0.038, Y: 0.048, Theta: deg(128)},
		{X: 0.019, Y: 0.064, Theta: deg(75)},
		{X: 0.050, Y: 0.050, Theta: deg(42)},
		{X: 0.070, Y: 0.017, Theta: deg(13)},
		{X: 0.070, Y: -0.017, Theta: deg(-13)},
		{X: 0.050, Y: -0.050, Theta: deg(-42)},
		{X: 0.019, Y: -0.064, Theta: deg(-75)},
		{X: -0.038, Y: -0.048, Theta: deg(-128)},
		{X: -0.048, Y: 0.000, Theta: deg(180)},
	}
)

const (
	k3IRMinRange = 0.02
	k3IRMaxRange = 0.2
	k3IRAperture = 20 * math.Pi / 180
)

func deg(d float64) float64 { return d * math.Pi / 180 }

// FromUnicycle converts a linear/angular velocity command into wheel speeds.
func (w Wheels) FromUnicycle(u control.Unicycle) WheelSpeeds {
	return WheelSpeeds{
		Left:  (2*u.V - u.W*w.BaseLength) / (2 * w.Radius),
		Right: (2*u.V + u.W*w.BaseLength) / (2 * w.Radius),
	}
}

// ToUnicycle is the inverse of FromUnicycle.
func (w Wheels) ToUnicycle(s WheelSpeeds) control.Unicycle {
	return control.Unicycle{
		V: w.Radius * (s.Right + s.Left) / 2,
		W: w.Radius * (s.Right - s.Left) / w.BaseLength,
	}
}

// Distance converts an encoder tick count into travelled wheel distance.
func (w Wheels) Distance(ticks int64) float64 {
	return 2 * math.Pi * w.Radius * float64(ticks) / float64(w.TicksPerRev)
}

type DiffDrive struct {
	pose     geom.Pose
	wheels   Wheels
	envelope geom.Polygon
	sensors  []*sensor.Proximity
	cmd      WheelSpeeds
	// cumulative wheel rotation in radians
	leftAngle, rightAngle float64
	color                 render.Color
}

// NewKhepera3 returns a DiffDrive with Khepera III geometry at pose.
func NewKhepera3(pose geom.Pose) *DiffDrive {
	sensors := make([]*sensor.Proximity, len(K3SensorPoses))
	for i, mount := range K3SensorPoses {
		sensors[i] = sensor.NewProximity(mount, k3IRMinRange, k3IRMaxRange, k3IRAperture)
	}
	return NewDiffDrive(pose, K3Wheels, K3Envelope, sensors)
}

func NewDiffDrive(pose geom.Pose, wheels Wheels, envelope geom.Polygon, sensors []*sensor.Proximity) *DiffDrive {
	return &DiffDrive{
		pose:     pose,
		wheels:   wheels,
		envelope: envelope,
		sensors:  sensors,
		color:    render.Blue,
	}
}

func (r *DiffDrive) SetColor(c render.Color) { r.color = c }

func (r *DiffDrive) Pose() geom.Pose { return r.pose }

// Command returns the last accepted command.
func (r *DiffDrive) Command() WheelSpeeds { return r.cmd }

// SetInputs stores cmd, saturating each wheel at the speed limit.
// Non-finite speeds are rejected and the previous command is kept.
func (r *DiffDrive) SetInputs(cmd WheelSpeeds) error {
	if !finite(cmd.Left, cmd.Right) {
		return fmt.Errorf("%w: wheel speeds (%v, %v)", ErrInvalidCommand, cmd.Left, cmd.Right)
	}
	r.cmd = WheelSpeeds{
		Left:  clampAbs(cmd.Left, r.wheels.MaxSpeed),
		Right: clampAbs(cmd.Right, r.wheels.MaxSpeed),
	}
	return nil
}

func (r *DiffDrive) Move(dt float64) {
	if dt <= 0 {
		return
	}
	u := r.wheels.ToUnicycle(r.cmd)
	r.pose = integrate(r.pose, u.V, u.W, dt)
	r.leftAngle += r.cmd.Left * dt
	r.rightAngle += r.cmd.Right * dt
}

func (r *DiffDrive) ticks(angle float64) int64 {
	return int64(math.Floor(angle / (2 * math.Pi) * float64(r.wheels.TicksPerRev)))
}

func (r *DiffDrive) Info() Info {
	ir := IRInfo{
		Poses:    make([]geom.Pose, len(r.sensors)),
		Readings: make([]float64, len(r.sensors)),
	}
	for i, s := range r.sensors {
		ir.Poses[i] = s.Mount()
		ir.Readings[i] = s.Reading()
		ir.MinRange = s.MinRange
		ir.MaxRange = s.MaxRange
	}
	return Info{
		Wheels: WheelInfo{
			Wheels:     r.wheels,
			LeftTicks:  r.ticks(r.leftAngle),
			RightTicks: r.ticks(r.rightAngle),
		},
		IR: ir,
	}
}

func (r *DiffDrive) ExternalSensors() []sensor.Sensor {
	out := make([]sensor.Sensor, len(r.sensors))
	for i, s := range r.sensors {
		out[i] = s
	}
	return out
}

func (r *DiffDrive) Envelope() geom.Polygon { return r.envelope }

func (r *DiffDrive) Draw(rd render.Renderer) {
	rd.SetPose(r.pose)
	rd.SetPen(render.Black)
	rd.SetBrush(r.color)
	rd.DrawPolygon(r.envelope)
	rd.SetPen(render.White)
	rd.DrawLine(0, 0, r.wheels.Radius*2, 0)
}

func (r *DiffDrive) DrawSensors(rd render.Renderer) {
	for _, s := range r.sensors {
		rd.SetPose(r.pose)
		s.Draw(rd)
	}
}
