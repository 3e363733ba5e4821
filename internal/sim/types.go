package sim

import (
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/sensor"
	"github.com/san-kum/robosim/internal/world"
)

// Command is a robot command that can be recorded as a vector.
type Command interface {
	Vector() []float64
}

// Robot is the driver-facing surface of a robot with info type I and command type C.
type Robot[I any, C Command] interface {
	Pose() geom.Pose
	Info() I
	SetInputs(cmd C) error
	Move(dt float64)
	ExternalSensors() []sensor.Sensor
	Envelope() geom.Polygon
	Draw(r render.Renderer)
	DrawSensors(r render.Renderer)
}

// Supervisor turns robot info into commands for the same robot family.
type Supervisor[I any, C Command] interface {
	Execute(info I, dt float64) (C, error)
	// State names the active controller.
	State() string
	UIDescription() *params.Node
	Parameters() *params.Node
	SetParameters(patch *params.Node) error
	Draw(r render.Renderer)
}

// Builder constructs a fresh world and set of agents. Reset calls it again.
type Builder func() (*world.World, []*Agent, error)

type Config struct {
	Dt              float64
	Duration        float64
	StopOnCollision bool
}

type RobotFrame struct {
	Name  string    `json:"name"`
	Pose  geom.Pose `json:"pose"`
	State string    `json:"state"`
	// PrevState is set when the supervisor switched controllers this tick.
	PrevState string    `json:"prev_state,omitempty"`
	Command   []float64 `json:"command"`
	Collided  bool      `json:"collided,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Frame is the world state after a completed tick.
type Frame struct {
	Tick   int          `json:"tick"`
	Time   float64      `json:"time"`
	Robots []RobotFrame `json:"robots"`
}

type Observer interface {
	OnFrame(f Frame)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Result struct {
	Frames     []Frame
	Metrics    map[string]float64
	Errors     []error
	Collisions int
	Ticks      int
}
