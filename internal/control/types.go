package control

import (
	"errors"
	"math"

	"github.com/san-kum/robosim/internal/geom"
)

var (
	// ErrShapeMismatch indicates a controller received input it cannot interpret.
	ErrShapeMismatch = errors.New("control: input shape does not match controller")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("control: parameter out of valid bounds")
)

// Controller is a behavior unit. S is the input snapshot a supervisor derives
// each tick; C is the command it produces.
type Controller[S, C any] interface {
	Name() string
	Execute(state S, dt float64) (C, error)
	// Restart resets internal accumulators to their construction values.
	Restart()
}

// Tunable is implemented by controllers with replaceable parameters.
// SetParameters(Parameters()) must not change future behavior.
type Tunable[P any] interface {
	Parameters() P
	SetParameters(p P) error
}

// Unicycle is a linear/angular velocity command.
type Unicycle struct {
	V float64 `json:"v"`
	W float64 `json:"w"`
}

func (u Unicycle) Vector() []float64 { return []float64{u.V, u.W} }

func (u Unicycle) IsValid() bool {
	return !math.IsNaN(u.V) && !math.IsInf(u.V, 0) && !math.IsNaN(u.W) && !math.IsInf(u.W, 0)
}

// Reading is one proximity sensor sample in the robot frame.
type Reading struct {
	Mount    geom.Pose
	Distance float64
	MaxRange float64
}

// Detected reports whether the reading saw anything.
func (r Reading) Detected() bool { return r.Distance < r.MaxRange }

// Point returns the sensed point in the robot frame.
func (r Reading) Point() geom.Point {
	return r.Mount.Apply(geom.Point{X: r.Distance})
}

// Input is the snapshot the bundled supervisors hand to their controllers.
type Input struct {
	// Pose is the supervisor's estimate of the robot pose.
	Pose     geom.Pose
	Goal     geom.Point
	Velocity float64
	Readings []Reading
}
