package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrCollision indicates a robot envelope overlapped an obstacle.
	ErrCollision = errors.New("sim: robot collided with an obstacle")

	// ErrInvalidConfig indicates run settings the driver cannot execute.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")

	// ErrSupervisorPanic wraps a panic raised while a robot's pipeline ran.
	ErrSupervisorPanic = errors.New("sim: supervisor panicked")
)

// TickError reports a robot whose pipeline aborted during one tick.
type TickError struct {
	Robot   string
	Tick    int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("sim: robot %s tick %d (t=%.3f): %v", e.Robot, e.Tick, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}

func isCollision(err error) bool { return errors.Is(err, ErrCollision) }
