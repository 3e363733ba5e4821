package robot

import "errors"

// ErrInvalidCommand indicates a command the robot cannot execute.
var ErrInvalidCommand = errors.New("robot: invalid command")
