// Package control provides reusable robot behaviors.
//
// A behavior implements [Controller] to map a supervisor-derived state
// snapshot and elapsed time to a motor command:
//
//   - [Constant]: fixed command, tunable at run time
//   - [Stop]: zero command
//   - [GoToGoal]: PID steering toward a goal point
//   - [AvoidObstacles]: PID steering away from proximity readings
//
// # Usage
//
//	gtg := control.NewGoToGoal(control.Gains{Kp: 4, Ki: 0.01, Kd: 0.01})
//	u, err := gtg.Execute(control.Input{Pose: pose, Goal: goal, Velocity: 0.2}, dt)
//
// Controllers implementing [Tunable] expose their parameters for live editing;
// the parameter structs carry `param` tags understood by package params.
// Restart clears accumulated state and leaves parameters untouched.
package control
