// Package robot provides simulated robot bodies.
//
//   - [DiffDrive]: Khepera III class differential-drive robot with wheel
//     encoders and a ring of nine infrared proximity sensors
//   - [Unicycle]: idealized robot commanded directly in (v, w)
//
// Robots move deterministically: Move is a pure function of the current pose,
// the last accepted command and dt. Commands are validated at SetInputs; a
// rejected command leaves the previous one in place.
package robot
