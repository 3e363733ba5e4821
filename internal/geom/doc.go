// Package geom provides the planar geometry shared by robots, sensors and the world:
//
//   - [Point]: a 2D vector
//   - [Pose]: position plus heading, composable as a rigid transform
//   - [Polygon]: closed polygon with containment and intersection tests
//
// Angles are radians, counter-clockwise from the world x axis.
package geom
