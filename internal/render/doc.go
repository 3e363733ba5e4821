// Package render defines the drawing surface robots, supervisors and the world
// draw themselves onto, plus two implementations:
//
//   - [SVG]: vector snapshot of a world, used by `robosim export-svg`
//   - [Canvas]: braille terminal canvas used by the live view
//
// Drawing is pose-relative: callers set the pose of the frame they draw in
// (usually the robot's pose) before issuing shape calls, and shape coordinates
// are expressed in that frame.
package render
