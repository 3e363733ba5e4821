package render

import "github.com/san-kum/robosim/internal/geom"

// Color is a 0xRRGGBB value.
type Color uint32

const (
	Black  Color = 0x000000
	White  Color = 0xFFFFFF
	Red    Color = 0xFF4444
	Green  Color = 0x00FF88
	Blue   Color = 0x3366FF
	Gray   Color = 0x888899
	Yellow Color = 0xFFAA00
)

type Renderer interface {
	// ResetPose returns to the world frame.
	ResetPose()
	// SetPose replaces the current frame with p, expressed in world coordinates.
	SetPose(p geom.Pose)
	// AddPose composes p onto the current frame.
	AddPose(p geom.Pose)
	SetPen(c Color)
	SetBrush(c Color)
	DrawPolygon(pts []geom.Point)
	DrawEllipse(x, y, w, h float64)
	DrawLine(x1, y1, x2, y2 float64)
	DrawText(text string, x, y float64)
}

// Frame tracks the current drawing frame for Renderer implementations.
type Frame struct {
	pose geom.Pose
}

func (f *Frame) ResetPose()          { f.pose = geom.Pose{} }
func (f *Frame) SetPose(p geom.Pose) { f.pose = p }
func (f *Frame) AddPose(p geom.Pose) { f.pose = f.pose.Compose(p) }
func (f *Frame) Pose() geom.Pose     { return f.pose }

// ToWorld maps a point in the current frame to world coordinates.
func (f *Frame) ToWorld(p geom.Point) geom.Point {
	return f.pose.Apply(p)
}
