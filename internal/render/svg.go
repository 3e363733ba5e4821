package render

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/robosim/internal/geom"
)

// SVG renders into an in-memory SVG document covering the world rectangle [min, max].
type SVG struct {
	Frame
	width, height int
	min, max      geom.Point
	pen, brush    Color
	sb            strings.Builder
}

func NewSVG(width, height int, min, max geom.Point) *SVG {
	// Add padding
	rangeX := max.X - min.X
	rangeY := max.Y - min.Y
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	min.X -= rangeX * 0.05
	max.X += rangeX * 0.05
	min.Y -= rangeY * 0.05
	max.Y += rangeY * 0.05

	return &SVG{
		width:  width,
		height: height,
		min:    min,
		max:    max,
		pen:    Gray,
		brush:  Black,
	}
}

func (s *SVG) SetPen(c Color)   { s.pen = c }
func (s *SVG) SetBrush(c Color) { s.brush = c }

func (s *SVG) project(p geom.Point) (float64, float64) {
	w := s.ToWorld(p)
	x := (w.X - s.min.X) / (s.max.X - s.min.X) * float64(s.width)
	y := float64(s.height) - (w.Y-s.min.Y)/(s.max.Y-s.min.Y)*float64(s.height)
	return x, y
}

func (s *SVG) DrawPolygon(pts []geom.Point) {
	if len(pts) == 0 {
		return
	}
	s.sb.WriteString(`<polygon points="`)
	for i, p := range pts {
		x, y := s.project(p)
		if i > 0 {
			s.sb.WriteByte(' ')
		}
		fmt.Fprintf(&s.sb, "%.1f,%.1f", x, y)
	}
	fmt.Fprintf(&s.sb, `" fill="#%06x" stroke="#%06x" stroke-width="1"/>`+"\n", uint32(s.brush), uint32(s.pen))
}

func (s *SVG) DrawEllipse(x, y, w, h float64) {
	cx, cy := s.project(geom.Point{X: x, Y: y})
	sx := float64(s.width) / (s.max.X - s.min.X)
	sy := float64(s.height) / (s.max.Y - s.min.Y)
	fmt.Fprintf(&s.sb, `<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" fill="#%06x" stroke="#%06x"/>`+"\n",
		cx, cy, math.Abs(w*sx/2), math.Abs(h*sy/2), uint32(s.brush), uint32(s.pen))
}

func (s *SVG) DrawLine(x1, y1, x2, y2 float64) {
	ax, ay := s.project(geom.Point{X: x1, Y: y1})
	bx, by := s.project(geom.Point{X: x2, Y: y2})
	fmt.Fprintf(&s.sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#%06x" stroke-width="1"/>`+"\n",
		ax, ay, bx, by, uint32(s.pen))
}

func (s *SVG) DrawText(text string, x, y float64) {
	px, py := s.project(geom.Point{X: x, Y: y})
	fmt.Fprintf(&s.sb, `<text x="%.1f" y="%.1f" fill="#%06x" font-size="10">%s</text>`+"\n",
		px, py, uint32(s.pen), html.EscapeString(text))
}

// Path draws a polyline through world-frame points, ignoring the current pose.
func (s *SVG) Path(points []geom.Point, stroke Color) {
	if len(points) < 2 {
		return
	}
	saved := s.Pose()
	s.ResetPose()
	defer s.SetPose(saved)

	s.sb.WriteString(`<path fill="none" stroke-width="1.5" d="M`)
	for i, p := range points {
		x, y := s.project(p)
		if i == 0 {
			fmt.Fprintf(&s.sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&s.sb, " L%.1f,%.1f", x, y)
		}
	}
	fmt.Fprintf(&s.sb, `" stroke="#%06x"/>`+"\n", uint32(stroke))
}

func (s *SVG) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, s.width, s.height, s.width, s.height)
	out.WriteString(s.sb.String())
	out.WriteString("</svg>\n")
	return out.String()
}
