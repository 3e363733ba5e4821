package render

import (
	"math"
	"strings"

	"github.com/san-kum/robosim/internal/geom"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille-dot Renderer. Colors are ignored; every shape is drawn
// as an outline.
type Canvas struct {
	Frame
	Width, Height int
	Grid          [][]rune
	min, max      geom.Point
	labels        map[[2]int]string
}

// NewCanvas creates a w x h character canvas showing the world rectangle [min, max].
func NewCanvas(w, h int, min, max geom.Point) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		min:    min,
		max:    max,
		labels: make(map[[2]int]string),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	clear(c.labels)
}

func (c *Canvas) SetPen(Color)   {}
func (c *Canvas) SetBrush(Color) {}

func (c *Canvas) project(p geom.Point) (int, int) {
	w := c.ToWorld(p)
	sw, sh := float64(c.Width*2), float64(c.Height*4)
	x := (w.X - c.min.X) / (c.max.X - c.min.X) * sw
	y := sh - (w.Y-c.min.Y)/(c.max.Y-c.min.Y)*sh
	return int(math.Round(x)), int(math.Round(y))
}

func (c *Canvas) DrawPolygon(pts []geom.Point) {
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		c.DrawLine(a.X, a.Y, b.X, b.Y)
	}
}

func (c *Canvas) DrawEllipse(x, y, w, h float64) {
	const segments = 16
	pts := make([]geom.Point, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segments
		pts[i] = geom.Point{X: x + w/2*math.Cos(a), Y: y + h/2*math.Sin(a)}
	}
	c.DrawPolygon(pts)
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x1, y1, x2, y2 float64) {
	x0, y0 := c.project(geom.Point{X: x1, Y: y1})
	xe, ye := c.project(geom.Point{X: x2, Y: y2})

	dx := absInt(xe - x0)
	dy := absInt(ye - y0)
	sx := -1
	if x0 < xe {
		sx = 1
	}
	sy := -1
	if y0 < ye {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == xe && y0 == ye {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawText places text starting at the character cell containing (x, y).
func (c *Canvas) DrawText(text string, x, y float64) {
	px, py := c.project(geom.Point{X: x, Y: y})
	c.labels[[2]int{py / 4, px / 2}] = text
}

func (c *Canvas) String() string {
	var b strings.Builder
	for r, row := range c.Grid {
		line := append([]rune(nil), row...)
		for col := 0; col < len(line); col++ {
			text, ok := c.labels[[2]int{r, col}]
			if !ok {
				continue
			}
			for i, ch := range []rune(text) {
				if col+i < len(line) {
					line[col+i] = ch
				}
			}
		}
		b.WriteString(string(line) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
