package geom

import "math"

type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(f float64) Point {
	return Point{p.X * f, p.Y * f}
}

func (p Point) Dot(q Point) float64   { return p.X*q.X + p.Y*q.Y }
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }
func (p Point) Norm() float64         { return math.Hypot(p.X, p.Y) }

func (p Point) Dist(q Point) float64 {
	return p.Sub(q).Norm()
}

// Pose is a position and heading in some parent frame.
type Pose struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Theta float64 `yaml:"theta" json:"theta"`
}

func (p Pose) Position() Point { return Point{p.X, p.Y} }

// Apply maps a point from the pose's local frame into the parent frame.
func (p Pose) Apply(q Point) Point {
	s, c := math.Sincos(p.Theta)
	return Point{
		X: p.X + c*q.X - s*q.Y,
		Y: p.Y + s*q.X + c*q.Y,
	}
}

// Compose returns the pose of child (expressed in p's frame) in p's parent frame.
func (p Pose) Compose(child Pose) Pose {
	pos := p.Apply(child.Position())
	return Pose{X: pos.X, Y: pos.Y, Theta: NormalizeAngle(p.Theta + child.Theta)}
}

func (p Pose) Inverse() Pose {
	s, c := math.Sincos(p.Theta)
	return Pose{
		X:     -c*p.X - s*p.Y,
		Y:     s*p.X - c*p.Y,
		Theta: NormalizeAngle(-p.Theta),
	}
}

// Heading returns the unit vector along the pose's x axis.
func (p Pose) Heading() Point {
	s, c := math.Sincos(p.Theta)
	return Point{c, s}
}

func (p Pose) IsValid() bool {
	for _, v := range [...]float64{p.X, p.Y, p.Theta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NormalizeAngle wraps a into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
