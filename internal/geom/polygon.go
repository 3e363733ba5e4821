package geom

import "math"

// Polygon is a closed polygon; the last vertex connects back to the first.
type Polygon []Point

func (pg Polygon) Transform(p Pose) Polygon {
	out := make(Polygon, len(pg))
	for i, q := range pg {
		out[i] = p.Apply(q)
	}
	return out
}

func (pg Polygon) Edges() []Segment {
	if len(pg) < 2 {
		return nil
	}
	edges := make([]Segment, len(pg))
	for i := range pg {
		edges[i] = Segment{A: pg[i], B: pg[(i+1)%len(pg)]}
	}
	return edges
}

// Contains reports whether q lies inside pg (even-odd rule).
func (pg Polygon) Contains(q Point) bool {
	inside := false
	for i, j := 0, len(pg)-1; i < len(pg); j, i = i, i+1 {
		a, b := pg[i], pg[j]
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := (b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) + a.X
			if q.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Intersects reports whether two polygons overlap, including full containment.
func (pg Polygon) Intersects(other Polygon) bool {
	if len(pg) == 0 || len(other) == 0 {
		return false
	}
	for _, e := range pg.Edges() {
		for _, f := range other.Edges() {
			if _, ok := e.Intersect(f); ok {
				return true
			}
		}
	}
	return other.Contains(pg[0]) || pg.Contains(other[0])
}

func (pg Polygon) Bounds() (min, max Point) {
	min = Point{math.Inf(1), math.Inf(1)}
	max = Point{math.Inf(-1), math.Inf(-1)}
	for _, q := range pg {
		min.X = math.Min(min.X, q.X)
		min.Y = math.Min(min.Y, q.Y)
		max.X = math.Max(max.X, q.X)
		max.Y = math.Max(max.Y, q.Y)
	}
	return min, max
}

// Rectangle returns an axis-aligned rectangle with its lower-left corner at (x, y).
func Rectangle(x, y, w, h float64) Polygon {
	return Polygon{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

type Segment struct {
	A, B Point
}

// Intersect returns the intersection point of two segments.
func (s Segment) Intersect(o Segment) (Point, bool) {
	r := s.B.Sub(s.A)
	q := o.B.Sub(o.A)
	den := r.Cross(q)
	if den == 0 {
		return Point{}, false
	}
	d := o.A.Sub(s.A)
	t := d.Cross(q) / den
	u := d.Cross(r) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return s.A.Add(r.Scale(t)), true
}

// Ray is a half-line from Origin along the unit vector Dir.
type Ray struct {
	Origin Point
	Dir    Point
}

// Cast returns the distance along r to the nearest edge of any polygon,
// or +Inf when nothing is hit within maxDist.
func (r Ray) Cast(obstacles []Polygon, maxDist float64) float64 {
	best := math.Inf(1)
	beam := Segment{A: r.Origin, B: r.Origin.Add(r.Dir.Scale(maxDist))}
	for _, pg := range obstacles {
		for _, e := range pg.Edges() {
			if p, ok := beam.Intersect(e); ok {
				if d := p.Dist(r.Origin); d < best {
					best = d
				}
			}
		}
	}
	return best
}
