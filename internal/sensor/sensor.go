// Package sensor implements range sensors mounted on robots.
package sensor

import (
	"math"
	"math/rand"

	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/render"
)

// Sensor is an external sensor whose reading the world updates each tick.
// Robots and supervisors only read it; Sense is reserved for the world update.
type Sensor interface {
	// Mount is the sensor pose in the owning robot's frame.
	Mount() geom.Pose
	Reading() float64
	Sense(robot geom.Pose, obstacles []geom.Polygon)
}

// Proximity measures distance to the nearest obstacle inside a narrow cone
// around its x axis. Readings lie in [MinRange, MaxRange]; MaxRange means
// nothing was detected.
type Proximity struct {
	mount    geom.Pose
	MinRange float64
	MaxRange float64
	// Aperture is the full cone angle in radians, sampled by Rays beams.
	Aperture float64
	Rays     int

	noise   float64
	rng     *rand.Rand
	reading float64
}

func NewProximity(mount geom.Pose, minRange, maxRange, aperture float64) *Proximity {
	return &Proximity{
		mount:    mount,
		MinRange: minRange,
		MaxRange: maxRange,
		Aperture: aperture,
		Rays:     3,
		reading:  maxRange,
	}
}

// WithNoise adds zero-mean gaussian noise with the given standard deviation
// to every reading, drawn from a source seeded with seed.
func (p *Proximity) WithNoise(sigma float64, seed int64) *Proximity {
	p.noise = sigma
	p.rng = rand.New(rand.NewSource(seed))
	return p
}

func (p *Proximity) Mount() geom.Pose { return p.mount }
func (p *Proximity) Reading() float64 { return p.reading }

func (p *Proximity) Sense(robot geom.Pose, obstacles []geom.Polygon) {
	world := robot.Compose(p.mount)
	origin := world.Position()

	d := math.Inf(1)
	for _, a := range p.beamAngles() {
		dir := geom.Pose{Theta: world.Theta + a}.Heading()
		hit := geom.Ray{Origin: origin, Dir: dir}.Cast(obstacles, p.MaxRange)
		d = math.Min(d, hit)
	}

	if p.noise > 0 && !math.IsInf(d, 1) {
		d += p.rng.NormFloat64() * p.noise
	}
	p.reading = p.clamp(d)
}

func (p *Proximity) clamp(d float64) float64 {
	if math.IsNaN(d) || d > p.MaxRange {
		return p.MaxRange
	}
	if d < p.MinRange {
		return p.MinRange
	}
	return d
}

func (p *Proximity) beamAngles() []float64 {
	if p.Rays <= 1 || p.Aperture == 0 {
		return []float64{0}
	}
	angles := make([]float64, p.Rays)
	for i := range angles {
		angles[i] = -p.Aperture/2 + p.Aperture*float64(i)/float64(p.Rays-1)
	}
	return angles
}

// Draw paints the sensing cone in the robot frame; the caller sets the robot pose.
func (p *Proximity) Draw(r render.Renderer) {
	r.AddPose(p.mount)
	defer r.AddPose(p.mount.Inverse())

	s, c := math.Sincos(p.Aperture / 2)
	d := p.reading
	color := render.Gray
	if d < p.MaxRange {
		color = render.Red
	}
	r.SetPen(color)
	r.SetBrush(color)
	r.DrawPolygon([]geom.Point{{}, {X: d * c, Y: d * s}, {X: d * c, Y: -d * s}})
}
