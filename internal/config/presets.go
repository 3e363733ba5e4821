package config

import (
	"sort"

	"github.com/san-kum/robosim/internal/geom"
)

func k3At(x, y, theta float64) []RobotConfig {
	return []RobotConfig{{Name: "k3", Type: "khepera3", Supervisor: "k3", Pose: geom.Pose{X: x, Y: y, Theta: theta}}}
}

var Presets = map[string]*Config{
	"empty": {
		Dt: 0.02, Duration: 20,
		Robots: k3At(0, 0, 0),
	},
	"wall": {
		Dt: 0.02, Duration: 30,
		Robots: k3At(0, 0, 0),
		Obstacles: []ObstacleConfig{
			{Name: "wall", Rect: &Rect{X: 0.5, Y: -0.3, W: 0.05, H: 1.2}},
		},
	},
	"corridor": {
		Dt: 0.02, Duration: 30, StopOnCollision: true,
		Robots: k3At(-1, 0.5, 0),
		Obstacles: []ObstacleConfig{
			{Name: "north", Rect: &Rect{X: -1.5, Y: 0.7, W: 3, H: 0.05}},
			{Name: "south", Rect: &Rect{X: -1.5, Y: 0.3, W: 2.2, H: 0.05}},
			{Name: "post", Rect: &Rect{X: 0.2, Y: 0.55, W: 0.05, H: 0.15}},
		},
	},
	"obstacles": {
		Dt: 0.02, Duration: 40, SensorNoise: 0.002, Seed: 7,
		Robots: append(k3At(-0.5, -0.5, 0.7), RobotConfig{
			Name: "drifter", Type: "unicycle", Supervisor: "constant",
			Pose: geom.Pose{X: 0.5, Y: -0.8, Theta: 1.2},
		}),
		Obstacles: []ObstacleConfig{
			{Name: "box", Rect: &Rect{X: 0.2, Y: 0.1, W: 0.2, H: 0.2}},
			{Name: "triangle", Polygon: []geom.Point{{X: -0.3, Y: 0.5}, {X: 0, Y: 0.9}, {X: -0.6, Y: 0.8}}},
			{Name: "pillar", Rect: &Rect{X: 0.7, Y: 0.6, W: 0.08, H: 0.08}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
