package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/geom"
)

const (
	DefaultDt       = 0.02
	DefaultDuration = 30.0
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Dt              float64 `yaml:"dt"`
	Duration        float64 `yaml:"duration"`
	Seed            int64   `yaml:"seed"`
	StopOnCollision bool    `yaml:"stop_on_collision"`
	// SensorNoise is the standard deviation of proximity noise in meters; zero disables it.
	SensorNoise float64          `yaml:"sensor_noise,omitempty"`
	Robots      []RobotConfig    `yaml:"robots"`
	Obstacles   []ObstacleConfig `yaml:"obstacles,omitempty"`
}

type RobotConfig struct {
	Name       string    `yaml:"name"`
	Type       string    `yaml:"type"`
	Supervisor string    `yaml:"supervisor"`
	Pose       geom.Pose `yaml:"pose"`
	// Params is an inline parameter tree applied over the supervisor defaults.
	Params yaml.Node `yaml:"params,omitempty"`
	// ParamsFile is a YAML, XML or JSON parameter file applied after Params.
	ParamsFile string `yaml:"params_file,omitempty"`
}

type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

type ObstacleConfig struct {
	Name    string       `yaml:"name,omitempty"`
	Rect    *Rect        `yaml:"rect,omitempty"`
	Polygon []geom.Point `yaml:"polygon,omitempty"`
}

// Shape returns the obstacle outline in world coordinates.
func (o ObstacleConfig) Shape() geom.Polygon {
	if o.Rect != nil {
		return geom.Rectangle(o.Rect.X, o.Rect.Y, o.Rect.W, o.Rect.H)
	}
	return geom.Polygon(o.Polygon)
}

func DefaultConfig() *Config {
	return &Config{
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Robots: []RobotConfig{
			{Name: "k3", Type: "khepera3", Supervisor: "k3"},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Robots = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(cfg.Robots) == 0 {
		cfg.Robots = DefaultConfig().Robots
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate fills in missing robot names and rejects settings no run can use.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalid, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalid, c.Duration)
	}
	if c.SensorNoise < 0 {
		return fmt.Errorf("%w: sensor_noise must not be negative", ErrInvalid)
	}
	if len(c.Robots) == 0 {
		return fmt.Errorf("%w: no robots", ErrInvalid)
	}

	seen := make(map[string]bool, len(c.Robots))
	for i := range c.Robots {
		r := &c.Robots[i]
		if r.Name == "" {
			r.Name = fmt.Sprintf("robot%d", i+1)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate robot name %q", ErrInvalid, r.Name)
		}
		seen[r.Name] = true
		if r.Type == "" || r.Supervisor == "" {
			return fmt.Errorf("%w: robot %q needs a type and a supervisor", ErrInvalid, r.Name)
		}
		if !r.Pose.IsValid() {
			return fmt.Errorf("%w: robot %q has a non-finite pose", ErrInvalid, r.Name)
		}
	}

	for i, o := range c.Obstacles {
		switch {
		case o.Rect != nil && len(o.Polygon) > 0:
			return fmt.Errorf("%w: obstacle %d sets both rect and polygon", ErrInvalid, i)
		case o.Rect != nil && (o.Rect.W <= 0 || o.Rect.H <= 0):
			return fmt.Errorf("%w: obstacle %d has an empty rect", ErrInvalid, i)
		case o.Rect == nil && len(o.Polygon) < 3:
			return fmt.Errorf("%w: obstacle %d needs a rect or at least three polygon points", ErrInvalid, i)
		}
	}
	return nil
}

// Robot returns the configuration of the named robot.
func (c *Config) Robot(name string) (*RobotConfig, error) {
	for i := range c.Robots {
		if c.Robots[i].Name == name {
			return &c.Robots[i], nil
		}
	}
	return nil, fmt.Errorf("unknown robot: %s", name)
}

// Clone returns a deep copy that can be modified independently.
func (c *Config) Clone() *Config {
	out := *c
	out.Robots = append([]RobotConfig(nil), c.Robots...)
	out.Obstacles = make([]ObstacleConfig, len(c.Obstacles))
	for i, o := range c.Obstacles {
		out.Obstacles[i] = o
		if o.Rect != nil {
			r := *o.Rect
			out.Obstacles[i].Rect = &r
		}
		out.Obstacles[i].Polygon = append([]geom.Point(nil), o.Polygon...)
	}
	return &out
}
