package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/geom"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("wall")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Obstacles) != 1 || cfg.Obstacles[0].Name != "wall" {
		t.Errorf("wall obstacles = %+v", cfg.Obstacles)
	}

	cfg.Obstacles[0].Rect.X = 99
	if Presets["wall"].Obstacles[0].Rect.X == 99 {
		t.Error("GetPreset returned shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) || names[0] != "corridor" {
		t.Fatalf("presets = %v", names)
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"no robots", func(c *Config) { c.Robots = nil }},
		{"duplicate names", func(c *Config) { c.Robots = append(c.Robots, c.Robots[0]) }},
		{"missing supervisor", func(c *Config) { c.Robots[0].Supervisor = "" }},
		{"two-point polygon", func(c *Config) {
			c.Obstacles = []ObstacleConfig{{Polygon: []geom.Point{{}, {X: 1}}}}
		}},
		{"rect and polygon", func(c *Config) {
			c.Obstacles = []ObstacleConfig{{Rect: &Rect{W: 1, H: 1}, Polygon: []geom.Point{{}, {X: 1}, {Y: 1}}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateNamesRobots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Robots = []RobotConfig{{Type: "unicycle", Supervisor: "constant"}, {Type: "unicycle", Supervisor: "constant"}}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Robots[0].Name != "robot1" || cfg.Robots[1].Name != "robot2" {
		t.Errorf("names = %q, %q", cfg.Robots[0].Name, cfg.Robots[1].Name)
	}
}

func TestLoadWithInlineParams(t *testing.T) {
	doc := `
dt: 0.05
duration: 5
robots:
  - name: scout
    type: khepera3
    supervisor: k3
    pose: {x: 0.1, y: 0.2, theta: 0}
    params:
      velocity: 0.1
      pid[avoid]:
        kp: 6
obstacles:
  - rect: {x: 1, y: 0, w: 0.1, h: 0.5}
`
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Robots) != 1 || cfg.Robots[0].Name != "scout" || cfg.Robots[0].Pose.Y != 0.2 {
		t.Fatalf("robots = %+v", cfg.Robots)
	}
	if p := cfg.Robots[0].Params; p.Kind != yaml.MappingNode || len(p.Content) != 4 {
		t.Errorf("inline params not captured: %+v", p)
	}
	if got := cfg.Obstacles[0].Shape(); len(got) != 4 {
		t.Errorf("rect shape = %v", got)
	}

	out := filepath.Join(t.TempDir(), "saved.yaml")
	if err := Save(out, cfg); err != nil {
		t.Fatal(err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Dt != 0.05 || again.Robots[0].Params.Kind != yaml.MappingNode {
		t.Errorf("reloaded = %+v", again)
	}
}
