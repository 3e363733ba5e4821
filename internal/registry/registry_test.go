package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/sim"
)

func TestLists(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"khepera3", "unicycle"}, r.ListRobots())
	assert.Equal(t, []string{"constant", "k3"}, r.ListSupervisors())
}

func TestNewAgentErrors(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.NewAgent(config.RobotConfig{Name: "x", Type: "hexapod", Supervisor: "k3"})
	assert.EqualError(t, err, "unknown robot: hexapod")

	_, _, err = r.NewAgent(config.RobotConfig{Name: "x", Type: "khepera3", Supervisor: "wander"})
	assert.EqualError(t, err, "unknown supervisor: wander")

	_, _, err = r.NewAgent(config.RobotConfig{Name: "x", Type: "khepera3", Supervisor: "constant"})
	assert.ErrorContains(t, err, "cannot drive")
}

func inline(t *testing.T, doc string) yaml.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &n))
	return n
}

func TestDescribeAppliesInlineAndFileParams(t *testing.T) {
	r := NewRegistry()
	rc := config.RobotConfig{Name: "k3", Type: "khepera3", Supervisor: "k3"}

	base, err := r.Describe(rc)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "gains.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"pid[avoid]": {"kp": 9}}`), 0644))

	rc.Params = inline(t, "velocity: 0.12\npid[avoid]:\n  kp: 2\n")
	rc.ParamsFile = file
	tree, err := r.Describe(rc)
	require.NoError(t, err)

	vals := tree.Values()
	assert.Equal(t, 0.12, vals["velocity"])
	assert.Equal(t, 9.0, vals["pid[avoid]/kp"], "file applies after inline")
	assert.Equal(t, base.Values()["pid[gotogoal]/kp"], vals["pid[gotogoal]/kp"])
}

func TestDescribeLoadedWorldParams(t *testing.T) {
	doc := "robots: [{name: scout, type: khepera3, supervisor: k3, params: {velocity: 0.1}}]\n"
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Robots, 1)

	tree, err := NewRegistry().Describe(cfg.Robots[0])
	require.NoError(t, err)
	assert.Equal(t, 0.1, tree.Values()["velocity"])
}

func TestBuilderRejectsBadParams(t *testing.T) {
	r := NewRegistry()
	cfg := config.DefaultConfig()
	cfg.Robots[0].Params = inline(t, "gain: 3\n")

	_, err := r.Builder(cfg)
	assert.ErrorIs(t, err, params.ErrUnknownParameter)
}

func TestBuilderRebuildsFreshAgents(t *testing.T) {
	r := NewRegistry()
	cfg := config.GetPreset("obstacles")
	require.NotNil(t, cfg)
	cfg.Duration = 0.5

	build, err := r.Builder(cfg)
	require.NoError(t, err)

	w1, a1, err := build()
	require.NoError(t, err)
	w2, a2, err := build()
	require.NoError(t, err)

	require.Len(t, a1, 2)
	assert.NotSame(t, a1[0], a2[0])
	assert.NotSame(t, w1, w2)
	assert.Len(t, w1.Obstacles, 3)
	assert.Equal(t, "drifter", a1[1].Name())

	s, err := sim.New(SimConfig(cfg), build)
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, res.Ticks)
}
