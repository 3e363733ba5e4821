package params

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gains struct {
	Kp float64 `param:"kp,label=Proportional gain,min=0,max=10,step=0.1"`
	Ki float64 `param:"ki,min=0,max=10"`
	Kd float64 `param:"kd"`
}

type point struct {
	X float64 `param:"x"`
	Y float64 `param:"y"`
}

type settings struct {
	Goal     point   `param:"goal,label=Goal"`
	Velocity float64 `param:"velocity,min=0,max=1"`
	GoToGoal gains   `param:"pid,id=gotogoal,label=Go-to-goal PID"`
	Avoid    gains   `param:"pid,id=avoid,label=Avoid PID"`
	Rays     int     `param:"rays,min=1,max=9"`
	Trace    bool    `param:"trace"`
	Mode     string  `param:"mode,options=fast|careful"`
	internal int
	Unlisted float64
}

func sample() settings {
	return settings{
		Goal:     point{X: 1, Y: -0.5},
		Velocity: 0.2,
		GoToGoal: gains{Kp: 5, Ki: 0.1, Kd: 0.01},
		Avoid:    gains{Kp: 3, Ki: 0.2, Kd: 0.05},
		Rays:     3,
		Mode:     "fast",
	}
}

func TestDescribe(t *testing.T) {
	s := sample()
	tree, err := Describe(&s)
	require.NoError(t, err)

	names := make([]string, 0, len(tree.Children))
	for _, c := range tree.Children {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"goal", "velocity", "pid[gotogoal]", "pid[avoid]", "rays", "trace", "mode"}, names)

	kp, err := tree.Lookup("pid[avoid]/kp")
	require.NoError(t, err)
	assert.Equal(t, KindFloat, kp.Kind)
	assert.Equal(t, 3.0, kp.Number)
	assert.Equal(t, "Proportional gain", kp.Label)
	assert.True(t, kp.Bounded)
	assert.Equal(t, 0.1, kp.Step)

	rays, err := tree.Lookup("rays")
	require.NoError(t, err)
	assert.Equal(t, KindInt, rays.Kind)
	assert.Equal(t, 3, rays.Value())

	mode, err := tree.Lookup("mode")
	require.NoError(t, err)
	assert.Equal(t, []string{"fast", "careful"}, mode.Options)

	assert.Equal(t, "Trace", mustLookup(t, tree, "trace").DisplayLabel())
}

func mustLookup(t *testing.T, n *Node, path string) *Node {
	t.Helper()
	c, err := n.Lookup(path)
	require.NoError(t, err)
	return c
}

func TestDescribeRejectsNonStruct(t *testing.T) {
	_, err := Describe(3)
	assert.ErrorIs(t, err, ErrMalformedDescriptor)

	var p *settings
	_, err = Describe(p)
	assert.ErrorIs(t, err, ErrMalformedDescriptor)
}

func TestValidateDuplicateSiblings(t *testing.T) {
	tree := Group("", Float("kp", 1), Float("kp", 2))
	assert.ErrorIs(t, tree.Validate(), ErrMalformedDescriptor)

	distinct := Group("", Float("kp", 1).WithID("a"), Float("kp", 2).WithID("b"))
	assert.NoError(t, distinct.Validate())
}

func TestMergePartial(t *testing.T) {
	s := sample()
	base, err := Describe(&s)
	require.NoError(t, err)

	patch := Group("", Group("pid", Float("kp", 7)).WithID("avoid"))
	merged, err := Merge(base, patch)
	require.NoError(t, err)

	assert.Equal(t, 7.0, mustLookup(t, merged, "pid[avoid]/kp").Number)
	assert.Equal(t, 5.0, mustLookup(t, merged, "pid[gotogoal]/kp").Number)
	assert.Equal(t, 3.0, mustLookup(t, base, "pid[avoid]/kp").Number, "base must not change")
}

func TestMergeRejections(t *testing.T) {
	s := sample()
	base, err := Describe(&s)
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch *Node
		want  error
	}{
		{"unknown key", Group("", Float("gain", 1)), ErrUnknownParameter},
		{"unknown id", Group("", Group("pid", Float("kp", 1)).WithID("follow")), ErrUnknownParameter},
		{"above max", Group("", Float("velocity", 2)), ErrParameterBounds},
		{"fractional int", Group("", Float("rays", 2.5)), ErrParameterKind},
		{"bool into float", Group("", Bool("velocity", true)), ErrParameterKind},
		{"leaf into group", Group("", Float("goal", 1)), ErrParameterKind},
		{"bad choice", Group("", Choice("mode", "reckless")), ErrParameterBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(base, tt.patch)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeIsAtomic(t *testing.T) {
	s := sample()
	patch := Group("",
		Float("velocity", 0.5),
		Group("goal", Float("x", 4)),
		Float("bogus", 1),
	)
	err := Decode(patch, &s)
	require.ErrorIs(t, err, ErrUnknownParameter)
	assert.Equal(t, sample(), s)

	patch.Children = patch.Children[:2]
	require.NoError(t, Decode(patch, &s))
	assert.Equal(t, 0.5, s.Velocity)
	assert.Equal(t, point{X: 4, Y: -0.5}, s.Goal)
	assert.Equal(t, sample().Avoid, s.Avoid)
}

func TestDecodeIntFromWholeFloat(t *testing.T) {
	s := sample()
	require.NoError(t, Decode(Group("", Float("rays", 5)), &s))
	assert.Equal(t, 5, s.Rays)
}

func TestYAMLRoundTrip(t *testing.T) {
	s := sample()
	s.Velocity = 0.1
	tree, err := Describe(&s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, tree))
	assert.Contains(t, buf.String(), "pid[avoid]:")
	assert.Contains(t, buf.String(), "x: 1.0")

	loaded, err := ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, tree.Values(), mustMerge(t, tree, loaded).Values())

	var out settings
	require.NoError(t, Decode(loaded, &out))
	assert.Equal(t, s, out)
}

func mustMerge(t *testing.T, base, patch *Node) *Node {
	t.Helper()
	m, err := Merge(base, patch)
	require.NoError(t, err)
	return m
}

func TestYAMLQuotesChoicesThatLookLikeScalars(t *testing.T) {
	tree := Group("", Choice("mode", "true", "true", "false"))
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, tree))

	loaded, err := ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, KindChoice, loaded.Children[0].Kind)
	assert.Equal(t, "true", loaded.Children[0].Choice)
}

func TestReadYAMLEmpty(t *testing.T) {
	tree, err := ReadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tree.Children)
}

func TestXMLRoundTrip(t *testing.T) {
	s := sample()
	tree, err := Describe(&s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, tree))
	assert.Contains(t, buf.String(), `<group key="pid" id="avoid" label="Avoid PID">`)

	loaded, err := ReadXML(&buf)
	require.NoError(t, err)
	assert.Equal(t, tree.Values(), loaded.Values())
	assert.Equal(t, "Avoid PID", mustLookup(t, loaded, "pid[avoid]").Label)
}

func TestReadXMLRejectsUnknownElement(t *testing.T) {
	_, err := ReadXML(strings.NewReader(`<parameters><matrix key="a">1</matrix></parameters>`))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = ReadXML(strings.NewReader(`<settings/>`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestJSONRoundTripAndSchema(t *testing.T) {
	s := sample()
	tree, err := Describe(&s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tree))
	loaded, err := ReadJSON(&buf, tree)
	require.NoError(t, err)
	assert.Equal(t, tree.Values(), loaded.Values())

	partial, err := ReadJSON(strings.NewReader(`{"pid[avoid]": {"kd": 0.5}}`), tree)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pid[avoid]/kd": 0.5}, partial.Values())

	bad := []string{
		`{"velocity": 3}`,
		`{"rays": 1.5}`,
		`{"mode": "reckless"}`,
		`{"unknown": 1}`,
		`{"goal": {"z": 0}}`,
		`[1, 2]`,
	}
	for _, doc := range bad {
		_, err := ReadJSON(strings.NewReader(doc), tree)
		assert.ErrorIs(t, err, ErrInvalidDocument, doc)
	}
}

func TestFileRoundTrip(t *testing.T) {
	s := sample()
	tree, err := Describe(&s)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"p.yaml", "p.xml", "p.json"} {
		path := dir + "/" + name
		require.NoError(t, SaveFile(path, tree), name)
		loaded, err := LoadFile(path, tree)
		require.NoError(t, err, name)

		var out settings
		require.NoError(t, Decode(loaded, &out), name)
		assert.Equal(t, s, out, name)
	}

	_, err = FormatOf("p.toml")
	assert.Error(t, err)
}
