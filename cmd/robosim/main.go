package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/metrics"
	"github.com/san-kum/robosim/internal/registry"
	"github.com/san-kum/robosim/internal/render"
	"github.com/san-kum/robosim/internal/sim"
	"github.com/san-kum/robosim/internal/storage"
	"github.com/san-kum/robosim/internal/tui"
)

var (
	logLevel string
	dataDir  string

	preset          string
	dt              float64
	duration        float64
	seed            int64
	stopOnCollision bool

	robotName string
	output    string
	svgWidth  int
	svgHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "robosim",
		Short:         "mobile robot simulator with supervisory control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %s", logLevel)
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".robosim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [world.yaml]",
		Short: "run a simulation and store its trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [world.yaml]",
		Short: "run a simulation in an interactive terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [world.yaml]",
		Short: "run a simulation in real time behind a websocket and metrics server",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().Float64Var(&serveRate, "rate", 1.0, "simulated seconds per wall-clock second")
	serveCmd.Flags().BoolVar(&serveOnce, "once", false, "stop after one run instead of restarting")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&robotName, "robot", "", "robot to plot (default: first robot)")

	svgCmd := &cobra.Command{
		Use:   "export-svg [world.yaml]",
		Short: "run a simulation and draw the world and trajectories as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	addSimFlags(svgCmd)
	svgCmd.Flags().StringVarP(&output, "output", "o", "robosim.svg", "output file")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in pixels")
	svgCmd.Flags().IntVar(&svgHeight, "height", 800, "image height in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in worlds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tROBOTS\tOBSTACLES\tDURATION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%.0fs\n", name, len(cfg.Robots), len(cfg.Obstacles), cfg.Duration)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, listCmd, plotCmd, svgCmd, presetsCmd, paramsCmd(), tuneCmd())

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "built-in world (see presets)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sensor noise seed")
	cmd.Flags().BoolVar(&stopOnCollision, "stop-on-collision", false, "stop the run at the first collision")
}

// loadConfig resolves the world from a file argument, a preset or the
// defaults, then applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case len(args) > 0:
		loaded, err := config.Load(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("stop-on-collision") {
		cfg.StopOnCollision = stopOnCollision
	}
	return cfg, cfg.Validate()
}

func worldName(args []string) string {
	switch {
	case len(args) > 0:
		return args[0]
	case preset != "":
		return preset
	}
	return "default"
}

func newSimulator(reg *registry.Registry, cfg *config.Config) (*sim.Simulator, error) {
	build, err := reg.Builder(cfg)
	if err != nil {
		return nil, err
	}
	return sim.New(registry.SimConfig(cfg), build)
}

// runMetrics returns the default metrics plus one goal distance per robot
// whose parameters name a goal.
func runMetrics(reg *registry.Registry, cfg *config.Config) []sim.Metric {
	ms := metrics.Defaults()
	for _, rc := range cfg.Robots {
		tree, err := reg.Describe(rc)
		if err != nil {
			continue
		}
		x, errX := tree.Lookup("goal/x")
		y, errY := tree.Lookup("goal/y")
		if errX != nil || errY != nil {
			continue
		}
		ms = append(ms, metrics.NewGoalDistance(rc.Name, geom.Point{X: x.Number, Y: y.Number}))
	}
	return ms
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	reg := registry.NewRegistry()
	s, err := newSimulator(reg, cfg)
	if err != nil {
		return err
	}
	ms := runMetrics(reg, cfg)
	for _, m := range ms {
		s.AddMetric(m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s with %d robots...\n", worldName(args), len(cfg.Robots))
	start := time.Now()

	result, runErr := s.Run(ctx)
	if runErr != nil && result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	names := make([]string, len(cfg.Robots))
	for i, rc := range cfg.Robots {
		names[i] = rc.Name
	}
	// per-robot goal distances share a metric name; keep them apart in the record
	result.Metrics = make(map[string]float64, len(ms))
	for _, m := range ms {
		key := m.Name()
		if g, ok := m.(*metrics.GoalDistance); ok {
			key = m.Name() + "/" + g.Robot()
		}
		result.Metrics[key] = m.Value()
	}

	runID, err := st.Save(storage.RunMetadata{
		World:    worldName(args),
		Seed:     cfg.Seed,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Robots:   names,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d  errors: %d  collisions: %d\n", result.Ticks, len(result.Errors), result.Collisions)
	fmt.Println("\nmetrics:")
	keys := make([]string, 0, len(result.Metrics))
	for k := range result.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}

	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSimulator(registry.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	// log lines would tear the full-screen view
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(os.Stderr)

	return tui.Run(s, worldName(args))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORLD\tTIME\tDURATION\tDT\tROBOTS\tCOLLISIONS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.World,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			len(run.Robots),
			run.Collisions,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	robot := robotName
	if robot == "" && len(meta.Robots) > 0 {
		robot = meta.Robots[0]
	}
	samples, err := st.LoadTrajectory(runID, robot)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot for robot %q", robot)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("world: %s\n", meta.World)
	fmt.Printf("robot: %s\n", robot)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(storage.Sample) float64
	}{
		{"x position", func(s storage.Sample) float64 { return s.Pose.X }},
		{"y position", func(s storage.Sample) float64 { return s.Pose.Y }},
		{"heading", func(s storage.Sample) float64 { return s.Pose.Theta }},
		{"command u0", func(s storage.Sample) float64 { return s.Command[0] }},
		{"command u1", func(s storage.Sample) float64 { return s.Command[1] }},
	}

	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	var switches []string
	for i := 1; i < len(samples); i++ {
		if samples[i].State != samples[i-1].State {
			switches = append(switches, fmt.Sprintf("  t=%.2fs %s -> %s", samples[i].Time, samples[i-1].State, samples[i].State))
		}
	}
	if len(switches) > 0 {
		fmt.Println("transitions:")
		for _, s := range switches {
			fmt.Println(s)
		}
	}

	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSimulator(registry.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	result, err := s.Run(ctx)
	if err != nil && result == nil {
		return err
	}

	paths := make(map[string][]geom.Point)
	var order []string
	var all []geom.Point
	for _, f := range result.Frames {
		for _, r := range f.Robots {
			if _, ok := paths[r.Name]; !ok {
				order = append(order, r.Name)
			}
			p := r.Pose.Position()
			paths[r.Name] = append(paths[r.Name], p)
			all = append(all, p)
		}
	}

	lo, hi := s.World().Bounds(all...)
	const margin = 0.2
	svg := render.NewSVG(svgWidth, svgHeight,
		geom.Point{X: lo.X - margin, Y: lo.Y - margin},
		geom.Point{X: hi.X + margin, Y: hi.Y + margin})

	s.Draw(svg)
	palette := []render.Color{render.Blue, render.Red, render.Green, render.Yellow}
	for i, name := range order {
		svg.Path(paths[name], palette[i%len(palette)])
	}

	if err := os.WriteFile(output, []byte(svg.String()), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d ticks, %d robots)\n", output, result.Ticks, len(order))
	return nil
}
