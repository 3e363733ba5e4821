package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/geom"
	"github.com/san-kum/robosim/internal/metrics"
	"github.com/san-kum/robosim/internal/optim"
	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/registry"
	"github.com/san-kum/robosim/internal/sim"
)

var (
	showSchema bool

	tuneAxes     []string
	tuneMetric   string
	tuneMaximize bool
	tuneTarget   []float64
	tuneWorkers  int
	tuneTop      int
)

func paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "inspect, save and load supervisor parameters",
	}
	cmd.PersistentFlags().StringVar(&robotName, "robot", "", "robot name (default: first robot)")

	describeCmd := &cobra.Command{
		Use:   "describe [world.yaml]",
		Short: "print a robot's parameter tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  describeParams,
	}
	describeCmd.Flags().BoolVar(&showSchema, "schema", false, "print the JSON schema instead")
	addSimFlags(describeCmd)

	saveCmd := &cobra.Command{
		Use:   "save [file] [world.yaml]",
		Short: "write a robot's parameters to a yaml, xml or json file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  saveParams,
	}
	addSimFlags(saveCmd)

	loadCmd := &cobra.Command{
		Use:   "load [file] [world.yaml]",
		Short: "validate a parameter file against a robot and print the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  loadParams,
	}
	addSimFlags(loadCmd)

	cmd.AddCommand(describeCmd, saveCmd, loadCmd)
	return cmd
}

// robotParams returns the configured robot selected by --robot and its
// current parameter tree.
func robotParams(cmd *cobra.Command, args []string) (*config.Config, *config.RobotConfig, *params.Node, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, nil, err
	}
	rc := &cfg.Robots[0]
	if robotName != "" {
		if rc, err = cfg.Robot(robotName); err != nil {
			return nil, nil, nil, err
		}
	}
	tree, err := registry.NewRegistry().Describe(*rc)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, rc, tree, nil
}

func describeParams(cmd *cobra.Command, args []string) error {
	_, rc, tree, err := robotParams(cmd, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if showSchema {
		schema, err := params.Schema(tree)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(schema))
		return err
	}

	fmt.Fprintf(out, "%s (%s robot, %s supervisor)\n", rc.Name, rc.Type, rc.Supervisor)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tLABEL\tVALUE\tRANGE")
	writeTree(w, tree, "")
	return w.Flush()
}

func writeTree(w io.Writer, n *params.Node, prefix string) {
	for _, c := range n.Children {
		path := c.Name()
		if prefix != "" {
			path = prefix + "/" + path
		}
		if c.Kind == params.KindGroup {
			fmt.Fprintf(w, "%s/\t%s\t\t\n", path, c.DisplayLabel())
			writeTree(w, c, path)
			continue
		}

		rng := ""
		switch {
		case c.Kind == params.KindChoice:
			rng = strings.Join(c.Options, "|")
		case c.Bounded && c.Step > 0:
			rng = fmt.Sprintf("[%g, %g] step %g", c.Min, c.Max, c.Step)
		case c.Bounded:
			rng = fmt.Sprintf("[%g, %g]", c.Min, c.Max)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", path, c.DisplayLabel(), c.Value(), rng)
	}
}

func saveParams(cmd *cobra.Command, args []string) error {
	_, rc, tree, err := robotParams(cmd, args[1:])
	if err != nil {
		return err
	}
	if err := params.SaveFile(args[0], tree); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s parameters to %s\n", rc.Name, args[0])
	return nil
}

func loadParams(cmd *cobra.Command, args []string) error {
	_, rc, tree, err := robotParams(cmd, args[1:])
	if err != nil {
		return err
	}
	patch, err := params.LoadFile(args[0], tree)
	if err != nil {
		return err
	}
	merged, err := params.Merge(tree, patch)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s accepted for %s\n", args[0], rc.Name)
	return params.WriteYAML(cmd.OutOrStdout(), merged)
}

func tuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tune [world.yaml]",
		Short:   "grid search supervisor parameters by running the simulation",
		Example: `  robosim tune --preset wall --axis velocity=0.1:0.3:0.05 --axis "pid[gotogoal]/kp=2,4,6" --metric goal_distance`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runTune,
	}
	addSimFlags(cmd)
	cmd.Flags().StringVar(&robotName, "robot", "", "robot to tune (default: first robot)")
	cmd.Flags().StringArrayVar(&tuneAxes, "axis", nil, "parameter axis path=v1,v2 or path=start:stop:step (repeatable)")
	cmd.Flags().StringVar(&tuneMetric, "metric", "goal_distance", "metric to optimize (control_effort, collision_free, distance, transitions, goal_distance)")
	cmd.Flags().BoolVar(&tuneMaximize, "maximize", false, "maximize the metric instead of minimizing it")
	cmd.Flags().Float64SliceVar(&tuneTarget, "target", nil, "goal_distance target x,y (default: the robot's goal)")
	cmd.Flags().IntVar(&tuneWorkers, "workers", 0, "concurrent runs (default: number of CPUs)")
	cmd.Flags().IntVar(&tuneTop, "top", 5, "number of trials to list")
	return cmd
}

func runTune(cmd *cobra.Command, args []string) error {
	if len(tuneAxes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	axes := make([]optim.Axis, len(tuneAxes))
	for i, s := range tuneAxes {
		ax, err := optim.ParseAxis(s)
		if err != nil {
			return err
		}
		axes[i] = ax
	}

	cfg, rc, tree, err := robotParams(cmd, args)
	if err != nil {
		return err
	}

	var target geom.Point
	switch {
	case len(tuneTarget) == 2:
		target = geom.Point{X: tuneTarget[0], Y: tuneTarget[1]}
	case len(tuneTarget) != 0:
		return fmt.Errorf("--target needs two values, got %d", len(tuneTarget))
	case tuneMetric == "goal_distance":
		x, errX := tree.Lookup("goal/x")
		y, errY := tree.Lookup("goal/y")
		if errX != nil || errY != nil {
			return fmt.Errorf("robot %s has no goal; pass --target", rc.Name)
		}
		target = geom.Point{X: x.Number, Y: y.Number}
	}
	newMetrics := func() []sim.Metric {
		return append(metrics.Defaults(), metrics.NewGoalDistance(rc.Name, target))
	}

	gs := optim.NewGridSearch(registry.NewRegistry(), cfg, rc.Name, axes)
	gs.Maximize = tuneMaximize
	if tuneWorkers > 0 {
		gs.Workers = tuneWorkers
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, trials, err := gs.Search(ctx, tuneMetric, newMetrics)
	if err != nil {
		return err
	}

	sorted := append([]optim.Trial(nil), trials...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if tuneMaximize {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Score < sorted[j].Score
	})
	if tuneTop > 0 && len(sorted) > tuneTop {
		sorted = sorted[:tuneTop]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d trials for %s, %s %s\n\n", len(trials), rc.Name, direction(), tuneMetric)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(axes)+2)
	for _, ax := range axes {
		header = append(header, ax.Path)
	}
	header = append(header, tuneMetric, "COLLISIONS")
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, tr := range sorted {
		row := make([]string, 0, len(header))
		for _, ax := range axes {
			row = append(row, fmt.Sprintf("%g", tr.Params[ax.Path]))
		}
		row = append(row, fmt.Sprintf("%.6f", tr.Score), fmt.Sprintf("%d", tr.Result.Collisions))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nbest:")
	for _, ax := range axes {
		fmt.Fprintf(out, "  %s = %g\n", ax.Path, best.Params[ax.Path])
	}
	return nil
}

func direction() string {
	if tuneMaximize {
		return "maximizing"
	}
	return "minimizing"
}
