package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/trussim/internal/config"
	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/scenario"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	// Solver overrides
	failOnStall    bool
	cascadeForces  bool
	maxIterations  int
	toleranceRatio float64

	output   string
	solve    bool
	save     bool
	plot     bool
	workers  int
	width    int
	height   int
	noRest   bool
	sweepMin float64
	sweepMax float64
	sweeps   int

	sizeMin   float64
	sizeMax   float64
	sizeSteps int
	maxStrain float64
	objective string
)

// main registers the trussim commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "trussim",
		Short:         "2-D truss equilibrium solver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory for stored runs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "solver preset")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log solver iterations to stderr")
	rootCmd.PersistentFlags().BoolVar(&failOnStall, "fail-on-stall", false, "fail when the solver does not converge")
	rootCmd.PersistentFlags().BoolVar(&cascadeForces, "cascade-forces", false, "delete forces together with their node")
	rootCmd.PersistentFlags().IntVar(&maxIterations, "max-iterations", config.DefaultMaxIterations, "iteration cap (0 = none)")
	rootCmd.PersistentFlags().Float64Var(&toleranceRatio, "tolerance", config.DefaultToleranceRatio, "residual tolerance relative to the smallest force")

	buildCmd := &cobra.Command{
		Use:   "build [scenario.yaml]",
		Short: "build a construction file from a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  buildConstruction,
	}
	buildCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: scenario name with .p6)")

	dumpCmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "print a construction as a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpConstruction,
	}
	dumpCmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	infoCmd := &cobra.Command{
		Use:   "info [file]",
		Short: "describe a construction",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}

	solveCmd := &cobra.Command{
		Use:   "solve [file]...",
		Short: "solve one or more constructions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  solveConstructions,
	}
	solveCmd.Flags().BoolVar(&save, "save", false, "store results in the data directory")
	solveCmd.Flags().BoolVar(&plot, "plot", false, "plot convergence and stick strains")
	solveCmd.Flags().IntVarP(&workers, "workers", "j", 0, "parallel solves (0 = one per cpu)")

	mergeCmd := &cobra.Command{
		Use:   "merge [base] [other]...",
		Short: "import constructions into a base construction",
		Args:  cobra.MinimumNArgs(2),
		RunE:  mergeConstructions,
	}
	mergeCmd.Flags().StringVarP(&output, "output", "o", "", "output file (required)")
	mergeCmd.MarkFlagRequired("output")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	showCmd := &cobra.Command{
		Use:   "show [file]",
		Short: "draw a construction in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  showConstruction,
	}
	showCmd.Flags().BoolVar(&solve, "solve", false, "draw the solved geometry")
	showCmd.Flags().IntVar(&width, "width", 60, "canvas width in cells")
	showCmd.Flags().IntVar(&height, "height", 20, "canvas height in cells")
	showCmd.Flags().BoolVar(&noRest, "no-rest", false, "hide the rest geometry when solved")

	svgCmd := &cobra.Command{
		Use:   "svg [file]",
		Short: "render a construction to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input name with .svg)")
	svgCmd.Flags().BoolVar(&solve, "solve", false, "draw the solved geometry")
	svgCmd.Flags().IntVar(&width, "width", 800, "image width")
	svgCmd.Flags().IntVar(&height, "height", 600, "image height")
	svgCmd.Flags().BoolVar(&noRest, "no-rest", false, "hide the rest geometry when solved")

	viewCmd := &cobra.Command{
		Use:   "view [file]",
		Short: "solve and browse a construction interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  viewConstruction,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario.yaml]",
		Short: "solve a scenario under scaled loads",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "smallest load factor")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "largest load factor")
	sweepCmd.Flags().IntVar(&sweeps, "steps", 20, "number of load factors")

	sizeCmd := &cobra.Command{
		Use:   "size [scenario.yaml]",
		Short: "find the stick area scale that minimises a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  sizeScenario,
	}
	sizeCmd.Flags().Float64Var(&sizeMin, "min", 0.1, "smallest area scale")
	sizeCmd.Flags().Float64Var(&sizeMax, "max", 4.0, "largest area scale")
	sizeCmd.Flags().IntVar(&sizeSteps, "steps", 40, "number of area scales")
	sizeCmd.Flags().Float64Var(&maxStrain, "max-strain", 0.01, "largest allowed |strain|")
	sizeCmd.Flags().StringVar(&objective, "metric", "volume", "metric to minimise")
	sizeCmd.Flags().StringVarP(&output, "output", "o", "", "write the sized scenario to this file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list solver presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(buildCmd, dumpCmd, infoCmd, solveCmd, mergeCmd, listCmd, plotCmd, exportJSONCmd,
		showCmd, svgCmd, viewCmd, sweepCmd, sizeCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// solverConfig resolves the solver settings: preset, then config file, then
// explicitly set flags.
func solverConfig(cmd *cobra.Command) (construction.Config, error) {
	solver := config.DefaultSolver()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return construction.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		solver = *p
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return construction.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if preset == "" {
			solver = cfg.Solver
		}
		if !cmd.Flags().Changed("data") {
			dataDir = cfg.DataDir
		}
	}

	if cmd.Flags().Changed("fail-on-stall") {
		solver.FailOnStall = failOnStall
	}
	if cmd.Flags().Changed("cascade-forces") {
		solver.CascadeForces = cascadeForces
	}
	if cmd.Flags().Changed("max-iterations") {
		solver.MaxIterations = maxIterations
	}
	if cmd.Flags().Changed("tolerance") {
		solver.ToleranceRatio = toleranceRatio
	}

	cc := solver.Construction()
	if verbose {
		cc.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return cc, nil
}

func isScenario(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// openConstruction loads a binary construction file or builds a yaml scenario.
func openConstruction(path string, cfg construction.Config) (*construction.Construction, error) {
	if isScenario(path) {
		s, err := scenario.LoadScenario(path)
		if err != nil {
			return nil, err
		}
		return scenario.Build(s, cfg)
	}
	c := construction.New(cfg)
	if err := c.Load(path); err != nil {
		return nil, err
	}
	return c, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
