package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/trussim/internal/batch"
	"github.com/san-kum/trussim/internal/config"
	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/export"
	"github.com/san-kum/trussim/internal/material"
	"github.com/san-kum/trussim/internal/metrics"
	"github.com/san-kum/trussim/internal/optim"
	"github.com/san-kum/trussim/internal/scenario"
	"github.com/san-kum/trussim/internal/storage"
	"github.com/san-kum/trussim/internal/viz"
)

func buildConstruction(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	s, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}
	c, err := scenario.Build(s, cfg)
	if err != nil {
		return err
	}

	out := output
	if out == "" {
		name := s.Name
		if name == "" {
			name = baseName(args[0])
		}
		out = name + ".p6"
	}
	if err := c.Save(out); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d nodes, %d sticks, %d forces, %d materials)\n",
		out, c.NodeCount(), c.StickCount(), c.ForceCount(), c.MaterialCount())
	return nil
}

func dumpConstruction(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	c, err := openConstruction(args[0], cfg)
	if err != nil {
		return err
	}
	s, err := scenario.Dump(c, baseName(args[0]))
	if err != nil {
		return err
	}
	if output != "" {
		return scenario.SaveScenario(output, s)
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(s)
}

func showInfo(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	c, err := openConstruction(args[0], cfg)
	if err != nil {
		return err
	}

	free := 0
	for i := 0; i < c.NodeCount(); i++ {
		if f, _ := c.NodeFree(i); f {
			free++
		}
	}
	fmt.Println(viz.Title.Render(args[0]))
	fmt.Printf("%s  %s  %s  %s\n\n",
		viz.Metric("nodes", fmt.Sprintf("%d (%d free)", c.NodeCount(), free)),
		viz.Metric("sticks", c.StickCount()),
		viz.Metric("forces", c.ForceCount()),
		viz.Metric("materials", c.MaterialCount()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MATERIAL\tTYPE\tLAW")
	for i := 0; i < c.MaterialCount(); i++ {
		name, _ := c.MaterialName(i)
		typ, _ := c.MaterialType(i)
		law := ""
		if typ == material.Linear {
			m, _ := c.MaterialModulus(i)
			law = fmt.Sprintf("E = %g", m)
		} else {
			law, _ = c.MaterialFormula(i)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, typ, law)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STICK\tNODES\tMATERIAL\tAREA\tLENGTH")
	for i := 0; i < c.StickCount(); i++ {
		nodes, _ := c.StickNodes(i)
		m, _ := c.StickMaterial(i)
		name := "-"
		if m != construction.NoMaterial {
			name, _ = c.MaterialName(m)
		}
		area, _ := c.StickArea(i)
		length, _ := c.StickLength(i)
		fmt.Fprintf(w, "%d\t%d-%d\t%s\t%g\t%.4g\n", i, nodes[0], nodes[1], name, area, length)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FORCE\tNODE\tX\tY")
	for i := 0; i < c.ForceCount(); i++ {
		n, _ := c.ForceNode(i)
		d, _ := c.ForceDirection(i)
		fmt.Fprintf(w, "%d\t%d\t%g\t%g\n", i, n, d.X, d.Y)
	}
	return w.Flush()
}

func solveConstructions(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jobs := make([]batch.Job, len(args))
	for i, path := range args {
		jobs[i] = batch.Job{Path: path}
	}
	outcomes := batch.NewRunner(cfg, workers).WithOpener(openConstruction).Run(ctx, jobs)

	var st *storage.Store
	if save {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATUS\tITER\tFLOW\tERROR\tMAX STRAIN\tMAX FORCE\tRUN")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t\t\t\t\t\t%v\n", o.Path, viz.StatusFailed.Render("failed"), o.Err)
			continue
		}
		conv := o.Result.Convergence
		m := o.Result.Metrics()
		errStr := "-"
		if conv.Error != nil {
			errStr = fmt.Sprintf("%.3g", *conv.Error)
		}

		runID := ""
		if st != nil {
			if runID, err = st.Save(baseName(o.Path), o.Path, cfg, o.Result); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%.4g\t%.4g\t%s\n",
			o.Path, viz.Status(conv.Converged), conv.Iterations, conv.FlowSteps, errStr,
			m["max_strain"], m["max_force"], runID)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if plot {
		for _, o := range outcomes {
			if o.Err == nil {
				fmt.Println()
				plotResult(o.Path, o.Result)
			}
		}
	}

	if n := batch.Failed(outcomes); n > 0 {
		return fmt.Errorf("%d of %d constructions failed", n, len(outcomes))
	}
	return nil
}

// plotResult prints the residual history on a log scale and the strain of
// every stick.
func plotResult(title string, res *storage.Result) {
	fmt.Println(viz.Title.Render(title))

	var history []float64
	for _, e := range res.Convergence.History {
		if e > 0 {
			history = append(history, math.Log10(e))
		}
	}
	if len(history) > 1 {
		fmt.Println(asciigraph.Plot(history,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("log10 residual per iteration"),
		))
		fmt.Println()
	}

	if len(res.Sticks) > 1 {
		strains := make([]float64, len(res.Sticks))
		for i, s := range res.Sticks {
			strains[i] = s.Strain
		}
		fmt.Println(asciigraph.Plot(strains,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("strain per stick"),
		))
	}
}

func mergeConstructions(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	c, err := openConstruction(args[0], cfg)
	if err != nil {
		return err
	}
	for _, path := range args[1:] {
		if isScenario(path) {
			other, err := openConstruction(path, cfg)
			if err != nil {
				return err
			}
			tmp := filepath.Join(os.TempDir(), fmt.Sprintf("trussim-merge-%d.p6", os.Getpid()))
			if err := other.Save(tmp); err != nil {
				return err
			}
			err = c.Import(tmp)
			os.Remove(tmp)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			continue
		}
		if err := c.Import(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := c.Save(output); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d nodes, %d sticks, %d forces, %d materials)\n",
		output, c.NodeCount(), c.StickCount(), c.ForceCount(), c.MaterialCount())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	if _, err := solverConfig(cmd); err != nil {
		return err
	}
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
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tNODES\tSTICKS\tCONVERGED\tITER\tMAX STRAIN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%t\t%d\t%.4g\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nodes,
			run.Sticks,
			run.Convergence.Converged,
			run.Convergence.Iterations,
			run.Metrics["max_strain"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	if _, err := solverConfig(cmd); err != nil {
		return err
	}
	meta, res, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n\n", meta.Source)
	plotResult(meta.Name, res)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	if _, err := solverConfig(cmd); err != nil {
		return err
	}
	meta, res, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		return storage.WriteJSON(os.Stdout, meta, res)
	}
	if err := storage.ExportJSON(output, meta, res); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", output)
	return nil
}

// resultFor solves c when requested and flattens it for drawing.
func resultFor(c *construction.Construction, solved bool) (*storage.Result, error) {
	if !solved {
		return storage.Geometry(c), nil
	}
	if err := c.Simulate(true); err != nil {
		return nil, err
	}
	return storage.Capture(c)
}

func drawLayers(solved bool) viz.Layer {
	switch {
	case !solved:
		return viz.LayerRest
	case noRest:
		return viz.LayerSolved
	}
	return viz.LayerSolved | viz.LayerRest
}

func showConstruction(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	c, err := openConstruction(args[0], cfg)
	if err != nil {
		return err
	}
	res, err := resultFor(c, solve)
	if err != nil {
		return err
	}

	canvas := viz.Render(res, width, height, drawLayers(solve))
	fmt.Println(viz.Title.Render(args[0]))
	fmt.Print(viz.Panel.Render(canvas.String()))
	fmt.Println()
	if solve {
		fmt.Println(viz.Status(res.Convergence.Converged), viz.Metric("iterations", res.Convergence.Iterations))
	}
	return nil
}

func renderSVG(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	c, err := openConstruction(args[0], cfg)
	if err != nil {
		return err
	}
	res, err := resultFor(c, solve)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.Width, opts.Height = width, height
	opts.Layers = drawLayers(solve)
	opts.StrainColors = solve

	out := output
	if out == "" {
		out = baseName(args[0]) + ".svg"
	}
	if err := os.WriteFile(out, []byte(export.ResultToSVG(res, opts)), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func viewConstruction(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	c, err := openConstruction(args[0], cfg)
	if err != nil {
		return err
	}
	res, err := resultFor(c, true)
	if err != nil {
		return err
	}
	return viz.RunBrowser(baseName(args[0]), res)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	s, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := scenario.RunSweep(ctx, s, scenario.LoadSweep{MinFactor: sweepMin, MaxFactor: sweepMax, NumSteps: sweeps}, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FACTOR\tSTATUS\tITER\tMAX STRAIN\tMAX FORCE")
	strains := make([]float64, len(results))
	for i, r := range results {
		strains[i] = r.MaxStrain
		fmt.Fprintf(w, "%.4g\t%s\t%d\t%.4g\t%.4g\n", r.Factor, viz.Status(r.Converged), r.Report.Iterations, r.MaxStrain, r.MaxForce)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(strains) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(strains,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("max |strain| vs load factor"),
		))
	}
	return nil
}

func sizeScenario(cmd *cobra.Command, args []string) error {
	cfg, err := solverConfig(cmd)
	if err != nil {
		return err
	}
	s, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	build := func(params map[string]float64) (*construction.Construction, error) {
		return scenario.Build(scenario.ScaleAreas(s, params["area_scale"]), cfg)
	}
	g := optim.NewGridSearch([]string{"area_scale"}, [][]float64{optim.Range(sizeMin, sizeMax, sizeSteps)}).
		Limit("max_strain", maxStrain)

	best, all, err := g.Search(ctx, build, objective, metrics.Standard()...)
	if err != nil && !errors.Is(err, optim.ErrNoFeasible) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCALE\tFEASIBLE\tMAX STRAIN\tVOLUME\tENERGY\tNOTE")
	for _, c := range all {
		note := ""
		if c.Err != nil {
			note = c.Err.Error()
		}
		fmt.Fprintf(w, "%.4g\t%t\t%.4g\t%.4g\t%.4g\t%s\n", c.Params["area_scale"], c.Feasible,
			c.Metrics["max_strain"], c.Metrics["volume"], c.Metrics["strain_energy"], note)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no area scale in [%g, %g] keeps |strain| under %g", sizeMin, sizeMax, maxStrain)
	}

	scale := best.Params["area_scale"]
	fmt.Printf("\nbest area scale: %s (%s = %.4g)\n", viz.MetricValue.Render(fmt.Sprintf("%.4g", scale)), objective, best.Metrics[objective])
	if output != "" {
		sized := scenario.ScaleAreas(s, scale)
		if err := scenario.SaveScenario(output, sized); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", output)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTOLERANCE\tSTALL\tMAX ITER\tFLOW\tFAIL ON STALL\tCASCADE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%d\t%d\t%g\t%t\t%t\n",
			name, p.ToleranceRatio, p.StallLimit, p.MaxIterations, p.FlowRate, p.FailOnStall, p.CascadeForces)
	}
	return w.Flush()
}
