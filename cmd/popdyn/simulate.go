package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/popdyn-xyz/go-popdyn/plotter"
	"github.com/popdyn-xyz/go-popdyn/results"
	"github.com/popdyn-xyz/go-popdyn/solver"
	"github.com/popdyn-xyz/go-popdyn/store"
	"github.com/popdyn-xyz/go-popdyn/summary"
)

func simulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	rf := addRunFlags(fs)
	output := fs.String("output", "", "Output file for results JSON")
	analyze := fs.Bool("analyze", true, "Compute automatic analysis")
	downsample := fs.Int("downsample", 150, "Target number of points for downsampled output")
	reportAt := fs.String("report", "", "Report rounded counts at times (format: 10,25,50)")
	ascii := fs.Bool("ascii", false, "Print an ASCII chart of the trajectory")
	dbPath := fs.String("store", "", "Archive the run in a SQLite database at this path")
	equilibrium := fs.Bool("equilibrium", false, "Stop early when the system reaches equilibrium")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn simulate [options]

Run an ODE simulation of a population or epidemic model.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # SIR with default parameters
  popdyn simulate -model sir -time 100 -output results.json

  # Override the infection rate and report scaled counts
  popdyn simulate -model sir -params "r=0.3" -population 1e6 -report 10,25,50

  # Run a scenario file and archive the result
  popdyn simulate -scenario outbreak.yaml -store runs.db
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	m, prob, method, opts, population, err := rf.resolve()
	if err != nil {
		return err
	}

	start := time.Now()
	var tr *solver.Trajectory
	var eq *solver.EquilibriumResult
	if *equilibrium {
		tr, eq, err = solver.SolveUntilEquilibrium(prob, method, opts, solver.DefaultEquilibriumOptions())
	} else {
		tr, err = solver.Solve(prob, method, opts)
	}
	elapsed := time.Since(start).Seconds()

	builder := results.NewBuilder().
		WithModel(m, prob.Params).
		WithSimulation(m, prob.U0, prob.Tspan, population, opts)

	if err != nil {
		res := builder.WithError(err).Build()
		if *output != "" {
			if werr := results.WriteJSON(res, *output); werr != nil {
				return fmt.Errorf("write results: %w", werr)
			}
		}
		return fmt.Errorf("simulation failed: %w", err)
	}

	res := builder.
		WithTrajectory(tr, method.Name, elapsed, *downsample).
		WithDerived(derivedQuantities(m, prob)).
		Build()

	if *analyze {
		res.Analysis = results.NewAnalyzer(res).ComputeAll()
	}

	fmt.Printf("Simulated %s: %d points in %.3fs\n", m.Name, tr.Len(), elapsed)
	if eq != nil {
		if eq.Reached {
			fmt.Printf("Equilibrium reached at t=%.2f (%s)\n", eq.Time, eq.Reason)
		} else {
			fmt.Printf("Equilibrium not reached: %s\n", eq.Reason)
		}
	}

	if *reportAt != "" {
		times, err := parseFloatList(*reportAt)
		if err != nil {
			return err
		}
		pop := population
		if pop == 0 {
			pop = 1
		}
		printReport(tr, m.Compartments, times, pop)
	}

	if *ascii {
		fmt.Println(plotter.AsciiTrajectory(tr, m.Compartments, 80, 12))
	}

	if *output != "" {
		if err := results.WriteJSON(res, *output); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Printf("Results written to %s\n", *output)
	}

	if *dbPath != "" {
		db, err := store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Put(res); err != nil {
			return fmt.Errorf("archive run: %w", err)
		}
		fmt.Printf("Run %s archived in %s\n", res.Metadata.RunID, *dbPath)
	}

	return nil
}

// printReport prints rounded population counts at the requested times.
func printReport(tr *solver.Trajectory, labels []string, times []float64, population float64) {
	fmt.Printf("\n%8s", "t")
	for _, label := range labels {
		fmt.Printf("  %10s", label)
	}
	fmt.Println()
	for _, t := range times {
		fmt.Printf("%8.2f", t)
		for i := range labels {
			fmt.Printf("  %10d", summary.ReportValue(tr, i, t, population))
		}
		fmt.Println()
	}
	fmt.Println()
}
