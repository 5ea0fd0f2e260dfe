package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/popdyn-xyz/go-popdyn/results"
)

func summaryCmd(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn summary <results.json>

Display quick summary of simulation results.

Examples:
  popdyn summary results.json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("results file required")
	}

	res, err := results.ReadJSON(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}

	fmt.Printf("Model: %s\n", res.Model.Name)
	fmt.Printf("Status: %s\n", res.Metadata.Status)

	if res.Metadata.Error != "" {
		fmt.Printf("Error: %s\n", res.Metadata.Error)
		return nil
	}

	fmt.Printf("Solver: %s (%.3fs)\n", res.Metadata.Method, res.Metadata.ComputeTime)
	fmt.Printf("Time: %.1f → %.1f (%d points)\n",
		res.Simulation.Timespan[0],
		res.Simulation.Timespan[1],
		res.Results.Summary.Points)

	fmt.Println("\nParameters:")
	for name, value := range res.Model.Params {
		fmt.Printf("  %s = %g\n", name, value)
	}

	fmt.Println("\nFinal state:")
	for varName, value := range res.Results.Summary.FinalState {
		fmt.Printf("  %s = %.4f\n", varName, value)
	}

	if len(res.Results.Summary.Derived) > 0 {
		fmt.Println("\nDerived:")
		for name, value := range res.Results.Summary.Derived {
			fmt.Printf("  %s = %.4f\n", name, value)
		}
	}

	if res.Analysis != nil {
		if len(res.Analysis.Peaks) > 0 {
			fmt.Println("\nPeaks:")
			for _, p := range res.Analysis.Peaks {
				fmt.Printf("  %s peaks at %.4f (t=%.2f)\n", p.Variable, p.Value, p.Time)
			}
		}
		if res.Analysis.SteadyState != nil {
			if res.Analysis.SteadyState.Reached {
				fmt.Printf("\nSteady state reached at t=%.2f\n", res.Analysis.SteadyState.Time)
			} else {
				fmt.Println("\nSteady state not reached")
			}
		}
		if res.Analysis.Conservation != nil && res.Model.Conserved {
			c := res.Analysis.Conservation
			if c.Total.Conserved {
				fmt.Printf("Total population conserved (max drift %.2e)\n", c.MaxDrift)
			} else {
				fmt.Printf("Conservation violated: max drift %.2e\n", c.MaxDrift)
			}
		}
	}

	return nil
}
