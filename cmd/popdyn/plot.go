package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/popdyn-xyz/go-popdyn/plotter"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

func plot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	rf := addRunFlags(fs)
	output := fs.String("output", "", "Output SVG file")
	title := fs.String("title", "", "Plot title (defaults to model name)")
	width := fs.Float64("width", 900, "Plot width in pixels")
	height := fs.Float64("height", 500, "Plot height in pixels")
	compartments := fs.String("compartments", "", "Comma-separated compartments to plot (default: all)")
	ascii := fs.Bool("ascii", false, "Print an ASCII chart instead of writing SVG")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn plot [options]

Simulate a model and render its trajectory.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  popdyn plot -model sir -time 100 -output sir.svg
  popdyn plot -model sirvd -compartments I,D -output infections.svg
  popdyn plot -model logistic -time 500 -ascii
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	m, prob, method, opts, _, err := rf.resolve()
	if err != nil {
		return err
	}

	tr, err := solver.Solve(prob, method, opts)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	labels := m.Compartments
	if *compartments != "" {
		labels = nil
		for _, label := range strings.Split(*compartments, ",") {
			label = strings.TrimSpace(label)
			if m.CompartmentIndex(label) < 0 {
				return fmt.Errorf("model %s has no compartment %q", m.Name, label)
			}
			labels = append(labels, label)
		}
	}

	if *ascii {
		fmt.Println(plotter.AsciiTrajectory(tr, labels, 80, 16))
		return nil
	}

	if *output == "" {
		fs.Usage()
		return fmt.Errorf("-output required (or use -ascii)")
	}

	plotTitle := *title
	if plotTitle == "" {
		plotTitle = m.Name
	}

	svg, _ := plotter.PlotTrajectory(tr, labels, *width, *height, plotTitle)
	if err := os.WriteFile(*output, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	fmt.Printf("Plot written to %s\n", *output)
	return nil
}
