package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/popdyn-xyz/go-popdyn/plotter"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

func phase(args []string) error {
	fs := flag.NewFlagSet("phase", flag.ExitOnError)
	rf := addRunFlags(fs)
	output := fs.String("output", "", "Output SVG file (required)")
	title := fs.String("title", "", "Plot title")
	width := fs.Float64("width", 700, "Plot width in pixels")
	height := fs.Float64("height", 700, "Plot height in pixels")
	xVar := fs.String("x", "", "Compartment on the x axis (default: first)")
	yVar := fs.String("y", "", "Compartment on the y axis (default: second)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn phase [options]

Simulate a model and render a phase-plane plot of two compartments.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  popdyn phase -model lotka-volterra -time 60 -output lv_phase.svg
  popdyn phase -model sir -x S -y I -output si_phase.svg
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	m, prob, method, opts, _, err := rf.resolve()
	if err != nil {
		return err
	}
	if m.Dim() < 2 {
		return fmt.Errorf("model %s has a single compartment; phase plots need two", m.Name)
	}

	x, y := *xVar, *yVar
	if x == "" {
		x = m.Compartments[0]
	}
	if y == "" {
		y = m.Compartments[1]
	}
	for _, label := range []string{x, y} {
		if m.CompartmentIndex(label) < 0 {
			return fmt.Errorf("model %s has no compartment %q", m.Name, label)
		}
	}

	if *output == "" {
		fs.Usage()
		return fmt.Errorf("-output required")
	}

	tr, err := solver.Solve(prob, method, opts)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	plotTitle := *title
	if plotTitle == "" {
		plotTitle = fmt.Sprintf("%s phase plane (%s vs %s)", m.Name, y, x)
	}

	svg, _ := plotter.PlotPhase(tr, x, y, *width, *height, plotTitle)
	if err := os.WriteFile(*output, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	fmt.Printf("Phase plot written to %s\n", *output)
	return nil
}
