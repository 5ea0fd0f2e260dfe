package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/popdyn-xyz/go-popdyn/model"
)

func models(args []string) error {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show parameter ranges and defaults")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn models [options]

List available models.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, name := range model.Names() {
		m, err := model.ByName(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", m.Name)
		fmt.Printf("  compartments: %v\n", m.Compartments)
		if m.Conserved {
			fmt.Printf("  conserved total\n")
		}
		if !*verbose {
			params := make([]string, len(m.Params))
			for i, p := range m.Params {
				params[i] = p.Name
			}
			fmt.Printf("  parameters: %v\n", params)
			continue
		}
		fmt.Printf("  default span: [%.0f, %.0f]\n", m.DefaultTspan[0], m.DefaultTspan[1])
		fmt.Printf("  default state: %v\n", m.DefaultState)
		for _, p := range m.Params {
			fmt.Printf("  %-4s default=%-8g range=[%g, %g] step=%g\n",
				p.Name, p.Default, p.Min, p.Max, p.Step)
		}
	}
	return nil
}
