package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "models":
		if err := models(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "simulate":
		if err := simulate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "summary":
		if err := summaryCmd(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "plot":
		if err := plot(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "phase":
		if err := phase(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "sweep":
		if err := sweep(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "sensitivity":
		if err := sensitivityCmd(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "fit":
		if err := fit(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "fetch":
		if err := fetch(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "compare":
		if err := compare(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runs(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("popdyn version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`popdyn - population dynamics and epidemic modeling tool

Usage:
  popdyn <command> [options]

Commands:
  models     List available models with parameters and defaults
  simulate   Run an ODE simulation and write results
  summary    Display quick summary of simulation results
  plot       Render a trajectory as SVG or terminal ASCII
  phase      Render a phase-plane plot of two compartments
  sweep      Sweep a parameter and rank variants against an objective
  sensitivity  Rank parameters by their impact on a trajectory score
  fit        Calibrate model parameters against observed data
  fetch      Download or load the Our World in Data COVID-19 table
  compare    Compare two simulation results
  runs       List, show, and prune archived runs
  version    Print version
  help       Show this help

Examples:
  popdyn simulate -model sir -time 100 -output results.json
  popdyn simulate -scenario outbreak.yaml -store runs.db
  popdyn plot -model lotka-volterra -time 60 -output lv.svg
  popdyn sweep -model sir -param r -min 0.05 -max 0.3 -steps 10 -objective minimize_peak
  popdyn fit -model sir -data observed.csv -free r,a
  popdyn fetch -location "New Zealand" -output nz.csv

Use "popdyn <command> -h" for command options.`)
}
