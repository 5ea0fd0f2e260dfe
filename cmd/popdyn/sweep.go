package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/popdyn-xyz/go-popdyn/results"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

func sweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	rf := addRunFlags(fs)
	param := fs.String("param", "", "Parameter to sweep (required)")
	min := fs.Float64("min", 0, "Sweep minimum (default: parameter spec minimum)")
	max := fs.Float64("max", 0, "Sweep maximum (default: parameter spec maximum)")
	steps := fs.Int("steps", 10, "Number of sweep points")
	objective := fs.String("objective", "minimize_peak", "Objective to rank variants by")
	output := fs.String("output", "", "Output file for sweep results JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn sweep [options]

Run one simulation per point of a parameter grid and rank the variants.

Objectives: minimize_peak, maximize_peak, minimize_deaths,
maximize_final_susceptible, minimize_time_to_steady.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  popdyn sweep -model sir -param r -min 0.05 -max 0.3 -steps 10 -objective minimize_peak
  popdyn sweep -model sirvd -param v -objective minimize_deaths -output sweep.json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *param == "" {
		fs.Usage()
		return fmt.Errorf("-param required")
	}
	scorer, ok := results.Objectives[*objective]
	if !ok {
		return fmt.Errorf("unknown objective %q", *objective)
	}

	m, prob, method, opts, population, err := rf.resolve()
	if err != nil {
		return err
	}
	pi := m.ParamIndex(*param)
	if pi < 0 {
		return fmt.Errorf("model %s has no parameter %q", m.Name, *param)
	}

	lo, hi := *min, *max
	if lo == 0 && hi == 0 {
		lo, hi = m.Params[pi].Min, m.Params[pi].Max
	}
	if hi <= lo {
		return fmt.Errorf("sweep range [%g, %g] is empty", lo, hi)
	}
	if *steps < 2 {
		return fmt.Errorf("-steps must be at least 2")
	}

	values := make([]float64, *steps)
	for i := range values {
		values[i] = lo + (hi-lo)*float64(i)/float64(*steps-1)
	}

	sw := &results.SweepResults{
		Version:   results.SchemaVersion,
		BaseModel: m.Name,
		Objective: *objective,
		Parameters: []results.ParameterSweep{{
			Name: *param, Type: "param", Values: values, Min: lo, Max: hi,
		}},
	}

	fmt.Printf("Sweeping %s.%s over [%g, %g] in %d steps (%s)\n",
		m.Name, *param, lo, hi, *steps, *objective)

	for i, value := range values {
		params := append([]float64(nil), prob.Params...)
		params[pi] = value
		variantProb := solver.NewProblem(m, prob.U0, params, prob.Tspan)

		variant := results.VariantResult{
			ID:         i,
			Parameters: map[string]float64{*param: value},
		}

		start := time.Now()
		tr, err := solver.Solve(variantProb, method, opts)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			sw.Summary.FailureCount++
			fmt.Printf("  %s=%-10g failed: %v\n", *param, value, err)
			continue
		}

		res := results.NewBuilder().
			WithModel(m, params).
			WithSimulation(m, variantProb.U0, variantProb.Tspan, population, opts).
			WithTrajectory(tr, method.Name, elapsed, 150).
			Build()
		res.Analysis = results.NewAnalyzer(res).ComputeAll()

		variant.Metrics = results.ExtractMetrics(res)
		score, err := scorer(res)
		if err != nil {
			sw.Summary.FailureCount++
			fmt.Printf("  %s=%-10g unscored: %v\n", *param, value, err)
			continue
		}
		variant.Score = score
		sw.Summary.SuccessCount++
		sw.Variants = append(sw.Variants, variant)
		fmt.Printf("  %s=%-10g score=%.6g\n", *param, value, score)
	}

	if len(sw.Variants) == 0 {
		return fmt.Errorf("all %d variants failed", len(values))
	}

	results.RankVariants(sw.Variants)
	sw.Best = &sw.Variants[0]
	sw.Worst = &sw.Variants[len(sw.Variants)-1]
	sw.Summary.TotalVariants = len(values)
	sw.Summary.BestScore = sw.Best.Score
	sw.Summary.WorstScore = sw.Worst.Score
	sw.Summary.ScoreRange = sw.Worst.Score - sw.Best.Score
	sw.Recommended = results.GenerateRecommendations(sw)

	fmt.Printf("\nBest: %s=%g (score %.6g)\n", *param, sw.Best.Parameters[*param], sw.Best.Score)
	for _, rec := range sw.Recommended {
		fmt.Printf("  %s\n", rec)
	}

	if *output != "" {
		if err := results.WriteSweepJSON(sw, *output); err != nil {
			return err
		}
		fmt.Printf("Sweep results written to %s\n", *output)
	}
	return nil
}
