package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/popdyn-xyz/go-popdyn/results"
)

func compare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn compare <baseline.json> <variant.json>

Compare two simulation results and show differences.

Examples:
  popdyn compare baseline.json vaccinated.json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("two results files required")
	}

	baseline, err := results.ReadJSON(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read baseline: %w", err)
	}
	variant, err := results.ReadJSON(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("read variant: %w", err)
	}

	fmt.Println("=== Comparison ===")
	fmt.Printf("Baseline: %s\n", baseline.Model.Name)
	fmt.Printf("Variant:  %s\n\n", variant.Model.Name)

	if baseline.Analysis != nil && variant.Analysis != nil {
		if len(baseline.Analysis.Peaks) > 0 || len(variant.Analysis.Peaks) > 0 {
			fmt.Println("Peaks:")
			comparePeaks(baseline.Analysis.Peaks, variant.Analysis.Peaks)
			fmt.Println()
		}

		if baseline.Analysis.SteadyState != nil && variant.Analysis.SteadyState != nil {
			fmt.Println("Steady State:")
			compareSteadyState(baseline.Analysis.SteadyState, variant.Analysis.SteadyState)
			fmt.Println()
		}

		if baseline.Analysis.Conservation != nil && variant.Analysis.Conservation != nil {
			fmt.Println("Conservation:")
			compareConservation(baseline.Analysis.Conservation, variant.Analysis.Conservation)
			fmt.Println()
		}
	}

	fmt.Println("Final State:")
	compareFinalStates(baseline.Results.Summary.FinalState, variant.Results.Summary.FinalState)

	fmt.Println("\nParameter Differences:")
	compareParams(baseline, variant)

	return nil
}

func comparePeaks(basePeaks, varPeaks []results.Peak) {
	baseMap := make(map[string][]results.Peak)
	varMap := make(map[string][]results.Peak)

	for _, p := range basePeaks {
		baseMap[p.Variable] = append(baseMap[p.Variable], p)
	}
	for _, p := range varPeaks {
		varMap[p.Variable] = append(varMap[p.Variable], p)
	}

	allVars := make(map[string]bool)
	for v := range baseMap {
		allVars[v] = true
	}
	for v := range varMap {
		allVars[v] = true
	}

	for varName := range allVars {
		basePeak := findMaxPeak(baseMap[varName])
		varPeak := findMaxPeak(varMap[varName])

		if basePeak != nil && varPeak != nil {
			valueDiff := varPeak.Value - basePeak.Value
			valuePct := (valueDiff / basePeak.Value) * 100
			timeDiff := varPeak.Time - basePeak.Time

			fmt.Printf("  %s:\n", varName)
			fmt.Printf("    Baseline: %.4f at t=%.2f\n", basePeak.Value, basePeak.Time)
			fmt.Printf("    Variant:  %.4f at t=%.2f\n", varPeak.Value, varPeak.Time)
			fmt.Printf("    Change:   %+.4f (%+.1f%%), ", valueDiff, valuePct)
			if timeDiff > 0 {
				fmt.Printf("%.2f later\n", timeDiff)
			} else if timeDiff < 0 {
				fmt.Printf("%.2f earlier\n", -timeDiff)
			} else {
				fmt.Println("same time")
			}
		}
	}
}

func findMaxPeak(peaks []results.Peak) *results.Peak {
	if len(peaks) == 0 {
		return nil
	}
	maxPeak := &peaks[0]
	for i := range peaks {
		if peaks[i].Value > maxPeak.Value {
			maxPeak = &peaks[i]
		}
	}
	return maxPeak
}

func compareSteadyState(base, variant *results.SteadyState) {
	if base.Reached && variant.Reached {
		fmt.Printf("  Both reached steady state\n")
		fmt.Printf("    Baseline: t=%.2f\n", base.Time)
		fmt.Printf("    Variant:  t=%.2f\n", variant.Time)
		timeDiff := variant.Time - base.Time
		if math.Abs(timeDiff) > 0.01 {
			fmt.Printf("    Change:   %+.2f\n", timeDiff)
		}
	} else if base.Reached && !variant.Reached {
		fmt.Println("  Baseline reached steady state, variant did not")
	} else if !base.Reached && variant.Reached {
		fmt.Println("  Variant reached steady state, baseline did not")
	} else {
		fmt.Println("  Neither reached steady state")
	}
}

func compareConservation(base, variant *results.Conservation) {
	baseCons := base.Total.Conserved
	varCons := variant.Total.Conserved

	if baseCons && varCons {
		fmt.Println("  Both conserve total population ✓")
	} else if baseCons && !varCons {
		fmt.Println("  Baseline conserves total population, variant does not ⚠")
	} else if !baseCons && varCons {
		fmt.Println("  Variant conserves total population, baseline does not ⚠")
	} else {
		fmt.Println("  Neither conserves total population ⚠")
	}
}

func compareFinalStates(base, variant map[string]float64) {
	for varName := range base {
		baseVal := base[varName]
		varVal, ok := variant[varName]

		if ok {
			diff := varVal - baseVal
			pct := 0.0
			if baseVal != 0 {
				pct = (diff / baseVal) * 100
			}

			fmt.Printf("  %s:\n", varName)
			fmt.Printf("    Baseline: %.4f\n", baseVal)
			fmt.Printf("    Variant:  %.4f\n", varVal)
			if math.Abs(diff) > 1e-4 {
				fmt.Printf("    Change:   %+.4f", diff)
				if math.Abs(pct) > 0.1 {
					fmt.Printf(" (%+.1f%%)", pct)
				}
				fmt.Println()
			}
		}
	}
}

func compareParams(base, variant *results.Results) {
	differ := false
	for name, baseVal := range base.Model.Params {
		varVal, ok := variant.Model.Params[name]
		if ok && math.Abs(varVal-baseVal) > 1e-9 {
			if !differ {
				differ = true
			}
			fmt.Printf("  %s: %g -> %g\n", name, baseVal, varVal)
		}
	}
	for name, varVal := range variant.Model.Params {
		if _, ok := base.Model.Params[name]; !ok {
			differ = true
			fmt.Printf("  %s: (absent) -> %g\n", name, varVal)
		}
	}
	if !differ {
		fmt.Println("  None")
	}
}
