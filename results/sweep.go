package results

import (
	"fmt"
	"math"
	"sort"
)

// SweepResults contains results from a parameter sweep: one run per point of
// a parameter grid, scored against an objective. This is the offline
// counterpart of scrubbing a slider and watching a single summary value.
type SweepResults struct {
	Version     string            `json:"version"`
	BaseModel   string            `json:"baseModel"`
	Objective   string            `json:"objective"`
	Parameters  []ParameterSweep  `json:"parameters"`
	Variants    []VariantResult   `json:"variants"`
	Best        *VariantResult    `json:"best"`
	Worst       *VariantResult    `json:"worst"`
	Summary     SweepSummary      `json:"summary"`
	Recommended map[string]string `json:"recommended,omitempty"`
}

// ParameterSweep describes a swept parameter.
type ParameterSweep struct {
	Name   string    `json:"name"`
	Type   string    `json:"type"` // "param" or "initial"
	Values []float64 `json:"values"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// VariantResult contains results for one parameter combination.
type VariantResult struct {
	ID          int                `json:"id"`
	Parameters  map[string]float64 `json:"parameters"`
	Metrics     Metrics            `json:"metrics"`
	Score       float64            `json:"score"`
	Rank        int                `json:"rank"`
	ResultsFile string             `json:"resultsFile,omitempty"`
}

// Metrics contains key metrics extracted from one run.
type Metrics struct {
	// Peak metrics: for epidemic models MaxPeakVar is typically "I"
	MaxPeak     float64 `json:"maxPeak"`
	MaxPeakVar  string  `json:"maxPeakVar"`
	MaxPeakTime float64 `json:"maxPeakTime"`

	FinalState map[string]float64 `json:"finalState"`

	SteadyReached bool    `json:"steadyReached"`
	SteadyTime    float64 `json:"steadyTime,omitempty"`

	Conserved bool `json:"conserved"`

	ComputeTime float64 `json:"computeTime"`
}

// SweepSummary provides an overview of the sweep.
type SweepSummary struct {
	TotalVariants int     `json:"totalVariants"`
	SuccessCount  int     `json:"successCount"`
	FailureCount  int     `json:"failureCount"`
	BestScore     float64 `json:"bestScore"`
	WorstScore    float64 `json:"worstScore"`
	ScoreRange    float64 `json:"scoreRange"`
}

// ObjectiveFunc evaluates how good a result is (lower is better).
type ObjectiveFunc func(*Results) (float64, error)

// Objectives maps objective names to evaluation functions.
var Objectives = map[string]ObjectiveFunc{
	// Flatten the curve: minimize the largest compartment peak (for SIR-family
	// models the infectious peak dominates).
	"minimize_peak": func(r *Results) (float64, error) {
		if r.Analysis == nil || len(r.Analysis.Peaks) == 0 {
			return 0, fmt.Errorf("no peaks found")
		}
		maxPeak := 0.0
		for _, p := range r.Analysis.Peaks {
			if p.Value > maxPeak {
				maxPeak = p.Value
			}
		}
		return maxPeak, nil
	},

	"maximize_peak": func(r *Results) (float64, error) {
		if r.Analysis == nil || len(r.Analysis.Peaks) == 0 {
			return 0, fmt.Errorf("no peaks found")
		}
		maxPeak := 0.0
		for _, p := range r.Analysis.Peaks {
			if p.Value > maxPeak {
				maxPeak = p.Value
			}
		}
		return -maxPeak, nil // Negate for maximization
	},

	// Minimize cumulative deaths at the end of the run (SIRVD).
	"minimize_deaths": func(r *Results) (float64, error) {
		v, ok := r.Results.Summary.FinalState["D"]
		if !ok {
			return 0, fmt.Errorf("model has no D compartment")
		}
		return v, nil
	},

	// Maximize the susceptible fraction left untouched at the end.
	"maximize_final_susceptible": func(r *Results) (float64, error) {
		v, ok := r.Results.Summary.FinalState["S"]
		if !ok {
			return 0, fmt.Errorf("model has no S compartment")
		}
		return -v, nil
	},

	"minimize_time_to_steady": func(r *Results) (float64, error) {
		if r.Analysis == nil || r.Analysis.SteadyState == nil {
			return math.MaxFloat64, nil
		}
		if !r.Analysis.SteadyState.Reached {
			return math.MaxFloat64, nil
		}
		return r.Analysis.SteadyState.Time, nil
	},
}

// ExtractMetrics extracts key metrics from simulation results.
func ExtractMetrics(r *Results) Metrics {
	m := Metrics{
		FinalState:  r.Results.Summary.FinalState,
		ComputeTime: r.Metadata.ComputeTime,
	}

	if r.Analysis != nil {
		for _, p := range r.Analysis.Peaks {
			if p.Value > m.MaxPeak {
				m.MaxPeak = p.Value
				m.MaxPeakVar = p.Variable
				m.MaxPeakTime = p.Time
			}
		}

		if r.Analysis.SteadyState != nil {
			m.SteadyReached = r.Analysis.SteadyState.Reached
			if m.SteadyReached {
				m.SteadyTime = r.Analysis.SteadyState.Time
			}
		}

		if r.Analysis.Conservation != nil {
			m.Conserved = r.Analysis.Conservation.Total.Conserved
		}
	}

	return m
}

// RankVariants sorts variants by score (ascending, lower is better) and
// assigns ranks.
func RankVariants(variants []VariantResult) {
	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Score < variants[j].Score
	})
	for i := range variants {
		variants[i].Rank = i + 1
	}
}

// GenerateRecommendations creates human-readable recommendations from the
// best/worst spread of a sweep.
func GenerateRecommendations(sweep *SweepResults) map[string]string {
	rec := make(map[string]string)

	if sweep.Best == nil {
		return rec
	}

	if sweep.Worst != nil {
		for param, bestVal := range sweep.Best.Parameters {
			worstVal := sweep.Worst.Parameters[param]
			if bestVal != worstVal {
				diff := bestVal - worstVal
				pct := (diff / worstVal) * 100

				var direction string
				if bestVal > worstVal {
					direction = "increase"
				} else {
					direction = "decrease"
				}

				rec[param] = fmt.Sprintf("%s by %.1f%% (%.6f -> %.6f)",
					direction, math.Abs(pct), worstVal, bestVal)
			}
		}

		bestMetric := sweep.Best.Metrics.MaxPeak
		worstMetric := sweep.Worst.Metrics.MaxPeak
		if worstMetric != 0 {
			improvement := ((worstMetric - bestMetric) / worstMetric) * 100
			rec["improvement"] = fmt.Sprintf("%.1f%% reduction in peak (%.4f -> %.4f)",
				improvement, worstMetric, bestMetric)
		}
	}

	return rec
}
