// Package sensitivity analyzes how model behavior responds to parameter
// changes: perturbation impact, single-parameter sweeps, and gradient
// estimation.
package sensitivity

import (
	"math"
	"sort"
	"sync"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

// Scorer evaluates a trajectory and returns a score.
type Scorer func(tr *solver.Trajectory) float64

// FinalStateScorer creates a Scorer that evaluates the final state.
func FinalStateScorer(f func(state []float64) float64) Scorer {
	return func(tr *solver.Trajectory) float64 {
		return f(tr.FinalState())
	}
}

// CompartmentScorer creates a Scorer that returns the final value of one
// compartment.
func CompartmentScorer(label string) Scorer {
	return func(tr *solver.Trajectory) float64 {
		idx := tr.Index(label)
		if idx < 0 {
			return math.NaN()
		}
		return tr.FinalState()[idx]
	}
}

// PeakScorer creates a Scorer that returns the step-point maximum of one
// compartment, e.g. the infectious peak.
func PeakScorer(label string) Scorer {
	return func(tr *solver.Trajectory) float64 {
		idx := tr.Index(label)
		if idx < 0 {
			return math.NaN()
		}
		best := tr.U[0][idx]
		for _, u := range tr.U {
			if u[idx] > best {
				best = u[idx]
			}
		}
		return best
	}
}

// Result holds the result of a sensitivity analysis.
type Result struct {
	Baseline float64            // Score with original parameters
	Scores   map[string]float64 // Score when each parameter is perturbed
	Impact   map[string]float64 // Change from baseline (Score - Baseline)
	Ranking  []RankedParam      // Parameters sorted by absolute impact
}

// RankedParam represents a parameter and its impact.
type RankedParam struct {
	Name   string
	Impact float64
}

// Analyzer performs sensitivity analysis over a model's parameter vector.
type Analyzer struct {
	model  *model.Model
	u0     []float64
	params []float64
	tspan  [2]float64
	opts   *solver.Options
	scorer Scorer
}

// NewAnalyzer creates a sensitivity analyzer. Failed runs score NaN and are
// excluded from the ranking.
func NewAnalyzer(m *model.Model, u0, params []float64, scorer Scorer) *Analyzer {
	if u0 == nil {
		u0 = append([]float64(nil), m.DefaultState...)
	}
	if params == nil {
		params = m.DefaultParams()
	}
	return &Analyzer{
		model:  m,
		u0:     u0,
		params: params,
		tspan:  m.DefaultTspan,
		opts:   solver.DefaultOptions(),
		scorer: scorer,
	}
}

// WithTimeSpan sets the simulation time span.
func (a *Analyzer) WithTimeSpan(t0, tf float64) *Analyzer {
	a.tspan = [2]float64{t0, tf}
	return a
}

// WithOptions sets the solver options.
func (a *Analyzer) WithOptions(opts *solver.Options) *Analyzer {
	a.opts = opts
	return a
}

// simulate runs one simulation and returns the score (NaN on failure).
func (a *Analyzer) simulate(params []float64) float64 {
	prob := solver.NewProblem(a.model, a.u0, params, a.tspan)
	tr, err := solver.Solve(prob, solver.Tsit5(), a.opts)
	if err != nil {
		return math.NaN()
	}
	return a.scorer(tr)
}

// perturbed returns a copy of the parameter vector with one entry scaled.
func (a *Analyzer) perturbed(i int, factor float64) []float64 {
	p := append([]float64(nil), a.params...)
	p[i] *= factor
	return p
}

// Analyze measures the impact of scaling each parameter by the given factor
// (e.g. 1.1 for +10%).
func (a *Analyzer) Analyze(factor float64) *Result {
	result := &Result{
		Scores: make(map[string]float64),
		Impact: make(map[string]float64),
	}

	result.Baseline = a.simulate(a.params)

	for i, spec := range a.model.Params {
		score := a.simulate(a.perturbed(i, factor))
		result.Scores[spec.Name] = score
		result.Impact[spec.Name] = score - result.Baseline
	}

	result.Ranking = rankByImpact(result.Impact)
	return result
}

// AnalyzeParallel is Analyze with one goroutine per parameter. Each run owns
// its own parameter vector and trajectory, so only the result maps need the
// mutex.
func (a *Analyzer) AnalyzeParallel(factor float64) *Result {
	result := &Result{
		Scores: make(map[string]float64),
		Impact: make(map[string]float64),
	}

	result.Baseline = a.simulate(a.params)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, spec := range a.model.Params {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			score := a.simulate(a.perturbed(i, factor))

			mu.Lock()
			result.Scores[name] = score
			result.Impact[name] = score - result.Baseline
			mu.Unlock()
		}(i, spec.Name)
	}

	wg.Wait()

	result.Ranking = rankByImpact(result.Impact)
	return result
}

// rankByImpact sorts parameters by absolute impact (descending), dropping
// NaN scores from failed runs.
func rankByImpact(impact map[string]float64) []RankedParam {
	ranking := make([]RankedParam, 0, len(impact))
	for name, imp := range impact {
		if math.IsNaN(imp) {
			continue
		}
		ranking = append(ranking, RankedParam{Name: name, Impact: imp})
	}
	sort.Slice(ranking, func(i, j int) bool {
		return math.Abs(ranking[i].Impact) > math.Abs(ranking[j].Impact)
	})
	return ranking
}

// SweepResult holds results from a single-parameter sweep.
type SweepResult struct {
	Parameter string
	Values    []float64
	Scores    []float64
	Best      struct {
		Value float64
		Score float64
	}
	Worst struct {
		Value float64
		Score float64
	}
}

// Sweep tests a list of values for one named parameter. Higher scores rank
// as better, matching the Scorer convention.
func (a *Analyzer) Sweep(param string, values []float64) *SweepResult {
	idx := a.model.ParamIndex(param)
	result := &SweepResult{
		Parameter: param,
		Values:    values,
		Scores:    make([]float64, len(values)),
	}
	if idx < 0 {
		return result
	}

	bestScore := math.Inf(-1)
	worstScore := math.Inf(1)

	for i, val := range values {
		p := append([]float64(nil), a.params...)
		p[idx] = val

		score := a.simulate(p)
		result.Scores[i] = score
		if math.IsNaN(score) {
			continue
		}

		if score > bestScore {
			bestScore = score
			result.Best.Value = val
			result.Best.Score = score
		}
		if score < worstScore {
			worstScore = score
			result.Worst.Value = val
			result.Worst.Score = score
		}
	}

	return result
}

// SweepRange tests evenly spaced values across [min, max]. Fewer than two
// steps collapse to the single midpoint.
func (a *Analyzer) SweepRange(param string, min, max float64, steps int) *SweepResult {
	if steps < 2 {
		return a.Sweep(param, []float64{(min + max) / 2})
	}
	values := make([]float64, steps)
	for i := 0; i < steps; i++ {
		values[i] = min + (max-min)*float64(i)/float64(steps-1)
	}
	return a.Sweep(param, values)
}

// SweepSpec sweeps a parameter across its declared slider range, one value
// per step.
func (a *Analyzer) SweepSpec(param string) *SweepResult {
	idx := a.model.ParamIndex(param)
	if idx < 0 {
		return &SweepResult{Parameter: param}
	}
	spec := a.model.Params[idx]
	steps := 1
	if spec.Step > 0 {
		steps = int((spec.Max-spec.Min)/spec.Step) + 1
	}
	values := make([]float64, 0, steps)
	for v := spec.Min; v <= spec.Max+spec.Step/2; v += spec.Step {
		values = append(values, v)
	}
	return a.Sweep(param, values)
}

// Gradient estimates d(score)/d(param) by central difference.
func (a *Analyzer) Gradient(param string, h float64) float64 {
	idx := a.model.ParamIndex(param)
	if idx < 0 {
		return math.NaN()
	}
	orig := a.params[idx]
	if h == 0 {
		h = 0.01 * orig
		if h == 0 {
			h = 0.01
		}
	}

	plus := append([]float64(nil), a.params...)
	plus[idx] = orig + h
	minus := append([]float64(nil), a.params...)
	minus[idx] = orig - h

	return (a.simulate(plus) - a.simulate(minus)) / (2 * h)
}
