package results

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

// Builder constructs Results from simulation output.
type Builder struct {
	results Results
}

// NewBuilder creates a new results builder with a fresh run id.
func NewBuilder() *Builder {
	return &Builder{
		results: Results{
			Version: SchemaVersion,
			Metadata: Metadata{
				RunID:     uuid.NewString(),
				Timestamp: time.Now(),
			},
		},
	}
}

// WithModel records the model variant and its parameter vector by name.
func (b *Builder) WithModel(m *model.Model, params []float64) *Builder {
	pm := make(map[string]float64, len(m.Params))
	for i, spec := range m.Params {
		if i < len(params) {
			pm[spec.Name] = params[i]
		}
	}
	b.results.Model = Model{
		Name:         m.Name,
		Compartments: append([]string(nil), m.Compartments...),
		Params:       pm,
		Conserved:    m.Conserved,
	}
	return b
}

// WithSimulation records the run configuration.
func (b *Builder) WithSimulation(m *model.Model, u0 []float64, tspan [2]float64, population float64, opts *solver.Options) *Builder {
	initial := make(map[string]float64, len(u0))
	for i, c := range m.Compartments {
		if i < len(u0) {
			initial[c] = u0[i]
		}
	}
	b.results.Simulation = Simulation{
		Timespan:     tspan,
		InitialState: initial,
		Population:   population,
	}
	if opts != nil {
		b.results.Simulation.Options = &SolverOptions{
			Dt:       opts.Dt,
			Abstol:   opts.Abstol,
			Reltol:   opts.Reltol,
			Adaptive: opts.Adaptive,
		}
	}
	return b
}

// WithTrajectory processes solver output into summary and time series.
func (b *Builder) WithTrajectory(tr *solver.Trajectory, methodName string, computeTime float64, downsampleTarget int) *Builder {
	b.results.Metadata.Method = methodName
	b.results.Metadata.Status = "success"
	b.results.Metadata.ComputeTime = computeTime

	finalState := make(map[string]float64, len(tr.Labels))
	for i, label := range tr.Labels {
		finalState[label] = tr.FinalState()[i]
	}
	b.results.Results.Summary = Summary{
		Points:     tr.Len(),
		FinalTime:  tr.T[len(tr.T)-1],
		FinalState: finalState,
	}

	timeFull := tr.T
	timeDownsampled := downsample(timeFull, downsampleTarget)

	b.results.Results.Timeseries = Timeseries{
		Time: TimeData{
			Full:        timeFull,
			Downsampled: timeDownsampled,
		},
		Variables: make(map[string]SeriesData),
	}

	for i, label := range tr.Labels {
		varData := tr.Variable(i)
		varDownsampled := downsampleAligned(timeFull, varData, timeDownsampled)
		b.results.Results.Timeseries.Variables[label] = SeriesData{
			Full:        varData,
			Downsampled: varDownsampled,
		}
	}

	return b
}

// WithDerived attaches closed-form summary quantities (R0, infectious
// period, ...) keyed by name.
func (b *Builder) WithDerived(derived map[string]float64) *Builder {
	b.results.Results.Summary.Derived = copyMap(derived)
	return b
}

// WithError marks the run as failed.
func (b *Builder) WithError(err error) *Builder {
	b.results.Metadata.Status = "error"
	b.results.Metadata.Error = err.Error()
	return b
}

// Build returns the constructed Results.
func (b *Builder) Build() *Results {
	return &b.results
}

// downsample reduces data to approximately targetPoints.
func downsample(data []float64, targetPoints int) []float64 {
	if targetPoints < 2 || len(data) <= targetPoints {
		return data
	}

	result := make([]float64, targetPoints)
	result[0] = data[0]
	result[targetPoints-1] = data[len(data)-1]

	step := float64(len(data)-1) / float64(targetPoints-1)
	for i := 1; i < targetPoints-1; i++ {
		idx := int(math.Round(float64(i) * step))
		result[i] = data[idx]
	}

	return result
}

// downsampleAligned downsamples varData to match the downsampled time points.
func downsampleAligned(timeFull, varData, timeDownsampled []float64) []float64 {
	result := make([]float64, len(timeDownsampled))
	for i, targetTime := range timeDownsampled {
		idx := findClosestIndex(timeFull, targetTime)
		result[i] = varData[idx]
	}
	return result
}

// findClosestIndex finds the index of the value closest to target.
func findClosestIndex(data []float64, target float64) int {
	if len(data) == 0 {
		return 0
	}
	minDist := math.Abs(data[0] - target)
	minIdx := 0
	for i := 1; i < len(data); i++ {
		dist := math.Abs(data[i] - target)
		if dist < minDist {
			minDist = dist
			minIdx = i
		}
	}
	return minIdx
}

// copyMap makes a copy of a map.
func copyMap(m map[string]float64) map[string]float64 {
	result := make(map[string]float64, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
