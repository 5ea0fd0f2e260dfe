// Package results defines the structured output format for simulation runs:
// a serializable document with metadata, configuration, downsampled time
// series, derived summary values, and automatic analysis.
package results

import "time"

const SchemaVersion = "1.0.0"

// Results contains complete simulation output for one run.
type Results struct {
	Version    string     `json:"version"`
	Metadata   Metadata   `json:"metadata"`
	Model      Model      `json:"model"`
	Simulation Simulation `json:"simulation"`
	Results    Data       `json:"results"`
	Analysis   *Analysis  `json:"analysis,omitempty"`
}

// Metadata contains run execution information.
type Metadata struct {
	RunID       string    `json:"runId"`
	Timestamp   time.Time `json:"timestamp"`
	Method      string    `json:"method"`
	Status      string    `json:"status"` // success, error
	Error       string    `json:"error,omitempty"`
	ComputeTime float64   `json:"computeTime"` // seconds
}

// Model records which model variant was run and with what parameters.
type Model struct {
	Name         string             `json:"name"`
	Compartments []string           `json:"compartments"`
	Params       map[string]float64 `json:"params"`
	Conserved    bool               `json:"conserved"`
}

// Simulation contains the run configuration.
type Simulation struct {
	Timespan     [2]float64         `json:"timespan"`
	InitialState map[string]float64 `json:"initialState"`
	Population   float64            `json:"population,omitempty"`
	Options      *SolverOptions     `json:"options,omitempty"`
}

// SolverOptions contains solver configuration.
type SolverOptions struct {
	Dt       float64 `json:"dt,omitempty"`
	Abstol   float64 `json:"abstol,omitempty"`
	Reltol   float64 `json:"reltol,omitempty"`
	Adaptive bool    `json:"adaptive"`
}

// Data contains the simulation results.
type Data struct {
	Summary    Summary    `json:"summary"`
	Timeseries Timeseries `json:"timeseries"`
}

// Summary provides a quick overview of the run.
type Summary struct {
	Points     int                `json:"points"`
	FinalTime  float64            `json:"finalTime"`
	FinalState map[string]float64 `json:"finalState"`

	// Derived holds closed-form quantities such as R0 or the infectious
	// period, keyed by name, when the model defines them.
	Derived map[string]float64 `json:"derived,omitempty"`
}

// Timeseries contains multi-resolution time series data.
type Timeseries struct {
	Time      TimeData              `json:"time"`
	Variables map[string]SeriesData `json:"variables"`
}

// TimeData holds time vectors at different resolutions.
type TimeData struct {
	Full        []float64 `json:"full,omitempty"`
	Downsampled []float64 `json:"downsampled"`
}

// SeriesData holds compartment values at different resolutions.
type SeriesData struct {
	Full        []float64 `json:"full,omitempty"`
	Downsampled []float64 `json:"downsampled"`
}

// Analysis contains automatically computed insights.
type Analysis struct {
	Peaks        []Peak          `json:"peaks,omitempty"`
	Troughs      []Peak          `json:"troughs,omitempty"`
	Crossings    []Crossing      `json:"crossings,omitempty"`
	SteadyState  *SteadyState    `json:"steadyState,omitempty"`
	Conservation *Conservation   `json:"conservation,omitempty"`
	Statistics   map[string]Stat `json:"statistics,omitempty"`
}

// Peak represents a local maximum or minimum of one compartment.
type Peak struct {
	Variable   string  `json:"variable"`
	Time       float64 `json:"time"`
	Value      float64 `json:"value"`
	Prominence float64 `json:"prominence,omitempty"`
}

// Crossing represents where two compartments intersect, e.g. the moment the
// recovered fraction overtakes the susceptible fraction.
type Crossing struct {
	Var1  string  `json:"var1"`
	Var2  string  `json:"var2"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// SteadyState contains equilibrium analysis.
type SteadyState struct {
	Reached   bool               `json:"reached"`
	Time      float64            `json:"time,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
	Tolerance float64            `json:"tolerance"`
}

// Conservation tracks the conserved-mass invariant of compartmental models.
type Conservation struct {
	Total      MassBalance `json:"total"`
	Declared   bool        `json:"declared"` // model claims conservation
	MaxDrift   float64     `json:"maxDrift"` // worst |sum(t) - sum(t0)| over the series
	RelativeTo float64     `json:"relativeTo"`
}

// MassBalance tracks total compartment mass.
type MassBalance struct {
	Initial   float64 `json:"initial"`
	Final     float64 `json:"final"`
	Conserved bool    `json:"conserved"`
}

// Stat contains a statistical summary of one compartment series.
type Stat struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}
