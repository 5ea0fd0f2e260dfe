// Package model defines the population-dynamics and epidemic models as
// explicit derivative functions over dense state vectors. Each model carries
// its compartment labels and parameter specs so callers can build initial
// states, parameter vectors, and UI bindings without hardcoding offsets.
package model

import "fmt"

// DerivFunc computes du/dt given time t, state u, and parameters p.
// Implementations must be pure: no side effects, no retained state, and no
// mutation of u or p.
type DerivFunc func(t float64, u, p []float64) []float64

// ParamSpec describes one model parameter: its name, default value, and the
// range/step used when the parameter is driven from a slider or a sweep.
type ParamSpec struct {
	Name    string
	Default float64
	Min     float64
	Max     float64
	Step    float64
}

// Model is a tagged population-dynamics model variant.
type Model struct {
	Name         string
	Compartments []string
	Params       []ParamSpec
	Deriv        DerivFunc

	// Conserved is true when the compartments sum to a constant total for
	// all t (every outflow is another compartment's inflow).
	Conserved bool

	// DefaultState is the initial state used when a caller supplies none.
	DefaultState []float64

	// DefaultTspan is a reasonable display time span for the model.
	DefaultTspan [2]float64
}

// Dim returns the number of state compartments.
func (m *Model) Dim() int { return len(m.Compartments) }

// DefaultParams returns the parameter vector built from spec defaults.
func (m *Model) DefaultParams() []float64 {
	p := make([]float64, len(m.Params))
	for i, spec := range m.Params {
		p[i] = spec.Default
	}
	return p
}

// ParamIndex returns the index of the named parameter, or -1.
func (m *Model) ParamIndex(name string) int {
	for i, spec := range m.Params {
		if spec.Name == name {
			return i
		}
	}
	return -1
}

// CompartmentIndex returns the index of the named compartment, or -1.
func (m *Model) CompartmentIndex(label string) int {
	for i, c := range m.Compartments {
		if c == label {
			return i
		}
	}
	return -1
}

// registry of built-in models, keyed by lowercase name.
var registry = map[string]*Model{}

func register(m *Model) *Model {
	registry[m.Name] = m
	return m
}

// ByName looks up a built-in model. Model selection is always explicit;
// there is no fallback.
func ByName(name string) (*Model, error) {
	if m, ok := registry[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown model %q (use one of %v)", name, Names())
}

// Names returns the registered model names in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, m := range []*Model{Constant, Exponential, Logistic, LotkaVolterra, SIR, SIRVD} {
		names = append(names, m.Name)
	}
	return names
}
