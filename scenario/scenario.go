// Package scenario loads simulation scenarios from YAML files: which model
// to run, with what parameters and initial state, over which span, and how.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

// Scenario is one simulation configuration. Parameters and initial state are
// keyed by name; anything omitted falls back to the model's defaults.
type Scenario struct {
	Name       string             `yaml:"name"`
	Model      string             `yaml:"model"`
	Method     string             `yaml:"method"`
	Preset     string             `yaml:"preset"`
	Tspan      [2]float64         `yaml:"tspan"`
	Population float64            `yaml:"population"`
	Params     map[string]float64 `yaml:"params"`
	Initial    map[string]float64 `yaml:"initial"`
	Output     Output             `yaml:"output"`
}

// Output configures what a run of this scenario writes.
type Output struct {
	Results     string `yaml:"results"`     // results JSON path
	Plot        string `yaml:"plot"`        // SVG path
	Downsample  int    `yaml:"downsample"`  // target series length
	StoreInDB   bool   `yaml:"store"`       // archive the run
	Compartment string `yaml:"compartment"` // focus compartment for summaries
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Model == "" {
		return nil, fmt.Errorf("scenario %s: model is required", path)
	}
	return &sc, nil
}

// Save writes a scenario to a YAML file.
func (sc *Scenario) Save(path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scenario: %w", err)
	}
	return nil
}

// Resolve turns the scenario into a solvable problem plus solver settings.
// Unknown parameter or compartment names are errors; silent typos in a
// scenario file would otherwise just run the defaults.
func (sc *Scenario) Resolve() (*solver.Problem, *solver.Method, *solver.Options, error) {
	m, err := model.ByName(sc.Model)
	if err != nil {
		return nil, nil, nil, err
	}

	params := m.DefaultParams()
	for name, v := range sc.Params {
		idx := m.ParamIndex(name)
		if idx < 0 {
			return nil, nil, nil, fmt.Errorf("model %s has no parameter %q", m.Name, name)
		}
		params[idx] = v
	}

	u0 := append([]float64(nil), m.DefaultState...)
	for label, v := range sc.Initial {
		idx := m.CompartmentIndex(label)
		if idx < 0 {
			return nil, nil, nil, fmt.Errorf("model %s has no compartment %q", m.Name, label)
		}
		u0[idx] = v
	}

	tspan := sc.Tspan
	if tspan[0] == 0 && tspan[1] == 0 {
		tspan = m.DefaultTspan
	}

	method, err := solver.MethodByName(sc.Method)
	if err != nil {
		return nil, nil, nil, err
	}

	opts, err := presetOptions(sc.Preset)
	if err != nil {
		return nil, nil, nil, err
	}

	return solver.NewProblem(m, u0, params, tspan), method, opts, nil
}

// presetOptions resolves a named options preset.
func presetOptions(name string) (*solver.Options, error) {
	switch name {
	case "", "default":
		return solver.DefaultOptions(), nil
	case "fast":
		return solver.FastOptions(), nil
	case "accurate":
		return solver.AccurateOptions(), nil
	case "stiff":
		return solver.StiffOptions(), nil
	case "epidemic":
		return solver.EpidemicOptions(), nil
	case "longrun":
		return solver.LongRunOptions(), nil
	}
	return nil, fmt.Errorf("unknown solver preset %q", name)
}
