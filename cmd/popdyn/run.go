package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/scenario"
	"github.com/popdyn-xyz/go-popdyn/solver"
	"github.com/popdyn-xyz/go-popdyn/summary"
)

// runFlags is the shared flag surface for commands that run a simulation.
// A scenario file sets the baseline; any explicit flag overrides it.
type runFlags struct {
	scenarioFile *string
	modelName    *string
	method       *string
	preset       *string
	timeStart    *float64
	timeEnd      *float64
	population   *float64
	paramFlags   *string
	initialFlags *string
}

func addRunFlags(fs *flag.FlagSet) *runFlags {
	return &runFlags{
		scenarioFile: fs.String("scenario", "", "Scenario YAML file"),
		modelName:    fs.String("model", "", "Model name (see 'popdyn models')"),
		method:       fs.String("method", "", "Solver method (tsit5, rk45, bs32, rk4, heun, midpoint, euler)"),
		preset:       fs.String("preset", "", "Solver options preset (default, fast, accurate, stiff, epidemic, longrun)"),
		timeStart:    fs.Float64("start", 0.0, "Start time"),
		timeEnd:      fs.Float64("time", 0.0, "End time (0 = model default)"),
		population:   fs.Float64("population", 0.0, "Population scale for reported counts"),
		paramFlags:   fs.String("params", "", "Override parameters (format: r=0.125,a=0.1)"),
		initialFlags: fs.String("initial", "", "Override initial state (format: S=0.99,I=0.01)"),
	}
}

// resolve builds a solvable problem from the flags, layering scenario file,
// model defaults, and explicit overrides in that order.
func (rf *runFlags) resolve() (*model.Model, *solver.Problem, *solver.Method, *solver.Options, float64, error) {
	sc := &scenario.Scenario{}
	if *rf.scenarioFile != "" {
		loaded, err := scenario.Load(*rf.scenarioFile)
		if err != nil {
			return nil, nil, nil, nil, 0, err
		}
		sc = loaded
	}

	if *rf.modelName != "" {
		sc.Model = *rf.modelName
	}
	if sc.Model == "" {
		return nil, nil, nil, nil, 0, fmt.Errorf("-model or -scenario required")
	}
	if *rf.method != "" {
		sc.Method = *rf.method
	}
	if *rf.preset != "" {
		sc.Preset = *rf.preset
	}
	if *rf.timeEnd != 0 {
		sc.Tspan = [2]float64{*rf.timeStart, *rf.timeEnd}
	}
	if *rf.population != 0 {
		sc.Population = *rf.population
	}

	if *rf.paramFlags != "" {
		overrides, err := parseKeyValue(*rf.paramFlags)
		if err != nil {
			return nil, nil, nil, nil, 0, fmt.Errorf("parse params: %w", err)
		}
		if sc.Params == nil {
			sc.Params = map[string]float64{}
		}
		for k, v := range overrides {
			sc.Params[k] = v
		}
	}
	if *rf.initialFlags != "" {
		overrides, err := parseKeyValue(*rf.initialFlags)
		if err != nil {
			return nil, nil, nil, nil, 0, fmt.Errorf("parse initial state: %w", err)
		}
		if sc.Initial == nil {
			sc.Initial = map[string]float64{}
		}
		for k, v := range overrides {
			sc.Initial[k] = v
		}
	}

	prob, method, opts, err := sc.Resolve()
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	m, err := model.ByName(sc.Model)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	return m, prob, method, opts, sc.Population, nil
}

// parseKeyValue parses "key1=v1,key2=v2" into a map.
func parseKeyValue(s string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid pair %q (expected key=value)", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", pair, err)
		}
		result[strings.TrimSpace(parts[0])] = value
	}
	return result, nil
}

// parseFloatList parses "10,25,50" into a float slice.
func parseFloatList(s string) ([]float64, error) {
	var out []float64
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", tok, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// derivedQuantities computes closed-form epidemic numbers when the model
// exposes the rates they need.
func derivedQuantities(m *model.Model, prob *solver.Problem) map[string]float64 {
	ri, ai := m.ParamIndex("r"), m.ParamIndex("a")
	si := m.CompartmentIndex("S")
	if ri < 0 || ai < 0 || si < 0 {
		return nil
	}
	r, a := prob.Params[ri], prob.Params[ai]
	if a == 0 {
		return nil
	}
	return map[string]float64{
		"R0":               summary.BasicReproductionNumber(r, prob.U0[si], a),
		"infectiousPeriod": summary.InfectiousPeriod(a),
	}
}
