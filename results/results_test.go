package results

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

func buildSIRResults(t *testing.T, tspan [2]float64) *Results {
	t.Helper()
	m, _ := model.ByName("sir")
	prob := solver.NewProblem(m, nil, nil, tspan)
	tr, err := solver.Solve(prob, solver.Tsit5(), solver.DefaultOptions())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	return NewBuilder().
		WithModel(m, prob.Params).
		WithSimulation(m, prob.U0, prob.Tspan, 0, solver.DefaultOptions()).
		WithTrajectory(tr, "tsit5", 0.01, 150).
		WithDerived(map[string]float64{"R0": 1.2375}).
		Build()
}

func TestBuilderBasics(t *testing.T) {
	res := buildSIRResults(t, [2]float64{0, 200})

	if res.Version != SchemaVersion {
		t.Errorf("Expected version %s, got %s", SchemaVersion, res.Version)
	}
	if res.Metadata.RunID == "" {
		t.Error("Expected a run id")
	}
	if res.Metadata.Status != "success" {
		t.Errorf("Expected status success, got %s", res.Metadata.Status)
	}
	if res.Model.Name != "sir" {
		t.Errorf("Expected model sir, got %s", res.Model.Name)
	}
	if res.Model.Params["r"] != 0.125 {
		t.Errorf("Expected r=0.125 in params map, got %v", res.Model.Params)
	}
	if !res.Model.Conserved {
		t.Error("SIR should declare conservation")
	}
	if res.Results.Summary.Points == 0 {
		t.Error("Expected a nonzero point count")
	}
	if res.Results.Summary.Derived["R0"] != 1.2375 {
		t.Errorf("Expected derived R0, got %v", res.Results.Summary.Derived)
	}

	// Downsampled series capped at the requested target.
	for name, series := range res.Results.Timeseries.Variables {
		if len(series.Downsampled) > 150 {
			t.Errorf("%s: downsampled series has %d points", name, len(series.Downsampled))
		}
	}
}

func TestBuilderWithError(t *testing.T) {
	m, _ := model.ByName("sir")
	res := NewBuilder().
		WithModel(m, m.DefaultParams()).
		WithError(solver.ErrMaxIters).
		Build()

	if res.Metadata.Status != "error" {
		t.Errorf("Expected status error, got %s", res.Metadata.Status)
	}
	if res.Metadata.Error == "" {
		t.Error("Expected the error message to be recorded")
	}
}

func TestAnalyzerSIR(t *testing.T) {
	res := buildSIRResults(t, [2]float64{0, 400})
	analysis := NewAnalyzer(res).ComputeAll()

	// The infectious curve rises and falls exactly once.
	foundI := false
	for _, p := range analysis.Peaks {
		if p.Variable == "I" {
			foundI = true
			if p.Value <= 0.01 {
				t.Errorf("Expected infectious peak above 0.01, got %f", p.Value)
			}
		}
	}
	if !foundI {
		t.Error("Expected a peak for I")
	}

	if analysis.Conservation == nil {
		t.Fatal("Expected conservation analysis")
	}
	if !analysis.Conservation.Declared {
		t.Error("SIR declares conservation")
	}
	if !analysis.Conservation.Total.Conserved {
		t.Errorf("Expected conserved total, max drift %g", analysis.Conservation.MaxDrift)
	}

	if len(analysis.Statistics) == 0 {
		t.Error("Expected per-compartment statistics")
	}
	if s, ok := analysis.Statistics["S"]; ok {
		if s.Max > 0.99+1e-9 || s.Min < 0 {
			t.Errorf("S statistics out of range: min=%f max=%f", s.Min, s.Max)
		}
	}
}

func TestExtractMetrics(t *testing.T) {
	res := buildSIRResults(t, [2]float64{0, 400})
	res.Analysis = NewAnalyzer(res).ComputeAll()

	metrics := ExtractMetrics(res)
	if metrics.MaxPeakVar != "I" {
		t.Errorf("Expected the infectious peak to dominate, got %s", metrics.MaxPeakVar)
	}
	if metrics.MaxPeak <= 0.01 {
		t.Errorf("Expected peak above initial fraction, got %f", metrics.MaxPeak)
	}
	if !metrics.Conserved {
		t.Error("Expected conserved mass")
	}
	if len(metrics.FinalState) != 3 {
		t.Errorf("Expected 3 final state entries, got %d", len(metrics.FinalState))
	}
}

func TestRankVariants(t *testing.T) {
	variants := []VariantResult{
		{ID: 0, Score: 3.0},
		{ID: 1, Score: 1.0},
		{ID: 2, Score: 2.0},
	}
	RankVariants(variants)

	if variants[0].ID != 1 || variants[1].ID != 2 || variants[2].ID != 0 {
		t.Errorf("Expected order [1 2 0], got [%d %d %d]",
			variants[0].ID, variants[1].ID, variants[2].ID)
	}
	for i, v := range variants {
		if v.Rank != i+1 {
			t.Errorf("Variant %d: expected rank %d, got %d", v.ID, i+1, v.Rank)
		}
	}
}

func TestObjectives(t *testing.T) {
	res := buildSIRResults(t, [2]float64{0, 400})
	res.Analysis = NewAnalyzer(res).ComputeAll()

	score, err := Objectives["minimize_peak"](res)
	if err != nil {
		t.Fatalf("minimize_peak failed: %v", err)
	}
	if score <= 0 {
		t.Errorf("Expected positive peak score, got %f", score)
	}

	susceptible, err := Objectives["maximize_final_susceptible"](res)
	if err != nil {
		t.Fatalf("maximize_final_susceptible failed: %v", err)
	}
	if susceptible >= 0 {
		t.Errorf("Maximization objectives negate, expected negative score, got %f", susceptible)
	}

	if _, err := Objectives["minimize_deaths"](res); err == nil {
		t.Error("SIR has no D compartment; expected an error")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	res := buildSIRResults(t, [2]float64{0, 100})
	res.Analysis = NewAnalyzer(res).ComputeAll()

	path := filepath.Join(t.TempDir(), "results.json")
	if err := WriteJSON(res, path); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	loaded, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}

	if loaded.Metadata.RunID != res.Metadata.RunID {
		t.Error("Run id lost in round trip")
	}
	if loaded.Model.Name != "sir" {
		t.Errorf("Expected model sir, got %s", loaded.Model.Name)
	}
	lf := loaded.Results.Summary.FinalState["S"]
	rf := res.Results.Summary.FinalState["S"]
	if math.Abs(lf-rf) > 1e-12 {
		t.Errorf("Final state changed in round trip: %f vs %f", lf, rf)
	}
}
