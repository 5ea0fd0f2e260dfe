package sensitivity

import (
	"math"
	"testing"

	"github.com/popdyn-xyz/go-popdyn/model"
)

func newSIRAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	m, _ := model.ByName("sir")
	return NewAnalyzer(m, nil, nil, PeakScorer("I")).WithTimeSpan(0, 400)
}

func TestAnalyze(t *testing.T) {
	a := newSIRAnalyzer(t)
	result := a.Analyze(1.1)

	if result.Baseline <= 0.01 {
		t.Errorf("Expected positive baseline peak, got %f", result.Baseline)
	}
	if len(result.Scores) != 2 {
		t.Fatalf("Expected scores for both parameters, got %d", len(result.Scores))
	}

	// Raising the infection rate raises the peak; raising the recovery
	// rate lowers it.
	if result.Impact["r"] <= 0 {
		t.Errorf("Expected positive impact for r, got %f", result.Impact["r"])
	}
	if result.Impact["a"] >= 0 {
		t.Errorf("Expected negative impact for a, got %f", result.Impact["a"])
	}

	if len(result.Ranking) != 2 {
		t.Fatalf("Expected 2 ranked parameters, got %d", len(result.Ranking))
	}
	if math.Abs(result.Ranking[0].Impact) < math.Abs(result.Ranking[1].Impact) {
		t.Error("Ranking should be ordered by absolute impact")
	}
}

func TestAnalyzeParallelMatchesSequential(t *testing.T) {
	a := newSIRAnalyzer(t)
	seq := a.Analyze(1.1)
	par := a.AnalyzeParallel(1.1)

	if seq.Baseline != par.Baseline {
		t.Errorf("Baselines differ: %f vs %f", seq.Baseline, par.Baseline)
	}
	for name, v := range seq.Scores {
		if par.Scores[name] != v {
			t.Errorf("Score for %s differs: %f vs %f", name, v, par.Scores[name])
		}
	}
}

func TestSweep(t *testing.T) {
	a := newSIRAnalyzer(t)
	values := []float64{0.1, 0.15, 0.2, 0.25}
	sweep := a.Sweep("r", values)

	if len(sweep.Scores) != len(values) {
		t.Fatalf("Expected %d scores, got %d", len(values), len(sweep.Scores))
	}
	// Higher infection rates produce higher peaks, so scores increase.
	for i := 1; i < len(sweep.Scores); i++ {
		if sweep.Scores[i] <= sweep.Scores[i-1] {
			t.Errorf("Expected increasing peaks along the sweep, got %v", sweep.Scores)
		}
	}
}

func TestSweepRange(t *testing.T) {
	a := newSIRAnalyzer(t)
	sweep := a.SweepRange("r", 0.1, 0.3, 5)

	if len(sweep.Values) != 5 {
		t.Fatalf("Expected 5 values, got %d", len(sweep.Values))
	}
	if sweep.Values[0] != 0.1 || sweep.Values[4] != 0.3 {
		t.Errorf("Expected range endpoints [0.1, 0.3], got [%f, %f]",
			sweep.Values[0], sweep.Values[4])
	}
}

func TestSweepRangeSingleStep(t *testing.T) {
	a := newSIRAnalyzer(t)
	sweep := a.SweepRange("r", 0.1, 0.3, 1)

	if len(sweep.Values) != 1 {
		t.Fatalf("Expected 1 value, got %d", len(sweep.Values))
	}
	if math.Abs(sweep.Values[0]-0.2) > 1e-12 {
		t.Errorf("Expected the midpoint 0.2, got %f", sweep.Values[0])
	}
	if math.IsNaN(sweep.Scores[0]) {
		t.Error("Expected a finite score for the midpoint")
	}
}

func TestGradient(t *testing.T) {
	a := newSIRAnalyzer(t)

	// dPeak/dr > 0, dPeak/da < 0.
	if g := a.Gradient("r", 1e-4); g <= 0 {
		t.Errorf("Expected positive gradient for r, got %f", g)
	}
	if g := a.Gradient("a", 1e-4); g >= 0 {
		t.Errorf("Expected negative gradient for a, got %f", g)
	}
}
