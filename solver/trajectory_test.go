package solver

import (
	"math"
	"testing"

	"github.com/popdyn-xyz/go-popdyn/model"
)

func solveExponential(t *testing.T) *Trajectory {
	t.Helper()
	m, _ := model.ByName("exponential")
	prob := NewProblem(m, []float64{20}, []float64{0.05}, [2]float64{0, 50})
	tr, err := Solve(prob, Tsit5(), DefaultOptions())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	return tr
}

func TestTrajectoryDenseOutput(t *testing.T) {
	tr := solveExponential(t)

	// The interpolant must agree with the closed form between steps, not
	// just at the accepted step points.
	for _, tq := range []float64{0.5, 7.3, 19.99, 33.1, 49.5} {
		want := 20 * math.Exp(0.05*tq)
		got := tr.Value(tq, 0)
		if math.Abs(got-want)/want > 1e-3 {
			t.Errorf("Value(%g): expected %f, got %f", tq, want, got)
		}
	}
}

func TestTrajectoryAtEndpoints(t *testing.T) {
	tr := solveExponential(t)

	u0 := tr.At(0)
	if u0[0] != 20 {
		t.Errorf("At(t0): expected 20, got %f", u0[0])
	}

	uf := tr.At(50)
	if uf[0] != tr.FinalState()[0] {
		t.Errorf("At(tf): expected %f, got %f", tr.FinalState()[0], uf[0])
	}

	// Queries outside the span clamp to the endpoints.
	if tr.At(-10)[0] != 20 {
		t.Error("Expected clamp to initial state before t0")
	}
	if tr.At(1e9)[0] != tr.FinalState()[0] {
		t.Error("Expected clamp to final state after tf")
	}
}

func TestTrajectoryDerivativeAt(t *testing.T) {
	tr := solveExponential(t)

	// For dP/dt = r*P the derivative at any t is r*P(t).
	for _, tq := range []float64{1.5, 12.0, 40.7} {
		p := tr.Value(tq, 0)
		want := 0.05 * p
		got := tr.DerivativeAt(tq, 0)
		if math.Abs(got-want)/want > 1e-2 {
			t.Errorf("DerivativeAt(%g): expected %f, got %f", tq, want, got)
		}
	}
}

func TestTrajectoryIndex(t *testing.T) {
	tr := solveExponential(t)
	if idx := tr.Index("P"); idx != 0 {
		t.Errorf("Expected index 0 for P, got %d", idx)
	}
	if idx := tr.Index("Q"); idx != -1 {
		t.Errorf("Expected -1 for unknown label, got %d", idx)
	}
}

func TestTrajectoryVariable(t *testing.T) {
	tr := solveExponential(t)

	byLabel := tr.Variable("P")
	byIndex := tr.Variable(0)
	if len(byLabel) != tr.Len() || len(byIndex) != tr.Len() {
		t.Fatalf("Expected %d values, got %d and %d", tr.Len(), len(byLabel), len(byIndex))
	}
	for i := range byLabel {
		if byLabel[i] != byIndex[i] {
			t.Fatalf("Label and index access disagree at step %d", i)
		}
	}
}

func TestTrajectorySample(t *testing.T) {
	tr := solveExponential(t)

	times, states := tr.Sample(101)
	if len(times) != 101 || len(states) != 101 {
		t.Fatalf("Expected 101 samples, got %d and %d", len(times), len(states))
	}
	if times[0] != 0 || math.Abs(times[100]-50) > 1e-12 {
		t.Errorf("Expected samples spanning [0, 50], got [%f, %f]", times[0], times[100])
	}

	// Uniform spacing
	dt := times[1] - times[0]
	for i := 2; i < len(times); i++ {
		if math.Abs((times[i]-times[i-1])-dt) > 1e-9 {
			t.Fatalf("Non-uniform sample spacing at %d", i)
		}
	}
}

func TestTrajectorySinglePoint(t *testing.T) {
	// A degenerate span produces a one-point trajectory; queries must still
	// answer rather than index past the end.
	m, _ := model.ByName("exponential")
	prob := NewProblem(m, []float64{20}, []float64{0.05}, [2]float64{50, 50})
	tr, err := Solve(prob, Tsit5(), DefaultOptions())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if len(tr.T) != 1 {
		t.Fatalf("Expected a single step point, got %d", len(tr.T))
	}

	u := tr.At(50)
	if u[0] != 20 {
		t.Errorf("At: expected 20, got %f", u[0])
	}
	if got := tr.DerivativeAt(50, 0); math.Abs(got-0.05*20) > 1e-12 {
		t.Errorf("DerivativeAt: expected %f, got %f", 0.05*20, got)
	}

	times, states := tr.Sample(5)
	for i := range times {
		if times[i] != 50 || states[i][0] != 20 {
			t.Fatalf("Sample %d: expected (50, 20), got (%f, %f)", i, times[i], states[i][0])
		}
	}
}
