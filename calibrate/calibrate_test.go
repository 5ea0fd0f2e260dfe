package calibrate

import (
	"math"
	"testing"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

func TestNewDatasetValidation(t *testing.T) {
	if _, err := NewDataset(nil, nil); err == nil {
		t.Error("Expected error for empty times")
	}

	_, err := NewDataset([]float64{0, 1, 2}, map[string][]float64{"I": {0.1, 0.2}})
	if err == nil {
		t.Error("Expected error for mismatched lengths")
	}

	data, err := NewDataset([]float64{0, 1, 2}, map[string][]float64{"I": {0.1, 0.2, 0.3}})
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	if len(data.Labels) != 1 || data.Labels[0] != "I" {
		t.Errorf("Expected labels [I], got %v", data.Labels)
	}
}

func TestMSELossZeroOnOwnTrajectory(t *testing.T) {
	m, _ := model.ByName("sir")
	prob := solver.NewProblem(m, nil, nil, [2]float64{0, 100})
	tr, err := solver.Solve(prob, solver.Tsit5(), solver.DefaultOptions())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	times := GenerateUniformTimes(0, 100, 21)
	values := make([]float64, len(times))
	for i, tq := range times {
		values[i] = tr.Value(tq, 1)
	}
	data, _ := NewDataset(times, map[string][]float64{"I": values})

	if loss := MSELoss(tr, data); loss > 1e-20 {
		t.Errorf("Loss against own samples should vanish, got %g", loss)
	}
	if loss := RMSELoss(tr, data); loss > 1e-10 {
		t.Errorf("RMSE against own samples should vanish, got %g", loss)
	}
}

func TestGenerateUniformTimes(t *testing.T) {
	times := GenerateUniformTimes(0, 10, 11)
	if len(times) != 11 {
		t.Fatalf("Expected 11 times, got %d", len(times))
	}
	if times[0] != 0 || times[10] != 10 {
		t.Errorf("Expected span [0, 10], got [%f, %f]", times[0], times[10])
	}
}

func TestNewProblemFreeNames(t *testing.T) {
	m, _ := model.ByName("sir")
	if _, err := NewProblem(m, nil, [2]float64{0, 100}, nil, []string{"beta"}); err == nil {
		t.Error("Expected error for unknown free parameter")
	}

	prob, err := NewProblem(m, nil, [2]float64{0, 100}, nil, []string{"r"})
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}
	if len(prob.freeIndices()) != 1 {
		t.Errorf("Expected one free parameter, got %d", len(prob.freeIndices()))
	}
}

// synthetic recovery: generate data with known rates, start the fit from a
// perturbed guess, and check the optimizer closes most of the gap.
func fitSyntheticSIR(t *testing.T, optimizer string, iters int) *FitResult {
	t.Helper()
	m, _ := model.ByName("sir")
	trueParams := []float64{0.2, 0.08}
	tspan := [2]float64{0, 120}

	truthProb := solver.NewProblem(m, nil, trueParams, tspan)
	truth, err := solver.Solve(truthProb, solver.Tsit5(), solver.DefaultOptions())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	times := GenerateUniformTimes(0, 120, 25)
	values := make([]float64, len(times))
	for i, tq := range times {
		values[i] = truth.Value(tq, 1)
	}
	data, _ := NewDataset(times, map[string][]float64{"I": values})

	guess := []float64{0.15, 0.11}
	prob, err := NewProblem(m, nil, tspan, guess, []string{"r", "a"})
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}

	opts := DefaultFitOptions()
	opts.Method = optimizer
	opts.MaxIters = iters
	opts.Tolerance = 1e-10

	result, err := Fit(prob, data, MSELoss, opts)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return result
}

func TestFitGradientDescent(t *testing.T) {
	result := fitSyntheticSIR(t, "gradient-descent", 300)

	if result.FinalLoss >= result.InitialLoss {
		t.Errorf("Loss did not decrease: %g -> %g", result.InitialLoss, result.FinalLoss)
	}
	if result.FinalLoss > result.InitialLoss*0.1 {
		t.Errorf("Expected at least 10x loss reduction, got %g -> %g",
			result.InitialLoss, result.FinalLoss)
	}
}

func TestFitNelderMead(t *testing.T) {
	result := fitSyntheticSIR(t, "nelder-mead", 300)

	if result.FinalLoss > result.InitialLoss*0.1 {
		t.Errorf("Expected at least 10x loss reduction, got %g -> %g",
			result.InitialLoss, result.FinalLoss)
	}
	// Nelder-Mead on this smooth two-parameter problem should land close
	// to the true rates.
	if math.Abs(result.Params[0]-0.2) > 0.05 {
		t.Errorf("Expected r near 0.2, got %f", result.Params[0])
	}
}

func TestFitUnknownOptimizer(t *testing.T) {
	m, _ := model.ByName("sir")
	prob, _ := NewProblem(m, nil, [2]float64{0, 10}, nil, []string{"r"})
	data, _ := NewDataset([]float64{0, 5, 10}, map[string][]float64{"I": {0.01, 0.02, 0.03}})

	opts := DefaultFitOptions()
	opts.Method = "simulated-annealing"
	if _, err := Fit(prob, data, MSELoss, opts); err == nil {
		t.Error("Expected error for unknown optimizer")
	}
}
