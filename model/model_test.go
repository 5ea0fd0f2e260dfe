package model

import (
	"math"
	"testing"
)

func TestRegistry(t *testing.T) {
	names := Names()
	if len(names) != 6 {
		t.Fatalf("Expected 6 registered models, got %d", len(names))
	}

	for _, name := range names {
		m, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q) failed: %v", name, err)
		}
		if m.Name != name {
			t.Errorf("Expected name %q, got %q", name, m.Name)
		}
		if len(m.DefaultState) != len(m.Compartments) {
			t.Errorf("%s: default state has %d entries for %d compartments",
				name, len(m.DefaultState), len(m.Compartments))
		}
		if m.Deriv == nil {
			t.Errorf("%s: no derivative function", name)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("SEIR"); err == nil {
		t.Error("Expected error for unknown model")
	}
}

func TestDefaultParams(t *testing.T) {
	m, _ := ByName("sir")
	params := m.DefaultParams()
	if len(params) != 2 {
		t.Fatalf("Expected 2 params, got %d", len(params))
	}
	if params[m.ParamIndex("r")] != 0.125 {
		t.Errorf("Expected r=0.125, got %f", params[m.ParamIndex("r")])
	}
	if params[m.ParamIndex("a")] != 0.1 {
		t.Errorf("Expected a=0.1, got %f", params[m.ParamIndex("a")])
	}

	// Mutating the returned slice must not touch the spec defaults.
	params[0] = 99
	if m.DefaultParams()[0] == 99 {
		t.Error("DefaultParams returned shared storage")
	}
}

func TestParamIndexUnknown(t *testing.T) {
	m, _ := ByName("logistic")
	if idx := m.ParamIndex("beta"); idx != -1 {
		t.Errorf("Expected -1 for unknown parameter, got %d", idx)
	}
	if idx := m.CompartmentIndex("I"); idx != -1 {
		t.Errorf("Expected -1 for unknown compartment, got %d", idx)
	}
}

func TestGrowthDerivatives(t *testing.T) {
	constant, _ := ByName("constant")
	du := constant.Deriv(0, []float64{20}, []float64{0.01})
	if du[0] != 0.01 {
		t.Errorf("Constant growth: expected dP=0.01, got %f", du[0])
	}

	exponential, _ := ByName("exponential")
	du = exponential.Deriv(0, []float64{20}, []float64{0.01})
	if math.Abs(du[0]-0.2) > 1e-12 {
		t.Errorf("Exponential growth: expected dP=0.2, got %f", du[0])
	}

	logistic, _ := ByName("logistic")
	// At carrying capacity the derivative vanishes.
	du = logistic.Deriv(0, []float64{30}, []float64{0.01, 30})
	if math.Abs(du[0]) > 1e-12 {
		t.Errorf("Logistic growth at K: expected dP=0, got %f", du[0])
	}
}

func TestLotkaVolterraEquilibrium(t *testing.T) {
	m, _ := ByName("lotka-volterra")
	// The nontrivial fixed point is N=d/c, P=a/b.
	a, b, c, d := 1.0, 0.1, 0.02, 0.5
	du := m.Deriv(0, []float64{d / c, a / b}, []float64{a, b, c, d})
	for i, v := range du {
		if math.Abs(v) > 1e-12 {
			t.Errorf("Expected zero derivative at fixed point, got du[%d]=%g", i, v)
		}
	}
}

func TestSIRMassBalance(t *testing.T) {
	m, _ := ByName("sir")
	du := m.Deriv(0, []float64{0.99, 0.01, 0}, m.DefaultParams())
	sum := du[0] + du[1] + du[2]
	if math.Abs(sum) > 1e-15 {
		t.Errorf("SIR derivatives should sum to zero, got %g", sum)
	}
}

func TestSIRVDMassBalance(t *testing.T) {
	m, _ := ByName("sirvd")
	u := []float64{0.9, 0.05, 0.02, 0.02, 0.01}
	du := m.Deriv(0, u, m.DefaultParams())
	if len(du) != 5 {
		t.Fatalf("Expected 5 derivatives, got %d", len(du))
	}
	sum := 0.0
	for _, v := range du {
		sum += v
	}
	if math.Abs(sum) > 1e-15 {
		t.Errorf("SIRVD derivatives should sum to zero, got %g", sum)
	}
}
