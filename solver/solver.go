// Package solver integrates population-dynamics models with explicit
// embedded Runge-Kutta methods and adaptive step-size control.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/popdyn-xyz/go-popdyn/model"
)

// Integration failure sentinels. A failed run produces no trajectory; the
// caller decides what to display (typically nothing).
var (
	// ErrNonFinite reports that a state component overflowed to Inf or NaN.
	ErrNonFinite = errors.New("solver: state became non-finite")

	// ErrMaxIters reports that the iteration budget was exhausted before
	// reaching the end of the time span.
	ErrMaxIters = errors.New("solver: max iterations exceeded")
)

// Problem is an initial value problem: a model, an initial state, a
// parameter vector, and a closed time span. Problems are immutable once
// built; a fresh Problem is created for every parameter change.
type Problem struct {
	Model  *model.Model
	U0     []float64
	Params []float64
	Tspan  [2]float64
}

// NewProblem builds a problem, filling initial state, parameters, and time
// span from the model's defaults when nil/zero.
func NewProblem(m *model.Model, u0, params []float64, tspan [2]float64) *Problem {
	if u0 == nil {
		u0 = append([]float64(nil), m.DefaultState...)
	}
	if params == nil {
		params = m.DefaultParams()
	}
	if tspan[0] == 0 && tspan[1] == 0 {
		tspan = m.DefaultTspan
	}
	return &Problem{Model: m, U0: u0, Params: params, Tspan: tspan}
}

// Options contains solver configuration parameters.
type Options struct {
	Dt       float64 // Initial time step
	Dtmin    float64 // Minimum time step
	Dtmax    float64 // Maximum time step
	Abstol   float64 // Absolute error tolerance
	Reltol   float64 // Relative error tolerance
	Maxiters int     // Maximum number of accepted steps
	Adaptive bool    // Use adaptive step size control
}

// DefaultOptions returns balanced settings suitable for most problems.
func DefaultOptions() *Options {
	return &Options{
		Dt:       0.01,
		Dtmin:    1e-6,
		Dtmax:    1.0,
		Abstol:   1e-6,
		Reltol:   1e-3,
		Maxiters: 100000,
		Adaptive: true,
	}
}

// FastOptions returns options optimized for speed over accuracy.
// Use for interactive parameter scrubbing, where many runs are thrown away.
func FastOptions() *Options {
	return &Options{
		Dt:       0.1,
		Dtmin:    1e-4,
		Dtmax:    1.0,
		Abstol:   1e-2,
		Reltol:   1e-2,
		Maxiters: 10000,
		Adaptive: true,
	}
}

// AccurateOptions returns options for high-precision simulations, e.g. when
// checking conservation invariants or publishing results.
func AccurateOptions() *Options {
	return &Options{
		Dt:       0.001,
		Dtmin:    1e-8,
		Dtmax:    0.1,
		Abstol:   1e-9,
		Reltol:   1e-6,
		Maxiters: 1000000,
		Adaptive: true,
	}
}

// StiffOptions returns options for systems with widely separated time
// scales. Only explicit methods are available, so stability comes from a
// small Dtmax and a generous iteration budget rather than an implicit
// scheme.
func StiffOptions() *Options {
	return &Options{
		Dt:       0.001,
		Dtmin:    1e-10,
		Dtmax:    0.01,
		Abstol:   1e-8,
		Reltol:   1e-5,
		Maxiters: 500000,
		Adaptive: true,
	}
}

// EpidemicOptions returns options for compartmental epidemic models (SIR,
// SIRVD): tight enough that conserved totals hold to display precision over
// spans of hundreds of days.
func EpidemicOptions() *Options {
	return &Options{
		Dt:       0.01,
		Dtmin:    1e-6,
		Dtmax:    0.5,
		Abstol:   1e-6,
		Reltol:   1e-4,
		Maxiters: 200000,
		Adaptive: true,
	}
}

// LongRunOptions returns options for extended spans (equilibrium analysis),
// trading step resolution for coverage.
func LongRunOptions() *Options {
	return &Options{
		Dt:       0.1,
		Dtmin:    1e-4,
		Dtmax:    10.0,
		Abstol:   1e-5,
		Reltol:   1e-3,
		Maxiters: 500000,
		Adaptive: true,
	}
}

// Method is an explicit Runge-Kutta method in Butcher tableau form with an
// embedded error estimator.
type Method struct {
	Name  string
	Order int
	C     []float64   // Runge-Kutta nodes
	A     [][]float64 // Runge-Kutta matrix
	B     []float64   // Solution weights
	Bhat  []float64   // Error estimate weights
}

// MethodByName resolves a method from its CLI/scenario name.
func MethodByName(name string) (*Method, error) {
	switch name {
	case "", "tsit5":
		return Tsit5(), nil
	case "rk45", "dopri5":
		return RK45(), nil
	case "bs32":
		return BS32(), nil
	case "rk4":
		return RK4(), nil
	case "heun":
		return Heun(), nil
	case "midpoint":
		return Midpoint(), nil
	case "euler":
		return Euler(), nil
	}
	return nil, fmt.Errorf("unknown solver method %q", name)
}

// Solve integrates the problem with the given method and options.
// Passing nil selects Tsit5 and DefaultOptions. On failure no trajectory is
// returned; the error wraps ErrNonFinite or ErrMaxIters.
//
// Identical inputs always produce the identical trajectory: the loop is
// sequential and allocates all of its own state.
func Solve(prob *Problem, method *Method, opts *Options) (*Trajectory, error) {
	if method == nil {
		method = Tsit5()
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	dtmin := opts.Dtmin
	dtmax := opts.Dtmax
	abstol := opts.Abstol
	reltol := opts.Reltol

	t0 := prob.Tspan[0]
	tf := prob.Tspan[1]
	f := prob.Model.Deriv
	p := prob.Params
	n := len(prob.U0)

	tcur := t0
	ucur := append([]float64(nil), prob.U0...)
	kcur := f(tcur, ucur, p)
	dtcur := opts.Dt
	nsteps := 0

	tOut := []float64{t0}
	uOut := [][]float64{append([]float64(nil), ucur...)}
	kOut := [][]float64{append([]float64(nil), kcur...)}

	numStages := len(method.C)

	for tcur < tf {
		if nsteps >= opts.Maxiters {
			return nil, fmt.Errorf("%w after %d steps at t=%g", ErrMaxIters, nsteps, tcur)
		}

		// Don't overshoot the final time
		if tcur+dtcur > tf {
			dtcur = tf - tcur
		}

		// Compute Runge-Kutta stages
		k := make([][]float64, numStages)
		k[0] = kcur

		for stage := 1; stage < numStages; stage++ {
			tstage := tcur + method.C[stage]*dtcur
			ustage := append([]float64(nil), ucur...)
			for j := 0; j < stage; j++ {
				aj := 0.0
				if len(method.A) > stage && len(method.A[stage]) > j {
					aj = method.A[stage][j]
				}
				if aj != 0 {
					scale := dtcur * aj
					for i := 0; i < n; i++ {
						ustage[i] += scale * k[j][i]
					}
				}
			}
			k[stage] = f(tstage, ustage, p)
		}

		// Candidate solution at the next step
		unext := append([]float64(nil), ucur...)
		for j := 0; j < len(method.B); j++ {
			if method.B[j] != 0 {
				scale := dtcur * method.B[j]
				for i := 0; i < n; i++ {
					unext[i] += scale * k[j][i]
				}
			}
		}

		for i := 0; i < n; i++ {
			if math.IsNaN(unext[i]) || math.IsInf(unext[i], 0) {
				return nil, fmt.Errorf("%w: %s at t=%g", ErrNonFinite,
					prob.Model.Compartments[i], tcur)
			}
		}

		// Error estimate for adaptive stepping
		err := 0.0
		if opts.Adaptive {
			for i := 0; i < n; i++ {
				errest := 0.0
				for j := 0; j < len(method.Bhat); j++ {
					errest += dtcur * method.Bhat[j] * k[j][i]
				}
				scale := abstol + reltol*math.Max(math.Abs(ucur[i]), math.Abs(unext[i]))
				if scale == 0 {
					scale = abstol
				}
				val := math.Abs(errest) / scale
				if val > err {
					err = val
				}
			}
		}

		if !opts.Adaptive || err <= 1.0 || dtcur <= dtmin {
			// Accept step
			tcur += dtcur
			ucur = unext
			kcur = f(tcur, ucur, p)
			tOut = append(tOut, tcur)
			uOut = append(uOut, append([]float64(nil), ucur...))
			kOut = append(kOut, append([]float64(nil), kcur...))
			nsteps++

			if opts.Adaptive && err > 0 {
				factor := 0.9 * math.Pow(1.0/err, 1.0/float64(method.Order+1))
				factor = math.Min(factor, 5.0)
				dtcur = math.Min(dtmax, math.Max(dtmin, dtcur*factor))
			}
		} else {
			// Reject step and shrink
			factor := 0.9 * math.Pow(1.0/err, 1.0/float64(method.Order+1))
			factor = math.Max(factor, 0.1)
			dtcur = math.Max(dtmin, dtcur*factor)
		}
	}

	return &Trajectory{
		T:      tOut,
		U:      uOut,
		K:      kOut,
		Labels: append([]string(nil), prob.Model.Compartments...),
	}, nil
}
