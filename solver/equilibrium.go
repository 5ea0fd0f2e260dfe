package solver

import (
	"fmt"
	"math"
)

// EquilibriumOptions configures equilibrium detection during solving.
type EquilibriumOptions struct {
	// Tolerance for determining equilibrium (max |du/dt| per step)
	Tolerance float64
	// Number of consecutive checks below tolerance required
	ConsecutiveSteps int
	// Minimum time before checking for equilibrium
	MinTime float64
	// Check interval (check every N accepted steps, 0 = every step)
	CheckInterval int
}

// DefaultEquilibriumOptions returns sensible defaults.
func DefaultEquilibriumOptions() *EquilibriumOptions {
	return &EquilibriumOptions{
		Tolerance:        1e-6,
		ConsecutiveSteps: 5,
		MinTime:          0.1,
		CheckInterval:    10,
	}
}

// StrictEquilibriumOptions returns options for high-confidence detection,
// e.g. when classifying an endemic equilibrium.
func StrictEquilibriumOptions() *EquilibriumOptions {
	return &EquilibriumOptions{
		Tolerance:        1e-9,
		ConsecutiveSteps: 10,
		MinTime:          1.0,
		CheckInterval:    1,
	}
}

// EquilibriumResult describes how and whether a run settled.
type EquilibriumResult struct {
	Reached   bool      // Whether equilibrium was detected
	Time      float64   // Time of detection (or of the final step)
	State     []float64 // State at detection
	MaxChange float64   // Max |du/dt| at the final state
	Steps     int       // Accepted steps taken
	Reason    string    // "equilibrium_reached" or "time_exhausted"
}

// SolveUntilEquilibrium integrates until the system settles (all derivatives
// stay below tolerance for the required number of checks) or the span is
// exhausted. Growth models never settle and simply run to tf; logistic and
// epidemic models settle at carrying capacity / epidemic burnout.
func SolveUntilEquilibrium(prob *Problem, method *Method, opts *Options, eqOpts *EquilibriumOptions) (*Trajectory, *EquilibriumResult, error) {
	if method == nil {
		method = Tsit5()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if eqOpts == nil {
		eqOpts = DefaultEquilibriumOptions()
	}

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
	consecutiveSmall := 0
	checkCounter := 0

	tOut := []float64{t0}
	uOut := [][]float64{append([]float64(nil), ucur...)}
	kOut := [][]float64{append([]float64(nil), kcur...)}

	numStages := len(method.C)

	eq := &EquilibriumResult{Reason: "time_exhausted"}

	for tcur < tf {
		if nsteps >= opts.Maxiters {
			return nil, nil, fmt.Errorf("%w after %d steps at t=%g", ErrMaxIters, nsteps, tcur)
		}
		if tcur+dtcur > tf {
			dtcur = tf - tcur
		}

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
				return nil, nil, fmt.Errorf("%w: %s at t=%g", ErrNonFinite,
					prob.Model.Compartments[i], tcur)
			}
		}

		err := 0.0
		if opts.Adaptive {
			for i := 0; i < n; i++ {
				errest := 0.0
				for j := 0; j < len(method.Bhat); j++ {
					errest += dtcur * method.Bhat[j] * k[j][i]
				}
				scale := opts.Abstol + opts.Reltol*math.Max(math.Abs(ucur[i]), math.Abs(unext[i]))
				if scale == 0 {
					scale = opts.Abstol
				}
				val := math.Abs(errest) / scale
				if val > err {
					err = val
				}
			}
		}

		if !opts.Adaptive || err <= 1.0 || dtcur <= opts.Dtmin {
			tcur += dtcur
			ucur = unext
			kcur = f(tcur, ucur, p)
			tOut = append(tOut, tcur)
			uOut = append(uOut, append([]float64(nil), ucur...))
			kOut = append(kOut, append([]float64(nil), kcur...))
			nsteps++

			checkCounter++
			if tcur >= t0+eqOpts.MinTime && (eqOpts.CheckInterval == 0 || checkCounter >= eqOpts.CheckInterval) {
				checkCounter = 0
				maxChange := maxAbs(kcur)
				if maxChange < eqOpts.Tolerance {
					consecutiveSmall++
					if consecutiveSmall >= eqOpts.ConsecutiveSteps {
						eq.Reached = true
						eq.Time = tcur
						eq.State = append([]float64(nil), ucur...)
						eq.MaxChange = maxChange
						eq.Reason = "equilibrium_reached"
						break
					}
				} else {
					consecutiveSmall = 0
				}
			}

			if opts.Adaptive && err > 0 {
				factor := 0.9 * math.Pow(1.0/err, 1.0/float64(method.Order+1))
				factor = math.Min(factor, 5.0)
				dtcur = math.Min(opts.Dtmax, math.Max(opts.Dtmin, dtcur*factor))
			}
		} else {
			factor := 0.9 * math.Pow(1.0/err, 1.0/float64(method.Order+1))
			factor = math.Max(factor, 0.1)
			dtcur = math.Max(opts.Dtmin, dtcur*factor)
		}
	}

	eq.Steps = nsteps
	if !eq.Reached {
		eq.Time = tcur
		eq.State = append([]float64(nil), ucur...)
		eq.MaxChange = maxAbs(kcur)
	}

	traj := &Trajectory{
		T:      tOut,
		U:      uOut,
		K:      kOut,
		Labels: append([]string(nil), prob.Model.Compartments...),
	}
	return traj, eq, nil
}

// maxAbs returns the maximum absolute component of a vector.
func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

// IsEquilibrium reports whether a state is stationary for the problem.
func IsEquilibrium(prob *Problem, state []float64, tolerance float64) bool {
	du := prob.Model.Deriv(0, state, prob.Params)
	return maxAbs(du) < tolerance
}
