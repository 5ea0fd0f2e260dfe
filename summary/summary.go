// Package summary derives scalar report values from trajectories and
// closed-form epidemiological quantities from parameters. All functions are
// pure and read-only over their inputs.
package summary

import (
	"math"

	"github.com/popdyn-xyz/go-popdyn/solver"
)

// ReportValue converts a compartment fraction at time t into an absolute
// count for a population of the given size. Marginally negative samples from
// floating-point noise clamp to zero; the result is rounded to the nearest
// whole individual. Never returns a negative count.
func ReportValue(tr *solver.Trajectory, compartment int, t, population float64) int {
	v := tr.Value(t, compartment) * population
	if v < 0 {
		v = 0
	}
	return int(math.Round(v))
}

// BasicReproductionNumber returns R0 = r*S0/a for transmission rate r,
// initial susceptible fraction S0, and recovery rate a. R0 > 1 means the
// infection initially spreads.
func BasicReproductionNumber(r, s0, a float64) float64 {
	return r * s0 / a
}

// InfectiousPeriod returns the mean infectious duration 1/a.
func InfectiousPeriod(a float64) float64 {
	return 1 / a
}

// Peak holds the maximum of a compartment over a trajectory.
type Peak struct {
	Time  float64
	Value float64
}

// CompartmentPeak scans the step points of a trajectory for the maximum of
// one compartment. Adaptive steps are dense enough around extrema that the
// step-point maximum is within display precision of the true peak.
func CompartmentPeak(tr *solver.Trajectory, compartment int) Peak {
	best := Peak{Time: tr.T[0], Value: tr.U[0][compartment]}
	for i, u := range tr.U {
		if u[compartment] > best.Value {
			best = Peak{Time: tr.T[i], Value: u[compartment]}
		}
	}
	return best
}

// FinalSize returns the value of a compartment at the end of the span.
// For the R compartment of an SIR run this is the epidemic's final size.
func FinalSize(tr *solver.Trajectory, compartment int) float64 {
	return tr.FinalState()[compartment]
}

// AttackRate returns 1 - S(tf)/S(t0): the fraction of the initially
// susceptible population infected over the course of the run.
func AttackRate(tr *solver.Trajectory, susceptible int) float64 {
	s0 := tr.U[0][susceptible]
	if s0 == 0 {
		return 0
	}
	return 1 - tr.FinalState()[susceptible]/s0
}

// TimeToThreshold returns the first time a compartment crosses the given
// threshold from below, interpolating linearly inside the crossing step.
// ok is false if the threshold is never reached.
func TimeToThreshold(tr *solver.Trajectory, compartment int, threshold float64) (t float64, ok bool) {
	prev := tr.U[0][compartment]
	if prev >= threshold {
		return tr.T[0], true
	}
	for i := 1; i < len(tr.T); i++ {
		cur := tr.U[i][compartment]
		if cur >= threshold {
			dt := tr.T[i] - tr.T[i-1]
			dv := cur - prev
			if dv == 0 {
				return tr.T[i], true
			}
			return tr.T[i-1] + dt*(threshold-prev)/dv, true
		}
		prev = cur
	}
	return 0, false
}
