// Package calibrate fits model parameters to observed trajectories. The
// model structure is the prior; calibration only adjusts the named rate
// parameters the model already has.
package calibrate

import (
	"fmt"
	"math"

	"github.com/popdyn-xyz/go-popdyn/solver"
)

// Dataset holds observed compartment values for training.
type Dataset struct {
	Times        []float64            // Observation times
	Observations map[string][]float64 // Compartment label -> values at each time
	Labels       []string             // Observed compartments, iteration order
}

// NewDataset creates a dataset from time points and observations.
func NewDataset(times []float64, observations map[string][]float64) (*Dataset, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("times cannot be empty")
	}

	for label, values := range observations {
		if len(values) != len(times) {
			return nil, fmt.Errorf("observation length for %s (%d) does not match times length (%d)",
				label, len(values), len(times))
		}
	}

	labels := make([]string, 0, len(observations))
	for label := range observations {
		labels = append(labels, label)
	}

	return &Dataset{
		Times:        times,
		Observations: observations,
		Labels:       labels,
	}, nil
}

// LossFunc computes the loss between a trajectory and observed data.
type LossFunc func(tr *solver.Trajectory, data *Dataset) float64

// MSELoss computes mean squared error between simulated and observed values
// at the observation times. Only observed compartments contribute.
func MSELoss(tr *solver.Trajectory, data *Dataset) float64 {
	totalError := 0.0
	numPoints := 0

	for _, label := range data.Labels {
		idx := tr.Index(label)
		if idx < 0 {
			continue
		}
		obs := data.Observations[label]
		for i, t := range data.Times {
			diff := tr.Value(t, idx) - obs[i]
			totalError += diff * diff
			numPoints++
		}
	}

	if numPoints == 0 {
		return 0.0
	}
	return totalError / float64(numPoints)
}

// RMSELoss computes root mean squared error.
func RMSELoss(tr *solver.Trajectory, data *Dataset) float64 {
	return math.Sqrt(MSELoss(tr, data))
}

// RelativeMSELoss computes MSE normalized by the mean observed value of each
// compartment. Useful when compartments have very different scales (e.g.
// cases vs deaths).
func RelativeMSELoss(tr *solver.Trajectory, data *Dataset) float64 {
	totalError := 0.0
	numPoints := 0

	for _, label := range data.Labels {
		idx := tr.Index(label)
		if idx < 0 {
			continue
		}
		obs := data.Observations[label]

		meanObs := 0.0
		for _, v := range obs {
			meanObs += v
		}
		meanObs /= float64(len(obs))
		if meanObs == 0 {
			meanObs = 1.0
		}

		for i, t := range data.Times {
			diff := (tr.Value(t, idx) - obs[i]) / meanObs
			totalError += diff * diff
			numPoints++
		}
	}

	if numPoints == 0 {
		return 0.0
	}
	return totalError / float64(numPoints)
}

// GenerateUniformTimes generates uniformly spaced observation times.
func GenerateUniformTimes(t0, tf float64, n int) []float64 {
	times := make([]float64, n)
	if n == 1 {
		times[0] = t0
		return times
	}
	dt := (tf - t0) / float64(n-1)
	for i := 0; i < n; i++ {
		times[i] = t0 + float64(i)*dt
	}
	return times
}
