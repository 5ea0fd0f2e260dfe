package calibrate

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/popdyn-xyz/go-popdyn/model"
	"github.com/popdyn-xyz/go-popdyn/solver"
)

// Problem describes a calibration: a model, a fixed initial state and time
// span, an initial parameter guess, and which parameter indices are free.
type Problem struct {
	Model  *model.Model
	U0     []float64
	Tspan  [2]float64
	Params []float64 // full parameter vector, used as the initial guess
	Free   []int     // indices of learnable parameters; nil means all
}

// NewProblem builds a calibration problem. Free parameters may be named
// instead of indexed; unknown names are an error.
func NewProblem(m *model.Model, u0 []float64, tspan [2]float64, params []float64, freeNames []string) (*Problem, error) {
	if params == nil {
		params = m.DefaultParams()
	}
	var free []int
	for _, name := range freeNames {
		idx := m.ParamIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("model %s has no parameter %q", m.Name, name)
		}
		free = append(free, idx)
	}
	return &Problem{
		Model:  m,
		U0:     u0,
		Tspan:  tspan,
		Params: append([]float64(nil), params...),
		Free:   free,
	}, nil
}

// freeIndices resolves the free parameter set (all params when unset).
func (p *Problem) freeIndices() []int {
	if p.Free != nil {
		return p.Free
	}
	all := make([]int, len(p.Params))
	for i := range all {
		all[i] = i
	}
	return all
}

// Solve simulates the problem with the given free-parameter values patched
// into the full vector.
func (p *Problem) solveWith(free []float64, method *solver.Method, opts *solver.Options) (*solver.Trajectory, error) {
	params := append([]float64(nil), p.Params...)
	for i, idx := range p.freeIndices() {
		params[idx] = free[i]
	}
	prob := solver.NewProblem(p.Model, p.U0, params, p.Tspan)
	return solver.Solve(prob, method, opts)
}

// FitOptions configures the fitting process.
type FitOptions struct {
	MaxIters      int     // Maximum number of iterations
	Tolerance     float64 // Convergence tolerance for loss
	Method        string  // "gradient-descent", "nelder-mead", "coordinate-descent"
	StepSize      float64 // Initial step size / learning rate
	Verbose       bool    // Log progress during optimization
	SolverMethod  *solver.Method
	SolverOptions *solver.Options
}

// DefaultFitOptions returns default fitting options.
func DefaultFitOptions() *FitOptions {
	return &FitOptions{
		MaxIters:      1000,
		Tolerance:     1e-4,
		Method:        "gradient-descent",
		StepSize:      0.01,
		SolverMethod:  solver.Tsit5(),
		SolverOptions: solver.DefaultOptions(),
	}
}

// FitResult contains the results of parameter fitting.
type FitResult struct {
	Params      []float64 // Full parameter vector after fitting
	InitialLoss float64
	FinalLoss   float64
	Iterations  int
	Converged   bool
}

// Fit optimizes the free parameters of a Problem to minimize the loss on a
// dataset. Failed simulations (non-finite states) score +Inf, which steers
// every optimizer away from the unstable region without aborting the fit.
func Fit(prob *Problem, data *Dataset, lossFunc LossFunc, opts *FitOptions) (*FitResult, error) {
	if opts == nil {
		opts = DefaultFitOptions()
	}

	freeIdx := prob.freeIndices()
	if len(freeIdx) == 0 {
		return nil, fmt.Errorf("no free parameters to fit")
	}
	x0 := make([]float64, len(freeIdx))
	for i, idx := range freeIdx {
		x0[i] = prob.Params[idx]
	}

	objective := func(free []float64) float64 {
		tr, err := prob.solveWith(free, opts.SolverMethod, opts.SolverOptions)
		if err != nil {
			return math.Inf(1)
		}
		return lossFunc(tr, data)
	}

	initialLoss := objective(x0)
	if opts.Verbose {
		logrus.WithField("loss", initialLoss).Info("calibration start")
	}

	var finalParams []float64
	var finalLoss float64
	var iters int
	var converged bool

	switch opts.Method {
	case "gradient-descent":
		finalParams, finalLoss, iters, converged = gradientDescent(objective, x0, opts)
	case "nelder-mead":
		finalParams, finalLoss, iters, converged = nelderMead(objective, x0, opts)
	case "coordinate-descent":
		finalParams, finalLoss, iters, converged = coordinateDescent(objective, x0, opts)
	default:
		return nil, fmt.Errorf("unknown optimization method: %s", opts.Method)
	}

	for i, idx := range freeIdx {
		prob.Params[idx] = finalParams[i]
	}

	if opts.Verbose {
		logrus.WithFields(logrus.Fields{
			"loss":       finalLoss,
			"iterations": iters,
			"converged":  converged,
		}).Info("calibration done")
	}

	return &FitResult{
		Params:      append([]float64(nil), prob.Params...),
		InitialLoss: initialLoss,
		FinalLoss:   finalLoss,
		Iterations:  iters,
		Converged:   converged,
	}, nil
}

// gradientDescent minimizes f by following a central finite-difference
// gradient with a backtracking learning rate.
func gradientDescent(f func([]float64) float64, x0 []float64, opts *FitOptions) ([]float64, float64, int, bool) {
	n := len(x0)
	x := append([]float64(nil), x0...)
	loss := f(x)
	lr := opts.StepSize

	grad := make([]float64, n)
	probe := make([]float64, n)

	for iter := 0; iter < opts.MaxIters; iter++ {
		// Central differences, step scaled to the parameter magnitude
		for i := 0; i < n; i++ {
			h := 1e-6 * (1 + math.Abs(x[i]))
			copy(probe, x)
			probe[i] = x[i] + h
			fp := f(probe)
			probe[i] = x[i] - h
			fm := f(probe)
			grad[i] = (fp - fm) / (2 * h)
		}

		gnorm := 0.0
		for _, g := range grad {
			gnorm += g * g
		}
		gnorm = math.Sqrt(gnorm)
		if gnorm == 0 || math.IsNaN(gnorm) {
			return x, loss, iter, true
		}

		// Backtracking: shrink the step until the loss improves
		improved := false
		for try := 0; try < 30; try++ {
			for i := 0; i < n; i++ {
				probe[i] = x[i] - lr*grad[i]
			}
			next := f(probe)
			if next < loss {
				copy(x, probe)
				if opts.Verbose && iter%100 == 0 {
					logrus.WithFields(logrus.Fields{"iter": iter, "loss": next, "lr": lr}).Debug("gradient step")
				}
				if loss-next < opts.Tolerance*math.Max(1, loss) {
					return x, next, iter, true
				}
				loss = next
				lr *= 1.2
				improved = true
				break
			}
			lr *= 0.5
			if lr < 1e-12 {
				return x, loss, iter, true
			}
		}
		if !improved {
			return x, loss, iter, true
		}
	}

	return x, loss, opts.MaxIters, false
}

// coordinateDescent implements simple coordinate descent optimization.
func coordinateDescent(f func([]float64) float64, x0 []float64, opts *FitOptions) ([]float64, float64, int, bool) {
	x := append([]float64(nil), x0...)
	bestLoss := f(x)
	stepSize := opts.StepSize

	for iter := 0; iter < opts.MaxIters; iter++ {
		improved := false

		for i := 0; i < len(x); i++ {
			oldVal := x[i]

			x[i] = oldVal + stepSize
			posLoss := f(x)

			x[i] = oldVal - stepSize
			negLoss := f(x)

			if posLoss < bestLoss {
				x[i] = oldVal + stepSize
				bestLoss = posLoss
				improved = true
			} else if negLoss < bestLoss {
				x[i] = oldVal - stepSize
				bestLoss = negLoss
				improved = true
			} else {
				x[i] = oldVal
			}
		}

		if opts.Verbose && iter%100 == 0 {
			logrus.WithFields(logrus.Fields{"iter": iter, "loss": bestLoss}).Debug("coordinate step")
		}

		if !improved {
			stepSize *= 0.5
			if stepSize < 1e-10 {
				return x, bestLoss, iter, true
			}
		}

		if bestLoss < opts.Tolerance {
			return x, bestLoss, iter, true
		}
	}

	return x, bestLoss, opts.MaxIters, false
}

// nelderMead implements the Nelder-Mead simplex algorithm.
func nelderMead(f func([]float64) float64, x0 []float64, opts *FitOptions) ([]float64, float64, int, bool) {
	n := len(x0)

	alpha := 1.0 // reflection
	gamma := 2.0 // expansion
	rho := 0.5   // contraction
	sigma := 0.5 // shrink

	simplex := make([][]float64, n+1)
	values := make([]float64, n+1)

	simplex[0] = append([]float64(nil), x0...)
	values[0] = f(simplex[0])

	// Initial simplex from perturbing each coordinate
	for i := 0; i < n; i++ {
		simplex[i+1] = append([]float64(nil), x0...)
		simplex[i+1][i] += 0.05 * (1.0 + math.Abs(x0[i]))
		values[i+1] = f(simplex[i+1])
	}

	for iter := 0; iter < opts.MaxIters; iter++ {
		sortSimplex(simplex, values)

		if opts.Verbose && iter%100 == 0 {
			logrus.WithFields(logrus.Fields{"iter": iter, "best": values[0], "worst": values[n]}).Debug("simplex step")
		}

		if values[n]-values[0] < opts.Tolerance {
			return simplex[0], values[0], iter, true
		}

		// Centroid of best n points
		centroid := make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += simplex[j][i]
			}
			centroid[i] = sum / float64(n)
		}

		// Reflection
		reflected := make([]float64, n)
		for i := 0; i < n; i++ {
			reflected[i] = centroid[i] + alpha*(centroid[i]-simplex[n][i])
		}
		reflectedVal := f(reflected)

		if values[0] <= reflectedVal && reflectedVal < values[n-1] {
			simplex[n] = reflected
			values[n] = reflectedVal
			continue
		}

		// Expansion
		if reflectedVal < values[0] {
			expanded := make([]float64, n)
			for i := 0; i < n; i++ {
				expanded[i] = centroid[i] + gamma*(reflected[i]-centroid[i])
			}
			expandedVal := f(expanded)

			if expandedVal < reflectedVal {
				simplex[n] = expanded
				values[n] = expandedVal
			} else {
				simplex[n] = reflected
				values[n] = reflectedVal
			}
			continue
		}

		// Contraction
		contracted := make([]float64, n)
		if reflectedVal < values[n] {
			for i := 0; i < n; i++ {
				contracted[i] = centroid[i] + rho*(reflected[i]-centroid[i])
			}
		} else {
			for i := 0; i < n; i++ {
				contracted[i] = centroid[i] + rho*(simplex[n][i]-centroid[i])
			}
		}
		contractedVal := f(contracted)

		if contractedVal < math.Min(reflectedVal, values[n]) {
			simplex[n] = contracted
			values[n] = contractedVal
			continue
		}

		// Shrink
		for i := 1; i <= n; i++ {
			for j := 0; j < n; j++ {
				simplex[i][j] = simplex[0][j] + sigma*(simplex[i][j]-simplex[0][j])
			}
			values[i] = f(simplex[i])
		}
	}

	sortSimplex(simplex, values)
	return simplex[0], values[0], opts.MaxIters, false
}

// sortSimplex sorts the simplex points by their function values.
func sortSimplex(simplex [][]float64, values []float64) {
	n := len(values)
	// Insertion sort, sufficient for small n
	for i := 1; i < n; i++ {
		val := values[i]
		point := simplex[i]
		j := i - 1
		for j >= 0 && values[j] > val {
			values[j+1] = values[j]
			simplex[j+1] = simplex[j]
			j--
		}
		values[j+1] = val
		simplex[j+1] = point
	}
}
