package solver

import "sort"

// Trajectory is the dense solution of one run: states and derivatives at
// every accepted step, queryable at arbitrary times within the span via
// cubic Hermite interpolation. Trajectories are read-only after Solve.
type Trajectory struct {
	T      []float64   // Accepted step times
	U      [][]float64 // State at each step
	K      [][]float64 // Derivative at each step
	Labels []string    // Compartment labels, model order
}

// Len returns the number of accepted steps (including the initial point).
func (tr *Trajectory) Len() int { return len(tr.T) }

// Span returns the closed time interval covered by the trajectory.
func (tr *Trajectory) Span() (t0, tf float64) {
	return tr.T[0], tr.T[len(tr.T)-1]
}

// FinalState returns the state at the end of the span.
func (tr *Trajectory) FinalState() []float64 {
	return tr.U[len(tr.U)-1]
}

// Index returns the compartment index for a label, or -1.
func (tr *Trajectory) Index(label string) int {
	for i, l := range tr.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Variable extracts the step-point time series of one compartment.
// index is either an int position or a label string.
func (tr *Trajectory) Variable(index interface{}) []float64 {
	i := -1
	switch v := index.(type) {
	case int:
		i = v
	case string:
		i = tr.Index(v)
	}
	if i < 0 || i >= len(tr.Labels) {
		return nil
	}
	out := make([]float64, len(tr.U))
	for j, u := range tr.U {
		out[j] = u[i]
	}
	return out
}

// segment locates the step interval containing t. Queries outside the span
// clamp to the nearest endpoint.
func (tr *Trajectory) segment(t float64) (i int, theta, h float64) {
	n := len(tr.T)
	if t <= tr.T[0] {
		return 0, 0, tr.T[1] - tr.T[0]
	}
	if t >= tr.T[n-1] {
		return n - 2, 1, tr.T[n-1] - tr.T[n-2]
	}
	i = sort.Search(n, func(j int) bool { return tr.T[j] > t }) - 1
	h = tr.T[i+1] - tr.T[i]
	if h == 0 {
		return i, 0, 1
	}
	theta = (t - tr.T[i]) / h
	return i, theta, h
}

// At returns the interpolated state vector at time t.
// Each segment uses the cubic Hermite polynomial through the step endpoints
// and their derivatives, so the interpolant is C1 across the whole span.
func (tr *Trajectory) At(t float64) []float64 {
	if len(tr.T) < 2 {
		return append([]float64(nil), tr.U[0]...)
	}
	i, th, h := tr.segment(t)
	u0, u1 := tr.U[i], tr.U[i+1]
	k0, k1 := tr.K[i], tr.K[i+1]

	// Hermite basis at theta
	th2 := th * th
	th3 := th2 * th
	h00 := 2*th3 - 3*th2 + 1
	h10 := th3 - 2*th2 + th
	h01 := -2*th3 + 3*th2
	h11 := th3 - th2

	out := make([]float64, len(u0))
	for j := range out {
		out[j] = h00*u0[j] + h10*h*k0[j] + h01*u1[j] + h11*h*k1[j]
	}
	return out
}

// Value returns the interpolated value of one compartment at time t.
func (tr *Trajectory) Value(t float64, compartment int) float64 {
	return tr.At(t)[compartment]
}

// DerivativeAt returns the rate of change of a compartment at time t, the
// analytic derivative of the Hermite interpolant. At step points this equals
// the model derivative exactly.
func (tr *Trajectory) DerivativeAt(t float64, compartment int) float64 {
	if len(tr.T) < 2 {
		return tr.K[0][compartment]
	}
	i, th, h := tr.segment(t)
	u0 := tr.U[i][compartment]
	u1 := tr.U[i+1][compartment]
	k0 := tr.K[i][compartment]
	k1 := tr.K[i+1][compartment]

	th2 := th * th
	d00 := (6*th2 - 6*th) / h
	d10 := 3*th2 - 4*th + 1
	d01 := (-6*th2 + 6*th) / h
	d11 := 3*th2 - 2*th

	return d00*u0 + d10*k0 + d01*u1 + d11*k1
}

// Sample evaluates the trajectory at n uniformly spaced times across the
// span, for plotting.
func (tr *Trajectory) Sample(n int) (times []float64, states [][]float64) {
	t0, tf := tr.Span()
	times = make([]float64, n)
	states = make([][]float64, n)
	if n == 1 {
		times[0] = t0
		states[0] = tr.At(t0)
		return times, states
	}
	dt := (tf - t0) / float64(n-1)
	for i := 0; i < n; i++ {
		times[i] = t0 + float64(i)*dt
		states[i] = tr.At(times[i])
	}
	return times, states
}
