package model

// LotkaVolterra is the classic predator-prey system:
//
//	dN/dt = N*(a - b*P)   prey
//	dP/dt = P*(c*N - d)   predator
//
// N is prey, P is predator. Predator growth uses the standard c*N coupling:
// predators reproduce in proportion to prey encountered, not to themselves.
var LotkaVolterra = register(&Model{
	Name:         "lotka-volterra",
	Compartments: []string{"N", "P"},
	Params: []ParamSpec{
		{Name: "a", Default: 1.0, Min: 0, Max: 2, Step: 0.05},
		{Name: "b", Default: 0.1, Min: 0, Max: 1, Step: 0.01},
		{Name: "c", Default: 0.02, Min: 0, Max: 0.2, Step: 0.005},
		{Name: "d", Default: 0.5, Min: 0, Max: 2, Step: 0.05},
	},
	Deriv: func(t float64, u, p []float64) []float64 {
		n, pred := u[0], u[1]
		a, b, c, d := p[0], p[1], p[2], p[3]
		return []float64{
			n * (a - b*pred),
			pred * (c*n - d),
		}
	},
	DefaultState: []float64{40, 9},
	DefaultTspan: [2]float64{0, 50},
})
