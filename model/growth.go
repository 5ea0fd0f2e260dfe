package model

// Constant growth: dP/dt = r. The population changes by a fixed amount per
// unit time regardless of its current size.
var Constant = register(&Model{
	Name:         "constant",
	Compartments: []string{"P"},
	Params: []ParamSpec{
		{Name: "r", Default: 0.01, Min: -0.1, Max: 0.1, Step: 0.001},
	},
	Deriv: func(t float64, u, p []float64) []float64 {
		return []float64{p[0]}
	},
	DefaultState: []float64{20},
	DefaultTspan: [2]float64{0, 100},
})

// Exponential growth: dP/dt = r*P.
var Exponential = register(&Model{
	Name:         "exponential",
	Compartments: []string{"P"},
	Params: []ParamSpec{
		{Name: "r", Default: 0.01, Min: -0.1, Max: 0.1, Step: 0.001},
	},
	Deriv: func(t float64, u, p []float64) []float64 {
		return []float64{p[0] * u[0]}
	},
	DefaultState: []float64{20},
	DefaultTspan: [2]float64{0, 100},
})

// Logistic growth: dP/dt = r*P*(1 - P/K), growth damped toward the carrying
// capacity K.
var Logistic = register(&Model{
	Name:         "logistic",
	Compartments: []string{"P"},
	Params: []ParamSpec{
		{Name: "r", Default: 0.01, Min: 0, Max: 0.2, Step: 0.001},
		{Name: "K", Default: 30, Min: 1, Max: 100, Step: 1},
	},
	Deriv: func(t float64, u, p []float64) []float64 {
		r, k := p[0], p[1]
		return []float64{r * u[0] * (1 - u[0]/k)}
	},
	DefaultState: []float64{20},
	DefaultTspan: [2]float64{0, 500},
})
