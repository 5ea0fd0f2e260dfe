package model

// SIR is the Kermack-McKendrick epidemic model over normalized fractions:
//
//	dS/dt = -r*S*I
//	dI/dt =  r*S*I - a*I
//	dR/dt =  a*I
//
// r is the transmission rate, a the recovery rate. S+I+R is conserved.
var SIR = register(&Model{
	Name:         "sir",
	Compartments: []string{"S", "I", "R"},
	Params: []ParamSpec{
		{Name: "r", Default: 0.125, Min: 0, Max: 1, Step: 0.005},
		{Name: "a", Default: 0.1, Min: 0.01, Max: 1, Step: 0.005},
	},
	Deriv: func(t float64, u, p []float64) []float64 {
		s, i := u[0], u[1]
		r, a := p[0], p[1]
		infection := r * s * i
		recovery := a * i
		return []float64{
			-infection,
			infection - recovery,
			recovery,
		}
	},
	Conserved:    true,
	DefaultState: []float64{0.99, 0.01, 0},
	DefaultTspan: [2]float64{0, 300},
})
