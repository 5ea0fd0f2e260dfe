package model

// SIRVD extends SIR with vaccination, disease mortality, and waning immunity
// of the recovered and vaccinated compartments:
//
//	dS/dt = -S*(r*I + v)
//	dI/dt =  I*(r*(S + iv*V + ir*R) - a - m)
//	dR/dt =  a*I - R*(r*ir*I + v)
//	dV/dt =  v*(S + R) - iv*r*V*I
//	dD/dt =  m*I
//
// v is the vaccination rate, m the disease mortality rate, ir and iv the
// residual susceptibility factors of recovered and vaccinated individuals
// (0 = perfect immunity, 1 = no protection). S+I+R+V+D is conserved: deaths
// stay in the bookkeeping as the D compartment.
var SIRVD = register(&Model{
	Name:         "sirvd",
	Compartments: []string{"S", "I", "R", "V", "D"},
	Params: []ParamSpec{
		{Name: "r", Default: 0.125, Min: 0, Max: 1, Step: 0.005},
		{Name: "a", Default: 0.1, Min: 0.01, Max: 1, Step: 0.005},
		{Name: "v", Default: 0.005, Min: 0, Max: 0.1, Step: 0.001},
		{Name: "m", Default: 0.002, Min: 0, Max: 0.1, Step: 0.001},
		{Name: "ir", Default: 0.05, Min: 0, Max: 1, Step: 0.01},
		{Name: "iv", Default: 0.1, Min: 0, Max: 1, Step: 0.01},
	},
	Deriv: func(t float64, u, p []float64) []float64 {
		s, i, rec, vac := u[0], u[1], u[2], u[3]
		r, a, v, m, ir, iv := p[0], p[1], p[2], p[3], p[4], p[5]
		return []float64{
			-s * (r*i + v),
			i * (r*(s+iv*vac+ir*rec) - a - m),
			a*i - rec*(r*ir*i+v),
			v*(s+rec) - iv*r*vac*i,
			m * i,
		}
	},
	Conserved:    true,
	DefaultState: []float64{0.99, 0.01, 0, 0, 0},
	DefaultTspan: [2]float64{0, 365},
})
