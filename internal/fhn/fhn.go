// Package fhn implements the FitzHugh-Nagumo neuron model: a two-variable
// reduction of Hodgkin-Huxley dynamics with a fast membrane potential (v)
// and a slow recovery variable (w).
package fhn

// Params holds the model coefficients and the integration step size.
type Params struct {
	// A shifts the w-nullcline. Default: -0.7.
	A float64 `json:"a" yaml:"a"`

	// B scales the recovery self-feedback. Default: 0.8.
	B float64 `json:"b" yaml:"b"`

	// Tau is the recovery time constant (1/0.08). Default: 12.5.
	Tau float64 `json:"tau" yaml:"tau"`

	// Dt is the explicit Euler step size. Default: 0.2.
	Dt float64 `json:"dt" yaml:"dt"`
}

// DefaultParams returns the classic FitzHugh-Nagumo parameter set.
func DefaultParams() Params {
	return Params{
		A:   -0.7,
		B:   0.8,
		Tau: 12.5,
		Dt:  0.2,
	}
}

// State is a point in the (v, w) phase plane.
type State struct {
	V float64 `json:"v"`
	W float64 `json:"w"`
}

// Derivatives returns dv/dt and dw/dt at s with injected current i.
func (p Params) Derivatives(s State, i float64) (dv, dw float64) {
	dv = s.V - s.V*s.V*s.V - s.W + i
	dw = (s.V - p.A - p.B*s.W) / p.Tau
	return dv, dw
}

// Step advances s by one explicit Euler step of size Dt.
// Values are not clamped; a diverging trajectory is returned as is.
func (p Params) Step(s State, i float64) State {
	dv, dw := p.Derivatives(s, i)
	return State{
		V: s.V + dv*p.Dt,
		W: s.W + dw*p.Dt,
	}
}

// Firing reports whether v is above the spike threshold of zero.
func (s State) Firing() bool {
	return s.V > 0
}
