package network

import "github.com/nvandessel/spike/internal/fhn"

// Config holds the numeric constants of a network.
type Config struct {
	// Model holds the FitzHugh-Nagumo coefficients and step size.
	Model fhn.Params

	// V0 and W0 are the initial state of every new neuron.
	V0 float64
	W0 float64

	// ManualStimulus is added to v by Stimulate. Default: 1.0.
	ManualStimulus float64

	// WeightDefault is the weight of a newly created link. Default: 0.5.
	WeightDefault float64

	// WeightMin and WeightMax bound every link weight. Defaults: 0 and 5.
	WeightMin float64
	WeightMax float64

	// WeightSteps is the number of AdjustWeight increments spanning
	// [WeightMin, WeightMax]. Default: 50.
	WeightSteps int

	// SubSteps is the number of integration sub-steps per Tick. Default: 2.
	SubSteps int

	// AllowSelfLoops admits links whose source and target are the same
	// neuron. Default: false.
	AllowSelfLoops bool
}

// DefaultConfig returns the stock network constants.
func DefaultConfig() Config {
	return Config{
		Model:          fhn.DefaultParams(),
		V0:             -0.9,
		W0:             0.24,
		ManualStimulus: 1.0,
		WeightDefault:  0.5,
		WeightMin:      0,
		WeightMax:      5.0,
		WeightSteps:    50,
		SubSteps:       2,
	}
}
