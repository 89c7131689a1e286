package network

import (
	"fmt"
	"math"
)

// Position is a neuron's location on the consumer's canvas. It has no
// effect on the numerics.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Position) Dist(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("%g %g", p.X, p.Y)
}
