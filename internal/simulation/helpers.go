package simulation

import (
	"context"
	"testing"

	"github.com/nvandessel/spike/internal/network"
)

// MustRun runs a scenario with default constants and fails the test on error.
func MustRun(t *testing.T, sc Scenario) *Result {
	t.Helper()
	res, err := NewRunner(network.DefaultConfig()).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("MustRun(%s): %v", sc.Name, err)
	}
	return res
}

// Weight returns a pointer to w for LinkSpec.Weight.
func Weight(w float64) *float64 {
	return &w
}

// Repeat schedules a stimulus on neuron every `every` ticks from 0 until
// `until`.
func Repeat(neuron string, every, until int) StimulusSpec {
	return StimulusSpec{Neuron: neuron, Every: every, Until: until}
}
