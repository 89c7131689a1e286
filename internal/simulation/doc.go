// Package simulation runs scripted experiments against a real session: it
// builds a network from a scenario, applies stimuli on schedule, ticks it
// and captures per-tick potential snapshots for property-based assertions.
//
// Scenarios are plain Go values or YAML files. The runner exercises the real
// network and session with no mocks.
//
// Usage:
//
//	func TestChainPropagation(t *testing.T) {
//	    result := simulation.MustRun(t, simulation.Scenario{
//	        Name:    "chain",
//	        Neurons: []simulation.NeuronSpec{{Name: "a"}, {Name: "b"}},
//	        Links:   []simulation.LinkSpec{{From: "a", To: "b", Weight: simulation.Weight(2.0)}},
//	        Stimuli: []simulation.StimulusSpec{simulation.Repeat("a", 2, 40)},
//	        Ticks:   60,
//	    })
//	    simulation.AssertFiresBefore(t, result, "a", "b")
//	}
package simulation
