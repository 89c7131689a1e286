package simulation

import (
	"math"
	"testing"
)

// AssertFiresBy asserts that a neuron first fires no later than tick.
func AssertFiresBy(t *testing.T, result *Result, name string, tick int) {
	t.Helper()
	first, ok := result.FirstSpike(name)
	if !ok {
		t.Errorf("AssertFiresBy: %s never fired in %d ticks", name, len(result.Ticks))
		return
	}
	if first > tick {
		t.Errorf("AssertFiresBy: %s first fired at tick %d, want <= %d", name, first, tick)
	}
}

// AssertFirstSpikeAt asserts the exact tick of a neuron's first spike.
func AssertFirstSpikeAt(t *testing.T, result *Result, name string, tick int) {
	t.Helper()
	first, ok := result.FirstSpike(name)
	if !ok {
		t.Errorf("AssertFirstSpikeAt: %s never fired", name)
		return
	}
	if first != tick {
		t.Errorf("AssertFirstSpikeAt: %s first fired at tick %d, want %d", name, first, tick)
	}
}

// AssertNeverFires asserts that a neuron stays below threshold for the
// whole run.
func AssertNeverFires(t *testing.T, result *Result, name string) {
	t.Helper()
	if first, ok := result.FirstSpike(name); ok {
		t.Errorf("AssertNeverFires: %s fired at tick %d", name, first)
	}
}

// AssertFiresBefore asserts that upstream fires strictly before downstream.
func AssertFiresBefore(t *testing.T, result *Result, upstream, downstream string) {
	t.Helper()
	a, okA := result.FirstSpike(upstream)
	b, okB := result.FirstSpike(downstream)
	switch {
	case !okA:
		t.Errorf("AssertFiresBefore: %s never fired", upstream)
	case !okB:
		t.Errorf("AssertFiresBefore: %s never fired", downstream)
	case a >= b:
		t.Errorf("AssertFiresBefore: %s fired at %d, not before %s at %d", upstream, a, downstream, b)
	}
}

// AssertQuiescentAfter asserts that no neuron fires on any tick >= tick.
func AssertQuiescentAfter(t *testing.T, result *Result, tick int) {
	t.Helper()
	for _, tr := range result.Ticks {
		if tr.Tick < tick {
			continue
		}
		for name, f := range tr.Firing {
			if f {
				t.Errorf("AssertQuiescentAfter: %s firing at tick %d", name, tr.Tick)
				return
			}
		}
	}
}

// AssertBounded asserts that |v| and |w| stay within limit and finite
// for every neuron on every tick.
func AssertBounded(t *testing.T, result *Result, limit float64) {
	t.Helper()
	for _, tr := range result.Ticks {
		for name, v := range tr.V {
			w := tr.W[name]
			if math.IsNaN(v) || math.IsNaN(w) || math.Abs(v) > limit || math.Abs(w) > limit {
				t.Errorf("AssertBounded: tick %d: %s state (%.4f, %.4f) exceeds %.2f", tr.Tick, name, v, w, limit)
				return
			}
		}
	}
}

// AssertSpikeCount asserts the number of spike onsets of a neuron.
func AssertSpikeCount(t *testing.T, result *Result, name string, want int) {
	t.Helper()
	if got := result.SpikeCount(name); got != want {
		t.Errorf("AssertSpikeCount: %s had %d spike onsets, want %d", name, got, want)
	}
}
