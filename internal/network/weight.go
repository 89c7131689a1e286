package network

// ValueRange is a bounded scalar that moves in fixed increments of its range.
type ValueRange struct {
	Min   float64
	Max   float64
	Value float64
	Step  float64
}

// NewValueRange creates a range over [min, max] split into steps increments.
// The initial value is clamped into the range.
func NewValueRange(min, max, value float64, steps int) ValueRange {
	if steps < 1 {
		steps = 1
	}
	r := ValueRange{
		Min:  min,
		Max:  max,
		Step: (max - min) / float64(steps),
	}
	r.Set(value)
	return r
}

// Move shifts the value by d increments and clamps it to [Min, Max].
// d may be fractional.
func (r *ValueRange) Move(d float64) {
	r.Set(r.Value + r.Step*d)
}

// Set assigns v clamped to [Min, Max].
func (r *ValueRange) Set(v float64) {
	switch {
	case v < r.Min:
		v = r.Min
	case v > r.Max:
		v = r.Max
	}
	r.Value = v
}
