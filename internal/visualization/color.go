package visualization

import (
	"fmt"
	"math"

	"github.com/nvandessel/spike/internal/constants"
)

// Affine maps x from [o1, o2] into [d1, d2] without clamping.
func Affine(o1, o2, d1, d2, x float64) float64 {
	p := (x - o1) / (o2 - o1)
	return d1 + (d2-d1)*p
}

// IntMap maps x from [o1, o2] into [d1, d2], clamps to the destination
// range and rounds half up. NaN maps to the low end of the range.
func IntMap(o1, o2, d1, d2, x float64) int {
	res := Affine(o1, o2, d1, d2, x)
	lo, hi := min(d1, d2), max(d1, d2)
	if math.IsNaN(res) {
		return int(lo)
	}
	res = max(lo, min(hi, res))
	return int(math.Floor(res + 0.5))
}

// PotentialRGB returns the soma colour for membrane potential v: red grows
// and green fades as v rises across the display range.
func PotentialRGB(v float64) (r, g, b int) {
	r = IntMap(constants.PotentialDisplayMin, constants.PotentialDisplayMax, 0, 255, v)
	g = IntMap(constants.PotentialDisplayMin, constants.PotentialDisplayMax, 255, 0, v)
	return r, g, 0
}

// PotentialColor returns PotentialRGB as a "#rrggbb" string.
func PotentialColor(v float64) string {
	r, g, b := PotentialRGB(v)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
