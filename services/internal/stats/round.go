package stats

import (
	"math"
	"strconv"
)

// roundTo rounds half to even on the exact binary value, matching how the
// figures were historically published. NaN and infinities pass through.
func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
