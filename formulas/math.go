package formulas

import "math"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Round2 rounds to 2 decimal places
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Value dereferences an optional metric. ok is false for nil and non-finite values.
func Value(p *float64) (v float64, ok bool) {
	if p == nil || !Finite(*p) {
		return 0, false
	}
	return *p, true
}
