package common

import "math"

// Round returns v rounded half away from zero to the given number of
// decimal places.
func Round(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}
