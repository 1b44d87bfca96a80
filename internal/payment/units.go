package payment

import "math"

// ToMinorUnits converts a major-unit amount (e.g. 19.99 EUR) to minor units
// (1999 cents), rounding half away from zero to match the provider's
// convention.
func ToMinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// ToMajorUnits converts minor units back to a major-unit amount.
func ToMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}
