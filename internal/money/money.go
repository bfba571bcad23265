// Package money holds the rounding rules shared by bill generation and
// payment reconciliation. Line items carry 2-decimal precision; a bill's
// grand total is rounded to the nearest whole currency unit so collected
// amounts stay cash-friendly. Both sides of the system must use these
// helpers so stored and re-derived amounts compare equal.
package money

import "math"

// Tolerance absorbs float rounding noise when comparing a paid amount
// against a bill total (half a cent).
const Tolerance = 0.005

// Round2 rounds to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundWhole rounds to the nearest whole currency unit. Applied only to
// bill grand totals; component amounts keep 2-decimal precision.
func RoundWhole(v float64) float64 {
	return math.Round(v)
}

// Covers reports whether paid settles total within Tolerance
func Covers(paid, total float64) bool {
	return paid+Tolerance >= total
}
