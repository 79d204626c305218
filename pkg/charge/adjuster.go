// Package charge computes the surcharge applied to unnecessary spending.
package charge

import "github.com/shopspring/decimal"

var (
	// Threshold is the unnecessary-spending level above which a surcharge applies.
	Threshold = decimal.NewFromInt(100)
	// Rate is the surcharge per unit of unnecessary spending above Threshold.
	Rate = decimal.RequireFromString("0.012")
	// UnnecessarySignal is the spending signal applied to every expense the
	// classifier labels unnecessary. It does not depend on the expense amount.
	UnnecessarySignal = decimal.NewFromInt(150)
)

// Multiplier returns 1 + (unnecessary - Threshold) * Rate when unnecessary
// exceeds Threshold, and 1 otherwise.
func Multiplier(unnecessary decimal.Decimal) decimal.Decimal {
	if !unnecessary.GreaterThan(Threshold) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1).Add(unnecessary.Sub(Threshold).Mul(Rate))
}

// Adjusted returns actual scaled by Multiplier(unnecessary).
func Adjusted(actual, unnecessary decimal.Decimal) decimal.Decimal {
	return actual.Mul(Multiplier(unnecessary))
}
