// Package precision centralizes the rounding policy applied at every
// monetary computation boundary. All comparisons that drive termination
// and reward signs go through this package so results stay reproducible
// across runs and platforms.
package precision

import "github.com/shopspring/decimal"

// Places is the number of decimal places kept for monetary values.
const Places int32 = 4

// PctPlaces is the number of decimal places kept for percentage returns.
const PctPlaces int32 = 4

// Round rounds a monetary value to the configured precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// TruncatePct truncates a percentage value toward zero at the
// configured precision.
func TruncatePct(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(PctPlaces)
}

// Pct returns the percentage change from prev to cur, truncated to the
// configured precision. Returns zero when prev is zero.
func Pct(prev, cur decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	ratio := cur.Div(prev).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	return TruncatePct(ratio)
}
