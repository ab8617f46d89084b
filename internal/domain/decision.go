// Package domain defines core data structures used throughout the trading gym.
package domain

// Decision represents the trading decision an agent makes on a step.
type Decision int

const (
	// Hold keeps the portfolio untouched for the step.
	Hold Decision = iota
	// Buy spends cash to increase asset quantity.
	Buy
	// Sell decreases asset quantity to receive cash.
	Sell
)

// decision string constants to avoid magic strings
const (
	decisionStringHold = "hold"
	decisionStringBuy  = "buy"
	decisionStringSell = "sell"
)

// ParseDecision converts a string into a typed Decision.
func ParseDecision(s string) (Decision, bool) {
	switch s {
	case decisionStringHold:
		return Hold, true
	case decisionStringBuy:
		return Buy, true
	case decisionStringSell:
		return Sell, true
	}
	return Hold, false
}

// Valid reports whether the decision is one of the known values.
func (d Decision) Valid() bool {
	switch d {
	case Hold, Buy, Sell:
		return true
	}
	return false
}

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case Hold:
		return decisionStringHold
	case Buy:
		return decisionStringBuy
	case Sell:
		return decisionStringSell
	default:
		return "unknown"
	}
}
