package domain

import "fmt"

// Pair trading pair of a base instrument against a quote currency.
type Pair struct {
	// From base instrument symbol (the traded ticker).
	From string
	// To quote currency symbol.
	To string
}

// String returns the string representation.
func (p *Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated symbol representation.
func (p *Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}
