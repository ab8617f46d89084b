// Package feed provides ordered price bar sequences the episode engine
// reads prefixes of. Implementations may be static series or stores
// appended to by a live crawler.
package feed

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

// ErrInsufficientData is returned when the feed has no bar for the
// requested index. The engine propagates it unchanged.
var ErrInsufficientData = errors.New("feed has no data for requested index")

// Feed exposes a finite or append-only ordered sequence of price bars
// indexable by step. The engine only ever reads a prefix [0..t].
type Feed interface {
	// BarAt returns the bar at index i.
	BarAt(i int) (domain.Bar, error)
	// PriceAt returns the close price at index i.
	PriceAt(i int) (decimal.Decimal, error)
	// Window returns a copy of the prefix [0..to].
	Window(to int) ([]domain.Bar, error)
	// Len returns the number of bars currently available.
	Len() int
}
