// Package crawler pulls live market data into an append-only bar store
// the episode engine reads. Failures and retries are the crawler's
// concern; the engine never retries on its own.
package crawler

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/feed"
)

// Crawler pulls the latest market data into its store. The engine polls
// T and Len to detect feed exhaustion in live mode.
type Crawler interface {
	// Scrap pulls the next bar into the store.
	Scrap(ctx context.Context) error
	// T returns the crawler's step index.
	T() int
	// Len returns the length of the underlying data source, or the
	// store length for unbounded sources.
	Len() int
	// Store returns the bar store the crawler appends to.
	Store() *Store
}

// Store is an append-only bar store shared between a crawler and the
// engine. It implements feed.Feed.
type Store struct {
	mu   sync.RWMutex
	bars []domain.Bar
}

// NewStore creates an empty bar store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a bar to the store.
func (s *Store) Append(bar domain.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars = append(s.bars, bar)
}

// BarAt returns the bar at index i.
func (s *Store) BarAt(i int) (domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.bars) {
		return domain.Bar{}, feed.ErrInsufficientData
	}
	return s.bars[i], nil
}

// PriceAt returns the close price at index i.
func (s *Store) PriceAt(i int) (decimal.Decimal, error) {
	bar, err := s.BarAt(i)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return bar.Close, nil
}

// Window returns a copy of the prefix [0..to].
func (s *Store) Window(to int) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if to < 0 || to >= len(s.bars) {
		return nil, feed.ErrInsufficientData
	}
	window := make([]domain.Bar, to+1)
	copy(window, s.bars[:to+1])
	return window, nil
}

// Len returns the number of bars collected so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bars)
}
