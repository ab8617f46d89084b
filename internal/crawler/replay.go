package crawler

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

// ReplayCrawler replays a preloaded bar series one bar per Scrap call.
// It backs offline live-mode runs and tests; the data-exhaustion
// termination predicate fires when T reaches Len.
type ReplayCrawler struct {
	data  []domain.Bar
	store *Store
	t     int
}

// NewReplayCrawler creates a crawler replaying the given series.
func NewReplayCrawler(data []domain.Bar) *ReplayCrawler {
	return &ReplayCrawler{data: data, store: NewStore()}
}

// Scrap appends the next bar of the series to the store.
func (c *ReplayCrawler) Scrap(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.t >= len(c.data) {
		return errors.New("replay data exhausted")
	}
	c.store.Append(c.data[c.t])
	c.t++
	return nil
}

// T returns the crawler's step index.
func (c *ReplayCrawler) T() int { return c.t }

// Len returns the length of the replayed series.
func (c *ReplayCrawler) Len() int { return len(c.data) }

// Store returns the bar store the crawler appends to.
func (c *ReplayCrawler) Store() *Store { return c.store }
