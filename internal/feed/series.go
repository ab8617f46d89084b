package feed

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

// SeriesFeed is a static in-memory bar series used in local mode.
type SeriesFeed struct {
	bars []domain.Bar
}

// NewSeriesFeed wraps a preloaded bar series.
func NewSeriesFeed(bars []domain.Bar) *SeriesFeed {
	return &SeriesFeed{bars: bars}
}

// BarAt returns the bar at index i.
func (f *SeriesFeed) BarAt(i int) (domain.Bar, error) {
	if i < 0 || i >= len(f.bars) {
		return domain.Bar{}, ErrInsufficientData
	}
	return f.bars[i], nil
}

// PriceAt returns the close price at index i.
func (f *SeriesFeed) PriceAt(i int) (decimal.Decimal, error) {
	bar, err := f.BarAt(i)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return bar.Close, nil
}

// Window returns a copy of the prefix [0..to].
func (f *SeriesFeed) Window(to int) ([]domain.Bar, error) {
	if to < 0 || to >= len(f.bars) {
		return nil, ErrInsufficientData
	}
	window := make([]domain.Bar, to+1)
	copy(window, f.bars[:to+1])
	return window, nil
}

// Len returns the number of bars in the series.
func (f *SeriesFeed) Len() int {
	return len(f.bars)
}

// RandomWalk generates a synthetic bar series for offline runs. The walk
// starts at startPrice and moves up to maxMovePct percent per bar.
func RandomWalk(n int, startPrice decimal.Decimal, maxMovePct float64, seed int64) []domain.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]domain.Bar, 0, n)

	price := startPrice
	ts := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		movePct := (rng.Float64()*2 - 1) * maxMovePct
		next := price.Mul(decimal.NewFromFloat(1 + movePct/100))
		if next.LessThanOrEqual(decimal.Zero) {
			next = price
		}

		high := decimal.Max(price, next)
		low := decimal.Min(price, next)
		bars = append(bars, domain.Bar{
			OpenTime:  ts,
			Open:      price,
			High:      high,
			Low:       low,
			Close:     next,
			Volume:    decimal.NewFromFloat(rng.Float64() * 100),
			CloseTime: ts.Add(time.Minute),
		})

		price = next
		ts = ts.Add(time.Minute)
	}

	return bars
}
