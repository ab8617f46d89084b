package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/feed"
)

func replayBars(prices ...int64) []domain.Bar {
	bars := make([]domain.Bar, 0, len(prices))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range prices {
		price := decimal.NewFromInt(p)
		bars = append(bars, domain.Bar{
			OpenTime:  ts,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			CloseTime: ts.Add(time.Minute),
		})
		ts = ts.Add(time.Minute)
	}
	return bars
}

func TestReplayCrawlerScrapsSequentially(t *testing.T) {
	c := NewReplayCrawler(replayBars(100, 101, 102))

	require.Equal(t, 0, c.T())
	require.Equal(t, 3, c.Len())
	require.Equal(t, 0, c.Store().Len())

	require.NoError(t, c.Scrap(context.Background()))
	require.NoError(t, c.Scrap(context.Background()))

	assert.Equal(t, 2, c.T())
	assert.Equal(t, 2, c.Store().Len())

	price, err := c.Store().PriceAt(1)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(101)))
}

func TestReplayCrawlerExhaustion(t *testing.T) {
	c := NewReplayCrawler(replayBars(100))

	require.NoError(t, c.Scrap(context.Background()))

	err := c.Scrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestReplayCrawlerHonorsContext(t *testing.T) {
	c := NewReplayCrawler(replayBars(100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, c.Scrap(ctx), context.Canceled)
	assert.Equal(t, 0, c.T())
}

func TestStoreBounds(t *testing.T) {
	s := NewStore()
	s.Append(replayBars(100)[0])

	_, err := s.BarAt(1)
	require.ErrorIs(t, err, feed.ErrInsufficientData)

	window, err := s.Window(0)
	require.NoError(t, err)
	require.Len(t, window, 1)
}
