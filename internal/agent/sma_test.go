package agent

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

func obsFromCloses(closes ...int64) domain.Observation {
	bars := make([]domain.Bar, 0, len(closes))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range closes {
		price := decimal.NewFromInt(c)
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
	return domain.Observation{
		Window:   bars,
		CurPrice: bars[len(bars)-1].Close,
	}
}

func TestSMAAgentBuysAboveAverage(t *testing.T) {
	a := NewSMAAgent("BTC", 3, decimal.NewFromInt(1))
	portfolio := domain.NewPortfolio(decimal.NewFromInt(1000))

	req := a.Act(obsFromCloses(100, 100, 100, 110), portfolio)

	assert.Equal(t, domain.Buy, req.Decision)
	assert.True(t, req.Qty.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "BTC", req.Ticker)
}

func TestSMAAgentSellsWholeHoldingBelowAverage(t *testing.T) {
	a := NewSMAAgent("BTC", 3, decimal.NewFromInt(1))
	portfolio := domain.NewPortfolio(decimal.NewFromInt(1000))
	portfolio.SetQty("BTC", decimal.NewFromInt(2))

	req := a.Act(obsFromCloses(100, 100, 100, 90), portfolio)

	assert.Equal(t, domain.Sell, req.Decision)
	assert.True(t, req.Qty.Equal(decimal.NewFromInt(2)))
}

func TestSMAAgentHolds(t *testing.T) {
	a := NewSMAAgent("BTC", 3, decimal.NewFromInt(1))

	t.Run("window too short", func(t *testing.T) {
		req := a.Act(obsFromCloses(100, 110), domain.NewPortfolio(decimal.NewFromInt(1000)))
		assert.Equal(t, domain.Hold, req.Decision)
	})

	t.Run("already holding on buy signal", func(t *testing.T) {
		portfolio := domain.NewPortfolio(decimal.NewFromInt(1000))
		portfolio.SetQty("BTC", decimal.NewFromInt(1))

		req := a.Act(obsFromCloses(100, 100, 100, 110), portfolio)
		assert.Equal(t, domain.Hold, req.Decision)
	})

	t.Run("nothing to sell on sell signal", func(t *testing.T) {
		req := a.Act(obsFromCloses(100, 100, 100, 90), domain.NewPortfolio(decimal.NewFromInt(1000)))
		assert.Equal(t, domain.Hold, req.Decision)
	})
}
