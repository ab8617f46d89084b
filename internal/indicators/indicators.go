// Package indicators computes technical indicators over an observation
// window using the cinar/indicator library. Values are informational
// observation enrichment and never feed the reward signal.
package indicators

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

const (
	smaPeriod = 20
	emaPeriod = 20
	rsiPeriod = 14

	// minBars is the warmup needed before every indicator has a value.
	minBars = 21
)

// Compute returns the latest indicator values over the window.
func Compute(window []domain.Bar) (*domain.IndicatorSet, error) {
	if len(window) < minBars {
		return nil, errors.Errorf("not enough bars for indicators: need %d, got %d", minBars, len(window))
	}

	closes := make([]float64, len(window))
	for i, bar := range window {
		closes[i], _ = bar.Close.Float64()
	}

	sma := lastValue(trend.NewSmaWithPeriod[float64](smaPeriod).Compute(helper.SliceToChan(closes)))
	ema := lastValue(trend.NewEmaWithPeriod[float64](emaPeriod).Compute(helper.SliceToChan(closes)))
	rsi := lastValue(momentum.NewRsiWithPeriod[float64](rsiPeriod).Compute(helper.SliceToChan(closes)))

	return &domain.IndicatorSet{
		SMA20: decimal.NewFromFloat(sma),
		EMA20: decimal.NewFromFloat(ema),
		RSI14: decimal.NewFromFloat(rsi),
	}, nil
}

// SMA returns the full simple moving average series for the closes.
func SMA(window []domain.Bar, period int) ([]decimal.Decimal, error) {
	if len(window) < period {
		return nil, errors.Errorf("not enough bars for SMA: need %d, got %d", period, len(window))
	}

	closes := make([]float64, len(window))
	for i, bar := range window {
		closes[i], _ = bar.Close.Float64()
	}

	values := helper.ChanToSlice(trend.NewSmaWithPeriod[float64](period).Compute(helper.SliceToChan(closes)))
	result := make([]decimal.Decimal, len(values))
	for i, v := range values {
		result[i] = decimal.NewFromFloat(v)
	}
	return result, nil
}

func lastValue(ch <-chan float64) float64 {
	var last float64
	for v := range ch {
		last = v
	}
	return last
}
