package market

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradegym/internal/crawler"
	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/feed"
)

func barsFromPrices(prices ...string) []domain.Bar {
	bars := make([]domain.Bar, 0, len(prices))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range prices {
		price := decimal.RequireFromString(p)
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

func flatBars(n int, price string) []domain.Bar {
	prices := make([]string, n)
	for i := range prices {
		prices[i] = price
	}
	return barsFromPrices(prices...)
}

func testConfig(maxSteps int) Config {
	return Config{
		Pair:     domain.Pair{From: "BTC", To: "USDT"},
		FeeRate:  decimal.NewFromFloat(0.0005),
		InitCash: decimal.NewFromInt(100000000),
		MaxSteps: maxSteps,
	}
}

func newTestEngine(t *testing.T, bars []domain.Bar, cfg Config) *LocalEngine {
	t.Helper()
	eng, err := NewLocalEngine(cfg, feed.NewSeriesFeed(bars), nil, NewSignPolicy(), zap.NewNop())
	require.NoError(t, err)
	return eng
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"want %s, got %s", want, got.String())
}

func holdReq() domain.TradeRequest {
	return domain.TradeRequest{Decision: domain.Hold}
}

func TestResetReturnsInitialObservation(t *testing.T) {
	eng := newTestEngine(t, flatBars(5, "100"), testConfig(5))

	obs, err := eng.Reset(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, obs.T)
	assert.Len(t, obs.Window, 1)
	requireDecimal(t, "100", obs.CurPrice)
	requireDecimal(t, "0.0005", obs.FeeRate)
	requireDecimal(t, "100000000", eng.Portfolio().Cash)
}

func TestHoldKeepsPortfolioAndPaysPenalty(t *testing.T) {
	eng := newTestEngine(t, flatBars(5, "100"), testConfig(5))

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	steps := 0
	for {
		result, err := eng.Step(context.Background(), holdReq())
		require.NoError(t, err)
		steps++

		requireDecimal(t, "-1", result.Reward)
		requireDecimal(t, "100000000", eng.Portfolio().Cash)
		require.True(t, eng.Portfolio().Qty("BTC").IsZero())
		requireDecimal(t, "0", result.Info.Fee)

		if result.Done {
			assert.Contains(t, result.Info.Msg, "t overflow")
			break
		}
	}
	// with max_t_size=5 the episode ends after four transitions
	assert.Equal(t, 4, steps)
}

func TestBuyChargesFeeAndUpdatesHoldings(t *testing.T) {
	eng := newTestEngine(t, flatBars(5, "100"), testConfig(5))

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	result, err := eng.Step(context.Background(), domain.TradeRequest{
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	p := eng.Portfolio()
	requireDecimal(t, "99998999.5", p.Cash)
	requireDecimal(t, "10", p.Qty("BTC"))
	requireDecimal(t, "0.5", result.Info.Fee)
	requireDecimal(t, "99999999.5", result.Info.CurPortfolioVal)
	// the fee is dust relative to the balance, so at the reward
	// precision the value change reads as neutral
	requireDecimal(t, "0", result.Reward)
	assert.False(t, result.Done)
	assert.Equal(t, 1, result.Observation.T)
	assert.Len(t, result.Observation.Window, 2)
}

func TestRoundTripPaysExactlyTwoFees(t *testing.T) {
	eng := newTestEngine(t, flatBars(5, "100"), testConfig(5))

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	buy, err := eng.Step(context.Background(), domain.TradeRequest{
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	requireDecimal(t, "0.5", buy.Info.Fee)

	sell, err := eng.Step(context.Background(), domain.TradeRequest{
		Decision: domain.Sell,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	requireDecimal(t, "0.5", sell.Info.Fee)

	p := eng.Portfolio()
	requireDecimal(t, "99999999", p.Cash)
	require.True(t, p.Qty("BTC").IsZero())
}

func TestPortfolioValueMatchesCashPlusHoldings(t *testing.T) {
	eng := newTestEngine(t, barsFromPrices("100", "101", "99", "102", "98"), testConfig(5))

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	req := domain.TradeRequest{
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(10),
	}
	for {
		result, err := eng.Step(context.Background(), req)
		require.NoError(t, err)

		p := eng.Portfolio()
		want := p.ValueAt("BTC", result.Observation.CurPrice)
		requireDecimal(t, want.String(), result.Info.CurPortfolioVal)

		if result.Done {
			break
		}
		req = holdReq()
	}
}

func TestTimeBudgetBeatsBankruptcy(t *testing.T) {
	cfg := testConfig(10)
	cfg.InitCash = decimal.NewFromInt(1000)
	// two bars only: the effective budget caps at the series length,
	// so the time predicate and insolvency fire on the same step
	eng := newTestEngine(t, barsFromPrices("100", "1"), cfg)

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	result, err := eng.Step(context.Background(), domain.TradeRequest{
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	require.True(t, result.Done)
	assert.Contains(t, result.Info.Msg, "t overflow")
	require.True(t, result.Info.CurPortfolioVal.LessThanOrEqual(decimal.Zero))
}

func TestBankruptcyTermination(t *testing.T) {
	cfg := testConfig(10)
	cfg.InitCash = decimal.NewFromInt(1000)
	eng := newTestEngine(t, barsFromPrices("100", "1", "1", "1"), cfg)

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	result, err := eng.Step(context.Background(), domain.TradeRequest{
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	require.True(t, result.Done)
	assert.Contains(t, result.Info.Msg, "bankrupt")
	requireDecimal(t, "-10", result.Reward)
}

func TestStepAfterDoneFails(t *testing.T) {
	eng := newTestEngine(t, flatBars(2, "100"), testConfig(2))

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	result, err := eng.Step(context.Background(), holdReq())
	require.NoError(t, err)
	require.True(t, result.Done)

	_, err = eng.Step(context.Background(), holdReq())
	require.ErrorIs(t, err, ErrEpisodeDone)
}

func TestResetAfterTerminalRestartsEpisode(t *testing.T) {
	eng := newTestEngine(t, flatBars(3, "100"), testConfig(3))

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	_, err = eng.Step(context.Background(), domain.TradeRequest{
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	result, err := eng.Step(context.Background(), holdReq())
	require.NoError(t, err)
	require.True(t, result.Done)

	obs, err := eng.Reset(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, obs.T)
	requireDecimal(t, "100000000", eng.Portfolio().Cash)
	require.True(t, eng.Portfolio().Qty("BTC").IsZero())

	_, err = eng.Step(context.Background(), holdReq())
	require.NoError(t, err)
}

// truncatedFeed reports more bars than it can serve, forcing a price
// read failure mid-step.
type truncatedFeed struct {
	feed.Feed
	length int
}

func (f *truncatedFeed) Len() int { return f.length }

func TestFailedPriceReadLeavesPortfolioIntact(t *testing.T) {
	f := &truncatedFeed{Feed: feed.NewSeriesFeed(flatBars(1, "100")), length: 10}
	eng, err := NewLocalEngine(testConfig(10), f, nil, NewSignPolicy(), zap.NewNop())
	require.NoError(t, err)

	_, err = eng.Reset(context.Background())
	require.NoError(t, err)

	_, err = eng.Step(context.Background(), domain.TradeRequest{
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(10),
	})
	require.ErrorIs(t, err, feed.ErrInsufficientData)

	p := eng.Portfolio()
	requireDecimal(t, "100000000", p.Cash)
	require.True(t, p.Qty("BTC").IsZero())
}

func TestUnknownTickerRejected(t *testing.T) {
	eng := newTestEngine(t, flatBars(5, "100"), testConfig(5))

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	_, err = eng.Step(context.Background(), domain.TradeRequest{
		Ticker:   "ETH",
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ticker")
}

func TestShortPolicies(t *testing.T) {
	sellReq := domain.TradeRequest{
		Decision: domain.Sell,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(5),
	}

	t.Run("reject refuses oversized sell", func(t *testing.T) {
		cfg := testConfig(5)
		cfg.ShortPolicy = ShortReject
		eng := newTestEngine(t, flatBars(5, "100"), cfg)

		_, err := eng.Reset(context.Background())
		require.NoError(t, err)

		_, err = eng.Step(context.Background(), sellReq)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "short selling is disabled")
		requireDecimal(t, "100000000", eng.Portfolio().Cash)
	})

	t.Run("allow lets quantity go negative", func(t *testing.T) {
		cfg := testConfig(5)
		cfg.ShortPolicy = ShortAllow
		eng := newTestEngine(t, flatBars(5, "100"), cfg)

		_, err := eng.Reset(context.Background())
		require.NoError(t, err)

		result, err := eng.Step(context.Background(), sellReq)
		require.NoError(t, err)

		p := eng.Portfolio()
		requireDecimal(t, "-5", p.Qty("BTC"))
		requireDecimal(t, "100000499.75", p.Cash)
		requireDecimal(t, "0.25", result.Info.Fee)
	})

	t.Run("clamp caps sell at held quantity", func(t *testing.T) {
		cfg := testConfig(5)
		cfg.ShortPolicy = ShortClamp
		eng := newTestEngine(t, flatBars(5, "100"), cfg)

		_, err := eng.Reset(context.Background())
		require.NoError(t, err)

		result, err := eng.Step(context.Background(), sellReq)
		require.NoError(t, err)

		p := eng.Portfolio()
		require.True(t, p.Qty("BTC").IsZero())
		requireDecimal(t, "100000000", p.Cash)
		requireDecimal(t, "0", result.Info.Fee)
	})
}

func TestPacingHonorsCancellation(t *testing.T) {
	cfg := testConfig(5)
	cfg.StepDelay = 50 * time.Millisecond
	eng := newTestEngine(t, flatBars(5, "100"), cfg)

	_, err := eng.Reset(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = eng.Step(ctx, holdReq())
	require.ErrorIs(t, err, context.Canceled)
}

func TestLiveModeTerminatesOnDataExhaustion(t *testing.T) {
	c := crawler.NewReplayCrawler(flatBars(3, "100"))
	eng, err := NewEngine(ModeLive, testConfig(100), Deps{Crawler: c})
	require.NoError(t, err)

	obs, err := eng.Reset(context.Background())
	require.NoError(t, err)
	require.NotNil(t, obs.Portfolio)

	first, err := eng.Step(context.Background(), holdReq())
	require.NoError(t, err)
	assert.False(t, first.Done)
	require.NotNil(t, first.Metrics)

	last, err := eng.Step(context.Background(), holdReq())
	require.NoError(t, err)
	require.True(t, last.Done)
	assert.Contains(t, last.Info.Msg, "data exhausted")
}

func TestNewEngineRejectsUnknownMode(t *testing.T) {
	_, err := NewEngine(Mode("paper"), testConfig(5), Deps{})
	require.ErrorIs(t, err, ErrInvalidMode)
}
