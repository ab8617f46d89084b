// Package agent holds demo decision-makers that drive the episode
// runner. Agents only consume observations and emit trade requests; the
// engine requires nothing else from them.
package agent

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/indicators"
)

// SMAAgent is a simple moving-average crossover agent: buy when price
// crosses above the SMA, sell the whole holding when it crosses below,
// hold otherwise.
type SMAAgent struct {
	ticker string
	period int
	// qty is the fixed quantity bought per signal.
	qty decimal.Decimal
}

// NewSMAAgent creates an agent trading a fixed quantity of the ticker.
func NewSMAAgent(ticker string, period int, qty decimal.Decimal) *SMAAgent {
	if period <= 0 {
		period = 20
	}
	return &SMAAgent{ticker: ticker, period: period, qty: qty}
}

// Act derives the next trade request from the observation and the
// current portfolio snapshot.
func (a *SMAAgent) Act(obs domain.Observation, portfolio *domain.Portfolio) domain.TradeRequest {
	req := domain.TradeRequest{
		Ticker:   a.ticker,
		Decision: domain.Hold,
		Price:    obs.CurPrice,
	}

	sma, err := indicators.SMA(obs.Window, a.period)
	if err != nil || len(sma) == 0 {
		return req
	}
	latest := sma[len(sma)-1]

	held := decimal.Zero
	if portfolio != nil {
		held = portfolio.Qty(a.ticker)
	}

	switch {
	case obs.CurPrice.GreaterThan(latest) && held.IsZero():
		req.Decision = domain.Buy
		req.Qty = a.qty
	case obs.CurPrice.LessThan(latest) && held.IsPositive():
		req.Decision = domain.Sell
		req.Qty = held
	}

	return req
}
