package domain

import "github.com/shopspring/decimal"

// TradeRequest carries the terms an agent asks for on a step.
type TradeRequest struct {
	Ticker   string
	Decision Decision
	// Price the agent wants to trade at.
	Price decimal.Decimal
	// Qty the agent wants to trade.
	Qty decimal.Decimal
}

// TradeTicket is the transient record of one step's trade: the requested
// terms, the concluded terms actually applied to the portfolio, and the
// proportional fee charged on the concluded notional.
type TradeTicket struct {
	Ticker    string
	Decision  Decision
	TradPrice decimal.Decimal
	TradQty   decimal.Decimal
	CcldPrice decimal.Decimal
	CcldQty   decimal.Decimal
	// TradingAmt is the concluded notional (CcldPrice * CcldQty).
	TradingAmt decimal.Decimal
	Fee        decimal.Decimal
}
