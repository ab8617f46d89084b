package domain

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/precision"
)

// Portfolio is the owned snapshot of an agent's holdings. It is mutated
// only by the episode engine's accountant; collaborators receive copies.
type Portfolio struct {
	// Cash is the quote-currency balance. It may go negative transiently;
	// insolvency detection is the engine's job, not the portfolio's.
	Cash decimal.Decimal
	// AssetQtys maps instrument ticker to held quantity.
	AssetQtys map[string]decimal.Decimal
	// InitCash is the starting balance, kept for cumulative scoring.
	InitCash decimal.Decimal
}

// NewPortfolio creates a portfolio holding only cash.
func NewPortfolio(initCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		Cash:      initCash,
		AssetQtys: make(map[string]decimal.Decimal),
		InitCash:  initCash,
	}
}

// Qty returns the held quantity of the given ticker.
func (p *Portfolio) Qty(ticker string) decimal.Decimal {
	return p.AssetQtys[ticker]
}

// SetQty replaces the held quantity of the given ticker.
func (p *Portfolio) SetQty(ticker string, qty decimal.Decimal) {
	p.AssetQtys[ticker] = qty
}

// AssetValueAt returns the mark-to-market value of the ticker holding
// at the given price.
func (p *Portfolio) AssetValueAt(ticker string, price decimal.Decimal) decimal.Decimal {
	return precision.Round(p.Qty(ticker).Mul(price))
}

// ValueAt returns cash plus the mark-to-market value of the ticker
// holding at the given price.
func (p *Portfolio) ValueAt(ticker string, price decimal.Decimal) decimal.Decimal {
	return precision.Round(p.Cash.Add(p.AssetValueAt(ticker, price)))
}

// Clone returns a deep copy. The engine mutates a clone and commits it
// only after the whole step pipeline succeeds, so current and next
// snapshots never alias.
func (p *Portfolio) Clone() *Portfolio {
	qtys := make(map[string]decimal.Decimal, len(p.AssetQtys))
	for ticker, qty := range p.AssetQtys {
		qtys[ticker] = qty
	}
	return &Portfolio{
		Cash:      p.Cash,
		AssetQtys: qtys,
		InitCash:  p.InitCash,
	}
}
