package market

import (
	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/precision"
)

// Accountant applies concluded trade terms to a portfolio. It performs
// no bounds checks: negative cash or quantity may result, and detecting
// insolvency is the engine's job. Every mutation goes through the
// central rounding policy.
type Accountant struct{}

// NewAccountant creates an accountant.
func NewAccountant() *Accountant {
	return &Accountant{}
}

// Apply returns a new portfolio snapshot with the ticket applied. The
// input portfolio is never mutated, so a failed downstream read can
// discard the result without corrupting state.
func (a *Accountant) Apply(ticket domain.TradeTicket, p *domain.Portfolio) *domain.Portfolio {
	next := p.Clone()

	switch ticket.Decision {
	case domain.Buy:
		next.Cash = precision.Round(next.Cash.Sub(ticket.TradingAmt).Sub(ticket.Fee))
		next.SetQty(ticket.Ticker, precision.Round(next.Qty(ticket.Ticker).Add(ticket.CcldQty)))
	case domain.Sell:
		next.Cash = precision.Round(next.Cash.Add(ticket.TradingAmt).Sub(ticket.Fee))
		next.SetQty(ticket.Ticker, precision.Round(next.Qty(ticket.Ticker).Sub(ticket.CcldQty)))
	case domain.Hold:
		// no mutation, no fee
	}

	return next
}
