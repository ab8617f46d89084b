package market

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

// Resolver converts requested trade terms into concluded terms. It is
// the seam where slippage or partial-fill models plug in; the baseline
// implementation concludes orders exactly as requested.
type Resolver interface {
	Resolve(req domain.TradeRequest) (ccldPrice, ccldQty decimal.Decimal)
}

// ImmediateResolver concludes every order at the requested terms. The
// quantity is untouched; the price is coerced to the instrument's tick
// precision.
type ImmediateResolver struct {
	tickPlaces int32
}

// NewImmediateResolver creates a resolver coercing prices to tickPlaces
// decimal places.
func NewImmediateResolver(tickPlaces int32) *ImmediateResolver {
	return &ImmediateResolver{tickPlaces: tickPlaces}
}

// Resolve returns the requested terms with the price truncated to the
// tick precision.
func (r *ImmediateResolver) Resolve(req domain.TradeRequest) (decimal.Decimal, decimal.Decimal) {
	return req.Price.Truncate(r.tickPlaces), req.Qty
}
