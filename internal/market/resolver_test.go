package market

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

func TestImmediateResolver(t *testing.T) {
	t.Run("price truncated to tick precision", func(t *testing.T) {
		r := NewImmediateResolver(2)

		price, qty := r.Resolve(domain.TradeRequest{
			Price: decimal.RequireFromString("100.129"),
			Qty:   decimal.RequireFromString("3.5"),
		})

		requireDecimal(t, "100.12", price)
		requireDecimal(t, "3.5", qty)
	})

	t.Run("zero tick places keeps whole prices", func(t *testing.T) {
		r := NewImmediateResolver(0)

		price, _ := r.Resolve(domain.TradeRequest{
			Price: decimal.RequireFromString("100.99"),
			Qty:   decimal.NewFromInt(1),
		})

		requireDecimal(t, "100", price)
	})
}
