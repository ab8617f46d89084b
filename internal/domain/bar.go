package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is a single candlestick data point of the price feed.
type Bar struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}

// ClosePrice returns the closing price of the bar.
func (b *Bar) ClosePrice() decimal.Decimal {
	return b.Close
}
