package feed

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

// BinanceHistory loads historical klines from the Binance public API and
// turns them into a static series for local episodes.
type BinanceHistory struct {
	client *binance.Client
}

// NewBinanceHistory creates a Binance historical bar loader. The klines
// endpoint is public, so the client needs no credentials.
func NewBinanceHistory(client *binance.Client) *BinanceHistory {
	return &BinanceHistory{client: client}
}

// Load fetches up to limit klines for the pair and interval.
func (h *BinanceHistory) Load(ctx context.Context, pair domain.Pair, interval string, limit int) (*SeriesFeed, error) {
	klines, err := h.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}
	if len(klines) == 0 {
		return nil, errors.Errorf("binance returned no klines for %s", pair.String())
	}

	bars := make([]domain.Bar, len(klines))
	for i, k := range klines {
		bar, err := barFromKline(k)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse kline at index %d", i)
		}
		bars[i] = bar
	}

	return NewSeriesFeed(bars), nil
}

func barFromKline(k *binance.Kline) (domain.Bar, error) {
	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return domain.Bar{}, errors.Wrap(err, "parse open price")
	}
	high, err := decimal.NewFromString(k.High)
	if err != nil {
		return domain.Bar{}, errors.Wrap(err, "parse high price")
	}
	low, err := decimal.NewFromString(k.Low)
	if err != nil {
		return domain.Bar{}, errors.Wrap(err, "parse low price")
	}
	closePrice, err := decimal.NewFromString(k.Close)
	if err != nil {
		return domain.Bar{}, errors.Wrap(err, "parse close price")
	}
	volume, err := decimal.NewFromString(k.Volume)
	if err != nil {
		return domain.Bar{}, errors.Wrap(err, "parse volume")
	}

	return domain.Bar{
		OpenTime:  time.Unix(0, k.OpenTime*int64(time.Millisecond)),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		CloseTime: time.Unix(0, k.CloseTime*int64(time.Millisecond)),
	}, nil
}
