package crawler

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/pkg/retrier"
)

// BinanceCrawler scraps the latest kline for a pair from the Binance
// public API on every call. The source is unbounded, so Len always runs
// one ahead of T and live episodes terminate on the time budget instead
// of data exhaustion.
type BinanceCrawler struct {
	client   *binance.Client
	pair     domain.Pair
	interval string
	store    *Store
	retrier  *retrier.Retrier
	logger   *zap.Logger
	t        int
}

// NewBinanceCrawler creates a crawler for the given pair and kline interval.
func NewBinanceCrawler(client *binance.Client, pair domain.Pair, interval string, logger *zap.Logger) *BinanceCrawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BinanceCrawler{
		client:   client,
		pair:     pair,
		interval: interval,
		store:    NewStore(),
		retrier:  retrier.New(retrier.WithMaxRetries(3)),
		logger:   logger,
	}
}

// Scrap pulls the latest kline into the store, retrying transient
// failures with backoff.
func (c *BinanceCrawler) Scrap(ctx context.Context) error {
	bar, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (domain.Bar, error) {
		return c.fetchLatest(ctx)
	})
	if err != nil {
		return errors.Wrapf(err, "scrap latest kline for %s", c.pair.String())
	}

	c.store.Append(bar)
	c.t++
	c.logger.Debug("scrapped bar",
		zap.String("pair", c.pair.String()),
		zap.Int("t", c.t),
		zap.String("close", bar.Close.String()))
	return nil
}

func (c *BinanceCrawler) fetchLatest(ctx context.Context) (domain.Bar, error) {
	klines, err := c.client.NewKlinesService().
		Symbol(c.pair.Symbol()).
		Interval(c.interval).
		Limit(1).
		Do(ctx)
	if err != nil {
		return domain.Bar{}, err
	}
	if len(klines) == 0 {
		return domain.Bar{}, errors.Errorf("binance returned no klines for %s", c.pair.String())
	}
	return barFromKline(klines[0])
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
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}

// T returns the crawler's step index.
func (c *BinanceCrawler) T() int { return c.t }

// Len reports one past the current index because the live source never
// runs out on its own.
func (c *BinanceCrawler) Len() int { return c.t + 1 }

// Store returns the bar store the crawler appends to.
func (c *BinanceCrawler) Store() *Store { return c.store }
