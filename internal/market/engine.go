// Package market implements the trading episode engine: the state
// machine that ingests a price stream, applies agent decisions, updates
// portfolio state, computes rewards and decides episode termination.
package market

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradegym/internal/crawler"
	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/feed"
)

// Mode selects the episode engine strategy at construction time.
type Mode string

const (
	// ModeLocal runs episodes over a static bar series with the
	// sign-only baseline reward.
	ModeLocal Mode = "local"
	// ModeLive runs episodes over a crawler-backed feed with the
	// extended returns reward and metrics.
	ModeLive Mode = "live"
	// ModeAPI delegates every call to a remote gym server.
	ModeAPI Mode = "api"
)

// ShortPolicy decides what happens when a SELL exceeds current holdings.
type ShortPolicy string

const (
	// ShortReject rejects the oversized sell (default).
	ShortReject ShortPolicy = "reject"
	// ShortAllow lets the quantity go negative (implicit short).
	ShortAllow ShortPolicy = "allow"
	// ShortClamp caps the sell at the held quantity.
	ShortClamp ShortPolicy = "clamp"
)

// Config carries the episode parameters shared by all engine modes.
type Config struct {
	Pair     domain.Pair
	FeeRate  decimal.Decimal
	InitCash decimal.Decimal
	// MaxSteps bounds the episode length (max_t_size).
	MaxSteps int
	// StepDelay paces live steps to respect data-source rate limits.
	StepDelay   time.Duration
	ShortPolicy ShortPolicy
	// TickPlaces is the instrument's price tick precision.
	TickPlaces int32
	// Indicators enables technical indicator enrichment of observations.
	Indicators bool

	// AgentID and Exchange identify the participant in API mode.
	AgentID  string
	Exchange string
}

func (c *Config) applyDefaults() {
	if c.FeeRate.IsZero() {
		c.FeeRate = decimal.NewFromFloat(0.0005)
	}
	if c.InitCash.IsZero() {
		c.InitCash = decimal.NewFromInt(100000000)
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 100
	}
	if c.ShortPolicy == "" {
		c.ShortPolicy = ShortReject
	}
}

// Engine is the episode engine contract: one bounded run from Reset to
// terminal done. Exactly one Step call is in flight at a time.
type Engine interface {
	// Reset re-initializes the episode and returns the initial observation.
	Reset(ctx context.Context) (domain.Observation, error)
	// Step applies one agent decision and advances simulation time.
	Step(ctx context.Context, req domain.TradeRequest) (*domain.StepResult, error)
	// Portfolio returns the last fully consistent portfolio snapshot,
	// or nil when the engine keeps no local bookkeeping.
	Portfolio() *domain.Portfolio
}

// Deps are the collaborators the factory wires into an engine.
type Deps struct {
	// Feed backs local mode.
	Feed feed.Feed
	// Crawler backs live mode; its store becomes the feed.
	Crawler crawler.Crawler
	// Remote backs API mode.
	Remote RemoteAPI
	Logger *zap.Logger
}

// NewEngine builds the engine strategy for the given mode.
func NewEngine(mode Mode, cfg Config, deps Deps) (Engine, error) {
	switch mode {
	case ModeLocal:
		return NewLocalEngine(cfg, deps.Feed, nil, NewSignPolicy(), deps.Logger)
	case ModeLive:
		if deps.Crawler == nil {
			return nil, errors.New("crawler is required for live mode")
		}
		return NewLocalEngine(cfg, deps.Crawler.Store(), deps.Crawler, NewReturnsPolicy(), deps.Logger)
	case ModeAPI:
		return NewRemoteEngine(cfg, deps.Remote, deps.Logger)
	default:
		return nil, errors.Wrapf(ErrInvalidMode, "%q (expected local, live or api)", mode)
	}
}
