package market

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

// RemoteAPI is the remote execution collaborator used in API mode.
type RemoteAPI interface {
	// Select picks the exchange and returns its fee rate.
	Select(ctx context.Context, exchange string) (decimal.Decimal, error)
	// Reset starts a new remote episode for the agent.
	Reset(ctx context.Context, agentID string) (domain.Observation, error)
	// Step forwards one decision to the remote engine.
	Step(ctx context.Context, agentID string, req domain.TradeRequest) (*domain.StepResult, error)
	// Scrap asks the server to collect market data for the time range.
	Scrap(ctx context.Context, start, end time.Time) error
}

// RemoteEngine delegates the whole episode to a remote gym server. It
// keeps no local portfolio bookkeeping; the only state it tracks is the
// terminal flag so stepping a finished episode fails fast locally.
type RemoteEngine struct {
	cfg    Config
	api    RemoteAPI
	logger *zap.Logger
	done   bool
}

// NewRemoteEngine creates an API-mode engine.
func NewRemoteEngine(cfg Config, api RemoteAPI, logger *zap.Logger) (*RemoteEngine, error) {
	if api == nil {
		return nil, errors.New("remote API client is required for api mode")
	}
	if cfg.AgentID == "" {
		return nil, errors.New("agent id is required for api mode")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()

	return &RemoteEngine{cfg: cfg, api: api, logger: logger}, nil
}

// Reset selects the exchange and starts a new remote episode.
func (e *RemoteEngine) Reset(ctx context.Context) (domain.Observation, error) {
	feeRate, err := e.api.Select(ctx, e.cfg.Exchange)
	if err != nil {
		return domain.Observation{}, errors.Wrapf(err, "select exchange %s", e.cfg.Exchange)
	}

	obs, err := e.api.Reset(ctx, e.cfg.AgentID)
	if err != nil {
		return domain.Observation{}, errors.Wrap(err, "remote reset")
	}
	if obs.FeeRate.IsZero() {
		obs.FeeRate = feeRate
	}

	e.done = false
	e.logger.Info("remote episode reset",
		zap.String("exchange", e.cfg.Exchange),
		zap.String("agent_id", e.cfg.AgentID),
		zap.String("fee_rate", feeRate.String()))
	return obs, nil
}

// Step forwards the decision to the remote engine.
func (e *RemoteEngine) Step(ctx context.Context, req domain.TradeRequest) (*domain.StepResult, error) {
	if e.done {
		return nil, ErrEpisodeDone
	}
	if !req.Decision.Valid() {
		return nil, errors.Errorf("unknown decision: %d", req.Decision)
	}
	if req.Ticker == "" {
		req.Ticker = e.cfg.Pair.From
	}

	result, err := e.api.Step(ctx, e.cfg.AgentID, req)
	if err != nil {
		return nil, errors.Wrap(err, "remote step")
	}
	if result.Done {
		e.done = true
	}
	return result, nil
}

// Portfolio returns nil: API mode performs no local bookkeeping.
func (e *RemoteEngine) Portfolio() *domain.Portfolio {
	return nil
}

// Scrap forwards a data-collection request to the server.
func (e *RemoteEngine) Scrap(ctx context.Context, start, end time.Time) error {
	return e.api.Scrap(ctx, start, end)
}
