package market

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradegym/internal/crawler"
	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/feed"
	"github.com/vadiminshakov/tradegym/internal/indicators"
	"github.com/vadiminshakov/tradegym/internal/precision"
)

// LocalEngine runs the whole resolve/apply/reward pipeline in-process.
// It owns the step counter, the portfolio and the terminal flag; one
// engine instance serves exactly one episode at a time, and concurrent
// episodes must use independent instances.
type LocalEngine struct {
	cfg        Config
	feed       feed.Feed
	crawler    crawler.Crawler
	resolver   Resolver
	accountant *Accountant
	policy     RewardPolicy
	logger     *zap.Logger

	t         int
	done      bool
	portfolio *domain.Portfolio
	// lastVal is the portfolio value at the last observed price. It is
	// retained across steps so deltas compare against the previous
	// value, never a recomputed one.
	lastVal decimal.Decimal
}

// NewLocalEngine creates an engine over the given feed. A non-nil
// crawler switches the engine into live mode: every step scraps the
// next bar and the data-exhaustion predicate becomes active.
func NewLocalEngine(cfg Config, f feed.Feed, c crawler.Crawler, policy RewardPolicy, logger *zap.Logger) (*LocalEngine, error) {
	if f == nil {
		return nil, errors.New("feed is required for local engine")
	}
	if policy == nil {
		policy = NewSignPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()

	return &LocalEngine{
		cfg:        cfg,
		feed:       f,
		crawler:    c,
		resolver:   NewImmediateResolver(cfg.TickPlaces),
		accountant: NewAccountant(),
		policy:     policy,
		logger:     logger,
	}, nil
}

// Reset re-initializes the episode: step counter to zero, a fresh
// portfolio with the configured starting cash, and the initial
// observation. Valid from any state.
func (e *LocalEngine) Reset(ctx context.Context) (domain.Observation, error) {
	if e.crawler != nil && e.crawler.Store().Len() == 0 {
		if err := e.crawler.Scrap(ctx); err != nil {
			return domain.Observation{}, errors.Wrap(err, "initial scrap")
		}
	}

	e.t = 0
	e.done = false
	e.portfolio = domain.NewPortfolio(e.cfg.InitCash)
	e.lastVal = e.cfg.InitCash

	obs, err := e.observe(0)
	if err != nil {
		return domain.Observation{}, err
	}

	e.logger.Info("episode reset",
		zap.String("pair", e.cfg.Pair.String()),
		zap.String("init_cash", e.cfg.InitCash.String()),
		zap.Int("max_t_size", e.maxT()))
	return obs, nil
}

// Step runs one turn of the episode: resolve the requested terms, apply
// them to the portfolio, advance time, compute reward and termination,
// and emit the (observation, reward, done, info) tuple. The portfolio
// mutation is committed only after the next price read succeeds, so a
// failing feed never leaves the portfolio half-updated.
func (e *LocalEngine) Step(ctx context.Context, req domain.TradeRequest) (*domain.StepResult, error) {
	if e.done {
		return nil, ErrEpisodeDone
	}
	if e.portfolio == nil {
		return nil, errors.New("engine is not reset")
	}
	if !req.Decision.Valid() {
		return nil, errors.Errorf("unknown decision: %d", req.Decision)
	}
	if req.Ticker == "" {
		req.Ticker = e.cfg.Pair.From
	}
	if req.Ticker != e.cfg.Pair.From {
		return nil, errors.Errorf("unknown ticker %q, engine trades %s", req.Ticker, e.cfg.Pair.From)
	}
	if err := e.admitShort(&req); err != nil {
		return nil, err
	}

	ticket := e.conclude(req)
	prevVal := e.lastVal
	candidate := e.accountant.Apply(ticket, e.portfolio)

	nextT := e.t + 1
	if e.crawler != nil {
		if err := e.crawler.Scrap(ctx); err != nil {
			return nil, errors.Wrap(err, "scrap next bar")
		}
	}
	nextPrice, err := e.feed.PriceAt(nextT)
	if err != nil {
		return nil, errors.Wrapf(err, "read price at t=%d", nextT)
	}

	// commit point: mutation and time advance happen together
	e.portfolio = candidate
	e.t = nextT
	curVal := e.portfolio.ValueAt(ticket.Ticker, nextPrice)
	e.lastVal = curVal

	reward, metrics := e.policy.Compute(RewardInput{
		Decision:  ticket.Decision,
		PrevVal:   prevVal,
		CurVal:    curVal,
		Ticket:    ticket,
		NextPrice: nextPrice,
		FeeRate:   e.cfg.FeeRate,
		InitCash:  e.cfg.InitCash,
	})

	done, msg := e.checkDone(curVal)
	if done {
		e.done = true
		e.logger.Info("episode done",
			zap.String("pair", e.cfg.Pair.String()),
			zap.Int("t", e.t),
			zap.String("portfolio_val", curVal.String()),
			zap.String("msg", msg))
	}

	obs, err := e.observe(e.t)
	if err != nil {
		return nil, err
	}

	info := domain.StepInfo{
		PrevPortfolioVal: prevVal,
		CurPortfolioVal:  curVal,
		StepReturn:       precision.Round(curVal.Sub(prevVal)),
		StepReturnPct:    precision.Pct(prevVal, curVal),
		Fee:              ticket.Fee,
		Msg:              msg,
	}

	if err := e.pace(ctx); err != nil {
		return nil, err
	}

	return &domain.StepResult{
		Observation: obs,
		Reward:      reward,
		Metrics:     metrics,
		Done:        done,
		Info:        info,
	}, nil
}

// Portfolio returns the last fully consistent portfolio snapshot. After
// a failed step it still reflects the state before that step.
func (e *LocalEngine) Portfolio() *domain.Portfolio {
	if e.portfolio == nil {
		return nil
	}
	return e.portfolio.Clone()
}

// conclude invokes the resolver and prices the fee. HOLD is never routed
// through the fee computation.
func (e *LocalEngine) conclude(req domain.TradeRequest) domain.TradeTicket {
	ticket := domain.TradeTicket{
		Ticker:    req.Ticker,
		Decision:  req.Decision,
		TradPrice: req.Price,
		TradQty:   req.Qty,
	}
	if req.Decision == domain.Hold {
		return ticket
	}

	ticket.CcldPrice, ticket.CcldQty = e.resolver.Resolve(req)
	ticket.TradingAmt = precision.Round(ticket.CcldPrice.Mul(ticket.CcldQty))
	ticket.Fee = precision.Round(ticket.TradingAmt.Mul(e.cfg.FeeRate))
	return ticket
}

// admitShort enforces the configured short-selling policy on SELL
// requests before they reach the resolver.
func (e *LocalEngine) admitShort(req *domain.TradeRequest) error {
	if req.Decision != domain.Sell {
		return nil
	}

	held := e.portfolio.Qty(req.Ticker)
	if req.Qty.LessThanOrEqual(held) {
		return nil
	}

	switch e.cfg.ShortPolicy {
	case ShortAllow:
		return nil
	case ShortClamp:
		req.Qty = held
		return nil
	default:
		return errors.Errorf("sell qty %s exceeds held qty %s and short selling is disabled",
			req.Qty.String(), held.String())
	}
}

func (e *LocalEngine) checkDone(curVal decimal.Decimal) (bool, string) {
	maxT := e.maxT()
	if e.t >= maxT-1 {
		return true, fmt.Sprintf("t overflow: max_t_size=%d, current_t=%d", maxT, e.t)
	}
	if curVal.LessThanOrEqual(decimal.Zero) {
		return true, fmt.Sprintf("bankrupt: portfolio value %s", curVal.String())
	}
	if e.crawler != nil && e.crawler.T() >= e.crawler.Len() {
		return true, fmt.Sprintf("data exhausted: t=%d, feed length %d", e.crawler.T(), e.crawler.Len())
	}
	return false, ""
}

// maxT is the effective time budget: the configured limit, capped by a
// finite feed in pure local mode.
func (e *LocalEngine) maxT() int {
	maxT := e.cfg.MaxSteps
	if e.crawler == nil && e.feed.Len() < maxT {
		maxT = e.feed.Len()
	}
	return maxT
}

func (e *LocalEngine) observe(t int) (domain.Observation, error) {
	window, err := e.feed.Window(t)
	if err != nil {
		return domain.Observation{}, errors.Wrapf(err, "sample window up to t=%d", t)
	}

	obs := domain.Observation{
		Window:   window,
		FeeRate:  e.cfg.FeeRate,
		CurPrice: window[len(window)-1].Close,
		T:        t,
	}
	if e.crawler != nil {
		obs.Portfolio = e.portfolio.Clone()
	}
	if e.cfg.Indicators {
		// enrichment is best effort: short windows simply omit it
		if set, err := indicators.Compute(window); err == nil {
			obs.Indicators = set
		}
	}
	return obs, nil
}

// pace applies the configured per-step delay as a cancellable wait so a
// caller can abort an episode mid-throttle.
func (e *LocalEngine) pace(ctx context.Context) error {
	if e.cfg.StepDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.StepDelay):
		return nil
	}
}
