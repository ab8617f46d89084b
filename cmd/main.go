// Command tradegym runs episodic trading simulations for training and
// evaluating buy/sell/hold agents. Episodes run over a static bar
// series (local mode), a live crawler feed (live mode) or a remote gym
// server (api mode).
//
// Usage:
//
//	tradegym --config config.yaml
//	tradegym --setup (interactive wizard)
//	tradegym (uses CLI arguments)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/tradegym/config"
	"github.com/vadiminshakov/tradegym/internal/agent"
	"github.com/vadiminshakov/tradegym/internal/clients"
	"github.com/vadiminshakov/tradegym/internal/crawler"
	"github.com/vadiminshakov/tradegym/internal/feed"
	"github.com/vadiminshakov/tradegym/internal/market"
	"github.com/vadiminshakov/tradegym/internal/render"
	"github.com/vadiminshakov/tradegym/internal/setup"
	"github.com/vadiminshakov/tradegym/internal/storage/episodes"
	"github.com/vadiminshakov/tradegym/internal/web"
)

func main() {
	_ = godotenv.Load()

	configs, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if len(configs) == 1 && configs[0].Setup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, conf := range configs {
		if err := run(ctx, conf, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("episode run failed", zap.Error(err))
		}
	}
}

func run(ctx context.Context, conf config.Config, logger *zap.Logger) error {
	store, err := episodes.NewWALStore(conf.WALDir)
	if err != nil {
		return errors.Wrap(err, "init episode store")
	}
	defer store.Close()

	if conf.WebAddr != "" {
		server := web.NewServer(conf.WebAddr, store)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("dashboard server failed", zap.Error(err))
			}
		}()
		logger.Info("dashboard started", zap.String("addr", conf.WebAddr))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < conf.Episodes; i++ {
		episodeLogger := logger.With(
			zap.String("pair", conf.Pair.String()),
			zap.Int("episode", i))

		g.Go(func() error {
			eng, err := buildEngine(gctx, conf, episodeLogger)
			if err != nil {
				return errors.Wrap(err, "build engine")
			}
			return runEpisode(gctx, conf, eng, store, episodeLogger)
		})
	}
	return g.Wait()
}

// buildEngine wires mode-specific collaborators into an engine. Every
// episode gets an independent engine instance with no shared state.
func buildEngine(ctx context.Context, conf config.Config, logger *zap.Logger) (market.Engine, error) {
	cfg := market.Config{
		Pair:        conf.Pair,
		FeeRate:     conf.FeeRate,
		InitCash:    conf.InitCash,
		MaxSteps:    conf.MaxSteps,
		StepDelay:   conf.StepDelay,
		ShortPolicy: conf.ShortPolicy,
		Indicators:  conf.Indicators,
		AgentID:     conf.AgentID,
		Exchange:    conf.Exchange,
	}

	deps := market.Deps{Logger: logger}

	switch conf.Mode {
	case market.ModeLocal:
		f, err := buildFeed(ctx, conf)
		if err != nil {
			return nil, err
		}
		deps.Feed = f
	case market.ModeLive:
		c, err := buildCrawler(conf, logger)
		if err != nil {
			return nil, err
		}
		deps.Crawler = c
	case market.ModeAPI:
		if conf.APIURL == "" {
			return nil, errors.New("--apiurl is required for api mode")
		}
		deps.Remote = clients.NewGymClient(conf.APIURL)
	}

	return market.NewEngine(conf.Mode, cfg, deps)
}

func buildFeed(ctx context.Context, conf config.Config) (feed.Feed, error) {
	switch conf.Platform {
	case "binance":
		history := feed.NewBinanceHistory(binance.NewClient("", ""))
		return history.Load(ctx, conf.Pair, conf.Interval, conf.MaxSteps)
	case "random", "":
		bars := feed.RandomWalk(conf.MaxSteps, startPrice(), 1.0, time.Now().UnixNano())
		return feed.NewSeriesFeed(bars), nil
	default:
		return nil, errors.Errorf("unsupported platform: %s", conf.Platform)
	}
}

func buildCrawler(conf config.Config, logger *zap.Logger) (crawler.Crawler, error) {
	switch conf.Platform {
	case "binance":
		return crawler.NewBinanceCrawler(binance.NewClient("", ""), conf.Pair, conf.Interval, logger), nil
	case "random", "":
		bars := feed.RandomWalk(conf.MaxSteps, startPrice(), 1.0, time.Now().UnixNano())
		return crawler.NewReplayCrawler(bars), nil
	default:
		return nil, errors.Errorf("unsupported platform: %s", conf.Platform)
	}
}

func startPrice() decimal.Decimal {
	return decimal.NewFromInt(100)
}

// runEpisode drives one episode from reset to terminal done with the
// demo SMA agent, rendering and persisting every step.
func runEpisode(ctx context.Context, conf config.Config, eng market.Engine, store *episodes.WALStore, logger *zap.Logger) error {
	episodeID := uuid.NewString()
	var renderer render.Renderer = render.NewConsole(conf.Pair.From)
	if conf.Episodes > 1 {
		// parallel episodes interleave on stdout, keep the console quiet
		renderer = render.Nop{}
	}
	trader := agent.NewSMAAgent(conf.Pair.From, 20, conf.TradeQty)

	obs, err := eng.Reset(ctx)
	if err != nil {
		return errors.Wrap(err, "reset episode")
	}

	for {
		req := trader.Act(obs, eng.Portfolio())

		result, err := eng.Step(ctx, req)
		if err != nil {
			return errors.Wrapf(err, "step t=%d", obs.T)
		}

		renderer.Render(result.Observation.Window, eng.Portfolio(), result.Info, req.Decision)

		record := episodes.StepRecord{
			EpisodeID:    episodeID,
			T:            result.Observation.T,
			Ticker:       req.Ticker,
			Decision:     req.Decision.String(),
			CcldPrice:    req.Price.String(),
			CcldQty:      req.Qty.String(),
			Fee:          result.Info.Fee.String(),
			Reward:       result.Reward.String(),
			PortfolioVal: result.Info.CurPortfolioVal.String(),
			Done:         result.Done,
			Msg:          result.Info.Msg,
			Time:         time.Now(),
		}
		if err := store.Save(record); err != nil {
			logger.Warn("failed to persist step record", zap.Error(err))
		}

		if result.Done {
			logger.Info("episode finished",
				zap.String("episode_id", episodeID),
				zap.Int("t", result.Observation.T),
				zap.String("portfolio_val", result.Info.CurPortfolioVal.String()),
				zap.String("msg", result.Info.Msg))
			return nil
		}

		obs = result.Observation
	}
}
