// Package config loads gym configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/market"
)

// Config is one episode-runner configuration.
type Config struct {
	Mode     market.Mode
	Platform string
	Pair     domain.Pair
	FeeRate  decimal.Decimal
	InitCash decimal.Decimal
	MaxSteps int
	// StepDelay paces steps against rate-limited data sources.
	StepDelay   time.Duration
	ShortPolicy market.ShortPolicy
	Interval    string
	// Episodes is the number of independent parallel episodes to run.
	Episodes int
	// TradeQty is the fixed per-signal quantity of the demo agent.
	TradeQty decimal.Decimal

	// APIURL, AgentID and Exchange configure hackathon/API mode.
	APIURL   string
	AgentID  string
	Exchange string

	// WebAddr enables the step-stream dashboard when non-empty.
	WebAddr string
	// WALDir overrides the episode WAL directory.
	WALDir string
	// Indicators enables observation enrichment.
	Indicators bool
	// Setup launches the interactive config wizard.
	Setup bool
}

// ConfigTmp mirrors the YAML layout before parsing decimal fields.
type ConfigTmp struct {
	Mode        string        `yaml:"mode"`
	Platform    string        `yaml:"platform"`
	Pair        string        `yaml:"pair"`
	FeeRate     string        `yaml:"fee_rate,omitempty"`
	InitCash    string        `yaml:"init_cash,omitempty"`
	MaxSteps    int           `yaml:"max_steps,omitempty"`
	StepDelay   time.Duration `yaml:"step_delay,omitempty"`
	ShortPolicy string        `yaml:"short_policy,omitempty"`
	Interval    string        `yaml:"interval,omitempty"`
	Episodes    int           `yaml:"episodes,omitempty"`
	TradeQty    string        `yaml:"trade_qty,omitempty"`
	APIURL      string        `yaml:"api_url,omitempty"`
	AgentID     string        `yaml:"agent_id,omitempty"`
	Exchange    string        `yaml:"exchange,omitempty"`
	WebAddr     string        `yaml:"web_addr,omitempty"`
	WALDir      string        `yaml:"wal_dir,omitempty"`
	Indicators  bool          `yaml:"indicators,omitempty"`
}

// Get loads the configuration from --config YAML or from CLI flags.
func Get() ([]Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	setup := flag.Bool("setup", false, "run the interactive config wizard")
	mode := flag.String("mode", "local", "execution mode: local, live or api")
	platform := flag.String("platform", "random", "data platform: binance or random")
	pairFlag := flag.String("pair", "BTC_USDT", "trade pair, example: BTC_USDT")
	feeRate := flag.String("feerate", "0.0005", "proportional fee rate")
	initCash := flag.String("initcash", "100000000", "starting cash balance")
	maxSteps := flag.Int("maxsteps", 100, "episode time budget (max_t_size)")
	stepDelay := flag.Duration("stepdelay", 0, "pacing delay between steps, example: 300ms")
	shortPolicy := flag.String("shortpolicy", "reject", "short selling policy: reject, allow or clamp")
	interval := flag.String("interval", "1m", "bar interval, example: 1m")
	episodes := flag.Int("episodes", 1, "number of parallel episodes")
	tradeQty := flag.String("tradeqty", "10", "demo agent trade quantity per signal")
	apiURL := flag.String("apiurl", "", "remote gym server URL (api mode)")
	agentID := flag.String("agentid", "", "agent id (api mode)")
	exchange := flag.String("exchange", "Upbit", "exchange name (api mode)")
	webAddr := flag.String("webaddr", "", "dashboard listen address, example: :8080")
	walDir := flag.String("waldir", "", "episode WAL directory")
	withIndicators := flag.Bool("indicators", false, "attach technical indicators to observations")
	flag.Parse()

	if *setup {
		return []Config{{Setup: true}}, nil
	}
	if *configPath != "" {
		return getYaml(*configPath)
	}

	pair, err := getPairFromString(*pairFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --pair provided, --pair=%s", *pairFlag)
	}
	fee, err := decimal.NewFromString(*feeRate)
	if err != nil {
		return nil, fmt.Errorf("invalid --feerate provided: %w", err)
	}
	cash, err := decimal.NewFromString(*initCash)
	if err != nil {
		return nil, fmt.Errorf("invalid --initcash provided: %w", err)
	}
	qty, err := decimal.NewFromString(*tradeQty)
	if err != nil {
		return nil, fmt.Errorf("invalid --tradeqty provided: %w", err)
	}

	return []Config{
		{
			Mode:        market.Mode(*mode),
			Platform:    *platform,
			Pair:        pair,
			FeeRate:     fee,
			InitCash:    cash,
			MaxSteps:    *maxSteps,
			StepDelay:   *stepDelay,
			ShortPolicy: market.ShortPolicy(*shortPolicy),
			Interval:    *interval,
			Episodes:    *episodes,
			TradeQty:    qty,
			APIURL:      *apiURL,
			AgentID:     *agentID,
			Exchange:    *exchange,
			WebAddr:     *webAddr,
			WALDir:      *walDir,
			Indicators:  *withIndicators,
		},
	}, nil
}

func getYaml(path string) ([]Config, error) {
	var configsTmp []ConfigTmp
	var configs []Config

	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(f, &configsTmp); err != nil {
		return nil, err
	}

	for _, c := range configsTmp {
		pair, err := getPairFromString(c.Pair)
		if err != nil {
			return nil, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", c.Pair, err)
		}

		newConfig := Config{
			Mode:        market.Mode(c.Mode),
			Platform:    c.Platform,
			Pair:        pair,
			MaxSteps:    c.MaxSteps,
			StepDelay:   c.StepDelay,
			ShortPolicy: market.ShortPolicy(c.ShortPolicy),
			Interval:    c.Interval,
			Episodes:    c.Episodes,
			APIURL:      c.APIURL,
			AgentID:     c.AgentID,
			Exchange:    c.Exchange,
			WebAddr:     c.WebAddr,
			WALDir:      c.WALDir,
			Indicators:  c.Indicators,
		}

		if c.FeeRate == "" {
			newConfig.FeeRate = decimal.NewFromFloat(0.0005)
		} else {
			newConfig.FeeRate, err = decimal.NewFromString(c.FeeRate)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'fee_rate' param in yaml config (must be a decimal), error: %w", err)
			}
		}

		if c.InitCash == "" {
			newConfig.InitCash = decimal.NewFromInt(100000000)
		} else {
			newConfig.InitCash, err = decimal.NewFromString(c.InitCash)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'init_cash' param in yaml config (must be a decimal), error: %w", err)
			}
		}

		if c.TradeQty == "" {
			newConfig.TradeQty = decimal.NewFromInt(10)
		} else {
			newConfig.TradeQty, err = decimal.NewFromString(c.TradeQty)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'trade_qty' param in yaml config (must be a decimal), error: %w", err)
			}
		}

		if newConfig.MaxSteps == 0 {
			newConfig.MaxSteps = 100
		}
		if newConfig.Episodes == 0 {
			newConfig.Episodes = 1
		}
		if newConfig.Interval == "" {
			newConfig.Interval = "1m"
		}
		if newConfig.ShortPolicy == "" {
			newConfig.ShortPolicy = market.ShortReject
		}

		configs = append(configs, newConfig)
	}
	return configs, nil
}

func getPairFromString(pairStr string) (domain.Pair, error) {
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 {
		return domain.Pair{}, fmt.Errorf("invalid pair param")
	}
	return domain.Pair{From: pairElements[0], To: pairElements[1]}, nil
}
