// Package clients holds HTTP clients for remote collaborators.
package clients

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

// GymClient talks to a remote gym server in hackathon/API mode. The
// engine delegates select/reset/step/scrap entirely to it.
type GymClient struct {
	client *resty.Client
}

// NewGymClient creates a client for the given base URL.
func NewGymClient(baseURL string) *GymClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)

	return &GymClient{client: client}
}

type selectResponse struct {
	FeeRate string `json:"fee_rt"`
}

type resetResponse struct {
	Obs wireObservation `json:"obs"`
}

type stepRequest struct {
	AgentID   string `json:"agent_id"`
	Ticker    string `json:"ticker"`
	Decision  string `json:"decision"`
	TradQty   string `json:"trad_qty"`
	TradPrice string `json:"trad_price"`
}

type stepResponse struct {
	NextObs wireObservation `json:"next_obs"`
	Reward  string          `json:"reward"`
	Rewards wireMetrics     `json:"rewards"`
	Done    bool            `json:"done"`
	Info    wireInfo        `json:"info"`
}

type wireObservation struct {
	FeeRate  string   `json:"fee_rt"`
	CurPrice string   `json:"cur_price"`
	T        int      `json:"t"`
	Closes   []string `json:"data"`
}

type wireMetrics struct {
	ReturnAmt  string  `json:"return_amt"`
	ReturnPct  string  `json:"return_per"`
	ReturnSign int     `json:"return_sign"`
	Fee        string  `json:"fee"`
	Hit        float64 `json:"hit"`
	RealHit    float64 `json:"real_hit"`
	ScoreAmt   string  `json:"score_amt"`
	ScorePct   string  `json:"score"`
}

type wireInfo struct {
	Msg string `json:"msg"`
}

// Select picks the exchange on the server and returns its fee rate.
func (c *GymClient) Select(ctx context.Context, exchange string) (decimal.Decimal, error) {
	var out selectResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("exchange", exchange).
		SetResult(&out).
		Get("/select")
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "select request")
	}
	if resp.IsError() {
		return decimal.Decimal{}, errors.Errorf("select returned %s", resp.Status())
	}

	feeRate, err := decimal.NewFromString(out.FeeRate)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse fee rate")
	}
	return feeRate, nil
}

// Reset starts a remote episode for the agent.
func (c *GymClient) Reset(ctx context.Context, agentID string) (domain.Observation, error) {
	var out resetResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		SetResult(&out).
		Get("/reset")
	if err != nil {
		return domain.Observation{}, errors.Wrap(err, "reset request")
	}
	if resp.IsError() {
		return domain.Observation{}, errors.Errorf("reset returned %s", resp.Status())
	}

	return out.Obs.toDomain()
}

// Step forwards one decision to the remote engine.
func (c *GymClient) Step(ctx context.Context, agentID string, req domain.TradeRequest) (*domain.StepResult, error) {
	var out stepResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(stepRequest{
			AgentID:   agentID,
			Ticker:    req.Ticker,
			Decision:  req.Decision.String(),
			TradQty:   req.Qty.String(),
			TradPrice: req.Price.String(),
		}).
		SetResult(&out).
		Post("/step")
	if err != nil {
		return nil, errors.Wrap(err, "step request")
	}
	if resp.IsError() {
		return nil, errors.Errorf("step returned %s", resp.Status())
	}

	obs, err := out.NextObs.toDomain()
	if err != nil {
		return nil, err
	}

	reward := decimal.Zero
	if out.Reward != "" {
		reward, err = decimal.NewFromString(out.Reward)
		if err != nil {
			return nil, errors.Wrap(err, "parse reward")
		}
	}

	metrics, err := out.Rewards.toDomain()
	if err != nil {
		return nil, err
	}

	return &domain.StepResult{
		Observation: obs,
		Reward:      reward,
		Metrics:     metrics,
		Done:        out.Done,
		Info:        domain.StepInfo{Msg: out.Info.Msg, Fee: metrics.Fee},
	}, nil
}

// Scrap asks the server to collect market data for the time range.
func (c *GymClient) Scrap(ctx context.Context, start, end time.Time) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start_time": start.Format(time.RFC3339),
			"end_time":   end.Format(time.RFC3339),
		}).
		Get("/scrap")
	if err != nil {
		return errors.Wrap(err, "scrap request")
	}
	if resp.IsError() {
		return errors.Errorf("scrap returned %s", resp.Status())
	}
	return nil
}

func (o *wireObservation) toDomain() (domain.Observation, error) {
	obs := domain.Observation{T: o.T}

	if o.FeeRate != "" {
		feeRate, err := decimal.NewFromString(o.FeeRate)
		if err != nil {
			return domain.Observation{}, errors.Wrap(err, "parse observation fee rate")
		}
		obs.FeeRate = feeRate
	}
	if o.CurPrice != "" {
		curPrice, err := decimal.NewFromString(o.CurPrice)
		if err != nil {
			return domain.Observation{}, errors.Wrap(err, "parse observation price")
		}
		obs.CurPrice = curPrice
	}

	obs.Window = make([]domain.Bar, 0, len(o.Closes))
	for i, raw := range o.Closes {
		closePrice, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Observation{}, errors.Wrapf(err, "parse close at index %d", i)
		}
		obs.Window = append(obs.Window, domain.Bar{Close: closePrice})
	}

	return obs, nil
}

func (m *wireMetrics) toDomain() (*domain.Metrics, error) {
	metrics := &domain.Metrics{
		ReturnSign: m.ReturnSign,
		Hit:        m.Hit > 0,
		RealHit:    m.RealHit > 0,
	}

	var err error
	if metrics.ReturnAmt, err = parseOrZero(m.ReturnAmt); err != nil {
		return nil, errors.Wrap(err, "parse return_amt")
	}
	if metrics.ReturnPct, err = parseOrZero(m.ReturnPct); err != nil {
		return nil, errors.Wrap(err, "parse return_per")
	}
	if metrics.Fee, err = parseOrZero(m.Fee); err != nil {
		return nil, errors.Wrap(err, "parse fee")
	}
	if metrics.ScoreAmt, err = parseOrZero(m.ScoreAmt); err != nil {
		return nil, errors.Wrap(err, "parse score_amt")
	}
	if metrics.ScorePct, err = parseOrZero(m.ScorePct); err != nil {
		return nil, errors.Wrap(err, "parse score")
	}

	return metrics, nil
}

func parseOrZero(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
