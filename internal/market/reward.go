package market

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
	"github.com/vadiminshakov/tradegym/internal/precision"
)

// RewardInput carries everything a reward policy may look at for one step.
type RewardInput struct {
	Decision  domain.Decision
	PrevVal   decimal.Decimal
	CurVal    decimal.Decimal
	Ticket    domain.TradeTicket
	NextPrice decimal.Decimal
	FeeRate   decimal.Decimal
	InitCash  decimal.Decimal
}

// RewardPolicy derives the step reward and optional score metrics from
// portfolio deltas. Two named policies coexist: the sign-only baseline
// and the extended returns policy.
type RewardPolicy interface {
	Compute(in RewardInput) (decimal.Decimal, *domain.Metrics)
}

// SignPolicy is the baseline reward shaping: HOLD earns a fixed penalty,
// any other decision earns the scale constant times the sign of the
// portfolio change. Rewards stay bounded in {+scale, 0, -scale} so early
// training is not destabilized by reward magnitude.
type SignPolicy struct {
	scale       decimal.Decimal
	holdPenalty decimal.Decimal
}

// NewSignPolicy creates the baseline policy with scale 10 and HOLD
// penalty -1.
func NewSignPolicy() *SignPolicy {
	return &SignPolicy{
		scale:       decimal.NewFromInt(10),
		holdPenalty: decimal.NewFromInt(-1),
	}
}

// Compute returns the sign-only reward. No metrics are produced.
func (p *SignPolicy) Compute(in RewardInput) (decimal.Decimal, *domain.Metrics) {
	if in.Decision == domain.Hold {
		return p.holdPenalty, nil
	}

	// the sign comes from the percentage change at the configured
	// precision, so sub-precision dust (like a lone fee on a huge
	// balance) reads as neutral
	pct := precision.Pct(in.PrevVal, in.CurVal)
	return p.scale.Mul(decimal.NewFromInt(int64(pct.Sign()))), nil
}

// ReturnsPolicy is the extended reward shaping used in live mode: the
// reward is the rounded absolute return, and the full score metrics are
// reported alongside for display and persistence.
type ReturnsPolicy struct{}

// NewReturnsPolicy creates the extended policy.
func NewReturnsPolicy() *ReturnsPolicy {
	return &ReturnsPolicy{}
}

// Compute returns the absolute-return reward plus metrics.
func (p *ReturnsPolicy) Compute(in RewardInput) (decimal.Decimal, *domain.Metrics) {
	returnAmt := precision.Round(in.CurVal.Sub(in.PrevVal))
	returnPct := precision.Pct(in.PrevVal, in.CurVal)

	metrics := &domain.Metrics{
		ReturnAmt:  returnAmt,
		ReturnPct:  returnPct,
		ReturnSign: returnAmt.Sign(),
		Fee:        in.Ticket.Fee,
		Hit:        hit(in.Decision, in.Ticket.CcldPrice, in.NextPrice),
		RealHit:    realHit(in.Decision, in.Ticket.CcldPrice, in.NextPrice, in.FeeRate),
		ScoreAmt:   precision.Round(in.CurVal.Sub(in.InitCash)),
		ScorePct:   precision.Pct(in.InitCash, in.CurVal),
	}

	return returnAmt, metrics
}

// hit reports whether the price moved in the direction implied by the
// decision, ignoring fees.
func hit(decision domain.Decision, ccldPrice, nextPrice decimal.Decimal) bool {
	change := nextPrice.Sub(ccldPrice)
	switch decision {
	case domain.Buy:
		return change.Sign() > 0
	case domain.Sell:
		return change.Sign() < 0
	}
	return false
}

// realHit is hit computed against the fee-adjusted concluded price.
func realHit(decision domain.Decision, ccldPrice, nextPrice, feeRate decimal.Decimal) bool {
	one := decimal.NewFromInt(1)
	switch decision {
	case domain.Buy:
		adjusted := precision.Round(ccldPrice.Mul(one.Add(feeRate)))
		return nextPrice.Sub(adjusted).Sign() > 0
	case domain.Sell:
		adjusted := precision.Round(ccldPrice.Mul(one.Sub(feeRate)))
		return nextPrice.Sub(adjusted).Sign() < 0
	}
	return false
}
