package domain

import "github.com/shopspring/decimal"

// Observation is the flat per-step snapshot handed to agents. Basic mode
// fills the price window, fee rate, current price and step counter; live
// mode additionally attaches the portfolio snapshot and metrics.
type Observation struct {
	// Window holds the bar history prefix [0..T].
	Window  []Bar
	FeeRate decimal.Decimal
	// CurPrice is the close price at T.
	CurPrice decimal.Decimal
	T        int
	// Portfolio is a copy of the agent's holdings (live mode).
	Portfolio *Portfolio
	// Indicators holds technical indicator values over the window when
	// indicator enrichment is enabled.
	Indicators *IndicatorSet
}

// IndicatorSet holds indicator values computed over the observation window.
type IndicatorSet struct {
	SMA20 decimal.Decimal
	EMA20 decimal.Decimal
	RSI14 decimal.Decimal
}

// StepInfo carries diagnostic values reported alongside each step.
type StepInfo struct {
	PrevPortfolioVal decimal.Decimal
	CurPortfolioVal  decimal.Decimal
	// StepReturn is the 1-step absolute portfolio change.
	StepReturn decimal.Decimal
	// StepReturnPct is the 1-step percentage portfolio change.
	StepReturnPct decimal.Decimal
	Fee           decimal.Decimal
	// Msg names the terminal condition when Done fires, empty otherwise.
	Msg string
}

// Metrics are the informational score values of the extended reward
// policy. Only the reward value feeds the training signal.
type Metrics struct {
	ReturnAmt  decimal.Decimal
	ReturnPct  decimal.Decimal
	ReturnSign int
	Fee        decimal.Decimal
	// Hit reports whether the price moved in the direction implied by
	// the decision, ignoring fees.
	Hit bool
	// RealHit is Hit computed against the fee-adjusted concluded price.
	RealHit bool
	// ScoreAmt is the cumulative gain over the initial capital baseline.
	ScoreAmt decimal.Decimal
	// ScorePct is the cumulative percentage gain over the baseline.
	ScorePct decimal.Decimal
}

// StepResult is the (observation, reward, done, info) tuple emitted by
// one engine step.
type StepResult struct {
	Observation Observation
	Reward      decimal.Decimal
	Metrics     *Metrics
	Done        bool
	Info        StepInfo
}
