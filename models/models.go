package models

import (
	"time"
)

// Setup is a candidate trade idea produced by a strategy detector and
// handed to the scoring engine.
type Setup struct {
	StrategyID            string    `json:"strategy_id"`
	Direction             Bias      `json:"direction"`
	EntryZone             PriceZone `json:"entry_zone"`
	StopLoss              float64   `json:"stop_loss"`
	Targets               []float64 `json:"targets"`
	RiskRewardRatio       float64   `json:"risk_reward_ratio"`
	DirectionalConfidence float64   `json:"directional_confidence"` // 0-1
}

// PriceZone is an inclusive price band.
type PriceZone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Mid returns the zone midpoint.
func (z PriceZone) Mid() float64 {
	return (z.Low + z.High) / 2
}

// EdgeScore is the 0-10 quality rating of a (setup, market state) pair.
// Positives and Risks are the audit trail: one human-readable string per
// factor that actually contributed or penalized.
type EdgeScore struct {
	Score     float64  `json:"score"` // 0-10, one decimal
	Points    float64  `json:"points"`
	Label     string   `json:"label"`
	Positives []string `json:"positives"`
	Risks     []string `json:"risks"`
}

// StrategyStats is the Bayesian reliability record for one strategy.
type StrategyStats struct {
	StrategyID  string  `json:"strategy_id"`
	WinRate     float64 `json:"win_rate"` // 0-1, posterior
	SampleSize  int     `json:"sample_size"`
	Probability float64 `json:"probability"` // 0-1, shrunk toward prior on low samples
}

// EngineStats is the alpha tracker's read on how the whole engine has
// been performing recently.
type EngineStats struct {
	WinRate     float64 `json:"win_rate"` // 0-1
	SampleSize  int     `json:"sample_size"`
	AvgRealized float64 `json:"avg_realized_rr"`
}

// ProbabilityTriple is the normalized continuation/reversal/consolidation
// split. After normalization the three always sum to 1.0.
type ProbabilityTriple struct {
	Up    float64 `json:"up"`
	Down  float64 `json:"down"`
	Range float64 `json:"range"`
}

// Sum returns the (pre- or post-normalization) total.
func (p ProbabilityTriple) Sum() float64 {
	return p.Up + p.Down + p.Range
}

// Max returns the largest of the three probabilities.
func (p ProbabilityTriple) Max() float64 {
	m := p.Up
	if p.Down > m {
		m = p.Down
	}
	if p.Range > m {
		m = p.Range
	}
	return m
}

// PathPoint is one node of a projected price pathway.
type PathPoint struct {
	Price float64 `json:"price"`
	Label string  `json:"label"` // START, FAKEOUT, PIVOT, TARGET
}

// Scenario is one probability-weighted directional outcome with its
// projected pathway.
type Scenario struct {
	Direction   Bias        `json:"direction"`
	Probability float64     `json:"probability"`
	Narrative   string      `json:"narrative"`
	Pathway     []PathPoint `json:"pathway"`
	Confirmed   bool        `json:"confirmed"` // rendering hint only, never affects probability
}

// ScenarioSet is the ranked pair of scenarios for one evaluation tick.
type ScenarioSet struct {
	Primary       Scenario          `json:"primary"`
	Secondary     Scenario          `json:"secondary"`
	Probabilities ProbabilityTriple `json:"probabilities"`
	IsWaiting     bool              `json:"is_waiting"`
	WaitReason    string            `json:"wait_reason,omitempty"`
}

// Prediction is the single compressed forecast for one evaluation tick.
// A newer tick supersedes it; it is never mutated.
type Prediction struct {
	ID                 string    `json:"id"`
	Symbol             string    `json:"symbol"`
	Timeframe          string    `json:"timeframe"`
	Bias               Bias      `json:"bias"`
	Waiting            string    `json:"waiting,omitempty"` // WAIT_RANGE, WAIT_NEWS, WAIT_CONFLICT
	Target             float64   `json:"target"`
	Invalidation       float64   `json:"invalidation"`
	Confidence         float64   `json:"confidence"` // 0-100
	EdgeScore          float64   `json:"edge_score"`
	Horizons           []string  `json:"horizons,omitempty"`
	ValidityConditions []string  `json:"validity_conditions,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// Order is the intent handed to the execution router.
type Order struct {
	Symbol  string  `json:"symbol"`
	Side    Bias    `json:"side"`
	Size    float64 `json:"size"` // base quantity
	Urgency Urgency `json:"urgency"`
}

// OrderSlice is one child order of an iceberg or TWAP schedule.
type OrderSlice struct {
	Size     float64       `json:"size"`
	OffsetIn time.Duration `json:"offset_in,omitempty"` // TWAP only
}

// ExecutionDecision is the router's pick. Computed fresh per order
// intent, never cached.
type ExecutionDecision struct {
	Type       OrderStyle    `json:"type"`
	LimitPrice float64       `json:"limit_price,omitempty"`
	Requotes   int           `json:"requotes,omitempty"`
	Slices     []OrderSlice  `json:"slices,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Slippage   float64       `json:"slippage"` // estimated, fraction of best price
	Reason     []string      `json:"reason"`
}

// Trade is one simulated backtest trade, immutable once recorded.
type Trade struct {
	Direction  Bias      `json:"direction"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Outcome    Outcome   `json:"outcome"`
	PnL        float64   `json:"pnl"`
	PnLPercent float64   `json:"pnl_percent"`
	Time       time.Time `json:"time"`
	StrategyID string    `json:"strategy_id"`
	Factors    []string  `json:"factors,omitempty"` // contextual signals present at entry
}

// BacktestStats is the aggregate performance summary of one run.
type BacktestStats struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"` // percent
	ProfitFactor float64 `json:"profit_factor"`
	Sharpe       float64 `json:"sharpe"`
	MaxDrawdown  float64 `json:"max_drawdown"` // percent, peak to trough
	TotalReturn  float64 `json:"total_return"` // percent

	FactorAttribution map[string]FactorStats `json:"factor_attribution,omitempty"`
}

// FactorStats attributes performance to one contextual signal.
type FactorStats struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"` // percent
}

// BacktestResult is the full output of one backtest run.
type BacktestResult struct {
	Symbol      string        `json:"symbol"`
	Timeframe   string        `json:"timeframe"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []float64     `json:"equity_curve"`
	Stats       BacktestStats `json:"stats"`
}

// Overrides rescales stop-loss / take-profit distances during a backtest.
type Overrides struct {
	StopLossMult   float64 `json:"stop_loss_mult"`
	TakeProfitMult float64 `json:"take_profit_mult"`
}

// OptimizationCell is one grid-search combination and its outcome.
type OptimizationCell struct {
	StopLossMult   float64       `json:"stop_loss_mult"`
	TakeProfitMult float64       `json:"take_profit_mult"`
	Score          float64       `json:"score"`
	Stats          BacktestStats `json:"stats"`
}

// OptimizationResult is the best combination plus the full grid.
type OptimizationResult struct {
	Best OptimizationCell   `json:"best"`
	Grid []OptimizationCell `json:"grid"`
}
