package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"edgecast/internal/edge"
	"edgecast/internal/marketstate"
	"edgecast/models"
)

// Replay constants. Tuned once; the cooldown and thresholds are
// configuration, not intrinsic algorithm behavior.
const (
	warmupCandles    = 50
	tailCandles      = 10
	entryEdgePoints  = 75.0
	resolutionWindow = 48
	skipAfterTrade   = 5
	initialEquity    = 10_000.0
)

// DefaultCooldown blocks a new entry until this much candle time has
// passed since the prior trade closed.
const DefaultCooldown = 5 * time.Hour

// Engine replays the full pipeline over historical candles. The outer
// loop is strictly sequential; each step sees only already-processed
// history, so lookahead is structurally impossible.
type Engine struct {
	provider models.HistoryProvider
	edge     *edge.Engine
	detect   DetectorFunc
	strategy models.StrategyStats
	cooldown time.Duration
	logger   zerolog.Logger
}

// New builds an engine over a candle provider. The default detector and
// a 60% reliability prior apply unless overridden.
func New(provider models.HistoryProvider) *Engine {
	return &Engine{
		provider: provider,
		edge:     edge.New(),
		detect:   BreakoutDetector,
		strategy: models.StrategyStats{StrategyID: "trend-breakout", Probability: 0.6, SampleSize: 50},
		cooldown: DefaultCooldown,
		logger:   log.With().Str("component", "backtest").Logger(),
	}
}

// WithDetector swaps the setup detector.
func (e *Engine) WithDetector(detect DetectorFunc) *Engine {
	e.detect = detect
	return e
}

// WithCooldown overrides the re-entry cooldown.
func (e *Engine) WithCooldown(d time.Duration) *Engine {
	e.cooldown = d
	return e
}

// Run fetches history and replays it.
func (e *Engine) Run(ctx context.Context, symbol, timeframe string, candleCount int, overrides models.Overrides) (*models.BacktestResult, error) {
	candles, err := e.provider.FetchHistory(ctx, symbol, timeframe, candleCount)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	if len(candles) < warmupCandles+tailCandles {
		return nil, fmt.Errorf("insufficient history: got %d candles, need %d", len(candles), warmupCandles+tailCandles)
	}

	e.logger.Info().
		Str("symbol", symbol).
		Str("timeframe", timeframe).
		Int("candles", len(candles)).
		Msg("starting backtest replay")

	result := e.RunOnCandles(symbol, timeframe, candles, overrides)

	e.logger.Info().
		Int("trades", result.Stats.TotalTrades).
		Float64("win_rate", result.Stats.WinRate).
		Float64("profit_factor", result.Stats.ProfitFactor).
		Msg("backtest complete")
	return result, nil
}

// RunOnCandles replays already-fetched candles. Two runs over identical
// candles and overrides produce identical trades, curves and stats.
func (e *Engine) RunOnCandles(symbol, timeframe string, candles []models.Candle, overrides models.Overrides) *models.BacktestResult {
	if overrides.StopLossMult == 0 {
		overrides.StopLossMult = 1
	}
	if overrides.TakeProfitMult == 0 {
		overrides.TakeProfitMult = 1
	}

	result := &models.BacktestResult{
		Symbol:      symbol,
		Timeframe:   timeframe,
		EquityCurve: []float64{initialEquity},
	}
	equity := initialEquity
	var lastClose time.Time

	limit := len(candles) - tailCandles
	for i := warmupCandles; i < limit; i++ {
		window := candles[:i+1]
		now := candles[i].Timestamp

		// Cooldown by candle time since the prior trade closed.
		if !lastClose.IsZero() && now.Sub(lastClose) < e.cooldown {
			continue
		}

		state := marketstate.Build(symbol, timeframe, window, marketstate.ExternalContext{
			Now: now,
			HTF: higherTimeframeBias(window),
		})

		setup := e.selectSetup(window, state)
		if setup == nil {
			continue
		}

		trade, closedAt, resolved := simulateTrade(candles, i, *setup, overrides)
		if !resolved {
			continue
		}

		equity = equity * (1 + trade.PnLPercent/100)
		trade.PnL = equity - result.EquityCurve[len(result.EquityCurve)-1]
		trade.Factors = entryFactors(state)
		result.Trades = append(result.Trades, trade)
		result.EquityCurve = append(result.EquityCurve, equity)
		lastClose = closedAt
		i += skipAfterTrade
	}

	result.Stats = computeStats(result.Trades, result.EquityCurve)
	return result
}

// selectSetup returns the first detected setup clearing the edge-point
// entry threshold.
func (e *Engine) selectSetup(window []models.Candle, state *models.MarketState) *models.Setup {
	for _, setup := range e.detect(window, state) {
		score := e.edge.Score(setup, state, e.strategy, state.Symbol)
		if score.Points > entryEdgePoints {
			return &setup
		}
	}
	return nil
}

// simulateTrade rescales the stop/target distances by the overrides and
// scans forward up to 48 candles. Both levels inside one candle resolve
// as a stop; an unresolved window discards the trade.
func simulateTrade(candles []models.Candle, entryIdx int, setup models.Setup, ov models.Overrides) (models.Trade, time.Time, bool) {
	entry := candles[entryIdx].Close
	slDist := math.Abs(entry-setup.StopLoss) * ov.StopLossMult

	var tpDist float64
	if len(setup.Targets) > 0 {
		tpDist = math.Abs(setup.Targets[0]-entry) * ov.TakeProfitMult
	} else {
		tpDist = slDist * 2 * ov.TakeProfitMult
	}
	if slDist <= 0 || tpDist <= 0 {
		return models.Trade{}, time.Time{}, false
	}
	realizedRR := tpDist / slDist

	var sl, tp float64
	if setup.Direction == models.Bullish {
		sl, tp = entry-slDist, entry+tpDist
	} else {
		sl, tp = entry+slDist, entry-tpDist
	}

	end := entryIdx + resolutionWindow
	if end > len(candles)-1 {
		end = len(candles) - 1
	}
	for j := entryIdx + 1; j <= end; j++ {
		c := candles[j]
		hitSL := (setup.Direction == models.Bullish && c.Low <= sl) ||
			(setup.Direction == models.Bearish && c.High >= sl)
		hitTP := (setup.Direction == models.Bullish && c.High >= tp) ||
			(setup.Direction == models.Bearish && c.Low <= tp)

		if hitSL {
			return models.Trade{
				Direction:  setup.Direction,
				Entry:      entry,
				StopLoss:   sl,
				TakeProfit: tp,
				Outcome:    models.OutcomeSL,
				PnLPercent: -1,
				Time:       c.Timestamp,
				StrategyID: setup.StrategyID,
			}, c.Timestamp, true
		}
		if hitTP {
			return models.Trade{
				Direction:  setup.Direction,
				Entry:      entry,
				StopLoss:   sl,
				TakeProfit: tp,
				Outcome:    models.OutcomeTP,
				PnLPercent: realizedRR,
				Time:       c.Timestamp,
				StrategyID: setup.StrategyID,
			}, c.Timestamp, true
		}
	}
	return models.Trade{}, time.Time{}, false
}

// entryFactors lists the contextual signals present at entry; the stats
// pass attributes performance to them.
func entryFactors(state *models.MarketState) []string {
	var factors []string
	if state.Gap {
		factors = append(factors, FactorGap)
	}
	if state.Correlation != nil && state.Correlation.Divergence {
		factors = append(factors, FactorIntermarket)
	}
	if state.Sweep != nil {
		factors = append(factors, FactorSweep)
	}
	if state.Shock == nil && state.UpcomingNews == nil {
		factors = append(factors, FactorLowNewsRisk)
	}
	if state.Fib {
		factors = append(factors, FactorFib)
	}
	return factors
}

// higherTimeframeBias aggregates every 4 candles into one and reads the
// trend off the aggregate, standing in for true higher-timeframe data
// during replay.
func higherTimeframeBias(candles []models.Candle) models.TimeframeBias {
	if len(candles) < 8 {
		return models.TimeframeBias{Bias: models.Neutral}
	}

	var agg []models.Candle
	for i := 0; i+4 <= len(candles); i += 4 {
		c := models.Candle{
			Timestamp: candles[i].Timestamp,
			Open:      candles[i].Open,
			Close:     candles[i+3].Close,
			High:      candles[i].High,
			Low:       candles[i].Low,
		}
		for j := i; j < i+4; j++ {
			if candles[j].High > c.High {
				c.High = candles[j].High
			}
			if candles[j].Low < c.Low {
				c.Low = candles[j].Low
			}
			c.Volume += candles[j].Volume
		}
		agg = append(agg, c)
	}
	if len(agg) < 3 {
		return models.TimeframeBias{Bias: models.Neutral}
	}

	first, last := agg[0].Close, agg[len(agg)-1].Close
	if first == 0 {
		return models.TimeframeBias{Bias: models.Neutral}
	}
	move := (last - first) / first
	switch {
	case move > 0.002:
		return models.TimeframeBias{Bias: models.Bullish, Confidence: math.Min(math.Abs(move)*100, 1)}
	case move < -0.002:
		return models.TimeframeBias{Bias: models.Bearish, Confidence: math.Min(math.Abs(move)*100, 1)}
	default:
		return models.TimeframeBias{Bias: models.Neutral}
	}
}
