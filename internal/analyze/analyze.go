// Package analyze wires the full evaluation tick: candles in, one
// compressed prediction out.
package analyze

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"edgecast/internal/backtest"
	"edgecast/internal/edge"
	"edgecast/internal/liquidity"
	"edgecast/internal/marketstate"
	"edgecast/internal/metrics"
	"edgecast/internal/news"
	"edgecast/internal/predict"
	"edgecast/internal/scenario"
	"edgecast/models"
)

// defaultStrategy is the reliability prior applied when no tracked
// per-strategy stats exist yet.
var defaultStrategy = models.StrategyStats{
	StrategyID:  "trend-breakout",
	Probability: 0.6,
	SampleSize:  50,
}

// Options carries the optional data sources. Nil fields degrade the
// analysis rather than failing it.
type Options struct {
	Depth    models.DepthProvider
	News     *news.Feed
	Strategy *models.StrategyStats
	Engine   *models.EngineStats
}

// Analyzer runs the pipeline end to end for one symbol/timeframe pair.
type Analyzer struct {
	history models.HistoryProvider
	opts    Options
	edge    *edge.Engine
	detect  backtest.DetectorFunc
	pulse   *liquidity.PulseDetector
	logger  zerolog.Logger
}

// Report is the outcome of one evaluation tick.
type Report struct {
	State          *models.MarketState
	Setup          *models.Setup
	Edge           *models.EdgeScore
	Scenarios      models.ScenarioSet
	Prediction     models.Prediction
	Suppressed     bool
	SuppressReason string
}

// New builds an analyzer over a candle source.
func New(history models.HistoryProvider, opts Options) *Analyzer {
	return &Analyzer{
		history: history,
		opts:    opts,
		edge:    edge.New(),
		detect:  backtest.BreakoutDetector,
		pulse:   liquidity.NewPulseDetector(),
		logger:  log.With().Str("component", "analyzer").Logger(),
	}
}

// Run performs one full evaluation tick.
func (a *Analyzer) Run(ctx context.Context, symbol, timeframe string, candleCount int) (*Report, error) {
	candles, err := a.history.FetchHistory(ctx, symbol, timeframe, candleCount)
	if err != nil {
		return nil, fmt.Errorf("fetching candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles for %s %s", symbol, timeframe)
	}

	ext := marketstate.ExternalContext{
		Now: candles[len(candles)-1].Timestamp,
		HTF: a.higherTimeframe(ctx, symbol, timeframe),
	}
	if a.opts.Depth != nil {
		if snap, err := a.opts.Depth.FetchDepth(ctx, symbol); err == nil {
			ext.Depth = snap
			// Book velocity between ticks reads as flow sentiment.
			if s := pulseSentiment(a.pulse.Update(snap)); s != nil {
				ext.Sentiment = s
			}
		} else {
			a.logger.Warn().Err(err).Msg("depth unavailable, continuing without order book")
		}
	}
	var events []models.NewsEvent
	if a.opts.News != nil {
		hazard := a.opts.News.Hazard(ext.Now)
		ext.Shock = hazard.Shock
		ext.UpcomingNews = hazard.Upcoming
		events = a.opts.News.Events()
	}

	state := marketstate.Build(symbol, timeframe, candles, ext)
	report := &Report{State: state}

	strategy := defaultStrategy
	if a.opts.Strategy != nil {
		strategy = *a.opts.Strategy
	}

	var scored []scenario.ScoredSetup
	if setups := a.detect(candles, state); len(setups) > 0 {
		setup := setups[0]
		edgeScore := a.edge.ScoreWithEngine(setup, state, strategy, a.opts.Engine, symbol)
		report.Setup = &setup
		report.Edge = &edgeScore
		scored = append(scored, scenario.ScoredSetup{Setup: setup, Points: edgeScore.Points})
	}

	report.Scenarios = scenario.Generate(state, scored, scenario.Fundamentals{Events: events}, a.opts.Engine)
	report.Prediction = predict.Compress(predict.Analysis{
		State:     state,
		Setup:     report.Setup,
		Edge:      report.Edge,
		Scenarios: report.Scenarios,
	}, report.Scenarios.Probabilities)

	show, reason := predict.ShouldShow(report.Prediction, state, report.Scenarios.Probabilities)
	report.Suppressed = !show
	report.SuppressReason = reason
	if show {
		metrics.PredictionsEmitted.WithLabelValues("shown").Inc()
	} else {
		metrics.PredictionsEmitted.WithLabelValues("suppressed").Inc()
	}

	a.logger.Info().
		Str("symbol", symbol).
		Str("bias", string(report.Prediction.Bias)).
		Float64("edge", report.Prediction.EdgeScore).
		Bool("suppressed", report.Suppressed).
		Msg("evaluation tick complete")
	return report, nil
}

// higherTimeframe fetches the next timeframe up and reads a coarse bias
// off its closes. Errors degrade to a neutral reading.
func (a *Analyzer) higherTimeframe(ctx context.Context, symbol, timeframe string) models.TimeframeBias {
	htf, ok := higherOf(timeframe)
	if !ok {
		return models.TimeframeBias{Bias: models.Neutral}
	}
	candles, err := a.history.FetchHistory(ctx, symbol, htf, 60)
	if err != nil || len(candles) < 10 {
		if err != nil {
			a.logger.Warn().Err(err).Str("htf", htf).Msg("higher timeframe fetch failed")
		}
		return models.TimeframeBias{Bias: models.Neutral}
	}
	return closeBias(candles)
}

func higherOf(timeframe string) (string, bool) {
	switch timeframe {
	case "1min":
		return "15min", true
	case "5min":
		return "1h", true
	case "15min", "30min", "1h":
		return "4h", true
	case "4h":
		return "1day", true
	case "1day":
		return "1week", true
	default:
		return "", false
	}
}

// closeBias compares the recent close against the window mean.
func closeBias(candles []models.Candle) models.TimeframeBias {
	var sum float64
	for _, c := range candles {
		sum += c.Close
	}
	mean := sum / float64(len(candles))
	last := candles[len(candles)-1].Close
	if mean == 0 {
		return models.TimeframeBias{Bias: models.Neutral}
	}

	dev := (last - mean) / mean
	conf := min(abs(dev)*50, 1)
	switch {
	case dev > 0.003:
		return models.TimeframeBias{Bias: models.Bullish, Confidence: conf}
	case dev < -0.003:
		return models.TimeframeBias{Bias: models.Bearish, Confidence: conf}
	default:
		return models.TimeframeBias{Bias: models.Neutral}
	}
}

// pulseSentiment converts a directional liquidity pulse into the
// sentiment input. A neutral pulse contributes nothing.
func pulseSentiment(p liquidity.Pulse) *models.Sentiment {
	if p.Signal == models.Neutral {
		return nil
	}
	strength := 0.5
	if denom := abs(p.BidVelocity) + abs(p.AskVelocity); denom > 0 {
		strength = min(abs(p.BidVelocity-p.AskVelocity)/denom, 1)
	}
	return &models.Sentiment{Bias: p.Signal, Strength: strength}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
