package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgecast/models"
)

func tickState() *models.MarketState {
	return &models.MarketState{
		Symbol:     "BTCUSDT",
		Timeframe:  "1h",
		Timestamp:  time.Date(2025, 3, 3, 14, 25, 0, 0, time.UTC),
		Price:      50000,
		Trend:      models.Trend{Direction: models.Bullish, Strength: 70},
		Regime:     models.Regime{Type: models.RegimeTrending, Strength: 0.7},
		Volatility: models.VolatilityNormal,
		Velocity:   1.0,
		HTF:        models.TimeframeBias{Bias: models.Bullish, Confidence: 0.8},
		LTF:        models.TimeframeBias{Bias: models.Bullish, Confidence: 0.7},
	}
}

func TestPredictionIDStableWithinHour(t *testing.T) {
	a := PredictionID("BTCUSDT", "1h", time.Date(2025, 3, 3, 14, 5, 0, 0, time.UTC))
	b := PredictionID("BTCUSDT", "1h", time.Date(2025, 3, 3, 14, 55, 0, 0, time.UTC))
	c := PredictionID("BTCUSDT", "1h", time.Date(2025, 3, 3, 15, 1, 0, 0, time.UTC))
	assert.Equal(t, a, b, "same hour bucket must reuse the ID")
	assert.NotEqual(t, a, c, "next hour bucket must rotate the ID")

	other := PredictionID("ETHUSDT", "1h", time.Date(2025, 3, 3, 14, 5, 0, 0, time.UTC))
	assert.NotEqual(t, a, other)
}

func TestBiasLadder(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*models.MarketState)
		probs    models.ProbabilityTriple
		wantBias models.Bias
		wantWait string
	}{
		{
			name:     "dominant consolidation is neutral",
			mutate:   func(s *models.MarketState) {},
			probs:    models.ProbabilityTriple{Up: 0.2, Down: 0.15, Range: 0.65},
			wantBias: models.Neutral,
		},
		{
			name: "young choch with reversal probability wins",
			mutate: func(s *models.MarketState) {
				s.Structure = &models.StructureEvent{
					Kind: models.ChangeOfCharacter, Direction: models.Bearish, Price: 49800, Age: 4}
			},
			probs:    models.ProbabilityTriple{Up: 0.2, Down: 0.58, Range: 0.22},
			wantBias: models.Bearish,
		},
		{
			name:     "continuation above 60 follows trend",
			mutate:   func(s *models.MarketState) {},
			probs:    models.ProbabilityTriple{Up: 0.65, Down: 0.15, Range: 0.2},
			wantBias: models.Bullish,
		},
		{
			name:     "strong reversal flips against trend",
			mutate:   func(s *models.MarketState) {},
			probs:    models.ProbabilityTriple{Up: 0.1, Down: 0.68, Range: 0.22},
			wantBias: models.Bearish,
		},
		{
			name: "ranging regime without conviction waits",
			mutate: func(s *models.MarketState) {
				s.Regime = models.Regime{Type: models.RegimeRanging, Strength: 0.8}
			},
			probs:    models.ProbabilityTriple{Up: 0.35, Down: 0.30, Range: 0.35},
			wantBias: models.Neutral,
			wantWait: WaitRange,
		},
		{
			name: "news shock waits",
			mutate: func(s *models.MarketState) {
				s.Regime = models.Regime{Type: models.RegimeTrending, Strength: 0.7}
				s.Shock = &models.NewsShock{Severity: models.ImpactHigh, Title: "NFP"}
			},
			probs:    models.ProbabilityTriple{Up: 0.4, Down: 0.25, Range: 0.35},
			wantBias: models.Neutral,
			wantWait: WaitNews,
		},
		{
			name: "timeframe conflict without clear trust waits",
			mutate: func(s *models.MarketState) {
				s.HTF = models.TimeframeBias{Bias: models.Bullish, Confidence: 0.6}
				s.LTF = models.TimeframeBias{Bias: models.Bearish, Confidence: 0.6}
			},
			probs:    models.ProbabilityTriple{Up: 0.45, Down: 0.2, Range: 0.35},
			wantBias: models.Neutral,
			wantWait: WaitConflict,
		},
		{
			name: "conflict trusts the confident side",
			mutate: func(s *models.MarketState) {
				s.HTF = models.TimeframeBias{Bias: models.Bullish, Confidence: 0.9}
				s.LTF = models.TimeframeBias{Bias: models.Bearish, Confidence: 0.3}
			},
			probs:    models.ProbabilityTriple{Up: 0.45, Down: 0.2, Range: 0.35},
			wantBias: models.Bullish,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tickState()
			tt.mutate(state)
			bias, wait := resolveBias(state, tt.probs)
			assert.Equal(t, tt.wantBias, bias)
			assert.Equal(t, tt.wantWait, wait)
		})
	}
}

func TestClusterTargetWeighting(t *testing.T) {
	state := tickState()
	state.POIs = []models.POI{
		{Kind: models.POILiquidityPool, Price: 50400},
		{Kind: models.POIOrderBlock, Price: 50500},
		{Kind: models.POIImbalanceGap, Price: 48000}, // wrong side of the cluster window
	}

	target := clusterTarget(state, models.Bullish)
	require.NotZero(t, target)
	assert.Greater(t, target, 50400.0-1)
	assert.Less(t, target, 50500.0)
	// Liquidity pool is nearer and heavier, so the average leans toward it.
	assert.Less(t, target-50400, 50500-target)
}

func TestCompressProducesBoundedConfidence(t *testing.T) {
	state := tickState()
	state.OrderFlow = models.OrderFlow{Direction: models.Bullish}
	state.Structure = &models.StructureEvent{Kind: models.BreakOfStructure, Direction: models.Bullish, Price: 49700, Age: 3}
	state.Velocity = 1.4
	state.Session = models.SessionContext{Session: models.SessionOverlap, Killzone: true, Hour: 14}

	setup := &models.Setup{
		StrategyID: "breakout", Direction: models.Bullish,
		StopLoss: 49500, Targets: []float64{51000}, RiskRewardRatio: 2,
	}
	pred := Compress(Analysis{State: state, Setup: setup}, models.ProbabilityTriple{Up: 0.7, Down: 0.1, Range: 0.2})

	assert.Equal(t, models.Bullish, pred.Bias)
	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 100.0)
	assert.Equal(t, 49500.0, pred.Invalidation)
	assert.Equal(t, 51000.0, pred.Target)
	assert.Equal(t, state.Timestamp.Add(24*time.Hour), pred.ExpiresAt)
}

func TestCompressWaitCarriesNoTarget(t *testing.T) {
	state := tickState()
	state.Regime = models.Regime{Type: models.RegimeRanging, Strength: 0.8}
	pred := Compress(Analysis{State: state}, models.ProbabilityTriple{Up: 0.35, Down: 0.3, Range: 0.35})
	assert.Equal(t, WaitRange, pred.Waiting)
	assert.Zero(t, pred.Target)
	assert.Zero(t, pred.Confidence)
}

func TestShouldShow(t *testing.T) {
	probs := models.ProbabilityTriple{Up: 0.65, Down: 0.15, Range: 0.2}
	base := func() (models.Prediction, *models.MarketState) {
		state := tickState()
		state.Obligations = &models.Obligations{Primary: &models.MagnetZone{
			Price: 51000, Urgency: 60, Direction: models.Bullish}}
		pred := Compress(Analysis{State: state}, probs)
		return pred, state
	}

	pred, state := base()
	ok, reason := ShouldShow(pred, state, probs)
	assert.True(t, ok)
	assert.Empty(t, reason)

	// High-severity shock suppresses.
	pred, state = base()
	state.Shock = &models.NewsShock{Severity: models.ImpactHigh, Title: "rate decision"}
	ok, reason = ShouldShow(pred, state, probs)
	assert.False(t, ok)
	assert.Contains(t, reason, "news shock")

	// Timeframe conflict with weak reversal suppresses.
	pred, state = base()
	state.LTF = models.TimeframeBias{Bias: models.Bearish, Confidence: 0.6}
	ok, reason = ShouldShow(pred, state, probs)
	assert.False(t, ok)
	assert.Contains(t, reason, "conflict")

	// Trap zone suppresses.
	pred, state = base()
	state.Trap = &models.TrapZone{Low: 49900, High: 50100, Reason: "failed breakout"}
	ok, reason = ShouldShow(pred, state, probs)
	assert.False(t, ok)
	assert.Contains(t, reason, "trap")

	// Opposing high-urgency magnet suppresses.
	pred, state = base()
	state.Obligations.Primary = &models.MagnetZone{Price: 48500, Urgency: 90, Direction: models.Bearish}
	ok, reason = ShouldShow(pred, state, probs)
	assert.False(t, ok)
	assert.Contains(t, reason, "magnet")

	// Unobligated market demands 70% conviction.
	pred, state = base()
	state.Obligations = nil
	weak := models.ProbabilityTriple{Up: 0.5, Down: 0.2, Range: 0.3}
	ok, reason = ShouldShow(Compress(Analysis{State: state}, weak), state, weak)
	assert.False(t, ok)
	assert.Contains(t, reason, "floor")
}
