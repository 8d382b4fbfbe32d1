package marketstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgecast/internal/liquidity"
	"edgecast/models"
)

var buildClock = time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)

func flatCandles(n int, price float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: buildClock.Add(time.Duration(i-n) * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return candles
}

func risingCandles(n int, start, step float64) []models.Candle {
	candles := make([]models.Candle, n)
	price := start
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: buildClock.Add(time.Duration(i-n) * time.Hour),
			Open:      price,
			High:      price + step + 0.5,
			Low:       price - 0.5,
			Close:     price + step,
			Volume:    1000,
		}
		price += step
	}
	return candles
}

func TestBuildNeutralOnShortHistory(t *testing.T) {
	state := Build("EUR/USD", "1h", flatCandles(10, 100), ExternalContext{Now: buildClock})
	assert.Equal(t, models.Neutral, state.Trend.Direction)
	assert.Equal(t, models.RegimeRanging, state.Regime.Type)
	assert.Equal(t, 100.0, state.Price)
	assert.Nil(t, state.Profile)
}

func TestBuildEmptyCandles(t *testing.T) {
	state := Build("EUR/USD", "1h", nil, ExternalContext{Now: buildClock})
	assert.Zero(t, state.Price)
	assert.Equal(t, models.Neutral, state.Trend.Direction)
	assert.Equal(t, models.PhaseUnknown, state.CyclePhase)
}

func TestBuildCarriesExternalContext(t *testing.T) {
	shock := &models.NewsShock{Severity: models.ImpactHigh}
	state := Build("EUR/USD", "1h", flatCandles(40, 100), ExternalContext{
		Now:        buildClock,
		HTF:        models.TimeframeBias{Bias: models.Bullish, Confidence: 0.8},
		CyclePhase: models.PhaseMarkup,
		Shock:      shock,
	})
	assert.Equal(t, models.Bullish, state.HTF.Bias)
	assert.Equal(t, models.PhaseMarkup, state.CyclePhase)
	assert.Same(t, shock, state.Shock)
	assert.Equal(t, buildClock, state.Timestamp)
}

func TestDetectTrendDirections(t *testing.T) {
	up := detectTrend(risingCandles(40, 100, 0.5))
	assert.Equal(t, models.Bullish, up.Direction)
	assert.Greater(t, up.Strength, 0.0)

	down := detectTrend(risingCandles(40, 200, -0.5))
	assert.Equal(t, models.Bearish, down.Direction)

	flat := detectTrend(flatCandles(40, 100))
	assert.Equal(t, models.Neutral, flat.Direction)
	assert.Zero(t, flat.Strength)
}

func TestVolatilityRegime(t *testing.T) {
	vol, velocity := volatilityRegime(flatCandles(40, 100))
	assert.Equal(t, models.VolatilityNormal, vol)
	assert.InDelta(t, 1.0, velocity, 0.01)

	// Recent ranges triple the baseline.
	expanding := flatCandles(40, 100)
	for i := 34; i < 40; i++ {
		expanding[i].High = 103
		expanding[i].Low = 97
	}
	vol, velocity = volatilityRegime(expanding)
	assert.Equal(t, models.VolatilityHigh, vol)
	assert.Greater(t, velocity, 1.5)

	// Recent ranges collapse against an expanded baseline.
	contracting := flatCandles(40, 100)
	for i := 0; i < 30; i++ {
		contracting[i].High = 104
		contracting[i].Low = 96
	}
	vol, _ = volatilityRegime(contracting)
	assert.Equal(t, models.VolatilityLow, vol)
}

func TestClassifyRegimeTrending(t *testing.T) {
	candles := risingCandles(40, 100, 1.0)
	trend := detectTrend(candles)
	require.Greater(t, trend.Strength, 60.0)
	regime := classifyRegime(candles, trend)
	assert.Equal(t, models.RegimeTrending, regime.Type)
}

func TestBuildProfileConcentration(t *testing.T) {
	candles := flatCandles(40, 100)
	// Pile volume into a band around 105.
	for i := 10; i < 20; i++ {
		candles[i].High = 106
		candles[i].Low = 104
		candles[i].Volume = 10000
	}
	profile := buildProfile(candles)
	require.NotNil(t, profile)
	assert.InDelta(t, 105, profile.POC, 1.5)
	assert.GreaterOrEqual(t, profile.ValueAreaHigh, profile.POC)
	assert.LessOrEqual(t, profile.ValueAreaLow, profile.POC)
}

func TestRSIBounds(t *testing.T) {
	assert.Equal(t, 50.0, rsi(flatCandles(5, 100), 14))
	assert.Equal(t, 100.0, rsi(risingCandles(40, 100, 1), 14))

	mid := rsi(flatCandles(40, 100), 14)
	assert.GreaterOrEqual(t, mid, 0.0)
	assert.LessOrEqual(t, mid, 100.0)
}

func TestDetectSweepBearish(t *testing.T) {
	candles := flatCandles(40, 100)
	// Swing high at index 30, then the last candle wicks through it and
	// closes back below.
	candles[30].High = 105
	last := len(candles) - 1
	candles[last].High = 106
	candles[last].Close = 104

	sweep, trap := detectSweep(candles, liquidity.FindSwings(candles))
	require.NotNil(t, sweep)
	assert.Equal(t, models.Bearish, sweep.Direction)
	assert.Equal(t, 105.0, sweep.Price)
	assert.Zero(t, sweep.Age)
	require.NotNil(t, trap)
	assert.True(t, trap.Contains(105.5))
}

func TestHasGap(t *testing.T) {
	candles := flatCandles(30, 100)
	assert.False(t, hasGap(candles))

	candles[len(candles)-1].Open = 101
	assert.True(t, hasGap(candles))
}

func TestSessionFor(t *testing.T) {
	cases := []struct {
		hour     int
		session  models.Session
		killzone bool
	}{
		{3, models.SessionAsian, false},
		{8, models.SessionLondon, true},
		{11, models.SessionLondon, false},
		{14, models.SessionOverlap, true},
		{18, models.SessionNewYork, false},
		{22, models.SessionOffHours, false},
	}
	for _, tc := range cases {
		got := sessionFor(time.Date(2024, 3, 1, tc.hour, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.session, got.Session, "hour %d", tc.hour)
		assert.Equal(t, tc.killzone, got.Killzone, "hour %d", tc.hour)
	}
}

func TestBuildFullStateOnTrend(t *testing.T) {
	// Step 2 opens imbalance gaps between non-adjacent candles.
	candles := risingCandles(80, 100, 2)
	state := Build("BTC/USD", "1h", candles, ExternalContext{Now: buildClock})

	assert.Equal(t, models.Bullish, state.Trend.Direction)
	assert.NotNil(t, state.Profile)
	assert.NotEmpty(t, state.POIs)
	assert.Equal(t, candles[len(candles)-1].Close, state.Price)
}
