package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgecast/models"
)

func makeCandles(n int, gen func(i int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := gen(i)
		if c.Timestamp.IsZero() {
			c.Timestamp = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
		}
		candles[i] = c
	}
	return candles
}

func flatCandle(vol float64) models.Candle {
	return models.Candle{Open: 100, High: 101, Low: 99, Close: 100.5, Volume: vol}
}

func TestAggressiveVolumes(t *testing.T) {
	tests := []struct {
		name    string
		candle  models.Candle
		wantBuy float64
	}{
		{
			name:    "zero range splits evenly",
			candle:  models.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000},
			wantBuy: 500,
		},
		{
			name:    "full-body bullish candle is all buys",
			candle:  models.Candle{Open: 100, High: 102, Low: 100, Close: 102, Volume: 1000},
			wantBuy: 1000,
		},
		{
			name:    "full-body bearish candle is all sells",
			candle:  models.Candle{Open: 102, High: 102, Low: 100, Close: 100, Volume: 1000},
			wantBuy: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buy, sell := AggressiveVolumes(tt.candle)
			assert.InDelta(t, tt.wantBuy, buy, 1e-9)
			assert.InDelta(t, tt.candle.Volume, buy+sell, 1e-9)
		})
	}
}

func TestOrderFlowInsufficientHistory(t *testing.T) {
	flow := OrderFlow(makeCandles(3, func(i int) models.Candle { return flatCandle(1000) }))
	assert.Equal(t, models.Neutral, flow.Direction)
	assert.Zero(t, flow.Delta)
}

func TestOrderFlowBullish(t *testing.T) {
	candles := makeCandles(10, func(i int) models.Candle {
		return models.Candle{Open: 100, High: 102.1, Low: 99.9, Close: 102, Volume: 1000}
	})
	flow := OrderFlow(candles)
	assert.Equal(t, models.Bullish, flow.Direction)
	assert.Greater(t, flow.Delta, 0.0)
	assert.Greater(t, flow.DeltaPercent, 30.0)
}

func TestOrderFlowDeterminism(t *testing.T) {
	candles := makeCandles(30, func(i int) models.Candle {
		return models.Candle{Open: 100, High: 101 + float64(i%3), Low: 99, Close: 100.3, Volume: 800 + float64(i*10)}
	})
	first := OrderFlow(candles)
	second := OrderFlow(candles)
	assert.Equal(t, first, second)
}

func TestAbsorption(t *testing.T) {
	candles := makeCandles(25, func(i int) models.Candle { return flatCandle(1000) })
	// High volume into a compressed range on the final candle.
	candles[24] = models.Candle{Open: 100, High: 100.5, Low: 99.9, Close: 100.2, Volume: 2000,
		Timestamp: candles[24].Timestamp}
	assert.True(t, Absorption(candles))

	// Same volume with a normal range is not absorption.
	candles[24] = models.Candle{Open: 100, High: 102, Low: 99, Close: 100.2, Volume: 2000,
		Timestamp: candles[24].Timestamp}
	assert.False(t, Absorption(candles))
}

func TestClimax(t *testing.T) {
	candles := makeCandles(25, func(i int) models.Candle { return flatCandle(1000) })
	candles[24] = models.Candle{Open: 100, High: 102.2, Low: 99.9, Close: 102, Volume: 3000,
		Timestamp: candles[24].Timestamp}
	hit, dir := Climax(candles)
	require.True(t, hit)
	assert.Equal(t, models.Bullish, dir)

	hit, dir = Climax(candles[:10])
	if hit {
		t.Fatalf("baseline candles should not flag climax, got %v", dir)
	}
}

func TestATR(t *testing.T) {
	assert.Zero(t, ATR(makeCandles(3, func(i int) models.Candle { return flatCandle(1000) }), 14))

	candles := makeCandles(30, func(i int) models.Candle { return flatCandle(1000) })
	assert.InDelta(t, 2.0, ATR(candles, 14), 1e-9)
}

func TestDetectLevels(t *testing.T) {
	candles := makeCandles(12, func(i int) models.Candle {
		return models.Candle{Open: 101, High: 105 + float64(i), Low: 100, Close: 101, Volume: 1000}
	})

	walls := DetectLevels(candles)
	require.NotEmpty(t, walls)

	var support *models.Wall
	for i := range walls {
		if walls[i].Price == 100 {
			support = &walls[i]
		}
	}
	require.NotNil(t, support, "repeatedly defended low should surface as a wall")
	assert.Equal(t, models.Bullish, support.Side)
	assert.GreaterOrEqual(t, support.Touches, 3)
	assert.Greater(t, support.Quantity, 5.0*1000)
}

func TestDetectLevelsDegenerate(t *testing.T) {
	assert.Nil(t, DetectLevels(nil))
	assert.Nil(t, DetectLevels(makeCandles(10, func(i int) models.Candle {
		return models.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 0}
	})))
}
