package liquidity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgecast/models"
)

func depthWithWall() *models.DepthSnapshot {
	return &models.DepthSnapshot{
		Bids: []models.PriceLevel{
			{Price: 100.0, Quantity: 10},
			{Price: 99.9, Quantity: 12},
			{Price: 99.8, Quantity: 300}, // wall
			{Price: 99.7, Quantity: 9},
		},
		Asks: []models.PriceLevel{
			{Price: 100.1, Quantity: 11},
			{Price: 100.2, Quantity: 8},
		},
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDetectWalls(t *testing.T) {
	walls := DetectWalls(depthWithWall())
	require.Len(t, walls, 1)
	assert.Equal(t, 99.8, walls[0].Price)
	assert.Equal(t, models.Bullish, walls[0].Side)

	assert.Nil(t, DetectWalls(nil))
	assert.Nil(t, DetectWalls(&models.DepthSnapshot{}))
}

func TestBuildMagnets(t *testing.T) {
	// A swing high at 103 that price never revisits stays a magnet.
	candles := make([]models.Candle, 20)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000}
	}
	candles[8] = models.Candle{Open: 100, High: 103, Low: 99.8, Close: 100.4, Volume: 1500}

	ob := BuildMagnets(candles, nil, 100)
	require.NotNil(t, ob)
	require.NotNil(t, ob.Primary)
	assert.Equal(t, 103.0, ob.Primary.Price)
	assert.Equal(t, models.Bullish, ob.Primary.Direction)
	assert.Greater(t, ob.Primary.Urgency, 0.0)
}

func TestBuildMagnetsSweptLevelExcluded(t *testing.T) {
	candles := make([]models.Candle, 20)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000}
	}
	candles[8] = models.Candle{Open: 100, High: 103, Low: 99.8, Close: 100.4, Volume: 1500}
	candles[15] = models.Candle{Open: 100, High: 103.5, Low: 99.8, Close: 100.2, Volume: 1200}

	ob := BuildMagnets(candles, nil, 100)
	if ob != nil && ob.Primary != nil {
		assert.NotEqual(t, 103.0, ob.Primary.Price, "swept level must not remain a magnet")
	}
}

func TestPulseDetector(t *testing.T) {
	d := NewPulseDetector()

	first := d.Update(depthWithWall())
	assert.Equal(t, models.Neutral, first.Signal, "first snapshot only primes the detector")

	// Bids stack hard relative to the previous snapshot.
	stacked := depthWithWall()
	stacked.Bids[0].Quantity += 200
	pulse := d.Update(stacked)
	assert.Equal(t, models.Bullish, pulse.Signal)
	assert.InDelta(t, 200, pulse.BidVelocity, 1e-9)
	assert.Zero(t, pulse.AskVelocity)

	// Unchanged book is neutral.
	assert.Equal(t, models.Neutral, d.Update(stacked).Signal)
}
