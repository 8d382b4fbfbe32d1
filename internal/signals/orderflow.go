package signals

import (
	"edgecast/models"
)

// Thresholds for the order-flow extractors. Fixed so backtests reproduce
// bit-for-bit.
const (
	MinWindow = 5

	absorptionVolumeRatio = 1.5
	absorptionRangeRatio  = 0.8
	climaxVolumeRatio     = 2.0

	flowBullishRatio = 0.65
	flowBearishRatio = 0.35

	rollingWindow = 20
)

// AggressiveVolumes reconstructs the aggressive buy/sell split of a
// candle's volume from its geometry: the winning side gets the body plus
// the opposing wick, the loser gets the rest. Real tick data is not
// available at this layer.
func AggressiveVolumes(c models.Candle) (buy, sell float64) {
	r := c.Range()
	if r == 0 || c.Volume == 0 {
		return c.Volume / 2, c.Volume / 2
	}
	if c.IsBullish() {
		frac := (c.Body() + c.LowerWick()) / r
		buy = c.Volume * frac
		return buy, c.Volume - buy
	}
	frac := (c.Body() + c.UpperWick()) / r
	sell = c.Volume * frac
	return c.Volume - sell, sell
}

// OrderFlow summarizes aggressive volume over the most recent MinWindow
// candles and flags absorption and climax conditions against the rolling
// baseline. Fewer than MinWindow candles yields a neutral result.
func OrderFlow(candles []models.Candle) models.OrderFlow {
	if len(candles) < MinWindow {
		return models.OrderFlow{Direction: models.Neutral}
	}

	var buyVol, sellVol float64
	for i := len(candles) - MinWindow; i < len(candles); i++ {
		b, s := AggressiveVolumes(candles[i])
		buyVol += b
		sellVol += s
	}

	flow := models.OrderFlow{
		Direction:  models.Neutral,
		BuyVolume:  buyVol,
		SellVolume: sellVol,
		Delta:      buyVol - sellVol,
	}

	total := buyVol + sellVol
	if total > 0 {
		ratio := buyVol / total
		flow.DeltaPercent = (ratio - 0.5) * 200
		if ratio > flowBullishRatio {
			flow.Direction = models.Bullish
		} else if ratio < flowBearishRatio {
			flow.Direction = models.Bearish
		}
	}

	flow.Absorption = Absorption(candles)
	flow.Climax, flow.ClimaxDirection = Climax(candles)
	return flow
}

// Absorption flags the last candle when volume runs hot against a
// compressed range: volume > 1.5x rolling average while range < 0.8x the
// rolling average range. Large orders are soaking up aggression without
// letting price travel.
func Absorption(candles []models.Candle) bool {
	n := len(candles)
	if n < MinWindow+1 {
		return false
	}

	start := n - 1 - rollingWindow
	if start < 0 {
		start = 0
	}
	baseVol := avgVolume(candles, start, n-1)
	baseRange := avgRange(candles, start, n-1)
	if baseVol == 0 || baseRange == 0 {
		return false
	}

	last := candles[n-1]
	return last.Volume > absorptionVolumeRatio*baseVol &&
		last.Range() < absorptionRangeRatio*baseRange
}

// Climax flags a directional volume blow-off: the last candle's
// aggressive volume on one side exceeds 2x the rolling average volume.
func Climax(candles []models.Candle) (bool, models.Bias) {
	n := len(candles)
	if n < MinWindow+1 {
		return false, models.Neutral
	}

	start := n - 1 - rollingWindow
	if start < 0 {
		start = 0
	}
	baseVol := avgVolume(candles, start, n-1)
	if baseVol == 0 {
		return false, models.Neutral
	}

	buy, sell := AggressiveVolumes(candles[n-1])
	if buy > climaxVolumeRatio*baseVol {
		return true, models.Bullish
	}
	if sell > climaxVolumeRatio*baseVol {
		return true, models.Bearish
	}
	return false, models.Neutral
}
