package signals

import (
	"math"

	"edgecast/models"
)

// ATR returns the average true range over the trailing period.
// Insufficient history returns 0.
func ATR(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	var trueRanges []float64
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highPrevClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowPrevClose := math.Abs(candles[i].Low - candles[i-1].Close)
		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highPrevClose, lowPrevClose)))
	}

	periodToUse := period
	if len(trueRanges) < period {
		periodToUse = len(trueRanges)
	}

	var sum float64
	for i := len(trueRanges) - periodToUse; i < len(trueRanges); i++ {
		sum += trueRanges[i]
	}
	return sum / float64(periodToUse)
}

// avgVolume averages volume over candles[start:end).
func avgVolume(candles []models.Candle, start, end int) float64 {
	if end <= start {
		return 0
	}
	var sum float64
	for i := start; i < end; i++ {
		sum += candles[i].Volume
	}
	return sum / float64(end-start)
}

// avgRange averages the high-low span over candles[start:end).
func avgRange(candles []models.Candle, start, end int) float64 {
	if end <= start {
		return 0
	}
	var sum float64
	for i := start; i < end; i++ {
		sum += candles[i].Range()
	}
	return sum / float64(end-start)
}
