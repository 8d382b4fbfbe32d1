package signals

import (
	"math"
	"sort"

	"edgecast/models"
)

const (
	icebergMinTouches  = 3
	icebergVolumeRatio = 5.0
)

// QuantizeStep picks the price-level grid for a given price magnitude,
// two orders below the leading digit (50 000 -> 100, 1.20 -> 0.01).
func QuantizeStep(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return math.Pow(10, math.Floor(math.Log10(price))-2)
}

// DetectLevels scans candle extremes for iceberg/wall candidates: a
// quantized price level touched at least 3 times with cumulative volume
// above 5x the average candle volume. Levels below current price are
// bid-side support, above are ask-side resistance.
func DetectLevels(candles []models.Candle) []models.Wall {
	if len(candles) < MinWindow {
		return nil
	}

	price := candles[len(candles)-1].Close
	step := QuantizeStep(price)
	if step == 0 {
		return nil
	}

	avgVol := avgVolume(candles, 0, len(candles))
	if avgVol == 0 {
		return nil
	}

	type bucket struct {
		touches int
		volume  float64
	}
	levels := make(map[int64]*bucket)

	touch := func(p, vol float64) {
		key := int64(math.Round(p / step))
		b, ok := levels[key]
		if !ok {
			b = &bucket{}
			levels[key] = b
		}
		b.touches++
		b.volume += vol
	}

	for _, c := range candles {
		// Highs and lows are where resting size gets tested.
		touch(c.High, c.Volume/2)
		touch(c.Low, c.Volume/2)
	}

	var walls []models.Wall
	for key, b := range levels {
		if b.touches < icebergMinTouches || b.volume <= icebergVolumeRatio*avgVol {
			continue
		}
		level := float64(key) * step
		side := models.Bullish
		if level > price {
			side = models.Bearish
		}
		walls = append(walls, models.Wall{
			Price:    level,
			Quantity: b.volume,
			Side:     side,
			Touches:  b.touches,
		})
	}

	sort.Slice(walls, func(i, j int) bool { return walls[i].Price < walls[j].Price })
	return walls
}
