package liquidity

import (
	"math"
	"sort"

	"edgecast/models"
)

const (
	wallSizeRatio    = 4.0 // a wall is 4x the mean level size
	magnetMaxDistPct = 5.0 // magnets further than 5% of price are ignored
	sweepLookback    = 10  // candles checked for a level having been run
)

// DetectWalls scans one depth snapshot for resting size far above the
// book's mean level size. The snapshot is read once; callers must not
// mutate it afterwards.
func DetectWalls(depth *models.DepthSnapshot) []models.Wall {
	if depth == nil || (len(depth.Bids) == 0 && len(depth.Asks) == 0) {
		return nil
	}

	var total float64
	var count int
	for _, l := range depth.Bids {
		total += l.Quantity
		count++
	}
	for _, l := range depth.Asks {
		total += l.Quantity
		count++
	}
	if count == 0 || total == 0 {
		return nil
	}
	mean := total / float64(count)

	var walls []models.Wall
	for _, l := range depth.Bids {
		if l.Quantity > wallSizeRatio*mean {
			walls = append(walls, models.Wall{Price: l.Price, Quantity: l.Quantity, Side: models.Bullish})
		}
	}
	for _, l := range depth.Asks {
		if l.Quantity > wallSizeRatio*mean {
			walls = append(walls, models.Wall{Price: l.Price, Quantity: l.Quantity, Side: models.Bearish})
		}
	}
	sort.Slice(walls, func(i, j int) bool { return walls[i].Price < walls[j].Price })
	return walls
}

// BuildMagnets derives the liquidity obligations: unswept swing levels
// near price that the market is statistically drawn toward. Urgency
// rises as the level gets closer and when resting size confirms it.
func BuildMagnets(candles []models.Candle, walls []models.Wall, price float64) *models.Obligations {
	if len(candles) < sweepLookback || price <= 0 {
		return nil
	}

	swings := findSwings(candles)
	var magnets []models.MagnetZone
	for _, s := range swings {
		distPct := math.Abs(s.Price-price) / price * 100
		if distPct > magnetMaxDistPct || swept(candles, s) {
			continue
		}

		urgency := 100 - distPct*15
		if urgency < 0 {
			urgency = 0
		}
		for _, w := range walls {
			if math.Abs(w.Price-s.Price)/price < 0.002 {
				urgency += 10
				break
			}
		}
		if urgency > 100 {
			urgency = 100
		}

		dir := models.Bullish
		reason := "unswept swing high liquidity above price"
		if s.Price < price {
			dir = models.Bearish
			reason = "unswept swing low liquidity below price"
		}
		magnets = append(magnets, models.MagnetZone{
			Price:     s.Price,
			Urgency:   urgency,
			Direction: dir,
			Reason:    reason,
		})
	}
	if len(magnets) == 0 {
		return nil
	}

	sort.Slice(magnets, func(i, j int) bool { return magnets[i].Urgency > magnets[j].Urgency })
	ob := &models.Obligations{Primary: &magnets[0]}
	if len(magnets) > 1 {
		ob.Secondary = magnets[1:]
	}
	return ob
}

// FindSwings exposes structural swing points for invalidation selection.
func FindSwings(candles []models.Candle) []models.SwingPoint {
	return findSwings(candles)
}

// findSwings returns local extremes with a 2-candle fractal on each side.
func findSwings(candles []models.Candle) []models.SwingPoint {
	var swings []models.SwingPoint
	for i := 2; i < len(candles)-2; i++ {
		c := candles[i]
		if c.High > candles[i-1].High && c.High > candles[i-2].High &&
			c.High > candles[i+1].High && c.High > candles[i+2].High {
			swings = append(swings, models.SwingPoint{Price: c.High, High: true, Index: i})
		}
		if c.Low < candles[i-1].Low && c.Low < candles[i-2].Low &&
			c.Low < candles[i+1].Low && c.Low < candles[i+2].Low {
			swings = append(swings, models.SwingPoint{Price: c.Low, High: false, Index: i})
		}
	}
	return swings
}

// swept reports whether price already ran through the swing level after
// it formed.
func swept(candles []models.Candle, s models.SwingPoint) bool {
	for i := s.Index + 1; i < len(candles); i++ {
		if s.High && candles[i].High > s.Price {
			return true
		}
		if !s.High && candles[i].Low < s.Price {
			return true
		}
	}
	return false
}
