package liquidity

import (
	"edgecast/models"
)

const pulseLevels = 10 // top-of-book levels summed per side

// Pulse is the change in resting liquidity between two consecutive depth
// snapshots. Positive bid velocity means support stacking; negative means
// support being pulled.
type Pulse struct {
	BidVelocity float64
	AskVelocity float64
	Signal      models.Bias
}

// PulseDetector compares consecutive depth snapshots. It owns the
// previous snapshot explicitly so the comparison state is testable and
// instance-scoped, never package-level.
type PulseDetector struct {
	prev *models.DepthSnapshot
}

// NewPulseDetector returns an empty detector; the first Update only
// primes it.
func NewPulseDetector() *PulseDetector {
	return &PulseDetector{}
}

// Update ingests the next snapshot and returns the liquidity pulse
// relative to the previous one. The first call returns a neutral pulse.
func (d *PulseDetector) Update(depth *models.DepthSnapshot) Pulse {
	if depth == nil {
		return Pulse{Signal: models.Neutral}
	}

	prev := d.prev
	d.prev = depth
	if prev == nil {
		return Pulse{Signal: models.Neutral}
	}

	p := Pulse{
		BidVelocity: sideVolume(depth.Bids) - sideVolume(prev.Bids),
		AskVelocity: sideVolume(depth.Asks) - sideVolume(prev.Asks),
		Signal:      models.Neutral,
	}

	net := p.BidVelocity - p.AskVelocity
	base := sideVolume(prev.Bids) + sideVolume(prev.Asks)
	if base > 0 {
		// Only a meaningful shift in the book counts as a pulse.
		if net > 0.05*base {
			p.Signal = models.Bullish
		} else if net < -0.05*base {
			p.Signal = models.Bearish
		}
	}
	return p
}

func sideVolume(levels []models.PriceLevel) float64 {
	n := len(levels)
	if n > pulseLevels {
		n = pulseLevels
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += levels[i].Quantity
	}
	return sum
}
