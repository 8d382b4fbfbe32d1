package execution

import (
	"math"

	"edgecast/models"
)

// SentinelSlippage is returned when the book cannot fill the requested
// size. It is deliberately absurd so every downstream guard trips.
const SentinelSlippage = 0.10

// WalkResult is the outcome of sweeping one side of the book.
type WalkResult struct {
	AvgPrice float64
	Filled   float64
	Slippage float64 // |avg - best| / best
	Partial  bool
}

// WalkBook sweeps the opposing side of a single depth snapshot,
// accumulating levels until size is filled. The snapshot must not be
// re-queried mid-walk or the estimate loses internal consistency.
func WalkBook(depth *models.DepthSnapshot, side models.Bias, size float64) WalkResult {
	if depth == nil || size <= 0 {
		return WalkResult{Slippage: SentinelSlippage, Partial: true}
	}

	levels := depth.Asks // buys lift asks
	if side == models.Bearish {
		levels = depth.Bids
	}
	if len(levels) == 0 {
		return WalkResult{Slippage: SentinelSlippage, Partial: true}
	}

	best := levels[0].Price
	remaining := size
	var notional, filled float64
	for _, l := range levels {
		take := math.Min(remaining, l.Quantity)
		notional += take * l.Price
		filled += take
		remaining -= take
		if remaining <= 0 {
			break
		}
	}

	if filled == 0 {
		return WalkResult{Slippage: SentinelSlippage, Partial: true}
	}

	avg := notional / filled
	res := WalkResult{AvgPrice: avg, Filled: filled}
	if remaining > 0 {
		res.Partial = true
		res.Slippage = SentinelSlippage
		return res
	}
	if best > 0 {
		res.Slippage = math.Abs(avg-best) / best
	}
	return res
}
