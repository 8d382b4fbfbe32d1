package execution

import (
	"fmt"
	"math/rand"

	"edgecast/models"
)

// Routing thresholds.
const (
	marketSpreadPct = 0.001 // 0.1%
	chaseSpreadPct  = 0.003 // 0.3%
	maxRequotes     = 3

	slippageTolerance = 0.005 // 0.5%

	twapNotional    = 500_000.0
	icebergNotional = 100_000.0

	icebergVisibleFrac = 0.10
	icebergVariance    = 0.20
)

// Market is the live microstructure the router sees: one price, one
// spread, one volatility read, one depth snapshot.
type Market struct {
	Price      float64
	Spread     float64
	Volatility models.VolatilityRegime
	Depth      *models.DepthSnapshot
}

// Router picks an execution style for an order intent. Decisions are
// computed fresh per intent and never cached.
type Router struct {
	slicer *IcebergSlicer
	rng    *rand.Rand
}

// NewRouter builds a router around a seeded random source; only the
// iceberg/TWAP slicing consumes randomness.
func NewRouter(rng *rand.Rand) *Router {
	return &Router{slicer: NewIcebergSlicer(rng), rng: rng}
}

// Route decides how to work the order. Every decision carries reasons;
// a caller refusing to act must surface them, never silently drop them.
func (r *Router) Route(order models.Order, mkt Market) models.ExecutionDecision {
	if order.Urgency == models.UrgencyHigh {
		return r.routeUrgent(order, mkt)
	}
	return r.routePatient(order, mkt)
}

// routeUrgent trades speed against spread cost, with a slippage check
// before committing to a market sweep.
func (r *Router) routeUrgent(order models.Order, mkt Market) models.ExecutionDecision {
	spreadPct := 0.0
	if mkt.Price > 0 {
		spreadPct = mkt.Spread / mkt.Price
	}

	switch {
	case spreadPct < marketSpreadPct:
		walk := WalkBook(mkt.Depth, order.Side, order.Size)
		if walk.Slippage > slippageTolerance {
			return models.ExecutionDecision{
				Type:       models.StyleLimitChase,
				LimitPrice: bestPrice(mkt, order.Side),
				Requotes:   maxRequotes,
				Slippage:   walk.Slippage,
				Reason: []string{
					fmt.Sprintf("spread %.3f%% allows market order", spreadPct*100),
					fmt.Sprintf("estimated slippage %.2f%% exceeds %.2f%% tolerance, downgraded to chase", walk.Slippage*100, slippageTolerance*100),
				},
			}
		}
		return models.ExecutionDecision{
			Type:     models.StyleMarket,
			Slippage: walk.Slippage,
			Reason: []string{
				fmt.Sprintf("spread %.3f%% below %.1f%% market threshold", spreadPct*100, marketSpreadPct*100),
				fmt.Sprintf("book absorbs size with %.2f%% slippage", walk.Slippage*100),
			},
		}

	case spreadPct < chaseSpreadPct:
		return models.ExecutionDecision{
			Type:       models.StyleLimitChase,
			LimitPrice: bestPrice(mkt, order.Side),
			Requotes:   maxRequotes,
			Reason: []string{
				fmt.Sprintf("spread %.3f%% too wide for market, chasing best price with %d requotes", spreadPct*100, maxRequotes),
			},
		}

	default:
		return models.ExecutionDecision{
			Type:       models.StyleLimit,
			LimitPrice: midPrice(mkt),
			Reason: []string{
				fmt.Sprintf("spread %.3f%% too wide to cross, resting at mid", spreadPct*100),
			},
		}
	}
}

// routePatient hides size: TWAP above $500k notional, iceberg above
// $100k, otherwise a resting limit (passive in a high-vol tape).
func (r *Router) routePatient(order models.Order, mkt Market) models.ExecutionDecision {
	notional := order.Size * mkt.Price

	switch {
	case notional > twapNotional:
		slices, duration := GenerateTWAP(r.rng, order.Size)
		return models.ExecutionDecision{
			Type:     models.StyleTWAP,
			Slices:   slices,
			Duration: duration,
			Reason: []string{
				fmt.Sprintf("notional $%.0f above $%.0f, spreading over %s", notional, twapNotional, duration),
			},
		}

	case notional > icebergNotional:
		visible := order.Size * icebergVisibleFrac
		return models.ExecutionDecision{
			Type:   models.StyleIceberg,
			Slices: r.slicer.GenerateSlices(order.Size, visible, icebergVariance),
			Reason: []string{
				fmt.Sprintf("notional $%.0f above $%.0f, hiding size behind %.0f%% visible slices", notional, icebergNotional, icebergVisibleFrac*100),
			},
		}

	case mkt.Volatility == models.VolatilityHigh:
		return models.ExecutionDecision{
			Type:       models.StyleLimitPassive,
			LimitPrice: bestPrice(mkt, order.Side),
			Reason:     []string{"high volatility regime, resting passively to be paid the spread"},
		}

	default:
		return models.ExecutionDecision{
			Type:       models.StyleLimit,
			LimitPrice: bestPrice(mkt, order.Side),
			Reason:     []string{"small patient order, plain limit at best price"},
		}
	}
}

func bestPrice(mkt Market, side models.Bias) float64 {
	if mkt.Depth != nil {
		if side == models.Bullish {
			if b := mkt.Depth.BestBid(); b > 0 {
				return b
			}
		} else {
			if a := mkt.Depth.BestAsk(); a > 0 {
				return a
			}
		}
	}
	return mkt.Price
}

func midPrice(mkt Market) float64 {
	if mkt.Depth != nil {
		bid, ask := mkt.Depth.BestBid(), mkt.Depth.BestAsk()
		if bid > 0 && ask > 0 {
			return (bid + ask) / 2
		}
	}
	return mkt.Price
}
