package scenario

import (
	"fmt"
	"math"
	"sort"

	"edgecast/models"
)

const (
	wallTargetMaxDistPct = 3.0 // opposing walls beyond 3% of price are ignored
	defaultProjectionPct = 2.0
)

// rank builds the directional and range scenarios sorted by probability.
func rank(state *models.MarketState, setups []ScoredSetup, probs models.ProbabilityTriple) []models.Scenario {
	scenarios := []models.Scenario{
		buildDirectional(state, setups, models.Bullish, probs.Up),
		buildDirectional(state, setups, models.Bearish, probs.Down),
		buildRange(state, probs.Range),
	}
	sort.SliceStable(scenarios, func(i, j int) bool {
		return scenarios[i].Probability > scenarios[j].Probability
	})
	return scenarios
}

// buildDirectional assembles one directional scenario with its pathway:
// start, optional manipulation fake-out, optional pivot, target.
func buildDirectional(state *models.MarketState, setups []ScoredSetup, dir models.Bias, prob float64) models.Scenario {
	s := models.Scenario{
		Direction:   dir,
		Probability: prob,
		Narrative:   fmt.Sprintf("%s continuation toward resting liquidity", dir),
	}

	price := state.Price
	path := []models.PathPoint{{Price: price, Label: "START"}}

	if fake := fakeoutPoint(state, dir); fake != 0 {
		path = append(path, models.PathPoint{Price: fake, Label: "FAKEOUT"})
		s.Narrative = fmt.Sprintf("manipulation first, then %s expansion", dir)
	}
	if pivot := pivotPoint(state, dir); pivot != 0 {
		path = append(path, models.PathPoint{Price: pivot, Label: "PIVOT"})
	}
	path = append(path, models.PathPoint{Price: targetPoint(state, setups, dir), Label: "TARGET"})
	s.Pathway = path

	s.Confirmed = confirmed(state, setups, dir)
	return s
}

func buildRange(state *models.MarketState, prob float64) models.Scenario {
	s := models.Scenario{
		Direction:   models.Neutral,
		Probability: prob,
		Narrative:   "consolidation inside accepted value",
	}
	target := state.Price
	if state.Profile != nil {
		target = state.Profile.POC
	}
	s.Pathway = []models.PathPoint{
		{Price: state.Price, Label: "START"},
		{Price: target, Label: "TARGET"},
	}
	return s
}

// fakeoutPoint projects a manipulation leg against the scenario
// direction when an opposing magnet or a fresh sweep suggests one.
func fakeoutPoint(state *models.MarketState, dir models.Bias) float64 {
	if m := state.PrimaryMagnet(); m != nil && m.Direction == dir.Opposite() && m.Urgency > magnetUrgencyHi {
		return m.Price
	}
	if state.Sweep != nil && state.Sweep.Direction == dir && state.Sweep.Age <= 3 {
		return state.Sweep.Price
	}
	return 0
}

// pivotPoint picks the entry/pullback node: nearest confluence POI on
// the pullback side, then POC, then an order block.
func pivotPoint(state *models.MarketState, dir models.Bias) float64 {
	price := state.Price
	var best float64
	bestDist := math.MaxFloat64

	consider := func(p float64) {
		if p == 0 {
			return
		}
		// The pullback sits against the direction of travel.
		if dir == models.Bullish && p >= price {
			return
		}
		if dir == models.Bearish && p <= price {
			return
		}
		if d := math.Abs(p - price); d < bestDist {
			best, bestDist = p, d
		}
	}

	for _, poi := range state.POIs {
		if poi.Kind == models.POIOrderBlock || poi.Kind == models.POIImbalanceGap {
			consider(poi.Price)
		}
	}
	if best == 0 && state.Profile != nil {
		consider(state.Profile.POC)
	}
	return best
}

// targetPoint resolves the scenario target: setup target first, then the
// nearest opposing wall within 3% of price, then a 2% projection.
func targetPoint(state *models.MarketState, setups []ScoredSetup, dir models.Bias) float64 {
	for i := range setups {
		s := setups[i].Setup
		if s.Direction == dir && len(s.Targets) > 0 {
			return s.Targets[0]
		}
	}

	price := state.Price
	var best float64
	bestDist := math.MaxFloat64
	for _, w := range state.Walls {
		if w.Side != dir.Opposite() {
			continue
		}
		if dir == models.Bullish && w.Price <= price {
			continue
		}
		if dir == models.Bearish && w.Price >= price {
			continue
		}
		d := math.Abs(w.Price-price) / price * 100
		if d <= wallTargetMaxDistPct && d < bestDist {
			best, bestDist = w.Price, d
		}
	}
	if best != 0 {
		return best
	}

	if dir == models.Bullish {
		return price * (1 + defaultProjectionPct/100)
	}
	return price * (1 - defaultProjectionPct/100)
}

// confirmed flags rendering-grade confirmation: HTF agreement, strong
// trend agreement, or a setup above 60 edge points. Never affects the
// probability itself.
func confirmed(state *models.MarketState, setups []ScoredSetup, dir models.Bias) bool {
	if state.HTF.Bias == dir {
		return true
	}
	if state.Trend.Direction == dir && state.Trend.Strength > 60 {
		return true
	}
	for _, s := range setups {
		if s.Setup.Direction == dir && s.Points > 60 {
			return true
		}
	}
	return false
}
