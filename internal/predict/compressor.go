package predict

import (
	"fmt"
	"math"
	"sort"

	"edgecast/models"
)

// Bias-ladder thresholds.
const (
	rangeBiasThreshold = 0.60
	chochMaxAge        = 15
	chochReversalMin   = 0.55
	continuationMin    = 0.60
	reversalMin        = 0.65
	rangingBothBelow   = 0.55
	conflictTrustHigh  = 0.8
	conflictTrustLow   = 0.5
)

// Waiting markers carried on a Prediction instead of a directional bias.
const (
	WaitRange    = "WAIT_RANGE"
	WaitNews     = "WAIT_NEWS"
	WaitConflict = "WAIT_CONFLICT"
)

// POI cluster weights for target selection.
var poiWeights = map[models.POIKind]float64{
	models.POILiquidityPool: 1.0,
	models.POIOrderBlock:    0.8,
	models.POIImbalanceGap:  0.6,
}

// Analysis is the full evaluation-tick context handed to the compressor.
type Analysis struct {
	State     *models.MarketState
	Setup     *models.Setup
	Edge      *models.EdgeScore
	Scenarios models.ScenarioSet
}

// Compress reduces a multi-signal analysis to the single
// bias/target/invalidation/confidence tuple. The result is immutable;
// the next tick supersedes it.
func Compress(a Analysis, probs models.ProbabilityTriple) models.Prediction {
	state := a.State
	pred := models.Prediction{
		ID:        PredictionID(state.Symbol, state.Timeframe, state.Timestamp),
		Symbol:    state.Symbol,
		Timeframe: state.Timeframe,
		CreatedAt: state.Timestamp,
		ExpiresAt: state.Timestamp.Add(models.PredictionTTL(state.Timeframe)),
	}
	if a.Edge != nil {
		pred.EdgeScore = a.Edge.Score
	}

	bias, waiting := resolveBias(state, probs)
	pred.Bias = bias
	pred.Waiting = waiting
	if waiting != "" {
		return pred
	}

	pred.Target = selectTarget(a, bias)
	pred.Invalidation = selectInvalidation(a, bias)
	pred.Confidence = confidence(a, bias, probs, pred.Target)
	pred.Horizons = []string{state.Timeframe}
	pred.ValidityConditions = validity(a, bias)
	return pred
}

// resolveBias walks the ranked priority ladder. The first matching step
// wins.
func resolveBias(state *models.MarketState, probs models.ProbabilityTriple) (models.Bias, string) {
	trend := state.Trend.Direction
	continuation, reversal := trendSplit(state, probs)

	// 1. Dominant consolidation.
	if probs.Range > rangeBiasThreshold {
		return models.Neutral, ""
	}

	// 2. Young change of character backed by reversal probability.
	if s := state.Structure; s != nil && s.Kind == models.ChangeOfCharacter && s.Age < chochMaxAge {
		dirProb := probs.Up
		if s.Direction == models.Bearish {
			dirProb = probs.Down
		}
		if dirProb >= chochReversalMin {
			return s.Direction, ""
		}
	}

	// 3. Continuation.
	if trend != models.Neutral && continuation >= continuationMin {
		return trend, ""
	}

	// 4. Strong reversal.
	if trend != models.Neutral && reversal >= reversalMin {
		return trend.Opposite(), ""
	}

	// 5. Ranging with no conviction either way.
	if state.Regime.Type == models.RegimeRanging && continuation < rangingBothBelow && reversal < rangingBothBelow {
		return models.Neutral, WaitRange
	}

	// 6. High-severity news shock.
	if state.Shock != nil && state.Shock.Severity == models.ImpactHigh {
		return models.Neutral, WaitNews
	}

	// 7. Timeframe conflict resolved by confidence-weighted trust.
	htf, ltf := state.HTF, state.LTF
	if htf.Bias != models.Neutral && ltf.Bias != models.Neutral && htf.Bias != ltf.Bias {
		if htf.Confidence > conflictTrustHigh && ltf.Confidence < conflictTrustLow {
			return htf.Bias, ""
		}
		if ltf.Confidence > conflictTrustHigh && htf.Confidence < conflictTrustLow {
			return ltf.Bias, ""
		}
		return models.Neutral, WaitConflict
	}

	// 8. Default to the higher timeframe.
	return htf.Bias, ""
}

// trendSplit maps the probability triple onto continuation/reversal
// relative to the current trend.
func trendSplit(state *models.MarketState, probs models.ProbabilityTriple) (continuation, reversal float64) {
	switch state.Trend.Direction {
	case models.Bullish:
		return probs.Up, probs.Down
	case models.Bearish:
		return probs.Down, probs.Up
	default:
		if probs.Up >= probs.Down {
			return probs.Up, probs.Down
		}
		return probs.Down, probs.Up
	}
}

// selectTarget prefers a proximity-weighted cluster of 2-3 points of
// interest in the bias direction, then a liquidity-run magnet, then the
// setup target, then a flat 2% projection.
func selectTarget(a Analysis, bias models.Bias) float64 {
	state := a.State
	price := state.Price

	if t := clusterTarget(state, bias); t != 0 {
		return t
	}
	if m := state.PrimaryMagnet(); m != nil && m.Direction == bias && m.Urgency > 60 {
		return m.Price
	}
	if a.Setup != nil && a.Setup.Direction == bias && len(a.Setup.Targets) > 0 {
		return a.Setup.Targets[0]
	}
	if bias == models.Bearish {
		return price * 0.98
	}
	return price * 1.02
}

// clusterTarget finds 2-3 POIs on the bias side within 1% of each other
// and averages them, weighted by kind and proximity.
func clusterTarget(state *models.MarketState, bias models.Bias) float64 {
	price := state.Price
	var ahead []models.POI
	for _, p := range state.POIs {
		if bias == models.Bullish && p.Price > price {
			ahead = append(ahead, p)
		} else if bias == models.Bearish && p.Price < price {
			ahead = append(ahead, p)
		}
	}
	if len(ahead) < 2 {
		return 0
	}
	sort.Slice(ahead, func(i, j int) bool {
		return math.Abs(ahead[i].Price-price) < math.Abs(ahead[j].Price-price)
	})

	// Grow the cluster from the nearest POI while members stay within 1%.
	cluster := ahead[:1]
	for _, p := range ahead[1:] {
		if len(cluster) == 3 {
			break
		}
		if math.Abs(p.Price-cluster[0].Price)/price <= 0.01 {
			cluster = append(cluster, p)
		}
	}
	if len(cluster) < 2 {
		return 0
	}

	var weighted, weightSum float64
	for _, p := range cluster {
		w := poiWeights[p.Kind]
		dist := math.Abs(p.Price - price)
		if dist > 0 {
			w /= dist
		}
		weighted += p.Price * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return weighted / weightSum
}

// selectInvalidation uses the setup stop when present, otherwise the
// nearest structural swing opposing the bias.
func selectInvalidation(a Analysis, bias models.Bias) float64 {
	if a.Setup != nil && a.Setup.StopLoss != 0 && a.Setup.Direction == bias {
		return a.Setup.StopLoss
	}

	state := a.State
	price := state.Price
	var best float64
	bestDist := math.MaxFloat64
	for _, s := range state.Swings {
		if bias == models.Bullish && s.High {
			continue
		}
		if bias == models.Bearish && !s.High {
			continue
		}
		if bias == models.Bullish && s.Price >= price {
			continue
		}
		if bias == models.Bearish && s.Price <= price {
			continue
		}
		if d := math.Abs(s.Price - price); d < bestDist {
			best, bestDist = s.Price, d
		}
	}
	if best != 0 {
		return best
	}
	if bias == models.Bearish {
		return price * 1.01
	}
	return price * 0.99
}

// confidence builds the 0-100 score additively, then applies the
// path-clearance, trap, velocity, session, correlation and momentum
// adjustments.
func confidence(a Analysis, bias models.Bias, probs models.ProbabilityTriple, target float64) float64 {
	state := a.State
	score := 0.0

	// Probability strength, up to 50.
	dirProb := probs.Up
	if bias == models.Bearish {
		dirProb = probs.Down
	} else if bias == models.Neutral {
		dirProb = probs.Range
	}
	score += math.Min(dirProb/0.75, 1) * 50

	// HTF alignment, up to 25.
	if state.HTF.Bias == bias {
		score += 25 * state.HTF.Confidence
	}
	// Structure confirmation, 15.
	if s := state.Structure; s != nil && s.Direction == bias {
		score += 15
	}
	// Volume confirmation, 10.
	if state.OrderFlow.Direction == bias {
		score += 10
	}

	// Path clearance: every opposing obstacle between price and target
	// costs 10, capped at 30.
	score -= math.Min(float64(obstaclesOnPath(state, bias, target))*10, 30)

	if state.InTrap() {
		score -= 25
	}

	switch {
	case state.Velocity > 1.2:
		score += 15
	case state.Velocity < 0.5:
		score -= 10
	}

	switch state.Session.Session {
	case models.SessionAsian:
		score -= 10
	case models.SessionOverlap:
		score += 10
	}
	if state.Session.Killzone {
		score += 5
	}

	if state.Correlation != nil && state.Correlation.Conflict {
		score -= 20
	}

	if m := state.Momentum; m != nil && m.Divergence != "" {
		if m.Divergence == bias {
			score += 10
		} else if m.Divergence == bias.Opposite() {
			score -= 15
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return math.Round(score)
}

// obstaclesOnPath counts opposing walls and value-area edges sitting
// between current price and the target.
func obstaclesOnPath(state *models.MarketState, bias models.Bias, target float64) int {
	price := state.Price
	between := func(p float64) bool {
		if bias == models.Bullish {
			return p > price && p < target
		}
		return p < price && p > target
	}

	count := 0
	for _, w := range state.Walls {
		if w.Side == bias.Opposite() && between(w.Price) {
			count++
		}
	}
	if p := state.Profile; p != nil {
		if between(p.ValueAreaHigh) || between(p.ValueAreaLow) {
			count++
		}
	}
	return count
}

func validity(a Analysis, bias models.Bias) []string {
	var conds []string
	if a.Setup != nil && a.Setup.StopLoss != 0 {
		conds = append(conds, fmt.Sprintf("invalid on close beyond %.5g", a.Setup.StopLoss))
	}
	if s := a.State.Structure; s != nil && s.Direction == bias {
		conds = append(conds, fmt.Sprintf("holds while %s at %.5g is respected", s.Kind, s.Price))
	}
	return conds
}
