package scenario

import (
	"fmt"
	"time"

	"edgecast/models"
)

// Probability constants. Fixed so identical inputs replay identically.
const (
	priorUp    = 0.33
	priorDown  = 0.33
	priorRange = 0.34

	waitingRangeProb = 0.60

	baseAligned        = 0.65
	baseCounterFloor   = 0.35
	baseCounterCeiling = 0.55

	magnetBoost     = 0.15
	magnetUrgencyHi = 70

	directionalCap = 0.75

	imminentNewsWindow = time.Hour
)

// ScoredSetup pairs a candidate setup with its edge points so the
// scenario engine can rank without re-scoring.
type ScoredSetup struct {
	Setup  models.Setup
	Points float64
}

// Fundamentals is the scheduled-events context for the news hazard
// adjustment.
type Fundamentals struct {
	Events []models.NewsEvent
}

// imminent returns the most significant event inside the hazard window.
// High impact forces the waiting state; medium and low impact instead
// adjust the directional probability by their weight.
func (f Fundamentals) imminent(now time.Time) *models.NewsEvent {
	var best *models.NewsEvent
	for i := range f.Events {
		e := &f.Events[i]
		until := e.Time.Sub(now)
		if until < 0 || until > imminentNewsWindow {
			continue
		}
		if best == nil || impactRank(e.Impact) > impactRank(best.Impact) {
			best = e
		}
	}
	return best
}

func impactRank(impact models.NewsImpact) int {
	switch impact {
	case models.ImpactHigh:
		return 2
	case models.ImpactMedium:
		return 1
	default:
		return 0
	}
}

// Generate produces the ranked scenario pair for one evaluation tick.
// Probabilities always normalize to 1.0 and no directional probability
// exceeds the 0.75 cap.
func Generate(state *models.MarketState, setups []ScoredSetup, fundamentals Fundamentals, stats *models.EngineStats) models.ScenarioSet {
	set := models.ScenarioSet{}

	news := fundamentals.imminent(state.Timestamp)
	if news == nil && state.UpcomingNews != nil {
		until := state.UpcomingNews.Time.Sub(state.Timestamp)
		if until >= 0 && until <= imminentNewsWindow {
			news = state.UpcomingNews
		}
	}

	probs, waiting, waitReason := probabilities(state, setups, news, stats)
	set.Probabilities = probs
	set.IsWaiting = waiting
	set.WaitReason = waitReason

	scenarios := rank(state, setups, probs)
	set.Primary = scenarios[0]
	if len(scenarios) > 1 {
		set.Secondary = scenarios[1]
	}
	return set
}

// probabilities derives the continuation/reversal/consolidation split.
func probabilities(state *models.MarketState, setups []ScoredSetup, news *models.NewsEvent, stats *models.EngineStats) (models.ProbabilityTriple, bool, string) {
	// Waiting states skew hard toward range.
	if reason := waitReason(state, news); reason != "" {
		p := models.ProbabilityTriple{Range: waitingRangeProb}
		leftover := 1 - waitingRangeProb
		switch state.Trend.Direction {
		case models.Bullish:
			p.Up, p.Down = leftover*0.625, leftover*0.375
		case models.Bearish:
			p.Up, p.Down = leftover*0.375, leftover*0.625
		default:
			p.Up, p.Down = leftover/2, leftover/2
		}
		return normalize(p), true, reason
	}

	bias, conviction := dominantBias(state, setups)
	if bias == models.Neutral {
		return normalize(models.ProbabilityTriple{Up: priorUp, Down: priorDown, Range: priorRange}), false, ""
	}

	// Base directional probability: with-trend setups start at 0.65,
	// counter-trend at 0.35-0.55 scaled by conviction.
	var p float64
	if state.Trend.Direction == models.Neutral || state.Trend.Direction == bias {
		p = baseAligned
	} else {
		p = baseCounterFloor + conviction*(baseCounterCeiling-baseCounterFloor)
	}

	if m := state.PrimaryMagnet(); m != nil && m.Urgency > magnetUrgencyHi && m.Direction == bias {
		p += magnetBoost
	}

	if news != nil && news.DirectionalBias != models.Neutral {
		impact := newsImpactWeight(news.Impact)
		if news.DirectionalBias == bias {
			p += impact
		} else {
			p -= impact
		}
	}

	// A cold engine argues for humility on direction.
	if stats != nil && stats.SampleSize >= 10 && stats.WinRate < 0.4 {
		p -= 0.05
	}

	if p < 0.05 {
		p = 0.05
	}
	if p > directionalCap {
		p = directionalCap
	}

	leftover := 1 - p
	triple := models.ProbabilityTriple{Range: leftover * 0.55}
	opp := leftover * 0.45
	if bias == models.Bullish {
		triple.Up, triple.Down = p, opp
	} else {
		triple.Down, triple.Up = p, opp
	}
	return normalize(triple), false, ""
}

func waitReason(state *models.MarketState, news *models.NewsEvent) string {
	if news != nil && news.Impact == models.ImpactHigh {
		return fmt.Sprintf("high-impact news imminent: %s", news.Title)
	}
	if state.Volatility == models.VolatilityLow && state.Regime.Type == models.RegimeRanging {
		return "low-volatility ranging regime"
	}
	if state.Obligations == nil || state.Obligations.Primary == nil {
		return "no liquidity obligation in play"
	}
	return ""
}

// dominantBias prefers the strongest setup, falling back to the primary
// magnet when no setup exists.
func dominantBias(state *models.MarketState, setups []ScoredSetup) (models.Bias, float64) {
	var best *ScoredSetup
	for i := range setups {
		if best == nil || setups[i].Points > best.Points {
			best = &setups[i]
		}
	}
	if best != nil && best.Setup.Direction != models.Neutral {
		return best.Setup.Direction, best.Setup.DirectionalConfidence
	}
	if m := state.PrimaryMagnet(); m != nil {
		return m.Direction, m.Urgency / 100
	}
	return models.Neutral, 0
}

func newsImpactWeight(impact models.NewsImpact) float64 {
	switch impact {
	case models.ImpactHigh:
		return 0.3
	case models.ImpactMedium:
		return 0.2
	default:
		return 0.1
	}
}

// normalize rescales the triple to sum to exactly 1.0, re-applying the
// directional cap if scaling pushed a side above it.
func normalize(p models.ProbabilityTriple) models.ProbabilityTriple {
	sum := p.Sum()
	if sum <= 0 {
		return models.ProbabilityTriple{Up: priorUp, Down: priorDown, Range: priorRange}
	}
	p.Up /= sum
	p.Down /= sum
	p.Range /= sum

	if p.Up > directionalCap {
		excess := p.Up - directionalCap
		p.Up = directionalCap
		p.Range += excess
	}
	if p.Down > directionalCap {
		excess := p.Down - directionalCap
		p.Down = directionalCap
		p.Range += excess
	}
	return p
}
