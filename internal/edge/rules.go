package edge

import (
	"fmt"
	"math"

	"edgecast/models"
)

// Input is everything one scoring pass sees. All fields are read-only.
type Input struct {
	Symbol   string
	Setup    models.Setup
	State    *models.MarketState
	Strategy models.StrategyStats
	Engine   *models.EngineStats
}

// Contribution is one signed factor: points plus the audit-trail reason.
type Contribution struct {
	Points float64
	Reason string
}

// Rule is an independently testable scoring factor. Absent factors
// return nil so no phantom reasons ever reach the audit trail.
type Rule struct {
	Name string
	Eval func(Input) []Contribution
}

// Rules returns the scoring rule set in evaluation order. Order is fixed
// so repeated scoring of identical inputs reproduces the reason lists
// byte for byte.
func Rules() []Rule {
	return []Rule{
		{Name: "strategy_reliability", Eval: ruleReliability},
		{Name: "risk_reward", Eval: ruleRiskReward},
		{Name: "htf_alignment", Eval: ruleHTFAlignment},
		{Name: "institutional_confluence", Eval: ruleInstitutional},
		{Name: "magnet_conflict", Eval: ruleMagnetConflict},
		{Name: "profile_dom_confluence", Eval: ruleProfileConfluence},
		{Name: "macro_correlation", Eval: ruleCorrelation},
		{Name: "news_shock", Eval: ruleNewsShock},
		{Name: "trap_zone", Eval: ruleTrapZone},
		{Name: "cycle_phase", Eval: ruleCyclePhase},
		{Name: "liquidity_sweep", Eval: ruleSweep},
		{Name: "engine_reliability", Eval: ruleEngineReliability},
		{Name: "momentum_cluster", Eval: ruleMomentum},
		{Name: "sentiment", Eval: ruleSentiment},
		{Name: "directional_confidence", Eval: ruleDirectionalConfidence},
	}
}

// ruleReliability weights the strategy's Bayesian win probability, up to
// 40 points. Unknown strategies score from the 0.5 prior.
func ruleReliability(in Input) []Contribution {
	p := in.Strategy.Probability
	if in.Strategy.SampleSize == 0 && p == 0 {
		p = 0.5
	}
	pts := math.Round(p * 40)
	if pts <= 0 {
		return nil
	}
	return []Contribution{{
		Points: pts,
		Reason: fmt.Sprintf("Strategy %s reliability %.0f%% of trades historically favorable", in.Setup.StrategyID, p*100),
	}}
}

// ruleRiskReward grants up to 20 points for asymmetric payoff.
func ruleRiskReward(in Input) []Contribution {
	rr := in.Setup.RiskRewardRatio
	var pts float64
	switch {
	case rr >= 3:
		pts = 20
	case rr >= 2:
		pts = 15
	case rr >= 1.5:
		pts = 10
	case rr >= 1:
		pts = 5
	default:
		return nil
	}
	return []Contribution{{
		Points: pts,
		Reason: fmt.Sprintf("Risk:reward %.1f:1", rr),
	}}
}

// ruleHTFAlignment rewards agreement with the higher timeframe (+25) and
// penalizes fighting it (-15).
func ruleHTFAlignment(in Input) []Contribution {
	htf := in.State.HTF
	if htf.Bias == models.Neutral {
		return nil
	}
	if htf.Bias == in.Setup.Direction {
		return []Contribution{{Points: 25, Reason: fmt.Sprintf("Higher timeframe bias aligned (%s)", htf.Bias)}}
	}
	return []Contribution{{Points: -15, Reason: fmt.Sprintf("Setup fights higher timeframe bias (%s)", htf.Bias)}}
}

// ruleInstitutional combines the volume/divergence/killzone/obligation
// bonuses, capped at 50 points total.
func ruleInstitutional(in Input) []Contribution {
	var contribs []Contribution
	state := in.State
	dir := in.Setup.Direction

	if state.OrderFlow.Climax && state.OrderFlow.ClimaxDirection == dir {
		contribs = append(contribs, Contribution{Points: 15, Reason: "Climax volume in setup direction"})
	}
	if state.OrderFlow.Absorption && state.OrderFlow.Direction == dir {
		contribs = append(contribs, Contribution{Points: 10, Reason: "Absorption supporting setup direction"})
	}
	if state.Divergence != nil && state.Divergence.Direction == dir {
		contribs = append(contribs, Contribution{
			Points: 15,
			Reason: fmt.Sprintf("%s %s divergence confirms direction", state.Divergence.Kind, state.Divergence.Direction),
		})
	}
	if state.Session.Killzone {
		contribs = append(contribs, Contribution{Points: 10, Reason: "Entry inside institutional killzone"})
	}
	if m := state.PrimaryMagnet(); m != nil && m.Direction == dir {
		contribs = append(contribs, Contribution{
			Points: 10,
			Reason: fmt.Sprintf("Liquidity obligation at %.5g pulls in setup direction", m.Price),
		})
	}

	// Cap the combined institutional block at 50.
	var total float64
	for _, c := range contribs {
		total += c.Points
	}
	if total > 50 {
		scale := 50 / total
		for i := range contribs {
			contribs[i].Points *= scale
		}
	}
	return contribs
}

// ruleMagnetConflict charges -40 when a strong magnet pulls against the
// setup.
func ruleMagnetConflict(in Input) []Contribution {
	m := in.State.PrimaryMagnet()
	if m == nil || m.Urgency <= 50 || m.Direction != in.Setup.Direction.Opposite() {
		return nil
	}
	return []Contribution{{
		Points: -40,
		Reason: fmt.Sprintf("High-urgency magnet at %.5g opposes setup", m.Price),
	}}
}

// ruleProfileConfluence grants up to 15 points when the entry sits in
// accepted value and resting size backs it.
func ruleProfileConfluence(in Input) []Contribution {
	var contribs []Contribution
	state := in.State
	entry := in.Setup.EntryZone.Mid()

	if p := state.Profile; p != nil && entry > 0 {
		nearPOC := math.Abs(entry-p.POC)/entry < 0.005
		inValue := entry >= p.ValueAreaLow && entry <= p.ValueAreaHigh
		if nearPOC || inValue {
			contribs = append(contribs, Contribution{Points: 10, Reason: "Entry inside value area / at point of control"})
		}
	}
	for _, w := range state.Walls {
		if w.Side != in.Setup.Direction || entry == 0 {
			continue
		}
		if math.Abs(w.Price-entry)/entry < 0.01 {
			contribs = append(contribs, Contribution{Points: 5, Reason: fmt.Sprintf("Resting size at %.5g backs the entry", w.Price)})
			break
		}
	}
	return contribs
}

// ruleCorrelation scores macro agreement, scaled up in a high-volatility
// regime where correlated flows dominate.
func ruleCorrelation(in Input) []Contribution {
	c := in.State.Correlation
	if c == nil {
		return nil
	}
	pts := 15.0
	if in.State.Volatility == models.VolatilityHigh {
		pts = 30
	}
	if c.Aligned {
		return []Contribution{{Points: pts, Reason: "Macro correlation aligned"}}
	}
	if c.Conflict {
		return []Contribution{{Points: -pts, Reason: "Macro correlation conflicts"}}
	}
	return nil
}

func ruleNewsShock(in Input) []Contribution {
	if in.State.Shock == nil {
		return nil
	}
	return []Contribution{{
		Points: -35,
		Reason: fmt.Sprintf("Active news shock: %s", in.State.Shock.Title),
	}}
}

func ruleTrapZone(in Input) []Contribution {
	if !in.State.InTrap() {
		return nil
	}
	return []Contribution{{
		Points: -30,
		Reason: fmt.Sprintf("Price inside trap zone: %s", in.State.Trap.Reason),
	}}
}

// ruleCyclePhase rewards trading with the cycle (markup/markdown 40,
// accumulation/distribution 20) and charges the mirror against it.
func ruleCyclePhase(in Input) []Contribution {
	var favored models.Bias
	var pts float64
	switch in.State.CyclePhase {
	case models.PhaseMarkup:
		favored, pts = models.Bullish, 40
	case models.PhaseAccumulation:
		favored, pts = models.Bullish, 20
	case models.PhaseMarkdown:
		favored, pts = models.Bearish, 40
	case models.PhaseDistribution:
		favored, pts = models.Bearish, 20
	default:
		return nil
	}
	if in.Setup.Direction == favored {
		return []Contribution{{Points: pts, Reason: fmt.Sprintf("Market cycle phase %s favors setup", in.State.CyclePhase)}}
	}
	return []Contribution{{Points: -pts, Reason: fmt.Sprintf("Market cycle phase %s opposes setup", in.State.CyclePhase)}}
}

// ruleSweep grants +30 when a fresh liquidity sweep points the same way.
func ruleSweep(in Input) []Contribution {
	s := in.State.Sweep
	if s == nil || s.Direction != in.Setup.Direction || s.Age > 5 {
		return nil
	}
	return []Contribution{{
		Points: 30,
		Reason: fmt.Sprintf("Fresh liquidity sweep at %.5g aligned with setup", s.Price),
	}}
}

// ruleEngineReliability is the alpha tracker's adjustment for the whole
// engine's recent performance.
func ruleEngineReliability(in Input) []Contribution {
	e := in.Engine
	if e == nil || e.SampleSize < 10 {
		return nil
	}
	switch {
	case e.WinRate > 0.60:
		return []Contribution{{Points: 20, Reason: fmt.Sprintf("Engine running hot: %.0f%% recent win rate", e.WinRate*100)}}
	case e.WinRate > 0.55:
		return []Contribution{{Points: 8, Reason: fmt.Sprintf("Engine above baseline: %.0f%% recent win rate", e.WinRate*100)}}
	case e.WinRate < 0.40:
		return []Contribution{{Points: -20, Reason: fmt.Sprintf("Engine running cold: %.0f%% recent win rate", e.WinRate*100)}}
	case e.WinRate < 0.45:
		return []Contribution{{Points: -8, Reason: fmt.Sprintf("Engine below baseline: %.0f%% recent win rate", e.WinRate*100)}}
	}
	return nil
}

// ruleMomentum scores oscillator-cluster agreement, 5 base points plus
// up to 20 for strength, mirrored when opposed.
func ruleMomentum(in Input) []Contribution {
	m := in.State.Momentum
	if m == nil || m.Direction == models.Neutral {
		return nil
	}
	pts := math.Min(5+m.Strength*20, 25)
	if m.Direction == in.Setup.Direction {
		return []Contribution{{Points: pts, Reason: "Momentum cluster aligned with setup"}}
	}
	return []Contribution{{Points: -pts, Reason: "Momentum cluster opposes setup"}}
}

func ruleSentiment(in Input) []Contribution {
	s := in.State.Sentiment
	if s == nil || s.Bias == models.Neutral {
		return nil
	}
	pts := 5.0
	if s.Strength > 0.7 {
		pts = 10
	}
	if s.Bias == in.Setup.Direction {
		return []Contribution{{Points: pts, Reason: "Sentiment aligned with setup"}}
	}
	return []Contribution{{Points: -pts, Reason: "Sentiment opposes setup"}}
}

// ruleDirectionalConfidence converts the detector's own conviction into
// a bonus (+15/+20) or penalty (-15/-20).
func ruleDirectionalConfidence(in Input) []Contribution {
	dc := in.Setup.DirectionalConfidence
	switch {
	case dc >= 0.8:
		return []Contribution{{Points: 20, Reason: fmt.Sprintf("Detector conviction %.0f%%", dc*100)}}
	case dc >= 0.65:
		return []Contribution{{Points: 15, Reason: fmt.Sprintf("Detector conviction %.0f%%", dc*100)}}
	case dc > 0 && dc <= 0.2:
		return []Contribution{{Points: -20, Reason: fmt.Sprintf("Detector conviction only %.0f%%", dc*100)}}
	case dc > 0 && dc <= 0.35:
		return []Contribution{{Points: -15, Reason: fmt.Sprintf("Detector conviction only %.0f%%", dc*100)}}
	}
	return nil
}
