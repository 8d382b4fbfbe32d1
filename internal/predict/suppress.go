package predict

import (
	"fmt"

	"edgecast/models"
)

// Suppression thresholds.
const (
	suppressReversalMin  = 0.75
	suppressMagnetMin    = 85.0
	obligatedProbFloor   = 0.40
	unobligatedProbFloor = 0.70
)

// ShouldShow is the suppression guardrail: it withholds a forecast when
// the tape argues the forecast is a coin flip or a trap. A false return
// always carries the reason; callers treat suppression as a normal
// outcome, not a failure.
func ShouldShow(pred models.Prediction, state *models.MarketState, probs models.ProbabilityTriple) (bool, string) {
	if state.Shock != nil && state.Shock.Severity == models.ImpactHigh {
		return false, fmt.Sprintf("suppressed: active high-severity news shock (%s)", state.Shock.Title)
	}

	htf, ltf := state.HTF, state.LTF
	if htf.Bias != models.Neutral && ltf.Bias != models.Neutral && htf.Bias != ltf.Bias {
		_, reversal := trendSplit(state, probs)
		if reversal < suppressReversalMin {
			return false, "suppressed: timeframe bias conflict without reversal conviction"
		}
	}

	if state.InTrap() {
		return false, fmt.Sprintf("suppressed: price inside trap zone (%s)", state.Trap.Reason)
	}

	if m := state.PrimaryMagnet(); m != nil && m.Urgency > suppressMagnetMin &&
		pred.Bias != models.Neutral && m.Direction == pred.Bias.Opposite() {
		return false, fmt.Sprintf("suppressed: high-urgency magnet at %.5g opposes prediction", m.Price)
	}

	// Regime-dependent conviction floor: an obligated market needs less
	// certainty than an unobligated one.
	floor := unobligatedProbFloor
	if state.PrimaryMagnet() != nil {
		floor = obligatedProbFloor
	}
	if probs.Max() < floor {
		return false, fmt.Sprintf("suppressed: max scenario probability %.0f%% below %.0f%% floor", probs.Max()*100, floor*100)
	}

	return true, ""
}
