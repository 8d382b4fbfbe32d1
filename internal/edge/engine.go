package edge

import (
	"math"

	"edgecast/models"
)

// Label bands for the 0-10 score.
const (
	LabelPremium       = "PREMIUM EDGE"
	LabelStrong        = "STRONG EDGE"
	LabelTradable      = "TRADABLE"
	LabelLowConviction = "LOW CONVICTION"
	LabelNoEdge        = "NO EDGE"
)

// Engine folds the rule set over one (setup, market state) pair. It is
// stateless; two calls with identical inputs produce identical scores
// and identical reason lists.
type Engine struct {
	rules []Rule
}

// New returns an engine over the canonical rule set.
func New() *Engine {
	return &Engine{rules: Rules()}
}

// Score runs every rule, folds the signed contributions into total
// points and splits the reasons into positives and risks. The final
// score is clamp(points/100*10, 0, 10) rounded to one decimal.
func (e *Engine) Score(setup models.Setup, state *models.MarketState, strategy models.StrategyStats, symbol string) models.EdgeScore {
	return e.ScoreWithEngine(setup, state, strategy, nil, symbol)
}

// ScoreWithEngine additionally feeds the alpha tracker's engine-level
// performance stats into the rule set.
func (e *Engine) ScoreWithEngine(setup models.Setup, state *models.MarketState, strategy models.StrategyStats, engineStats *models.EngineStats, symbol string) models.EdgeScore {
	in := Input{
		Symbol:   symbol,
		Setup:    setup,
		State:    state,
		Strategy: strategy,
		Engine:   engineStats,
	}

	var points float64
	var positives, risks []string
	for _, rule := range e.rules {
		for _, c := range rule.Eval(in) {
			points += c.Points
			if c.Points >= 0 {
				positives = append(positives, c.Reason)
			} else {
				risks = append(risks, c.Reason)
			}
		}
	}

	score := points / 100 * 10
	if score < 0 {
		score = 0
	} else if score > 10 {
		score = 10
	}
	score = math.Round(score*10) / 10

	return models.EdgeScore{
		Score:     score,
		Points:    points,
		Label:     label(score),
		Positives: positives,
		Risks:     risks,
	}
}

func label(score float64) string {
	switch {
	case score >= 8.0:
		return LabelPremium
	case score >= 7.0:
		return LabelStrong
	case score >= 6.0:
		return LabelTradable
	case score >= 4.0:
		return LabelLowConviction
	default:
		return LabelNoEdge
	}
}
