package analyze

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"edgecast/models"
)

// FormatReport renders a human-readable tick summary to w.
func FormatReport(w io.Writer, r *Report) {
	state := r.State
	fmt.Fprintf(w, "===== %s %s =====\n", state.Symbol, state.Timeframe)
	fmt.Fprintf(w, "Trend: %s (strength %.0f)  Volatility: %s  Session: %s\n",
		state.Trend.Direction, state.Trend.Strength, state.Volatility, state.Session.Session)

	if r.Edge != nil {
		fmt.Fprintf(w, "\nEdge: %.1f/10 [%s] (%.0f pts)\n", r.Edge.Score, r.Edge.Label, r.Edge.Points)
		for _, p := range r.Edge.Positives {
			fmt.Fprintf(w, "  + %s\n", p)
		}
		for _, risk := range r.Edge.Risks {
			fmt.Fprintf(w, "  - %s\n", risk)
		}
	} else {
		fmt.Fprintf(w, "\nEdge: no setup detected\n")
	}

	probs := r.Scenarios.Probabilities
	fmt.Fprintf(w, "\nScenarios: up %.0f%%  down %.0f%%  range %.0f%%\n",
		probs.Up*100, probs.Down*100, probs.Range*100)
	if r.Scenarios.Primary.Narrative != "" {
		fmt.Fprintf(w, "Primary: %s\n", r.Scenarios.Primary.Narrative)
		if len(r.Scenarios.Primary.Pathway) > 0 {
			points := make([]string, 0, len(r.Scenarios.Primary.Pathway))
			for _, p := range r.Scenarios.Primary.Pathway {
				points = append(points, fmt.Sprintf("%s %.2f", p.Label, p.Price))
			}
			fmt.Fprintf(w, "Pathway: %s\n", strings.Join(points, " -> "))
		}
	}

	pred := r.Prediction
	fmt.Fprintf(w, "\nPrediction %s\n", pred.ID)
	if pred.Waiting != "" {
		fmt.Fprintf(w, "WAITING: %s\n", pred.Waiting)
		return
	}
	if r.Suppressed {
		fmt.Fprintf(w, "SUPPRESSED: %s\n", r.SuppressReason)
		return
	}
	fmt.Fprintf(w, "Bias: %s  Confidence: %.0f/100\n", pred.Bias, pred.Confidence)
	fmt.Fprintf(w, "Target: %.2f  Invalidation: %.2f  Expires: %s\n",
		pred.Target, pred.Invalidation, pred.ExpiresAt.Format("2006-01-02 15:04 MST"))
	for _, cond := range pred.ValidityConditions {
		fmt.Fprintf(w, "  valid while: %s\n", cond)
	}
}

// FormatBacktest renders backtest stats the way the analyst reads them.
func FormatBacktest(w io.Writer, result *models.BacktestResult) {
	stats := result.Stats
	fmt.Fprintf(w, "===== BACKTEST %s %s =====\n", result.Symbol, result.Timeframe)
	fmt.Fprintf(w, "Trades: %d (%d wins / %d losses)\n", stats.TotalTrades, stats.Wins, stats.Losses)
	fmt.Fprintf(w, "Win rate: %.2f%%\n", stats.WinRate)
	fmt.Fprintf(w, "Profit factor: %.2f\n", stats.ProfitFactor)
	fmt.Fprintf(w, "Sharpe: %.2f\n", stats.Sharpe)
	fmt.Fprintf(w, "Max drawdown: %.2f%%\n", stats.MaxDrawdown)
	fmt.Fprintf(w, "Total return: %.2f%%\n", stats.TotalReturn)

	if len(stats.FactorAttribution) > 0 {
		fmt.Fprintln(w, "\nFactor attribution:")
		for _, factor := range sortedFactors(stats.FactorAttribution) {
			fs := stats.FactorAttribution[factor]
			fmt.Fprintf(w, "- %s: %d trades, %.2f%% win rate\n", factor, fs.Trades, fs.WinRate)
		}
	}
}

func sortedFactors(attribution map[string]models.FactorStats) []string {
	factors := make([]string, 0, len(attribution))
	for f := range attribution {
		factors = append(factors, f)
	}
	sort.Strings(factors)
	return factors
}
