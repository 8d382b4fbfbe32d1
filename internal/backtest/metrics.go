package backtest

import (
	"math"

	"edgecast/models"
)

// Factor labels recorded at entry and attributed in the stats pass.
const (
	FactorGap         = "gap"
	FactorIntermarket = "intermarket_divergence"
	FactorSweep       = "liquidity_sweep"
	FactorLowNewsRisk = "low_news_risk"
	FactorFib         = "fib_confluence"
)

// computeStats derives the summary metrics from a closed trade list and
// its equity curve.
func computeStats(trades []models.Trade, equityCurve []float64) models.BacktestStats {
	stats := models.BacktestStats{
		TotalTrades:       len(trades),
		FactorAttribution: make(map[string]models.FactorStats),
	}
	if len(trades) == 0 {
		return stats
	}

	var grossProfit, grossLoss float64
	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		returns = append(returns, t.PnLPercent)
		if t.Outcome == models.OutcomeTP {
			stats.Wins++
			grossProfit += t.PnLPercent
		} else {
			stats.Losses++
			grossLoss += math.Abs(t.PnLPercent)
		}
		for _, f := range t.Factors {
			fs := stats.FactorAttribution[f]
			fs.Trades++
			if t.Outcome == models.OutcomeTP {
				fs.Wins++
			}
			stats.FactorAttribution[f] = fs
		}
	}
	for f, fs := range stats.FactorAttribution {
		fs.WinRate = float64(fs.Wins) / float64(fs.Trades) * 100
		stats.FactorAttribution[f] = fs
	}

	stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades) * 100
	stats.ProfitFactor = profitFactor(grossProfit, grossLoss)
	stats.Sharpe = sharpe(returns)
	stats.MaxDrawdown = maxDrawdown(equityCurve)
	if len(equityCurve) > 1 {
		stats.TotalReturn = (equityCurve[len(equityCurve)-1] - equityCurve[0]) / equityCurve[0] * 100
	}
	return stats
}

// profitFactor is gross profit over gross loss. A loss-free run caps at
// 100 rather than dividing by zero; an all-loss run is 0.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 100
		}
		return 0
	}
	return grossProfit / grossLoss
}

// sharpe is mean over sample standard deviation of per-trade returns,
// zero risk-free rate. Fewer than two trades gives 0.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	stdev := math.Sqrt(sq / float64(len(returns)-1))
	if stdev == 0 {
		return 0
	}
	return mean / stdev
}

// maxDrawdown is the largest peak-to-trough equity decline, in percent
// of the peak.
func maxDrawdown(equityCurve []float64) float64 {
	var peak, worst float64
	for _, eq := range equityCurve {
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			dd := (peak - eq) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
