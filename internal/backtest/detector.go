package backtest

import (
	"edgecast/models"
)

const detectorLookback = 10

// DetectorFunc produces candidate setups from history. It must only
// look at the candles it is given; the replay loop guarantees those stop
// at the evaluation index.
type DetectorFunc func(candles []models.Candle, state *models.MarketState) []models.Setup

// BreakoutDetector is the default strategy: enter on a close through the
// recent extreme in the direction of the prevailing trend, stop behind
// the opposing extreme, target at twice the risk.
func BreakoutDetector(candles []models.Candle, state *models.MarketState) []models.Setup {
	n := len(candles)
	if n < detectorLookback+1 || state.Trend.Direction == models.Neutral {
		return nil
	}

	entry := candles[n-1].Close
	var hi, lo float64
	for i := n - 1 - detectorLookback; i < n-1; i++ {
		if hi == 0 || candles[i].High > hi {
			hi = candles[i].High
		}
		if lo == 0 || candles[i].Low < lo {
			lo = candles[i].Low
		}
	}

	conviction := state.Trend.Strength / 100
	if conviction > 1 {
		conviction = 1
	}

	if state.Trend.Direction == models.Bullish && entry > hi && entry > lo {
		risk := entry - lo
		if risk <= 0 {
			return nil
		}
		return []models.Setup{{
			StrategyID:            "trend-breakout",
			Direction:             models.Bullish,
			EntryZone:             models.PriceZone{Low: entry, High: entry},
			StopLoss:              lo,
			Targets:               []float64{entry + 2*risk},
			RiskRewardRatio:       2,
			DirectionalConfidence: conviction,
		}}
	}
	if state.Trend.Direction == models.Bearish && entry < lo && entry < hi {
		risk := hi - entry
		if risk <= 0 {
			return nil
		}
		return []models.Setup{{
			StrategyID:            "trend-breakout",
			Direction:             models.Bearish,
			EntryZone:             models.PriceZone{Low: entry, High: entry},
			StopLoss:              hi,
			Targets:               []float64{entry - 2*risk},
			RiskRewardRatio:       2,
			DirectionalConfidence: conviction,
		}}
	}
	return nil
}
