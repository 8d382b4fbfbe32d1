package marketstate

import (
	"math"
	"sort"
	"time"

	"edgecast/internal/liquidity"
	"edgecast/internal/signals"
	"edgecast/models"
)

const minCandles = 20

// ExternalContext carries everything the builder cannot derive from the
// candle sequence itself: multi-timeframe bias, depth, sentiment, macro
// correlation, news. The evaluation clock is explicit so the core never
// touches wall time.
type ExternalContext struct {
	Now          time.Time
	HTF          models.TimeframeBias
	LTF          models.TimeframeBias
	Depth        *models.DepthSnapshot
	Sentiment    *models.Sentiment
	Correlation  *models.Correlation
	Momentum     *models.MomentumCluster
	CyclePhase   models.CyclePhase
	Shock        *models.NewsShock
	UpcomingNews *models.NewsEvent
}

// Build assembles one immutable MarketState snapshot from a candle
// sequence plus external context. Fewer than 20 candles yields a neutral
// snapshot rather than an error so downstream scoring degrades instead
// of failing.
func Build(symbol, timeframe string, candles []models.Candle, ext ExternalContext) *models.MarketState {
	state := &models.MarketState{
		Symbol:       symbol,
		Timeframe:    timeframe,
		Timestamp:    ext.Now,
		Volatility:   models.VolatilityNormal,
		Velocity:     1.0,
		CyclePhase:   ext.CyclePhase,
		HTF:          ext.HTF,
		LTF:          ext.LTF,
		Depth:        ext.Depth,
		Sentiment:    ext.Sentiment,
		Correlation:  ext.Correlation,
		Momentum:     ext.Momentum,
		Shock:        ext.Shock,
		UpcomingNews: ext.UpcomingNews,
		Session:      sessionFor(ext.Now),
	}
	if state.CyclePhase == "" {
		state.CyclePhase = models.PhaseUnknown
	}
	if len(candles) == 0 {
		state.Trend = models.Trend{Direction: models.Neutral}
		state.Regime = models.Regime{Type: models.RegimeRanging}
		return state
	}

	state.Price = candles[len(candles)-1].Close
	if len(candles) < minCandles {
		state.Trend = models.Trend{Direction: models.Neutral}
		state.Regime = models.Regime{Type: models.RegimeRanging}
		return state
	}

	state.Trend = detectTrend(candles)
	state.Regime = classifyRegime(candles, state.Trend)
	state.Volatility, state.Velocity = volatilityRegime(candles)
	state.OrderFlow = signals.OrderFlow(candles)
	state.Profile = buildProfile(candles)

	state.Walls = signals.DetectLevels(candles)
	if depthWalls := liquidity.DetectWalls(ext.Depth); len(depthWalls) > 0 {
		state.Walls = append(state.Walls, depthWalls...)
	}

	state.Swings = liquidity.FindSwings(candles)
	state.Structure = detectStructure(candles, state.Swings)
	state.Divergence = detectDivergence(candles)
	state.Sweep, state.Trap = detectSweep(candles, state.Swings)
	state.Obligations = liquidity.BuildMagnets(candles, state.Walls, state.Price)
	state.POIs = collectPOIs(candles, state.Swings, state.Price)
	state.Gap = hasGap(candles)
	state.Fib = fibConfluence(candles, state.Swings, state.Price)
	return state
}

// detectTrend weights recent momentum the way the regime classifier
// does: 5-candle move at 0.5, 10 at 0.3, 20 at 0.2.
func detectTrend(candles []models.Candle) models.Trend {
	n := len(candles)
	current := candles[n-1].Close
	m5 := change(current, candles[n-6].Close)
	m10 := change(current, candles[n-11].Close)
	m20 := change(current, candles[n-20].Close)

	score := m5*0.5 + m10*0.3 + m20*0.2
	strength := math.Min(math.Abs(score)*1000, 100)

	dir := models.Neutral
	if score > 0.0005 {
		dir = models.Bullish
	} else if score < -0.0005 {
		dir = models.Bearish
	}
	return models.Trend{Direction: dir, Strength: strength}
}

func change(now, then float64) float64 {
	if then == 0 {
		return 0
	}
	return (now - then) / then
}

func classifyRegime(candles []models.Candle, trend models.Trend) models.Regime {
	vol, _ := volatilityRegime(candles)
	switch {
	case trend.Strength > 60:
		return models.Regime{Type: models.RegimeTrending, Strength: trend.Strength / 100}
	case vol == models.VolatilityHigh && trend.Strength < 30:
		return models.Regime{Type: models.RegimeChoppy, Strength: 0.7}
	case vol == models.VolatilityHigh:
		return models.Regime{Type: models.RegimeVolatile, Strength: 0.6}
	default:
		return models.Regime{Type: models.RegimeRanging, Strength: 1 - trend.Strength/100}
	}
}

// volatilityRegime compares fast ATR against slow ATR. The ratio doubles
// as the price-velocity input for confidence scaling.
func volatilityRegime(candles []models.Candle) (models.VolatilityRegime, float64) {
	atrFast := signals.ATR(candles, 5)
	atrSlow := signals.ATR(candles, 20)
	if atrSlow == 0 {
		return models.VolatilityNormal, 1.0
	}
	ratio := atrFast / atrSlow
	switch {
	case ratio > 1.5:
		return models.VolatilityHigh, ratio
	case ratio < 0.7:
		return models.VolatilityLow, ratio
	default:
		return models.VolatilityNormal, ratio
	}
}

// buildProfile computes a price-bucketed volume histogram: POC at the
// heaviest bucket, value area grown outward until it holds 70% of volume.
func buildProfile(candles []models.Candle) *models.VolumeProfile {
	price := candles[len(candles)-1].Close
	step := signals.QuantizeStep(price)
	if step == 0 {
		return nil
	}

	hist := make(map[int64]float64)
	var total float64
	for _, c := range candles {
		key := int64(math.Round(((c.High + c.Low) / 2) / step))
		hist[key] += c.Volume
		total += c.Volume
	}
	if total == 0 {
		return nil
	}

	keys := make([]int64, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	pocIdx := 0
	for i, k := range keys {
		if hist[k] > hist[keys[pocIdx]] {
			pocIdx = i
		}
	}

	// Expand around the POC toward 70% of total volume.
	lo, hi := pocIdx, pocIdx
	acc := hist[keys[pocIdx]]
	for acc < 0.7*total && (lo > 0 || hi < len(keys)-1) {
		var below, above float64
		if lo > 0 {
			below = hist[keys[lo-1]]
		}
		if hi < len(keys)-1 {
			above = hist[keys[hi+1]]
		}
		if above >= below && hi < len(keys)-1 {
			hi++
			acc += above
		} else if lo > 0 {
			lo--
			acc += below
		}
	}

	return &models.VolumeProfile{
		POC:           float64(keys[pocIdx]) * step,
		ValueAreaHigh: float64(keys[hi]) * step,
		ValueAreaLow:  float64(keys[lo]) * step,
	}
}

// detectStructure finds the most recent break of structure or change of
// character: a close through the latest swing against or with the prior
// leg direction.
func detectStructure(candles []models.Candle, swings []models.SwingPoint) *models.StructureEvent {
	if len(swings) < 2 {
		return nil
	}

	// Leg direction before the break: higher highs/lows = bullish leg.
	last := swings[len(swings)-1]
	prev := swings[len(swings)-2]
	legUp := last.Price > prev.Price

	for i := len(candles) - 1; i > last.Index; i-- {
		c := candles[i]
		age := len(candles) - 1 - i
		if last.High && c.Close > last.Price {
			kind := models.ChangeOfCharacter
			if legUp {
				kind = models.BreakOfStructure
			}
			return &models.StructureEvent{Kind: kind, Direction: models.Bullish, Price: last.Price, Age: age}
		}
		if !last.High && c.Close < last.Price {
			kind := models.ChangeOfCharacter
			if !legUp {
				kind = models.BreakOfStructure
			}
			return &models.StructureEvent{Kind: kind, Direction: models.Bearish, Price: last.Price, Age: age}
		}
	}
	return nil
}

// detectDivergence compares the last two price swings against RSI at
// the same indexes. Regular divergence only; hidden variants add little
// at this granularity.
func detectDivergence(candles []models.Candle) *models.Divergence {
	if len(candles) < 30 {
		return nil
	}
	swings := liquidity.FindSwings(candles)
	if len(swings) < 2 {
		return nil
	}

	// Last two swings of the same kind.
	var a, b *models.SwingPoint
	for i := len(swings) - 1; i >= 0 && b == nil; i-- {
		if a == nil {
			a = &swings[i]
			continue
		}
		if swings[i].High == a.High {
			b = &swings[i]
		}
	}
	if b == nil {
		return nil
	}

	rsiA := rsiAt(candles, a.Index)
	rsiB := rsiAt(candles, b.Index)

	if a.High && a.Price > b.Price && rsiA < rsiB {
		return &models.Divergence{Kind: "REGULAR", Direction: models.Bearish,
			Strength: math.Min((rsiB-rsiA)/20, 1)}
	}
	if !a.High && a.Price < b.Price && rsiA > rsiB {
		return &models.Divergence{Kind: "REGULAR", Direction: models.Bullish,
			Strength: math.Min((rsiA-rsiB)/20, 1)}
	}
	return nil
}

// rsiAt computes 14-period RSI of the sequence truncated at index i.
func rsiAt(candles []models.Candle, i int) float64 {
	return rsi(candles[:i+1], 14)
}

func rsi(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50.0
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain = (avgGain*float64(period-1) + change) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - change) / float64(period)
		}
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// detectSweep looks for a recent stop-hunt: a candle wicking through a
// swing level then closing back inside. The violated band doubles as a
// trap zone while price is still inside it.
func detectSweep(candles []models.Candle, swings []models.SwingPoint) (*models.LiquiditySweep, *models.TrapZone) {
	n := len(candles)
	for i := n - 1; i >= n-5 && i > 0; i-- {
		c := candles[i]
		for j := len(swings) - 1; j >= 0; j-- {
			s := swings[j]
			if s.Index >= i {
				continue
			}
			if s.High && c.High > s.Price && c.Close < s.Price {
				sweep := &models.LiquiditySweep{Direction: models.Bearish, Price: s.Price, Age: n - 1 - i}
				trap := &models.TrapZone{Low: s.Price, High: c.High, Reason: "failed break above swept swing high"}
				return sweep, trap
			}
			if !s.High && c.Low < s.Price && c.Close > s.Price {
				sweep := &models.LiquiditySweep{Direction: models.Bullish, Price: s.Price, Age: n - 1 - i}
				trap := &models.TrapZone{Low: c.Low, High: s.Price, Reason: "failed break below swept swing low"}
				return sweep, trap
			}
		}
	}
	return nil, nil
}

// collectPOIs gathers the points of interest used for target clustering:
// unswept swings as liquidity pools, origin candles of impulses as order
// blocks, and unfilled gaps between non-adjacent candles.
func collectPOIs(candles []models.Candle, swings []models.SwingPoint, price float64) []models.POI {
	var pois []models.POI
	for _, s := range swings {
		pois = append(pois, models.POI{Kind: models.POILiquidityPool, Price: s.Price})
	}

	n := len(candles)
	for i := 1; i < n-1; i++ {
		// Order block: opposing candle immediately before a body at least
		// twice its size in the other direction.
		cur, next := candles[i], candles[i+1]
		if cur.Body() > 0 && next.Body() > 2*cur.Body() && cur.IsBullish() != next.IsBullish() {
			pois = append(pois, models.POI{Kind: models.POIOrderBlock, Price: (cur.Open + cur.Close) / 2})
		}
	}
	for i := 0; i < n-2; i++ {
		// Imbalance gap (FVG): candle i high below candle i+2 low, or the
		// mirror image.
		if candles[i].High < candles[i+2].Low {
			pois = append(pois, models.POI{Kind: models.POIImbalanceGap, Price: (candles[i].High + candles[i+2].Low) / 2})
		} else if candles[i].Low > candles[i+2].High {
			pois = append(pois, models.POI{Kind: models.POIImbalanceGap, Price: (candles[i].Low + candles[i+2].High) / 2})
		}
	}
	return pois
}

func hasGap(candles []models.Candle) bool {
	n := len(candles)
	if n < 2 {
		return false
	}
	prev, cur := candles[n-2], candles[n-1]
	if prev.Close == 0 {
		return false
	}
	return math.Abs(cur.Open-prev.Close)/prev.Close > 0.001
}

// fibConfluence reports whether price sits within 0.5% of a classic
// retracement (38.2/50/61.8) of the latest swing leg.
func fibConfluence(candles []models.Candle, swings []models.SwingPoint, price float64) bool {
	if len(swings) < 2 || price == 0 {
		return false
	}
	a := swings[len(swings)-2].Price
	b := swings[len(swings)-1].Price
	span := b - a
	if span == 0 {
		return false
	}
	for _, ratio := range []float64{0.382, 0.5, 0.618} {
		level := b - span*ratio
		if math.Abs(price-level)/price < 0.005 {
			return true
		}
	}
	return false
}

// sessionFor maps a UTC clock to the session/killzone context. Killzones
// are the institutional entry windows at the London and New York opens.
func sessionFor(now time.Time) models.SessionContext {
	hour := now.UTC().Hour()
	ctx := models.SessionContext{Hour: hour}
	switch {
	case hour >= 13 && hour < 16:
		ctx.Session = models.SessionOverlap
	case hour >= 7 && hour < 13:
		ctx.Session = models.SessionLondon
	case hour >= 16 && hour < 21:
		ctx.Session = models.SessionNewYork
	case hour >= 0 && hour < 7:
		ctx.Session = models.SessionAsian
	default:
		ctx.Session = models.SessionOffHours
	}
	ctx.Killzone = (hour >= 7 && hour < 10) || (hour >= 13 && hour < 16)
	return ctx
}
