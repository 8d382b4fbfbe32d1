package models

import "time"

// PriceLevel is a single price+quantity entry on one side of the book.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// DepthSnapshot is one consistent view of the order book. The execution
// router walks a single snapshot; it is never re-queried mid-walk.
type DepthSnapshot struct {
	Bids      []PriceLevel `json:"bids"` // descending by price
	Asks      []PriceLevel `json:"asks"` // ascending by price
	Timestamp time.Time    `json:"timestamp"`
}

// BestBid returns the highest bid, or 0 when the side is empty.
func (d *DepthSnapshot) BestBid() float64 {
	if d == nil || len(d.Bids) == 0 {
		return 0
	}
	return d.Bids[0].Price
}

// BestAsk returns the lowest ask, or 0 when the side is empty.
func (d *DepthSnapshot) BestAsk() float64 {
	if d == nil || len(d.Asks) == 0 {
		return 0
	}
	return d.Asks[0].Price
}

// Spread returns the ask-bid gap, or 0 on a one-sided book.
func (d *DepthSnapshot) Spread() float64 {
	bid, ask := d.BestBid(), d.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// Trend summarizes direction and strength of the current trend.
type Trend struct {
	Direction Bias    `json:"direction"`
	Strength  float64 `json:"strength"` // 0-100
}

// TimeframeBias is a directional read on one timeframe with a confidence.
type TimeframeBias struct {
	Bias       Bias    `json:"bias"`
	Confidence float64 `json:"confidence"` // 0-1
}

// VolumeProfile holds the point of control and value-area bounds computed
// from a price-bucketed volume histogram.
type VolumeProfile struct {
	POC           float64 `json:"poc"`
	ValueAreaHigh float64 `json:"value_area_high"`
	ValueAreaLow  float64 `json:"value_area_low"`
}

// StructureKind tags a structural event.
type StructureKind string

const (
	BreakOfStructure  StructureKind = "BOS"
	ChangeOfCharacter StructureKind = "CHOCH"
)

// StructureEvent is a detected break of structure or change of character.
// Age is measured in candles since the event.
type StructureEvent struct {
	Kind      StructureKind `json:"kind"`
	Direction Bias          `json:"direction"`
	Price     float64       `json:"price"`
	Age       int           `json:"age"`
}

// Divergence is a price/oscillator divergence summary.
type Divergence struct {
	Kind      string  `json:"kind"` // REGULAR or HIDDEN
	Direction Bias    `json:"direction"`
	Strength  float64 `json:"strength"` // 0-1
}

// MagnetZone is a price level the market is inferred to be drawn toward.
type MagnetZone struct {
	Price     float64 `json:"price"`
	Urgency   float64 `json:"urgency"` // 0-100
	Direction Bias    `json:"direction"`
	Reason    string  `json:"reason"`
}

// Obligations groups the liquidity magnets currently in play.
type Obligations struct {
	Primary   *MagnetZone  `json:"primary,omitempty"`
	Secondary []MagnetZone `json:"secondary,omitempty"`
}

// TrapZone marks a price band flagged as a likely liquidity trap.
type TrapZone struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Reason string  `json:"reason"`
}

// Contains reports whether price sits inside the trap band.
func (t *TrapZone) Contains(price float64) bool {
	return t != nil && price >= t.Low && price <= t.High
}

// NewsShock is an already-released event still distorting price.
type NewsShock struct {
	Severity NewsImpact `json:"severity"`
	Bias     Bias       `json:"bias"`
	At       time.Time  `json:"at"`
	Title    string     `json:"title"`
}

// NewsEvent is a scheduled economic release.
type NewsEvent struct {
	Time            time.Time  `json:"time"`
	Impact          NewsImpact `json:"impact"`
	Currency        string     `json:"currency"`
	DirectionalBias Bias       `json:"directional_bias"`
	Title           string     `json:"title"`
}

// LiquiditySweep is a detected stop-hunt through a liquidity pool.
type LiquiditySweep struct {
	Direction Bias    `json:"direction"` // direction price is expected to go after the sweep
	Price     float64 `json:"price"`
	Age       int     `json:"age"` // candles since the sweep
}

// Sentiment is an aggregate positioning/sentiment read.
type Sentiment struct {
	Bias     Bias    `json:"bias"`
	Strength float64 `json:"strength"` // 0-1
}

// Correlation summarizes agreement with correlated macro instruments.
type Correlation struct {
	Aligned    bool    `json:"aligned"`
	Conflict   bool    `json:"conflict"`
	Divergence bool    `json:"divergence"` // inter-market divergence present
	Strength   float64 `json:"strength"`   // 0-1
}

// MomentumCluster is the combined read of the oscillator cluster.
type MomentumCluster struct {
	Direction  Bias    `json:"direction"`
	Strength   float64 `json:"strength"` // 0-1
	Divergence Bias    `json:"divergence,omitempty"`
}

// SessionContext carries the session/killzone inputs. The clock is an
// explicit input so the core never reads wall time.
type SessionContext struct {
	Session  Session `json:"session"`
	Killzone bool    `json:"killzone"`
	Hour     int     `json:"hour"` // UTC hour of the evaluation tick
}

// POIKind tags a point of interest used for target clustering.
type POIKind string

const (
	POILiquidityPool POIKind = "LIQUIDITY_POOL"
	POIOrderBlock    POIKind = "ORDER_BLOCK"
	POIImbalanceGap  POIKind = "IMBALANCE_GAP"
)

// POI is a single point of interest above or below price.
type POI struct {
	Kind  POIKind `json:"kind"`
	Price float64 `json:"price"`
}

// SwingPoint is a structural swing high or low.
type SwingPoint struct {
	Price float64 `json:"price"`
	High  bool    `json:"high"`
	Index int     `json:"index"`
}

// OrderFlow is the reconstructed aggressive-volume summary for the most
// recent window of candles.
type OrderFlow struct {
	Direction       Bias    `json:"direction"`
	BuyVolume       float64 `json:"buy_volume"`
	SellVolume      float64 `json:"sell_volume"`
	Delta           float64 `json:"delta"`
	DeltaPercent    float64 `json:"delta_percent"`
	Absorption      bool    `json:"absorption"`
	Climax          bool    `json:"climax"`
	ClimaxDirection Bias    `json:"climax_direction,omitempty"`
}

// Wall is an order-book wall or iceberg candidate.
type Wall struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Side     Bias    `json:"side"` // Bullish = bid-side support, Bearish = ask-side resistance
	Touches  int     `json:"touches,omitempty"`
}

// Regime is the classified market condition.
type Regime struct {
	Type     RegimeType `json:"type"`
	Strength float64    `json:"strength"` // 0-1
}

// MarketState is one immutable snapshot of everything the pipeline knows
// about a symbol at an evaluation tick. Optional subsystems are pointers;
// nil means the subsystem produced nothing, and every consumer checks
// presence explicitly.
type MarketState struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`

	Trend      Trend            `json:"trend"`
	Regime     Regime           `json:"regime"`
	Volatility VolatilityRegime `json:"volatility"`
	Velocity   float64          `json:"velocity"` // short/long ATR ratio, 1.0 = baseline

	HTF TimeframeBias `json:"htf"`
	LTF TimeframeBias `json:"ltf"`

	OrderFlow OrderFlow      `json:"order_flow"`
	Profile   *VolumeProfile `json:"profile,omitempty"`
	Depth     *DepthSnapshot `json:"depth,omitempty"`
	Walls     []Wall         `json:"walls,omitempty"`

	Structure   *StructureEvent  `json:"structure,omitempty"`
	Divergence  *Divergence      `json:"divergence,omitempty"`
	Sweep       *LiquiditySweep  `json:"sweep,omitempty"`
	Obligations *Obligations     `json:"obligations,omitempty"`
	Trap        *TrapZone        `json:"trap,omitempty"`
	POIs        []POI            `json:"pois,omitempty"`
	Swings      []SwingPoint     `json:"swings,omitempty"`
	Gap         bool             `json:"gap"`
	Fib         bool             `json:"fib_confluence"`
	CyclePhase  CyclePhase       `json:"cycle_phase"`
	Sentiment   *Sentiment       `json:"sentiment,omitempty"`
	Correlation *Correlation     `json:"correlation,omitempty"`
	Momentum    *MomentumCluster `json:"momentum,omitempty"`

	Shock        *NewsShock `json:"shock,omitempty"`
	UpcomingNews *NewsEvent `json:"upcoming_news,omitempty"`

	Session SessionContext `json:"session"`
}

// InTrap reports whether current price is inside an active trap zone.
func (m *MarketState) InTrap() bool {
	return m.Trap.Contains(m.Price)
}

// PrimaryMagnet returns the dominant magnet zone, if any.
func (m *MarketState) PrimaryMagnet() *MagnetZone {
	if m.Obligations == nil {
		return nil
	}
	return m.Obligations.Primary
}
