package models

import "strings"

// Bias is the canonical directional enum. Every external spelling
// (LONG/SHORT, UP/DOWN, BUY/SELL) is normalized through ParseBias at the
// ingestion boundary so the core never compares raw strings.
type Bias string

const (
	Bullish Bias = "BULLISH"
	Bearish Bias = "BEARISH"
	Neutral Bias = "NEUTRAL"
)

// ParseBias normalizes the directional spellings used by upstream feeds.
func ParseBias(s string) Bias {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BULLISH", "LONG", "UP", "BUY":
		return Bullish
	case "BEARISH", "SHORT", "DOWN", "SELL":
		return Bearish
	default:
		return Neutral
	}
}

// Opposite returns the inverse bias. Neutral has no inverse.
func (b Bias) Opposite() Bias {
	switch b {
	case Bullish:
		return Bearish
	case Bearish:
		return Bullish
	default:
		return Neutral
	}
}

// Urgency classifies how aggressively an order must be worked.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyNormal Urgency = "NORMAL"
	UrgencyHigh   Urgency = "HIGH"
)

// OrderStyle is the execution style picked by the router.
type OrderStyle string

const (
	StyleMarket       OrderStyle = "MARKET"
	StyleLimit        OrderStyle = "LIMIT"
	StyleLimitChase   OrderStyle = "LIMIT_CHASE"
	StyleLimitPassive OrderStyle = "LIMIT_PASSIVE"
	StyleIceberg      OrderStyle = "ICEBERG"
	StyleTWAP         OrderStyle = "TWAP"
)

// Outcome is how a simulated trade resolved.
type Outcome string

const (
	OutcomeTP      Outcome = "TP"
	OutcomeSL      Outcome = "SL"
	OutcomeTimeout Outcome = "TIMEOUT"
)

// VolatilityRegime buckets current volatility against its rolling baseline.
type VolatilityRegime string

const (
	VolatilityLow    VolatilityRegime = "LOW"
	VolatilityNormal VolatilityRegime = "NORMAL"
	VolatilityHigh   VolatilityRegime = "HIGH"
)

// RegimeType is the broad market condition classification.
type RegimeType string

const (
	RegimeTrending RegimeType = "TRENDING"
	RegimeRanging  RegimeType = "RANGING"
	RegimeVolatile RegimeType = "VOLATILE"
	RegimeChoppy   RegimeType = "CHOPPY"
)

// CyclePhase is the Wyckoff-style market cycle position.
type CyclePhase string

const (
	PhaseAccumulation CyclePhase = "ACCUMULATION"
	PhaseMarkup       CyclePhase = "MARKUP"
	PhaseDistribution CyclePhase = "DISTRIBUTION"
	PhaseMarkdown     CyclePhase = "MARKDOWN"
	PhaseUnknown      CyclePhase = "UNKNOWN"
)

// Session names the active trading session.
type Session string

const (
	SessionAsian    Session = "ASIAN"
	SessionLondon   Session = "LONDON"
	SessionNewYork  Session = "NEW_YORK"
	SessionOverlap  Session = "LONDON_NY_OVERLAP"
	SessionOffHours Session = "OFF_HOURS"
)

// NewsImpact grades an economic event.
type NewsImpact string

const (
	ImpactLow    NewsImpact = "LOW"
	ImpactMedium NewsImpact = "MEDIUM"
	ImpactHigh   NewsImpact = "HIGH"
)
