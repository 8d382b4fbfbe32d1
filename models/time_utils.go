package models

import "time"

// TimeframeDuration returns the candle duration for a timeframe string.
// Unknown timeframes fall back to one hour.
func TimeframeDuration(timeframe string) time.Duration {
	switch timeframe {
	case "1min":
		return time.Minute
	case "5min":
		return 5 * time.Minute
	case "15min":
		return 15 * time.Minute
	case "30min":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "8h":
		return 8 * time.Hour
	case "1day":
		return 24 * time.Hour
	case "1week":
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// PredictionTTL scales a forecast's validity window to its timeframe:
// 15 minutes on 1-minute charts up to 7 days on dailies.
func PredictionTTL(timeframe string) time.Duration {
	switch timeframe {
	case "1min":
		return 15 * time.Minute
	case "5min":
		return time.Hour
	case "15min":
		return 4 * time.Hour
	case "30min":
		return 8 * time.Hour
	case "1h":
		return 24 * time.Hour
	case "4h":
		return 3 * 24 * time.Hour
	case "1day", "1week":
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// CandlesForWindow converts a day span into a candle count for the given
// timeframe, with a 10% fetch buffer.
func CandlesForWindow(timeframe string, days int) int {
	per := int((24 * time.Hour) / TimeframeDuration(timeframe))
	if per < 1 {
		per = 1
		if timeframe == "1week" {
			days = max(days/7, 1)
		}
	}
	return int(float64(per*days) * 1.1)
}
