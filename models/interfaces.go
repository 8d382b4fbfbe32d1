package models

import "context"

// HistoryProvider fetches historical candles for a symbol/timeframe.
// Implementations live at the I/O boundary; the core only consumes the
// returned slice.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)
}

// DepthProvider returns one consistent order-book snapshot.
type DepthProvider interface {
	FetchDepth(ctx context.Context, symbol string) (*DepthSnapshot, error)
}

// NewsProvider lists scheduled and recently released economic events.
type NewsProvider interface {
	FetchEvents(ctx context.Context, currency string) ([]NewsEvent, error)
}
