package analyze

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgecast/internal/liquidity"
	"edgecast/models"
)

type stubHistory struct {
	byTimeframe map[string][]models.Candle
}

func (s *stubHistory) FetchHistory(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	return s.byTimeframe[timeframe], nil
}

func tickCandles(n int, start, step float64) []models.Candle {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	price := start
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + step + 0.5,
			Low:       price - 0.5,
			Close:     price + step,
			Volume:    1000,
		}
		price += step
	}
	return candles
}

func TestRunProducesPrediction(t *testing.T) {
	history := &stubHistory{byTimeframe: map[string][]models.Candle{
		"1h": tickCandles(120, 50000, 20),
		"4h": tickCandles(60, 49000, 80),
	}}

	analyzer := New(history, Options{})
	report, err := analyzer.Run(context.Background(), "BTC/USD", "1h", 120)
	require.NoError(t, err)

	assert.Equal(t, "BTC/USD", report.State.Symbol)
	assert.Equal(t, models.Bullish, report.State.HTF.Bias)
	assert.NotEmpty(t, report.Prediction.ID)
	assert.InDelta(t, 1.0, report.Scenarios.Probabilities.Sum(), 1e-9)
}

func TestRunDeterministic(t *testing.T) {
	history := &stubHistory{byTimeframe: map[string][]models.Candle{
		"1h": tickCandles(120, 50000, 20),
		"4h": tickCandles(60, 49000, 80),
	}}
	analyzer := New(history, Options{})

	a, err := analyzer.Run(context.Background(), "BTC/USD", "1h", 120)
	require.NoError(t, err)
	b, err := analyzer.Run(context.Background(), "BTC/USD", "1h", 120)
	require.NoError(t, err)

	assert.Equal(t, a.Prediction, b.Prediction)
	assert.Equal(t, a.Scenarios.Probabilities, b.Scenarios.Probabilities)
}

type stubDepth struct {
	snapshots []*models.DepthSnapshot
	calls     int
}

func (s *stubDepth) FetchDepth(ctx context.Context, symbol string) (*models.DepthSnapshot, error) {
	snap := s.snapshots[s.calls]
	if s.calls < len(s.snapshots)-1 {
		s.calls++
	}
	return snap, nil
}

func TestDepthPulseFeedsSentiment(t *testing.T) {
	history := &stubHistory{byTimeframe: map[string][]models.Candle{
		"1h": tickCandles(120, 50000, 20),
		"4h": tickCandles(60, 49000, 80),
	}}
	calm := &models.DepthSnapshot{
		Bids: []models.PriceLevel{{Price: 49990, Quantity: 10}},
		Asks: []models.PriceLevel{{Price: 50010, Quantity: 10}},
	}
	stacked := &models.DepthSnapshot{
		Bids: []models.PriceLevel{{Price: 49990, Quantity: 40}},
		Asks: []models.PriceLevel{{Price: 50010, Quantity: 10}},
	}
	depth := &stubDepth{snapshots: []*models.DepthSnapshot{calm, stacked}}
	analyzer := New(history, Options{Depth: depth})

	// First tick only primes the pulse detector.
	report, err := analyzer.Run(context.Background(), "BTC/USD", "1h", 120)
	require.NoError(t, err)
	assert.Nil(t, report.State.Sentiment)

	// Bids stacking 3x between ticks reads as bullish flow.
	report, err = analyzer.Run(context.Background(), "BTC/USD", "1h", 120)
	require.NoError(t, err)
	require.NotNil(t, report.State.Sentiment)
	assert.Equal(t, models.Bullish, report.State.Sentiment.Bias)
	assert.Greater(t, report.State.Sentiment.Strength, 0.0)
}

func TestPulseSentimentNeutral(t *testing.T) {
	assert.Nil(t, pulseSentiment(liquidity.Pulse{Signal: models.Neutral}))

	s := pulseSentiment(liquidity.Pulse{Signal: models.Bearish, BidVelocity: -30, AskVelocity: 0})
	require.NotNil(t, s)
	assert.Equal(t, models.Bearish, s.Bias)
	assert.InDelta(t, 1.0, s.Strength, 1e-9)
}

func TestHigherOf(t *testing.T) {
	htf, ok := higherOf("1h")
	require.True(t, ok)
	assert.Equal(t, "4h", htf)

	_, ok = higherOf("1week")
	assert.False(t, ok)
}

func TestCloseBias(t *testing.T) {
	assert.Equal(t, models.Bullish, closeBias(tickCandles(40, 100, 1)).Bias)
	assert.Equal(t, models.Bearish, closeBias(tickCandles(40, 200, -1)).Bias)
	assert.Equal(t, models.Neutral, closeBias(tickCandles(40, 100, 0)).Bias)
}

func TestFormatReportSmoke(t *testing.T) {
	history := &stubHistory{byTimeframe: map[string][]models.Candle{
		"1h": tickCandles(120, 50000, 20),
	}}
	report, err := New(history, Options{}).Run(context.Background(), "BTC/USD", "1h", 120)
	require.NoError(t, err)

	var buf bytes.Buffer
	FormatReport(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "BTC/USD")
	assert.Contains(t, out, "Scenarios:")
	assert.Contains(t, out, "Prediction")
}
