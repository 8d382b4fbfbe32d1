package depth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgecast/models"
)

func TestStreamName(t *testing.T) {
	assert.Equal(t, "btcusdt", streamName("BTC/USD"))
	assert.Equal(t, "ethusdt", streamName("ETH/USDT"))
	assert.Equal(t, "eurgbp", streamName("EUR/GBP"))
}

func TestParseLevelsSkipsMalformedAndEmpty(t *testing.T) {
	levels := parseLevels([][]string{
		{"50000.5", "1.5"},
		{"49999"},
		{"49998", "0"},
	})
	require.Len(t, levels, 1)
	assert.Equal(t, 50000.5, levels[0].Price)
	assert.Equal(t, 1.5, levels[0].Quantity)
}

func TestFetchDepthBeforeFirstMessage(t *testing.T) {
	s := NewStream("BTC/USD")
	_, err := s.FetchDepth(context.Background(), "BTC/USD")
	assert.Error(t, err)
}

func TestFetchDepthReturnsLatest(t *testing.T) {
	s := NewStream("BTC/USD")
	s.store(
		[]models.PriceLevel{{Price: 50000, Quantity: 2}},
		[]models.PriceLevel{{Price: 50001, Quantity: 1}},
	)
	snap, err := s.FetchDepth(context.Background(), "BTC/USD")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, snap.BestBid())
	assert.Equal(t, 50001.0, snap.BestAsk())
	assert.False(t, snap.Timestamp.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), snap.Timestamp, time.Minute)
}
