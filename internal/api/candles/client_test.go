package candles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seriesFixture = `{
	"meta": {"symbol": "BTC/USD", "interval": "1h"},
	"values": [
		{"datetime": "2024-03-01 11:00:00", "open": "50100", "high": "50300", "low": "50000", "close": "50250", "volume": "1200"},
		{"datetime": "2024-03-01 10:00:00", "open": "50000", "high": "50150", "low": "49900", "close": "50100", "volume": "900"}
	],
	"status": "ok"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
		RequestsPerSec: 100,
	})
}

func TestFetchHistorySortsOldestFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC/USD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		w.Write([]byte(seriesFixture))
	})

	candles, err := client.FetchHistory(context.Background(), "BTC/USD", "1h", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))
	assert.Equal(t, 50000.0, candles[0].Open)
	assert.Equal(t, 50250.0, candles[1].Close)
	assert.Equal(t, 900.0, candles[0].Volume)
}

func TestFetchHistoryAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "message": "symbol not found"}`))
	})

	_, err := client.FetchHistory(context.Background(), "NOPE/USD", "1h", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestFetchHistoryEmptySeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "values": []}`))
	})

	_, err := client.FetchHistory(context.Background(), "BTC/USD", "1h", 10)
	require.Error(t, err)
}

func TestParseWireTimeDailyLayout(t *testing.T) {
	ts, err := parseWireTime("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ts)
}

func TestMissingVolumeTreatedAsZero(t *testing.T) {
	v := wireValue{Datetime: "2024-03-01 10:00:00", Open: "1.1", High: "1.2", Low: "1.0", Close: "1.15"}
	c, err := v.toCandle()
	require.NoError(t, err)
	assert.Zero(t, c.Volume)
}
