// Package candles fetches OHLCV history from the Twelve Data REST API.
package candles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"edgecast/internal/metrics"
	platformhttp "edgecast/internal/platform/http"
	"edgecast/models"
)

const providerName = "twelvedata"

// Client is the Twelve Data API client. It satisfies
// models.HistoryProvider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

var _ models.HistoryProvider = (*Client)(nil)

// ClientOptions holds options for creating a new client.
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new Twelve Data API client.
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: options.BaseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "candle_client").Logger(),
	}
}

// wire types for the time_series endpoint; every numeric field arrives
// as a string.
type timeSeriesResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Values  []wireValue `json:"values"`
}

type wireValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// FetchHistory fetches up to limit candles for a symbol and timeframe,
// oldest first.
func (c *Client) FetchHistory(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	start := time.Now()
	candles, err := c.fetch(ctx, symbol, timeframe, limit)
	metrics.ProviderLatency.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(providerName, metrics.StatusError).Inc()
		return nil, err
	}
	metrics.ProviderRequests.WithLabelValues(providerName, metrics.StatusOK).Inc()
	return candles, nil
}

// FetchWindow fetches enough candles to cover the given number of days,
// sized via the per-timeframe candle density.
func (c *Client) FetchWindow(ctx context.Context, symbol, timeframe string, days int) ([]models.Candle, error) {
	return c.FetchHistory(ctx, symbol, timeframe, models.CandlesForWindow(timeframe, days))
}

func (c *Client) fetch(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	q.Set("outputsize", strconv.Itoa(limit))
	q.Set("apikey", c.apiKey)
	endpoint := fmt.Sprintf("%s/time_series?%s", c.baseURL, q.Encode())

	c.logger.Debug().Str("symbol", symbol).Str("interval", timeframe).Int("limit", limit).Msg("Fetching candles")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		c.logger.Error().Str("message", data.Message).Msg("Twelve Data API error")
		return nil, fmt.Errorf("twelve data API error: %s", data.Message)
	}
	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return nil, fmt.Errorf("empty data returned")
	}

	// Oldest first for windowed calculations downstream.
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		candle, err := v.toCandle()
		if err != nil {
			return nil, fmt.Errorf("parsing candle %q: %w", v.Datetime, err)
		}
		candles = append(candles, candle)
	}

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

func (v wireValue) toCandle() (models.Candle, error) {
	ts, err := parseWireTime(v.Datetime)
	if err != nil {
		return models.Candle{}, err
	}

	var c models.Candle
	c.Timestamp = ts
	fields := []struct {
		raw string
		dst *float64
	}{
		{v.Open, &c.Open},
		{v.High, &c.High},
		{v.Low, &c.Low},
		{v.Close, &c.Close},
	}
	for _, f := range fields {
		val, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return models.Candle{}, err
		}
		*f.dst = val
	}
	// Forex series carry no volume field.
	if v.Volume != "" {
		vol, err := strconv.ParseFloat(v.Volume, 64)
		if err != nil {
			return models.Candle{}, err
		}
		c.Volume = vol
	}
	return c, nil
}

// parseWireTime accepts the two datetime layouts the endpoint emits:
// intraday timestamps and daily dates.
func parseWireTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
