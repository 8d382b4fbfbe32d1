// Package depth maintains a live order-book snapshot from the Binance
// partial depth stream.
package depth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"edgecast/internal/metrics"
	"edgecast/models"
)

const (
	// Partial book depth stream: top 20 levels, 100ms updates. Each
	// message is a full snapshot, so no diff management is needed.
	defaultWSBase = "wss://fstream.binance.com/ws"
	depthSuffix   = "@depth20@100ms"

	reconnectDelay    = 1 * time.Second
	maxReconnectDelay = 30 * time.Second
)

// depthEvent matches the Binance partial depth stream JSON; prices and
// quantities arrive as string pairs.
type depthEvent struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// Stream holds the most recent snapshot for one symbol. It satisfies
// models.DepthProvider once the first message has landed.
type Stream struct {
	symbol string
	wsURL  string
	logger zerolog.Logger

	mu       sync.RWMutex
	snapshot *models.DepthSnapshot
}

var _ models.DepthProvider = (*Stream)(nil)

// NewStream prepares a depth stream for a symbol such as "BTC/USD".
// The stream does not connect until Start is called.
func NewStream(symbol string) *Stream {
	return &Stream{
		symbol: symbol,
		wsURL:  fmt.Sprintf("%s/%s%s", defaultWSBase, streamName(symbol), depthSuffix),
		logger: log.With().Str("component", "depth_stream").Str("symbol", symbol).Logger(),
	}
}

// streamName converts "BTC/USD" to the Binance stream symbol "btcusdt".
func streamName(symbol string) string {
	s := strings.ToLower(strings.ReplaceAll(symbol, "/", ""))
	if strings.HasSuffix(s, "usd") {
		s += "t"
	}
	return s
}

// Start runs the consume loop until the context is cancelled,
// reconnecting with doubling delay on failure.
func (s *Stream) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Stream) loop(ctx context.Context) {
	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connectAndConsume(ctx); err != nil {
			s.logger.Warn().Err(err).Dur("retry_in", delay).Msg("depth stream dropped")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
		} else {
			delay = reconnectDelay
		}
	}
}

func (s *Stream) connectAndConsume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.logger.Info().Str("url", s.wsURL).Msg("connected to depth stream")

	var event depthEvent
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		s.store(parseLevels(event.Bids), parseLevels(event.Asks))
		metrics.DepthUpdates.Inc()
	}
}

func parseLevels(pairs [][]string) []models.PriceLevel {
	levels := make([]models.PriceLevel, 0, len(pairs))
	for _, lvl := range pairs {
		if len(lvl) < 2 {
			continue
		}
		price, _ := strconv.ParseFloat(lvl[0], 64)
		qty, _ := strconv.ParseFloat(lvl[1], 64)
		if qty > 0 {
			levels = append(levels, models.PriceLevel{Price: price, Quantity: qty})
		}
	}
	return levels
}

func (s *Stream) store(bids, asks []models.PriceLevel) {
	snap := &models.DepthSnapshot{Bids: bids, Asks: asks, Timestamp: time.Now().UTC()}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

// FetchDepth returns the latest snapshot. It errors until the stream has
// received its first message.
func (s *Stream) FetchDepth(ctx context.Context, symbol string) (*models.DepthSnapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return nil, fmt.Errorf("no depth snapshot for %s yet", symbol)
	}
	return snap, nil
}
