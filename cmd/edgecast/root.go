package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"edgecast/config"
	"edgecast/internal/api/candles"
)

var cfg *config.Config

// rootCmd is the base command for the edgecast CLI.
var rootCmd = &cobra.Command{
	Use:   "edgecast",
	Short: "Market edge scoring and prediction pipeline",
	Long: `Edgecast turns raw candles and order-book data into a single scored
prediction per evaluation tick: edge score, scenario probabilities, and a
compressed bias/target/invalidation forecast with suppression gating.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		lvl, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

		if cfg.MetricsAddr != "" {
			go serveMetrics(cfg.MetricsAddr)
		}
		return nil
	},
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}

// newHistoryClient builds the candle client from loaded config.
func newHistoryClient() *candles.Client {
	return candles.NewClient(candles.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		RequestTimeout: cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
	})
}
