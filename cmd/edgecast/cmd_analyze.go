package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"edgecast/internal/analyze"
	"edgecast/internal/api/depth"
	"edgecast/internal/news"
)

var (
	analyzeSymbol    string
	analyzeInterval  string
	analyzeCandles   int
	analyzeDepthWait time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one evaluation tick and print the prediction",
	Long: `Fetch candles, build the market state, score the best setup, generate
scenarios and print the compressed prediction. With ENABLE_DEPTH=true the
live order book is attached to the analysis.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeSymbol, "symbol", "", "Symbol to analyze (defaults to SYMBOL env)")
	analyzeCmd.Flags().StringVar(&analyzeInterval, "interval", "", "Candle interval (defaults to INTERVAL env)")
	analyzeCmd.Flags().IntVar(&analyzeCandles, "candles", 0, "Candle count (defaults to CANDLE_COUNT env)")
	analyzeCmd.Flags().DurationVar(&analyzeDepthWait, "depth-wait", 3*time.Second, "How long to wait for the first depth snapshot")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	symbol := orDefault(analyzeSymbol, cfg.Symbol)
	interval := orDefault(analyzeInterval, cfg.Interval)
	count := analyzeCandles
	if count == 0 {
		count = cfg.CandleCount
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	opts := analyze.Options{News: news.NewStaticFeed(nil)}
	if cfg.EnableDepth {
		stream := depth.NewStream(symbol)
		stream.Start(ctx)
		opts.Depth = stream
		log.Info().Dur("wait", analyzeDepthWait).Msg("waiting for first depth snapshot")
		time.Sleep(analyzeDepthWait)
	}

	analyzer := analyze.New(newHistoryClient(), opts)
	report, err := analyzer.Run(ctx, symbol, interval, count)
	if err != nil {
		return err
	}

	analyze.FormatReport(os.Stdout, report)
	return nil
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
