package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"edgecast/internal/analyze"
	"edgecast/internal/backtest"
	"edgecast/internal/metrics"
	"edgecast/models"
)

var (
	backtestSymbol   string
	backtestInterval string
	backtestDays     int
	backtestSLMult   float64
	backtestTPMult   float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the pipeline over historical candles",
	RunE:  runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to replay (defaults to SYMBOL env)")
	backtestCmd.Flags().StringVar(&backtestInterval, "interval", "", "Candle interval (defaults to INTERVAL env)")
	backtestCmd.Flags().IntVar(&backtestDays, "days", 0, "History window in days (defaults to BACKTEST_DAYS env)")
	backtestCmd.Flags().Float64Var(&backtestSLMult, "sl-mult", 1.0, "Stop-loss distance multiplier")
	backtestCmd.Flags().Float64Var(&backtestTPMult, "tp-mult", 1.0, "Take-profit distance multiplier")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	symbol := orDefault(backtestSymbol, cfg.Symbol)
	interval := orDefault(backtestInterval, cfg.Interval)
	days := backtestDays
	if days == 0 {
		days = cfg.BacktestDays
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	engine := backtest.New(newHistoryClient()).
		WithCooldown(time.Duration(cfg.CooldownHours) * time.Hour)
	result, err := engine.Run(ctx, symbol, interval, models.CandlesForWindow(interval, days), models.Overrides{
		StopLossMult:   backtestSLMult,
		TakeProfitMult: backtestTPMult,
	})
	if err != nil {
		return err
	}
	metrics.BacktestRuns.Inc()

	analyze.FormatBacktest(os.Stdout, result)
	return nil
}
