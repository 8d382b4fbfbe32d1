package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"edgecast/config"
	"edgecast/internal/backtest"
	"edgecast/models"
)

var (
	optimizeSymbol   string
	optimizeInterval string
	optimizeDays     int
	optimizeGridFile string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search stop/target multipliers over historical candles",
	Long: `Sweep stop-loss and take-profit multipliers over a backtest window and
rank each cell by profit factor, Sharpe ratio and win rate jointly. A custom
grid can be supplied as a YAML file via --grid or GRID_FILE.`,
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().StringVar(&optimizeSymbol, "symbol", "", "Symbol to optimize (defaults to SYMBOL env)")
	optimizeCmd.Flags().StringVar(&optimizeInterval, "interval", "", "Candle interval (defaults to INTERVAL env)")
	optimizeCmd.Flags().IntVar(&optimizeDays, "days", 0, "History window in days (defaults to BACKTEST_DAYS env)")
	optimizeCmd.Flags().StringVar(&optimizeGridFile, "grid", "", "YAML file with stop_loss_mults and take_profit_mults")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	symbol := orDefault(optimizeSymbol, cfg.Symbol)
	interval := orDefault(optimizeInterval, cfg.Interval)
	days := optimizeDays
	if days == 0 {
		days = cfg.BacktestDays
	}

	grid := backtest.DefaultGrid
	if path := orDefault(optimizeGridFile, cfg.GridFile); path != "" {
		loaded, err := config.LoadGrid(path)
		if err != nil {
			return err
		}
		grid = backtest.GridSpec{
			StopLossMults:   loaded.StopLossMults,
			TakeProfitMults: loaded.TakeProfitMults,
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	engine := backtest.New(newHistoryClient()).
		WithCooldown(time.Duration(cfg.CooldownHours) * time.Hour)
	result, err := engine.Optimize(ctx, symbol, interval, models.CandlesForWindow(interval, days), grid)
	if err != nil {
		return err
	}

	printGrid(result)
	return nil
}

func printGrid(result *models.OptimizationResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SL MULT\tTP MULT\tSCORE\tTRADES\tWIN RATE\tPF\tSHARPE")
	for _, cell := range result.Grid {
		fmt.Fprintf(w, "%.2f\t%.2f\t%.3f\t%d\t%.1f%%\t%.2f\t%.2f\n",
			cell.StopLossMult, cell.TakeProfitMult, cell.Score,
			cell.Stats.TotalTrades, cell.Stats.WinRate,
			cell.Stats.ProfitFactor, cell.Stats.Sharpe)
	}
	w.Flush()

	best := result.Best
	fmt.Printf("\nBest cell: SL x%.2f / TP x%.2f (score %.3f, %d trades)\n",
		best.StopLossMult, best.TakeProfitMult, best.Score, best.Stats.TotalTrades)
}
