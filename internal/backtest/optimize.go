package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"edgecast/models"
)

// DefaultGrid spans the stop-loss and take-profit multipliers the
// optimizer sweeps when the caller gives none.
var DefaultGrid = GridSpec{
	StopLossMults:   []float64{0.5, 0.75, 1.0, 1.25, 1.5},
	TakeProfitMults: []float64{0.5, 0.75, 1.0, 1.5, 2.0},
}

// GridSpec is the cartesian parameter grid for Optimize.
type GridSpec struct {
	StopLossMults   []float64
	TakeProfitMults []float64
}

// Optimize fetches history once, then replays every grid cell over the
// shared candle slice with a worker pool. Candles are read-only during
// the sweep, so the workers share them without copying.
func (e *Engine) Optimize(ctx context.Context, symbol, timeframe string, candleCount int, grid GridSpec) (*models.OptimizationResult, error) {
	candles, err := e.provider.FetchHistory(ctx, symbol, timeframe, candleCount)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	if len(candles) < warmupCandles+tailCandles {
		return nil, fmt.Errorf("insufficient history: got %d candles, need %d", len(candles), warmupCandles+tailCandles)
	}
	return e.OptimizeOnCandles(symbol, timeframe, candles, grid), nil
}

// OptimizeOnCandles sweeps the grid over pre-fetched candles.
func (e *Engine) OptimizeOnCandles(symbol, timeframe string, candles []models.Candle, grid GridSpec) *models.OptimizationResult {
	if len(grid.StopLossMults) == 0 || len(grid.TakeProfitMults) == 0 {
		grid = DefaultGrid
	}

	type cellIn struct {
		slMult, tpMult float64
	}
	jobs := make(chan cellIn)
	results := make(chan models.OptimizationCell)

	workers := runtime.NumCPU()
	total := len(grid.StopLossMults) * len(grid.TakeProfitMults)
	if workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				run := e.RunOnCandles(symbol, timeframe, candles, models.Overrides{
					StopLossMult:   job.slMult,
					TakeProfitMult: job.tpMult,
				})
				results <- models.OptimizationCell{
					StopLossMult:   job.slMult,
					TakeProfitMult: job.tpMult,
					Score:          cellScore(run.Stats),
					Stats:          run.Stats,
				}
			}
		}()
	}
	go func() {
		for _, sl := range grid.StopLossMults {
			for _, tp := range grid.TakeProfitMults {
				jobs <- cellIn{slMult: sl, tpMult: tp}
			}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	cells := make([]models.OptimizationCell, 0, total)
	for cell := range results {
		cells = append(cells, cell)
	}

	// Workers finish in arbitrary order; sort for a stable grid and a
	// deterministic best cell on score ties.
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].StopLossMult != cells[j].StopLossMult {
			return cells[i].StopLossMult < cells[j].StopLossMult
		}
		return cells[i].TakeProfitMult < cells[j].TakeProfitMult
	})

	best := cells[0]
	for _, cell := range cells[1:] {
		if cell.Score > best.Score {
			best = cell
		}
	}

	e.logger.Info().
		Float64("sl_mult", best.StopLossMult).
		Float64("tp_mult", best.TakeProfitMult).
		Float64("score", best.Score).
		Msg("grid search complete")

	return &models.OptimizationResult{Best: best, Grid: cells}
}

// cellScore ranks a cell by profit factor, Sharpe and win rate jointly,
// so one inflated metric cannot dominate.
func cellScore(stats models.BacktestStats) float64 {
	return stats.ProfitFactor * stats.Sharpe * (stats.WinRate / 100)
}
