package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"edgecast/internal/execution"
	"edgecast/models"
)

var (
	routeSide       string
	routeSize       float64
	routePrice      float64
	routeSpread     float64
	routeUrgency    string
	routeVolatility string
	routeSeed       int64
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Pick an execution style for an order intent",
	Long: `Run the smart execution router against a described market: spread bands
decide between market, chase and resting limit orders; large notionals are
split into TWAP or iceberg schedules. Without a live book the router walks a
synthetic depth ladder around the given price.`,
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().StringVar(&routeSide, "side", "BUY", "Order side: BUY or SELL")
	routeCmd.Flags().Float64Var(&routeSize, "size", 1.0, "Order size in base units")
	routeCmd.Flags().Float64Var(&routePrice, "price", 0, "Current price (required)")
	routeCmd.Flags().Float64Var(&routeSpread, "spread", 0, "Current bid/ask spread in price units")
	routeCmd.Flags().StringVar(&routeUrgency, "urgency", "NORMAL", "Order urgency: LOW, NORMAL or HIGH")
	routeCmd.Flags().StringVar(&routeVolatility, "volatility", "NORMAL", "Volatility regime: LOW, NORMAL or HIGH")
	routeCmd.Flags().Int64Var(&routeSeed, "seed", 1, "Random seed for slice jitter")
	routeCmd.MarkFlagRequired("price")
}

func runRoute(cmd *cobra.Command, args []string) error {
	order := models.Order{
		Symbol:  cfg.Symbol,
		Side:    sideBias(routeSide),
		Size:    routeSize,
		Urgency: models.Urgency(strings.ToUpper(routeUrgency)),
	}
	mkt := execution.Market{
		Price:      routePrice,
		Spread:     routeSpread,
		Volatility: models.VolatilityRegime(strings.ToUpper(routeVolatility)),
		Depth:      syntheticDepth(routePrice, routeSpread, routeSize),
	}

	router := execution.NewRouter(rand.New(rand.NewSource(routeSeed)))
	decision := router.Route(order, mkt)

	fmt.Printf("Style: %s\n", decision.Type)
	if decision.LimitPrice > 0 {
		fmt.Printf("Limit price: %.4f\n", decision.LimitPrice)
	}
	if decision.Requotes > 0 {
		fmt.Printf("Max requotes: %d\n", decision.Requotes)
	}
	if decision.Slippage > 0 {
		fmt.Printf("Estimated slippage: %.4f%%\n", decision.Slippage*100)
	}
	if len(decision.Slices) > 0 {
		fmt.Printf("Slices: %d", len(decision.Slices))
		if decision.Duration > 0 {
			fmt.Printf(" over %s", decision.Duration)
		}
		fmt.Println()
		for i, s := range decision.Slices {
			if s.OffsetIn > 0 {
				fmt.Printf("  %2d: %.4f at +%s\n", i+1, s.Size, s.OffsetIn)
			} else {
				fmt.Printf("  %2d: %.4f\n", i+1, s.Size)
			}
		}
	}
	for _, reason := range decision.Reason {
		fmt.Printf("  because: %s\n", reason)
	}
	return nil
}

func sideBias(side string) models.Bias {
	if strings.EqualFold(side, "SELL") {
		return models.Bearish
	}
	return models.Bullish
}

// syntheticDepth lays a flat ten-level ladder around the price so the
// slippage check has something to walk when no live book is attached.
func syntheticDepth(price, spread, size float64) *models.DepthSnapshot {
	if price <= 0 {
		return nil
	}
	half := spread / 2
	step := price * 0.0001
	levelQty := size
	if levelQty <= 0 {
		levelQty = 1
	}

	snap := &models.DepthSnapshot{}
	for i := 0; i < 10; i++ {
		offset := float64(i) * step
		snap.Asks = append(snap.Asks, models.PriceLevel{Price: price + half + offset, Quantity: levelQty})
		snap.Bids = append(snap.Bids, models.PriceLevel{Price: price - half - offset, Quantity: levelQty})
	}
	return snap
}
