//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/bot"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func main() {
	result := models.CalculationResult{
		Currency: "USD",
		AssetBreakdown: map[models.AssetType]decimal.Decimal{
			models.AssetCash:      decimal.NewFromFloat(1500),
			models.AssetBank:      decimal.NewFromFloat(12000),
			models.AssetGold:      decimal.NewFromFloat(5950),
			models.AssetStocks:    decimal.NewFromFloat(3200.50),
			models.AssetLivestock: decimal.NewFromFloat(6000),
		},
	}

	chartData, err := bot.GenerateBreakdownChart(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example asset breakdown chart")
}
