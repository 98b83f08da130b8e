package bot

import (
	"fmt"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// GenerateBreakdownChart creates a pie chart of the asset breakdown of a
// calculation result. Returns PNG image as bytes.
func GenerateBreakdownChart(result models.CalculationResult) ([]byte, error) {
	var values []float64
	var names []string

	for _, t := range models.AssetTypes {
		amount, ok := result.AssetBreakdown[t]
		if !ok || !amount.IsPositive() {
			continue
		}
		names = append(names, models.AssetTypeLabel(t))
		values = append(values, amount.InexactFloat64())
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no assets to chart")
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Asset Breakdown (%s)", result.Currency),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// breakdownLines formats the breakdown in display order for captions.
func breakdownLines(result models.CalculationResult) []string {
	var lines []string
	for _, t := range models.AssetTypes {
		amount, ok := result.AssetBreakdown[t]
		if !ok || amount.IsZero() {
			continue
		}
		lines = append(lines, fmt.Sprintf("• %s: %s", models.AssetTypeLabel(t), models.FormatAmount(amount, result.Currency)))
	}
	return lines
}

// chartFilename creates a filename like "zakaat_breakdown_2026-10-16.png".
func chartFilename(day string) string {
	return fmt.Sprintf("zakaat_breakdown_%s.png", day)
}
