package parser

import (
	"fmt"
	"math"

	"receiptscan/internal/config"
	"receiptscan/pkg/models"
)

// ValidateTotal cross-checks the printed total against the sum of line
// totals. A missing printed total is always invalid with a 100% difference;
// agreement within the configured tolerance is valid.
func ValidateTotal(items []models.ExtractedItem, ocrTotal float64, th config.Thresholds) *models.TotalValidationResult {
	calculated := 0.0
	for i := range items {
		calculated += items[i].LineTotal()
	}
	calculated = math.Round(calculated*100) / 100

	res := &models.TotalValidationResult{
		CalculatedTotal: calculated,
		OCRTotal:        ocrTotal,
		Difference:      math.Round(math.Abs(calculated-ocrTotal)*100) / 100,
	}

	if ocrTotal == 0 {
		res.PercentageDiff = 100
		res.Valid = false
		res.Explanation = "no total found in receipt text"
		return res
	}

	res.PercentageDiff = math.Abs(calculated-ocrTotal) / ocrTotal * 100
	res.Valid = res.PercentageDiff <= th.TotalTolerancePct

	switch {
	case res.Valid && res.Difference == 0:
		res.Explanation = "calculated total matches printed total exactly"
	case res.Valid:
		res.Explanation = fmt.Sprintf("totals agree within %.1f%% tolerance (off by %.2f)", th.TotalTolerancePct, res.Difference)
	case len(items) == 0:
		res.Explanation = "printed total found but no items were extracted"
	default:
		res.Explanation = fmt.Sprintf("calculated %.2f differs from printed %.2f by %.1f%%", calculated, ocrTotal, res.PercentageDiff)
	}
	return res
}
