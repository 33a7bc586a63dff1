package parser

import (
	"fmt"

	"receiptscan/pkg/models"
)

// lowItemConfidence marks items worth calling out in the quality report.
const lowItemConfidence = 0.4

// deriveQuality inspects a finished extraction and produces the quality
// issues and retake suggestions. Issues are advisory; they never change the
// extraction itself.
func (p *Parser) deriveQuality(ext *models.ReceiptExtraction, storeKnown, dateFound bool) ([]models.QualityIssue, []string) {
	var issues []models.QualityIssue
	var suggestions []string

	if ext.Total == 0 {
		issues = append(issues, models.QualityIssue{
			Type:            models.IssueMissingTotal,
			Severity:        models.SeverityHigh,
			Description:     "no receipt total could be found in the text",
			SuggestedAction: "retake the photo including the bottom of the receipt",
		})
		suggestions = append(suggestions, "включете долната част на бележката в снимката")
	}

	if len(ext.Items) == 0 {
		issues = append(issues, models.QualityIssue{
			Type:            models.IssueItemMismatch,
			Severity:        models.SeverityHigh,
			Description:     "no line items were extracted",
			SuggestedAction: "retake the photo with the full item list visible and in focus",
		})
		suggestions = append(suggestions, "снимайте бележката отблизо и на фокус")
	}

	if ext.Validation != nil && !ext.Validation.Valid &&
		ext.Validation.OCRTotal > 0 && ext.Validation.PercentageDiff > 20 {
		issues = append(issues, models.QualityIssue{
			Type:            models.IssuePriceInconsistency,
			Severity:        models.SeverityCritical,
			Description:     fmt.Sprintf("items sum to %.2f but the printed total is %.2f (%.0f%% apart)", ext.Validation.CalculatedTotal, ext.Validation.OCRTotal, ext.Validation.PercentageDiff),
			SuggestedAction: "verify the item list and total against the paper receipt",
		})
	}

	if n := len(ext.Items); n > 0 {
		var invalid, lowConf int
		var affected []string
		for i := range ext.Items {
			if hasFlag(&ext.Items[i], models.FlagPriceOutOfRange) {
				invalid++
			}
			if ext.Items[i].Confidence < lowItemConfidence {
				lowConf++
				affected = append(affected, ext.Items[i].Name)
			}
		}
		if float64(invalid)/float64(n) > 0.2 {
			issues = append(issues, models.QualityIssue{
				Type:            models.IssuePriceInconsistency,
				Severity:        models.SeverityCritical,
				Description:     fmt.Sprintf("%d of %d item prices fall outside plausible ranges", invalid, n),
				SuggestedAction: "verify prices manually against the paper receipt",
			})
		}
		if lowConf > 0 {
			issues = append(issues, models.QualityIssue{
				Type:            models.IssueUnclearText,
				Severity:        models.SeverityMedium,
				Description:     fmt.Sprintf("%d items were extracted with low confidence", lowConf),
				AffectedItems:   affected,
				SuggestedAction: "review the flagged items",
			})
		}
	}

	if !storeKnown {
		issues = append(issues, models.QualityIssue{
			Type:            models.IssueStoreUnclear,
			Severity:        models.SeverityLow,
			Description:     "retailer could not be identified from the header",
			SuggestedAction: "confirm the store manually",
		})
	}

	if !dateFound {
		issues = append(issues, models.QualityIssue{
			Type:            models.IssueDateUnclear,
			Severity:        models.SeverityMedium,
			Description:     "no purchase date found, current date used",
			SuggestedAction: "set the purchase date manually",
		})
	}

	if ext.Validation != nil && !ext.Validation.Valid && ext.Total > 0 && len(ext.Items) > 0 {
		suggestions = append(suggestions, "проверете дали всички редове от бележката се виждат на снимката")
	}

	return issues, suggestions
}

func hasFlag(it *models.ExtractedItem, flag models.ItemQualityFlag) bool {
	for _, f := range it.QualityFlags {
		if f == flag {
			return true
		}
	}
	return false
}
