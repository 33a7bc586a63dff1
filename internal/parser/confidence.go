package parser

import (
	"regexp"
	"unicode"

	"receiptscan/internal/products"
	"receiptscan/pkg/models"
)

// Overall confidence weights. Text quality reflects how much of the OCR
// output looks like Bulgarian receipt text, structure rewards recovering the
// retailer, items and total, validation rewards the totals agreeing.
const (
	weightText       = 0.3
	weightStructure  = 0.4
	weightValidation = 0.3
)

// ocrArtifactPattern flags names carrying characters no Bulgarian product
// name contains.
var ocrArtifactPattern = regexp.MustCompile(`[|~^@{}\\<>]|[A-Za-z]{1,2}\d|\d[A-Za-z]{1,2}`)

// scoreItem assigns the item confidence: a 0.8 baseline adjusted for name
// length, catalog recognition, price plausibility and OCR artifacts, clamped
// to [0.1, 1.0].
func (p *Parser) scoreItem(it *models.ExtractedItem) {
	conf := 0.8

	if len([]rune(it.Name)) < 3 {
		conf -= 0.3
		it.QualityFlags = append(it.QualityFlags, models.FlagShortName)
	}

	match := p.catalog.Recognize(it.NormalizedName)
	if match.MatchType != products.MatchNone {
		conf += 0.2 * match.Confidence
		it.QualityFlags = append(it.QualityFlags, models.FlagRecognized)
		if it.Category == "" || it.Category == products.CategoryOther {
			it.Category = match.Product.Category
		}
	}

	check := p.catalog.ValidatePrice(it.NormalizedName, it.Price)
	if !check.Valid {
		conf -= 0.2
		it.QualityFlags = append(it.QualityFlags, models.FlagPriceOutOfRange)
	}

	if ocrArtifactPattern.MatchString(it.Name) {
		conf -= 0.1
		it.QualityFlags = append(it.QualityFlags, models.FlagOCRArtifacts)
	}

	it.Confidence = clamp(conf, 0.1, 1.0)
}

// overallConfidence combines text, structure and validation quality into the
// extraction confidence. The result is a pure function of the extraction
// fields, so identical OCR text always scores identically.
func (p *Parser) overallConfidence(rawText string, storeKnown bool, ext *models.ReceiptExtraction) float64 {
	text := textQuality(rawText)

	structure := 0.0
	if storeKnown {
		structure += 0.3
	}
	if len(ext.Items) > 0 {
		structure += 0.4
	}
	if ext.Total > 0 {
		structure += 0.3
	}

	validation := 0.0
	if ext.Validation != nil {
		switch {
		case ext.Validation.Valid:
			validation = 1.0
		case ext.Validation.OCRTotal > 0 && ext.Validation.PercentageDiff <= 20:
			validation = 0.5
		}
	}

	return clamp(weightText*text+weightStructure*structure+weightValidation*validation, 0, 1)
}

// textQuality estimates how receipt-like the raw OCR text is from the share
// of Cyrillic letters and digits among non-space runes.
func textQuality(rawText string) float64 {
	var useful, total int
	for _, r := range rawText {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Cyrillic, r) || unicode.IsDigit(r) {
			useful++
		}
	}
	if total == 0 {
		return 0
	}
	q := float64(useful) / float64(total)
	// Receipts carry punctuation and Latin brand names too, so scale up.
	q *= 1.4
	if q > 1 {
		q = 1
	}
	return q
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
