// Package parser turns raw OCR text into a structured receipt extraction.
//
// Parsing is a single pass over text lines with three cooperating stages:
// retailer/date detection, item-section extraction (including the three-line
// item layout some registers print) and total detection. The parser never
// aborts on ambiguity: missing dates, totals or low-confidence items are
// surfaced as quality issues on the result instead.
//
// A Parser holds only read-only registries and is safe for concurrent use
// across parallel extraction attempts.
package parser

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"receiptscan/internal/config"
	"receiptscan/internal/logger"
	"receiptscan/internal/numfmt"
	"receiptscan/internal/products"
	"receiptscan/internal/store"
	"receiptscan/pkg/models"
)

// retailerScanLines bounds the header region scanned for retailer names.
const retailerScanLines = 10

// Parser extracts structured receipts from OCR text.
type Parser struct {
	registry *store.Registry
	catalog  *products.Catalog
	th       config.Thresholds
	log      zerolog.Logger

	now func() time.Time
}

// New creates a Parser over the given registries.
func New(registry *store.Registry, catalog *products.Catalog, th config.Thresholds) *Parser {
	return &Parser{
		registry: registry,
		catalog:  catalog,
		th:       th,
		log:      logger.WithComponent("parser"),
		now:      time.Now,
	}
}

// Parse produces a ReceiptExtraction from raw OCR text. It never fails:
// the worst input yields an unsuccessful extraction with quality issues
// explaining what could not be recovered.
func (p *Parser) Parse(rawText string) *models.ReceiptExtraction {
	lines := splitLines(rawText)

	format := p.detectRetailer(lines)
	retailer := ""
	if format != nil {
		retailer = format.Name
	}

	date, dateFound := p.extractDate(lines)

	items := p.extractItems(lines, format)
	total := p.extractTotal(rawText, lines, format)

	items = dedupeItems(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Confidence > items[j].Confidence
	})

	validation := ValidateTotal(items, total, p.th)

	ext := &models.ReceiptExtraction{
		Success:    len(items) > 0 || total > 0,
		Retailer:   retailer,
		Total:      total,
		Date:       date,
		Items:      items,
		RawText:    rawText,
		Validation: validation,
	}
	ext.Confidence = p.overallConfidence(rawText, format != nil, ext)
	ext.QualityIssues, ext.Suggestions = p.deriveQuality(ext, format != nil, dateFound)

	p.log.Debug().
		Str("retailer", retailer).
		Int("items", len(items)).
		Float64("total", total).
		Float64("confidence", ext.Confidence).
		Bool("total_valid", validation.Valid).
		Msg("receipt parsed")

	return ext
}

// detectRetailer matches the receipt header against the registry. Retailer
// names appear in the first few printed lines; scanning only the header
// avoids false positives from product names.
func (p *Parser) detectRetailer(lines []string) *store.Format {
	n := len(lines)
	if n > retailerScanLines {
		n = retailerScanLines
	}
	head := strings.Join(lines[:n], "\n")
	return p.registry.Detect(head)
}

// datePattern binds a regex to its capture-group layout.
type datePattern struct {
	re                    *regexp.Regexp
	dayGrp, monGrp, yrGrp int
}

// datePatterns are ranked: the most common Bulgarian register format first.
var datePatterns = []datePattern{
	{regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})(?:\s+\d{1,2}:\d{2}(?::\d{2})?)?`), 1, 2, 3},
	{regexp.MustCompile(`(\d{4})\.(\d{2})\.(\d{2})(?:\s+\d{1,2}:\d{2}(?::\d{2})?)?`), 3, 2, 1},
	{regexp.MustCompile(`(\d{2})[/-](\d{2})[/-](\d{4})`), 1, 2, 3},
	{regexp.MustCompile(`(\d{4})[/-](\d{2})[/-](\d{2})`), 3, 2, 1},
}

// extractDate scans all lines against the ranked date patterns and accepts
// the first parseable date with year >= 2020. A missing date never aborts
// extraction; the current date is used and flagged.
func (p *Parser) extractDate(lines []string) (string, bool) {
	for _, pat := range datePatterns {
		for _, line := range lines {
			m := pat.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			candidate := m[pat.yrGrp] + "-" + m[pat.monGrp] + "-" + m[pat.dayGrp]
			t, err := time.Parse("2006-01-02", candidate)
			if err != nil || t.Year() < 2020 {
				continue
			}
			return t.Format("2006-01-02"), true
		}
	}
	return p.now().Format("2006-01-02"), false
}

// numbersFor returns the retailer's number format, defaulting to the common
// Bulgarian fiscal-printer format.
func numbersFor(format *store.Format) numfmt.NumberFormat {
	if format != nil {
		return format.Numbers
	}
	return numfmt.DefaultBG()
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

// dedupeItems drops repeated (normalized name, price) pairs, keeping the
// higher-confidence occurrence.
func dedupeItems(items []models.ExtractedItem) []models.ExtractedItem {
	type key struct {
		name  string
		price float64
	}
	best := make(map[key]int, len(items))
	out := make([]models.ExtractedItem, 0, len(items))
	for _, it := range items {
		k := key{it.NormalizedName, it.Price}
		if idx, ok := best[k]; ok {
			if it.Confidence > out[idx].Confidence {
				out[idx] = it
			}
			continue
		}
		best[k] = len(out)
		out = append(out, it)
	}
	return out
}
