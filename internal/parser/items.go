package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"receiptscan/internal/numfmt"
	"receiptscan/internal/store"
	"receiptscan/pkg/models"
)

// skipPatterns match non-item lines inside the item section: totals, payment
// rows, VAT breakdowns, fiscal footers, separators and timestamps. RE2 word
// boundaries are ASCII-only, so Cyrillic keywords are matched bare.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ОБЩА\s*СУМА|МЕЖДИННА\s*СУМА|ОБЩО|ВСИЧКО|SUBTOTAL|TOTAL`),
	regexp.MustCompile(`(?i)В\s*БРОЙ|КАРТА|РЕСТО|ПЛАТЕНО|ДА\s*СЕ\s*ПЛАТИ|CASH|CARD`),
	regexp.MustCompile(`(?i)ДДС|ДАН\.?\s*ОСНОВА|НЕТО\s*СТ-СТ|VAT`),
	regexp.MustCompile(`(?i)ФИСКАЛЕН|КАСОВ\s*БОН|УНП|ЕИК|ЗДДС|БОН\s*[№N]`),
	regexp.MustCompile(`(?i)БЛАГОДАРИМ|ЗАПОВЯДАЙТЕ\s*ОТНОВО|КАСИЕР|АРТИКУЛА`),
	regexp.MustCompile(`^[\s*=#_.-]{3,}$`),
	regexp.MustCompile(`^\d{2}[.,-]\d{2}[.,-]\d{4}`),
	regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?\s*$`),
}

// qtyLinePattern is the middle line of the three-line item layout:
// quantity, multiplication sign, unit price.
var qtyLinePattern = regexp.MustCompile(`^(\d{1,3}(?:[.,]\d{1,3})?)\s*(?:(кг|КГ|бр|БР|л|Л)\.?\s*)?[xхХ×*]\s*(\d{1,4}[.,]\d{2})\s*$`)

// totalLinePattern is the final line of the three-line layout: the line
// total, optionally followed by a VAT group letter.
var totalLinePattern = regexp.MustCompile(`^(\d{1,5}[.,]\d{2})\s*\p{Lu}?\s*$`)

var (
	letterPattern  = regexp.MustCompile(`\p{L}`)
	priceOnlyLine  = regexp.MustCompile(`^[\d.,\s]+\p{Lu}?$`)
	paymentTokens  = regexp.MustCompile(`(?i)^(В\s*БРОЙ|КАРТА|РЕСТО|ЛВ\.?|BGN|EUR)$`)
	barcodePattern = regexp.MustCompile(`^\d{8,14}$`)
)

// extractItems locates the item section and runs the retailer's patterns
// (falling back to the generic set) over each line, handling the three-line
// quantity layout before single-line matching.
func (p *Parser) extractItems(lines []string, format *store.Format) []models.ExtractedItem {
	start, end := itemSection(lines, format)
	nf := numbersFor(format)

	patterns := p.registry.GenericPatterns()
	if format != nil && len(format.ItemPatterns) > 0 {
		patterns = append(append([]store.ItemPattern{}, format.ItemPatterns...), patterns...)
	}

	var items []models.ExtractedItem
	for i := start; i < end; i++ {
		line := lines[i]
		if line == "" || shouldSkip(line) {
			continue
		}

		if it, consumed := p.multiLineItem(lines, i, end, nf); it != nil {
			items = append(items, *it)
			i += consumed
			continue
		}

		if it := p.singleLineItem(line, i, patterns, nf); it != nil {
			items = append(items, *it)
		}
	}
	return items
}

// itemSection bounds the line range holding items. Explicit section markers
// from the retailer layout win; otherwise header/footer budgets apply.
func itemSection(lines []string, format *store.Format) (int, int) {
	layout := store.Layout{HeaderLines: 3, FooterLines: 5}
	if format != nil {
		layout = format.Layout
	}

	start := 0
	end := len(lines)

	if len(layout.ItemSectionStart) > 0 {
		for i, line := range lines {
			if containsMarker(line, layout.ItemSectionStart) {
				start = i + 1
				break
			}
		}
	}
	for i := start; i < len(lines); i++ {
		if containsMarker(lines[i], layout.ItemSectionEnd) {
			end = i
			break
		}
	}

	if start == 0 && layout.HeaderLines > 0 && layout.HeaderLines < len(lines) {
		start = layout.HeaderLines
	}
	if end == len(lines) && layout.FooterLines > 0 && len(lines)-layout.FooterLines > start {
		end = len(lines) - layout.FooterLines
	}
	if end < start {
		end = start
	}
	return start, end
}

func containsMarker(line string, markers []string) bool {
	up := store.NormalizeLine(line)
	for _, m := range markers {
		if strings.Contains(up, m) {
			return true
		}
	}
	return false
}

func shouldSkip(line string) bool {
	for _, re := range skipPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// multiLineItem recognizes the three-line layout:
//
//	Сладолед Мини Класик
//	2.000 x 7.49
//	14.98 G
//
// and returns the merged item plus the count of extra lines consumed. The
// quantity times the unit price must agree with the printed line total
// within tolerance, otherwise the triple is rejected and the lines fall
// through to single-line matching.
func (p *Parser) multiLineItem(lines []string, i, end int, nf numfmt.NumberFormat) (*models.ExtractedItem, int) {
	if i+2 >= end {
		return nil, 0
	}
	name := lines[i]
	if !validItemName(name) {
		return nil, 0
	}
	qm := qtyLinePattern.FindStringSubmatch(lines[i+1])
	if qm == nil {
		return nil, 0
	}
	tm := totalLinePattern.FindStringSubmatch(lines[i+2])
	if tm == nil {
		return nil, 0
	}

	qty := parseQuantity(qm[1])
	unitPrice := numfmt.ParseNumber(qm[3], nf)
	lineTotal := numfmt.ParseNumber(tm[1], nf)
	if qty <= 0 || unitPrice <= 0 || lineTotal <= 0 {
		return nil, 0
	}

	expected := qty * unitPrice
	if math.Abs(expected-lineTotal)/lineTotal*100 > p.th.MultiLineTolerancePct {
		p.log.Debug().
			Str("name", name).
			Float64("expected", expected).
			Float64("printed", lineTotal).
			Msg("multi-line item rejected: quantity math does not add up")
		return nil, 0
	}

	it := p.buildItem(name, unitPrice, qty, qm[2], "", i, strings.Join(lines[i:i+3], "\n"))
	it.QualityFlags = append(it.QualityFlags, models.FlagMultiLine)
	return it, 2
}

// singleLineItem runs the pattern list over one line, first match wins.
func (p *Parser) singleLineItem(line string, lineNo int, patterns []store.ItemPattern, nf numfmt.NumberFormat) *models.ExtractedItem {
	for _, pat := range patterns {
		m := pat.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[pat.NameGroup])
		if !validItemName(name) {
			continue
		}
		price := 0.0
		if pat.PriceGroup > 0 {
			price = numfmt.ParseNumber(m[pat.PriceGroup], nf)
		}
		if price <= 0 {
			continue
		}
		qty := 1.0
		if pat.QuantityGroup > 0 && m[pat.QuantityGroup] != "" {
			if q := parseQuantity(m[pat.QuantityGroup]); q > 0 {
				qty = q
			}
		}
		barcode := ""
		if pat.BarcodeGroup > 0 {
			barcode = m[pat.BarcodeGroup]
		}
		return p.buildItem(name, price, qty, "", barcode, lineNo, line)
	}
	return nil
}

// buildItem assembles an item with catalog enrichment and confidence scoring.
func (p *Parser) buildItem(name string, price, qty float64, unit, barcode string, lineNo int, original string) *models.ExtractedItem {
	it := &models.ExtractedItem{
		Name:           strings.TrimSpace(name),
		NormalizedName: normalizeItemName(name),
		OriginalText:   original,
		Price:          price,
		Quantity:       qty,
		Unit:           strings.ToLower(unit),
		Barcode:        barcode,
		LineNumber:     lineNo + 1,
	}
	it.Category = p.catalog.Categorize(it.NormalizedName)
	p.scoreItem(it)
	return it
}

// validItemName rejects lines that cannot be product names: bare prices,
// barcodes, payment tokens and sub-two-rune fragments.
func validItemName(name string) bool {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return false
	}
	if len(letterPattern.FindAllString(name, 2)) < 2 {
		return false
	}
	if priceOnlyLine.MatchString(name) || barcodePattern.MatchString(name) {
		return false
	}
	if paymentTokens.MatchString(name) {
		return false
	}
	return true
}

// parseQuantity reads a quantity token. Quantities are always plain decimals
// (weighed goods print three fraction digits, "0,486"), so the separator is
// taken literally instead of running the grouping heuristics prices need.
func parseQuantity(raw string) float64 {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonNameRunes  = regexp.MustCompile(`[^\p{Cyrillic}\p{Latin}0-9 ]+`)
)

// normalizeItemName canonicalizes a product name for matching: uppercase,
// strip everything but Cyrillic/Latin/digits, collapse whitespace.
func normalizeItemName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = nonNameRunes.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
