package parser

import (
	"regexp"

	"receiptscan/internal/numfmt"
	"receiptscan/internal/store"
)

// Total label patterns for unknown retailers, most specific first. The
// multi-line variants cover registers that print the label and the amount on
// separate lines.
var (
	genericTotalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ОБЩА\s*СУМА\s*[:#]?\s*(\d{1,5}[.,]\d{2})`),
		regexp.MustCompile(`(?i)ОБЩО\s*[:#]?\s*(\d{1,5}[.,]\d{2})`),
		regexp.MustCompile(`(?i)ВСИЧКО\s*[:#]?\s*(\d{1,5}[.,]\d{2})`),
		regexp.MustCompile(`(?i)СУМА\s*[:#]?\s*(\d{1,5}[.,]\d{2})`),
		regexp.MustCompile(`(?i)TOTAL\s*[:#]?\s*(\d{1,5}[.,]\d{2})`),
	}

	multiLineTotalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ОБЩА\s*СУМА\s*[:#]?\s*\n\s*(\d{1,5}[.,]\d{2})`),
		regexp.MustCompile(`(?i)ОБЩО\s*[:#]?\s*\n\s*(\d{1,5}[.,]\d{2})`),
		regexp.MustCompile(`(?i)ВСИЧКО\s*[:#]?\s*\n\s*(\d{1,5}[.,]\d{2})`),
		regexp.MustCompile(`(?i)TOTAL\s*[:#]?\s*\n\s*(\d{1,5}[.,]\d{2})`),
	}

	totalLabelOnly = regexp.MustCompile(`(?i)^(ОБЩА\s*СУМА|ОБЩО|ВСИЧКО|СУМА|TOTAL)\s*[:#]?\s*$`)
	priceToken     = regexp.MustCompile(`\d{1,5}[.,]\d{2}`)
	dateToken      = regexp.MustCompile(`\d{2,4}[./-]\d{2}[./-]\d{2,4}`)
	timeToken      = regexp.MustCompile(`\d{1,2}:\d{2}(:\d{2})?`)
)

// extractTotal finds the printed receipt total. Tiers, in order: the
// retailer's own total patterns, multi-line label/amount pairs over the full
// text, generic per-line labels, a label line followed by a bare amount line,
// and finally the largest price-looking value anywhere in the text.
func (p *Parser) extractTotal(rawText string, lines []string, format *store.Format) float64 {
	nf := numbersFor(format)

	if format != nil {
		for _, re := range format.TotalPatterns {
			if m := re.FindStringSubmatch(rawText); m != nil {
				return numfmt.ParseNumber(m[1], nf)
			}
		}
	}

	for _, re := range multiLineTotalPatterns {
		if m := re.FindStringSubmatch(rawText); m != nil {
			return numfmt.ParseNumber(m[1], nf)
		}
	}

	for _, re := range genericTotalPatterns {
		for _, line := range lines {
			if m := re.FindStringSubmatch(line); m != nil {
				return numfmt.ParseNumber(m[1], nf)
			}
		}
	}

	for i, line := range lines {
		if !totalLabelOnly.MatchString(line) || i+1 >= len(lines) {
			continue
		}
		if m := priceToken.FindString(lines[i+1]); m != "" {
			return numfmt.ParseNumber(m, nf)
		}
	}

	return largestPrice(lines, nf)
}

// largestPrice is the last-resort total guess: the maximum price-looking
// token anywhere in the receipt, with dates and timestamps stripped first so
// "26.08" in a date line cannot win.
func largestPrice(lines []string, nf numfmt.NumberFormat) float64 {
	best := 0.0
	for _, line := range lines {
		cleaned := dateToken.ReplaceAllString(line, "")
		cleaned = timeToken.ReplaceAllString(cleaned, "")
		for _, tok := range priceToken.FindAllString(cleaned, -1) {
			if v := numfmt.ParseNumber(tok, nf); v > best {
				best = v
			}
		}
	}
	return best
}
