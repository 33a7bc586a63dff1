// Package numfmt parses locale-specific numeric strings from OCR text into
// canonical float values.
//
// Bulgarian receipts print amounts with either a decimal comma or a decimal
// dot depending on the register firmware, and OCR noise freely swaps one for
// the other, so the parser has to disambiguate separators per value rather
// than per locale.
package numfmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NumberFormat describes how a retailer prints numeric values.
type NumberFormat struct {
	DecimalSeparator   string
	ThousandsSeparator string
	CurrencySymbol     string
	SymbolAfterAmount  bool
}

// DefaultBG is the number format used by most Bulgarian fiscal printers.
func DefaultBG() NumberFormat {
	return NumberFormat{
		DecimalSeparator:   ",",
		ThousandsSeparator: " ",
		CurrencySymbol:     "лв",
		SymbolAfterAmount:  true,
	}
}

// currencyTokens are stripped regardless of the receipt's declared format;
// OCR output mixes Cyrillic and Latin renderings of the lev sign.
var currencyTokens = []string{"лв.", "лв", "ЛВ.", "ЛВ", "lv.", "lv", "BGN", "bgn", "€", "$"}

var nonNumeric = regexp.MustCompile(`[^0-9.,\s-]`)

// ParseNumber converts a raw OCR token into a float value.
//
// Disambiguation rules: a comma followed by 1-2 digits at the end of the
// string is a decimal separator; a comma followed by exactly 3 digits is a
// thousands separator, unless a space precedes it. Invalid input yields 0 and
// never an error; callers treat 0 as "no value found" and continue.
func ParseNumber(raw string, format NumberFormat) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if format.CurrencySymbol != "" {
		s = strings.ReplaceAll(s, format.CurrencySymbol, "")
	}
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = nonNumeric.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	s = resolveSeparators(s)
	s = strings.ReplaceAll(s, " ", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// resolveSeparators rewrites the value with '.' as the only decimal separator
// and no grouping separators.
func resolveSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the rightmost separator is the decimal one.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", -1)
			s = removeAllButLast(s, '.')
		} else {
			s = strings.ReplaceAll(s, ",", "")
			s = removeAllButLast(s, '.')
		}
	case lastComma >= 0:
		trailing := len(s) - lastComma - 1
		spaceBefore := lastComma > 0 && s[lastComma-1] == ' '
		if trailing == 3 && !spaceBefore && strings.Count(s, ",") == 1 {
			// Grouping comma: 1,500 -> 1500.
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", -1)
			s = removeAllButLast(s, '.')
		}
	case lastDot >= 0:
		trailing := len(s) - lastDot - 1
		if trailing == 3 && strings.Count(s, ".") > 1 {
			// Multiple dots with 3-digit groups: grouping noise.
			s = strings.ReplaceAll(s, ".", "")
		} else {
			s = removeAllButLast(s, '.')
		}
	}
	return s
}

// removeAllButLast strips every occurrence of sep except the last one, so a
// value like "1.234.56" collapses to "1234.56".
func removeAllButLast(s string, sep byte) string {
	last := strings.LastIndexByte(s, sep)
	if last < 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == sep && i != last {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatNumber renders a value in the given format with two decimal places.
// ParseNumber(FormatNumber(x)) == x within floating-point tolerance.
func FormatNumber(v float64, format NumberFormat) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if format.DecimalSeparator != "." {
		s = strings.Replace(s, ".", format.DecimalSeparator, 1)
	}
	if format.CurrencySymbol == "" {
		return s
	}
	if format.SymbolAfterAmount {
		return fmt.Sprintf("%s %s", s, format.CurrencySymbol)
	}
	return fmt.Sprintf("%s%s", format.CurrencySymbol, s)
}
