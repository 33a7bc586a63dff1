package store

import (
	"regexp"
	"strings"

	"receiptscan/internal/numfmt"
)

// Registry is the static set of known retailer formats. Detection walks the
// formats in registration order; the first regex that matches wins.
type Registry struct {
	formats []*Format
	byType  map[Type]*Format
	generic []ItemPattern
}

// NewRegistry builds the registry of Bulgarian retailer formats.
func NewRegistry() *Registry {
	r := &Registry{
		byType:  make(map[Type]*Format),
		generic: genericItemPatterns(),
	}
	for _, f := range builtinFormats() {
		r.formats = append(r.formats, f)
		r.byType[f.Type] = f
	}
	return r
}

// Detect returns the first registered format whose detection regex matches
// the receipt text, or nil when no retailer is recognized. Registration order
// is the tie-break.
func (r *Registry) Detect(fullText string) *Format {
	for _, f := range r.formats {
		if f.Detection.MatchString(fullText) {
			return f
		}
	}
	return nil
}

// Patterns returns the item patterns for a store type, falling back to the
// generic set for unknown retailers.
func (r *Registry) Patterns(t Type) []ItemPattern {
	if f, ok := r.byType[t]; ok && len(f.ItemPatterns) > 0 {
		return f.ItemPatterns
	}
	return r.generic
}

// GenericPatterns returns the retailer-independent item pattern set.
func (r *Registry) GenericPatterns() []ItemPattern {
	return r.generic
}

// Formats returns all registered formats in detection order.
func (r *Registry) Formats() []*Format {
	return r.formats
}

// bgNumbers is the number format shared by all registered Bulgarian chains.
// OCR output mixes decimal commas and dots anyway, so per-store overrides
// only matter for the currency rendering.
func bgNumbers() numfmt.NumberFormat {
	return numfmt.DefaultBG()
}

// genericItemPatterns apply when the retailer is unknown or its own patterns
// fail. Ordered from most to least specific.
func genericItemPatterns() []ItemPattern {
	return []ItemPattern{
		{
			Pattern:      regexp.MustCompile(`^(.+?)\s+(\d{8,14})\s+(\d{1,4}[.,]\d{2})\s*[\p{Lu}]?\s*$`),
			NameGroup:    1,
			BarcodeGroup: 2,
			PriceGroup:   3,
			Description:  "name, barcode, price",
		},
		{
			Pattern:       regexp.MustCompile(`^(.+?)\s+(\d{1,3}(?:[.,]\d{1,3})?)\s*[xхХ×]\s*(\d{1,4}[.,]\d{2})\s*$`),
			NameGroup:     1,
			QuantityGroup: 2,
			PriceGroup:    3,
			Description:   "name, quantity x unit price",
		},
		{
			Pattern:     regexp.MustCompile(`^(.+?)\s{1,}(\d{1,4}[.,]\d{2})\s*(?:лв\.?|[\p{Lu}])?\s*$`),
			NameGroup:   1,
			PriceGroup:  2,
			Description: "name and price on one line",
		},
	}
}

func builtinFormats() []*Format {
	bg := bgNumbers()

	defaultLayout := Layout{
		HeaderLines:      4,
		FooterLines:      6,
		ItemSectionEnd:   []string{"ОБЩА СУМА", "ОБЩО", "ВСИЧКО", "МЕЖДИННА СУМА", "TOTAL"},
		ItemSectionStart: nil,
	}

	totalObsht := regexp.MustCompile(`(?i)ОБЩА\s*СУМА\s*[:#]?\s*(\d{1,5}[.,]\d{2})`)
	totalObshto := regexp.MustCompile(`(?i)ОБЩО\s*[:#]?\s*(\d{1,5}[.,]\d{2})`)
	totalSuma := regexp.MustCompile(`(?i)СУМА\s*[:#]?\s*(\d{1,5}[.,]\d{2})`)
	totalVsichko := regexp.MustCompile(`(?i)ВСИЧКО\s*[:#]?\s*(\d{1,5}[.,]\d{2})`)

	return []*Format{
		{
			Type:      Kaufland,
			Name:      "Кауфланд",
			Detection: regexp.MustCompile(`(?i)КАУФЛАНД|KAUFLAND`),
			Layout: Layout{
				HeaderLines:    5,
				FooterLines:    8,
				ItemSectionEnd: []string{"ОБЩА СУМА", "МЕЖДИННА СУМА"},
			},
			Numbers: bg,
			ItemPatterns: []ItemPattern{
				{
					Pattern:     regexp.MustCompile(`^(.+?)\s{2,}(\d{1,4}[.,]\d{2})\s*[БГАВ]?\s*$`),
					NameGroup:   1,
					PriceGroup:  2,
					Description: "kaufland name, wide gap, price, VAT group letter",
				},
			},
			TotalPatterns: []*regexp.Regexp{totalObsht, totalVsichko},
		},
		{
			Type:      Lidl,
			Name:      "Лидл",
			Detection: regexp.MustCompile(`(?i)ЛИДЛ|LIDL`),
			Layout: Layout{
				HeaderLines:    4,
				FooterLines:    7,
				ItemSectionEnd: []string{"СУМА", "ОБЩО", "ДА СЕ ПЛАТИ"},
			},
			Numbers: bg,
			ItemPatterns: []ItemPattern{
				{
					Pattern:     regexp.MustCompile(`^(.+?)\s+(\d{1,4}[.,]\d{2})\s*[AБB]\s*$`),
					NameGroup:   1,
					PriceGroup:  2,
					Description: "lidl name, price, tax class letter",
				},
			},
			TotalPatterns: []*regexp.Regexp{totalSuma, totalObshto},
		},
		{
			Type:      Billa,
			Name:      "Билла",
			Detection: regexp.MustCompile(`(?i)БИЛЛА|BILLA`),
			Layout: Layout{
				HeaderLines:    4,
				FooterLines:    6,
				ItemSectionEnd: []string{"ОБЩО", "ОБЩА СУМА"},
			},
			Numbers:       bg,
			TotalPatterns: []*regexp.Regexp{totalObshto, totalObsht},
		},
		{
			Type:      Fantastico,
			Name:      "Фантастико",
			Detection: regexp.MustCompile(`(?i)ФАНТАСТИКО|FANTASTICO`),
			Layout:    defaultLayout,
			Numbers:   bg,
			TotalPatterns: []*regexp.Regexp{
				totalObsht, totalObshto,
			},
		},
		{
			Type:      TMarket,
			Name:      "Т Маркет",
			Detection: regexp.MustCompile(`(?i)Т[\s-]?МАРКЕТ|T[\s-]?MARKET`),
			Layout:    defaultLayout,
			Numbers:   bg,
			TotalPatterns: []*regexp.Regexp{
				totalObsht, totalSuma,
			},
		},
		{
			Type:      Metro,
			Name:      "Метро",
			Detection: regexp.MustCompile(`(?i)МЕТРО|METRO`),
			Layout: Layout{
				HeaderLines:    6,
				FooterLines:    8,
				ItemSectionEnd: []string{"ОБЩА СУМА", "TOTAL"},
			},
			Numbers: bg,
			TotalPatterns: []*regexp.Regexp{
				totalObsht, regexp.MustCompile(`(?i)\bTOTAL\b\s*[:#]?\s*(\d{1,5}[.,]\d{2})`),
			},
		},
	}
}

// NormalizeLine uppercases and trims a receipt line for marker comparison.
func NormalizeLine(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}
