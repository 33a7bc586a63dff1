package products

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
)

// MatchType describes which matching tier produced a recognition result.
type MatchType string

const (
	MatchExact       MatchType = "exact"
	MatchAlternative MatchType = "alternative"
	MatchKeyword     MatchType = "keyword"
	MatchFuzzy       MatchType = "fuzzy"
	MatchNone        MatchType = "none"
)

// Recognition tier confidences.
const (
	confExact       = 0.95
	confAlternative = 0.85
	confKeyword     = 0.75
	confFuzzy       = 0.65
)

// Match is the result of recognizing a product name.
type Match struct {
	Product    *Product
	Confidence float64
	MatchType  MatchType
}

// PriceCheck is the result of validating a price against a product's
// registered range.
type PriceCheck struct {
	Valid       bool
	Confidence  float64
	Explanation string
}

// Catalog is the read-only product knowledge base.
type Catalog struct {
	products []Product
	byName   map[string]int
	byCat    map[string][]string
}

// NewCatalog builds the static Bulgarian product catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		products: builtinProducts(),
		byName:   make(map[string]int),
		byCat:    categoryKeywords(),
	}
	for i := range c.products {
		c.byName[normalizeName(c.products[i].Name)] = i
	}
	return c
}

// Recognize matches a noisy OCR product name against the catalog. Tiers are
// tried in order: exact name, alternative-name substring, keyword substring,
// Levenshtein distance <= 1 against known misspellings. A miss returns a nil
// product at confidence 0.
func (c *Catalog) Recognize(name string) Match {
	n := normalizeName(name)
	if n == "" {
		return Match{MatchType: MatchNone}
	}

	if i, ok := c.byName[n]; ok {
		return Match{Product: &c.products[i], Confidence: confExact, MatchType: MatchExact}
	}

	for i := range c.products {
		for _, alt := range c.products[i].Alternatives {
			a := normalizeName(alt)
			if n == a || strings.Contains(n, a) || strings.Contains(a, n) {
				return Match{Product: &c.products[i], Confidence: confAlternative, MatchType: MatchAlternative}
			}
		}
	}

	for i := range c.products {
		for _, kw := range c.products[i].Keywords {
			if strings.Contains(n, normalizeName(kw)) {
				return Match{Product: &c.products[i], Confidence: confKeyword, MatchType: MatchKeyword}
			}
		}
	}

	for i := range c.products {
		for _, miss := range c.products[i].Misspellings {
			if levenshtein.Distance(n, normalizeName(miss), nil) <= 1 {
				return Match{Product: &c.products[i], Confidence: confFuzzy, MatchType: MatchFuzzy}
			}
		}
	}

	return Match{MatchType: MatchNone}
}

// Categorize assigns a category to a product name, degrading from keyword
// tables to recognition-based fallback to "Other".
func (c *Catalog) Categorize(name string) string {
	n := normalizeName(name)
	if n == "" {
		return CategoryOther
	}

	for _, cat := range []string{
		CategoryDairy, CategoryBakery, CategoryProduce, CategoryMeat,
		CategoryBeverages, CategorySweets, CategoryPantry, CategoryHousehold,
	} {
		for _, kw := range c.byCat[cat] {
			if strings.Contains(n, kw) {
				return cat
			}
		}
	}

	if m := c.Recognize(n); m.Product != nil {
		return m.Product.Category
	}

	return CategoryOther
}

// ValidatePrice checks a parsed unit price against the recognized product's
// registered range. A product with no registered range is never marked
// invalid: that is insufficient evidence, not contradicting evidence.
func (c *Catalog) ValidatePrice(name string, price float64) PriceCheck {
	m := c.Recognize(name)
	if m.Product == nil || (m.Product.MinPrice == 0 && m.Product.MaxPrice == 0) {
		return PriceCheck{
			Valid:       true,
			Confidence:  0.5,
			Explanation: "no registered price range for product",
		}
	}

	p := m.Product
	if price >= p.MinPrice && price <= p.MaxPrice {
		return PriceCheck{
			Valid:       true,
			Confidence:  0.9,
			Explanation: fmt.Sprintf("price %.2f within expected range [%.2f, %.2f] for %s", price, p.MinPrice, p.MaxPrice, p.Name),
		}
	}

	// Within 50% of the range boundary: plausible, reduced confidence.
	if price >= p.MinPrice*0.5 && price <= p.MaxPrice*1.5 {
		return PriceCheck{
			Valid:       true,
			Confidence:  0.6,
			Explanation: fmt.Sprintf("price %.2f near expected range [%.2f, %.2f] for %s", price, p.MinPrice, p.MaxPrice, p.Name),
		}
	}

	return PriceCheck{
		Valid:       false,
		Confidence:  0.2,
		Explanation: fmt.Sprintf("price %.2f outside expected range [%.2f, %.2f] for %s", price, p.MinPrice, p.MaxPrice, p.Name),
	}
}
