// Package store holds the registry of known Bulgarian retailer receipt
// layouts.
//
// Each registered format carries the retailer detection regex, layout hints
// for locating the item section, the retailer's number format and an ordered
// list of item patterns. Patterns are evaluated in priority order with a
// first-match-wins contract, which keeps the registry data-driven and
// testable per retailer. The registry is immutable after construction and
// safe for concurrent use.
package store

import (
	"regexp"

	"receiptscan/internal/numfmt"
)

// Type identifies a registered retailer layout.
type Type string

const (
	Kaufland   Type = "kaufland"
	Lidl       Type = "lidl"
	Billa      Type = "billa"
	Fantastico Type = "fantastico"
	TMarket    Type = "tmarket"
	Metro      Type = "metro"
	Generic    Type = "generic"
)

// Layout describes where the item section sits inside a receipt.
type Layout struct {
	// HeaderLines / FooterLines bound the item section when no explicit
	// markers are found.
	HeaderLines int
	FooterLines int

	// ItemSectionStart / ItemSectionEnd are substrings (uppercased) that
	// mark the item section boundaries when present.
	ItemSectionStart []string
	ItemSectionEnd   []string
}

// ItemPattern is one way a retailer prints an item line. Group indices
// declare which capture groups carry each field; 0 means the pattern does not
// capture that field. Description is for debugging output only.
type ItemPattern struct {
	Pattern       *regexp.Regexp
	NameGroup     int
	PriceGroup    int
	QuantityGroup int
	BarcodeGroup  int
	Description   string
}

// Format is one retailer's registered receipt profile.
type Format struct {
	Type          Type
	Name          string
	Detection     *regexp.Regexp
	Layout        Layout
	Numbers       numfmt.NumberFormat
	ItemPatterns  []ItemPattern
	TotalPatterns []*regexp.Regexp
}
