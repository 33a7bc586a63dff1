package numfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	bg := DefaultBG()

	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"decimal comma", "15,40", 15.40},
		{"decimal dot", "15.40", 15.40},
		{"currency suffix cyrillic", "15.40 лв", 15.40},
		{"currency suffix latin", "15.40 lv", 15.40},
		{"currency code", "15,40 BGN", 15.40},
		{"single trailing decimal digit", "7,5", 7.5},
		{"thousands comma", "1,500", 1500},
		{"thousands comma with decimal dot", "1,234.56", 1234.56},
		{"thousands dot with decimal comma", "1.234,56", 1234.56},
		{"space grouping with decimal comma", "1 234,56", 1234.56},
		{"space before comma forces decimal", "12 ,345", 12.345},
		{"integer", "42", 42},
		{"negative", "-3,20", -3.20},
		{"ocr letter noise", "I5,40", 5.40},
		{"empty", "", 0},
		{"garbage", "прясно мляко", 0},
		{"separators only", ",.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseNumber(tt.raw, bg), 0.0001)
		})
	}
}

func TestParseNumberNeverPanics(t *testing.T) {
	bg := DefaultBG()
	for _, raw := range []string{",,,,", "...", " , . ", "лв", "--5", "1,2,3,4"} {
		assert.NotPanics(t, func() { ParseNumber(raw, bg) })
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	formats := []NumberFormat{
		DefaultBG(),
		{DecimalSeparator: ".", CurrencySymbol: "лв", SymbolAfterAmount: true},
		{DecimalSeparator: ",", CurrencySymbol: ""},
	}
	values := []float64{0, 0.01, 1.20, 2.50, 15.40, 99.99, 1234.56}

	for _, f := range formats {
		for _, v := range values {
			got := ParseNumber(FormatNumber(v, f), f)
			assert.InDelta(t, v, got, 0.001, "format %+v value %v", f, v)
		}
	}
}
