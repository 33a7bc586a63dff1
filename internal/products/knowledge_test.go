package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeTiers(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		name      string
		input     string
		matchType MatchType
		conf      float64
		product   string
	}{
		{"exact", "ХЛЯБ", MatchExact, 0.95, "ХЛЯБ"},
		{"exact case and spacing", "  прясно   мляко ", MatchExact, 0.95, "ПРЯСНО МЛЯКО"},
		{"alternative substring", "ХЛЯБ ДОБРУДЖА 650Г", MatchAlternative, 0.85, "ХЛЯБ"},
		{"keyword substring", "НАТУРАЛЕН ШОКОЛАД 90Г", MatchKeyword, 0.75, "ШОКОЛАД"},
		{"fuzzy misspelling", "ХЛЕБ", MatchFuzzy, 0.65, "ХЛЯБ"},
		{"fuzzy one edit from misspelling", "МЛEК0", MatchFuzzy, 0.65, "ПРЯСНО МЛЯКО"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := c.Recognize(tt.input)
			require.NotNil(t, m.Product, "expected a match for %q", tt.input)
			assert.Equal(t, tt.matchType, m.MatchType)
			assert.Equal(t, tt.conf, m.Confidence)
			assert.Equal(t, tt.product, m.Product.Name)
		})
	}
}

func TestRecognizeMiss(t *testing.T) {
	c := NewCatalog()
	m := c.Recognize("Ж�° 47#СТ")
	assert.Nil(t, m.Product)
	assert.Equal(t, MatchNone, m.MatchType)
	assert.Zero(t, m.Confidence)
}

func TestCategorize(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, CategoryDairy, c.Categorize("КАШКАВАЛ ВИТОША 400Г"))
	assert.Equal(t, CategoryProduce, c.Categorize("КАРТОФИ КГ"))
	assert.Equal(t, CategoryBeverages, c.Categorize("АЙРЯН 500МЛ"))
	assert.Equal(t, CategoryHousehold, c.Categorize("ПРЕПАРАТ ЗА СЪДОВЕ"))
	assert.Equal(t, CategoryOther, c.Categorize("НЕПОЗНАТ АРТИКУЛ"))
}

func TestValidatePrice(t *testing.T) {
	c := NewCatalog()

	inRange := c.ValidatePrice("ХЛЯБ", 1.50)
	assert.True(t, inRange.Valid)
	assert.Equal(t, 0.9, inRange.Confidence)

	nearRange := c.ValidatePrice("ХЛЯБ", 4.80) // max 3.50, within 50% of boundary
	assert.True(t, nearRange.Valid)
	assert.Equal(t, 0.6, nearRange.Confidence)

	farOut := c.ValidatePrice("ХЛЯБ", 25.00)
	assert.False(t, farOut.Valid)

	belowNear := c.ValidatePrice("ХЛЯБ", 0.50) // min 0.80, within 50% of boundary
	assert.True(t, belowNear.Valid)

	// Unregistered products are never invalid: insufficient evidence.
	unknown := c.ValidatePrice("НЕПОЗНАТ АРТИКУЛ", 999.99)
	assert.True(t, unknown.Valid)
	assert.Equal(t, 0.5, unknown.Confidence)
}
