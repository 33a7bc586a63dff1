package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptscan/internal/config"
	"receiptscan/internal/products"
	"receiptscan/internal/store"
	"receiptscan/pkg/models"
)

func newTestParser() *Parser {
	return New(store.NewRegistry(), products.NewCatalog(), config.DefaultThresholds())
}

const kauflandReceipt = `КАУФЛАНД БЪЛГАРИЯ ЕООД
СОФИЯ БУЛ ЧЕРНИ ВРЪХ 32
ЕИК 131129282
26.08.2026 14:32
КАСОВ БОН
Сладолед Мини Класик
2.000 x 7.49
14.98 G
ХЛЯБ ДОБРУДЖА    1.20 Б
ОБЩА СУМА 16.18
В БРОЙ 20.00
РЕСТО 3.82
ФИСКАЛЕН БОН`

func TestParseKauflandReceipt(t *testing.T) {
	p := newTestParser()
	ext := p.Parse(kauflandReceipt)

	require.True(t, ext.Success)
	assert.Equal(t, "Кауфланд", ext.Retailer)
	assert.Equal(t, "2026-08-26", ext.Date)
	assert.InDelta(t, 16.18, ext.Total, 0.001)

	require.Len(t, ext.Items, 2)

	ice := findItem(t, ext.Items, "СЛАДОЛЕД МИНИ КЛАСИК")
	assert.InDelta(t, 7.49, ice.Price, 0.001)
	assert.InDelta(t, 2.0, ice.Quantity, 0.001)
	assert.Contains(t, ice.QualityFlags, models.FlagMultiLine)

	bread := findItem(t, ext.Items, "ХЛЯБ ДОБРУДЖА")
	assert.InDelta(t, 1.20, bread.Price, 0.001)
	assert.InDelta(t, 1.0, bread.Quantity, 0.001)

	require.NotNil(t, ext.Validation)
	assert.True(t, ext.Validation.Valid)
	assert.InDelta(t, 16.18, ext.Validation.CalculatedTotal, 0.001)
	assert.Greater(t, ext.Confidence, 0.7)
}

func TestParseRejectsInconsistentMultiLineItem(t *testing.T) {
	p := newTestParser()
	text := strings.Join([]string{
		"МАГАЗИН ЦЕНТЪР",
		"ГР СОФИЯ",
		"ЕИК 123456789",
		"Прясно Мляко",
		"2.000 x 7.49",
		"20.00 G",
		"ОБЩО 20.00",
		"В БРОЙ 20.00",
		"РЕСТО 0.00",
		"ФИСКАЛЕН БОН",
		"БЛАГОДАРИМ ВИ",
	}, "\n")

	ext := p.Parse(text)

	for _, it := range ext.Items {
		assert.NotContains(t, it.QualityFlags, models.FlagMultiLine,
			"quantity math 2 x 7.49 != 20.00 must reject the merge")
		assert.NotEqual(t, "ПРЯСНО МЛЯКО", it.NormalizedName)
	}
}

func TestParseGenericStore(t *testing.T) {
	p := newTestParser()
	text := strings.Join([]string{
		"МАГАЗИН ЦЕНТЪР",
		"ГР СОФИЯ",
		"ЕИК 123456789",
		"КАСОВ БОН",
		"БАНАНИ 3.20",
		"ХЛЯБ БЯЛ 1.20",
		"ОБЩО 4.40",
		"В БРОЙ 5.00",
		"РЕСТО 0.60",
		"ФИСКАЛЕН БОН",
		"БЛАГОДАРИМ ВИ",
	}, "\n")

	ext := p.Parse(text)

	require.True(t, ext.Success)
	assert.Empty(t, ext.Retailer)
	assert.InDelta(t, 4.40, ext.Total, 0.001)
	require.Len(t, ext.Items, 2)
	require.NotNil(t, ext.Validation)
	assert.True(t, ext.Validation.Valid)

	assert.True(t, hasIssue(ext.QualityIssues, models.IssueStoreUnclear))
	assert.True(t, hasIssue(ext.QualityIssues, models.IssueDateUnclear))
	assert.Equal(t, time.Now().Format("2006-01-02"), ext.Date)
}

func TestParseFlagsLargeTotalDisagreement(t *testing.T) {
	p := newTestParser()
	text := strings.Join([]string{
		"МАГАЗИН ЦЕНТЪР",
		"ГР СОФИЯ",
		"ЕИК 123456789",
		"КАСОВ БОН",
		"БАНАНИ 3.20",
		"ХЛЯБ БЯЛ 1.20",
		"ОБЩО 10.00",
		"В БРОЙ 10.00",
		"РЕСТО 0.00",
		"ФИСКАЛЕН БОН",
		"БЛАГОДАРИМ ВИ",
	}, "\n")

	ext := p.Parse(text)

	require.NotNil(t, ext.Validation)
	assert.False(t, ext.Validation.Valid)
	assert.Greater(t, ext.Validation.PercentageDiff, 20.0)

	require.True(t, hasIssue(ext.QualityIssues, models.IssuePriceInconsistency))
	for _, iss := range ext.QualityIssues {
		if iss.Type == models.IssuePriceInconsistency {
			assert.Equal(t, models.SeverityCritical, iss.Severity)
		}
	}
}

func TestExtractTotalLabelOnSeparateLine(t *testing.T) {
	p := newTestParser()
	ext := p.Parse("ОБЩА СУМА\n15,40")
	assert.InDelta(t, 15.40, ext.Total, 0.001)
}

func TestExtractTotalSameLineWithCurrency(t *testing.T) {
	p := newTestParser()
	ext := p.Parse("ОБЩО 15.40 лв")
	assert.InDelta(t, 15.40, ext.Total, 0.001)
}

func TestExtractTotalFallbackScansWholeText(t *testing.T) {
	p := newTestParser()
	text := strings.Join([]string{
		"24.08.2026 10:15",
		"15.40",
		"нечетлива зона",
		"БАНАНИ 3.20",
	}, "\n")

	ext := p.Parse(text)
	assert.InDelta(t, 15.40, ext.Total, 0.001,
		"with no label the largest price anywhere in the text wins, date stripped")
}

func TestParseEmptyText(t *testing.T) {
	p := newTestParser()
	ext := p.Parse("")

	assert.False(t, ext.Success)
	assert.Empty(t, ext.Items)
	assert.Zero(t, ext.Total)

	require.NotNil(t, ext.Validation)
	assert.False(t, ext.Validation.Valid)
	assert.InDelta(t, 100.0, ext.Validation.PercentageDiff, 0.001)

	require.True(t, hasIssue(ext.QualityIssues, models.IssueMissingTotal))
	for _, iss := range ext.QualityIssues {
		if iss.Type == models.IssueMissingTotal {
			assert.Equal(t, models.SeverityHigh, iss.Severity)
		}
	}
}

func TestParseIsDeterministic(t *testing.T) {
	p := newTestParser()
	a := p.Parse(kauflandReceipt)
	b := p.Parse(kauflandReceipt)
	assert.Equal(t, a.Confidence, b.Confidence)
	assert.Equal(t, a.Items, b.Items)
	assert.Equal(t, a.Total, b.Total)
}

func TestValidateTotal(t *testing.T) {
	th := config.DefaultThresholds()
	items := []models.ExtractedItem{
		{Name: "БАНАНИ", Price: 2.50, Quantity: 1},
		{Name: "ХЛЯБ", Price: 1.20, Quantity: 1},
	}

	t.Run("exact match", func(t *testing.T) {
		res := ValidateTotal(items, 3.70, th)
		assert.True(t, res.Valid)
		assert.Zero(t, res.Difference)
	})

	t.Run("within tolerance", func(t *testing.T) {
		res := ValidateTotal(items, 3.80, th)
		assert.True(t, res.Valid)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		res := ValidateTotal(items, 10.00, th)
		assert.False(t, res.Valid)
	})

	t.Run("missing total", func(t *testing.T) {
		res := ValidateTotal(nil, 0, th)
		assert.False(t, res.Valid)
		assert.InDelta(t, 100.0, res.PercentageDiff, 0.001)
	})
}

func TestItemConfidenceBounds(t *testing.T) {
	p := newTestParser()
	ext := p.Parse(kauflandReceipt)
	for _, it := range ext.Items {
		assert.GreaterOrEqual(t, it.Confidence, 0.1)
		assert.LessOrEqual(t, it.Confidence, 1.0)
	}
}

func findItem(t *testing.T, items []models.ExtractedItem, normalized string) models.ExtractedItem {
	t.Helper()
	for _, it := range items {
		if it.NormalizedName == normalized {
			return it
		}
	}
	t.Fatalf("item %q not found", normalized)
	return models.ExtractedItem{}
}

func hasIssue(issues []models.QualityIssue, typ models.QualityIssueType) bool {
	for _, iss := range issues {
		if iss.Type == typ {
			return true
		}
	}
	return false
}
