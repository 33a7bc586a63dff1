package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptscan/internal/config"
	"receiptscan/pkg/models"
)

func extraction(engine string, total float64, valid bool, items ...models.ExtractedItem) *models.ReceiptExtraction {
	return &models.ReceiptExtraction{
		Success:    true,
		Confidence: 0.8,
		Total:      total,
		Items:      items,
		Metadata:   models.ExtractionMetadata{Engine: engine},
		Validation: &models.TotalValidationResult{Valid: valid, OCRTotal: total},
	}
}

func item(name string, price, qty, conf float64) models.ExtractedItem {
	return models.ExtractedItem{
		Name:           name,
		NormalizedName: name,
		Price:          price,
		Quantity:       qty,
		Confidence:     conf,
	}
}

func TestReconcileMissingItem(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 2.50, true,
		item("БАНАНИ", 2.50, 1, 0.9),
	)
	b := extraction("openai", 3.70, true,
		item("БАНАНИ", 2.50, 1, 0.85),
		item("ХЛЯБ", 1.20, 1, 0.8),
	)

	res := r.Reconcile(a, b)

	require.Len(t, res.FinalItems, 2)
	assert.InDelta(t, 3.70, res.FinalTotal, 0.001)
	assert.True(t, res.NeedsManualReview)

	missing := discrepanciesOfType(res.Discrepancies, models.DiscrepancyMissingItem)
	require.Len(t, missing, 1)
	assert.Equal(t, "ХЛЯБ", missing[0].ItemName)

	banana := res.FinalItems[0]
	assert.Equal(t, "БАНАНИ", banana.NormalizedName)
	assert.Equal(t, "reconciled", banana.Source)

	bread := res.FinalItems[1]
	assert.Equal(t, "ХЛЯБ", bread.NormalizedName)
	assert.Equal(t, "openai", bread.Source)
}

func TestReconcileDropsLowConfidenceSecondaryItems(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 2.50, true,
		item("БАНАНИ", 2.50, 1, 0.9),
	)
	b := extraction("openai", 2.50, true,
		item("БАНАНИ", 2.50, 1, 0.85),
		item("Ш М", 0.50, 1, 0.3),
	)

	res := r.Reconcile(a, b)

	require.Len(t, res.FinalItems, 1)
	assert.Equal(t, "БАНАНИ", res.FinalItems[0].NormalizedName)
	assert.Empty(t, res.Discrepancies)
}

func TestReconcileKeepsUnmatchedPrimaryItems(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 3.70, true,
		item("БАНАНИ", 2.50, 1, 0.9),
		item("ХЛЯБ", 1.20, 1, 0.3),
	)
	b := extraction("openai", 3.70, true,
		item("БАНАНИ", 2.50, 1, 0.85),
	)

	res := r.Reconcile(a, b)

	// The primary extraction's items survive regardless of confidence.
	require.Len(t, res.FinalItems, 2)
	assert.Empty(t, res.Discrepancies)
	assert.False(t, res.NeedsManualReview)

	bread := res.FinalItems[1]
	assert.Equal(t, "ХЛЯБ", bread.NormalizedName)
	assert.Equal(t, "vision", bread.Source)
}

func TestReconcilePriceMismatch(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 7.49, true, item("СЛАДОЛЕД", 7.49, 1, 0.7))
	b := extraction("openai", 7.49, true, item("СЛАДОЛЕД", 7.19, 1, 0.9))

	res := r.Reconcile(a, b)

	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, models.DiscrepancyPriceMismatch, res.Discrepancies[0].Type)

	// Higher-confidence side wins the merged item.
	require.Len(t, res.FinalItems, 1)
	assert.InDelta(t, 7.19, res.FinalItems[0].Price, 0.001)
	assert.Equal(t, "reconciled", res.FinalItems[0].Source)

	// 0.30 difference is under the manual-review delta.
	assert.False(t, res.NeedsManualReview)
}

func TestReconcileLargePriceGapNeedsReview(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 7.49, true, item("СЛАДОЛЕД", 7.49, 1, 0.7))
	b := extraction("openai", 1.49, true, item("СЛАДОЛЕД", 1.49, 1, 0.9))

	res := r.Reconcile(a, b)
	assert.True(t, res.NeedsManualReview)
}

func TestReconcileQuantityDiff(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 14.98, true, item("СЛАДОЛЕД", 7.49, 2, 0.8))
	b := extraction("openai", 14.98, true, item("СЛАДОЛЕД", 7.49, 1, 0.8))

	res := r.Reconcile(a, b)

	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, models.DiscrepancyQuantityDiff, res.Discrepancies[0].Type)
}

func TestReconcileTotalMismatch(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 10.00, true, item("БАНАНИ", 2.50, 1, 0.9))
	b := extraction("openai", 10.00, true, item("БАНАНИ", 2.50, 1, 0.9))

	res := r.Reconcile(a, b)

	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, models.DiscrepancyTotalMismatch, res.Discrepancies[0].Type)
	assert.InDelta(t, 2.50, res.FinalTotal, 0.001)
	assert.True(t, res.NeedsManualReview)
}

func TestReconcileIsDeterministic(t *testing.T) {
	r := New(config.DefaultThresholds())

	a := extraction("vision", 3.70, true,
		item("БАНАНИ", 2.50, 1, 0.9),
		item("ХЛЯБ", 1.20, 1, 0.8),
	)
	b := extraction("openai", 3.70, true,
		item("ХЛЯБ", 1.20, 1, 0.9),
		item("БАНАНИ", 2.55, 1, 0.7),
	)

	first := r.Reconcile(a, b)
	second := r.Reconcile(a, b)
	assert.Equal(t, first, second)
}

func TestReconcileAgreementBonus(t *testing.T) {
	r := New(config.DefaultThresholds())

	items := []models.ExtractedItem{
		item("БАНАНИ", 2.50, 1, 0.8),
		item("ХЛЯБ", 1.20, 1, 0.8),
	}
	a := extraction("vision", 3.70, true, items...)
	b := extraction("openai", 3.70, true, items...)

	res := r.Reconcile(a, b)

	assert.Empty(t, res.Discrepancies)
	assert.InDelta(t, 0.9, res.ReconciliationConfidence, 0.001)
	assert.False(t, res.NeedsManualReview)
}

func TestSingle(t *testing.T) {
	r := New(config.DefaultThresholds())

	e := extraction("vision", 3.70, true,
		item("БАНАНИ", 2.50, 1, 0.9),
		item("ХЛЯБ", 1.20, 1, 0.8),
	)

	res := r.Single(e)

	require.Len(t, res.FinalItems, 2)
	assert.InDelta(t, 3.70, res.FinalTotal, 0.001)
	assert.Equal(t, "vision", res.FinalItems[0].Source)
	assert.False(t, res.NeedsManualReview)
}

func TestSingleInvalidTotalNeedsReview(t *testing.T) {
	r := New(config.DefaultThresholds())

	e := extraction("vision", 10.00, false, item("БАНАНИ", 2.50, 1, 0.9))
	res := r.Single(e)
	assert.True(t, res.NeedsManualReview)
}

func discrepanciesOfType(ds []models.Discrepancy, typ models.DiscrepancyType) []models.Discrepancy {
	var out []models.Discrepancy
	for _, d := range ds {
		if d.Type == typ {
			out = append(out, d)
		}
	}
	return out
}
