// Package reconcile merges two independent extractions of the same receipt
// into a single result with explicit discrepancies.
//
// Reconciliation is deterministic: the same two inputs always produce the
// same merged item list, discrepancies and confidence, regardless of which
// engine finished first. Extraction A is the primary (stronger) source;
// its unmatched items are trusted as-is, while items only B saw must clear
// a confidence floor.
package reconcile

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"receiptscan/internal/config"
	"receiptscan/internal/logger"
	"receiptscan/pkg/models"
)

// sourceReconciled tags items confirmed by both engines.
const sourceReconciled = "reconciled"

// Reconciler merges extraction pairs under configured thresholds.
type Reconciler struct {
	th  config.Thresholds
	log zerolog.Logger
}

// New creates a Reconciler.
func New(th config.Thresholds) *Reconciler {
	return &Reconciler{th: th, log: logger.WithComponent("reconcile")}
}

// Single wraps one extraction as a reconciliation result, for runs where
// only one engine produced output.
func (r *Reconciler) Single(e *models.ReceiptExtraction) *models.ReconciliationResult {
	items := dedupe(append([]models.ExtractedItem{}, e.Items...))
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = e.Metadata.Engine
		}
	}
	return &models.ReconciliationResult{
		FinalItems:               items,
		FinalTotal:               finalTotal(items, e.Total),
		ReconciliationConfidence: e.Confidence,
		NeedsManualReview:        !e.Success || (e.Validation != nil && !e.Validation.Valid),
	}
}

// Reconcile merges extractions a and b. Items are matched by normalized
// name: matched pairs keep the higher-confidence version, items only b saw
// survive above a confidence floor, and unmatched items from a are kept
// as-is (a is the stronger extraction by the caller's ranking).
func (r *Reconciler) Reconcile(a, b *models.ReceiptExtraction) *models.ReconciliationResult {
	var items []models.ExtractedItem
	var discrepancies []models.Discrepancy

	aByName := make(map[string]int, len(a.Items))
	for i := range a.Items {
		key := normalizedKey(&a.Items[i])
		if _, seen := aByName[key]; !seen {
			aByName[key] = i
		}
	}
	aMatched := make(map[int]bool, len(a.Items))

	for i := range b.Items {
		bi := b.Items[i]
		ai, ok := aByName[normalizedKey(&bi)]
		if !ok || aMatched[ai] {
			// Only B saw this item; keep it when B was confident.
			if bi.Confidence > r.th.MissingItemMinConfidence {
				bi.Source = b.Metadata.Engine
				items = append(items, bi)
				discrepancies = append(discrepancies, models.Discrepancy{
					Type:        models.DiscrepancyMissingItem,
					ItemName:    bi.Name,
					ValueB:      bi.Price,
					Description: fmt.Sprintf("%q extracted by %s only", bi.Name, engineLabel(b)),
				})
			}
			continue
		}
		aMatched[ai] = true
		aItem := a.Items[ai]

		if math.Abs(aItem.Price-bi.Price) > r.th.PriceMismatchDelta {
			discrepancies = append(discrepancies, models.Discrepancy{
				Type:        models.DiscrepancyPriceMismatch,
				ItemName:    aItem.Name,
				ValueA:      aItem.Price,
				ValueB:      bi.Price,
				Description: fmt.Sprintf("%q priced %.2f by %s and %.2f by %s", aItem.Name, aItem.Price, engineLabel(a), bi.Price, engineLabel(b)),
			})
		}
		if math.Abs(aItem.Quantity-bi.Quantity) > r.th.QuantityDiffDelta {
			discrepancies = append(discrepancies, models.Discrepancy{
				Type:        models.DiscrepancyQuantityDiff,
				ItemName:    aItem.Name,
				ValueA:      aItem.Quantity,
				ValueB:      bi.Quantity,
				Description: fmt.Sprintf("%q quantity %.3f vs %.3f", aItem.Name, aItem.Quantity, bi.Quantity),
			})
		}

		winner := aItem
		if bi.Confidence > aItem.Confidence {
			winner = bi
		}
		winner.Source = sourceReconciled
		items = append(items, winner)
	}

	// Unmatched items from A are trusted as-is, in A's order.
	for i := range a.Items {
		if aMatched[i] {
			continue
		}
		ai := a.Items[i]
		ai.Source = a.Metadata.Engine
		items = append(items, ai)
	}

	items = dedupe(items)
	total := finalTotal(items, pickPrintedTotal(a, b))

	for _, src := range []*models.ReceiptExtraction{a, b} {
		if src.Total > 0 && math.Abs(total-src.Total) > r.th.TotalMismatchDelta {
			discrepancies = append(discrepancies, models.Discrepancy{
				Type:        models.DiscrepancyTotalMismatch,
				ValueA:      total,
				ValueB:      src.Total,
				Description: fmt.Sprintf("merged items sum to %.2f but %s read a printed total of %.2f", total, engineLabel(src), src.Total),
			})
			break
		}
	}

	sortDiscrepancies(discrepancies)

	res := &models.ReconciliationResult{
		FinalItems:               items,
		FinalTotal:               total,
		Discrepancies:            discrepancies,
		ReconciliationConfidence: r.mergedConfidence(a, b, len(items), discrepancies),
		NeedsManualReview:        r.needsReview(a, b, items, discrepancies),
	}

	r.log.Debug().
		Int("items", len(items)).
		Int("discrepancies", len(discrepancies)).
		Float64("final_total", res.FinalTotal).
		Bool("manual_review", res.NeedsManualReview).
		Msg("extractions reconciled")

	return res
}

// finalTotal prefers the printed total when it agrees with the merged item
// sum, otherwise the recomputed sum.
func finalTotal(items []models.ExtractedItem, printed float64) float64 {
	sum := 0.0
	for i := range items {
		sum += items[i].LineTotal()
	}
	sum = math.Round(sum*100) / 100
	if printed > 0 && math.Abs(sum-printed) <= 0.01 {
		return printed
	}
	if sum > 0 {
		return sum
	}
	return printed
}

// pickPrintedTotal takes the printed total from the more trustworthy
// extraction: a validated total wins, then the higher-confidence one.
func pickPrintedTotal(a, b *models.ReceiptExtraction) float64 {
	aValid := a.Validation != nil && a.Validation.Valid && a.Total > 0
	bValid := b.Validation != nil && b.Validation.Valid && b.Total > 0
	switch {
	case aValid && !bValid:
		return a.Total
	case bValid && !aValid:
		return b.Total
	case a.Total > 0 && (b.Total == 0 || a.Confidence >= b.Confidence):
		return a.Total
	default:
		return b.Total
	}
}

// mergedConfidence starts from the mean of both extraction confidences,
// subtracts a capped penalty per discrepancy and grants a small agreement
// bonus when discrepancies touch under 10% of the merged items.
func (r *Reconciler) mergedConfidence(a, b *models.ReceiptExtraction, itemCount int, discrepancies []models.Discrepancy) float64 {
	conf := (a.Confidence + b.Confidence) / 2
	conf -= math.Min(0.1*float64(len(discrepancies)), 0.5)
	if itemCount > 0 && float64(len(discrepancies)) < 0.1*float64(itemCount) {
		conf += 0.1
	}
	return clamp01(conf)
}

// needsReview flags results a human should look at before the data is used.
func (r *Reconciler) needsReview(a, b *models.ReceiptExtraction, items []models.ExtractedItem, discrepancies []models.Discrepancy) bool {
	for _, d := range discrepancies {
		switch d.Type {
		case models.DiscrepancyMissingItem, models.DiscrepancyTotalMismatch:
			return true
		case models.DiscrepancyPriceMismatch:
			if math.Abs(d.ValueA-d.ValueB) > r.th.ManualReviewPriceDelta {
				return true
			}
		}
	}
	if len(items) == 0 {
		return true
	}
	aInvalid := a.Validation != nil && !a.Validation.Valid
	bInvalid := b.Validation != nil && !b.Validation.Valid
	return aInvalid && bInvalid
}

// sortDiscrepancies fixes the report order: by type, then item name.
func sortDiscrepancies(ds []models.Discrepancy) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Type != ds[j].Type {
			return ds[i].Type < ds[j].Type
		}
		return ds[i].ItemName < ds[j].ItemName
	})
}

// dedupe drops repeated (normalized name, price) pairs keeping the first.
func dedupe(items []models.ExtractedItem) []models.ExtractedItem {
	type key struct {
		name  string
		price float64
	}
	seen := make(map[key]bool, len(items))
	out := items[:0]
	for _, it := range items {
		k := key{normalizedKey(&it), it.Price}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

var (
	nonNameRunes  = regexp.MustCompile(`[^\p{Cyrillic}\p{Latin}0-9 ]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// normalizedKey is the matching key for an item. Extractions parsed in this
// process already carry a normalized name; replayed JSON may not.
func normalizedKey(it *models.ExtractedItem) string {
	if it.NormalizedName != "" {
		return it.NormalizedName
	}
	s := strings.ToUpper(strings.TrimSpace(it.Name))
	s = nonNameRunes.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func engineLabel(e *models.ReceiptExtraction) string {
	if e.Metadata.Engine != "" {
		return e.Metadata.Engine
	}
	return "unknown engine"
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
