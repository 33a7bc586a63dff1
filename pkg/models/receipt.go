// Package models defines the data types exchanged between the extraction,
// validation and reconciliation stages of the receipt pipeline.
//
// Every external OCR/AI response is mapped into these types at the adapter
// boundary; nothing untyped crosses a package border. Extraction values are
// created once per (image, engine) run and are read-only inputs to the
// reconciliation stage.
package models

import "time"

// QualityIssueType classifies a non-fatal extraction problem.
type QualityIssueType string

const (
	IssueMissingTotal       QualityIssueType = "missing_total"
	IssuePriceInconsistency QualityIssueType = "price_inconsistency"
	IssueItemMismatch       QualityIssueType = "item_mismatch"
	IssueUnclearText        QualityIssueType = "unclear_text"
	IssueDateUnclear        QualityIssueType = "date_unclear"
	IssueStoreUnclear       QualityIssueType = "store_unclear"
)

// Severity grades how urgently a quality issue needs human attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// QualityIssue is a structured, non-fatal signal that part of an extraction
// should be reviewed by a human. Issues never block returning a result.
type QualityIssue struct {
	Type            QualityIssueType `json:"type"`
	Severity        Severity         `json:"severity"`
	Description     string           `json:"description"`
	AffectedItems   []string         `json:"affected_items,omitempty"`
	SuggestedAction string           `json:"suggested_action"`
}

// ItemQualityFlag marks a per-item extraction concern.
type ItemQualityFlag string

const (
	FlagShortName       ItemQualityFlag = "short_name"
	FlagPriceOutOfRange ItemQualityFlag = "price_out_of_range"
	FlagOCRArtifacts    ItemQualityFlag = "ocr_artifacts"
	FlagRecognized      ItemQualityFlag = "recognized_product"
	FlagMultiLine       ItemQualityFlag = "multi_line"
)

// ExtractedItem is a single purchased line item parsed from receipt text.
// Price is the unit price; the line total is Price * Quantity by convention.
type ExtractedItem struct {
	Name           string            `json:"name"`
	NormalizedName string            `json:"normalized_name"`
	OriginalText   string            `json:"original_text"`
	Price          float64           `json:"price"`
	Quantity       float64           `json:"quantity"`
	Unit           string            `json:"unit,omitempty"`
	Barcode        string            `json:"barcode,omitempty"`
	Category       string            `json:"category,omitempty"`
	Confidence     float64           `json:"confidence"`
	QualityFlags   []ItemQualityFlag `json:"quality_flags,omitempty"`
	LineNumber     int               `json:"line_number"`

	// Source tags provenance after reconciliation: the producing engine's
	// name, or "reconciled" when the item survived a cross-engine match.
	Source string `json:"source,omitempty"`
}

// LineTotal returns the item's contribution to the receipt total.
func (it *ExtractedItem) LineTotal() float64 {
	return it.Price * it.Quantity
}

// ExtractionMetadata records how an extraction was produced.
type ExtractionMetadata struct {
	RunID       string        `json:"run_id"`
	Engine      string        `json:"engine"`
	EngineConf  float64       `json:"engine_confidence,omitempty"`
	VariantName string        `json:"variant_name,omitempty"`
	VariantOps  []string      `json:"variant_ops,omitempty"`
	Duration    time.Duration `json:"duration"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// TotalValidationResult is the outcome of cross-checking the printed receipt
// total against the sum of parsed line items.
type TotalValidationResult struct {
	CalculatedTotal float64 `json:"calculated_total"`
	OCRTotal        float64 `json:"ocr_total"`
	Difference      float64 `json:"difference"`
	PercentageDiff  float64 `json:"percentage_diff"`
	Valid           bool    `json:"valid"`
	Explanation     string  `json:"explanation"`
}

// ReceiptExtraction is one engine's structured interpretation of one receipt
// image. It is immutable after creation: Confidence is a deterministic
// function of the other fields and is never recomputed downstream.
type ReceiptExtraction struct {
	Success       bool                   `json:"success"`
	Confidence    float64                `json:"confidence"`
	Retailer      string                 `json:"retailer"`
	Total         float64                `json:"total"`
	Date          string                 `json:"date"` // ISO-8601 (YYYY-MM-DD)
	Items         []ExtractedItem        `json:"items"`
	RawText       string                 `json:"raw_text"`
	Metadata      ExtractionMetadata     `json:"metadata"`
	Validation    *TotalValidationResult `json:"validation,omitempty"`
	QualityIssues []QualityIssue         `json:"quality_issues,omitempty"`
	Suggestions   []string               `json:"suggestions,omitempty"`
}

// DiscrepancyType classifies a disagreement between two extractions.
type DiscrepancyType string

const (
	DiscrepancyPriceMismatch DiscrepancyType = "price_mismatch"
	DiscrepancyQuantityDiff  DiscrepancyType = "quantity_diff"
	DiscrepancyMissingItem   DiscrepancyType = "missing_item"
	DiscrepancyTotalMismatch DiscrepancyType = "total_mismatch"
)

// Discrepancy describes one disagreement found while reconciling two
// extractions of the same receipt.
type Discrepancy struct {
	Type        DiscrepancyType `json:"type"`
	ItemName    string          `json:"item_name,omitempty"`
	ValueA      float64         `json:"value_a,omitempty"`
	ValueB      float64         `json:"value_b,omitempty"`
	Description string          `json:"description"`
}

// ReconciliationResult is the merged, trusted interpretation of a receipt
// built from two independent extractions. FinalItems never contains two
// entries with the same normalized name and price.
type ReconciliationResult struct {
	FinalItems               []ExtractedItem `json:"final_items"`
	Discrepancies            []Discrepancy   `json:"discrepancies"`
	FinalTotal               float64         `json:"final_total"`
	NeedsManualReview        bool            `json:"needs_manual_review"`
	ReconciliationConfidence float64         `json:"reconciliation_confidence"`
}

// QualityReport aggregates image-level and extraction-level review signals
// for presentation to the caller.
type QualityReport struct {
	ImageIssues []string       `json:"image_issues,omitempty"`
	Issues      []QualityIssue `json:"issues,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// PipelineResult is the only value the surrounding application consumes.
type PipelineResult struct {
	Success        bool                  `json:"success"`
	Receipt        *ReceiptExtraction    `json:"receipt,omitempty"`
	Confidence     float64               `json:"confidence"`
	QualityReport  QualityReport         `json:"quality_report"`
	Reconciliation *ReconciliationResult `json:"reconciliation,omitempty"`
}
