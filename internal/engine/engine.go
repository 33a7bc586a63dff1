// Package engine wraps external OCR backends behind a uniform text
// extraction contract.
//
// Each backend is an independent, I/O-bound remote (or local) call. Adapters
// perform no business parsing: the only contract is raw text plus whatever
// native confidence the backend exposes. Backends that report no confidence
// default to DefaultConfidence. A backend failure never affects another
// backend's path; the orchestrator owns failure aggregation.
//
// Supported backends:
//   - Google Cloud Vision (document text detection)
//   - Google Document AI (OCR processor)
//   - OpenAI GPT vision models
//   - Tesseract via gosseract (local, offline)
package engine

import "context"

// DefaultConfidence is assumed when a backend exposes no native score.
const DefaultConfidence = 0.8

// Result is the raw output of one OCR backend for one image.
type Result struct {
	// Text is the raw recognized text, line structure preserved.
	Text string

	// Confidence is the backend's native confidence in [0,1].
	Confidence float64
}

// Engine is one OCR backend. Implementations must honor context cancellation
// and be safe for concurrent use.
type Engine interface {
	// Name identifies the backend in logs and result provenance.
	Name() string

	// Extract runs OCR over the image bytes and returns the raw text.
	Extract(ctx context.Context, image []byte) (*Result, error)
}
