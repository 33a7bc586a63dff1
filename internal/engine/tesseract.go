package engine

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"receiptscan/internal/logger"
)

// TesseractEngine runs local OCR via gosseract. It needs no network or
// credentials, which makes it the development and offline fallback backend;
// recognition quality on thermal receipts is well below the cloud engines.
type TesseractEngine struct {
	languages []string
	log       zerolog.Logger
}

// NewTesseractEngine creates the local backend. languages is a "+"-separated
// tesseract language list, e.g. "bul+eng".
func NewTesseractEngine(languages string) *TesseractEngine {
	if languages == "" {
		languages = "bul+eng"
	}
	return &TesseractEngine{
		languages: strings.Split(languages, "+"),
		log:       logger.WithComponent("engine-tesseract"),
	}
}

// Name implements Engine.
func (t *TesseractEngine) Name() string { return "tesseract" }

// Extract implements Engine. gosseract calls are synchronous C calls and
// cannot be interrupted, so cancellation is honored at the call boundaries.
func (t *TesseractEngine) Extract(ctx context.Context, image []byte) (*Result, error) {
	const op = "Extract"

	if err := ctx.Err(); err != nil {
		return nil, WrapEngineError(op, t.Name(), err, "context done before extraction")
	}

	// A gosseract client is not safe for concurrent use; one per call.
	client := gosseract.NewClient()
	defer func() {
		if err := client.Close(); err != nil {
			t.log.Warn().Err(err).Msg("failed to close tesseract client")
		}
	}()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, WrapEngineError(op, t.Name(), err, "failed to set languages")
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, WrapEngineError(op, t.Name(), err, "failed to load image")
	}

	text, err := client.Text()
	if err != nil {
		return nil, WrapEngineError(op, t.Name(), ErrExtractionFailed, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapEngineError(op, t.Name(), err, "context done during extraction")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, WrapEngineError(op, t.Name(), ErrEmptyText, "")
	}

	t.log.Debug().Int("text_len", len(text)).Msg("tesseract extraction completed")

	// Tesseract's plain text API exposes no aggregate confidence.
	return &Result{Text: text, Confidence: DefaultConfidence}, nil
}
