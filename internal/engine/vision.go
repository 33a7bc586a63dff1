package engine

import (
	"context"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"receiptscan/internal/logger"
)

// MaxImageBytes is the Vision API limit for synchronous image annotation.
const MaxImageBytes = 20 * 1024 * 1024

// VisionEngine extracts text with Google Cloud Vision document text
// detection.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionEngine creates the Vision backend with credentials from the
// environment: GOOGLE_CREDENTIALS inline JSON, then
// GOOGLE_APPLICATION_CREDENTIALS file path, then application default
// credentials.
func NewVisionEngine(ctx context.Context) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapEngineError(op, "google-vision", err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapEngineError(op, "google-vision", err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapEngineError(op, "google-vision", ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionEngine{
		client: client,
		log:    logger.WithComponent("engine-vision"),
	}, nil
}

// NewVisionEngineWithClient creates the backend with an explicit client
// (for testing).
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient) *VisionEngine {
	return &VisionEngine{client: client, log: logger.WithComponent("engine-vision")}
}

// Name implements Engine.
func (v *VisionEngine) Name() string { return "google-vision" }

// Extract implements Engine.
func (v *VisionEngine) Extract(ctx context.Context, image []byte) (*Result, error) {
	const op = "Extract"

	if len(image) > MaxImageBytes {
		return nil, WrapEngineError(op, v.Name(), ErrImageTooLarge, "over 20MB synchronous limit")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: []string{"bg", "en"},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapEngineError(op, v.Name(), ErrExtractionFailed, err.Error())
	}
	if len(resp.Responses) == 0 {
		return nil, WrapEngineError(op, v.Name(), ErrExtractionFailed, "no response from Vision API")
	}

	ann := resp.Responses[0]
	if ann.Error != nil {
		return nil, WrapEngineError(op, v.Name(), ErrExtractionFailed, ann.Error.Message)
	}
	if ann.FullTextAnnotation == nil || strings.TrimSpace(ann.FullTextAnnotation.Text) == "" {
		return nil, WrapEngineError(op, v.Name(), ErrEmptyText, "")
	}

	confidence := DefaultConfidence
	var sum float64
	var n int
	for _, page := range ann.FullTextAnnotation.Pages {
		if page.Confidence > 0 {
			sum += float64(page.Confidence)
			n++
		}
	}
	if n > 0 {
		confidence = sum / float64(n)
	}

	v.log.Debug().
		Int("text_len", len(ann.FullTextAnnotation.Text)).
		Float64("confidence", confidence).
		Msg("vision extraction completed")

	return &Result{
		Text:       ann.FullTextAnnotation.Text,
		Confidence: confidence,
	}, nil
}

// Close closes the underlying Vision client.
func (v *VisionEngine) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
