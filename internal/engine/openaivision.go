package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"receiptscan/internal/logger"
)

// transcriptionPrompt instructs the model to act as a plain OCR engine. The
// pipeline does all structuring itself, so any model-side interpretation is
// actively unwanted.
const transcriptionPrompt = `Transcribe every line of text printed on this retail receipt, exactly as written, preserving line breaks and original spelling (the receipt is in Bulgarian). Output only the transcribed text with no commentary, no translation and no formatting.`

// OpenAIVisionEngine extracts text with an OpenAI vision-capable chat model.
type OpenAIVisionEngine struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIVisionEngine creates the OpenAI vision backend.
func NewOpenAIVisionEngine(apiKey, model string) (*OpenAIVisionEngine, error) {
	const op = "NewOpenAIVisionEngine"

	if apiKey == "" {
		return nil, WrapEngineError(op, "openai-vision", ErrMissingCredentials, "OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAIVisionEngine{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logger.WithComponent("engine-openai"),
	}, nil
}

// NewOpenAIVisionEngineWithClient creates the backend with an explicit
// client (for testing).
func NewOpenAIVisionEngineWithClient(client *openai.Client, model string) *OpenAIVisionEngine {
	return &OpenAIVisionEngine{client: client, model: model, log: logger.WithComponent("engine-openai")}
}

// Name implements Engine.
func (o *OpenAIVisionEngine) Name() string { return "openai-vision" }

// Extract implements Engine.
func (o *OpenAIVisionEngine) Extract(ctx context.Context, image []byte) (*Result, error) {
	const op = "Extract"

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		detectMimeType(image), base64.StdEncoding.EncodeToString(image))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		MaxTokens:   2000,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: transcriptionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		if strings.Contains(err.Error(), "429") {
			return nil, WrapEngineError(op, o.Name(), ErrQuotaExceeded, err.Error())
		}
		return nil, WrapEngineError(op, o.Name(), ErrExtractionFailed, err.Error())
	}
	if len(resp.Choices) == 0 {
		return nil, WrapEngineError(op, o.Name(), ErrExtractionFailed, "no response choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, WrapEngineError(op, o.Name(), ErrEmptyText, "")
	}

	o.log.Debug().
		Int("text_len", len(text)).
		Str("model", o.model).
		Msg("openai vision extraction completed")

	// The chat API exposes no per-token recognition confidence.
	return &Result{Text: text, Confidence: DefaultConfidence}, nil
}
