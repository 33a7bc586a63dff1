// Package config loads pipeline configuration from the environment.
//
// All tuning thresholds used by the parser and the reconciliation engine are
// configurable here. The defaults are hand-tuned against a corpus of Bulgarian
// retail receipts and are expected to be retuned empirically, which is why
// they live in configuration instead of constants.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"receiptscan/internal/logger"
)

// Thresholds groups every tunable heuristic constant of the pipeline.
type Thresholds struct {
	// TotalTolerancePct is the maximum percentage difference between the
	// printed total and the sum of line items before the total validation
	// fails. Default 5.0.
	TotalTolerancePct float64

	// MultiLineTolerancePct is the maximum percentage difference allowed
	// between quantity*unitPrice and the printed line total when matching
	// the three-line item pattern. Default 5.0.
	MultiLineTolerancePct float64

	// PriceMismatchDelta is the currency-unit difference between two
	// engines' prices for the same item before a discrepancy is flagged.
	// Default 0.10.
	PriceMismatchDelta float64

	// QuantityDiffDelta is the quantity difference before a discrepancy is
	// flagged. Default 0.1.
	QuantityDiffDelta float64

	// TotalMismatchDelta is the currency-unit difference between the
	// reconciled total and either source total before a discrepancy is
	// flagged. Default 0.50.
	TotalMismatchDelta float64

	// ManualReviewPriceDelta is the price discrepancy above which the
	// merged result is routed to manual review. Default 1.00.
	ManualReviewPriceDelta float64

	// MissingItemMinConfidence is the confidence an item seen by only one
	// engine needs to be kept in the merged result. Default 0.6.
	MissingItemMinConfidence float64
}

// DefaultThresholds returns the tuned default threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TotalTolerancePct:        5.0,
		MultiLineTolerancePct:    5.0,
		PriceMismatchDelta:       0.10,
		QuantityDiffDelta:        0.1,
		TotalMismatchDelta:       0.50,
		ManualReviewPriceDelta:   1.00,
		MissingItemMinConfidence: 0.6,
	}
}

// Config is the full pipeline configuration.
type Config struct {
	// Google Cloud configuration (Vision + Document AI backends)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// OpenAI configuration (GPT vision backend)
	OpenAIAPIKey string
	OpenAIModel  string

	// Tesseract configuration (local backend)
	TesseractEnabled   bool
	TesseractLanguages string

	// EngineTimeout bounds every single OCR backend call.
	EngineTimeout time.Duration

	// VariantWorkers bounds the per-engine fan-out over image variants.
	VariantWorkers int

	Thresholds Thresholds

	// Logging configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "eu"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o"),
		TesseractEnabled:      getEnvBool("TESSERACT_ENABLED", false),
		TesseractLanguages:    getEnv("TESSERACT_LANGUAGES", "bul+eng"),
		EngineTimeout:         time.Duration(getEnvInt("OCR_TIMEOUT_SECONDS", 45)) * time.Second,
		VariantWorkers:        getEnvInt("VARIANT_WORKERS", 3),
		Thresholds: Thresholds{
			TotalTolerancePct:        getEnvFloat("TOTAL_TOLERANCE_PCT", 5.0),
			MultiLineTolerancePct:    getEnvFloat("MULTILINE_TOLERANCE_PCT", 5.0),
			PriceMismatchDelta:       getEnvFloat("PRICE_MISMATCH_DELTA", 0.10),
			QuantityDiffDelta:        getEnvFloat("QUANTITY_DIFF_DELTA", 0.1),
			TotalMismatchDelta:       getEnvFloat("TOTAL_MISMATCH_DELTA", 0.50),
			ManualReviewPriceDelta:   getEnvFloat("MANUAL_REVIEW_PRICE_DELTA", 1.00),
			MissingItemMinConfidence: getEnvFloat("MISSING_ITEM_MIN_CONFIDENCE", 0.6),
		},
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.VariantWorkers < 1 {
		return fmt.Errorf("VARIANT_WORKERS must be at least 1")
	}
	if c.EngineTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT_SECONDS must be positive")
	}
	if c.Thresholds.TotalTolerancePct <= 0 {
		return fmt.Errorf("TOTAL_TOLERANCE_PCT must be positive")
	}
	return nil
}

// HasVision reports whether the Google Vision backend can be constructed.
func (c *Config) HasVision() bool {
	return os.Getenv("GOOGLE_CREDENTIALS") != "" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

// HasDocumentAI reports whether the Document AI backend can be constructed.
func (c *Config) HasDocumentAI() bool {
	return c.HasVision() && c.GoogleCloudProject != "" && c.DocumentAIProcessorID != ""
}

// HasOpenAI reports whether the OpenAI vision backend can be constructed.
func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// GetLoggerConfig returns a logger configuration from the main config.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
