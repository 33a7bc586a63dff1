package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"receiptscan/internal/config"
	"receiptscan/internal/engine"
	"receiptscan/internal/logger"
	"receiptscan/internal/pipeline"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-file]",
	Short: "Extract structured data from a receipt photo",
	Long: `Run a receipt image through the full extraction pipeline: image analysis,
preprocessing variants, every configured OCR backend, parsing, total
validation and cross-engine reconciliation.

Backends are enabled through the environment:
  GOOGLE_APPLICATION_CREDENTIALS / GOOGLE_CREDENTIALS - Google Cloud Vision
  DOCUMENT_AI_PROCESSOR_ID + GOOGLE_CLOUD_PROJECT     - Document AI
  OPENAI_API_KEY                                      - GPT vision
  TESSERACT_ENABLED=true                              - local Tesseract`,
	Example: `  # Scan a receipt and print the structured result
  receiptscan scan receipt.jpg

  # Save the result to a file
  receiptscan scan receipt.jpg -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().Bool("pretty", true, "Indent the JSON output")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	outputPath, _ := cmd.Flags().GetString("output")
	pretty, _ := cmd.Flags().GetBool("pretty")
	imagePath := args[0]

	image, err := readImageFile(imagePath)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engines, cleanup, err := buildEngines(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := pipeline.New(cfg, engines)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", imagePath).
		Int("engines", len(engines)).
		Msg("Starting receipt scan")

	result, err := p.ProcessImage(ctx, image)
	if err != nil {
		return fmt.Errorf("processing %s: %w", filepath.Base(imagePath), err)
	}

	return writeJSON(result, outputPath, pretty)
}

// buildEngines instantiates every backend the environment has credentials
// for. The returned cleanup closes clients that hold connections.
func buildEngines(ctx context.Context, cfg *config.Config, log zerolog.Logger) ([]engine.Engine, func(), error) {
	var engines []engine.Engine
	var closers []func() error

	if cfg.HasVision() {
		v, err := engine.NewVisionEngine(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Google Vision backend unavailable")
		} else {
			engines = append(engines, v)
			closers = append(closers, v.Close)
		}
	}

	if cfg.HasDocumentAI() {
		d, err := engine.NewDocumentAIEngine(ctx, engine.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Document AI backend unavailable")
		} else {
			engines = append(engines, d)
			closers = append(closers, d.Close)
		}
	}

	if cfg.HasOpenAI() {
		o, err := engine.NewOpenAIVisionEngine(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Warn().Err(err).Msg("OpenAI vision backend unavailable")
		} else {
			engines = append(engines, o)
		}
	}

	if cfg.TesseractEnabled {
		engines = append(engines, engine.NewTesseractEngine(cfg.TesseractLanguages))
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("Failed to close engine client")
			}
		}
	}

	if len(engines) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("no OCR backends configured; set credentials for at least one (see 'receiptscan scan --help')")
	}
	return engines, cleanup, nil
}

func readImageFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not an image file", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".webp":
	default:
		return nil, fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}

	return os.ReadFile(path)
}

func writeJSON(v any, outputPath string, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
