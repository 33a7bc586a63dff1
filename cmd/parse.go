package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"receiptscan/internal/config"
	"receiptscan/internal/logger"
	"receiptscan/internal/parser"
	"receiptscan/internal/products"
	"receiptscan/internal/store"
)

var parseCmd = &cobra.Command{
	Use:   "parse [text-file]",
	Short: "Parse already-extracted OCR text into a structured receipt",
	Long: `Run only the receipt parser over a plain text file holding OCR output.

Useful for debugging the parsing stage in isolation: the output shows the
detected store, extracted items, total validation and quality issues without
calling any OCR backend.`,
	Example: `  # Parse saved OCR text
  receiptscan parse receipt.txt

  # Save the structured result
  receiptscan parse receipt.txt -o parsed.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	parseCmd.Flags().Bool("pretty", true, "Indent the JSON output")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("parse")

	outputPath, _ := cmd.Flags().GetString("output")
	pretty, _ := cmd.Flags().GetBool("pretty")

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read text file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	p := parser.New(store.NewRegistry(), products.NewCatalog(), cfg.Thresholds)
	ext := p.Parse(string(text))

	log.Info().
		Str("retailer", ext.Retailer).
		Int("items", len(ext.Items)).
		Float64("total", ext.Total).
		Msg("Text parsed")

	return writeJSON(ext, outputPath, pretty)
}
