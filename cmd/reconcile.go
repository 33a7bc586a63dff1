package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"receiptscan/internal/config"
	"receiptscan/internal/logger"
	"receiptscan/internal/reconcile"
	"receiptscan/pkg/models"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [extraction-a.json] [extraction-b.json]",
	Short: "Reconcile two saved extractions of the same receipt",
	Long: `Merge two extraction result files produced by 'scan' or 'parse' into a
single result with explicit discrepancies.

Useful for replaying the reconciliation stage over saved outputs when tuning
thresholds or investigating a disagreement between backends.`,
	Example: `  receiptscan reconcile vision.json openai.json -o merged.json`,
	Args:    cobra.ExactArgs(2),
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	reconcileCmd.Flags().Bool("pretty", true, "Indent the JSON output")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	outputPath, _ := cmd.Flags().GetString("output")
	pretty, _ := cmd.Flags().GetBool("pretty")

	a, err := readExtraction(args[0])
	if err != nil {
		return err
	}
	b, err := readExtraction(args[1])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	res := reconcile.New(cfg.Thresholds).Reconcile(a, b)

	log.Info().
		Int("items", len(res.FinalItems)).
		Int("discrepancies", len(res.Discrepancies)).
		Bool("manual_review", res.NeedsManualReview).
		Msg("Extractions reconciled")

	return writeJSON(res, outputPath, pretty)
}

func readExtraction(path string) (*models.ReceiptExtraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read extraction file: %w", err)
	}
	var ext models.ReceiptExtraction
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", path, err)
	}
	return &ext, nil
}
