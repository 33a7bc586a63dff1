package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"receiptscan/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "receiptscan",
	Short: "Receiptscan - OCR extraction for Bulgarian retail receipts",
	Long: `Receiptscan turns photos of Bulgarian retail receipts into structured
purchase data: store, date, line items with prices and quantities, and a
validated total.

Extraction runs multiple OCR backends over several preprocessed renditions
of the image and reconciles their results, flagging every disagreement that
needs a human look.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
