package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/reportoor/pkg/index"
)

var indexReportsDir string

var indexFileCmd = &cobra.Command{
	Use:   "generate-index-file",
	Short: "Generate index.json from all reports in a directory",
	Long: `Scan reports/*/report.js and report.json files under the given
directory to generate an index.json summary next to them.`,
	RunE: runIndexFile,
}

func init() {
	rootCmd.AddCommand(indexFileCmd)
	indexFileCmd.Flags().StringVar(&indexReportsDir, "reports-dir", "",
		"Directory holding the reports/ directory (required)")

	_ = indexFileCmd.MarkFlagRequired("reports-dir")
}

func runIndexFile(_ *cobra.Command, _ []string) error {
	log.WithField("reports_dir", indexReportsDir).
		Info("Generating index.json from local reports")

	idx, err := index.Generate(indexReportsDir)
	if err != nil {
		return fmt.Errorf("generating index: %w", err)
	}

	path, err := index.Write(indexReportsDir, idx)
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	log.WithFields(map[string]any{
		"path":          path,
		"entries_count": len(idx.Entries),
	}).Info("index.json generated successfully")

	return nil
}
