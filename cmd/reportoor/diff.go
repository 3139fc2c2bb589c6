package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/reportoor/pkg/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff <report-a> <report-b>",
	Short: "Compare the tests of two reports",
	Long: `List the tests added, removed and changing status from report-a to
report-b, matched by path.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(_ *cobra.Command, args []string) error {
	a, err := loadIndex(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	b, err := loadIndex(args[1])
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}

	fmt.Print(diff.Compute(a, b).Markdown())

	return nil
}
