package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/stats"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

var (
	topOnlyFailures bool
	topFilter       string
)

var topTestsCmd = &cobra.Command{
	Use:   "top-tests <report>",
	Short: "Rank the tests of a report by duration",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return printTop(args[0], func(idx *tree.Index) *stats.Table {
			return stats.TopTests(idx, filter.Options{
				OnlyFailures: topOnlyFailures,
				TestFilter:   topFilter,
			})
		})
	},
}

var topSuitesCmd = &cobra.Command{
	Use:   "top-suites <report>",
	Short: "Rank the suites of a report by duration",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return printTop(args[0], stats.TopSuites)
	},
}

var topStepsCmd = &cobra.Command{
	Use:   "top-steps <report>",
	Short: "Rank the steps of a report by cumulative duration",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return printTop(args[0], stats.TopSteps)
	},
}

func init() {
	rootCmd.AddCommand(topTestsCmd, topSuitesCmd, topStepsCmd)
	topTestsCmd.Flags().BoolVar(&topOnlyFailures, "only-failures", false,
		"Only rank failed tests")
	topTestsCmd.Flags().StringVar(&topFilter, "filter", "",
		"Only rank tests matching every keyword")
}

func printTop(path string, build func(*tree.Index) *stats.Table) error {
	idx, err := loadIndex(path)
	if err != nil {
		return err
	}

	fmt.Print(build(idx).Markdown())

	return nil
}
