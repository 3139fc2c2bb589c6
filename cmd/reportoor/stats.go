package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/reportoor/pkg/stats"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	statsFormat  string
	statsMessage string
)

var statsCmd = &cobra.Command{
	Use:   "stats <report>",
	Short: "Print the statistics of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsFormat, "format", formatTable,
		`Output format: "table", "json" or "yaml"`)
	statsCmd.Flags().StringVar(&statsMessage, "message", "",
		"Summary message template, e.g. \"{failed} failed\" (defaults to render.message_template)")
}

// statsOutput is the json and yaml form of the statistics.
type statsOutput struct {
	Counts     stats.Counts `json:"counts" yaml:"counts"`
	Successful bool         `json:"successful" yaml:"successful"`
	Rows       []stats.Row  `json:"rows" yaml:"rows"`
	Message    string       `json:"message,omitempty" yaml:"message,omitempty"`
}

func runStats(_ *cobra.Command, args []string) error {
	switch statsFormat {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unsupported format %q (use %q, %q or %q)",
			statsFormat, formatTable, formatJSON, formatYAML)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loc, err := cfg.Global.Location()
	if err != nil {
		return err
	}

	idx, err := loadIndex(args[0])
	if err != nil {
		return err
	}

	out := statsOutput{
		Counts:     stats.Compute(idx),
		Successful: stats.IsSuccessful(idx),
		Rows:       stats.Build(idx, stats.WithLocation(loc)),
	}

	tmpl := statsMessage
	if tmpl == "" {
		tmpl = cfg.Render.MessageTemplate
	}

	if tmpl != "" {
		out.Message, err = stats.BuildMessage(idx, tmpl, stats.WithLocation(loc))
		if err != nil {
			return fmt.Errorf("building message: %w", err)
		}
	}

	switch statsFormat {
	case formatJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	case formatYAML:
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)

		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}

		return enc.Close()
	default:
		printStatsTable(os.Stdout, &out)

		return nil
	}
}

func printStatsTable(w io.Writer, out *statsOutput) {
	width := 0
	for _, row := range out.Rows {
		width = max(width, len(row.Label))
	}

	for _, row := range out.Rows {
		label := fmt.Sprintf("%-*s", width, row.Label)

		switch {
		case row.Label == "Failed tests" && out.Counts.Failed > 0:
			fmt.Fprintf(w, "%s  %s\n", label, color.RedString(row.Value))
		case row.Label == "Successful tests":
			fmt.Fprintf(w, "%s  %s\n", label, color.GreenString(row.Value))
		case row.Label == "Skipped tests" && out.Counts.Skipped > 0:
			fmt.Fprintf(w, "%s  %s\n", label, color.YellowString(row.Value))
		default:
			fmt.Fprintf(w, "%s  %s\n", label, row.Value)
		}
	}

	if out.Successful {
		fmt.Fprintln(w, color.GreenString("✓ Successful"))
	} else {
		fmt.Fprintln(w, color.RedString("✗ Not successful"))
	}

	if out.Message != "" {
		fmt.Fprintf(w, "\n%s\n", out.Message)
	}
}
