package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/reportoor/pkg/render"
	"github.com/ethpandaops/reportoor/pkg/viewer"
)

var (
	renderOutput       string
	renderOnlyFailures bool
	renderDebugLogs    bool
	renderFilter       string
	renderFocus        string
)

var renderCmd = &cobra.Command{
	Use:   "render <report>",
	Short: "Render a report as a standalone HTML page",
	Long: `Render a report file, or a directory holding report.js or report.json,
as a standalone HTML page. Display options default to the render section
of the config.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "report.html",
		`Output file ("-" for stdout)`)
	renderCmd.Flags().BoolVar(&renderOnlyFailures, "only-failures", false,
		"Only display failed tests")
	renderCmd.Flags().BoolVar(&renderDebugLogs, "debug-logs", false,
		"Display debug log entries")
	renderCmd.Flags().StringVar(&renderFilter, "filter", "",
		"Only display tests matching every keyword")
	renderCmd.Flags().StringVar(&renderFocus, "focus", "",
		"Path or id of the result focused on load")
}

func runRender(cmd *cobra.Command, args []string) error {
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

	flags := cmd.Flags()
	q := url.Values{}

	if flags.Changed("only-failures") {
		q.Set(viewer.ParamOnlyFailures, strconv.FormatBool(renderOnlyFailures))
	}

	if flags.Changed("debug-logs") {
		q.Set(viewer.ParamDebugLogs, strconv.FormatBool(renderDebugLogs))
	}

	if flags.Changed("filter") {
		q.Set(viewer.ParamFilter, renderFilter)
	}

	v, err := viewer.Open(idx, &cfg.Render, loc, renderFocus, q)
	if err != nil {
		return fmt.Errorf("applying display options: %w", err)
	}
	defer v.Close()

	if renderOutput == "-" {
		return render.Write(os.Stdout, v.Page())
	}

	f, err := os.Create(renderOutput)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if err := render.Write(f, v.Page()); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}

	log.WithFields(map[string]any{
		"report": args[0],
		"output": renderOutput,
		"tests":  idx.TestCount(),
	}).Info("Report rendered")

	return nil
}
