package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/reportoor/pkg/upload"
)

var uploadReportDir string

var uploadReportCmd = &cobra.Command{
	Use:   "upload-report",
	Short: "Upload a report directory to S3",
	Long: `Upload a report directory (report.js or report.json plus attachments)
to the bucket configured in upload.s3. The directory name is the report id.`,
	RunE: runUploadReport,
}

func init() {
	rootCmd.AddCommand(uploadReportCmd)
	uploadReportCmd.Flags().StringVar(&uploadReportDir, "report-dir", "",
		"Path to the report directory (required)")

	_ = uploadReportCmd.MarkFlagRequired("report-dir")
}

func runUploadReport(cmd *cobra.Command, _ []string) error {
	if len(cfgFiles) == 0 {
		return fmt.Errorf("config file is required (use --config)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.ValidateUpload(); err != nil {
		return fmt.Errorf("validating upload config: %w", err)
	}

	ctx := cmd.Context()
	uploader := upload.NewS3Uploader(log, &cfg.Upload.S3)

	if err := uploader.Preflight(ctx); err != nil {
		return fmt.Errorf("s3 preflight check: %w", err)
	}

	prefix, err := uploader.Upload(ctx, uploadReportDir)
	if err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}

	log.WithFields(map[string]any{
		"bucket": cfg.Upload.S3.Bucket,
		"prefix": prefix,
	}).Info("Report uploaded successfully")

	return nil
}
