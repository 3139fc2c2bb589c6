package upload

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/storage"
)

// writeTestKey is written under the prefix by Preflight.
const writeTestKey = ".reportoor-write-test"

// s3Uploader implements Uploader for S3-compatible storage.
type s3Uploader struct {
	log    logrus.FieldLogger
	cfg    *config.S3UploadConfig
	client *s3.Client
}

// Ensure interface compliance.
var _ Uploader = (*s3Uploader)(nil)

// NewS3Uploader creates a new S3 uploader from the given configuration.
func NewS3Uploader(
	log logrus.FieldLogger,
	cfg *config.S3UploadConfig,
) Uploader {
	return &s3Uploader{
		log:    log.WithField("component", "s3-uploader"),
		cfg:    cfg,
		client: storage.NewS3Client(&cfg.S3Config),
	}
}

// Preflight verifies S3 connectivity by writing a small test object.
func (u *s3Uploader) Preflight(ctx context.Context) error {
	content := fmt.Sprintf("reportoor write test: %s", time.Now().UTC().Format(time.RFC3339))
	key := u.discoveryPath() + "/" + writeTestKey

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("writing test object to s3://%s/%s: %w", u.cfg.Bucket, key, err)
	}

	return nil
}

// Upload walks localDir and uploads all files to S3 under the report prefix.
func (u *s3Uploader) Upload(ctx context.Context, localDir string) (string, error) {
	if _, err := report.Load(localDir); err != nil {
		return "", fmt.Errorf("checking report directory: %w", err)
	}

	reportID := filepath.Base(filepath.Clean(localDir))
	if !storage.IsValidID(reportID) {
		return "", fmt.Errorf("invalid report directory name %q", reportID)
	}

	prefix := u.resolvePrefix(reportID)

	var count int

	err := filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(localDir, path)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}

		key := prefix + "/" + filepath.ToSlash(relPath)

		if err := u.uploadFile(ctx, path, key); err != nil {
			return fmt.Errorf("uploading %s: %w", relPath, err)
		}

		count++

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking directory %s: %w", localDir, err)
	}

	u.log.WithFields(logrus.Fields{
		"files":  count,
		"bucket": u.cfg.Bucket,
		"prefix": prefix,
	}).Info("Upload completed")

	return prefix, nil
}

// uploadFile uploads a single file to S3.
func (u *s3Uploader) uploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath) //nolint:gosec // walked from the report dir
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(detectContentType(localPath)),
	}

	if u.cfg.StorageClass != "" {
		input.StorageClass = s3types.StorageClass(u.cfg.StorageClass)
	}

	if u.cfg.ACL != "" {
		input.ACL = s3types.ObjectCannedACL(u.cfg.ACL)
	}

	u.log.WithFields(logrus.Fields{
		"key":    key,
		"bucket": u.cfg.Bucket,
	}).Debug("Uploading file")

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("PutObject: %w", err)
	}

	return nil
}

func (u *s3Uploader) discoveryPath() string {
	prefix := strings.Trim(u.cfg.Prefix, "/")
	if prefix == "" {
		prefix = config.DefaultUploadPrefix
	}

	return prefix
}

// resolvePrefix builds the S3 key prefix of a report directory.
func (u *s3Uploader) resolvePrefix(reportID string) string {
	return u.discoveryPath() + "/" + storage.ReportsDir + "/" + reportID
}

// detectContentType returns a MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "application/octet-stream"
	}

	return ct
}
