package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ethpandaops/reportoor/pkg/config"
)

// Compile-time interface check.
var _ Reader = (*s3Reader)(nil)

type s3Reader struct {
	client         *s3.Client
	bucket         string
	discoveryPaths []string
}

// NewS3Reader creates a Reader backed by S3-compatible storage.
func NewS3Reader(cfg *config.APIS3Config) Reader {
	paths := make([]string, 0, len(cfg.DiscoveryPaths))
	for _, p := range cfg.DiscoveryPaths {
		paths = append(paths, strings.TrimRight(p, "/"))
	}

	sort.Strings(paths)

	return &s3Reader{
		client:         NewS3Client(&cfg.S3Config),
		bucket:         cfg.Bucket,
		discoveryPaths: paths,
	}
}

// DiscoveryPaths returns the configured S3 discovery paths.
func (r *s3Reader) DiscoveryPaths() []string {
	return r.discoveryPaths
}

// ListReportIDs lists report IDs (common prefixes) under {dp}/reports/.
func (r *s3Reader) ListReportIDs(
	ctx context.Context, discoveryPath string,
) ([]string, error) {
	prefix := discoveryPath + "/" + ReportsDir + "/"

	paginator := s3.NewListObjectsV2Paginator(
		r.client, &s3.ListObjectsV2Input{
			Bucket:    aws.String(r.bucket),
			Prefix:    aws.String(prefix),
			Delimiter: aws.String("/"),
		},
	)

	var ids []string

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf(
				"listing report prefixes under %q: %w", prefix, err,
			)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix != nil {
				// "dp/reports/abc123/" -> "abc123"
				ids = append(ids, path.Base(strings.TrimRight(*cp.Prefix, "/")))
			}
		}
	}

	return ids, nil
}

// GetReportFile reads {dp}/reports/{reportID}/{filename} from S3.
// Returns (nil, nil) when the key does not exist.
func (r *s3Reader) GetReportFile(
	ctx context.Context, discoveryPath, reportID, filename string,
) ([]byte, error) {
	if !IsValidID(reportID) || !IsValidFilename(filename) {
		return nil, fmt.Errorf("invalid report path %q/%q", reportID, filename)
	}

	return r.getObject(ctx, ObjectKey(discoveryPath, reportID, filename))
}

// ObjectKey returns the S3 key of a file of a report directory.
func ObjectKey(discoveryPath, reportID, filename string) string {
	return discoveryPath + "/" + ReportsDir + "/" + reportID + "/" + filename
}

func (r *s3Reader) getObject(
	ctx context.Context, key string,
) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting object %q: %w", key, err)
	}

	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %q: %w", key, err)
	}

	return data, nil
}

func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	return strings.Contains(err.Error(), "NoSuchKey")
}

// NewS3Client constructs an S3 client from connection settings.
func NewS3Client(cfg *config.S3Config) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			} else {
				o.Region = "us-east-1"
			}

			if cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.EndpointURL)
			}

			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}

			if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
			}
		},
	}

	return s3.New(s3.Options{}, opts...)
}
