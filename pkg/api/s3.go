package api

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/storage"
)

// presignCacheEntry holds a cached presigned URL and its expiration time.
type presignCacheEntry struct {
	url       string
	expiresAt time.Time
}

// s3Presigner generates presigned GET URLs for report files stored in S3.
type s3Presigner struct {
	log            logrus.FieldLogger
	bucket         string
	presignClient  *s3.PresignClient
	expiry         time.Duration
	discoveryPaths []string
	cacheTTL       time.Duration
	mu             sync.RWMutex
	cache          map[string]presignCacheEntry
}

// newS3Presigner creates a new S3 presigner from the given configuration.
func newS3Presigner(
	log logrus.FieldLogger,
	cfg *config.APIS3Config,
) (*s3Presigner, error) {
	expiry := cfg.PresignedURLs.Expiry
	if expiry <= 0 {
		return nil, fmt.Errorf("presigned_urls.expiry must be positive, got %s", expiry)
	}

	paths := make([]string, 0, len(cfg.DiscoveryPaths))
	for _, p := range cfg.DiscoveryPaths {
		paths = append(paths, strings.TrimRight(p, "/"))
	}

	return &s3Presigner{
		log:            log.WithField("component", "s3-presigner"),
		bucket:         cfg.Bucket,
		presignClient:  s3.NewPresignClient(storage.NewS3Client(&cfg.S3Config)),
		expiry:         expiry,
		discoveryPaths: paths,
		cacheTTL:       expiry / 2,
		cache:          make(map[string]presignCacheEntry),
	}, nil
}

// GeneratePresignedURL returns a presigned GET URL for a file of a report.
// Results are cached for half the presigned URL expiry duration to avoid
// redundant presigning while ensuring URLs always have sufficient validity.
func (p *s3Presigner) GeneratePresignedURL(
	ctx context.Context,
	discoveryPath, reportID, filename string,
) (string, error) {
	if !p.isAllowed(discoveryPath, reportID, filename) {
		return "", fmt.Errorf(
			"file %q of report %s/%s is not allowed",
			filename, discoveryPath, reportID,
		)
	}

	key := storage.ObjectKey(discoveryPath, reportID, filename)
	now := time.Now()

	// Fast path: check cache under read lock.
	p.mu.RLock()
	if entry, ok := p.cache[key]; ok && now.Before(entry.expiresAt) {
		p.mu.RUnlock()

		return entry.url, nil
	}
	p.mu.RUnlock()

	// Slow path: acquire write lock and double-check.
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.cache[key]; ok && now.Before(entry.expiresAt) {
		return entry.url, nil
	}

	result, err := p.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return "", fmt.Errorf("presigning URL for %q: %w", key, err)
	}

	p.cache[key] = presignCacheEntry{
		url:       result.URL,
		expiresAt: now.Add(p.cacheTTL),
	}

	return result.URL, nil
}

// isAllowed checks that the discovery path is configured and that the
// report ID and filename stay inside the report directory.
func (p *s3Presigner) isAllowed(discoveryPath, reportID, filename string) bool {
	return slices.Contains(p.discoveryPaths, discoveryPath) &&
		storage.IsValidID(reportID) &&
		storage.IsValidFilename(filename)
}
