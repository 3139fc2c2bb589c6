package storage

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethpandaops/reportoor/pkg/config"
)

// Compile-time interface check.
var _ Reader = (*localReader)(nil)

type localReader struct {
	// paths maps discovery path names to absolute directory paths.
	paths map[string]string
}

// NewLocalReader creates a Reader backed by local filesystem directories.
func NewLocalReader(cfg *config.APILocalStorageConfig) Reader {
	paths := make(map[string]string, len(cfg.DiscoveryPaths))
	maps.Copy(paths, cfg.DiscoveryPaths)

	return &localReader{paths: paths}
}

// DiscoveryPaths returns the configured discovery path names sorted.
func (r *localReader) DiscoveryPaths() []string {
	keys := make([]string, 0, len(r.paths))
	for k := range r.paths {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// ListReportIDs returns report directory names under {dirPath}/reports/.
func (r *localReader) ListReportIDs(
	_ context.Context, discoveryPath string,
) ([]string, error) {
	dirPath, ok := r.paths[discoveryPath]
	if !ok {
		return nil, fmt.Errorf(
			"unknown discovery path: %q", discoveryPath,
		)
	}

	reportsDir := filepath.Join(dirPath, ReportsDir)

	entries, err := os.ReadDir(reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading reports directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}

	return ids, nil
}

// GetReportFile reads {dirPath}/reports/{reportID}/{filename}.
// Returns (nil, nil) when the file does not exist.
func (r *localReader) GetReportFile(
	_ context.Context, discoveryPath, reportID, filename string,
) ([]byte, error) {
	dirPath, ok := r.paths[discoveryPath]
	if !ok {
		return nil, fmt.Errorf(
			"unknown discovery path: %q", discoveryPath,
		)
	}

	if !IsValidID(reportID) || !IsValidFilename(filename) {
		return nil, fmt.Errorf("invalid report path %q/%q", reportID, filename)
	}

	p := filepath.Join(dirPath, ReportsDir, reportID, filepath.FromSlash(filename))

	data, err := os.ReadFile(p) //nolint:gosec // validated path under a configured root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading file %s: %w", p, err)
	}

	return data, nil
}
