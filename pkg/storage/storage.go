// Package storage reads report directories from a storage backend. A
// discovery path holds reports under {root}/reports/{report_id}/, each with
// a report.js or report.json file plus its attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ethpandaops/reportoor/pkg/report"
)

// ReportsDir is the directory of a discovery path holding the reports.
const ReportsDir = "reports"

// ErrReportNotFound is returned when a report directory holds no report
// file.
var ErrReportNotFound = errors.New("report not found")

// Reader provides read access to report directories stored in a backend
// (local filesystem or S3). It is used by the indexer and the API without
// knowing the underlying storage details.
type Reader interface {
	// ListReportIDs returns the report IDs (directory names) under the
	// reports directory for the given discovery path.
	ListReportIDs(ctx context.Context, discoveryPath string) ([]string, error)

	// GetReportFile reads a file relative to a report directory.
	// Returns (nil, nil) when the file does not exist.
	GetReportFile(
		ctx context.Context, discoveryPath, reportID, filename string,
	) ([]byte, error)

	// DiscoveryPaths returns all configured discovery paths.
	DiscoveryPaths() []string
}

// ReadReport returns the payload of a report: report.js when present,
// report.json otherwise.
func ReadReport(
	ctx context.Context, r Reader, discoveryPath, reportID string,
) ([]byte, error) {
	for _, name := range []string{report.JSFilename, report.JSONFilename} {
		data, err := r.GetReportFile(ctx, discoveryPath, reportID, name)
		if err != nil {
			return nil, err
		}

		if data != nil {
			return data, nil
		}
	}

	return nil, fmt.Errorf("%w: %s/%s", ErrReportNotFound, discoveryPath, reportID)
}

// IsValidID reports whether id can name a report directory.
func IsValidID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		!strings.ContainsAny(id, `/\`)
}

// IsValidFilename reports whether filename is a clean path relative to a
// report directory.
func IsValidFilename(filename string) bool {
	if filename == "" || strings.HasPrefix(filename, "/") ||
		strings.Contains(filename, `\`) {
		return false
	}

	for _, part := range strings.Split(filename, "/") {
		if part == ".." {
			return false
		}
	}

	return path.Clean(filename) == filename
}
