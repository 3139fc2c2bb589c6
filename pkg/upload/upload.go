// Package upload publishes report directories to remote storage.
package upload

import "context"

// Uploader uploads a local report directory to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and writable.
	// Writes a small test object to the bucket to fail fast on misconfiguration.
	Preflight(ctx context.Context) error

	// Upload uploads every file of the report directory localDir under
	// {prefix}/reports/{basename}/ and returns that key prefix. The
	// directory must hold a valid report.
	Upload(ctx context.Context, localDir string) (string, error)
}
