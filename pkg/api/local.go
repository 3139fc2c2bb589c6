package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/storage"
)

// localFileServer serves report files directly from the local filesystem.
// Each discovery path name maps to a directory root holding reports/.
type localFileServer struct {
	log   logrus.FieldLogger
	roots map[string]string
}

// newLocalFileServer creates a new local file server from the given config.
func newLocalFileServer(
	log logrus.FieldLogger,
	cfg *config.APILocalStorageConfig,
) *localFileServer {
	roots := make(map[string]string, len(cfg.DiscoveryPaths))
	for name, dir := range cfg.DiscoveryPaths {
		roots[name] = filepath.Clean(dir)
	}

	return &localFileServer{
		log:   log.WithField("component", "local-file-server"),
		roots: roots,
	}
}

// ServeFile serves {root}/reports/{reportID}/{filename} via http.ServeFile.
// Returns an error when the path is disallowed or the file is missing.
func (l *localFileServer) ServeFile(
	w http.ResponseWriter,
	r *http.Request,
	discoveryPath, reportID, filename string,
) error {
	root, ok := l.roots[discoveryPath]
	if !ok {
		return fmt.Errorf("unknown discovery path: %q", discoveryPath)
	}

	if !storage.IsValidID(reportID) || !storage.IsValidFilename(filename) {
		return fmt.Errorf("path %q is not allowed", filename)
	}

	full := filepath.Join(root, storage.ReportsDir, reportID, filepath.FromSlash(filename))

	// Ensure the resolved path stays under root.
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return fmt.Errorf("path %q is not allowed", filename)
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return fmt.Errorf("file %q not found", filename)
	}

	http.ServeFile(w, r, full)

	return nil
}
