package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/reportoor/pkg/index"
	"github.com/ethpandaops/reportoor/pkg/indexstore"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/stats"
	"github.com/ethpandaops/reportoor/pkg/storage"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// --- Public handlers ---

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfig returns the public auth, storage and display configuration.
func (s *server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	backend := "local"
	if s.api.Storage.S3.Enabled {
		backend = "s3"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"auth": map[string]any{
			"basic_enabled":  s.api.Auth.Basic.Enabled,
			"anonymous_read": s.api.Auth.AnonymousRead,
		},
		"storage": map[string]any{
			"backend":         backend,
			"discovery_paths": s.storageReader.DiscoveryPaths(),
		},
		"indexing": map[string]any{
			"enabled": s.indexStore != nil,
		},
		"render": map[string]any{
			"only_failures": s.cfg.Render.OnlyFailures,
			"debug_logs":    s.cfg.Render.ShowDebugLogs,
			"filter":        s.cfg.Render.TestFilter,
		},
	})
}

// --- Read handlers ---

// handleMe returns the authenticated user, empty when anonymous.
func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"username":  user,
		"anonymous": user == "",
	})
}

type reportEntryWithDP struct {
	DiscoveryPath string `json:"discovery_path"`
	*index.Entry
}

// handleListReports returns the indexed reports, newest first. The
// discovery_path query parameter narrows the listing to one path.
func (s *server) handleListReports(w http.ResponseWriter, r *http.Request) {
	var (
		reports []indexstore.Report
		err     error
	)

	if dp := r.URL.Query().Get("discovery_path"); dp != "" {
		if !s.isKnownDiscoveryPath(dp) {
			writeJSON(w, http.StatusNotFound,
				errorResponse{"unknown discovery path"})

			return
		}

		reports, err = s.indexStore.ListReports(r.Context(), dp)
	} else {
		reports, err = s.indexStore.ListAllReports(r.Context())
	}

	if err != nil {
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"listing reports: " + err.Error()})

		return
	}

	entries := make([]reportEntryWithDP, 0, len(reports))

	for i := range reports {
		entries = append(entries, reportEntryWithDP{
			DiscoveryPath: reports[i].DiscoveryPath,
			Entry:         toIndexEntry(&reports[i]),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generated": time.Now().Unix(),
		"entries":   entries,
	})
}

func toIndexEntry(r *indexstore.Report) *index.Entry {
	return &index.Entry{
		ReportID:   r.ReportID,
		Title:      r.Title,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		DurationNs: r.CumulativeDurationNs,
		Tests: stats.Counts{
			Total:    r.TestsTotal,
			Passed:   r.TestsPassed,
			Failed:   r.TestsFailed,
			Skipped:  r.TestsSkipped,
			Disabled: r.TestsDisabled,
		},
		InProgress: r.InProgress,
		Successful: r.Successful,
		SizeBytes:  r.SizeBytes,
		Size:       r.Size,
	}
}

type reportStatsResponse struct {
	Counts  stats.Counts `json:"counts"`
	Rows    []stats.Row  `json:"rows"`
	Message string       `json:"message,omitempty"`
}

// handleReportStats returns the statistics table of a report. The message
// query parameter, or the configured message template, adds a summary
// message.
func (s *server) handleReportStats(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	loc, err := s.cfg.Global.Location()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})

		return
	}

	idx := tree.New(rep)
	resp := reportStatsResponse{
		Counts: stats.Compute(idx),
		Rows:   stats.Build(idx, stats.WithLocation(loc)),
	}

	tmpl := s.cfg.Render.MessageTemplate
	if r.URL.Query().Has("message") {
		tmpl = r.URL.Query().Get("message")
	}

	if tmpl != "" {
		msg, err := stats.BuildMessage(idx, tmpl, stats.WithLocation(loc))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

			return
		}

		resp.Message = msg
	}

	writeJSON(w, http.StatusOK, resp)
}

// loadReport reads and parses the report named by the route. On failure
// the error response is written and false returned.
func (s *server) loadReport(
	w http.ResponseWriter, r *http.Request,
) (*report.Report, bool) {
	dp := chi.URLParam(r, "discoveryPath")
	id := chi.URLParam(r, "reportID")

	if !s.isKnownDiscoveryPath(dp) || !storage.IsValidID(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{"report not found"})

		return nil, false
	}

	data, err := storage.ReadReport(r.Context(), s.storageReader, dp, id)
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{"report not found"})

			return nil, false
		}

		s.log.WithError(err).
			WithField("discovery_path", dp).
			WithField("report_id", id).
			Warn("Failed to read report")

		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"reading report"})

		return nil, false
	}

	rep, err := report.Parse(data)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{err.Error()})

		return nil, false
	}

	return rep, true
}

func (s *server) isKnownDiscoveryPath(dp string) bool {
	return slices.Contains(s.storageReader.DiscoveryPaths(), dp)
}
