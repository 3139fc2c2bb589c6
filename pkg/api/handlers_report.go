package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/reportoor/pkg/render"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/tree"
	"github.com/ethpandaops/reportoor/pkg/viewer"
)

// attachmentsPrefix is the page relative URL of the attachment route.
const attachmentsPrefix = "files/"

// handleReportPage renders a report as HTML. The view state (options,
// focus, collapsed steps) is read from the query string.
func (s *server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	// The page links report.js and files/ relative to itself.
	if !strings.HasSuffix(r.URL.Path, "/") {
		target := r.URL.Path + "/"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}

		http.Redirect(w, r, target, http.StatusMovedPermanently)

		return
	}

	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	loc, err := s.cfg.Global.Location()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})

		return
	}

	rc := s.cfg.Render
	rc.RawDataURL = report.JSFilename
	rc.AttachmentBaseURL = attachmentsPrefix

	v, err := viewer.Open(tree.New(rep), &rc, loc, "", r.URL.Query())
	if err != nil {
		if errors.Is(err, viewer.ErrInvalidQuery) {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

			return
		}

		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})

		return
	}
	defer v.Close()

	html, err := render.HTML(v.Page())
	if err != nil {
		s.log.WithError(err).Error("Failed to render report")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"rendering report"})

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// handleReportJS returns the raw report payload in report.js form.
func (s *server) handleReportJS(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rep.JS())
}

// handleReportFile serves an attachment of a report from local storage or
// redirects to a presigned S3 URL.
func (s *server) handleReportFile(w http.ResponseWriter, r *http.Request) {
	dp := chi.URLParam(r, "discoveryPath")
	id := chi.URLParam(r, "reportID")

	filename := chi.URLParam(r, "*")
	if filename == "" {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"file path is required"})

		return
	}

	if s.localServer != nil {
		if err := s.localServer.ServeFile(w, r, dp, id, filename); err != nil {
			writeJSON(w, http.StatusNotFound,
				errorResponse{"file not found"})
		}

		return
	}

	if s.presigner != nil {
		url, err := s.presigner.GeneratePresignedURL(r.Context(), dp, id, filename)
		if err != nil {
			s.log.WithError(err).
				WithField("path", filename).
				Warn("Failed to presign report file")

			writeJSON(w, http.StatusForbidden,
				errorResponse{"file not allowed"})

			return
		}

		http.Redirect(w, r, url, http.StatusFound)

		return
	}

	writeJSON(w, http.StatusNotFound,
		errorResponse{"no storage backend configured"})
}
