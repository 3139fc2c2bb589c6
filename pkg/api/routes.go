package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// buildRouter constructs the chi router with all routes and middleware.
func (s *server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware())

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints.
		r.Group(func(r chi.Router) {
			s.useRateLimit(r, false)

			r.Get("/health", s.handleHealth)
			r.Get("/config", s.handleConfig)
		})

		r.Group(func(r chi.Router) {
			s.useReadAccess(r)

			if s.indexStore != nil {
				r.Get("/reports", s.handleListReports)
			}

			r.Get("/me", s.handleMe)
			r.Get("/reports/{discoveryPath}/{reportID}/stats", s.handleReportStats)
		})
	})

	r.Route("/reports/{discoveryPath}/{reportID}", func(r chi.Router) {
		s.useReadAccess(r)

		r.Get("/", s.handleReportPage)
		r.Get("/report.js", s.handleReportJS)
		r.Get("/files/*", s.handleReportFile)
		r.Head("/files/*", s.handleReportFile)
	})

	return r
}

// authRequired reports whether report routes need credentials.
func (s *server) authRequired() bool {
	return s.api.Auth.Basic.Enabled && !s.api.Auth.AnonymousRead
}

// useReadAccess installs the authentication and rate limiting of report
// routes.
func (s *server) useReadAccess(r chi.Router) {
	if s.authRequired() {
		r.Use(s.requireBasicAuth)
	}

	s.useRateLimit(r, s.authRequired())
}

func (s *server) useRateLimit(r chi.Router, authenticated bool) {
	rl := s.api.Server.RateLimit
	if !rl.Enabled {
		return
	}

	tier := rl.Public
	if authenticated {
		tier = rl.Authenticated
	}

	r.Use(s.rateLimitMiddleware(tier))
}

// corsMiddleware returns a CORS handler configured from the API config.
func (s *server) corsMiddleware() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	origins := s.api.Server.CORSOrigins

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// Reflect the requesting origin so credentials work from any origin.
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool {
			return true
		}
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.Handler(opts)
}
