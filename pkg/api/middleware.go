package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const userContextKey contextKey = "user"

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs incoming HTTP requests.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("status", rec.status).
			WithField("remote", r.RemoteAddr).
			WithField("duration", time.Since(start)).
			Debug("Request handled")
	})
}

// requireBasicAuth checks HTTP basic credentials against the configured
// bcrypt password hashes and injects the username into the request
// context.
func (s *server) requireBasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			s.unauthorized(w, "authentication required")

			return
		}

		hash, known := s.users[username]
		if !known || !checkPassword(hash, password) {
			s.unauthorized(w, "invalid credentials")

			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate",
		`Basic realm="`+s.api.Auth.Basic.Realm+`", charset="UTF-8"`)
	writeJSON(w, http.StatusUnauthorized, errorResponse{msg})
}

// checkPassword compares a bcrypt hash with a plaintext password.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword(
		[]byte(hash), []byte(password),
	) == nil
}

// userFromContext returns the authenticated username, empty for
// anonymous requests.
func userFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey).(string)

	return user
}
