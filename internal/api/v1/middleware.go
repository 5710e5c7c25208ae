package v1

import (
	"log/slog"
	"net/http"
	"time"
)

// userHeader carries the authenticated user identity. Authentication itself
// is handled upstream; this server trusts the header as its integration
// point.
const userHeader = "X-User-ID"

// withUser rejects requests without an identity header.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(userHeader) == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+userHeader+" header")
			return
		}
		next(w, r)
	}
}

// userID returns the request's user identity. Only valid behind withUser.
func userID(r *http.Request) string {
	return r.Header.Get(userHeader)
}

// requireDaemon wraps a handler and returns 503 if the download daemon is
// not connected.
func (s *Server) requireDaemon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Daemon == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Download daemon not connected")
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs each request with method, path, status and duration.
func RequestLogger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}
