// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/streamcloud/streamcloud/internal/catalog"
	"github.com/streamcloud/streamcloud/internal/download"
	"github.com/streamcloud/streamcloud/internal/feed"
	"github.com/streamcloud/streamcloud/internal/notify"
	"github.com/streamcloud/streamcloud/internal/prefs"
	"github.com/streamcloud/streamcloud/internal/stream"
	"github.com/streamcloud/streamcloud/internal/vault"
)

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
	log  *slog.Logger
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; Daemon may be nil when the
// download daemon is unreachable, in which case the system control
// endpoints answer 503.
type ServerDeps struct {
	Catalog       *catalog.Service
	Streams       *stream.Resolver
	Downloads     *download.Orchestrator
	Feeds         *feed.Store
	Notifications *notify.Store
	Prefs         *prefs.Service
	Vault         *vault.Service
	Daemon        download.Daemon
	UploadDir     string
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Catalog == nil {
		return fmt.Errorf("catalog service is required")
	}
	if d.Streams == nil {
		return fmt.Errorf("stream resolver is required")
	}
	if d.Downloads == nil {
		return fmt.Errorf("download orchestrator is required")
	}
	if d.Feeds == nil {
		return fmt.Errorf("feed store is required")
	}
	if d.Notifications == nil {
		return fmt.Errorf("notification store is required")
	}
	if d.Prefs == nil {
		return fmt.Errorf("preferences service is required")
	}
	if d.Vault == nil {
		return fmt.Errorf("vault service is required")
	}
	return nil
}

// New creates a new v1 API server.
func New(deps ServerDeps, log *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{deps: deps, log: log.With("component", "api")}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Media
	mux.HandleFunc("GET /api/v1/media", s.withUser(s.listMedia))
	mux.HandleFunc("GET /api/v1/media/{id}", s.withUser(s.getMedia))
	mux.HandleFunc("POST /api/v1/media", s.withUser(s.uploadMedia))
	mux.HandleFunc("PUT /api/v1/media/{id}", s.withUser(s.updateMedia))
	mux.HandleFunc("DELETE /api/v1/media/{id}", s.withUser(s.deleteMedia))

	// Streaming
	mux.HandleFunc("GET /api/v1/media/{id}/stream", s.withUser(s.streamMedia))
	mux.HandleFunc("GET /api/v1/media/{id}/hls", s.withUser(s.hlsManifest))
	mux.HandleFunc("GET /api/v1/media/{id}/hls/{path...}", s.withUser(s.hlsFile))
	mux.HandleFunc("GET /api/v1/media/{id}/audio", s.withUser(s.streamAudio))
	mux.HandleFunc("GET /api/v1/media/{id}/thumbnail", s.withUser(s.getThumbnail))

	// Downloads
	mux.HandleFunc("POST /api/v1/downloads", s.withUser(s.submitDownload))
	mux.HandleFunc("GET /api/v1/downloads", s.withUser(s.listDownloads))
	mux.HandleFunc("GET /api/v1/downloads/{id}", s.withUser(s.getDownload))
	mux.HandleFunc("DELETE /api/v1/downloads/{id}", s.withUser(s.cancelDownload))

	// Feeds
	mux.HandleFunc("GET /api/v1/feeds", s.withUser(s.listFeeds))
	mux.HandleFunc("POST /api/v1/feeds", s.withUser(s.addFeed))
	mux.HandleFunc("PUT /api/v1/feeds/{id}", s.withUser(s.updateFeed))
	mux.HandleFunc("DELETE /api/v1/feeds/{id}", s.withUser(s.deleteFeed))

	// Notifications
	mux.HandleFunc("GET /api/v1/notifications", s.withUser(s.listNotifications))
	mux.HandleFunc("GET /api/v1/notifications/unread-count", s.withUser(s.unreadCount))
	mux.HandleFunc("POST /api/v1/notifications/{id}/read", s.withUser(s.markNotificationRead))
	mux.HandleFunc("POST /api/v1/notifications/read-all", s.withUser(s.markAllNotificationsRead))
	mux.HandleFunc("DELETE /api/v1/notifications/{id}", s.withUser(s.deleteNotification))

	// Preferences
	mux.HandleFunc("GET /api/v1/preferences", s.withUser(s.getPreferences))
	mux.HandleFunc("PATCH /api/v1/preferences", s.withUser(s.updatePreferences))

	// Vault
	mux.HandleFunc("GET /api/v1/vault", s.withUser(s.listVault))
	mux.HandleFunc("POST /api/v1/vault", s.withUser(s.putVaultItem))
	mux.HandleFunc("GET /api/v1/vault/{id}", s.withUser(s.getVaultItem))
	mux.HandleFunc("DELETE /api/v1/vault/{id}", s.withUser(s.deleteVaultItem))

	// System
	mux.HandleFunc("GET /api/v1/system/status", s.getStatus)
	mux.HandleFunc("POST /api/v1/system/pause", s.requireDaemon(s.pauseAll))
	mux.HandleFunc("POST /api/v1/system/resume", s.requireDaemon(s.resumeAll))
	mux.HandleFunc("POST /api/v1/system/purge", s.requireDaemon(s.purgeResults))
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryString extracts an optional string from query string.
func queryString(r *http.Request, name string) *string {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}
	return &val
}
