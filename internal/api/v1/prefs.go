package v1

import (
	"errors"
	"net/http"

	"github.com/streamcloud/streamcloud/internal/prefs"
)

func prefsToResponse(p *prefs.Preferences) prefsResponse {
	return prefsResponse{
		StreamingQuality:     p.StreamingQuality,
		PreferredAudioFormat: p.PreferredAudioFormat,
		MaxDownloadSize:      p.MaxDownloadSize,
		NotificationSettings: p.NotificationSettings,
		UIPreferences:        p.UIPreferences,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Prefs.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prefsToResponse(p))
}

func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var req prefsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	p, err := s.deps.Prefs.Update(r.Context(), userID(r), prefs.Update{
		StreamingQuality:     req.StreamingQuality,
		PreferredAudioFormat: req.PreferredAudioFormat,
		MaxDownloadSize:      req.MaxDownloadSize,
		NotificationSettings: req.NotificationSettings,
		UIPreferences:        req.UIPreferences,
	})
	if err != nil {
		if errors.Is(err, prefs.ErrInvalidPreference) {
			writeError(w, http.StatusBadRequest, "INVALID_PREFERENCE", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prefsToResponse(p))
}
