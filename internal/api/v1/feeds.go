package v1

import (
	"errors"
	"net/http"

	"github.com/streamcloud/streamcloud/internal/feed"
)

func feedToResponse(src *feed.Source) feedResponse {
	return feedResponse{
		ID:          src.ID,
		URL:         src.URL,
		Label:       src.Label,
		Patterns:    src.Patterns,
		LastChecked: src.LastChecked,
		AddedAt:     src.AddedAt,
	}
}

func (s *Server) listFeeds(w http.ResponseWriter, r *http.Request) {
	sources, err := s.deps.Feeds.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]feedResponse, len(sources))
	for i, src := range sources {
		resp[i] = feedToResponse(src)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addFeed(w http.ResponseWriter, r *http.Request) {
	var req feedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	src := &feed.Source{
		URL:      req.URL,
		Label:    req.Label,
		OwnerID:  userID(r),
		Patterns: req.Patterns,
	}
	if err := s.deps.Feeds.Add(src); err != nil {
		switch {
		case errors.Is(err, feed.ErrInvalidSource):
			writeError(w, http.StatusBadRequest, "INVALID_SOURCE", err.Error())
		case errors.Is(err, feed.ErrDuplicate):
			writeError(w, http.StatusConflict, "DUPLICATE", "Feed already exists")
		default:
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, feedToResponse(src))
}

func (s *Server) updateFeed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	var req feedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	src, err := s.deps.Feeds.Get(id)
	if err != nil {
		if errors.Is(err, feed.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Feed not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	if req.Label != "" {
		src.Label = req.Label
	}
	if req.Patterns != nil {
		src.Patterns = req.Patterns
	}
	if err := s.deps.Feeds.Update(src); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, feedToResponse(src))
}

func (s *Server) deleteFeed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if err := s.deps.Feeds.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
