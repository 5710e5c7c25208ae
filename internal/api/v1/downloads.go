package v1

import (
	"errors"
	"net/http"

	"github.com/streamcloud/streamcloud/internal/download"
)

func jobToResponse(j *download.Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		MediaID:     j.MediaID,
		Status:      string(j.Status),
		SourceKind:  string(j.SourceKind),
		SourceURL:   j.SourceURL,
		Progress:    j.Progress,
		Error:       j.Error,
		GID:         j.GID,
		RequestedBy: j.RequestedBy,
		AddedAt:     j.AddedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func (s *Server) submitDownload(w http.ResponseWriter, r *http.Request) {
	var req submitDownloadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	j, err := s.deps.Downloads.Submit(r.Context(), download.SubmitRequest{
		MediaID:     req.MediaID,
		Kind:        download.SourceKind(req.Kind),
		URL:         req.URL,
		RequestedBy: userID(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, download.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		case errors.Is(err, download.ErrQuotaExceeded):
			writeError(w, http.StatusBadRequest, "QUOTA_EXCEEDED", err.Error())
		case errors.Is(err, download.ErrSubmitFailed), errors.Is(err, download.ErrDaemonUnavailable):
			writeError(w, http.StatusBadGateway, "SUBMIT_FAILED", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, jobToResponse(j))
}

func (s *Server) listDownloads(w http.ResponseWriter, r *http.Request) {
	filter := download.JobFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
		Active: r.URL.Query().Get("active") == "true",
	}
	if st := queryString(r, "status"); st != nil {
		status := download.Status(*st)
		filter.Status = &status
	}
	if mid := queryString(r, "media_id"); mid != nil {
		filter.MediaID = mid
	}

	jobs, err := s.deps.Downloads.Store().List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = jobToResponse(j)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	j, err := s.deps.Downloads.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, download.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Download not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(j))
}

func (s *Server) cancelDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	if err := s.deps.Downloads.Cancel(r.Context(), id, userID(r)); err != nil {
		switch {
		case errors.Is(err, download.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Download not found")
		case errors.Is(err, download.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "ALREADY_FINISHED", "Download already finished")
		default:
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
