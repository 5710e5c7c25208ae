package v1

import "net/http"

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: "ok", Daemon: "disconnected"}
	if s.deps.Daemon != nil {
		stat, err := s.deps.Daemon.GlobalStat(r.Context())
		if err != nil {
			resp.Daemon = "unreachable"
		} else {
			resp.Daemon = "connected"
			resp.Stats = &statsBlock{
				DownloadSpeed: stat.DownloadSpeed,
				UploadSpeed:   stat.UploadSpeed,
				NumActive:     stat.NumActive,
				NumWaiting:    stat.NumWaiting,
				NumStopped:    stat.NumStopped,
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pauseAll(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Daemon.PauseAll(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "DAEMON_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resumeAll(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Daemon.UnpauseAll(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "DAEMON_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) purgeResults(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Daemon.PurgeResults(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "DAEMON_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
