package server

import (
	"encoding/json"
	"net/http"

	"github.com/grabtune/grabtune/internal/config"
	"github.com/grabtune/grabtune/internal/platform"
	"github.com/grabtune/grabtune/internal/queue"
)

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &queue.ValidationError{Reason: "malformed request body: " + err.Error()}
	}
	return nil
}

func (s *Server) handleAddJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	job, err := s.queue.Add(req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Snapshot().Jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.queue.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleRetryJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.queue.Retry(id); err != nil {
		writeError(w, r, err)
		return
	}
	job, err := s.queue.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.queue.Cancel(id); err != nil {
		writeError(w, r, err)
		return
	}
	// Cancellation of a running job is asynchronous; return the job as it
	// is right now.
	job, err := s.queue.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleRemoveJob(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Remove(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.hub.BroadcastQueue(s.queue.Snapshot())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueueState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Snapshot())
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Stats())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.queue.Pause()
	writeJSON(w, http.StatusOK, s.queue.Snapshot())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.queue.Resume()
	writeJSON(w, http.StatusOK, s.queue.Snapshot())
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed := s.queue.ClearCompleted()
	s.hub.BroadcastQueue(s.queue.Snapshot())
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	s.queue.CancelAll()
	writeJSON(w, http.StatusAccepted, s.queue.Snapshot())
}

func (s *Server) handleRetryAllFailed(w http.ResponseWriter, r *http.Request) {
	retried := s.queue.RetryAllFailed()
	writeJSON(w, http.StatusOK, map[string]int{"retried": retried})
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit int `json:"limit"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.queue.SetConcurrentLimit(req.Limit); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.queue.Snapshot())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Snapshot())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Config
	if err := decodeBody(r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.cfg.Update(cfg); err != nil {
		writeError(w, r, &queue.ValidationError{Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Snapshot())
}

func (s *Server) handleImportCookies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	info, err := s.cookies.Import(req.Path)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Point the downloader at the freshly imported file.
	cfg := s.cfg.Snapshot()
	cfg.CookiesPath = info.FilePath
	if err := s.cfg.Update(cfg); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleValidateCookies(w http.ResponseWriter, r *http.Request) {
	info, err := s.cookies.Validate()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleClearCookies(w http.ResponseWriter, r *http.Request) {
	if err := s.cookies.Clear(); err != nil {
		writeError(w, r, err)
		return
	}

	cfg := s.cfg.Snapshot()
	if cfg.CookiesPath == s.cookies.Path() {
		cfg.CookiesPath = ""
		if err := s.cfg.Update(cfg); err != nil {
			writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenDownloads(w http.ResponseWriter, r *http.Request) {
	if err := platform.OpenFolder(s.cfg.Snapshot().OutputPath); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, err := s.version(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"gytmdl_version": version,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.hub.register <- conn

	// Clients only listen; the read loop exists to notice disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.unregister <- conn
				return
			}
		}
	}()
}
