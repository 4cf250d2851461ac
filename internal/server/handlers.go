package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dygy/songforge/internal/song"
)

const maxRequestSize = 4 * 1024 * 1024

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStyles lists the built-in arrangement styles
func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	type styleInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	var styles []styleInfo
	for _, name := range song.AvailableStyles() {
		styles = append(styles, styleInfo{
			Name:        string(name),
			Description: song.StyleDescription(name),
		})
	}
	writeJSON(w, http.StatusOK, styles)
}

// handleRender accepts a song spec and queues a render job
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Spec == nil {
		writeError(w, http.StatusBadRequest, "missing song spec")
		return
	}
	req.Spec.ApplyDefaults()
	if err := req.Spec.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	job, err := s.jobs.Create()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	go s.jobs.Process(job, req)

	writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID})
}

// handleStatus reports the current state of a job
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     job.ID,
		"status": job.Status,
		"stage":  job.Stage,
		"error":  job.Error,
	})
}

// handleResult returns the full result of a completed job
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Status != StatusComplete {
		writeError(w, http.StatusConflict, "job not complete")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleDownloadMaster serves the finished master WAV
func (s *Server) handleDownloadMaster(w http.ResponseWriter, r *http.Request) {
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="master.wav"`)
	http.ServeFile(w, r, job.Result.MasterPath)
}

// handleDownloadMIDI serves the exported MIDI file
func (s *Server) handleDownloadMIDI(w http.ResponseWriter, r *http.Request) {
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	if job.Result.MIDIPath == "" {
		writeError(w, http.StatusNotFound, "midi export was not requested")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="song.mid"`)
	http.ServeFile(w, r, job.Result.MIDIPath)
}

// handleDownloadStem serves one per-instrument stem WAV
func (s *Server) handleDownloadStem(w http.ResponseWriter, r *http.Request) {
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	instrument := chi.URLParam(r, "instrument")
	path, ok := job.Result.StemPaths[instrument]
	if !ok {
		writeError(w, http.StatusNotFound, "stem not found")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="stem_`+instrument+`.wav"`)
	http.ServeFile(w, r, path)
}

func (s *Server) completedJob(w http.ResponseWriter, r *http.Request) *Job {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return nil
	}
	if job.Status != StatusComplete || job.Result == nil {
		writeError(w, http.StatusConflict, "job not complete")
		return nil
	}
	return job
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
