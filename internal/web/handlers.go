package web

import (
	"io"
	"net/http"
	"time"

	"github.com/formvcm/postulaciones/internal/core"
	"github.com/formvcm/postulaciones/internal/logging"
	"github.com/formvcm/postulaciones/internal/web/templates"
)

// SubmitResponse is returned for a stored submission.
type SubmitResponse struct {
	Success bool            `json:"success"`
	ID      string          `json:"id"`
	Message string          `json:"message"`
	Storage map[string]bool `json:"storage"`
}

// ListResponse is returned by the listing endpoint.
type ListResponse struct {
	Total         int               `json:"total"`
	Postulaciones []core.Submission `json:"postulaciones"`
}

// HealthResponse reports liveness and what the service writes to.
type HealthResponse struct {
	Status string                   `json:"status"`
	Uptime string                   `json:"uptime"`
	Sinks  []string                 `json:"sinks"`
	Intake *core.IntakeLimiterStatus `json:"intake,omitempty"`
}

const acceptedMessage = "Postulación recibida exitosamente"

// handleSubmit accepts one application form.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	receipt, err := s.intake.Submit(ctx, body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// local and sheets are always reported; an unconfigured sink reads false.
	storage := map[string]bool{core.SinkLocal: false, core.SinkSheets: false}
	for name, ok := range receipt.Storage {
		storage[name] = ok
	}

	writeJSON(w, r, http.StatusOK, SubmitResponse{
		Success: true,
		ID:      receipt.ID,
		Message: acceptedMessage,
		Storage: storage,
	})
}

// handleList returns every stored submission.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	subs, err := s.intake.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ListResponse{Total: len(subs), Postulaciones: subs})
}

// handleHealth reports that the server is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "online",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Sinks:  s.intake.SinkNames(),
	}
	if l := s.intake.Limiter(); l != nil {
		st := l.Status()
		resp.Intake = &st
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleAdminList renders the stored submissions as an HTML table.
func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subs, err := s.intake.List(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.SubmissionList(templates.RowsFromSubmissions(subs), s.intake.SinkNames())
	if err := page.Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render admin page", "error", err)
	}
}
