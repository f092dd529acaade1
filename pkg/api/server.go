// Package api exposes the control surface of a running view: change
// notifications, stats, health, and Prometheus metrics.
//
// The API never mutates the graph directly. Sync requests only post to the
// view's mailbox; the tick loop applies them, which keeps the single-writer
// discipline intact even with concurrent callers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/matzehuels/vaultgraph/pkg/errors"
	"github.com/matzehuels/vaultgraph/pkg/observability"
	"github.com/matzehuels/vaultgraph/pkg/source"
	"github.com/matzehuels/vaultgraph/pkg/view"
)

// Controller is the slice of the view the API needs. Both methods are safe
// for concurrent use.
type Controller interface {
	Mailbox() *source.Mailbox
	Stats() view.Stats
}

// Server is the HTTP control API.
type Server struct {
	ctrl   Controller
	router chi.Router
}

// NewServer builds the API around a view controller.
func NewServer(ctrl Controller) *Server {
	s := &Server{ctrl: ctrl}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hooksMiddleware)

	r.Post("/sync", s.handleSyncBulk)
	r.Post("/sync/*", s.handleSyncNote)
	r.Get("/stats", s.handleStats)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the http handler for mounting or serving.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleSyncBulk(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Mailbox().Post(source.Event{Kind: source.EventBulk})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "scope": "bulk"})
}

func (s *Server) handleSyncNote(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "*")
	if err := apperrors.ValidateLabel(label); err != nil {
		writeError(w, r, err)
		return
	}
	s.ctrl.Mailbox().Post(source.Event{Kind: source.EventNote, Label: label})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "scope": "note", "label": label})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.ctrl.Stats()
	if stats.Wedged {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "wedged"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// hooksMiddleware reports request outcomes to the observability hooks.
func hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidLabel, apperrors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeNoteNotFound, apperrors.ErrCodeVaultNotFound:
		status = http.StatusNotFound
	}
	log.FromContext(r.Context()).Warn("request failed",
		"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, map[string]string{
		"error": apperrors.UserMessage(err),
		"code":  string(apperrors.GetCode(err)),
	})
}
