// Package server exposes a session controller over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jask/claritycanvas/internal/database/repository"
	"github.com/jask/claritycanvas/internal/export"
	"github.com/jask/claritycanvas/internal/llm"
	"github.com/jask/claritycanvas/internal/render"
	"github.com/jask/claritycanvas/internal/session"
)

// ExportRecorder keeps a history of served exports.
type ExportRecorder interface {
	Record(ctx context.Context, filename, mimeType string, size int) error
	Recent(ctx context.Context, limit int) ([]repository.ExportRecord, error)
}

// Server serializes access to one controller. The mutex is never held
// across a call to the AI gateway.
type Server struct {
	mu       sync.Mutex
	ctrl     *session.Controller
	exports  ExportRecorder
	gatherer prometheus.Gatherer
}

func New(ctrl *session.Controller, exports ExportRecorder, gatherer prometheus.Gatherer) *Server {
	return &Server{ctrl: ctrl, exports: exports, gatherer: gatherer}
}

// LogNotice is a session.Options.Notify for headless hosts.
func LogNotice(n session.Notice) {
	if n.Level == session.LevelError {
		log.Printf("warn: %s: %s", n.Title, n.Detail)
		return
	}
	log.Printf("%s: %s", n.Title, n.Detail)
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/canvas", s.handleCanvas)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/leave", s.handleLeave)
		r.Post("/pins", s.handleAddPin)
		r.Put("/pins/{id}", s.handleUpdatePin)
		r.Delete("/pins/{id}", s.handleDeletePin)
		r.Post("/layout", s.handleSetLayout)
		r.Post("/layout/generate", s.handleGenerate)
		r.Post("/feedback/summary", s.handleSummary)
		r.Post("/incognito", s.handleIncognito)
		r.Post("/lock", s.handleLock)
		r.Post("/unlock", s.handleUnlock)
		r.Delete("/canvas", s.handleClear)
		r.Get("/export", s.handleExport)
		r.Get("/exports", s.handleExportHistory)
	})
	return r
}

type sessionResponse struct {
	session.State
	Dirty       bool   `json:"dirty"`
	Summary     string `json:"summary,omitempty"`
	Generating  bool   `json:"generating"`
	Summarizing bool   `json:"summarizing"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := sessionResponse{
		State:       s.ctrl.State(),
		Dirty:       s.ctrl.Dirty(),
		Summary:     s.ctrl.Summary(),
		Generating:  s.ctrl.Gateway().Generating(),
		Summarizing: s.ctrl.Gateway().Summarizing(),
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	d := s.ctrl.BeforeLeave()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"cancelable": d.Cancelable, "reason": d.Reason})
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := s.ctrl.State()
	s.mu.Unlock()
	if st.IsLocked {
		writeError(w, http.StatusLocked, session.ErrLocked)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, render.Sanitize(st.LayoutContent))
}

type pinRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleAddPin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	p, err := s.ctrl.AddPinAt(req.X, req.Y)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pinID(w, r)
	if !ok {
		return
	}
	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	err := s.ctrl.UpdateFeedback(id, req.Feedback)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pinID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	err := s.ctrl.RemovePin(id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	err := s.ctrl.SetLayout(req.Content)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req llm.GenerateLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	locked := s.ctrl.State().IsLocked
	gw := s.ctrl.Gateway()
	s.mu.Unlock()
	if locked {
		writeError(w, http.StatusLocked, session.ErrLocked)
		return
	}

	// A dispatched call finishes even if the client goes away; the gateway
	// timeout still bounds it.
	markup, err := gw.GenerateLayout(context.WithoutCancel(r.Context()), req.Prompt)

	s.mu.Lock()
	err = s.ctrl.ApplyGenerated(markup, err)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, llm.GenerateLayoutResponse{LayoutSuggestion: markup})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	locked := s.ctrl.State().IsLocked
	texts := s.ctrl.FeedbackTexts()
	gw := s.ctrl.Gateway()
	s.mu.Unlock()
	if locked {
		writeError(w, http.StatusLocked, session.ErrLocked)
		return
	}

	summary, err := gw.SummarizeFeedback(context.WithoutCancel(r.Context()), texts)

	s.mu.Lock()
	summary, err = s.ctrl.ApplySummary(summary, err)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, llm.SummarizeFeedbackResponse{Summary: summary})
}

func (s *Server) handleIncognito(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	err := s.ctrl.ToggleIncognito(req.Enabled)
	st := s.ctrl.State()
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.ctrl.Lock()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	err := s.ctrl.Unlock(req.PIN)
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.ctrl.ClearCanvas()
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	art, err := s.ctrl.ExportSnapshot(f)
	if err == nil {
		s.ctrl.MarkExported()
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if s.exports != nil {
		if err := s.exports.Record(r.Context(), art.Filename, art.MIMEType, len(art.Body)); err != nil {
			log.Printf("warn: record export: %v", err)
		}
	}
	w.Header().Set("Content-Type", art.MIMEType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Body)
}

type exportRecord struct {
	Filename   string    `json:"filename"`
	MIMEType   string    `json:"mimeType"`
	SizeBytes  int       `json:"sizeBytes"`
	ExportedAt time.Time `json:"exportedAt"`
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 100)
	}
	out := []exportRecord{}
	if s.exports != nil {
		recs, err := s.exports.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		for _, rec := range recs {
			out = append(out, exportRecord{Filename: rec.Filename, MIMEType: rec.MIMEType, SizeBytes: rec.SizeBytes, ExportedAt: rec.ExportedAt})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func pinID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid pin id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func statusFor(err error) int {
	var genErr *llm.GenerationError
	var sumErr *llm.SummarizationError
	switch {
	case errors.Is(err, session.ErrLocked):
		return http.StatusLocked
	case errors.Is(err, session.ErrIncorrectPin):
		return http.StatusForbidden
	case errors.Is(err, llm.ErrEmptyPrompt), errors.Is(err, llm.ErrNoContent):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, repository.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.As(err, &genErr), errors.As(err, &sumErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("warn: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
