package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/sessionsync/internal/locator"
	"github.com/MikeSquared-Agency/sessionsync/internal/session"
	"github.com/MikeSquared-Agency/sessionsync/internal/store"
	"github.com/MikeSquared-Agency/sessionsync/internal/transcript"
	"github.com/MikeSquared-Agency/sessionsync/internal/workspace"
)

// Lister enumerates the transcripts of the current workspace.
type Lister interface {
	List(ctx context.Context) ([]locator.Session, error)
}

// Extractor renders one transcript.
type Extractor interface {
	Extract(ctx context.Context, sessionID string) (session.TranscriptExtracted, error)
}

// Archive reads previously archived extractions.
type Archive interface {
	GetTranscript(ctx context.Context, sessionID string) (session.TranscriptExtracted, error)
}

type Server struct {
	router    *chi.Mux
	http      *http.Server
	sessions  Lister
	extractor Extractor
	archive   Archive
}

// NewServer builds the router. archive may be nil, in which case the
// archive route is not mounted.
func NewServer(port int, sessions Lister, ext Extractor, archive Archive) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		sessions:  sessions,
		extractor: ext,
		archive:   archive,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Get("/latest", s.latestTranscript)
		r.Get("/{id}", s.sessionTranscript)
	})
	if archive != nil {
		router.Get("/api/v1/archive/{id}", s.archivedTranscript)
	}

	return s
}

func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []locator.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) latestTranscript(w http.ResponseWriter, r *http.Request) {
	s.writeTranscript(w, r, "")
}

func (s *Server) sessionTranscript(w http.ResponseWriter, r *http.Request) {
	s.writeTranscript(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeTranscript(w http.ResponseWriter, r *http.Request, sessionID string) {
	t, err := s.extractor.Extract(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Session-Id", t.SessionID)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, t.Text)
}

func (s *Server) archivedTranscript(w http.ResponseWriter, r *http.Request) {
	t, err := s.archive.GetTranscript(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workspace.ErrNotInRepository):
		status = http.StatusConflict
	case errors.Is(err, locator.ErrTranscriptNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, transcript.ErrMalformedRecord):
		status = http.StatusUnprocessableEntity
	default:
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
