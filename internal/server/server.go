// Package server serves notes over HTTP: a JSON API for listing, reading
// and editing notes, and HTML pages for reading them in a browser.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/config"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/convert"
)

// Server is the HTTP front end. Requests share one App, so they run one at
// a time.
type Server struct {
	router chi.Router
	log    *slog.Logger

	mu     sync.Mutex
	app    *app.App
	status bytes.Buffer // status messages of the running command
}

// New creates the server and the App it edits notes with.
func New(cfg *config.Config, log *slog.Logger, opts ...app.Option) (*Server, error) {
	s := &Server{log: log}
	a, err := app.NewApp(cfg, &s.status, opts...)
	if err != nil {
		return nil, err
	}
	s.app = a
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close shuts the App down, letting plugins save pending edits.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app.Close()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Get("/notes/{noteID}", s.handleNotePage)

	r.Route("/api/notes", func(r chi.Router) {
		r.Get("/", s.handleListNotes)
		r.Post("/", s.handleCreateNote)
		r.Get("/{noteID}", s.handleGetNote)
		r.Post("/{noteID}/commands", s.handleRunCommands)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// noteRef returns the note id from the URL. Ids name files in the notes
// directory, so path separators are refused.
func noteRef(r *http.Request) (string, error) {
	id := chi.URLParam(r, "noteID")
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", app.ErrInvalidArgument
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps App errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrNoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrAmbiguousTitle):
		status = http.StatusConflict
	case errors.Is(err, app.ErrInvalidArgument),
		errors.Is(err, app.ErrUnknownCommand),
		errors.Is(err, content.ErrMalformed):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	jsonError(w, err.Error(), status)
}

func (s *Server) handleNotePage(w http.ResponseWriter, r *http.Request) {
	id, err := noteRef(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.openNote(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var b bytes.Buffer
	if err := convert.ExportHTML(&b, convert.Page{Title: n.Title(), Markup: n.Text()}); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(b.Bytes())
}
