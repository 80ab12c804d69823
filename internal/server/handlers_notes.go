package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/note"
	"github.com/bethropolis/tomboy/plugins/wordcount"
)

// NoteSummary is one entry of the note list.
type NoteSummary struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Changed time.Time `json:"changed"`
}

// NoteDetail is a note with its content.
type NoteDetail struct {
	ID      string    `json:"id"`
	URI     string    `json:"uri"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Changed time.Time `json:"changed"`
	Markup  string    `json:"markup"`
	Text    string    `json:"text"`
	Words   int       `json:"words"`
	Chars   int       `json:"chars"`
	Tags    []string  `json:"tags,omitempty"`
}

type createRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type commandsRequest struct {
	Commands []string `json:"commands"`
}

type commandsResponse struct {
	Output []string   `json:"output"`
	Note   NoteDetail `json:"note"`
}

// openNote opens a note by file id, falling back to its title. Callers
// hold s.mu.
func (s *Server) openNote(id string) (*note.Note, error) {
	path := filepath.Join(s.app.Config().Notes.Dir, id+note.FileExt)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if path, err = s.app.NoteByTitle(id); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s.app.OpenNote(path)
}

func detail(n *note.Note) (NoteDetail, error) {
	data := n.Data()
	text, err := content.PlainText(data.Text)
	if err != nil {
		return NoteDetail{}, err
	}
	stats, err := wordcount.Count(data.Text)
	if err != nil {
		return NoteDetail{}, err
	}
	return NoteDetail{
		ID:      note.ID(data.URI),
		URI:     data.URI,
		Title:   data.Title,
		Created: data.CreateDate,
		Changed: data.ChangeDate,
		Markup:  data.Text,
		Text:    text,
		Words:   stats.Words,
		Chars:   stats.Chars,
		Tags:    data.Tags,
	}, nil
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	infos, err := s.app.ListNotes()
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	notes := make([]NoteSummary, 0, len(infos))
	for _, info := range infos {
		notes = append(notes, NoteSummary{ID: note.ID(info.URI), Title: info.Title, Changed: info.ChangeDate})
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes, "count": len(notes)})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
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
	d, err := detail(n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.app.CreateNote(req.Title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Body != "" {
		if err := s.app.ExecuteCommand("append", []string{req.Body}); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if err := s.app.Save(); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := detail(n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleRunCommands runs editing commands against a note and saves it. A
// failing command reverts the note and nothing is saved.
func (s *Server) handleRunCommands(w http.ResponseWriter, r *http.Request) {
	id, err := noteRef(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req commandsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.openNote(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.status.Reset()
	err = s.app.Batch(func() error {
		for i, line := range req.Commands {
			if err := s.runLine(line); err != nil {
				return fmt.Errorf("command %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		if revertErr := s.app.Revert(); revertErr != nil {
			s.log.Warn("revert failed", "note", id, "error", revertErr)
		}
		s.writeError(w, err)
		return
	}
	if err := s.app.Save(); err != nil {
		s.writeError(w, err)
		return
	}

	d, err := detail(n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	output := []string{}
	if out := strings.TrimSuffix(s.status.String(), "\n"); out != "" {
		output = strings.Split(out, "\n")
	}
	writeJSON(w, http.StatusOK, commandsResponse{Output: output, Note: d})
}

func (s *Server) runLine(line string) error {
	args, err := app.SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return s.app.ExecuteCommand(args[0], args[1:])
}
