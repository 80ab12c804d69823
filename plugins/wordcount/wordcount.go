// plugins/wordcount/wordcount.go
package wordcount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/note"
	"github.com/bethropolis/tomboy/internal/plugin"
)

// Ensure WordCount implements plugin.Plugin
var _ plugin.Plugin = (*WordCount)(nil)

// ErrNoNote is returned when stats are requested with no note open.
var ErrNoNote = errors.New("no note is open")

// WordCount counts the lines, words and characters of the open note.
type WordCount struct {
	api plugin.NoteAPI
}

// Stats describes the plain text of a note.
type Stats struct {
	Lines int
	Words int
	Chars int
}

// New creates a new instance of the WordCount plugin.
func New() *WordCount {
	return &WordCount{}
}

// Name returns the unique name of the plugin.
func (p *WordCount) Name() string {
	return "wordcount"
}

// Initialize registers the stats command.
func (p *WordCount) Initialize(api plugin.NoteAPI) error {
	p.api = api
	if err := api.RegisterCommand("stats", p.executeStats); err != nil {
		return fmt.Errorf("failed to register 'stats' command: %w", err)
	}
	return nil
}

// Shutdown performs cleanup (nothing needed for this simple plugin).
func (p *WordCount) Shutdown() error {
	return nil
}

// Count computes stats for a note-content fragment.
func Count(markup string) (Stats, error) {
	text, err := content.PlainText(markup)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{
		Words: note.WordCount(text),
		Chars: note.CharCount(text),
	}
	if text != "" {
		s.Lines = strings.Count(text, "\n") + 1
	}
	return s, nil
}

func (p *WordCount) executeStats(args []string) error {
	if p.api == nil {
		return fmt.Errorf("wordcount plugin not initialized with API")
	}
	n := p.api.Note()
	if n == nil {
		return ErrNoNote
	}

	s, err := Count(n.Text())
	if err != nil {
		return err
	}
	p.api.SetStatusMessage("Lines: %d, Words: %d, Chars: %d", s.Lines, s.Words, s.Chars)
	return nil
}
