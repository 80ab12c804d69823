// Package clipboard copies styled note text between buffers. The styled
// copy is kept as note-content markup; the plain text is mirrored to the
// system clipboard when one is available.
package clipboard

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/logger"
)

// Buffer is what the clipboard needs from a note buffer.
type Buffer interface {
	buffer.Buffer
	Selection() (start, end int, ok bool)
	SetCursor(offset int)
	InsertInteractive(text string) error
}

// Manager handles clipboard operations
type Manager struct {
	system bool
	events *event.Manager

	text   string
	markup string
}

// NewManager creates a clipboard manager. With system set, copies are
// mirrored to the desktop clipboard and pastes of foreign text come from it.
func NewManager(system bool, events *event.Manager) *Manager {
	if system && clipboard.Unsupported {
		logger.Warnf("ClipboardManager: no system clipboard available, using an internal one")
		system = false
	}
	return &Manager{system: system, events: events}
}

// Text returns the plain text of the last copy.
func (m *Manager) Text() string { return m.text }

// Markup returns the note-content markup of the last copy.
func (m *Manager) Markup() string { return m.markup }

// Copy stores the selection. It reports false when nothing is selected.
func (m *Manager) Copy(buf Buffer) (bool, error) {
	start, end, ok := buf.Selection()
	if !ok {
		return false, nil
	}
	m.store(buf, start, end)
	return true, nil
}

// Cut stores the selection and deletes it.
func (m *Manager) Cut(buf Buffer) (bool, error) {
	start, end, ok := buf.Selection()
	if !ok {
		return false, nil
	}
	m.store(buf, start, end)
	if err := buf.Delete(start, end); err != nil {
		return false, fmt.Errorf("failed to delete selection for cut: %w", err)
	}
	buf.SetCursor(start)
	return true, nil
}

// Paste inserts the clipboard at the cursor, replacing any selection. Text
// copied by another program is pasted plain; our own copies keep their tags.
func (m *Manager) Paste(buf Buffer) (bool, error) {
	if foreign, ok := m.foreignText(); ok {
		if err := buf.InsertInteractive(foreign); err != nil {
			return false, fmt.Errorf("buffer insert failed during paste: %w", err)
		}
		logger.Debugf("ClipboardManager: Pasted %d plain characters", utf8.RuneCountInString(foreign))
		return true, nil
	}
	if m.markup == "" {
		return false, nil
	}

	// Materialize the markup in a scratch buffer so it lands as one insert.
	scratch := buffer.New(buf.TagTable())
	if err := content.Deserialize(scratch, 0, m.markup); err != nil {
		return false, fmt.Errorf("failed to read clipboard markup: %w", err)
	}
	chop := scratch.Copy(0, scratch.Len())

	if start, end, ok := buf.Selection(); ok {
		if err := buf.Delete(start, end); err != nil {
			return false, fmt.Errorf("failed to delete selection before paste: %w", err)
		}
		buf.SetCursor(start)
	}
	offset := buf.Cursor()
	if err := buf.InsertChop(offset, chop); err != nil {
		return false, fmt.Errorf("buffer insert failed during paste: %w", err)
	}
	buf.SetCursor(offset + chop.Len())

	logger.Debugf("ClipboardManager: Pasted %d characters", chop.Len())
	return true, nil
}

func (m *Manager) store(buf Buffer, start, end int) {
	m.markup = content.Serialize(buf, start, end)
	m.text = strings.ReplaceAll(buf.Slice(start, end), string(buffer.AnchorChar), "")
	logger.Debugf("ClipboardManager: Copied %d characters", end-start)

	if m.system {
		if err := clipboard.WriteAll(m.text); err != nil {
			logger.Warnf("ClipboardManager: system clipboard write failed: %v", err)
		}
	}
	m.events.Dispatch(event.TypeClipboardChanged, event.ClipboardData{Text: m.text, Markup: m.markup})
}

// foreignText returns system clipboard text that did not come from us.
func (m *Manager) foreignText() (string, bool) {
	if !m.system {
		return "", false
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		logger.Warnf("ClipboardManager: system clipboard read failed: %v", err)
		return "", false
	}
	if text == "" || text == m.text {
		return "", false
	}
	return text, true
}
