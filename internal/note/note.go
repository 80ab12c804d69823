package note

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/core/history"
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
)

// Note ties stored note data to an editing buffer and its undo log. The
// stored content is regenerated from the buffer lazily, after an edit
// invalidates it.
type Note struct {
	data   *Data
	path   string
	buf    *buffer.NoteBuffer
	undo   *history.Manager
	events *event.Manager

	change tag.ChangeType
}

// New binds data to a fresh buffer and loads its content. events may be nil.
func New(path string, data *Data, table *tag.Table, events *event.Manager, opts ...history.Option) (*Note, error) {
	buf := buffer.New(table)
	n := &Note{
		data:   data,
		path:   path,
		buf:    buf,
		undo:   history.NewManager(buf, events, opts...),
		events: events,
	}
	if err := n.synchronizeBuffer(); err != nil {
		return nil, err
	}
	buf.AddObserver(n)
	n.refreshTitle()
	events.Dispatch(event.TypeNoteLoaded, event.NoteData{URI: data.URI, Path: path})
	return n, nil
}

// Load reads the note file at path.
func Load(path string, table *tag.Table, events *event.Manager, opts ...history.Option) (*Note, error) {
	data, err := Read(path, URIFromPath(path))
	if err != nil {
		return nil, err
	}
	return New(path, data, table, events, opts...)
}

// URIFromPath derives a note URI from its file name.
func URIFromPath(path string) string {
	return URIPrefix + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Create makes a new, unsaved note in dir whose first line is title.
func Create(dir, title string, table *tag.Table, events *event.Manager, opts ...history.Option) (*Note, error) {
	uri := NewURI()
	now := time.Now()
	data := NewData(uri)
	data.Title = title
	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(title))
	data.Text = fmt.Sprintf(`<%s version="%s">%s`+"\n\n</%s>",
		content.RootElement, content.FormatVersion, escaped.String(), content.RootElement)
	data.CreateDate = now
	data.ChangeDate = now
	data.MetadataChangeDate = now

	n, err := New(filepath.Join(dir, ID(uri)+FileExt), data, table, events, opts...)
	if err != nil {
		return nil, err
	}
	n.change = tag.ContentChanged
	return n, nil
}

func (n *Note) URI() string                { return n.data.URI }
func (n *Note) Path() string               { return n.path }
func (n *Note) Buffer() *buffer.NoteBuffer { return n.buf }
func (n *Note) History() *history.Manager  { return n.undo }

// Title returns the first line of the note.
func (n *Note) Title() string {
	n.refreshTitle()
	return n.data.Title
}

// SaveNeeded reports whether the note changed since it was loaded or saved.
func (n *Note) SaveNeeded() bool { return n.change != tag.NoChange }

// Text returns the note-content markup of the buffer.
func (n *Note) Text() string {
	n.synchronizeText()
	return n.data.Text
}

// SetText replaces the note content. The undo history is cleared.
func (n *Note) SetText(markup string) error {
	if err := content.Validate(markup); err != nil {
		return err
	}
	n.data.Text = markup
	if err := n.synchronizeBuffer(); err != nil {
		return err
	}
	n.change = tag.ContentChanged
	n.refreshTitle()
	return nil
}

// Data returns the note data with its text in step with the buffer.
func (n *Note) Data() *Data {
	n.refreshTitle()
	n.synchronizeText()
	n.data.CursorPosition = n.buf.Cursor()
	n.data.SelectionBoundPosition = n.buf.SelectionBound()
	return n.data
}

// Save writes the note if it changed.
func (n *Note) Save() error {
	if !n.SaveNeeded() {
		return nil
	}
	now := time.Now()
	if n.change == tag.ContentChanged {
		n.data.ChangeDate = now
	}
	n.data.MetadataChangeDate = now

	if err := Write(n.path, n.Data()); err != nil {
		return err
	}
	n.change = tag.NoChange
	n.buf.SetModified(false)
	logger.Debugf("Saved note %q to %s", n.data.Title, n.path)
	n.events.Dispatch(event.TypeNoteSaved, event.NoteData{URI: n.data.URI, Path: n.path})
	return nil
}

// Close detaches the note from its buffer.
func (n *Note) Close() {
	n.buf.RemoveObserver(n)
	n.undo.Close()
}

func (n *Note) invalidateText()    { n.data.Text = "" }
func (n *Note) textInvalid() bool { return n.data.Text == "" }

func (n *Note) synchronizeText() {
	if n.textInvalid() {
		n.data.Text = content.SerializeAll(n.buf)
	}
}

// synchronizeBuffer reloads the buffer from the stored text without
// recording undo actions.
func (n *Note) synchronizeBuffer() error {
	if n.textInvalid() {
		return nil
	}
	markup := n.data.Text

	n.undo.FreezeUndo()
	defer n.undo.ThawUndo()

	if err := n.buf.Clear(); err != nil {
		return err
	}
	if err := content.Deserialize(n.buf, 0, markup); err != nil {
		return fmt.Errorf("load note %s: %w", n.data.URI, err)
	}
	// Clearing and loading invalidated the text.
	n.data.Text = markup
	n.buf.SetModified(false)

	if n.data.CursorPosition != 0 {
		n.buf.SetCursor(n.data.CursorPosition)
	} else if start, _, ok := n.buf.LineBounds(2); ok {
		// Skip the title line.
		n.buf.SetCursor(start)
	} else {
		n.buf.SetCursor(n.buf.Len())
	}
	return nil
}

// refreshTitle applies the note-title tag to the first line and copies its
// text into the note data.
func (n *Note) refreshTitle() {
	titleTag := n.buf.TagTable().Lookup(tag.NoteTitle)
	start, end, _ := n.buf.LineBounds(0)
	if titleTag != nil {
		for _, r := range n.buf.TagRanges(titleTag) {
			if r.Start != start || r.End != end {
				_ = n.buf.RemoveTag(titleTag, r.Start, r.End)
			}
		}
		if end > start {
			_ = n.buf.ApplyTag(titleTag, start, end)
		}
	}
	if title := strings.TrimSpace(n.buf.Slice(start, end)); title != "" {
		n.data.Title = title
	}
}

// markChanged records the strongest change since the last save: content
// changes also bump the change date, other data only the metadata date.
func (n *Note) markChanged(ct tag.ChangeType) {
	switch {
	case ct == tag.ContentChanged:
		n.change = ct
	case ct == tag.OtherDataChanged && n.change == tag.NoChange:
		n.change = ct
	}
	n.events.Dispatch(event.TypeNoteModified, event.NoteData{URI: n.data.URI, Path: n.path})
}

// --- buffer.EditObserver ---

func (n *Note) OnInsert(offset int, text string) {
	n.invalidateText()
	n.markChanged(tag.ContentChanged)
}

func (n *Note) OnDelete(start, end int) {
	n.invalidateText()
	n.markChanged(tag.ContentChanged)
}

func (n *Note) OnTagApplied(t *tag.Tag, start, end int) { n.tagChanged(t) }
func (n *Note) OnTagRemoved(t *tag.Tag, start, end int) { n.tagChanged(t) }

func (n *Note) tagChanged(t *tag.Tag) {
	table := n.buf.TagTable()
	if !table.IsSerializable(t) {
		return
	}
	n.invalidateText()
	n.markChanged(table.ChangeType(t))
}

var _ buffer.EditObserver = (*Note)(nil)
