// internal/event/event.go
package event

// Type identifies the kind of event.
type Type int

const (
	TypeUnknown Type = iota

	// Undo log events
	TypeUndoChanged // undo or redo availability flipped

	// Note events
	TypeNoteLoaded   // a note was deserialized into its buffer
	TypeNoteSaved    // a note file was written
	TypeNoteModified // the buffer of a loaded note changed

	// Clipboard events
	TypeClipboardChanged

	// Application events
	TypeIdle // a command finished; no buffer edit is in progress
)

func (t Type) String() string {
	switch t {
	case TypeUndoChanged:
		return "undo-changed"
	case TypeNoteLoaded:
		return "note-loaded"
	case TypeNoteSaved:
		return "note-saved"
	case TypeNoteModified:
		return "note-modified"
	case TypeClipboardChanged:
		return "clipboard-changed"
	case TypeIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data any
}

// UndoChangedData carries the new undo/redo availability.
type UndoChangedData struct {
	CanUndo bool
	CanRedo bool
}

// NoteData identifies the note an event is about.
type NoteData struct {
	URI  string
	Path string
}

// ClipboardData carries what was copied.
type ClipboardData struct {
	Text   string
	Markup string
}
