package app

import (
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/logger"
)

// subscribeLifecycle logs note and undo events.
func (a *App) subscribeLifecycle() {
	a.events.Subscribe(event.TypeNoteLoaded, a.handleNoteLoaded)
	a.events.Subscribe(event.TypeNoteSaved, a.handleNoteSaved)
	a.events.Subscribe(event.TypeUndoChanged, a.handleUndoChanged)
	a.events.Subscribe(event.TypeClipboardChanged, a.handleClipboardChanged)
}

func (a *App) handleNoteLoaded(e event.Event) bool {
	if data, ok := e.Data.(event.NoteData); ok {
		logger.Infof("App: Loaded note %s (%s)", data.URI, data.Path)
	}
	return false
}

func (a *App) handleNoteSaved(e event.Event) bool {
	if data, ok := e.Data.(event.NoteData); ok {
		logger.Infof("App: Saved note %s to %s", data.URI, data.Path)
	}
	return false
}

func (a *App) handleUndoChanged(e event.Event) bool {
	if data, ok := e.Data.(event.UndoChangedData); ok {
		logger.DebugTagf("history", "Undo available: %v, redo available: %v", data.CanUndo, data.CanRedo)
	}
	return false
}

func (a *App) handleClipboardChanged(e event.Event) bool {
	if data, ok := e.Data.(event.ClipboardData); ok {
		logger.DebugTagf("clipboard", "Clipboard holds %d bytes of text", len(data.Text))
	}
	return false
}
