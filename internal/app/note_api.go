// internal/app/note_api.go
package app

import (
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/note"
	"github.com/bethropolis/tomboy/internal/plugin"
)

// Ensure noteAPI implements the plugin.NoteAPI interface.
var _ plugin.NoteAPI = (*noteAPI)(nil)

// noteAPI is what plugins see of the App.
type noteAPI struct {
	app *App
}

func newNoteAPI(app *App) *noteAPI {
	return &noteAPI{app: app}
}

// --- Note Access ---

func (api *noteAPI) Note() *note.Note { return api.app.Note() }

func (api *noteAPI) SaveNote() error { return api.app.Save() }

// --- Event Bus Interaction ---

func (api *noteAPI) DispatchEvent(eventType event.Type, data any) {
	api.app.events.Dispatch(eventType, data)
}

func (api *noteAPI) SubscribeEvent(eventType event.Type, handler event.Handler) int {
	return api.app.events.Subscribe(eventType, handler)
}

func (api *noteAPI) UnsubscribeEvent(id int) {
	api.app.events.Unsubscribe(id)
}

// --- Command Registration ---

func (api *noteAPI) RegisterCommand(name string, cmdFunc plugin.CommandFunc) error {
	return api.app.RegisterCommand(name, cmdFunc)
}

// --- Output ---

func (api *noteAPI) SetStatusMessage(format string, args ...any) {
	api.app.SetStatusMessage(format, args...)
}

// --- Configuration ---

func (api *noteAPI) PluginConfigValue(pluginName, key string) (any, bool) {
	return api.app.cfg.PluginValue(pluginName, key)
}
