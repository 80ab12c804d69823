// internal/plugin/plugin.go
package plugin

import (
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/note"
)

// CommandFunc defines the signature for commands registered by plugins.
// It takes arguments (e.g., from user input) and returns an error.
type CommandFunc func(args []string) error

// NoteAPI defines the methods plugins can use to interact with the
// application. All calls happen on the goroutine that owns the open note.
type NoteAPI interface {
	// --- Note Access ---
	Note() *note.Note // The open note, nil when none is open
	SaveNote() error

	// --- Event Bus Interaction ---
	DispatchEvent(eventType event.Type, data any)
	SubscribeEvent(eventType event.Type, handler event.Handler) int
	UnsubscribeEvent(id int)

	// --- Command Registration ---
	RegisterCommand(name string, cmdFunc CommandFunc) error

	// --- Output ---
	SetStatusMessage(format string, args ...any)

	// --- Configuration ---
	PluginConfigValue(pluginName, key string) (any, bool)
}

// Plugin defines the interface that all plugins must implement.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Initialize is called once when the plugin is loaded.
	// Used for setup, subscribing to events, registering commands.
	Initialize(api NoteAPI) error

	// Shutdown is called once when the application is closing.
	Shutdown() error
}
