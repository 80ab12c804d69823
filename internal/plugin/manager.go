// internal/plugin/manager.go
package plugin

import (
	"errors"
	"fmt"

	"github.com/bethropolis/tomboy/internal/logger"
)

var (
	ErrEmptyName         = errors.New("plugin name cannot be empty")
	ErrAlreadyRegistered = errors.New("plugin already registered")
)

// Manager handles the registration, initialization, and lifecycle of plugins.
// Plugins are initialized in registration order and shut down in reverse.
type Manager struct {
	plugins     []Plugin
	byName      map[string]Plugin
	initialized []Plugin
}

// NewManager creates a new plugin manager.
func NewManager() *Manager {
	return &Manager{byName: make(map[string]Plugin)}
}

// Register adds a plugin instance to the manager.
// This should be called before InitializePlugins.
func (m *Manager) Register(p Plugin) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("plugin registration failed: %w", ErrEmptyName)
	}
	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("plugin registration failed: '%s': %w", name, ErrAlreadyRegistered)
	}

	m.plugins = append(m.plugins, p)
	m.byName[name] = p
	logger.DebugTagf("plugin", "Registered plugin '%s'", name)
	return nil
}

// InitializePlugins calls Initialize on every registered plugin. A plugin
// that fails is logged and left out; the others still start. The first
// error is returned.
func (m *Manager) InitializePlugins(api NoteAPI) error {
	logger.DebugTagf("plugin", "Initializing %d plugins...", len(m.plugins))
	var firstErr error
	for _, p := range m.plugins {
		if err := p.Initialize(api); err != nil {
			logger.Errorf("Plugin Manager: ERROR initializing plugin '%s': %v", p.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("initialize plugin '%s': %w", p.Name(), err)
			}
			continue
		}
		m.initialized = append(m.initialized, p)
		logger.DebugTagf("plugin", "Successfully initialized plugin '%s'", p.Name())
	}
	return firstErr
}

// ShutdownPlugins calls Shutdown on the initialized plugins, last first.
func (m *Manager) ShutdownPlugins() error {
	var firstErr error
	for i := len(m.initialized) - 1; i >= 0; i-- {
		p := m.initialized[i]
		logger.DebugTagf("plugin", "Shutting down plugin '%s'...", p.Name())
		if err := p.Shutdown(); err != nil {
			logger.Errorf("Plugin Manager: ERROR shutting down plugin '%s': %v", p.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("shut down plugin '%s': %w", p.Name(), err)
			}
		}
	}
	m.initialized = nil
	return firstErr
}

// GetPlugin returns a registered plugin by name.
func (m *Manager) GetPlugin(name string) (Plugin, bool) {
	p, exists := m.byName[name]
	return p, exists
}
