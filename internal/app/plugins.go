package app

import (
	"fmt"

	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/plugin"

	"github.com/bethropolis/tomboy/plugins/autosave"
	"github.com/bethropolis/tomboy/plugins/wordcount"
)

// defaultPlugins lists the plugins every App starts with.
func defaultPlugins() []plugin.Plugin {
	return []plugin.Plugin{
		wordcount.New(),
		autosave.New(),
	}
}

// registerPlugins registers plugins with the manager, stopping at the
// first failure.
func registerPlugins(pm *plugin.Manager, plugins []plugin.Plugin) error {
	if pm == nil {
		return fmt.Errorf("plugin manager is nil")
	}
	for _, p := range plugins {
		logger.Debugf("Registering plugin: %s", p.Name())
		if err := pm.Register(p); err != nil {
			return fmt.Errorf("failed to register plugin '%s': %w", p.Name(), err)
		}
	}
	return nil
}
