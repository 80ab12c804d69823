// Package autosave saves the open note after it changes. Saves only happen
// when the application is idle, never from inside a buffer edit, and at
// most once per interval; whatever is left is saved on shutdown.
package autosave

import (
	"time"

	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/plugin"
)

// Ensure AutoSave implements plugin.Plugin
var _ plugin.Plugin = (*AutoSave)(nil)

const (
	// Default configuration values
	defaultEnabled  = true
	defaultInterval = 4 * time.Second
)

// AutoSave plugin automatically saves modified notes.
type AutoSave struct {
	api plugin.NoteAPI

	// Configuration
	enabled  bool
	interval time.Duration
	now      func() time.Time

	// Runtime state
	subscriptions []int
	dirty         bool
	lastSave      time.Time
}

// Option configures the plugin.
type Option func(*AutoSave)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *AutoSave) { p.now = now }
}

// New creates a new instance of the AutoSave plugin.
func New(opts ...Option) *AutoSave {
	p := &AutoSave{
		enabled:  defaultEnabled,
		interval: defaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the unique name of the plugin.
func (p *AutoSave) Name() string {
	return "autosave"
}

// Initialize reads configuration and subscribes to note events if enabled.
func (p *AutoSave) Initialize(api plugin.NoteAPI) error {
	p.api = api
	pluginName := p.Name()

	// --- Read Configuration ---
	if enabledVal, ok := api.PluginConfigValue(pluginName, "enabled"); ok {
		if boolVal, isBool := enabledVal.(bool); isBool {
			p.enabled = boolVal
		} else {
			logger.Warnf("%s: Invalid type for 'enabled' config (%T), using default (%v)", pluginName, enabledVal, p.enabled)
		}
	}

	if intervalVal, ok := api.PluginConfigValue(pluginName, "interval"); ok {
		if strVal, isStr := intervalVal.(string); isStr {
			parsedInterval, err := time.ParseDuration(strVal)
			switch {
			case err != nil:
				logger.Warnf("%s: Invalid format for 'interval' config ('%s'): %v. Using default (%v)", pluginName, strVal, err, p.interval)
			case parsedInterval < 0:
				logger.Warnf("%s: 'interval' config must not be negative ('%s'). Using default (%v)", pluginName, strVal, p.interval)
			default:
				p.interval = parsedInterval
			}
		} else {
			logger.Warnf("%s: Invalid type for 'interval' config (%T), using default (%v)", pluginName, intervalVal, p.interval)
		}
	}

	logger.Infof("%s initialized. Enabled: %v, Interval: %v", pluginName, p.enabled, p.interval)
	if !p.enabled {
		return nil
	}

	p.lastSave = p.now()
	p.subscriptions = []int{
		api.SubscribeEvent(event.TypeNoteModified, p.handleModified),
		api.SubscribeEvent(event.TypeNoteSaved, p.handleSaved),
		api.SubscribeEvent(event.TypeNoteLoaded, p.handleLoaded),
		api.SubscribeEvent(event.TypeIdle, p.handleIdle),
	}
	return nil
}

// Shutdown saves pending changes and unsubscribes.
func (p *AutoSave) Shutdown() error {
	for _, id := range p.subscriptions {
		p.api.UnsubscribeEvent(id)
	}
	p.subscriptions = nil

	if p.enabled && p.dirty {
		logger.Debugf("%s: Saving pending changes on shutdown", p.Name())
		return p.save()
	}
	return nil
}

func (p *AutoSave) handleModified(e event.Event) bool {
	p.dirty = true
	return false
}

func (p *AutoSave) handleSaved(e event.Event) bool {
	p.dirty = false
	p.lastSave = p.now()
	return false
}

func (p *AutoSave) handleLoaded(e event.Event) bool {
	p.dirty = false
	p.lastSave = p.now()
	return false
}

// handleIdle saves when changes are pending and the interval has passed.
func (p *AutoSave) handleIdle(e event.Event) bool {
	if !p.dirty || p.now().Sub(p.lastSave) < p.interval {
		return false
	}
	if err := p.save(); err != nil {
		logger.Errorf("%s: Auto-save failed: %v", p.Name(), err)
	}
	return false
}

func (p *AutoSave) save() error {
	n := p.api.Note()
	if n == nil {
		p.dirty = false
		return nil
	}
	logger.Infof("%s: Auto-saving modified note: %s", p.Name(), n.Path())
	return p.api.SaveNote()
}
