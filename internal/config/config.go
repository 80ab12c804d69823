// Package config loads the TOML configuration and applies command-line overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/bethropolis/tomboy/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger    logger.Config   `toml:"logger"`
	Notes     NotesConfig     `toml:"notes"`
	History   HistoryConfig   `toml:"history"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Server    ServerConfig    `toml:"server"`

	// Plugins holds per-plugin settings keyed by plugin name.
	Plugins map[string]map[string]any `toml:"plugins"`
}

// NotesConfig says where note files are stored.
type NotesConfig struct {
	Dir string `toml:"dir"`
}

// HistoryConfig bounds the undo log.
type HistoryConfig struct {
	MaxUndo int `toml:"max_undo"` // 0 keeps every action
}

// ClipboardConfig controls the system clipboard mirror.
type ClipboardConfig struct {
	System bool `toml:"system"`
}

// ServerConfig configures the HTTP note browser.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	logCfg := logger.NewConfig()
	logCfg.LogFilePath = defaultLogPath()
	return &Config{
		Logger:    logCfg,
		Notes:     NotesConfig{Dir: defaultNotesDir()},
		History:   HistoryConfig{MaxUndo: DefaultMaxUndo},
		Clipboard: ClipboardConfig{System: SystemClipboard},
		Server:    ServerConfig{Addr: DefaultServerAddr},
		Plugins:   make(map[string]map[string]any),
	}
}

// PluginValue returns a setting from the [plugins.<name>] table.
func (c *Config) PluginValue(pluginName, key string) (any, bool) {
	settings, ok := c.Plugins[pluginName]
	if !ok {
		return nil, false
	}
	v, ok := settings[key]
	return v, ok
}

func defaultNotesDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, NotesDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return NotesDirName
	}
	return filepath.Join(home, ".local", "share", NotesDirName)
}

// defaultLogPath keeps the log out of command output, under the XDG state dir.
func defaultLogPath() string {
	return statePath(DefaultLogFileName)
}

// ShellHistoryPath returns where the interactive shell keeps its history,
// or "" when there is no home directory.
func ShellHistoryPath() string {
	return statePath(ShellHistoryFileName)
}

func statePath(name string) string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppName, name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", AppName, name)
}

// DefaultPath returns the config file location under the user config dir,
// or "" when it cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// loadFromFile decodes filePath over cfg. A missing file is not an error.
func loadFromFile(filePath string, cfg *Config) error {
	metadata, err := toml.DecodeFile(filePath, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		logger.DebugTagf("config", "Config file not found: %s", filePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, undecoded)
	}
	logger.DebugTagf("config", "Loaded configuration from: %s", filePath)
	return nil
}

// validate resets invalid values to their defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if c.Notes.Dir == "" {
		c.Notes.Dir = defaults.Notes.Dir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.History.MaxUndo < 0 {
		c.History.MaxUndo = defaults.History.MaxUndo
	}
}

// Load builds the effective configuration: defaults, then the TOML file,
// then the flags that were set, then validation. An empty path means the
// default location. A broken file still yields a usable config alongside
// the error.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := NewDefaultConfig()

	if path == "" && flags != nil {
		path = flags.ConfigFilePath
	}
	if path == "" {
		path = DefaultPath()
	}

	var loadErr error
	if path != "" {
		loadErr = loadFromFile(path, cfg)
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}
	cfg.validate()
	return cfg, loadErr
}
