package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bethropolis/tomboy/internal/logger"
)

// Flags holds values bound to command-line flags. Only the flags the user
// actually set override the config file.
type Flags struct {
	fs *pflag.FlagSet

	ConfigFilePath  string
	LogLevel        string
	LogFilePath     string
	NotesDir        string
	MaxUndo         int
	SystemClipboard bool
	EnableTags      []string
	DisableTags     []string
	EnablePkgs      []string
	DisablePkgs     []string
	EnableFiles     []string
	DisableFiles    []string
	DebugLog        bool
}

// DefineFlags registers the flags on fs.
func (f *Flags) DefineFlags(fs *pflag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.ConfigFilePath, "config", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	fs.StringVar(&f.LogLevel, "loglevel", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFilePath, "logfile", "", "Path to write log file (use '-' for stderr)")
	fs.StringVar(&f.NotesDir, "notes-dir", "", "Directory holding .note files")
	fs.IntVar(&f.MaxUndo, "max-undo", 0, "Maximum number of undo actions kept (0 = unbounded)")
	fs.BoolVar(&f.SystemClipboard, "system-clipboard", SystemClipboard, "Mirror copies to the system clipboard")
	fs.StringSliceVar(&f.EnableTags, "log-tags", nil, "Comma-separated list of log tags to enable")
	fs.StringSliceVar(&f.DisableTags, "log-disable-tags", nil, "Comma-separated list of log tags to disable")
	fs.StringSliceVar(&f.EnablePkgs, "log-packages", nil, "Comma-separated list of packages to enable")
	fs.StringSliceVar(&f.DisablePkgs, "log-disable-packages", nil, "Comma-separated list of packages to disable")
	fs.StringSliceVar(&f.EnableFiles, "log-files", nil, "Comma-separated list of files to enable")
	fs.StringSliceVar(&f.DisableFiles, "log-disable-files", nil, "Comma-separated list of files to disable")
	fs.BoolVar(&f.DebugLog, "debug-log", false, "Trace the log filtering itself")
}

// ApplyOverrides copies the flags that were set into cfg.
func (f *Flags) ApplyOverrides(cfg *Config) {
	if f.fs == nil {
		return
	}
	f.fs.Visit(func(fl *pflag.Flag) {
		logger.DebugTagf("config", "Applying flag override: %s", fl.Name)
		switch fl.Name {
		case "loglevel":
			if f.LogLevel != "" {
				cfg.Logger.LogLevel = f.LogLevel
			}
		case "logfile":
			cfg.Logger.LogFilePath = f.LogFilePath
		case "notes-dir":
			if f.NotesDir != "" {
				cfg.Notes.Dir = f.NotesDir
			}
		case "max-undo":
			if f.MaxUndo >= 0 {
				cfg.History.MaxUndo = f.MaxUndo
			}
		case "system-clipboard":
			cfg.Clipboard.System = f.SystemClipboard
		case "log-tags":
			cfg.Logger.EnabledTags = cleanList(f.EnableTags)
		case "log-disable-tags":
			cfg.Logger.DisabledTags = cleanList(f.DisableTags)
		case "log-packages":
			cfg.Logger.EnabledPackages = cleanList(f.EnablePkgs)
		case "log-disable-packages":
			cfg.Logger.DisabledPackages = cleanList(f.DisablePkgs)
		case "log-files":
			cfg.Logger.EnabledFiles = cleanList(f.EnableFiles)
		case "log-disable-files":
			cfg.Logger.DisabledFiles = cleanList(f.DisableFiles)
		case "debug-log":
			logger.SetDebugFilter(f.DebugLog)
		}
	})
}

// cleanList trims entries and drops empty ones.
func cleanList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
