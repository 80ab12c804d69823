package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const tagKey = "tag" // slog attribute key used for tag filtering

// filteringHandler wraps a base slog.Handler and drops records by tag, package or file.
type filteringHandler struct {
	baseHandler slog.Handler
	cfg         *Config // processed config
	tag         string  // tag bound via WithAttrs
}

func newFilteringHandler(base slog.Handler, cfg *Config) *filteringHandler {
	return &filteringHandler{
		baseHandler: base,
		cfg:         cfg,
	}
}

// Enabled checks if the level is enabled by the base handler.
func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.baseHandler.Enabled(ctx, level)
}

// admits applies an enable/disable set pair to a key. Disabled wins.
func admits(enabled, disabled map[string]struct{}, key string) bool {
	key = strings.ToLower(key)
	if disabled != nil {
		if _, found := disabled[key]; found {
			return false
		}
	}
	if enabled != nil {
		if _, found := enabled[key]; !found {
			return false
		}
	}
	return true
}

// recordSource resolves the package (directory) and file of a record.
func recordSource(r slog.Record) (pkg, file string, ok bool) {
	if r.PC == 0 {
		return "", "", false
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()
	if frame.File == "" {
		return "", "", false
	}
	return filepath.Base(filepath.Dir(frame.File)), filepath.Base(frame.File), true
}

// Handle applies filtering logic before passing the record to the base handler.
func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg == nil {
		return h.baseHandler.Handle(ctx, r)
	}

	if pkg, file, ok := recordSource(r); ok {
		if !admits(h.cfg.enabledPackagesSet, h.cfg.disabledPackagesSet, pkg) {
			if debugFilter {
				fmt.Fprintf(os.Stderr, "[FILTER] dropped %q: package %s\n", r.Message, pkg)
			}
			return nil
		}
		if !admits(h.cfg.enabledFilesSet, h.cfg.disabledFilesSet, file) {
			if debugFilter {
				fmt.Fprintf(os.Stderr, "[FILTER] dropped %q: file %s\n", r.Message, file)
			}
			return nil
		}
	}

	tag := h.tag
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == tagKey {
			tag = a.Value.String()
			return false
		}
		return true
	})

	if tag != "" {
		if !admits(h.cfg.enabledTagsSet, h.cfg.disabledTagsSet, tag) {
			if debugFilter {
				fmt.Fprintf(os.Stderr, "[FILTER] dropped %q: tag %s\n", r.Message, tag)
			}
			return nil
		}
	} else if h.cfg.enabledTagsSet != nil {
		// Specific tags requested and this record has none.
		return nil
	}

	return h.baseHandler.Handle(ctx, r)
}

// WithAttrs returns a new handler with attributes added.
func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := newFilteringHandler(h.baseHandler.WithAttrs(attrs), h.cfg)
	nh.tag = h.tag
	for _, a := range attrs {
		if a.Key == tagKey {
			nh.tag = a.Value.String()
		}
	}
	return nh
}

// WithGroup returns a new handler with a group added.
func (h *filteringHandler) WithGroup(name string) slog.Handler {
	nh := newFilteringHandler(h.baseHandler.WithGroup(name), h.cfg)
	nh.tag = h.tag
	return nh
}
