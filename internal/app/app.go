// internal/app/app.go
package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/bethropolis/tomboy/internal/config"
	"github.com/bethropolis/tomboy/internal/core/clipboard"
	"github.com/bethropolis/tomboy/internal/core/find"
	"github.com/bethropolis/tomboy/internal/core/history"
	"github.com/bethropolis/tomboy/internal/core/text"
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/note"
	"github.com/bethropolis/tomboy/internal/plugin"
	"github.com/bethropolis/tomboy/internal/tag"
)

var (
	ErrNoNote          = errors.New("no note is open")
	ErrNoteNotFound    = errors.New("note not found")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrCommandExists   = errors.New("command already registered")
	ErrAmbiguousTitle  = errors.New("more than one note has this title")
	ErrInvalidArgument = errors.New("invalid argument")
)

// App wires the open note to the event bus, clipboard, plugins and the
// named commands that edit it. It is not safe for concurrent use.
type App struct {
	cfg       *config.Config
	table     *tag.Table
	events    *event.Manager
	clipboard *clipboard.Manager
	plugins   *plugin.Manager
	commands  map[string]plugin.CommandFunc
	api       *noteAPI
	out       io.Writer

	note   *note.Note
	ops    *text.Operations
	finder *find.Manager

	batching int // nesting depth of Batch calls
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	plugins   []plugin.Plugin
	clipboard *clipboard.Manager
}

// WithPlugins replaces the built-in plugin set.
func WithPlugins(plugins ...plugin.Plugin) Option {
	return func(o *appOptions) { o.plugins = plugins }
}

// WithClipboard replaces the clipboard built from the config.
func WithClipboard(m *clipboard.Manager) Option {
	return func(o *appOptions) { o.clipboard = m }
}

// NewApp creates the application and initializes its plugins. Status
// messages go to out.
func NewApp(cfg *config.Config, out io.Writer, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if out == nil {
		out = io.Discard
	}
	o := appOptions{plugins: defaultPlugins()}
	for _, opt := range opts {
		opt(&o)
	}

	events := event.NewManager()
	cb := o.clipboard
	if cb == nil {
		cb = clipboard.NewManager(cfg.Clipboard.System, events)
	}

	a := &App{
		cfg:       cfg,
		table:     tag.NewTable(),
		events:    events,
		clipboard: cb,
		plugins:   plugin.NewManager(),
		commands:  make(map[string]plugin.CommandFunc),
		out:       out,
	}
	a.api = newNoteAPI(a)

	registerAppCommands(a)
	a.subscribeLifecycle()

	if err := registerPlugins(a.plugins, o.plugins); err != nil {
		return nil, err
	}
	if err := a.plugins.InitializePlugins(a.api); err != nil {
		logger.Warnf("App: %v", err)
	}
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Events returns the event bus.
func (a *App) Events() *event.Manager { return a.events }

// TagTable returns the tag table shared by every note the app opens.
func (a *App) TagTable() *tag.Table { return a.table }

// Note returns the open note, or nil.
func (a *App) Note() *note.Note { return a.note }

// OpenNote loads the note file at path, closing any open note.
func (a *App) OpenNote(path string) (*note.Note, error) {
	n, err := note.Load(path, a.table, a.events, a.historyOptions()...)
	if err != nil {
		return nil, err
	}
	a.setNote(n)
	logger.Debugf("App: Opened note %q from %s", n.Title(), path)
	return n, nil
}

// CreateNote makes a new note titled title in the notes directory and opens
// it. The note is not written until saved.
func (a *App) CreateNote(title string) (*note.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: note title cannot be empty", ErrInvalidArgument)
	}
	if err := os.MkdirAll(a.cfg.Notes.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}
	n, err := note.Create(a.cfg.Notes.Dir, title, a.table, a.events, a.historyOptions()...)
	if err != nil {
		return nil, err
	}
	a.setNote(n)
	return n, nil
}

func (a *App) historyOptions() []history.Option {
	return []history.Option{history.WithMaxUndo(a.cfg.History.MaxUndo)}
}

func (a *App) setNote(n *note.Note) {
	a.closeNote()
	a.note = n
	a.ops = text.NewOperations(n.Buffer())
	a.finder = find.NewManager(n.Buffer())
}

func (a *App) closeNote() {
	if a.note == nil {
		return
	}
	if a.note.SaveNeeded() {
		logger.Warnf("App: Closing note %q with unsaved changes", a.note.Title())
	}
	a.note.Close()
	a.note, a.ops, a.finder = nil, nil, nil
}

// Save writes the open note if it changed.
func (a *App) Save() error {
	if a.note == nil {
		return ErrNoNote
	}
	return a.note.Save()
}

// Revert drops unsaved changes by reloading the open note from disk.
func (a *App) Revert() error {
	if a.note == nil {
		return ErrNoNote
	}
	path := a.note.Path()
	a.note.Close()
	a.note, a.ops, a.finder = nil, nil, nil
	_, err := a.OpenNote(path)
	return err
}

// ClipboardText returns the plain text of the last copy or cut.
func (a *App) ClipboardText() string { return a.clipboard.Text() }

// NoteInfo summarizes a stored note.
type NoteInfo struct {
	Path       string
	URI        string
	Title      string
	ChangeDate time.Time
}

// ListNotes reads every note in the notes directory, most recently changed
// first. Unreadable files are logged and skipped.
func (a *App) ListNotes() ([]NoteInfo, error) {
	paths, err := filepath.Glob(filepath.Join(a.cfg.Notes.Dir, "*"+note.FileExt))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	infos := make([]NoteInfo, 0, len(paths))
	for _, path := range paths {
		data, err := note.Read(path, note.URIFromPath(path))
		if err != nil {
			logger.Warnf("App: Skipping %s: %v", path, err)
			continue
		}
		infos = append(infos, NoteInfo{Path: path, URI: data.URI, Title: data.Title, ChangeDate: data.ChangeDate})
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].ChangeDate.After(infos[j].ChangeDate)
	})
	return infos, nil
}

// ResolveNote finds a note file from a path, a file name in the notes
// directory, or a title.
func (a *App) ResolveNote(ref string) (string, error) {
	candidates := []string{ref, filepath.Join(a.cfg.Notes.Dir, ref), filepath.Join(a.cfg.Notes.Dir, ref+note.FileExt)}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return a.NoteByTitle(ref)
}

// NoteByTitle finds the note file whose title matches, ignoring case.
func (a *App) NoteByTitle(title string) (string, error) {
	infos, err := a.ListNotes()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, info := range infos {
		if strings.EqualFold(info.Title, title) {
			matches = append(matches, info.Path)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNoteNotFound, title)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousTitle, title)
	}
}

// RegisterCommand adds a named command.
func (a *App) RegisterCommand(name string, fn plugin.CommandFunc) error {
	if _, exists := a.commands[name]; exists {
		return fmt.Errorf("%w: %s", ErrCommandExists, name)
	}
	a.commands[name] = fn
	logger.DebugTagf("command", "Registered command '%s'", name)
	return nil
}

// Commands returns the registered command names, sorted.
func (a *App) Commands() []string {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ExecuteCommand runs a named command, then signals that the app is idle.
func (a *App) ExecuteCommand(name string, args []string) error {
	fn, ok := a.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	logger.DebugTagf("command", "Executing '%s' %v", name, args)
	err := fn(args)
	if a.batching == 0 {
		a.events.Dispatch(event.TypeIdle, nil)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Batch runs fn as one unit. Commands inside it do not dispatch Idle, so
// plugins that act when idle, autosave among them, never see a partly
// applied batch. Idle is dispatched once when the outermost batch
// succeeds; after a failure the caller decides whether to revert.
func (a *App) Batch(fn func() error) error {
	a.batching++
	defer func() { a.batching-- }()
	if err := fn(); err != nil {
		return err
	}
	if a.batching == 1 {
		a.events.Dispatch(event.TypeIdle, nil)
	}
	return nil
}

// SetStatusMessage writes a line to the app's output.
func (a *App) SetStatusMessage(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Close shuts the plugins down, then closes the open note. Plugins may
// still save the note while shutting down.
func (a *App) Close() error {
	err := a.plugins.ShutdownPlugins()
	a.closeNote()
	return err
}
