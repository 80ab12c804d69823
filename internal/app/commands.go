package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/plugin"
)

// registerAppCommands registers the built-in editing commands.
func registerAppCommands(a *App) {
	builtins := map[string]plugin.CommandFunc{
		"append":        a.withNote(a.cmdAppend),
		"insert":        a.withNote(a.cmdInsert),
		"type":          a.withNote(a.cmdType),
		"newline":       a.withNote(a.cmdNewline),
		"backspace":     a.withNote(a.cmdBackspace),
		"delete":        a.withNote(a.cmdDelete),
		"cursor":        a.withNote(a.cmdCursor),
		"select":        a.withNote(a.cmdSelect),
		"tag":           a.withNote(a.cmdTag),
		"copy":          a.withNote(a.cmdCopy),
		"cut":           a.withNote(a.cmdCut),
		"paste":         a.withNote(a.cmdPaste),
		"find":          a.withNote(a.findCmd(false)),
		"find-regex":    a.withNote(a.findCmd(true)),
		"next":          a.withNote(a.findNextCmd(true)),
		"prev":          a.withNote(a.findNextCmd(false)),
		"replace":       a.withNote(a.replaceCmd(false)),
		"replace-regex": a.withNote(a.replaceCmd(true)),
		"undo":          a.withNote(a.cmdUndo),
		"redo":          a.withNote(a.cmdRedo),
		"save":          a.withNote(a.cmdSave),
	}
	for name, fn := range builtins {
		if err := a.RegisterCommand(name, fn); err != nil {
			logger.Warnf("Failed to register '%s' command: %v", name, err)
		}
	}
}

func (a *App) withNote(fn plugin.CommandFunc) plugin.CommandFunc {
	return func(args []string) error {
		if a.note == nil {
			return ErrNoNote
		}
		return fn(args)
	}
}

// --- Text entry ---

func (a *App) cmdAppend(args []string) error {
	buf := a.note.Buffer()
	buf.SetCursor(buf.Len())
	return a.ops.InsertText(strings.Join(args, " "))
}

func (a *App) cmdInsert(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: usage: insert OFFSET TEXT", ErrInvalidArgument)
	}
	offset, err := a.offsetArg(args[0])
	if err != nil {
		return err
	}
	a.note.Buffer().SetCursor(offset)
	return a.ops.InsertText(strings.Join(args[1:], " "))
}

func (a *App) cmdType(args []string) error {
	return a.ops.InsertText(strings.Join(args, " "))
}

func (a *App) cmdNewline(args []string) error {
	return a.ops.InsertNewLine()
}

func (a *App) cmdBackspace(args []string) error {
	return a.repeat(args, a.ops.DeleteBackward)
}

func (a *App) cmdDelete(args []string) error {
	return a.repeat(args, a.ops.DeleteForward)
}

func (a *App) repeat(args []string, fn func() error) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("%w: count %q", ErrInvalidArgument, args[0])
		}
		n = v
	}
	for i := 0; i < n; i++ {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// --- Cursor and selection ---

func (a *App) cmdCursor(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: cursor OFFSET", ErrInvalidArgument)
	}
	offset, err := a.offsetArg(args[0])
	if err != nil {
		return err
	}
	a.note.Buffer().SetCursor(offset)
	return nil
}

func (a *App) cmdSelect(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: usage: select START END", ErrInvalidArgument)
	}
	start, err := a.offsetArg(args[0])
	if err != nil {
		return err
	}
	end, err := a.offsetArg(args[1])
	if err != nil {
		return err
	}
	a.note.Buffer().SelectRange(end, start)
	return nil
}

// offsetArg parses a character offset; "end" is the buffer length.
func (a *App) offsetArg(arg string) (int, error) {
	length := a.note.Buffer().Len()
	if arg == "end" {
		return length, nil
	}
	v, err := strconv.Atoi(arg)
	if err != nil || v < 0 || v > length {
		return 0, fmt.Errorf("%w: offset %q outside 0..%d", ErrInvalidArgument, arg, length)
	}
	return v, nil
}

// cmdTag toggles a style on the selection, or on text typed next when
// nothing is selected.
func (a *App) cmdTag(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: tag NAME", ErrInvalidArgument)
	}
	t := a.table.Lookup(args[0])
	if t == nil {
		return fmt.Errorf("%w: unknown tag %q", ErrInvalidArgument, args[0])
	}
	buf := a.note.Buffer()
	start, end, ok := buf.Selection()
	if !ok {
		return a.ops.ToggleTag(args[0])
	}
	for i := start; i < end; i++ {
		if !buf.HasTag(t, i) {
			return buf.ApplyTag(t, start, end)
		}
	}
	return buf.RemoveTag(t, start, end)
}

// --- Clipboard ---

func (a *App) cmdCopy(args []string) error {
	ok, err := a.clipboard.Copy(a.note.Buffer())
	if err == nil && !ok {
		a.SetStatusMessage("Nothing selected")
	}
	return err
}

func (a *App) cmdCut(args []string) error {
	ok, err := a.clipboard.Cut(a.note.Buffer())
	if err == nil && !ok {
		a.SetStatusMessage("Nothing selected")
	}
	return err
}

func (a *App) cmdPaste(args []string) error {
	ok, err := a.clipboard.Paste(a.note.Buffer())
	if err == nil && !ok {
		a.SetStatusMessage("Clipboard is empty")
	}
	return err
}

// --- Find and replace ---

func (a *App) findCmd(useRegex bool) plugin.CommandFunc {
	return func(args []string) error {
		count, err := a.finder.HighlightMatches(strings.Join(args, " "), useRegex)
		if err != nil {
			return err
		}
		a.SetStatusMessage("%d matches", count)
		for _, r := range a.finder.Matches() {
			a.SetStatusMessage("%d-%d", r.Start, r.End)
		}
		return nil
	}
}

func (a *App) findNextCmd(forward bool) plugin.CommandFunc {
	return func(args []string) error {
		r, ok := a.finder.FindNext(forward)
		if !ok {
			a.SetStatusMessage("No matches")
			return nil
		}
		a.SetStatusMessage("%d-%d", r.Start, r.End)
		return nil
	}
}

func (a *App) replaceCmd(useRegex bool) plugin.CommandFunc {
	return func(args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("%w: usage: replace PATTERN REPLACEMENT", ErrInvalidArgument)
		}
		count, err := a.finder.ReplaceAll(args[0], args[1], useRegex)
		if err != nil {
			return err
		}
		a.SetStatusMessage("Replaced %d occurrences", count)
		return nil
	}
}

// --- History ---

func (a *App) cmdUndo(args []string) error {
	return a.repeat(args, a.note.History().Undo)
}

func (a *App) cmdRedo(args []string) error {
	return a.repeat(args, a.note.History().Redo)
}

func (a *App) cmdSave(args []string) error {
	return a.note.Save()
}

// RunScript executes one command per line. Blank lines and lines starting
// with '#' are skipped. Arguments are split on spaces; double-quoted
// arguments may contain spaces and Go escapes such as \n. The script runs
// as one Batch.
func (a *App) RunScript(r io.Reader) error {
	return a.Batch(func() error {
		scanner := bufio.NewScanner(r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			args, err := SplitArgs(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			if err := a.ExecuteCommand(args[0], args[1:]); err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
		return scanner.Err()
	})
}

// SplitArgs splits a command line into arguments.
func SplitArgs(line string) ([]string, error) {
	var args []string
	for {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		if line == "" {
			return args, nil
		}
		if line[0] == '"' {
			quoted, err := strconv.QuotedPrefix(line)
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated quoted argument", ErrInvalidArgument)
			}
			arg, err := strconv.Unquote(quoted)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
			args = append(args, arg)
			line = line[len(quoted):]
			continue
		}
		end := strings.IndexFunc(line, unicode.IsSpace)
		if end < 0 {
			end = len(line)
		}
		args = append(args, line[:end])
		line = line[end:]
	}
}
