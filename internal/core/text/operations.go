// Package text implements the typing and deleting operations of the note
// editor on top of a note buffer. Deletes step over whole grapheme clusters.
package text

import (
	"fmt"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/logger"
)

// Buffer is what the editing operations need from a note buffer.
type Buffer interface {
	buffer.Buffer
	Selection() (start, end int, ok bool)
	SetCursor(offset int)
	InsertInteractive(text string) error
	ToggleActiveTag(name string) error
}

// Operations handles text insertion/deletion
type Operations struct {
	buf Buffer
}

// NewOperations creates a text operations manager
func NewOperations(buf Buffer) *Operations {
	return &Operations{buf: buf}
}

// InsertRune types r at the cursor, replacing any selection.
func (o *Operations) InsertRune(r rune) error {
	return o.InsertText(string(r))
}

// InsertText types text at the cursor, replacing any selection.
func (o *Operations) InsertText(text string) error {
	if err := o.buf.InsertInteractive(text); err != nil {
		return fmt.Errorf("buffer insert failed: %w", err)
	}
	return nil
}

// InsertNewLine starts a new line at the cursor.
func (o *Operations) InsertNewLine() error {
	return o.InsertRune('\n')
}

// DeleteSelection removes the selected text. It reports false when nothing
// is selected.
func (o *Operations) DeleteSelection() (bool, error) {
	start, end, ok := o.buf.Selection()
	if !ok {
		return false, nil
	}
	if err := o.buf.Delete(start, end); err != nil {
		return false, fmt.Errorf("buffer delete failed: %w", err)
	}
	o.buf.SetCursor(start)
	return true, nil
}

// DeleteBackward deletes the selection, or the grapheme cluster before the
// cursor.
func (o *Operations) DeleteBackward() error {
	if deleted, err := o.DeleteSelection(); deleted || err != nil {
		return err
	}
	cursor := o.buf.Cursor()
	if cursor == 0 {
		return nil // At beginning of buffer, nothing to delete
	}
	start := prevBoundary(o.buf, cursor)
	if err := o.buf.Delete(start, cursor); err != nil {
		return fmt.Errorf("buffer delete failed: %w", err)
	}
	o.buf.SetCursor(start)
	return nil
}

// DeleteForward deletes the selection, or the grapheme cluster after the
// cursor.
func (o *Operations) DeleteForward() error {
	if deleted, err := o.DeleteSelection(); deleted || err != nil {
		return err
	}
	cursor := o.buf.Cursor()
	if cursor == o.buf.Len() {
		return nil // At end of buffer, nothing to delete
	}
	end := nextBoundary(o.buf, cursor)
	if err := o.buf.Delete(cursor, end); err != nil {
		return fmt.Errorf("buffer delete failed: %w", err)
	}
	o.buf.SetCursor(cursor)
	return nil
}

// ToggleTag flips a formatting tag over the selection, or for the next
// typed characters when nothing is selected.
func (o *Operations) ToggleTag(name string) error {
	logger.DebugTagf("text", "Toggling %s at %d", name, o.buf.Cursor())
	return o.buf.ToggleActiveTag(name)
}

// prevBoundary returns the start of the grapheme cluster ending at offset.
// Line feeds always break clusters, so only the current line is segmented.
func prevBoundary(buf buffer.Buffer, offset int) int {
	lineStart := offset
	for lineStart > 0 && buf.CharAt(lineStart-1) != '\n' {
		lineStart--
	}
	if lineStart == offset {
		return offset - 1
	}

	rest := buf.Slice(lineStart, offset)
	pos, last := lineStart, lineStart
	state := -1
	var cluster string
	for len(rest) > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		last = pos
		pos += utf8.RuneCountInString(cluster)
	}
	return last
}

// nextBoundary returns the end of the grapheme cluster starting at offset.
func nextBoundary(buf buffer.Buffer, offset int) int {
	if buf.CharAt(offset) == '\n' {
		return offset + 1
	}
	lineEnd := offset
	for lineEnd < buf.Len() && buf.CharAt(lineEnd) != '\n' {
		lineEnd++
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(buf.Slice(offset, lineEnd), -1)
	return offset + utf8.RuneCountInString(cluster)
}
