// Package find highlights search matches in a note buffer with the
// find-match tag and steps the selection through them.
package find

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
	"github.com/bethropolis/tomboy/internal/types"
)

var ErrNoPattern = errors.New("search pattern cannot be empty")

// Buffer is what the find manager needs from a note buffer.
type Buffer interface {
	buffer.Buffer
	TagRanges(t *tag.Tag) []types.Range
	Selection() (start, end int, ok bool)
}

// Manager handles find, replace, and search highlighting logic.
type Manager struct {
	buf      Buffer
	matchTag *tag.Tag
	term     string
	re       *regexp.Regexp
	matches  []types.Range
}

// NewManager creates a find manager for buf.
func NewManager(buf Buffer) *Manager {
	return &Manager{
		buf:      buf,
		matchTag: buf.TagTable().Lookup(tag.FindMatch),
	}
}

// Compile builds the search expression. Plain terms match literally and
// ignore case.
func Compile(term string, useRegex bool) (*regexp.Regexp, error) {
	if term == "" {
		return nil, ErrNoPattern
	}
	if !useRegex {
		term = "(?i)" + regexp.QuoteMeta(term)
	}
	re, err := regexp.Compile(term)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern: %w", err)
	}
	return re, nil
}

// HighlightMatches tags every match of term and returns how many there are.
// An empty term just clears the highlights.
func (m *Manager) HighlightMatches(term string, useRegex bool) (int, error) {
	m.ClearHighlights()
	m.term = ""
	m.re = nil
	if term == "" {
		return 0, nil
	}

	re, err := Compile(term, useRegex)
	if err != nil {
		logger.Warnf("HighlightMatches: Invalid pattern '%s': %v", term, err)
		return 0, err
	}
	m.term = term
	m.re = re
	m.matches = m.search()

	if m.matchTag != nil {
		for _, r := range m.matches {
			if err := m.buf.ApplyTag(m.matchTag, r.Start, r.End); err != nil {
				return 0, err
			}
		}
	}
	logger.Debugf("FindManager: Added %d search highlights for '%s'", len(m.matches), term)
	return len(m.matches), nil
}

// ClearHighlights removes the find-match tag from the whole buffer.
func (m *Manager) ClearHighlights() {
	if m.matchTag != nil {
		for _, r := range m.buf.TagRanges(m.matchTag) {
			_ = m.buf.RemoveTag(m.matchTag, r.Start, r.End)
		}
	}
	if len(m.matches) > 0 {
		logger.Debugf("FindManager: Clearing %d search highlights", len(m.matches))
	}
	m.matches = nil
}

// Term returns the last highlighted search term.
func (m *Manager) Term() string { return m.term }

// HasHighlights checks if there are any search highlights.
func (m *Manager) HasHighlights() bool { return len(m.matches) > 0 }

// Matches returns the current match ranges in buffer order.
func (m *Manager) Matches() []types.Range {
	return append([]types.Range(nil), m.matches...)
}

// FindNext selects the next match after the cursor, or the previous one
// before it, wrapping around the buffer.
func (m *Manager) FindNext(forward bool) (types.Range, bool) {
	if m.re == nil {
		return types.Range{}, false
	}
	// Edits since the last search move the matches.
	m.matches = m.search()
	if len(m.matches) == 0 {
		return types.Range{}, false
	}

	from := m.buf.Cursor()
	if start, end, ok := m.buf.Selection(); ok {
		if forward {
			from = end
		} else {
			from = start
		}
	}

	r := m.matches[m.nextIndex(from, forward)]
	m.buf.SelectRange(r.End, r.Start)
	return r, true
}

func (m *Manager) nextIndex(from int, forward bool) int {
	if forward {
		for i, r := range m.matches {
			if r.Start >= from {
				return i
			}
		}
		return 0
	}
	for i := len(m.matches) - 1; i >= 0; i-- {
		if m.matches[i].End <= from {
			return i
		}
	}
	return len(m.matches) - 1
}

// ReplaceAll replaces every match of pattern. For regular expressions the
// replacement may refer to submatches ($1). Each replacement is a delete
// followed by an insert, so it is undoable.
func (m *Manager) ReplaceAll(pattern, replacement string, useRegex bool) (int, error) {
	re, err := Compile(pattern, useRegex)
	if err != nil {
		return 0, err
	}
	if !useRegex {
		replacement = strings.ReplaceAll(replacement, "$", "$$")
	}
	m.ClearHighlights()

	text := m.buf.Text()
	locs := re.FindAllStringSubmatchIndex(text, -1)
	offsets := runeOffsets(text)

	// Back to front so earlier offsets stay valid.
	count := 0
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		if loc[0] == loc[1] {
			continue
		}
		count++
		expanded := string(re.ExpandString(nil, replacement, text, loc))
		start, end := offsets[loc[0]], offsets[loc[1]]
		if err := m.buf.Delete(start, end); err != nil {
			return 0, fmt.Errorf("replace failed during delete: %w", err)
		}
		if err := m.buf.Insert(start, expanded); err != nil {
			return 0, fmt.Errorf("replace failed during insert: %w", err)
		}
	}

	logger.Debugf("Replace: Replaced %d occurrences of '%s'", count, pattern)
	return count, nil
}

// search finds the non-empty matches of the current expression.
func (m *Manager) search() []types.Range {
	text := m.buf.Text()
	offsets := runeOffsets(text)
	var out []types.Range
	for _, loc := range m.re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		out = append(out, types.Range{Start: offsets[loc[0]], End: offsets[loc[1]]})
	}
	return out
}

// runeOffsets maps each byte offset of s that starts a rune, plus len(s),
// to its rune offset.
func runeOffsets(s string) map[int]int {
	offsets := make(map[int]int, utf8.RuneCountInString(s)+1)
	n := 0
	for i := range s {
		offsets[i] = n
		n++
	}
	offsets[len(s)] = n
	return offsets
}

