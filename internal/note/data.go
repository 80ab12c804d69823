// Package note reads and writes Tomboy note files and keeps a note's
// stored content in step with its editing buffer.
package note

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// NoPosition marks an unset window coordinate.
const NoPosition = -1

// URIPrefix starts every note URI.
const URIPrefix = "note://tomboy/"

// FileExt is the extension of note files.
const FileExt = ".note"

// Data is the persisted state of one note. Text holds the note-content
// fragment, or "" when it must be regenerated from the buffer.
type Data struct {
	URI                    string
	Title                  string
	Text                   string
	CreateDate             time.Time
	ChangeDate             time.Time
	MetadataChangeDate     time.Time
	CursorPosition         int
	SelectionBoundPosition int
	Width                  int
	Height                 int
	X                      int
	Y                      int
	Tags                   []string
	OpenOnStartup          bool
}

// NewData creates empty note data for uri with no window position.
func NewData(uri string) *Data {
	return &Data{URI: uri, X: NoPosition, Y: NoPosition, SelectionBoundPosition: NoPosition}
}

// HasPosition reports whether the window position was ever stored.
func (d *Data) HasPosition() bool {
	return d.X != NoPosition && d.Y != NoPosition
}

// HasExtent reports whether the window size was ever stored.
func (d *Data) HasExtent() bool {
	return d.Width != 0 && d.Height != 0
}

// SetPositionExtent stores the window geometry. Negative positions and
// empty sizes are ignored.
func (d *Data) SetPositionExtent(x, y, width, height int) {
	if x < 0 || y < 0 || width <= 0 || height <= 0 {
		return
	}
	d.X, d.Y, d.Width, d.Height = x, y, width, height
}

// NewURI returns a fresh note URI.
func NewURI() string {
	return URIPrefix + uuid.NewString()
}

// ID returns the identifier part of a note URI.
func ID(uri string) string {
	return strings.TrimPrefix(uri, URIPrefix)
}

// WordCount counts the words of plain note text.
func WordCount(text string) int {
	count := 0
	state := -1
	var word string
	for len(text) > 0 {
		word, text, state = uniseg.FirstWordInString(text, state)
		if isWord(word) {
			count++
		}
	}
	return count
}

func isWord(segment string) bool {
	for _, r := range segment {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// CharCount counts user-perceived characters.
func CharCount(text string) int {
	return uniseg.GraphemeClusterCount(text)
}
