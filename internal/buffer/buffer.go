// internal/buffer/buffer.go
package buffer

import (
	"errors"

	"github.com/bethropolis/tomboy/internal/tag"
)

// AnchorChar stands in the text for an embedded child widget.
const AnchorChar = '\uFFFC'

// LineSeparator is the Unicode line separator, written as a character reference in markup.
const LineSeparator = '\u2028'

var ErrOutOfRange = errors.New("offset out of range")

// Anchor is an embedded child object. Markup is its own pre-serialized
// note-content fragment; an anchor without one is dropped on save.
type Anchor struct {
	Markup string
}

// EditObserver receives buffer edits synchronously, on the calling goroutine.
// OnInsert fires after the text (and any active tags) are in place; OnDelete
// fires before the range is removed so the deleted content can still be read.
type EditObserver interface {
	OnInsert(offset int, text string)
	OnDelete(start, end int)
	OnTagApplied(t *tag.Tag, start, end int)
	OnTagRemoved(t *tag.Tag, start, end int)
}

// Span is a maximal run of text sharing one exact set of tags.
type Span struct {
	Start int
	End   int
	Tags  []*tag.Tag // ascending priority
}

// TagRange is one tag applied over [Start, End).
type TagRange struct {
	Tag   *tag.Tag
	Start int
	End   int
}

// Buffer defines the styled text operations the codec and the undo log rely on.
// All offsets are character (rune) offsets.
type Buffer interface {
	TagTable() *tag.Table
	Len() int
	Text() string
	Slice(start, end int) string
	CharAt(offset int) rune

	TagsAt(offset int) []*tag.Tag
	HasTag(t *tag.Tag, offset int) bool
	BeginsTag(t *tag.Tag, offset int) bool
	AnchorAt(offset int) *Anchor

	Insert(offset int, text string) error
	InsertChop(offset int, c Chop) error
	Delete(start, end int) error
	ApplyTag(t *tag.Tag, start, end int) error
	RemoveTag(t *tag.Tag, start, end int) error
	Copy(start, end int) Chop

	Cursor() int
	SelectionBound() int
	SelectRange(insert, bound int)

	AddObserver(o EditObserver)
	RemoveObserver(o EditObserver)
}
