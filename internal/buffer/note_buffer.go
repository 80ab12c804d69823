// internal/buffer/note_buffer.go
package buffer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
	"github.com/bethropolis/tomboy/internal/types"
)

// NoteBuffer is an in-memory styled text buffer addressed by character offset.
// It tracks an insert mark (the cursor) and a selection bound, keeps the list
// of active tags applied to typed text, and reports every mutation to its
// observers.
type NoteBuffer struct {
	table     *tag.Table
	text      []rune
	ranges    map[*tag.Tag]rangeSet
	anchors   map[int]*Anchor
	observers []EditObserver

	insertMark int
	boundMark  int
	activeTags []*tag.Tag

	modified bool
}

// New creates an empty buffer using the given tag table.
func New(table *tag.Table) *NoteBuffer {
	return &NoteBuffer{
		table:   table,
		ranges:  make(map[*tag.Tag]rangeSet),
		anchors: make(map[int]*Anchor),
	}
}

// TagTable returns the registry this buffer resolves tag names against.
func (b *NoteBuffer) TagTable() *tag.Table { return b.table }

// AddObserver registers an edit observer. Observers are called in registration order.
func (b *NoteBuffer) AddObserver(o EditObserver) {
	b.observers = append(b.observers, o)
}

// RemoveObserver unregisters an edit observer.
func (b *NoteBuffer) RemoveObserver(o EditObserver) {
	b.observers = slices.DeleteFunc(b.observers, func(x EditObserver) bool { return x == o })
}

// --- Queries ---

func (b *NoteBuffer) Len() int     { return len(b.text) }
func (b *NoteBuffer) Text() string { return string(b.text) }

// Modified reports whether the buffer changed since SetModified(false).
func (b *NoteBuffer) Modified() bool     { return b.modified }
func (b *NoteBuffer) SetModified(m bool) { b.modified = m }

// Slice returns the text in [start, end), clamped to the buffer.
func (b *NoteBuffer) Slice(start, end int) string {
	r := b.clamp(types.Range{Start: start, End: end}.Normalize())
	return string(b.text[r.Start:r.End])
}

// CharAt returns the character at offset, or 0 past the end.
func (b *NoteBuffer) CharAt(offset int) rune {
	if offset < 0 || offset >= len(b.text) {
		return 0
	}
	return b.text[offset]
}

// TagsAt returns the tags covering the character at offset, lowest priority first.
func (b *NoteBuffer) TagsAt(offset int) []*tag.Tag {
	var out []*tag.Tag
	for t, set := range b.ranges {
		if set.contains(offset) {
			out = append(out, t)
		}
	}
	tag.ByPriority(out)
	return out
}

// HasTag reports whether the character at offset carries t.
func (b *NoteBuffer) HasTag(t *tag.Tag, offset int) bool {
	return b.ranges[t].contains(offset)
}

// BeginsTag reports whether t starts at offset.
func (b *NoteBuffer) BeginsTag(t *tag.Tag, offset int) bool {
	return b.HasTag(t, offset) && !b.HasTag(t, offset-1)
}

// EndsTag reports whether t covers the character before offset but not the one at it.
func (b *NoteBuffer) EndsTag(t *tag.Tag, offset int) bool {
	return b.HasTag(t, offset-1) && !b.HasTag(t, offset)
}

// TagRanges returns the ranges carrying t, in order.
func (b *NoteBuffer) TagRanges(t *tag.Tag) []types.Range {
	return slices.Clone(b.ranges[t])
}

// AnchorAt returns the child anchor at offset, if any.
func (b *NoteBuffer) AnchorAt(offset int) *Anchor {
	return b.anchors[offset]
}

// FindTag returns the first tag at offset named name.
func (b *NoteBuffer) FindTag(name string, offset int) *tag.Tag {
	for _, t := range b.TagsAt(offset) {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// Spans returns the maximal runs of [start, end) sharing the same tag set.
func (b *NoteBuffer) Spans(start, end int) []Span {
	r := b.clamp(types.Range{Start: start, End: end}.Normalize())
	if r.Empty() {
		return nil
	}
	cuts := map[int]struct{}{r.Start: {}, r.End: {}}
	for _, set := range b.ranges {
		for _, tr := range set {
			if tr.Start > r.Start && tr.Start < r.End {
				cuts[tr.Start] = struct{}{}
			}
			if tr.End > r.Start && tr.End < r.End {
				cuts[tr.End] = struct{}{}
			}
		}
	}
	points := make([]int, 0, len(cuts))
	for p := range cuts {
		points = append(points, p)
	}
	slices.Sort(points)

	spans := make([]Span, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		spans = append(spans, Span{Start: points[i], End: points[i+1], Tags: b.TagsAt(points[i])})
	}
	return spans
}

// LineBounds returns the offsets of line (0-based), excluding its newline.
func (b *NoteBuffer) LineBounds(line int) (start, end int, ok bool) {
	if line < 0 {
		return 0, 0, false
	}
	current := 0
	start = 0
	for i, r := range b.text {
		if r != '\n' {
			continue
		}
		if current == line {
			return start, i, true
		}
		current++
		start = i + 1
	}
	if current == line {
		return start, len(b.text), true
	}
	return 0, 0, false
}

// LineCount returns the number of lines; an empty buffer has one.
func (b *NoteBuffer) LineCount() int {
	return strings.Count(string(b.text), "\n") + 1
}

// Copy detaches [start, end) with its tags and anchors.
func (b *NoteBuffer) Copy(start, end int) Chop {
	r := b.clamp(types.Range{Start: start, End: end}.Normalize())
	c := Chop{Text: slices.Clone(b.text[r.Start:r.End])}
	for _, t := range b.sortedTags() {
		for _, rel := range b.ranges[t].clip(r) {
			c.Tags = append(c.Tags, TagRange{Tag: t, Start: rel.Start, End: rel.End})
		}
	}
	for off, a := range b.anchors {
		if r.Contains(off) {
			if c.Anchors == nil {
				c.Anchors = make(map[int]*Anchor)
			}
			c.Anchors[off-r.Start] = a
		}
	}
	return c
}

// --- Marks ---

// Cursor returns the insert mark offset.
func (b *NoteBuffer) Cursor() int { return b.insertMark }

// SelectionBound returns the selection bound offset.
func (b *NoteBuffer) SelectionBound() int { return b.boundMark }

// Selection returns the ordered selection and whether it is non-empty.
func (b *NoteBuffer) Selection() (start, end int, ok bool) {
	r := types.Range{Start: b.boundMark, End: b.insertMark}.Normalize()
	return r.Start, r.End, !r.Empty()
}

// SetCursor places both marks at offset.
func (b *NoteBuffer) SetCursor(offset int) {
	b.SelectRange(offset, offset)
}

// SelectRange moves the insert mark and the selection bound. Moving the insert
// mark recomputes the active tags from the growable tags around it.
func (b *NoteBuffer) SelectRange(insert, bound int) {
	b.insertMark = b.clampOffset(insert)
	b.boundMark = b.clampOffset(bound)
	b.updateActiveTags()
}

// updateActiveTags keeps growable tags that extend up to the cursor.
func (b *NoteBuffer) updateActiveTags() {
	b.activeTags = b.activeTags[:0]
	if b.insertMark == 0 {
		return
	}
	for _, t := range b.TagsAt(b.insertMark - 1) {
		if b.table.IsGrowable(t) {
			b.activeTags = append(b.activeTags, t)
		}
	}
}

// --- Active tags ---

// ActiveTags returns the tags applied to the next typed character.
func (b *NoteBuffer) ActiveTags() []*tag.Tag {
	return slices.Clone(b.activeTags)
}

// IsActiveTag reports whether the named tag is active at the cursor or
// covers the start of the selection.
func (b *NoteBuffer) IsActiveTag(name string) bool {
	t := b.table.Lookup(name)
	if t == nil {
		return false
	}
	if start, _, ok := b.Selection(); ok {
		return b.HasTag(t, start)
	}
	return slices.Contains(b.activeTags, t)
}

// ToggleActiveTag flips a tag over the selection, or in the active set when
// nothing is selected.
func (b *NoteBuffer) ToggleActiveTag(name string) error {
	logger.DebugTagf("buffer", "ToggleActiveTag called for '%s'", name)
	t := b.table.Lookup(name)
	if t == nil {
		return fmt.Errorf("unknown tag %q", name)
	}
	if start, end, ok := b.Selection(); ok {
		if b.HasTag(t, start) {
			return b.RemoveTag(t, start, end)
		}
		return b.ApplyTag(t, start, end)
	}
	if i := slices.Index(b.activeTags, t); i >= 0 {
		b.activeTags = slices.Delete(b.activeTags, i, i+1)
	} else {
		b.activeTags = append(b.activeTags, t)
	}
	return nil
}

// SetActiveTag applies a tag over the selection, or activates it for typing.
func (b *NoteBuffer) SetActiveTag(name string) error {
	t := b.table.Lookup(name)
	if t == nil {
		return fmt.Errorf("unknown tag %q", name)
	}
	if start, end, ok := b.Selection(); ok {
		return b.ApplyTag(t, start, end)
	}
	if !slices.Contains(b.activeTags, t) {
		b.activeTags = append(b.activeTags, t)
	}
	return nil
}

// RemoveActiveTag removes a tag from the selection, or deactivates it.
func (b *NoteBuffer) RemoveActiveTag(name string) error {
	t := b.table.Lookup(name)
	if t == nil {
		return fmt.Errorf("unknown tag %q", name)
	}
	if start, end, ok := b.Selection(); ok {
		return b.RemoveTag(t, start, end)
	}
	b.activeTags = slices.DeleteFunc(b.activeTags, func(x *tag.Tag) bool { return x == t })
	return nil
}

// --- Buffer Modification Methods ---

// Insert inserts text at offset. Tags enclosing offset grow over the new text.
func (b *NoteBuffer) Insert(offset int, text string) error {
	if text == "" {
		return nil
	}
	if err := b.checkOffset(offset); err != nil {
		return fmt.Errorf("invalid insert position: %w", err)
	}
	b.insertRunes(offset, []rune(text), nil)
	b.notifyInsert(offset, text)
	return nil
}

// InsertInteractive inserts text at the cursor the way typing does: the
// selection is replaced, and a single typed character drops the formatting
// it inherited and takes the active tags instead. List structure is kept.
func (b *NoteBuffer) InsertInteractive(text string) error {
	if text == "" {
		return nil
	}
	if start, end, ok := b.Selection(); ok {
		if err := b.Delete(start, end); err != nil {
			return err
		}
	}
	offset := b.insertMark
	runes := []rune(text)
	active := slices.Clone(b.activeTags)
	b.insertRunes(offset, runes, nil)

	if len(runes) == 1 {
		for _, t := range b.TagsAt(offset) {
			if !b.table.IsList(t) {
				b.removeTag(t, offset, offset+1)
			}
		}
		for _, t := range active {
			b.applyTag(t, offset, offset+1)
		}
	}
	b.notifyInsert(offset, text)
	return nil
}

// InsertChop inserts a detached copy. The new text carries exactly the
// chop's tags, none inherited from its surroundings, and observers see one
// insert with the tags already in place.
func (b *NoteBuffer) InsertChop(offset int, c Chop) error {
	if c.Len() == 0 {
		return nil
	}
	if err := b.checkOffset(offset); err != nil {
		return fmt.Errorf("invalid insert position: %w", err)
	}
	b.insertRunes(offset, c.Text, c.Anchors)

	inserted := types.Range{Start: offset, End: offset + c.Len()}
	for t, set := range b.ranges {
		if rest := set.subtract(inserted); len(rest) > 0 {
			b.ranges[t] = rest
		} else {
			delete(b.ranges, t)
		}
	}
	for _, tr := range c.Tags {
		r := types.Range{Start: offset + tr.Start, End: offset + tr.End}.Intersect(inserted)
		if !r.Empty() {
			b.ranges[tr.Tag] = b.ranges[tr.Tag].add(r)
		}
	}
	b.notifyInsert(offset, c.String())
	return nil
}

// InsertAnchor embeds a child anchor at offset.
func (b *NoteBuffer) InsertAnchor(offset int, a *Anchor) error {
	if err := b.checkOffset(offset); err != nil {
		return fmt.Errorf("invalid anchor position: %w", err)
	}
	b.insertRunes(offset, []rune{AnchorChar}, map[int]*Anchor{0: a})
	b.notifyInsert(offset, string(AnchorChar))
	return nil
}

// Delete removes [start, end). Observers see the range before it goes.
func (b *NoteBuffer) Delete(start, end int) error {
	r := types.Range{Start: start, End: end}.Normalize()
	if r.Empty() {
		return nil
	}
	if err := b.checkOffset(r.Start); err != nil {
		return fmt.Errorf("invalid delete range: %w", err)
	}
	if err := b.checkOffset(r.End); err != nil {
		return fmt.Errorf("invalid delete range: %w", err)
	}

	for _, o := range slices.Clone(b.observers) {
		o.OnDelete(r.Start, r.End)
	}

	b.text = slices.Delete(b.text, r.Start, r.End)
	for t, set := range b.ranges {
		if shifted := set.shiftDelete(r.Start, r.End); len(shifted) > 0 {
			b.ranges[t] = shifted
		} else {
			delete(b.ranges, t)
		}
	}

	n := r.Len()
	anchors := make(map[int]*Anchor, len(b.anchors))
	for off, a := range b.anchors {
		switch {
		case off < r.Start:
			anchors[off] = a
		case off >= r.End:
			anchors[off-n] = a
		}
	}
	b.anchors = anchors

	mapMark := func(p int) int {
		switch {
		case p <= r.Start:
			return p
		case p >= r.End:
			return p - n
		default:
			return r.Start
		}
	}
	b.insertMark = mapMark(b.insertMark)
	b.boundMark = mapMark(b.boundMark)
	b.modified = true
	return nil
}

// Clear deletes all text.
func (b *NoteBuffer) Clear() error {
	return b.Delete(0, len(b.text))
}

// ApplyTag adds t over [start, end).
func (b *NoteBuffer) ApplyTag(t *tag.Tag, start, end int) error {
	r, err := b.tagRange(t, start, end)
	if err != nil || r.Empty() {
		return err
	}
	b.applyTag(t, r.Start, r.End)
	return nil
}

// RemoveTag removes t from [start, end).
func (b *NoteBuffer) RemoveTag(t *tag.Tag, start, end int) error {
	r, err := b.tagRange(t, start, end)
	if err != nil || r.Empty() {
		return err
	}
	b.removeTag(t, r.Start, r.End)
	return nil
}

// RemoveAllTags removes every tag from [start, end).
func (b *NoteBuffer) RemoveAllTags(start, end int) error {
	r := types.Range{Start: start, End: end}.Normalize()
	for _, t := range b.sortedTags() {
		if len(b.ranges[t].clip(r)) > 0 {
			if err := b.RemoveTag(t, r.Start, r.End); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- internals ---

func (b *NoteBuffer) insertRunes(offset int, runes []rune, anchors map[int]*Anchor) {
	n := len(runes)
	b.text = slices.Insert(b.text, offset, runes...)
	for t, set := range b.ranges {
		b.ranges[t] = set.shiftInsert(offset, n)
	}

	shifted := make(map[int]*Anchor, len(b.anchors)+len(anchors))
	for off, a := range b.anchors {
		if off >= offset {
			off += n
		}
		shifted[off] = a
	}
	for rel, a := range anchors {
		shifted[offset+rel] = a
	}
	b.anchors = shifted

	// Both marks have right gravity.
	if b.insertMark >= offset {
		b.insertMark += n
	}
	if b.boundMark >= offset {
		b.boundMark += n
	}
	b.modified = true
}

func (b *NoteBuffer) applyTag(t *tag.Tag, start, end int) {
	b.ranges[t] = b.ranges[t].add(types.Range{Start: start, End: end})
	b.modified = true
	for _, o := range slices.Clone(b.observers) {
		o.OnTagApplied(t, start, end)
	}
}

func (b *NoteBuffer) removeTag(t *tag.Tag, start, end int) {
	if set, ok := b.ranges[t]; ok {
		if rest := set.subtract(types.Range{Start: start, End: end}); len(rest) > 0 {
			b.ranges[t] = rest
		} else {
			delete(b.ranges, t)
		}
	}
	b.modified = true
	for _, o := range slices.Clone(b.observers) {
		o.OnTagRemoved(t, start, end)
	}
}

func (b *NoteBuffer) notifyInsert(offset int, text string) {
	for _, o := range slices.Clone(b.observers) {
		o.OnInsert(offset, text)
	}
}

func (b *NoteBuffer) tagRange(t *tag.Tag, start, end int) (types.Range, error) {
	if t == nil {
		return types.Range{}, fmt.Errorf("nil tag")
	}
	r := types.Range{Start: start, End: end}.Normalize()
	if err := b.checkOffset(r.Start); err != nil {
		return r, fmt.Errorf("invalid tag range: %w", err)
	}
	if err := b.checkOffset(r.End); err != nil {
		return r, fmt.Errorf("invalid tag range: %w", err)
	}
	return r, nil
}

func (b *NoteBuffer) sortedTags() []*tag.Tag {
	out := make([]*tag.Tag, 0, len(b.ranges))
	for t := range b.ranges {
		out = append(out, t)
	}
	tag.ByPriority(out)
	return out
}

func (b *NoteBuffer) checkOffset(offset int) error {
	if offset < 0 || offset > len(b.text) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, offset, len(b.text))
	}
	return nil
}

func (b *NoteBuffer) clampOffset(offset int) int {
	return min(max(offset, 0), len(b.text))
}

func (b *NoteBuffer) clamp(r types.Range) types.Range {
	return types.Range{Start: b.clampOffset(r.Start), End: b.clampOffset(r.End)}
}

// Ensure NoteBuffer satisfies the Buffer interface
var _ Buffer = (*NoteBuffer)(nil)
