package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/tag"
	"github.com/bethropolis/tomboy/internal/types"
)

type recorder struct {
	events []string
	buf    *buffer.NoteBuffer
	seen   []string // text of deleted ranges, read in OnDelete
}

func (r *recorder) OnInsert(offset int, text string) {
	r.events = append(r.events, "insert:"+text)
}

func (r *recorder) OnDelete(start, end int) {
	r.events = append(r.events, "delete")
	r.seen = append(r.seen, r.buf.Slice(start, end))
}

func (r *recorder) OnTagApplied(t *tag.Tag, start, end int) {
	r.events = append(r.events, "apply:"+t.Name())
}

func (r *recorder) OnTagRemoved(t *tag.Tag, start, end int) {
	r.events = append(r.events, "remove:"+t.Name())
}

func newBuffer(t *testing.T, text string) *buffer.NoteBuffer {
	t.Helper()
	buf := buffer.New(tag.NewTable())
	require.NoError(t, buf.Insert(0, text))
	return buf
}

func lookup(buf *buffer.NoteBuffer, name string) *tag.Tag {
	return buf.TagTable().Lookup(name)
}

func Test_NoteBuffer_Insert_Grows_Enclosing_Tags_Only(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcdef")
	bold := lookup(buf, tag.Bold)
	require.NoError(t, buf.ApplyTag(bold, 2, 4))

	require.NoError(t, buf.Insert(3, "X")) // inside: grows
	assert.Equal(t, []types.Range{{Start: 2, End: 5}}, buf.TagRanges(bold))

	require.NoError(t, buf.Insert(5, "Y")) // at the end: unchanged
	assert.Equal(t, []types.Range{{Start: 2, End: 5}}, buf.TagRanges(bold))

	require.NoError(t, buf.Insert(2, "Z")) // at the start: shifts
	assert.Equal(t, []types.Range{{Start: 3, End: 6}}, buf.TagRanges(bold))
	assert.Equal(t, "abZcXdYef", buf.Text())
}

func Test_NoteBuffer_Delete_Shrinks_And_Drops_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcdefgh")
	bold := lookup(buf, tag.Bold)
	italic := lookup(buf, tag.Italic)
	require.NoError(t, buf.ApplyTag(bold, 1, 5))
	require.NoError(t, buf.ApplyTag(italic, 6, 7))

	require.NoError(t, buf.Delete(3, 7))

	assert.Equal(t, "abch", buf.Text())
	assert.Equal(t, []types.Range{{Start: 1, End: 3}}, buf.TagRanges(bold))
	assert.Empty(t, buf.TagRanges(italic))
}

func Test_NoteBuffer_Rejects_Out_Of_Range_Offsets(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abc")

	require.ErrorIs(t, buf.Insert(4, "x"), buffer.ErrOutOfRange)
	require.ErrorIs(t, buf.Delete(1, 9), buffer.ErrOutOfRange)
	require.ErrorIs(t, buf.ApplyTag(lookup(buf, tag.Bold), -1, 2), buffer.ErrOutOfRange)
	assert.Equal(t, "abc", buf.Text())
}

func Test_NoteBuffer_Marks_Have_Right_Gravity(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcd")
	buf.SelectRange(2, 2)

	require.NoError(t, buf.Insert(2, "XY"))
	assert.Equal(t, 4, buf.Cursor())

	require.NoError(t, buf.Delete(1, 5))
	assert.Equal(t, 1, buf.Cursor())
	assert.Equal(t, 1, buf.SelectionBound())
}

func Test_NoteBuffer_Notifies_Observers_In_Order(t *testing.T) {
	t.Parallel()

	buf := buffer.New(tag.NewTable())
	rec := &recorder{buf: buf}
	buf.AddObserver(rec)

	require.NoError(t, buf.Insert(0, "hello"))
	require.NoError(t, buf.ApplyTag(lookup(buf, tag.Bold), 0, 2))
	require.NoError(t, buf.RemoveTag(lookup(buf, tag.Bold), 0, 1))
	require.NoError(t, buf.Delete(1, 3))

	assert.Equal(t, []string{"insert:hello", "apply:bold", "remove:bold", "delete"}, rec.events)
	assert.Equal(t, []string{"el"}, rec.seen, "deleted text is readable in OnDelete")

	buf.RemoveObserver(rec)
	require.NoError(t, buf.Insert(0, "x"))
	assert.Len(t, rec.events, 4)
}

func Test_NoteBuffer_Typing_Applies_Active_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "ab")
	bold := lookup(buf, tag.Bold)
	italic := lookup(buf, tag.Italic)
	require.NoError(t, buf.ApplyTag(bold, 0, 2))
	buf.SetCursor(2)

	assert.True(t, buf.IsActiveTag(tag.Bold))

	require.NoError(t, buf.ToggleActiveTag(tag.Bold))
	require.NoError(t, buf.ToggleActiveTag(tag.Italic))
	require.NoError(t, buf.InsertInteractive("c"))

	assert.False(t, buf.HasTag(bold, 2))
	assert.True(t, buf.HasTag(italic, 2))
	assert.Equal(t, 3, buf.Cursor())
}

func Test_NoteBuffer_Typing_Drops_Inherited_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcd")
	link := lookup(buf, tag.LinkURL)
	require.NoError(t, buf.ApplyTag(link, 0, 4))
	buf.SetCursor(2)

	require.NoError(t, buf.InsertInteractive("X"))

	assert.False(t, buf.HasTag(link, 2), "links do not grow")
	assert.True(t, buf.HasTag(link, 3))
}

func Test_NoteBuffer_InsertInteractive_Replaces_Selection(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "hello world")
	buf.SelectRange(11, 6)

	require.NoError(t, buf.InsertInteractive("there"))

	assert.Equal(t, "hello there", buf.Text())
	_, _, ok := buf.Selection()
	assert.False(t, ok)
}

func Test_NoteBuffer_Toggle_Over_Selection(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "hello")
	bold := lookup(buf, tag.Bold)
	buf.SelectRange(4, 1)

	require.NoError(t, buf.ToggleActiveTag(tag.Bold))
	assert.Equal(t, []types.Range{{Start: 1, End: 4}}, buf.TagRanges(bold))

	require.NoError(t, buf.ToggleActiveTag(tag.Bold))
	assert.Empty(t, buf.TagRanges(bold))

	require.Error(t, buf.ToggleActiveTag("no-such-tag"))
}

func Test_NoteBuffer_Copy_And_InsertChop(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcdef")
	bold := lookup(buf, tag.Bold)
	require.NoError(t, buf.ApplyTag(bold, 1, 3))
	require.NoError(t, buf.InsertAnchor(4, &buffer.Anchor{Markup: "<x/>"}))

	chop := buf.Copy(2, 6)
	assert.Equal(t, "cd\uFFFCe", chop.String())
	assert.Equal(t, []buffer.TagRange{{Tag: bold, Start: 0, End: 1}}, chop.Tags)
	require.Contains(t, chop.Anchors, 2)

	other := buffer.New(buf.TagTable())
	require.NoError(t, other.InsertChop(0, chop))
	assert.Equal(t, "cd\uFFFCe", other.Text())
	assert.True(t, other.HasTag(bold, 0))
	assert.False(t, other.HasTag(bold, 1))
	assert.Equal(t, "<x/>", other.AnchorAt(2).Markup)
}

func Test_NoteBuffer_Typing_Inside_List_Item_Keeps_The_Item(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcd")
	item := buf.TagTable().CreateDynamic(tag.ListItem)
	require.NotNil(t, item)
	require.NoError(t, buf.ApplyTag(item, 0, 4))
	buf.SetCursor(2)

	require.NoError(t, buf.InsertInteractive("x"))

	assert.Equal(t, "abxcd", buf.Text())
	assert.Equal(t, []types.Range{{Start: 0, End: 5}}, buf.TagRanges(item))
}

func Test_NoteBuffer_InsertChop_Carries_Exactly_The_Chop_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "AABB")
	bold := lookup(buf, tag.Bold)
	italic := lookup(buf, tag.Italic)
	require.NoError(t, buf.ApplyTag(bold, 0, 4))
	rec := &recorder{buf: buf}
	buf.AddObserver(rec)

	chop := buffer.Chop{
		Text: []rune("xyz"),
		Tags: []buffer.TagRange{{Tag: italic, Start: 1, End: 2}},
	}
	require.NoError(t, buf.InsertChop(2, chop))

	assert.Equal(t, "AAxyzBB", buf.Text())
	assert.Equal(t, []types.Range{{Start: 0, End: 2}, {Start: 5, End: 7}}, buf.TagRanges(bold))
	assert.Equal(t, []types.Range{{Start: 3, End: 4}}, buf.TagRanges(italic))
	assert.Equal(t, []string{"insert:xyz"}, rec.events)
}

func Test_NoteBuffer_InsertChop_Tags_Are_In_Place_For_Observers(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "ab")
	bold := lookup(buf, tag.Bold)
	var seen buffer.Chop
	buf.AddObserver(&copyOnInsert{buf: buf, got: &seen})

	require.NoError(t, buf.InsertChop(1, buffer.Chop{
		Text: []rune("xy"),
		Tags: []buffer.TagRange{{Tag: bold, Start: 0, End: 1}},
	}))

	assert.Equal(t, "xy", seen.String())
	assert.Equal(t, []buffer.TagRange{{Tag: bold, Start: 0, End: 1}}, seen.Tags)
}

// copyOnInsert copies the inserted text the way the undo log does.
type copyOnInsert struct {
	buf *buffer.NoteBuffer
	got *buffer.Chop
}

func (c *copyOnInsert) OnInsert(offset int, text string) {
	*c.got = c.buf.Copy(offset, offset+len([]rune(text)))
}
func (c *copyOnInsert) OnDelete(start, end int)                 {}
func (c *copyOnInsert) OnTagApplied(t *tag.Tag, start, end int) {}
func (c *copyOnInsert) OnTagRemoved(t *tag.Tag, start, end int) {}

func Test_Chop_Append_Coalesces_Tags(t *testing.T) {
	t.Parallel()

	bold := tag.New(tag.Bold, tag.Formatting, tag.Content)
	a := buffer.Chop{Text: []rune("ab"), Tags: []buffer.TagRange{{Tag: bold, Start: 1, End: 2}}}
	b := buffer.Chop{Text: []rune("cd"), Tags: []buffer.TagRange{{Tag: bold, Start: 0, End: 1}}}

	a.Append(b)
	assert.Equal(t, "abcd", a.String())
	assert.Equal(t, []buffer.TagRange{{Tag: bold, Start: 1, End: 3}}, a.Tags)

	c := buffer.Chop{Text: []rune("x")}
	c.Prepend(a)
	assert.Equal(t, "abcdx", c.String())
	assert.Equal(t, 'a', c.First())

	c.RemoveTag(bold)
	assert.Empty(t, c.Tags)
}

func Test_NoteBuffer_Spans_Split_On_Tag_Boundaries(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcdef")
	bold := lookup(buf, tag.Bold)
	italic := lookup(buf, tag.Italic)
	require.NoError(t, buf.ApplyTag(bold, 0, 4))
	require.NoError(t, buf.ApplyTag(italic, 2, 6))

	spans := buf.Spans(0, buf.Len())

	require.Len(t, spans, 3)
	assert.Equal(t, buffer.Span{Start: 0, End: 2, Tags: []*tag.Tag{bold}}, spans[0])
	assert.Equal(t, buffer.Span{Start: 2, End: 4, Tags: []*tag.Tag{bold, italic}}, spans[1])
	assert.Equal(t, buffer.Span{Start: 4, End: 6, Tags: []*tag.Tag{italic}}, spans[2])
}

func Test_NoteBuffer_Lines(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "title\nbody\n")

	assert.Equal(t, 3, buf.LineCount())
	start, end, ok := buf.LineBounds(1)
	require.True(t, ok)
	assert.Equal(t, "body", buf.Slice(start, end))
	_, _, ok = buf.LineBounds(3)
	assert.False(t, ok)
}
