package content_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/tag"
	"github.com/bethropolis/tomboy/internal/types"
)

const open = `<note-content version="0.1">`
const closing = `</note-content>`

func wrap(inner string) string { return open + inner + closing }

func newBuffer(t *testing.T, text string) *buffer.NoteBuffer {
	t.Helper()
	buf := buffer.New(tag.NewTable())
	require.NoError(t, buf.Insert(0, text))
	return buf
}

func apply(t *testing.T, buf *buffer.NoteBuffer, name string, start, end int) {
	t.Helper()
	tg := buf.TagTable().Lookup(name)
	require.NotNil(t, tg, "tag %s", name)
	require.NoError(t, buf.ApplyTag(tg, start, end))
}

func roundTrip(t *testing.T, markup string) *buffer.NoteBuffer {
	t.Helper()
	buf := buffer.New(tag.NewTable())
	require.NoError(t, content.Deserialize(buf, 0, markup))
	return buf
}

func Test_Serialize_Writes_Plain_Text_With_Escapes(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "a < b & c > d\nline two")

	got := content.SerializeAll(buf)

	assert.Equal(t, wrap("a &lt; b &amp; c &gt; d\nline two"), got)
}

func Test_RoundTrip_Preserves_Text_Without_Tags(t *testing.T) {
	t.Parallel()

	text := "Shopping\n\n  milk & eggs <2 dozen>\n\ttabbed"
	buf := newBuffer(t, text)

	again := roundTrip(t, content.SerializeAll(buf))

	assert.Equal(t, text, again.Text())
	assert.Equal(t, content.SerializeAll(buf), content.SerializeAll(again))
}

func Test_RoundTrip_Preserves_Adjacent_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "hello world")
	apply(t, buf, tag.Bold, 0, 5)
	apply(t, buf, tag.Italic, 5, 11)

	markup := content.SerializeAll(buf)
	assert.Equal(t, wrap("<bold>hello</bold><italic> world</italic>"), markup)

	again := roundTrip(t, markup)
	table := again.TagTable()
	assert.Equal(t, "hello world", again.Text())
	if diff := cmp.Diff([]types.Range{{Start: 0, End: 5}}, again.TagRanges(table.Lookup(tag.Bold))); diff != "" {
		t.Errorf("bold ranges (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]types.Range{{Start: 5, End: 11}}, again.TagRanges(table.Lookup(tag.Italic))); diff != "" {
		t.Errorf("italic ranges (-want +got):\n%s", diff)
	}
}

func Test_Serialize_Nests_Overlapping_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "hello world")
	apply(t, buf, tag.Bold, 0, 7)
	apply(t, buf, tag.Italic, 4, 11)

	markup := content.SerializeAll(buf)

	assert.Equal(t, wrap("<bold>hell<italic>o w</italic></bold><italic>orld</italic>"), markup)
	require.NoError(t, content.Validate(markup))

	again := roundTrip(t, markup)
	table := again.TagTable()
	assert.Equal(t, []types.Range{{Start: 0, End: 7}}, again.TagRanges(table.Lookup(tag.Bold)))
	assert.Equal(t, []types.Range{{Start: 4, End: 11}}, again.TagRanges(table.Lookup(tag.Italic)))
	assert.Equal(t, markup, content.SerializeAll(again))
}

func Test_Serialize_Handles_Three_Overlapping_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "abcdefghij")
	apply(t, buf, tag.Bold, 0, 6)
	apply(t, buf, tag.Italic, 2, 8)
	apply(t, buf, tag.Strikethrough, 4, 10)

	markup := content.SerializeAll(buf)
	require.NoError(t, content.Validate(markup))

	again := roundTrip(t, markup)
	for _, name := range []string{tag.Bold, tag.Italic, tag.Strikethrough} {
		want := buf.TagRanges(buf.TagTable().Lookup(name))
		got := again.TagRanges(again.TagTable().Lookup(name))
		assert.Equal(t, want, got, name)
	}
}

func Test_Serialize_Omits_Reserved_Tags(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "Title\nbody text")
	apply(t, buf, tag.NoteTitle, 0, 5)
	apply(t, buf, tag.FindMatch, 6, 10)
	apply(t, buf, tag.Bold, 6, 10)

	markup := content.SerializeAll(buf)

	assert.NotContains(t, markup, tag.NoteTitle)
	assert.NotContains(t, markup, tag.FindMatch)
	assert.Equal(t, wrap("Title\n<bold>body</bold> text"), markup)
}

func Test_Deserialize_Ignores_Reserved_Elements(t *testing.T) {
	t.Parallel()

	buf := roundTrip(t, wrap("<find-match>found</find-match> it"))

	assert.Equal(t, "found it", buf.Text())
	assert.Empty(t, buf.TagsAt(0))
}

func Test_Serialize_Range_Closes_Tags_At_End(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "hello world")
	apply(t, buf, tag.Bold, 0, 11)

	got := content.Serialize(buf, 3, 8)

	assert.Equal(t, wrap("<bold>lo wo</bold>"), got)
}

func Test_Serialize_Empty_Range(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "hello")
	apply(t, buf, tag.Bold, 0, 5)

	assert.Equal(t, wrap(""), content.Serialize(buf, 2, 2))
	assert.Equal(t, wrap(""), content.SerializeAll(buffer.New(tag.NewTable())))
}

func Test_Serialize_Writes_Line_Separator_As_Reference(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "a\u2028b")

	markup := content.SerializeAll(buf)

	assert.Equal(t, wrap("a&#x2028;b"), markup)
	assert.Equal(t, "a\u2028b", roundTrip(t, markup).Text())
}

func Test_Serialize_Writes_Anchor_Markup(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "ab")
	require.NoError(t, buf.InsertAnchor(1, &buffer.Anchor{Markup: "<widget>w</widget>"}))
	require.NoError(t, buf.InsertAnchor(0, &buffer.Anchor{}))

	assert.Equal(t, wrap("a<widget>w</widget>b"), content.SerializeAll(buf))
}

func Test_RoundTrip_Preserves_Dynamic_Tag_Attributes(t *testing.T) {
	t.Parallel()

	table := tag.NewTable()
	require.NoError(t, table.RegisterDynamic("font", tag.Formatting, tag.Content))

	markup := wrap(`x<font face="Mono &amp; Co" size="3">code</font>y`)
	buf := buffer.New(table)
	require.NoError(t, content.Deserialize(buf, 0, markup))

	font := buf.FindTag("font", 1)
	require.NotNil(t, font)
	assert.True(t, font.IsDynamic())
	face, ok := font.Attribute("face")
	assert.True(t, ok)
	assert.Equal(t, "Mono & Co", face)

	assert.Equal(t, markup, content.SerializeAll(buf))
}

func Test_Serialize_Drops_Characters_Not_Allowed_In_XML(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "page one\fpage two\x00\x1b end\ttab\r")

	got := content.SerializeAll(buf)

	require.NoError(t, content.Validate(got))
	assert.Equal(t, wrap("page onepage two end\ttab&#xD;"), got)
}

func Test_RoundTrip_Preserves_Lists(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		markup string
		text   string
	}{
		{
			name:   "FlatList",
			markup: wrap(`<list><list-item dir="ltr">first` + "\n" + `</list-item><list-item dir="ltr">second</list-item></list>`),
			text:   "first\nsecond",
		},
		{
			name: "NestedList",
			markup: wrap(`<list><list-item dir="ltr">a` + "\n" +
				`<list><list-item dir="rtl">b` + "\n" + `</list-item></list></list-item>` +
				`<list-item dir="ltr">c` + "\n" + `</list-item></list>after`),
			text: "a\nb\nc\nafter",
		},
		{
			name:   "FormattingInsideItem",
			markup: wrap("intro\n" + `<list><list-item dir="ltr"><bold>x</bold> y` + "\n" + `</list-item></list>`),
			text:   "intro\nx y\n",
		},
		{
			name:   "TwoListsInARow",
			markup: wrap(`<list><list-item dir="ltr">one` + "\n" + `</list-item></list><list><list-item dir="ltr">two</list-item></list>`),
			text:   "one\ntwo",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			buf := roundTrip(t, testCase.markup)

			assert.Equal(t, testCase.text, buf.Text())
			if diff := cmp.Diff(testCase.markup, content.SerializeAll(buf)); diff != "" {
				t.Errorf("markup mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Deserialize_Reads_List_Item_Direction(t *testing.T) {
	t.Parallel()

	buf := roundTrip(t, wrap(`<list><list-item dir="rtl">item</list-item></list>`))

	item := buf.FindTag(tag.ListItem, 0)
	require.NotNil(t, item)
	dir, ok := item.Attribute("dir")
	assert.True(t, ok)
	assert.Equal(t, "rtl", dir)
	assert.NotNil(t, buf.FindTag(tag.List, 0))
}

func Test_Deserialize_Keeps_Prefixed_Element_Names(t *testing.T) {
	t.Parallel()

	buf := roundTrip(t, wrap(`see <link:url>http://example.com</link:url> and <size:large>big</size:large>`))
	table := buf.TagTable()

	assert.True(t, buf.HasTag(table.Lookup(tag.LinkURL), 4))
	assert.True(t, buf.HasTag(table.Lookup(tag.SizeLarge), buf.Len()-1))
}

func Test_Deserialize_Keeps_Text_Of_Unknown_Elements(t *testing.T) {
	t.Parallel()

	buf := roundTrip(t, wrap("<mystery>kept</mystery> <bold>b</bold>"))

	assert.Equal(t, "kept b", buf.Text())
	assert.Empty(t, buf.TagsAt(0))
	assert.Equal(t, wrap("kept <bold>b</bold>"), content.SerializeAll(buf))
}

func Test_Deserialize_Inserts_At_Offset(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "XY")

	require.NoError(t, content.Deserialize(buf, 1, wrap("<bold>ab</bold>")))

	assert.Equal(t, "XabY", buf.Text())
	assert.Equal(t, []types.Range{{Start: 1, End: 3}}, buf.TagRanges(buf.TagTable().Lookup(tag.Bold)))
}

func Test_Deserialize_Rejects_Bad_Offset(t *testing.T) {
	t.Parallel()

	buf := newBuffer(t, "XY")

	err := content.Deserialize(buf, 5, wrap("a"))

	require.ErrorIs(t, err, buffer.ErrOutOfRange)
	assert.Equal(t, "XY", buf.Text())
}

func Test_Validate_Rejects_Malformed_Markup(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		markup string
	}{
		{name: "Empty", markup: ""},
		{name: "Unclosed", markup: open + "<bold>x" + closing},
		{name: "Mismatched", markup: open + "<bold>x</italic>" + closing},
		{name: "TwoRoots", markup: wrap("a") + wrap("b")},
		{name: "TextOutsideRoot", markup: "before" + wrap("a")},
		{name: "BadEntity", markup: wrap("&nope;")},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			require.ErrorIs(t, content.Validate(testCase.markup), content.ErrMalformed)

			buf := newBuffer(t, "keep")
			require.ErrorIs(t, content.Deserialize(buf, 0, testCase.markup), content.ErrMalformed)
			assert.Equal(t, "keep", buf.Text(), "buffer must be untouched")
		})
	}
}

func Test_Validate_Accepts_Whitespace_Around_Root(t *testing.T) {
	t.Parallel()

	markup := "\n  " + wrap("a") + "\n"

	require.NoError(t, content.Validate(markup))
	assert.Equal(t, "a", roundTrip(t, markup).Text())
}

func Test_PlainText_Strips_Markup(t *testing.T) {
	t.Parallel()

	got, err := content.PlainText(wrap("<bold>Hello</bold>, <link:url>world</link:url> &amp; more"))

	require.NoError(t, err)
	assert.Equal(t, "Hello, world & more", got)

	_, err = content.PlainText("<bold>")
	require.ErrorIs(t, err, content.ErrMalformed)
}

func Test_Serialize_Output_Is_Wellformed_For_Random_Tagging(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("abcdefghij", 4)
	names := []string{tag.Bold, tag.Italic, tag.Strikethrough, tag.Highlight, tag.SizeLarge}
	buf := newBuffer(t, text)
	for i, name := range names {
		start := (i * 7) % len(text)
		end := min(start+11+i*3, len(text))
		apply(t, buf, name, start, end)
		apply(t, buf, name, (start+23)%len(text), min((start+23)%len(text)+4, len(text)))
	}

	markup := content.SerializeAll(buf)
	require.NoError(t, content.Validate(markup))

	again := roundTrip(t, markup)
	assert.Equal(t, text, again.Text())
	for _, name := range names {
		assert.Equal(t,
			buf.TagRanges(buf.TagTable().Lookup(name)),
			again.TagRanges(again.TagTable().Lookup(name)),
			name)
	}
}
