package clipboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/core/clipboard"
	"github.com/bethropolis/tomboy/internal/core/history"
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/tag"
)

func styledBuffer(t *testing.T, table *tag.Table) *buffer.NoteBuffer {
	t.Helper()
	buf := buffer.New(table)
	require.NoError(t, content.Deserialize(buf, 0, `<note-content version="0.1">hello <bold>bold</bold> world</note-content>`))
	return buf
}

func Test_Manager_Copy_Without_Selection_Does_Nothing(t *testing.T) {
	t.Parallel()

	m := clipboard.NewManager(false, nil)
	buf := styledBuffer(t, tag.NewTable())

	copied, err := m.Copy(buf)
	require.NoError(t, err)
	assert.False(t, copied)

	pasted, err := m.Paste(buf)
	require.NoError(t, err)
	assert.False(t, pasted)
	assert.Equal(t, "hello bold world", buf.Text())
}

func Test_Manager_Paste_Keeps_Tags(t *testing.T) {
	t.Parallel()

	table := tag.NewTable()
	events := event.NewManager()
	var got []event.ClipboardData
	events.Subscribe(event.TypeClipboardChanged, func(e event.Event) bool {
		got = append(got, e.Data.(event.ClipboardData))
		return false
	})
	m := clipboard.NewManager(false, events)

	src := styledBuffer(t, table)
	src.SelectRange(16, 6)
	copied, err := m.Copy(src)
	require.NoError(t, err)
	require.True(t, copied)
	assert.Equal(t, "bold world", m.Text())
	require.Len(t, got, 1)
	assert.Equal(t, m.Markup(), got[0].Markup)

	dst := buffer.New(table)
	require.NoError(t, dst.Insert(0, "x"))
	dst.SetCursor(1)
	pasted, err := m.Paste(dst)
	require.NoError(t, err)
	require.True(t, pasted)

	assert.Equal(t, `<note-content version="0.1">x<bold>bold</bold> world</note-content>`, content.SerializeAll(dst))
	assert.Equal(t, 11, dst.Cursor())
}

func Test_Manager_Paste_Replaces_Selection_As_One_Insert(t *testing.T) {
	t.Parallel()

	table := tag.NewTable()
	m := clipboard.NewManager(false, nil)
	src := buffer.New(table)
	require.NoError(t, src.Insert(0, "plain"))
	src.SelectRange(5, 0)
	_, err := m.Copy(src)
	require.NoError(t, err)

	dst := buffer.New(table)
	require.NoError(t, dst.Insert(0, "one two"))
	undo := history.NewManager(dst, nil)
	dst.SelectRange(7, 4)

	_, err = m.Paste(dst)
	require.NoError(t, err)
	assert.Equal(t, "one plain", dst.Text())
	assert.Equal(t, 2, undo.UndoDepth(), "erase of the selection and the paste")

	require.NoError(t, undo.Undo())
	assert.Equal(t, "one ", dst.Text())
	require.NoError(t, undo.Undo())
	assert.Equal(t, "one two", dst.Text())
}

func Test_Manager_Cut_Is_Undoable(t *testing.T) {
	t.Parallel()

	table := tag.NewTable()
	m := clipboard.NewManager(false, nil)
	buf := styledBuffer(t, table)
	undo := history.NewManager(buf, nil)
	before := content.SerializeAll(buf)

	buf.SelectRange(10, 5)
	cut, err := m.Cut(buf)
	require.NoError(t, err)
	require.True(t, cut)
	assert.Equal(t, "hello world", buf.Text())
	assert.Equal(t, 5, buf.Cursor())
	assert.Equal(t, ` <bold>bold</bold>`, m.Markup()[len(`<note-content version="0.1">`):len(m.Markup())-len(`</note-content>`)])

	require.NoError(t, undo.Undo())
	assert.Equal(t, before, content.SerializeAll(buf))
}

func Test_Manager_Copy_Drops_Anchor_Characters_From_Text(t *testing.T) {
	t.Parallel()

	m := clipboard.NewManager(false, nil)
	buf := buffer.New(tag.NewTable())
	require.NoError(t, buf.Insert(0, "ab"))
	require.NoError(t, buf.InsertAnchor(1, &buffer.Anchor{}))
	buf.SelectRange(3, 0)

	_, err := m.Copy(buf)
	require.NoError(t, err)
	assert.Equal(t, "ab", m.Text())
}
