package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/config"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Notes.Dir = t.TempDir()
	cfg.Clipboard.System = false

	var out bytes.Buffer
	a, err := app.NewApp(cfg, &out, app.WithPlugins())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	_, err = a.CreateNote("Todo")
	require.NoError(t, err)
	return &shell{app: a, out: &out}, &out
}

func Test_Shell_Eval(t *testing.T) {
	t.Parallel()
	sh, out := newTestShell(t)

	require.NoError(t, sh.eval(`append "buy milk"`))
	require.NoError(t, sh.eval("text"))
	assert.Equal(t, "Todo\n\nbuy milk\n", out.String())

	out.Reset()
	require.NoError(t, sh.eval("undo"))
	require.NoError(t, sh.eval("markup"))
	assert.Equal(t, `<note-content version="0.1">Todo`+"\n\n</note-content>\n", out.String())

	require.ErrorIs(t, sh.eval("explode"), app.ErrUnknownCommand)
	require.ErrorIs(t, sh.eval("quit"), errQuit)
	require.ErrorIs(t, sh.eval("exit"), errQuit)
}

func Test_Shell_Completes_First_Word(t *testing.T) {
	t.Parallel()
	sh, _ := newTestShell(t)

	assert.Equal(t, []string{"redo", "replace", "replace-regex"}, sh.complete("re"))
	assert.Equal(t, []string{"quit"}, sh.complete("q"))
	assert.Nil(t, sh.complete("tag b"))
}
