package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/config"
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/plugins/autosave"
	"github.com/bethropolis/tomboy/plugins/wordcount"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Notes.Dir = t.TempDir()
	cfg.Clipboard.System = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...app.Option) (*app.App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := app.NewApp(cfg, &out, opts...)
	require.NoError(t, err)
	return a, &out
}

func runScript(t *testing.T, a *app.App, lines ...string) {
	t.Helper()
	require.NoError(t, a.RunScript(strings.NewReader(strings.Join(lines, "\n"))))
}

func markup(body string) string {
	return `<note-content version="0.1">` + body + `</note-content>`
}

func Test_App_Creates_Saves_And_Reopens_Note(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, _ := newTestApp(t, cfg, app.WithPlugins())

	n, err := a.CreateNote("Shopping")
	require.NoError(t, err)
	require.NoError(t, a.ExecuteCommand("append", []string{"milk"}))
	require.NoError(t, a.ExecuteCommand("save", nil))
	require.NoError(t, a.Close())

	assert.Equal(t, cfg.Notes.Dir, filepath.Dir(n.Path()))
	_, err = os.Stat(n.Path())
	require.NoError(t, err)

	b, _ := newTestApp(t, cfg, app.WithPlugins())
	reopened, err := b.OpenNote(n.Path())
	require.NoError(t, err)
	assert.Equal(t, "Shopping", reopened.Title())
	assert.Equal(t, markup("Shopping\n\nmilk"), reopened.Text())
	assert.Equal(t, n.URI(), reopened.URI())
}

func Test_App_Script_Styles_And_Undoes(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t, testConfig(t), app.WithPlugins())
	n, err := a.CreateNote("Todo")
	require.NoError(t, err)

	runScript(t, a,
		`type "buy milk"`,
		"select 6 9",
		"# style the first word",
		"tag bold",
	)
	assert.Equal(t, markup("Todo\n\n<bold>buy</bold> milk"), n.Text())

	runScript(t, a, "undo")
	assert.Equal(t, markup("Todo\n\nbuy milk"), n.Text())

	runScript(t, a, "redo")
	assert.Equal(t, markup("Todo\n\n<bold>buy</bold> milk"), n.Text())

	runScript(t, a, "select 6 9", "tag bold")
	assert.Equal(t, markup("Todo\n\nbuy milk"), n.Text())
}

func Test_App_Cut_And_Paste(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t, testConfig(t), app.WithPlugins())
	n, err := a.CreateNote("Todo")
	require.NoError(t, err)

	runScript(t, a,
		`type "buy milk"`,
		"select 6 9",
		"cut",
		"cursor end",
		"paste",
	)
	assert.Equal(t, "Todo\n\n milkbuy", n.Buffer().Text())

	runScript(t, a, "undo 2")
	assert.Equal(t, "Todo\n\nbuy milk", n.Buffer().Text())
}

func Test_App_Find_Reports_Matches(t *testing.T) {
	t.Parallel()

	a, out := newTestApp(t, testConfig(t), app.WithPlugins())
	_, err := a.CreateNote("Todo")
	require.NoError(t, err)

	runScript(t, a, `type "buy milk"`, "find MILK", "next")
	assert.Equal(t, "1 matches\n10-14\n10-14\n", out.String())

	out.Reset()
	runScript(t, a, `replace milk "oat milk"`)
	assert.Equal(t, "Replaced 1 occurrences\n", out.String())
	assert.Equal(t, "Todo\n\nbuy oat milk", a.Note().Buffer().Text())
}

func Test_App_Stats_Command_Comes_From_Plugin(t *testing.T) {
	t.Parallel()

	a, out := newTestApp(t, testConfig(t), app.WithPlugins(wordcount.New()))
	_, err := a.CreateNote("Todo")
	require.NoError(t, err)

	runScript(t, a, `type "buy milk"`)
	require.NoError(t, a.ExecuteCommand("stats", nil))

	assert.Equal(t, "Lines: 3, Words: 3, Chars: 14\n", out.String())
	assert.Contains(t, a.Commands(), "stats")
}

func Test_App_Rejects_Bad_Commands(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t, testConfig(t), app.WithPlugins())

	require.ErrorIs(t, a.ExecuteCommand("bogus", nil), app.ErrUnknownCommand)
	require.ErrorIs(t, a.ExecuteCommand("append", []string{"x"}), app.ErrNoNote)
	require.ErrorIs(t, a.RegisterCommand("undo", func([]string) error { return nil }), app.ErrCommandExists)

	_, err := a.CreateNote("Todo")
	require.NoError(t, err)
	require.ErrorIs(t, a.ExecuteCommand("cursor", []string{"99"}), app.ErrInvalidArgument)
	require.ErrorIs(t, a.ExecuteCommand("tag", []string{"nope"}), app.ErrInvalidArgument)

	err = a.RunScript(strings.NewReader("type x\nbogus\n"))
	require.ErrorIs(t, err, app.ErrUnknownCommand)
	assert.Contains(t, err.Error(), "line 2")

	_, err = a.CreateNote("   ")
	require.ErrorIs(t, err, app.ErrInvalidArgument)
}

func Test_App_Resolves_And_Lists_Notes(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, _ := newTestApp(t, cfg, app.WithPlugins())

	var paths []string
	for _, title := range []string{"Shopping", "Recipes"} {
		n, err := a.CreateNote(title)
		require.NoError(t, err)
		require.NoError(t, a.Save())
		paths = append(paths, n.Path())
	}

	infos, err := a.ListNotes()
	require.NoError(t, err)
	titles := make([]string, 0, len(infos))
	for _, info := range infos {
		titles = append(titles, info.Title)
	}
	assert.ElementsMatch(t, []string{"Shopping", "Recipes"}, titles)

	testCases := []struct {
		name string
		ref  string
		want string
	}{
		{name: "Path", ref: paths[0], want: paths[0]},
		{name: "FileName", ref: filepath.Base(paths[1]), want: paths[1]},
		{name: "ID", ref: strings.TrimSuffix(filepath.Base(paths[1]), ".note"), want: paths[1]},
		{name: "Title", ref: "shopping", want: paths[0]},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := a.ResolveNote(testCase.ref)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}

	_, err = a.ResolveNote("Missing")
	require.ErrorIs(t, err, app.ErrNoteNotFound)
}

func Test_App_Autosaves_When_Idle(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cfg := testConfig(t)
	a, _ := newTestApp(t, cfg, app.WithPlugins(autosave.New(autosave.WithClock(clock))))
	n, err := a.CreateNote("Draft")
	require.NoError(t, err)

	require.NoError(t, a.ExecuteCommand("append", []string{"x"}))
	_, err = os.Stat(n.Path())
	require.True(t, os.IsNotExist(err), "saved before the interval passed")

	now = now.Add(5 * time.Second)
	require.NoError(t, a.ExecuteCommand("append", []string{"y"}))
	_, err = os.Stat(n.Path())
	require.NoError(t, err)
	assert.False(t, n.SaveNeeded())

	require.NoError(t, a.ExecuteCommand("append", []string{"z"}))
	require.NoError(t, a.Close())

	b, _ := newTestApp(t, cfg, app.WithPlugins())
	reopened, err := b.OpenNote(n.Path())
	require.NoError(t, err)
	assert.Equal(t, markup("Draft\n\nxyz"), reopened.Text())
}

func Test_App_Autosave_Waits_For_Batch_To_Finish(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		script string
		saved  bool
	}{
		{name: "FailedScript", script: "append x\nappend y\nbogus\n", saved: false},
		{name: "GoodScript", script: "append x\nappend y\n", saved: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
			clock := func() time.Time { return now }
			a, _ := newTestApp(t, testConfig(t), app.WithPlugins(autosave.New(autosave.WithClock(clock))))
			n, err := a.CreateNote("Draft")
			require.NoError(t, err)
			now = now.Add(time.Minute)

			var saves int
			a.Events().Subscribe(event.TypeNoteSaved, func(event.Event) bool {
				saves++
				return false
			})

			err = a.RunScript(strings.NewReader(testCase.script))
			_, statErr := os.Stat(n.Path())
			if !testCase.saved {
				require.Error(t, err)
				assert.True(t, os.IsNotExist(statErr), "saved in the middle of a failed script")
				assert.Zero(t, saves)
				return
			}
			require.NoError(t, err)
			require.NoError(t, statErr)
			assert.Equal(t, 1, saves)
			assert.False(t, n.SaveNeeded())
		})
	}
}

func Test_App_Batch_Nests(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t, testConfig(t), app.WithPlugins())
	_, err := a.CreateNote("Draft")
	require.NoError(t, err)

	var idles int
	a.Events().Subscribe(event.TypeIdle, func(event.Event) bool {
		idles++
		return false
	})

	require.NoError(t, a.Batch(func() error {
		require.NoError(t, a.ExecuteCommand("append", []string{"x"}))
		runScript(t, a, "append y", "append z")
		assert.Zero(t, idles)
		return nil
	}))
	assert.Equal(t, 1, idles)

	require.NoError(t, a.ExecuteCommand("append", []string{"!"}))
	assert.Equal(t, 2, idles)
}

func Test_App_Autosave_Can_Be_Disabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Plugins["autosave"] = map[string]any{"enabled": false}
	a, _ := newTestApp(t, cfg, app.WithPlugins(autosave.New()))
	n, err := a.CreateNote("Draft")
	require.NoError(t, err)

	require.NoError(t, a.ExecuteCommand("append", []string{"x"}))
	require.NoError(t, a.Close())

	_, err = os.Stat(n.Path())
	assert.True(t, os.IsNotExist(err))
}

func Test_SplitArgs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		line string
		want []string
	}{
		{name: "Plain", line: "select 1 4", want: []string{"select", "1", "4"}},
		{name: "Quoted", line: `replace "a b" c`, want: []string{"replace", "a b", "c"}},
		{name: "Escapes", line: `type "one\ntwo"`, want: []string{"type", "one\ntwo"}},
		{name: "ExtraSpace", line: "  undo   2 ", want: []string{"undo", "2"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := app.SplitArgs(testCase.line)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}

	_, err := app.SplitArgs(`type "open`)
	require.ErrorIs(t, err, app.ErrInvalidArgument)
}
