package plugin_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/tomboy/internal/plugin"
)

type fakePlugin struct {
	name    string
	initErr error
	log     *[]string
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Initialize(api plugin.NoteAPI) error {
	*p.log = append(*p.log, "init "+p.name)
	return p.initErr
}

func (p *fakePlugin) Shutdown() error {
	*p.log = append(*p.log, "shutdown "+p.name)
	return nil
}

func Test_Manager_Register_Rejects_Bad_Names(t *testing.T) {
	t.Parallel()

	var log []string
	m := plugin.NewManager()
	require.NoError(t, m.Register(&fakePlugin{name: "a", log: &log}))
	require.ErrorIs(t, m.Register(&fakePlugin{name: "a", log: &log}), plugin.ErrAlreadyRegistered)
	require.ErrorIs(t, m.Register(&fakePlugin{name: "", log: &log}), plugin.ErrEmptyName)

	p, ok := m.GetPlugin("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Name())
	_, ok = m.GetPlugin("b")
	assert.False(t, ok)
}

func Test_Manager_Skips_Failed_Plugins_On_Shutdown(t *testing.T) {
	t.Parallel()

	var log []string
	boom := errors.New("boom")
	m := plugin.NewManager()
	require.NoError(t, m.Register(&fakePlugin{name: "first", log: &log}))
	require.NoError(t, m.Register(&fakePlugin{name: "broken", initErr: boom, log: &log}))
	require.NoError(t, m.Register(&fakePlugin{name: "last", log: &log}))

	require.ErrorIs(t, m.InitializePlugins(nil), boom)
	require.NoError(t, m.ShutdownPlugins())

	assert.Equal(t, []string{
		"init first", "init broken", "init last",
		"shutdown last", "shutdown first",
	}, log)
}
