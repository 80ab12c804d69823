// Package commands implements the tomboy command line.
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/config"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/note"
)

// runFunc is a subcommand body that works on a fully wired App.
type runFunc func(cmd *cobra.Command, a *app.App, args []string) error

// session carries the parsed global flags to every subcommand.
type session struct {
	flags *config.Flags
}

// NewRootCmd creates the root tomboy command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	s := &session{flags: &config.Flags{}}

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "tomboy - read, edit and convert Tomboy notes",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	s.flags.DefineFlags(root.PersistentFlags())

	root.AddCommand(
		s.newListCmd(),
		s.newNewCmd(),
		s.newInfoCmd(),
		s.newTextCmd(),
		s.newMarkupCmd(),
		s.newValidateCmd(),
		s.newAppendCmd(),
		s.newEditCmd(),
		s.newFindCmd(),
		s.newReplaceCmd(),
		s.newStatsCmd(),
		s.newCopyCmd(),
		s.newHTMLCmd(),
		s.newImportCmd(),
		s.newServeCmd(),
		s.newShellCmd(),
	)
	return root
}

// setup loads the configuration and opens the log. A broken config file
// is reported on stderr and the defaults are used.
func (s *session) setup(cmd *cobra.Command) (*config.Config, io.Closer, error) {
	cfg, loadErr := config.Load("", s.flags)
	if loadErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", loadErr)
	}

	closer, err := logger.Open(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debugf("Running '%s' with notes in %s", cmd.CommandPath(), cfg.Notes.Dir)
	return cfg, closer, nil
}

// run wraps fn with configuration, logging and App setup. The App is closed
// after fn returns, which lets plugins flush pending saves.
func (s *session) run(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, closer, err := s.setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		a, err := app.NewApp(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := a.Close(); err == nil {
				err = closeErr
			}
		}()
		return fn(cmd, a, args)
	}
}

// openNote resolves ref and opens it.
func openNote(a *app.App, ref string) (*note.Note, error) {
	path, err := a.ResolveNote(ref)
	if err != nil {
		return nil, err
	}
	return a.OpenNote(path)
}
