package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/config"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/logger"
)

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

var shellBuiltins = []string{"exit", "help", "markup", "quit", "text"}

func (s *session) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell NOTE",
		Short: "Edit a note interactively; it is saved on exit",
		Long: `Edit a note interactively; it is saved on exit.

Each line is an editing command as accepted by 'tomboy edit'. The shell also
knows help, text, markup and quit. Tab completes command names.`,
		Args: cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			n, err := openNote(a, args[0])
			if err != nil {
				return err
			}
			sh := &shell{app: a, out: cmd.OutOrStdout()}
			if err := sh.loop(config.ShellHistoryPath(), n.Title()); err != nil {
				return err
			}
			return a.Save()
		}),
	}
}

// shell evaluates command lines against the open note.
type shell struct {
	app *app.App
	out io.Writer
}

func (sh *shell) loop(historyPath, title string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.complete)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	prompt := title + "> "
	for {
		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(sh.out)
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := sh.eval(input); errors.Is(err, errQuit) {
			break
		} else if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}

	sh.saveHistory(line, historyPath)
	return nil
}

func (sh *shell) saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warnf("Shell: history: %v", err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		logger.Warnf("Shell: history: %v", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		logger.Warnf("Shell: history: %v", err)
	}
}

// eval runs one line. It returns errQuit when the user asks to leave.
func (sh *shell) eval(input string) error {
	args, err := app.SplitArgs(input)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(sh.out, strings.Join(sh.commandNames(), " "))
		return nil
	case "markup":
		n := sh.app.Note()
		if n == nil {
			return app.ErrNoNote
		}
		fmt.Fprintln(sh.out, n.Text())
		return nil
	case "text":
		n := sh.app.Note()
		if n == nil {
			return app.ErrNoNote
		}
		text, err := content.PlainText(n.Text())
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, text)
		return nil
	}
	return sh.app.ExecuteCommand(args[0], args[1:])
}

func (sh *shell) commandNames() []string {
	names := append(sh.app.Commands(), shellBuiltins...)
	slices.Sort(names)
	return names
}

// complete offers command names for the first word only.
func (sh *shell) complete(input string) []string {
	if strings.ContainsAny(input, " \t") {
		return nil
	}
	var matches []string
	for _, name := range sh.commandNames() {
		if strings.HasPrefix(name, input) {
			matches = append(matches, name)
		}
	}
	return matches
}
