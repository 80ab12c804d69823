package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/logger"
)

func (s *session) newAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append NOTE TEXT...",
		Short: "Add a line of text to the end of a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			n, err := openNote(a, args[0])
			if err != nil {
				return err
			}
			line := strings.Join(args[1:], " ")
			if text := n.Buffer().Text(); text != "" && !strings.HasSuffix(text, "\n") {
				line = "\n" + line
			}
			if err := a.ExecuteCommand("append", []string{line}); err != nil {
				return err
			}
			return a.Save()
		}),
	}
}

func (s *session) newEditCmd() *cobra.Command {
	var (
		exprs      []string
		scriptPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "edit NOTE",
		Short: "Run editing commands against a note and save it",
		Long: `Run editing commands against a note and save it.

Commands come from -e flags, in order, then from --script ("-" reads stdin).
One command per line; double-quoted arguments may contain spaces and escapes.

Commands: append, insert, type, newline, backspace, delete, cursor, select,
tag, copy, cut, paste, find, find-regex, next, prev, replace, replace-regex,
undo, redo, save, stats.`,
		Args: cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			if len(exprs) == 0 && scriptPath == "" {
				return fmt.Errorf("%w: give -e or --script", app.ErrInvalidArgument)
			}
			n, err := openNote(a, args[0])
			if err != nil {
				return err
			}

			err = a.Batch(func() error {
				if err := a.RunScript(strings.NewReader(strings.Join(exprs, "\n"))); err != nil {
					return err
				}
				if scriptPath != "" {
					r, closeScript, err := openScript(cmd, scriptPath)
					if err != nil {
						return err
					}
					err = a.RunScript(r)
					closeScript()
					if err != nil {
						return err
					}
				}
				if dryRun {
					fmt.Fprintln(cmd.OutOrStdout(), n.Text())
					return a.Revert()
				}
				return nil
			})
			if err != nil {
				if revertErr := a.Revert(); revertErr != nil {
					logger.Warnf("edit: revert after failed script: %v", revertErr)
				}
				return err
			}
			if dryRun {
				return nil
			}
			return a.Save()
		}),
	}
	cmd.Flags().StringArrayVarP(&exprs, "expr", "e", nil, "editing command (repeatable)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "file of editing commands, '-' for stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resulting markup instead of saving")
	return cmd
}

func openScript(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open script: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func (s *session) newFindCmd() *cobra.Command {
	var useRegex bool

	cmd := &cobra.Command{
		Use:   "find NOTE TERM",
		Short: "Print the character ranges matching TERM",
		Args:  cobra.ExactArgs(2),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			if _, err := openNote(a, args[0]); err != nil {
				return err
			}
			name := "find"
			if useRegex {
				name = "find-regex"
			}
			return a.ExecuteCommand(name, args[1:])
		}),
	}
	cmd.Flags().BoolVar(&useRegex, "regex", false, "treat TERM as a regular expression")
	return cmd
}

func (s *session) newReplaceCmd() *cobra.Command {
	var useRegex bool

	cmd := &cobra.Command{
		Use:   "replace NOTE PATTERN REPLACEMENT",
		Short: "Replace every match of PATTERN and save",
		Args:  cobra.ExactArgs(3),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			if _, err := openNote(a, args[0]); err != nil {
				return err
			}
			name := "replace"
			if useRegex {
				name = "replace-regex"
			}
			if err := a.ExecuteCommand(name, args[1:]); err != nil {
				return err
			}
			return a.Save()
		}),
	}
	cmd.Flags().BoolVar(&useRegex, "regex", false, "treat PATTERN as a regular expression; REPLACEMENT may use $1")
	return cmd
}

func (s *session) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats NOTE",
		Short: "Count the lines, words and characters of a note",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			if _, err := openNote(a, args[0]); err != nil {
				return err
			}
			return a.ExecuteCommand("stats", nil)
		}),
	}
}

func (s *session) newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy NOTE START END",
		Short: "Copy a character range of a note to the clipboard",
		Args:  cobra.ExactArgs(3),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			if _, err := openNote(a, args[0]); err != nil {
				return err
			}
			if err := a.ExecuteCommand("select", args[1:]); err != nil {
				return err
			}
			if err := a.ExecuteCommand("copy", nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ClipboardText())
			return nil
		}),
	}
}
