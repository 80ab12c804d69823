package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/note"
	"github.com/bethropolis/tomboy/plugins/wordcount"
)

const dateFormat = "2006-01-02 15:04"

func (s *session) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently changed first",
		Args:  cobra.NoArgs,
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			infos, err := a.ListNotes()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Title, formatTime(info.ChangeDate), note.ID(info.URI))
			}
			return w.Flush()
		}),
	}
}

func (s *session) newNewCmd() *cobra.Command {
	var body []string

	cmd := &cobra.Command{
		Use:   "new TITLE",
		Short: "Create a note and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			n, err := a.CreateNote(args[0])
			if err != nil {
				return err
			}
			if len(body) > 0 {
				if err := a.ExecuteCommand("append", []string{strings.Join(body, "\n")}); err != nil {
					return err
				}
			}
			if err := a.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n.Path())
			return nil
		}),
	}
	cmd.Flags().StringArrayVar(&body, "line", nil, "line of body text (repeatable)")
	return cmd
}

func (s *session) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info NOTE",
		Short: "Show a note's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			n, err := openNote(a, args[0])
			if err != nil {
				return err
			}
			data := n.Data()
			stats, err := wordcount.Count(data.Text)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Title:\t%s\n", data.Title)
			fmt.Fprintf(w, "URI:\t%s\n", data.URI)
			fmt.Fprintf(w, "Path:\t%s\n", n.Path())
			fmt.Fprintf(w, "Created:\t%s\n", formatTime(data.CreateDate))
			fmt.Fprintf(w, "Changed:\t%s\n", formatTime(data.ChangeDate))
			fmt.Fprintf(w, "Words:\t%d\n", stats.Words)
			fmt.Fprintf(w, "Characters:\t%d\n", stats.Chars)
			if len(data.Tags) > 0 {
				fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(data.Tags, ", "))
			}
			return w.Flush()
		}),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateFormat)
}

func (s *session) newTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text NOTE",
		Short: "Print a note as plain text",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			n, err := openNote(a, args[0])
			if err != nil {
				return err
			}
			text, err := content.PlainText(n.Text())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}),
	}
}

func (s *session) newMarkupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "markup NOTE",
		Short: "Print a note's note-content markup",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			n, err := openNote(a, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n.Text())
			return nil
		}),
	}
}

// ErrInvalidNotes is returned when validate finds broken files.
var ErrInvalidNotes = errors.New("invalid notes found")

func (s *session) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that note files parse and their content is well formed",
		Args:  cobra.MinimumNArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			bad := 0
			for _, path := range args {
				if err := validateFile(path); err != nil {
					bad++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
			}
			if bad > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidNotes, bad, len(args))
			}
			return nil
		}),
	}
}

// validateFile parses without upgrading old files in place.
func validateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data, _, err := note.Parse(f, note.URIFromPath(path))
	if err != nil {
		return err
	}
	return content.Validate(data.Text)
}
