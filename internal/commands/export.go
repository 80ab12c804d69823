package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/bethropolis/tomboy/internal/app"
	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/convert"
)

func (s *session) newHTMLCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "html NOTE...",
		Short: "Export notes as one HTML page",
		Args:  cobra.MinimumNArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			pages := make([]convert.Page, 0, len(args))
			for _, ref := range args {
				n, err := openNote(a, ref)
				if err != nil {
					return err
				}
				pages = append(pages, convert.Page{Title: n.Title(), Markup: n.Text()})
			}

			if output == "" || output == "-" {
				return convert.ExportHTML(cmd.OutOrStdout(), pages...)
			}
			var b bytes.Buffer
			if err := convert.ExportHTML(&b, pages...); err != nil {
				return err
			}
			if err := atomic.WriteFile(output, &b); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (s *session) newImportCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create a note from a Markdown, text, Word or PDF file",
		Long: `Create a note from a Markdown, plain text, Word (.docx) or PDF file.

The format follows the file extension; '-' reads Markdown from stdin.
The first line of the document becomes the note title unless --title is set,
in which case the whole document becomes the body.`,
		Args: cobra.ExactArgs(1),
		RunE: s.run(func(cmd *cobra.Command, a *app.App, args []string) error {
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			name := args[0]
			if name == "-" {
				name = "stdin.md"
			}
			markup, err := convert.Import(name, src)
			if err != nil {
				return err
			}

			path, err := importMarkup(a, markup, title)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "note title; the document becomes the body")
	return cmd
}

// importMarkup creates and saves a note holding markup.
func importMarkup(a *app.App, markup, title string) (string, error) {
	if title == "" {
		text, err := content.PlainText(markup)
		if err != nil {
			return "", err
		}
		first, _, _ := strings.Cut(text, "\n")
		title = strings.TrimSpace(first)
		if title == "" {
			return "", fmt.Errorf("%w: document has no title line; use --title", app.ErrInvalidArgument)
		}
		n, err := a.CreateNote(title)
		if err != nil {
			return "", err
		}
		if err := n.SetText(markup); err != nil {
			return "", err
		}
		return n.Path(), a.Save()
	}

	n, err := a.CreateNote(title)
	if err != nil {
		return "", err
	}
	buf := n.Buffer()
	if err := content.Deserialize(buf, buf.Len(), markup); err != nil {
		return "", err
	}
	return n.Path(), a.Save()
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return src, nil
}
