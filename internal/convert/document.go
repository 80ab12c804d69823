package convert

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bethropolis/tomboy/internal/content"
)

// ErrUnsupportedFormat is returned by Import for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// block is one paragraph of an imported document. Level is the heading
// level, or 0 for body text.
type block struct {
	level int
	text  string
}

// blocksToMarkup joins blocks with blank lines. Headings become sizes the
// way Markdown headings do.
func blocksToMarkup(blocks []block) string {
	w := &markupWriter{}
	fmt.Fprintf(&w.b, `<%s version="%s">`, content.RootElement, content.FormatVersion)
	for _, bl := range blocks {
		text := strings.TrimSpace(bl.text)
		if text == "" {
			continue
		}
		w.blockBreak(2)
		if bl.level > 0 {
			w.element(headingTag(bl.level), true)
			w.text(text)
			w.element(headingTag(bl.level), false)
			continue
		}
		w.text(text)
	}
	w.b.WriteString("</" + content.RootElement + ">")
	return w.b.String()
}

// TextToMarkup escapes a plain text document. Line breaks are kept.
func TextToMarkup(src []byte) string {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	text = strings.Trim(text, "\n")
	return fmt.Sprintf(`<%s version="%s">%s</%s>`, content.RootElement, content.FormatVersion, escaper.Replace(text), content.RootElement)
}

// Import converts a document to a note-content fragment, picking the
// reader from the file name's extension.
func Import(name string, src []byte) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".md", ".markdown":
		return MarkdownToMarkup(src)
	case ".txt", ".text", "":
		return TextToMarkup(src), nil
	case ".docx":
		return DocxToMarkup(bytes.NewReader(src), int64(len(src)))
	case ".pdf":
		return PDFToMarkup(bytes.NewReader(src), int64(len(src)))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}
