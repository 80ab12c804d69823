package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
)

// Bullet starts imported list items.
const Bullet = "• "

// MarkdownToMarkup converts a Markdown document to a note-content fragment.
// Headings become sizes, emphasis bold and italic, code monospace and links
// URL links. Blocks are separated by blank lines.
func MarkdownToMarkup(src []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(src))

	w := &markupWriter{}
	fmt.Fprintf(&w.b, `<%s version="%s">`, content.RootElement, content.FormatVersion)

	var lists []*ast.List
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			w.element(headingTag(node.Level), entering)
			if !entering {
				w.blockBreak(2)
			}

		case *ast.Paragraph:
			if !entering {
				w.blockBreak(2)
			}

		case *ast.TextBlock:
			if !entering {
				w.blockBreak(1)
			}

		case *ast.Blockquote:
			w.element(tag.Italic, entering)

		case *ast.List:
			if entering {
				lists = append(lists, node)
			} else {
				lists = lists[:len(lists)-1]
				if len(lists) == 0 {
					w.blockBreak(2)
				}
			}

		case *ast.ListItem:
			if entering && len(lists) > 0 {
				list := lists[len(lists)-1]
				w.text(strings.Repeat("  ", len(lists)-1))
				if list.IsOrdered() {
					w.text(strconv.Itoa(list.Start+itemIndex(node)) + ". ")
				} else {
					w.text(Bullet)
				}
			}
			if !entering {
				w.blockBreak(1)
			}

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				w.element(tag.Monospace, true)
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					w.text(string(seg.Value(src)))
				}
				w.trimNewline()
				w.element(tag.Monospace, false)
				w.blockBreak(2)
			}
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			if entering {
				w.blockBreak(2)
			}

		case *ast.Emphasis:
			if node.Level >= 2 {
				w.element(tag.Bold, entering)
			} else {
				w.element(tag.Italic, entering)
			}

		case *extast.Strikethrough:
			w.element(tag.Strikethrough, entering)

		case *ast.CodeSpan:
			w.element(tag.Monospace, entering)

		case *ast.Link:
			if entering && inlineText(node, src) == string(node.Destination) {
				w.element(tag.LinkURL, true)
				w.text(string(node.Destination))
				w.element(tag.LinkURL, false)
				return ast.WalkSkipChildren, nil
			}
			if !entering {
				w.text(" (")
				w.element(tag.LinkURL, true)
				w.text(string(node.Destination))
				w.element(tag.LinkURL, false)
				w.text(")")
			}

		case *ast.AutoLink:
			if entering {
				w.element(tag.LinkURL, true)
				w.text(string(node.URL(src)))
				w.element(tag.LinkURL, false)
			}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if entering {
				w.text(string(node.Segment.Value(src)))
				switch {
				case node.HardLineBreak():
					w.text("\n")
				case node.SoftLineBreak():
					w.text(" ")
				}
			}

		case *ast.String:
			if entering {
				w.text(string(node.Value))
			}

		case *ast.HTMLBlock, *ast.RawHTML:
			logger.DebugTagf("convert", "Dropping raw HTML from Markdown import")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	w.b.WriteString("</" + content.RootElement + ">")
	return w.b.String(), nil
}

func headingTag(level int) string {
	switch level {
	case 1:
		return tag.SizeHuge
	case 2:
		return tag.SizeLarge
	default:
		return tag.Bold
	}
}

// inlineText concatenates the text below n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		} else {
			b.WriteString(inlineText(c, src))
		}
	}
	return b.String()
}

func itemIndex(item *ast.ListItem) int {
	i := 0
	for n := item.PreviousSibling(); n != nil; n = n.PreviousSibling() {
		i++
	}
	return i
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// markupWriter writes escaped text and elements. Block breaks are held
// back until more text follows, so the fragment never ends in blank lines
// and tags never swallow a break.
type markupWriter struct {
	b        strings.Builder
	newlines int
	written  bool
}

func (w *markupWriter) blockBreak(n int) {
	if w.written {
		w.newlines = max(w.newlines, n)
	}
}

func (w *markupWriter) flush() {
	if w.newlines > 0 {
		w.b.WriteString(strings.Repeat("\n", w.newlines))
		w.newlines = 0
	}
}

func (w *markupWriter) element(name string, open bool) {
	if open {
		w.flush()
		w.b.WriteString("<" + name + ">")
		return
	}
	w.b.WriteString("</" + name + ">")
}

func (w *markupWriter) text(s string) {
	if s == "" {
		return
	}
	w.flush()
	w.b.WriteString(escaper.Replace(s))
	w.written = true
}

// trimNewline drops the line feed that ends a code block's last line.
func (w *markupWriter) trimNewline() {
	s := w.b.String()
	if strings.HasSuffix(s, "\n") {
		w.b.Reset()
		w.b.WriteString(strings.TrimSuffix(s, "\n"))
	}
}
