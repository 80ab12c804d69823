// Package content converts styled buffer text to and from the note-content
// markup stored inside note files.
package content

import (
	"encoding/xml"
	"slices"
	"strings"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
)

const (
	// RootElement wraps every serialized fragment.
	RootElement = "note-content"
	// FormatVersion is written on the root element verbatim.
	FormatVersion = "0.1"
)

// SerializeAll serializes the whole buffer.
func SerializeAll(buf buffer.Buffer) string {
	return Serialize(buf, 0, buf.Len())
}

// Serialize writes [start, end) of buf as a note-content fragment.
//
// Tags are opened as they begin and kept on a stack. When a tag ends, every
// tag above it is closed too; the ones that continue past this point are
// reopened right after, so overlapping tags come out as properly nested
// elements.
func Serialize(buf buffer.Buffer, start, end int) string {
	start = min(max(start, 0), buf.Len())
	end = min(max(end, start), buf.Len())

	table := buf.TagTable()
	w := &writer{}
	w.open(RootElement, []tag.Attr{{Name: "version", Value: FormatVersion}})

	var stack, replay []*tag.Tag

	serializable := func(t *tag.Tag) bool {
		return table.IsSerializable(t)
	}
	endsHere := func(t *tag.Tag, iter int) bool {
		next := iter + 1
		return (buf.HasTag(t, iter) && !buf.HasTag(t, next)) || next >= buf.Len()
	}

	// Tags already open when the range starts.
	for _, t := range buf.TagsAt(start) {
		if start < end && !buf.BeginsTag(t, start) && serializable(t) {
			stack = append(stack, t)
			w.openTag(t)
		}
	}

	for iter := start; iter < end; iter++ {
		tags := buf.TagsAt(iter)

		var begins []*tag.Tag
		for _, t := range tags {
			if buf.BeginsTag(t, iter) && serializable(t) {
				begins = append(begins, t)
			}
		}
		// List structure encloses the formatting that starts with it.
		slices.SortStableFunc(begins, func(a, b *tag.Tag) int {
			return listRank(b) - listRank(a)
		})
		for _, t := range begins {
			w.openTag(t)
			stack = append(stack, t)
		}

		switch ch := buf.CharAt(iter); ch {
		case buffer.AnchorChar:
			if a := buf.AnchorAt(iter); a != nil && a.Markup != "" {
				w.raw(a.Markup)
			} else {
				logger.DebugTagf("content", "Dropping anchor at %d without markup", iter)
			}
		case buffer.LineSeparator:
			w.raw("&#x2028;")
		default:
			w.char(ch)
		}

		for _, t := range tags {
			if !endsHere(t, iter) || !serializable(t) || !slices.Contains(stack, t) {
				continue
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if !endsHere(top, iter) {
					replay = append(replay, top)
				}
				w.closeTag(top)
				if top == t {
					break
				}
			}
			// Reopen tags that overlapped the one just closed.
			for len(replay) > 0 {
				again := replay[len(replay)-1]
				replay = replay[:len(replay)-1]
				stack = append(stack, again)
				w.openTag(again)
			}
		}
	}

	for len(stack) > 0 {
		w.closeTag(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}
	w.close(RootElement)
	return w.String()
}

// listRank puts outer list structure before inner.
func listRank(t *tag.Tag) int {
	switch t.Name() {
	case tag.List:
		return 2
	case tag.ListItem:
		return 1
	}
	return 0
}

// writer emits markup the way the note files have always been written:
// no indentation, literal newlines in text.
type writer struct {
	strings.Builder
}

func (w *writer) openTag(t *tag.Tag) {
	var attrs []tag.Attr
	if t.IsDynamic() {
		attrs = t.Attributes()
	}
	w.open(t.Name(), attrs)
}

func (w *writer) closeTag(t *tag.Tag) {
	w.close(t.Name())
}

func (w *writer) open(name string, attrs []tag.Attr) {
	w.WriteByte('<')
	w.WriteString(name)
	for _, a := range attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		_ = xml.EscapeText(w, []byte(a.Value))
		w.WriteByte('"')
	}
	w.WriteByte('>')
}

func (w *writer) close(name string) {
	w.WriteString("</")
	w.WriteString(name)
	w.WriteByte('>')
}

func (w *writer) raw(s string) {
	w.WriteString(s)
}

func (w *writer) char(ch rune) {
	switch ch {
	case '&':
		w.WriteString("&amp;")
	case '<':
		w.WriteString("&lt;")
	case '>':
		w.WriteString("&gt;")
	case '\r':
		w.WriteString("&#xD;")
	default:
		if !isXMLChar(ch) {
			logger.DebugTagf("content", "Dropping character %U not allowed in XML", ch)
			return
		}
		w.WriteRune(ch)
	}
}

// isXMLChar reports whether ch may appear in an XML 1.0 document.
func isXMLChar(ch rune) bool {
	return ch == '\t' || ch == '\n' || ch == '\r' ||
		ch >= 0x20 && ch <= 0xD7FF ||
		ch >= 0xE000 && ch <= 0xFFFD ||
		ch >= 0x10000 && ch <= 0x10FFFF
}
