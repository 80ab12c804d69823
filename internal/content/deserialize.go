package content

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
)

// ErrMalformed is returned for markup that is not well-formed XML.
var ErrMalformed = errors.New("malformed note content")

// Validate checks that markup is a single well-formed XML element.
func Validate(markup string) error {
	d := xml.NewDecoder(strings.NewReader(markup))
	depth, roots := 0, 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return fmt.Errorf("%w: text outside the root element", ErrMalformed)
			}
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: expected one root element, found %d", ErrMalformed, roots)
	}
	return nil
}

type tagStart struct {
	start int
	tag   *tag.Tag
}

// Deserialize inserts markup into buf at offset, applying each element as
// a tag over the text it encloses. The markup is validated first; on error
// the buffer is left untouched.
func Deserialize(buf buffer.Buffer, offset int, markup string) error {
	if err := Validate(markup); err != nil {
		return err
	}
	if offset < 0 || offset > buf.Len() {
		return fmt.Errorf("deserialize at %d: %w", offset, buffer.ErrOutOfRange)
	}

	table := buf.TagTable()
	var stack []tagStart
	depth := 0

	d := xml.NewDecoder(strings.NewReader(markup))
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// Validate accepted the document, so this is unexpected.
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			name := qualified(t.Name)
			if name == RootElement {
				continue
			}
			stack = append(stack, tagStart{start: offset, tag: resolve(table, name, t.Attr)})

		case xml.CharData:
			if depth == 0 {
				continue // whitespace around the root
			}
			text := string(t)
			if err := buf.Insert(offset, text); err != nil {
				return fmt.Errorf("insert text: %w", err)
			}
			offset += utf8.RuneCountInString(text)

		case xml.EndElement:
			depth--
			name := qualified(t.Name)
			if name == RootElement || len(stack) == 0 {
				continue
			}
			ts := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if ts.tag == nil {
				continue
			}
			if err := buf.ApplyTag(ts.tag, ts.start, offset); err != nil {
				return fmt.Errorf("apply %s: %w", ts.tag.Name(), err)
			}

		default:
			logger.DebugTagf("content", "Unhandled markup token %T", tok)
		}
	}
}

// resolve maps an element to a tag. Unknown and non-serializable elements
// resolve to nil: their text is kept, no tag is applied.
func resolve(table *tag.Table, name string, attrs []xml.Attr) *tag.Tag {
	if table.IsDynamicRegistered(name) {
		t := table.CreateDynamic(name)
		for _, a := range attrs {
			t.SetAttribute(qualified(a.Name), a.Value)
		}
		if !table.IsSerializable(t) {
			return nil
		}
		return t
	}
	t := table.Lookup(name)
	if t == nil {
		logger.WarnTagf("content", "Unknown element <%s>, keeping text only", name)
		return nil
	}
	if !table.IsSerializable(t) {
		logger.DebugTagf("content", "Ignoring non-serializable element <%s>", name)
		return nil
	}
	return t
}

// qualified rebuilds the prefixed element name ("link:url") from a raw token.
func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
