package content

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PlainText returns the text of a note-content fragment with all markup removed.
func PlainText(markup string) (string, error) {
	if err := Validate(markup); err != nil {
		return "", err
	}
	var sb strings.Builder
	d := xml.NewDecoder(strings.NewReader(markup))
	depth := 0
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth > 0 {
				sb.Write(t)
			}
		}
	}
}
