package note

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/bethropolis/tomboy/internal/logger"
)

const (
	// CurrentVersion is written on every saved note.
	CurrentVersion = "0.3"
	// Namespace is the default namespace of note documents.
	Namespace = "http://beatniksoftware.com/tomboy"
	// DateLayout matches the seven-digit fractional timestamps notes store.
	DateLayout = "2006-01-02T15:04:05.0000000-07:00"

	filePerms = 0o600
	dirPerms  = 0o700
)

var (
	ErrNotANote   = errors.New("not a note document")
	ErrInvalidXML = errors.New("invalid note xml")
)

// Parse reads a note document of any version. Namespaces are ignored and
// the inner markup of <text> is kept verbatim. It returns the data and the
// version found on the root element.
func Parse(r io.Reader, uri string) (*Data, string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read note: %w", err)
	}

	data := NewData(uri)
	version := ""
	d := xml.NewDecoder(bytes.NewReader(raw))

	var path []string
	var text strings.Builder
	textStart := -1
	sawRoot := false

	for {
		before := d.InputOffset()
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if len(path) == 0 {
				if name != "note" {
					return nil, "", fmt.Errorf("%w: root element <%s>", ErrNotANote, name)
				}
				sawRoot = true
				version = attr(t, "version")
			}
			path = append(path, name)
			text.Reset()
			if len(path) == 2 && name == "text" {
				textStart = int(d.InputOffset())
			}

		case xml.EndElement:
			if len(path) == 0 || path[len(path)-1] != t.Name.Local {
				return nil, "", fmt.Errorf("%w: unexpected </%s>", ErrInvalidXML, t.Name.Local)
			}
			name := path[len(path)-1]
			if err := data.setField(path, name, text.String(), raw, textStart, int(before)); err != nil {
				return nil, "", err
			}
			path = path[:len(path)-1]
			text.Reset()

		case xml.CharData:
			text.Write(t)
		}
	}

	if !sawRoot {
		return nil, "", ErrNotANote
	}
	if len(path) != 0 {
		return nil, "", fmt.Errorf("%w: unclosed <%s>", ErrInvalidXML, path[len(path)-1])
	}
	return data, version, nil
}

func (d *Data) setField(path []string, name, value string, raw []byte, textStart, textEnd int) error {
	if len(path) == 3 && path[1] == "tags" && name == "tag" {
		d.Tags = append(d.Tags, value)
		return nil
	}
	if len(path) != 2 {
		return nil
	}

	var err error
	switch name {
	case "title":
		d.Title = value
	case "text":
		if textStart >= 0 && textStart <= textEnd {
			d.Text = string(raw[textStart:textEnd])
		}
	case "last-change-date":
		d.ChangeDate, err = parseDate(value)
	case "last-metadata-change-date":
		d.MetadataChangeDate, err = parseDate(value)
	case "create-date":
		d.CreateDate, err = parseDate(value)
	case "cursor-position":
		d.CursorPosition, err = strconv.Atoi(strings.TrimSpace(value))
	case "selection-bound-position":
		d.SelectionBoundPosition, err = strconv.Atoi(strings.TrimSpace(value))
	case "width":
		d.Width, err = strconv.Atoi(strings.TrimSpace(value))
	case "height":
		d.Height, err = strconv.Atoi(strings.TrimSpace(value))
	case "x":
		d.X, err = strconv.Atoi(strings.TrimSpace(value))
	case "y":
		d.Y, err = strconv.Atoi(strings.TrimSpace(value))
	case "open-on-startup":
		d.OpenOnStartup = strings.EqualFold(strings.TrimSpace(value), "true")
	}
	if err != nil {
		return fmt.Errorf("%w: <%s>: %v", ErrInvalidXML, name, err)
	}
	return nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	// RFC 3339 parsing accepts any number of fractional digits.
	return time.Parse(time.RFC3339, s)
}

// Read loads the note file at path. Files in an older format are rewritten
// in the current one.
func Read(path, uri string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open note: %w", err)
	}
	defer f.Close()

	data, version, err := Parse(f, uri)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if version != CurrentVersion {
		logger.Infof("Updating note XML of %s from version %q to %s", filepath.Base(path), version, CurrentVersion)
		if err := Write(path, data); err != nil {
			logger.Warnf("Could not upgrade %s: %v", path, err)
		}
	}
	return data, nil
}

// Encode writes data as a note document.
func Encode(w io.Writer, data *Data) error {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	fmt.Fprintf(&b, `<note version="%s" xmlns:link="%s/link" xmlns:size="%s/size" xmlns="%s">`+"\n",
		CurrentVersion, Namespace, Namespace, Namespace)

	element(&b, "  ", "title", data.Title)
	// The note-content fragment is already markup.
	fmt.Fprintf(&b, "  <text xml:space=\"preserve\">%s</text>\n", data.Text)
	element(&b, "  ", "last-change-date", formatDate(data.ChangeDate))
	element(&b, "  ", "last-metadata-change-date", formatDate(data.MetadataChangeDate))
	if !data.CreateDate.IsZero() {
		element(&b, "  ", "create-date", formatDate(data.CreateDate))
	}
	element(&b, "  ", "cursor-position", strconv.Itoa(data.CursorPosition))
	if data.SelectionBoundPosition != NoPosition {
		element(&b, "  ", "selection-bound-position", strconv.Itoa(data.SelectionBoundPosition))
	}
	element(&b, "  ", "width", strconv.Itoa(data.Width))
	element(&b, "  ", "height", strconv.Itoa(data.Height))
	element(&b, "  ", "x", strconv.Itoa(data.X))
	element(&b, "  ", "y", strconv.Itoa(data.Y))
	if len(data.Tags) > 0 {
		b.WriteString("  <tags>\n")
		for _, t := range data.Tags {
			element(&b, "    ", "tag", t)
		}
		b.WriteString("  </tags>\n")
	}
	element(&b, "  ", "open-on-startup", formatBool(data.OpenOnStartup))
	b.WriteString("</note>")

	_, err := w.Write(b.Bytes())
	return err
}

// Write saves data to path, replacing any existing file atomically.
func Write(path string, data *Data) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return fmt.Errorf("failed to create note directory: %w", err)
	}
	var b bytes.Buffer
	if err := Encode(&b, data); err != nil {
		return fmt.Errorf("encode note: %w", err)
	}
	if err := atomic.WriteFile(path, &b); err != nil {
		return fmt.Errorf("failed to write note file: %w", err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("failed to set note file permissions: %w", err)
	}
	return nil
}

func element(b *bytes.Buffer, indent, name, value string) {
	fmt.Fprintf(b, "%s<%s>", indent, name)
	_ = xml.EscapeText(b, []byte(value))
	fmt.Fprintf(b, "</%s>\n", name)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
