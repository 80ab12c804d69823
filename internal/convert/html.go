// Package convert exports note content to HTML and imports Markdown as
// note content.
package convert

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bethropolis/tomboy/internal/content"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
)

// Page is one note to export.
type Page struct {
	Title  string
	Markup string
}

const stylesheet = `
	body {  }
	h1 { font-size: xx-large;
	     font-weight: bold;
	     color: red;
	     text-decoration: underline; }
	div.note { overflow: auto;
		   position: relative;
		   border: 1px solid black;
		   display: block;
		   padding: 5pt;
		   margin: 5pt;
		   white-space: pre-wrap;
		   word-wrap: break-word; }
	`

// htmlElement is the HTML rendering of one note tag.
type htmlElement struct {
	name  string
	style string
}

var tagElements = map[string]htmlElement{
	tag.Bold:          {name: "b"},
	tag.Italic:        {name: "i"},
	tag.Strikethrough: {name: "strike"},
	tag.Centered:      {name: "div", style: "text-align:center"},
	tag.Highlight:     {name: "span", style: "background:yellow"},
	tag.Monospace:     {name: "span", style: "font-family:monospace"},
	tag.SizeSmall:     {name: "span", style: "font-size:small"},
	tag.SizeLarge:     {name: "span", style: "font-size:x-large"},
	tag.SizeHuge:      {name: "span", style: "font-size:xx-large"},
	tag.Datetime:      {name: "span", style: "font-style:italic;font-size:small;color:#888A85"},
	tag.LinkBroken:    {name: "span", style: "color:#555753;text-decoration:underline"},
	tag.LinkInternal:  {name: "a", style: "color:#204A87"},
	tag.LinkURL:       {name: "a", style: "color:#3465A4"},
	tag.List:          {name: "ul"},
	tag.ListItem:      {name: "li"},
}

// ExportHTML writes pages as one HTML document. The first line of each
// note is its title and is rendered as a heading; links between notes
// point at the note's anchor.
func ExportHTML(w io.Writer, pages ...Page) error {
	if len(pages) == 0 {
		return errors.New("nothing to export")
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element("html")
	doc.AppendChild(root)

	head := element("head")
	root.AppendChild(head)
	meta := element("meta")
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	title := element("title")
	title.AppendChild(textNode(pages[0].Title))
	head.AppendChild(title)
	style := element("style")
	style.Attr = []html.Attribute{{Key: "type", Val: "text/css"}}
	style.AppendChild(textNode(stylesheet))
	head.AppendChild(style)

	body := element("body")
	root.AppendChild(body)
	for i, p := range pages {
		if i > 0 {
			body.AppendChild(textNode("\n"))
		}
		div, err := noteNode(p)
		if err != nil {
			return fmt.Errorf("export %q: %w", p.Title, err)
		}
		body.AppendChild(div)
	}

	return html.Render(w, doc)
}

// noteNode builds the div of one note from its markup.
func noteNode(p Page) (*html.Node, error) {
	if err := content.Validate(p.Markup); err != nil {
		return nil, err
	}

	div := element("div")
	div.Attr = []html.Attribute{{Key: "class", Val: "note"}, {Key: "id", Val: p.Title}}
	anchor := element("a")
	anchor.Attr = []html.Attribute{{Key: "name", Val: "#" + p.Title}}
	div.AppendChild(anchor)
	h1 := element("h1")
	h1.AppendChild(textNode(p.Title))
	div.AppendChild(h1)
	div.AppendChild(textNode("\n"))

	b := &htmlBuilder{stack: []*pending{{node: div}}, skipTitle: true}
	d := xml.NewDecoder(strings.NewReader(p.Markup))
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", content.ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := qualified(t.Name)
			if name == content.RootElement {
				continue
			}
			b.push(name)
		case xml.EndElement:
			if qualified(t.Name) == content.RootElement {
				continue
			}
			b.pop()
		case xml.CharData:
			b.text(string(t))
		}
	}
	return div, nil
}

// pending is an open note element. Its HTML node is created only once
// text is written inside it, so elements that hold nothing but the title
// line leave no trace.
type pending struct {
	name string
	node *html.Node
}

type htmlBuilder struct {
	stack     []*pending
	skipTitle bool
}

func (b *htmlBuilder) push(name string) {
	b.stack = append(b.stack, &pending{name: name})
}

func (b *htmlBuilder) pop() {
	if len(b.stack) <= 1 {
		return
	}
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if top.node == nil || top.node.Data != "a" {
		return
	}
	target := textContent(top.node)
	if top.name == tag.LinkInternal {
		target = "#" + target
	}
	top.node.Attr = append(top.node.Attr, html.Attribute{Key: "href", Val: target})
}

func (b *htmlBuilder) text(s string) {
	if b.skipTitle {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			return
		}
		b.skipTitle = false
		s = s[i+1:]
	}
	if s == "" {
		return
	}
	b.materialize().AppendChild(textNode(s))
}

// materialize creates the nodes of open elements and returns the innermost.
func (b *htmlBuilder) materialize() *html.Node {
	parent := b.stack[0].node
	for _, p := range b.stack[1:] {
		if p.node == nil {
			p.node = elementFor(p.name)
			parent.AppendChild(p.node)
		}
		parent = p.node
	}
	return parent
}

func elementFor(name string) *html.Node {
	el, ok := tagElements[name]
	if !ok {
		logger.DebugTagf("convert", "No HTML rendering for <%s>, using span", name)
		el = htmlElement{name: "span"}
	}
	n := element(el.name)
	if el.style != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: el.style})
	}
	return n
}

func element(name string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: name, DataAtom: atom.Lookup([]byte(name))}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
