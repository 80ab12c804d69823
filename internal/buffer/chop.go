package buffer

import (
	"maps"

	"github.com/bethropolis/tomboy/internal/tag"
)

// Chop is a detached copy of a buffer range: text, the tags over it and its
// anchors, with offsets relative to the start of the copy.
type Chop struct {
	Text    []rune
	Tags    []TagRange
	Anchors map[int]*Anchor
}

// Len returns the length of the chop in characters.
func (c Chop) Len() int { return len(c.Text) }

// String returns the plain text of the chop.
func (c Chop) String() string { return string(c.Text) }

// First returns the first character, or 0 for an empty chop.
func (c Chop) First() rune {
	if len(c.Text) == 0 {
		return 0
	}
	return c.Text[0]
}

// Append adds o after c, coalescing tag ranges that meet at the seam.
func (c *Chop) Append(o Chop) {
	shift := len(c.Text)
	c.Text = append(c.Text, o.Text...)
	for _, tr := range o.Tags {
		c.addTag(TagRange{Tag: tr.Tag, Start: tr.Start + shift, End: tr.End + shift})
	}
	for off, a := range o.Anchors {
		if c.Anchors == nil {
			c.Anchors = make(map[int]*Anchor)
		}
		c.Anchors[off+shift] = a
	}
}

// Prepend adds o before c.
func (c *Chop) Prepend(o Chop) {
	merged := Chop{
		Text:    append([]rune{}, o.Text...),
		Tags:    append([]TagRange{}, o.Tags...),
		Anchors: maps.Clone(o.Anchors),
	}
	merged.Append(*c)
	*c = merged
}

// RemoveTag drops every range of t from the chop.
func (c *Chop) RemoveTag(t *tag.Tag) {
	kept := c.Tags[:0]
	for _, tr := range c.Tags {
		if tr.Tag != t {
			kept = append(kept, tr)
		}
	}
	c.Tags = kept
}

func (c *Chop) addTag(tr TagRange) {
	for i := range c.Tags {
		if c.Tags[i].Tag == tr.Tag && c.Tags[i].End == tr.Start {
			c.Tags[i].End = tr.End
			return
		}
	}
	c.Tags = append(c.Tags, tr)
}
