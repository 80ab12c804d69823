// Package tag defines note format tags and the registry that owns them.
package tag

import (
	"slices"
	"strings"
)

// Flags is the fixed capability set of a tag.
type Flags uint8

const (
	CanSerialize Flags = 1 << iota // persisted to disk
	CanUndo                        // tracked by the undo log
	CanGrow                        // extends over text typed next to it
	CanSpellCheck
	CanActivate // has click behavior (links)
	CanSplit    // may be split by an insertion in its middle
)

// Formatting is the flag set shared by the user-facing style tags.
const Formatting = CanSerialize | CanUndo | CanGrow | CanSpellCheck | CanSplit

// SaveType says how a note must be saved when a tag changes.
type SaveType int

const (
	NoSave SaveType = iota
	Meta
	Content
)

// ChangeType classifies a modification for the note saver.
type ChangeType int

const (
	NoChange ChangeType = iota
	ContentChanged
	OtherDataChanged
)

// Attr is one attribute of a dynamic tag, kept in read order.
type Attr struct {
	Name  string
	Value string
}

// Tag is a named format descriptor. Its flags are fixed once the tag is
// registered with a Table.
type Tag struct {
	name     string
	flags    Flags
	saveType SaveType
	dynamic  bool
	priority int
	attrs    []Attr
}

// New creates a tag with the given element name, flags and save type.
func New(name string, flags Flags, saveType SaveType) *Tag {
	return &Tag{name: name, flags: flags, saveType: saveType, priority: -1}
}

// Name returns the element name used in markup.
func (t *Tag) Name() string { return t.name }

// Flags returns the capability set.
func (t *Tag) Flags() Flags { return t.flags }

// Has reports whether every flag in f is set.
func (t *Tag) Has(f Flags) bool { return t != nil && t.flags&f == f }

func (t *Tag) CanSerialize() bool  { return t.Has(CanSerialize) }
func (t *Tag) CanUndo() bool       { return t.Has(CanUndo) }
func (t *Tag) CanGrow() bool       { return t.Has(CanGrow) }
func (t *Tag) CanSpellCheck() bool { return t.Has(CanSpellCheck) }
func (t *Tag) CanActivate() bool   { return t.Has(CanActivate) }
func (t *Tag) CanSplit() bool      { return t.Has(CanSplit) }

// SaveType returns how changes to this tag are saved.
func (t *Tag) SaveType() SaveType { return t.saveType }

// IsDynamic reports whether the tag carries markup attributes.
func (t *Tag) IsDynamic() bool { return t.dynamic }

// Priority orders tags at the same position; higher was registered later.
func (t *Tag) Priority() int { return t.priority }

// Attributes returns a copy of the dynamic attributes in read order.
func (t *Tag) Attributes() []Attr {
	return slices.Clone(t.attrs)
}

// Attribute returns the value of a dynamic attribute.
func (t *Tag) Attribute(name string) (string, bool) {
	for _, a := range t.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttribute sets or replaces a dynamic attribute. No-op on static tags.
func (t *Tag) SetAttribute(name, value string) {
	if !t.dynamic {
		return
	}
	for i := range t.attrs {
		if t.attrs[i].Name == name {
			t.attrs[i].Value = value
			return
		}
	}
	t.attrs = append(t.attrs, Attr{Name: name, Value: value})
}

func (t *Tag) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

// ByPriority sorts tags in ascending priority, the order they open in markup.
func ByPriority(tags []*Tag) {
	slices.SortStableFunc(tags, func(a, b *Tag) int {
		if a.priority != b.priority {
			return a.priority - b.priority
		}
		return strings.Compare(a.name, b.name)
	})
}
