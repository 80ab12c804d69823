package tag

import (
	"errors"
	"fmt"

	"github.com/bethropolis/tomboy/internal/logger"
)

// Well-known tag names.
const (
	Centered      = "centered"
	Bold          = "bold"
	Italic        = "italic"
	Strikethrough = "strikethrough"
	Highlight     = "highlight"
	Monospace     = "monospace"
	FindMatch     = "find-match"
	NoteTitle     = "note-title"
	RelatedTo     = "related-to"
	Datetime      = "datetime"
	SizeHuge      = "size:huge"
	SizeLarge     = "size:large"
	SizeNormal    = "size:normal"
	SizeSmall     = "size:small"
	LinkBroken    = "link:broken"
	LinkInternal  = "link:internal"
	LinkURL       = "link:url"
	List          = "list"
	ListItem      = "list-item"
)

// reserved names are never written to disk, whatever flags they are given.
var reserved = map[string]struct{}{
	FindMatch: {},
	NoteTitle: {},
}

// IsReserved reports whether name is a transient, never-serialized tag name.
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

var (
	ErrDuplicateTag = errors.New("tag already registered")
	ErrEmptyName    = errors.New("tag name must not be empty")
)

type dynamicSpec struct {
	flags    Flags
	saveType SaveType
}

// Table is the tag registry of a note application. Construct one per
// process and pass it to buffers, the codec and the undo manager.
type Table struct {
	tags     map[string]*Tag
	order    []*Tag
	dynamic  map[string]dynamicSpec
	priority int
}

// NewTable creates a registry holding the common note tags.
func NewTable() *Table {
	t := NewEmptyTable()
	t.initCommonTags()
	return t
}

// NewEmptyTable creates a registry with no tags.
func NewEmptyTable() *Table {
	return &Table{
		tags:    make(map[string]*Tag),
		dynamic: make(map[string]dynamicSpec),
	}
}

func (t *Table) initCommonTags() {
	// Font stylings
	for _, name := range []string{Centered, Bold, Italic, Strikethrough, Highlight, Monospace} {
		t.mustAdd(New(name, Formatting, Content))
	}

	t.mustAdd(New(FindMatch, CanSpellCheck|CanSplit, Meta))
	t.mustAdd(New(NoteTitle, CanSplit, Meta))
	t.mustAdd(New(RelatedTo, CanSerialize|CanSplit, Meta))
	t.mustAdd(New(Datetime, CanSerialize|CanGrow|CanSplit, Meta))

	// Font sizes
	for _, name := range []string{SizeHuge, SizeLarge, SizeNormal, SizeSmall} {
		t.mustAdd(New(name, Formatting, Content))
	}

	// Links
	for _, name := range []string{LinkBroken, LinkInternal, LinkURL} {
		t.mustAdd(New(name, CanSerialize|CanActivate|CanSplit, Meta))
	}

	// Bulleted lists. Every element is its own instance, so nesting depth
	// and each item's dir attribute survive a load and save.
	for _, name := range []string{List, ListItem} {
		if err := t.RegisterDynamic(name, CanSerialize|CanSplit, Content); err != nil {
			panic(err)
		}
	}
}

func (t *Table) mustAdd(tag *Tag) {
	if err := t.Add(tag); err != nil {
		panic(err)
	}
}

// Add registers a tag. Reserved names lose CanSerialize here, once.
func (t *Table) Add(tag *Tag) error {
	if tag.name == "" {
		return ErrEmptyName
	}
	if _, exists := t.tags[tag.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTag, tag.name)
	}
	if IsReserved(tag.name) && tag.flags&CanSerialize != 0 {
		logger.WarnTagf("tags", "Tag %q is reserved and will not be serialized", tag.name)
		tag.flags &^= CanSerialize
	}
	t.assignPriority(tag)
	t.tags[tag.name] = tag
	t.order = append(t.order, tag)
	return nil
}

func (t *Table) assignPriority(tag *Tag) {
	tag.priority = t.priority
	t.priority++
}

// Lookup returns the named static tag, or nil.
func (t *Table) Lookup(name string) *Tag {
	return t.tags[name]
}

// Tags returns the static tags in registration order.
func (t *Table) Tags() []*Tag {
	out := make([]*Tag, len(t.order))
	copy(out, t.order)
	return out
}

// RegisterDynamic declares an element name whose instances carry attributes.
func (t *Table) RegisterDynamic(name string, flags Flags, saveType SaveType) error {
	if name == "" {
		return ErrEmptyName
	}
	if IsReserved(name) {
		flags &^= CanSerialize
	}
	t.dynamic[name] = dynamicSpec{flags: flags, saveType: saveType}
	logger.DebugTagf("tags", "Registered dynamic tag %q", name)
	return nil
}

// IsDynamicRegistered reports whether name was registered as dynamic.
func (t *Table) IsDynamicRegistered(name string) bool {
	_, ok := t.dynamic[name]
	return ok
}

// CreateDynamic returns a fresh instance of a registered dynamic tag, or nil.
func (t *Table) CreateDynamic(name string) *Tag {
	spec, ok := t.dynamic[name]
	if !ok {
		return nil
	}
	tag := New(name, spec.flags, spec.saveType)
	tag.dynamic = true
	t.assignPriority(tag)
	return tag
}

// --- Capability predicates (nil-safe) ---

func (t *Table) IsSerializable(tag *Tag) bool {
	return tag != nil && !IsReserved(tag.name) && tag.CanSerialize()
}

func (t *Table) IsUndoable(tag *Tag) bool    { return tag.CanUndo() }
func (t *Table) IsGrowable(tag *Tag) bool    { return tag.CanGrow() }
func (t *Table) IsActivatable(tag *Tag) bool { return tag.CanActivate() }

func (t *Table) IsSpellCheckable(tag *Tag) bool { return tag.CanSpellCheck() }

// IsLink reports whether the tag is one of the link tags.
func (t *Table) IsLink(tag *Tag) bool {
	if tag == nil {
		return false
	}
	switch tag.name {
	case LinkBroken, LinkInternal, LinkURL:
		return true
	}
	return false
}

// IsList reports whether the tag is list structure rather than formatting.
func (t *Table) IsList(tag *Tag) bool {
	return tag != nil && (tag.name == List || tag.name == ListItem)
}

// ChangeType maps a tag to the kind of save its modification requires.
func (t *Table) ChangeType(tag *Tag) ChangeType {
	if tag == nil {
		return OtherDataChanged
	}
	switch tag.saveType {
	case Meta:
		return OtherDataChanged
	case Content:
		return ContentChanged
	default:
		return NoChange
	}
}
