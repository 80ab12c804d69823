// Package history records buffer edits as reversible actions and replays
// them for undo and redo.
package history

import (
	"fmt"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/tag"
)

// Action is one reversible edit.
type Action interface {
	Undo(buf buffer.Buffer) error
	Redo(buf buffer.Buffer) error
	// CanMerge reports whether next, recorded right after this action, can
	// be folded into it.
	CanMerge(next Action) bool
	Merge(next Action)
	Destroy()
}

// InsertAction records inserted text together with the tags it carried.
type InsertAction struct {
	index   int
	isPaste bool
	chop    buffer.Chop
}

func newInsertAction(index int, chop buffer.Chop) *InsertAction {
	return &InsertAction{index: index, isPaste: chop.Len() > 1, chop: chop}
}

func (a *InsertAction) Undo(buf buffer.Buffer) error {
	if err := buf.Delete(a.index, a.index+a.chop.Len()); err != nil {
		return fmt.Errorf("undo insert: %w", err)
	}
	buf.SelectRange(a.index, a.index)
	return nil
}

func (a *InsertAction) Redo(buf buffer.Buffer) error {
	if err := buf.InsertChop(a.index, a.chop); err != nil {
		return fmt.Errorf("redo insert: %w", err)
	}
	buf.SelectRange(a.index+a.chop.Len(), a.index)
	return nil
}

// CanMerge groups typing into words: single characters that follow each
// other, not starting a new line and not starting a new word.
func (a *InsertAction) CanMerge(next Action) bool {
	ins, ok := next.(*InsertAction)
	if !ok {
		return false
	}
	if a.isPaste || ins.isPaste {
		return false
	}
	if ins.index != a.index+a.chop.Len() {
		return false
	}
	if a.chop.First() == '\n' {
		return false
	}
	if c := ins.chop.First(); c == ' ' || c == '\t' {
		return false
	}
	return true
}

func (a *InsertAction) Merge(next Action) {
	ins := next.(*InsertAction)
	a.chop.Append(ins.chop)
	ins.Destroy()
}

func (a *InsertAction) Destroy() {
	a.chop = buffer.Chop{}
}

func (a *InsertAction) String() string {
	return fmt.Sprintf("insert %q at %d", a.chop.String(), a.index)
}

// EraseAction records a deleted range.
type EraseAction struct {
	start     int
	end       int
	isForward bool // deleted with the cursor at the start of the range
	isCut     bool
	chop      buffer.Chop
}

func newEraseAction(start, end, cursor int, chop buffer.Chop) *EraseAction {
	return &EraseAction{
		start:     start,
		end:       end,
		isForward: cursor <= start,
		isCut:     end-start > 1,
		chop:      chop,
	}
}

func (a *EraseAction) Undo(buf buffer.Buffer) error {
	if err := buf.InsertChop(a.start, a.chop); err != nil {
		return fmt.Errorf("undo erase: %w", err)
	}
	if a.isForward {
		buf.SelectRange(a.start, a.end)
	} else {
		buf.SelectRange(a.end, a.start)
	}
	return nil
}

func (a *EraseAction) Redo(buf buffer.Buffer) error {
	if err := buf.Delete(a.start, a.end); err != nil {
		return fmt.Errorf("redo erase: %w", err)
	}
	buf.SelectRange(a.start, a.start)
	return nil
}

// CanMerge groups repeated deletes or backspaces within one word.
func (a *EraseAction) CanMerge(next Action) bool {
	erase, ok := next.(*EraseAction)
	if !ok {
		return false
	}
	if a.isCut || erase.isCut {
		return false
	}
	meet := erase.end
	if a.isForward {
		meet = erase.start
	}
	if a.start != meet {
		return false
	}
	if a.isForward != erase.isForward {
		return false
	}
	// Anchors carry no text and always group.
	if textless(a.chop) || textless(erase.chop) {
		return true
	}
	if a.chop.First() == '\n' {
		return false
	}
	if c := erase.chop.First(); c == ' ' || c == '\t' {
		return false
	}
	return true
}

func (a *EraseAction) Merge(next Action) {
	erase := next.(*EraseAction)
	if a.start == erase.start {
		a.end += erase.end - erase.start
		a.chop.Append(erase.chop)
	} else {
		a.start = erase.start
		a.chop.Prepend(erase.chop)
	}
	erase.Destroy()
}

func (a *EraseAction) Destroy() {
	a.chop = buffer.Chop{}
}

func (a *EraseAction) String() string {
	return fmt.Sprintf("erase %q at [%d,%d)", a.chop.String(), a.start, a.end)
}

func textless(c buffer.Chop) bool {
	for _, r := range c.Text {
		if r != buffer.AnchorChar {
			return false
		}
	}
	return true
}

// TagApplyAction records a tag applied over a range.
type TagApplyAction struct {
	tag   *tag.Tag
	start int
	end   int
}

func (a *TagApplyAction) Undo(buf buffer.Buffer) error {
	if err := buf.RemoveTag(a.tag, a.start, a.end); err != nil {
		return fmt.Errorf("undo apply %s: %w", a.tag, err)
	}
	buf.SelectRange(a.end, a.start)
	return nil
}

func (a *TagApplyAction) Redo(buf buffer.Buffer) error {
	if err := buf.ApplyTag(a.tag, a.start, a.end); err != nil {
		return fmt.Errorf("redo apply %s: %w", a.tag, err)
	}
	buf.SelectRange(a.end, a.start)
	return nil
}

func (a *TagApplyAction) CanMerge(Action) bool { return false }
func (a *TagApplyAction) Merge(Action)         {}
func (a *TagApplyAction) Destroy()             {}

func (a *TagApplyAction) String() string {
	return fmt.Sprintf("apply %s over [%d,%d)", a.tag, a.start, a.end)
}

// TagRemoveAction records a tag removed from a range.
type TagRemoveAction struct {
	tag   *tag.Tag
	start int
	end   int
}

func (a *TagRemoveAction) Undo(buf buffer.Buffer) error {
	if err := buf.ApplyTag(a.tag, a.start, a.end); err != nil {
		return fmt.Errorf("undo remove %s: %w", a.tag, err)
	}
	buf.SelectRange(a.end, a.start)
	return nil
}

func (a *TagRemoveAction) Redo(buf buffer.Buffer) error {
	if err := buf.RemoveTag(a.tag, a.start, a.end); err != nil {
		return fmt.Errorf("redo remove %s: %w", a.tag, err)
	}
	buf.SelectRange(a.end, a.start)
	return nil
}

func (a *TagRemoveAction) CanMerge(Action) bool { return false }
func (a *TagRemoveAction) Merge(Action)         {}
func (a *TagRemoveAction) Destroy()             {}

func (a *TagRemoveAction) String() string {
	return fmt.Sprintf("remove %s from [%d,%d)", a.tag, a.start, a.end)
}
