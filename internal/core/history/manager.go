package history

import (
	"errors"
	"fmt"

	"github.com/bethropolis/tomboy/internal/buffer"
	"github.com/bethropolis/tomboy/internal/event"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/tag"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Manager records the edits of one buffer on an undo stack and replays them.
//
// Manager observes the buffer synchronously and, like the buffer, belongs to
// a single goroutine.
type Manager struct {
	buf    buffer.Buffer
	table  *tag.Table
	events *event.Manager

	undoStack []Action
	redoStack []Action

	frozen   int
	tryMerge bool
	maxUndo  int

	// OnChange, if set, is called whenever undo or redo availability flips.
	OnChange func(canUndo, canRedo bool)
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxUndo bounds the undo stack; the oldest actions are dropped first.
// Zero means unbounded.
func WithMaxUndo(n int) Option {
	return func(m *Manager) { m.maxUndo = max(n, 0) }
}

// NewManager creates a manager and starts recording edits of buf. events may
// be nil.
func NewManager(buf buffer.Buffer, events *event.Manager, opts ...Option) *Manager {
	m := &Manager{
		buf:    buf,
		table:  buf.TagTable(),
		events: events,
	}
	for _, opt := range opts {
		opt(m)
	}
	buf.AddObserver(m)
	return m
}

// Close stops recording edits.
func (m *Manager) Close() {
	m.buf.RemoveObserver(m)
}

func (m *Manager) CanUndo() bool  { return len(m.undoStack) > 0 }
func (m *Manager) CanRedo() bool  { return len(m.redoStack) > 0 }
func (m *Manager) UndoDepth() int { return len(m.undoStack) }
func (m *Manager) RedoDepth() int { return len(m.redoStack) }

// Frozen reports whether recording is currently suspended.
func (m *Manager) Frozen() bool { return m.frozen > 0 }

// Undo reverts the most recent action and moves it to the redo stack.
func (m *Manager) Undo() error {
	if len(m.undoStack) == 0 {
		logger.Errorf("History: Undo called with an empty undo stack")
		return ErrNothingToUndo
	}
	if err := m.undoRedo(&m.undoStack, &m.redoStack, true); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	return nil
}

// Redo reapplies the most recently undone action.
func (m *Manager) Redo() error {
	if len(m.redoStack) == 0 {
		logger.Errorf("History: Redo called with an empty redo stack")
		return ErrNothingToRedo
	}
	if err := m.undoRedo(&m.redoStack, &m.undoStack, false); err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	return nil
}

func (m *Manager) undoRedo(popFrom, pushTo *[]Action, undo bool) error {
	action := pop(popFrom)

	m.freeze()
	var err error
	if undo {
		err = action.Undo(m.buf)
	} else {
		err = action.Redo(m.buf)
	}
	m.thaw()

	if err != nil {
		*popFrom = append(*popFrom, action)
		logger.Errorf("History: Replay of %v failed: %v", action, err)
		return err
	}

	*pushTo = append(*pushTo, action)
	logger.DebugTagf("history", "Replayed %v (undo=%t). Undo: %d, Redo: %d", action, undo, len(m.undoStack), len(m.redoStack))

	// No merging into an action that has been replayed.
	m.tryMerge = false

	if len(*popFrom) == 0 || len(*pushTo) == 1 {
		m.notifyChanged()
	}
	return nil
}

// FreezeUndo suspends recording. Calls nest; each needs a matching ThawUndo.
//
// Freezing is meant for bulk loads: when the outermost ThawUndo returns the
// count to zero, the history recorded before the load no longer matches the
// buffer and both stacks are cleared.
func (m *Manager) FreezeUndo() {
	m.freeze()
}

// ThawUndo ends one FreezeUndo. An unbalanced call is logged and ignored.
func (m *Manager) ThawUndo() {
	if m.frozen == 0 {
		logger.Warnf("History: ThawUndo without a matching FreezeUndo")
		return
	}
	m.thaw()
	if m.frozen == 0 && (len(m.undoStack) > 0 || len(m.redoStack) > 0) {
		m.ClearUndoHistory()
	}
}

func (m *Manager) freeze() { m.frozen++ }
func (m *Manager) thaw()   { m.frozen-- }

// ClearUndoHistory drops every recorded action.
func (m *Manager) ClearUndoHistory() {
	for _, a := range m.undoStack {
		a.Destroy()
	}
	for _, a := range m.redoStack {
		a.Destroy()
	}
	m.undoStack = nil
	m.redoStack = nil
	m.tryMerge = false
	logger.DebugTagf("history", "Cleared.")
	m.notifyChanged()
}

func (m *Manager) addAction(action Action) {
	if m.tryMerge && len(m.undoStack) > 0 {
		top := m.undoStack[len(m.undoStack)-1]
		if top.CanMerge(action) {
			top.Merge(action)
			return
		}
	}

	hadRedo := len(m.redoStack) > 0
	m.undoStack = append(m.undoStack, action)
	for _, a := range m.redoStack {
		a.Destroy()
	}
	m.redoStack = nil
	m.tryMerge = true

	if m.maxUndo > 0 && len(m.undoStack) > m.maxUndo {
		drop := len(m.undoStack) - m.maxUndo
		for _, a := range m.undoStack[:drop] {
			a.Destroy()
		}
		m.undoStack = append([]Action(nil), m.undoStack[drop:]...)
	}

	logger.DebugTagf("history", "Recorded %v. Undo: %d", action, len(m.undoStack))
	if len(m.undoStack) == 1 || hadRedo {
		m.notifyChanged()
	}
}

func (m *Manager) notifyChanged() {
	canUndo, canRedo := m.CanUndo(), m.CanRedo()
	if m.OnChange != nil {
		m.OnChange(canUndo, canRedo)
	}
	m.events.Dispatch(event.TypeUndoChanged, event.UndoChangedData{CanUndo: canUndo, CanRedo: canRedo})
}

// --- buffer.EditObserver ---

func (m *Manager) OnInsert(offset int, text string) {
	if m.frozen > 0 {
		return
	}
	chop := m.buf.Copy(offset, offset+len([]rune(text)))
	m.addAction(newInsertAction(offset, chop))
}

func (m *Manager) OnDelete(start, end int) {
	if m.frozen > 0 {
		return
	}
	chop := m.buf.Copy(start, end)
	m.addAction(newEraseAction(start, end, m.buf.Cursor(), chop))
}

func (m *Manager) OnTagApplied(t *tag.Tag, start, end int) {
	if m.frozen > 0 || !m.recordsTag(t, start, end) {
		return
	}
	m.addAction(&TagApplyAction{tag: t, start: start, end: end})
}

func (m *Manager) OnTagRemoved(t *tag.Tag, start, end int) {
	if m.frozen > 0 || !m.recordsTag(t, start, end) {
		return
	}
	m.addAction(&TagRemoveAction{tag: t, start: start, end: end})
}

// recordsTag skips single-character tag changes: those come from typing
// and travel inside the insert action.
func (m *Manager) recordsTag(t *tag.Tag, start, end int) bool {
	return m.table.IsUndoable(t) && end-start > 1
}

func pop(stack *[]Action) Action {
	s := *stack
	a := s[len(s)-1]
	*stack = s[:len(s)-1]
	return a
}

var _ buffer.EditObserver = (*Manager)(nil)
