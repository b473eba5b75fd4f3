// internal/automation/typing/interface.go
package typing

import (
	"context"
	"time"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/commands"
)

// Element is an opaque handle to a page element issued by an Executor.
type Element int64

// NoElement is the zero handle; ActiveElement returns it when nothing has
// focus.
const NoElement Element = 0

// ElementState describes the editing capabilities of an element at the
// moment it was inspected.
type ElementState struct {
	// Editable covers inputs, textareas and content-editable elements.
	Editable bool
	// TextEditable is true for text inputs and textareas that accept edits
	// (not disabled, not read-only).
	TextEditable    bool
	ContentEditable bool
	NumberInput     bool
	ValueLength     int
}

// Inspector reads element state.
type Inspector interface {
	Inspect(ctx context.Context, el Element) (ElementState, error)
	// Descendants lists the element's descendants in document order.
	Descendants(ctx context.Context, el Element) ([]Element, error)
	// ContentEditableParent returns the editing host of a content-editable
	// element.
	ContentEditableParent(ctx context.Context, el Element) (Element, error)
}

// Focuser acquires focus the way a user does, by clicking.
type Focuser interface {
	ActiveElement(ctx context.Context) (Element, error)
	// DefaultOffsets returns the point inside el that automations aim at when
	// the caller gave no offsets.
	DefaultOffsets(ctx context.Context, el Element) (x, y int, err error)
	Click(ctx context.Context, el Element, opts commands.ClickOptions) error
}

// Selection manipulates the text selection of an editable element.
type Selection interface {
	SelectionStart(ctx context.Context, el Element) (int, error)
	Select(ctx context.Context, el Element, start, end int) error
	SelectAll(ctx context.Context, el Element) error
	DeleteSelectionContents(ctx context.Context, el Element) error
}

// EditWatcher tracks value changes so that a change event fires on blur.
type EditWatcher interface {
	WatchEditing(ctx context.Context, el Element) error
	// RestartEditingWatch resets the watched value so that an edit whose key
	// events were cancelled does not produce a change event.
	RestartEditingWatch(ctx context.Context, el Element) error
}

// Keyboard dispatches synthetic key events and mutates values.
type Keyboard interface {
	// DispatchKeyEvent fires the event at el and reports whether the default
	// action should proceed (false when a handler prevented it).
	DispatchKeyEvent(ctx context.Context, el Element, data schemas.KeyEventData) (bool, error)
	// TypeChar inserts text at the caret of el, firing input events.
	TypeChar(ctx context.Context, el Element, text string) error
}

// Executor is the page capability the typing automation drives.
type Executor interface {
	Inspector
	Focuser
	Selection
	EditWatcher
	Keyboard
	Sleep(ctx context.Context, d time.Duration) error
}
