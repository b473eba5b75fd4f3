package schemas

import (
	"github.com/google/uuid"
)

// -- Page Element Schemas --

// NodeSnapshot is a serializable picture of a page element, returned from
// selectors and client functions in place of a live handle.
type NodeSnapshot struct {
	// Ref identifies the snapshot across the call boundary.
	Ref         string            `json:"ref"`
	NodeType    int               `json:"nodeType"`
	TagName     string            `json:"tagName,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	TextContent string            `json:"textContent"`
	Value       string            `json:"value,omitempty"`
	Focused     bool              `json:"focused"`
}

// NewNodeSnapshot returns an element snapshot with a fresh reference.
func NewNodeSnapshot(tagName string) *NodeSnapshot {
	return &NodeSnapshot{
		Ref:      uuid.NewString(),
		NodeType: 1,
		TagName:  tagName,
	}
}

// MouseEventType defines the type of a mouse event.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
)

// MouseButton defines the mouse button being pressed.
type MouseButton string

const (
	ButtonNone  MouseButton = "none"
	ButtonLeft  MouseButton = "left"
	ButtonRight MouseButton = "right"
)

// MouseEventData encapsulates all data for a mouse event.
type MouseEventData struct {
	Type       MouseEventType `json:"type"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Button     MouseButton    `json:"button"`
	ClickCount int            `json:"clickCount"`
	Modifiers  KeyModifier    `json:"modifiers"`
}

// ClickSequence expands a click at (x, y) into the move, press and release
// events a real pointer would produce. clickCount > 1 repeats press and
// release with an increasing count.
func ClickSequence(x, y float64, button MouseButton, clickCount int, mods KeyModifier) []MouseEventData {
	events := []MouseEventData{{Type: MouseMove, X: x, Y: y, Button: ButtonNone, Modifiers: mods}}
	for i := 1; i <= clickCount; i++ {
		events = append(events,
			MouseEventData{Type: MousePress, X: x, Y: y, Button: button, ClickCount: i, Modifiers: mods},
			MouseEventData{Type: MouseRelease, X: x, Y: y, Button: button, ClickCount: i, Modifiers: mods},
		)
	}
	return events
}
