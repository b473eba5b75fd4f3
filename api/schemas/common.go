package schemas

// -- Input Schemas --

// KeyEventType is the DOM event name of a synthetic keyboard event.
type KeyEventType string

const (
	KeyDown  KeyEventType = "keydown"
	KeyPress KeyEventType = "keypress"
	KeyUp    KeyEventType = "keyup"
)

// KeyEventData carries the arguments of one synthetic keyboard event.
type KeyEventData struct {
	Type    KeyEventType `json:"type"`
	KeyCode int          `json:"keyCode"`
	// CharCode is only set on keypress events.
	CharCode int `json:"charCode,omitempty"`
	// Exactly one of Key and KeyIdentifier is used, depending on which
	// property the page's event model expects.
	Key           string      `json:"key,omitempty"`
	KeyIdentifier string      `json:"keyIdentifier,omitempty"`
	Modifiers     KeyModifier `json:"modifiers"`
}

// KeyModifier represents keyboard modifiers (Ctrl, Alt, Shift, Meta).
// These values correspond directly to the CDP input.DispatchKeyEvent modifiers bitfield.
type KeyModifier int

const (
	ModNone  KeyModifier = 0
	ModAlt   KeyModifier = 1 // Corresponds to CDP modifier 1
	ModCtrl  KeyModifier = 2 // Corresponds to CDP modifier 2
	ModMeta  KeyModifier = 4 // Corresponds to CDP modifier 4
	ModShift KeyModifier = 8 // Corresponds to CDP modifier 8
)

// Has reports whether every bit of m2 is set.
func (m KeyModifier) Has(m2 KeyModifier) bool {
	return m&m2 == m2
}

// ModifiersFrom builds the bitmask from individual flags.
func ModifiersFrom(ctrl, alt, shift, meta bool) KeyModifier {
	m := ModNone
	if ctrl {
		m |= ModCtrl
	}
	if alt {
		m |= ModAlt
	}
	if shift {
		m |= ModShift
	}
	if meta {
		m |= ModMeta
	}
	return m
}
