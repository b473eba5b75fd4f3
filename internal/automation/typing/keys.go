// internal/automation/typing/keys.go
package typing

import (
	"fmt"
	"strings"
	"unicode"
)

// EnterKeyCode is the key code of the Enter key.
const EnterKeyCode = 13

// KeyMap holds the tables used to derive key codes and key identifiers from
// typed characters.
type KeyMap struct {
	// SpecialKeys maps lowercase key names to key codes.
	SpecialKeys map[string]int
	// ShiftMap maps a shifted symbol to the unshifted symbol on the same key.
	ShiftMap map[rune]rune
	// SymbolKeyCodes maps the char code of an unshifted symbol to its key code
	// where the two differ.
	SymbolKeyCodes map[int]int
	// Identifiers maps lowercase key names to legacy keyIdentifier values.
	Identifiers map[string]string
}

// DefaultKeyMap returns the US keyboard tables.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		SpecialKeys: map[string]int{
			"backspace": 8, "capslock": 20, "delete": 46, "down": 40, "end": 35,
			"enter": EnterKeyCode, "esc": 27, "home": 36, "ins": 45, "left": 37,
			"pagedown": 34, "pageup": 33, "right": 39, "space": 32, "tab": 9, "up": 38,
		},
		ShiftMap: map[rune]rune{
			'~': '`', '!': '1', '@': '2', '#': '3', '$': '4', '%': '5', '^': '6',
			'&': '7', '*': '8', '(': '9', ')': '0', '_': '-', '+': '=', '{': '[',
			'}': ']', ':': ';', '"': '\'', '|': '\\', '<': ',', '>': '.', '?': '/',
			'±': '§',
		},
		SymbolKeyCodes: map[int]int{
			'`': 192, '[': 219, ']': 221, '\\': 220, ';': 186, '\'': 222,
			',': 188, '-': 189, '.': 190, '/': 191, '=': 187,
		},
		Identifiers: map[string]string{
			"backspace": "U+0008", "capslock": "CapsLock", "delete": "U+007F",
			"down": "Down", "end": "End", "enter": "Enter", "esc": "U+001B",
			"home": "Home", "ins": "Insert", "left": "Left", "pagedown": "PageDown",
			"pageup": "PageUp", "right": "Right", "space": "U+0020", "tab": "U+0009",
			"up": "Up",
		},
	}
}

// KeyCode returns the key code a keyboard reports for ch. Newlines are typed
// with the Enter key.
func (m *KeyMap) KeyCode(ch rune) int {
	if ch == '\n' || ch == '\r' {
		return m.SpecialKeys["enter"]
	}
	if isLetterKey(ch) {
		return int(unicode.ToUpper(ch))
	}
	code := int(ch)
	if base, ok := m.ShiftMap[ch]; ok {
		code = int(base)
	}
	if keyCode, ok := m.SymbolKeyCodes[code]; ok {
		return keyCode
	}
	return code
}

// isLetterKey reports whether ch sits on a letter key of a US layout.
func isLetterKey(ch rune) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

// KeyName returns the key value reported for ch.
func (m *KeyMap) KeyName(ch rune) string {
	if m.KeyCode(ch) == m.SpecialKeys["enter"] {
		return "Enter"
	}
	return string(ch)
}

// KeyIdentifier returns the legacy keyIdentifier for a key value: named keys
// use the identifier table, single characters their "U+XXXX" code point.
func (m *KeyMap) KeyIdentifier(key string) string {
	if id, ok := m.Identifiers[strings.ToLower(key)]; ok && len([]rune(key)) > 1 {
		return id
	}
	runes := []rune(key)
	if len(runes) != 1 {
		return ""
	}
	return fmt.Sprintf("U+%04X", unicode.ToUpper(runes[0]))
}
