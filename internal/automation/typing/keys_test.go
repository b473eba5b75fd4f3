// internal/automation/typing/keys_test.go
package typing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMap_KeyCode(t *testing.T) {
	keys := DefaultKeyMap()

	tests := []struct {
		char     rune
		expected int
	}{
		{'a', 65},
		{'Z', 90},
		{'1', 49},
		{'!', 49},
		{' ', 32},
		{';', 186},
		{':', 186},
		{'-', 189},
		{'_', 189},
		{'.', 190},
		{'\n', EnterKeyCode},
		{'\r', EnterKeyCode},
		{'é', 233},
		{'É', 201},
		{'ß', 223},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, keys.KeyCode(tt.char), "key code of %q", tt.char)
	}
}

func TestKeyMap_KeyNameAndIdentifier(t *testing.T) {
	keys := DefaultKeyMap()

	assert.Equal(t, "Enter", keys.KeyName('\n'))
	assert.Equal(t, "a", keys.KeyName('a'))

	assert.Equal(t, "Enter", keys.KeyIdentifier("Enter"))
	assert.Equal(t, "U+0041", keys.KeyIdentifier("a"))
	assert.Equal(t, "U+0041", keys.KeyIdentifier("A"))
	assert.Equal(t, "U+0031", keys.KeyIdentifier("1"))
	assert.Equal(t, "", keys.KeyIdentifier(""))
}
