// internal/commands/options_test.go
package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/brewer/internal/runerr"
)

func TestNewOffsetOptions(t *testing.T) {
	opts, err := NewOffsetOptions(map[string]interface{}{"offsetX": 3, "dummy": true})
	require.NoError(t, err)
	require.NotNil(t, opts.OffsetX)
	assert.Equal(t, 3, *opts.OffsetX)
	assert.Nil(t, opts.OffsetY)

	_, err = NewOffsetOptions(map[string]interface{}{"offsetY": 1.5})
	typed, ok := runerr.As(err)
	require.True(t, ok)
	assert.Equal(t, runerr.KindIntegerOption, typed.Type)
	assert.Equal(t, "offsetY", typed.OptionName)
}

func TestNewMoveOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := NewMoveOptions(nil)
		require.NoError(t, err)
		assert.Nil(t, opts.Speed)
		assert.Nil(t, opts.MinMovingTime)
		assert.Equal(t, false, opts.DragMode)
		assert.False(t, opts.SkipScrolling)
	})

	t.Run("movement fields pass through", func(t *testing.T) {
		opts, err := NewMoveOptions(map[string]interface{}{
			"speed":         "fast",
			"minMovingTime": 20.5,
			"dragMode":      "yes",
			"skipScrolling": true,
			"modifiers":     map[string]interface{}{"alt": true},
		})
		require.NoError(t, err)
		assert.Equal(t, "fast", opts.Speed)
		assert.Equal(t, 20.5, opts.MinMovingTime)
		assert.Equal(t, "yes", opts.DragMode)
		assert.True(t, opts.SkipScrolling)
		assert.True(t, opts.Modifiers.Alt)
	})

	t.Run("skipScrolling must be a boolean", func(t *testing.T) {
		_, err := NewMoveOptions(map[string]interface{}{"skipScrolling": 1})
		typed, ok := runerr.As(err)
		require.True(t, ok)
		assert.Equal(t, runerr.KindBooleanOption, typed.Type)
		assert.Equal(t, "skipScrolling", typed.OptionName)
		assert.Equal(t, "number", typed.ActualValue)
	})

	t.Run("modifiers are validated first", func(t *testing.T) {
		_, err := NewMoveOptions(map[string]interface{}{
			"skipScrolling": "no",
			"modifiers":     map[string]interface{}{"ctrl": "no"},
		})
		typed, ok := runerr.As(err)
		require.True(t, ok)
		assert.Equal(t, "modifiers.ctrl", typed.OptionName)
	})
}

func TestMoveOptionsFor(t *testing.T) {
	mouse, err := NewMouseOptions(map[string]interface{}{"offsetX": 4, "modifiers": map[string]interface{}{"shift": true}})
	require.NoError(t, err)

	opts := MoveOptionsFor(mouse)
	assert.Equal(t, mouse, opts.MouseOptions)

	defaults, err := NewMoveOptions(nil)
	require.NoError(t, err)
	defaults.MouseOptions = mouse
	assert.Equal(t, defaults, opts)
}

func TestNewTypeOptions_RejectsUnsafeIntegers(t *testing.T) {
	_, err := NewTypeOptions(map[string]interface{}{"caretPos": 1e20})
	typed, ok := runerr.As(err)
	require.True(t, ok)
	assert.Equal(t, runerr.KindPositiveIntegerOption, typed.Type)
	assert.Equal(t, "caretPos", typed.OptionName)
	assert.Equal(t, 1e20, typed.ActualValue)
}
