// internal/commands/options.go
package commands

import (
	"github.com/xkilldash9x/brewer/api/schemas"
	v "github.com/xkilldash9x/brewer/internal/validation"
)

// OffsetOptions positions the pointer relative to the target's top-left
// corner. Nil offsets mean "use the element's default point".
type OffsetOptions struct {
	OffsetX *int `json:"offsetX"`
	OffsetY *int `json:"offsetY"`
}

type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Alt   bool `json:"alt"`
	Shift bool `json:"shift"`
	Meta  bool `json:"meta"`
}

// Mask converts the flags to the bitmask used by the input layer.
func (m Modifiers) Mask() schemas.KeyModifier {
	return schemas.ModifiersFrom(m.Ctrl, m.Alt, m.Shift, m.Meta)
}

type MouseOptions struct {
	OffsetOptions
	Modifiers Modifiers `json:"modifiers"`
}

type ClickOptions struct {
	MouseOptions
	CaretPos *int `json:"caretPos"`
}

// MoveOptions tune pointer movement. Speed, MinMovingTime and DragMode are
// passed through unvalidated. SkipScrolling leaves the target where it is
// instead of scrolling it into view.
type MoveOptions struct {
	MouseOptions
	Speed         interface{} `json:"speed"`
	MinMovingTime interface{} `json:"minMovingTime"`
	DragMode      interface{} `json:"dragMode"`
	SkipScrolling bool        `json:"skipScrolling"`
}

type TypeOptions struct {
	ClickOptions
	Replace bool `json:"replace"`
	Paste   bool `json:"paste"`
}

type ResizeToFitDeviceOptions struct {
	PortraitOrientation bool `json:"portraitOrientation"`
}

// -- Field lists --
//
// Each layer is its parent's list followed by its own fields.

func offsetFields() []v.Field[OffsetOptions] {
	return []v.Field[OffsetOptions]{
		{Path: "offsetX", Check: v.IntegerOption, Set: func(o *OffsetOptions, val interface{}) error {
			o.OffsetX = v.IntPtr(val)
			return nil
		}},
		{Path: "offsetY", Check: v.IntegerOption, Set: func(o *OffsetOptions, val interface{}) error {
			o.OffsetY = v.IntPtr(val)
			return nil
		}},
	}
}

func mouseFields() []v.Field[MouseOptions] {
	fields := v.Prefix(offsetFields(), func(o *MouseOptions) *OffsetOptions { return &o.OffsetOptions })
	return append(fields,
		v.Field[MouseOptions]{Path: "modifiers.ctrl", Check: v.BooleanOption, Set: func(o *MouseOptions, val interface{}) error {
			o.Modifiers.Ctrl = v.Bool(val)
			return nil
		}},
		v.Field[MouseOptions]{Path: "modifiers.alt", Check: v.BooleanOption, Set: func(o *MouseOptions, val interface{}) error {
			o.Modifiers.Alt = v.Bool(val)
			return nil
		}},
		v.Field[MouseOptions]{Path: "modifiers.shift", Check: v.BooleanOption, Set: func(o *MouseOptions, val interface{}) error {
			o.Modifiers.Shift = v.Bool(val)
			return nil
		}},
		v.Field[MouseOptions]{Path: "modifiers.meta", Check: v.BooleanOption, Set: func(o *MouseOptions, val interface{}) error {
			o.Modifiers.Meta = v.Bool(val)
			return nil
		}},
	)
}

func clickFields() []v.Field[ClickOptions] {
	fields := v.Prefix(mouseFields(), func(o *ClickOptions) *MouseOptions { return &o.MouseOptions })
	return append(fields, v.Field[ClickOptions]{Path: "caretPos", Check: v.PositiveIntegerOption, Set: func(o *ClickOptions, val interface{}) error {
		o.CaretPos = v.IntPtr(val)
		return nil
	}})
}

func moveFields() []v.Field[MoveOptions] {
	fields := v.Prefix(mouseFields(), func(o *MoveOptions) *MouseOptions { return &o.MouseOptions })
	return append(fields,
		v.Field[MoveOptions]{Path: "speed", Set: func(o *MoveOptions, val interface{}) error {
			o.Speed = val
			return nil
		}},
		v.Field[MoveOptions]{Path: "minMovingTime", Set: func(o *MoveOptions, val interface{}) error {
			o.MinMovingTime = val
			return nil
		}},
		v.Field[MoveOptions]{Path: "dragMode", Set: func(o *MoveOptions, val interface{}) error {
			o.DragMode = val
			return nil
		}},
		v.Field[MoveOptions]{Path: "skipScrolling", Check: v.BooleanOption, Set: func(o *MoveOptions, val interface{}) error {
			o.SkipScrolling = v.Bool(val)
			return nil
		}},
	)
}

func typeFields() []v.Field[TypeOptions] {
	fields := v.Prefix(clickFields(), func(o *TypeOptions) *ClickOptions { return &o.ClickOptions })
	return append(fields,
		v.Field[TypeOptions]{Path: "replace", Check: v.BooleanOption, Set: func(o *TypeOptions, val interface{}) error {
			o.Replace = v.Bool(val)
			return nil
		}},
		v.Field[TypeOptions]{Path: "paste", Check: v.BooleanOption, Set: func(o *TypeOptions, val interface{}) error {
			o.Paste = v.Bool(val)
			return nil
		}},
	)
}

func resizeToFitDeviceFields() []v.Field[ResizeToFitDeviceOptions] {
	return []v.Field[ResizeToFitDeviceOptions]{
		{Path: "portraitOrientation", Check: v.BooleanOption, Set: func(o *ResizeToFitDeviceOptions, val interface{}) error {
			o.PortraitOrientation = v.Bool(val)
			return nil
		}},
	}
}

// buildOptions starts from the defaults and assigns raw. Anything that is not
// a plain object (absent, null, an array) yields the defaults.
func buildOptions[T any](raw interface{}, defaults T, fields []v.Field[T]) (T, error) {
	opts := defaults
	if obj, ok := v.Object(raw); ok {
		if err := v.Assign(&opts, obj, fields); err != nil {
			return defaults, err
		}
	}
	return opts, nil
}

func NewOffsetOptions(raw interface{}) (OffsetOptions, error) {
	return buildOptions(raw, OffsetOptions{}, offsetFields())
}

func NewMouseOptions(raw interface{}) (MouseOptions, error) {
	return buildOptions(raw, MouseOptions{}, mouseFields())
}

func NewClickOptions(raw interface{}) (ClickOptions, error) {
	return buildOptions(raw, ClickOptions{}, clickFields())
}

func defaultMoveOptions() MoveOptions {
	return MoveOptions{DragMode: false}
}

func NewMoveOptions(raw interface{}) (MoveOptions, error) {
	return buildOptions(raw, defaultMoveOptions(), moveFields())
}

// MoveOptionsFor returns the movement that brings the pointer to the target
// of a mouse action. Movement fields keep their defaults.
func MoveOptionsFor(mouse MouseOptions) MoveOptions {
	opts := defaultMoveOptions()
	opts.MouseOptions = mouse
	return opts
}

func NewTypeOptions(raw interface{}) (TypeOptions, error) {
	return buildOptions(raw, TypeOptions{}, typeFields())
}

func NewResizeToFitDeviceOptions(raw interface{}) (ResizeToFitDeviceOptions, error) {
	return buildOptions(raw, ResizeToFitDeviceOptions{}, resizeToFitDeviceFields())
}
