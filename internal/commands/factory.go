// internal/commands/factory.go
package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/devices"
	"github.com/xkilldash9x/brewer/internal/runerr"
	v "github.com/xkilldash9x/brewer/internal/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnknownCommandType is returned for records whose type has no command.
var ErrUnknownCommandType = errors.New("unknown command type")

// DefaultAllowedProtocols are the URL schemes navigation accepts.
var DefaultAllowedProtocols = []string{"http", "https"}

var protocolRe = regexp.MustCompile(`^([\w-]+?)://`)

var (
	visibleTarget = SelectorOptions{VisibilityCheck: true}
	// File inputs are usually hidden behind styled buttons.
	uploadTarget = SelectorOptions{VisibilityCheck: false}
)

// Factory builds commands from raw decoded records. Construction either
// returns a complete command or the first validation error.
type Factory struct {
	resolver  SelectorResolver
	devices   *devices.Catalog
	protocols map[string]struct{}
	logger    *zap.Logger
}

// NewFactory creates a factory. Nil collaborators fall back to the default
// resolver, the builtin device catalog and http/https.
func NewFactory(resolver SelectorResolver, catalog *devices.Catalog, allowedProtocols []string, logger *zap.Logger) *Factory {
	if resolver == nil {
		resolver = DefaultResolver{}
	}
	if catalog == nil {
		catalog = devices.Default()
	}
	if len(allowedProtocols) == 0 {
		allowedProtocols = DefaultAllowedProtocols
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	protocols := make(map[string]struct{}, len(allowedProtocols))
	for _, p := range allowedProtocols {
		protocols[strings.ToLower(p)] = struct{}{}
	}
	return &Factory{
		resolver:  resolver,
		devices:   catalog,
		protocols: protocols,
		logger:    logger.Named("commands"),
	}
}

// FromJSON decodes a single command record.
func (f *Factory) FromJSON(data []byte) (Command, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode command record: %w", err)
	}
	return f.FromObject(raw)
}

// FromJSONList decodes a JSON array of command records. It stops at the
// first invalid record and reports its index.
func (f *Factory) FromJSONList(data []byte) ([]Command, error) {
	var raws []map[string]interface{}
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode command list: %w", err)
	}
	cmds := make([]Command, 0, len(raws))
	for i, raw := range raws {
		cmd, err := f.FromObject(raw)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// FromObject builds the command named by raw["type"].
func (f *Factory) FromObject(raw map[string]interface{}) (Command, error) {
	typ, _ := raw["type"].(string)
	cmdType := schemas.CommandType(typ)

	var (
		cmd Command
		err error
	)
	switch cmdType {
	case schemas.CommandClick, schemas.CommandRightClick, schemas.CommandDoubleClick:
		cmd, err = build(raw, &ClickCommand{Type: cmdType}, []v.Field[ClickCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *ClickCommand, s *ResolvedSelector) { c.Selector = s }),
			optionsField(func(c *ClickCommand, val interface{}) (err error) { c.Options, err = NewClickOptions(val); return }),
		})
	case schemas.CommandHover:
		cmd, err = build(raw, &HoverCommand{Type: cmdType}, []v.Field[HoverCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *HoverCommand, s *ResolvedSelector) { c.Selector = s }),
			optionsField(func(c *HoverCommand, val interface{}) (err error) { c.Options, err = NewMouseOptions(val); return }),
		})
	case schemas.CommandDrag:
		cmd, err = build(raw, &DragCommand{Type: cmdType}, []v.Field[DragCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *DragCommand, s *ResolvedSelector) { c.Selector = s }),
			requiredField("dragOffsetX", v.IntegerArgument, func(c *DragCommand, val interface{}) { c.DragOffsetX = v.Int(val) }),
			requiredField("dragOffsetY", v.IntegerArgument, func(c *DragCommand, val interface{}) { c.DragOffsetY = v.Int(val) }),
			optionsField(func(c *DragCommand, val interface{}) (err error) { c.Options, err = NewMouseOptions(val); return }),
		})
	case schemas.CommandDragToElement:
		cmd, err = build(raw, &DragToElementCommand{Type: cmdType}, []v.Field[DragToElementCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *DragToElementCommand, s *ResolvedSelector) { c.Selector = s }),
			selectorField(f.resolver, "destinationSelector", true, visibleTarget, func(c *DragToElementCommand, s *ResolvedSelector) { c.DestinationSelector = s }),
			optionsField(func(c *DragToElementCommand, val interface{}) (err error) { c.Options, err = NewMouseOptions(val); return }),
		})
	case schemas.CommandTypeText:
		cmd, err = build(raw, &TypeTextCommand{Type: cmdType}, []v.Field[TypeTextCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *TypeTextCommand, s *ResolvedSelector) { c.Selector = s }),
			requiredField("text", v.NonEmptyStringArgument, func(c *TypeTextCommand, val interface{}) { c.Text = val.(string) }),
			optionsField(func(c *TypeTextCommand, val interface{}) (err error) { c.Options, err = NewTypeOptions(val); return }),
		})
	case schemas.CommandSelectText:
		cmd, err = build(raw, &SelectTextCommand{Type: cmdType}, []v.Field[SelectTextCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *SelectTextCommand, s *ResolvedSelector) { c.Selector = s }),
			optionalField("startPos", v.PositiveIntegerArgument, func(c *SelectTextCommand, val interface{}) { c.StartPos = v.IntPtr(val) }),
			optionalField("endPos", v.PositiveIntegerArgument, func(c *SelectTextCommand, val interface{}) { c.EndPos = v.IntPtr(val) }),
		})
	case schemas.CommandSelectTextAreaContent:
		cmd, err = build(raw, &SelectTextAreaContentCommand{Type: cmdType}, []v.Field[SelectTextAreaContentCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *SelectTextAreaContentCommand, s *ResolvedSelector) { c.Selector = s }),
			optionalField("startLine", v.PositiveIntegerArgument, func(c *SelectTextAreaContentCommand, val interface{}) { c.StartLine = v.IntPtr(val) }),
			optionalField("startPos", v.PositiveIntegerArgument, func(c *SelectTextAreaContentCommand, val interface{}) { c.StartPos = v.IntPtr(val) }),
			optionalField("endLine", v.PositiveIntegerArgument, func(c *SelectTextAreaContentCommand, val interface{}) { c.EndLine = v.IntPtr(val) }),
			optionalField("endPos", v.PositiveIntegerArgument, func(c *SelectTextAreaContentCommand, val interface{}) { c.EndPos = v.IntPtr(val) }),
		})
	case schemas.CommandSelectEditableContent:
		cmd, err = build(raw, &SelectEditableContentCommand{Type: cmdType}, []v.Field[SelectEditableContentCommand]{
			selectorField(f.resolver, "startSelector", true, visibleTarget, func(c *SelectEditableContentCommand, s *ResolvedSelector) { c.StartSelector = s }),
			selectorField(f.resolver, "endSelector", false, visibleTarget, func(c *SelectEditableContentCommand, s *ResolvedSelector) { c.EndSelector = s }),
		})
	case schemas.CommandPressKey:
		cmd, err = build(raw, &PressKeyCommand{Type: cmdType}, []v.Field[PressKeyCommand]{
			requiredField("keys", v.NonEmptyStringArgument, func(c *PressKeyCommand, val interface{}) { c.Keys = val.(string) }),
		})
	case schemas.CommandWait:
		cmd, err = build(raw, &WaitCommand{Type: cmdType}, []v.Field[WaitCommand]{
			requiredField("timeout", v.PositiveIntegerArgument, func(c *WaitCommand, val interface{}) { c.Timeout = v.Int(val) }),
		})
	case schemas.CommandNavigateTo:
		cmd, err = build(raw, &NavigateToCommand{Type: cmdType}, []v.Field[NavigateToCommand]{
			requiredField("url", f.urlArgument, func(c *NavigateToCommand, val interface{}) { c.URL = val.(string) }),
		})
	case schemas.CommandSetFilesToUpload:
		cmd, err = build(raw, &SetFilesToUploadCommand{Type: cmdType}, []v.Field[SetFilesToUploadCommand]{
			selectorField(f.resolver, "selector", true, uploadTarget, func(c *SetFilesToUploadCommand, s *ResolvedSelector) { c.Selector = s }),
			requiredField("filePath", v.StringOrStringArrayArgument, func(c *SetFilesToUploadCommand, val interface{}) { c.FilePath = val }),
		})
	case schemas.CommandClearUpload:
		cmd, err = build(raw, &ClearUploadCommand{Type: cmdType}, []v.Field[ClearUploadCommand]{
			selectorField(f.resolver, "selector", true, uploadTarget, func(c *ClearUploadCommand, s *ResolvedSelector) { c.Selector = s }),
		})
	case schemas.CommandTakeScreenshot:
		cmd, err = build(raw, &TakeScreenshotCommand{Type: cmdType}, []v.Field[TakeScreenshotCommand]{
			optionalField("path", v.NonEmptyStringArgument, func(c *TakeScreenshotCommand, val interface{}) { c.Path = val.(string) }),
		})
	case schemas.CommandResizeWindow:
		cmd, err = build(raw, &ResizeWindowCommand{Type: cmdType}, []v.Field[ResizeWindowCommand]{
			requiredField("width", v.PositiveIntegerArgument, func(c *ResizeWindowCommand, val interface{}) { c.Width = v.Int(val) }),
			requiredField("height", v.PositiveIntegerArgument, func(c *ResizeWindowCommand, val interface{}) { c.Height = v.Int(val) }),
		})
	case schemas.CommandResizeWindowToFitDevice:
		cmd, err = build(raw, &ResizeWindowToFitDeviceCommand{Type: cmdType}, []v.Field[ResizeWindowToFitDeviceCommand]{
			requiredField("device", f.deviceArgument, func(c *ResizeWindowToFitDeviceCommand, val interface{}) { c.Device = val.(string) }),
			optionsField(func(c *ResizeWindowToFitDeviceCommand, val interface{}) (err error) {
				c.Options, err = NewResizeToFitDeviceOptions(val)
				return
			}),
		})
	case schemas.CommandSwitchToIframe:
		cmd, err = build(raw, &SwitchToIframeCommand{Type: cmdType}, []v.Field[SwitchToIframeCommand]{
			selectorField(f.resolver, "selector", true, visibleTarget, func(c *SwitchToIframeCommand, s *ResolvedSelector) { c.Selector = s }),
		})
	case schemas.CommandSwitchToMainWindow:
		cmd = &SwitchToMainWindowCommand{Type: cmdType}
	case schemas.CommandExecuteClientFunction:
		cmd, err = build(raw, &ExecuteClientFunctionCommand{Type: cmdType, Args: []interface{}{}, ScopeVars: map[string]interface{}{}}, clientFunctionFields())
	case schemas.CommandExecuteSelector:
		cmd, err = f.resolver.Resolve("selector", raw, SelectorOptions{VisibilityCheck: visibilityFlag(raw)})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommandType, typ)
	}

	if err != nil {
		f.logger.Debug("Command construction failed.", zap.String("type", typ), zap.Error(err))
		return nil, err
	}
	return cmd, nil
}

func build[T any](raw map[string]interface{}, cmd *T, fields []v.Field[T]) (*T, error) {
	if err := v.Assign(cmd, raw, fields); err != nil {
		return nil, err
	}
	return cmd, nil
}

func requiredField[T any](name string, check v.Validator, set func(*T, interface{})) v.Field[T] {
	return v.Field[T]{Path: name, Check: check, Required: true, Set: func(c *T, val interface{}) error {
		set(c, val)
		return nil
	}}
}

func optionalField[T any](name string, check v.Validator, set func(*T, interface{})) v.Field[T] {
	f := requiredField(name, check, set)
	f.Required = false
	return f
}

// optionsField is required so that the defaults are always materialized.
func optionsField[T any](set func(*T, interface{}) error) v.Field[T] {
	return v.Field[T]{Path: "options", Check: v.ActionOptions, Required: true, Set: set}
}

func selectorField[T any](resolver SelectorResolver, name string, required bool, opts SelectorOptions, set func(*T, *ResolvedSelector)) v.Field[T] {
	return v.Field[T]{Path: name, Required: required, Set: func(c *T, val interface{}) error {
		sel, err := resolver.Resolve(name, val, opts)
		if err != nil {
			if runerr.IsTyped(err) {
				return err
			}
			return selectorError(name, err.Error())
		}
		set(c, sel)
		return nil
	}}
}

func (f *Factory) urlArgument(name string, val interface{}) error {
	if err := v.NonEmptyStringArgument(name, val); err != nil {
		return err
	}
	url := strings.TrimSpace(val.(string))
	m := protocolRe.FindStringSubmatch(url)
	if m == nil {
		return nil
	}
	if _, ok := f.protocols[strings.ToLower(m[1])]; !ok {
		return runerr.NewUnsupportedURLProtocolError(name, m[1])
	}
	return nil
}

func (f *Factory) deviceArgument(name string, val interface{}) error {
	if err := v.NonEmptyStringArgument(name, val); err != nil {
		return err
	}
	if !f.devices.Contains(val.(string)) {
		return runerr.NewUnsupportedDeviceTypeError(name, val)
	}
	return nil
}

func clientFunctionFields() []v.Field[ExecuteClientFunctionCommand] {
	return []v.Field[ExecuteClientFunctionCommand]{
		requiredField("instantiationCallsiteName", v.NonEmptyStringArgument, func(c *ExecuteClientFunctionCommand, val interface{}) {
			c.InstantiationCallsiteName = val.(string)
		}),
		requiredField("fnCode", v.NonEmptyStringArgument, func(c *ExecuteClientFunctionCommand, val interface{}) {
			c.FnCode = val.(string)
		}),
		{Path: "args", Set: func(c *ExecuteClientFunctionCommand, val interface{}) error {
			if args, ok := v.Array(val); ok {
				c.Args = args
			}
			return nil
		}},
		{Path: "scopeVars", Set: func(c *ExecuteClientFunctionCommand, val interface{}) error {
			if vars, ok := v.Object(val); ok {
				c.ScopeVars = vars
			}
			return nil
		}},
	}
}

func visibilityFlag(raw map[string]interface{}) bool {
	b, ok := raw["visibilityCheck"].(bool)
	return !ok || b
}

func selectorError(name, msg string) error {
	return runerr.NewSelectorError(name, msg)
}
