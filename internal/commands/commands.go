// internal/commands/commands.go
package commands

import (
	"github.com/xkilldash9x/brewer/api/schemas"
)

// Command is a validated, immutable action record.
type Command interface {
	CommandType() schemas.CommandType
}

// ClickCommand also represents right-click and double-click; Type tells
// them apart.
type ClickCommand struct {
	Type     schemas.CommandType `json:"type"`
	Selector *ResolvedSelector   `json:"selector"`
	Options  ClickOptions        `json:"options"`
}

type HoverCommand struct {
	Type     schemas.CommandType `json:"type"`
	Selector *ResolvedSelector   `json:"selector"`
	Options  MouseOptions        `json:"options"`
}

type DragCommand struct {
	Type        schemas.CommandType `json:"type"`
	Selector    *ResolvedSelector   `json:"selector"`
	DragOffsetX int                 `json:"dragOffsetX"`
	DragOffsetY int                 `json:"dragOffsetY"`
	Options     MouseOptions        `json:"options"`
}

type DragToElementCommand struct {
	Type                schemas.CommandType `json:"type"`
	Selector            *ResolvedSelector   `json:"selector"`
	DestinationSelector *ResolvedSelector   `json:"destinationSelector"`
	Options             MouseOptions        `json:"options"`
}

type TypeTextCommand struct {
	Type     schemas.CommandType `json:"type"`
	Selector *ResolvedSelector   `json:"selector"`
	Text     string              `json:"text"`
	Options  TypeOptions         `json:"options"`
}

type SelectTextCommand struct {
	Type     schemas.CommandType `json:"type"`
	Selector *ResolvedSelector   `json:"selector"`
	StartPos *int                `json:"startPos"`
	EndPos   *int                `json:"endPos"`
}

type SelectTextAreaContentCommand struct {
	Type      schemas.CommandType `json:"type"`
	Selector  *ResolvedSelector   `json:"selector"`
	StartLine *int                `json:"startLine"`
	StartPos  *int                `json:"startPos"`
	EndLine   *int                `json:"endLine"`
	EndPos    *int                `json:"endPos"`
}

type SelectEditableContentCommand struct {
	Type          schemas.CommandType `json:"type"`
	StartSelector *ResolvedSelector   `json:"startSelector"`
	EndSelector   *ResolvedSelector   `json:"endSelector"`
}

type PressKeyCommand struct {
	Type schemas.CommandType `json:"type"`
	Keys string              `json:"keys"`
}

type WaitCommand struct {
	Type    schemas.CommandType `json:"type"`
	Timeout int                 `json:"timeout"`
}

type NavigateToCommand struct {
	Type schemas.CommandType `json:"type"`
	URL  string              `json:"url"`
}

type SetFilesToUploadCommand struct {
	Type     schemas.CommandType `json:"type"`
	Selector *ResolvedSelector   `json:"selector"`
	// FilePath keeps the raw shape (string or list of strings).
	FilePath interface{} `json:"filePath"`
}

type ClearUploadCommand struct {
	Type     schemas.CommandType `json:"type"`
	Selector *ResolvedSelector   `json:"selector"`
}

type TakeScreenshotCommand struct {
	Type schemas.CommandType `json:"type"`
	Path string              `json:"path"`
}

type ResizeWindowCommand struct {
	Type   schemas.CommandType `json:"type"`
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
}

type ResizeWindowToFitDeviceCommand struct {
	Type    schemas.CommandType      `json:"type"`
	Device  string                   `json:"device"`
	Options ResizeToFitDeviceOptions `json:"options"`
}

type SwitchToIframeCommand struct {
	Type     schemas.CommandType `json:"type"`
	Selector *ResolvedSelector   `json:"selector"`
}

type SwitchToMainWindowCommand struct {
	Type schemas.CommandType `json:"type"`
}

// ExecuteClientFunctionCommand carries a user function to run in the page.
// Args and ScopeVars hold replicated (encoded) values.
type ExecuteClientFunctionCommand struct {
	Type                      schemas.CommandType    `json:"type"`
	InstantiationCallsiteName string                 `json:"instantiationCallsiteName"`
	FnCode                    string                 `json:"fnCode"`
	Args                      []interface{}          `json:"args"`
	ScopeVars                 map[string]interface{} `json:"scopeVars"`
}

func (c *ClickCommand) CommandType() schemas.CommandType                   { return c.Type }
func (c *HoverCommand) CommandType() schemas.CommandType                   { return c.Type }
func (c *DragCommand) CommandType() schemas.CommandType                    { return c.Type }
func (c *DragToElementCommand) CommandType() schemas.CommandType           { return c.Type }
func (c *TypeTextCommand) CommandType() schemas.CommandType                { return c.Type }
func (c *SelectTextCommand) CommandType() schemas.CommandType              { return c.Type }
func (c *SelectTextAreaContentCommand) CommandType() schemas.CommandType   { return c.Type }
func (c *SelectEditableContentCommand) CommandType() schemas.CommandType   { return c.Type }
func (c *PressKeyCommand) CommandType() schemas.CommandType                { return c.Type }
func (c *WaitCommand) CommandType() schemas.CommandType                    { return c.Type }
func (c *NavigateToCommand) CommandType() schemas.CommandType              { return c.Type }
func (c *SetFilesToUploadCommand) CommandType() schemas.CommandType        { return c.Type }
func (c *ClearUploadCommand) CommandType() schemas.CommandType             { return c.Type }
func (c *TakeScreenshotCommand) CommandType() schemas.CommandType          { return c.Type }
func (c *ResizeWindowCommand) CommandType() schemas.CommandType            { return c.Type }
func (c *ResizeWindowToFitDeviceCommand) CommandType() schemas.CommandType { return c.Type }
func (c *SwitchToIframeCommand) CommandType() schemas.CommandType          { return c.Type }
func (c *SwitchToMainWindowCommand) CommandType() schemas.CommandType      { return c.Type }
func (c *ExecuteClientFunctionCommand) CommandType() schemas.CommandType   { return c.Type }
