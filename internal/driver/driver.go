// internal/driver/driver.go
package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/automation/typing"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/devices"
	"github.com/xkilldash9x/brewer/internal/runerr"
	"github.com/xkilldash9x/brewer/internal/validation"
)

// Config tunes the driver.
type Config struct {
	Typing typing.Config
	// ScreenshotDir receives screenshots taken without an explicit path.
	ScreenshotDir string
	Devices       *devices.Catalog
}

// handler executes one command and returns its result.
type handler func(ctx context.Context, cmd commands.Command) (interface{}, error)

// Driver executes validated commands against a page and reports each
// outcome as a driver status.
type Driver struct {
	page      Page
	functions ClientFunctionRunner
	typing    *typing.Automation
	cfg       Config
	logger    *zap.Logger
	handlers  map[schemas.CommandType]handler
}

// New creates a Driver. functions may be nil, in which case client
// function commands are unsupported.
func New(page Page, functions ClientFunctionRunner, cfg Config, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Devices == nil {
		cfg.Devices = devices.Default()
	}
	d := &Driver{
		page:      page,
		functions: functions,
		typing:    typing.New(page, cfg.Typing, logger),
		cfg:       cfg,
		logger:    logger.Named("driver"),
		handlers:  make(map[schemas.CommandType]handler),
	}
	d.registerHandlers()
	return d
}

func (d *Driver) registerHandlers() {
	d.handlers[schemas.CommandClick] = d.handleClick
	d.handlers[schemas.CommandRightClick] = d.handleClick
	d.handlers[schemas.CommandDoubleClick] = d.handleClick
	d.handlers[schemas.CommandHover] = d.handleHover
	d.handlers[schemas.CommandTypeText] = d.handleTypeText
	d.handlers[schemas.CommandSelectText] = d.handleSelectText
	d.handlers[schemas.CommandSelectTextAreaContent] = d.handleSelectTextAreaContent
	d.handlers[schemas.CommandWait] = d.handleWait
	d.handlers[schemas.CommandNavigateTo] = d.handleNavigateTo
	d.handlers[schemas.CommandSetFilesToUpload] = d.handleSetFiles
	d.handlers[schemas.CommandClearUpload] = d.handleClearUpload
	d.handlers[schemas.CommandTakeScreenshot] = d.handleTakeScreenshot
	d.handlers[schemas.CommandResizeWindow] = d.handleResizeWindow
	d.handlers[schemas.CommandResizeWindowToFitDevice] = d.handleResizeToFitDevice
}

// Execute runs cmd and wraps the outcome. It never returns nil.
func (d *Driver) Execute(ctx context.Context, cmd commands.Command) *schemas.DriverStatus {
	typ := cmd.CommandType()
	d.logger.Info("Executing command.", zap.String("type", string(typ)))

	if fn, ok := cmd.(*commands.ExecuteClientFunctionCommand); ok {
		if d.functions == nil {
			return schemas.NewErrorStatus(runerr.NewUnsupportedByDriverError(string(typ)))
		}
		return d.functions.Execute(ctx, fn)
	}

	h, ok := d.handlers[typ]
	if !ok {
		d.logger.Warn("Command is not supported by this driver.", zap.String("type", string(typ)))
		return schemas.NewErrorStatus(runerr.NewUnsupportedByDriverError(string(typ)))
	}

	result, err := h(ctx, cmd)
	if err != nil {
		return schemas.NewErrorStatus(d.toRecord(typ, err))
	}
	return schemas.NewResultStatus(result)
}

// Run executes cmds in order and stops at the first failure. The returned
// statuses end with the failing one, if any.
func (d *Driver) Run(ctx context.Context, cmds []commands.Command) []*schemas.DriverStatus {
	statuses := make([]*schemas.DriverStatus, 0, len(cmds))
	for i, cmd := range cmds {
		status := d.Execute(ctx, cmd)
		statuses = append(statuses, status)
		if status.Failed() {
			d.logger.Warn("Command failed, stopping the run.",
				zap.Int("index", i),
				zap.String("type", string(cmd.CommandType())),
				zap.String("error", string(status.ExecutionError.Type)))
			break
		}
	}
	return statuses
}

func (d *Driver) toRecord(typ schemas.CommandType, err error) *runerr.Error {
	if typed, ok := runerr.As(err); ok {
		return typed
	}
	if errors.Is(err, errors.ErrUnsupported) {
		return runerr.NewUnsupportedByDriverError(string(typ))
	}
	d.logger.Debug("Command failed on the page.", zap.String("type", string(typ)), zap.Error(err))
	return runerr.NewUncaughtErrorOnPage(err)
}

// element resolves a selector field; a selector that matches nothing is an
// element-not-found error.
func (d *Driver) element(ctx context.Context, sel *commands.ResolvedSelector) (typing.Element, error) {
	el, err := d.page.Resolve(ctx, sel)
	if err != nil {
		return typing.NoElement, err
	}
	if el == typing.NoElement {
		return typing.NoElement, runerr.NewElementNotFoundError(selectorName(sel))
	}
	return el, nil
}

// selectorName is the CSS text of a selector, or its call site name.
func selectorName(sel *commands.ResolvedSelector) string {
	if sel == nil {
		return ""
	}
	if css, ok := sel.CSS(); ok {
		return css
	}
	return sel.InstantiationCallsiteName
}

// -- handlers --

func (d *Driver) handleClick(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.ClickCommand)
	el, err := d.element(ctx, cmd.Selector)
	if err != nil {
		return nil, err
	}
	button, count := schemas.ButtonLeft, 1
	switch cmd.Type {
	case schemas.CommandRightClick:
		button = schemas.ButtonRight
	case schemas.CommandDoubleClick:
		count = 2
	}
	return nil, d.page.ClickButton(ctx, el, button, count, cmd.Options)
}

func (d *Driver) handleHover(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.HoverCommand)
	el, err := d.element(ctx, cmd.Selector)
	if err != nil {
		return nil, err
	}
	return nil, d.page.Hover(ctx, el, commands.MoveOptionsFor(cmd.Options))
}

func (d *Driver) handleTypeText(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.TypeTextCommand)
	el, err := d.element(ctx, cmd.Selector)
	if err != nil {
		return nil, err
	}
	state, err := d.typing.Run(ctx, el, cmd.Text, cmd.Options)
	if err != nil {
		return nil, err
	}
	if state.Events.SkipType {
		d.logger.Warn("Element did not take focus, nothing was typed.", zap.String("selector", selectorName(cmd.Selector)))
	}
	return nil, nil
}

// handleSelectText selects [startPos, endPos) of the value. Missing bounds
// select from the start or to the end.
func (d *Driver) handleSelectText(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.SelectTextCommand)
	el, err := d.element(ctx, cmd.Selector)
	if err != nil {
		return nil, err
	}
	value, err := d.page.Value(ctx, el)
	if err != nil {
		return nil, err
	}
	length := len([]rune(value))
	return nil, d.page.Select(ctx, el, intOr(cmd.StartPos, 0), intOr(cmd.EndPos, length))
}

// handleSelectTextAreaContent converts line/column bounds to offsets.
// Missing bounds select from the first line or to the end of the last.
func (d *Driver) handleSelectTextAreaContent(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.SelectTextAreaContentCommand)
	el, err := d.element(ctx, cmd.Selector)
	if err != nil {
		return nil, err
	}
	value, err := d.page.Value(ctx, el)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(value, "\n")
	last := len(lines) - 1

	startLine := intOr(cmd.StartLine, 0)
	endLine := intOr(cmd.EndLine, last)
	start := lineOffset(lines, startLine, intOr(cmd.StartPos, 0))
	endPos := len([]rune(lines[clampLine(endLine, last)]))
	end := lineOffset(lines, endLine, intOr(cmd.EndPos, endPos))
	return nil, d.page.Select(ctx, el, start, end)
}

func (d *Driver) handleWait(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.WaitCommand)
	return nil, d.page.Sleep(ctx, time.Duration(cmd.Timeout)*time.Millisecond)
}

func (d *Driver) handleNavigateTo(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.NavigateToCommand)
	return nil, d.page.Navigate(ctx, cmd.URL)
}

func (d *Driver) handleSetFiles(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.SetFilesToUploadCommand)
	el, err := d.element(ctx, cmd.Selector)
	if err != nil {
		return nil, err
	}
	return nil, d.page.SetFiles(ctx, el, validation.Strings(cmd.FilePath))
}

func (d *Driver) handleClearUpload(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.ClearUploadCommand)
	el, err := d.element(ctx, cmd.Selector)
	if err != nil {
		return nil, err
	}
	return nil, d.page.ClearFiles(ctx, el)
}

// handleTakeScreenshot returns the path the screenshot was written to.
func (d *Driver) handleTakeScreenshot(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.TakeScreenshotCommand)
	path := cmd.Path
	if path == "" {
		path = filepath.Join(d.cfg.ScreenshotDir, uuid.NewString()+".png")
	}
	if err := d.page.Screenshot(ctx, path); err != nil {
		return nil, err
	}
	return path, nil
}

func (d *Driver) handleResizeWindow(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.ResizeWindowCommand)
	return nil, d.page.Resize(ctx, cmd.Width, cmd.Height)
}

func (d *Driver) handleResizeToFitDevice(ctx context.Context, c commands.Command) (interface{}, error) {
	cmd := c.(*commands.ResizeWindowToFitDeviceCommand)
	dev, ok := d.cfg.Devices.Lookup(cmd.Device)
	if !ok {
		return nil, runerr.NewUnsupportedDeviceTypeError("device", cmd.Device)
	}
	portrait := cmd.Options.PortraitOrientation
	if emu, ok := d.page.(DeviceEmulator); ok {
		if err := emu.EmulateDevice(ctx, dev, portrait); err != nil {
			return nil, fmt.Errorf("failed to emulate %s: %w", dev.Name, err)
		}
		return nil, nil
	}
	width, height := dev.Size(portrait)
	return nil, d.page.Resize(ctx, width, height)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func clampLine(line, last int) int {
	if line < 0 {
		return 0
	}
	if line > last {
		return last
	}
	return line
}

// lineOffset returns the offset of (line, pos) in the joined text. Both are
// clamped to the text.
func lineOffset(lines []string, line, pos int) int {
	line = clampLine(line, len(lines)-1)
	offset := 0
	for i := 0; i < line; i++ {
		offset += len([]rune(lines[i])) + 1
	}
	width := len([]rune(lines[line]))
	if pos < 0 {
		pos = 0
	}
	if pos > width {
		pos = width
	}
	return offset + pos
}
