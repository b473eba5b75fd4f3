// internal/browser/cdp/page.go
package cdp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/automation/typing"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/devices"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Page drives one browser tab over the DevTools protocol. Elements are
// addressed by handles issued by the page-side registry.
type Page struct {
	// tabCtx is the chromedp context of the tab.
	tabCtx            context.Context
	logger            *zap.Logger
	navigationTimeout time.Duration
}

var _ typing.Executor = (*Page)(nil)

// NewPage prepares the tab behind tabCtx: the registry is installed for
// the current document and every document loaded later.
func NewPage(tabCtx context.Context, navigationTimeout time.Duration, logger *zap.Logger) (*Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Page{tabCtx: tabCtx, logger: logger.Named("cdp"), navigationTimeout: navigationTimeout}

	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := page.AddScriptToEvaluateOnNewDocument(registryScript).Do(ctx); err != nil {
			return err
		}
		return nil
	}), chromedp.Evaluate(registryScript, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to install page registry: %w", err)
	}
	return p, nil
}

// run executes actions in the tab, cancelled when either ctx or the tab
// ends.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// call invokes window.__brewer[method](args...) and decodes the result
// into res.
func (p *Page) call(ctx context.Context, res interface{}, method string, args ...interface{}) error {
	expr, err := callExpression("window.__brewer."+method, args...)
	if err != nil {
		return err
	}
	return p.run(ctx, chromedp.Evaluate(expr, res))
}

// callExpression renders fn(args...) with JSON encoded arguments.
func callExpression(fn string, args ...interface{}) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("failed to encode argument %d: %w", i, err)
		}
		encoded[i] = string(data)
	}
	return fn + "(" + strings.Join(encoded, ",") + ")", nil
}

// -- typing.Inspector --

func (p *Page) Inspect(ctx context.Context, el typing.Element) (typing.ElementState, error) {
	var res struct {
		Editable        bool `json:"editable"`
		TextEditable    bool `json:"textEditable"`
		ContentEditable bool `json:"contentEditable"`
		NumberInput     bool `json:"numberInput"`
		ValueLength     int  `json:"valueLength"`
	}
	if err := p.call(ctx, &res, "inspect", el); err != nil {
		return typing.ElementState{}, err
	}
	return typing.ElementState{
		Editable:        res.Editable,
		TextEditable:    res.TextEditable,
		ContentEditable: res.ContentEditable,
		NumberInput:     res.NumberInput,
		ValueLength:     res.ValueLength,
	}, nil
}

func (p *Page) Descendants(ctx context.Context, el typing.Element) ([]typing.Element, error) {
	var res []typing.Element
	err := p.call(ctx, &res, "descendants", el)
	return res, err
}

func (p *Page) ContentEditableParent(ctx context.Context, el typing.Element) (typing.Element, error) {
	var res typing.Element
	err := p.call(ctx, &res, "editingHost", el)
	return res, err
}

// -- typing.Focuser --

func (p *Page) ActiveElement(ctx context.Context) (typing.Element, error) {
	var res typing.Element
	err := p.call(ctx, &res, "active")
	return res, err
}

func (p *Page) DefaultOffsets(ctx context.Context, el typing.Element) (int, int, error) {
	var res struct{ X, Y int }
	err := p.call(ctx, &res, "defaultOffsets", el)
	return res.X, res.Y, err
}

func (p *Page) Click(ctx context.Context, el typing.Element, opts commands.ClickOptions) error {
	return p.ClickButton(ctx, el, schemas.ButtonLeft, 1, opts)
}

// ClickButton scrolls el into view and dispatches native mouse input at the
// offsets, then moves the caret when CaretPos is set.
func (p *Page) ClickButton(ctx context.Context, el typing.Element, button schemas.MouseButton, clickCount int, opts commands.ClickOptions) error {
	x, y, err := p.point(ctx, el, opts.OffsetOptions, true)
	if err != nil {
		return err
	}
	mods := modifiers(opts.Modifiers.Mask())
	var actions []chromedp.Action
	for _, ev := range schemas.ClickSequence(x, y, button, clickCount, opts.Modifiers.Mask()) {
		actions = append(actions, input.DispatchMouseEvent(input.MouseType(ev.Type), ev.X, ev.Y).
			WithButton(input.MouseButton(ev.Button)).
			WithClickCount(int64(ev.ClickCount)).
			WithModifiers(mods))
	}
	if err := p.run(ctx, actions...); err != nil {
		return fmt.Errorf("failed to dispatch click: %w", err)
	}
	if opts.CaretPos != nil {
		return p.Select(ctx, el, *opts.CaretPos, *opts.CaretPos)
	}
	return nil
}

// Hover moves the pointer to the offsets. The element is scrolled into view
// first unless SkipScrolling is set.
func (p *Page) Hover(ctx context.Context, el typing.Element, opts commands.MoveOptions) error {
	x, y, err := p.point(ctx, el, opts.OffsetOptions, !opts.SkipScrolling)
	if err != nil {
		return err
	}
	return p.run(ctx, input.DispatchMouseEvent(input.MouseMoved, x, y).
		WithButton(input.None).
		WithModifiers(modifiers(opts.Modifiers.Mask())))
}

func (p *Page) point(ctx context.Context, el typing.Element, offsets commands.OffsetOptions, scroll bool) (float64, float64, error) {
	var res struct{ X, Y float64 }
	if err := p.call(ctx, &res, "point", el, offsets.OffsetX, offsets.OffsetY, scroll); err != nil {
		return 0, 0, err
	}
	return res.X, res.Y, nil
}

// modifiers converts the bitmask to the protocol's; the bit layout is the
// same.
func modifiers(m schemas.KeyModifier) input.Modifier {
	var out input.Modifier
	if m.Has(schemas.ModAlt) {
		out |= input.ModifierAlt
	}
	if m.Has(schemas.ModCtrl) {
		out |= input.ModifierCtrl
	}
	if m.Has(schemas.ModMeta) {
		out |= input.ModifierMeta
	}
	if m.Has(schemas.ModShift) {
		out |= input.ModifierShift
	}
	return out
}

// -- typing.Selection --

func (p *Page) SelectionStart(ctx context.Context, el typing.Element) (int, error) {
	var res int
	err := p.call(ctx, &res, "selectionStart", el)
	return res, err
}

func (p *Page) Select(ctx context.Context, el typing.Element, start, end int) error {
	return p.call(ctx, nil, "select", el, start, end)
}

func (p *Page) SelectAll(ctx context.Context, el typing.Element) error {
	return p.call(ctx, nil, "selectAll", el)
}

func (p *Page) DeleteSelectionContents(ctx context.Context, el typing.Element) error {
	return p.call(ctx, nil, "deleteSelection", el)
}

// -- typing.EditWatcher --

func (p *Page) WatchEditing(ctx context.Context, el typing.Element) error {
	return p.call(ctx, nil, "watch", el, false)
}

func (p *Page) RestartEditingWatch(ctx context.Context, el typing.Element) error {
	return p.call(ctx, nil, "watch", el, true)
}

// -- typing.Keyboard --

// DispatchKeyEvent fires a synthetic KeyboardEvent at el. The result is
// false when a listener called preventDefault.
func (p *Page) DispatchKeyEvent(ctx context.Context, el typing.Element, data schemas.KeyEventData) (bool, error) {
	var proceed bool
	if err := p.call(ctx, &proceed, "dispatchKey", el, data); err != nil {
		return false, err
	}
	return proceed, nil
}

// TypeChar edits text fields through the page and falls back to native
// text insertion at the caret for content-editable elements.
func (p *Page) TypeChar(ctx context.Context, el typing.Element, text string) error {
	var handled bool
	if err := p.call(ctx, &handled, "typeIntoField", el, text); err != nil {
		return err
	}
	if handled {
		return nil
	}
	return p.run(ctx, input.InsertText(text))
}

func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	return p.run(ctx, chromedp.Sleep(d))
}

// -- driver.Page --

// Resolve runs the selector's function in the page and returns a handle to
// its first (visible) node.
func (p *Page) Resolve(ctx context.Context, sel *commands.ResolvedSelector) (typing.Element, error) {
	if sel == nil {
		return typing.NoElement, nil
	}
	expr, err := functionExpression(sel.FnCode, sel.ScopeVars, sel.Args,
		fmt.Sprintf("return window.__brewer.firstMatch(result, %t);", sel.VisibilityCheck))
	if err != nil {
		return typing.NoElement, err
	}
	var res typing.Element
	if err := p.run(ctx, chromedp.Evaluate(expr, &res, awaitPromise)); err != nil {
		return typing.NoElement, err
	}
	return res, nil
}

func (p *Page) Value(ctx context.Context, el typing.Element) (string, error) {
	var res string
	err := p.call(ctx, &res, "value", el)
	return res, err
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if p.navigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.navigationTimeout)
		defer cancel()
	}
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *Page) SetFiles(ctx context.Context, el typing.Element, paths []string) error {
	abs := make([]string, len(paths))
	for i, path := range paths {
		a, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		abs[i] = a
	}
	return p.setFiles(ctx, el, abs)
}

func (p *Page) ClearFiles(ctx context.Context, el typing.Element) error {
	return p.setFiles(ctx, el, []string{})
}

func (p *Page) setFiles(ctx context.Context, el typing.Element, paths []string) error {
	var isFile bool
	if err := p.call(ctx, &isFile, "isFileInput", el); err != nil {
		return err
	}
	if !isFile {
		return errors.New("the element is not a file input")
	}
	expr, err := callExpression("window.__brewer.node", el)
	if err != nil {
		return err
	}
	var obj *runtime.RemoteObject
	return p.run(ctx,
		chromedp.Evaluate(expr, &obj),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return dom.SetFileInputFiles(paths).WithObjectID(obj.ObjectID).Do(ctx)
		}))
}

// Screenshot captures the viewport as PNG into path.
func (p *Page) Screenshot(ctx context.Context, path string) error {
	var data []byte
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) (err error) {
		data, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *Page) Resize(ctx context.Context, width, height int) error {
	return p.run(ctx, emulation.SetDeviceMetricsOverride(int64(width), int64(height), 0, false))
}

// EmulateDevice applies the device's viewport, scale factor, touch mode and
// user agent.
func (p *Page) EmulateDevice(ctx context.Context, dev devices.Device, portrait bool) error {
	width, height := dev.Size(portrait)
	orientation := &emulation.ScreenOrientation{Type: emulation.OrientationTypeLandscapePrimary, Angle: 90}
	if portrait {
		orientation = &emulation.ScreenOrientation{Type: emulation.OrientationTypePortraitPrimary, Angle: 0}
	}
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(width), int64(height), dev.DeviceScaleFactor, dev.Mobile).
			WithScreenOrientation(orientation),
		emulation.SetTouchEmulationEnabled(dev.Mobile),
	}
	if dev.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(dev.UserAgent))
	}
	return p.run(ctx, actions...)
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
