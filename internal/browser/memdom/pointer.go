// internal/browser/memdom/pointer.go
package memdom

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/automation/typing"
	"github.com/xkilldash9x/brewer/internal/commands"
)

// ActiveElement returns the focused element, falling back to the body the
// way document.activeElement does.
func (d *Document) ActiveElement(_ context.Context) (typing.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeElementLocked(), nil
}

func (d *Document) activeElementLocked() typing.Element {
	if d.focused != typing.NoElement {
		return d.focused
	}
	if body := findAtom(d.root, atom.Body); body != nil {
		return d.idOf(body)
	}
	return typing.NoElement
}

// DefaultOffsets is the origin; the document has no layout.
func (d *Document) DefaultOffsets(_ context.Context, el typing.Element) (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.node(el); err != nil {
		return 0, 0, err
	}
	return 0, 0, nil
}

func (d *Document) Click(ctx context.Context, el typing.Element, opts commands.ClickOptions) error {
	return d.ClickButton(ctx, el, schemas.ButtonLeft, 1, opts)
}

// ClickButton presses and releases button clickCount times over el. A left
// press moves focus to the element (or its editing host) and places the
// caret at CaretPos, or at the end of the value.
func (d *Document) ClickButton(_ context.Context, el typing.Element, button schemas.MouseButton, clickCount int, opts commands.ClickOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	if hasAttr(n, "disabled") {
		d.logger.Debug("Click on a disabled element.", zap.String("tag", n.Data))
		return nil
	}

	for i := 1; i <= clickCount; i++ {
		d.emit("mousedown", el, string(button))
		if i == 1 {
			d.focusTarget(el, n)
		}
		d.emit("mouseup", el, string(button))
		switch button {
		case schemas.ButtonRight:
			d.emit("contextmenu", el, string(button))
		default:
			d.emit("click", el, string(button))
		}
	}
	if clickCount == 2 && button == schemas.ButtonLeft {
		d.emit("dblclick", el, string(button))
	}

	if f, ok := d.fields[d.focused]; ok && d.focused != typing.NoElement {
		pos := len(f.value)
		if opts.CaretPos != nil {
			pos = clamp(*opts.CaretPos, len(f.value))
		}
		f.selStart, f.selEnd = pos, pos
	}
	return nil
}

// Hover moves the pointer over el. There is no layout, so scrolling is a
// no-op.
func (d *Document) Hover(_ context.Context, el typing.Element, _ commands.MoveOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.node(el); err != nil {
		return err
	}
	d.emit("mouseover", el, "")
	d.emit("mousemove", el, "")
	return nil
}

// focusTarget moves focus as a mousedown on n would. Must be called with mu
// held.
func (d *Document) focusTarget(el typing.Element, n *html.Node) {
	switch {
	case isContentEditable(n):
		host := editingHost(n)
		d.focus(d.idOf(host), host)
	case focusable(n):
		d.focus(el, n)
	default:
		d.focus(typing.NoElement, nil)
	}
}

func (d *Document) focus(el typing.Element, n *html.Node) {
	if d.focused == el {
		return
	}
	if prev := d.focused; prev != typing.NoElement {
		if f, ok := d.fields[prev]; ok && f.watching {
			if string(f.value) != f.watched {
				d.emit("change", prev, "")
			}
			f.watching = false
		}
		d.emit("blur", prev, "")
	}
	d.focused = el
	if el == typing.NoElement {
		return
	}
	d.emit("focus", el, "")
	if isTextField(n) || isContentEditable(n) {
		f := d.fieldOf(el, n)
		f.watching = true
		f.watched = string(f.value)
	}
}

func focusable(n *html.Node) bool {
	if n.Type != html.ElementNode || hasAttr(n, "disabled") {
		return false
	}
	if hasAttr(n, "tabindex") {
		return true
	}
	switch n.DataAtom {
	case atom.Input:
		t, _ := attr(n, "type")
		return t != "hidden"
	case atom.Textarea, atom.Select, atom.Button, atom.Iframe:
		return true
	case atom.A, atom.Area:
		return hasAttr(n, "href")
	}
	return false
}
