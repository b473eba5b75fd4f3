// internal/browser/memdom/editing.go
package memdom

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/automation/typing"
)

// textInputTypes are the input types whose value is free text.
var textInputTypes = map[string]bool{
	"": true, "text": true, "password": true, "email": true, "number": true,
	"search": true, "tel": true, "url": true,
}

// floatPattern matches a valid floating-point number as number inputs
// accept it. Any other value is sanitized to "".
var floatPattern = regexp.MustCompile(`^-?(?:[0-9]+(?:\.[0-9]+)?|\.[0-9]+)(?:[eE][-+]?[0-9]+)?$`)

// field is the editing state of a text field or content-editable element.
type field struct {
	value    []rune
	selStart int
	selEnd   int
	// watched is the value at the last watch (re)start; a difference on
	// blur produces a change event.
	watched  string
	watching bool
}

func isTextField(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Textarea:
		return true
	case atom.Input:
		t, _ := attr(n, "type")
		return textInputTypes[strings.ToLower(t)]
	}
	return false
}

func isContentEditable(n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if c.Type != html.ElementNode {
			continue
		}
		if v, ok := attr(c, "contenteditable"); ok {
			switch strings.ToLower(v) {
			case "", "true", "plaintext-only":
				return true
			case "false":
				return false
			}
		}
	}
	return false
}

// editingHost returns the topmost content-editable ancestor of n.
func editingHost(n *html.Node) *html.Node {
	host := n
	for c := n.Parent; c != nil && c.Type == html.ElementNode && isContentEditable(c); c = c.Parent {
		host = c
	}
	return host
}

func initialValue(n *html.Node) string {
	if n.DataAtom == atom.Input {
		v, _ := attr(n, "value")
		return v
	}
	return textContent(n)
}

// fieldOf returns the editing state of an editable element, creating it
// from the markup on first use. Must be called with mu held.
// Content-editable text is re-read every time since typing into a child
// changes its host.
func (d *Document) fieldOf(el typing.Element, n *html.Node) *field {
	if f, ok := d.fields[el]; ok {
		if !isTextField(n) {
			f.value = []rune(textContent(n))
			f.selStart, f.selEnd = clamp(f.selStart, len(f.value)), clamp(f.selEnd, len(f.value))
		}
		return f
	}
	value := []rune(initialValue(n))
	f := &field{value: value, selStart: len(value), selEnd: len(value), watched: string(value)}
	d.fields[el] = f
	return f
}

// commit writes the field value back into the tree.
func commit(n *html.Node, f *field) {
	if n.DataAtom == atom.Input {
		setAttr(n, "value", string(f.value))
		return
	}
	setText(n, string(f.value))
}

func (d *Document) editable(el typing.Element) (*html.Node, *field, error) {
	n, err := d.node(el)
	if err != nil {
		return nil, nil, err
	}
	if !isTextField(n) && !isContentEditable(n) {
		return n, nil, nil
	}
	return n, d.fieldOf(el, n), nil
}

func (d *Document) Inspect(_ context.Context, el typing.Element) (typing.ElementState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, f, err := d.editable(el)
	if err != nil {
		return typing.ElementState{}, err
	}
	var state typing.ElementState
	if isTextField(n) {
		state.Editable = true
		state.TextEditable = !hasAttr(n, "disabled") && !hasAttr(n, "readonly")
		state.NumberInput = isNumberInput(n)
	} else if isContentEditable(n) {
		state.Editable = true
		state.ContentEditable = true
	}
	if f != nil {
		state.ValueLength = len(f.value)
	}
	return state, nil
}

func (d *Document) Descendants(_ context.Context, el typing.Element) ([]typing.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return nil, err
	}
	var out []typing.Element
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, d.idOf(c))
			}
			walk(c)
		}
	}
	walk(n)
	return out, nil
}

func (d *Document) ContentEditableParent(_ context.Context, el typing.Element) (typing.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return typing.NoElement, err
	}
	if !isContentEditable(n) {
		return typing.NoElement, nil
	}
	return d.idOf(editingHost(n)), nil
}

func (d *Document) SelectionStart(_ context.Context, el typing.Element) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, err := d.editable(el)
	if err != nil || f == nil {
		return 0, err
	}
	return f.selStart, nil
}

// Select sets the selection, clamped to the value. A start past the end
// selects backwards, which is stored as the same range.
func (d *Document) Select(_ context.Context, el typing.Element, start, end int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, err := d.editable(el)
	if err != nil || f == nil {
		return err
	}
	start, end = clamp(start, len(f.value)), clamp(end, len(f.value))
	if start > end {
		start, end = end, start
	}
	f.selStart, f.selEnd = start, end
	d.emit("select", el, "")
	return nil
}

func (d *Document) SelectAll(ctx context.Context, el typing.Element) error {
	d.mu.Lock()
	_, f, err := d.editable(el)
	d.mu.Unlock()
	if err != nil || f == nil {
		return err
	}
	return d.Select(ctx, el, 0, len(f.value))
}

func (d *Document) DeleteSelectionContents(_ context.Context, el typing.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, f, err := d.editable(el)
	if err != nil || f == nil {
		return err
	}
	if f.selStart == f.selEnd {
		return nil
	}
	f.value = append(f.value[:f.selStart:f.selStart], f.value[f.selEnd:]...)
	f.selEnd = f.selStart
	commit(n, f)
	d.emit("input", el, "")
	return nil
}

func (d *Document) WatchEditing(_ context.Context, el typing.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, err := d.editable(el)
	if err != nil || f == nil {
		return err
	}
	f.watching = true
	f.watched = string(f.value)
	return nil
}

func (d *Document) RestartEditingWatch(_ context.Context, el typing.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, err := d.editable(el)
	if err != nil || f == nil {
		return err
	}
	f.watched = string(f.value)
	return nil
}

// DispatchKeyEvent logs the event and lets the key handler decide whether
// the default action proceeds.
func (d *Document) DispatchKeyEvent(_ context.Context, el typing.Element, data schemas.KeyEventData) (bool, error) {
	d.mu.Lock()
	if _, err := d.node(el); err != nil {
		d.mu.Unlock()
		return false, err
	}
	key := data.Key
	if key == "" {
		key = data.KeyIdentifier
	}
	d.emit(string(data.Type), el, key)
	handler := d.keyHandler
	d.mu.Unlock()

	if handler == nil {
		return true, nil
	}
	proceed := handler(el, data)
	if !proceed {
		d.logger.Debug("Key event default prevented.", zap.String("type", string(data.Type)), zap.String("key", key))
	}
	return proceed, nil
}

// TypeChar replaces the selection of el with text. Single-line inputs drop
// line breaks.
func (d *Document) TypeChar(_ context.Context, el typing.Element, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, f, err := d.editable(el)
	if err != nil || f == nil {
		return err
	}
	if n.DataAtom == atom.Input {
		text = strings.NewReplacer("\r", "", "\n", "").Replace(text)
		if text == "" {
			return nil
		}
	}
	inserted := []rune(text)
	value := make([]rune, 0, len(f.value)+len(inserted))
	value = append(value, f.value[:f.selStart]...)
	value = append(value, inserted...)
	value = append(value, f.value[f.selEnd:]...)
	f.value = value
	f.selStart += len(inserted)
	f.selEnd = f.selStart
	if isNumberInput(n) && !floatPattern.MatchString(string(f.value)) {
		f.value = nil
		f.selStart, f.selEnd = 0, 0
	}
	commit(n, f)
	d.emit("input", el, text)
	return nil
}

func isNumberInput(n *html.Node) bool {
	t, _ := attr(n, "type")
	return n.DataAtom == atom.Input && strings.EqualFold(t, "number")
}

// Value returns the current value of a text field or the text of any other
// element.
func (d *Document) Value(_ context.Context, el typing.Element) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, f, err := d.editable(el)
	if err != nil {
		return "", err
	}
	if f != nil {
		return string(f.value), nil
	}
	return textContent(n), nil
}

// Selection returns the selected range of el.
func (d *Document) Selection(_ context.Context, el typing.Element) (start, end int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, f, err := d.editable(el)
	if err != nil || f == nil {
		return 0, 0, err
	}
	return f.selStart, f.selEnd, nil
}

func clamp(pos, length int) int {
	if pos < 0 {
		return 0
	}
	if pos > length {
		return length
	}
	return pos
}
