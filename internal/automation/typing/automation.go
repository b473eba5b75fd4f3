// internal/automation/typing/automation.go
package typing

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/commands"
)

// DefaultStepDelay is the pause after every simulated character.
const DefaultStepDelay = 10 * time.Millisecond

// Config tunes the automation.
type Config struct {
	// StepDelay is awaited after each character insertion (or after the
	// single paste insertion) and after the focusing click.
	StepDelay time.Duration
	// KeyIdentifierRequired switches key events from the "key" property to
	// the legacy "keyIdentifier" property.
	KeyIdentifierRequired bool
	Keys                  *KeyMap
}

// DefaultConfig returns a Config with the default step delay and key map.
func DefaultConfig() Config {
	return Config{StepDelay: DefaultStepDelay, Keys: DefaultKeyMap()}
}

// EventState records which parts of the native key sequence a page allowed.
type EventState struct {
	// SkipType is set when focus could not be acquired. It is never cleared.
	SkipType         bool
	SimulateKeypress bool
	SimulateTypeChar bool
}

// State is the progress of one typing run.
type State struct {
	Pos           int
	KeyCode       int
	CharCode      int
	Key           string
	KeyIdentifier string
	Events        EventState
}

// Automation types text into page elements through an Executor.
type Automation struct {
	exec   Executor
	cfg    Config
	logger *zap.Logger
}

// New creates an Automation. A nil logger discards output; a nil key map
// falls back to DefaultKeyMap.
func New(exec Executor, cfg Config, logger *zap.Logger) *Automation {
	if cfg.Keys == nil {
		cfg.Keys = DefaultKeyMap()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Automation{exec: exec, cfg: cfg, logger: logger.Named("typing")}
}

// Run types text into target and returns the final state. Focus mismatches
// are not errors: the run completes with Events.SkipType set and nothing
// typed. Errors are returned only when the executor fails.
func (a *Automation) Run(ctx context.Context, target Element, text string, opts commands.TypeOptions) (*State, error) {
	r := &run{
		Automation: a,
		text:       []rune(text),
		opts:       opts,
		state: State{Events: EventState{
			SimulateKeypress: true,
			SimulateTypeChar: true,
		}},
	}

	child, err := r.findTextEditableChild(ctx, target)
	if err != nil {
		return nil, err
	}
	r.element = target
	if child != NoElement {
		r.element = child
		r.elementChanged = true
	}

	if err := r.click(ctx); err != nil {
		return nil, fmt.Errorf("typing: failed to focus element: %w", err)
	}
	if err := r.calculateTargetElement(ctx); err != nil {
		return nil, err
	}
	if err := r.typeText(ctx); err != nil {
		return nil, err
	}
	return &r.state, nil
}

// eventArgs is the target and payload of the next key event.
type eventArgs struct {
	element Element
	data    schemas.KeyEventData
}

// run holds the state of a single Run call.
type run struct {
	*Automation

	element        Element
	elementChanged bool
	text           []rune
	opts           commands.TypeOptions
	state          State
	args           eventArgs
}

// findTextEditableChild returns the first text-editable descendant of a
// non-editable element, or NoElement.
func (r *run) findTextEditableChild(ctx context.Context, el Element) (Element, error) {
	st, err := r.exec.Inspect(ctx, el)
	if err != nil {
		return NoElement, err
	}
	if st.Editable {
		return NoElement, nil
	}

	children, err := r.exec.Descendants(ctx, el)
	if err != nil {
		return NoElement, err
	}
	for _, child := range children {
		cst, err := r.exec.Inspect(ctx, child)
		if err != nil {
			return NoElement, err
		}
		if cst.TextEditable {
			return child, nil
		}
	}
	return NoElement, nil
}

func (r *run) click(ctx context.Context) error {
	active, err := r.exec.ActiveElement(ctx)
	if err != nil {
		return err
	}
	st, err := r.exec.Inspect(ctx, r.element)
	if err != nil {
		return err
	}

	if active != r.element {
		clickOpts := commands.ClickOptions{
			MouseOptions: commands.MouseOptions{
				OffsetOptions: r.opts.OffsetOptions,
				Modifiers:     r.opts.Modifiers,
			},
			CaretPos: r.opts.CaretPos,
		}
		// Caller offsets refer to the original target, not the child.
		if r.elementChanged {
			x, y, err := r.exec.DefaultOffsets(ctx, r.element)
			if err != nil {
				return err
			}
			clickOpts.OffsetX, clickOpts.OffsetY = &x, &y
		}
		if err := r.exec.Click(ctx, r.element, clickOpts); err != nil {
			return err
		}
		return r.exec.Sleep(ctx, r.cfg.StepDelay)
	}

	if st.TextEditable {
		if err := r.exec.WatchEditing(ctx, r.element); err != nil {
			return err
		}
	}

	selectionStart, err := r.exec.SelectionStart(ctx, r.element)
	if err != nil {
		return err
	}
	caret := r.opts.CaretPos
	if (st.TextEditable || st.ContentEditable) && caret != nil && *caret != selectionStart {
		return r.exec.Select(ctx, r.element, *caret, *caret)
	}
	return nil
}

func (r *run) calculateTargetElement(ctx context.Context) error {
	active, err := r.exec.ActiveElement(ctx)
	if err != nil {
		return err
	}
	st, err := r.exec.Inspect(ctx, r.element)
	if err != nil {
		return err
	}

	focusOwner := r.element
	if st.ContentEditable {
		if focusOwner, err = r.exec.ContentEditableParent(ctx, r.element); err != nil {
			return err
		}
	}
	if active != focusOwner {
		r.logger.Debug("Focus was not acquired, skipping typing.",
			zap.Int64("element", int64(r.element)),
			zap.Int64("active", int64(active)))
		r.state.Events.SkipType = true
		return nil
	}
	if !st.ContentEditable {
		r.element = active
	}
	return nil
}

func (r *run) typeText(ctx context.Context) error {
	if r.state.Events.SkipType {
		return nil
	}

	if r.opts.Replace {
		st, err := r.exec.Inspect(ctx, r.element)
		if err != nil {
			return err
		}
		switch {
		case st.TextEditable:
			err = r.exec.SelectAll(ctx, r.element)
		case st.ContentEditable:
			err = r.exec.DeleteSelectionContents(ctx, r.element)
		}
		if err != nil {
			return fmt.Errorf("typing: failed to clear previous value: %w", err)
		}
	}

	for r.state.Pos < len(r.text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.step(ctx); err != nil {
			return fmt.Errorf("typing: character %d: %w", r.state.Pos, err)
		}
	}
	return nil
}

func (r *run) step(ctx context.Context) error {
	ch := r.text[r.state.Pos]
	keys := r.cfg.Keys

	r.state.KeyCode = keys.KeyCode(ch)
	r.state.CharCode = int(ch)
	r.state.Key = keys.KeyName(ch)
	r.state.KeyIdentifier = keys.KeyIdentifier(r.state.Key)

	if err := r.keydown(ctx); err != nil {
		return err
	}
	if err := r.keypress(ctx); err != nil {
		return err
	}
	return r.keyup(ctx)
}

func (r *run) keydown(ctx context.Context) (err error) {
	if r.args, err = r.eventArguments(ctx, schemas.KeyDown); err != nil {
		return err
	}
	r.state.Events.SimulateKeypress, err = r.exec.DispatchKeyEvent(ctx, r.args.element, r.args.data)
	return err
}

func (r *run) keypress(ctx context.Context) (err error) {
	if !r.state.Events.SimulateKeypress {
		return nil
	}
	if r.args, err = r.eventArguments(ctx, schemas.KeyPress); err != nil {
		return err
	}
	r.state.Events.SimulateTypeChar, err = r.exec.DispatchKeyEvent(ctx, r.args.element, r.args.data)
	return err
}

func (r *run) keyup(ctx context.Context) (err error) {
	typingTarget := r.args.element
	if r.args, err = r.eventArguments(ctx, schemas.KeyUp); err != nil {
		return err
	}

	if r.opts.Paste {
		r.logger.Debug("Pasting text.", zap.Int("length", len(r.text)))
		if err := r.insert(ctx, typingTarget, string(r.text)); err != nil {
			return err
		}
		if _, err := r.exec.DispatchKeyEvent(ctx, r.args.element, r.args.data); err != nil {
			return err
		}
		r.state.Pos = len(r.text)
		return nil
	}

	if err := r.typeChar(ctx, typingTarget); err != nil {
		return err
	}
	if _, err := r.exec.DispatchKeyEvent(ctx, r.args.element, r.args.data); err != nil {
		return err
	}
	r.state.Pos++
	return nil
}

// eventArguments resolves the event target and payload. When focus moved
// away from a non content-editable target (an editor swapping inputs), events
// go to the new active element instead.
func (r *run) eventArguments(ctx context.Context, typ schemas.KeyEventType) (eventArgs, error) {
	active, err := r.exec.ActiveElement(ctx)
	if err != nil {
		return eventArgs{}, err
	}
	st, err := r.exec.Inspect(ctx, r.element)
	if err != nil {
		return eventArgs{}, err
	}

	el := r.args.element
	if el == NoElement {
		el = r.element
	}
	if !st.ContentEditable && active != el {
		child, err := r.findTextEditableChild(ctx, active)
		if err != nil {
			return eventArgs{}, err
		}
		el = active
		if child != NoElement {
			el = child
		}
	}

	isPress := typ == schemas.KeyPress
	data := schemas.KeyEventData{
		Type:      typ,
		KeyCode:   r.state.KeyCode,
		Modifiers: r.opts.Modifiers.Mask(),
	}
	if isPress {
		data.KeyCode = r.state.CharCode
		data.CharCode = r.state.CharCode
	}
	if r.cfg.KeyIdentifierRequired {
		if !isPress {
			data.KeyIdentifier = r.state.KeyIdentifier
		}
	} else {
		data.Key = r.state.Key
	}
	return eventArgs{element: el, data: data}, nil
}

func (r *run) typeChar(ctx context.Context, el Element) error {
	// A prevented keydown or keypress must not produce a change event even
	// if a handler changed the value.
	if !r.state.Events.SimulateKeypress || !r.state.Events.SimulateTypeChar {
		if err := r.exec.RestartEditingWatch(ctx, el); err != nil {
			return err
		}
		return r.exec.Sleep(ctx, r.cfg.StepDelay)
	}

	ch := r.text[r.state.Pos]
	chars := string(ch)

	st, err := r.exec.Inspect(ctx, el)
	if err != nil {
		return err
	}
	if st.NumberInput {
		var ok bool
		if chars, ok, err = r.filterNumeric(ctx, el, st); err != nil {
			return err
		}
		if !ok {
			r.logger.Debug("Character rejected by number input.", zap.String("char", string(ch)))
			return r.exec.Sleep(ctx, r.cfg.StepDelay)
		}
	}

	return r.insert(ctx, el, chars)
}

// filterNumeric applies number input masking to the current character. A
// sign or decimal point is only accepted as the first character typed into
// a field, and is merged into the digit that follows it.
func (r *run) filterNumeric(ctx context.Context, el Element, st ElementState) (string, bool, error) {
	ch := r.text[r.state.Pos]
	isDigit := isASCIIDigit(ch)

	var prev rune
	if r.state.Pos > 0 {
		prev = r.text[r.state.Pos-1]
	}

	selectionStart, err := r.exec.SelectionStart(ctx, el)
	if err != nil {
		return "", false, err
	}
	valueLength := st.ValueLength
	textHasDigits := len(r.text) > 0 && isASCIIDigit(r.text[0])
	isPermissibleSymbol := ch == '.' || (ch == '-' && valueLength > 0)

	if !isDigit && (textHasDigits || !isPermissibleSymbol || selectionStart != 0) {
		return "", false, nil
	}
	if isDigit && (prev == '.' || (prev == '-' && valueLength == 0)) {
		return string(prev) + string(ch), true, nil
	}
	return string(ch), true, nil
}

func (r *run) insert(ctx context.Context, el Element, text string) error {
	if err := r.exec.TypeChar(ctx, el, text); err != nil {
		return err
	}
	return r.exec.Sleep(ctx, r.cfg.StepDelay)
}

func isASCIIDigit(ch rune) bool {
	return ch < unicode.MaxASCII && unicode.IsDigit(ch)
}
