// internal/automation/typing/mocks_test.go
package typing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/commands"
)

// fakeElement is a node of the fake page.
type fakeElement struct {
	state       ElementState
	value       []rune
	selStart    int
	selEnd      int
	children    []Element
	editingHost Element
}

type keyEvent struct {
	target Element
	data   schemas.KeyEventData
}

type insertion struct {
	target Element
	text   string
}

// mockExecutor is a small in-memory page that records every call.
type mockExecutor struct {
	mu sync.Mutex

	elements map[Element]*fakeElement
	active   Element
	// clickFocuses controls whether Click moves focus to its target.
	clickFocuses bool

	clicks       []commands.ClickOptions
	clicked      []Element
	keyEvents    []keyEvent
	insertions   []insertion
	sleeps       []time.Duration
	watched      []Element
	restarted    []Element
	selects      [][3]int
	selectAlls   []Element
	deletedRange []Element

	// MockDispatchKeyEvent overrides the default (always allow) behavior.
	MockDispatchKeyEvent func(el Element, data schemas.KeyEventData) bool
	returnErr            error
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		elements:     make(map[Element]*fakeElement),
		clickFocuses: true,
	}
}

func (m *mockExecutor) add(id Element, state ElementState, value string) *fakeElement {
	el := &fakeElement{state: state, value: []rune(value), selStart: len([]rune(value)), selEnd: len([]rune(value))}
	m.elements[id] = el
	return el
}

func (m *mockExecutor) get(el Element) (*fakeElement, error) {
	e, ok := m.elements[el]
	if !ok {
		return nil, fmt.Errorf("no element %d", el)
	}
	return e, nil
}

func (m *mockExecutor) valueOf(el Element) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.elements[el].value)
}

func (m *mockExecutor) eventTypes() []schemas.KeyEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]schemas.KeyEventType, 0, len(m.keyEvents))
	for _, e := range m.keyEvents {
		types = append(types, e.data.Type)
	}
	return types
}

func (m *mockExecutor) Inspect(_ context.Context, el Element) (ElementState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(el)
	if err != nil {
		return ElementState{}, err
	}
	st := e.state
	st.ValueLength = len(e.value)
	return st, nil
}

func (m *mockExecutor) Descendants(_ context.Context, el Element) ([]Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(el)
	if err != nil {
		return nil, err
	}
	return append([]Element(nil), e.children...), nil
}

func (m *mockExecutor) ContentEditableParent(_ context.Context, el Element) (Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(el)
	if err != nil {
		return NoElement, err
	}
	return e.editingHost, nil
}

func (m *mockExecutor) ActiveElement(context.Context) (Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, nil
}

func (m *mockExecutor) DefaultOffsets(context.Context, Element) (int, int, error) {
	return 5, 7, nil
}

func (m *mockExecutor) Click(_ context.Context, el Element, opts commands.ClickOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = append(m.clicks, opts)
	m.clicked = append(m.clicked, el)
	if m.clickFocuses {
		m.active = el
		if e, ok := m.elements[el]; ok && opts.CaretPos != nil {
			e.selStart, e.selEnd = *opts.CaretPos, *opts.CaretPos
		}
	}
	return nil
}

func (m *mockExecutor) SelectionStart(_ context.Context, el Element) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(el)
	if err != nil {
		return 0, err
	}
	return e.selStart, nil
}

func (m *mockExecutor) Select(_ context.Context, el Element, start, end int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selects = append(m.selects, [3]int{int(el), start, end})
	e, err := m.get(el)
	if err != nil {
		return err
	}
	e.selStart, e.selEnd = start, end
	return nil
}

func (m *mockExecutor) SelectAll(_ context.Context, el Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectAlls = append(m.selectAlls, el)
	e, err := m.get(el)
	if err != nil {
		return err
	}
	e.selStart, e.selEnd = 0, len(e.value)
	return nil
}

func (m *mockExecutor) DeleteSelectionContents(_ context.Context, el Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedRange = append(m.deletedRange, el)
	e, err := m.get(el)
	if err != nil {
		return err
	}
	e.value = append(e.value[:e.selStart:e.selStart], e.value[e.selEnd:]...)
	e.selEnd = e.selStart
	return nil
}

func (m *mockExecutor) WatchEditing(_ context.Context, el Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched = append(m.watched, el)
	return nil
}

func (m *mockExecutor) RestartEditingWatch(_ context.Context, el Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restarted = append(m.restarted, el)
	return nil
}

func (m *mockExecutor) DispatchKeyEvent(_ context.Context, el Element, data schemas.KeyEventData) (bool, error) {
	m.mu.Lock()
	m.keyEvents = append(m.keyEvents, keyEvent{target: el, data: data})
	override := m.MockDispatchKeyEvent
	err := m.returnErr
	m.mu.Unlock()

	if err != nil {
		return false, err
	}
	if override != nil {
		return override(el, data), nil
	}
	return true, nil
}

func (m *mockExecutor) TypeChar(_ context.Context, el Element, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertions = append(m.insertions, insertion{target: el, text: text})
	e, err := m.get(el)
	if err != nil {
		return err
	}
	runes := []rune(text)
	tail := append([]rune(nil), e.value[e.selEnd:]...)
	e.value = append(append(e.value[:e.selStart:e.selStart], runes...), tail...)
	e.selStart += len(runes)
	e.selEnd = e.selStart
	return nil
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	return nil
}

var errExecutorFailed = errors.New("executor failed")
