// internal/browser/memdom/document.go
package memdom

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/automation/typing"
	"github.com/xkilldash9x/brewer/internal/clientfn"
	"github.com/xkilldash9x/brewer/internal/commands"
)

// KeyHandler stands in for page scripts listening to keyboard events. It
// returns false to prevent the default action.
type KeyHandler func(el typing.Element, data schemas.KeyEventData) bool

// Event is one entry of the document's event log.
type Event struct {
	Type   string
	Target typing.Element
	// Detail carries the key for keyboard events and the button for mouse
	// events.
	Detail string
}

type Viewport struct {
	Width  int
	Height int
}

type Config struct {
	URL                   string
	Viewport              Viewport
	ClientFunctionTimeout time.Duration
	KeyHandler            KeyHandler
}

// Document is an offline page: a parsed HTML tree with focus, selection and
// value state, driven the way a browser would drive it. It has no layout,
// so every element is treated as rendered at the origin.
type Document struct {
	logger *zap.Logger

	mu         sync.Mutex
	root       *html.Node
	ids        map[*html.Node]typing.Element
	nodes      map[typing.Element]*html.Node
	nextID     typing.Element
	fields     map[typing.Element]*field
	files      map[typing.Element][]string
	snapshots  map[string]typing.Element
	refs       map[typing.Element]string
	focused    typing.Element
	events     []Event
	keyHandler KeyHandler
	url        string
	viewport   Viewport

	runtime   *clientfn.Runtime
	functions *clientfn.Executor
}

var _ typing.Executor = (*Document)(nil)

// New parses r and returns a document ready to be automated.
func New(r io.Reader, cfg Config, logger *zap.Logger) (*Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if cfg.URL == "" {
		cfg.URL = "about:blank"
	}

	d := &Document{
		logger:     logger.Named("memdom"),
		root:       root,
		ids:        make(map[*html.Node]typing.Element),
		nodes:      make(map[typing.Element]*html.Node),
		fields:     make(map[typing.Element]*field),
		files:      make(map[typing.Element][]string),
		snapshots:  make(map[string]typing.Element),
		refs:       make(map[typing.Element]string),
		keyHandler: cfg.KeyHandler,
		url:        cfg.URL,
		viewport:   cfg.Viewport,
	}

	d.runtime, err = clientfn.NewRuntime(logger, cfg.ClientFunctionTimeout, d.globals())
	if err != nil {
		return nil, err
	}
	d.functions = clientfn.NewExecutor(d.runtime, logger)
	return d, nil
}

// Parse is New over an HTML string.
func Parse(src string, cfg Config, logger *zap.Logger) (*Document, error) {
	return New(strings.NewReader(src), cfg, logger)
}

// ClientFunctions returns the executor that runs client functions against
// this document's global scope.
func (d *Document) ClientFunctions() *clientfn.Executor {
	return d.functions
}

// SetKeyHandler replaces the keyboard listener.
func (d *Document) SetKeyHandler(h KeyHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyHandler = h
}

// Events returns a copy of the event log.
func (d *Document) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// HTML renders the current tree, values included.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Query returns the first element matching a CSS selector, or NoElement.
func (d *Document) Query(css string) (typing.Element, error) {
	nodes, err := d.queryAll(css)
	if err != nil || len(nodes) == 0 {
		return typing.NoElement, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idOf(nodes[0]), nil
}

// Resolve runs a selector against the document and returns the first
// match. CSS selectors are matched directly; other selectors run their
// function code in the page scope. NoElement with a nil error means
// nothing matched.
func (d *Document) Resolve(ctx context.Context, sel *commands.ResolvedSelector) (typing.Element, error) {
	if sel == nil {
		return typing.NoElement, nil
	}
	var candidates []typing.Element
	if css, ok := sel.CSS(); ok {
		nodes, err := d.queryAll(css)
		if err != nil {
			return typing.NoElement, err
		}
		d.mu.Lock()
		for _, n := range nodes {
			candidates = append(candidates, d.idOf(n))
		}
		d.mu.Unlock()
	} else {
		var err error
		if candidates, err = d.runSelector(ctx, sel); err != nil {
			return typing.NoElement, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, el := range candidates {
		n := d.nodes[el]
		if n == nil {
			continue
		}
		if sel.VisibilityCheck && !visible(n) {
			continue
		}
		return el, nil
	}
	return typing.NoElement, nil
}

func (d *Document) runSelector(ctx context.Context, sel *commands.ResolvedSelector) ([]typing.Element, error) {
	cmd := &commands.ExecuteClientFunctionCommand{
		Type:                      schemas.CommandExecuteSelector,
		InstantiationCallsiteName: sel.InstantiationCallsiteName,
		FnCode:                    sel.FnCode,
		Args:                      sel.Args,
		ScopeVars:                 sel.ScopeVars,
	}
	result, err := d.functions.Result(ctx, cmd, clientfn.NewCommandReplicator(sel.InstantiationCallsiteName))
	if err != nil {
		return nil, err
	}

	var found []*schemas.NodeSnapshot
	switch v := result.(type) {
	case *schemas.NodeSnapshot:
		found = append(found, v)
	case []interface{}:
		for _, item := range v {
			if node, ok := item.(*schemas.NodeSnapshot); ok {
				found = append(found, node)
			}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	elements := make([]typing.Element, 0, len(found))
	for _, node := range found {
		if el, ok := d.snapshots[node.Ref]; ok {
			elements = append(elements, el)
		}
	}
	return elements, nil
}

func (d *Document) queryAll(css string) ([]*html.Node, error) {
	group, err := cascadia.ParseGroup(css)
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a valid selector: %w", css, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return cascadia.QueryAll(d.root, group), nil
}

// globals builds the page scope client functions see.
func (d *Document) globals() map[string]interface{} {
	document := map[string]interface{}{
		"querySelectorAll": func(css string) ([]interface{}, error) {
			nodes, err := d.queryAll(css)
			if err != nil {
				return nil, err
			}
			return d.snapshotAll(nodes), nil
		},
		"querySelector": func(css string) (interface{}, error) {
			nodes, err := d.queryAll(css)
			if err != nil || len(nodes) == 0 {
				return nil, err
			}
			return d.snapshotAll(nodes[:1])[0], nil
		},
		"getElementById": func(id string) interface{} {
			d.mu.Lock()
			n := findByID(d.root, id)
			d.mu.Unlock()
			if n == nil {
				return nil
			}
			return d.snapshotAll([]*html.Node{n})[0]
		},
		"evaluateXPath": func(expr string) ([]interface{}, error) {
			d.mu.Lock()
			nodes, err := htmlquery.QueryAll(d.root, expr)
			d.mu.Unlock()
			if err != nil {
				return nil, fmt.Errorf("'%s' is not a valid XPath expression: %w", expr, err)
			}
			return d.snapshotAll(elementsOnly(nodes)), nil
		},
	}
	return map[string]interface{}{
		"document": document,
		"location": map[string]interface{}{"href": d.url},
	}
}

func (d *Document) snapshotAll(nodes []*html.Node) []interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.snapshot(n))
	}
	return out
}

// snapshot must be called with mu held. A node keeps the ref of its first
// snapshot.
func (d *Document) snapshot(n *html.Node) *schemas.NodeSnapshot {
	el := d.idOf(n)
	snap := schemas.NewNodeSnapshot(strings.ToUpper(n.Data))
	if len(n.Attr) > 0 {
		snap.Attributes = make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			snap.Attributes[a.Key] = a.Val
		}
	}
	snap.TextContent = textContent(n)
	if f, ok := d.fields[el]; ok {
		snap.Value = string(f.value)
	} else if isTextField(n) {
		snap.Value = initialValue(n)
	}
	snap.Focused = d.focused == el
	if ref, ok := d.refs[el]; ok {
		snap.Ref = ref
	} else {
		d.refs[el] = snap.Ref
		d.snapshots[snap.Ref] = el
	}
	return snap
}

// idOf issues handles on first sight. Must be called with mu held.
func (d *Document) idOf(n *html.Node) typing.Element {
	if el, ok := d.ids[n]; ok {
		return el
	}
	d.nextID++
	d.ids[n] = d.nextID
	d.nodes[d.nextID] = n
	return d.nextID
}

func (d *Document) node(el typing.Element) (*html.Node, error) {
	n, ok := d.nodes[el]
	if !ok {
		return nil, fmt.Errorf("unknown element handle %d", el)
	}
	return n, nil
}

func (d *Document) emit(typ string, target typing.Element, detail string) {
	d.events = append(d.events, Event{Type: typ, Target: target, Detail: detail})
}

// -- tree helpers --

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// setText replaces the children of n with a single text node.
func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func findByID(root *html.Node, id string) *html.Node {
	if root.Type == html.ElementNode {
		if v, ok := attr(root, "id"); ok && v == id {
			return root
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findAtom(root *html.Node, a atom.Atom) *html.Node {
	if root.Type == html.ElementNode && root.DataAtom == a {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findAtom(c, a); found != nil {
			return found
		}
	}
	return nil
}

func elementsOnly(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out
}

// visible reports whether n could be rendered: no hidden attribute or
// display:none on it or its ancestors, and not a hidden input.
func visible(n *html.Node) bool {
	if n.DataAtom == atom.Input {
		if t, _ := attr(n, "type"); strings.EqualFold(t, "hidden") {
			return false
		}
	}
	for c := n; c != nil; c = c.Parent {
		if c.Type != html.ElementNode {
			continue
		}
		if hasAttr(c, "hidden") {
			return false
		}
		if style, ok := attr(c, "style"); ok {
			compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
			if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
				return false
			}
		}
	}
	return true
}
