// internal/driver/driver_test.go
package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/browser/memdom"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/runerr"
)

const page = `<html><body>
<input id="name" value="Pe">
<textarea id="notes">line1
line2
line3</textarea>
<input id="upload" type="file" hidden>
<a id="link" href="#">link</a>
</body></html>`

func setupDriver(t *testing.T) (*Driver, *memdom.Document) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	doc, err := memdom.Parse(page, memdom.Config{}, logger)
	require.NoError(t, err)
	return New(doc, doc.ClientFunctions(), Config{ScreenshotDir: t.TempDir()}, logger), doc
}

func mustCommands(t *testing.T, records string) []commands.Command {
	t.Helper()
	cmds, err := commands.NewFactory(nil, nil, nil, nil).FromJSONList([]byte(records))
	require.NoError(t, err)
	return cmds
}

func TestDriver_TypeSelectAndRead(t *testing.T) {
	d, doc := setupDriver(t)
	ctx := context.Background()

	statuses := d.Run(ctx, mustCommands(t, `[
		{"type": "type-text", "selector": "#name", "text": "Peter", "options": {"replace": true}},
		{"type": "select-text", "selector": "#name", "startPos": 1, "endPos": 3},
		{"type": "execute-client-function", "instantiationCallsiteName": "ClientFunction",
		 "fnCode": "function () { return document.querySelector('#name').value; }", "args": [], "scopeVars": {}}
	]`))

	require.Len(t, statuses, 3)
	for _, s := range statuses {
		require.False(t, s.Failed(), "unexpected error: %v", s.ExecutionError)
	}
	assert.Equal(t, "Peter", statuses[2].Result)

	name, err := doc.Query("#name")
	require.NoError(t, err)
	start, end, err := doc.Selection(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, []int{start, end})
}

func TestDriver_SelectTextDefaults(t *testing.T) {
	d, doc := setupDriver(t)
	ctx := context.Background()

	status := d.Execute(ctx, mustCommands(t, `[{"type": "select-text", "selector": "#name"}]`)[0])
	require.False(t, status.Failed())

	name, err := doc.Query("#name")
	require.NoError(t, err)
	start, end, err := doc.Selection(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, []int{start, end})
}

func TestDriver_SelectTextAreaContent(t *testing.T) {
	d, doc := setupDriver(t)
	ctx := context.Background()
	notes, err := doc.Query("#notes")
	require.NoError(t, err)

	tests := []struct {
		name      string
		record    string
		wantStart int
		wantEnd   int
	}{
		{"explicit bounds", `{"type": "select-text-area-content", "selector": "#notes", "startLine": 0, "startPos": 2, "endLine": 1, "endPos": 3}`, 2, 9},
		{"whole value", `{"type": "select-text-area-content", "selector": "#notes"}`, 0, 17},
		{"to end of line", `{"type": "select-text-area-content", "selector": "#notes", "startLine": 2, "endLine": 2}`, 12, 17},
		{"clamped", `{"type": "select-text-area-content", "selector": "#notes", "startLine": 1, "startPos": 40, "endLine": 9}`, 11, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := d.Execute(ctx, mustCommands(t, "["+tt.record+"]")[0])
			require.False(t, status.Failed(), "unexpected error: %v", status.ExecutionError)
			start, end, err := doc.Selection(ctx, notes)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.wantStart, tt.wantEnd}, []int{start, end})
		})
	}
}

func TestDriver_ElementNotFoundStopsTheRun(t *testing.T) {
	d, _ := setupDriver(t)

	statuses := d.Run(context.Background(), mustCommands(t, `[
		{"type": "click", "selector": "#missing"},
		{"type": "type-text", "selector": "#name", "text": "x"}
	]`))

	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Failed())
	assert.Equal(t, runerr.KindElementNotFound, statuses[0].ExecutionError.Type)
	assert.Equal(t, "#missing", statuses[0].ExecutionError.SelectorName)
}

func TestDriver_UnsupportedCommands(t *testing.T) {
	d, _ := setupDriver(t)
	ctx := context.Background()

	for _, record := range []string{
		`{"type": "navigate-to", "url": "http://example.com"}`,
		`{"type": "press-key", "keys": "enter"}`,
		`{"type": "take-screenshot"}`,
		`{"type": "drag", "selector": "#link", "dragOffsetX": 1, "dragOffsetY": 1}`,
	} {
		cmd := mustCommands(t, "["+record+"]")[0]
		status := d.Execute(ctx, cmd)
		require.True(t, status.Failed(), record)
		assert.Equal(t, runerr.KindUnsupportedByDriver, status.ExecutionError.Type, record)
		assert.Equal(t, string(cmd.CommandType()), status.ExecutionError.CommandType)
	}
}

func TestDriver_ClientFunctionsWithoutRunner(t *testing.T) {
	doc, err := memdom.Parse(page, memdom.Config{}, nil)
	require.NoError(t, err)
	d := New(doc, nil, Config{}, nil)

	status := d.Execute(context.Background(), &commands.ExecuteClientFunctionCommand{
		Type:   schemas.CommandExecuteClientFunction,
		FnCode: "function () {}",
	})
	require.True(t, status.Failed())
	assert.Equal(t, runerr.KindUnsupportedByDriver, status.ExecutionError.Type)
}

func TestDriver_PageErrorsAreUncaught(t *testing.T) {
	d, _ := setupDriver(t)

	// The factory accepts any selector for uploads; the page rejects it.
	status := d.Execute(context.Background(), mustCommands(t, `[{"type": "set-files-to-upload", "selector": "#name", "filePath": "a.txt"}]`)[0])

	require.True(t, status.Failed())
	assert.Equal(t, runerr.KindUncaughtOnPage, status.ExecutionError.Type)
	assert.Contains(t, status.ExecutionError.ErrMsg, "not a file input")
}

func TestDriver_Uploads(t *testing.T) {
	d, doc := setupDriver(t)
	ctx := context.Background()
	upload, err := doc.Query("#upload")
	require.NoError(t, err)

	statuses := d.Run(ctx, mustCommands(t, `[
		{"type": "set-files-to-upload", "selector": "#upload", "filePath": ["a.txt", "b.txt"]}
	]`))
	require.False(t, statuses[0].Failed(), "hidden file inputs are still targets")
	assert.Equal(t, []string{"a.txt", "b.txt"}, doc.Files(upload))

	statuses = d.Run(ctx, mustCommands(t, `[{"type": "clear-upload", "selector": "#upload"}]`))
	require.False(t, statuses[0].Failed())
	assert.Empty(t, doc.Files(upload))
}

func TestDriver_Resize(t *testing.T) {
	d, doc := setupDriver(t)
	ctx := context.Background()

	statuses := d.Run(ctx, mustCommands(t, `[{"type": "resize-window", "width": 800, "height": 600}]`))
	require.False(t, statuses[0].Failed())
	assert.Equal(t, memdom.Viewport{Width: 800, Height: 600}, doc.Viewport())

	statuses = d.Run(ctx, mustCommands(t, `[{"type": "resize-window-to-fit-device", "device": "iPhone 6"}]`))
	require.False(t, statuses[0].Failed())
	assert.Equal(t, memdom.Viewport{Width: 667, Height: 375}, doc.Viewport())

	statuses = d.Run(ctx, mustCommands(t, `[{"type": "resize-window-to-fit-device", "device": "iphone6", "options": {"portraitOrientation": true}}]`))
	require.False(t, statuses[0].Failed())
	assert.Equal(t, memdom.Viewport{Width: 375, Height: 667}, doc.Viewport())
}

func TestDriver_PointerCommands(t *testing.T) {
	d, doc := setupDriver(t)
	ctx := context.Background()

	statuses := d.Run(ctx, mustCommands(t, `[
		{"type": "double-click", "selector": "#link"},
		{"type": "hover", "selector": "#link"},
		{"type": "right-click", "selector": "#link"},
		{"type": "wait", "timeout": 1}
	]`))
	require.Len(t, statuses, 4)
	for _, s := range statuses {
		require.False(t, s.Failed(), "unexpected error: %v", s.ExecutionError)
	}

	link, err := doc.Query("#link")
	require.NoError(t, err)
	var types []string
	for _, e := range doc.Events() {
		if e.Target == link {
			types = append(types, e.Type)
		}
	}
	assert.Equal(t, []string{
		"mousedown", "focus", "mouseup", "click", "mousedown", "mouseup", "click", "dblclick",
		"mouseover", "mousemove",
		"mousedown", "mouseup", "contextmenu",
	}, types)
}

func TestDriver_ResultsSerialize(t *testing.T) {
	d, _ := setupDriver(t)

	status := d.Execute(context.Background(), mustCommands(t, `[{"type": "click", "selector": "#nope"}]`)[0])
	data, err := status.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"isCommandResult": true, "executionError": {
		"isTestCafeError": true, "type": "actionElementNotFoundError", "callsite": null, "selectorName": "#nope"}}`, string(data))
}
