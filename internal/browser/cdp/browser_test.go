// internal/browser/cdp/browser_test.go
package cdp_test

import (
	"context"
	"net/url"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/brewer/internal/browser/cdp"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/driver"
)

const fixture = `<html><body>
<input id="name" value="">
<textarea id="notes">one
two</textarea>
<div id="hidden" style="display:none"><span class="item">a</span></div>
<span class="item">b</span>
</body></html>`

// findChrome returns a browser binary from PATH or skips the test.
func findChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome or Chromium binary found in PATH")
	return ""
}

func setupBrowserDriver(t *testing.T) *driver.Driver {
	t.Helper()
	page := setupBrowserPage(t, fixture)
	return driver.New(page, cdp.NewFunctions(page, 10*time.Second), driver.Config{ScreenshotDir: t.TempDir()}, zaptest.NewLogger(t))
}

// setupBrowserPage opens html in a fresh headless browser.
func setupBrowserPage(t *testing.T, html string) *cdp.Page {
	t.Helper()
	execPath := findChrome(t)
	logger := zaptest.NewLogger(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	b, err := cdp.Launch(ctx, cdp.Options{
		Headless:          true,
		ExecPath:          execPath,
		UserDataDir:       t.TempDir(),
		NavigationTimeout: 20 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	page, closeTab, err := b.NewTab(ctx)
	require.NoError(t, err)
	t.Cleanup(closeTab)

	require.NoError(t, page.Navigate(ctx, "data:text/html,"+url.PathEscape(html)))
	return page
}

func TestBrowser_TypeAndReadBack(t *testing.T) {
	d := setupBrowserDriver(t)
	cmds, err := commands.NewFactory(nil, nil, nil, nil).FromJSONList([]byte(`[
		{"type": "type-text", "selector": "#name", "text": "hello"},
		{"type": "select-text-area-content", "selector": "#notes", "startLine": 1, "endLine": 1},
		{"type": "execute-client-function", "instantiationCallsiteName": "ClientFunction",
		 "fnCode": "function () { var n = document.querySelector('#notes'); return [document.querySelector('#name').value, n.selectionStart, n.selectionEnd]; }",
		 "args": [], "scopeVars": {}}
	]`))
	require.NoError(t, err)

	statuses := d.Run(context.Background(), cmds)
	require.Len(t, statuses, 3)
	for _, s := range statuses {
		require.False(t, s.Failed(), "unexpected error: %v", s.ExecutionError)
	}
	assert.Equal(t, []interface{}{"hello", float64(4), float64(7)}, statuses[2].Result)
}

func TestBrowser_ClientFunctionErrors(t *testing.T) {
	d := setupBrowserDriver(t)

	status := d.Execute(context.Background(), &commands.ExecuteClientFunctionCommand{
		Type:                      "execute-client-function",
		InstantiationCallsiteName: "ClientFunction",
		FnCode:                    "function () { throw new Error('boom'); }",
	})
	require.True(t, status.Failed())
	assert.Contains(t, status.ExecutionError.ErrMsg, "boom")
}

func TestBrowser_HoverSkipScrolling(t *testing.T) {
	page := setupBrowserPage(t, `<html><body><div style="height:5000px"></div><a id="far">far</a></body></html>`)
	fns := cdp.NewFunctions(page, 10*time.Second)
	ctx := context.Background()

	sel, err := commands.DefaultResolver{}.Resolve("selector", "#far", commands.SelectorOptions{})
	require.NoError(t, err)
	el, err := page.Resolve(ctx, sel)
	require.NoError(t, err)

	scrollY := func() interface{} {
		status := fns.Execute(ctx, &commands.ExecuteClientFunctionCommand{
			Type:                      "execute-client-function",
			InstantiationCallsiteName: "ClientFunction",
			FnCode:                    "function () { return window.scrollY; }",
		})
		require.False(t, status.Failed(), "unexpected error: %v", status.ExecutionError)
		return status.Result
	}

	opts := commands.MoveOptionsFor(commands.MouseOptions{})
	opts.SkipScrolling = true
	require.NoError(t, page.Hover(ctx, el, opts))
	assert.Equal(t, float64(0), scrollY())

	require.NoError(t, page.Hover(ctx, el, commands.MoveOptionsFor(commands.MouseOptions{})))
	assert.NotEqual(t, float64(0), scrollY())
}
