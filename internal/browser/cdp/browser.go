// internal/browser/cdp/browser.go
package cdp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 10 * time.Second

// Options configure the browser process.
type Options struct {
	Headless bool
	// ExecPath overrides chromedp's browser discovery.
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	// Args are extra command line switches, "name" or "name=value", with or
	// without leading dashes.
	Args []string
	// UserDataDir is a profile directory; chromedp creates a temporary one
	// when empty.
	UserDataDir       string
	NavigationTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Browser owns one Chrome process. Tabs are opened on demand and share it.
type Browser struct {
	opts   Options
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	// browserCtx keeps the process alive between tabs.
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu   sync.Mutex
	tabs int
}

// Launch starts the browser. It is stopped by Close or when ctx ends.
func Launch(ctx context.Context, opts Options, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Browser{opts: opts, logger: logger.Named("browser")}

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(b.logger.Sugar().Debugf),
		chromedp.WithErrorf(b.logger.Sugar().Errorf))

	// The first Run starts the process.
	if err := chromedp.Run(b.browserCtx); err != nil {
		b.browserCancel()
		b.allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	b.logger.Info("Browser started.", zap.Bool("headless", opts.Headless))
	return b, nil
}

// allocatorOptions extends chromedp's defaults with the switches the
// automation needs.
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("enable-automation", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	for _, arg := range opts.Args {
		key, value := parseArg(arg)
		if key == "" {
			continue
		}
		if value == "" {
			allocOpts = append(allocOpts, chromedp.Flag(key, true))
		} else {
			allocOpts = append(allocOpts, chromedp.Flag(key, value))
		}
	}
	return allocOpts
}

// parseArg splits "--name=value" into its name and value.
func parseArg(arg string) (string, string) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	key, value, _ := strings.Cut(arg, "=")
	return key, value
}

// NewTab opens a tab and prepares it for automation. The returned cancel
// func closes the tab.
func (b *Browser) NewTab(ctx context.Context) (*Page, context.CancelFunc, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	stop := context.AfterFunc(ctx, tabCancel)

	p, err := NewPage(tabCtx, b.opts.NavigationTimeout, b.logger)
	if err != nil {
		stop()
		tabCancel()
		return nil, nil, err
	}

	b.mu.Lock()
	b.tabs++
	b.mu.Unlock()

	var once sync.Once
	return p, func() {
		once.Do(func() {
			stop()
			tabCancel()
			b.mu.Lock()
			b.tabs--
			b.mu.Unlock()
		})
	}, nil
}

// Close shuts the browser down, waiting at most the shutdown timeout for
// the process to exit.
func (b *Browser) Close() error {
	timeout := b.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	b.mu.Lock()
	open := b.tabs
	b.mu.Unlock()
	b.logger.Debug("Shutting down browser.", zap.Int("open_tabs", open))

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Cancel(b.browserCtx)
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(timeout):
		err = fmt.Errorf("browser did not exit within %s", timeout)
	}
	b.browserCancel()
	b.allocCancel()
	if err != nil && err != context.Canceled {
		b.logger.Warn("Browser shutdown was not clean.", zap.Error(err))
		return err
	}
	return nil
}
