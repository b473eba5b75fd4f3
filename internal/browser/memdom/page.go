// internal/browser/memdom/page.go
package memdom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/brewer/internal/automation/typing"
)

// Sleep waits for dur or until ctx is done.
func (d *Document) Sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Navigate is not available offline.
func (d *Document) Navigate(_ context.Context, url string) error {
	return fmt.Errorf("navigate to %s: %w", url, errors.ErrUnsupported)
}

// Screenshot is not available offline; there is nothing rendered.
func (d *Document) Screenshot(_ context.Context, _ string) error {
	return fmt.Errorf("screenshot: %w", errors.ErrUnsupported)
}

func (d *Document) Resize(_ context.Context, width, height int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = Viewport{Width: width, Height: height}
	d.emit("resize", typing.NoElement, fmt.Sprintf("%dx%d", width, height))
	return nil
}

func (d *Document) Viewport() Viewport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// SetFiles attaches paths to a file input.
func (d *Document) SetFiles(_ context.Context, el typing.Element, paths []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fileInput(el); err != nil {
		return err
	}
	d.files[el] = append([]string(nil), paths...)
	d.emit("change", el, strings.Join(paths, ","))
	return nil
}

func (d *Document) ClearFiles(_ context.Context, el typing.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fileInput(el); err != nil {
		return err
	}
	if len(d.files[el]) > 0 {
		delete(d.files, el)
		d.emit("change", el, "")
	}
	return nil
}

// Files returns the paths attached to a file input.
func (d *Document) Files(el typing.Element) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files[el]...)
}

func (d *Document) fileInput(el typing.Element) error {
	n, err := d.node(el)
	if err != nil {
		return err
	}
	if t, _ := attr(n, "type"); n.DataAtom != atom.Input || !strings.EqualFold(t, "file") {
		return fmt.Errorf("<%s> is not a file input", n.Data)
	}
	return nil
}
