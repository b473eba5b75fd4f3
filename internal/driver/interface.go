// internal/driver/interface.go
package driver

import (
	"context"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/automation/typing"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/devices"
)

// Page is the browser side the driver executes commands against.
// Operations a backend cannot perform return an error wrapping
// errors.ErrUnsupported.
type Page interface {
	typing.Executor

	// Resolve returns the first element the selector matches, or
	// typing.NoElement when nothing matches.
	Resolve(ctx context.Context, sel *commands.ResolvedSelector) (typing.Element, error)
	ClickButton(ctx context.Context, el typing.Element, button schemas.MouseButton, clickCount int, opts commands.ClickOptions) error
	Hover(ctx context.Context, el typing.Element, opts commands.MoveOptions) error
	Value(ctx context.Context, el typing.Element) (string, error)

	Navigate(ctx context.Context, url string) error
	SetFiles(ctx context.Context, el typing.Element, paths []string) error
	ClearFiles(ctx context.Context, el typing.Element) error
	Screenshot(ctx context.Context, path string) error
	Resize(ctx context.Context, width, height int) error
}

// DeviceEmulator is implemented by pages that can emulate more of a device
// than its viewport size.
type DeviceEmulator interface {
	EmulateDevice(ctx context.Context, dev devices.Device, portrait bool) error
}

// ClientFunctionRunner executes client functions in the page's scope.
type ClientFunctionRunner interface {
	Execute(ctx context.Context, cmd *commands.ExecuteClientFunctionCommand) *schemas.DriverStatus
}
