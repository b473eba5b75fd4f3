// internal/browser/cdp/functions.go
package cdp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/clientfn"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/runerr"
)

// Functions runs client functions in the page's main world. Arguments,
// scope variables and results cross the protocol in replicated form and are
// decoded and encoded by the page registry.
type Functions struct {
	page    *Page
	timeout time.Duration
	logger  *zap.Logger
}

func NewFunctions(p *Page, timeout time.Duration) *Functions {
	return &Functions{page: p, timeout: timeout, logger: p.logger.Named("clientfn")}
}

// Execute evaluates the command's function and wraps the encoded result.
func (f *Functions) Execute(ctx context.Context, cmd *commands.ExecuteClientFunctionCommand) *schemas.DriverStatus {
	callsite, err := json.Marshal(cmd.InstantiationCallsiteName)
	if err != nil {
		return schemas.NewErrorStatus(runerr.NewUncaughtErrorInClientFunction(cmd.InstantiationCallsiteName, err))
	}
	expr, err := functionExpression(cmd.FnCode, cmd.ScopeVars, cmd.Args,
		fmt.Sprintf("return window.__brewer.encode(result, %s);", callsite))
	if err != nil {
		return schemas.NewErrorStatus(runerr.NewUncaughtErrorInClientFunction(cmd.InstantiationCallsiteName, err))
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var result interface{}
	if err := f.page.run(ctx, chromedp.Evaluate(expr, &result, awaitPromise)); err != nil {
		f.logger.Debug("Client function failed.", zap.String("callsite", cmd.InstantiationCallsiteName), zap.Error(err))
		return schemas.NewErrorStatus(runerr.NewUncaughtErrorInClientFunction(cmd.InstantiationCallsiteName, exceptionError(err)))
	}
	return schemas.NewResultStatus(result)
}

// functionExpression renders an async expression that decodes the scope
// variables and arguments, awaits the function and then runs tail with the
// awaited value bound to result.
func functionExpression(fnCode string, scopeVars map[string]interface{}, args []interface{}, tail string) (string, error) {
	if scopeVars == nil {
		scopeVars = map[string]interface{}{}
	}
	if args == nil {
		args = []interface{}{}
	}
	wrapper, _, err := clientfn.WrapperSource(fnCode, scopeVars)
	if err != nil {
		return "", err
	}
	scope, err := json.Marshal(scopeVars)
	if err != nil {
		return "", fmt.Errorf("failed to encode scope variables: %w", err)
	}
	argv, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode arguments: %w", err)
	}
	return fmt.Sprintf("(async function(){var fn=%s(window.__brewer.decode(%s));"+
		"if(typeof fn!=='function')throw new Error('client function code does not evaluate to a function');"+
		"var result=await fn.apply(window,window.__brewer.decode(%s));%s})()",
		wrapper, scope, argv, tail), nil
}

// exceptionError reduces a thrown page exception to its message.
func exceptionError(err error) error {
	var exp *runtime.ExceptionDetails
	if !errors.As(err, &exp) {
		return err
	}
	if exp.Exception != nil && exp.Exception.Description != "" {
		return errors.New(exp.Exception.Description)
	}
	return errors.New(exp.Text)
}
