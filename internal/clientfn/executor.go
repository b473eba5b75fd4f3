// internal/clientfn/executor.go
package clientfn

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/runerr"
)

// Executor runs client function commands in a Runtime.
type Executor struct {
	runtime *Runtime
	logger  *zap.Logger
}

func NewExecutor(runtime *Runtime, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{runtime: runtime, logger: logger.Named("clientfn")}
}

// NewCommandReplicator returns the replicator for values of one command.
// Nodes are tagged with the command's call site.
func NewCommandReplicator(instantiationCallsiteName string) *Replicator {
	return NewReplicator(NodeTransform(instantiationCallsiteName), FunctionTransform())
}

// Result decodes the command's scope and arguments, calls the function and
// returns its raw result. Errors that are not already typed are wrapped as
// uncaught errors in client function code.
func (e *Executor) Result(ctx context.Context, cmd *commands.ExecuteClientFunctionCommand, rep *Replicator) (interface{}, error) {
	result, err := e.call(ctx, cmd, rep)
	if err != nil {
		if runerr.IsTyped(err) {
			return nil, err
		}
		return nil, runerr.NewUncaughtErrorInClientFunction(cmd.InstantiationCallsiteName, err)
	}
	return result, nil
}

func (e *Executor) call(ctx context.Context, cmd *commands.ExecuteClientFunctionCommand, rep *Replicator) (interface{}, error) {
	scope, err := rep.Decode(cmd.ScopeVars)
	if err != nil {
		return nil, err
	}
	scopeVars, _ := scope.(map[string]interface{})

	fn, err := e.runtime.Compile(ctx, cmd.FnCode, scopeVars)
	if err != nil {
		return nil, err
	}

	decoded, err := rep.Decode(cmd.Args)
	if err != nil {
		return nil, err
	}
	args, _ := decoded.([]interface{})

	return fn.Call(ctx, args)
}

// Execute runs the command and wraps the outcome in a driver status. The
// result is encoded for the trip back.
func (e *Executor) Execute(ctx context.Context, cmd *commands.ExecuteClientFunctionCommand) *schemas.DriverStatus {
	rep := NewCommandReplicator(cmd.InstantiationCallsiteName)

	result, err := e.Result(ctx, cmd, rep)
	if err == nil {
		result, err = rep.Encode(result)
		if err != nil {
			err = runerr.NewUncaughtErrorInClientFunction(cmd.InstantiationCallsiteName, fmt.Errorf("failed to encode result: %w", err))
		}
	}
	if err != nil {
		typed, _ := runerr.As(err)
		e.logger.Debug("Client function failed.",
			zap.String("callsite", cmd.InstantiationCallsiteName),
			zap.String("type", string(typed.Type)))
		return schemas.NewErrorStatus(typed)
	}
	return schemas.NewResultStatus(result)
}
