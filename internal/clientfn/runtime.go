// internal/clientfn/runtime.go
package clientfn

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a client function call whose context has no deadline.
const DefaultTimeout = 30 * time.Second

// maxExportDepth stops the export of self-referencing results.
const maxExportDepth = 64

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// ErrPendingPromise is returned when a function's promise is still pending
// after the job queue drained.
var ErrPendingPromise = errors.New("client function promise did not settle")

// Exception is a value thrown by client function code.
type Exception struct {
	Message string
	cause   error
}

func (e *Exception) Error() string { return e.Message }

// Unwrap exposes Go errors raised by host functions the code called.
func (e *Exception) Unwrap() error { return e.cause }

// Runtime is the page global execution context client functions run in. It
// is safe for concurrent use; calls are serialized.
type Runtime struct {
	vm      *goja.Runtime
	mu      sync.Mutex
	logger  *zap.Logger
	timeout time.Duration
}

// NewRuntime creates a Runtime whose global object carries globals.
func NewRuntime(logger *zap.Logger, timeout time.Duration, globals map[string]interface{}) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Runtime{
		vm:      goja.New(),
		logger:  logger.Named("clientfn"),
		timeout: timeout,
	}
	r.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	for name, val := range globals {
		if err := r.vm.Set(name, val); err != nil {
			return nil, fmt.Errorf("failed to define global %q: %w", name, err)
		}
	}
	if err := r.vm.Set("window", r.vm.GlobalObject()); err != nil {
		return nil, err
	}
	return r, nil
}

// WrapperSource returns the source of a factory that takes an object of
// scope variables and returns the client function with those variables in
// scope. names lists the variables in the order they are bound.
func WrapperSource(fnCode string, scopeVars map[string]interface{}) (src string, names []string, err error) {
	names = make([]string, 0, len(scopeVars))
	for name := range scopeVars {
		if !identifierRe.MatchString(name) {
			return "", nil, fmt.Errorf("invalid scope variable name %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("(function(__dependencies$){")
	for _, name := range names {
		fmt.Fprintf(&sb, "var %s=__dependencies$.%s;", name, name)
	}
	sb.WriteString("return (")
	sb.WriteString(fnCode)
	sb.WriteString(");})")
	return sb.String(), names, nil
}

// Function is a compiled client function bound to its scope variables.
type Function struct {
	rt *Runtime
	fn goja.Callable
}

// Compile evaluates fnCode with scopeVars visible as free variables.
func (r *Runtime) Compile(ctx context.Context, fnCode string, scopeVars map[string]interface{}) (*Function, error) {
	src, names, err := WrapperSource(fnCode, scopeVars)
	if err != nil {
		return nil, err
	}

	var fn goja.Callable
	err = r.guard(ctx, func() error {
		prog, err := goja.Compile("client-function", src, false)
		if err != nil {
			return err
		}
		factoryVal, err := r.vm.RunProgram(prog)
		if err != nil {
			return err
		}
		factory, ok := goja.AssertFunction(factoryVal)
		if !ok {
			return errors.New("client function wrapper is not callable")
		}

		deps := r.vm.NewObject()
		for _, name := range names {
			val, err := r.toValue(scopeVars[name])
			if err != nil {
				return err
			}
			if err := deps.Set(name, val); err != nil {
				return err
			}
		}

		fnVal, err := factory(goja.Undefined(), deps)
		if err != nil {
			return err
		}
		if fn, ok = goja.AssertFunction(fnVal); !ok {
			return fmt.Errorf("client function code evaluates to %s, not a function", fnVal.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Function{rt: r, fn: fn}, nil
}

// Call invokes the function with the global object as this. Promises are
// settled before returning; the result is exported to plain Go values,
// with functions as *ClientFunction.
func (f *Function) Call(ctx context.Context, args []interface{}) (interface{}, error) {
	r := f.rt
	var result interface{}
	err := r.guard(ctx, func() error {
		jsArgs := make([]goja.Value, len(args))
		for i, arg := range args {
			val, err := r.toValue(arg)
			if err != nil {
				return err
			}
			jsArgs[i] = val
		}

		ret, err := f.fn(r.vm.GlobalObject(), jsArgs...)
		if err != nil {
			return err
		}

		if promise, ok := ret.Export().(*goja.Promise); ok {
			switch promise.State() {
			case goja.PromiseStateFulfilled:
				ret = promise.Result()
			case goja.PromiseStateRejected:
				return rejection(promise.Result())
			default:
				return ErrPendingPromise
			}
		}

		result, err = r.export(ret, 0)
		return err
	})
	return result, err
}

// guard runs fn with the VM locked and interruptible by ctx.
func (r *Runtime) guard(ctx context.Context, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	err := fn()
	close(done)
	wg.Wait()
	r.vm.ClearInterrupt()

	return r.translate(ctx, err)
}

func (r *Runtime) translate(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("client function interrupted: %w", ctx.Err())
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		r.logger.Debug("Client function threw.", zap.String("exception", exc.Value().String()))
		return &Exception{Message: exc.Value().String(), cause: exc.Unwrap()}
	}
	return err
}

func rejection(reason goja.Value) error {
	msg := "undefined"
	var cause error
	if reason != nil {
		msg = reason.String()
		cause, _ = reason.Export().(error)
	}
	return &Exception{Message: msg, cause: cause}
}

// toValue converts a decoded value into a VM value, reviving functions.
func (r *Runtime) toValue(val interface{}) (goja.Value, error) {
	switch v := val.(type) {
	case *ClientFunction:
		fnVal, err := r.vm.RunString("(" + v.Code + ")")
		if err != nil {
			return nil, fmt.Errorf("failed to revive function: %w", err)
		}
		return fnVal, nil
	case map[string]interface{}:
		obj := r.vm.NewObject()
		for k, item := range v {
			itemVal, err := r.toValue(item)
			if err != nil {
				return nil, err
			}
			if err := obj.Set(k, itemVal); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			itemVal, err := r.toValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = itemVal
		}
		return r.vm.NewArray(items...), nil
	}
	return r.vm.ToValue(val), nil
}

// export converts a VM value into plain Go values.
func (r *Runtime) export(val goja.Value, depth int) (interface{}, error) {
	if depth > maxExportDepth {
		return nil, errors.New("client function result is nested too deeply")
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	obj, ok := val.(*goja.Object)
	if !ok {
		return val.Export(), nil
	}
	if _, isFn := goja.AssertFunction(obj); isFn {
		return &ClientFunction{Code: obj.String()}, nil
	}

	switch obj.ClassName() {
	case "Array":
		length := int(obj.Get("length").ToInteger())
		out := make([]interface{}, length)
		for i := 0; i < length; i++ {
			item, err := r.export(obj.Get(strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case "Object":
		exported := obj.Export()
		if _, plain := exported.(map[string]interface{}); !plain {
			return exported, nil
		}
		out := make(map[string]interface{})
		for _, key := range obj.Keys() {
			item, err := r.export(obj.Get(key), depth+1)
			if err != nil {
				return nil, err
			}
			out[key] = item
		}
		return out, nil
	case "Error":
		return obj.String(), nil
	}
	return obj.Export(), nil
}
