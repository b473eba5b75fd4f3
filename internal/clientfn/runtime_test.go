// internal/clientfn/runtime_test.go
package clientfn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/runerr"
)

func newTestRuntime(t *testing.T, globals map[string]interface{}) *Runtime {
	t.Helper()
	rt, err := NewRuntime(zaptest.NewLogger(t), time.Second, globals)
	require.NoError(t, err)
	return rt
}

func call(t *testing.T, rt *Runtime, fnCode string, scope map[string]interface{}, args ...interface{}) (interface{}, error) {
	t.Helper()
	ctx := context.Background()
	fn, err := rt.Compile(ctx, fnCode, scope)
	if err != nil {
		return nil, err
	}
	return fn.Call(ctx, args)
}

func TestRuntime_ScopeVarsAndArgs(t *testing.T) {
	rt := newTestRuntime(t, nil)

	result, err := call(t, rt, "function (c) { return a + b + c; }", map[string]interface{}{"a": 1, "b": 2.0}, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 6, result)
}

func TestRuntime_ThisIsTheGlobalObject(t *testing.T) {
	rt := newTestRuntime(t, nil)

	result, err := call(t, rt, "function () { return this === window; }", nil)
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestRuntime_ExportsStructuredResults(t *testing.T) {
	rt := newTestRuntime(t, nil)

	result, err := call(t, rt, "function () { return { name: 'x', list: [1, 'two', null], inner: { ok: true }, fn: function () { return 1; } }; }", nil)
	require.NoError(t, err)

	obj, ok := result.(map[string]interface{})
	require.True(t, ok, "got %T", result)
	assert.Equal(t, "x", obj["name"])
	assert.Equal(t, []interface{}{int64(1), "two", nil}, obj["list"])
	assert.Equal(t, map[string]interface{}{"ok": true}, obj["inner"])
	fn, ok := obj["fn"].(*ClientFunction)
	require.True(t, ok)
	assert.Contains(t, fn.Code, "return 1;")
}

func TestRuntime_RevivesFunctionArguments(t *testing.T) {
	rt := newTestRuntime(t, nil)

	result, err := call(t, rt, "function (f) { return f(5); }", nil, &ClientFunction{Code: "function (n) { return n + 1; }"})
	require.NoError(t, err)
	assert.EqualValues(t, 6, result)
}

func TestRuntime_Promises(t *testing.T) {
	rt := newTestRuntime(t, nil)

	result, err := call(t, rt, "async function () { var v = await Promise.resolve(7); return v * 2; }", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 14, result)

	_, err = call(t, rt, "async function () { throw new Error('nope'); }", nil)
	var exc *Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "Error: nope", exc.Message)

	_, err = call(t, rt, "function () { return new Promise(function () {}); }", nil)
	assert.ErrorIs(t, err, ErrPendingPromise)
}

func TestRuntime_Exceptions(t *testing.T) {
	rt := newTestRuntime(t, nil)

	_, err := call(t, rt, "function () { throw new Error('boom'); }", nil)
	var exc *Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "Error: boom", exc.Error())
	assert.Nil(t, errors.Unwrap(exc))
}

func TestRuntime_HostErrorsKeepTheirType(t *testing.T) {
	rt := newTestRuntime(t, map[string]interface{}{
		"findElement": func(selector string) (interface{}, error) {
			return nil, runerr.NewElementNotFoundError(selector)
		},
	})

	_, err := call(t, rt, "function () { return findElement('#missing'); }", nil)
	typed, ok := runerr.As(err)
	require.True(t, ok, "expected a typed error, got %v", err)
	assert.Equal(t, runerr.KindElementNotFound, typed.Type)
	assert.Equal(t, "#missing", typed.SelectorName)
}

func TestRuntime_HostObjects(t *testing.T) {
	node := schemas.NewNodeSnapshot("DIV")
	rt := newTestRuntime(t, map[string]interface{}{
		"getNode": func() *schemas.NodeSnapshot { return node },
	})

	result, err := call(t, rt, "function () { return getNode(); }", nil)
	require.NoError(t, err)
	assert.Same(t, node, result)

	result, err = call(t, rt, "function () { return getNode().tagName; }", nil)
	require.NoError(t, err)
	assert.Equal(t, "DIV", result)
}

func TestRuntime_CompileErrors(t *testing.T) {
	rt := newTestRuntime(t, nil)
	ctx := context.Background()

	_, err := rt.Compile(ctx, "function ( {", nil)
	assert.Error(t, err)

	_, err = rt.Compile(ctx, "42", nil)
	assert.ErrorContains(t, err, "not a function")

	_, err = rt.Compile(ctx, "function () {}", map[string]interface{}{"bad-name": 1})
	assert.ErrorContains(t, err, "invalid scope variable name")
}

func TestRuntime_InterruptedByContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	rt := newTestRuntime(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fn, err := rt.Compile(ctx, "function () { while (true) {} }", nil)
	require.NoError(t, err)
	_, err = fn.Call(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The runtime stays usable.
	result, err := call(t, rt, "function () { return 'alive'; }", nil)
	require.NoError(t, err)
	assert.Equal(t, "alive", result)
}
