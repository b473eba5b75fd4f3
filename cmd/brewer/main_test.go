// cmd/brewer/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(fmt.Errorf("run: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestHandlePanic(t *testing.T) {
	origExit, origWrite := osExit, osWriteFile
	t.Cleanup(func() { osExit, osWriteFile = origExit, origWrite })

	var (
		code    int
		written string
	)
	osExit = func(c int) { code = c }
	osWriteFile = func(name string, data []byte, perm os.FileMode) error {
		assert.Equal(t, panicLogFile, name)
		written = string(data)
		return nil
	}

	func() {
		defer handlePanic()
		panic("kaboom")
	}()

	assert.Equal(t, 2, code)
	require.Contains(t, written, "panic: kaboom")
	assert.Contains(t, written, "goroutine")
}

func TestHandlePanic_WriteFailure(t *testing.T) {
	origExit, origWrite := osExit, osWriteFile
	t.Cleanup(func() { osExit, osWriteFile = origExit, origWrite })

	code := -1
	osExit = func(c int) { code = c }
	osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only filesystem") }

	func() {
		defer handlePanic()
		panic("kaboom")
	}()
	assert.Equal(t, 2, code)
}

func TestMain_ExitsWithCommandStatus(t *testing.T) {
	origExit, origExecute := osExit, execute
	t.Cleanup(func() { osExit, execute = origExit, origExecute })

	code := -1
	osExit = func(c int) { code = c }
	execute = func(ctx context.Context) error { return errors.New("failed") }

	main()
	assert.Equal(t, 1, code)
}
