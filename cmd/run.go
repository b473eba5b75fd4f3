// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/brewer/api/schemas"
	"github.com/xkilldash9x/brewer/internal/browser/cdp"
	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/driver"
)

// errRunFailed is returned when at least one command failed.
var errRunFailed = errors.New("one or more runs failed")

// runReport is the outcome of one command file.
type runReport struct {
	File     string                  `json:"file"`
	Passed   bool                    `json:"passed"`
	Statuses []*schemas.DriverStatus `json:"statuses"`
}

func newRunCmd(a *app) *cobra.Command {
	var (
		headless    bool
		concurrency int
		execPath    string
	)
	runCmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Execute command lists in Chrome",
		Long: `Run validates every command file and executes each one in its own browser
tab. Files run concurrently up to the configured limit; a run stops at its
first failing command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("headless") {
				a.cfg.SetBrowserHeadless(headless)
			}
			if cmd.Flags().Changed("concurrency") {
				a.cfg.SetBrowserConcurrency(concurrency)
			}
			if cmd.Flags().Changed("exec-path") {
				a.cfg.SetBrowserExecPath(execPath)
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			lists, err := a.loadAll(cmd, args)
			if err != nil {
				return err
			}

			b, err := cdp.Launch(cmd.Context(), a.cfg.Browser().Options(), a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := b.Close(); err != nil {
					a.logger.Warn("Failed to close browser.", zap.Error(err))
				}
			}()

			reports, err := a.runAll(cmd.Context(), b, args, lists)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd, reports); err != nil {
				return err
			}
			for _, r := range reports {
				if !r.Passed {
					return errRunFailed
				}
			}
			return nil
		},
	}
	runCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	runCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of files run at once (default from config)")
	runCmd.Flags().StringVar(&execPath, "exec-path", "", "path to the Chrome binary")
	return runCmd
}

// loadAll validates every file before the browser starts.
func (a *app) loadAll(cmd *cobra.Command, files []string) ([][]commands.Command, error) {
	f := a.factory()
	lists := make([][]commands.Command, len(files))
	for i, file := range files {
		data, err := readCommandFile(cmd, file)
		if err != nil {
			return nil, err
		}
		cmds, err := buildCommands(f, data)
		if err != nil {
			var invalid *invalidCommand
			if errors.As(err, &invalid) {
				if err := writeJSON(cmd, invalid); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("%s: %w", file, errInvalidCommands)
			}
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		lists[i] = cmds
	}
	return lists, nil
}

// runAll executes each list in its own tab, at most browser.concurrency at
// a time. Reports keep the order of files.
func (a *app) runAll(ctx context.Context, b *cdp.Browser, files []string, lists [][]commands.Command) ([]*runReport, error) {
	reports := make([]*runReport, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Browser().Concurrency)
	for i := range files {
		i := i
		g.Go(func() error {
			statuses, err := a.runOne(gctx, b, lists[i])
			if err != nil {
				return fmt.Errorf("%s: %w", files[i], err)
			}
			report := &runReport{File: files[i], Passed: true, Statuses: statuses}
			if n := len(statuses); n > 0 && statuses[n-1].Failed() {
				report.Passed = false
			}
			a.logger.Info("Run finished.", zap.String("file", files[i]), zap.Bool("passed", report.Passed), zap.Int("commands", len(statuses)))

			mu.Lock()
			reports[i] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (a *app) runOne(ctx context.Context, b *cdp.Browser, cmds []commands.Command) ([]*schemas.DriverStatus, error) {
	page, closeTab, err := b.NewTab(ctx)
	if err != nil {
		return nil, err
	}
	defer closeTab()

	d := driver.New(page, cdp.NewFunctions(page, a.cfg.ClientFunctions().Timeout), driver.Config{
		Typing:        a.cfg.Automation().Typing(),
		ScreenshotDir: a.cfg.Screenshots().Dir,
		Devices:       a.catalog(),
	}, a.logger)
	return d.Run(ctx, cmds), nil
}
