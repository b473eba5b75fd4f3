// cmd/simulate.go
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/brewer/internal/browser/memdom"
	"github.com/xkilldash9x/brewer/internal/driver"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		htmlFile string
		pageURL  string
		width    int
		height   int
	)
	simulateCmd := &cobra.Command{
		Use:   "simulate --html <fixture> <file|->",
		Short: "Execute a command list against an offline HTML fixture",
		Long: `Simulate runs a command list against an in-memory document parsed from an
HTML fixture. Typing, selection, clicks, uploads and client functions behave
as in a browser; commands that need a real browser are reported as
unsupported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readCommandFile(cmd, args[0])
			if err != nil {
				return err
			}
			cmds, err := buildCommands(a.factory(), data)
			if err != nil {
				var invalid *invalidCommand
				if errors.As(err, &invalid) {
					if err := writeJSON(cmd, invalid); err != nil {
						return err
					}
					return errInvalidCommands
				}
				return err
			}

			path, err := homedir.Expand(htmlFile)
			if err != nil {
				return err
			}
			fixture, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open fixture: %w", err)
			}
			defer fixture.Close()

			doc, err := memdom.New(fixture, memdom.Config{
				URL:                   pageURL,
				Viewport:              memdom.Viewport{Width: width, Height: height},
				ClientFunctionTimeout: a.cfg.ClientFunctions().Timeout,
			}, a.logger)
			if err != nil {
				return err
			}

			d := driver.New(doc, doc.ClientFunctions(), driver.Config{
				Typing:        a.cfg.Automation().Typing(),
				ScreenshotDir: a.cfg.Screenshots().Dir,
				Devices:       a.catalog(),
			}, a.logger)
			statuses := d.Run(cmd.Context(), cmds)

			report := &runReport{File: args[0], Passed: true, Statuses: statuses}
			if n := len(statuses); n > 0 && statuses[n-1].Failed() {
				report.Passed = false
			}
			if err := writeJSON(cmd, report); err != nil {
				return err
			}
			if !report.Passed {
				return errRunFailed
			}
			return nil
		},
	}
	simulateCmd.Flags().StringVar(&htmlFile, "html", "", "HTML fixture to load")
	simulateCmd.Flags().StringVar(&pageURL, "url", "about:blank", "URL reported as the document location")
	simulateCmd.Flags().IntVar(&width, "width", 1280, "viewport width")
	simulateCmd.Flags().IntVar(&height, "height", 800, "viewport height")
	_ = simulateCmd.MarkFlagRequired("html")
	return simulateCmd
}
