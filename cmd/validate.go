// cmd/validate.go
package cmd

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/runerr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errInvalidCommands is returned after the error record has been printed.
var errInvalidCommands = errors.New("command list is invalid")

// invalidCommand is printed for the first record that fails validation.
type invalidCommand struct {
	Index  int           `json:"index"`
	Record *runerr.Error `json:"error"`
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a command list and print the normalized commands",
		Long: `Validate reads a JSON array of command records, checks every argument and
option, and prints the normalized commands. The first invalid record is
printed as an error record and the command exits with a non-zero status.`,
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
					a.logger.Debug("Command list failed validation.", zap.Int("index", invalid.Index), zap.Error(invalid.Record))
					if err := writeJSON(cmd, invalid); err != nil {
						return err
					}
					return errInvalidCommands
				}
				return err
			}
			return writeJSON(cmd, cmds)
		},
	}
}

func (e *invalidCommand) Error() string {
	return fmt.Sprintf("command %d: %v", e.Index, e.Record)
}

// buildCommands decodes and validates a command list. A record that fails
// with a typed error is reported as *invalidCommand.
func buildCommands(f *commands.Factory, data []byte) ([]commands.Command, error) {
	var raws []map[string]interface{}
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode command list: %w", err)
	}
	cmds := make([]commands.Command, 0, len(raws))
	for i, raw := range raws {
		c, err := f.FromObject(raw)
		if err != nil {
			if typed, ok := runerr.As(err); ok {
				return nil, &invalidCommand{Index: i, Record: typed}
			}
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// writeJSON prints v indented. Records with their own MarshalJSON are
// indented too, so the output is indented after encoding.
func writeJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	var out bytes.Buffer
	if err := stdjson.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(cmd.OutOrStdout())
	return err
}
