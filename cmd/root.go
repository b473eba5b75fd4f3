// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/brewer/internal/commands"
	"github.com/xkilldash9x/brewer/internal/config"
	"github.com/xkilldash9x/brewer/internal/devices"
	"github.com/xkilldash9x/brewer/internal/observability"
)

const configName = "brewer"

// app carries the state shared by the commands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// NewRootCommand builds a fresh command tree. Each tree has its own viper
// instance so flags never leak between executions.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "brewer",
		Short:         "Brewer validates and executes browser test commands.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}
	rootCmd.SetVersionTemplate("brewer version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./brewer.yaml or ~/brewer.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console or json)")

	rootCmd.AddCommand(
		newValidateCmd(a),
		newRunCmd(a),
		newSimulateCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree with the signal-aware ctx.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	observability.Sync()
	return err
}

// initialize loads the configuration and sets up logging.
func (a *app) initialize(cmd *cobra.Command) error {
	config.SetDefaults(a.v)
	if err := a.readConfigFile(); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		a.v.Set("logger.level", f.Value.String())
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		a.v.Set("logger.format", f.Value.String())
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	observability.InitializeLogger(cfg.Logger())
	a.logger = observability.GetLogger()
	a.logger.Debug("Configuration loaded.", zap.String("config_file", a.v.ConfigFileUsed()))
	return nil
}

// readConfigFile reads the explicit config file, or brewer.yaml from the
// working directory or the home directory when present.
func (a *app) readConfigFile() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName(configName)
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			a.v.AddConfigPath(home)
		}
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// factory builds the command factory from the loaded configuration.
func (a *app) factory() *commands.Factory {
	return commands.NewFactory(nil, a.catalog(), a.cfg.Commands().AllowedProtocols, a.logger)
}

func (a *app) catalog() *devices.Catalog {
	return devices.Default(a.cfg.Devices()...)
}

// readCommandFile reads a command list from path, or from stdin for "-".
func readCommandFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		buf, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read commands from stdin: %w", err)
		}
		return buf, nil
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read command file: %w", err)
	}
	return data, nil
}
