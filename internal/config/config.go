// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/brewer/internal/automation/typing"
	"github.com/xkilldash9x/brewer/internal/browser/cdp"
	"github.com/xkilldash9x/brewer/internal/devices"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Automation() AutomationConfig
	Browser() BrowserConfig
	Commands() CommandsConfig
	Devices() []devices.Device
	ClientFunctions() ClientFunctionsConfig
	Screenshots() ScreenshotsConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserConcurrency(int)
	SetBrowserExecPath(string)

	// Logger Setters
	SetLoggerLevel(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg          LoggerConfig          `mapstructure:"logger" yaml:"logger"`
	AutomationCfg      AutomationConfig      `mapstructure:"automation" yaml:"automation"`
	BrowserCfg         BrowserConfig         `mapstructure:"browser" yaml:"browser"`
	CommandsCfg        CommandsConfig        `mapstructure:"commands" yaml:"commands"`
	DevicesCfg         []devices.Device      `mapstructure:"devices" yaml:"devices"`
	ClientFunctionsCfg ClientFunctionsConfig `mapstructure:"clientfn" yaml:"clientfn"`
	ScreenshotsCfg     ScreenshotsConfig     `mapstructure:"screenshots" yaml:"screenshots"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig                   { return c.LoggerCfg }
func (c *Config) Automation() AutomationConfig           { return c.AutomationCfg }
func (c *Config) Browser() BrowserConfig                 { return c.BrowserCfg }
func (c *Config) Commands() CommandsConfig               { return c.CommandsCfg }
func (c *Config) Devices() []devices.Device              { return c.DevicesCfg }
func (c *Config) ClientFunctions() ClientFunctionsConfig { return c.ClientFunctionsCfg }
func (c *Config) Screenshots() ScreenshotsConfig         { return c.ScreenshotsCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)      { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserConcurrency(n int)    { c.BrowserCfg.Concurrency = n }
func (c *Config) SetBrowserExecPath(path string) { c.BrowserCfg.ExecPath = path }
func (c *Config) SetLoggerLevel(level string)    { c.LoggerCfg.Level = level }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AutomationConfig tunes the typing automation.
type AutomationConfig struct {
	StepDelay             time.Duration `mapstructure:"step_delay" yaml:"step_delay"`
	KeyIdentifierRequired bool          `mapstructure:"key_identifier_required" yaml:"key_identifier_required"`
}

// Typing converts the section to the automation's config with the default
// key map.
func (a AutomationConfig) Typing() typing.Config {
	cfg := typing.DefaultConfig()
	cfg.StepDelay = a.StepDelay
	cfg.KeyIdentifierRequired = a.KeyIdentifierRequired
	return cfg
}

// BrowserConfig holds settings for the Chrome instances used by runs.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// Concurrency limits the number of command files run at once.
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
	Args        []string `mapstructure:"args" yaml:"args"`
}

// Options converts the section to the browser launch options.
func (b BrowserConfig) Options() cdp.Options {
	return cdp.Options{
		Headless:          b.Headless,
		ExecPath:          b.ExecPath,
		WindowWidth:       b.WindowWidth,
		WindowHeight:      b.WindowHeight,
		Args:              b.Args,
		NavigationTimeout: b.NavigationTimeout,
		ShutdownTimeout:   b.ShutdownTimeout,
	}
}

// CommandsConfig tunes command validation.
type CommandsConfig struct {
	AllowedProtocols []string `mapstructure:"allowed_protocols" yaml:"allowed_protocols"`
}

// ClientFunctionsConfig bounds client function evaluation.
type ClientFunctionsConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ScreenshotsConfig sets where screenshots without a path are written.
type ScreenshotsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "brewer")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Automation --
	v.SetDefault("automation.step_delay", typing.DefaultStepDelay)
	v.SetDefault("automation.key_identifier_required", false)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 800)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.shutdown_timeout", "10s")
	v.SetDefault("browser.concurrency", 2)

	// -- Commands --
	v.SetDefault("commands.allowed_protocols", []string{"http", "https"})

	// -- Client functions --
	v.SetDefault("clientfn.timeout", "10s")

	// -- Screenshots --
	v.SetDefault("screenshots.dir", "screenshots")
}

// EnvPrefix prefixes environment overrides, BREWER_BROWSER_HEADLESS for
// browser.headless.
const EnvPrefix = "BREWER"

// BindEnv makes every known key overridable from the environment.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
// Environment overrides take precedence over the config file.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	BindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.Concurrency <= 0 {
		return fmt.Errorf("browser.concurrency must be a positive integer")
	}
	if c.BrowserCfg.WindowWidth < 0 || c.BrowserCfg.WindowHeight < 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must not be negative")
	}
	if c.AutomationCfg.StepDelay < 0 {
		return fmt.Errorf("automation.step_delay must not be negative")
	}
	if c.ClientFunctionsCfg.Timeout < 0 {
		return fmt.Errorf("clientfn.timeout must not be negative")
	}
	if len(c.CommandsCfg.AllowedProtocols) == 0 {
		return fmt.Errorf("commands.allowed_protocols must list at least one protocol")
	}
	for i, dev := range c.DevicesCfg {
		if dev.Name == "" {
			return fmt.Errorf("devices[%d].name is required", i)
		}
		if dev.Width <= 0 || dev.Height <= 0 {
			return fmt.Errorf("devices[%d] (%s) must have a positive width and height", i, dev.Name)
		}
	}
	return nil
}
