// internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/brewer/internal/automation/typing"
	"github.com/xkilldash9x/brewer/internal/devices"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "brewer", cfg.Logger().ServiceName)
	assert.Equal(t, typing.DefaultStepDelay, cfg.Automation().StepDelay)
	assert.False(t, cfg.Automation().KeyIdentifierRequired)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser().NavigationTimeout)
	assert.Equal(t, 2, cfg.Browser().Concurrency)
	assert.Equal(t, []string{"http", "https"}, cfg.Commands().AllowedProtocols)
	assert.Equal(t, 10*time.Second, cfg.ClientFunctions().Timeout)
	assert.Empty(t, cfg.Devices())
	assert.NoError(t, cfg.Validate())
}

func TestAutomationConfig_Typing(t *testing.T) {
	typ := AutomationConfig{StepDelay: time.Millisecond, KeyIdentifierRequired: true}.Typing()

	assert.Equal(t, time.Millisecond, typ.StepDelay)
	assert.True(t, typ.KeyIdentifierRequired)
	require.NotNil(t, typ.Keys, "the default key map is carried over")
}

func TestBrowserConfig_Options(t *testing.T) {
	opts := NewDefaultConfig().Browser().Options()

	assert.True(t, opts.Headless)
	assert.Equal(t, 1280, opts.WindowWidth)
	assert.Equal(t, 800, opts.WindowHeight)
	assert.Equal(t, 10*time.Second, opts.ShutdownTimeout)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"browser concurrency", func(c *Config) { c.BrowserCfg.Concurrency = 0 }, "browser.concurrency must be a positive integer"},
		{"window size", func(c *Config) { c.BrowserCfg.WindowWidth = -1 }, "must not be negative"},
		{"step delay", func(c *Config) { c.AutomationCfg.StepDelay = -time.Second }, "automation.step_delay must not be negative"},
		{"client function timeout", func(c *Config) { c.ClientFunctionsCfg.Timeout = -time.Second }, "clientfn.timeout must not be negative"},
		{"protocols", func(c *Config) { c.CommandsCfg.AllowedProtocols = nil }, "commands.allowed_protocols must list at least one protocol"},
		{"unnamed device", func(c *Config) { c.DevicesCfg = []devices.Device{{Width: 1, Height: 1}} }, "devices[0].name is required"},
		{"device size", func(c *Config) { c.DevicesCfg = []devices.Device{{Name: "kiosk"}} }, "devices[0] (kiosk) must have a positive width and height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigSetters(t *testing.T) {
	var cfg Interface = NewDefaultConfig()

	cfg.SetBrowserHeadless(false)
	cfg.SetBrowserConcurrency(8)
	cfg.SetBrowserExecPath("/opt/chrome")
	cfg.SetLoggerLevel("debug")

	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, 8, cfg.Browser().Concurrency)
	assert.Equal(t, "/opt/chrome", cfg.Browser().ExecPath)
	assert.Equal(t, "debug", cfg.Logger().Level)
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
automation:
  step_delay: 25ms
  key_identifier_required: true
browser:
  headless: false
  concurrency: 4
  args: ["--lang=en-US"]
commands:
  allowed_protocols: [http, https, file]
devices:
  - name: Kiosk 1080
    width: 1080
    height: 1920
    device_scale_factor: 1
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, 25*time.Millisecond, cfg.Automation().StepDelay)
		assert.True(t, cfg.Automation().KeyIdentifierRequired)
		assert.False(t, cfg.Browser().Headless)
		assert.Equal(t, 4, cfg.Browser().Concurrency)
		assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser().Args)
		assert.Equal(t, []string{"http", "https", "file"}, cfg.Commands().AllowedProtocols)
		require.Len(t, cfg.Devices(), 1)
		assert.Equal(t, devices.Device{Name: "Kiosk 1080", Width: 1080, Height: 1920, DeviceScaleFactor: 1}, cfg.Devices()[0])
		// Defaults survive alongside the file.
		assert.Equal(t, "info", cfg.Logger().Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("browser.concurrency", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "browser.concurrency must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString("browser:\n  exec_path: /from/file\n")))

		t.Setenv("BREWER_BROWSER_EXEC_PATH", "/from/env")
		t.Setenv("BREWER_LOGGER_LEVEL", "warn")
		t.Setenv("BREWER_CLIENTFN_TIMEOUT", "3s")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "/from/env", cfg.Browser().ExecPath)
		assert.Equal(t, "warn", cfg.Logger().Level)
		assert.Equal(t, 3*time.Second, cfg.ClientFunctions().Timeout)
	})
}
