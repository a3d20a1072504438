// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level static configuration. Everything here is resolved
// before any execution context starts; a bad value fails startup.
type Config struct {
	Channel  ChannelConfig             `mapstructure:"channel"`
	Frontend FrontendConfig            `mapstructure:"frontend"`
	Shutdown ShutdownConfig            `mapstructure:"shutdown"`
	Log      LogConfig                 `mapstructure:"log"`
	Plugins  map[string]map[string]any `mapstructure:"plugins"`
}

// ChannelConfig configures the packet channel between backend and frontend.
type ChannelConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// FrontendConfig contains settings shared by all frontends.
type FrontendConfig struct {
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// ShutdownConfig controls how long shutdown waits for each execution context.
type ShutdownConfig struct {
	JoinTimeout time.Duration `mapstructure:"join_timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// PluginDefaults returns the configured option defaults for one plugin, nil
// when none are set.
func (c *Config) PluginDefaults(name string) map[string]any {
	return c.Plugins[name]
}

// Load loads configuration from file. An empty path loads defaults plus
// environment overrides only (prefix USBSCOPE_, e.g. USBSCOPE_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("usbscope")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("channel.capacity", 4096)
	v.SetDefault("frontend.poll_timeout", "10ms")
	v.SetDefault("shutdown.join_timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.outputs.file.enabled", false)
	v.SetDefault("log.outputs.file.path", "usbscope.log")
	v.SetDefault("log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("log.outputs.file.rotation.compress", true)
}

// Validate rejects configurations no run should start with.
func (c *Config) Validate() error {
	if c.Channel.Capacity <= 0 {
		return fmt.Errorf("channel.capacity must be positive, got %d", c.Channel.Capacity)
	}
	if c.Frontend.PollTimeout <= 0 {
		return fmt.Errorf("frontend.poll_timeout must be positive, got %s", c.Frontend.PollTimeout)
	}
	if c.Shutdown.JoinTimeout <= 0 {
		return fmt.Errorf("shutdown.join_timeout must be positive, got %s", c.Shutdown.JoinTimeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", c.Log.Format)
	}
	if c.Log.Outputs.File.Enabled && c.Log.Outputs.File.Path == "" {
		return fmt.Errorf("log.outputs.file.path is required when file output is enabled")
	}
	return nil
}
