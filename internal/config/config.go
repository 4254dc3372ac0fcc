// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package config loads learnhooks configuration from a YAML file and command
// line flags. Flags that were set override the file; the file overrides
// flag defaults.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/learnhooks/learnhooks/internal/logging"
	"github.com/learnhooks/learnhooks/internal/xdg"
)

// Error codes.
const (
	CodeInvalidConfig  = "INVALID_CONFIG"
	CodeConfigNotFound = "CONFIG_NOT_FOUND"
)

// Keys, shared by the YAML file and the flag names.
const (
	KeyLogFormat      = "log-format"
	KeyLogLevel       = "log-level"
	KeyMetricsAddr    = "metrics-addr"
	KeyPluginsDir     = "plugins-dir"
	KeyPluginsEnabled = "plugins-enabled"
	KeyExtensions     = "extensions"
)

// Config is the runtime configuration.
type Config struct {
	LogFormat      string   `koanf:"log-format"`
	LogLevel       string   `koanf:"log-level"`
	MetricsAddr    string   `koanf:"metrics-addr"`
	PluginsDir     string   `koanf:"plugins-dir"`
	PluginsEnabled bool     `koanf:"plugins-enabled"`
	Extensions     []string `koanf:"extensions"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogFormat:      logging.FormatText,
		LogLevel:       "info",
		MetricsAddr:    "127.0.0.1:9100",
		PluginsEnabled: true,
		Extensions:     []string{"image-alt-source", "button-tracking"},
	}
}

// RegisterFlags adds one flag per key to fs, defaulting to Defaults().
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyLogFormat, d.LogFormat, "log format (json or text)")
	fs.String(KeyLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(KeyMetricsAddr, d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String(KeyPluginsDir, d.PluginsDir, "plugin directory (default: XDG_DATA_HOME/learnhooks/plugins)")
	fs.Bool(KeyPluginsEnabled, d.PluginsEnabled, "load Lua plugins")
	fs.StringSlice(KeyExtensions, d.Extensions, "built-in block extensions to register")
}

// defaults returns Defaults() keyed the way the file and flags are.
func defaults() map[string]any {
	d := Defaults()
	return map[string]any{
		KeyLogFormat:      d.LogFormat,
		KeyLogLevel:       d.LogLevel,
		KeyMetricsAddr:    d.MetricsAddr,
		KeyPluginsDir:     d.PluginsDir,
		KeyPluginsEnabled: d.PluginsEnabled,
		KeyExtensions:     d.Extensions,
	}
}

// Load reads defaults, then path, then changed flags into a Config and
// validates it.
//
// An empty path means the XDG config file, which may be absent. An explicit
// path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").With("key", key).Wrapf(err, "set default")
		}
	}

	explicit := path != ""
	if !explicit {
		if p, err := xdg.ConfigFile(); err == nil {
			path = p
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				path = ""
			} else {
				return nil, oops.Code(CodeConfigNotFound).
					In("config").
					With("path", path).
					Wrapf(err, "config file")
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalidConfig).
				In("config").
				With("path", path).
				Wrapf(err, "parse config file")
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").Wrapf(err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeInvalidConfig).In("config").Wrapf(err, "decode config")
	}

	if cfg.PluginsDir == "" {
		if dir, err := xdg.PluginsDir(); err == nil {
			cfg.PluginsDir = dir
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := logging.ValidateFormat(c.LogFormat); err != nil {
		return oops.In("config").With("key", KeyLogFormat).Wrap(err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.In("config").With("key", KeyLogLevel).Wrap(err)
	}
	if c.PluginsEnabled && c.PluginsDir == "" {
		return oops.Code(CodeInvalidConfig).
			In("config").
			With("key", KeyPluginsDir).
			Errorf("%s is required when plugins are enabled", KeyPluginsDir)
	}
	return nil
}
