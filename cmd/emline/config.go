// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/emline/internal/logging"
	"github.com/holomush/emline/internal/session"
	"github.com/holomush/emline/internal/xdg"
)

// CodeInvalidConfig marks configuration errors.
const CodeInvalidConfig = "INVALID_CONFIG"

// Default values for run command flags.
const (
	defaultLogFormat    = logging.FormatJSON
	defaultLogLevel     = "info"
	defaultDialAttempts = 5
	defaultDialBackoff  = 100 * time.Millisecond
)

// runConfig holds configuration for the run command.
type runConfig struct {
	Socket       string        `koanf:"socket"`
	ScriptDirs   []string      `koanf:"script-dir"`
	Scripts      []string      `koanf:"scripts"`
	DataDir      string        `koanf:"data-dir"`
	BundleConfig string        `koanf:"bundle-config-dir"`
	LogFormat    string        `koanf:"log-format"`
	LogLevel     string        `koanf:"log-level"`
	MetricsAddr  string        `koanf:"metrics-addr"`
	MaxLineBytes int           `koanf:"max-line-bytes"`
	DialAttempts int           `koanf:"dial-attempts"`
	DialBackoff  time.Duration `koanf:"dial-backoff"`
}

// registerRunFlags defines the run flags. Flag names double as config keys.
func registerRunFlags(flags *pflag.FlagSet) {
	flags.String("socket", "", "host unix socket (empty = stdin/stdout)")
	flags.StringSlice("script-dir", nil, "script bundle directory, repeatable (default: XDG_DATA_HOME/emline/em)")
	flags.StringSlice("scripts", nil, "glob patterns selecting bundles to load (default: all)")
	flags.String("data-dir", "", "root of bundle storage (default: XDG_DATA_HOME/emline)")
	flags.String("bundle-config-dir", "", "root of bundle config.json files (default: XDG_CONFIG_HOME/emline)")
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	flags.Int("max-line-bytes", session.DefaultMaxLineBytes, "longest accepted protocol line")
	flags.Int("dial-attempts", defaultDialAttempts, "socket connection attempts")
	flags.Duration("dial-backoff", defaultDialBackoff, "initial delay between connection attempts")
}

// loadConfig merges the config file and flags. Explicitly set flags win over
// the file, which wins over flag defaults. An explicitly named config file
// must exist; the default one is optional.
func loadConfig(flags *pflag.FlagSet, configPath string) (*runConfig, error) {
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		path, err := xdg.ConfigFile()
		if err == nil {
			configPath = path
		}
	}

	if configPath != "" {
		_, statErr := os.Stat(configPath)
		switch {
		case statErr == nil:
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, oops.In("config").Code(CodeInvalidConfig).With("path", configPath).Wrapf(err, "load config file")
			}
		case explicit || !errors.Is(statErr, fs.ErrNotExist):
			return nil, oops.In("config").Code(CodeInvalidConfig).With("path", configPath).Wrap(statErr)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.In("config").Code(CodeInvalidConfig).Wrapf(err, "load flags")
	}

	cfg := &runConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.In("config").Code(CodeInvalidConfig).Wrapf(err, "decode config")
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills XDG-derived paths that have no static flag default.
func (cfg *runConfig) applyDefaults() error {
	if len(cfg.ScriptDirs) == 0 {
		dir, err := xdg.ScriptsDir()
		if err != nil {
			return oops.In("config").Code(CodeInvalidConfig).Wrap(err)
		}
		cfg.ScriptDirs = []string{dir}
	}
	if cfg.DataDir == "" {
		dir, err := xdg.DataDir()
		if err != nil {
			return oops.In("config").Code(CodeInvalidConfig).Wrap(err)
		}
		cfg.DataDir = dir
	}
	if cfg.BundleConfig == "" {
		dir, err := xdg.ConfigDir()
		if err != nil {
			return oops.In("config").Code(CodeInvalidConfig).Wrap(err)
		}
		cfg.BundleConfig = dir
	}
	return nil
}

// Validate checks that the configuration is valid.
func (cfg *runConfig) Validate() error {
	if cfg.LogFormat != logging.FormatJSON && cfg.LogFormat != logging.FormatText {
		return oops.In("config").Code(CodeInvalidConfig).
			With("log-format", cfg.LogFormat).
			Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return oops.In("config").Code(CodeInvalidConfig).With("log-level", cfg.LogLevel).Wrap(err)
	}
	if cfg.MaxLineBytes <= 0 {
		return oops.In("config").Code(CodeInvalidConfig).
			With("max-line-bytes", cfg.MaxLineBytes).
			Errorf("max-line-bytes must be positive, got %d", cfg.MaxLineBytes)
	}
	if cfg.DialAttempts < 0 {
		return oops.In("config").Code(CodeInvalidConfig).
			With("dial-attempts", cfg.DialAttempts).
			Errorf("dial-attempts must not be negative, got %d", cfg.DialAttempts)
	}
	if cfg.DialBackoff < 0 {
		return oops.In("config").Code(CodeInvalidConfig).
			With("dial-backoff", cfg.DialBackoff).
			Errorf("dial-backoff must not be negative, got %s", cfg.DialBackoff)
	}
	return nil
}
