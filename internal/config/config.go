// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/kasbuild/kas/internal/issue"
	"github.com/kasbuild/kas/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "kas"
	// ConfigFileName is the name of the settings file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the settings file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes the environment variables read as settings.
	EnvPrefix = "KAS"

	KeyWorkDir    = "work_dir"
	KeyRepoRefDir = "repo_ref_dir"
	KeyLogLevel   = "log_level"
	KeyLogFormat  = "log_format"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns $XDG_CONFIG_HOME/kas, defaulting to ~/.config/kas.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven settings loading and returns the
// settings file that was used, if any.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load settings canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault(KeyWorkDir, defaults.WorkDir)
	v.SetDefault(KeyRepoRefDir, defaults.RepoRefDir)
	v.SetDefault(KeyLogLevel, string(defaults.LogLevel))
	v.SetDefault(KeyLogFormat, string(defaults.LogFormat))

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load settings").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.SettingsInvalidId).
				WithSuggestion("Verify the path passed to --settings").
				Wrap(fmt.Errorf("settings file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			dir, err := ConfigDir()
			if err != nil {
				return nil, "", err
			}
			cfgDir = dir
		}
		if cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(cuePath) {
			resolvedPath = cuePath
		}
		// No settings file is not an error; defaults and environment apply.
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load settings").
				WithResource(resolvedPath).
				WithIssue(issue.SettingsInvalidId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Allowed keys are work_dir, repo_ref_dir, log_level and log_format").
				Wrap(err).
				BuildError()
		}
	}

	for key, value := range opts.Overrides {
		if value != "" {
			v.Set(key, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate settings").
			WithIssue(issue.SettingsInvalidId).
			WithSuggestion("log_level is one of debug, info, warn, error").
			WithSuggestion("log_format is one of text, json, logfmt").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// loadCUEIntoViper validates a CUE settings file against #Config and merges
// it into v, keeping defaults and environment lookups in place.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(data,
		cueutil.WithFilename(path),
		cueutil.WithSchema(configSchema, "#Config"),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
