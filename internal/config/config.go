// SPDX-License-Identifier: MPL-2.0

// Package config loads the tool-level configuration.
//
// Tool configuration is separate from project descriptors: it holds machine
// preferences like the default modules directory, not project metadata. The
// file lives at <config-dir>/psforge/config.json and every field is
// optional; a missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"psforge/internal/issue"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "psforge"

	configFileName = "config"
	configFileExt  = "json"
)

// configFilePathOverride allows the --config flag (and tests) to bypass the
// platform config directory.
var configFilePathOverride string

// Config holds tool-level settings.
type Config struct {
	// ModulesDir is the default install target for `psforge install`.
	ModulesDir string `mapstructure:"modules_dir"`

	UI struct {
		// Verbose enables verbose output without passing --verbose.
		Verbose bool `mapstructure:"verbose"`
	} `mapstructure:"ui"`

	Watch struct {
		// DebounceMS is the quiet period in milliseconds before a watched
		// change triggers a rebuild.
		DebounceMS int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
}

// SetConfigFilePathOverride points Load at a specific config file.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// Dir returns the psforge configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME (or ~/.config) elsewhere.
func Dir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultModulesDir returns the fallback install target, ~/.psforge/modules.
func DefaultModulesDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".psforge", "modules"), nil
}

// Load reads the config file, falling back to defaults when none exists.
func Load() (*Config, error) {
	v := viper.New()

	modulesDir, err := DefaultModulesDir()
	if err != nil {
		return nil, err
	}
	v.SetDefault("modules_dir", modulesDir)
	v.SetDefault("ui.verbose", false)
	v.SetDefault("watch.debounce_ms", 500)

	if configFilePathOverride != "" {
		v.SetConfigFile(configFilePathOverride)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileExt)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, issue.WrapWithContext(err, "load configuration", v.ConfigFileUsed()).
				WithSuggestion("Check that the file contains valid JSON").
				WithSuggestion("Remove the file to fall back to the defaults")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, issue.WrapWithContext(err, "decode configuration", v.ConfigFileUsed()).
			WithSuggestion("Verify the configuration values match the expected types")
	}
	return &cfg, nil
}
