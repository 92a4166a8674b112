package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/TestFlowLabs/bridge/pkg/logging"
)

// LoadConfig reads the configuration file at path on top of the defaults.
// An empty path means DefaultFileName in the working directory; a missing
// file yields the defaults. The returned configuration is validated.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultFileName
	}
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No %s found at %s, using defaults", filepath.Base(path), path)
			return config, nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, NewConfigurationError(path, "parse", err.Error(),
			"check the YAML syntax and that durations are strings like \"500ms\"")
	}

	if err := config.Validate(); err != nil {
		return Config{}, NewConfigurationError(path, "validation", err.Error())
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return config, nil
}

// BaseDir returns the directory relative service paths are resolved from.
func BaseDir(configPath string) string {
	if configPath == "" {
		configPath = DefaultFileName
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return filepath.Dir(configPath)
	}
	return filepath.Dir(abs)
}
