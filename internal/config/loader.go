package config

import (
	"errors"
	"fmt"
	"os"

	"steward/pkg/logging"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the global configuration file location.
const DefaultConfigFile = "/etc/steward/config.yaml"

// LoadConfig loads the global configuration from the given file path,
// overlaying it on the built-in defaults. A missing file is not an error;
// the defaults are returned as-is.
func LoadConfig(configFilePath string) (Config, error) {
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config file at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config from %s: %w", configFilePath, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config in %s: %w", configFilePath, err)
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}

// Validate checks the enumerated fields hold known values.
func (c Config) Validate() error {
	switch c.TLSProfile {
	case TLSProfileModern, TLSProfileIntermediate:
	default:
		return fmt.Errorf("unknown tlsProfile %q (want %q or %q)",
			c.TLSProfile, TLSProfileModern, TLSProfileIntermediate)
	}

	switch c.AppLogMode {
	case AppLogModeJournal, AppLogModeFile:
	default:
		return fmt.Errorf("unknown appLogMode %q (want %q or %q)",
			c.AppLogMode, AppLogModeJournal, AppLogModeFile)
	}

	return nil
}
