// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Dataset DatasetConfig `toml:"dataset"`
	Log     LogConfig     `toml:"log"`
	Import  ImportConfig  `toml:"import"`
}

// DatasetConfig maps the training log location.
type DatasetConfig struct {
	Path *string `toml:"path"`
}

// LogConfig maps diagnostic logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// ImportConfig maps settings used by the importers.
type ImportConfig struct {
	Concept2Gear    *string `toml:"concept2-gear"`
	Concept2Profile *string `toml:"concept2-profile"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an
// error. Environment variables referenced as $VAR or ${VAR} are expanded.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.Decode(os.ExpandEnv(string(data)), &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
