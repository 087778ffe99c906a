// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user config and data directories.
const AppName = "etl"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), AppName, "config.toml")
}

// DefaultDatasetPath returns the default training log location.
func DefaultDatasetPath() string {
	return filepath.Join(XDGDataHome(), AppName, "training-log.csv")
}

// DefaultExportPath returns the default SQLite export location.
func DefaultExportPath() string {
	return filepath.Join(XDGDataHome(), AppName, "training-log.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
