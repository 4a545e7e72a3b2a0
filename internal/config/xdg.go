package config

import (
	"os"
	"path/filepath"
)

const appDir = "resume-screener"

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

// DefaultConfigDir is where config.yaml is looked up.
func DefaultConfigDir() string {
	return filepath.Join(XDGConfigHome(), appDir)
}

// DefaultHistoryPath returns the default path for the local history database.
func DefaultHistoryPath() string {
	return filepath.Join(XDGDataHome(), appDir, "history.db")
}

// DefaultSessionPath returns the default path for the saved session token.
func DefaultSessionPath() string {
	return filepath.Join(XDGDataHome(), appDir, "session")
}
