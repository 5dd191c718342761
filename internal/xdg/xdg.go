// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

// Package xdg provides XDG Base Directory paths for Doorkeep.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "doorkeep"

// ConfigDir returns the XDG config directory for doorkeep.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the path of the default config file, or "" when
// no config file exists at the default location.
func DefaultConfigFile() string {
	path := filepath.Join(ConfigDir(), "doorkeep.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
