// Package config resolves the file locations sieve reads and writes:
// the config directory, the data directory holding the database, and user
// supplied paths with ~ and $VAR references.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "sieve"

// ExpandPath replaces a leading ~ with the home directory and expands
// environment variables. The empty path stays empty.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return os.ExpandEnv(path)
}

// xdgDir returns $<env>/sieve, or ~/<fallback>/sieve when env is unset.
func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appName)
	}
	return filepath.Join(home, fallback, appName)
}

// Dir is where config.yaml is looked up first.
func Dir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir holds the database and its snapshots.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// DefaultDBPath is the database used when database.path is unset.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), appName+".db")
}
