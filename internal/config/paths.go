package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used across all platforms.
const appName = "cals"

// File names inside the application directories.
const (
	configFileName = "config.toml"
	tokenFileName  = "github-token.json"
	cacheFileName  = "github-cache.db"
)

// DefaultConfigDir returns the platform-specific directory for config files.
// On Linux, respects XDG_CONFIG_HOME (defaults to ~/.config/cals).
// On macOS, uses ~/Library/Application Support/cals.
func DefaultConfigDir() string {
	return platformDir("XDG_CONFIG_HOME", ".config", filepath.Join("Library", "Application Support"))
}

// DefaultDataDir returns the platform-specific directory for application
// data such as the stored GitHub token.
func DefaultDataDir() string {
	return platformDir("XDG_DATA_HOME", filepath.Join(".local", "share"), filepath.Join("Library", "Application Support"))
}

// DefaultCacheDir returns the platform-specific directory for cache files.
func DefaultCacheDir() string {
	return platformDir("XDG_CACHE_HOME", ".cache", filepath.Join("Library", "Caches"))
}

// platformDir applies the XDG variable on Linux, the Library subdirectory on
// macOS, and the dot-directory fallback everywhere else.
func platformDir(xdgVar, homeFallback, darwinDir string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appName)
		}

		return filepath.Join(home, homeFallback, appName)
	case platformDarwin:
		return filepath.Join(home, darwinDir, appName)
	default:
		return filepath.Join(home, homeFallback, appName)
	}
}

// DefaultConfigPath returns the full path to the default config file.
func DefaultConfigPath() string {
	return joinIfSet(DefaultConfigDir(), configFileName)
}

// DefaultTokenPath returns the default location of the GitHub token file.
func DefaultTokenPath() string {
	return joinIfSet(DefaultDataDir(), tokenFileName)
}

// DefaultCachePath returns the default location of the response cache.
func DefaultCachePath() string {
	return joinIfSet(DefaultCacheDir(), cacheFileName)
}

func joinIfSet(dir, name string) string {
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, name)
}
