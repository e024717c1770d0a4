package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "offsetconfig"

// SettingsFile is the base name of cfgctl's own settings file.
const SettingsFile = "cfgctl"

// Paths contains the standard paths for offsetconfig data.
type Paths struct {
	Data   string // ~/.local/share/offsetconfig
	Config string // ~/.config/offsetconfig
	Cache  string // ~/.cache/offsetconfig
	State  string // ~/.local/state/offsetconfig
}

// GetPaths returns the standard paths for offsetconfig data.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(getEnvOrDefault("XDG_DATA_HOME", defaultDataHome()), AppName),
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), AppName),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", defaultCacheHome()), AppName),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), AppName),
	}
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// LogPath returns the file cfgctl logs to when logs are not printed.
func (p *Paths) LogPath() string {
	return filepath.Join(p.State, "cfgctl.log")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultDataHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultCacheHome() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}

// GlobalSettingsPath returns the path to the global settings file.
func GlobalSettingsPath() string {
	return filepath.Join(GetPaths().Config, SettingsFile+".jsonc")
}

// ProjectSettingsPath returns the path to the project settings file.
func ProjectSettingsPath(directory string) string {
	return filepath.Join(directory, SettingsFile+".jsonc")
}
