package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/offsetmonkey538/offsetconfig/internal/logging"
	"github.com/tidwall/jsonc"
)

// Settings configures cfgctl.
type Settings struct {
	// Dir is the config directory commands resolve bare ids against.
	Dir string `json:"dir,omitempty"`
	// LogLevel is used when --log-level is not given.
	LogLevel string `json:"logLevel,omitempty"`
	// Indent is the indentation unit files are rewritten with.
	Indent string `json:"indent,omitempty"`
	// ScanPattern selects the files scan reports on.
	ScanPattern string `json:"scanPattern,omitempty"`
	// KeepBackups is how many backups backups --prune keeps by default.
	KeepBackups int `json:"keepBackups,omitempty"`
}

// Defaults returns the built-in settings.
func Defaults() *Settings {
	return &Settings{
		Dir:         "config",
		LogLevel:    "WARN",
		Indent:      "\t",
		ScanPattern: "**/*.{json,jsonc,yaml,yml}",
		KeepBackups: 5,
	}
}

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// Load loads settings from multiple sources (priority order):
// 1. Built-in defaults
// 2. Global settings (~/.config/offsetconfig/cfgctl.json[c])
// 3. Project settings (cfgctl.json[c] in directory)
// 4. OFFSETCONFIG_SETTINGS file
// 5. Environment variables
func Load(directory string) (*Settings, error) {
	settings := Defaults()

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if err := loadSettingsFile(path, settings); err == nil {
			loaded[absPath] = true
		} else if !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", path).Msg("ignoring unreadable settings file")
		}
	}

	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, SettingsFile+".json"))
	loadOnce(filepath.Join(globalPath, SettingsFile+".jsonc"))

	if directory != "" {
		loadOnce(filepath.Join(directory, SettingsFile+".json"))
		loadOnce(filepath.Join(directory, SettingsFile+".jsonc"))
	}

	if path := os.Getenv("OFFSETCONFIG_SETTINGS"); path != "" {
		loadOnce(path)
	}

	applyEnvOverrides(settings)

	return settings, nil
}

// loadSettingsFile loads a single settings file with interpolation support.
func loadSettingsFile(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, filepath.Dir(path))

	var fileSettings Settings
	if err := json.Unmarshal(data, &fileSettings); err != nil {
		return err
	}

	mergeSettings(settings, &fileSettings)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match
		}

		// Escape for a JSON string
		escaped, _ := json.Marshal(strings.TrimRight(string(content), "\n"))
		return string(escaped[1 : len(escaped)-1])
	})

	return []byte(str)
}

// mergeSettings copies the fields set in source over target.
func mergeSettings(target, source *Settings) {
	if source.Dir != "" {
		target.Dir = source.Dir
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.Indent != "" {
		target.Indent = source.Indent
	}
	if source.ScanPattern != "" {
		target.ScanPattern = source.ScanPattern
	}
	if source.KeepBackups != 0 {
		target.KeepBackups = source.KeepBackups
	}
}

// applyEnvOverrides applies OFFSETCONFIG_* environment variables.
func applyEnvOverrides(settings *Settings) {
	if dir := os.Getenv("OFFSETCONFIG_DIR"); dir != "" {
		settings.Dir = dir
	}
	if level := os.Getenv("OFFSETCONFIG_LOG_LEVEL"); level != "" {
		settings.LogLevel = level
	}
	if indent := os.Getenv("OFFSETCONFIG_INDENT"); indent != "" {
		settings.Indent = indent
	}
	if pattern := os.Getenv("OFFSETCONFIG_SCAN_PATTERN"); pattern != "" {
		settings.ScanPattern = pattern
	}
	if keep := os.Getenv("OFFSETCONFIG_KEEP_BACKUPS"); keep != "" {
		if n, err := strconv.Atoi(keep); err == nil {
			settings.KeepBackups = n
		}
	}
}

// Save writes settings to path as indented JSON.
func Save(settings *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
