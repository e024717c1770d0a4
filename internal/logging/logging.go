// Package logging configures the zerolog loggers offsetconfig and cfgctl
// write to.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the global logger instance. Init also installs it as zerolog's
// log.Logger so packages logging through github.com/rs/zerolog/log follow the
// same level and output.
var Logger zerolog.Logger

// Level represents log levels.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	Disabled   = zerolog.Disabled
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written when File is empty. Defaults to
	// os.Stderr.
	Output io.Writer
	// File, when set, is appended to instead of Output. It and its directory
	// are created as needed.
	File string
	// Pretty enables human-readable console output.
	Pretty bool
	// TimeFormat specifies the time format. Defaults to RFC3339.
	TimeFormat string
}

// DefaultConfig returns the configuration used before Init is called: JSON
// lines on stderr at warn level, so an embedding application sees problems
// but not lifecycle chatter.
func DefaultConfig() Config {
	return Config{
		Level:      WarnLevel,
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// Init replaces the global loggers. The returned function closes the log
// file, if Init opened one; it is never nil.
func Init(cfg Config) (closeFn func() error, err error) {
	closeFn = func() error { return nil }

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return closeFn, err
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return closeFn, err
		}
		out = f
		closeFn = f.Close
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
			NoColor:    cfg.File != "",
		}
	}

	Logger = zerolog.New(out).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
	log.Logger = Logger
	return closeFn, nil
}

// ParseLevel parses a log level name, ignoring case and surrounding space.
// DEBUG, INFO, WARN (or WARNING), ERROR and OFF (or NONE) are recognised;
// anything else is InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "OFF", "NONE":
		return Disabled
	default:
		return InfoLevel
	}
}

// Warn starts a new warn level message on the global logger.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Component returns a child of the global logger tagged with a component
// name. The child keeps the output it was created with; loggers taken before
// a later Init do not follow it.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func init() {
	Init(DefaultConfig())
}
