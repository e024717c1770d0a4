package offsetconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
)

// ErrorHandler receives every problem the Manager runs into. err is one of
// the error types in this package and may be nil for plain messages.
type ErrorHandler func(msg string, err error)

// Log formats msg with args and passes it to h.
func (h ErrorHandler) Log(format string, err error, args ...any) {
	h(fmt.Sprintf(format, args...), err)
}

// AndThen returns a handler calling h and then next.
func (h ErrorHandler) AndThen(next ErrorHandler) ErrorHandler {
	return func(msg string, err error) {
		h(msg, err)
		next(msg, err)
	}
}

var (
	// Stderr prints errors to standard error.
	Stderr = WriterHandler(os.Stderr)
	// Discard drops errors.
	Discard ErrorHandler = func(string, error) {}
)

// WriterHandler prints each message, and its cause when present, to w.
func WriterHandler(w io.Writer) ErrorHandler {
	return func(msg string, err error) {
		if err == nil {
			fmt.Fprintln(w, msg)
			return
		}
		fmt.Fprintf(w, "%s\n\tcaused by: %v\n", msg, err)
	}
}

// LogHandler reports through logger: warnings at warn level, everything else
// at error level.
func LogHandler(logger zerolog.Logger) ErrorHandler {
	return func(msg string, err error) {
		ev := logger.Error()
		if IsWarning(err) {
			ev = logger.Warn()
		}
		ev.Err(err).Msg(msg)
	}
}

// IsWarning reports whether err is non-fatal: the operation that reported it
// carried on.
func IsWarning(err error) bool {
	var skew *VersionSkewWarning
	var backup *BackupError
	return errors.As(err, &skew) || errors.As(err, &backup)
}

// IOError is a failed file read, write, copy or mkdir.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// SyntaxError is a config file that could not be parsed. Err is usually a
// *document.SyntaxError carrying the position.
type SyntaxError struct {
	Path string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// DecodeError is a document that does not fit the config type. Skipped lists
// the keys the lenient fallback could not use either.
type DecodeError struct {
	ID      string
	Type    reflect.Type
	Skipped []string
	Err     error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode config %q into %s: %v", e.ID, e.Type, e.Err)
	if len(e.Skipped) > 0 {
		msg += fmt.Sprintf(" (skipped %s)", strings.Join(e.Skipped, ", "))
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is a config that could not be turned into a document or text.
type EncodeError struct {
	ID  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode config %q: %v", e.ID, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ShapeError is a config that encoded to something other than an object.
type ShapeError struct {
	ID  string
	Got string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("config %q encoded to %s, expected object", e.ID, e.Got)
}

// UninitializedError is an operation on a holder the Manager does not know.
type UninitializedError struct {
	ID string
}

func (e *UninitializedError) Error() string {
	return fmt.Sprintf("config %q is not initialized", e.ID)
}

// VersionSkewWarning is a file written by a newer schema version.
type VersionSkewWarning struct {
	ID       string
	Expected int
	Got      int
}

func (e *VersionSkewWarning) Error() string {
	return fmt.Sprintf("config %q has version %d, newer than %d", e.ID, e.Got, e.Expected)
}

// BackupError is a failed pre-migration backup. Migration continues anyway.
type BackupError struct {
	Path   string
	Backup string
	Err    error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup %s to %s: %v", e.Path, e.Backup, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// MigrationError is a datafixer that failed or was missing. From and To are
// the versions of the step that could not run.
type MigrationError struct {
	ID   string
	From int
	To   int
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrate config %q from version %d to %d: %v", e.ID, e.From, e.To, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// HookError is an error returned by a config's own hook.
type HookError struct {
	ID   string
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("config %q %s: %v", e.ID, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// TypeMismatchError is a typed lookup that found a holder of another type.
type TypeMismatchError struct {
	ID       string
	Expected reflect.Type
	Got      reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("config %q holds %s, not %s", e.ID, e.Got, e.Expected)
}
