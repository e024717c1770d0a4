package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/offsetmonkey538/offsetconfig/internal/storage"
	"github.com/offsetmonkey538/offsetconfig/pkg/document"
	"github.com/offsetmonkey538/offsetconfig/pkg/offsetconfig"
)

var disk = storage.New()

// resolvePath turns a bare id into a path under the configured directory.
// Anything with an extension or a separator is taken as a path.
func resolvePath(arg string) string {
	if filepath.Ext(arg) != "" || strings.ContainsRune(arg, filepath.Separator) || strings.Contains(arg, "/") {
		return arg
	}
	for _, ext := range []string{offsetconfig.DefaultExtension, ".yaml", ".yml"} {
		candidate := filepath.Join(settings.Dir, arg+ext)
		if disk.Exists(candidate) {
			return candidate
		}
	}
	return filepath.Join(settings.Dir, arg+offsetconfig.DefaultExtension)
}

// readDocument parses the config file at path with the format its extension
// implies.
func readDocument(path string) (*document.Document, document.Format, error) {
	data, err := disk.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	format := document.FormatFor(path)
	doc, err := format.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, format, nil
}

// storedVersion returns the version stamped on doc and whether there is one.
func storedVersion(doc *document.Document) (int, bool) {
	if !doc.Has(offsetconfig.VersionKey) {
		return 0, false
	}
	return doc.Int(offsetconfig.VersionKey, 0), true
}

func isBackup(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "backup-")
}
