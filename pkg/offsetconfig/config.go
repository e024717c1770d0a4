package offsetconfig

import (
	"path/filepath"

	"github.com/offsetmonkey538/offsetconfig/pkg/document"
)

const (
	// VersionKey is the top-level key the schema version is stored under.
	VersionKey = "!!!version"
	// VersionComment is attached to VersionKey in every saved file.
	VersionComment = "!!!!! DO NOT MODIFY THIS VALUE !!!!"

	// DefaultDir is the directory config files live in unless overridden.
	DefaultDir = "config"
	// DefaultExtension is appended to the id to form the file name.
	DefaultExtension = ".json"
)

// Config is implemented by every configuration type. Exported fields are
// what gets saved; decoding replaces them.
type Config interface {
	// ID names the config. It is the registry key and the default file name.
	ID() string
	// Version is the schema version this code understands.
	Version() int
}

// Pather overrides the storage path of a config.
type Pather interface {
	Path() string
}

// Extensioner overrides the file extension used by the default path.
type Extensioner interface {
	Extension() string
}

// Migrator supplies the datafixers of a config. Datafixer i upgrades a
// document from version i to version i+1.
type Migrator interface {
	Datafixers() []Datafixer
}

// BeforeLoader runs before the config file is read, e.g. to move a legacy
// file into place.
type BeforeLoader interface {
	BeforeLoad() error
}

// SerializerConfigurer customizes the serializer used for one config type.
type SerializerConfigurer interface {
	ConfigureSerializer(b *document.Builder)
}

// Datafixer upgrades doc by exactly one schema version, in place.
type Datafixer func(doc *document.Document, s *document.Serializer) error

// Configurator customizes every serializer a Manager builds. Configurators
// run before the config's own SerializerConfigurer.
type Configurator func(b *document.Builder)

// PathOf returns where c is stored when dir is the config directory.
func PathOf(c Config, dir string) string {
	if p, ok := c.(Pather); ok {
		if path := p.Path(); path != "" {
			return path
		}
	}

	ext := DefaultExtension
	if e, ok := c.(Extensioner); ok {
		ext = e.Extension()
	}
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, c.ID()+ext)
}

func datafixersOf(c Config) []Datafixer {
	if m, ok := c.(Migrator); ok {
		return m.Datafixers()
	}
	return nil
}
