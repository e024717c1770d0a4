package offsetconfig

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/offsetmonkey538/offsetconfig/internal/metrics"
	"github.com/offsetmonkey538/offsetconfig/internal/storage"
	"github.com/offsetmonkey538/offsetconfig/pkg/document"
	"github.com/offsetmonkey538/offsetconfig/pkg/event"
)

// Initialize registers h, loads its file if there is one and saves it, so a
// current-version file always exists afterwards. A holder already registered
// under the same id is replaced. Problems go to h's error handler.
//
// An existing file that could not be loaded is only overwritten once a
// backup of it exists; when no backup can be taken the file is left alone.
func (m *Manager) Initialize(h Handle) Handle {
	return m.InitializeWith(h, nil)
}

// InitializeWith is Initialize reporting to handler.
func (m *Manager) InitializeWith(h Handle, handler ErrorHandler) Handle {
	handler = handlerOr(handler, h)
	id := h.ID()

	m.mu.Lock()
	if _, ok := m.holders[id]; ok {
		m.log.Debug().Str("id", id).Msg("replacing registered config")
	}
	m.holders[id] = h
	m.mu.Unlock()

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	// The hook runs before the existence check so it can move a legacy file
	// into place.
	prepared := m.beforeLoad(h, handler)

	path := m.PathOf(h)
	existed := m.fs.Exists(path)
	overwrite := true
	if existed {
		loaded, backup := false, backupSkipped
		if prepared {
			loaded, backup = m.load(h, handler)
		}
		if !loaded && backup == backupSkipped {
			backup = m.backup(id, path, handler)
		}
		overwrite = loaded || backup == backupTaken
	}
	if overwrite {
		m.save(h, handler)
	} else {
		m.log.Warn().Str("id", id).Str("path", path).Msg("keeping config file that could neither be loaded nor backed up")
	}

	m.log.Debug().Str("id", id).Str("path", path).Bool("existed", existed).Msg("config initialized")
	m.publish(event.ConfigInitialized, event.InitializedData{ID: id, Path: path, Existed: existed})
	return h
}

// Load reads h's file into a fresh instance, migrating it first when the
// stored version differs. Problems go to h's error handler; on failure the
// held config is left as it was.
func (m *Manager) Load(h Handle) {
	m.LoadWith(h, nil)
}

// LoadWith is Load reporting to handler.
func (m *Manager) LoadWith(h Handle, handler ErrorHandler) {
	handler = handlerOr(handler, h)
	if !m.registered(h) {
		id := h.ID()
		handler.Log("config '%s' has not been initialized", &UninitializedError{ID: id}, id)
		return
	}

	lock := m.lockFor(h.ID())
	lock.Lock()
	defer lock.Unlock()

	if m.beforeLoad(h, handler) {
		m.load(h, handler)
	}
}

// Save writes h's config with the current version stamped on it. Problems go
// to h's error handler.
func (m *Manager) Save(h Handle) {
	m.SaveWith(h, nil)
}

// SaveWith is Save reporting to handler.
func (m *Manager) SaveWith(h Handle, handler ErrorHandler) {
	handler = handlerOr(handler, h)
	if !m.registered(h) {
		id := h.ID()
		handler.Log("config '%s' has not been initialized", &UninitializedError{ID: id}, id)
		return
	}

	lock := m.lockFor(h.ID())
	lock.Lock()
	defer lock.Unlock()

	m.save(h, handler)
}

func (m *Manager) beforeLoad(h Handle, handler ErrorHandler) bool {
	hook, ok := h.Current().(BeforeLoader)
	if !ok {
		return true
	}
	if err := hook.BeforeLoad(); err != nil {
		id := h.ID()
		handler.Log("config '%s' could not prepare for loading", &HookError{ID: id, Hook: "BeforeLoad", Err: err}, id)
		m.metrics.RecordLoad(id, metrics.ResultError)
		return false
	}
	return true
}

// load runs the pipeline after the BeforeLoad hook and reports whether h was
// replaced and what became of the backup on the way. The caller holds the
// config's lock.
func (m *Manager) load(h Handle, handler ErrorHandler) (loaded bool, backup backupOutcome) {
	current := h.Current()
	id := current.ID()
	path := PathOf(current, m.dir)
	s := m.serializer(current, path)

	data, err := m.fs.ReadFile(path)
	if err != nil {
		handler.Log("config file '%s' could not be read", &IOError{Op: "read", Path: path, Err: err}, path)
		m.metrics.RecordLoad(id, metrics.ResultError)
		return false, backupSkipped
	}

	doc, err := s.Parse(data)
	if err != nil {
		handler.Log("config file '%s' is formatted incorrectly", &SyntaxError{Path: path, Err: err}, path)
		m.metrics.RecordLoad(id, metrics.ResultError)
		return false, backupSkipped
	}

	version := doc.Int(VersionKey, 0)
	modified, backup, err := m.migrate(current, path, doc, s, handler)
	if err != nil {
		handler.Log("config '%s' could not be migrated", err, id)
		m.metrics.RecordLoad(id, metrics.ResultError)
		return false, backup
	}

	doc.Remove(VersionKey)

	result := metrics.ResultOK
	next, err := h.decodeNew(func(target any) error {
		return s.Decode(doc, target)
	})
	if err != nil {
		var skipped []string
		next, _ = h.decodeNew(func(target any) error {
			skipped = s.DecodeLenient(doc, target)
			return nil
		})
		decodeErr := &DecodeError{ID: id, Type: h.Type(), Skipped: skipped, Err: err}
		handler.Log("failed to create config '%s' of type %s from file, using what could be read", decodeErr, id, h.Type())
		result = metrics.ResultLenient
	}

	h.replace(next)
	m.metrics.RecordLoad(id, result)
	m.log.Debug().Str("id", id).Str("path", path).Int("version", version).Bool("lenient", result == metrics.ResultLenient).Msg("config loaded")
	m.publish(event.ConfigLoaded, event.LoadedData{ID: id, Path: path, Version: version, Lenient: result == metrics.ResultLenient})

	if modified {
		m.save(h, handler)
	}
	return true, backup
}

// migrate brings doc to the config's version. It reports whether the file
// has to be rewritten and whether a backup of it was taken. Any version
// mismatch backs the file up before anything else can fail.
func (m *Manager) migrate(c Config, path string, doc *document.Document, s *document.Serializer, handler ErrorHandler) (modified bool, backup backupOutcome, err error) {
	id := c.ID()
	loaded := doc.Int(VersionKey, 0)
	current := c.Version()

	if loaded == current {
		return false, backupSkipped, nil
	}
	if loaded > current {
		handler.Log(
			"config file '%s' is for a newer version, expected version %d but got %d (was the application downgraded?)",
			&VersionSkewWarning{ID: id, Expected: current, Got: loaded},
			path, current, loaded,
		)
	}

	backup = m.backup(id, path, handler)
	if loaded < 0 {
		return false, backup, &MigrationError{ID: id, From: loaded, To: current, Err: errors.New("negative version")}
	}

	var steps []Datafixer
	if loaded < current {
		fixers := datafixersOf(c)
		if len(fixers) < current {
			return false, backup, &MigrationError{
				ID:   id,
				From: loaded,
				To:   current,
				Err:  fmt.Errorf("%d datafixers registered, %d needed", len(fixers), current),
			}
		}
		steps = fixers[loaded:current]
	}

	for i, fix := range steps {
		from := loaded + i
		if fix == nil {
			return false, backup, &MigrationError{ID: id, From: from, To: from + 1, Err: errors.New("nil datafixer")}
		}
		if err := fix(doc, s); err != nil {
			return false, backup, &MigrationError{ID: id, From: from, To: from + 1, Err: err}
		}
	}

	m.metrics.RecordMigration(id, len(steps))
	m.log.Info().Str("id", id).Int("from", loaded).Int("to", current).Int("applied", len(steps)).Msg("config migrated")
	m.publish(event.ConfigMigrated, event.MigratedData{ID: id, Path: path, From: loaded, To: current, Applied: len(steps)})
	return true, backup, nil
}

// maxBackupAttempts bounds retries when a backup name is taken between the
// existence check and the copy.
const maxBackupAttempts = 16

// backupOutcome records whether a file was copied aside before being touched.
type backupOutcome int

const (
	backupSkipped backupOutcome = iota
	backupTaken
	backupFailed
)

// backup copies path aside. Failure is reported as a warning.
func (m *Manager) backup(id, path string, handler ErrorHandler) backupOutcome {
	now := m.now()
	var dst string
	var err error
	for attempt := 0; attempt < maxBackupAttempts; attempt++ {
		dst = storage.NextBackupPath(m.fs.Exists, path, now)
		err = m.fs.Copy(path, dst)
		if !errors.Is(err, storage.ErrExists) {
			break
		}
	}

	m.metrics.RecordBackup(id, err)
	if err != nil {
		handler.Log(
			"unable to create backup of config file '%s', continuing anyway",
			&BackupError{Path: path, Backup: dst, Err: err},
			path,
		)
		return backupFailed
	}

	m.log.Info().Str("id", id).Str("backup", dst).Msg("config backed up")
	m.publish(event.BackupCreated, event.BackupCreatedData{ID: id, Path: path, Backup: dst})
	return backupTaken
}

// save writes h's config. The caller holds the config's lock.
func (m *Manager) save(h Handle, handler ErrorHandler) {
	current := h.Current()
	id := current.ID()
	path := PathOf(current, m.dir)
	s := m.serializer(current, path)

	tree, err := s.Encode(current)
	if err != nil {
		handler.Log("config '%s' could not be serialized, config will not be saved", &EncodeError{ID: id, Err: err}, id)
		m.metrics.RecordSave(id, err)
		return
	}
	doc, ok := tree.(*document.Document)
	if !ok {
		shapeErr := &ShapeError{ID: id, Got: document.KindOf(tree)}
		handler.Log("config '%s' could not be serialized to an object, got %s instead, config will not be saved", shapeErr, id, shapeErr.Got)
		m.metrics.RecordSave(id, shapeErr)
		return
	}

	doc.PutComment(VersionKey, current.Version(), VersionComment)

	data, err := s.Render(doc)
	if err != nil {
		handler.Log("config '%s' could not be serialized, config will not be saved", &EncodeError{ID: id, Err: err}, id)
		m.metrics.RecordSave(id, err)
		return
	}

	if err := m.fs.MkdirAll(filepath.Dir(path)); err != nil {
		ioErr := &IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
		handler.Log("config file '%s' could not be saved", ioErr, path)
		m.metrics.RecordSave(id, ioErr)
		return
	}
	if err := m.fs.WriteFile(path, data); err != nil {
		ioErr := &IOError{Op: "write", Path: path, Err: err}
		handler.Log("config file '%s' could not be saved", ioErr, path)
		m.metrics.RecordSave(id, ioErr)
		return
	}

	m.remember(path, data)
	m.metrics.RecordSave(id, nil)
	m.log.Debug().Str("id", id).Str("path", path).Int("version", current.Version()).Msg("config saved")
	m.publish(event.ConfigSaved, event.SavedData{ID: id, Path: path, Version: current.Version(), Bytes: len(data)})
}
