package event

// InitializedData is the data for config.initialized events.
type InitializedData struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Existed bool   `json:"existed"`
}

// LoadedData is the data for config.loaded events.
// Lenient is set when the strict decode failed and the fallback was used.
type LoadedData struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Version int    `json:"version"`
	Lenient bool   `json:"lenient,omitempty"`
}

// MigratedData is the data for config.migrated events.
type MigratedData struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	Applied int    `json:"applied"`
}

// BackupCreatedData is the data for config.backup.created events.
type BackupCreatedData struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Backup string `json:"backup"`
}

// SavedData is the data for config.saved events.
type SavedData struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Version int    `json:"version"`
	Bytes   int    `json:"bytes"`
}
