package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// BackupTimeLayout is the sortable timestamp embedded in backup names.
const BackupTimeLayout = "2006_01_02-15_04_05"

var backupPattern = regexp.MustCompile(`^backup-(\d{4}_\d{2}_\d{2}-\d{2}_\d{2}_\d{2})(?:_(\d+))?-(.+)$`)

// Backup is a backup file sitting next to the file it was taken from.
type Backup struct {
	Path string
	Time time.Time
	Seq  int
}

// BackupName returns the file name of the seq'th backup of base taken at t.
// Seq 0 is the plain name; later ones disambiguate backups within a second.
func BackupName(base string, t time.Time, seq int) string {
	stamp := t.Format(BackupTimeLayout)
	if seq > 0 {
		stamp += "_" + strconv.Itoa(seq)
	}
	return "backup-" + stamp + "-" + base
}

// NextBackupPath returns the first backup path for path at now that exists
// does not report as taken.
func NextBackupPath(exists func(string) bool, path string, now time.Time) string {
	dir, base := filepath.Dir(path), filepath.Base(path)
	for seq := 0; ; seq++ {
		candidate := filepath.Join(dir, BackupName(base, now, seq))
		if !exists(candidate) {
			return candidate
		}
	}
}

// Backups lists the backups of path, newest first.
func (d *Disk) Backups(path string) ([]Backup, error) {
	dir, base := filepath.Dir(path), filepath.Base(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Backup{}, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	backups := []Backup{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := backupPattern.FindStringSubmatch(entry.Name())
		if m == nil || m[3] != base {
			continue
		}
		ts, err := time.ParseInLocation(BackupTimeLayout, m[1], time.Local)
		if err != nil {
			continue
		}
		seq := 0
		if m[2] != "" {
			seq, _ = strconv.Atoi(m[2])
		}
		backups = append(backups, Backup{Path: filepath.Join(dir, entry.Name()), Time: ts, Seq: seq})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].Time.Equal(backups[j].Time) {
			return backups[i].Time.After(backups[j].Time)
		}
		return backups[i].Seq > backups[j].Seq
	})
	return backups, nil
}

// PruneBackups deletes all but the newest keep backups of path and returns
// the ones it removed.
func (d *Disk) PruneBackups(path string, keep int) ([]Backup, error) {
	if keep < 0 {
		keep = 0
	}
	backups, err := d.Backups(path)
	if err != nil {
		return nil, err
	}
	if len(backups) <= keep {
		return nil, nil
	}

	removed := backups[keep:]
	for _, b := range removed {
		if err := d.Remove(b.Path); err != nil {
			return nil, err
		}
	}
	return removed, nil
}
