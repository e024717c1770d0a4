// Package storage provides the file primitives config files are read, written
// and backed up with.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// Disk reads and writes files on the local filesystem.
type Disk struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// New creates a Disk using 0755 for directories and 0644 for files.
func New() *Disk {
	return &Disk{dirPerm: 0755, filePerm: 0644}
}

// Exists checks if a path exists.
func (d *Disk) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadFile returns the full contents of path.
func (d *Disk) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// WriteFile replaces the contents of path with data. The write happens in
// place; a crash part-way through can leave a truncated file.
func (d *Disk) WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, d.filePerm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// MkdirAll ensures dir exists.
func (d *Disk) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, d.dirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Copy copies src to dst. It never overwrites: an existing dst fails with
// ErrExists.
func (d *Disk) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", src, ErrNotFound)
		}
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, d.filePerm)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s: %w", dst, ErrExists)
		}
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close destination: %w", err)
	}
	return nil
}

// Remove deletes path. Removing a missing file is not an error.
func (d *Disk) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
