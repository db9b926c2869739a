// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// PersistenceError is returned when a unit can't be backed up or written.
type PersistenceError struct {
	Unit string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Unit, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store is a directory of catalog units.
type Store struct {
	root      string
	backupDir string

	now       func() time.Time
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// NewStore creates a store over the units found in root. Backups are written
// to backupDir, or next to each unit when backupDir is empty.
func NewStore(root, backupDir string) *Store {
	return &Store{
		root:      root,
		backupDir: backupDir,
		now:       time.Now,
		writeFile: os.WriteFile,
	}
}

// Root returns the directory holding the units.
func (s *Store) Root() string {
	return s.root
}

// Units lists the file names of every unit, sorted.
func (s *Store) Units() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing catalog units: %w", err)
	}

	var ret []string

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		ret = append(ret, e.Name())
	}

	slices.Sort(ret)

	return ret, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// Load reads and parses a unit.
func (s *Store) Load(name string) (*Unit, error) {
	data, err := os.ReadFile(filepath.Clean(s.path(name)))
	if err != nil {
		return nil, fmt.Errorf("reading catalog unit: %w", err)
	}

	return Parse(filepath.Base(name), data)
}

// BackupName returns the name of a backup of unit taken at t. Colons and dots
// are replaced so the name is portable.
func BackupName(unit string, t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)

	return unit + ".backup-" + stamp
}

// Snapshot is a backup of a unit taken before it is rewritten.
type Snapshot struct {
	store *Store
	unit  string
	perm  os.FileMode

	// BackupPath is where the previous contents were copied.
	BackupPath string
}

// Begin takes a backup of the unit. Backups are never removed.
func (s *Store) Begin(name string) (*Snapshot, error) {
	name = filepath.Base(name)
	target := s.path(name)

	info, err := os.Stat(target)
	if err != nil {
		return nil, &PersistenceError{Unit: name, Op: "backup", Err: err}
	}

	data, err := os.ReadFile(filepath.Clean(target))
	if err != nil {
		return nil, &PersistenceError{Unit: name, Op: "backup", Err: err}
	}

	dir := s.backupDir
	if dir == "" {
		dir = s.root
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &PersistenceError{Unit: name, Op: "backup", Err: err}
	}

	backup, err := writeBackup(filepath.Join(dir, BackupName(name, s.now())), data)
	if err != nil {
		return nil, &PersistenceError{Unit: name, Op: "backup", Err: err}
	}

	return &Snapshot{
		store:      s,
		unit:       name,
		perm:       info.Mode().Perm(),
		BackupPath: backup,
	}, nil
}

// Commit replaces the unit with data. The replacement is atomic: on failure
// the unit keeps its previous contents.
func (sn *Snapshot) Commit(data []byte) error {
	target := sn.store.path(sn.unit)
	tmp := target + ".tmp"

	if err := sn.store.writeFile(tmp, data, sn.perm); err != nil {
		return &PersistenceError{
			Unit: sn.unit,
			Op:   "write",
			Err:  errors.Join(err, removeIfExists(tmp)),
		}
	}

	if err := os.Rename(tmp, target); err != nil {
		return &PersistenceError{
			Unit: sn.unit,
			Op:   "write",
			Err:  errors.Join(err, removeIfExists(tmp)),
		}
	}

	return nil
}

// Restore puts back the contents saved by Begin.
func (sn *Snapshot) Restore() error {
	data, err := os.ReadFile(filepath.Clean(sn.BackupPath))
	if err != nil {
		return &PersistenceError{Unit: sn.unit, Op: "restore", Err: err}
	}

	if err := os.WriteFile(sn.store.path(sn.unit), data, sn.perm); err != nil {
		return &PersistenceError{Unit: sn.unit, Op: "restore", Err: err}
	}

	return nil
}

// Save backs up the unit file and replaces it with the contents of u. It
// returns the backup path.
func (s *Store) Save(u *Unit) (string, error) {
	sn, err := s.Begin(u.Name)
	if err != nil {
		return "", err
	}

	if err := sn.Commit(u.Raw()); err != nil {
		return sn.BackupPath, err
	}

	return sn.BackupPath, nil
}

// writeBackup creates a new file at path, or path-1, path-2... when taken.
// An existing backup is never replaced.
func writeBackup(path string, data []byte) (string, error) {
	const maxAttempts = 100

	for i := range maxAttempts {
		candidate := path
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", path, i)
		}

		f, err := os.OpenFile(filepath.Clean(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		if err != nil {
			return "", err
		}

		if _, err := f.Write(data); err != nil {
			return "", errors.Join(err, f.Close(), os.Remove(candidate))
		}

		if err := f.Close(); err != nil {
			return "", errors.Join(err, os.Remove(candidate))
		}

		return candidate, nil
	}

	return "", fmt.Errorf("%s: %w", path, fs.ErrExist)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}
