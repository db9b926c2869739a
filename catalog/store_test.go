// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcodagnone/geofix/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUnit(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestBackupName(t *testing.T) {
	at := time.Date(2025, 7, 14, 9, 30, 15, 123e6, time.UTC)
	assert.Equal(t, "1.json.backup-2025-07-14T09-30-15-123Z", BackupName("1.json", at))
}

func TestStore_Units(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "b.json", "{}")
	writeUnit(t, dir, "a.json", "{}")
	writeUnit(t, dir, "notes.txt", "")
	writeUnit(t, dir, "a.json.backup-2025-01-01T00-00-00-000Z", "{}")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o700))

	units, err := NewStore(dir, "").Units()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, units)
}

func TestStore_Save(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(t.TempDir(), "backups")
	path := writeUnit(t, dir, "arrondissement-1.json", unitDoc)

	s := NewStore(dir, backups)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	u, err := s.Load("arrondissement-1.json")
	require.NoError(t, err)

	fixed, err := u.WithChanges([]Change{{
		Category:    "museums",
		Index:       1,
		Coordinates: spatial.Point{Lat: 48.8631, Lng: 2.337},
	}})
	require.NoError(t, err)

	backup, err := s.Save(fixed)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backups, "arrondissement-1.json.backup-2025-03-01T10-00-00-000Z"), backup)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(fixed.Raw()), string(saved))

	previous, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, unitDoc, string(previous))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStore_SaveKeepsEarlierBackups(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "arrondissement-1.json", unitDoc)

	s := NewStore(dir, "")
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	u, err := s.Load("arrondissement-1.json")
	require.NoError(t, err)

	fixed, err := u.WithChanges([]Change{{
		Category:    "museums",
		Index:       1,
		Coordinates: spatial.Point{Lat: 48.8631, Lng: 2.337},
	}})
	require.NoError(t, err)

	first, err := s.Save(fixed)
	require.NoError(t, err)

	// same millisecond
	second, err := s.Save(fixed)
	require.NoError(t, err)
	assert.Equal(t, first+"-1", second)

	previous, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, unitDoc, string(previous), "the pre-run backup survives")

	again, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(fixed.Raw()), string(again))
}

func TestStore_SaveWriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeUnit(t, dir, "arrondissement-1.json", unitDoc)

	s := NewStore(dir, "")
	s.writeFile = func(name string, data []byte, perm os.FileMode) error {
		// leave a partial file behind, like a full disk would
		if err := os.WriteFile(name, data[:10], perm); err != nil {
			return err
		}

		return errors.New("no space left on device")
	}

	u, err := s.Load("arrondissement-1.json")
	require.NoError(t, err)

	fixed, err := u.WithChanges([]Change{{Category: "museums", Index: 1, Coordinates: spatial.Point{Lat: 48.8631, Lng: 2.337}}})
	require.NoError(t, err)

	backup, err := s.Save(fixed)
	require.Error(t, err)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "write", perr.Op)
	assert.Equal(t, "arrondissement-1.json", perr.Unit)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, unitDoc, string(current), "original must be byte for byte unchanged")

	previous, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, unitDoc, string(previous))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSnapshot_Restore(t *testing.T) {
	dir := t.TempDir()
	path := writeUnit(t, dir, "2.json", `{"categories": {}}`)

	s := NewStore(dir, "")

	sn, err := s.Begin("2.json")
	require.NoError(t, err)
	require.NoError(t, sn.Commit([]byte(`{"categories": {"bars": {}}}`)))

	require.NoError(t, sn.Restore())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"categories": {}}`, string(data))
}

func TestStore_BeginMissingUnit(t *testing.T) {
	_, err := NewStore(t.TempDir(), "").Begin("nope.json")

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "backup", perr.Op)
}
