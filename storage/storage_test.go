package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `<?xml version="1.0" encoding="UTF-8"?>
<manifest><task id="a3f7b2c1">Buy seeds</task></manifest>
`

func TestValidatePath(t *testing.T) {
	assert.ErrorIs(t, ValidatePath(""), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("  "), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("a\x00b.xml"), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("a\nb.xml"), ErrInvalidPath)
	assert.NoError(t, ValidatePath("tasks.xml"))
}

func TestPlainRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.xml")
	require.NoError(t, Save(path, []byte(payload), nil))
	data, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	_, err = Load(filepath.Join(t.TempDir(), "missing.xml"), nil)
	assert.True(t, isNotExist(err))
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.mfz")
	require.NoError(t, Save(path, []byte(payload), NewPassword([]byte("s3cret"))))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MFZ1", string(raw[:4]))
	assert.NotContains(t, string(raw), "Buy seeds")

	data, err := Load(path, NewPassword([]byte("s3cret")))
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	_, err = Load(path, NewPassword([]byte("wrong")))
	assert.ErrorIs(t, err, ErrBadPassword)

	_, err = Load(path, nil)
	assert.ErrorIs(t, err, ErrPasswordRequired)

	assert.ErrorIs(t, Save(path, []byte(payload), nil), ErrPasswordRequired)
}

func TestArchiveTampering(t *testing.T) {
	sealed, err := Seal([]byte(payload), []byte("pw"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = Open(sealed, []byte("pw"))
	assert.ErrorIs(t, err, ErrBadPassword)

	_, err = Open([]byte("MFZ"), []byte("pw"))
	assert.ErrorIs(t, err, ErrBadPassword)
}

func TestPassword(t *testing.T) {
	secret := []byte("hunter2")
	p := NewPassword(secret)
	require.False(t, p.Empty())
	var seen string
	require.NoError(t, p.With(func(s []byte) error {
		seen = string(s)
		return nil
	}))
	assert.Equal(t, "hunter2", seen)
	p.Destroy()
	assert.True(t, p.Empty())
	assert.ErrorIs(t, p.With(func([]byte) error { return nil }), ErrPasswordRequired)
	assert.Nil(t, NewPassword(nil))
}

func TestLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.xml")
	l, err := Lock(path)
	require.NoError(t, err)
	assert.FileExists(t, LockPath(path))

	_, err = Lock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock())

	l2, err := Lock(path)
	require.NoError(t, err)
	require.NoError(t, l2.Unlock())
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.xml")
	require.NoError(t, Save(path, []byte(payload), nil))
	require.NoError(t, os.WriteFile(path+".ids", []byte("{}\n"), 0o644))

	target, err := Backup(path, BackupOptions{Companions: []string{".ids", ".config"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tasks.bkp.xml"), target)
	assert.FileExists(t, target+".ids")
	assert.NoFileExists(t, target+".config")

	_, err = Backup(path, BackupOptions{})
	assert.ErrorIs(t, err, ErrExists)
	_, err = Backup(path, BackupOptions{Force: true})
	assert.NoError(t, err)

	clock := func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	target, err = Backup(path, BackupOptions{Timestamp: true, Now: clock})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tasks.20261014_093000.xml"), target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}
