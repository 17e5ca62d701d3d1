package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	fb := NewFileBackend(filepath.Join(dir, "tasks.xml"))
	assert.Equal(t, filepath.Join(dir, "tasks.xml.ids"), fb.Path)

	_, err := fb.Load()
	assert.ErrorIs(t, err, ErrNotPersisted)

	entries := map[string]string{
		"b5e8d9a2": "/manifest/task[@id='b5e8d9a2']",
		"a3f7b2c1": "/manifest/project[@id='a3f7b2c1']",
	}
	require.NoError(t, fb.Save(entries))

	data, err := os.ReadFile(fb.Path)
	require.NoError(t, err)
	expected := "{\n" +
		"  \"a3f7b2c1\": \"/manifest/project[@id='a3f7b2c1']\",\n" +
		"  \"b5e8d9a2\": \"/manifest/task[@id='b5e8d9a2']\"\n" +
		"}\n"
	assert.Equal(t, expected, string(data))

	loaded, err := fb.Load()
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
}

func TestFileBackendCorrupt(t *testing.T) {
	dir := t.TempDir()
	fb := NewFileBackend(filepath.Join(dir, "tasks.xml"))
	require.NoError(t, os.WriteFile(fb.Path, []byte(`{"a": {"nested": 1}}`), 0o644))
	_, err := fb.Load()
	assert.ErrorIs(t, err, ErrIndexCorruption)
}

func TestBadgerBackend(t *testing.T) {
	bb, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer bb.Close()

	_, err = bb.Load()
	assert.ErrorIs(t, err, ErrNotPersisted)

	require.NoError(t, bb.Save(map[string]string{"a": "/m/a", "b": "/m/b"}))
	require.NoError(t, bb.Save(map[string]string{"b": "/m/x/b", "c": "/m/c"}))

	loaded, err := bb.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "/m/x/b", "c": "/m/c"}, loaded)

	require.NoError(t, bb.Save(map[string]string{}))
	loaded, err = bb.Load()
	require.NoError(t, err, "an empty, saved index is not 'not persisted'")
	assert.Empty(t, loaded)
}

func TestBadgerBackendOnDisk(t *testing.T) {
	cfg := DefaultBadgerConfig(filepath.Join(t.TempDir(), "tasks.xml"))
	cfg.SyncWrites = false
	bb, err := OpenBadger(cfg)
	require.NoError(t, err)
	require.NoError(t, bb.Save(map[string]string{"a": "/m/a"}))
	require.NoError(t, bb.Close())

	bb, err = OpenBadger(cfg)
	require.NoError(t, err)
	defer bb.Close()
	idx := New()
	require.NoError(t, idx.Load(bb))
	assert.True(t, idx.Has("a"))
}

func TestOpenBadgerRequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}
