package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/manifest/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, WarnAndAsk, c.Sidecar.CorruptionHandling)
	assert.True(t, c.IsShortcut("task"))
	assert.False(t, c.IsShortcut("archive"))
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yaml")
	perFile := filepath.Join(dir, "todo.xml.config")
	writeFile(t, global, "ids:\n  length: 12\nsidecar:\n  corruption_handling: silent\n")
	writeFile(t, perFile, "sidecar:\n  corruption_handling: warn_and_proceed\nmerge:\n  policy: remap\n")

	c, err := LoadFiles(global, perFile, filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 12, c.IDs.Length, "global overrides defaults")
	assert.Equal(t, WarnAndProceed, c.Sidecar.CorruptionHandling, "per-file overrides global")
	assert.Equal(t, 3, c.IDs.PrefixMin, "untouched keys keep their defaults")
	assert.True(t, c.Sidecar.Enabled)

	opts := c.StoreOptions()
	assert.Equal(t, 12, opts.IDLength)
	assert.Equal(t, store.RemapCollisions, opts.MergePolicy)
	assert.True(t, opts.IndexEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "manifest"), 0o755))
	writeFile(t, filepath.Join(dir, "manifest", "config.yaml"), "display:\n  show_ids: false\n")
	doc := filepath.Join(dir, "todo.xml")
	writeFile(t, PathFor(doc), "shortcuts: [milestone]\n")

	assert.Equal(t, filepath.Join(dir, "manifest", "config.yaml"), GlobalPath())
	c, err := Load(doc)
	require.NoError(t, err)
	assert.False(t, c.Display.ShowIDs)
	assert.Equal(t, []string{"milestone"}, c.Shortcuts)
}

func TestInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"policy":  "sidecar:\n  corruption_handling: panic\n",
		"length":  "ids:\n  length: 2\n",
		"prefix":  "ids:\n  prefix_min: 6\n  prefix_max: 4\n",
		"backend": "sidecar:\n  backend: sqlite\n",
		"syntax":  "ids: [unbalanced\n",
	}
	for name, content := range tests {
		path := filepath.Join(dir, name+".yaml")
		writeFile(t, path, content)
		_, err := LoadFiles(path)
		assert.ErrorIs(t, err, ErrInvalid, name)
	}
}

func TestGetAndSet(t *testing.T) {
	c := Default()
	v, err := c.Get("ids.length")
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	require.NoError(t, c.Set("ids.length", "10"))
	assert.Equal(t, 10, c.IDs.Length)
	require.NoError(t, c.Set("sidecar.auto_rebuild", "true"))
	assert.True(t, c.Sidecar.AutoRebuild)
	require.NoError(t, c.Set("shortcuts", "[task, milestone]"))
	assert.Equal(t, []string{"task", "milestone"}, c.Shortcuts)

	assert.ErrorIs(t, c.Set("ids.length", "100"), ErrInvalid)
	assert.Equal(t, 10, c.IDs.Length, "failed updates leave the configuration unchanged")
	assert.ErrorIs(t, c.Set("ids.colour", "red"), ErrUnknownKey)
	_, err = c.Get("sidecar.enabled.deeper")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	c.Merge.Policy = "remap"
	require.NoError(t, c.Save(path))

	reloaded, err := LoadFiles(path)
	require.NoError(t, err)
	assert.Equal(t, c, reloaded)
}
