package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/npillmayer/manifest/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, file string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--file", file}, args...))
	err := cmd.Execute()
	return out.String(), err
}

var idPattern = regexp.MustCompile(`ID: ([0-9a-f]{8})`)

func isolate(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("MANIFEST_PASSWORD", "")
	return filepath.Join(dir, "todo.xml")
}

func TestCommandWorkflow(t *testing.T) {
	file := isolate(t)
	out, err := run(t, file, "add", "project", "Q3 release")
	require.NoError(t, err)
	m := idPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	project := m[1]
	assert.Contains(t, out, "topic: Q3 release")

	out, err = run(t, file, "add", "task", "Write changelog", "--parent", project[:4], "--status", "active")
	require.NoError(t, err, out)

	out, err = run(t, file, "find", "//task[@status='active']")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 match(es)")
	assert.Contains(t, out, "Topic: Write changelog")

	out, err = run(t, file, "edit", "//task", "--status", "done", "--text", "see wiki")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1 element(s)")

	_, err = run(t, file, "edit", "//task", "--status", "bogus")
	assert.Error(t, err)

	out, err = run(t, file, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "project")
	assert.Contains(t, out, `status="done"`)

	out, err = run(t, file, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "consistent")

	out, err = run(t, file, "delete", project)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 element(s)")

	_, err = run(t, file, "find", "//task")
	assert.Error(t, err, "nothing is left to find")
}

func TestAmbiguousPrefix(t *testing.T) {
	file := isolate(t)
	for _, id := range []string{"a3f7b2c1", "a3f8e9d2"} {
		_, err := run(t, file, "add", "task", "Task "+id, "--id", id)
		require.NoError(t, err)
	}
	out, err := run(t, file, "edit", "a3f", "--status", "done")
	require.Error(t, err)
	assert.Contains(t, out, "Multiple ids match 'a3f'")
	assert.Less(t, strings.Index(out, "a3f7b2c1"), strings.Index(out, "a3f8e9d2"))
}

func TestWrapAndAutoID(t *testing.T) {
	file := isolate(t)
	_, err := run(t, file, "wrap")
	assert.Error(t, err, "empty manifest")
	for _, tag := range []string{"note", "location"} {
		_, err := run(t, file, "add", tag, "--no-id")
		require.NoError(t, err)
	}
	out, err := run(t, file, "autoid")
	require.NoError(t, err)
	assert.Contains(t, out, "Added/updated 2 ID(s)")
	out, err = run(t, file, "wrap", "--root", "archive")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrapped 2 element(s) in <archive>")
}

func TestConfigCommands(t *testing.T) {
	file := isolate(t)
	out, err := run(t, file, "config", "set", "ids.length", "10")
	require.NoError(t, err)
	assert.FileExists(t, config.PathFor(file))
	out, err = run(t, file, "config", "get", "ids.length")
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)
	_, err = run(t, file, "config", "set", "ids.length", "1000")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestExportCommands(t *testing.T) {
	file := isolate(t)
	dir := filepath.Dir(file)
	_, err := run(t, file, "add", "task", "Write changelog", "--due", "2026-03-01", "--status", "pending")
	require.NoError(t, err)
	_, err = run(t, file, "add", "note", "--no-id", "--topic", "misc")
	require.NoError(t, err)

	ics := filepath.Join(dir, "tasks.ics")
	out, err := run(t, file, "export-calendar", "//task", ics, "--name", "Work")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 event(s)")
	data, err := os.ReadFile(ics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTSTART;VALUE=DATE:20260301")
	assert.Contains(t, string(data), "X-WR-CALNAME:Work")
	_, err = run(t, file, "export-calendar", "//note", ics)
	assert.Error(t, err, "note has no due date")

	table := filepath.Join(dir, "table.csv")
	out, err = run(t, file, "export-csv", "-o", table)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 row(s)")

	other := filepath.Join(dir, "other.xml")
	out, err = run(t, other, "import-csv", table, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Tags: note(1), task(1)")
	assert.NoFileExists(t, other)
	out, err = run(t, other, "import-csv", table)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 item(s)")
	out, err = run(t, other, "find", "//task[@status='pending']")
	require.NoError(t, err)
	assert.Contains(t, out, "Topic: Write changelog")

	_, err = run(t, file, "import-csv", table)
	assert.Error(t, err, "ids collide with the document")
	out, err = run(t, file, "import-csv", table, "--remap")
	require.NoError(t, err)
	assert.Contains(t, out, "→")
}
