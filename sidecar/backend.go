package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/npillmayer/manifest/storage"
)

// Backend persists the entries of an index.
type Backend interface {
	// Load returns the persisted entries, or ErrNotPersisted.
	Load() (map[string]string, error)
	// Save replaces the persisted entries.
	Save(entries map[string]string) error
	// Close releases resources held by the backend.
	Close() error
}

// PathFor returns the path of the sidecar file of a document.
func PathFor(docPath string) string {
	return docPath + ".ids"
}

// --- JSON file -------------------------------------------------------------

// FileBackend stores an index as a flat JSON object {id: locator}, with
// sorted keys and an indentation of 2.
type FileBackend struct {
	Path string
}

// NewFileBackend creates a backend for the sidecar file of a document.
func NewFileBackend(docPath string) *FileBackend {
	return &FileBackend{Path: PathFor(docPath)}
}

func (fb *FileBackend) Load() (map[string]string, error) {
	data, err := os.ReadFile(fb.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotPersisted
	}
	if err != nil {
		return nil, fmt.Errorf("reading sidecar %s: %w", fb.Path, err)
	}
	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: sidecar %s is not a flat JSON mapping: %v",
			ErrIndexCorruption, fb.Path, err)
	}
	return entries, nil
}

func (fb *FileBackend) Save(entries map[string]string) error {
	if entries == nil {
		entries = map[string]string{}
	}
	data, err := json.MarshalIndent(entries, "", "  ") // maps are marshalled with sorted keys
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(fb.Path, append(data, '\n'), 0o644)
}

func (fb *FileBackend) Close() error {
	return nil
}

// --- Memory ----------------------------------------------------------------

// MemoryBackend keeps an index in memory. It is used when persisting the
// index is disabled, and for testing.
type MemoryBackend struct {
	entries map[string]string
	Saves   int // number of calls to Save
}

func (mb *MemoryBackend) Load() (map[string]string, error) {
	if mb.entries == nil {
		return nil, ErrNotPersisted
	}
	return copyMap(mb.entries), nil
}

func (mb *MemoryBackend) Save(entries map[string]string) error {
	mb.entries = copyMap(entries)
	mb.Saves++
	return nil
}

func (mb *MemoryBackend) Close() error {
	return nil
}

func copyMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
