package sidecar

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateID is returned when adding an id which is already registered.
var ErrDuplicateID = errors.New("duplicate id")

// ErrUnknownID is returned by Check for deltas referencing unregistered ids.
var ErrUnknownID = errors.New("id not registered")

// ErrIndexCorruption signals that index and document have drifted apart.
var ErrIndexCorruption = errors.New("index corruption")

// ErrNotPersisted is returned by backends which have no index stored yet.
var ErrNotPersisted = errors.New("index not persisted")

// CorruptionError lists the inconsistencies between an index and a document.
type CorruptionError struct {
	Missing   []string // ids in the document, but not in the index
	Stale     []string // ids in the index, but not in the document, or with an outdated locator
	Duplicate []string // ids occuring more than once in the document
}

func (e *CorruptionError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%d missing (%s)", len(e.Missing), abbrev(e.Missing)))
	}
	if len(e.Stale) > 0 {
		parts = append(parts, fmt.Sprintf("%d stale (%s)", len(e.Stale), abbrev(e.Stale)))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate (%s)", len(e.Duplicate), abbrev(e.Duplicate)))
	}
	return "index corruption: " + strings.Join(parts, ", ")
}

// Is makes CorruptionErrors match ErrIndexCorruption.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrIndexCorruption
}

// Empty is true if no inconsistencies have been recorded.
func (e *CorruptionError) Empty() bool {
	return len(e.Missing) == 0 && len(e.Stale) == 0 && len(e.Duplicate) == 0
}

func abbrev(ids []string) string {
	if len(ids) <= 5 {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:5], ", ") + ", …"
}
