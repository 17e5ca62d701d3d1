package sidecar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/manifest/dom"
)

// Index maps element ids to locators.
//
// An Index is not safe for concurrent use; it serves a single session.
type Index struct {
	entries  map[string]string
	dirty    bool
	degraded bool
}

// New creates an empty index.
func New() *Index {
	return &Index{entries: make(map[string]string)}
}

// FromMap creates an index with the given entries. The index is not dirty.
func FromMap(entries map[string]string) *Index {
	idx := New()
	for id, loc := range entries {
		idx.entries[id] = loc
	}
	return idx
}

// Add registers an id. It fails with ErrDuplicateID if id is already present.
func (idx *Index) Add(id, locator string) error {
	if _, exists := idx.entries[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	idx.entries[id] = locator
	idx.dirty = true
	return nil
}

// Remove unregisters an id. Removing an absent id is a no-op.
func (idx *Index) Remove(id string) {
	if _, exists := idx.entries[id]; exists {
		delete(idx.entries, id)
		idx.dirty = true
	}
}

// Get returns the locator for an id.
func (idx *Index) Get(id string) (string, bool) {
	loc, ok := idx.entries[id]
	return loc, ok
}

// Has is a predicate: is id registered?
func (idx *Index) Has(id string) bool {
	_, ok := idx.entries[id]
	return ok
}

// Len returns the number of registered ids.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// IDs returns all registered ids, sorted.
func (idx *Index) IDs() []string {
	ids := make([]string, 0, len(idx.entries))
	for id := range idx.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WithPrefix returns all registered ids starting with prefix, sorted.
func (idx *Index) WithPrefix(prefix string) []string {
	var ids []string
	for id := range idx.entries {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Entries returns a copy of the id → locator mapping.
func (idx *Index) Entries() map[string]string {
	m := make(map[string]string, len(idx.entries))
	for id, loc := range idx.entries {
		m[id] = loc
	}
	return m
}

// --- Consistency -----------------------------------------------------------

// Rebuild clears the index and re-populates it from a document with a single
// walk. If ids are not unique within the document, the first occurence wins
// and a CorruptionError listing the duplicates is returned.
// Rebuilding clears the degraded flag.
func (idx *Index) Rebuild(root *dom.Element) error {
	locs, dups := dom.Locators(root)
	idx.entries = locs
	idx.dirty = true
	idx.degraded = false
	tracer().Infof("index rebuilt with %d entries", len(locs))
	if len(dups) > 0 {
		sort.Strings(dups)
		return &CorruptionError{Duplicate: dups}
	}
	return nil
}

// Verify checks the bijection between id-bearing elements of a document
// and the index. A locator counts as stale if it differs from the element's
// current locator.
func (idx *Index) Verify(root *dom.Element) error {
	locs, dups := dom.Locators(root)
	cerr := &CorruptionError{Duplicate: dups}
	for id, loc := range locs {
		indexed, ok := idx.entries[id]
		if !ok {
			cerr.Missing = append(cerr.Missing, id)
		} else if indexed != loc {
			cerr.Stale = append(cerr.Stale, id)
		}
	}
	for id := range idx.entries {
		if _, ok := locs[id]; !ok {
			cerr.Stale = append(cerr.Stale, id)
		}
	}
	if cerr.Empty() {
		return nil
	}
	sort.Strings(cerr.Missing)
	sort.Strings(cerr.Stale)
	sort.Strings(cerr.Duplicate)
	tracer().Errorf("%v", cerr)
	return cerr
}

// SetDegraded flags the index as unreliable. Clients may continue with
// read-only operations in degraded mode.
func (idx *Index) SetDegraded(degraded bool) {
	idx.degraded = degraded
}

// Degraded returns the degraded flag.
func (idx *Index) Degraded() bool {
	return idx.degraded
}

// --- Persistence -----------------------------------------------------------

// Dirty is true if the index has changes which have not been flushed.
func (idx *Index) Dirty() bool {
	return idx.dirty
}

// Flush writes the index to a backend, if it is dirty.
func (idx *Index) Flush(b Backend) error {
	if !idx.dirty {
		return nil
	}
	if err := b.Save(idx.entries); err != nil {
		return fmt.Errorf("flushing index: %w", err)
	}
	idx.dirty = false
	tracer().Debugf("index flushed (%d entries)", len(idx.entries))
	return nil
}

// Load replaces the content of the index with the entries of a backend.
// The entries are not validated; call Verify for this.
func (idx *Index) Load(b Backend) error {
	entries, err := b.Load()
	if err != nil {
		return err
	}
	idx.entries = entries
	if idx.entries == nil {
		idx.entries = make(map[string]string)
	}
	idx.dirty = false
	tracer().Debugf("index loaded (%d entries)", len(idx.entries))
	return nil
}
