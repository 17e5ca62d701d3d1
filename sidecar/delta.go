package sidecar

import (
	"fmt"
	"sort"
)

// Delta is the net effect of a committed transaction on the index.
type Delta struct {
	Added     map[string]string // new ids and their locators
	Relocated map[string]string // registered ids with a new locator
	Removed   []string          // ids no longer present
}

// Diff computes the delta transforming the entries before into after.
func Diff(before, after map[string]string) Delta {
	d := Delta{Added: map[string]string{}, Relocated: map[string]string{}}
	for id, loc := range after {
		if old, ok := before[id]; !ok {
			d.Added[id] = loc
		} else if old != loc {
			d.Relocated[id] = loc
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Removed)
	return d
}

// IsEmpty is true if the delta leaves an index unchanged.
func (d Delta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Relocated) == 0 && len(d.Removed) == 0
}

// Size is the number of changes a delta comprises.
func (d Delta) Size() int {
	return len(d.Added) + len(d.Relocated) + len(d.Removed)
}

func (d Delta) String() string {
	return fmt.Sprintf("Δ(+%d ~%d -%d)", len(d.Added), len(d.Relocated), len(d.Removed))
}

// Check validates a delta against the index without modifying it. Removed
// and relocated ids must be registered; added ids must not be registered,
// unless they are removed by the same delta.
func (idx *Index) Check(d Delta) error {
	removed := make(map[string]bool, len(d.Removed))
	for _, id := range d.Removed {
		if !idx.Has(id) {
			return fmt.Errorf("%w: cannot remove %s", ErrUnknownID, id)
		}
		removed[id] = true
	}
	for id := range d.Relocated {
		if !idx.Has(id) || removed[id] {
			return fmt.Errorf("%w: cannot relocate %s", ErrUnknownID, id)
		}
	}
	for id := range d.Added {
		if idx.Has(id) && !removed[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		if _, moved := d.Relocated[id]; moved {
			return fmt.Errorf("%w: %s added and relocated", ErrDuplicateID, id)
		}
	}
	return nil
}

// Apply checks a delta and applies it to the index. If the check fails,
// the index is left unchanged.
func (idx *Index) Apply(d Delta) error {
	if err := idx.Check(d); err != nil {
		return err
	}
	if d.IsEmpty() {
		return nil
	}
	for _, id := range d.Removed {
		delete(idx.entries, id)
	}
	for id, loc := range d.Relocated {
		idx.entries[id] = loc
	}
	for id, loc := range d.Added {
		idx.entries[id] = loc
	}
	idx.dirty = true
	tracer().Debugf("index applied %s", d)
	return nil
}
