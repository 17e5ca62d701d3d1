package store

import (
	"fmt"
	"strings"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/ident"
)

// Merge appends copies of all top-level elements of a source document to
// the root, in order. The source is not modified.
//
// With FailOnCollision, an id of the source which is already used in the
// target (or occurs twice within the source) fails the merge. With
// RemapCollisions, every colliding element gets a freshly allocated id and
// the outcome reports the remapping.
func (tx *Tx) Merge(src *dom.Element, policy MergePolicy) (Outcome, error) {
	if err := tx.check(); err != nil {
		return Outcome{}, err
	}
	if src == nil {
		return Outcome{}, dom.NewValidationError("source", "", "no source document")
	}
	if err := dom.CheckStructure(src); err != nil {
		return Outcome{}, fmt.Errorf("merge: %w", err)
	}
	imports := make([]*dom.Element, 0, src.ChildCount())
	for _, ch := range src.Children() {
		imports = append(imports, dom.Clone(ch))
	}
	used := tx.existingIDs()
	reserved := ident.NewSet(src.IDs()...) // fresh ids must not shadow later source ids
	var collisions []*dom.Element
	for _, e := range imports {
		e.Walk(func(d *dom.Element) bool {
			if id, ok := d.ID(); ok {
				if used.Has(id) {
					collisions = append(collisions, d)
				} else {
					used.Add(id)
				}
			}
			return true
		})
	}
	out := tx.outcome(OpMerge)
	if len(collisions) > 0 {
		if policy != RemapCollisions {
			ids := make([]string, len(collisions))
			for i, e := range collisions {
				ids[i], _ = e.ID()
			}
			return Outcome{}, fmt.Errorf("merge: %w: %s", ErrDuplicateID, strings.Join(ids, ", "))
		}
		for _, e := range collisions {
			old, _ := e.ID()
			id, err := ident.Generate(unionSet{used, reserved}, tx.store.opts.idLength())
			if err != nil {
				return Outcome{}, err
			}
			used.Add(id)
			assign(e, id)
			out.Remapped = append(out.Remapped, Remap{Old: old, New: id})
		}
		tracer().Infof("merge remapped %d colliding id(s)", len(collisions))
	}
	tx.touch()
	root := tx.store.root
	for _, e := range imports {
		root.AppendChild(e)
		out.IDs = append(out.IDs, e.IDs()...)
		out.Count++
	}
	return out, nil
}

type unionSet []ident.Set

func (u unionSet) Has(id string) bool {
	for _, s := range u {
		if s.Has(id) {
			return true
		}
	}
	return false
}
