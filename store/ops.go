package store

import (
	"fmt"
	"sort"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/ident"
	"github.com/npillmayer/manifest/maybe"
	"github.com/npillmayer/manifest/tree"
)

// Op names a kind of mutation.
type Op string

const (
	OpInsert    Op = "insert"
	OpUpdate    Op = "update"
	OpRemove    Op = "remove"
	OpWrap      Op = "wrap"
	OpMerge     Op = "merge"
	OpEnsureIDs Op = "ensure_ids"
)

// Remap records an id which has been replaced during a merge.
type Remap struct {
	Old, New string
}

// Outcome is the result of a successful mutation.
type Outcome struct {
	Op       Op
	Count    int      // number of elements affected
	IDs      []string // ids assigned, changed or removed
	Remapped []Remap  // merge only
	TxID     string
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s: %d element(s)", o.Op, o.Count)
}

// Template describes an element to insert.
type Template struct {
	Tag   string
	Attrs []dom.KeyValue
	Text  maybe.Maybe[string]
	ID    ident.Mode
}

// Patch describes modifications of elements. Attributes not mentioned are
// preserved; Just(v) sets an attribute, Nothing removes it. A nil Text leaves
// the text untouched, Just(s) sets it and Nothing clears it.
type Patch struct {
	Attrs map[string]maybe.Maybe[string]
	Text  maybe.Maybe[string]
}

// IsEmpty is true if the patch does not change anything.
func (p Patch) IsEmpty() bool {
	return len(p.Attrs) == 0 && p.Text == nil
}

func (tx *Tx) outcome(op Op) Outcome {
	opsTotal.WithLabelValues(string(op)).Inc()
	return Outcome{Op: op, TxID: tx.ID}
}

func (tx *Tx) resolve(t Target) ([]*dom.Element, error) {
	s := tx.store
	res, err := s.resolve(t, s.lookup(tx.modified))
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

// existingIDs collects the ids of the document.
func (tx *Tx) existingIDs() ident.MapSet {
	return ident.NewSet(tx.store.root.IDs()...)
}

// --- Insert ----------------------------------------------------------------

// Insert appends a new element built from tmpl to every element of the
// parent set. An empty parent selector denotes the root element.
//
// In auto mode, every inserted element gets an id of its own, provided that
// the store assigns ids automatically. A custom id is only valid for a
// single parent.
func (tx *Tx) Insert(parents Target, tmpl Template) (Outcome, error) {
	if err := tx.check(); err != nil {
		return Outcome{}, err
	}
	proto, mode, err := tx.prototype(tmpl)
	if err != nil {
		return Outcome{}, err
	}
	var targets []*dom.Element
	if parents.Selector == "" {
		targets = []*dom.Element{tx.store.root}
	} else if targets, err = tx.resolve(parents); err != nil {
		return Outcome{}, fmt.Errorf("insert %s: %w", tmpl.Tag, err)
	}
	existing := tx.existingIDs()
	if id, ok := mode.CustomID(); ok {
		if len(targets) > 1 {
			return Outcome{}, fmt.Errorf("%w: custom id %s for %d parents", ErrDuplicateID, id, len(targets))
		}
		if existing.Has(id) {
			return Outcome{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	}
	out := tx.outcome(OpInsert)
	tx.touch()
	for _, parent := range targets {
		e := dom.Clone(proto)
		switch {
		case mode.IsNone():
		case mode.IsAuto():
			if !tx.store.opts.AutoID {
				break
			}
			id, err := ident.Generate(existing, tx.store.opts.idLength())
			if err != nil {
				return Outcome{}, err
			}
			existing.Add(id)
			assign(e, id)
			out.IDs = append(out.IDs, id)
		default:
			id, _ := mode.CustomID()
			assign(e, id)
			out.IDs = append(out.IDs, id)
		}
		parent.AppendChild(e)
		out.Count++
	}
	tracer().Debugf("inserted %d <%s> element(s)", out.Count, tmpl.Tag)
	return out, nil
}

// prototype validates a template and builds an element from it. An id
// attribute of the template acts as a custom id.
func (tx *Tx) prototype(tmpl Template) (*dom.Element, ident.Mode, error) {
	mode := tmpl.ID
	e, err := dom.NewElement(tmpl.Tag)
	if err != nil {
		return nil, mode, err
	}
	for _, kv := range tmpl.Attrs {
		if kv.Key == dom.IDKey {
			if !mode.IsAuto() {
				return nil, mode, dom.NewValidationError("id", kv.Value, "id given twice")
			}
			mode = ident.Custom(kv.Value)
			continue
		}
		if err := dom.ValidateAttribute(kv.Key, kv.Value); err != nil {
			return nil, mode, err
		}
		if err := e.SetAttr(kv.Key, kv.Value); err != nil {
			return nil, mode, err
		}
	}
	if id, ok := mode.CustomID(); ok {
		if err := ident.ValidateCustom(id); err != nil {
			return nil, mode, err
		}
	}
	e.SetText(tmpl.Text)
	return e, mode, nil
}

// assign sets the id of an element. The id has to be valid.
func assign(e *dom.Element, id string) {
	err := e.SetAttr(dom.IDKey, id)
	assertThat(err == nil, "cannot assign id %q: %v", id, err)
}

// --- Update ----------------------------------------------------------------

// Update applies a patch to every element of a target set. Setting the id
// attribute re-registers the element with the index on commit.
func (tx *Tx) Update(targets Target, patch Patch) (Outcome, error) {
	if err := tx.check(); err != nil {
		return Outcome{}, err
	}
	keys := make([]string, 0, len(patch.Attrs))
	for k, v := range patch.Attrs {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	newID, hasNewID := "", false
	for _, k := range keys {
		if err := dom.ValidateAttrKey(k); err != nil {
			return Outcome{}, err
		}
		v, ok := patch.Attrs[k].Get()
		if !ok {
			continue
		}
		if k == dom.IDKey {
			if err := ident.ValidateCustom(v); err != nil {
				return Outcome{}, err
			}
			newID, hasNewID = v, true
		} else if err := dom.ValidateAttribute(k, v); err != nil {
			return Outcome{}, err
		}
	}
	nodes, err := tx.resolve(targets)
	if err != nil {
		return Outcome{}, fmt.Errorf("update: %w", err)
	}
	if hasNewID {
		if len(nodes) > 1 {
			return Outcome{}, fmt.Errorf("%w: id %s for %d elements", ErrDuplicateID, newID, len(nodes))
		}
		if old, _ := nodes[0].ID(); old != newID && tx.existingIDs().Has(newID) {
			return Outcome{}, fmt.Errorf("%w: %s", ErrDuplicateID, newID)
		}
	}
	out := tx.outcome(OpUpdate)
	tx.touch()
	for _, e := range nodes {
		for _, k := range keys {
			if v, ok := patch.Attrs[k].Get(); ok {
				if err := e.SetAttr(k, v); err != nil {
					return Outcome{}, err
				}
			} else {
				e.RemoveAttr(k)
			}
		}
		if patch.Text != nil {
			e.SetText(patch.Text)
		}
		if id, ok := e.ID(); ok {
			out.IDs = append(out.IDs, id)
		}
		out.Count++
	}
	return out, nil
}

// --- Remove ----------------------------------------------------------------

// Remove detaches every element of a target set from the document, together
// with its subtree. Elements nested within other targets are removed with
// their ancestor. The root element cannot be removed.
func (tx *Tx) Remove(targets Target) (Outcome, error) {
	if err := tx.check(); err != nil {
		return Outcome{}, err
	}
	nodes, err := tx.resolve(targets)
	if err != nil {
		return Outcome{}, fmt.Errorf("remove: %w", err)
	}
	selected := make(map[*dom.Element]bool, len(nodes))
	for _, e := range nodes {
		if e == tx.store.root {
			return Outcome{}, dom.NewValidationError("selector", targets.Selector, "cannot remove the root element")
		}
		selected[e] = true
	}
	out := tx.outcome(OpRemove)
	tx.touch()
	for _, e := range nodes {
		out.Count++
		if coveredByAncestor(e, selected) {
			continue
		}
		out.IDs = append(out.IDs, e.IDs()...)
		e.Detach()
	}
	sort.Strings(out.IDs)
	return out, nil
}

func coveredByAncestor(e *dom.Element, selected map[*dom.Element]bool) bool {
	isSelected := func(anc, _ *tree.Node[*dom.Element]) (*tree.Node[*dom.Element], error) {
		if selected[dom.ElementOf(anc)] {
			return anc, nil
		}
		return nil, nil
	}
	covering, _ := tree.NewWalker(e.TreeNode()).AncestorWith(isSelected).Promise()()
	return len(covering) > 0
}

// --- Wrap ------------------------------------------------------------------

// Wrap moves all top-level elements of the document under a new element,
// which becomes the only child of the root. The wrapper does not get an id.
func (tx *Tx) Wrap(tag string) (Outcome, error) {
	if err := tx.check(); err != nil {
		return Outcome{}, err
	}
	wrapper, err := dom.NewElement(tag)
	if err != nil {
		return Outcome{}, err
	}
	root := tx.store.root
	if root.ChildCount() == 0 {
		return Outcome{}, fmt.Errorf("wrap: %w", ErrEmptyDocument)
	}
	out := tx.outcome(OpWrap)
	tx.touch()
	for _, ch := range root.Children() {
		wrapper.AppendChild(ch)
		out.Count++
	}
	root.AppendChild(wrapper)
	return out, nil
}

// --- EnsureIDs -------------------------------------------------------------

// EnsureIDs assigns a fresh id to every element below the root which lacks
// one. If overwrite is set, existing ids are replaced as well. New ids never
// collide with ids present before.
func (tx *Tx) EnsureIDs(overwrite bool) (Outcome, error) {
	if err := tx.check(); err != nil {
		return Outcome{}, err
	}
	existing := tx.existingIDs()
	out := tx.outcome(OpEnsureIDs)
	tx.touch()
	ensure := func(n, parent *tree.Node[*dom.Element], _ int) (*tree.Node[*dom.Element], error) {
		e := dom.ElementOf(n)
		if parent == nil {
			return nil, nil // root
		}
		if _, ok := e.ID(); ok && !overwrite {
			return nil, nil
		}
		id, err := ident.Generate(existing, tx.store.opts.idLength())
		if err != nil {
			return nil, err
		}
		existing.Add(id)
		assign(e, id)
		return n, nil
	}
	assigned, err := tree.NewWalker(tx.store.root.TreeNode()).TopDown(ensure).Promise()()
	if err != nil {
		return Outcome{}, err
	}
	for _, n := range assigned {
		id, _ := dom.ElementOf(n).ID()
		out.IDs = append(out.IDs, id)
	}
	out.Count = len(assigned)
	tracer().Infof("assigned %d id(s)", out.Count)
	return out, nil
}
