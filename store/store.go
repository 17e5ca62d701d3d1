package store

import (
	"fmt"
	"strings"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/selector"
	"github.com/npillmayer/manifest/sidecar"
)

// Store holds a document tree and its identifier index. A store serves a
// single session; it is not safe for concurrent use.
type Store struct {
	root  *dom.Element
	index *sidecar.Index // nil if the index is disabled
	opts  Options
	tx    *Tx // running outermost transaction
}

// New creates a store for a document. If root is nil, an empty document is
// created. If the index is enabled and idx is nil, a fresh index is built
// from the document; the caller is responsible for the consistency of an
// index it passes in.
func New(root *dom.Element, idx *sidecar.Index, opts Options) *Store {
	if root == nil {
		root = dom.NewDocument()
	}
	s := &Store{root: root, opts: opts}
	if opts.IndexEnabled {
		if idx == nil {
			idx = sidecar.New()
			if err := idx.Rebuild(root); err != nil {
				tracer().Errorf("new store: %v", err)
				idx.SetDegraded(true)
			}
		}
		s.index = idx
	}
	return s
}

// Root returns the root element of the document.
func (s *Store) Root() *dom.Element {
	return s.root
}

// Index returns the identifier index of the store, or nil if the index is
// disabled.
func (s *Store) Index() *sidecar.Index {
	return s.index
}

// Options returns the options the store has been created with.
func (s *Store) Options() Options {
	return s.opts
}

// SetMergePolicy changes the merge policy of the store.
func (s *Store) SetMergePolicy(p MergePolicy) {
	s.opts.MergePolicy = p
}

// InTransaction is true while a transaction is running.
func (s *Store) InTransaction() bool {
	return s.tx != nil
}

// --- Selection -------------------------------------------------------------

// Target addresses a set of elements, either by id, by id prefix or by a
// structural query.
type Target struct {
	Selector string
	Force    selector.Force
}

// Sel is a shortcut for an unforced target.
func Sel(s string) Target {
	return Target{Selector: s}
}

// ByID creates a target which is always interpreted as an id or id prefix.
func ByID(id string) Target {
	return Target{Selector: id, Force: selector.ForceID}
}

// ByQuery creates a target which is always interpreted as a query.
func ByQuery(q string) Target {
	return Target{Selector: q, Force: selector.ForceQuery}
}

func (t Target) String() string {
	return t.Selector
}

// Resolve resolves a target against the document. A target which matches
// no element results in an error; for queries this is ErrSelectorEmpty.
func (s *Store) Resolve(t Target) (selector.Resolution, error) {
	return s.resolve(t, s.lookup(false))
}

// lookup returns the index to resolve ids with. Once the tree has been
// modified by a transaction, the index lags behind until commit; ids are
// then looked up in an index derived from the tree.
func (s *Store) lookup(modified bool) selector.Index {
	if s.index != nil && !modified {
		return s.index
	}
	locs, _ := dom.Locators(s.root)
	return sidecar.FromMap(locs)
}

func (s *Store) resolve(t Target, idx selector.Index) (selector.Resolution, error) {
	if strings.TrimSpace(t.Selector) == "" {
		return selector.Resolution{}, dom.NewValidationError("selector", t.Selector, "empty selector")
	}
	res, err := selector.Resolve(s.root, idx, t.Selector, selector.Options{
		Force:     t.Force,
		PrefixMin: s.opts.PrefixMin,
		PrefixMax: s.opts.PrefixMax,
	})
	if err != nil {
		return res, err
	}
	if len(res.Nodes) == 0 {
		return res, fmt.Errorf("%w: %s", ErrSelectorEmpty, t.Selector)
	}
	return res, nil
}

// --- Single-operation transactions ------------------------------------------

// Insert runs Tx.Insert in a transaction of its own.
func (s *Store) Insert(parents Target, tmpl Template) (out Outcome, err error) {
	err = s.Transaction(func(tx *Tx) error {
		out, err = tx.Insert(parents, tmpl)
		return err
	})
	return
}

// Update runs Tx.Update in a transaction of its own.
func (s *Store) Update(targets Target, patch Patch) (out Outcome, err error) {
	err = s.Transaction(func(tx *Tx) error {
		out, err = tx.Update(targets, patch)
		return err
	})
	return
}

// Remove runs Tx.Remove in a transaction of its own.
func (s *Store) Remove(targets Target) (out Outcome, err error) {
	err = s.Transaction(func(tx *Tx) error {
		out, err = tx.Remove(targets)
		return err
	})
	return
}

// Wrap runs Tx.Wrap in a transaction of its own.
func (s *Store) Wrap(tag string) (out Outcome, err error) {
	err = s.Transaction(func(tx *Tx) error {
		out, err = tx.Wrap(tag)
		return err
	})
	return
}

// EnsureIDs runs Tx.EnsureIDs in a transaction of its own.
func (s *Store) EnsureIDs(overwrite bool) (out Outcome, err error) {
	err = s.Transaction(func(tx *Tx) error {
		out, err = tx.EnsureIDs(overwrite)
		return err
	})
	return
}

// Merge runs Tx.Merge in a transaction of its own.
func (s *Store) Merge(src *dom.Element, policy MergePolicy) (out Outcome, err error) {
	err = s.Transaction(func(tx *Tx) error {
		out, err = tx.Merge(src, policy)
		return err
	})
	return
}
