package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/sidecar"
)

// Tx is a running transaction. It is handed to the function passed to
// Store.Transaction and must not be used after this function returns.
//
// Elements obtained before a rollback are not part of the restored tree.
type Tx struct {
	ID       string // unique id, used for tracing
	store    *Store
	snapshot *dom.Element      // deep copy of the root at begin
	before   map[string]string // index entries at begin
	depth    int               // nesting level of joined transactions
	modified bool              // the tree may have been modified
	failed   error             // a nested transaction has failed
	done     bool
	delta    sidecar.Delta // net index delta, set on commit
}

// Transaction runs f within a transaction. If f returns nil, the
// modifications of f are committed and the index is updated. Otherwise, or
// if f panics, the document is restored to the state before the transaction
// and the index is left untouched. A panic is re-raised after the rollback.
//
// If a transaction is already running, f joins it. An error (or panic) of a
// nested transaction dooms the outermost one.
func (s *Store) Transaction(f func(tx *Tx) error) (err error) {
	if s.tx != nil {
		return s.tx.join(f)
	}
	tx := s.begin()
	defer func() {
		if r := recover(); r != nil {
			if !tx.done {
				tracer().Errorf("tx %s: panic: %v", tx.short(), r)
				tx.rollback("panic")
			}
			panic(r)
		}
	}()
	err = f(tx)
	if err == nil {
		err = tx.failed
	}
	if err != nil {
		tracer().Debugf("tx %s: %v", tx.short(), err)
		tx.rollback("error")
		return err
	}
	return tx.commit()
}

func (s *Store) begin() *Tx {
	tx := &Tx{
		ID:       uuid.NewString(),
		store:    s,
		snapshot: dom.Clone(s.root),
	}
	if s.index != nil {
		tx.before = s.index.Entries()
	}
	s.tx = tx
	tracer().Debugf("tx %s: begin", tx.short())
	return tx
}

func (tx *Tx) join(f func(tx *Tx) error) (err error) {
	if tx.done {
		return ErrTxDone
	}
	tx.depth++
	defer func() {
		tx.depth--
		if r := recover(); r != nil {
			tx.doom(fmt.Errorf("panic in nested transaction: %v", r))
			panic(r)
		}
	}()
	if err = f(tx); err != nil {
		tx.doom(err)
	}
	return err
}

func (tx *Tx) doom(err error) {
	if tx.failed == nil {
		tx.failed = fmt.Errorf("%w: %v", ErrTxAborted, err)
	}
}

func (tx *Tx) commit() error {
	s := tx.store
	locs, dups := dom.Locators(s.root)
	if len(dups) > 0 {
		tx.rollback("error")
		return fmt.Errorf("commit: %w: %s", ErrDuplicateID, strings.Join(dups, ", "))
	}
	if s.index != nil {
		d := sidecar.Diff(tx.before, locs)
		if err := s.index.Check(d); err != nil {
			tx.rollback("error")
			return fmt.Errorf("commit: %w", err)
		}
		// from here on the tree is committed and the index is notified
		err := s.index.Apply(d)
		assertThat(err == nil, "index rejected a checked delta: %v", err)
		tx.delta = d
		deltaSize.Observe(float64(d.Size()))
	}
	tx.finish()
	txCommits.Inc()
	tracer().Infof("tx %s: committed %s", tx.short(), tx.delta)
	return nil
}

func (tx *Tx) rollback(reason string) {
	s := tx.store
	snapshot := tx.snapshot
	tx.finish()
	dom.Restore(s.root, snapshot)
	if err := dom.CheckStructure(s.root); err != nil {
		tracer().Errorf("tx %s: restored tree is invalid: %v", tx.short(), err)
		panic(fmt.Errorf("%w: %v", ErrRollbackFailed, err))
	}
	txRollbacks.WithLabelValues(reason).Inc()
	tracer().Infof("tx %s: rolled back", tx.short())
}

func (tx *Tx) finish() {
	tx.done = true
	tx.snapshot = nil
	tx.store.tx = nil
}

func (tx *Tx) short() string {
	if len(tx.ID) > 8 {
		return tx.ID[:8]
	}
	return tx.ID
}

// Root returns the root element of the document the transaction operates on.
// Callers may modify the tree through it; the modifications are subject to
// commit and rollback like those of the built-in operations.
func (tx *Tx) Root() *dom.Element {
	tx.touch()
	return tx.store.root
}

// Delta returns the net index delta of a committed transaction.
func (tx *Tx) Delta() sidecar.Delta {
	return tx.delta
}

// Done is true if the transaction has been committed or rolled back.
func (tx *Tx) Done() bool {
	return tx.done
}

// Staged computes the index delta the transaction would commit right now.
func (tx *Tx) Staged() sidecar.Delta {
	locs, _ := dom.Locators(tx.store.root)
	return sidecar.Diff(tx.before, locs)
}

func (tx *Tx) check() error {
	if tx.done {
		return ErrTxDone
	}
	return nil
}

// touch marks the tree as modified, so that selectors are resolved against
// the tree instead of the index. It has to be called before the first
// modification of the tree.
func (tx *Tx) touch() {
	tx.modified = true
}
