package workspace

import (
	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/result"
	"github.com/npillmayer/manifest/selector"
	"github.com/npillmayer/manifest/storage"
	"github.com/npillmayer/manifest/store"
)

func (s *Session) writable() error {
	if s.closed {
		return ErrClosed
	}
	if s.Degraded() {
		return ErrDegraded
	}
	return nil
}

// mutate runs a mutation and records that the document has changed.
func (s *Session) mutate(f func() (store.Outcome, error)) (store.Outcome, error) {
	if err := s.writable(); err != nil {
		return store.Outcome{}, err
	}
	out, err := f()
	if err != nil {
		return store.Outcome{}, err
	}
	if out.Count > 0 {
		s.modified = true
	}
	return out, nil
}

// Find resolves a selector. Queries are allowed in degraded sessions.
func (s *Session) Find(t store.Target) (selector.Resolution, error) {
	if s.closed {
		return selector.Resolution{}, ErrClosed
	}
	return s.store.Resolve(t)
}

// Insert adds elements, see store.Tx.Insert.
func (s *Session) Insert(parents store.Target, tmpl store.Template) (store.Outcome, error) {
	return s.mutate(func() (store.Outcome, error) { return s.store.Insert(parents, tmpl) })
}

// Update modifies elements, see store.Tx.Update.
func (s *Session) Update(targets store.Target, patch store.Patch) (store.Outcome, error) {
	return s.mutate(func() (store.Outcome, error) { return s.store.Update(targets, patch) })
}

// Remove deletes elements, see store.Tx.Remove.
func (s *Session) Remove(targets store.Target) (store.Outcome, error) {
	return s.mutate(func() (store.Outcome, error) { return s.store.Remove(targets) })
}

// Wrap moves the content of the document under a new element, see
// store.Tx.Wrap.
func (s *Session) Wrap(tag string) (store.Outcome, error) {
	return s.mutate(func() (store.Outcome, error) { return s.store.Wrap(tag) })
}

// EnsureIDs assigns ids to elements, see store.Tx.EnsureIDs.
func (s *Session) EnsureIDs(overwrite bool) (store.Outcome, error) {
	return s.mutate(func() (store.Outcome, error) { return s.store.EnsureIDs(overwrite) })
}

// Merge imports the content of another document with the configured merge
// policy.
func (s *Session) Merge(src *dom.Element) (store.Outcome, error) {
	return s.mutate(func() (store.Outcome, error) {
		return s.store.Merge(src, s.store.Options().MergePolicy)
	})
}

// MergeFile imports the content of another document file. Archives are
// decrypted with password.
func (s *Session) MergeFile(path string, password *storage.Password) (store.Outcome, error) {
	if err := s.writable(); err != nil {
		return store.Outcome{}, err
	}
	data, err := storage.Load(path, password)
	if err != nil {
		return store.Outcome{}, err
	}
	src, err := dom.Parse(data)
	if err != nil {
		return store.Outcome{}, err
	}
	return s.Merge(src)
}

// --- Batches ---------------------------------------------------------------

// Command is a mutation which is part of a batch.
type Command func(tx *store.Tx) (store.Outcome, error)

// Batch runs commands in a single transaction. Either all of them are
// committed, or none. There is one result per command; if a command fails,
// the commands before it report ErrRolledBack and the commands after it
// report ErrSkipped. The error returned is the error of the failing command.
func (s *Session) Batch(cmds ...Command) ([]result.Result[store.Outcome], error) {
	results := make([]result.Result[store.Outcome], len(cmds))
	if err := s.writable(); err != nil {
		for i := range results {
			results[i] = result.Err[store.Outcome](err)
		}
		return results, err
	}
	failed := -1
	err := s.store.Transaction(func(tx *store.Tx) error {
		for i, cmd := range cmds {
			out, err := cmd(tx)
			if err != nil {
				failed = i
				results[i] = result.Err[store.Outcome](err)
				return err
			}
			results[i] = result.Ok(out)
		}
		return nil
	})
	if err != nil {
		for i := range results {
			switch {
			case failed < 0 || i < failed:
				results[i] = result.Err[store.Outcome](ErrRolledBack)
			case i > failed:
				results[i] = result.Err[store.Outcome](ErrSkipped)
			}
		}
		return results, err
	}
	if len(cmds) > 0 {
		s.modified = true
	}
	return results, nil
}

// InsertCmd wraps Tx.Insert as a batch command.
func InsertCmd(parents store.Target, tmpl store.Template) Command {
	return func(tx *store.Tx) (store.Outcome, error) { return tx.Insert(parents, tmpl) }
}

// UpdateCmd wraps Tx.Update as a batch command.
func UpdateCmd(targets store.Target, patch store.Patch) Command {
	return func(tx *store.Tx) (store.Outcome, error) { return tx.Update(targets, patch) }
}

// RemoveCmd wraps Tx.Remove as a batch command.
func RemoveCmd(targets store.Target) Command {
	return func(tx *store.Tx) (store.Outcome, error) { return tx.Remove(targets) }
}

// WrapCmd wraps Tx.Wrap as a batch command.
func WrapCmd(tag string) Command {
	return func(tx *store.Tx) (store.Outcome, error) { return tx.Wrap(tag) }
}
