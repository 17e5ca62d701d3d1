package workspace

import (
	"errors"
	"fmt"

	"github.com/npillmayer/manifest/config"
	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/sidecar"
)

// prepareIndex loads the index from its backend and checks it against the
// document. Missing indexes are built silently; inconsistent ones are
// handled by the corruption policy.
func (s *Session) prepareIndex(idx *sidecar.Index, root *dom.Element, opts Options) {
	if opts.ForceRebuild {
		s.rebuild(idx, root)
		return
	}
	err := idx.Load(s.backend)
	if errors.Is(err, sidecar.ErrNotPersisted) {
		tracer().Infof("no index for %s, building one", s.path)
		s.rebuild(idx, root)
		return
	}
	if err == nil {
		err = idx.Verify(root)
	}
	if err == nil {
		return
	}
	s.handleCorruption(idx, root, err, opts.Prompter)
}

func (s *Session) handleCorruption(idx *sidecar.Index, root *dom.Element, err error, prompter Prompter) {
	policy := s.cfg.Sidecar
	switch policy.CorruptionHandling {
	case config.Silent:
		tracer().Infof("rebuilding inconsistent index: %v", err)
		s.rebuild(idx, root)
	case config.WarnAndProceed:
		s.warn("index is inconsistent, rebuilding it: %v", err)
		s.rebuild(idx, root)
	default:
		question := fmt.Sprintf("The index of %s is inconsistent (%v). Rebuild it?", s.path, err)
		if policy.AutoRebuild || (prompter != nil && prompter.Confirm(question)) {
			s.warn("index is inconsistent, rebuilding it: %v", err)
			s.rebuild(idx, root)
			return
		}
		s.warn("index is inconsistent, continuing read-only: %v", err)
		idx.SetDegraded(true)
	}
}

// rebuild rebuilds the index. If the document itself carries duplicate ids,
// the index cannot become consistent and is flagged as degraded.
func (s *Session) rebuild(idx *sidecar.Index, root *dom.Element) error {
	if err := idx.Rebuild(root); err != nil {
		s.warn("document contains duplicate ids, continuing read-only: %v", err)
		idx.SetDegraded(true)
		return err
	}
	return nil
}

// Degraded is true if the index is inconsistent and the session refuses
// mutations.
func (s *Session) Degraded() bool {
	idx := s.store.Index()
	return idx != nil && idx.Degraded()
}

// Rebuild rebuilds the index from the document, leaving degraded mode on
// success.
func (s *Session) Rebuild() error {
	if s.closed {
		return ErrClosed
	}
	idx := s.store.Index()
	if idx == nil {
		return nil
	}
	return s.rebuild(idx, s.Root())
}

// Verify checks the index against the document. If the document file has
// been written since it was loaded or saved, Verify checks whether its
// content still matches the document as the session has last seen it.
func (s *Session) Verify() error {
	if s.closed {
		return ErrClosed
	}
	if s.stale.Swap(false) {
		disk, err := s.readDisk()
		if err != nil {
			return fmt.Errorf("checking %s: %w", s.path, err)
		}
		if !dom.Equal(disk, s.saved) {
			s.stale.Store(true)
			return fmt.Errorf("%w: %s", ErrExternalChange, s.path)
		}
	}
	if idx := s.store.Index(); idx != nil {
		return idx.Verify(s.Root())
	}
	return nil
}
