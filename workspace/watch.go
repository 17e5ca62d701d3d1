package workspace

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the document file for modifications by other programs.
// Every write, creation, rename or removal of the file marks the session as
// stale; see Stale and Verify. onChange, if not nil, is called from the
// watching goroutine and must not touch the document.
//
// Watching stops when ctx is cancelled or the session is closed.
func (s *Session) Watch(ctx context.Context, onChange func(fsnotify.Event)) error {
	if s.closed {
		return ErrClosed
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// editors often replace files, therefore we watch the directory
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	target := filepath.Clean(s.path)
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	go func() {
		for {
			select {
			case <-ctx.Done():
				s.stopWatching()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&relevant == 0 {
					continue
				}
				tracer().Debugf("document file changed: %s", ev)
				s.stale.Store(true)
				if onChange != nil {
					onChange(ev)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				tracer().Errorf("watching %s: %v", s.path, err)
			}
		}
	}()
	return nil
}

// Stale is true if the document file has been written since the last call
// to Verify. Saving the document marks the session stale as well.
func (s *Session) Stale() bool {
	return s.stale.Load()
}

func (s *Session) stopWatching() {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
