package workspace

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/npillmayer/manifest/config"
	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/sidecar"
	"github.com/npillmayer/manifest/storage"
	"github.com/npillmayer/manifest/store"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(question string) bool
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(question string) bool

// Confirm calls f.
func (f PrompterFunc) Confirm(question string) bool {
	return f(question)
}

// Options configure how a session is opened.
type Options struct {
	Config       config.Config
	Password     *storage.Password // for encrypted archives; owned by the session
	Prompter     Prompter          // may be nil; questions are then declined
	ForceRebuild bool              // rebuild the index regardless of its state
	Backend      sidecar.Backend   // overrides the configured index backend
	NoLock       bool              // do not lock the document file
}

// Session is an editing session on a document file.
type Session struct {
	path     string
	cfg      config.Config
	password *storage.Password
	lock     *storage.FileLock
	backend  sidecar.Backend
	store    *store.Store
	saved    *dom.Element // document as it is on disk
	modified bool
	warnings []string
	closed   bool

	stale   atomic.Bool
	mx      sync.Mutex // guards watcher
	watcher *fsnotify.Watcher
}

// Open starts a session on a document file. If the file does not exist, the
// session starts with an empty document, which will be created on Save.
func Open(path string, opts Options) (*Session, error) {
	if err := storage.ValidatePath(path); err != nil {
		return nil, err
	}
	s := &Session{path: path, cfg: opts.Config, password: opts.Password}
	if !opts.NoLock {
		lock, err := storage.Lock(path)
		if err != nil {
			return nil, err
		}
		s.lock = lock
	}
	if err := s.load(opts); err != nil {
		s.release()
		return nil, err
	}
	tracer().Infof("session opened on %s", path)
	return s, nil
}

func (s *Session) load(opts Options) error {
	var data []byte
	if storage.Exists(s.path) {
		var err error
		if data, err = storage.Load(s.path, s.password); err != nil {
			return err
		}
	} else {
		tracer().Infof("%s does not exist, starting with an empty document", s.path)
	}
	root, err := dom.Parse(data)
	if err != nil {
		return err
	}
	s.saved = dom.Clone(root)
	storeOpts := s.cfg.StoreOptions()
	var idx *sidecar.Index
	if storeOpts.IndexEnabled {
		s.backend = opts.Backend
		if s.backend == nil {
			if s.backend, err = openBackend(s.cfg, s.path); err != nil {
				return err
			}
		}
		idx = sidecar.New()
		s.prepareIndex(idx, root, opts)
	}
	s.store = store.New(root, idx, storeOpts)
	return nil
}

func openBackend(cfg config.Config, docPath string) (sidecar.Backend, error) {
	switch cfg.Sidecar.Backend {
	case config.BackendBadger:
		return sidecar.OpenBadger(sidecar.DefaultBadgerConfig(docPath))
	case config.BackendMemory:
		return &sidecar.MemoryBackend{}, nil
	}
	return sidecar.NewFileBackend(docPath), nil
}

// Path returns the path of the document file.
func (s *Session) Path() string {
	return s.path
}

// Config returns the configuration of the session.
func (s *Session) Config() config.Config {
	return s.cfg
}

// Store returns the document store of the session.
func (s *Session) Store() *store.Store {
	return s.store
}

// Root returns the root element of the document.
func (s *Session) Root() *dom.Element {
	return s.store.Root()
}

// Modified is true if the document has unsaved changes.
func (s *Session) Modified() bool {
	return s.modified
}

// Warnings returns the warnings collected while opening the session.
func (s *Session) Warnings() []string {
	return s.warnings
}

func (s *Session) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	tracer().Errorf(msg)
	s.warnings = append(s.warnings, msg)
}

// --- Saving ----------------------------------------------------------------

// Save writes the document and flushes the index, if it has changed.
func (s *Session) Save() error {
	if s.closed {
		return ErrClosed
	}
	data, err := dom.Serialize(s.Root())
	if err != nil {
		return err
	}
	if err := storage.Save(s.path, data, s.password); err != nil {
		return err
	}
	s.saved = dom.Clone(s.Root())
	s.modified = false
	if idx := s.store.Index(); idx != nil && !idx.Degraded() {
		if err := idx.Flush(s.backend); err != nil {
			return err
		}
	}
	tracer().Infof("saved %s", s.path)
	return nil
}

// Backup copies the document file, and its sidecar index if present.
func (s *Session) Backup(opts storage.BackupOptions) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if _, ok := s.backend.(*sidecar.FileBackend); ok {
		opts.Companions = append(opts.Companions, ".ids")
	}
	return storage.Backup(s.path, opts)
}

// Close ends the session. Unsaved changes are lost. Close stops watching the
// file, closes the index backend, releases the lock and destroys the
// password.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopWatching()
	var errs []error
	if s.backend != nil {
		errs = append(errs, s.backend.Close())
	}
	errs = append(errs, s.release())
	tracer().Infof("session on %s closed", s.path)
	return errors.Join(errs...)
}

func (s *Session) release() error {
	if s.password != nil {
		s.password.Destroy()
	}
	if s.lock != nil {
		return s.lock.Unlock()
	}
	return nil
}

// readDisk loads and parses the document as it is on disk right now.
func (s *Session) readDisk() (*dom.Element, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dom.NewDocument(), nil
		}
		return nil, err
	}
	data, err := storage.Load(s.path, s.password)
	if err != nil {
		return nil, err
	}
	return dom.Parse(data)
}
