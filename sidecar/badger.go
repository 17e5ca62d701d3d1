package sidecar

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/npillmayer/schuko/tracing"
)

// BadgerConfig configures a badger backend.
type BadgerConfig struct {
	// Path is the directory of the database. Required unless InMemory is set.
	Path string

	// InMemory runs badger without persistence, for testing.
	InMemory bool

	// SyncWrites makes badger sync writes to disk.
	SyncWrites bool

	// Trace enables badger's internal logging onto our tracer.
	Trace bool
}

// DefaultBadgerConfig returns the configuration for the badger database of
// a document, stored in directory `<doc>.idx`.
func DefaultBadgerConfig(docPath string) BadgerConfig {
	return BadgerConfig{Path: docPath + ".idx", SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration suited for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts our tracer to badger.Logger.
type badgerLogger struct {
	trace tracing.Trace
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.trace.Errorf("badger: "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.trace.Infof("badger: "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.trace.Debugf("badger: "+format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.trace.Debugf("badger: "+format, args...)
}

// keyPrefix is prepended to ids to form badger keys.
var keyPrefix = []byte("id/")

// BadgerBackend stores one key per id in an embedded badger database.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger backend.
func OpenBadger(cfg BadgerConfig) (*BadgerBackend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent index database")
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create index directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Trace {
		opts = opts.WithLogger(&badgerLogger{trace: tracer()})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func (bb *BadgerBackend) Load() (map[string]string, error) {
	entries := make(map[string]string)
	err := bb.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(keyPrefix):])
			loc, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries[id] = string(loc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading index from badger: %w", err)
	}
	if len(entries) == 0 {
		if persisted, err := bb.persisted(); err != nil || !persisted {
			return nil, ErrNotPersisted
		}
	}
	return entries, nil
}

// metaKey marks a database which has been saved to at least once, so that
// an empty index can be told apart from a missing one.
var metaKey = []byte("meta/saved")

func (bb *BadgerBackend) persisted() (bool, error) {
	found := false
	err := bb.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(metaKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}

// Save replaces all entries in a single transaction.
func (bb *BadgerBackend) Save(entries map[string]string) error {
	err := bb.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var obsolete [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, keep := entries[string(key[len(keyPrefix):])]; !keep {
				obsolete = append(obsolete, key)
			}
		}
		it.Close()
		for _, key := range obsolete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for id, loc := range entries {
			key := append(append([]byte{}, keyPrefix...), id...)
			if err := txn.Set(key, []byte(loc)); err != nil {
				return err
			}
		}
		stamp := []byte(time.Now().UTC().Format(time.RFC3339))
		return txn.Set(metaKey, stamp)
	})
	if err != nil {
		return fmt.Errorf("saving index to badger: %w", err)
	}
	return nil
}

func (bb *BadgerBackend) Close() error {
	return bb.db.Close()
}
