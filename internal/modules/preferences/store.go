package preferences

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "pref/"

var ErrNotFound = errors.New("preferences: not found")

// Store is a small persistent key/value store. Keys are scoped per app, the
// values are opaque bytes.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

func Open(dir string, logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(dir), logger)
}

// OpenInMemory is a Store that forgets everything on Close.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func key(scope, name string) []byte {
	return []byte(keyPrefix + scope + "/" + name)
}

func scopePrefix(scope string) []byte {
	return []byte(keyPrefix + scope + "/")
}

func (s *Store) Get(scope, name string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(scope, name))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return out, err
}

func (s *Store) Set(scope, name string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(scope, name), value)
	})
}

// Remove reports whether the key existed.
func (s *Store) Remove(scope, name string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		k := key(scope, name)
		if _, err := txn.Get(k); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(k)
	})
	return existed, err
}

// Keys lists the names stored under scope, sorted.
func (s *Store) Keys(scope string) ([]string, error) {
	prefix := scopePrefix(scope)
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	slices.Sort(names)
	return names, err
}

// Clear drops every key under scope and reports how many there were.
func (s *Store) Clear(scope string) (int, error) {
	names, err := s.Keys(scope)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, nil
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, name := range names {
		if err := wb.Delete(key(scope, name)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	s.logger.Debug("preferences cleared", "scope", scope, "keys", len(names))
	return len(names), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
