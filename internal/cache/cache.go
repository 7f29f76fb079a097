// Package cache keeps parsed compilation units in a badger store keyed by
// file path and content hash, so unchanged files skip tree-sitter on the next
// run.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/zeebo/xxh3"

	"github.com/phobologic/jslice/internal/model"
)

// schemaVersion is part of every key. Bump it whenever model.CompilationUnit
// changes shape so stale entries are never decoded.
const schemaVersion = 1

// Cache is a parse cache. It is safe for concurrent use.
type Cache struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens or creates the cache under dir.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening parse cache %s: %w", dir, err)
	}
	return newCache(db, logger), nil
}

// OpenInMemory returns a cache that lives only as long as the process.
func OpenInMemory(logger *slog.Logger) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening in-memory parse cache: %w", err)
	}
	return newCache(db, logger), nil
}

func newCache(db *badger.DB, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{db: db, log: logger}
}

// Close releases the store.
func (c *Cache) Close() error {
	return c.db.Close()
}

func prefix(path string) []byte {
	return fmt.Appendf(nil, "unit/v%d/%s/", schemaVersion, path)
}

func key(path string, source []byte) []byte {
	return fmt.Appendf(prefix(path), "%016x", xxh3.Hash(source))
}

// Get returns the unit parsed from exactly this source, if cached. Decoding
// failures count as misses.
func (c *Cache) Get(path string, source []byte) (*model.CompilationUnit, bool) {
	var cu model.CompilationUnit
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(path, source))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cu)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.log.Debug("parse cache read failed", "path", path, "error", err)
		}
		return nil, false
	}
	return &cu, true
}

// Put stores the unit parsed from source and drops entries for older
// contents of the same path.
func (c *Cache) Put(path string, source []byte, cu *model.CompilationUnit) error {
	data, err := json.Marshal(cu)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	k := key(path, source)
	err = c.db.Update(func(txn *badger.Txn) error {
		stale, err := keysWithPrefix(txn, prefix(path))
		if err != nil {
			return err
		}
		for _, s := range stale {
			if string(s) == string(k) {
				continue
			}
			if err := txn.Delete(s); err != nil {
				return err
			}
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return fmt.Errorf("caching %s: %w", path, err)
	}
	return nil
}

func keysWithPrefix(txn *badger.Txn, p []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = p
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

// Len returns the number of cached units.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		keys, err := keysWithPrefix(txn, fmt.Appendf(nil, "unit/v%d/", schemaVersion))
		n = len(keys)
		return err
	})
	return n, err
}
