// Package docstore implements the local document store on BadgerDB.
// Documents live under collection-prefixed keys ("networks:42") and are
// encoded as JSON. All repository types in this package share one Store.
package docstore

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"adboard/internal/config/configs"
)

// Collection names. One collection per entity type plus the sync ledger.
const (
	colNetworks       = "networks"
	colAdvertisers    = "advertisers"
	colCampaigns      = "campaigns"
	colAdvertisements = "advertisements"
	colZones          = "zones"
	colSyncMetadata   = "sync_metadata"
)

// Store wraps a Badger database. It owns the key layout; repositories go
// through it rather than holding the *badger.DB directly.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at the configured path. With
// cfg.InMemory set, nothing touches disk; that mode is intended for tests.
func Open(cfg configs.Store) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(nil).
		WithInMemory(cfg.InMemory)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway in-memory store.
func OpenInMemory() (*Store, error) {
	return Open(configs.Store{InMemory: true})
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the store is usable by running an empty read transaction.
func (s *Store) Ping() error {
	if s.db.IsClosed() {
		return fmt.Errorf("store closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

func key(collection string, id int) []byte {
	return []byte(fmt.Sprintf("%s:%d", collection, id))
}

func strKey(collection, id string) []byte {
	return []byte(collection + ":" + id)
}

func prefix(collection string) []byte {
	return []byte(collection + ":")
}

// scan visits the raw value of every document in the collection, stopping
// early when fn returns false.
func (s *Store) scan(collection string, fn func(val []byte) (bool, error)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix(collection)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var cont bool
			err := it.Item().Value(func(val []byte) error {
				var verr error
				cont, verr = fn(val)
				return verr
			})
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

// scanKeys counts keys in the collection without fetching values.
func (s *Store) countKeys(collection string) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix(collection)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
