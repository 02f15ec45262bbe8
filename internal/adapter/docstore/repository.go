package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// Repository is the generic document repository backing every cached
// entity type. The repository owns the sync bookkeeping: Create writes
// SyncVersion 1, Update and Upsert advance it by exactly 1 per write, and
// all three refresh LastSyncAt. Mutation callbacks cannot override either
// field, nor reassign the document id.
type Repository[T any, P interface {
	*T
	domain.Document
}] struct {
	store      *Store
	collection string
	now        func() time.Time
}

// NewRepository creates a repository over one collection.
func NewRepository[T any, P interface {
	*T
	domain.Document
}](store *Store, collection string) *Repository[T, P] {
	return &Repository[T, P]{store: store, collection: collection, now: time.Now}
}

// FindByID returns the document with the given id, or (nil, nil) when it
// does not exist.
func (r *Repository[T, P]) FindByID(ctx context.Context, id int) (*T, error) {
	var (
		rec   T
		found bool
	)
	err := r.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(r.collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", r.collection, id, err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// FindAll returns all documents matching filter, sorted and truncated per
// opts. Sorting happens after filtering; Limit applies last.
func (r *Repository[T, P]) FindAll(ctx context.Context, filter port.Filter[T], opts port.ListOptions[T]) ([]T, error) {
	var out []T
	err := r.store.scan(r.collection, func(val []byte) (bool, error) {
		var rec T
		if err := json.Unmarshal(val, &rec); err != nil {
			return false, err
		}
		if filter == nil || filter(&rec) {
			out = append(out, rec)
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.collection, err)
	}
	if opts.Less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return opts.Less(&out[i], &out[j])
		})
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Create stores a new document under its own id. It fails with
// port.ErrDuplicateID if the id is taken.
func (r *Repository[T, P]) Create(ctx context.Context, rec *T) error {
	p := P(rec)
	id := p.Key()
	if id <= 0 {
		return fmt.Errorf("create %s: invalid id %d", r.collection, id)
	}
	sync := p.Sync()
	sync.LastSyncAt = r.now()
	sync.SyncVersion = 1
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", r.collection, id, err)
	}
	k := key(r.collection, id)
	err = r.store.db.Update(func(txn *badger.Txn) error {
		_, gerr := txn.Get(k)
		if gerr == nil {
			return port.ErrDuplicateID
		}
		if !errors.Is(gerr, badger.ErrKeyNotFound) {
			return gerr
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return fmt.Errorf("create %s %d: %w", r.collection, id, err)
	}
	return nil
}

// Update applies the mutation to the stored document and writes it back in
// one transaction. It returns (nil, nil) when the id is unknown and never
// creates.
func (r *Repository[T, P]) Update(ctx context.Context, id int, apply func(*T)) (*T, error) {
	var (
		rec   T
		found bool
	)
	err := r.store.db.Update(func(txn *badger.Txn) error {
		k := key(r.collection, id)
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		found = true
		r.mutate(&rec, id, apply)
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", r.collection, id, err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// Upsert creates or updates the document with the given id atomically. The
// mutation sees the stored document when one exists, or a zero value
// otherwise. The result always carries the id.
func (r *Repository[T, P]) Upsert(ctx context.Context, id int, apply func(*T)) (*T, error) {
	if id <= 0 {
		return nil, fmt.Errorf("upsert %s: invalid id %d", r.collection, id)
	}
	var rec T
	err := r.store.db.Update(func(txn *badger.Txn) error {
		k := key(r.collection, id)
		item, err := txn.Get(k)
		switch {
		case err == nil:
			if err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
		case errors.Is(err, badger.ErrKeyNotFound):
			// fresh document, mutate the zero value
		default:
			return err
		}
		r.mutate(&rec, id, apply)
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert %s %d: %w", r.collection, id, err)
	}
	return &rec, nil
}

// mutate runs the caller's mutation and then restores the fields the
// repository owns: the id, the previous write counter (bumped by one) and
// the freshness stamp.
func (r *Repository[T, P]) mutate(rec *T, id int, apply func(*T)) {
	p := P(rec)
	version := p.Sync().SyncVersion
	if apply != nil {
		apply(rec)
	}
	p.SetKey(id)
	sync := p.Sync()
	sync.SyncVersion = version + 1
	sync.LastSyncAt = r.now()
}

// Delete removes the document and reports whether one was removed.
func (r *Repository[T, P]) Delete(ctx context.Context, id int) (bool, error) {
	removed := false
	err := r.store.db.Update(func(txn *badger.Txn) error {
		k := key(r.collection, id)
		_, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return txn.Delete(k)
	})
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", r.collection, id, err)
	}
	return removed, nil
}

// Count returns the number of documents matching filter. A nil filter
// counts keys without decoding values.
func (r *Repository[T, P]) Count(ctx context.Context, filter port.Filter[T]) (int, error) {
	if filter == nil {
		n, err := r.store.countKeys(r.collection)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", r.collection, err)
		}
		return n, nil
	}
	n := 0
	err := r.store.scan(r.collection, func(val []byte) (bool, error) {
		var rec T
		if err := json.Unmarshal(val, &rec); err != nil {
			return false, err
		}
		if filter(&rec) {
			n++
		}
		return true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.collection, err)
	}
	return n, nil
}
