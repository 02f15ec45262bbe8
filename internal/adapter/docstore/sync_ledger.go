package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"adboard/internal/core/domain"
)

// SyncLedger implements port.SyncLedger over the shared store. Ledger
// records are keyed by a locally-assigned uuid rather than an external id:
// sync attempts have no upstream identity.
type SyncLedger struct {
	store *Store
	now   func() time.Time
}

func NewSyncLedger(store *Store) *SyncLedger {
	return &SyncLedger{store: store, now: time.Now}
}

// CreateRecord stores a new ledger entry, filling in id, start time,
// status and sync version when the caller left them unset.
func (l *SyncLedger) CreateRecord(ctx context.Context, rec *domain.SyncRecord) (*domain.SyncRecord, error) {
	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.StartedAt.IsZero() {
		stored.StartedAt = l.now()
	}
	if stored.Status == "" {
		stored.Status = domain.SyncPending
	}
	if stored.SyncVersion == 0 {
		stored.SyncVersion = 1
	}
	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("encode sync record: %w", err)
	}
	err = l.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(strKey(colSyncMetadata, stored.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("create sync record: %w", err)
	}
	return &stored, nil
}

// UpdateStatus transitions a record, applying the optional extra mutation
// first. CompletedAt is written exactly once, at the first transition to a
// terminal status. It returns (nil, nil) for an unknown id.
func (l *SyncLedger) UpdateStatus(ctx context.Context, id string, status domain.SyncStatus, apply func(*domain.SyncRecord)) (*domain.SyncRecord, error) {
	var (
		rec   domain.SyncRecord
		found bool
	)
	err := l.store.db.Update(func(txn *badger.Txn) error {
		k := strKey(colSyncMetadata, id)
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
		if apply != nil {
			apply(&rec)
		}
		rec.ID = id
		rec.Status = status
		if status.Terminal() && rec.CompletedAt == nil {
			now := l.now()
			rec.CompletedAt = &now
		}
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return nil, fmt.Errorf("update sync record %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

func (l *SyncLedger) findAll(match func(*domain.SyncRecord) bool) ([]domain.SyncRecord, error) {
	var out []domain.SyncRecord
	err := l.store.scan(colSyncMetadata, func(val []byte) (bool, error) {
		var rec domain.SyncRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return false, err
		}
		if match == nil || match(&rec) {
			out = append(out, rec)
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sync records: %w", err)
	}
	return out, nil
}

// LatestCompleted returns the most recent completed record for the entity
// type, optionally scoped to one entity id (0 = any).
func (l *SyncLedger) LatestCompleted(ctx context.Context, entityType domain.EntityType, entityID int) (*domain.SyncRecord, error) {
	recs, err := l.findAll(func(r *domain.SyncRecord) bool {
		if r.EntityType != entityType || r.Status != domain.SyncCompleted {
			return false
		}
		return entityID == 0 || r.EntityID == entityID
	})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	latest := &recs[0]
	for i := 1; i < len(recs); i++ {
		if completedAfter(&recs[i], latest) {
			latest = &recs[i]
		}
	}
	return latest, nil
}

// Active returns all pending or in_progress records, most recent first.
// Records left in_progress by a crashed sync show up here until someone
// resolves them; there is no automatic recovery.
func (l *SyncLedger) Active(ctx context.Context) ([]domain.SyncRecord, error) {
	recs, err := l.findAll(func(r *domain.SyncRecord) bool {
		return r.Status == domain.SyncPending || r.Status == domain.SyncInProgress
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})
	return recs, nil
}

// History returns up to limit terminal records, newest completion first.
func (l *SyncLedger) History(ctx context.Context, limit int) ([]domain.SyncRecord, error) {
	recs, err := l.findAll(func(r *domain.SyncRecord) bool {
		return r.Status.Terminal()
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return completedAfter(&recs[i], &recs[j])
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func completedAfter(a, b *domain.SyncRecord) bool {
	switch {
	case a.CompletedAt == nil:
		return false
	case b.CompletedAt == nil:
		return true
	default:
		return a.CompletedAt.After(*b.CompletedAt)
	}
}
