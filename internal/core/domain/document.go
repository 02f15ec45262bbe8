package domain

import "time"

// Ref is the externally-assigned identity of a cached document. Every
// entity mirrored from the upstream API is keyed by this id, never by the
// store's internal key.
type Ref struct {
	ID int `json:"id"`
}

// Key returns the external id.
func (r *Ref) Key() int { return r.ID }

// SetKey assigns the external id.
func (r *Ref) SetKey(id int) { r.ID = id }

// Timestamps carries the creation/modification times reported by the
// upstream API (or assigned locally when the upstream omits them).
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stamps exposes the timestamps for generic access.
func (t *Timestamps) Stamps() *Timestamps { return t }

// SyncInfo records cache provenance for a document. LastSyncAt is the time
// of the last local write, not the upstream modification time. SyncVersion
// is a write counter: it increases by exactly 1 on every successful write.
type SyncInfo struct {
	LastSyncAt  time.Time `json:"lastSyncAt"`
	SyncVersion int64     `json:"syncVersion"`
}

// Sync exposes the sync bookkeeping fields for generic access.
func (s *SyncInfo) Sync() *SyncInfo { return s }

// Document is implemented by every cached entity via the embedded Ref,
// Timestamps and SyncInfo structs.
type Document interface {
	Key() int
	SetKey(int)
	Stamps() *Timestamps
	Sync() *SyncInfo
}
