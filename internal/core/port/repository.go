package port

import (
	"context"

	"adboard/internal/core/domain"
)

// Filter is a structural predicate over stored documents. A nil Filter
// matches every document.
type Filter[T any] func(*T) bool

// ListOptions controls ordering and truncation of FindAll results. A nil
// Less leaves store order; Limit <= 0 means no limit.
type ListOptions[T any] struct {
	Less  func(a, b *T) bool
	Limit int
}

// Repository is the persistence contract shared by all cached entity
// types. Implementations perform no network I/O; every successful write
// refreshes LastSyncAt and advances SyncVersion by exactly 1. The mutation
// callbacks passed to Update and Upsert may change any data field but
// cannot reassign the document id or tamper with the sync counters - the
// repository owns both.
type Repository[T any] interface {
	// FindByID returns the document with the given external id, or
	// (nil, nil) when absent.
	FindByID(ctx context.Context, id int) (*T, error)

	// FindAll returns every document matching filter, ordered and
	// truncated per opts.
	FindAll(ctx context.Context, filter Filter[T], opts ListOptions[T]) ([]T, error)

	// Create stores a new document, setting SyncVersion to 1. It fails
	// with ErrDuplicateID when the id is already taken.
	Create(ctx context.Context, rec *T) error

	// Update loads the document, applies the mutation and writes it back,
	// bumping SyncVersion. It returns (nil, nil) when no document with
	// that id exists; it never creates.
	Update(ctx context.Context, id int, apply func(*T)) (*T, error)

	// Upsert atomically creates or updates the document with the given id,
	// applying the mutation to the existing document or to a zero value.
	// The returned document always carries the id.
	Upsert(ctx context.Context, id int, apply func(*T)) (*T, error)

	// Delete removes the document and reports whether one was removed.
	Delete(ctx context.Context, id int) (bool, error)

	// Count returns the number of documents matching filter.
	Count(ctx context.Context, filter Filter[T]) (int, error)
}

// EntityStats is the {total, active} aggregate served to the dashboard.
type EntityStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// CampaignStats extends EntityStats with delivery aggregates summed over
// the (optionally network-scoped) campaign set. Missing numeric fields
// count as zero.
type CampaignStats struct {
	Total            int     `json:"total"`
	Active           int     `json:"active"`
	Paused           int     `json:"paused"`
	TotalSpend       float64 `json:"totalSpend"`
	TotalImpressions int64   `json:"totalImpressions"`
	TotalClicks      int64   `json:"totalClicks"`
}

// NetworkRepository adds network-specific queries on top of the generic
// contract.
type NetworkRepository interface {
	Repository[domain.Network]
	// Active returns active networks ordered by name.
	Active(ctx context.Context) ([]domain.Network, error)
	Stats(ctx context.Context) (EntityStats, error)
}

// AdvertiserRepository scopes queries by the owning network. A networkID
// of 0 means unscoped.
type AdvertiserRepository interface {
	Repository[domain.Advertiser]
	ByNetwork(ctx context.Context, networkID int) ([]domain.Advertiser, error)
	Active(ctx context.Context, networkID int) ([]domain.Advertiser, error)
	Stats(ctx context.Context, networkID int) (EntityStats, error)
}

// CampaignRepository scopes queries by network or advertiser. A scope id
// of 0 means unscoped.
type CampaignRepository interface {
	Repository[domain.Campaign]
	ByNetwork(ctx context.Context, networkID int) ([]domain.Campaign, error)
	ByAdvertiser(ctx context.Context, advertiserID int) ([]domain.Campaign, error)
	Active(ctx context.Context, networkID int) ([]domain.Campaign, error)
	Stats(ctx context.Context, networkID int) (CampaignStats, error)
}

// AdvertisementRepository scopes queries by network or campaign.
type AdvertisementRepository interface {
	Repository[domain.Advertisement]
	ByNetwork(ctx context.Context, networkID int) ([]domain.Advertisement, error)
	ByCampaign(ctx context.Context, campaignID int) ([]domain.Advertisement, error)
	Stats(ctx context.Context, networkID int) (EntityStats, error)
}

// ZoneRepository scopes queries by network.
type ZoneRepository interface {
	Repository[domain.Zone]
	ByNetwork(ctx context.Context, networkID int) ([]domain.Zone, error)
	Stats(ctx context.Context, networkID int) (EntityStats, error)
}

// SyncLedger is the append-mostly audit log of sync attempts.
type SyncLedger interface {
	// CreateRecord stores a new ledger entry, assigning an id and
	// StartedAt when unset. The status defaults to pending.
	CreateRecord(ctx context.Context, rec *domain.SyncRecord) (*domain.SyncRecord, error)

	// UpdateStatus transitions the record to the given status, applying
	// the optional extra mutation first. CompletedAt is set when the
	// status is terminal and has not been set before. It returns
	// (nil, nil) for an unknown id.
	UpdateStatus(ctx context.Context, id string, status domain.SyncStatus, apply func(*domain.SyncRecord)) (*domain.SyncRecord, error)

	// LatestCompleted returns the most recent completed record for the
	// entity type, optionally scoped to one entity id (0 = any), ordered
	// by CompletedAt descending. It returns (nil, nil) when none exists.
	LatestCompleted(ctx context.Context, entityType domain.EntityType, entityID int) (*domain.SyncRecord, error)

	// Active returns all pending or in_progress records, most recent
	// first.
	Active(ctx context.Context) ([]domain.SyncRecord, error)

	// History returns up to limit completed or failed records ordered by
	// CompletedAt descending.
	History(ctx context.Context, limit int) ([]domain.SyncRecord, error)
}
