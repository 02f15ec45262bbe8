package port

import (
	"context"
	"time"

	"adboard/internal/core/domain"
)

// SyncResult counts the outcome of one entity sync. Processed counts the
// records that carried a usable id and reached the create-or-update
// decision; records skipped for a missing id contribute to none of the
// counters.
type SyncResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
}

// Add accumulates other into r.
func (r *SyncResult) Add(other SyncResult) {
	r.Processed += other.Processed
	r.Created += other.Created
	r.Updated += other.Updated
}

// FullSyncResult holds the per-stage results of a full synchronization in
// stage order.
type FullSyncResult struct {
	Networks       SyncResult `json:"networks"`
	Advertisers    SyncResult `json:"advertisers"`
	Campaigns      SyncResult `json:"campaigns"`
	Advertisements SyncResult `json:"advertisements"`
	Zones          SyncResult `json:"zones"`
}

// Totals sums all stages.
func (r *FullSyncResult) Totals() SyncResult {
	var t SyncResult
	t.Add(r.Networks)
	t.Add(r.Advertisers)
	t.Add(r.Campaigns)
	t.Add(r.Advertisements)
	t.Add(r.Zones)
	return t
}

// TriggerRequest asks for one sync run. EntityID optionally narrows the
// sync to one parent entity; Force skips the global is-anything-active
// check (per-scope guards still apply).
type TriggerRequest struct {
	Type     domain.EntityType `json:"type"`
	EntityID int               `json:"entityId,omitempty"`
	Force    bool              `json:"force,omitempty"`
}

// TriggerOutcome reports a finished triggered sync. Full is set only for
// full syncs.
type TriggerOutcome struct {
	SyncID      string            `json:"syncId"`
	Type        domain.EntityType `json:"type"`
	EntityID    int               `json:"entityId,omitempty"`
	Summary     SyncResult        `json:"summary"`
	Full        *FullSyncResult   `json:"full,omitempty"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
}

// SyncService reconciles upstream API state into the local store. Each
// per-entity sync holds a concurrency guard keyed by entity type and scope
// for its duration; a second call for a held scope fails immediately with
// SyncConflictError instead of queueing.
type SyncService interface {
	SyncNetworks(ctx context.Context) (SyncResult, error)
	// SyncAdvertisers syncs advertisers for one network, or for every
	// locally-stored active network when networkID is 0.
	SyncAdvertisers(ctx context.Context, networkID int) (SyncResult, error)
	// SyncCampaigns syncs campaigns for one advertiser, or for every
	// locally-stored active advertiser when advertiserID is 0.
	SyncCampaigns(ctx context.Context, advertiserID int) (SyncResult, error)
	// SyncAdvertisements syncs advertisements for one campaign, or for
	// every locally-stored active campaign when campaignID is 0.
	SyncAdvertisements(ctx context.Context, campaignID int) (SyncResult, error)
	// SyncZones syncs zones for one network, or for every locally-stored
	// active network when networkID is 0.
	SyncZones(ctx context.Context, networkID int) (SyncResult, error)

	// PerformFullSync runs the five per-entity syncs strictly in order
	// networks, advertisers, campaigns, advertisements, zones, recording
	// the run in the sync ledger. Later stages iterate the locally-stored
	// output of earlier stages, so the order is a hard dependency.
	PerformFullSync(ctx context.Context, trigger domain.TriggerSource) (*FullSyncResult, error)

	// Trigger runs the requested sync and records it in the ledger. It
	// fails with SyncConflictError when any sync is active and Force is
	// unset.
	Trigger(ctx context.Context, req TriggerRequest) (*TriggerOutcome, error)

	// IsActive reports whether any sync guard is currently held.
	IsActive() bool
	// ActiveScopes returns the held guard keys, sorted.
	ActiveScopes() []string
}

// RecordCounts is the per-entity-type document census of the local store.
type RecordCounts struct {
	Networks       int `json:"networks"`
	Advertisers    int `json:"advertisers"`
	Campaigns      int `json:"campaigns"`
	Advertisements int `json:"advertisements"`
	Zones          int `json:"zones"`
}

// InitStatus describes the bootstrap state of the local store.
type InitStatus struct {
	Initialized  bool         `json:"isInitialized"`
	Initializing bool         `json:"isInitializing"`
	LastFullSync *time.Time   `json:"lastFullSync,omitempty"`
	Records      RecordCounts `json:"recordCounts"`
}

// InitService populates the local store on cold start.
type InitService interface {
	// EnsureInitialized bootstraps the store when it is empty and is a
	// no-op otherwise. Concurrent callers share one in-flight bootstrap.
	EnsureInitialized(ctx context.Context) error

	// ForceInitialization starts a bootstrap regardless of store state,
	// still subject to the single-flight guard.
	ForceInitialization(ctx context.Context) error

	// Initializing reports whether a bootstrap is currently running.
	Initializing() bool

	Status(ctx context.Context) (*InitStatus, error)
}

// DashboardSummary aggregates per-entity stats for the dashboard.
type DashboardSummary struct {
	Networks       EntityStats   `json:"networks"`
	Advertisers    EntityStats   `json:"advertisers"`
	Campaigns      CampaignStats `json:"campaigns"`
	Advertisements EntityStats   `json:"advertisements"`
	Zones          EntityStats   `json:"zones"`
}

// DataService is the read path used by presentation code. Reads are served
// from the local store when it has any matching records; local data is
// never considered stale by age, only by absence. On a miss the service
// reads through to the upstream API and schedules a background sync to
// backfill the cache.
type DataService interface {
	Networks(ctx context.Context) ([]domain.Network, error)
	Advertisers(ctx context.Context, networkID int) ([]domain.Advertiser, error)
	Campaigns(ctx context.Context, networkID int) ([]domain.Campaign, error)
	Advertisements(ctx context.Context, networkID int) ([]domain.Advertisement, error)
	Zones(ctx context.Context, networkID int) ([]domain.Zone, error)
	DashboardSummary(ctx context.Context, networkID int) (*DashboardSummary, error)
}
