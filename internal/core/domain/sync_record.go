package domain

import "time"

// EntityType names a syncable entity collection, or "full" for a complete
// multi-stage synchronization.
type EntityType string

const (
	EntityNetworks       EntityType = "networks"
	EntityAdvertisers    EntityType = "advertisers"
	EntityCampaigns      EntityType = "campaigns"
	EntityAdvertisements EntityType = "advertisements"
	EntityZones          EntityType = "zones"
	EntityFull           EntityType = "full"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityNetworks, EntityAdvertisers, EntityCampaigns,
		EntityAdvertisements, EntityZones, EntityFull:
		return true
	}
	return false
}

// SyncStatus is the lifecycle state of a sync attempt.
type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncInProgress SyncStatus = "in_progress"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

// Terminal reports whether the status ends the sync attempt.
func (s SyncStatus) Terminal() bool {
	return s == SyncCompleted || s == SyncFailed
}

// TriggerSource identifies what started a sync.
type TriggerSource string

const (
	TriggerManual         TriggerSource = "manual"
	TriggerAuto           TriggerSource = "auto"
	TriggerInitialization TriggerSource = "initialization"
	TriggerWorkflow       TriggerSource = "workflow"
)

// SyncRecord is one entry in the append-mostly sync ledger. A record is
// created in a non-terminal status when a sync starts and updated exactly
// once to a terminal status; CompletedAt is set only at that transition.
// A record stuck at in_progress marks a sync that crashed mid-flight.
type SyncRecord struct {
	ID          string     `json:"id"`
	EntityType  EntityType `json:"entityType"`
	EntityID    int        `json:"entityId,omitempty"`
	Status      SyncStatus `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	RecordsProcessed int `json:"recordsProcessed"`
	RecordsCreated   int `json:"recordsCreated"`
	RecordsUpdated   int `json:"recordsUpdated"`
	// RecordsDeleted is part of the ledger schema but no sync path removes
	// entities that disappeared upstream: the cache is tombstone-free and
	// readers tolerate dangling references instead.
	RecordsDeleted int `json:"recordsDeleted"`

	ErrorMessage string         `json:"errorMessage,omitempty"`
	SyncVersion  int            `json:"syncVersion"`
	TriggeredBy  TriggerSource  `json:"triggeredBy"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Duration returns how long the sync ran, or zero while it is still open.
func (r *SyncRecord) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
