package port

import (
	"context"
	"time"
)

// RemoteNetwork mirrors the loose network payloads returned by the
// upstream API. A zero ID means the record carried no usable id and must
// be skipped by consumers. All other fields are optional upstream.
type RemoteNetwork struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// RemoteAdvertiser mirrors upstream advertiser payloads. NetworkID is
// filled in by the caller from the sync scope, not by the upstream.
type RemoteAdvertiser struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	NetworkID int        `json:"-"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// RemoteCampaign mirrors upstream campaign payloads.
type RemoteCampaign struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	Budget       float64    `json:"budget"`
	Spent        float64    `json:"spent"`
	Impressions  int64      `json:"impressions"`
	Clicks       int64      `json:"clicks"`
	CTR          float64    `json:"ctr"`
	AdvertiserID int        `json:"-"`
	NetworkID    int        `json:"-"`
}

// RemoteAdvertisement mirrors upstream advertisement payloads.
type RemoteAdvertisement struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	CampaignID   int    `json:"-"`
	AdvertiserID int    `json:"-"`
	NetworkID    int    `json:"-"`
}

// RemoteZone mirrors upstream zone payloads.
type RemoteZone struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Status      string `json:"status"`
	Description string `json:"description"`
	NetworkID   int    `json:"-"`
}

// UpstreamClient is the read-only view of the third-party advertising API.
// Scope ids of 0 request unscoped listings. Implementations must tolerate
// the inconsistent envelope shapes the upstream uses (bare array, keyed
// envelope, single object) and return zero records, not an error, for an
// unrecognized shape. Records lacking an id are passed through with a zero
// ID for the caller to skip.
type UpstreamClient interface {
	Networks(ctx context.Context) ([]RemoteNetwork, error)
	Advertisers(ctx context.Context, networkID int) ([]RemoteAdvertiser, error)
	Campaigns(ctx context.Context, advertiserID int) ([]RemoteCampaign, error)
	Advertisements(ctx context.Context, campaignID int) ([]RemoteAdvertisement, error)
	Zones(ctx context.Context, networkID int) ([]RemoteZone, error)
	Summary(ctx context.Context, networkID int) (*DashboardSummary, error)
}
