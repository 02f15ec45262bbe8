package domain

import "time"

// Status of a cached entity as reported by the upstream API.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusInactive  Status = "inactive"
	StatusCompleted Status = "completed"
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
)

// AdType classifies advertisements and zones.
type AdType string

const (
	AdTypeBanner       AdType = "banner"
	AdTypeText         AdType = "text"
	AdTypeVideo        AdType = "video"
	AdTypeNative       AdType = "native"
	AdTypePopup        AdType = "popup"
	AdTypeInterstitial AdType = "interstitial"
)

// Network is a top-level publishing network. All other entities hang off a
// network through NetworkID references.
type Network struct {
	Ref
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Timestamps
	SyncInfo
}

// Advertiser belongs to a network. NetworkID is not enforced by any
// constraint: the referenced network may be absent locally and readers must
// treat a missing parent as an expected case.
type Advertiser struct {
	Ref
	Name      string `json:"name"`
	NetworkID int    `json:"networkId"`
	Status    Status `json:"status"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Timestamps
	SyncInfo
}

// Campaign carries delivery metrics alongside its identity. Numeric fields
// missing upstream are stored as zero.
type Campaign struct {
	Ref
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	Budget       float64    `json:"budget"`
	Spent        float64    `json:"spent"`
	Impressions  int64      `json:"impressions"`
	Clicks       int64      `json:"clicks"`
	CTR          float64    `json:"ctr"`
	AdvertiserID int        `json:"advertiserId"`
	NetworkID    int        `json:"networkId"`
	Timestamps
	SyncInfo
}

// Advertisement is a single creative unit within a campaign.
type Advertisement struct {
	Ref
	Name         string `json:"name"`
	CampaignID   int    `json:"campaignId"`
	AdvertiserID int    `json:"advertiserId"`
	NetworkID    int    `json:"networkId"`
	Type         AdType `json:"type"`
	Status       Status `json:"status"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Timestamps
	SyncInfo
}

// Zone is a placement slot on a network.
type Zone struct {
	Ref
	Name        string `json:"name"`
	NetworkID   int    `json:"networkId"`
	Type        AdType `json:"type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Status      Status `json:"status"`
	Description string `json:"description"`
	Timestamps
	SyncInfo
}
