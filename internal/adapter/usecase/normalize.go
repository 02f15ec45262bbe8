package usecase

import (
	"fmt"
	"time"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// Normalization of loose upstream records into domain documents. Missing
// optional fields get deterministic defaults: names fall back to
// "{Type} {id}", statuses to active, numerics and strings to their zero
// values. A record with no usable id keeps ID 0 and is skipped downstream.

func defaultName(kind string, id int, name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s %d", kind, id)
}

func defaultStatus(status string) domain.Status {
	if status == "" {
		return domain.StatusActive
	}
	return domain.Status(status)
}

func defaultCreatedAt(created *time.Time, now time.Time) time.Time {
	if created != nil {
		return *created
	}
	return now
}

func normalizeNetwork(rn port.RemoteNetwork, now time.Time) domain.Network {
	return domain.Network{
		Ref:         domain.Ref{ID: rn.ID},
		Name:        defaultName("Network", rn.ID, rn.Name),
		Description: rn.Description,
		Status:      defaultStatus(rn.Status),
		Timestamps: domain.Timestamps{
			CreatedAt: defaultCreatedAt(rn.CreatedAt, now),
			UpdatedAt: now,
		},
	}
}

func normalizeAdvertiser(ra port.RemoteAdvertiser, now time.Time) domain.Advertiser {
	return domain.Advertiser{
		Ref:       domain.Ref{ID: ra.ID},
		Name:      defaultName("Advertiser", ra.ID, ra.Name),
		NetworkID: ra.NetworkID,
		Status:    defaultStatus(ra.Status),
		Email:     ra.Email,
		Phone:     ra.Phone,
		Timestamps: domain.Timestamps{
			CreatedAt: defaultCreatedAt(ra.CreatedAt, now),
			UpdatedAt: now,
		},
	}
}

func normalizeCampaign(rc port.RemoteCampaign, now time.Time) domain.Campaign {
	return domain.Campaign{
		Ref:          domain.Ref{ID: rc.ID},
		Name:         defaultName("Campaign", rc.ID, rc.Name),
		Status:       defaultStatus(rc.Status),
		StartDate:    rc.StartDate,
		EndDate:      rc.EndDate,
		Budget:       rc.Budget,
		Spent:        rc.Spent,
		Impressions:  rc.Impressions,
		Clicks:       rc.Clicks,
		CTR:          rc.CTR,
		AdvertiserID: rc.AdvertiserID,
		NetworkID:    rc.NetworkID,
		Timestamps: domain.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func normalizeAdvertisement(ra port.RemoteAdvertisement, now time.Time) domain.Advertisement {
	return domain.Advertisement{
		Ref:          domain.Ref{ID: ra.ID},
		Name:         defaultName("Advertisement", ra.ID, ra.Name),
		CampaignID:   ra.CampaignID,
		AdvertiserID: ra.AdvertiserID,
		NetworkID:    ra.NetworkID,
		Type:         domain.AdType(ra.Type),
		Status:       defaultStatus(ra.Status),
		Width:        ra.Width,
		Height:       ra.Height,
		Timestamps: domain.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func normalizeZone(rz port.RemoteZone, now time.Time) domain.Zone {
	return domain.Zone{
		Ref:         domain.Ref{ID: rz.ID},
		Name:        defaultName("Zone", rz.ID, rz.Name),
		NetworkID:   rz.NetworkID,
		Type:        domain.AdType(rz.Type),
		Width:       rz.Width,
		Height:      rz.Height,
		Status:      defaultStatus(rz.Status),
		Description: rz.Description,
		Timestamps: domain.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
