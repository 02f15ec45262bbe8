package docstore

import (
	"context"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// NetworkRepository implements port.NetworkRepository.
type NetworkRepository struct {
	*Repository[domain.Network, *domain.Network]
}

func NewNetworkRepository(store *Store) *NetworkRepository {
	return &NetworkRepository{NewRepository[domain.Network, *domain.Network](store, colNetworks)}
}

func byName[T any](name func(*T) string) func(a, b *T) bool {
	return func(a, b *T) bool { return name(a) < name(b) }
}

func networkName(n *domain.Network) string { return n.Name }

// Active returns active networks ordered by name.
func (r *NetworkRepository) Active(ctx context.Context) ([]domain.Network, error) {
	return r.FindAll(ctx,
		func(n *domain.Network) bool { return n.Status == domain.StatusActive },
		port.ListOptions[domain.Network]{Less: byName(networkName)})
}

func (r *NetworkRepository) Stats(ctx context.Context) (port.EntityStats, error) {
	total, err := r.Count(ctx, nil)
	if err != nil {
		return port.EntityStats{}, err
	}
	active, err := r.Count(ctx, func(n *domain.Network) bool {
		return n.Status == domain.StatusActive
	})
	if err != nil {
		return port.EntityStats{}, err
	}
	return port.EntityStats{Total: total, Active: active}, nil
}

// AdvertiserRepository implements port.AdvertiserRepository. All scope
// parameters treat 0 as "any network".
type AdvertiserRepository struct {
	*Repository[domain.Advertiser, *domain.Advertiser]
}

func NewAdvertiserRepository(store *Store) *AdvertiserRepository {
	return &AdvertiserRepository{NewRepository[domain.Advertiser, *domain.Advertiser](store, colAdvertisers)}
}

func advertiserName(a *domain.Advertiser) string { return a.Name }

func (r *AdvertiserRepository) ByNetwork(ctx context.Context, networkID int) ([]domain.Advertiser, error) {
	return r.FindAll(ctx,
		func(a *domain.Advertiser) bool { return networkID == 0 || a.NetworkID == networkID },
		port.ListOptions[domain.Advertiser]{Less: byName(advertiserName)})
}

func (r *AdvertiserRepository) Active(ctx context.Context, networkID int) ([]domain.Advertiser, error) {
	return r.FindAll(ctx,
		func(a *domain.Advertiser) bool {
			return a.Status == domain.StatusActive && (networkID == 0 || a.NetworkID == networkID)
		},
		port.ListOptions[domain.Advertiser]{Less: byName(advertiserName)})
}

func (r *AdvertiserRepository) Stats(ctx context.Context, networkID int) (port.EntityStats, error) {
	inScope := func(a *domain.Advertiser) bool { return networkID == 0 || a.NetworkID == networkID }
	total, err := r.Count(ctx, inScope)
	if err != nil {
		return port.EntityStats{}, err
	}
	active, err := r.Count(ctx, func(a *domain.Advertiser) bool {
		return inScope(a) && a.Status == domain.StatusActive
	})
	if err != nil {
		return port.EntityStats{}, err
	}
	return port.EntityStats{Total: total, Active: active}, nil
}

// CampaignRepository implements port.CampaignRepository.
type CampaignRepository struct {
	*Repository[domain.Campaign, *domain.Campaign]
}

func NewCampaignRepository(store *Store) *CampaignRepository {
	return &CampaignRepository{NewRepository[domain.Campaign, *domain.Campaign](store, colCampaigns)}
}

// byStartDateDesc orders campaigns newest first; campaigns without a start
// date sort last.
func byStartDateDesc(a, b *domain.Campaign) bool {
	switch {
	case a.StartDate == nil:
		return false
	case b.StartDate == nil:
		return true
	default:
		return a.StartDate.After(*b.StartDate)
	}
}

func (r *CampaignRepository) ByNetwork(ctx context.Context, networkID int) ([]domain.Campaign, error) {
	return r.FindAll(ctx,
		func(c *domain.Campaign) bool { return networkID == 0 || c.NetworkID == networkID },
		port.ListOptions[domain.Campaign]{Less: byStartDateDesc})
}

func (r *CampaignRepository) ByAdvertiser(ctx context.Context, advertiserID int) ([]domain.Campaign, error) {
	return r.FindAll(ctx,
		func(c *domain.Campaign) bool { return c.AdvertiserID == advertiserID },
		port.ListOptions[domain.Campaign]{Less: byStartDateDesc})
}

func (r *CampaignRepository) Active(ctx context.Context, networkID int) ([]domain.Campaign, error) {
	return r.FindAll(ctx,
		func(c *domain.Campaign) bool {
			return c.Status == domain.StatusActive && (networkID == 0 || c.NetworkID == networkID)
		},
		port.ListOptions[domain.Campaign]{Less: byStartDateDesc})
}

// Stats aggregates counts and delivery totals over the (optionally
// network-scoped) campaign set in a single scan.
func (r *CampaignRepository) Stats(ctx context.Context, networkID int) (port.CampaignStats, error) {
	var stats port.CampaignStats
	_, err := r.Count(ctx, func(c *domain.Campaign) bool {
		if networkID != 0 && c.NetworkID != networkID {
			return false
		}
		stats.Total++
		switch c.Status {
		case domain.StatusActive:
			stats.Active++
		case domain.StatusPaused:
			stats.Paused++
		}
		stats.TotalSpend += c.Spent
		stats.TotalImpressions += c.Impressions
		stats.TotalClicks += c.Clicks
		return true
	})
	if err != nil {
		return port.CampaignStats{}, err
	}
	return stats, nil
}

// AdvertisementRepository implements port.AdvertisementRepository.
type AdvertisementRepository struct {
	*Repository[domain.Advertisement, *domain.Advertisement]
}

func NewAdvertisementRepository(store *Store) *AdvertisementRepository {
	return &AdvertisementRepository{NewRepository[domain.Advertisement, *domain.Advertisement](store, colAdvertisements)}
}

func advertisementName(a *domain.Advertisement) string { return a.Name }

func (r *AdvertisementRepository) ByNetwork(ctx context.Context, networkID int) ([]domain.Advertisement, error) {
	return r.FindAll(ctx,
		func(a *domain.Advertisement) bool { return networkID == 0 || a.NetworkID == networkID },
		port.ListOptions[domain.Advertisement]{Less: byName(advertisementName)})
}

func (r *AdvertisementRepository) ByCampaign(ctx context.Context, campaignID int) ([]domain.Advertisement, error) {
	return r.FindAll(ctx,
		func(a *domain.Advertisement) bool { return a.CampaignID == campaignID },
		port.ListOptions[domain.Advertisement]{Less: byName(advertisementName)})
}

func (r *AdvertisementRepository) Stats(ctx context.Context, networkID int) (port.EntityStats, error) {
	inScope := func(a *domain.Advertisement) bool { return networkID == 0 || a.NetworkID == networkID }
	total, err := r.Count(ctx, inScope)
	if err != nil {
		return port.EntityStats{}, err
	}
	active, err := r.Count(ctx, func(a *domain.Advertisement) bool {
		return inScope(a) && a.Status == domain.StatusActive
	})
	if err != nil {
		return port.EntityStats{}, err
	}
	return port.EntityStats{Total: total, Active: active}, nil
}

// ZoneRepository implements port.ZoneRepository.
type ZoneRepository struct {
	*Repository[domain.Zone, *domain.Zone]
}

func NewZoneRepository(store *Store) *ZoneRepository {
	return &ZoneRepository{NewRepository[domain.Zone, *domain.Zone](store, colZones)}
}

func zoneName(z *domain.Zone) string { return z.Name }

func (r *ZoneRepository) ByNetwork(ctx context.Context, networkID int) ([]domain.Zone, error) {
	return r.FindAll(ctx,
		func(z *domain.Zone) bool { return networkID == 0 || z.NetworkID == networkID },
		port.ListOptions[domain.Zone]{Less: byName(zoneName)})
}

func (r *ZoneRepository) Stats(ctx context.Context, networkID int) (port.EntityStats, error) {
	inScope := func(z *domain.Zone) bool { return networkID == 0 || z.NetworkID == networkID }
	total, err := r.Count(ctx, inScope)
	if err != nil {
		return port.EntityStats{}, err
	}
	active, err := r.Count(ctx, func(z *domain.Zone) bool {
		return inScope(z) && z.Status == domain.StatusActive
	})
	if err != nil {
		return port.EntityStats{}, err
	}
	return port.EntityStats{Total: total, Active: active}, nil
}
