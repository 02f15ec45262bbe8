package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// Repositories bundles the persistence ports the services operate on.
type Repositories struct {
	Networks       port.NetworkRepository
	Advertisers    port.AdvertiserRepository
	Campaigns      port.CampaignRepository
	Advertisements port.AdvertisementRepository
	Zones          port.ZoneRepository
	Ledger         port.SyncLedger
}

// SyncService reconciles upstream API state into the local store. The
// in-flight guard set is explicit state owned by this service; there is no
// cross-process coordination, so two separate processes can still race.
type SyncService struct {
	repos    Repositories
	upstream port.UpstreamClient
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	active map[string]struct{}
}

// NewSyncService creates a sync service over the given ports.
func NewSyncService(repos Repositories, upstream port.UpstreamClient, logger *slog.Logger) *SyncService {
	return &SyncService{
		repos:    repos,
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
		active:   make(map[string]struct{}),
	}
}

// scopeKey builds the guard key for an entity sync: "{type}-{id}" for a
// scoped sync, "{type}-all" otherwise.
func scopeKey(entity domain.EntityType, scopeID int) string {
	if scopeID > 0 {
		return fmt.Sprintf("%s-%d", entity, scopeID)
	}
	return string(entity) + "-all"
}

// acquire claims the guard for one scope or fails with SyncConflictError.
// There is no queueing: the caller either proceeds or is rejected.
func (s *SyncService) acquire(entity domain.EntityType, scopeID int) (string, error) {
	key := scopeKey(entity, scopeID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[key]; busy {
		return "", &port.SyncConflictError{Scope: key}
	}
	s.active[key] = struct{}{}
	return key, nil
}

func (s *SyncService) release(key string) {
	s.mu.Lock()
	delete(s.active, key)
	s.mu.Unlock()
}

// IsActive reports whether any sync guard is held.
func (s *SyncService) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// ActiveScopes returns the held guard keys, sorted.
func (s *SyncService) ActiveScopes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	scopes := make([]string, 0, len(s.active))
	for key := range s.active {
		scopes = append(scopes, key)
	}
	sort.Strings(scopes)
	return scopes
}

// reconcile applies normalized records to a repository in upstream list
// order. Records without a usable id are skipped and counted nowhere.
// Per-record failures are logged and skipped; they never abort the batch.
func reconcile[T any, P interface {
	*T
	domain.Document
}](ctx context.Context, s *SyncService, repo port.Repository[T], entity domain.EntityType, items []T) port.SyncResult {
	var res port.SyncResult
	for i := range items {
		item := items[i]
		id := P(&item).Key()
		if id <= 0 {
			s.logger.Warn("skipping record without id", slog.String("entity", string(entity)))
			continue
		}
		res.Processed++

		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			s.logger.Error("record lookup failed",
				slog.String("entity", string(entity)), slog.Int("id", id), slog.Any("error", err))
			continue
		}
		if existing != nil {
			_, err = repo.Update(ctx, id, func(dst *T) {
				created := P(dst).Stamps().CreatedAt
				*dst = item
				// the stored creation time wins over the normalized one
				P(dst).Stamps().CreatedAt = created
			})
			if err != nil {
				s.logger.Error("record update failed",
					slog.String("entity", string(entity)), slog.Int("id", id), slog.Any("error", err))
				continue
			}
			res.Updated++
		} else {
			if err = repo.Create(ctx, &item); err != nil {
				s.logger.Error("record create failed",
					slog.String("entity", string(entity)), slog.Int("id", id), slog.Any("error", err))
				continue
			}
			res.Created++
		}
	}
	return res
}

// SyncNetworks pulls all networks and reconciles them into the store.
func (s *SyncService) SyncNetworks(ctx context.Context) (port.SyncResult, error) {
	key, err := s.acquire(domain.EntityNetworks, 0)
	if err != nil {
		return port.SyncResult{}, err
	}
	defer s.release(key)

	s.logger.Info("starting networks sync")
	remote, err := s.upstream.Networks(ctx)
	if err != nil {
		return port.SyncResult{}, fmt.Errorf("fetch networks: %w", err)
	}

	now := s.now()
	items := make([]domain.Network, len(remote))
	for i, rn := range remote {
		items[i] = normalizeNetwork(rn, now)
	}
	res := reconcile[domain.Network, *domain.Network](ctx, s, s.repos.Networks, domain.EntityNetworks, items)
	s.logger.Info("networks sync completed",
		slog.Int("created", res.Created), slog.Int("updated", res.Updated))
	return res, nil
}

// SyncAdvertisers pulls advertisers for one network, or iterates every
// locally-stored active network when networkID is 0. The upstream only
// serves network-scoped advertiser listings, so the unscoped form depends
// on networks having been synced first. Per-network fetch failures degrade
// to an empty set for that network.
func (s *SyncService) SyncAdvertisers(ctx context.Context, networkID int) (port.SyncResult, error) {
	key, err := s.acquire(domain.EntityAdvertisers, networkID)
	if err != nil {
		return port.SyncResult{}, err
	}
	defer s.release(key)

	s.logger.Info("starting advertisers sync", slog.Int("networkId", networkID))

	var remote []port.RemoteAdvertiser
	if networkID > 0 {
		remote, err = s.upstream.Advertisers(ctx, networkID)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("fetch advertisers for network %d: %w", networkID, err)
		}
	} else {
		networks, err := s.repos.Networks.Active(ctx)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("list active networks: %w", err)
		}
		// one network at a time to bound upstream request concurrency
		for _, network := range networks {
			recs, err := s.upstream.Advertisers(ctx, network.ID)
			if err != nil {
				s.logger.Error("failed to fetch advertisers",
					slog.Int("networkId", network.ID), slog.Any("error", err))
				continue
			}
			remote = append(remote, recs...)
		}
	}

	now := s.now()
	items := make([]domain.Advertiser, len(remote))
	for i, ra := range remote {
		items[i] = normalizeAdvertiser(ra, now)
	}
	res := reconcile[domain.Advertiser, *domain.Advertiser](ctx, s, s.repos.Advertisers, domain.EntityAdvertisers, items)
	s.logger.Info("advertisers sync completed",
		slog.Int("created", res.Created), slog.Int("updated", res.Updated))
	return res, nil
}

// SyncCampaigns pulls campaigns for one advertiser, or iterates every
// locally-stored active advertiser when advertiserID is 0.
func (s *SyncService) SyncCampaigns(ctx context.Context, advertiserID int) (port.SyncResult, error) {
	key, err := s.acquire(domain.EntityCampaigns, advertiserID)
	if err != nil {
		return port.SyncResult{}, err
	}
	defer s.release(key)

	s.logger.Info("starting campaigns sync", slog.Int("advertiserId", advertiserID))

	var remote []port.RemoteCampaign
	if advertiserID > 0 {
		remote, err = s.upstream.Campaigns(ctx, advertiserID)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("fetch campaigns for advertiser %d: %w", advertiserID, err)
		}
		// resolve the owning network when the advertiser is cached; a
		// missing parent is expected and leaves NetworkID at 0
		if adv, err := s.repos.Advertisers.FindByID(ctx, advertiserID); err == nil && adv != nil {
			for i := range remote {
				remote[i].NetworkID = adv.NetworkID
			}
		}
	} else {
		advertisers, err := s.repos.Advertisers.Active(ctx, 0)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("list active advertisers: %w", err)
		}
		for _, adv := range advertisers {
			recs, err := s.upstream.Campaigns(ctx, adv.ID)
			if err != nil {
				s.logger.Error("failed to fetch campaigns",
					slog.Int("advertiserId", adv.ID), slog.Any("error", err))
				continue
			}
			for i := range recs {
				recs[i].NetworkID = adv.NetworkID
			}
			remote = append(remote, recs...)
		}
	}

	now := s.now()
	items := make([]domain.Campaign, len(remote))
	for i, rc := range remote {
		items[i] = normalizeCampaign(rc, now)
	}
	res := reconcile[domain.Campaign, *domain.Campaign](ctx, s, s.repos.Campaigns, domain.EntityCampaigns, items)
	s.logger.Info("campaigns sync completed",
		slog.Int("created", res.Created), slog.Int("updated", res.Updated))
	return res, nil
}

// SyncAdvertisements pulls advertisements for one campaign, or iterates
// every locally-stored active campaign when campaignID is 0.
func (s *SyncService) SyncAdvertisements(ctx context.Context, campaignID int) (port.SyncResult, error) {
	key, err := s.acquire(domain.EntityAdvertisements, campaignID)
	if err != nil {
		return port.SyncResult{}, err
	}
	defer s.release(key)

	s.logger.Info("starting advertisements sync", slog.Int("campaignId", campaignID))

	var remote []port.RemoteAdvertisement
	if campaignID > 0 {
		remote, err = s.upstream.Advertisements(ctx, campaignID)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("fetch advertisements for campaign %d: %w", campaignID, err)
		}
		if camp, err := s.repos.Campaigns.FindByID(ctx, campaignID); err == nil && camp != nil {
			for i := range remote {
				remote[i].AdvertiserID = camp.AdvertiserID
				remote[i].NetworkID = camp.NetworkID
			}
		}
	} else {
		campaigns, err := s.repos.Campaigns.Active(ctx, 0)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("list active campaigns: %w", err)
		}
		for _, camp := range campaigns {
			recs, err := s.upstream.Advertisements(ctx, camp.ID)
			if err != nil {
				s.logger.Error("failed to fetch advertisements",
					slog.Int("campaignId", camp.ID), slog.Any("error", err))
				continue
			}
			for i := range recs {
				recs[i].AdvertiserID = camp.AdvertiserID
				recs[i].NetworkID = camp.NetworkID
			}
			remote = append(remote, recs...)
		}
	}

	now := s.now()
	items := make([]domain.Advertisement, len(remote))
	for i, ra := range remote {
		items[i] = normalizeAdvertisement(ra, now)
	}
	res := reconcile[domain.Advertisement, *domain.Advertisement](ctx, s, s.repos.Advertisements, domain.EntityAdvertisements, items)
	s.logger.Info("advertisements sync completed",
		slog.Int("created", res.Created), slog.Int("updated", res.Updated))
	return res, nil
}

// SyncZones pulls zones for one network, or iterates every locally-stored
// active network when networkID is 0.
func (s *SyncService) SyncZones(ctx context.Context, networkID int) (port.SyncResult, error) {
	key, err := s.acquire(domain.EntityZones, networkID)
	if err != nil {
		return port.SyncResult{}, err
	}
	defer s.release(key)

	s.logger.Info("starting zones sync", slog.Int("networkId", networkID))

	var remote []port.RemoteZone
	if networkID > 0 {
		remote, err = s.upstream.Zones(ctx, networkID)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("fetch zones for network %d: %w", networkID, err)
		}
	} else {
		networks, err := s.repos.Networks.Active(ctx)
		if err != nil {
			return port.SyncResult{}, fmt.Errorf("list active networks: %w", err)
		}
		for _, network := range networks {
			recs, err := s.upstream.Zones(ctx, network.ID)
			if err != nil {
				s.logger.Error("failed to fetch zones",
					slog.Int("networkId", network.ID), slog.Any("error", err))
				continue
			}
			remote = append(remote, recs...)
		}
	}

	now := s.now()
	items := make([]domain.Zone, len(remote))
	for i, rz := range remote {
		items[i] = normalizeZone(rz, now)
	}
	res := reconcile[domain.Zone, *domain.Zone](ctx, s, s.repos.Zones, domain.EntityZones, items)
	s.logger.Info("zones sync completed",
		slog.Int("created", res.Created), slog.Int("updated", res.Updated))
	return res, nil
}

// runStages executes the five per-entity syncs strictly in order. Later
// stages iterate the locally-stored output of earlier stages, so the
// order is a hard sequential dependency.
func (s *SyncService) runStages(ctx context.Context) (*port.FullSyncResult, error) {
	var (
		full port.FullSyncResult
		err  error
	)
	if full.Networks, err = s.SyncNetworks(ctx); err != nil {
		return nil, fmt.Errorf("networks stage: %w", err)
	}
	if full.Advertisers, err = s.SyncAdvertisers(ctx, 0); err != nil {
		return nil, fmt.Errorf("advertisers stage: %w", err)
	}
	if full.Campaigns, err = s.SyncCampaigns(ctx, 0); err != nil {
		return nil, fmt.Errorf("campaigns stage: %w", err)
	}
	if full.Advertisements, err = s.SyncAdvertisements(ctx, 0); err != nil {
		return nil, fmt.Errorf("advertisements stage: %w", err)
	}
	if full.Zones, err = s.SyncZones(ctx, 0); err != nil {
		return nil, fmt.Errorf("zones stage: %w", err)
	}
	return &full, nil
}

// PerformFullSync runs all stages and records the run in the sync ledger.
// On stage failure the ledger record is marked failed with the error
// message and the error propagates to the caller.
func (s *SyncService) PerformFullSync(ctx context.Context, trigger domain.TriggerSource) (*port.FullSyncResult, error) {
	full, _, err := s.fullSync(ctx, trigger)
	return full, err
}

// fullSync is PerformFullSync plus the ledger record id for callers that
// report it.
func (s *SyncService) fullSync(ctx context.Context, trigger domain.TriggerSource) (*port.FullSyncResult, string, error) {
	s.logger.Info("starting full synchronization", slog.String("trigger", string(trigger)))

	rec, err := s.repos.Ledger.CreateRecord(ctx, &domain.SyncRecord{
		EntityType:  domain.EntityFull,
		Status:      domain.SyncInProgress,
		TriggeredBy: trigger,
		Metadata: map[string]any{
			"reason": "full synchronization",
			"source": "Broadstreet API",
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("create sync record: %w", err)
	}

	full, err := s.runStages(ctx)
	if err != nil {
		s.failRecord(ctx, rec.ID, err)
		return nil, rec.ID, err
	}

	totals := full.Totals()
	if _, uerr := s.repos.Ledger.UpdateStatus(ctx, rec.ID, domain.SyncCompleted, func(r *domain.SyncRecord) {
		r.RecordsProcessed = totals.Processed
		r.RecordsCreated = totals.Created
		r.RecordsUpdated = totals.Updated
		r.Metadata["results"] = full
	}); uerr != nil {
		s.logger.Error("failed to update sync record", slog.Any("error", uerr))
	}

	s.logger.Info("full synchronization completed",
		slog.Int("processed", totals.Processed),
		slog.Int("created", totals.Created),
		slog.Int("updated", totals.Updated))
	return full, rec.ID, nil
}

func (s *SyncService) failRecord(ctx context.Context, id string, cause error) {
	if _, err := s.repos.Ledger.UpdateStatus(ctx, id, domain.SyncFailed, func(r *domain.SyncRecord) {
		r.ErrorMessage = cause.Error()
	}); err != nil {
		s.logger.Error("failed to mark sync record failed", slog.Any("error", err))
	}
}

// Trigger runs the requested sync on behalf of the presentation layer and
// records it in the ledger. Unless forced, it rejects when any sync is
// active.
func (s *SyncService) Trigger(ctx context.Context, req port.TriggerRequest) (*port.TriggerOutcome, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("unsupported sync type %q", req.Type)
	}
	if !req.Force && s.IsActive() {
		return nil, &port.SyncConflictError{Scope: strings.Join(s.ActiveScopes(), ", ")}
	}

	started := s.now()
	if req.Type == domain.EntityFull {
		full, syncID, err := s.fullSync(ctx, domain.TriggerManual)
		if err != nil {
			return nil, err
		}
		return &port.TriggerOutcome{
			SyncID:      syncID,
			Type:        domain.EntityFull,
			Summary:     full.Totals(),
			Full:        full,
			StartedAt:   started,
			CompletedAt: s.now(),
		}, nil
	}

	rec, err := s.repos.Ledger.CreateRecord(ctx, &domain.SyncRecord{
		EntityType:  req.Type,
		EntityID:    req.EntityID,
		Status:      domain.SyncInProgress,
		TriggeredBy: domain.TriggerManual,
		Metadata: map[string]any{
			"reason": fmt.Sprintf("manual %s sync", req.Type),
			"source": "Broadstreet API",
			"force":  req.Force,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create sync record: %w", err)
	}

	var res port.SyncResult
	switch req.Type {
	case domain.EntityNetworks:
		res, err = s.SyncNetworks(ctx)
	case domain.EntityAdvertisers:
		res, err = s.SyncAdvertisers(ctx, req.EntityID)
	case domain.EntityCampaigns:
		res, err = s.SyncCampaigns(ctx, req.EntityID)
	case domain.EntityAdvertisements:
		res, err = s.SyncAdvertisements(ctx, req.EntityID)
	case domain.EntityZones:
		res, err = s.SyncZones(ctx, req.EntityID)
	}
	if err != nil {
		s.failRecord(ctx, rec.ID, err)
		return nil, err
	}

	if _, uerr := s.repos.Ledger.UpdateStatus(ctx, rec.ID, domain.SyncCompleted, func(r *domain.SyncRecord) {
		r.RecordsProcessed = res.Processed
		r.RecordsCreated = res.Created
		r.RecordsUpdated = res.Updated
	}); uerr != nil {
		s.logger.Error("failed to update sync record", slog.Any("error", uerr))
	}

	return &port.TriggerOutcome{
		SyncID:      rec.ID,
		Type:        req.Type,
		EntityID:    req.EntityID,
		Summary:     res,
		StartedAt:   started,
		CompletedAt: s.now(),
	}, nil
}
