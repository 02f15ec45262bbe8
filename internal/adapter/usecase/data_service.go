package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// syncJob is one queued background backfill request.
type syncJob struct {
	entityType domain.EntityType
	entityID   int
}

// DataService serves reads local-first. Local data is never considered
// stale by age, only by absence: a non-empty local result set is returned
// as-is, and only an empty one falls through to the upstream API, with a
// background sync queued to backfill the store for the next caller.
type DataService struct {
	repos    Repositories
	upstream port.UpstreamClient
	init     port.InitService
	syncSvc  port.SyncService
	logger   *slog.Logger
	now      func() time.Time

	jobs chan syncJob
	done chan struct{}
}

// NewDataService wires the read path and starts its backfill worker. Call
// Close to stop the worker.
func NewDataService(repos Repositories, upstream port.UpstreamClient, init port.InitService, syncSvc port.SyncService, logger *slog.Logger) *DataService {
	s := &DataService{
		repos:    repos,
		upstream: upstream,
		init:     init,
		syncSvc:  syncSvc,
		logger:   logger,
		now:      time.Now,
		jobs:     make(chan syncJob, 16),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s
}

// Close stops the backfill worker after it drains queued jobs.
func (s *DataService) Close() {
	close(s.jobs)
	<-s.done
}

func (s *DataService) worker() {
	defer close(s.done)
	for job := range s.jobs {
		s.runJob(job)
	}
}

func (s *DataService) runJob(job syncJob) {
	ctx := context.Background()
	var err error
	switch job.entityType {
	case domain.EntityFull:
		_, err = s.syncSvc.PerformFullSync(ctx, domain.TriggerAuto)
	case domain.EntityNetworks:
		_, err = s.syncSvc.SyncNetworks(ctx)
	case domain.EntityAdvertisers:
		_, err = s.syncSvc.SyncAdvertisers(ctx, job.entityID)
	case domain.EntityCampaigns:
		_, err = s.syncSvc.SyncCampaigns(ctx, job.entityID)
	case domain.EntityAdvertisements:
		_, err = s.syncSvc.SyncAdvertisements(ctx, job.entityID)
	case domain.EntityZones:
		_, err = s.syncSvc.SyncZones(ctx, job.entityID)
	}
	if err != nil {
		var conflict *port.SyncConflictError
		if errors.As(err, &conflict) {
			// someone else is already filling this scope
			return
		}
		s.logger.Warn("background sync failed",
			slog.String("entity", string(job.entityType)),
			slog.Int("entityId", job.entityID),
			slog.Any("error", err))
	}
}

// enqueue schedules a backfill without blocking the read path. A full
// queue drops the job; the next cache miss will queue it again.
func (s *DataService) enqueue(job syncJob) {
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("backfill queue full, dropping job",
			slog.String("entity", string(job.entityType)),
			slog.Int("entityId", job.entityID))
	}
}

// ensureReady triggers the cold-start bootstrap. A failed bootstrap is
// logged, not returned: the read can still be served via the upstream
// fallback.
func (s *DataService) ensureReady(ctx context.Context) {
	if err := s.init.EnsureInitialized(ctx); err != nil {
		s.logger.Warn("initialization check failed", slog.Any("error", err))
	}
}

func (s *DataService) Networks(ctx context.Context) ([]domain.Network, error) {
	s.ensureReady(ctx)

	local, err := s.repos.Networks.FindAll(ctx, nil, port.ListOptions[domain.Network]{
		Less: func(a, b *domain.Network) bool { return a.Name < b.Name },
	})
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return local, nil
	}

	remote, err := s.upstream.Networks(ctx)
	if err != nil {
		return nil, err
	}
	s.enqueue(syncJob{entityType: domain.EntityNetworks})

	now := s.now()
	out := make([]domain.Network, 0, len(remote))
	for _, rn := range remote {
		out = append(out, normalizeNetwork(rn, now))
	}
	return out, nil
}

func (s *DataService) Advertisers(ctx context.Context, networkID int) ([]domain.Advertiser, error) {
	s.ensureReady(ctx)

	local, err := s.repos.Advertisers.ByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return local, nil
	}

	remote, err := s.upstream.Advertisers(ctx, networkID)
	if err != nil {
		return nil, err
	}
	s.enqueue(syncJob{entityType: domain.EntityAdvertisers, entityID: networkID})

	now := s.now()
	out := make([]domain.Advertiser, 0, len(remote))
	for _, ra := range remote {
		ra.NetworkID = networkID
		out = append(out, normalizeAdvertiser(ra, now))
	}
	return out, nil
}

func (s *DataService) Campaigns(ctx context.Context, networkID int) ([]domain.Campaign, error) {
	s.ensureReady(ctx)

	local, err := s.repos.Campaigns.ByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return local, nil
	}
	// campaigns are fetched per advertiser upstream, so a miss queues the
	// sync and serves what the advertiser walk produces
	return s.campaignFallback(ctx, networkID)
}

// campaignFallback walks the network's advertisers and fetches their
// campaigns directly from the upstream.
func (s *DataService) campaignFallback(ctx context.Context, networkID int) ([]domain.Campaign, error) {
	advertisers, err := s.repos.Advertisers.ByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if len(advertisers) == 0 {
		remote, err := s.upstream.Advertisers(ctx, networkID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		for _, ra := range remote {
			ra.NetworkID = networkID
			advertisers = append(advertisers, normalizeAdvertiser(ra, now))
		}
	}

	s.enqueue(syncJob{entityType: domain.EntityCampaigns})

	now := s.now()
	var out []domain.Campaign
	for _, adv := range advertisers {
		if adv.ID <= 0 {
			continue
		}
		remote, err := s.upstream.Campaigns(ctx, adv.ID)
		if err != nil {
			s.logger.Warn("campaign fallback fetch failed",
				slog.Int("advertiserId", adv.ID), slog.Any("error", err))
			continue
		}
		for _, rc := range remote {
			rc.AdvertiserID = adv.ID
			rc.NetworkID = adv.NetworkID
			out = append(out, normalizeCampaign(rc, now))
		}
	}
	return out, nil
}

func (s *DataService) Advertisements(ctx context.Context, networkID int) ([]domain.Advertisement, error) {
	s.ensureReady(ctx)

	local, err := s.repos.Advertisements.ByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return local, nil
	}

	// advertisements are fetched per campaign upstream; fall back through
	// the locally cached campaign set
	campaigns, err := s.repos.Campaigns.ByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}

	s.enqueue(syncJob{entityType: domain.EntityAdvertisements})

	now := s.now()
	var out []domain.Advertisement
	for _, c := range campaigns {
		remote, err := s.upstream.Advertisements(ctx, c.ID)
		if err != nil {
			s.logger.Warn("advertisement fallback fetch failed",
				slog.Int("campaignId", c.ID), slog.Any("error", err))
			continue
		}
		for _, ra := range remote {
			ra.CampaignID = c.ID
			ra.AdvertiserID = c.AdvertiserID
			ra.NetworkID = c.NetworkID
			out = append(out, normalizeAdvertisement(ra, now))
		}
	}
	return out, nil
}

func (s *DataService) Zones(ctx context.Context, networkID int) ([]domain.Zone, error) {
	s.ensureReady(ctx)

	local, err := s.repos.Zones.ByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return local, nil
	}

	remote, err := s.upstream.Zones(ctx, networkID)
	if err != nil {
		return nil, err
	}
	s.enqueue(syncJob{entityType: domain.EntityZones, entityID: networkID})

	now := s.now()
	out := make([]domain.Zone, 0, len(remote))
	for _, rz := range remote {
		rz.NetworkID = networkID
		out = append(out, normalizeZone(rz, now))
	}
	return out, nil
}

// DashboardSummary aggregates stats across every entity type. The five
// per-entity aggregations run concurrently against the local store; an
// empty store falls back to the upstream summary endpoint and queues a
// full sync.
func (s *DataService) DashboardSummary(ctx context.Context, networkID int) (*port.DashboardSummary, error) {
	s.ensureReady(ctx)

	var summary port.DashboardSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { summary.Networks, err = s.repos.Networks.Stats(gctx); return })
	g.Go(func() (err error) { summary.Advertisers, err = s.repos.Advertisers.Stats(gctx, networkID); return })
	g.Go(func() (err error) { summary.Campaigns, err = s.repos.Campaigns.Stats(gctx, networkID); return })
	g.Go(func() (err error) { summary.Advertisements, err = s.repos.Advertisements.Stats(gctx, networkID); return })
	g.Go(func() (err error) { summary.Zones, err = s.repos.Zones.Stats(gctx, networkID); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summary.Campaigns.Total > 0 || summary.Networks.Total > 0 {
		return &summary, nil
	}

	remote, err := s.upstream.Summary(ctx, networkID)
	if err != nil {
		return nil, err
	}
	s.enqueue(syncJob{entityType: domain.EntityFull})
	return remote, nil
}
