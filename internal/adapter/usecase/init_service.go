package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// InitService populates the local store on cold start. Concurrent callers
// of EnsureInitialized share one in-flight bootstrap through a
// single-flight group; the initializing flag additionally rejects a second
// performInitialization that slips past the flight.
type InitService struct {
	repos  Repositories
	sync   port.SyncService
	logger *slog.Logger

	flight       singleflight.Group
	initializing atomic.Bool
}

// NewInitService creates the bootstrapper over the given ports.
func NewInitService(repos Repositories, syncSvc port.SyncService, logger *slog.Logger) *InitService {
	return &InitService{repos: repos, sync: syncSvc, logger: logger}
}

// storeEmpty reports whether the main collections hold no documents. An
// error checking is treated as empty so a broken check still triggers a
// bootstrap attempt rather than serving nothing forever.
func (s *InitService) storeEmpty(ctx context.Context) bool {
	counts := []func() (int, error){
		func() (int, error) { return s.repos.Networks.Count(ctx, nil) },
		func() (int, error) { return s.repos.Advertisers.Count(ctx, nil) },
		func() (int, error) { return s.repos.Campaigns.Count(ctx, nil) },
	}
	for _, count := range counts {
		n, err := count()
		if err != nil {
			s.logger.Error("store emptiness check failed", slog.Any("error", err))
			return true
		}
		if n > 0 {
			return false
		}
	}
	return true
}

// EnsureInitialized bootstraps the store when it is empty and is a no-op
// otherwise. Concurrent callers while a bootstrap is running receive the
// same in-flight outcome instead of starting a second one.
func (s *InitService) EnsureInitialized(ctx context.Context) error {
	if !s.storeEmpty(ctx) {
		return nil
	}
	// detached from the caller's deadline: the bootstrap serves every
	// waiter, not just the first request that happened to start it
	_, err, _ := s.flight.Do("bootstrap", func() (any, error) {
		return nil, s.performInitialization(context.WithoutCancel(ctx))
	})
	return err
}

// ForceInitialization starts a bootstrap regardless of store state, still
// subject to the single-flight guard.
func (s *InitService) ForceInitialization(ctx context.Context) error {
	_, err, _ := s.flight.Do("bootstrap", func() (any, error) {
		return nil, s.performInitialization(context.WithoutCancel(ctx))
	})
	return err
}

// Initializing reports whether a bootstrap is currently running.
func (s *InitService) Initializing() bool {
	return s.initializing.Load()
}

// performInitialization runs the bootstrap: a ledger record, the full
// five-stage sync sequence, and a terminal record update. The in-flight
// flag is always cleared, whatever the outcome.
func (s *InitService) performInitialization(ctx context.Context) error {
	if !s.initializing.CompareAndSwap(false, true) {
		return port.ErrBootstrapInProgress
	}
	defer s.initializing.Store(false)

	s.logger.Info("starting store initialization")

	rec, err := s.repos.Ledger.CreateRecord(ctx, &domain.SyncRecord{
		EntityType:  domain.EntityFull,
		Status:      domain.SyncInProgress,
		TriggeredBy: domain.TriggerInitialization,
		Metadata: map[string]any{
			"reason": "initial cache population",
			"source": "Broadstreet API",
		},
	})
	if err != nil {
		return fmt.Errorf("create bootstrap record: %w", err)
	}

	full, err := s.runBootstrapSync(ctx)
	if err != nil {
		if _, uerr := s.repos.Ledger.UpdateStatus(ctx, rec.ID, domain.SyncFailed, func(r *domain.SyncRecord) {
			r.ErrorMessage = err.Error()
		}); uerr != nil {
			s.logger.Error("failed to mark bootstrap record failed", slog.Any("error", uerr))
		}
		s.logger.Error("store initialization failed", slog.Any("error", err))
		return err
	}

	totals := full.Totals()
	if _, uerr := s.repos.Ledger.UpdateStatus(ctx, rec.ID, domain.SyncCompleted, func(r *domain.SyncRecord) {
		r.RecordsProcessed = totals.Processed
		r.RecordsCreated = totals.Created
		r.RecordsUpdated = totals.Updated
		r.Metadata["results"] = full
	}); uerr != nil {
		s.logger.Error("failed to update bootstrap record", slog.Any("error", uerr))
	}

	s.logger.Info("store initialization completed",
		slog.Int("processed", totals.Processed),
		slog.Int("created", totals.Created),
		slog.Int("updated", totals.Updated))
	return nil
}

// runBootstrapSync performs the five sync stages in order. The foundation
// stages (networks, advertisers, campaigns) abort the bootstrap on
// failure; advertisement and zone failures only warn, since a usable
// dashboard exists without them.
func (s *InitService) runBootstrapSync(ctx context.Context) (*port.FullSyncResult, error) {
	var (
		full port.FullSyncResult
		err  error
	)
	if full.Networks, err = s.sync.SyncNetworks(ctx); err != nil {
		return nil, fmt.Errorf("networks stage: %w", err)
	}
	if full.Advertisers, err = s.sync.SyncAdvertisers(ctx, 0); err != nil {
		return nil, fmt.Errorf("advertisers stage: %w", err)
	}
	if full.Campaigns, err = s.sync.SyncCampaigns(ctx, 0); err != nil {
		return nil, fmt.Errorf("campaigns stage: %w", err)
	}
	if full.Advertisements, err = s.sync.SyncAdvertisements(ctx, 0); err != nil {
		s.logger.Warn("advertisements stage failed during bootstrap", slog.Any("error", err))
	}
	if full.Zones, err = s.sync.SyncZones(ctx, 0); err != nil {
		s.logger.Warn("zones stage failed during bootstrap", slog.Any("error", err))
	}
	return &full, nil
}

// Status reports the bootstrap state: store emptiness, whether a
// bootstrap is running, the last completed full sync and per-entity
// record counts. The five counts run concurrently.
func (s *InitService) Status(ctx context.Context) (*port.InitStatus, error) {
	var counts port.RecordCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { counts.Networks, err = s.repos.Networks.Count(gctx, nil); return })
	g.Go(func() (err error) { counts.Advertisers, err = s.repos.Advertisers.Count(gctx, nil); return })
	g.Go(func() (err error) { counts.Campaigns, err = s.repos.Campaigns.Count(gctx, nil); return })
	g.Go(func() (err error) { counts.Advertisements, err = s.repos.Advertisements.Count(gctx, nil); return })
	g.Go(func() (err error) { counts.Zones, err = s.repos.Zones.Count(gctx, nil); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	status := &port.InitStatus{
		Initialized:  counts.Networks > 0 || counts.Advertisers > 0 || counts.Campaigns > 0,
		Initializing: s.initializing.Load(),
		Records:      counts,
	}

	last, err := s.repos.Ledger.LatestCompleted(ctx, domain.EntityFull, 0)
	if err != nil {
		return nil, fmt.Errorf("latest full sync: %w", err)
	}
	if last != nil {
		status.LastFullSync = last.CompletedAt
	}
	return status, nil
}
