package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// stubInit is an InitService that considers the store always ready.
type stubInit struct{}

func (stubInit) EnsureInitialized(context.Context) error   { return nil }
func (stubInit) ForceInitialization(context.Context) error { return nil }
func (stubInit) Initializing() bool                        { return false }
func (stubInit) Status(context.Context) (*port.InitStatus, error) {
	return &port.InitStatus{}, nil
}

func newDataService(t *testing.T, repos Repositories, upstream port.UpstreamClient) *DataService {
	t.Helper()
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	ds := NewDataService(repos, upstream, stubInit{}, syncSvc, discardLogger())
	t.Cleanup(ds.Close)
	return ds
}

func TestNetworksServedLocally(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.Networks.Create(ctx, &domain.Network{
		Ref: domain.Ref{ID: 1}, Name: "cached",
	}))

	upstream := &fakeUpstream{}
	ds := newDataService(t, repos, upstream)

	got, err := ds.Networks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "cached", got[0].Name)
	// local data is never considered stale; the upstream stays untouched
	require.Empty(t, upstream.callLog())
}

func TestNetworksFallbackBackfillsStore(t *testing.T) {
	repos := newTestRepos(t)
	upstream := &fakeUpstream{
		networks: func(context.Context) ([]port.RemoteNetwork, error) {
			return []port.RemoteNetwork{{ID: 1, Name: "remote"}}, nil
		},
	}
	ds := newDataService(t, repos, upstream)
	ctx := context.Background()

	got, err := ds.Networks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "remote", got[0].Name)

	// the queued background sync fills the cache for the next caller
	require.Eventually(t, func() bool {
		n, err := repos.Networks.Count(ctx, nil)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	got, err = ds.Networks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].SyncVersion)
}

func TestNetworksFallbackPropagatesUpstreamError(t *testing.T) {
	repos := newTestRepos(t)
	upstream := &fakeUpstream{
		networks: func(context.Context) ([]port.RemoteNetwork, error) {
			return nil, &port.UpstreamError{Category: port.UpstreamRateLimited, Status: 429}
		},
	}
	ds := newDataService(t, repos, upstream)

	_, err := ds.Networks(context.Background())
	require.Error(t, err)
	var upstreamErr *port.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, port.UpstreamRateLimited, upstreamErr.Category)
}

func TestZonesFallbackScoped(t *testing.T) {
	repos := newTestRepos(t)
	var gotScope int
	upstream := &fakeUpstream{
		zones: func(_ context.Context, networkID int) ([]port.RemoteZone, error) {
			gotScope = networkID
			return []port.RemoteZone{{ID: 5, Name: "leaderboard"}}, nil
		},
	}
	ds := newDataService(t, repos, upstream)

	got, err := ds.Zones(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 42, gotScope)
	require.Len(t, got, 1)
	require.Equal(t, 42, got[0].NetworkID)
}

func TestAdvertisersScopedLocalHit(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.Advertisers.Create(ctx, &domain.Advertiser{
		Ref: domain.Ref{ID: 1}, Name: "a", NetworkID: 10,
	}))

	upstream := &fakeUpstream{
		advertisers: func(context.Context, int) ([]port.RemoteAdvertiser, error) {
			return []port.RemoteAdvertiser{{ID: 2, Name: "remote"}}, nil
		},
	}
	ds := newDataService(t, repos, upstream)

	// scope with local data: served from the store
	got, err := ds.Advertisers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].ID)

	// scope without local data: read-through
	got, err = ds.Advertisers(ctx, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].ID)
	require.Equal(t, 20, got[0].NetworkID)
}

func TestColdStartReadPathBootstrapsAndServes(t *testing.T) {
	repos := newTestRepos(t)
	upstream := chainedUpstream()
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())
	ds := NewDataService(repos, upstream, init, syncSvc, discardLogger())
	t.Cleanup(ds.Close)
	ctx := context.Background()

	// the first read on an empty store waits for the bootstrap and then
	// serves the freshly synced records, not an empty set
	got, err := ds.Campaigns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 100, got[0].ID)

	rec, err := repos.Ledger.LatestCompleted(ctx, domain.EntityFull, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, domain.TriggerInitialization, rec.TriggeredBy)
}

func TestDashboardSummaryFromLocalStore(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.Networks.Create(ctx, &domain.Network{
		Ref: domain.Ref{ID: 1}, Status: domain.StatusActive,
	}))
	require.NoError(t, repos.Campaigns.Create(ctx, &domain.Campaign{
		Ref: domain.Ref{ID: 1}, NetworkID: 1, Status: domain.StatusActive,
		Spent: 10, Impressions: 100, Clicks: 3,
	}))

	upstream := &fakeUpstream{}
	ds := newDataService(t, repos, upstream)

	sum, err := ds.DashboardSummary(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Networks.Total)
	require.Equal(t, 1, sum.Campaigns.Active)
	require.Equal(t, float64(10), sum.Campaigns.TotalSpend)
	require.Empty(t, upstream.callLog())
}

func TestDashboardSummaryFallback(t *testing.T) {
	repos := newTestRepos(t)
	upstream := chainedUpstream()
	upstream.summary = func(context.Context, int) (*port.DashboardSummary, error) {
		return &port.DashboardSummary{
			Networks:  port.EntityStats{Total: 3, Active: 2},
			Campaigns: port.CampaignStats{Total: 7},
		}, nil
	}
	ds := newDataService(t, repos, upstream)
	ctx := context.Background()

	sum, err := ds.DashboardSummary(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Networks.Total)
	require.Equal(t, 7, sum.Campaigns.Total)

	// the miss queued a full sync; the store fills up in the background
	require.Eventually(t, func() bool {
		n, err := repos.Campaigns.Count(ctx, nil)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}
