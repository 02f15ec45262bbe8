package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

func TestEnsureInitializedNoopWhenDataPresent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.Networks.Create(ctx, &domain.Network{
		Ref: domain.Ref{ID: 1}, Name: "existing",
	}))

	upstream := &fakeUpstream{}
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())

	require.NoError(t, init.EnsureInitialized(ctx))
	require.Empty(t, upstream.callLog())
}

func TestEnsureInitializedBootstrapsEmptyStore(t *testing.T) {
	repos := newTestRepos(t)
	upstream := chainedUpstream()
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())
	ctx := context.Background()

	require.NoError(t, init.EnsureInitialized(ctx))
	require.False(t, init.Initializing())

	n, err := repos.Networks.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = repos.Zones.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rec, err := repos.Ledger.LatestCompleted(ctx, domain.EntityFull, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, domain.TriggerInitialization, rec.TriggeredBy)
	require.Equal(t, 5, rec.RecordsProcessed)

	// a second call sees a populated store and does nothing
	calls := len(upstream.callLog())
	require.NoError(t, init.EnsureInitialized(ctx))
	require.Len(t, upstream.callLog(), calls)
}

func TestBootstrapToleratesAdvertisementAndZoneFailures(t *testing.T) {
	repos := newTestRepos(t)
	upstream := chainedUpstream()
	upstream.advertisements = func(context.Context, int) ([]port.RemoteAdvertisement, error) {
		return nil, &port.UpstreamError{Category: port.UpstreamTimeout}
	}
	upstream.zones = func(context.Context, int) ([]port.RemoteZone, error) {
		return nil, &port.UpstreamError{Category: port.UpstreamUnavailable}
	}
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())
	ctx := context.Background()

	require.NoError(t, init.EnsureInitialized(ctx))

	rec, err := repos.Ledger.LatestCompleted(ctx, domain.EntityFull, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, 3, rec.RecordsProcessed)
}

func TestBootstrapAbortsOnFoundationFailure(t *testing.T) {
	repos := newTestRepos(t)
	upstream := &fakeUpstream{
		networks: func(context.Context) ([]port.RemoteNetwork, error) {
			return nil, &port.UpstreamError{Category: port.UpstreamAuth, Status: 401}
		},
	}
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())
	ctx := context.Background()

	err := init.EnsureInitialized(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "networks stage")
	require.False(t, init.Initializing())

	history, err := repos.Ledger.History(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	require.Equal(t, domain.SyncFailed, history[0].Status)
}

func TestConcurrentEnsureSharesOneBootstrap(t *testing.T) {
	repos := newTestRepos(t)
	release := make(chan struct{})
	upstream := chainedUpstream()
	inner := upstream.networks
	upstream.networks = func(ctx context.Context) ([]port.RemoteNetwork, error) {
		<-release
		return inner(ctx)
	}
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())

	const callers = 5
	var wg, ready sync.WaitGroup
	errs := make([]error, callers)
	wg.Add(callers)
	ready.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			ready.Done()
			errs[i] = init.EnsureInitialized(context.Background())
		}(i)
	}
	// the first caller parks inside the blocked networks fetch, holding
	// the flight open until every caller has had a chance to join it
	ready.Wait()
	close(release)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}

	// exactly one bootstrap ran: one networks fetch in the call log
	networks := 0
	for _, call := range upstream.callLog() {
		if call == "networks" {
			networks++
		}
	}
	require.Equal(t, 1, networks)
}

func TestForceInitializationRunsWithDataPresent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.Networks.Create(ctx, &domain.Network{
		Ref: domain.Ref{ID: 1}, Name: "existing", Status: domain.StatusActive,
	}))

	upstream := chainedUpstream()
	syncSvc := NewSyncService(repos, upstream, discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())

	require.NoError(t, init.ForceInitialization(ctx))
	require.NotEmpty(t, upstream.callLog())

	refreshed, err := repos.Networks.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "net", refreshed.Name)
	require.Equal(t, int64(2), refreshed.SyncVersion)
}

func TestInitStatus(t *testing.T) {
	repos := newTestRepos(t)
	syncSvc := NewSyncService(repos, chainedUpstream(), discardLogger())
	init := NewInitService(repos, syncSvc, discardLogger())
	ctx := context.Background()

	status, err := init.Status(ctx)
	require.NoError(t, err)
	require.False(t, status.Initialized)
	require.Nil(t, status.LastFullSync)

	require.NoError(t, init.EnsureInitialized(ctx))

	status, err = init.Status(ctx)
	require.NoError(t, err)
	require.True(t, status.Initialized)
	require.NotNil(t, status.LastFullSync)
	require.Equal(t, port.RecordCounts{
		Networks: 1, Advertisers: 1, Campaigns: 1, Advertisements: 1, Zones: 1,
	}, status.Records)
}
