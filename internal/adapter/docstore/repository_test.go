package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndFindByID(t *testing.T) {
	repo := NewNetworkRepository(newTestStore(t))
	ctx := context.Background()

	err := repo.Create(ctx, &domain.Network{
		Ref:    domain.Ref{ID: 42},
		Name:   "Main Network",
		Status: domain.StatusActive,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Main Network", got.Name)
	require.Equal(t, int64(1), got.SyncVersion)
	require.False(t, got.LastSyncAt.IsZero())

	missing, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCreateDuplicateID(t *testing.T) {
	repo := NewNetworkRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Network{Ref: domain.Ref{ID: 1}, Name: "first"}))

	err := repo.Create(ctx, &domain.Network{Ref: domain.Ref{ID: 1}, Name: "second"})
	require.ErrorIs(t, err, port.ErrDuplicateID)

	got, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "first", got.Name)
}

func TestUpdateOwnsSyncFields(t *testing.T) {
	repo := NewNetworkRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Network{Ref: domain.Ref{ID: 5}, Name: "before"}))

	// the mutation tries to reassign the id and forge the write counter;
	// the repository must restore both
	got, err := repo.Update(ctx, 5, func(n *domain.Network) {
		n.Name = "after"
		n.ID = 999
		n.SyncVersion = 50
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 5, got.ID)
	require.Equal(t, "after", got.Name)
	require.Equal(t, int64(2), got.SyncVersion)
}

func TestUpdateMissingDoesNotCreate(t *testing.T) {
	repo := NewNetworkRepository(newTestStore(t))
	ctx := context.Background()

	got, err := repo.Update(ctx, 12, func(n *domain.Network) { n.Name = "ghost" })
	require.NoError(t, err)
	require.Nil(t, got)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUpsertAdvancesVersionByOnePerWrite(t *testing.T) {
	repo := NewNetworkRepository(newTestStore(t))
	ctx := context.Background()
	apply := func(n *domain.Network) {
		n.Name = "same"
		n.Status = domain.StatusActive
	}

	first, err := repo.Upsert(ctx, 3, apply)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.SyncVersion)

	second, err := repo.Upsert(ctx, 3, apply)
	require.NoError(t, err)
	require.Equal(t, 3, second.ID)
	require.Equal(t, int64(2), second.SyncVersion)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDelete(t *testing.T) {
	repo := NewNetworkRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Network{Ref: domain.Ref{ID: 9}, Name: "doomed"}))

	removed, err := repo.Delete(ctx, 9)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Delete(ctx, 9)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestFindAllSortAndLimit(t *testing.T) {
	repo := NewNetworkRepository(newTestStore(t))
	ctx := context.Background()

	for id, name := range map[int]string{1: "charlie", 2: "alpha", 3: "bravo"} {
		require.NoError(t, repo.Create(ctx, &domain.Network{Ref: domain.Ref{ID: id}, Name: name}))
	}

	got, err := repo.FindAll(ctx, nil, port.ListOptions[domain.Network]{
		Less:  func(a, b *domain.Network) bool { return a.Name < b.Name },
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "alpha", got[0].Name)
	require.Equal(t, "bravo", got[1].Name)
}

func TestAdvertiserScoping(t *testing.T) {
	repo := NewAdvertiserRepository(newTestStore(t))
	ctx := context.Background()

	seed := []domain.Advertiser{
		{Ref: domain.Ref{ID: 1}, Name: "a", NetworkID: 10, Status: domain.StatusActive},
		{Ref: domain.Ref{ID: 2}, Name: "b", NetworkID: 10, Status: domain.StatusPaused},
		{Ref: domain.Ref{ID: 3}, Name: "c", NetworkID: 20, Status: domain.StatusActive},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	scoped, err := repo.ByNetwork(ctx, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 2)

	all, err := repo.ByNetwork(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	active, err := repo.Active(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, 1, active[0].ID)

	stats, err := repo.Stats(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, port.EntityStats{Total: 2, Active: 1}, stats)
}

func TestCampaignStatsAggregation(t *testing.T) {
	repo := NewCampaignRepository(newTestStore(t))
	ctx := context.Background()

	seed := []domain.Campaign{
		{Ref: domain.Ref{ID: 1}, NetworkID: 10, Status: domain.StatusActive, Spent: 100, Impressions: 1000, Clicks: 10},
		{Ref: domain.Ref{ID: 2}, NetworkID: 10, Status: domain.StatusPaused, Spent: 50, Impressions: 500, Clicks: 5},
		{Ref: domain.Ref{ID: 3}, NetworkID: 20, Status: domain.StatusActive, Spent: 25, Impressions: 250, Clicks: 2},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	scoped, err := repo.Stats(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, port.CampaignStats{
		Total: 2, Active: 1, Paused: 1,
		TotalSpend: 150, TotalImpressions: 1500, TotalClicks: 15,
	}, scoped)

	all, err := repo.Stats(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	require.Equal(t, float64(175), all.TotalSpend)
}

func TestCampaignOrderingNewestFirst(t *testing.T) {
	repo := NewCampaignRepository(newTestStore(t))
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seed := []domain.Campaign{
		{Ref: domain.Ref{ID: 1}, NetworkID: 1, StartDate: &old},
		{Ref: domain.Ref{ID: 2}, NetworkID: 1, StartDate: &recent},
		{Ref: domain.Ref{ID: 3}, NetworkID: 1}, // no start date sorts last
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	got, err := repo.ByNetwork(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, 2, got[0].ID)
	require.Equal(t, 1, got[1].ID)
	require.Equal(t, 3, got[2].ID)
}

func TestStorePing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ping())

	other, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, other.Close())
	require.Error(t, other.Ping())
}
