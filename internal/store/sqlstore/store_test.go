package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDay(s)
	require.NoError(t, err)
	return d
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, DriverSQLite, "file::memory:", 1, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateSchema(ctx))

	var prices []domain.PriceObservation
	add := func(orig, dest, d string, values ...float64) {
		for _, v := range values {
			prices = append(prices, domain.PriceObservation{OriginCode: orig, DestinationCode: dest, Day: day(t, d), Price: v})
		}
	}
	add("DEHAM", "USNYC", "2024-01-01", 100, 200, 300)
	add("FRPAR", "USNYC", "2024-01-02", 1000, 1001)
	add("DEHAM", "USNYC", "2024-01-02", 1002)
	add("DEHAM", "USNYC", "2024-01-03", 50, 60)
	add("DEHAM", "USNYC", "2023-12-31", 1, 1, 1)
	add("DEHAM", "USNYC", "2024-02-01", 1, 1, 1)

	require.NoError(t, s.Load(ctx,
		[]domain.Region{
			{Slug: "EU"},
			{Slug: "DE", ParentSlug: "EU"},
			{Slug: "FR", ParentSlug: "EU"},
			{Slug: "north_america"},
		},
		[]domain.Port{
			{Code: "DEHAM", ParentSlug: "DE"},
			{Code: "FRPAR", ParentSlug: "FR"},
			{Code: "USNYC", ParentSlug: "north_america"},
		},
		prices,
	))
	return s
}

func TestStore_RegionExists(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.RegionExists(context.Background(), "EU")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RegionExists(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ChildRegions(t *testing.T) {
	s := newTestStore(t)

	children, err := s.ChildRegions(context.Background(), []string{"EU"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Region{
		{Slug: "DE", ParentSlug: "EU"},
		{Slug: "FR", ParentSlug: "EU"},
	}, children)
}

func TestStore_ResolveRegion(t *testing.T) {
	s := newTestStore(t)
	r := domain.NewResolver(s)

	got, err := r.Resolve(context.Background(), domain.RegionSlug("EU"))
	require.NoError(t, err)
	assert.Equal(t, domain.NewPortSet("DEHAM", "FRPAR"), got)

	got, err = r.Resolve(context.Background(), domain.RegionSlug("atlantis"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_DailyStatsHaving(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.DailyStats(context.Background(), domain.RateQuery{
		Origins:      []string{"DEHAM", "FRPAR"},
		Destinations: []string{"USNYC"},
		From:         day(t, "2024-01-01"),
		To:           day(t, "2024-01-31"),
		MinSamples:   3,
	})
	require.NoError(t, err)

	want := []domain.DayStat{
		{Day: day(t, "2024-01-01"), Average: 200, Count: 3},
		{Day: day(t, "2024-01-02"), Average: 1001, Count: 3},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("DailyStats mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AggregateEndToEnd(t *testing.T) {
	s := newTestStore(t)
	r := domain.NewResolver(s)
	agg := domain.NewAggregator(s, domain.DefaultMinSamples)
	ctx := context.Background()

	origins, err := r.Resolve(ctx, domain.RegionSlug("EU"))
	require.NoError(t, err)
	dests, err := r.Resolve(ctx, domain.PortCode("USNYC"))
	require.NoError(t, err)

	rates, err := agg.Aggregate(ctx, origins, dests, day(t, "2024-01-01"), day(t, "2024-01-31"))
	require.NoError(t, err)

	want := []domain.DailyRate{
		{Day: day(t, "2024-01-01"), AveragePrice: 200, SampleCount: 3},
		{Day: day(t, "2024-01-02"), AveragePrice: 1001, SampleCount: 3},
	}
	if diff := cmp.Diff(want, rates); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_DailyStatsBoundaries(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.DailyStats(context.Background(), domain.RateQuery{
		Origins:      []string{"DEHAM"},
		Destinations: []string{"USNYC"},
		From:         day(t, "2023-12-31"),
		To:           day(t, "2024-02-01"),
		MinSamples:   3,
	})
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, day(t, "2023-12-31"), stats[0].Day)
	assert.Equal(t, day(t, "2024-02-01"), stats[2].Day)
}

func TestStore_PingAndClose(t *testing.T) {
	s, err := Open(context.Background(), DriverSQLite, "file::memory:", 1, slog.Default())
	require.NoError(t, err)

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	orig := sqlOpenFunc
	t.Cleanup(func() { sqlOpenFunc = orig })
	sqlOpenFunc = func(driver, dsn string) (*sql.DB, error) { return orig(DriverSQLite, "file::memory:") }

	_, err := Open(context.Background(), "oracle", "whatever", 1, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestOpen_DriverError(t *testing.T) {
	orig := sqlOpenFunc
	t.Cleanup(func() { sqlOpenFunc = orig })
	sqlOpenFunc = func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") }

	_, err := Open(context.Background(), DriverMySQL, "dsn", 1, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no driver")
}

func TestStore_QueryAfterCloseFails(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.ChildRegions(context.Background(), []string{"EU"})
	require.Error(t, err)

	_, err = domain.NewAggregator(s, 3).Aggregate(context.Background(),
		domain.NewPortSet("DEHAM"), domain.NewPortSet("USNYC"),
		day(t, "2024-01-01"), day(t, "2024-01-31"))
	assert.True(t, domain.IsQuery(err))
}
