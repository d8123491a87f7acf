package geo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

func newTestSearcher(t *testing.T) (*Searcher, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return NewSearcher(st), st
}

func ptr[T any](v T) *T { return &v }

func seedComparable(t *testing.T, st store.Store, mls string, lat, lon float64, status model.PropertyStatus, soldDaysAgo int) {
	t.Helper()
	c := &model.Comparable{
		MLSNumber:  mls,
		Address:    "addr " + mls,
		StreetName: "Oak Ave",
		City:       "Asheville",
		PostalCode: "28801",
		Latitude:   &lat,
		Longitude:  &lon,
		SalePrice:  ptr(400000.0),
		Sqft:       ptr(1600.0),
		Status:     status,
	}
	if status == model.StatusSold {
		sale := time.Now().AddDate(0, 0, -soldDaysAgo)
		c.SaleDate = &sale
	}
	require.NoError(t, st.UpsertComparable(context.Background(), c))
}

func TestNearby_RadiusAndFreshness(t *testing.T) {
	s, st := newTestSearcher(t)
	ctx := context.Background()
	center := model.Coordinate{Lat: 35.5951, Lon: -82.5515}

	// ~1 mile north, sold last month: included.
	seedComparable(t, st, "near-sold", center.Lat+1.0/69.0, center.Lon, model.StatusSold, 30)
	// Same spot, active: included.
	seedComparable(t, st, "near-active", center.Lat+1.0/69.0, center.Lon, model.StatusActive, 0)
	// Same spot, sold two years ago: excluded.
	seedComparable(t, st, "near-stale", center.Lat+1.0/69.0, center.Lon, model.StatusSold, 730)
	// ~10 miles north, sold last month: outside the radius.
	seedComparable(t, st, "far-sold", center.Lat+10.0/69.0, center.Lon, model.StatusSold, 30)
	// Under contract nearby: not usable evidence.
	seedComparable(t, st, "near-uc", center.Lat+1.0/69.0, center.Lon, model.StatusUnderContract, 0)

	got, err := s.Nearby(ctx, center, 5.0)
	require.NoError(t, err)

	var mls []string
	for _, c := range got {
		mls = append(mls, c.MLSNumber)
	}
	assert.ElementsMatch(t, []string{"near-sold", "near-active"}, mls)
}

func TestNearby_Empty(t *testing.T) {
	s, _ := newTestSearcher(t)

	got, err := s.Nearby(context.Background(), model.Coordinate{Lat: 35.6, Lon: -82.55}, 5.0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStreetComparables_PrefersRecentSales(t *testing.T) {
	s, st := newTestSearcher(t)
	ctx := context.Background()

	seedComparable(t, st, "s1", 35.6, -82.55, model.StatusSold, 10)
	seedComparable(t, st, "s2", 35.6, -82.55, model.StatusSold, 50)
	seedComparable(t, st, "s3", 35.6, -82.55, model.StatusSold, 200)
	seedComparable(t, st, "a1", 35.6, -82.55, model.StatusActive, 0)

	got, err := s.StreetComparables(ctx, "Oak Ave", "Asheville", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, c := range got {
		assert.Equal(t, model.StatusSold, c.Status)
	}
}

func TestStreetComparables_FallsBackToActive(t *testing.T) {
	s, st := newTestSearcher(t)
	ctx := context.Background()

	// Only two recent sales: below the minimum, so actives take over.
	seedComparable(t, st, "s1", 35.6, -82.55, model.StatusSold, 10)
	seedComparable(t, st, "s2", 35.6, -82.55, model.StatusSold, 50)
	seedComparable(t, st, "a1", 35.6, -82.55, model.StatusActive, 0)
	seedComparable(t, st, "a2", 35.6, -82.55, model.StatusActive, 0)

	got, err := s.StreetComparables(ctx, "Oak Ave", "Asheville", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, model.StatusActive, c.Status)
	}
}

func TestStreetComparables_StaleSalesDoNotCount(t *testing.T) {
	s, st := newTestSearcher(t)
	ctx := context.Background()

	seedComparable(t, st, "old1", 35.6, -82.55, model.StatusSold, 400)
	seedComparable(t, st, "old2", 35.6, -82.55, model.StatusSold, 500)
	seedComparable(t, st, "old3", 35.6, -82.55, model.StatusSold, 600)
	seedComparable(t, st, "a1", 35.6, -82.55, model.StatusActive, 0)

	got, err := s.StreetComparables(ctx, "Oak Ave", "Asheville", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].MLSNumber)
}
