package market

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

func ptr[T any](v T) *T { return &v }

func newTestClassifier(t *testing.T) (*Classifier, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return NewClassifier(st), st
}

func seedActive(t *testing.T, st store.Store, mls, zip string) {
	t.Helper()
	c := &model.Comparable{
		MLSNumber:  mls,
		Address:    "addr " + mls,
		StreetName: "Oak Ave",
		City:       "Asheville",
		PostalCode: zip,
		ListPrice:  ptr(400000.0),
		Status:     model.StatusActive,
	}
	require.NoError(t, st.UpsertComparable(context.Background(), c))
}

func seedSold(t *testing.T, st store.Store, mls, zip string, daysAgo int, pricePerSqft float64, dom int) {
	t.Helper()
	sale := time.Now().AddDate(0, 0, -daysAgo)
	c := &model.Comparable{
		MLSNumber:    mls,
		Address:      "addr " + mls,
		StreetName:   "Oak Ave",
		City:         "Asheville",
		PostalCode:   zip,
		PricePerSqft: &pricePerSqft,
		DaysOnMarket: &dom,
		Status:       model.StatusSold,
		SaleDate:     &sale,
	}
	require.NoError(t, st.UpsertComparable(context.Background(), c))
}

func TestClassify_NoSalesUnavailable(t *testing.T) {
	c, st := newTestClassifier(t)
	seedActive(t, st, "a1", "28801")

	_, err := c.Classify(context.Background(), "28801")
	assert.ErrorIs(t, err, model.ErrUnavailable)

	_, getErr := st.GetMarketHeat(context.Background(), "28801")
	assert.ErrorIs(t, getErr, store.ErrNotFound)
}

func TestClassify_ColdMarket(t *testing.T) {
	c, st := newTestClassifier(t)
	ctx := context.Background()

	// 1 sale in 90 days, 5 active: inventory = 5 / (1/3) = 15 months.
	seedSold(t, st, "s1", "28801", 45, 250, 30)
	for i := 0; i < 5; i++ {
		seedActive(t, st, string(rune('a'+i)), "28801")
	}

	heat, err := c.Classify(ctx, "28801")
	require.NoError(t, err)
	assert.Equal(t, 15.0, heat.InventoryMonths)
	assert.Equal(t, model.MarketCold, heat.Status)
	assert.NotEmpty(t, heat.Recommendation)

	stored, err := st.GetMarketHeat(ctx, "28801")
	require.NoError(t, err)
	assert.Equal(t, model.MarketCold, stored.Status)
}

func TestClassify_GrowingMarket(t *testing.T) {
	c, st := newTestClassifier(t)

	// 9 sales in 90 days, 6 active: inventory = 6 / 3 = 2 months, and no
	// usable trend windows, so price change stays 0 and the market reads
	// growing.
	for i := 0; i < 9; i++ {
		seedSold(t, st, string(rune('s'+i)), "28801", 40+i, 250, 30)
	}
	for i := 0; i < 6; i++ {
		seedActive(t, st, string(rune('a'+i)), "28801")
	}

	heat, err := c.Classify(context.Background(), "28801")
	require.NoError(t, err)
	assert.Equal(t, 2.0, heat.InventoryMonths)
	assert.Equal(t, model.MarketGrowing, heat.Status)
}

func TestClassify_OverheatedOnPriceSpike(t *testing.T) {
	c, st := newTestClassifier(t)

	// Baseline window (90-60 days ago): two sales at 200 $/sqft.
	seedSold(t, st, "b1", "28801", 75, 200, 40)
	seedSold(t, st, "b2", "28801", 70, 200, 40)
	// Recent window (last 30 days): two sales at 250 $/sqft = +25%.
	seedSold(t, st, "r1", "28801", 10, 250, 20)
	seedSold(t, st, "r2", "28801", 5, 250, 20)

	heat, err := c.Classify(context.Background(), "28801")
	require.NoError(t, err)
	assert.Equal(t, 25.0, heat.PriceChange90d)
	assert.Equal(t, model.MarketOverheated, heat.Status)
	// DOM shrank 50% between windows; recorded but not part of the status.
	assert.Equal(t, -50.0, heat.DOMChange90d)
}

func TestClassify_ThinTrendWindowsReportZero(t *testing.T) {
	c, st := newTestClassifier(t)

	// One sale per window: below the two-observation minimum.
	seedSold(t, st, "b1", "28801", 75, 200, 40)
	seedSold(t, st, "r1", "28801", 10, 300, 20)

	heat, err := c.Classify(context.Background(), "28801")
	require.NoError(t, err)
	assert.Equal(t, 0.0, heat.PriceChange90d)
	assert.Equal(t, 0.0, heat.DOMChange90d)
}

func TestClassifyAll_CountsOutcomes(t *testing.T) {
	c, st := newTestClassifier(t)
	ctx := context.Background()

	// 28801 has sales, 28715 only actives.
	seedSold(t, st, "s1", "28801", 45, 250, 30)
	seedActive(t, st, "a1", "28715")

	summary, err := c.ClassifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Unavailable)

	_, err = st.GetMarketHeat(ctx, "28801")
	assert.NoError(t, err)
	_, err = st.GetMarketHeat(ctx, "28715")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInventoryMonths(t *testing.T) {
	assert.Equal(t, 2.0, inventoryMonths(6, 9))
	assert.Equal(t, 15.0, inventoryMonths(5, 1))
	assert.Equal(t, 999.0, inventoryMonths(5, 0))
	assert.Equal(t, 0.0, inventoryMonths(0, 9))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, model.MarketCold, statusFor(12.1, 0))
	assert.Equal(t, model.MarketStable, statusFor(12.0, 99))
	assert.Equal(t, model.MarketStable, statusFor(6.0, 99))
	assert.Equal(t, model.MarketOverheated, statusFor(5.9, 15.1))
	assert.Equal(t, model.MarketGrowing, statusFor(5.9, 15.0))
	assert.Equal(t, model.MarketGrowing, statusFor(1.0, -5.0))
}
