package zone

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/classify"
	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

func ptr[T any](v T) *T { return &v }

var center = model.Coordinate{Lat: 35.5951, Lon: -82.5515}

func newTestAnalyzer(t *testing.T) (*Analyzer, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	ladder := classify.NewLadder(config.LadderConfig{Green: 350, LightGreen: 300, Yellow: 220})
	return NewAnalyzer(st, ladder), st
}

func seedAt(t *testing.T, st store.Store, mls string, pricePerSqft float64, latOffsetMiles float64) {
	t.Helper()
	c := &model.Comparable{
		MLSNumber:    mls,
		Address:      "addr " + mls,
		StreetName:   "Oak Ave",
		City:         "Asheville",
		Latitude:     ptr(center.Lat + latOffsetMiles/69.0),
		Longitude:    ptr(center.Lon),
		PricePerSqft: &pricePerSqft,
		Status:       model.StatusSold,
	}
	require.NoError(t, st.UpsertComparable(context.Background(), c))
}

func TestScoreArea_AllGreen(t *testing.T) {
	a, st := newTestAnalyzer(t)

	for i := 0; i < 5; i++ {
		seedAt(t, st, string(rune('a'+i)), 400, float64(i)*0.05)
	}

	result, err := a.ScoreArea(context.Background(), center, 1.0, 5)
	require.NoError(t, err)

	assert.True(t, result.Sufficient)
	assert.Equal(t, 5, result.Analyzed)
	assert.Equal(t, 100.0, result.GreenPercent)
	assert.Equal(t, 100.0, result.CombinedPercent)
	// 40 base + 100/25*35 = 180, clamped to 100 (bonus included).
	assert.Equal(t, 100, result.Score)
	assert.Contains(t, result.Recommendation, "EXCELLENT")
}

func TestScoreArea_AllRed(t *testing.T) {
	a, st := newTestAnalyzer(t)

	for i := 0; i < 5; i++ {
		seedAt(t, st, string(rune('a'+i)), 150, float64(i)*0.05)
	}

	result, err := a.ScoreArea(context.Background(), center, 1.0, 5)
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.RedPercent)
	// 40 base - 100/25*25 = -60, clamped to 0.
	assert.Equal(t, 0, result.Score)
	assert.Contains(t, result.Recommendation, "POOR")
}

func TestScoreArea_MixedWithBonus(t *testing.T) {
	a, st := newTestAnalyzer(t)

	// 3 green, 1 yellow, 1 red: combined green 60% triggers the +15 bonus.
	seedAt(t, st, "g1", 400, 0.0)
	seedAt(t, st, "g2", 380, 0.1)
	seedAt(t, st, "g3", 360, 0.2)
	seedAt(t, st, "y1", 250, 0.3)
	seedAt(t, st, "r1", 150, 0.4)

	result, err := a.ScoreArea(context.Background(), center, 1.0, 5)
	require.NoError(t, err)

	assert.Equal(t, 60.0, result.GreenPercent)
	assert.Equal(t, 20.0, result.YellowPercent)
	assert.Equal(t, 20.0, result.RedPercent)
	// 40 + 60/25*35 + 20/25*10 - 20/25*25 + 15 = 40 + 84 + 8 - 20 + 15 = 127 -> 100
	assert.Equal(t, 100, result.Score)
}

func TestScoreArea_InsufficientSample(t *testing.T) {
	a, st := newTestAnalyzer(t)

	seedAt(t, st, "only", 400, 0.0)

	result, err := a.ScoreArea(context.Background(), center, 1.0, 5)
	require.NoError(t, err)

	assert.False(t, result.Sufficient)
	assert.Equal(t, 1, result.Analyzed)
	assert.Equal(t, 0, result.Score)
	assert.Contains(t, result.Recommendation, "Insufficient data")
}

func TestScoreArea_RespectsRadius(t *testing.T) {
	a, st := newTestAnalyzer(t)

	for i := 0; i < 5; i++ {
		seedAt(t, st, string(rune('a'+i)), 400, float64(i)*0.05)
	}
	// 10 miles out: must not count.
	seedAt(t, st, "far", 100, 10.0)

	result, err := a.ScoreArea(context.Background(), center, 1.0, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Analyzed)
	assert.Zero(t, result.Counts[model.ZoneRed])
}

func TestFindBest_SortsByScore(t *testing.T) {
	a, st := newTestAnalyzer(t)

	// A strong cluster near the center.
	for i := 0; i < 5; i++ {
		seedAt(t, st, string(rune('a'+i)), 400, float64(i)*0.02)
	}

	best, err := a.FindBest(context.Background(), "Asheville", 65, 100)
	require.NoError(t, err)
	require.NotEmpty(t, best)

	for i := 1; i < len(best); i++ {
		assert.GreaterOrEqual(t, best[i-1].Score, best[i].Score)
	}
	assert.GreaterOrEqual(t, best[0].Score, 65)
}

func TestInvestmentScore_ModerateBand(t *testing.T) {
	r := &model.AreaScore{
		GreenPercent:    25,
		LightPercent:    15,
		YellowPercent:   30,
		RedPercent:      30,
		CombinedPercent: 40,
	}
	// 40 + 35 + 15 + 12 - 30 + 5 = 77
	assert.Equal(t, 77, investmentScore(r))
}
