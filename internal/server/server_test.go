package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/classify"
	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
	"github.com/parcelworks/landscout/internal/zone"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	ladder := classify.NewLadder(config.LadderConfig{Green: 350, LightGreen: 300, Yellow: 220})
	h := New(st, zone.NewAnalyzer(st, ladder))
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	status := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestListStreetZones(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, st.UpsertStreetZone(context.Background(), &model.StreetZone{
		StreetName:      "Main St",
		City:            "Asheville",
		MedianPriceSqft: 310,
		MinPriceSqft:    280,
		MaxPriceSqft:    340,
		Color:           model.ZoneLightGreen,
		SampleSize:      6,
		Confidence:      0.6,
	}))

	var zones []model.StreetZone
	status := getJSON(t, srv.URL+"/api/zones/streets", &zones)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, zones, 1)
	assert.Equal(t, "Main St", zones[0].StreetName)
	assert.Equal(t, model.ZoneLightGreen, zones[0].Color)
}

func TestGetMarketHeat(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, st.UpsertMarketHeat(context.Background(), &model.MarketHeat{
		PostalCode:      "28801",
		ActiveListings:  12,
		SoldLast90d:     9,
		InventoryMonths: 4.0,
		Status:          model.MarketGrowing,
	}))

	var heat model.MarketHeat
	status := getJSON(t, srv.URL+"/api/market/28801", &heat)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.MarketGrowing, heat.Status)

	status = getJSON(t, srv.URL+"/api/market/99999", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListOpportunities_LevelFilter(t *testing.T) {
	srv, st := newTestServer(t)
	for i, level := range []model.UrgencyLevel{model.UrgencyUrgent, model.UrgencyGood} {
		require.NoError(t, st.UpsertOpportunity(context.Background(), &model.LandOpportunity{
			ParcelID:     fmt.Sprintf("p%d", i),
			Address:      "addr",
			ZoneColor:    model.ZoneGreen,
			MarketStatus: model.MarketGrowing,
			UrgencyScore: 90,
			UrgencyLevel: level,
			FilterPassed: true,
		}))
	}

	var opps []model.LandOpportunity
	status := getJSON(t, srv.URL+"/api/opportunities?level=urgent", &opps)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, opps, 1)
	assert.Equal(t, model.UrgencyUrgent, opps[0].UrgencyLevel)
}

func TestScoreArea(t *testing.T) {
	srv, st := newTestServer(t)
	for i := 0; i < 6; i++ {
		lat, lon, pps := 35.60+float64(i)*0.001, -82.55, 400.0
		sqft := 1500.0
		require.NoError(t, st.UpsertComparable(context.Background(), &model.Comparable{
			MLSNumber:    fmt.Sprintf("M%d", i),
			Address:      fmt.Sprintf("%d Main St", i),
			StreetName:   "Main St",
			City:         "Asheville",
			PostalCode:   "28801",
			Latitude:     &lat,
			Longitude:    &lon,
			Sqft:         &sqft,
			PricePerSqft: &pps,
			Status:       model.StatusActive,
		}))
	}

	var score model.AreaScore
	status := getJSON(t, srv.URL+"/api/zones/area?lat=35.60&lon=-82.55", &score)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, score.Sufficient)
	assert.Equal(t, 100, score.Score)

	status = getJSON(t, srv.URL+"/api/zones/area", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
